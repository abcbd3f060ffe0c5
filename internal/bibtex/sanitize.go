package bibtex

import (
	"strings"
	"unicode"
)

// Scope selects how much of the text ToSafeText rewrites.
type Scope int

const (
	// ScopeAll escapes LaTeX-special ASCII characters and all mapped
	// non-ASCII code points. Use on plain text (titles, names) that is
	// about to become a BibTeX field value.
	ScopeAll Scope = iota
	// ScopeNonASCII leaves ASCII untouched and rewrites only code
	// points outside the ASCII range. Use on text that may already
	// carry valid LaTeX markup.
	ScopeNonASCII
)

// unknownToken stands in for a non-ASCII code point with no known
// LaTeX form. It is brace-balanced and comma-free so the rewrite never
// disturbs field boundaries.
const unknownToken = "{?}"

// ToSafeText rewrites text into an ASCII-safe form. Every replacement
// is brace-balanced and contains no commas, so field boundaries in
// BibTeX text are preserved. Pure-ASCII input passes through unchanged
// under ScopeNonASCII.
func ToSafeText(text string, scope Scope) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r <= unicode.MaxASCII {
			if scope == ScopeAll {
				if rep, ok := asciiEscapes[r]; ok {
					b.WriteString(rep)
					continue
				}
			}
			b.WriteRune(r)
			continue
		}
		if rep, ok := latexEscapes[r]; ok {
			b.WriteString(rep)
		} else {
			b.WriteString(unknownToken)
		}
	}
	return b.String()
}

// IsASCII reports whether every code point in s is ASCII.
func IsASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// asciiEscapes protects LaTeX-special ASCII characters. Braces are
// deliberately absent: rewriting them would change entry structure.
var asciiEscapes = map[rune]string{
	'&': `\&`,
	'%': `\%`,
	'$': `\$`,
	'#': `\#`,
	'_': `\_`,
	'~': `\textasciitilde{}`,
	'^': `\textasciicircum{}`,
}

// latexEscapes maps non-ASCII code points to brace-protected LaTeX
// forms.
var latexEscapes = map[rune]string{
	// acute
	'á': `{\'a}`, 'é': `{\'e}`, 'í': `{\'i}`, 'ó': `{\'o}`, 'ú': `{\'u}`,
	'ý': `{\'y}`, 'ć': `{\'c}`, 'ń': `{\'n}`, 'ś': `{\'s}`, 'ź': `{\'z}`,
	'Á': `{\'A}`, 'É': `{\'E}`, 'Í': `{\'I}`, 'Ó': `{\'O}`, 'Ú': `{\'U}`,
	'Ý': `{\'Y}`, 'Ć': `{\'C}`, 'Ń': `{\'N}`, 'Ś': `{\'S}`, 'Ź': `{\'Z}`,
	// grave
	'à': "{\\`a}", 'è': "{\\`e}", 'ì': "{\\`i}", 'ò': "{\\`o}", 'ù': "{\\`u}",
	'À': "{\\`A}", 'È': "{\\`E}", 'Ì': "{\\`I}", 'Ò': "{\\`O}", 'Ù': "{\\`U}",
	// circumflex
	'â': `{\^a}`, 'ê': `{\^e}`, 'î': `{\^i}`, 'ô': `{\^o}`, 'û': `{\^u}`,
	'Â': `{\^A}`, 'Ê': `{\^E}`, 'Î': `{\^I}`, 'Ô': `{\^O}`, 'Û': `{\^U}`,
	// umlaut
	'ä': `{\"a}`, 'ë': `{\"e}`, 'ï': `{\"i}`, 'ö': `{\"o}`, 'ü': `{\"u}`,
	'ÿ': `{\"y}`,
	'Ä': `{\"A}`, 'Ë': `{\"E}`, 'Ï': `{\"I}`, 'Ö': `{\"O}`, 'Ü': `{\"U}`,
	// tilde
	'ã': `{\~a}`, 'ñ': `{\~n}`, 'õ': `{\~o}`,
	'Ã': `{\~A}`, 'Ñ': `{\~N}`, 'Õ': `{\~O}`,
	// cedilla
	'ç': `{\c c}`, 'Ç': `{\c C}`, 'ş': `{\c s}`, 'Ş': `{\c S}`,
	'ţ': `{\c t}`, 'Ţ': `{\c T}`,
	// caron
	'č': `{\v c}`, 'ď': `{\v d}`, 'ě': `{\v e}`, 'ň': `{\v n}`,
	'ř': `{\v r}`, 'š': `{\v s}`, 'ť': `{\v t}`, 'ž': `{\v z}`,
	'Č': `{\v C}`, 'Ď': `{\v D}`, 'Ě': `{\v E}`, 'Ň': `{\v N}`,
	'Ř': `{\v R}`, 'Š': `{\v S}`, 'Ť': `{\v T}`, 'Ž': `{\v Z}`,
	// breve, ring, ogonek, macron, dot
	'ă': `{\u a}`, 'Ă': `{\u A}`, 'ğ': `{\u g}`, 'Ğ': `{\u G}`,
	'å': `{\aa}`, 'Å': `{\AA}`, 'ů': `{\r u}`, 'Ů': `{\r U}`,
	'ą': `{\k a}`, 'Ą': `{\k A}`, 'ę': `{\k e}`, 'Ę': `{\k E}`,
	'ā': `{\=a}`, 'ē': `{\=e}`, 'ī': `{\=i}`, 'ō': `{\=o}`, 'ū': `{\=u}`,
	'Ā': `{\=A}`, 'Ē': `{\=E}`, 'Ī': `{\=I}`, 'Ō': `{\=O}`, 'Ū': `{\=U}`,
	'ż': `{\.z}`, 'Ż': `{\.Z}`, 'İ': `{\.I}`,
	// letters and ligatures
	'ß': `{\ss}`, 'æ': `{\ae}`, 'Æ': `{\AE}`, 'œ': `{\oe}`, 'Œ': `{\OE}`,
	'ø': `{\o}`, 'Ø': `{\O}`, 'ł': `{\l}`, 'Ł': `{\L}`, 'ı': `{\i}`,
	'đ': `{\dj}`, 'Đ': `{\DJ}`, 'þ': `{\th}`, 'Þ': `{\TH}`,
	'ð': `{\dh}`, 'Ð': `{\DH}`,
	// punctuation and symbols
	'–': `--`, '—': `---`, '‘': "`", '’': `'`, '‚': `'`,
	'“': "``", '”': `''`, '„': `''`,
	'…': `{\ldots}`, '·': `{\textperiodcentered}`, '°': `{\textdegree}`,
	'±': `{\textpm}`, '×': `{\texttimes}`, '÷': `{\textdiv}`,
	'§': `{\S}`, '¶': `{\P}`, '†': `{\dag}`, '‡': `{\ddag}`,
	'©': `{\textcopyright}`, '®': `{\textregistered}`,
	'€': `{\texteuro}`, '£': `{\pounds}`, '¥': `{\textyen}`,
	'µ': `{\textmu}`, '№': `{\textnumero}`,
	' ': ` `, // no-break space
}
