// Package bibtex parses, rewrites, and sanitizes BibTeX entries.
//
// The parser is deliberately tolerant: it extracts the citation key slot,
// the first author's surname, and the year from an entry, and reports
// anything it cannot find as absent rather than returning an error.
package bibtex

import (
	"fmt"
	"regexp"
	"strings"
)

// KeySlot locates the citation key of an entry. It is either a Token,
// the key text found between the opening brace and the first comma, or
// an InsertionPoint, the byte offset where a key should be spliced in
// because the slot is empty or unparseable. A nil KeySlot means no
// entry was found at all.
type KeySlot interface {
	keySlot()
}

// Token is a citation key present in the entry text.
type Token string

func (Token) keySlot() {}

// InsertionPoint is the byte offset immediately after the opening brace
// of an entry whose key slot is vacant.
type InsertionPoint int

func (InsertionPoint) keySlot() {}

// Entry holds what Parse could extract from a BibTeX entry.
type Entry struct {
	// Slot locates the citation key; nil when no @type{ opening was found.
	Slot KeySlot
	// Author is the first listed author's surname, case preserved.
	// Empty when no author field was found.
	Author string
	// Year is the 4-digit year field value, empty when missing or
	// non-numeric.
	Year string
}

var (
	entryOpenPattern = regexp.MustCompile(`@\w+\s*\{`)
	yearPattern      = regexp.MustCompile(`^\d{4}$`)
)

// Parse extracts the key slot, first author surname, and year from the
// first BibTeX entry in text. Field order is arbitrary; values may span
// lines and contain nested braces. Parse never fails: missing or
// malformed parts come back absent.
func Parse(text string) Entry {
	var e Entry

	loc := entryOpenPattern.FindStringIndex(text)
	if loc == nil {
		return e
	}
	open := loc[1] // byte offset just past the opening brace

	slot, next := parseKeySlot(text, open)
	e.Slot = slot

	for _, f := range scanFields(text[next:]) {
		switch strings.ToLower(f.name) {
		case "author":
			if e.Author == "" {
				e.Author = firstAuthorSurname(f.value)
			}
		case "year":
			if e.Year == "" {
				v := strings.TrimSpace(f.value)
				if yearPattern.MatchString(v) {
					e.Year = v
				}
			}
		}
	}
	return e
}

// RewriteKey returns text with its citation key set to key. A Token
// slot has its first occurrence replaced; an InsertionPoint slot has
// the key spliced in at the offset with no existing characters removed.
func RewriteKey(text string, slot KeySlot, key string) string {
	switch s := slot.(type) {
	case Token:
		return strings.Replace(text, string(s), key, 1)
	case InsertionPoint:
		off := int(s)
		if off < 0 || off > len(text) {
			return text
		}
		return text[:off] + key + text[off:]
	default:
		return text
	}
}

// Template returns a skeleton article entry carrying key, used by the
// edit loop's reset action. An empty key leaves the slot vacant for
// later synthesis.
func Template(key string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("@article{%s,\n", key))
	b.WriteString("  author = {},\n")
	b.WriteString("  title = {},\n")
	b.WriteString("  journal = {},\n")
	b.WriteString("  year = {},\n")
	b.WriteString("}\n")
	return b.String()
}

// parseKeySlot reads the key slot starting at open (just past the
// opening brace). It returns the slot and the offset where field
// scanning should resume.
func parseKeySlot(text string, open int) (KeySlot, int) {
	for i := open; i < len(text); i++ {
		switch text[i] {
		case ',':
			tok := strings.TrimSpace(text[open:i])
			if isKeyToken(tok) {
				return Token(tok), i + 1
			}
			return InsertionPoint(open), i + 1
		case '=', '{', '"':
			// The slot holds a field, not a key.
			return InsertionPoint(open), open
		case '}':
			tok := strings.TrimSpace(text[open:i])
			if isKeyToken(tok) {
				return Token(tok), i
			}
			return InsertionPoint(open), i
		}
	}
	return InsertionPoint(open), len(text)
}

// isKeyToken reports whether tok can serve as a citation key: non-empty
// with no whitespace or BibTeX structural characters.
func isKeyToken(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if r <= ' ' || r == '{' || r == '}' || r == '=' || r == ',' || r == '@' {
			return false
		}
	}
	return true
}

type field struct {
	name  string
	value string
}

// scanFields walks "name = value" pairs separated by top-level commas,
// tracking brace depth so nested braces and multi-line values survive.
// Scanning stops at the entry's closing brace.
func scanFields(s string) []field {
	var fields []field
	i := 0
	for i < len(s) {
		for i < len(s) && (s[i] == ',' || isSpace(s[i])) {
			i++
		}
		if i >= len(s) || s[i] == '}' {
			break
		}

		start := i
		for i < len(s) && s[i] != '=' && s[i] != ',' && s[i] != '}' {
			i++
		}
		if i >= len(s) || s[i] != '=' {
			continue // no assignment; resync at the next separator
		}
		name := strings.TrimSpace(s[start:i])
		i++
		for i < len(s) && isSpace(s[i]) {
			i++
		}

		value, next := scanValue(s, i)
		if name != "" {
			fields = append(fields, field{name: name, value: value})
		}
		i = next
	}
	return fields
}

// scanValue reads one field value starting at i: a braced group, a
// quoted string, or a bare word. It returns the value text and the
// offset just past it.
func scanValue(s string, i int) (string, int) {
	if i >= len(s) {
		return "", i
	}
	switch s[i] {
	case '{':
		depth := 1
		j := i + 1
		for j < len(s) && depth > 0 {
			switch s[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
			j++
		}
		if depth == 0 {
			return s[i+1 : j-1], j
		}
		return s[i+1:], len(s)
	case '"':
		depth := 0
		for j := i + 1; j < len(s); j++ {
			switch s[j] {
			case '{':
				depth++
			case '}':
				depth--
			case '"':
				if depth == 0 {
					return s[i+1 : j], j + 1
				}
			}
		}
		return s[i+1:], len(s)
	default:
		depth := 0
		j := i
		for j < len(s) {
			c := s[j]
			if depth == 0 && (c == ',' || c == '}') {
				break
			}
			if c == '{' {
				depth++
			} else if c == '}' {
				depth--
			}
			j++
		}
		return strings.TrimSpace(s[i:j]), j
	}
}

// firstAuthorSurname returns the surname of the first author in a
// BibTeX author value ("Last, First and Last2, First2 ..."). A braced
// name unit is returned whole; the "First Last" form falls back to the
// final word.
func firstAuthorSurname(value string) string {
	first := strings.TrimSpace(firstAuthorSegment(value))
	if first == "" {
		return ""
	}

	var surname string
	if i := topLevelComma(first); i >= 0 {
		surname = strings.TrimSpace(first[:i])
	} else if end := matchingBrace(first, 0); end == len(first)-1 {
		surname = strings.TrimSpace(first[1:end])
	} else {
		parts := strings.Fields(first)
		surname = parts[len(parts)-1]
	}

	// Strip a fully wrapping brace group ("{de la Cruz}, Maria").
	if end := matchingBrace(surname, 0); end == len(surname)-1 {
		surname = strings.TrimSpace(surname[1:end])
	}
	return surname
}

// firstAuthorSegment cuts the author value at the first top-level
// "and" separator (whitespace on both sides, any case).
func firstAuthorSegment(value string) string {
	depth := 0
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '{':
			depth++
		case '}':
			depth--
		default:
			if depth == 0 && isSpace(value[i]) && i+4 < len(value) &&
				strings.EqualFold(value[i+1:i+4], "and") && isSpace(value[i+4]) {
				return value[:i]
			}
		}
	}
	return value
}

// topLevelComma returns the index of the first comma outside braces,
// or -1.
func topLevelComma(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// matchingBrace returns the index of the brace closing the one at i,
// or -1 when s[i] is not an opening brace or is unbalanced.
func matchingBrace(s string, i int) int {
	if i >= len(s) || s[i] != '{' {
		return -1
	}
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
