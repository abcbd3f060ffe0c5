package cite

import "strings"

// Suffixes returns a restartable generator of disambiguation suffixes
// in the fixed order "", a, b, ..., z, aa, ab, ... The sequence is
// conceptually infinite; each call to the returned function yields the
// next suffix.
func Suffixes() func() string {
	n := 0
	return func() string {
		s := suffixAt(n)
		n++
		return s
	}
}

// suffixAt renders the nth suffix: 0 is empty, 1..26 are a..z, 27 is
// aa, and so on (bijective base 26).
func suffixAt(n int) string {
	if n == 0 {
		return ""
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('a' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// Synthesize produces the first citation key <author><year><suffix>
// for which exists reports false, probing suffixes in sequence order.
// The author part is lowercased and reduced to letters and digits so
// the key is safe as both a BibTeX token and a filename.
func Synthesize(author, year string, exists func(string) bool) string {
	base := KeyAuthor(author) + year
	next := Suffixes()
	for {
		candidate := base + next()
		if !exists(candidate) {
			return candidate
		}
	}
}

// KeyAuthor lowercases a surname and strips everything that is not an
// ASCII letter or digit ("van der Berg" becomes "vanderberg"). An
// empty result means the surname cannot contribute to a key.
func KeyAuthor(author string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(author) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
