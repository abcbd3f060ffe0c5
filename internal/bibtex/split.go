package bibtex

// Split isolates the top-level @type{...} blocks of a .bib stream.
// Text outside entries (comments, stray prose) is discarded. An entry
// with unbalanced braces runs to the end of the input.
func Split(text string) []string {
	var entries []string
	for i := 0; i < len(text); {
		loc := entryOpenPattern.FindStringIndex(text[i:])
		if loc == nil {
			break
		}
		start := i + loc[0]
		depth := 1
		j := i + loc[1]
		for j < len(text) && depth > 0 {
			switch text[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
			j++
		}
		entries = append(entries, text[start:j])
		i = j
	}
	return entries
}
