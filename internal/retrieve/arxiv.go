package retrieve

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/carrelhq/carrel/internal/bibtex"
)

// Atom feed structures for the arXiv export API.

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	DOI       string       `xml:"doi"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

// arxivPaper is the subset of arXiv metadata needed to render BibTeX.
type arxivPaper struct {
	ID      string
	Title   string
	Authors []string
	Year    string
	DOI     string
}

// parseArxivFeed extracts the first paper from an Atom response.
func parseArxivFeed(body []byte, requestedID string) (*arxivPaper, error) {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("%w: parsing feed: %v", ErrInvalidResponse, err)
	}
	if len(feed.Entries) == 0 || strings.TrimSpace(feed.Entries[0].Title) == "" {
		// The API answers an unknown id with an empty or error entry.
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestedID)
	}

	entry := feed.Entries[0]

	// The entry id is a URL like http://arxiv.org/abs/2301.00001v1.
	id := requestedID
	if idx := strings.LastIndex(entry.ID, "/abs/"); idx >= 0 {
		id = entry.ID[idx+len("/abs/"):]
		if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
			id = id[:vIdx]
		}
	}

	var authors []string
	for _, a := range entry.Authors {
		authors = append(authors, a.Name)
	}

	var year string
	if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
		year = fmt.Sprintf("%04d", t.Year())
	}

	return &arxivPaper{
		ID:      id,
		Title:   strings.Join(strings.Fields(entry.Title), " "),
		Authors: authors,
		Year:    year,
		DOI:     entry.DOI,
	}, nil
}

// bibtex renders the paper as an @article entry. The citation key
// slot is left empty for later synthesis.
func (p *arxivPaper) bibtex() string {
	var b strings.Builder
	b.WriteString("@article{,\n")
	if len(p.Authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n",
			bibtex.ToSafeText(formatAuthors(p.Authors), bibtex.ScopeNonASCII)))
	}
	b.WriteString(fmt.Sprintf("  title = {%s},\n",
		bibtex.ToSafeText(p.Title, bibtex.ScopeNonASCII)))
	b.WriteString("  journal = {arXiv preprint},\n")
	if p.Year != "" {
		b.WriteString(fmt.Sprintf("  year = {%s},\n", p.Year))
	}
	b.WriteString(fmt.Sprintf("  eprint = {%s},\n", p.ID))
	if p.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", p.DOI))
	}
	b.WriteString("}\n")
	return b.String()
}

// formatAuthors renders names in BibTeX "Last, First and ..." style.
// arXiv reports names in "First Last" order.
func formatAuthors(names []string) string {
	formatted := make([]string, 0, len(names))
	for _, name := range names {
		parts := strings.Fields(name)
		if len(parts) < 2 {
			formatted = append(formatted, name)
			continue
		}
		last := parts[len(parts)-1]
		first := strings.Join(parts[:len(parts)-1], " ")
		formatted = append(formatted, last+", "+first)
	}
	return strings.Join(formatted, " and ")
}
