// Package cite classifies bibliographic identifiers and synthesizes
// collision-free citation keys.
package cite

import (
	"regexp"
	"strings"
)

// Kind is the retrieval class of a candidate key.
type Kind int

const (
	// KindManual means no automatic retrieval is possible.
	KindManual Kind = iota
	// KindDOI routes retrieval through the DOI resolver.
	KindDOI
	// KindArxiv routes retrieval through the arXiv export API.
	KindArxiv
)

func (k Kind) String() string {
	switch k {
	case KindDOI:
		return "doi"
	case KindArxiv:
		return "arxiv"
	default:
		return "manual"
	}
}

var (
	// DOI syntax: 10.<registrant>/<suffix>. The registrant is 4+ digits;
	// the suffix is any non-whitespace run.
	doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

	// Modern arXiv ids: YYMM.NNNNN with an optional version suffix.
	arxivModernPattern = regexp.MustCompile(`^\d{4}\.\d{4,5}(v\d+)?$`)

	// Legacy arXiv ids: archive[.SUB]/YYMMNNN, e.g. hep-th/9901001 or
	// math.GT/0309136.
	arxivLegacyPattern = regexp.MustCompile(`^[a-z-]+(\.[A-Za-z-]+)?/\d{7}(v\d+)?$`)

	arxivVersionPattern = regexp.MustCompile(`v\d+$`)
)

// Classify maps a candidate key to its retrieval class. Every string
// maps to exactly one class; unrecognized input is KindManual.
func Classify(key string) Kind {
	if doiPattern.MatchString(NormalizeDOI(key)) {
		return KindDOI
	}
	if id := stripArxivPrefix(key); arxivModernPattern.MatchString(id) || arxivLegacyPattern.MatchString(id) {
		return KindArxiv
	}
	return KindManual
}

// NormalizeDOI strips resolver URL and "doi:" prefixes and lowercases,
// so equal DOIs compare equal.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	lower := strings.ToLower(doi)
	if strings.HasPrefix(lower, "doi:") {
		doi = doi[len("doi:"):]
	}
	return strings.ToLower(strings.TrimSpace(doi))
}

// NormalizeArxiv strips the "arXiv:" prefix and any version suffix.
func NormalizeArxiv(id string) string {
	id = stripArxivPrefix(id)
	if m := arxivVersionPattern.FindStringIndex(id); m != nil {
		id = id[:m[0]]
	}
	return id
}

func stripArxivPrefix(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(strings.ToLower(id), "arxiv:") {
		id = id[len("arxiv:"):]
	}
	return id
}
