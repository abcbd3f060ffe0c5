// Package retrieve fetches BibTeX metadata and documents from the DOI
// resolver and the arXiv export API.
package retrieve

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DOIBaseURL is the DOI content-negotiation endpoint.
	DOIBaseURL = "https://doi.org"

	// ArxivBaseURL is the arXiv export API query endpoint.
	ArxivBaseURL = "https://export.arxiv.org/api/query"

	// ArxivPDFBaseURL is the base of arXiv's direct PDF links.
	ArxivPDFBaseURL = "https://arxiv.org/pdf"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit is 1 request per 3 seconds per arXiv API guidelines;
	// the same politeness is applied to doi.org.
	RateLimit = 1.0 / 3.0
)

// Client is a rate-limited HTTP client for metadata providers.
type Client struct {
	httpClient   *http.Client
	limiter      *rate.Limiter
	doiBaseURL   string
	arxivBaseURL string
	pdfBaseURL   string
	mailto       string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURLs overrides the provider endpoints (for testing).
func WithBaseURLs(doi, arxiv, pdf string) ClientOption {
	return func(c *Client) {
		c.doiBaseURL = doi
		c.arxivBaseURL = arxiv
		c.pdfBaseURL = pdf
	}
}

// WithMailto sets the contact address sent in the User-Agent, as the
// providers request for polite access.
func WithMailto(mailto string) ClientOption {
	return func(c *Client) {
		c.mailto = mailto
	}
}

// WithRateLimit overrides the request rate (requests per second).
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewClient creates a metadata retrieval client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		limiter:      rate.NewLimiter(rate.Limit(RateLimit), 1),
		doiBaseURL:   DOIBaseURL,
		arxivBaseURL: ArxivBaseURL,
		pdfBaseURL:   ArxivPDFBaseURL,
	}

	if m := os.Getenv("CARREL_MAILTO"); m != "" {
		c.mailto = m
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) userAgent() string {
	if c.mailto != "" {
		return fmt.Sprintf("carrel/1.0 (mailto:%s)", c.mailto)
	}
	return "carrel/1.0"
}

func (c *Client) get(ctx context.Context, url, accept string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	if err := checkHTTPErrors(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// checkHTTPErrors returns an error if the response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	if resp.StatusCode == 404 {
		return fmt.Errorf("%w: status 404", ErrNotFound)
	}
	if resp.StatusCode == 429 {
		return fmt.Errorf("%w: status 429", ErrRateLimited)
	}
	if resp.StatusCode >= 400 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	return nil
}

// BibTeXForDOI resolves a DOI to BibTeX text via content negotiation
// against doi.org.
func (c *Client) BibTeXForDOI(ctx context.Context, doi string) (string, error) {
	url := c.doiBaseURL + "/" + doi
	resp, err := c.get(ctx, url, "application/x-bibtex; charset=utf-8")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	text := strings.TrimSpace(string(body))
	if !strings.HasPrefix(text, "@") {
		return "", fmt.Errorf("%w: not BibTeX", ErrInvalidResponse)
	}
	return text + "\n", nil
}

// ArxivResult is the outcome of an arXiv metadata lookup.
type ArxivResult struct {
	// BibTeX is the entry rendered from the paper's metadata.
	BibTeX string
	// PDFURL is the direct link to the paper's PDF.
	PDFURL string
}

// ArxivEntry fetches a paper's metadata from the arXiv export API and
// renders it as a BibTeX entry.
func (c *Client) ArxivEntry(ctx context.Context, id string) (*ArxivResult, error) {
	url := fmt.Sprintf("%s?id_list=%s&max_results=1", c.arxivBaseURL, id)
	resp, err := c.get(ctx, url, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	paper, err := parseArxivFeed(body, id)
	if err != nil {
		return nil, err
	}

	return &ArxivResult{
		BibTeX: paper.bibtex(),
		PDFURL: c.pdfBaseURL + "/" + paper.ID,
	}, nil
}

// DownloadPDF fetches url into destPath, verifying the %PDF- magic
// before keeping the file.
func (c *Client) DownloadPDF(ctx context.Context, url, destPath string) error {
	resp, err := c.get(ctx, url, "application/pdf")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading download: %w", err)
	}
	if !bytes.HasPrefix(body, []byte("%PDF-")) {
		return ErrNotPDF
	}

	if err := os.WriteFile(destPath, body, 0644); err != nil {
		return fmt.Errorf("writing download: %w", err)
	}
	return nil
}
