package retrieve

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carrelhq/carrel/internal/bibtex"
)

// testClient builds a client pointed at a test server with the rate
// limiter opened up.
func testClient(doiURL, arxivURL, pdfURL string) *Client {
	return NewClient(
		WithBaseURLs(doiURL, arxivURL, pdfURL),
		WithRateLimit(1000),
	)
}

func TestBibTeXForDOI(t *testing.T) {
	const entry = "@article{Smith_2021, author = {Smith, John}, year = {2021}}"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); !strings.Contains(got, "application/x-bibtex") {
			t.Errorf("Accept = %q, want x-bibtex", got)
		}
		if r.URL.Path != "/10.1000/xyz123" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(entry))
	}))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL, srv.URL)
	got, err := c.BibTeXForDOI(context.Background(), "10.1000/xyz123")
	if err != nil {
		t.Fatalf("BibTeXForDOI() error = %v", err)
	}
	if !strings.HasPrefix(got, "@article{Smith_2021,") {
		t.Errorf("BibTeXForDOI() = %q", got)
	}

	e := bibtex.Parse(got)
	if e.Author != "Smith" || e.Year != "2021" {
		t.Errorf("parsed retrieval = %+v", e)
	}
}

func TestBibTeXForDOI_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL, srv.URL)
	_, err := c.BibTeXForDOI(context.Background(), "10.1000/missing")
	if !IsNotFound(err) {
		t.Errorf("BibTeXForDOI() error = %v, want not-found", err)
	}
}

func TestBibTeXForDOI_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL, srv.URL)
	_, err := c.BibTeXForDOI(context.Background(), "10.1000/xyz123")
	if !IsRateLimited(err) {
		t.Errorf("BibTeXForDOI() error = %v, want rate-limited", err)
	}
}

func TestBibTeXForDOI_NotBibTeX(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>resolver landing page</html>"))
	}))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL, srv.URL)
	_, err := c.BibTeXForDOI(context.Background(), "10.1000/xyz123")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("BibTeXForDOI() error = %v, want ErrInvalidResponse", err)
	}
}

const arxivFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2101.00001v2</id>
    <title>Deep Learning for  Phylogenetics</title>
    <published>2021-01-01T18:00:00Z</published>
    <author><name>Hans Müller</name></author>
    <author><name>Jane Doe</name></author>
  </entry>
</feed>`

func TestArxivEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id_list"); got != "2101.00001" {
			t.Errorf("id_list = %q", got)
		}
		w.Write([]byte(arxivFeed))
	}))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL, "https://arxiv.org/pdf")
	res, err := c.ArxivEntry(context.Background(), "2101.00001")
	if err != nil {
		t.Fatalf("ArxivEntry() error = %v", err)
	}

	if res.PDFURL != "https://arxiv.org/pdf/2101.00001" {
		t.Errorf("PDFURL = %q", res.PDFURL)
	}
	if !strings.Contains(res.BibTeX, "Deep Learning for Phylogenetics") {
		t.Errorf("BibTeX missing title: %q", res.BibTeX)
	}
	if !strings.Contains(res.BibTeX, `M{\"u}ller, Hans and Doe, Jane`) {
		t.Errorf("BibTeX authors wrong: %q", res.BibTeX)
	}

	// The key slot is left open for synthesis.
	e := bibtex.Parse(res.BibTeX)
	if _, ok := e.Slot.(bibtex.InsertionPoint); !ok {
		t.Errorf("parsed slot = %T, want InsertionPoint", e.Slot)
	}
	if e.Author != `M{\"u}ller` || e.Year != "2021" {
		t.Errorf("parsed entry = %+v", e)
	}
}

func TestArxivEntry_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL, srv.URL)
	_, err := c.ArxivEntry(context.Background(), "9999.99999")
	if !IsNotFound(err) {
		t.Errorf("ArxivEntry() error = %v, want not-found", err)
	}
}

func TestDownloadPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4 body bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "paper.pdf")
	c := testClient(srv.URL, srv.URL, srv.URL)
	if err := c.DownloadPDF(context.Background(), srv.URL+"/paper", dest); err != nil {
		t.Fatalf("DownloadPDF() error = %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading download: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Errorf("download content = %q", data)
	}
}

func TestDownloadPDF_NotPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>captcha page</html>"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "paper.pdf")
	c := testClient(srv.URL, srv.URL, srv.URL)
	err := c.DownloadPDF(context.Background(), srv.URL+"/paper", dest)
	if !errors.Is(err, ErrNotPDF) {
		t.Errorf("DownloadPDF() error = %v, want ErrNotPDF", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("non-PDF download left on disk")
	}
}

func TestUserAgent_Mailto(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		w.Write([]byte("@misc{x,}"))
	}))
	defer srv.Close()

	c := NewClient(
		WithBaseURLs(srv.URL, srv.URL, srv.URL),
		WithRateLimit(1000),
		WithMailto("reader@example.org"),
	)
	if _, err := c.BibTeXForDOI(context.Background(), "10.1/x"); err != nil {
		t.Fatalf("BibTeXForDOI() error = %v", err)
	}
	if !strings.Contains(got, "mailto:reader@example.org") {
		t.Errorf("User-Agent = %q, want mailto", got)
	}
}
