package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

const (
	ResultsURL = "http://www.taiwanlottery.com.tw/index_new.aspx"
	UserAgent  = "catchlottery/1.0 (github.com/pfrederiksen/catchlottery)"
	Timeout    = 30 * time.Second
)

// Scraper handles fetching and parsing the lottery results page
type Scraper struct {
	client    *http.Client
	url       string
	userAgent string
}

// Option configures a Scraper
type Option func(*Scraper)

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// New creates a new Scraper for the given page URL
func New(url string, opts ...Option) *Scraper {
	if url == "" {
		url = ResultsURL
	}

	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		url:       url,
		userAgent: UserAgent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the page the scraper fetches
func (s *Scraper) URL() string {
	return s.url
}

// Fetch downloads the results page and parses it into a document tree
func (s *Scraper) Fetch(ctx context.Context) (Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return Parse(resp.Body, resp.Header.Get("Content-Type"))
}

// Parse decodes an HTML page to UTF-8, honouring the charset in contentType or in the
// page's own meta tags, and returns its document tree.
func Parse(r io.Reader, contentType string) (Node, error) {
	utf8Reader, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("decoding page: %w", err)
	}

	return parseHTML(utf8Reader)
}
