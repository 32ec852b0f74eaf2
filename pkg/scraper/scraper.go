package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

type ScraperConfig struct {
	RateLimit float64 // requests per second
	Timeout   time.Duration
	UserAgent string
	Selectors []string // tried in order when a journal has no selector of its own
	Client    *http.Client
}

// Scraper fetches a journal's scope page and extracts its text.
type Scraper struct {
	config  ScraperConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewWithConfig(config ScraperConfig) *Scraper {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}
	if config.UserAgent == "" {
		config.UserAgent = "jurnalcek/1.0"
	}
	if len(config.Selectors) == 0 {
		config.Selectors = defaultSelectors()
	}

	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	return &Scraper{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

func New() *Scraper {
	return NewWithConfig(ScraperConfig{})
}

// FetchScope downloads pageURL and returns the text under selector, or under
// the first default selector that matches when selector is empty.
func (s *Scraper) FetchScope(ctx context.Context, pageURL, selector string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("invalid scope url %q", pageURL)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", pageURL, err)
	}

	var content string
	if selector != "" {
		content = doc.Find(selector).Text()
	} else {
		content = s.extractMainContent(doc)
	}

	content = strings.Join(strings.Fields(content), " ")
	if content == "" {
		return "", fmt.Errorf("no scope text found at %s", pageURL)
	}
	return content, nil
}

func (s *Scraper) extractMainContent(doc *goquery.Document) string {
	for _, selector := range s.config.Selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			if text := strings.TrimSpace(selected.Text()); text != "" {
				return text
			}
		}
	}

	// Fallback to body if no main content found
	return doc.Find("body").Text()
}

// Open Journal Systems layouts first, then generic content areas.
func defaultSelectors() []string {
	return []string{
		"#focusAndScope",
		".focus_and_scope",
		".page_about .description",
		"main",
		"article",
		".content",
		"#content",
	}
}
