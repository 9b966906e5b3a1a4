// Package scraper fetches a business website and reduces it to the plain
// text used as chat grounding context.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// DefaultMaxChars caps extracted page text. Large enough for useful context,
// small enough to keep prompts bounded.
const DefaultMaxChars = 8000

const minMainContentChars = 100

// ScrapeError reports a failed fetch or an unusable response. Scraping is
// best effort; callers surface the failure without aborting session setup.
type ScrapeError struct {
	URL    string
	Status int
	Err    error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scrape %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("scrape %s: unexpected status %d", e.URL, e.Status)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// Result is the extracted page text plus its best-guess title.
type Result struct {
	Title   string
	Content string
}

// Scraper fetches and extracts one page per call.
type Scraper struct {
	httpClient *http.Client
	maxChars   int
}

func New(maxChars int) *Scraper {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Scraper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		maxChars:   maxChars,
	}
}

var collapseSpace = regexp.MustCompile(`\s+`)

// Scrape fetches url and extracts its main text content. Navigation chrome
// is stripped, a main-content region is preferred over the full body, and
// the result is whitespace-collapsed and length-capped.
func (s *Scraper) Scrape(ctx context.Context, url string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, &ScrapeError{URL: url, Err: err}
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Result{}, &ScrapeError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &ScrapeError{URL: url, Status: resp.StatusCode}
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return Result{}, &ScrapeError{URL: url, Err: fmt.Errorf("parse html: %w", err)}
	}

	content := extractContent(doc)
	content = strings.TrimSpace(collapseSpace.ReplaceAllString(content, " "))
	content = truncate(content, s.maxChars)

	title := extractTitle(doc)
	if title == "" {
		title = url
	}
	return Result{Title: title, Content: content}, nil
}

// truncate caps s at max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// Main-content candidates, checked in priority order.
var contentSelectors = []func(*html.Node) bool{
	func(n *html.Node) bool { return n.Data == "main" },
	func(n *html.Node) bool { return attr(n, "role") == "main" },
	func(n *html.Node) bool { return hasClass(n, "main-content") },
	func(n *html.Node) bool { return hasClass(n, "content") },
	func(n *html.Node) bool { return n.Data == "article" },
	func(n *html.Node) bool { return hasClass(n, "article") },
	func(n *html.Node) bool { return hasClass(n, "post-content") },
	func(n *html.Node) bool { return attr(n, "id") == "content" },
}

func extractContent(doc *html.Node) string {
	for _, match := range contentSelectors {
		if node := findElement(doc, match); node != nil {
			if text := collectText(node); len(text) > minMainContentChars {
				return text
			}
		}
	}
	if body := findElement(doc, func(n *html.Node) bool { return n.Data == "body" }); body != nil {
		return collectText(body)
	}
	return collectText(doc)
}

func extractTitle(doc *html.Node) string {
	if node := findElement(doc, func(n *html.Node) bool { return n.Data == "title" }); node != nil {
		if title := strings.TrimSpace(collectText(node)); title != "" {
			return title
		}
	}
	if node := findElement(doc, func(n *html.Node) bool { return n.Data == "h1" }); node != nil {
		if title := strings.TrimSpace(collectText(node)); title != "" {
			return title
		}
	}
	if node := findElement(doc, func(n *html.Node) bool {
		return n.Data == "meta" && attr(n, "property") == "og:title"
	}); node != nil {
		return strings.TrimSpace(attr(node, "content"))
	}
	return ""
}

// skipped filters out script, style, and navigation chrome before text
// collection.
func skipped(n *html.Node) bool {
	switch n.Data {
	case "script", "style", "nav", "header", "footer":
		return true
	}
	return hasClass(n, "nav") || hasClass(n, "navigation") || hasClass(n, "sidebar")
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node) string {
	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped(n) {
			return
		}
		if n.Type == html.TextNode {
			builder.WriteString(n.Data)
			builder.WriteString(" ")
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return builder.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}
