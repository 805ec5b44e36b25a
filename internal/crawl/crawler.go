package crawl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avion00/medicare-backend/pkg/logging"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxPages     = 5
	defaultFetchTimeout = 10 * time.Second
	defaultUserAgent    = "LookoutBot/1.0"
	maxPageBytes        = 10 << 20 // 10 MB
	maxRedirects        = 5
)

// ErrInvalidTarget is returned when the base URL cannot be crawled at all.
var ErrInvalidTarget = errors.New("invalid crawl target")

// Target is a validated crawl request.
type Target struct {
	BaseURL  *url.URL
	MaxPages int
}

// NewTarget parses base, drops its fragment so it matches discovered links,
// and applies the default page budget when maxPages < 1.
func NewTarget(base string, maxPages int) (Target, error) {
	parsed, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if parsed.Host == "" {
		return Target{}, fmt.Errorf("%w: %q has no host", ErrInvalidTarget, base)
	}
	parsed.Fragment, parsed.RawFragment = "", ""
	if maxPages < 1 {
		maxPages = DefaultMaxPages
	}
	return Target{BaseURL: parsed, MaxPages: maxPages}, nil
}

// PageSummary is the summarized text of one crawled HTML page.
type PageSummary struct {
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// Summarizer condenses page text. Implementations must not fail; a fallback
// summary is expected when the backend is unavailable.
type Summarizer interface {
	Summarize(ctx context.Context, text string) string
}

type Crawler struct {
	client       *http.Client
	summarizer   Summarizer
	logger       logging.Logger
	userAgent    string
	fetchTimeout time.Duration
	concurrency  int
	allowPrivate bool
	guard        *destinationGuard
}

type CrawlerOption func(*Crawler)

func WithLogger(logger logging.Logger) CrawlerOption {
	return func(c *Crawler) { c.logger = logger }
}

func WithUserAgent(ua string) CrawlerOption {
	return func(c *Crawler) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

func WithFetchTimeout(d time.Duration) CrawlerOption {
	return func(c *Crawler) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// WithHTTPClient replaces the default guarded client. Page URLs and
// redirects are still checked, but host names are resolved by the caller's
// transport.
func WithHTTPClient(client *http.Client) CrawlerOption {
	return func(c *Crawler) { c.client = client }
}

// WithConcurrency sets how many pages are fetched at once. Output is
// identical for every n.
func WithConcurrency(n int) CrawlerOption {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithAllowPrivate disables the private-address guard, for crawling intranet
// sites and local test servers.
func WithAllowPrivate(allow bool) CrawlerOption {
	return func(c *Crawler) { c.allowPrivate = allow }
}

func NewCrawler(summarizer Summarizer, opts ...CrawlerOption) (*Crawler, error) {
	if summarizer == nil {
		return nil, errors.New("summarizer is required")
	}
	c := &Crawler{
		summarizer:   summarizer,
		logger:       logging.NewLogger(),
		userAgent:    defaultUserAgent,
		fetchTimeout: defaultFetchTimeout,
		concurrency:  1,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.guard = newDestinationGuard(c.allowPrivate)
	if c.client == nil {
		c.client = &http.Client{Transport: c.guard.transport()}
	}
	c.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if err := c.guard.checkURL(req.URL); err != nil {
			return fmt.Errorf("redirect: %w", err)
		}
		return nil
	}
	return c, nil
}

// Crawl walks the site rooted at base breadth-first, staying on the base
// authority and visiting at most maxPages URLs. It returns one summary per
// HTML page with text, in fetch order. Page failures are logged and skipped;
// only an unusable base URL or a cancelled context produces an error.
func (c *Crawler) Crawl(ctx context.Context, base string, maxPages int) ([]PageSummary, error) {
	target, err := NewTarget(base, maxPages)
	if err != nil {
		return nil, err
	}
	return c.CrawlTarget(ctx, target)
}

// pageResult is the outcome of visiting a single URL.
type pageResult struct {
	summary *PageSummary
	links   []string
}

func (c *Crawler) CrawlTarget(ctx context.Context, target Target) ([]PageSummary, error) {
	start := time.Now()
	defer func() { crawlDuration.Observe(time.Since(start).Seconds()) }()

	baseDomain := target.BaseURL.Host
	frontier := []string{target.BaseURL.String()}
	visited := make(map[string]bool, target.MaxPages)
	summaries := make([]PageSummary, 0, target.MaxPages)

	log := c.logger.WithFields(logging.Fields{
		"base_url":  target.BaseURL.String(),
		"max_pages": target.MaxPages,
	})

	for len(frontier) > 0 && len(visited) < target.MaxPages {
		if err := ctx.Err(); err != nil {
			return summaries, err
		}

		var batch []string
		for len(frontier) > 0 && len(batch) < c.concurrency && len(visited) < target.MaxPages {
			next := frontier[0]
			frontier = frontier[1:]
			if visited[next] {
				continue
			}
			visited[next] = true
			batch = append(batch, next)
		}
		if len(batch) == 0 {
			break
		}

		results := make([]pageResult, len(batch))
		var g errgroup.Group
		g.SetLimit(c.concurrency)
		for i, pageURL := range batch {
			g.Go(func() error {
				results[i] = c.visit(ctx, pageURL)
				return nil
			})
		}
		_ = g.Wait()

		for _, res := range results {
			if res.summary != nil {
				summaries = append(summaries, *res.summary)
			}
			for _, link := range res.links {
				if visited[link] || !IsValid(link, baseDomain) {
					continue
				}
				linkDiscoveryTotal.Inc()
				frontier = append(frontier, link)
			}
		}
	}

	log.WithFields(logging.Fields{
		"visited":   len(visited),
		"summaries": len(summaries),
	}).Info("Crawl finished")
	return summaries, nil
}

// visit fetches one page, summarizes its text and returns its outgoing links.
// Failures are logged and yield an empty result.
func (c *Crawler) visit(ctx context.Context, pageURL string) pageResult {
	log := c.logger.WithField("url", pageURL)

	body, isHTML, err := c.fetch(ctx, pageURL)
	if err != nil {
		status := pageFailed
		if errors.Is(err, errBlocked) {
			status = pageBlocked
		}
		crawlPagesTotal.WithLabelValues(status).Inc()
		log.WithError(err).Warn("Failed to fetch page")
		return pageResult{}
	}
	if !isHTML {
		crawlPagesTotal.WithLabelValues(pageNonHTML).Inc()
		log.Debug("Skipping non-HTML page")
		return pageResult{}
	}

	doc, err := parseHTML(body)
	if err != nil {
		crawlPagesTotal.WithLabelValues(pageFailed).Inc()
		log.WithError(err).Warn("Failed to parse page")
		return pageResult{}
	}

	var res pageResult
	if pageRef, parseErr := url.Parse(pageURL); parseErr == nil {
		res.links = ExtractLinks(doc, pageRef)
	}

	text := documentText(doc)
	if text == "" {
		crawlPagesTotal.WithLabelValues(pageEmpty).Inc()
		log.Debug("Page has no text")
		return res
	}

	res.summary = &PageSummary{URL: pageURL, Summary: c.summarizer.Summarize(ctx, text)}
	crawlPagesTotal.WithLabelValues(pageSummarized).Inc()
	return res
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false, err
	}
	if err := c.guard.checkURL(req.URL); err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetch page %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))
		return nil, false, fmt.Errorf("fetch page %s: unexpected status %s", pageURL, resp.Status)
	}

	if !strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "text/html") {
		return nil, false, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, false, fmt.Errorf("read page %s: %w", pageURL, err)
	}
	return bytes.TrimSpace(data), true, nil
}
