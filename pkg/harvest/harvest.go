// Package harvest fetches law documents from government web sources and
// extracts structured title/content pairs from their HTML.
package harvest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Default source URLs for Rwanda legal publications.
var DefaultURLs = []string{
	"https://www.amategeko.gov.rw/",
	"https://www.minijust.gov.rw/publications",
	"https://www.minijust.gov.rw/laws",
}

// Default CSS selectors for the layout used by the source sites.
const (
	DefaultBlockSelector = "div.law-item"
	DefaultTitleSelector = "h2"
	DefaultBodySelector  = "p"
)

const (
	defaultConcurrency = 3
	defaultTimeout     = 30 * time.Second
)

// Law is a single harvested document. Blocks missing either a title or a
// body are discarded during extraction.
type Law struct {
	Title   string
	Content string
}

// Config holds configuration for a Harvester.
type Config struct {
	// URLs are the pages to harvest. Defaults to DefaultURLs.
	URLs []string

	// BlockSelector matches one law entry in the page.
	BlockSelector string

	// TitleSelector matches the title element within a block.
	TitleSelector string

	// BodySelector matches the body element within a block.
	BodySelector string

	// Concurrency bounds the number of in-flight page fetches.
	Concurrency int

	// Timeout applies per HTTP request.
	Timeout time.Duration
}

// Harvester fetches configured pages concurrently and extracts law entries.
// A page that fails to fetch or parse contributes nothing; the remaining
// pages still produce results.
type Harvester struct {
	urls          []string
	blockSelector string
	titleSelector string
	bodySelector  string
	concurrency   int
	client        *http.Client
	logger        *zap.Logger
}

// NewHarvester creates a Harvester, applying defaults for any unset fields.
func NewHarvester(c Config, logger *zap.Logger) *Harvester {
	urls := c.URLs
	if len(urls) == 0 {
		urls = DefaultURLs
	}
	blockSelector := c.BlockSelector
	if blockSelector == "" {
		blockSelector = DefaultBlockSelector
	}
	titleSelector := c.TitleSelector
	if titleSelector == "" {
		titleSelector = DefaultTitleSelector
	}
	bodySelector := c.BodySelector
	if bodySelector == "" {
		bodySelector = DefaultBodySelector
	}
	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Harvester{
		urls:          urls,
		blockSelector: blockSelector,
		titleSelector: titleSelector,
		bodySelector:  bodySelector,
		concurrency:   concurrency,
		client:        &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

// Harvest fetches every configured URL and returns the extracted laws in
// URL order, with document order preserved within each page. Per-URL
// failures are logged and skipped; Harvest itself only fails on context
// cancellation.
func (h *Harvester) Harvest(ctx context.Context) ([]Law, error) {
	perURL := make([][]Law, len(h.urls))

	sem := make(chan struct{}, h.concurrency)
	var wg sync.WaitGroup

	for i, url := range h.urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			laws, err := h.harvestURL(ctx, url)
			if err != nil {
				h.logger.Warn("harvest failed for url",
					zap.String("url", url),
					zap.Error(err),
				)
				return
			}

			h.logger.Info("harvested laws from url",
				zap.String("url", url),
				zap.Int("count", len(laws)),
			)
			perURL[i] = laws
		}(i, url)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []Law
	for _, laws := range perURL {
		all = append(all, laws...)
	}

	h.logger.Info("harvest complete",
		zap.Int("urls", len(h.urls)),
		zap.Int("total_laws", len(all)),
	)

	return all, nil
}

// harvestURL fetches a single page and extracts its law entries.
func (h *Harvester) harvestURL(ctx context.Context, url string) ([]Law, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	var laws []Law
	doc.Find(h.blockSelector).Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find(h.titleSelector).Text())
		content := strings.TrimSpace(sel.Find(h.bodySelector).Text())

		if title != "" && content != "" {
			laws = append(laws, Law{Title: title, Content: content})
		}
	})

	return laws, nil
}
