// Package websearch provides a last-resort context source backed by the
// DuckDuckGo instant answer API.
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultEndpoint is the DuckDuckGo instant answer API endpoint.
const DefaultEndpoint = "https://api.duckduckgo.com/"

const defaultTimeout = 15 * time.Second

// ErrNoAnswer is returned when the API responds but carries neither an
// abstract nor a related topic for the query.
var ErrNoAnswer = errors.New("no instant answer for query")

// ErrSearchFailed is returned when the API cannot be reached or returns an
// unusable response.
var ErrSearchFailed = errors.New("web search failed")

// Searcher looks up a short text answer for a free-form query.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Config holds configuration for the DuckDuckGo searcher.
type Config struct {
	// Endpoint overrides the API endpoint. Defaults to DefaultEndpoint.
	Endpoint string

	// Timeout applies per request.
	Timeout time.Duration
}

// DuckDuckGo implements Searcher against the instant answer API. Responses
// prefer the abstract text, falling back to the first related topic.
type DuckDuckGo struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewDuckDuckGo creates a DuckDuckGo searcher, applying defaults for any
// unset fields.
func NewDuckDuckGo(c Config, logger *zap.Logger) *DuckDuckGo {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &DuckDuckGo{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type instantAnswer struct {
	AbstractText  string `json:"AbstractText"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

// Search queries the instant answer API.
func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	reqURL := fmt.Sprintf("%s?q=%s&format=json", d.endpoint, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: building request: %v", ErrSearchFailed, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", ErrSearchFailed, resp.StatusCode)
	}

	var answer instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrSearchFailed, err)
	}

	if answer.AbstractText != "" {
		d.logger.Debug("web search answered from abstract", zap.String("query", query))
		return answer.AbstractText, nil
	}

	if len(answer.RelatedTopics) > 0 && answer.RelatedTopics[0].Text != "" {
		d.logger.Debug("web search answered from related topic", zap.String("query", query))
		return answer.RelatedTopics[0].Text, nil
	}

	return "", ErrNoAnswer
}

// Ensure DuckDuckGo implements Searcher
var _ Searcher = (*DuckDuckGo)(nil)
