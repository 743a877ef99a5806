package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"newsroom/core/domain"

	json "github.com/goccy/go-json"
)

// TrendingAdapter fetches a JSON ranking/trending endpoint and maps a
// configurable array path to entries. Grounded on the "fetch + process a
// structured payload" shape shared by every original_source adapter that
// talks to a JSON API rather than scraping HTML (e.g. arxiv's Atom-over-API
// pattern, generalized here to raw JSON).
type TrendingAdapter struct {
	source     string
	category   string
	apiURL     string
	arrayPath  []string // dotted path to the array of items within the payload
	titleKey   string
	urlKey     string
	publishKey string
	client     *http.Client
}

// NewTrendingAdapter builds a TrendingAdapter.
func NewTrendingAdapter(source, category, apiURL string, arrayPath []string, titleKey, urlKey, publishKey string, client *http.Client) *TrendingAdapter {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &TrendingAdapter{
		source: source, category: category, apiURL: apiURL, arrayPath: arrayPath,
		titleKey: titleKey, urlKey: urlKey, publishKey: publishKey, client: client,
	}
}

func (a *TrendingAdapter) Source() string   { return a.source }
func (a *TrendingAdapter) Category() string { return a.category }

func (a *TrendingAdapter) FetchTrending(ctx context.Context) ([]byte, error) {
	return fetchWithUA(ctx, a.client, a.apiURL)
}

func (a *TrendingAdapter) ProcessTrending(body []byte) ([]domain.Entry, error) {
	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse trending payload: %w", err)
	}

	node := payload
	for _, key := range a.arrayPath {
		m, ok := node.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("trending payload: path segment %q not an object", key)
		}
		node, ok = m[key]
		if !ok {
			return nil, fmt.Errorf("trending payload: missing key %q", key)
		}
	}

	items, ok := node.([]interface{})
	if !ok {
		return nil, fmt.Errorf("trending payload: resolved path is not an array")
	}

	entries := make([]domain.Entry, 0, len(items))
	for _, raw := range items {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		title := stringField(obj, a.titleKey)
		url := stringField(obj, a.urlKey)
		if title == "" || url == "" {
			continue
		}
		entries = append(entries, domain.Entry{
			Title:     strings.TrimSpace(title),
			URL:       url,
			Published: stringField(obj, a.publishKey),
		})
	}
	return entries, nil
}

func stringField(obj map[string]interface{}, key string) string {
	if key == "" {
		return ""
	}
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}
