package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"newsroom/core/domain"

	"github.com/PuerkitoBio/goquery"
	json "github.com/goccy/go-json"
)

// HomepageAdapter fetches one source's homepage and extracts article
// entries from a JSON payload embedded in a <script> tag — the pattern
// modern SPA sites (Next.js, Nuxt) use instead of a server-rendered list,
// grounded on openai.research.index.py's __NEXT_DATA__ extraction.
type HomepageAdapter struct {
	source     string
	category   string
	homeURL    string
	scriptSel  string // e.g. `script#__NEXT_DATA__`
	titleKeys  []string
	urlKeys    []string
	publishKey []string
	client     *http.Client
}

// NewHomepageAdapter builds a HomepageAdapter. titleKeys/urlKeys/publishKey
// list the JSON object keys tried, in order, when walking the embedded
// payload for candidate article nodes.
func NewHomepageAdapter(source, category, homeURL, scriptSel string, titleKeys, urlKeys, publishKey []string, client *http.Client) *HomepageAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HomepageAdapter{
		source: source, category: category, homeURL: homeURL, scriptSel: scriptSel,
		titleKeys: titleKeys, urlKeys: urlKeys, publishKey: publishKey, client: client,
	}
}

func (a *HomepageAdapter) Source() string   { return a.source }
func (a *HomepageAdapter) Category() string { return a.category }

func (a *HomepageAdapter) FetchHomepage(ctx context.Context) ([]byte, error) {
	return fetchWithUA(ctx, a.client, a.homeURL)
}

func (a *HomepageAdapter) ParseHomepage(body []byte) ([]domain.Entry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse homepage: %w", err)
	}
	script := doc.Find(a.scriptSel).First()
	if script.Length() == 0 {
		return nil, fmt.Errorf("homepage %s: %s not found", a.homeURL, a.scriptSel)
	}

	var payload interface{}
	if err := json.Unmarshal([]byte(script.Text()), &payload); err != nil {
		return nil, fmt.Errorf("parse embedded json: %w", err)
	}

	var entries []domain.Entry
	seen := map[string]bool{}
	walkJSON(payload, func(node map[string]interface{}) {
		title := pickString(node, a.titleKeys)
		url := pickString(node, a.urlKeys)
		if title == "" || url == "" || seen[url] {
			return
		}
		seen[url] = true
		entries = append(entries, domain.Entry{
			Title:     title,
			URL:       url,
			Published: pickString(node, a.publishKey),
		})
	})
	return entries, nil
}

func pickString(node map[string]interface{}, keys []string) string {
	for _, k := range keys {
		if v, ok := node[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// walkJSON recursively visits every object in a decoded JSON tree,
// grounded on openai.research.index.py's _iter_dicts stack-based walk.
func walkJSON(node interface{}, visit func(map[string]interface{})) {
	stack := []interface{}{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch v := n.(type) {
		case map[string]interface{}:
			visit(v)
			for _, child := range v {
				stack = append(stack, child)
			}
		case []interface{}:
			stack = append(stack, v...)
		}
	}
}
