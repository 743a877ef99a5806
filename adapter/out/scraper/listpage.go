package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"newsroom/core/domain"

	"github.com/PuerkitoBio/goquery"
)

// ListPageAdapter is a generic HTML-list-page adapter: fetch one page,
// extract article cards with goquery, optionally fetch each article body
// on demand. Grounded on huggingface.papers.trending.py's structured-data-
// then-visible-cards fallback strategy, expressed with goquery selectors
// instead of BeautifulSoup.
type ListPageAdapter struct {
	source   string
	category string
	listURL  string
	baseURL  string
	selector string // CSS selector for one article card
	client   *http.Client
}

// NewListPageAdapter builds a ListPageAdapter. selector picks one card per
// article; the adapter looks for the first <a href> and optional <time>
// inside each matched card.
func NewListPageAdapter(source, category, listURL, baseURL, selector string, client *http.Client) *ListPageAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ListPageAdapter{
		source: source, category: category, listURL: listURL,
		baseURL: baseURL, selector: selector, client: client,
	}
}

func (a *ListPageAdapter) Source() string   { return a.source }
func (a *ListPageAdapter) Category() string { return a.category }

func (a *ListPageAdapter) FetchListPage(ctx context.Context) ([]byte, error) {
	return fetchWithUA(ctx, a.client, a.listURL)
}

func (a *ListPageAdapter) ParseListPage(body []byte) ([]domain.Entry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse list page: %w", err)
	}

	var entries []domain.Entry
	seen := map[string]bool{}
	doc.Find(a.selector).Each(func(_ int, card *goquery.Selection) {
		link := card.Find("a[href]").First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		url := a.resolveURL(href)
		if seen[url] {
			return
		}
		title := strings.TrimSpace(link.Text())
		if title == "" {
			title = strings.TrimSpace(card.Text())
		}
		if title == "" {
			return
		}
		seen[url] = true

		published := ""
		if t := card.Find("time").First(); t.Length() > 0 {
			if dt, ok := t.Attr("datetime"); ok && dt != "" {
				published = dt
			} else {
				published = strings.TrimSpace(t.Text())
			}
		}

		entries = append(entries, domain.Entry{
			Title:     title,
			URL:       url,
			Published: published,
		})
	})
	return entries, nil
}

func (a *ListPageAdapter) resolveURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimRight(a.baseURL, "/") + "/" + strings.TrimLeft(href, "/")
}

// FetchArticleDetail extracts the main readable text of an article page,
// stripping chrome elements, grounded on huggingface.papers.trending.py's
// fetch_article_detail.
func (a *ListPageAdapter) FetchArticleDetail(ctx context.Context, url string) (string, error) {
	body, err := fetchWithUA(ctx, a.client, url)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("parse article: %w", err)
	}
	doc.Find("script, style, noscript, svg, img, video, figure, iframe, button, form, nav, aside, footer, header").Remove()

	for _, sel := range []string{"article", "main article", ".post-content", ".prose", "main"} {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if text := cleanText(node.Text()); text != "" {
				return text, nil
			}
		}
	}
	if meta, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		return strings.TrimSpace(meta), nil
	}
	return "", nil
}

func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l != "" || (len(out) > 0 && out[len(out)-1] != "") {
			out = append(out, l)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func fetchWithUA(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; newsroom-collector/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s: unexpected status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
