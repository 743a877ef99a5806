// Package scraper implements the adapter contract of §4.1: one adapter per
// source, each exposing a narrow capability (Collect/Homepage/Trending/
// ListPage/Feed) plus an optional detail fetch.
package scraper

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newsroom/core/domain"
)

// FeedAdapter is a generic RSS/Atom adapter, grounded on the pack's own
// hand-rolled encoding/xml feed parsing (no feed-parsing library appears
// anywhere in the example corpus).
type FeedAdapter struct {
	source   string
	category string
	feedURL  string
	client   *http.Client
}

// NewFeedAdapter builds a FeedAdapter for one RSS/Atom URL.
func NewFeedAdapter(source, category, feedURL string, client *http.Client) *FeedAdapter {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &FeedAdapter{source: source, category: category, feedURL: feedURL, client: client}
}

func (a *FeedAdapter) Source() string   { return a.source }
func (a *FeedAdapter) Category() string { return a.category }

func (a *FeedAdapter) FetchFeed(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", "newsroom-collector/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("feed %s: unexpected status %d", a.feedURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (a *FeedAdapter) ProcessFeedEntries(body []byte) ([]domain.Entry, error) {
	if items, err := parseRSS(body); err == nil && len(items) > 0 {
		entries := make([]domain.Entry, 0, len(items))
		for _, it := range items {
			detail := firstNonEmpty(it.ContentEncoded, it.Description)
			if doc, err := goquery.NewDocumentFromReader(strings.NewReader(detail)); err == nil {
				detail = strings.TrimSpace(doc.Text())
			}
			entries = append(entries, domain.Entry{
				Title:     it.Title,
				URL:       it.Link,
				Published: it.PubDate,
				Detail:    detail,
			})
		}
		return entries, nil
	}

	feed, err := parseAtom(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	entries := make([]domain.Entry, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		entries = append(entries, domain.Entry{
			Title:     e.Title,
			URL:       e.Link.Href,
			Published: firstNonEmpty(e.Published, e.Updated),
			Detail:    e.Summary,
		})
	}
	return entries, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

type rssFeed struct {
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title          string `xml:"title"`
	Link           string `xml:"link"`
	Description    string `xml:"description"`
	ContentEncoded string `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
	PubDate        string `xml:"pubDate"`
}

func parseRSS(data []byte) ([]rssItem, error) {
	var feed rssFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		decoder := xml.NewDecoder(bytes.NewReader(data))
		decoder.Strict = false
		if err := decoder.Decode(&feed); err != nil {
			return nil, err
		}
	}
	return feed.Channel.Items, nil
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string   `xml:"title"`
	Link      atomLink `xml:"link"`
	Summary   string   `xml:"summary"`
	Published string   `xml:"published"`
	Updated   string   `xml:"updated"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
}

func parseAtom(data []byte) (*atomFeed, error) {
	var feed atomFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}
