package scraper

import "testing"

const sampleNextData = `<!DOCTYPE html>
<html><head></head><body>
<div id="__next"></div>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"posts":[
{"title":"Research Post One","url":"https://openai.com/research/one","publishedAt":"2024-01-01"},
{"title":"","url":"https://openai.com/research/blank-title","publishedAt":"2024-01-02"},
{"title":"Research Post One","url":"https://openai.com/research/one","publishedAt":"2024-01-01"},
{"slug":"research/two","text":"Research Post Two","date":"2024-01-03"}
]}}}
</script>
</body></html>`

func TestHomepageAdapter_ParseHomepage_WalksNextData(t *testing.T) {
	a := NewHomepageAdapter(
		"openai.research", "tech",
		"https://openai.com/research/index/", "script#__NEXT_DATA__",
		[]string{"title", "text", "plainText"}, []string{"url", "href", "slug"}, []string{"publishedAt", "date", "publish"},
		nil,
	)
	entries, err := a.ParseHomepage([]byte(sampleNextData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries (blank title skipped, duplicate url deduped), got %d: %+v", len(entries), entries)
	}
	byURL := map[string]string{}
	for _, e := range entries {
		byURL[e.URL] = e.Title
	}
	if byURL["https://openai.com/research/one"] != "Research Post One" {
		t.Fatalf("missing expected title-keyed entry: %+v", byURL)
	}
	if byURL["research/two"] != "Research Post Two" {
		t.Fatalf("expected fallback url key 'slug' to resolve, got %+v", byURL)
	}
}

func TestHomepageAdapter_ParseHomepage_MissingScriptIsError(t *testing.T) {
	a := NewHomepageAdapter("x", "tech", "https://x", "script#__NEXT_DATA__", nil, nil, nil, nil)
	if _, err := a.ParseHomepage([]byte("<html><body>no script here</body></html>")); err == nil {
		t.Fatal("expected an error when the selector matches nothing")
	}
}
