package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const sampleListPage = `<!DOCTYPE html>
<html><body>
<div class="content-item">
<a href="/article/one">Headline One</a>
<time datetime="2024-02-01T10:00:00Z">Feb 1</time>
</div>
<div class="content-item">
<a href="https://absolute.example.com/two">Headline Two</a>
<time>Feb 2</time>
</div>
<div class="content-item">
<a href="/article/one">Duplicate Of One</a>
</div>
<div class="other">not a card</div>
</body></html>`

func TestListPageAdapter_ParseListPage(t *testing.T) {
	a := NewListPageAdapter("guancha.cn", "general", "https://www.guancha.cn/mainnews", "https://www.guancha.cn", "div.content-item", nil)
	entries, err := a.ParseListPage([]byte(sampleListPage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries (dedup by resolved url), got %d: %+v", len(entries), entries)
	}
	if entries[0].Title != "Headline One" || entries[0].URL != "https://www.guancha.cn/article/one" {
		t.Fatalf("expected relative href resolved against baseURL, got %+v", entries[0])
	}
	if entries[0].Published != "2024-02-01T10:00:00Z" {
		t.Fatalf("expected datetime attribute to win over <time> text, got %q", entries[0].Published)
	}
	if entries[1].Title != "Headline Two" || entries[1].URL != "https://absolute.example.com/two" {
		t.Fatalf("expected absolute href kept as-is, got %+v", entries[1])
	}
	if entries[1].Published != "Feb 2" {
		t.Fatalf("expected <time> text fallback when no datetime attribute, got %q", entries[1].Published)
	}
}

const sampleArticlePage = `<!DOCTYPE html>
<html><body>
<nav>skip me</nav>
<article>
<script>skip me too</script>
<p>First paragraph of the body.</p>
<p>Second paragraph.</p>
</article>
<footer>skip me</footer>
</body></html>`

// TestListPageAdapter_ArticleExtraction_StripsChrome exercises the same
// goquery strip-then-extract path FetchArticleDetail uses, without
// performing a network fetch.
func TestListPageAdapter_ArticleExtraction_StripsChrome(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sampleArticlePage))
	if err != nil {
		t.Fatalf("parse article: %v", err)
	}
	doc.Find("script, style, noscript, svg, img, video, figure, iframe, button, form, nav, aside, footer, header").Remove()
	text := cleanText(doc.Find("article").First().Text())

	if text == "" {
		t.Fatal("expected non-empty extracted text")
	}
	if strings.Contains(text, "skip me") {
		t.Fatalf("expected chrome elements stripped, got %q", text)
	}
	if !strings.Contains(text, "First paragraph of the body.") {
		t.Fatalf("expected article body retained, got %q", text)
	}
}
