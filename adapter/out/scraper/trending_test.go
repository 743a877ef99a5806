package scraper

import "testing"

const sampleTrendingEnvelope = `{
"title": "Daily Papers",
"id": "2024-03-01",
"publishedAt": "2024-03-01T00:00:00Z"
}`

func TestTrendingAdapter_ProcessTrending_FlatEnvelope(t *testing.T) {
	a := NewTrendingAdapter("huggingface.papers", "tech", "https://huggingface.co/api/daily_papers", nil, "title", "id", "publishedAt", nil)
	entries, err := a.ProcessTrending([]byte(sampleTrendingEnvelope))
	if err == nil {
		t.Fatalf("expected an error: a flat object is not an array, got %v entries", entries)
	}
}

const sampleAppStoreLookup = `{
"resultCount": 2,
"results": [
{"trackName": "ChatGPT", "trackViewUrl": "https://apps.apple.com/app/chatgpt/id6448311069", "currentVersionReleaseDate": "2024-03-01T00:00:00Z"},
{"trackName": "", "trackViewUrl": "https://apps.apple.com/app/blank", "currentVersionReleaseDate": "2024-03-02T00:00:00Z"}
]}`

func TestTrendingAdapter_ProcessTrending_ResultsArrayPath(t *testing.T) {
	a := NewTrendingAdapter(
		"appstore.chatgpt", "tech", "https://itunes.apple.com/lookup?id=6448311069&country=us",
		[]string{"results"}, "trackName", "trackViewUrl", "currentVersionReleaseDate", nil,
	)
	entries, err := a.ProcessTrending([]byte(sampleAppStoreLookup))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected the blank-title entry skipped, got %d entries: %+v", len(entries), entries)
	}
	if entries[0].Title != "ChatGPT" || entries[0].URL != "https://apps.apple.com/app/chatgpt/id6448311069" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestTrendingAdapter_ProcessTrending_MissingPathSegmentIsError(t *testing.T) {
	a := NewTrendingAdapter("x", "tech", "https://x", []string{"missing"}, "title", "id", "publishedAt", nil)
	if _, err := a.ProcessTrending([]byte(`{"results": []}`)); err == nil {
		t.Fatal("expected an error for a missing path segment")
	}
}
