package out

import (
	"context"
	"time"

	"newsroom/core/domain"
)

// Adapter is the identity every scraper adapter must provide: the SOURCE
// and CATEGORY constants §4.1 requires. An adapter implements exactly one
// of the capability interfaces below; the collector probes for them in
// priority order (Collect > Homepage > Trending > ListPage > Feed) and
// invokes the first match.
type Adapter interface {
	Source() string
	Category() string
}

// CollectCapable is priority 1: a lazy/finite sequence of entries, produced
// directly by the adapter.
type CollectCapable interface {
	Adapter
	Collect(ctx context.Context) ([]domain.Entry, error)
}

// HomepageCapable is priority 2: fetch the source's homepage, then parse it.
type HomepageCapable interface {
	Adapter
	FetchHomepage(ctx context.Context) ([]byte, error)
	ParseHomepage(body []byte) ([]domain.Entry, error)
}

// TrendingCapable is priority 3: fetch a trending/ranking payload, then
// process it into entries.
type TrendingCapable interface {
	Adapter
	FetchTrending(ctx context.Context) ([]byte, error)
	ProcessTrending(body []byte) ([]domain.Entry, error)
}

// ListPageCapable is priority 4: fetch a paginated list page, then parse it.
type ListPageCapable interface {
	Adapter
	FetchListPage(ctx context.Context) ([]byte, error)
	ParseListPage(body []byte) ([]domain.Entry, error)
}

// FeedCapable is priority 5: fetch an RSS/Atom feed, then process its
// entries.
type FeedCapable interface {
	Adapter
	FetchFeed(ctx context.Context) ([]byte, error)
	ProcessFeedEntries(body []byte) ([]domain.Entry, error)
}

// DetailCapable is the optional fetch_article_detail capability (§4.1).
type DetailCapable interface {
	Adapter
	FetchArticleDetail(ctx context.Context, url string) (string, error)
}

// Registry resolves a Source's script_path to a registered Adapter.
type Registry interface {
	Lookup(scriptPath string) (Adapter, bool)
}

// URLCache remembers URL fingerprints an adapter has already handled
// (§4.2 "Adapters may maintain adapter-local caches keyed by URL
// fingerprint"). Implemented by pkg/cache.RedisCache; nil-safe callers
// should treat a nil URLCache as "no cache configured".
type URLCache interface {
	Exists(ctx context.Context, key string) (bool, error)
	SetSeen(ctx context.Context, key string, ttl time.Duration) error
}
