// Package collector orchestrates scraper adapters: invoking the first
// matching capability, normalizing and inserting entries, back-filling
// details, and recording per-source run timestamps (§4.2).
package collector

import (
	"context"
	"fmt"
	"time"

	"newsroom/core/domain"
	"newsroom/core/port/out"
	"newsroom/internal/workerpool"
	"newsroom/pkg/logger"
)

// Config holds the collector's tunables (§4.2 "per-adapter wall-clock
// budget", "bounded back-fill pass").
type Config struct {
	AdapterBudget  time.Duration // default 30s
	BackfillLimit  int           // default 5 rows per adapter per invocation
	DetailFetchCap int           // max detail fetches per newly-added batch; 0 = unlimited
	DetailCacheTTL time.Duration // how long a fetched-detail fingerprint is remembered; default 6h
}

func (c Config) withDefaults() Config {
	if c.AdapterBudget <= 0 {
		c.AdapterBudget = 30 * time.Second
	}
	if c.BackfillLimit <= 0 {
		c.BackfillLimit = 5
	}
	if c.DetailCacheTTL <= 0 {
		c.DetailCacheTTL = 6 * time.Hour
	}
	return c
}

// Service implements in.CollectorService.
type Service struct {
	sources    out.SourceRepository
	sourceRuns out.SourceRunRepository
	infos      out.InfoRepository
	registry   out.Registry
	cache      out.URLCache // optional; nil disables fingerprint caching
	cfg        Config
	log        *logger.Logger
	now        func() time.Time
}

// New builds a collector Service. cache may be nil, in which case every
// detail fetch runs uncached.
func New(sources out.SourceRepository, sourceRuns out.SourceRunRepository, infos out.InfoRepository, registry out.Registry, cache out.URLCache, cfg Config) *Service {
	return &Service{
		sources: sources, sourceRuns: sourceRuns, infos: infos, registry: registry, cache: cache,
		cfg: cfg.withDefaults(), log: logger.WithField("component", "collector"), now: time.Now,
	}
}

// CollectSource runs one source's adapter end to end (§4.2 ops 2-7).
func (s *Service) CollectSource(ctx context.Context, sourceKey string) (int, error) {
	src, err := s.sources.GetByKey(ctx, sourceKey)
	if err != nil {
		return 0, fmt.Errorf("lookup source %q: %w", sourceKey, err)
	}

	adapter, ok := s.registry.Lookup(src.ScriptPath)
	if !ok {
		return 0, fmt.Errorf("no adapter registered for script_path %q (source %q)", src.ScriptPath, sourceKey)
	}

	budgetCtx, cancel := context.WithTimeout(ctx, s.cfg.AdapterBudget)
	entries, err := collect(budgetCtx, adapter)
	cancel()
	if err != nil {
		s.log.WithField("source", sourceKey).WithError(err).Warn("adapter run failed")
		return 0, err
	}

	inserted := 0
	var justInserted []domain.Info
	for _, e := range entries {
		if !e.Valid() {
			continue
		}
		info := toInfo(e, adapter, s.now())
		ok, err := s.infos.InsertIfAbsent(ctx, &info)
		if err != nil {
			s.log.WithField("source", sourceKey).WithField("link", info.Link).WithError(err).Warn("insert failed")
			continue
		}
		if ok {
			inserted++
			justInserted = append(justInserted, info)
		}
	}

	if detailAdapter, ok := adapter.(out.DetailCapable); ok {
		s.fetchDetails(ctx, detailAdapter, justInserted)
		s.backfillMissingDetails(ctx, detailAdapter, sourceKey)
	}

	if err := s.sourceRuns.MarkRun(ctx, src.ID, s.now().UTC()); err != nil {
		return inserted, fmt.Errorf("mark source run: %w", err)
	}
	return inserted, nil
}

// CollectDue runs every enabled source that is due (§4.2 "Throttling
// contract", §4.5 "Collect planning"). Failures are isolated per source.
func (s *Service) CollectDue(ctx context.Context, keys []string, now time.Time) (int, error) {
	srcs, err := s.sources.ListEnabled(ctx)
	if err != nil {
		return 0, fmt.Errorf("list enabled sources: %w", err)
	}
	allowed := toSet(keys)

	total := 0
	for _, src := range srcs {
		if allowed != nil && !allowed[src.Key] {
			continue
		}
		lastRun, err := s.sourceRuns.GetLastRun(ctx, src.ID)
		if err != nil {
			s.log.WithField("source", src.Key).WithError(err).Warn("get last run failed")
			continue
		}
		if !domain.DueForRun(lastRun, now) {
			continue
		}
		n, err := s.CollectSource(ctx, src.Key)
		if err != nil {
			s.log.WithField("source", src.Key).WithError(err).Warn("collect failed, continuing")
			continue
		}
		total += n
	}
	return total, nil
}

// BackfillDetails runs the same back-fill pass CollectSource performs as a
// side effect, as an independently invocable maintenance operation
// (SPEC_FULL.md §4, grounded on backfill_details.py's standalone "scan a
// source's missing-detail rows and refetch" invocation).
func (s *Service) BackfillDetails(ctx context.Context, sourceKey string, limit int) (int, error) {
	src, err := s.sources.GetByKey(ctx, sourceKey)
	if err != nil {
		return 0, fmt.Errorf("lookup source %q: %w", sourceKey, err)
	}
	adapter, ok := s.registry.Lookup(src.ScriptPath)
	if !ok {
		return 0, fmt.Errorf("no adapter registered for script_path %q (source %q)", src.ScriptPath, sourceKey)
	}
	detailAdapter, ok := adapter.(out.DetailCapable)
	if !ok {
		return 0, fmt.Errorf("source %q's adapter has no detail-fetch capability", sourceKey)
	}

	if limit <= 0 {
		limit = s.cfg.BackfillLimit
	}
	rows, err := s.infos.ListMissingDetail(ctx, sourceKey, limit)
	if err != nil {
		return 0, fmt.Errorf("list missing detail: %w", err)
	}
	s.fetchDetails(ctx, detailAdapter, rows)
	return len(rows), nil
}

// BackfillPublish re-fetches a source's current listing and fills in the
// publish timestamp of already-stored rows that still lack one
// (SPEC_FULL.md §4, grounded on backfill_publish.py's fetch-list-then-
// update-by-link pass).
func (s *Service) BackfillPublish(ctx context.Context, sourceKey string) (int, error) {
	src, err := s.sources.GetByKey(ctx, sourceKey)
	if err != nil {
		return 0, fmt.Errorf("lookup source %q: %w", sourceKey, err)
	}
	adapter, ok := s.registry.Lookup(src.ScriptPath)
	if !ok {
		return 0, fmt.Errorf("no adapter registered for script_path %q (source %q)", src.ScriptPath, sourceKey)
	}

	budgetCtx, cancel := context.WithTimeout(ctx, s.cfg.AdapterBudget)
	entries, err := collect(budgetCtx, adapter)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("refetch source listing: %w", err)
	}

	now := s.now()
	published := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.URL == "" || e.Published == "" {
			continue
		}
		published[e.URL] = domain.NormalizePublishedTime(e.Published, now)
	}
	if len(published) == 0 {
		return 0, nil
	}

	rows, err := s.infos.ListMissingPublish(ctx, sourceKey, s.cfg.BackfillLimit)
	if err != nil {
		return 0, fmt.Errorf("list missing publish: %w", err)
	}
	updated := 0
	for _, row := range rows {
		pub, ok := published[row.Link]
		if !ok {
			continue
		}
		if err := s.infos.UpdatePublish(ctx, row.ID, pub); err != nil {
			s.log.WithField("link", row.Link).WithError(err).Warn("publish backfill update failed")
			continue
		}
		updated++
	}
	return updated, nil
}

func toSet(keys []string) map[string]bool {
	if keys == nil {
		return nil
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

// collect invokes the first matching capability, in priority order
// (§4.1: Collect > Homepage > Trending > ListPage > Feed).
func collect(ctx context.Context, adapter out.Adapter) ([]domain.Entry, error) {
	switch a := adapter.(type) {
	case out.CollectCapable:
		return a.Collect(ctx)
	case out.HomepageCapable:
		body, err := a.FetchHomepage(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch homepage: %w", err)
		}
		return a.ParseHomepage(body)
	case out.TrendingCapable:
		body, err := a.FetchTrending(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch trending: %w", err)
		}
		return a.ProcessTrending(body)
	case out.ListPageCapable:
		body, err := a.FetchListPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch list page: %w", err)
		}
		return a.ParseListPage(body)
	case out.FeedCapable:
		body, err := a.FetchFeed(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch feed: %w", err)
		}
		return a.ProcessFeedEntries(body)
	default:
		return nil, fmt.Errorf("adapter %s exposes no known capability", adapter.Source())
	}
}

func toInfo(e domain.Entry, adapter out.Adapter, now time.Time) domain.Info {
	source := e.Source
	if source == "" {
		source = adapter.Source()
	}
	category := e.Category
	if category == "" {
		category = adapter.Category()
	}
	return domain.Info{
		Link:      e.URL,
		Source:    source,
		Category:  category,
		Publish:   domain.NormalizePublishedTime(e.Published, now),
		Title:     e.Title,
		Detail:    e.Detail,
		StoreLink: e.StoreLink,
		Creator:   e.Creator,
		ImgLink:   e.Img,
	}
}

// fetchDetails fetches article bodies for newly-inserted rows (§4.2 op 5).
// Failures are non-fatal and logged. Runs with bounded concurrency since
// each fetch is an independent HTTP call (§5 "each adapter may launch
// bounded I/O concurrency internally"). A link whose fingerprint is still
// cached as fetched is skipped outright, so a backfill pass that keeps
// turning up the same stubborn link (e.g. one that 404s, or whose
// UpdateDetail write failed after a successful fetch) doesn't re-hit it
// every due cycle.
func (s *Service) fetchDetails(ctx context.Context, adapter out.DetailCapable, rows []domain.Info) {
	if len(rows) == 0 {
		return
	}
	cap := s.cfg.DetailFetchCap
	if cap > 0 && len(rows) > cap {
		rows = rows[:cap]
	}
	fns := make([]func(context.Context) error, 0, len(rows))
	for _, row := range rows {
		row := row
		fns = append(fns, func(ctx context.Context) error {
			cacheKey := "detail-fetched:" + row.Link
			if s.cache != nil {
				if seen, err := s.cache.Exists(ctx, cacheKey); err == nil && seen {
					return nil
				}
			}
			detail, err := adapter.FetchArticleDetail(ctx, row.Link)
			if s.cache != nil {
				if err := s.cache.SetSeen(ctx, cacheKey, s.cfg.DetailCacheTTL); err != nil {
					s.log.WithField("link", row.Link).WithError(err).Warn("detail cache mark failed")
				}
			}
			if err != nil {
				s.log.WithField("link", row.Link).WithError(err).Warn("detail fetch failed")
				return nil
			}
			if detail == "" {
				return nil
			}
			if err := s.infos.UpdateDetail(ctx, row.ID, detail); err != nil {
				s.log.WithField("link", row.Link).WithError(err).Warn("detail update failed")
			}
			return nil
		})
	}
	_ = workerpool.Run(ctx, 4, fns)
}

// backfillMissingDetails fills in details for older rows of the same
// source that still lack one (§4.2 op 6).
func (s *Service) backfillMissingDetails(ctx context.Context, adapter out.DetailCapable, sourceKey string) {
	rows, err := s.infos.ListMissingDetail(ctx, sourceKey, s.cfg.BackfillLimit)
	if err != nil {
		s.log.WithField("source", sourceKey).WithError(err).Warn("list missing detail failed")
		return
	}
	s.fetchDetails(ctx, adapter, rows)
}
