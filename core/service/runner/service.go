// Package runner drives one pipeline (or every pipeline, for --all)
// through Collect -> Evaluate -> Write -> Deliver in strict order (§4.5).
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"newsroom/core/domain"
	"newsroom/core/port/in"
	"newsroom/core/port/out"
)

// Config holds the runner's ambient settings (§6 PIPELINE_* env vars).
type Config struct {
	Timezone     *time.Location
	EvaluateLimit int // default 400
	PlainOnly    bool
}

// Service implements in.RunnerService.
type Service struct {
	pipelines  out.PipelineRepository
	sources    out.SourceRepository
	sourceRuns out.SourceRunRepository

	collector  in.CollectorService
	evaluator  in.EvaluatorService
	composer   in.ComposerService
	deliverer  in.DelivererService

	cfg Config
	log zerolog.Logger
	now func() time.Time
}

// New builds a runner Service.
func New(pipelines out.PipelineRepository, sources out.SourceRepository, sourceRuns out.SourceRunRepository,
	collector in.CollectorService, evaluator in.EvaluatorService, composer in.ComposerService, deliverer in.DelivererService,
	cfg Config, log zerolog.Logger) *Service {
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	if cfg.EvaluateLimit <= 0 {
		cfg.EvaluateLimit = 400
	}
	return &Service{
		pipelines: pipelines, sources: sources, sourceRuns: sourceRuns,
		collector: collector, evaluator: evaluator, composer: composer, deliverer: deliverer,
		cfg: cfg, log: log, now: time.Now,
	}
}

var _ in.RunnerService = (*Service)(nil)

// Run resolves the pipeline set named by req and drives each one through
// the full state machine, in ascending pipeline-id order for --all
// (§5 "Across pipelines in --all").
func (s *Service) Run(ctx context.Context, req in.RunRequest) ([]in.PipelineOutcome, error) {
	pipelines, err := s.resolve(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("resolve pipelines: %w", err)
	}

	outcomes := make([]in.PipelineOutcome, 0, len(pipelines))
	for _, p := range pipelines {
		outcomes = append(outcomes, s.runOne(ctx, p, req))
	}
	return outcomes, nil
}

func (s *Service) resolve(ctx context.Context, req in.RunRequest) ([]domain.Pipeline, error) {
	switch {
	case req.All:
		return s.pipelines.List(ctx)
	case req.Name != "":
		p, err := s.pipelines.GetByName(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		return []domain.Pipeline{*p}, nil
	default:
		p, err := s.pipelines.GetByID(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		return []domain.Pipeline{*p}, nil
	}
}

// runOne drives a single pipeline through Loaded -> ... -> Done, isolating
// every failure so it never propagates to sibling pipelines in --all.
func (s *Service) runOne(ctx context.Context, p domain.Pipeline, req in.RunRequest) in.PipelineOutcome {
	log := s.log.With().Int64("pipeline_id", p.ID).Str("pipeline_name", p.Name).Logger()
	log.Info().Msg("pipeline loaded")

	// Loaded -> Gated or Skipped. --debug-only restricts eligibility to
	// debug_enabled pipelines before any other gate runs (§6 supplement).
	if req.DebugOnly && !p.DebugEnabled {
		log.Info().Msg("pipeline skipped: not debug-enabled")
		return in.PipelineOutcome{PipelineID: p.ID, State: "Skipped(debug)"}
	}
	if !p.Enabled {
		log.Info().Msg("pipeline skipped: disabled")
		return in.PipelineOutcome{PipelineID: p.ID, State: "Skipped"}
	}

	// Gated -> Allowed or Skipped(weekday)
	now := s.now().In(s.cfg.Timezone)
	if !req.IgnoreWeekday && !domain.WeekdayAllowed(p.Weekdays, now, s.cfg.Timezone) {
		log.Info().Msg("pipeline skipped: weekday gate")
		return in.PipelineOutcome{PipelineID: p.ID, State: "Skipped(weekday)"}
	}

	// Allowed -> ValidateClass
	class, err := s.pipelines.GetClass(ctx, p.PipelineClassID)
	if err != nil {
		log.Error().Err(err).Msg("pipeline aborted: cannot load class")
		return in.PipelineOutcome{PipelineID: p.ID, State: "Aborted(class)", Err: err}
	}
	filters, err := s.pipelines.GetFilters(ctx, p.ID)
	if err != nil {
		log.Error().Err(err).Msg("pipeline aborted: cannot load filters")
		return in.PipelineOutcome{PipelineID: p.ID, State: "Aborted(class)", Err: err}
	}
	writer, err := s.pipelines.GetWriter(ctx, p.ID)
	if err != nil {
		log.Error().Err(err).Msg("pipeline aborted: cannot load writer")
		return in.PipelineOutcome{PipelineID: p.ID, State: "Aborted(class)", Err: err}
	}
	if !class.AllowsWriter(writer.Type) {
		err := fmt.Errorf("writer type %q not in class %q", writer.Type, class.Key)
		log.Error().Err(err).Msg("pipeline aborted: class validation")
		return in.PipelineOutcome{PipelineID: p.ID, State: "Aborted(class)", Err: err}
	}
	if !class.AllowsEvaluator(p.EvaluatorKey) {
		err := fmt.Errorf("evaluator %q not in class %q", p.EvaluatorKey, class.Key)
		log.Error().Err(err).Msg("pipeline aborted: class validation")
		return in.PipelineOutcome{PipelineID: p.ID, State: "Aborted(class)", Err: err}
	}
	// I3: the categories the pipeline uses (explicit or "all") must be a
	// subset of the class's allow-list; the resolved set itself is no
	// longer needed downstream (see the Evaluate call below).
	if _, err := effectiveCategories(*class, *filters); err != nil {
		log.Error().Err(err).Msg("pipeline aborted: class validation")
		return in.PipelineOutcome{PipelineID: p.ID, State: "Aborted(class)", Err: err}
	}

	// CollectPlan -> Collect
	sourceKeys, err := s.collectPlan(ctx, *class, *filters)
	if err != nil {
		log.Error().Err(err).Msg("pipeline failed: collect plan")
		return in.PipelineOutcome{PipelineID: p.ID, State: "Failed(CollectPlan)", Err: err}
	}
	inserted, err := s.collector.CollectDue(ctx, sourceKeys, s.now())
	if err != nil {
		log.Error().Err(err).Msg("pipeline failed: collect")
		return in.PipelineOutcome{PipelineID: p.ID, State: "Failed(Collect)", Err: err}
	}
	log.Info().Int("inserted", inserted).Msg("collect complete")

	// Evaluate. Categories is left nil: sourceKeys (resolved by
	// collectPlan via domain.PipelineClass.SourceAllowed) already encodes
	// the category restriction per source, and ANDing a separate category
	// filter on top would re-exclude the very include_src sources that
	// scenario 2 (§8) says must survive.
	scored, err := s.evaluator.Evaluate(ctx, in.EvaluateRequest{
		EvaluatorKey: p.EvaluatorKey,
		Sources:      sourceKeys,
		Hours:        writer.Hours,
		Limit:        s.cfg.EvaluateLimit,
		PipelineID:   p.ID,
	})
	if err != nil {
		log.Error().Err(err).Msg("pipeline failed: evaluate")
		return in.PipelineOutcome{PipelineID: p.ID, State: "Failed(Evaluate)", Err: err}
	}
	log.Info().Int("scored", scored).Msg("evaluate complete")

	// Write
	digest, err := s.composer.Compose(ctx, in.ComposeRequest{PipelineID: p.ID, EvaluatorKey: p.EvaluatorKey})
	if err != nil {
		log.Error().Err(err).Msg("pipeline failed: write")
		return in.PipelineOutcome{PipelineID: p.ID, State: "Failed(Write)", Err: err}
	}
	log.Info().Int("articles", digest.Count).Msg("write complete")

	// Deliver
	if err := s.deliverer.Deliver(ctx, in.DeliverRequest{PipelineID: p.ID, Digest: *digest, PlainOnly: s.cfg.PlainOnly}); err != nil {
		log.Error().Err(err).Msg("pipeline failed: deliver")
		return in.PipelineOutcome{PipelineID: p.ID, State: "Failed(Deliver)", Err: err}
	}
	log.Info().Msg("pipeline done")

	return in.PipelineOutcome{PipelineID: p.ID, State: "Done"}
}

// effectiveCategories intersects the pipeline's filters with the class's
// category allow-list (§4.5 "Compatibility checks"). The Open Question of
// whether source allow-lists may override class restrictions is resolved
// the stricter way: class restrictions always dominate.
func effectiveCategories(class domain.PipelineClass, filters domain.PipelineFilters) ([]string, error) {
	if filters.AllCategories {
		return class.Categories, nil
	}
	out := make([]string, 0, len(filters.Categories))
	for _, c := range filters.Categories {
		if !class.AllowsCategory(c) {
			return nil, fmt.Errorf("category %q not in class %q", c, class.Key)
		}
		out = append(out, c)
	}
	return out, nil
}

// collectPlan selects enabled sources permitted by the pipeline (§4.5
// "Sources are restricted to those whose category is allowed AND (if
// all_categories=0) whose category is in the explicit set OR whose key is
// in include_src"). The class's category allow-list is the outer,
// non-negotiable AND (§9 Open Question (i): class restrictions dominate);
// within that, a source's own category being in the pipeline's explicit
// set and its key being in include_src are two independently-relaxable
// alternatives (§8 scenario 2: an include_src source from a category
// outside the pipeline's explicit set is still collected, provided the
// class itself allows that category).
func (s *Service) collectPlan(ctx context.Context, class domain.PipelineClass, filters domain.PipelineFilters) ([]string, error) {
	sources, err := s.sources.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(sources))
	for _, src := range sources {
		if class.SourceAllowed(filters, src.CategoryKey, src.Key) {
			keys = append(keys, src.Key)
		}
	}
	return keys, nil
}
