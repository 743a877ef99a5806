// Package composer renders a ranked digest of scored articles for one
// pipeline's writer configuration (§4.4).
package composer

import (
	"context"
	"fmt"
	"time"

	"newsroom/core/domain"
	"newsroom/core/port/in"
	"newsroom/core/port/out"
	"newsroom/pkg/logger"
)

// DefaultSourceBonus mirrors the writer's built-in bonus map, applied
// before pipeline/CLI overrides (grounded on the original writer's
// DEFAULT_SOURCE_BONUS table).
var DefaultSourceBonus = map[string]float64{
	"openai.research": 3.0,
	"deepmind":        1.0,
}

// Service implements in.ComposerService.
type Service struct {
	pipelines out.PipelineRepository
	sources   out.SourceRepository
	infos     out.InfoRepository
	metrics   out.MetricRepository
	scores    out.ScoreRepository
	outputDir string
	log       *logger.Logger
	now       func() time.Time
}

// New builds a composer Service. outputDir is the artifact root Compose
// persists rendered digests under (§6 "Artifact layout").
func New(pipelines out.PipelineRepository, sources out.SourceRepository, infos out.InfoRepository, metrics out.MetricRepository, scores out.ScoreRepository, outputDir string) *Service {
	return &Service{
		pipelines: pipelines, sources: sources, infos: infos, metrics: metrics, scores: scores,
		outputDir: outputDir,
		log:       logger.WithField("component", "composer"), now: time.Now,
	}
}

var _ in.ComposerService = (*Service)(nil)

// Compose runs the full selection pipeline (§4.4) and renders every output
// format the writer type calls for.
func (s *Service) Compose(ctx context.Context, req in.ComposeRequest) (*in.Digest, error) {
	pipeline, err := s.pipelines.GetByID(ctx, req.PipelineID)
	if err != nil {
		return nil, fmt.Errorf("load pipeline: %w", err)
	}
	class, err := s.pipelines.GetClass(ctx, pipeline.PipelineClassID)
	if err != nil {
		return nil, fmt.Errorf("load pipeline class: %w", err)
	}
	writer, err := s.pipelines.GetWriter(ctx, req.PipelineID)
	if err != nil {
		return nil, fmt.Errorf("load writer config: %w", err)
	}
	filters, err := s.pipelines.GetFilters(ctx, req.PipelineID)
	if err != nil {
		return nil, fmt.Errorf("load pipeline filters: %w", err)
	}

	activeMetrics, err := s.metrics.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active metrics: %w", err)
	}

	hours := writer.Hours
	if hours <= 0 {
		hours = 24
	}
	until := s.now().UTC()
	since := until.Add(-time.Duration(hours) * time.Hour)

	// Resolve the same set of eligible source keys the runner's collect
	// plan would (§4.5 "Sources are restricted to..."), then select the
	// candidate window by source only, leaving category restriction to
	// have already been folded into that set (§8 scenario 2: an
	// include_src source from outside the explicit category set is still
	// selected, so categories and sources cannot be AND'd independently).
	sourceKeys, err := s.eligibleSources(ctx, *class, *filters)
	if err != nil {
		return nil, fmt.Errorf("resolve eligible sources: %w", err)
	}

	items, err := gatherCandidates(ctx, s.infos, s.scores, activeMetrics, since, until, nil, sourceKeys, req.EvaluatorKey, true)
	if err != nil {
		return nil, fmt.Errorf("gather candidates: %w", err)
	}

	weights := resolveWeights(activeMetrics, writer.Weights, req.WeightsOverride)
	sourceBonus := resolveSourceBonus(writer.SourceBonus, req.SourceBonusOverride)

	scored := make([]candidate, 0, len(items))
	for _, c := range items {
		scoreMap, err := scoreMapFor(ctx, s.scores, c.info.ID, req.EvaluatorKey, activeMetrics)
		if err != nil {
			return nil, fmt.Errorf("load scores for info %d: %w", c.info.ID, err)
		}
		score := domain.WeightedScore(scoreMap, activeMetrics, weights)
		bonus := sourceBonus[c.info.Source]
		if bonus != 0 {
			score = domain.ClampFinalScore(score + bonus)
		}
		if score < writer.MinScore {
			continue
		}
		c.score = score
		c.metricScores = scoreMap
		c.bonus = bonus
		scored = append(scored, c)
	}

	byCategory := groupByCategory(scored)
	var ordered []candidate
	for category, group := range byCategory {
		sortByScoreThenPublish(group)
		group = applyPerSourceCap(group, writer.PerSourceCap)
		limit := writer.LimitFor(category)
		if limit > 0 && len(group) > limit {
			group = group[:limit]
		}
		byCategory[category] = group
		ordered = append(ordered, group...)
	}

	digest := &in.Digest{Count: len(ordered)}
	digest.Plain = renderPlain(byCategory, hours)
	now := s.now()
	var ext, body string
	switch writer.Type {
	case domain.WriterTypeMinigame:
		digest.Minigame = renderMinigame(byCategory)
		ext, body = "md", digest.Minigame
	case domain.WriterTypeChat:
		digest.Markdown = renderMarkdown(byCategory)
		ext, body = "md", digest.Markdown
	default:
		digest.HTML = renderHTML(byCategory, activeMetrics, hours, now)
		ext, body = "html", digest.HTML
	}

	path, err := writeArtifact(s.outputDir, req.PipelineID, now, ext, body)
	if err != nil {
		return nil, fmt.Errorf("persist artifact: %w", err)
	}
	digest.ArtifactPath = path
	return digest, nil
}

// eligibleSources mirrors the runner's collect-plan source resolution
// (domain.PipelineClass.SourceAllowed), so the composer's candidate window
// agrees with what the collector was actually allowed to gather.
func (s *Service) eligibleSources(ctx context.Context, class domain.PipelineClass, filters domain.PipelineFilters) ([]string, error) {
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

// resolveWeights starts from each metric's DefaultWeight, applies the
// writer's stored weight overrides, then the CLI override (§4.4 "Weight
// resolution").
func resolveWeights(metrics []domain.AiMetric, writerWeights, cliOverride map[string]float64) map[string]float64 {
	weights := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		weights[m.Key] = m.DefaultWeight
	}
	for k, v := range writerWeights {
		weights[k] = v
	}
	for k, v := range cliOverride {
		weights[k] = v
	}
	return weights
}

// resolveSourceBonus layers defaults, writer-stored overrides, and a CLI
// override, in that precedence order.
func resolveSourceBonus(writerBonus, cliOverride map[string]float64) map[string]float64 {
	bonus := make(map[string]float64, len(DefaultSourceBonus)+len(writerBonus)+len(cliOverride))
	for k, v := range DefaultSourceBonus {
		bonus[k] = v
	}
	for k, v := range writerBonus {
		bonus[k] = v
	}
	for k, v := range cliOverride {
		bonus[k] = v
	}
	return bonus
}
