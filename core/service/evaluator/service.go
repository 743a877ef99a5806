// Package evaluator scores candidate articles with an LLM against a
// configurable set of rating dimensions (§4.3).
package evaluator

import (
	"context"
	"fmt"
	"time"

	"newsroom/core/domain"
	"newsroom/core/port/in"
	"newsroom/core/port/out"
	"newsroom/internal/retry"
	"newsroom/pkg/apperr"
	"newsroom/pkg/logger"
	"newsroom/pkg/resilience"
)

// Config holds the evaluator's tunables, sourced from AI_* env vars (§6).
type Config struct {
	PromptPath      string
	MaxRetries      int
	RequestInterval time.Duration
	WeightOverrides map[string]float64
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	return c
}

// Service implements in.EvaluatorService.
type Service struct {
	infos   out.InfoRepository
	metrics out.MetricRepository
	scores  out.ScoreRepository
	llm     out.Completer
	breaker *resilience.CircuitBreaker
	cfg     Config
	log     *logger.Logger
	now     func() time.Time
}

// New builds an evaluator Service. breaker may be nil to disable circuit
// breaking around the LLM call.
func New(infos out.InfoRepository, metrics out.MetricRepository, scores out.ScoreRepository, llm out.Completer, breaker *resilience.CircuitBreaker, cfg Config) *Service {
	return &Service{
		infos: infos, metrics: metrics, scores: scores, llm: llm, breaker: breaker,
		cfg: cfg.withDefaults(), log: logger.WithField("component", "evaluator"), now: time.Now,
	}
}

var _ in.EvaluatorService = (*Service)(nil)

// Evaluate scores up to req.Limit candidate articles (§4.3 ops 1-7).
func (s *Service) Evaluate(ctx context.Context, req in.EvaluateRequest) (int, error) {
	activeMetrics, err := s.metrics.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active metrics: %w", err)
	}
	if len(activeMetrics) == 0 {
		return 0, apperr.Config("no active ai_metrics configured")
	}

	tpl, err := loadPromptFile(s.cfg.PromptPath)
	if err != nil {
		return 0, err
	}

	hours := req.Hours
	if hours <= 0 {
		hours = 24
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	until := s.now().UTC()
	since := until.Add(-time.Duration(hours) * time.Hour)

	var candidates []domain.Info
	if req.Overwrite {
		candidates, err = s.infos.ListWindow(ctx, since, until, req.Categories, req.Sources)
	} else {
		candidates, err = s.infos.ListUnevaluated(ctx, since, until, req.EvaluatorKey, req.Categories, req.Sources)
	}
	if err != nil {
		return 0, fmt.Errorf("select candidates: %w", err)
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	metricsBlock := buildMetricsBlock(activeMetrics)
	schemaExample := buildSchemaExample(activeMetrics)

	scored := 0
	for _, article := range candidates {
		if s.cfg.RequestInterval > 0 {
			select {
			case <-time.After(s.cfg.RequestInterval):
			case <-ctx.Done():
				return scored, ctx.Err()
			}
		}

		eval, raw, err := s.evaluateOne(ctx, tpl, metricsBlock, schemaExample, article, activeMetrics)
		if err != nil {
			s.log.WithField("info_id", article.ID).WithError(err).Warn("evaluation failed, skipping article")
			continue
		}

		review := domain.InfoAiReview{
			InfoID:        article.ID,
			EvaluatorKey:  req.EvaluatorKey,
			FinalScore:    finalScore(eval.scores, activeMetrics, s.cfg.WeightOverrides),
			AiComment:     eval.comment,
			AiSummary:     eval.summary,
			AiSummaryLong: eval.summaryLong,
			AiKeyConcepts: eval.keyConcepts,
			RawResponse:   raw,
		}
		rows := make([]domain.InfoAiScore, 0, len(activeMetrics))
		for _, m := range activeMetrics {
			rows = append(rows, domain.InfoAiScore{InfoID: article.ID, MetricID: m.ID, Score: eval.scores[m.Key]})
		}
		if err := s.scores.UpsertReview(ctx, review, rows); err != nil {
			s.log.WithField("info_id", article.ID).WithError(err).Warn("store review failed")
			continue
		}
		scored++
	}
	return scored, nil
}

// evaluateOne fills the prompt for one article, calls the LLM with retry
// (and, if configured, circuit breaking), and validates the response.
func (s *Service) evaluateOne(ctx context.Context, tpl promptTemplate, metricsBlock, schemaExample string, article domain.Info, metrics []domain.AiMetric) (*evaluation, string, error) {
	userPrompt := fillPrompt(tpl.user, map[string]string{
		"metrics_block":  metricsBlock,
		"schema_example": schemaExample,
		"title":          article.Title,
		"source":         article.Source,
		"publish":        article.Publish,
		"detail":         article.Detail,
	})

	// §4.3 "On transport or parse failure, retry up to max_retries": a
	// syntactically-valid HTTP response that fails JSON validation is just
	// as retryable as a transport error, so validation runs inside the
	// retry loop rather than after it (§8 scenario 6: invalid JSON twice,
	// valid on the third attempt, stored exactly once).
	var raw string
	var eval *evaluation
	call := func(attempt int) error {
		var callErr error
		if s.breaker != nil {
			callErr = s.breaker.Execute(func() error {
				var err error
				raw, err = s.llm.CompleteJSON(ctx, tpl.system, userPrompt)
				return err
			})
		} else {
			raw, callErr = s.llm.CompleteJSON(ctx, tpl.system, userPrompt)
		}
		if callErr != nil {
			return apperr.TransientIO("ai completion", callErr)
		}
		if raw == "" {
			return apperr.TransientIO("ai completion", fmt.Errorf("empty response"))
		}
		var validateErr error
		eval, validateErr = validateResponse(raw, metrics)
		return validateErr
	}
	if err := retry.Do(ctx, s.cfg.MaxRetries, call); err != nil {
		return nil, raw, fmt.Errorf("call ai: %w", err)
	}
	return eval, raw, nil
}

// buildMetricsBlock renders the bullet list of active dimensions the
// prompt's {{metrics_block}} placeholder expects.
func buildMetricsBlock(metrics []domain.AiMetric) string {
	s := ""
	for i, m := range metrics {
		if i > 0 {
			s += "\n"
		}
		s += fmt.Sprintf("- %s (%s)", m.Key, m.Label)
	}
	return s
}

// buildSchemaExample renders the JSON shape the model must return, with
// each dimension's rating guide inlined as a trailing comment.
func buildSchemaExample(metrics []domain.AiMetric) string {
	lines := "{\n  \"dimension_scores\": {\n"
	for i, m := range metrics {
		desc := m.Label
		if m.RateGuide != "" {
			desc += ": " + m.RateGuide
		}
		comma := ","
		if i == len(metrics)-1 {
			comma = ""
		}
		lines += fmt.Sprintf("    \"%s\": <integer 1-5>%s  -- %s\n", m.Key, comma, desc)
	}
	lines += "  },\n"
	lines += "  \"comment\": \"<one-sentence overall assessment>\",\n"
	lines += "  \"summary\": \"<one-sentence summary of the article>\",\n"
	lines += "  \"key_concepts\": [\"<0-5 key terms, most important first>\"],\n"
	lines += "  \"summary_long\": \"<~50 word extended summary>\"\n"
	lines += "}"
	return lines
}
