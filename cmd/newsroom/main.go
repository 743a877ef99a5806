// Command newsroom is the pipeline CLI: one subcommand per stage of
// collect -> evaluate -> write -> deliver, plus the top-level runner that
// sequences all four (§6).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"newsroom/adapter/out/delivery"
	"newsroom/adapter/out/persistence"
	"newsroom/adapter/out/scraper"
	"newsroom/config"
	"newsroom/core/domain"
	"newsroom/core/port/in"
	"newsroom/core/port/out"
	"newsroom/core/service/collector"
	"newsroom/core/service/composer"
	"newsroom/core/service/deliverer"
	"newsroom/core/service/evaluator"
	"newsroom/core/service/llm"
	"newsroom/core/service/runner"
	"newsroom/infra/database"
	"newsroom/pkg/cache"
	"newsroom/pkg/logger"
	"newsroom/pkg/resilience"
)

func main() {
	logger.Init(logger.Config{Level: logger.LevelInfo, Service: "newsroom"})

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: newsroom <runner|collect|evaluate|write|deliver-email|deliver-chat> [flags]")
		os.Exit(2)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("signal received, shutting down")
		cancel()
	}()

	deps, cleanup, err := wire(ctx, cfg)
	if err != nil {
		logger.Fatal("wire dependencies: %v", err)
	}
	defer cleanup()

	switch cmd {
	case "runner":
		runRunner(ctx, deps, cfg, args)
	case "collect":
		runCollect(ctx, deps, args)
	case "evaluate":
		runEvaluate(ctx, deps, cfg, args)
	case "write":
		runWrite(ctx, deps, args)
	case "deliver-email":
		runDeliverEmail(ctx, deps, cfg, args)
	case "deliver-chat":
		runDeliverChat(ctx, deps, cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", cmd)
		os.Exit(2)
	}
}

// stringSlice accumulates a repeatable flag (e.g. `-category tech -category
// game`) into an ordered slice.
type stringSlice []string

func (s *stringSlice) String() string { return strings.Join(*s, ",") }
func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// deps bundles every service the subcommands dispatch into.
type deps struct {
	runner    in.RunnerService
	collector in.CollectorService
	evaluator in.EvaluatorService
	composer  in.ComposerService
	deliverer in.DelivererService
}

func wire(ctx context.Context, cfg *config.Config) (*deps, func(), error) {
	pool, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres pool: %w", err)
	}
	if err := persistence.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := database.NewSqlx(cfg.DatabaseURL)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect sqlx: %w", err)
	}

	sources := persistence.NewSourceAdapter(db)
	sourceRuns := persistence.NewSourceRunAdapter(db)
	infos := persistence.NewInfoAdapter(db)
	metrics := persistence.NewMetricAdapter(db)
	scores := persistence.NewScoreAdapter(pool)
	pipelines := persistence.NewPipelineAdapter(db)

	registry := scraper.NewRegistry()
	scraper.RegisterDefaults(registry, nil)

	// The detail-fingerprint cache is optional: without REDIS_URL the
	// collector just fetches every backfill candidate every time.
	var urlCache out.URLCache
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedis(cfg.RedisURL)
		if err != nil {
			pool.Close()
			_ = db.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		urlCache = cache.NewRedisCache(redisClient)
	}

	collectorSvc := collector.New(sources, sourceRuns, infos, registry, urlCache, collector.Config{})

	llmClient := llm.NewClientWithConfig(llm.ClientConfig{
		APIKey: cfg.AI.APIKey, BaseURL: cfg.AI.BaseURL, Model: cfg.AI.Model,
	})
	breaker := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("llm-completion"))

	evaluatorSvc := evaluator.New(infos, metrics, scores, llmClient, breaker, evaluator.Config{
		PromptPath:      cfg.AI.PromptPath,
		MaxRetries:      cfg.AI.MaxRetries,
		RequestInterval: cfg.AI.RequestInterval,
		WeightOverrides: cfg.AI.ScoreWeights,
	})

	composerSvc := composer.New(pipelines, sources, infos, metrics, scores, cfg.Runner.OutputDir)

	emailAdapter := delivery.NewEmailAdapter(delivery.EmailConfig{
		APIKey: cfg.Mail.APIKey, From: cfg.Mail.From, PlainOnly: cfg.Mail.PlainOnly,
	})
	chatAdapter := delivery.NewChatAdapter(delivery.ChatConfig{
		APIBase: cfg.Chat.APIBase, AppID: cfg.Chat.AppID, AppSecret: cfg.Chat.AppSecret, DefaultChatID: cfg.Chat.DefaultChatID,
	})
	delivererSvc := deliverer.New(pipelines, emailAdapter, chatAdapter, deliverer.Config{FrontendBaseURL: cfg.Mail.FrontendBaseURL})

	loc, err := time.LoadLocation(cfg.Runner.Timezone)
	if err != nil {
		loc = time.UTC
	}
	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()
	runnerSvc := runner.New(pipelines, sources, sourceRuns, collectorSvc, evaluatorSvc, composerSvc, delivererSvc,
		runner.Config{Timezone: loc, PlainOnly: cfg.Mail.PlainOnly}, zlog)

	cleanup := func() {
		pool.Close()
		_ = db.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}
	return &deps{
		runner: runnerSvc, collector: collectorSvc, evaluator: evaluatorSvc,
		composer: composerSvc, deliverer: delivererSvc,
	}, cleanup, nil
}

func runRunner(ctx context.Context, d *deps, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("runner", flag.ExitOnError)
	name := fs.String("name", "", "pipeline name")
	id := fs.Int64("id", 0, "pipeline id")
	all := fs.Bool("all", false, "run every pipeline")
	debugOnly := fs.Bool("debug-only", false, "restrict to debug_enabled pipelines")
	ignoreWeekday := fs.Bool("ignore-weekday", false, "bypass the weekday gate")
	_ = fs.Parse(args)

	if cfg.Runner.ForceRun {
		*ignoreWeekday = true
	}

	outcomes, err := d.runner.Run(ctx, in.RunRequest{
		Name: *name, ID: *id, All: *all, DebugOnly: *debugOnly, IgnoreWeekday: *ignoreWeekday,
	})
	if err != nil {
		logger.Fatal("runner failed: %v", err)
	}
	failed := 0
	for _, o := range outcomes {
		logger.WithField("pipeline_id", o.PipelineID).WithField("state", o.State).Info("pipeline outcome")
		if strings.HasPrefix(o.State, "Failed") || strings.HasPrefix(o.State, "Aborted") {
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// runCollect implements `collect --sources k1,k2` plus the two
// SPEC_FULL.md supplement maintenance subcommands, `collect backfill` and
// `collect backfill-publish`, grounded on backfill_details.py/
// backfill_publish.py being invoked as their own standalone scripts.
func runCollect(ctx context.Context, d *deps, args []string) {
	if len(args) > 0 {
		switch args[0] {
		case "backfill":
			runCollectBackfill(ctx, d, args[1:])
			return
		case "backfill-publish":
			runCollectBackfillPublish(ctx, d, args[1:])
			return
		}
	}

	fs := flag.NewFlagSet("collect", flag.ExitOnError)
	var sources stringSlice
	fs.Var(&sources, "sources", "comma-separated source keys; repeatable; empty runs every due source")
	_ = fs.Parse(args)

	var keys []string
	for _, raw := range sources {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
	}

	n, err := d.collector.CollectDue(ctx, keys, time.Now())
	if err != nil {
		logger.Fatal("collect due sources: %v", err)
	}
	logger.Info("collected %d articles", n)
}

func runCollectBackfill(ctx context.Context, d *deps, args []string) {
	fs := flag.NewFlagSet("collect backfill", flag.ExitOnError)
	source := fs.String("source", "", "source key (required)")
	limit := fs.Int("limit", 0, "max still-missing rows to consider; 0 uses the collector default")
	_ = fs.Parse(args)
	if *source == "" {
		logger.Fatal("collect backfill: --source is required")
	}

	n, err := d.collector.BackfillDetails(ctx, *source, *limit)
	if err != nil {
		logger.Fatal("collect backfill %s: %v", *source, err)
	}
	logger.Info("backfilled details for %d rows of %s", n, *source)
}

func runCollectBackfillPublish(ctx context.Context, d *deps, args []string) {
	fs := flag.NewFlagSet("collect backfill-publish", flag.ExitOnError)
	source := fs.String("source", "", "source key (required)")
	_ = fs.Parse(args)
	if *source == "" {
		logger.Fatal("collect backfill-publish: --source is required")
	}

	n, err := d.collector.BackfillPublish(ctx, *source)
	if err != nil {
		logger.Fatal("collect backfill-publish %s: %v", *source, err)
	}
	logger.Info("backfilled publish time for %d rows of %s", n, *source)
}

func runEvaluate(ctx context.Context, d *deps, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	evaluatorKey := fs.String("evaluator-key", cfg.Runner.EvaluatorKey, "evaluator key")
	hours := fs.Int("hours", 24, "lookback window in hours")
	limit := fs.Int("limit", 50, "max articles to score")
	overwrite := fs.Bool("overwrite", false, "re-score already-reviewed articles")
	pipelineID := fs.Int64("pipeline-id", cfg.Runner.PipelineID, "pipeline id")
	var categories, srcs stringSlice
	fs.Var(&categories, "category", "restrict to this category; repeatable")
	fs.Var(&srcs, "source", "restrict to this source key; repeatable")
	_ = fs.Parse(args)

	scored, err := d.evaluator.Evaluate(ctx, in.EvaluateRequest{
		EvaluatorKey: *evaluatorKey, Hours: *hours, Limit: *limit, Overwrite: *overwrite,
		PipelineID: *pipelineID, Categories: categories, Sources: srcs,
	})
	if err != nil {
		logger.Fatal("evaluate: %v", err)
	}
	logger.Info("scored %d articles", scored)
}

func runWrite(ctx context.Context, d *deps, args []string) {
	fs := flag.NewFlagSet("write", flag.ExitOnError)
	pipelineID := fs.Int64("pipeline-id", 0, "pipeline id")
	evaluatorKey := fs.String("evaluator-key", "", "evaluator key")
	_ = fs.Parse(args)

	digest, err := d.composer.Compose(ctx, in.ComposeRequest{PipelineID: *pipelineID, EvaluatorKey: *evaluatorKey})
	if err != nil {
		logger.Fatal("write: %v", err)
	}
	logger.Info("composed digest with %d articles, wrote %s", digest.Count, digest.ArtifactPath)
}

// runDeliverEmail implements `deliver-email --html PATH` (§6): it reads the
// artifact write already persisted instead of re-composing, since each
// subcommand is a fresh process with no other way to receive the digest.
func runDeliverEmail(ctx context.Context, d *deps, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("deliver-email", flag.ExitOnError)
	pipelineID := fs.Int64("pipeline-id", cfg.Runner.PipelineID, "pipeline id")
	htmlPath := fs.String("html", "", "path to the HTML artifact written by `write` (required)")
	plainOnly := fs.Bool("plain-only", cfg.Mail.PlainOnly, "emit the plain-text fallback alongside the html")
	_ = fs.Parse(args)
	if *htmlPath == "" {
		logger.Fatal("deliver-email: --html is required")
	}

	body, err := os.ReadFile(*htmlPath)
	if err != nil {
		logger.Fatal("deliver-email: read %s: %v", *htmlPath, err)
	}
	digest := in.Digest{HTML: string(body), ArtifactPath: *htmlPath, Count: -1}
	if *plainOnly {
		digest.Plain = domain.HTMLToPlainText(digest.HTML)
	}

	if err := d.deliverer.Deliver(ctx, in.DeliverRequest{PipelineID: *pipelineID, Digest: digest, PlainOnly: *plainOnly}); err != nil {
		logger.Fatal("deliver-email: %v", err)
	}
	logger.Info("delivered email digest for pipeline %d from %s", *pipelineID, *htmlPath)
}

// runDeliverChat implements `deliver-chat --file PATH --as-card [--to-all |
// --chat-id ID]` (§6). --as-card is accepted for CLI-surface parity with
// feishu_deliver.py, but this port's out.ChatSender exposes only a card
// send (SendCard) — there is no plain-text/post transport to fall back to,
// so --as-card=false only logs a notice and still sends as a card.
func runDeliverChat(ctx context.Context, d *deps, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("deliver-chat", flag.ExitOnError)
	pipelineID := fs.Int64("pipeline-id", cfg.Runner.PipelineID, "pipeline id")
	filePath := fs.String("file", "", "path to the markdown/card-body artifact written by `write` (required)")
	asCard := fs.Bool("as-card", true, "send as an interactive card (the only transport this adapter implements)")
	toAll := fs.Bool("to-all", false, "override the stored delivery target: send to every resolved chat")
	chatID := fs.String("chat-id", "", "override the stored delivery target: send to this one chat id")
	_ = fs.Parse(args)
	if *filePath == "" {
		logger.Fatal("deliver-chat: --file is required")
	}
	if !*asCard {
		logger.Warn("deliver-chat: --as-card=false requested but no non-card transport is implemented; sending as a card")
	}

	body, err := os.ReadFile(*filePath)
	if err != nil {
		logger.Fatal("deliver-chat: read %s: %v", *filePath, err)
	}
	digest := in.Digest{Markdown: string(body), ArtifactPath: *filePath, Count: -1}

	if err := d.deliverer.Deliver(ctx, in.DeliverRequest{
		PipelineID: *pipelineID, Digest: digest,
		ChatIDOverride: *chatID, ToAllOverride: *toAll,
	}); err != nil {
		logger.Fatal("deliver-chat: %v", err)
	}
	logger.Info("delivered chat digest for pipeline %d from %s", *pipelineID, *filePath)
}
