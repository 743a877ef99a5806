package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations creates every table/column this repo needs, additively.
// Each statement is idempotent, so it is safe to run on every startup
// (§6 "must create missing tables/columns on first startup").
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		key     TEXT PRIMARY KEY,
		label   TEXT NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS sources (
		id           BIGSERIAL PRIMARY KEY,
		key          TEXT UNIQUE NOT NULL,
		label        TEXT NOT NULL,
		category_key TEXT NOT NULL REFERENCES categories(key),
		script_path  TEXT NOT NULL,
		enabled      BOOLEAN NOT NULL DEFAULT TRUE,
		addresses    TEXT[] NOT NULL DEFAULT '{}'
	)`,

	`CREATE TABLE IF NOT EXISTS source_runs (
		source_id   BIGINT PRIMARY KEY REFERENCES sources(id),
		last_run_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS infos (
		id         BIGSERIAL PRIMARY KEY,
		link       TEXT UNIQUE NOT NULL,
		source     TEXT NOT NULL,
		category   TEXT NOT NULL,
		publish    TEXT NOT NULL DEFAULT '',
		title      TEXT NOT NULL,
		detail     TEXT NOT NULL DEFAULT '',
		store_link TEXT NOT NULL DEFAULT '',
		creator    TEXT NOT NULL DEFAULT '',
		img_link   TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_infos_source_detail ON infos(source) WHERE detail = ''`,
	`CREATE INDEX IF NOT EXISTS idx_infos_publish ON infos(publish)`,
	`ALTER TABLE infos ADD COLUMN IF NOT EXISTS store_link TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE infos ADD COLUMN IF NOT EXISTS creator TEXT NOT NULL DEFAULT ''`,

	`CREATE TABLE IF NOT EXISTS ai_metrics (
		id             BIGSERIAL PRIMARY KEY,
		key            TEXT UNIQUE NOT NULL,
		label          TEXT NOT NULL,
		rate_guide     TEXT NOT NULL DEFAULT '',
		default_weight DOUBLE PRECISION NOT NULL DEFAULT 1,
		active         BOOLEAN NOT NULL DEFAULT TRUE,
		sort_order     INT NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS info_ai_scores (
		info_id   BIGINT NOT NULL REFERENCES infos(id),
		metric_id BIGINT NOT NULL REFERENCES ai_metrics(id),
		score     INT NOT NULL,
		PRIMARY KEY (info_id, metric_id)
	)`,

	`CREATE TABLE IF NOT EXISTS info_ai_reviews (
		info_id         BIGINT NOT NULL REFERENCES infos(id),
		evaluator_key   TEXT NOT NULL,
		final_score     DOUBLE PRECISION NOT NULL,
		ai_comment      TEXT NOT NULL DEFAULT '',
		ai_summary      TEXT NOT NULL DEFAULT '',
		ai_summary_long TEXT NOT NULL DEFAULT '',
		ai_key_concepts TEXT[] NOT NULL DEFAULT '{}',
		raw_response    TEXT NOT NULL DEFAULT '',
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (info_id, evaluator_key)
	)`,
	`ALTER TABLE info_ai_reviews ADD COLUMN IF NOT EXISTS ai_summary_long TEXT NOT NULL DEFAULT ''`,

	`CREATE TABLE IF NOT EXISTS pipeline_classes (
		id         BIGSERIAL PRIMARY KEY,
		key        TEXT UNIQUE NOT NULL,
		categories TEXT[] NOT NULL DEFAULT '{}',
		evaluators TEXT[] NOT NULL DEFAULT '{}',
		writers    TEXT[] NOT NULL DEFAULT '{}'
	)`,

	`CREATE TABLE IF NOT EXISTS pipelines (
		id                BIGSERIAL PRIMARY KEY,
		name              TEXT UNIQUE NOT NULL,
		enabled           BOOLEAN NOT NULL DEFAULT TRUE,
		debug_enabled     BOOLEAN NOT NULL DEFAULT FALSE,
		evaluator_key     TEXT NOT NULL,
		pipeline_class_id BIGINT NOT NULL REFERENCES pipeline_classes(id),
		weekdays          INT[],
		description       TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS pipeline_filters (
		pipeline_id    BIGINT PRIMARY KEY REFERENCES pipelines(id),
		all_categories BOOLEAN NOT NULL DEFAULT TRUE,
		categories     TEXT[] NOT NULL DEFAULT '{}',
		all_src        BOOLEAN NOT NULL DEFAULT TRUE,
		include_src    TEXT[] NOT NULL DEFAULT '{}'
	)`,

	`CREATE TABLE IF NOT EXISTS pipeline_writers (
		pipeline_id        BIGINT PRIMARY KEY REFERENCES pipelines(id),
		type               TEXT NOT NULL,
		hours              INT NOT NULL DEFAULT 24,
		weights_json       JSONB NOT NULL DEFAULT '{}',
		source_bonus_json  JSONB NOT NULL DEFAULT '{}',
		limit_per_category JSONB NOT NULL DEFAULT '{}',
		per_source_cap     INT NOT NULL DEFAULT 0,
		min_score          DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS pipeline_delivery_emails (
		pipeline_id BIGINT PRIMARY KEY REFERENCES pipelines(id),
		email       TEXT NOT NULL,
		subject_tpl TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS pipeline_delivery_chats (
		pipeline_id BIGINT PRIMARY KEY REFERENCES pipelines(id),
		app_id      TEXT NOT NULL,
		app_secret  TEXT NOT NULL,
		to_all_chat BOOLEAN NOT NULL DEFAULT FALSE,
		chat_id     TEXT NOT NULL DEFAULT '',
		title_tpl   TEXT NOT NULL DEFAULT ''
	)`,
}
