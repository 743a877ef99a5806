// Package config loads every AI_*/CHAT_*/MAIL_*/PIPELINE_* setting the
// pipeline needs from the environment (§6).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting the pipeline needs.
type Config struct {
	DatabaseURL string
	RedisURL    string

	AI      AIConfig
	Chat    ChatConfig
	Mail    MailConfig
	Runner  RunnerConfig
}

// AIConfig configures the evaluator's LLM client and retry/weighting policy.
type AIConfig struct {
	BaseURL         string
	Model           string
	APIKey          string
	APIPath         string // default /v1/chat/completions
	Timeout         time.Duration
	RequestInterval time.Duration
	MaxRetries      int
	ScoreWeights    map[string]float64
	PromptPath      string
}

// ChatConfig configures the chat delivery transport.
type ChatConfig struct {
	APIBase       string
	AppID         string
	AppSecret     string
	DefaultChatID string
}

// MailConfig configures the e-mail delivery transport.
type MailConfig struct {
	APIKey          string
	From            string
	PlainOnly       bool
	ListUnsubscribe string
	FrontendBaseURL string
}

// RunnerConfig configures ambient pipeline-runner defaults, overridable by
// CLI flags.
type RunnerConfig struct {
	PipelineID    int64
	EvaluatorKey  string
	Timezone      string // default Asia/Shanghai
	ForceRun      bool
	OutputDir     string // artifact root, default data/output (§6 "Artifact layout")
}

// Load reads the process environment (optionally seeded by a .env file)
// into a Config. AI_API_BASE_URL/AI_API_MODEL/AI_API_KEY are required; the
// evaluator rejects their absence at first use, not here, so that
// non-evaluator subcommands (e.g. `collect`) don't need them.
func Load() (*Config, error) {
	_ = godotenv.Load()

	scoreWeights, err := parseScoreWeights(getEnv("AI_SCORE_WEIGHTS", ""))
	if err != nil {
		return nil, err
	}

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		AI: AIConfig{
			BaseURL:         getEnv("AI_API_BASE_URL", ""),
			Model:           getEnv("AI_API_MODEL", ""),
			APIKey:          getEnv("AI_API_KEY", ""),
			APIPath:         getEnv("AI_API_PATH", "/v1/chat/completions"),
			Timeout:         time.Duration(getEnvFloat("AI_API_TIMEOUT", 30)) * time.Second,
			RequestInterval: time.Duration(getEnvFloat("AI_REQUEST_INTERVAL", 0)) * time.Second,
			MaxRetries:      getEnvInt("AI_MAX_RETRIES", 3),
			ScoreWeights:    scoreWeights,
			PromptPath:      getEnv("AI_PROMPT_PATH", "prompts/ai/article_evaluation.prompt"),
		},

		Chat: ChatConfig{
			APIBase:       getEnv("CHAT_API_BASE", ""),
			AppID:         getEnv("CHAT_APP_ID", ""),
			AppSecret:     getEnv("CHAT_APP_SECRET", ""),
			DefaultChatID: getEnv("CHAT_DEFAULT_CHAT_ID", ""),
		},

		Mail: MailConfig{
			APIKey:          getEnv("MAIL_API_KEY", ""),
			From:            getEnv("MAIL_FROM", ""),
			PlainOnly:       getEnvBool("MAIL_PLAIN_ONLY", false),
			ListUnsubscribe: getEnv("MAIL_LIST_UNSUBSCRIBE", ""),
			FrontendBaseURL: getEnv("FRONTEND_BASE_URL", ""),
		},

		Runner: RunnerConfig{
			PipelineID:   int64(getEnvInt("PIPELINE_ID", 0)),
			EvaluatorKey: getEnv("PIPELINE_EVALUATOR_KEY", ""),
			Timezone:     getEnv("PIPELINE_TZ", "Asia/Shanghai"),
			ForceRun:     getEnvBool("FORCE_RUN", false),
			OutputDir:    getEnv("OUTPUT_DIR", "data/output"),
		},
	}, nil
}

// parseScoreWeights parses AI_SCORE_WEIGHTS, a JSON object mapping metric
// key to a non-negative weight override (§6).
func parseScoreWeights(raw string) (map[string]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var parsed map[string]float64
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("AI_SCORE_WEIGHTS must be a JSON object of metric_key -> weight: %w", err)
	}
	weights := make(map[string]float64, len(parsed))
	for k, v := range parsed {
		if v >= 0 {
			weights[k] = v
		}
	}
	return weights, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
