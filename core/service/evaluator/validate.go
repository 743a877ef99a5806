package evaluator

import (
	"fmt"
	"math"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"newsroom/core/domain"
	"newsroom/pkg/apperr"
)

// rawEvaluation is the exact shape the prompt asks the model to return.
type rawEvaluation struct {
	DimensionScores map[string]json.RawMessage `json:"dimension_scores"`
	Comment         string                     `json:"comment"`
	Summary         string                     `json:"summary"`
	KeyConcepts     json.RawMessage            `json:"key_concepts"`
	SummaryLong     string                     `json:"summary_long"`
}

// evaluation is the validated, normalized result of one LLM call.
type evaluation struct {
	scores      map[string]int
	comment     string
	summary     string
	keyConcepts []string
	summaryLong string
}

// stripJSONFence removes a leading/trailing ``` or ```json code fence, which
// models frequently wrap JSON responses in despite being asked not to.
func stripJSONFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if strings.HasPrefix(strings.ToLower(trimmed), "json") {
		trimmed = trimmed[4:]
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

// validateResponse parses and validates the model's raw content against the
// active metric set (§4.3 "response validation").
func validateResponse(raw string, metrics []domain.AiMetric) (*evaluation, error) {
	cleaned := stripJSONFence(raw)

	var parsed rawEvaluation
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, apperr.Parse("ai response JSON", err)
	}
	if parsed.DimensionScores == nil {
		return nil, apperr.Validation("response missing dimension_scores")
	}

	required := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		required[m.Key] = true
	}
	var unexpected []string
	for key := range parsed.DimensionScores {
		if !required[key] {
			unexpected = append(unexpected, key)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return nil, apperr.Validation(fmt.Sprintf("response contains unknown dimensions: %s", strings.Join(unexpected, ", ")))
	}
	var missing []string
	for _, m := range metrics {
		if _, ok := parsed.DimensionScores[m.Key]; !ok {
			missing = append(missing, m.Key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, apperr.Validation(fmt.Sprintf("response missing dimensions: %s", strings.Join(missing, ", ")))
	}

	scores := make(map[string]int, len(metrics))
	for _, m := range metrics {
		var v float64
		if err := json.Unmarshal(parsed.DimensionScores[m.Key], &v); err != nil {
			return nil, apperr.Validation(fmt.Sprintf("dimension %q score is not a number", m.Key))
		}
		rounded := int(math.Round(v))
		if rounded < domain.MinScore || rounded > domain.MaxScore {
			return nil, apperr.Validation(fmt.Sprintf("dimension %q score %d out of range [%d, %d]", m.Key, rounded, domain.MinScore, domain.MaxScore))
		}
		scores[m.Key] = rounded
	}

	comment := strings.TrimSpace(strings.ReplaceAll(parsed.Comment, "\n", " "))
	if comment == "" {
		return nil, apperr.Validation("comment is missing or empty")
	}
	summary := strings.TrimSpace(strings.ReplaceAll(parsed.Summary, "\n", " "))
	if summary == "" {
		return nil, apperr.Validation("summary is missing or empty")
	}

	concepts := parseKeyConcepts(parsed.KeyConcepts)
	if len(concepts) > 5 {
		concepts = concepts[:5]
	}

	summaryLong := strings.TrimSpace(strings.ReplaceAll(parsed.SummaryLong, "\n", " "))
	if summaryLong == "" {
		summaryLong = summary
	}

	return &evaluation{
		scores: scores, comment: comment, summary: summary,
		keyConcepts: concepts, summaryLong: summaryLong,
	}, nil
}

// parseKeyConcepts accepts key_concepts as either a JSON array of strings or
// a single delimited string (the model sometimes ignores the schema and
// returns a comma/顿号-separated string instead of an array).
func parseKeyConcepts(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var asList []interface{}
	if err := json.Unmarshal(raw, &asList); err == nil {
		concepts := make([]string, 0, len(asList))
		for _, item := range asList {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				concepts = append(concepts, s)
			}
		}
		return concepts
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		replacer := strings.NewReplacer("，", ",", "、", ",", ";", ",")
		parts := strings.Split(replacer.Replace(asString), ",")
		concepts := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				concepts = append(concepts, p)
			}
		}
		return concepts
	}
	return nil
}

// finalScore computes the weighted average across the active metrics,
// rounded to 2 decimal places (§4.3 "weighted final-score formula").
func finalScore(scores map[string]int, metrics []domain.AiMetric, overrides map[string]float64) float64 {
	return round2(domain.WeightedScore(scores, metrics, overrides))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
