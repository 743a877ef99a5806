package composer

import (
	"context"
	"sort"
	"time"

	"newsroom/core/domain"
	"newsroom/core/port/out"
)

// candidate is one article carried through the selection pipeline, joined
// with its AI review (nil if the writer doesn't require one).
type candidate struct {
	info         domain.Info
	review       *domain.InfoAiReview
	score        float64
	publish      time.Time
	metricScores map[string]int
	bonus        float64
}

// gatherCandidates builds the candidate window (§4.4): parses publish
// times, drops rows missing title/link, drops duplicate links, and joins
// each row with its per-metric scores and review when aiDependent is true.
func gatherCandidates(ctx context.Context, infos out.InfoRepository, scores out.ScoreRepository, metrics []domain.AiMetric, since, until time.Time, categories, srcKeys []string, evaluatorKey string, aiDependent bool) ([]candidate, error) {
	rows, err := infos.ListWindow(ctx, since, until, categories, srcKeys)
	if err != nil {
		return nil, err
	}

	seenLinks := make(map[string]bool, len(rows))
	candidates := make([]candidate, 0, len(rows))
	for _, info := range rows {
		if info.Title == "" || info.Link == "" {
			continue
		}
		if seenLinks[info.Link] {
			continue
		}
		seenLinks[info.Link] = true

		publishedAt, ok := parsePublish(info.Publish)
		if !ok {
			continue
		}

		c := candidate{info: info, publish: publishedAt}
		if aiDependent {
			review, err := scores.GetReview(ctx, info.ID, evaluatorKey)
			if err != nil {
				return nil, err
			}
			if review == nil {
				continue
			}
			scoreRows, err := scores.ListScores(ctx, info.ID, evaluatorKey)
			if err != nil {
				return nil, err
			}
			if !hasCompleteScores(scoreRows, metrics) {
				continue
			}
			c.review = review
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func hasCompleteScores(rows []domain.InfoAiScore, metrics []domain.AiMetric) bool {
	byMetric := make(map[int64]bool, len(rows))
	for _, r := range rows {
		byMetric[r.MetricID] = true
	}
	for _, m := range metrics {
		if !byMetric[m.ID] {
			return false
		}
	}
	return true
}

func parsePublish(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// scoreMapFor builds the metric-key -> score map a weighted-score
// computation needs, from the raw InfoAiScore rows.
func scoreMapFor(ctx context.Context, scores out.ScoreRepository, infoID int64, evaluatorKey string, metrics []domain.AiMetric) (map[string]int, error) {
	rows, err := scores.ListScores(ctx, infoID, evaluatorKey)
	if err != nil {
		return nil, err
	}
	byMetricID := make(map[int64]int, len(rows))
	for _, r := range rows {
		byMetricID[r.MetricID] = r.Score
	}
	result := make(map[string]int, len(metrics))
	for _, m := range metrics {
		result[m.Key] = byMetricID[m.ID]
	}
	return result, nil
}

// groupByCategory buckets candidates by Info.Category, preserving no
// particular order (callers sort explicitly).
func groupByCategory(items []candidate) map[string][]candidate {
	groups := make(map[string][]candidate)
	for _, c := range items {
		groups[c.info.Category] = append(groups[c.info.Category], c)
	}
	return groups
}

// sortByScoreThenPublish orders candidates by (score desc, publish desc),
// the ordering rule §4.4 applies within every category and (category,
// source) subgroup.
func sortByScoreThenPublish(items []candidate) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].publish.After(items[j].publish)
	})
}

// applyPerSourceCap keeps the top cap candidates per source within a
// category, then returns the flattened, re-sorted category.
func applyPerSourceCap(items []candidate, cap int) []candidate {
	if cap <= 0 {
		return items
	}
	bySource := make(map[string][]candidate)
	for _, c := range items {
		bySource[c.info.Source] = append(bySource[c.info.Source], c)
	}
	var result []candidate
	for _, group := range bySource {
		sortByScoreThenPublish(group)
		if len(group) > cap {
			group = group[:cap]
		}
		result = append(result, group...)
	}
	sortByScoreThenPublish(result)
	return result
}
