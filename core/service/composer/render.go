package composer

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"newsroom/core/domain"
)

const htmlDigestTemplate = `<!doctype html>
<html lang="zh-CN">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
  <style>
    body { font: 16px/1.6 -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; margin: 24px; color: #1f2937; }
    h1 { font-size: 22px; margin: 0 0 6px; }
    .meta { color: #6b7280; margin-bottom: 18px; }
    h2 { font-size: 19px; margin: 24px 0 10px; border-bottom: 2px solid #e5e7eb; padding-bottom: 4px; }
    .card { border: 1px solid #e5e7eb; border-radius: 10px; padding: 16px 18px; margin-bottom: 14px; background: #fff; }
    .card h3 { margin: 0 0 8px; font-size: 17px; }
    .card a { color: #0b5ed7; text-decoration: none; }
    .meta-line { color: #6b7280; font-size: 13px; margin-bottom: 6px; }
    .stars { color: #f97316; font-size: 16px; }
    .dims { font-size: 14px; color: #374151; margin-bottom: 6px; }
    .summary, .comment { font-size: 14px; color: #1f2937; margin-bottom: 4px; }
    .footer { margin-top: 28px; color: #9ca3af; font-size: 12px; }
  </style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">生成时间：{{.GeneratedAt}} · 合计 {{.Count}} 篇</p>
{{range .Sections}}<h2>{{.Label}}</h2>
{{range .Articles}}<div class="card">
  <h3><a href="{{.Link}}" target="_blank" rel="noopener noreferrer">{{.Title}}</a></h3>
  <div class="meta-line">来源：{{.Source}} · 发布时间：{{.Published}}</div>
  <div class="stars">{{.Stars}} {{.ScoreDisplay}}</div>
  <div class="dims">{{.Dimensions}}</div>
  {{if .Summary}}<div class="summary">概要：{{.Summary}}</div>{{end}}
  {{if .Comment}}<div class="comment">点评：{{.Comment}}</div>{{end}}
</div>
{{end}}{{end}}
{{if .UnsubscribeURL}}<p class="footer"><a href="{{.UnsubscribeURL}}">退订</a></p>{{end}}
</body>
</html>
`

var htmlDigest = template.Must(template.New("digest").Parse(htmlDigestTemplate))

type htmlArticle struct {
	Title, Link, Source, Published, Stars, ScoreDisplay, Dimensions, Summary, Comment string
}

type htmlSection struct {
	Label    string
	Articles []htmlArticle
}

type htmlData struct {
	Title          string
	GeneratedAt    string
	Count          int
	Sections       []htmlSection
	UnsubscribeURL string
}

// renderHTML builds the e-mail digest: one section per category, each
// article a card with a star rating, signed dimension line, comment, and
// summary (§4.4 "HTML digest").
func renderHTML(byCategory map[string][]candidate, metrics []domain.AiMetric, hours int, now time.Time) string {
	categories := sortedCategoryKeys(byCategory)
	total := 0
	sections := make([]htmlSection, 0, len(categories))
	for _, cat := range categories {
		items := byCategory[cat]
		if len(items) == 0 {
			continue
		}
		total += len(items)
		articles := make([]htmlArticle, 0, len(items))
		for _, c := range items {
			articles = append(articles, htmlArticle{
				Title:        c.info.Title,
				Link:         c.info.Link,
				Source:       displayOr(c.info.Source, "未知"),
				Published:    c.publish.Format("2006-01-02 15:04 UTC"),
				Stars:        starRow(c.score),
				ScoreDisplay: fmt.Sprintf("%.2f/5", c.score),
				Dimensions:   dimensionsLine(c, metrics),
				Summary:      reviewSummary(c),
				Comment:      reviewComment(c),
			})
		}
		sections = append(sections, htmlSection{Label: displayOr(cat, "未分类"), Articles: articles})
	}
	if total == 0 {
		return ""
	}

	data := htmlData{
		Title:       fmt.Sprintf("最近 %d 小时资讯汇总", hours),
		GeneratedAt: now.Format("2006-01-02 15:04 UTC"),
		Count:       total,
		Sections:    sections,
	}
	var buf strings.Builder
	if err := htmlDigest.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}

// renderMarkdown builds the chat digest: a bold heading per category,
// numbered items of the form "N. (AI推荐:★★★½) <title> ([source](url))",
// titles truncated to 100 characters (§4.4 "Chat markdown digest").
func renderMarkdown(byCategory map[string][]candidate) string {
	var b strings.Builder
	for _, cat := range sortedCategoryKeys(byCategory) {
		items := byCategory[cat]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "**%s**\n\n", displayOr(cat, "未分类"))
		for i, c := range items {
			title := truncateRunes(c.info.Title, 100)
			fmt.Fprintf(&b, "%d. (AI推荐:%s) %s ([%s](%s))\n", i+1, starRow(c.score), title, c.info.Source, c.info.Link)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderMinigame builds the alternate minigame digest (§4.4 "Minigame
// digest"): a flat numbered list (no category headings) including
// ai_summary, ai_comment, a markdown source link, and an optional cover
// image line, grounded on feishu_legou_game_writer.py's render_markdown.
func renderMinigame(byCategory map[string][]candidate) string {
	var b strings.Builder
	idx := 1
	for _, cat := range sortedCategoryKeys(byCategory) {
		for _, c := range byCategory[cat] {
			sourcePart := displayOr(c.info.Source, "未知来源")
			if c.info.Link != "" {
				sourcePart = fmt.Sprintf("[%s](%s)", sourcePart, c.info.Link)
			}
			fmt.Fprintf(&b, "%d. (AI结合评估:%s) %s（%s）\n", idx, starRow(c.score), c.info.Title, sourcePart)
			fmt.Fprintf(&b, "    - 游戏简介：%s\n", reviewSummary(c))
			fmt.Fprintf(&b, "    - 结合猜想：%s\n", reviewComment(c))
			if c.info.ImgLink != "" {
				fmt.Fprintf(&b, "   - 封面：![](%s)\n", c.info.ImgLink)
			}
			idx++
		}
	}
	return b.String()
}

// renderPlain builds a plain-text fallback, used when plain-only delivery
// is enabled or as an .eml alternate part.
func renderPlain(byCategory map[string][]candidate, hours int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "最近 %d 小时资讯汇总\n\n", hours)
	for _, cat := range sortedCategoryKeys(byCategory) {
		items := byCategory[cat]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "== %s ==\n", displayOr(cat, "未分类"))
		for i, c := range items {
			fmt.Fprintf(&b, "%d. %s (%.2f/5) - %s\n   %s\n", i+1, c.info.Title, c.score, c.info.Source, c.info.Link)
			if summary := reviewSummary(c); summary != "" {
				fmt.Fprintf(&b, "   %s\n", summary)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// starRow renders a 5-star row: full stars = the integer part of score
// (truncated, not rounded), plus a half star if the fractional remainder is
// >= 0.5 (§4.4).
func starRow(score float64) string {
	full := int(score)
	frac := score - float64(full)
	half := frac >= 0.5
	stars := strings.Repeat("★", full)
	if half {
		stars += "½"
	}
	empty := 5 - full
	if half {
		empty--
	}
	if empty > 0 {
		stars += strings.Repeat("☆", empty)
	}
	return stars
}

// dimensionsLine renders "Label：score" per active metric joined by " · ",
// plus a signed manual-bonus note when one was applied, grounded on
// email_writer.py's `_render_article_card` dims/bonus_note construction.
func dimensionsLine(c candidate, metrics []domain.AiMetric) string {
	if c.review == nil {
		return ""
	}
	parts := make([]string, 0, len(metrics))
	for _, m := range metrics {
		parts = append(parts, fmt.Sprintf("%s：%d", m.Label, c.metricScores[m.Key]))
	}
	line := strings.Join(parts, " · ")
	if c.bonus != 0 {
		sign := ""
		if c.bonus > 0 {
			sign = "+"
		}
		line += fmt.Sprintf("（手动加成 %s%g）", sign, c.bonus)
	}
	return line
}

func reviewSummary(c candidate) string {
	if c.review == nil {
		return ""
	}
	return c.review.AiSummary
}

func reviewComment(c candidate) string {
	if c.review == nil {
		return ""
	}
	return c.review.AiComment
}

func displayOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func sortedCategoryKeys(byCategory map[string][]candidate) []string {
	keys := make([]string, 0, len(byCategory))
	for k := range byCategory {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
