package domain

import (
	"strings"
	"time"
)

// Timestamp renders the YYYYMMDD-HHMMSS form used for output file names and
// the ${ts} template variable (§4.5).
func Timestamp(t time.Time) string {
	return t.Format("20060102-150405")
}

// dateZh renders the local date as YYYY年MM月DD日 for the ${date_zh}
// template variable (§4.5).
func dateZh(t time.Time) string {
	return t.Format("2006年01月02日")
}

// RenderTemplate substitutes ${date_zh} and ${ts}; any other ${...}
// occurrence is left verbatim (§4.5 "Subject/title templating").
func RenderTemplate(tpl string, now time.Time) string {
	replacer := strings.NewReplacer(
		"${date_zh}", dateZh(now),
		"${ts}", Timestamp(now),
	)
	return replacer.Replace(tpl)
}

// RenderSubject is RenderTemplate with the "empty subject degrades to the
// date" fallback applied.
func RenderSubject(tpl string, now time.Time) string {
	rendered := strings.TrimSpace(RenderTemplate(tpl, now))
	if rendered == "" {
		return dateZh(now)
	}
	return rendered
}
