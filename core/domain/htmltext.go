package domain

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlBreakTag     = regexp.MustCompile(`(?i)<br\s*/?>`)
	htmlBlockCloseRe = regexp.MustCompile(`(?i)</(p|div|section|article|h[1-6]|tr)>`)
	htmlListItemOpen = regexp.MustCompile(`(?i)<li[^>]*>`)
	htmlListItemEnd  = regexp.MustCompile(`(?i)</li>`)
	htmlScriptBlock  = regexp.MustCompile(`(?is)<script.*?</script>`)
	htmlStyleBlock   = regexp.MustCompile(`(?is)<style.*?</style>`)
	htmlAnyTag       = regexp.MustCompile(`<[^>]+>`)
	htmlBlankRun     = regexp.MustCompile(`[\t\f\r ]+`)
	htmlBlankLines   = regexp.MustCompile(`\n{3,}`)
)

// HTMLToPlainText converts a rendered HTML digest to a plain-text copy for
// the plain-only delivery fallback (§4.5 "A plain-text copy is emitted
// alongside the HTML when a plain-only mode flag is set"), grounded on
// pipeline_runner.py's html_to_wrapped_text.
func HTMLToPlainText(body string) string {
	x := htmlBreakTag.ReplaceAllString(body, "\n")
	x = htmlBlockCloseRe.ReplaceAllString(x, "\n")
	x = htmlListItemOpen.ReplaceAllString(x, "\n- ")
	x = htmlListItemEnd.ReplaceAllString(x, "\n")
	x = htmlScriptBlock.ReplaceAllString(x, " ")
	x = htmlStyleBlock.ReplaceAllString(x, " ")
	x = htmlAnyTag.ReplaceAllString(x, " ")
	x = html.UnescapeString(x)
	x = htmlBlankRun.ReplaceAllString(x, " ")
	x = htmlBlankLines.ReplaceAllString(x, "\n\n")

	var paragraphs []string
	for _, p := range strings.Split(x, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, wrapParagraph(p, 78))
		}
	}
	text := strings.TrimSpace(strings.Join(paragraphs, "\n\n"))
	if text == "" {
		return "(digest content)"
	}
	return text
}

// wrapParagraph wraps on word boundaries at width columns, never breaking a
// single long word (mirrors textwrap.fill(..., break_long_words=False)).
func wrapParagraph(p string, width int) string {
	words := strings.Fields(p)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
