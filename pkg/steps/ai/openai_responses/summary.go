package openai_responses

import (
	"regexp"
	"strings"
)

var (
	summaryTitleRe      = regexp.MustCompile(`^\*\*(.+?)\*\*`)
	summaryTitleStripRe = regexp.MustCompile(`^\*\*(.+?)\*\*\s*\n*`)
)

// SplitSummaryTitle separates a leading bold "**Title**" from a reasoning
// summary. Without a bold prefix the text is returned unchanged along with
// the default title.
func SplitSummaryTitle(text string, defaultTitle string) (title string, body string) {
	m := summaryTitleRe.FindStringSubmatch(text)
	if m == nil {
		return defaultTitle, text
	}
	title = strings.TrimSpace(m[1])
	body = strings.TrimSpace(summaryTitleStripRe.ReplaceAllString(text, ""))
	if title == "" {
		title = defaultTitle
	}
	return title, body
}
