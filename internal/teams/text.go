// ABOUTME: Converts Teams message markup into plain query text
// ABOUTME: Removes the bot's own <at> mention and flattens HTML with goquery
package teams

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CleanText strips HTML formatting and the bot's mention from a Teams message.
// Other mentions keep their display names.
func CleanText(raw, botName string) string {
	if !strings.Contains(raw, "<") {
		return normalizeLines(html.UnescapeString(raw))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return normalizeLines(raw)
	}

	doc.Find("at").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Text())
		if botName == "" || strings.EqualFold(name, strings.TrimSpace(botName)) {
			s.Remove()
		}
	})
	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml("\n")
	})
	doc.Find("p, div, li").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return normalizeLines(doc.Text())
}

// normalizeLines collapses whitespace inside lines and drops blank lines
func normalizeLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
