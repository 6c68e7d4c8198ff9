package lattice

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxTitleRunes caps the derived display title; longer titles are truncated
// with an ellipsis.
const maxTitleRunes = 30

var (
	mdImage   = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdLink    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdMarker  = regexp.MustCompile("[*_~`]+")
	mdListNum = regexp.MustCompile(`^\d+[.)]\s+`)
)

// DisplayTitle derives the title shown for a content node: the explicit
// alias when set, otherwise the first non-empty body line with markdown
// markup stripped, otherwise "Node {id}". The result is truncated to 30
// runes with an ellipsis.
func DisplayTitle(n ContentNode) string {
	if t := strings.TrimSpace(n.Alias); t != "" {
		return truncateTitle(t)
	}
	for _, line := range strings.Split(n.Body, "\n") {
		if t := stripMarkdown(line); t != "" {
			return truncateTitle(t)
		}
	}
	return truncateTitle("Node " + n.ID)
}

// stripMarkdown removes the inline and line-leading markdown markup that
// commonly decorates a first line: headings, list markers, blockquotes,
// emphasis, inline code, links, and images.
func stripMarkdown(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "#")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "> ")
	for _, marker := range []string{"- ", "+ ", "* "} {
		if rest, ok := strings.CutPrefix(s, marker); ok {
			s = rest
			break
		}
	}
	s = mdListNum.ReplaceAllString(s, "")
	s = mdImage.ReplaceAllString(s, "$1")
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdMarker.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// truncateTitle limits s to maxTitleRunes runes, appending an ellipsis when
// anything was cut.
func truncateTitle(s string) string {
	if utf8.RuneCountInString(s) <= maxTitleRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxTitleRunes]) + "…"
}
