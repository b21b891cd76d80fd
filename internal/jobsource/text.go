package jobsource

import (
	"regexp"
	"strings"
)

var (
	innerSpace  = regexp.MustCompile(`[ \t\x{00a0}]+`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
	bulletStart = regexp.MustCompile(`^(?:[-*•·▪◦]|\d+[.)])(?:\s+|$)`)
)

// CleanText normalizes line endings and spacing while keeping the line
// structure: headings and bullets stay on their own lines, runs of blank
// lines collapse to one.
func CleanText(content string) string {
	if content == "" {
		return ""
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(innerSpace.ReplaceAllString(line, " "))
		if m := bulletStart.FindString(line); m != "" {
			line = "- " + strings.TrimSpace(line[len(m):])
			if line == "- " {
				line = ""
			}
		}
		cleaned = append(cleaned, line)
	}

	out := strings.Join(cleaned, "\n")
	out = blankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// isBullet reports whether a cleaned line is a list item.
func isBullet(line string) bool {
	return strings.HasPrefix(line, "- ")
}
