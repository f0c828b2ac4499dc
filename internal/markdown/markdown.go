// Package markdown assembles fetched pages into note documents and derives
// document titles.
package markdown

import (
	"regexp"
	"strings"
)

// MaxTitleLength is the longest document name, in characters.
const MaxTitleLength = 120

// UntitledName replaces blank titles.
const UntitledName = "Untitled"

var (
	unsafeTitleChars = strings.NewReplacer(
		`\`, "-", "/", "-", ":", "-", "*", "-", "?", "-",
		`"`, "-", "<", "-", ">", "-", "|", "-",
	)
	headingPrefix = regexp.MustCompile(`^#+\s*`)
	listLike      = regexp.MustCompile(`^(?:[-*>]|\d+\.)\s`)
)

// Build renders a note: a level-1 heading, a source attribution line and the
// trimmed body. The heading falls back to sourceURL when title is empty, and
// the body paragraph is omitted when blank.
func Build(title, sourceURL, body, sourceLabel string) string {
	heading := title
	if heading == "" {
		heading = sourceURL
	}

	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(heading)
	b.WriteString("\n\n")
	b.WriteString(sourceLabel)
	b.WriteString(": ")
	b.WriteString(sourceURL)
	if trimmed := strings.TrimSpace(body); trimmed != "" {
		b.WriteString("\n\n")
		b.WriteString(trimmed)
	}
	b.WriteString("\n")
	return b.String()
}

// SanitizeTitle makes title safe for use as a document path segment.
func SanitizeTitle(title string) string {
	name := strings.TrimSpace(title)
	if name == "" {
		name = UntitledName
	}
	name = unsafeTitleChars.Replace(name)

	runes := []rune(name)
	if len(runes) > MaxTitleLength {
		name = string(runes[:MaxTitleLength])
	}
	return name
}

// ExtractTitle returns the first ATX heading or setext-underlined line of md,
// or "" when there is none.
func ExtractTitle(md string) string {
	lines := strings.Split(md, "\n")
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if cleaned := strings.TrimSpace(headingPrefix.ReplaceAllString(line, "")); cleaned != "" {
				return cleaned
			}
		}
		if i+1 < len(lines) && isUnderline(strings.TrimSpace(lines[i+1])) && !listLike.MatchString(line) {
			return line
		}
	}
	return ""
}

func isUnderline(line string) bool {
	if line == "" {
		return false
	}
	return strings.Trim(line, "=") == "" || strings.Trim(line, "-") == ""
}
