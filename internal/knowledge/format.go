package knowledge

import (
	"regexp"
	"strings"
)

const (
	maxBullets      = 6
	maxBulletWords  = 22
	maxSections     = 3
	sectionPreview  = 100
	maxSnippetChars = 1200

	NotFound = "Policy not found — consult HR."
)

var (
	bracketRe  = regexp.MustCompile(`\[.*?\]`)
	sourceRe   = regexp.MustCompile(`(?i)\(source[:\s]?[^)]*\)`)
	urlRe      = regexp.MustCompile(`https?://\S+`)
	blankRunRe = regexp.MustCompile(`\n\s*\n+`)
	spaceRunRe = regexp.MustCompile(`[ \t]{2,}`)
	leadMarkRe = regexp.MustCompile(`^[-*.\s\x{2022}\x{2023}\x{25E6}\x{2219}\x{2043}\x{2013}\x{2014}]+`)
	sentenceRe = regexp.MustCompile(`[.!?]\s+`)
)

// cleanText drops citations, urls and extra whitespace from a model reply.
func cleanText(s string) string {
	s = bracketRe.ReplaceAllString(s, "")
	s = sourceRe.ReplaceAllString(s, "")
	s = urlRe.ReplaceAllString(s, "")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	s = spaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// formatBullets normalizes free text into at most six "• " bullets of at
// most 22 words each.
func formatBullets(text string) string {
	if strings.TrimSpace(text) == "" {
		return "• " + NotFound
	}

	var items []string
	for _, ln := range strings.Split(text, "\n") {
		ln = leadMarkRe.ReplaceAllString(strings.TrimSpace(ln), "")
		if ln != "" {
			items = append(items, ln)
		}
		if len(items) >= maxBullets {
			break
		}
	}
	if len(items) == 0 {
		items = sentences(text)
	}
	if len(items) > maxBullets {
		items = items[:maxBullets]
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		words := strings.Fields(it)
		line := strings.Join(words, " ")
		if len(words) > maxBulletWords {
			line = strings.Join(words[:maxBulletWords], " ") + "…"
		}
		out = append(out, "• "+line)
	}
	return strings.Join(out, "\n")
}

func sentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[last : loc[0]+1]); s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	if s := strings.TrimSpace(text[last:]); s != "" {
		out = append(out, s)
	}
	return out
}

// sections previews the first few snippets the answer was built from.
func sections(snippets []string) []string {
	var out []string
	for _, s := range snippets {
		if len(out) == maxSections {
			break
		}
		s = strings.Join(strings.Fields(s), " ")
		if r := []rune(s); len(r) > sectionPreview {
			s = string(r[:sectionPreview]) + "..."
		}
		out = append(out, s)
	}
	return out
}

func policyContext(snippets []string) string {
	parts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if r := []rune(s); len(r) > maxSnippetChars {
			s = string(r[:maxSnippetChars])
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n\n")
}
