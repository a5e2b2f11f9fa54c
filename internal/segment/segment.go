// Package segment splits raw document text into bounded, paragraph-aligned
// sections sized to fit a single model call.
package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxChars keeps a section plus prompt scaffolding inside the
	// model context used by the extractor.
	DefaultMaxChars = 2750

	// minSectionChars drops fragments too short to carry a proposal
	// (page numbers, running heads, table scraps).
	minSectionChars = 100
)

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Split divides text on blank-line paragraph boundaries and accumulates
// paragraphs into sections of at most maxChars. A paragraph is never split in
// half, so a single paragraph longer than maxChars becomes a section on its
// own. Sections whose trimmed length is at or below the noise threshold are
// discarded. Output order matches input order and the result is deterministic.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	var paragraphs []string
	for _, p := range paragraphBreak.Split(text, -1) {
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, strings.TrimSpace(p))
		}
	}

	// Lengths are counted in runes so accented text gets the same budget
	// as plain ASCII.
	var sections []string
	var current strings.Builder
	runes := 0
	for _, p := range paragraphs {
		n := utf8.RuneCountInString(p)
		// +2 accounts for the paragraph break re-inserted between them.
		if runes > 0 && runes+n+2 > maxChars {
			sections = append(sections, current.String())
			current.Reset()
			runes = 0
		}
		if runes > 0 {
			current.WriteString("\n\n")
			runes += 2
		}
		current.WriteString(p)
		runes += n
	}
	if strings.TrimSpace(current.String()) != "" {
		sections = append(sections, current.String())
	}

	out := sections[:0]
	for _, s := range sections {
		if utf8.RuneCountInString(strings.TrimSpace(s)) > minSectionChars {
			out = append(out, s)
		}
	}
	return out
}
