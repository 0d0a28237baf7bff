// Package transcript normalizes recognized text before signal matching and delivery.
package transcript

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultFilterPhrases are common speech-engine hallucinations on silence.
var DefaultFilterPhrases = []string{
	"thanks for watching",
	"thank for watching",
	"thank you",
	"you",
}

const trailingPunct = `[.!?,;:…\s]*`

// Cleaner strips configured filter phrases and collapses whitespace.
type Cleaner struct {
	patterns []*regexp.Regexp
}

// NewCleaner compiles whole-word, case-insensitive matchers for each phrase.
func NewCleaner(phrases []string) (*Cleaner, error) {
	c := &Cleaner{}
	for _, phrase := range phrases {
		words := strings.Fields(phrase)
		if len(words) == 0 {
			continue
		}
		quoted := make([]string, 0, len(words))
		for _, w := range words {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
		expr := `(?i)\b` + strings.Join(quoted, `\s+`) + `\b` + trailingPunct
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile filter phrase %q: %w", phrase, err)
		}
		c.patterns = append(c.patterns, re)
	}
	return c, nil
}

// MustCleaner is NewCleaner for static phrase lists.
func MustCleaner(phrases []string) *Cleaner {
	c, err := NewCleaner(phrases)
	if err != nil {
		panic(err)
	}
	return c
}

// Clean removes filter phrases until none remain, so Clean(Clean(x)) == Clean(x).
func (c *Cleaner) Clean(text string) string {
	current := Normalize(text)
	if c == nil {
		return current
	}
	for {
		next := current
		for _, re := range c.patterns {
			next = re.ReplaceAllString(next, "")
		}
		next = Normalize(next)
		if next == current {
			return current
		}
		current = next
	}
}

// Normalize trims and collapses runs of whitespace to single spaces.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
