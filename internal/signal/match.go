package signal

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const edgePunct = ",.?!;: "

type token struct {
	word  string
	start int
	end   int
}

// tokenize splits on whitespace and lowercases each word with punctuation removed.
// Words that are pure punctuation are dropped.
func tokenize(text string) []token {
	var tokens []token
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}
		start := i
		for i < len(text) {
			r, size = utf8.DecodeRuneInString(text[i:])
			if unicode.IsSpace(r) {
				break
			}
			i += size
		}
		word := normalizeWord(text[start:i])
		if word != "" {
			tokens = append(tokens, token{word: word, start: start, end: i})
		}
	}
	return tokens
}

func normalizeWord(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func tokenWords(tokens []token) []string {
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.word
	}
	return words
}

// Match is the winning signal and the text left after removing its trigger.
type Match struct {
	Config    *Config
	Trigger   string
	Remaining string
}

type candidate struct {
	cfg       *Config
	trigger   int
	words     int
	chars     int
	remaining string
}

func (c candidate) beats(o candidate) bool {
	if c.words != o.words {
		return c.words > o.words
	}
	return c.chars > o.chars
}

// Match finds the signal whose trigger covers the most words of text.
// Ties on word count go to the longer trigger, then to the earlier entry.
// With no match it returns ok=false and the caller keeps the original text.
func (t *Table) Match(text string) (Match, bool) {
	if t == nil || len(t.ordered) == 0 {
		return Match{}, false
	}
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Match{}, false
	}

	var best candidate
	found := false
	for _, cfg := range t.ordered {
		for i, phrase := range cfg.phrases {
			remaining, ok := matchPhrase(text, tokens, phrase, cfg.Position)
			if !ok {
				continue
			}
			c := candidate{
				cfg:       cfg,
				trigger:   i,
				words:     len(phrase),
				chars:     len(strings.Join(phrase, " ")),
				remaining: remaining,
			}
			if !found || c.beats(best) {
				best = c
				found = true
			}
		}
	}
	if !found {
		return Match{}, false
	}
	return Match{
		Config:    best.cfg,
		Trigger:   best.cfg.Triggers[best.trigger],
		Remaining: best.remaining,
	}, true
}

func matchPhrase(text string, tokens []token, phrase []string, pos Position) (string, bool) {
	n := len(phrase)
	if n == 0 || n > len(tokens) {
		return "", false
	}

	switch pos {
	case PositionEnd:
		at := len(tokens) - n
		if !wordsEqual(tokens[at:], phrase) {
			return "", false
		}
		rest := strings.TrimRight(text[:tokens[at].start], edgePunct)
		return strings.TrimSpace(rest), true
	case PositionExact:
		if len(tokens) != n || !wordsEqual(tokens, phrase) {
			return "", false
		}
		return "", true
	case PositionAnywhere:
		for at := 0; at+n <= len(tokens); at++ {
			if wordsEqual(tokens[at:at+n], phrase) {
				return strings.TrimSpace(text), true
			}
		}
		return "", false
	default:
		if !wordsEqual(tokens[:n], phrase) {
			return "", false
		}
		rest := strings.TrimLeft(text[tokens[n-1].end:], edgePunct)
		return strings.TrimSpace(rest), true
	}
}

func wordsEqual(tokens []token, phrase []string) bool {
	for i, word := range phrase {
		if tokens[i].word != word {
			return false
		}
	}
	return true
}
