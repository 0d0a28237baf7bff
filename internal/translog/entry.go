// Package translog records processed utterances for history and word statistics.
package translog

import (
	"context"
	"strings"
	"time"
)

// Entry is one processed utterance.
type Entry struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Signal    string    `json:"signal,omitempty"`
	Mode      string    `json:"mode"`
	Hint      string    `json:"hint"`
	Delivered bool      `json:"delivered"`
}

// Words counts whitespace-separated words in the entry text.
func (e Entry) Words() int {
	return len(strings.Fields(e.Text))
}

// Sink receives entries. Implementations may block; Writer keeps them off the pipeline.
type Sink interface {
	Append(ctx context.Context, e Entry) error
}
