// Package ner calls an external named-entity-recognition service and formats its results.
package ner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultThreshold is the confidence cutoff when a signal does not set one.
const DefaultThreshold = 0.5

// ErrNotConfigured is returned when no service URL is set.
var ErrNotConfigured = errors.New("ner service url not configured")

// Entity is one mention reported by the service.
type Entity struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Extractor finds entities of the comma-separated types in text.
type Extractor interface {
	Extract(ctx context.Context, text string, types string, threshold float64) ([]Entity, error)
}

// Client queries GET <url>?text=..&types=..&threshold=.. and expects a JSON array of entities.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient returns a client for the entity service at endpoint; timeout defaults to 10s.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: strings.TrimSpace(endpoint),
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *Client) Extract(ctx context.Context, text string, types string, threshold float64) ([]Entity, error) {
	if c == nil || c.endpoint == "" {
		return nil, ErrNotConfigured
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse ner url: %w", err)
	}
	q := u.Query()
	q.Set("text", text)
	q.Set("types", types)
	q.Set("threshold", strconv.FormatFloat(threshold, 'f', -1, 64))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build ner request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ner request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read ner response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("ner service returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var entities []Entity
	if err := json.Unmarshal(body, &entities); err != nil {
		return nil, fmt.Errorf("decode ner response: %w", err)
	}
	return entities, nil
}

// Grouped holds unique entity texts per label and mention counts across labels.
type Grouped struct {
	Labels map[string][]string
	Hits   map[string]int
}

// Empty reports whether no entity survived grouping.
func (g Grouped) Empty() bool {
	return len(g.Labels) == 0 && len(g.Hits) == 0
}

// Group collapses whitespace, drops blank mentions, and sorts each label's list.
func Group(entities []Entity) Grouped {
	g := Grouped{Labels: map[string][]string{}, Hits: map[string]int{}}
	seen := map[string]map[string]bool{}

	for _, e := range entities {
		label := strings.TrimSpace(e.Label)
		text := strings.Join(strings.Fields(e.Text), " ")
		if label == "" || text == "" {
			continue
		}
		g.Hits[text]++
		if seen[label] == nil {
			seen[label] = map[string]bool{}
		}
		if !seen[label][text] {
			seen[label][text] = true
			g.Labels[label] = append(g.Labels[label], text)
		}
	}
	for label := range g.Labels {
		sort.Strings(g.Labels[label])
	}
	return g
}

// Format renders g with label lists on one line each and an indented "hits" block last.
// Empty results render as "{}".
func Format(g Grouped) string {
	if g.Empty() {
		return "{}"
	}

	labels := make([]string, 0, len(g.Labels))
	for label := range g.Labels {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	parts := make([]string, 0, len(labels)+1)
	for _, label := range labels {
		values := g.Labels[label]
		if len(values) == 0 {
			continue
		}
		quoted := make([]string, 0, len(values))
		for _, v := range values {
			quoted = append(quoted, quote(v))
		}
		parts = append(parts, quote(label)+": ["+strings.Join(quoted, ", ")+"]")
	}

	if len(g.Hits) > 0 {
		keys := make([]string, 0, len(g.Hits))
		for k := range g.Hits {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, "    "+quote(k)+": "+strconv.Itoa(g.Hits[k]))
		}
		parts = append(parts, "\"hits\": {\n"+strings.Join(lines, ",\n")+"\n  }")
	}

	if len(parts) == 0 {
		return "{}"
	}
	return "{\n  " + strings.Join(parts, ",\n  ") + "\n}"
}

func quote(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}
