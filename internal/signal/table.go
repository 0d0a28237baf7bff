// Package signal loads the signal (command) table and matches transcripts against it.
package signal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rbright/hark/internal/action"
)

// Position controls where a trigger must appear in the transcript.
type Position string

const (
	PositionStart    Position = "start"
	PositionEnd      Position = "end"
	PositionExact    Position = "exact"
	PositionAnywhere Position = "anywhere"
)

// Config is one validated signal entry.
type Config struct {
	Name           string
	Triggers       []string
	Position       Position
	OverlayMessage string
	Actions        []action.Action
	Template       string
	ModelOverride  string

	phrases [][]string
}

// ActionSignal returns the fields actions read from the signal.
func (c *Config) ActionSignal() action.Signal {
	return action.Signal{Name: c.Name, Template: c.Template, ModelOverride: c.ModelOverride}
}

// Table is an immutable, ordered signal set with lookup by name.
type Table struct {
	ordered []*Config
	byName  map[string]*Config
}

// Warning is a non-fatal problem found while loading.
type Warning struct {
	Signal  string
	Message string
}

func (w Warning) String() string {
	if w.Signal == "" {
		return w.Message
	}
	return fmt.Sprintf("signal %q: %s", w.Signal, w.Message)
}

// Empty returns a table with no signals.
func Empty() *Table {
	return &Table{byName: map[string]*Config{}}
}

// Len returns the number of signals.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ordered)
}

// Lookup finds a signal by name.
func (t *Table) Lookup(name string) (*Config, bool) {
	if t == nil {
		return nil, false
	}
	c, ok := t.byName[name]
	return c, ok
}

// Signals returns the entries in file order.
func (t *Table) Signals() []*Config {
	if t == nil {
		return nil
	}
	return append([]*Config(nil), t.ordered...)
}

type fileSchema struct {
	Signals []entrySchema `yaml:"signals"`
}

type entrySchema struct {
	Name             string     `yaml:"name"`
	Trigger          stringList `yaml:"trigger"`
	SignalPhrase     stringList `yaml:"signal_phrase"`
	MatchPosition    string     `yaml:"match_position"`
	OverlayMessage   string     `yaml:"overlay_message"`
	Action           stringList `yaml:"action"`
	Template         string     `yaml:"template"`
	LLMModelOverride string     `yaml:"llm_model_override"`
}

// stringList accepts either a scalar or a sequence of scalars.
type stringList []string

func (s *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*s = nil
			return nil
		}
		*s = stringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*s = items
		return nil
	default:
		return fmt.Errorf("line %d: expected string or list of strings", node.Line)
	}
}

// LoadFile reads and parses a YAML signal table.
func LoadFile(path string) (*Table, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read signal table: %w", err)
	}
	table, warnings, err := Parse(data)
	if err != nil {
		return nil, warnings, fmt.Errorf("parse signal table %s: %w", path, err)
	}
	return table, warnings, nil
}

// Parse validates a YAML signal table. Invalid actions are dropped with a
// warning; duplicate or empty names and bad positions fail the whole table.
func Parse(data []byte) (*Table, []Warning, error) {
	var file fileSchema
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}

	table := &Table{
		ordered: make([]*Config, 0, len(file.Signals)),
		byName:  make(map[string]*Config, len(file.Signals)),
	}
	var warnings []Warning

	for i, entry := range file.Signals {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, warnings, fmt.Errorf("signals[%d]: name must not be empty", i)
		}
		if _, dup := table.byName[name]; dup {
			return nil, warnings, fmt.Errorf("signals[%d]: duplicate signal name %q", i, name)
		}

		position, err := parsePosition(entry.MatchPosition)
		if err != nil {
			return nil, warnings, fmt.Errorf("signal %q: %w", name, err)
		}

		cfg := &Config{
			Name:           name,
			Position:       position,
			OverlayMessage: strings.TrimSpace(entry.OverlayMessage),
			Template:       entry.Template,
			ModelOverride:  strings.TrimSpace(entry.LLMModelOverride),
		}

		for _, trigger := range append(append(stringList{}, entry.Trigger...), entry.SignalPhrase...) {
			tokens := tokenize(trigger)
			if len(tokens) == 0 {
				continue
			}
			cfg.Triggers = append(cfg.Triggers, strings.TrimSpace(trigger))
			cfg.phrases = append(cfg.phrases, tokenWords(tokens))
		}

		actions, errs := action.ParseList(entry.Action)
		for _, err := range errs {
			warnings = append(warnings, Warning{Signal: name, Message: "dropped action: " + err.Error()})
		}
		cfg.Actions = actions

		table.ordered = append(table.ordered, cfg)
		table.byName[name] = cfg
	}
	return table, warnings, nil
}

func parsePosition(raw string) (Position, error) {
	switch Position(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PositionStart:
		return PositionStart, nil
	case PositionEnd:
		return PositionEnd, nil
	case PositionExact:
		return PositionExact, nil
	case PositionAnywhere:
		return PositionAnywhere, nil
	default:
		return "", fmt.Errorf("match_position %q must be one of start, end, exact, anywhere", raw)
	}
}
