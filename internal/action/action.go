// Package action decodes signal actions and executes them against one utterance.
package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/rbright/hark/internal/ner"
	"github.com/rbright/hark/internal/state"
)

// ErrUnknownAction is returned for an action type outside the closed set.
var ErrUnknownAction = errors.New("unknown action")

// Action is one decoded step of a signal's action list.
// The set of implementations is closed to this package.
type Action interface {
	Kind() string
	isAction()
}

// SetMode switches the processing mode for the next resolution.
type SetMode struct{ Mode state.Mode }

// SetHint switches the STT language hint.
type SetHint struct{ Hint string }

// CallLLM sends the rendered template (or remaining text) to the LLM.
type CallLLM struct{ Model string }

// RenderTemplate delivers the signal template with {text} and {clipboard} filled.
type RenderTemplate struct{}

// ExtractEntities runs NER on the rendered template or the clipboard snapshot.
type ExtractEntities struct {
	// FromSpeech takes the entity types from the remaining spoken text.
	FromSpeech bool
	Types      string
	Threshold  float64
}

// RunShell runs a command and delivers its trimmed stdout.
type RunShell struct{ Argv []string }

// Speak pipes the remaining text to the speech command.
type Speak struct{ Lang string }

// Noop does nothing.
type Noop struct{}

func (SetMode) Kind() string         { return "mode" }
func (SetHint) Kind() string         { return "language" }
func (CallLLM) Kind() string         { return "llm" }
func (RenderTemplate) Kind() string  { return "process_template" }
func (ExtractEntities) Kind() string { return "ner_extract" }
func (RunShell) Kind() string        { return "shell" }
func (Speak) Kind() string           { return "speak" }
func (Noop) Kind() string            { return "noop" }

func (SetMode) isAction()         {}
func (SetHint) isAction()         {}
func (CallLLM) isAction()         {}
func (RenderTemplate) isAction()  {}
func (ExtractEntities) isAction() {}
func (RunShell) isAction()        {}
func (Speak) isAction()           {}
func (Noop) isAction()            {}

// Parse decodes "type", "type:value", or "type:key=value,key=value".
//
// Inside a parameter list an item without "=" continues the previous value,
// so "types=person,city,threshold=0.4" keeps both types.
func Parse(raw string) (Action, error) {
	kind, value, hasValue := strings.Cut(strings.TrimSpace(raw), ":")
	kind = strings.ToLower(strings.TrimSpace(kind))
	value = strings.TrimSpace(value)
	if kind == "" {
		return nil, fmt.Errorf("%w: empty action type in %q", ErrUnknownAction, raw)
	}

	// Shell command lines keep "=" and "," verbatim.
	if kind == "shell" {
		if value == "" {
			return nil, fmt.Errorf("shell action requires a command")
		}
		argv, err := shellwords.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("parse shell action %q: %w", value, err)
		}
		if len(argv) == 0 {
			return nil, fmt.Errorf("shell action requires a command")
		}
		return RunShell{Argv: argv}, nil
	}

	var params map[string]string
	if hasValue && strings.Contains(value, "=") {
		params = parseParams(value)
		value = ""
	}

	switch kind {
	case "mode":
		if value == "" {
			return nil, fmt.Errorf("mode action requires a value (mode:llm)")
		}
		return SetMode{Mode: state.Mode(value)}, nil
	case "language", "stt_language":
		if value == "" {
			return nil, fmt.Errorf("language action requires a value (language:de-DE)")
		}
		return SetHint{Hint: value}, nil
	case "llm":
		model := value
		if m, ok := params["model"]; ok {
			model = m
		}
		return CallLLM{Model: model}, nil
	case "process_template", "template":
		return RenderTemplate{}, nil
	case "ner_extract", "ner":
		return parseNER(params)
	case "speak", "tts":
		lang := value
		if l, ok := params["lang"]; ok {
			lang = l
		}
		return Speak{Lang: lang}, nil
	case "noop":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownAction, kind)
	}
}

// ParseList decodes every entry, returning the valid actions and one error per rejected entry.
func ParseList(raws []string) ([]Action, []error) {
	actions := make([]Action, 0, len(raws))
	var errs []error
	for _, raw := range raws {
		a, err := Parse(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		actions = append(actions, a)
	}
	return actions, errs
}

func parseNER(params map[string]string) (Action, error) {
	a := ExtractEntities{Threshold: ner.DefaultThreshold}
	switch {
	case strings.EqualFold(params["types_source"], "spoken"):
		a.FromSpeech = true
	case strings.TrimSpace(params["types"]) != "":
		a.Types = strings.TrimSpace(params["types"])
	default:
		return nil, fmt.Errorf("ner_extract requires types_source=spoken or types=...")
	}
	if raw, ok := params["threshold"]; ok {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold < 0 || threshold > 1 {
			return nil, fmt.Errorf("ner_extract threshold %q must be a number in [0,1]", raw)
		}
		a.Threshold = threshold
	}
	return a, nil
}

func parseParams(value string) map[string]string {
	params := map[string]string{}
	last := ""
	for _, item := range strings.Split(value, ",") {
		key, val, ok := strings.Cut(item, "=")
		if !ok {
			if last != "" && strings.TrimSpace(item) != "" {
				params[last] += "," + strings.TrimSpace(item)
			}
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		params[key] = strings.TrimSpace(val)
		last = key
	}
	return params
}
