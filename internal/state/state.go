// Package state defines the cross-utterance processing mode and STT hint value state.
package state

import "strings"

// Mode selects the output transformation applied when no signal overrides it.
type Mode string

const (
	ModeNormal      Mode = "normal"
	ModeLLM         Mode = "llm"
	ModeSwissGerman Mode = "de-CH"
)

const modeSignalPrefix = "mode:"

// SignalName returns the signal table key that carries template/model for a templated mode.
func (m Mode) SignalName() string {
	return modeSignalPrefix + string(m)
}

// ModeForSignal returns the mode a "mode:<m>" signal name refers to.
func ModeForSignal(name string) (Mode, bool) {
	rest, ok := strings.CutPrefix(name, modeSignalPrefix)
	rest = strings.TrimSpace(rest)
	if !ok || rest == "" {
		return "", false
	}
	return Mode(rest), true
}

// State is the value carried from one utterance to the next.
type State struct {
	Mode Mode
	Hint string
}

// ResetPolicy reverts sticky one-shot modes and hints after an utterance completes.
type ResetPolicy struct {
	DefaultMode Mode
	DefaultHint string
	Modes       []Mode
	Hints       []string
}

// Apply returns s with any listed mode/hint reverted to the policy defaults.
func (p ResetPolicy) Apply(s State) State {
	for _, m := range p.Modes {
		if s.Mode == m && p.DefaultMode != "" {
			s.Mode = p.DefaultMode
			break
		}
	}
	for _, h := range p.Hints {
		if strings.EqualFold(s.Hint, h) {
			s.Hint = p.DefaultHint
			break
		}
	}
	return s
}
