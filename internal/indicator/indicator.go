// Package indicator shows pipeline state through Hyprland or desktop
// notifications and plays short audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/hypr"
	"github.com/rbright/hark/internal/state"
)

const (
	colorRecording  = "rgb(89b4fa)"
	colorProcessing = "rgb(cba6f7)"
	colorMessage    = "rgb(a6e3a1)"
	colorError      = "rgb(f38ba8)"

	stickyTimeoutMS = 300000
)

// Notify routes indicator output to the configured backend.
type Notify struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages
	play     func(ctx context.Context, kind cueKind) error
	hypr     hypr.Ctl

	mu        sync.Mutex
	desktopID uint32
	soundMu   sync.Mutex
}

// New creates an indicator from config. Labels follow $LANG.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Notify {
	n := &Notify{
		cfg:      cfg,
		logger:   logger,
		messages: messagesFromEnv(),
	}
	n.play = func(ctx context.Context, kind cueKind) error {
		return emitCue(ctx, kind, n.cfg)
	}
	return n
}

// ShowRecording signals capture start. Non-default modes and hints are
// appended to the label.
func (n *Notify) ShowRecording(ctx context.Context, st state.State) {
	n.playCue(cueStart)
	if !n.cfg.Enable {
		return
	}
	text := recordingLabel(n.messages.recording, st)
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, hypr.IconInfo, stickyTimeoutMS, colorRecording, text)
	})
}

// ShowProcessing signals that captured audio is being transcribed.
func (n *Notify) ShowProcessing(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, hypr.IconInfo, stickyTimeoutMS, colorProcessing, n.messages.processing)
	})
}

// ShowMessage shows transient status text such as a signal overlay.
func (n *Notify) ShowMessage(ctx context.Context, text string) {
	if !n.cfg.Enable || strings.TrimSpace(text) == "" {
		return
	}
	timeout := n.cfg.MessageTimeoutMS
	if timeout <= 0 {
		timeout = 1500
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, hypr.IconInfo, timeout, colorMessage, text)
	})
}

// ShowError displays an error message, or the localized default when text is empty.
func (n *Notify) ShowError(ctx context.Context, text string) {
	if !n.cfg.Enable {
		return
	}
	if text == "" {
		text = n.messages.errorText
	}
	timeout := n.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, hypr.IconError, timeout, colorError, text)
	})
}

func (n *Notify) CueStop(context.Context)     { n.playCue(cueStop) }
func (n *Notify) CueComplete(context.Context) { n.playCue(cueComplete) }
func (n *Notify) CueCancel(context.Context)   { n.playCue(cueCancel) }

// Hide dismisses the active indicator surface.
func (n *Notify) Hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, n.dismiss)
}

func recordingLabel(base string, st state.State) string {
	var tags []string
	if st.Mode != "" && st.Mode != state.ModeNormal {
		tags = append(tags, string(st.Mode))
	}
	if st.Hint != "" {
		tags = append(tags, st.Hint)
	}
	if len(tags) == 0 {
		return base
	}
	return base + " [" + strings.Join(tags, " ") + "]"
}

func (n *Notify) desktop() bool {
	return strings.EqualFold(strings.TrimSpace(n.cfg.Backend), "desktop")
}

func (n *Notify) notify(ctx context.Context, icon hypr.Icon, timeoutMS int, color string, text string) error {
	if !n.desktop() {
		return n.hypr.Notify(ctx, hypr.Notification{
			Icon:    icon,
			Timeout: time.Duration(timeoutMS) * time.Millisecond,
			Color:   color,
			Text:    text,
		})
	}

	n.mu.Lock()
	replaceID := n.desktopID
	n.mu.Unlock()

	appName := strings.TrimSpace(n.cfg.DesktopAppName)
	if appName == "" {
		appName = "hark"
	}
	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.desktopID = id
	n.mu.Unlock()
	return nil
}

func (n *Notify) dismiss(ctx context.Context) error {
	if !n.desktop() {
		return n.hypr.DismissNotify(ctx)
	}

	n.mu.Lock()
	id := n.desktopID
	n.desktopID = 0
	n.mu.Unlock()
	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run bounds one dispatch so a stuck compositor never stalls the pipeline.
func (n *Notify) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCue plays asynchronously; cues never overlap.
func (n *Notify) playCue(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	go func() {
		n.soundMu.Lock()
		defer n.soundMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		if err := n.play(ctx, kind); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

func (n *Notify) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}
