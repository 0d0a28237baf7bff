// Package output applies delivery side effects: clipboard, paste, shell commands, and speech.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/hypr"
)

// Deliverer places final utterance text where the user is typing.
type Deliverer struct {
	clipboard *Clipboard
	paste     config.PasteConfig
	pasteArgv []string
	hypr      hypr.Ctl
	logger    *slog.Logger
}

// NewDeliverer builds a Deliverer from runtime config.
func NewDeliverer(cfg config.Config, logger *slog.Logger) *Deliverer {
	return &Deliverer{
		clipboard: NewClipboard(cfg),
		paste:     cfg.Paste,
		pasteArgv: cfg.PasteCmd.Argv,
		logger:    logger,
	}
}

// Deliver sets the clipboard and, when enabled, pastes into the focused window.
// A paste failure is logged; the clipboard stays set.
func (d *Deliverer) Deliver(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	setCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := d.clipboard.Set(setCtx, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	if !d.paste.Enable {
		return nil
	}

	if len(d.pasteArgv) > 0 {
		pasteCtx, pasteCancel := context.WithTimeout(ctx, 2*time.Second)
		defer pasteCancel()
		if _, err := runCommand(pasteCtx, d.pasteArgv, ""); err != nil {
			d.logPasteFailure(err)
		}
		return nil
	}

	pasteCtx, pasteCancel := context.WithTimeout(ctx, 1200*time.Millisecond)
	defer pasteCancel()
	if err := hyprPaste(pasteCtx, d.hypr, d.paste.Shortcut); err != nil {
		d.logPasteFailure(err)
	}
	return nil
}

func (d *Deliverer) logPasteFailure(err error) {
	if d.logger == nil || err == nil {
		return
	}
	d.logger.Error("paste dispatch failed; clipboard remains set", "error", err.Error())
}
