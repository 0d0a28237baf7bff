package output

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbright/hark/internal/hypr"
)

// hyprPaste sends the paste shortcut to the focused window. Focus can be
// briefly unset right after the clipboard changes, so the lookup retries.
func hyprPaste(ctx context.Context, ctl hypr.Ctl, shortcut string) error {
	window, err := activeWindow(ctx, ctl, 5, 10*time.Millisecond)
	if err != nil {
		return err
	}
	return ctl.SendShortcut(ctx, shortcut, window.Address)
}

func activeWindow(ctx context.Context, ctl hypr.Ctl, attempts int, delay time.Duration) (hypr.ActiveWindow, error) {
	lastErr := errors.New("active window unavailable")
	for i := range max(attempts, 1) {
		if i > 0 {
			select {
			case <-ctx.Done():
				return hypr.ActiveWindow{}, ctx.Err()
			case <-time.After(delay):
			}
		}
		window, err := ctl.ActiveWindow(ctx)
		if err == nil {
			return window, nil
		}
		if ctx.Err() != nil {
			return hypr.ActiveWindow{}, ctx.Err()
		}
		lastErr = err
	}
	return hypr.ActiveWindow{}, fmt.Errorf("resolve active window: %w", lastErr)
}
