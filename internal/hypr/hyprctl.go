// Package hypr drives Hyprland through hyprctl: notifications, shortcut
// dispatch for pasting, and focus queries.
package hypr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Icon selects the glyph of a Hyprland notification.
type Icon int

const (
	IconWarning Icon = iota
	IconInfo
	IconHint
	IconError
	IconConfused
	IconOK
)

// Notification is one `hyprctl dispatch notify` payload.
type Notification struct {
	Icon    Icon
	Timeout time.Duration
	// Color is an rgb(rrggbb) expression; empty uses the default blue.
	Color string
	Text  string
}

// ActiveWindow is the subset of `hyprctl -j activewindow` used for paste targeting.
type ActiveWindow struct {
	Address      string `json:"address"`
	Class        string `json:"class"`
	InitialClass string `json:"initialClass"`
}

// Ctl runs hyprctl. The zero value uses the binary found in PATH.
type Ctl struct {
	Bin string
}

func (c Ctl) bin() string {
	if c.Bin == "" {
		return "hyprctl"
	}
	return c.Bin
}

// Notify shows n on the focused monitor.
func (c Ctl) Notify(ctx context.Context, n Notification) error {
	color := strings.TrimSpace(n.Color)
	if color == "" {
		color = "rgb(89b4fa)"
	}
	_, err := c.run(ctx, "--quiet", "dispatch", "notify",
		strconv.Itoa(int(n.Icon)),
		strconv.FormatInt(n.Timeout.Milliseconds(), 10),
		color,
		n.Text,
	)
	return err
}

// DismissNotify clears every visible Hyprland notification.
func (c Ctl) DismissNotify(ctx context.Context) error {
	_, err := c.run(ctx, "--quiet", "dispatch", "dismissnotify")
	return err
}

// SendShortcut delivers keys such as "CTRL,V" to the window at address.
func (c Ctl) SendShortcut(ctx context.Context, keys string, address string) error {
	keys = strings.TrimSpace(keys)
	if keys == "" {
		return errors.New("shortcut keys cannot be empty")
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return errors.New("window address is required")
	}
	_, err := c.run(ctx, "--quiet", "dispatch", "sendshortcut", keys+",address:"+address)
	return err
}

// ActiveWindow returns the focused window. An empty address is an error.
func (c Ctl) ActiveWindow(ctx context.Context) (ActiveWindow, error) {
	var window ActiveWindow
	if err := c.query(ctx, "activewindow", &window); err != nil {
		return ActiveWindow{}, err
	}
	window.Address = strings.TrimSpace(window.Address)
	window.Class = strings.TrimSpace(window.Class)
	window.InitialClass = strings.TrimSpace(window.InitialClass)
	if window.Address == "" {
		return ActiveWindow{}, errors.New("hyprctl activewindow returned empty address")
	}
	return window, nil
}

func (c Ctl) query(ctx context.Context, target string, dst any) error {
	out, err := c.run(ctx, "-j", target)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out, dst); err != nil {
		return fmt.Errorf("decode hyprctl %s json: %w", target, err)
	}
	return nil
}

func (c Ctl) run(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, c.bin(), args...).CombinedOutput()
	if err != nil {
		if detail := strings.TrimSpace(string(out)); detail != "" {
			return nil, fmt.Errorf("hyprctl %s: %w (%s)", strings.Join(args, " "), err, detail)
		}
		return nil, fmt.Errorf("hyprctl %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}
