package output

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/rbright/hark/internal/config"
)

// Clipboard reads and writes the system clipboard through configured
// commands, falling back to the platform clipboard tools.
type Clipboard struct {
	setArgv []string
	getArgv []string

	readAll  func() (string, error)
	writeAll func(string) error
}

// NewClipboard builds a Clipboard from clipboard_cmd and clipboard_get_cmd.
func NewClipboard(cfg config.Config) *Clipboard {
	return &Clipboard{
		setArgv:  cfg.Clipboard.Argv,
		getArgv:  cfg.ClipboardGet.Argv,
		readAll:  clipboard.ReadAll,
		writeAll: clipboard.WriteAll,
	}
}

// Set replaces the clipboard content.
func (c *Clipboard) Set(ctx context.Context, text string) error {
	if len(c.setArgv) == 0 {
		return c.writeAll(text)
	}
	_, err := runCommand(ctx, c.setArgv, text)
	return err
}

// Get returns the clipboard content with one trailing newline removed.
func (c *Clipboard) Get(ctx context.Context) (string, error) {
	if len(c.getArgv) == 0 {
		return c.readAll()
	}
	out, err := runCommand(ctx, c.getArgv, "")
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(out, "\n"), nil
}
