package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/hark/internal/segment"
	"github.com/rbright/hark/internal/stt"
)

// dump writes seg as a WAV file when debug.audio_dump is enabled.
func (r *Recorder) dump(seg segment.Segment) {
	if !r.cfg.Debug.EnableAudioDump || seg.Empty() {
		return
	}
	path, err := writeDebugWAV(seg.PCM)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("unable to write debug audio dump", "error", err.Error())
		}
		return
	}
	if r.logger != nil {
		r.logger.Debug("debug audio dump written", "path", path, "duration_ms", seg.Duration.Milliseconds())
	}
}

func writeDebugWAV(pcm []byte) (string, error) {
	dir, err := debugDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create debug dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("segment-%s.wav", time.Now().Format("20060102-150405.000")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("open debug file %q: %w", path, err)
	}
	defer file.Close()

	if err := stt.EncodeWAV(file, pcm); err != nil {
		return "", err
	}
	return path, nil
}

// debugDir resolves $XDG_STATE_HOME/hark/debug.
func debugDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "hark", "debug"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state", "hark", "debug"), nil
}
