package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPath(t *testing.T) {
	tests := []struct {
		name  string
		state string
		want  func(home string) string
	}{
		{
			name:  "xdg state home",
			state: "/tmp/xdg-state",
			want:  func(string) string { return "/tmp/xdg-state/hark/log.jsonl" },
		},
		{
			name: "home fallback",
			want: func(home string) string { return filepath.Join(home, ".local", "state", "hark", "log.jsonl") },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			home := t.TempDir()
			t.Setenv("HOME", home)
			t.Setenv("XDG_STATE_HOME", tc.state)

			path, err := DefaultPath()
			require.NoError(t, err)
			require.Equal(t, tc.want(home), path)
		})
	}
}

func TestOpenWritesJSONLinesAndHonorsVerbose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "log.jsonl")
	rt, err := Open(path)
	require.NoError(t, err)

	rt.Logger.Debug("hidden-debug")
	rt.SetVerbose(true)
	rt.Logger.Debug("shown-debug", "utterance_id", "u-1")
	rt.SetVerbose(false)
	rt.Logger.Debug("hidden-again")
	require.NoError(t, rt.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(contents)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "shown-debug", entry["msg"])
	require.Equal(t, "u-1", entry["utterance_id"])
	require.EqualValues(t, os.Getpid(), entry["pid"])

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestOpenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	for _, msg := range []string{"first", "second"} {
		rt, err := Open(path)
		require.NoError(t, err)
		rt.Logger.Info(msg)
		require.NoError(t, rt.Close())
	}

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(string(contents), "\n"))
}

func TestDiscardRuntimeIsSafe(t *testing.T) {
	rt := Discard()
	require.NotPanics(t, func() {
		rt.SetVerbose(true)
		rt.Logger.Info("dropped")
	})
	require.NoError(t, rt.Close())
}
