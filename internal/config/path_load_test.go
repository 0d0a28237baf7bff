package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func TestResolvePathPrecedence(t *testing.T) {
	explicit := "/tmp/custom.jsonc"
	resolved, err := ResolvePath(explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, resolved)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "hark", "config.jsonc"), resolved)

	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "hark", "config.jsonc"), resolved)
}

func TestSignalsPathResolution(t *testing.T) {
	cfg := Default()
	require.Equal(t, "/etc/hark/signals.yaml", SignalsPath("/etc/hark/config.jsonc", cfg))

	cfg.Signals.Path = "sig/custom.yaml"
	require.Equal(t, "/etc/hark/sig/custom.yaml", SignalsPath("/etc/hark/config.jsonc", cfg))

	cfg.Signals.Path = "/opt/signals.yaml"
	require.Equal(t, "/opt/signals.yaml", SignalsPath("/etc/hark/config.jsonc", cfg))
}

func TestTranslogPathDefaultsToDataHome(t *testing.T) {
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)

	got, err := TranslogPath(Default())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(data, "hark", "history.db"), got)

	cfg := Default()
	cfg.Translog.Path = "/var/tmp/h.db"
	got, err = TranslogPath(cfg)
	require.NoError(t, err)
	require.Equal(t, "/var/tmp/h.db", got)
}

func TestLoadMissingConfigUsesDefaultsWithWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.jsonc")

	loaded, err := load(path, noEnv)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
	require.Equal(t, filepath.Join(filepath.Dir(path), "signals.yaml"), loaded.SignalsPath)
}

func TestLoadExistingJSONC(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	contents := `
{
  // hands-free dictation with a local whisper build
  "stt": { "command": "whisper-cli -l {language} -f {audio}" },
  "paste": { "enable": false },
}
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	loaded, err := load(path, noEnv)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.False(t, loaded.Config.Paste.Enable)
	require.Equal(t, "whisper-cli -l {language} -f {audio}", loaded.Config.STT.Command)
}

func TestLoadInvalidConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"stt": {"engine": "nope"}}`), 0o600))

	_, err := load(path, noEnv)
	require.ErrorContains(t, err, "stt.engine")
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"llm": {"model": "from-file"}}`), 0o600))

	env := map[string]string{
		EnvLLMModel:      "from-env",
		EnvSTTEngine:     "openai",
		EnvMetricsListen: "127.0.0.1:9999",
	}
	loaded, err := load(path, func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	require.NoError(t, err)
	require.Equal(t, "from-env", loaded.Config.LLM.Model)
	require.Equal(t, "openai", loaded.Config.STT.Engine)
	require.Equal(t, "127.0.0.1:9999", loaded.Config.Metrics.Listen)

	// An override that breaks validation still fails the load.
	env[EnvSTTEngine] = "bogus"
	_, err = load(path, func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	require.Error(t, err)
}
