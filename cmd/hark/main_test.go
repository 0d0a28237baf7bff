package main

import (
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const argsEnv = "HARK_TEST_MAIN_ARGS"

// TestMain re-enters main when the test binary is spawned by runHark.
func TestMain(m *testing.M) {
	if raw, ok := os.LookupEnv(argsEnv); ok {
		os.Args = append([]string{"hark"}, strings.Fields(raw)...)
		main()
		return
	}
	os.Exit(m.Run())
}

func runHark(t *testing.T, args ...string) (string, int) {
	t.Helper()

	cmd := exec.Command(os.Args[0])
	cmd.Env = append(os.Environ(), argsEnv+"="+strings.Join(args, " "), "XDG_STATE_HOME="+t.TempDir())
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr, string(out))
		return string(out), exitErr.ExitCode()
	}
	return string(out), 0
}

func TestMainExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{name: "help", args: []string{"--help"}, wantOut: "Usage:"},
		{name: "version", args: []string{"--version"}, wantOut: "hark "},
		{name: "unknown command", args: []string{"dictate"}, wantCode: 2, wantOut: "unknown command"},
		{name: "missing config value", args: []string{"--config"}, wantCode: 2, wantOut: "requires a path"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, code := runHark(t, tc.args...)
			require.Equal(t, tc.wantCode, code, out)
			require.Contains(t, out, tc.wantOut)
		})
	}
}
