package stt

import (
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWAVBytesHeader(t *testing.T) {
	t.Parallel()

	pcm := make([]byte, 640)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(1200))

	data, err := WAVBytes(pcm)
	require.NoError(t, err)
	require.Equal(t, "RIFF", string(data[0:4]))
	require.Equal(t, "WAVE", string(data[8:12]))
	require.Equal(t, uint32(sampleRate), binary.LittleEndian.Uint32(data[24:28]))
	require.GreaterOrEqual(t, len(data), 44+len(pcm))
}

func TestWAVBytesRejectsOddPayload(t *testing.T) {
	t.Parallel()

	_, err := WAVBytes([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestDecodeOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "json", raw: `{"text":"  hello there "}`, want: "hello there"},
		{name: "plain", raw: "plain words\n", want: "plain words"},
		{name: "empty", raw: "   ", want: ""},
		{name: "broken json", raw: `{"text":`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := decodeOutput([]byte(tc.raw))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestExecEngineExpandsPlaceholders(t *testing.T) {
	t.Parallel()

	engine, err := NewExecEngine(`whisper-cli -l {language} --file={audio} -nt`, "en")
	require.NoError(t, err)
	require.Equal(t, "whisper-cli", engine.Binary())

	require.Equal(t,
		[]string{"whisper-cli", "-l", "de", "--file=/tmp/a.wav", "-nt"},
		engine.expandArgs("/tmp/a.wav", "de"),
	)

	plain, err := NewExecEngine(`recognize --json`, "")
	require.NoError(t, err)
	require.Equal(t, []string{"recognize", "--json", "/tmp/b.wav"}, plain.expandArgs("/tmp/b.wav", ""))
}

func TestNewExecEngineRejectsEmptyCommand(t *testing.T) {
	t.Parallel()

	_, err := NewExecEngine("   ", "en")
	require.Error(t, err)
}

func TestExecEngineRunsCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	script := filepath.Join(dir, "fake-stt")
	require.NoError(t, os.WriteFile(script, []byte(`#!/usr/bin/env bash
set -euo pipefail
lang="$1"
wav="$2"
head -c 4 "$wav" >/dev/null
printf '{"text":"heard in %s"}' "$lang"
`), 0o755))

	engine, err := NewExecEngine(script+" {language} {audio}", "en")
	require.NoError(t, err)
	engine.tempDir = dir

	text, err := engine.Transcribe(context.Background(), make([]byte, 320), "")
	require.NoError(t, err)
	require.Equal(t, "heard in en", text)

	text, err = engine.Transcribe(context.Background(), make([]byte, 320), "de-CH")
	require.NoError(t, err)
	require.Equal(t, "heard in de-CH", text)

	leftovers, err := filepath.Glob(filepath.Join(dir, "hark-stt-*.wav"))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

func TestExecEngineReportsFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	script := filepath.Join(dir, "broken-stt")
	require.NoError(t, os.WriteFile(script, []byte("#!/usr/bin/env bash\necho nope >&2\nexit 3\n"), 0o755))

	engine, err := NewExecEngine(script, "")
	require.NoError(t, err)
	engine.tempDir = dir

	_, err = engine.Transcribe(context.Background(), make([]byte, 64), "")
	require.ErrorContains(t, err, "nope")
}

func TestLanguageCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, "de", languageCode("de-CH", "en"))
	require.Equal(t, "en", languageCode("", "en_US"))
	require.Equal(t, "", languageCode("", ""))
	require.Equal(t, "fr", languageCode("FR", ""))
}

func TestOpenAIEngineTranscribes(t *testing.T) {
	t.Parallel()

	var gotLanguage, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/audio/transcriptions"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotLanguage = r.FormValue("language")
		gotModel = r.FormValue("model")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" grüezi mitenand "}`))
	}))
	defer srv.Close()

	engine, err := NewOpenAIEngine(OpenAIOptions{BaseURL: srv.URL, Model: "whisper-1"})
	require.NoError(t, err)

	text, err := engine.Transcribe(context.Background(), make([]byte, 640), "de-CH")
	require.NoError(t, err)
	require.Equal(t, "grüezi mitenand", text)
	require.Equal(t, "de", gotLanguage)
	require.Equal(t, "whisper-1", gotModel)
}

func TestNewSelectsEngine(t *testing.T) {
	t.Parallel()

	engine, err := New(Options{Kind: "exec", Command: "whisper-cli"})
	require.NoError(t, err)
	require.IsType(t, &ExecEngine{}, engine)

	engine, err = New(Options{Kind: "openai", Model: "whisper-1"})
	require.NoError(t, err)
	require.IsType(t, &OpenAIEngine{}, engine)

	_, err = New(Options{Kind: "vosk"})
	require.ErrorContains(t, err, "unknown stt engine")
}
