package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"
	clipboardGet := "wl-paste --no-newline"

	return Config{
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Segmenter: SegmenterConfig{
			SilenceThreshold:   0.01,
			MinSegmentLengthMS: 500,
			SilenceSpanMS:      400,
			PreRollMS:          300,
			FrameMS:            20,
			HandsFree:          true,
		},
		STT: STTConfig{
			Engine:     "exec",
			Command:    "whisper-cli -nt -np -l {language} -f {audio}",
			APIKeyEnv:  "OPENAI_API_KEY",
			Model:      "whisper-1",
			Language:   "en",
			TimeoutMS:  45000,
			MaxWorkers: 12,
		},
		LLM: LLMConfig{
			APIKeyEnv: "OPENAI_API_KEY",
			Model:     "gpt-4o-mini",
			TimeoutMS: 60000,
		},
		NER: NERConfig{TimeoutMS: 10000},
		Processing: ProcessingConfig{
			DefaultMode:   "normal",
			DefaultHint:   "en",
			FilterPhrases: []string{"thanks for watching", "thank for watching", "thank you", "you"},
			ResetModes:    []string{"de-CH"},
			ResetHints:    []string{"de-DE", "de-CH"},
		},
		Paste: PasteConfig{Enable: true, Shortcut: "CTRL,V"},
		Indicator: IndicatorConfig{
			Enable:           true,
			Backend:          "hypr",
			DesktopAppName:   "hark",
			SoundEnable:      true,
			ErrorTimeoutMS:   1600,
			MessageTimeoutMS: 1500,
		},
		Translog: TranslogConfig{
			Enable:      true,
			NATSSubject: "hark.transcriptions",
			QueueSize:   64,
		},
		Shell:        ShellConfig{TimeoutMS: 10000},
		Clipboard:    CommandConfig{Raw: clipboard, Argv: mustParseCommand(clipboard)},
		ClipboardGet: CommandConfig{Raw: clipboardGet, Argv: mustParseCommand(clipboardGet)},
	}
}
