package indicator

import (
	"os"
	"strings"
)

type messages struct {
	recording  string
	processing string
	errorText  string
}

var catalog = map[string]messages{
	"en": {
		recording:  "Listening…",
		processing: "Transcribing…",
		errorText:  "Speech recognition error",
	},
	"de": {
		recording:  "Höre zu…",
		processing: "Transkribiere…",
		errorText:  "Fehler bei der Spracherkennung",
	},
}

func messagesFromEnv() messages {
	return messagesFor(os.Getenv("LANG"))
}

// messagesFor picks labels by the language part of a POSIX locale, falling back to English.
func messagesFor(locale string) messages {
	lang := strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(lang, "_.-@"); i >= 0 {
		lang = lang[:i]
	}
	if m, ok := catalog[lang]; ok {
		return m
	}
	return catalog["en"]
}
