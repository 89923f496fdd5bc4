package language

import (
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// wordCodes maps the full English names transcription services report back to
// BCP-47 codes. Whisper-style APIs return "english" rather than "en".
var wordCodes = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"dutch":      "nl",
	"russian":    "ru",
	"japanese":   "ja",
	"chinese":    "zh",
	"korean":     "ko",
	"arabic":     "ar",
	"hindi":      "hi",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
	"turkish":    "tr",
	"ukrainian":  "uk",
	"czech":      "cs",
	"greek":      "el",
	"hebrew":     "he",
	"thai":       "th",
	"vietnamese": "vi",
	"indonesian": "id",
}

func parse(value string) (xlang.Tag, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return xlang.Und, false
	}
	if code, ok := wordCodes[strings.ToLower(trimmed)]; ok {
		trimmed = code
	}
	tag, err := xlang.Parse(trimmed)
	if err != nil || tag == xlang.Und {
		return xlang.Und, false
	}
	return tag, true
}

// Hint converts any recognized language identifier (BCP-47 tag, ISO code, or
// the English names transcription services report) into the two-letter
// ISO 639-1 hint speech-to-text APIs accept. Returns empty string for
// unrecognized input or languages without a two-letter code.
func Hint(value string) string {
	tag, ok := parse(value)
	if !ok {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == xlang.No {
		return ""
	}
	code := base.String()
	if len(code) != 2 {
		return ""
	}
	return code
}

// DisplayName returns the English display name for any recognized language
// identifier. Returns "Unknown" for empty input, or the uppercased raw value
// for unrecognized input.
func DisplayName(value string) string {
	tag, ok := parse(value)
	if !ok {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return "Unknown"
		}
		return strings.ToUpper(trimmed)
	}
	base, _ := tag.Base()
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return strings.ToUpper(strings.TrimSpace(value))
}

// Equal reports whether two identifiers denote the same base language.
// Unrecognized values never compare equal.
func Equal(a, b string) bool {
	hintA := Hint(a)
	if hintA == "" {
		return false
	}
	return hintA == Hint(b)
}
