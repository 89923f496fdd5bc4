package language_test

import (
	"testing"

	"podmill/internal/language"
)

func TestHint(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"en-US", "en"},
		{"eng", "en"},
		{"english", "en"},
		{"Spanish", "es"},
		{"pt-BR", "pt"},
		{"japanese", "ja"},
		{"", ""},
		{"   ", ""},
		{"zz", ""},
		{"not a language", ""},
	}
	for _, tc := range cases {
		if got := language.Hint(tc.input); got != tc.want {
			t.Errorf("Hint(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"en", "English"},
		{"en-US", "English"},
		{"es", "Spanish"},
		{"pt-BR", "Portuguese"},
		{"german", "German"},
		{"", "Unknown"},
		{"zz", "ZZ"},
	}
	for _, tc := range cases {
		if got := language.DisplayName(tc.input); got != tc.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestEqual(t *testing.T) {
	if !language.Equal("en-US", "english") {
		t.Error("expected en-US and english to match")
	}
	if !language.Equal("pt", "pt-BR") {
		t.Error("expected pt and pt-BR to match")
	}
	if language.Equal("en", "es") {
		t.Error("expected en and es to differ")
	}
	if language.Equal("", "en") {
		t.Error("expected empty input to never match")
	}
	if language.Equal("zz", "zz") {
		t.Error("expected unrecognized input to never match")
	}
}
