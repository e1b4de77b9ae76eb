package normalize

import (
	"strings"
	"testing"
	"unicode"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "what time do you open", "what time do you open"},
		{"uppercase", "Do you offer HAIR COLORING?", "do you offer hair coloring"},
		{"punctuation", "hello!!! how-are, you???", "hello howare you"},
		{"whitespace runs", "  do   you\t\ntake  walk-ins  ", "do you take walkins"},
		{"accents", "Café au Lait é très bon", "cafe au lait e tres bon"},
		{"digits kept", "open at 9am?", "open at 9am"},
		{"underscore kept", "promo_code valid?", "promo_code valid"},
		{"only punctuation", "?!...,;", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"Do you offer HAIR COLORING?",
		"  lots\tof   whitespace \n here ",
		"çàé ügly îñpût!!!",
		"already normalized text",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizeOutputShape(t *testing.T) {
	inputs := []string{
		"What?! Multiple   spaces...",
		"UPPER and lower",
		"tab\tand\nnewline",
		"symbols #$%^&*()",
	}
	for _, in := range inputs {
		got := Normalize(in)
		if strings.Contains(got, "  ") {
			t.Errorf("Normalize(%q) = %q contains repeated spaces", in, got)
		}
		if got != strings.TrimSpace(got) {
			t.Errorf("Normalize(%q) = %q not trimmed", in, got)
		}
		for _, r := range got {
			if unicode.IsPunct(r) && r != '_' {
				t.Errorf("Normalize(%q) = %q contains punctuation %q", in, got, r)
			}
			if unicode.IsUpper(r) {
				t.Errorf("Normalize(%q) = %q contains uppercase %q", in, got, r)
			}
		}
	}
}
