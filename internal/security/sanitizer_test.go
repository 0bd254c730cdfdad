package security

import (
	"strings"
	"testing"
)

func TestSanitizeSkill(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Guitar", want: "Guitar"},
		{name: "trimmed", input: "  Piano \n", want: "Piano"},
		{name: "inner whitespace", input: "Jazz \t  piano", want: "Jazz piano"},
		{name: "markup stripped", input: "<b>Go</b> <script>alert(1)</script>", want: "Go"},
		{name: "entities kept readable", input: "R&D", want: "R&D"},
		{name: "null bytes", input: "Ch\x00ess", want: "Chess"},
		{name: "only whitespace", input: "   ", want: ""},
		{name: "only markup", input: "<i></i>", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeSkill(tt.input); got != tt.want {
				t.Errorf("SanitizeSkill(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateSkill(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "empty", input: "", want: false},
		{name: "short", input: "Go", want: true},
		{name: "at limit", input: strings.Repeat("a", MaxSkillLength), want: true},
		{name: "over limit", input: strings.Repeat("a", MaxSkillLength+1), want: false},
		{name: "multibyte at limit", input: strings.Repeat("گ", MaxSkillLength), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateSkill(tt.input); got != tt.want {
				t.Errorf("ValidateSkill(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeString_Truncates(t *testing.T) {
	long := strings.Repeat("é", 600) // 1200 bytes
	got := SanitizeString(long)
	if len(got) > 1000 {
		t.Errorf("len = %d, want <= 1000", len(got))
	}
	if !strings.HasPrefix(long, got) {
		t.Error("truncation changed the kept prefix")
	}
}
