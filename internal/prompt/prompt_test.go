package prompt

import (
	"strings"
	"testing"
)

func TestBuildInline(t *testing.T) {
	p := Build(StyleInline, "what is 22")

	want := "You are an expert assistant. Answer concisely and clearly.\nQuestion: what is 22\nAnswer:"
	if p.Text != want {
		t.Fatalf("unexpected inline prompt:\n%s", p.Text)
	}
	if p.System != "" {
		t.Fatalf("inline prompt must not carry a system instruction, got %q", p.System)
	}
}

func TestBuildSystem(t *testing.T) {
	p := Build(StyleSystem, "hello world")

	if p.Text != "Question: hello world" {
		t.Fatalf("unexpected system-style text: %q", p.Text)
	}
	if p.System != SystemInstruction {
		t.Fatalf("unexpected system instruction: %q", p.System)
	}
}

func TestBuildAlwaysContainsQuestion(t *testing.T) {
	for _, style := range []Style{StyleInline, StyleSystem} {
		for _, q := range []string{"", "a", "what is the capital of france"} {
			p := Build(style, q)
			if !strings.Contains(p.Text, "Question: "+q) {
				t.Fatalf("style %s: prompt %q does not contain question %q", style, p.Text, q)
			}
		}
	}
}

func TestParseStyle(t *testing.T) {
	cases := map[string]Style{
		"inline":   StyleInline,
		" SYSTEM ": StyleSystem,
	}
	for in, want := range cases {
		got, err := ParseStyle(in)
		if err != nil {
			t.Fatalf("ParseStyle(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseStyle(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseStyle("fancy"); err == nil {
		t.Fatalf("expected error for unknown style")
	}
}
