package evaluator

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("Newton's second law is F=ma.", FocusConceptual)

	want := "Evaluate the following content with focus on Conceptual accuracy. " +
		"Focus deeply on precision of technical terms and relationships between concepts.\n\n" +
		"Provide your feedback in these three clearly separated sections:\n\n" +
		"1. What's Right: Highlight the aspects that demonstrate correct understanding.\n" +
		"2. What's Wrong: Identify any misconceptions or errors.\n" +
		"3. Recommendations: Suggest specific topics or areas to focus on for improvement.\n\n" +
		"Content:\nNewton's second law is F=ma."
	if got != want {
		t.Errorf("BuildPrompt mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildPromptKeepsContentVerbatim(t *testing.T) {
	content := "line 1\n\n  indented {braces} %s %d\n"
	got := BuildPrompt(content, FocusGeneral)
	if !strings.HasSuffix(got, "Content:\n"+content) {
		t.Errorf("content not appended verbatim: %q", got)
	}
}

func TestEveryFocusHasHint(t *testing.T) {
	if len(Focuses) != 3 {
		t.Fatalf("expected 3 focuses, got %d", len(Focuses))
	}
	seen := map[string]bool{}
	for _, f := range Focuses {
		hint := f.Hint()
		if hint == "" {
			t.Errorf("focus %q has no hint", f)
		}
		if seen[hint] {
			t.Errorf("focus %q reuses hint %q", f, hint)
		}
		seen[hint] = true
		if !strings.Contains(BuildPrompt("", f), string(f)+". "+hint) {
			t.Errorf("prompt for %q does not name focus and hint", f)
		}
	}
}

func TestParseFocus(t *testing.T) {
	tests := []struct {
		in   string
		want Focus
	}{
		{"general", FocusGeneral},
		{"Conceptual", FocusConceptual},
		{"academic", FocusAcademic},
		{"General understanding", FocusGeneral},
		{"conceptual accuracy", FocusConceptual},
		{" Academic rigor ", FocusAcademic},
	}
	for _, tt := range tests {
		got, err := ParseFocus(tt.in)
		if err != nil {
			t.Errorf("ParseFocus(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFocus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFocus("rigorous"); !errors.Is(err, ErrUnknownFocus) {
		t.Errorf("expected ErrUnknownFocus, got %v", err)
	}
}

func TestFocusSlug(t *testing.T) {
	if FocusAcademic.Slug() != "academic" {
		t.Errorf("Slug = %q", FocusAcademic.Slug())
	}
	if Focus("other").Slug() != "" {
		t.Error("unknown focus should have no slug")
	}
}
