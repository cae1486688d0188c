package evaluator

import (
	"fmt"
	"strings"
)

// Focus is the lens applied to a single evaluation request.
type Focus string

const (
	FocusGeneral    Focus = "General understanding"
	FocusConceptual Focus = "Conceptual accuracy"
	FocusAcademic   Focus = "Academic rigor"
)

// Focuses lists every focus in display order.
var Focuses = []Focus{FocusGeneral, FocusConceptual, FocusAcademic}

var focusHints = map[Focus]string{
	FocusGeneral:    "Focus on overall grasp of concepts.",
	FocusConceptual: "Focus deeply on precision of technical terms and relationships between concepts.",
	FocusAcademic:   "Evaluate with academic standards in mind, highlighting scholarly accuracy.",
}

var focusSlugs = map[string]Focus{
	"general":    FocusGeneral,
	"conceptual": FocusConceptual,
	"academic":   FocusAcademic,
}

// Hint returns the instruction sentence appended for this focus.
func (f Focus) Hint() string { return focusHints[f] }

// Valid reports whether f is one of the known focuses.
func (f Focus) Valid() bool {
	_, ok := focusHints[f]
	return ok
}

// Slug returns the short lowercase identifier used on the command line.
func (f Focus) Slug() string {
	for slug, focus := range focusSlugs {
		if focus == f {
			return slug
		}
	}
	return ""
}

// ParseFocus accepts either the display label ("Academic rigor") or the
// slug ("academic"), case-insensitively.
func ParseFocus(s string) (Focus, error) {
	s = strings.TrimSpace(s)
	if f, ok := focusSlugs[strings.ToLower(s)]; ok {
		return f, nil
	}
	for _, f := range Focuses {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want general, conceptual or academic)", ErrUnknownFocus, s)
}
