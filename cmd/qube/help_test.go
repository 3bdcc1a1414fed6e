package main

import (
	"strings"
	"testing"
)

func TestColorizeHelpOutput_PlainWhenColorDisabled(t *testing.T) {
	in := "Projects:\n  project     Create projects\n\nFlags:\n      --url string   HTTP server URL (default \"http://localhost:9000\")\n"
	// ui.ForceNoColor is set for the package tests, so styling is a no-op.
	if got := colorizeHelpOutput(in); got != in {
		t.Errorf("colorizeHelpOutput changed text without color:\n%q", got)
	}
}

func TestHelpRules_Match(t *testing.T) {
	cases := []struct {
		rule  int
		input string
		want  string
	}{
		{0, "Projects:", "Projects:"},
		{1, "  project     Create projects", "project"},
		{2, "      --qualifiers strings   restrict", "strings"},
		{3, `HTTP server URL (default "http://localhost:9000")`, `(default "http://localhost:9000")`},
	}
	for _, tc := range cases {
		r := helpRules[tc.rule]
		m := r.re.FindStringSubmatch(tc.input)
		if m == nil {
			t.Errorf("rule %d: no match in %q", tc.rule, tc.input)
			continue
		}
		if got := strings.TrimSpace(m[r.group]); got != tc.want {
			t.Errorf("rule %d: matched %q, want %q", tc.rule, got, tc.want)
		}
	}
}
