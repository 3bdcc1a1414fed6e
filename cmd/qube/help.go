package main

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/alfredjeanlab/qube/internal/ui"
	"github.com/spf13/cobra"
)

// helpRule styles every match of re; group is the submatch index to style
// (0 for the whole match).
type helpRule struct {
	re     *regexp.Regexp
	group  int
	render func(string) string
}

// Rules applied in order to Cobra's plain help text.
var helpRules = []helpRule{
	// Section headers: an unindented line ending with ":" ("Projects:", "Flags:").
	{regexp.MustCompile(`(?m)^[A-Z][^\n]*:[ \t]*$`), 0, ui.RenderAccent},
	// Command names: two-space indent, a word, then at least two spaces.
	{regexp.MustCompile(`(?m)^  (\S+)  `), 1, ui.RenderCommand},
	// Flag value types: "--url string", "--limit int", "--qualifiers strings".
	{regexp.MustCompile(`--?\S+\s+(strings|string|int|duration)\b`), 1, ui.RenderMuted},
	// Default values.
	{regexp.MustCompile(`\(default [^)]*\)`), 0, ui.RenderMuted},
}

// colorizedHelpFunc returns a Cobra help function that styles the default
// help text when the terminal supports color.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}

		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)

		fmt.Fprint(out, colorizeHelpOutput(buf.String()))
	}
}

func colorizeHelpOutput(s string) string {
	for _, rule := range helpRules {
		s = rule.re.ReplaceAllStringFunc(s, func(match string) string {
			if rule.group == 0 {
				return rule.render(match)
			}
			loc := rule.re.FindStringSubmatchIndex(match)
			if loc == nil || loc[2*rule.group] < 0 {
				return match
			}
			start, end := loc[2*rule.group], loc[2*rule.group+1]
			return match[:start] + rule.render(match[start:end]) + match[end:]
		})
	}
	return s
}
