package decision

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders a Checklist as Markdown string.
func RenderMarkdown(c *Checklist) string {
	var sb strings.Builder

	sb.WriteString("# Risk Report\n\n")
	if c.SheetName != "" {
		sb.WriteString(fmt.Sprintf("Strategy: %s\n\n", c.SheetName))
	}
	sb.WriteString(fmt.Sprintf("## Status: %s\n\n", c.Status))
	sb.WriteString(fmt.Sprintf("Risk level: %s (score %d/100)\n\n", c.Level, c.Score))

	sb.WriteString("## Checks\n\n")
	sb.WriteString("| # | Check | Threshold | Actual | Pass |\n")
	sb.WriteString("|---|-------|-----------|--------|------|\n")
	for i, r := range c.Checks {
		passStr := "PASS"
		if !r.Pass {
			passStr = "FAIL"
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, r.Name, r.Threshold, r.Actual, passStr))
	}
	sb.WriteString("\n")

	failed := c.Failed()
	sb.WriteString(fmt.Sprintf("Checks: %d/%d passed\n\n", len(c.Checks)-len(failed), len(c.Checks)))

	sb.WriteString("## Summary\n\n")
	if len(failed) == 0 {
		sb.WriteString("All checks passed.\n")
	} else {
		sb.WriteString("Attention required:\n")
		for _, r := range failed {
			sb.WriteString(fmt.Sprintf("- %s (actual: %s, threshold: %s)\n", r.Name, r.Actual, r.Threshold))
		}
	}

	return sb.String()
}
