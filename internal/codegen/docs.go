package codegen

import (
	"fmt"
	"strings"

	"github.com/mazharm/intent-engine/internal/obligations"
)

// renderObligationsMarkdown builds the deterministic gen/OBLIGATIONS.md
// content: open obligations first (they're actionable), then resolved ones,
// each section sorted the same way obligations.Check already sorts its
// input. This is the one generated artifact that is prose rather than code;
// internal/codegen's own tests parse it with goldmark to confirm it is
// well-formed Markdown.
func renderObligationsMarkdown(obs []obligations.Obligation) string {
	var open, resolved []obligations.Obligation
	for _, o := range obs {
		if o.Status == obligations.Open {
			open = append(open, o)
		} else {
			resolved = append(resolved, o)
		}
	}

	var b strings.Builder
	b.WriteString("# Obligations\n\n")
	b.WriteString("Generated from the effect analysis of this corpus. Do not edit by hand.\n\n")

	b.WriteString("## Open\n\n")
	if len(open) == 0 {
		b.WriteString("None.\n\n")
	} else {
		for _, o := range open {
			b.WriteString(fmt.Sprintf("- **%s** (%s): %s\n", o.ObligationType, o.Severity, o.Description))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Resolved\n\n")
	if len(resolved) == 0 {
		b.WriteString("None.\n")
	} else {
		for _, o := range resolved {
			b.WriteString(fmt.Sprintf("- **%s**: %s (intent %s)\n", o.ObligationType, o.Description, o.IntentID))
		}
	}

	return b.String()
}
