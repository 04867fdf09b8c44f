package advisor

import (
	"fmt"
	"strings"

	"github.com/ciclofficina/tracker/internal/curriculum"
)

const systemPrompt = `You help the volunteers of a community bicycle repair workshop organise their training catalog.

Rules:
- Propose prerequisites for the target module, chosen only from the catalog list. Copy codes exactly.
- A prerequisite is a module whose skills the target directly relies on. Skip indirect ones.
- Use "mandatory" only when the target is unsafe or impossible without it; otherwise "recommended".
- Never propose the target itself or a module already listed as a prerequisite.
- Prefer modules of the same or a lower level.
- Return an empty list when nothing fits.`

// buildUserMessage describes the target, its current prerequisites and the
// candidate catalog.
func buildUserMessage(target curriculum.Module, current []curriculum.Module, catalog []curriculum.Module, max int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Target: %s\n", moduleLine(target))
	if target.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", target.Description)
	}
	if len(target.Outcomes) > 0 {
		fmt.Fprintf(&b, "Learning outcomes: %s\n", strings.Join(target.Outcomes, "; "))
	}
	if len(target.Tools) > 0 {
		fmt.Fprintf(&b, "Tools: %s\n", strings.Join(target.Tools, ", "))
	}

	b.WriteString("\nCurrent prerequisites:\n")
	if len(current) == 0 {
		b.WriteString("None\n")
	}
	for _, m := range current {
		fmt.Fprintf(&b, "- %s\n", moduleLine(m))
	}

	b.WriteString("\nCatalog:\n")
	for _, m := range catalog {
		fmt.Fprintf(&b, "- %s\n", moduleLine(m))
	}

	fmt.Fprintf(&b, "\nPropose at most %d prerequisites.", max)
	return b.String()
}

func moduleLine(m curriculum.Module) string {
	line := fmt.Sprintf("%s | %s | level %d", m.Code, m.Title, m.Level)
	if m.TeachingArea != "" {
		line += " | " + m.TeachingArea
	}
	if len(m.SkillTags) > 0 {
		line += " | " + strings.Join(m.SkillTags, ", ")
	}
	return line
}
