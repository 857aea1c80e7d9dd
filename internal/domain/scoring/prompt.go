package scoring

import (
	"fmt"
	"strings"

	"github.com/SFZPL/tms-sub000/internal/domain/model"
)

const systemInstruction = `You are an assistant that matches design tasks to designers.
Score every designer listed from 0 to 100 for how well they fit the task.
Answer with JSON only, in this shape:
{"designers": [{"name": "<designer name>", "score": <0-100>, "reason": "<one sentence>"}]}
Include every designer exactly once, using the name exactly as given.`

// Prompt is the request handed to an Oracle. System and User carry the
// rendered text for text-based oracles; Description and Roster carry the
// same information in structured form.
type Prompt struct {
	System      string
	User        string
	Description string
	Roster      []model.DesignerProfile
}

// BuildPrompt renders the roster as one line per designer
// (Name|Role|Tools|Outputs|Languages) below the task description.
func BuildPrompt(description string, roster []model.DesignerProfile) Prompt {
	var b strings.Builder
	b.WriteString("Task:\n")
	b.WriteString(strings.TrimSpace(description))
	b.WriteString("\n\nDesigners (Name|Role|Tools|Outputs|Languages):\n")
	for _, d := range roster {
		fmt.Fprintf(&b, "%s|%s|%s|%s|%s\n",
			d.Name,
			orNA(d.Role),
			joinOrNA(d.Tools),
			joinOrNA(d.Outputs),
			joinOrNA(d.Languages),
		)
	}
	return Prompt{
		System:      systemInstruction,
		User:        b.String(),
		Description: description,
		Roster:      roster,
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func joinOrNA(items []string) string {
	if len(items) == 0 {
		return "N/A"
	}
	return strings.Join(items, ", ")
}
