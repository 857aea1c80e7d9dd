// Package report renders an evaluation as a Markdown assignment brief.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/SFZPL/tms-sub000/internal/domain/model"
)

const timeLayout = "Mon 02 Jan 15:04 MST"

// Markdown renders eval for task. The output is plain CommonMark so it can be
// printed as is or passed through a terminal renderer.
func Markdown(task model.TaskRequirement, eval *model.Evaluation) string {
	var b strings.Builder

	b.WriteString("# Designer assignment\n\n")
	fmt.Fprintf(&b, "- **Category:** %s\n", task.Category.Display())
	fmt.Fprintf(&b, "- **Duration:** %s\n", hours(task.Duration))
	fmt.Fprintf(&b, "- **Deadline:** %s\n", task.Deadline.Format(timeLayout))
	if task.TargetLanguage != "" {
		fmt.Fprintf(&b, "- **Language:** %s\n", task.TargetLanguage)
	}
	if eval != nil && eval.ID != "" {
		fmt.Fprintf(&b, "- **Evaluation:** `%s`\n", eval.ID)
	}
	b.WriteString("\n")

	if eval == nil {
		b.WriteString("_No evaluation._\n")
		return b.String()
	}

	if eval.Degraded {
		fmt.Fprintf(&b, "> **Warning:** scores are estimated (%s). Review the ranking before assigning.\n\n",
			degradedText(eval.DegradedReason))
	}

	b.WriteString("## Recommended\n\n")
	if len(eval.Available) == 0 {
		b.WriteString("Nobody has a free slot before the deadline.\n\n")
	} else {
		b.WriteString("| # | Designer | Score | Free from | Why |\n|---|---|---|---|---|\n")
		for i, a := range eval.Available {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
				i+1, cell(a.Designer.Name), score(a.ScoredDesigner), a.Slot.From.Format(timeLayout), cell(a.Rationale))
		}
		b.WriteString("\n")
	}

	if len(eval.Unavailable) > 0 {
		b.WriteString("## Busy\n\n")
		b.WriteString("| Designer | Score | Blocked by | Until | Why |\n|---|---|---|---|---|\n")
		for _, u := range eval.Unavailable {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				cell(u.Designer.Name), score(u.ScoredDesigner), cell(blockingText(u.Blocking)),
				deadlineText(u.Blocking.Deadline), cell(u.Rationale))
		}
		b.WriteString("\n")
	}

	if r := eval.Reshuffle; r != nil {
		b.WriteString("## Reshuffle opportunity\n\n")
		fmt.Fprintf(&b, "**%s** scores %s against a best available %s. ",
			r.Candidate.Designer.Name, score(r.Candidate), trim(r.BestAvailableScore))
		fmt.Fprintf(&b, "Their current work, %s, is due %s, after this task's deadline, ",
			r.Blocking.Label, deadlineText(r.Blocking.Deadline))
		b.WriteString("so it may be possible to move it and free them up.\n")
	}
	return b.String()
}

func blockingText(b model.Blocking) string {
	if b.Reason == model.BlockNoSlot {
		return "no free slot"
	}
	return b.Label
}

func degradedText(r model.DegradedReason) string {
	switch r {
	case model.DegradedScorerUnavailable:
		return "skill scorer unavailable"
	case model.DegradedPartialCoverage:
		return "some designers were not scored"
	default:
		return "unknown reason"
	}
}

func deadlineText(t *time.Time) string {
	if t == nil {
		return "unknown"
	}
	return t.Format("Mon 02 Jan")
}

func score(sd model.ScoredDesigner) string {
	if sd.Defaulted {
		return trim(sd.Score) + "*"
	}
	return trim(sd.Score)
}

func trim(f float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.1f", f), ".0")
}

func hours(d time.Duration) string {
	return trim(d.Hours()) + "h"
}

// cell keeps free text from breaking the table.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "/")
	s = strings.ReplaceAll(s, "\n", " ")
	if s == "" {
		return "-"
	}
	return s
}
