package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/SFZPL/tms-sub000/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.InitStderr(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const testRoster = `designers:
  - id: d-1
    name: Lina Haddad
    tools: [After Effects]
    languages: [Arabic]
  - id: d-2
    name: Omar Saleh
    tools: [Illustrator]
`

// writeFixtures writes a roster and a schedule in which Lina is booked for
// the next four days.
func writeFixtures(t *testing.T) (rosterPath, schedulePath string) {
	t.Helper()
	dir := t.TempDir()
	now := time.Now().UTC().Truncate(time.Second)
	schedule := fmt.Sprintf(`employees:
  - id: e-1
    name: Lina Haddad
    commitments:
      - start: %s
        end: %s
        work_item_id: T-7
        work_item_name: Brand refresh
        deadline: %s
  - id: e-2
    name: Omar Saleh
`, now.Add(-time.Hour).Format(time.RFC3339), now.Add(96*time.Hour).Format(time.RFC3339),
		now.Add(10*24*time.Hour).Format(time.DateOnly))

	rosterPath = filepath.Join(dir, "roster.yaml")
	schedulePath = filepath.Join(dir, "schedule.yaml")
	if err := os.WriteFile(rosterPath, []byte(testRoster), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(schedulePath, []byte(schedule), 0o600); err != nil {
		t.Fatal(err)
	}
	return rosterPath, schedulePath
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := newCLIApp()
	a.Writer = &out
	a.ErrWriter = &out
	err := a.Run(append([]string{"tms"}, args...))
	return out.String(), err
}

func exitCode(err error) int {
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return -1
}

func deadlineIn(d time.Duration) string {
	return time.Now().Add(d).UTC().Format(time.RFC3339)
}

func TestEvaluateCmd(t *testing.T) {
	rosterPath, schedulePath := writeFixtures(t)
	base := []string{"evaluate",
		"-d", "Arabic animation in After Effects",
		"--hours", "4",
		"--deadline", deadlineIn(48 * time.Hour),
		"--roster", rosterPath,
		"--schedule", schedulePath,
	}

	t.Run("json output", func(t *testing.T) {
		out, err := runCLI(t, append(base, "--json")...)
		if err != nil {
			t.Fatalf("evaluate failed: %v\n%s", err, out)
		}
		var eval struct {
			Available []struct {
				Designer struct{ Name string } `json:"designer"`
			} `json:"available"`
			Unavailable []struct {
				Designer struct{ Name string } `json:"designer"`
				Score    float64                `json:"score"`
			} `json:"unavailable"`
			Reshuffle *struct {
				Candidate struct {
					Designer struct{ Name string } `json:"designer"`
				} `json:"candidate"`
			} `json:"reshuffle_suggestion"`
		}
		if err := json.Unmarshal([]byte(out), &eval); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if len(eval.Available) != 1 || eval.Available[0].Designer.Name != "Omar Saleh" {
			t.Errorf("available = %+v, want only Omar Saleh", eval.Available)
		}
		if len(eval.Unavailable) != 1 || eval.Unavailable[0].Score != 50 {
			t.Errorf("unavailable = %+v, want Lina Haddad at 50", eval.Unavailable)
		}
		if eval.Reshuffle == nil || eval.Reshuffle.Candidate.Designer.Name != "Lina Haddad" {
			t.Errorf("reshuffle = %+v, want Lina Haddad", eval.Reshuffle)
		}
	})

	t.Run("markdown output by default", func(t *testing.T) {
		out, err := runCLI(t, base...)
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		for _, want := range []string{"# Designer assignment", "## Reshuffle opportunity", "Brand refresh"} {
			if !strings.Contains(out, want) {
				t.Errorf("report missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("pretty output", func(t *testing.T) {
		out, err := runCLI(t, append(base, "--pretty")...)
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if strings.TrimSpace(out) == "" {
			t.Error("pretty output is empty")
		}
	})

	t.Run("deadline in the past", func(t *testing.T) {
		_, err := runCLI(t, "evaluate", "-d", "x", "--deadline", "2001-01-01",
			"--roster", rosterPath, "--schedule", schedulePath)
		if exitCode(err) != exitInvalidTask {
			t.Errorf("exit code = %d, want %d (err %v)", exitCode(err), exitInvalidTask, err)
		}
	})

	t.Run("missing description", func(t *testing.T) {
		if _, err := runCLI(t, "evaluate", "--roster", rosterPath); err == nil {
			t.Error("expected an error without --description")
		}
	})
}

func TestImportScheduleCmd(t *testing.T) {
	rosterPath, schedulePath := writeFixtures(t)
	dbPath := filepath.Join(t.TempDir(), "schedule.db")

	out, err := runCLI(t, "import-schedule", "--db", dbPath, schedulePath)
	if err != nil {
		t.Fatalf("import failed: %v\n%s", err, out)
	}
	var summary map[string]any
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if summary["employees"] != 2.0 || summary["commitments"] != 1.0 {
		t.Errorf("summary = %v, want 2 employees and 1 commitment", summary)
	}

	out, err = runCLI(t, "evaluate", "-d", "Illustrator poster", "--units", "2",
		"--deadline", deadlineIn(24*time.Hour), "--roster", rosterPath, "--db", dbPath, "--json")
	if err != nil {
		t.Fatalf("evaluate against imported db failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"Omar Saleh"`) {
		t.Errorf("expected Omar Saleh in output:\n%s", out)
	}

	if _, err := runCLI(t, "import-schedule", "--db", dbPath); exitCode(err) != exitFailure {
		t.Errorf("missing file argument: exit code = %d, want %d", exitCode(err), exitFailure)
	}
}

func TestCategoryFromFlags(t *testing.T) {
	tests := []struct {
		name  string
		id    int
		label string
		want  string
	}{
		{"unset", 0, "", "Not specified"},
		{"known", 4, "Infographic", "Infographic"},
		{"unresolved label", 0, "Mural", "Mural (unrecognized)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := categoryFromFlags(tt.id, tt.label).Display(); got != tt.want {
				t.Errorf("Display() = %q, want %q", got, tt.want)
			}
		})
	}
}
