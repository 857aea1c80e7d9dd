package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v2"

	"github.com/SFZPL/tms-sub000/internal/adapters/mcp"
	"github.com/SFZPL/tms-sub000/internal/adapters/repository"
	app "github.com/SFZPL/tms-sub000/internal/app"
	"github.com/SFZPL/tms-sub000/internal/config"
	"github.com/SFZPL/tms-sub000/internal/domain/model"
	"github.com/SFZPL/tms-sub000/internal/report"
	"github.com/SFZPL/tms-sub000/pkg/logger"
)

const (
	exitFailure     = 1
	exitInvalidTask = 2
	prettyWrap      = 100
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	a := &cli.App{
		Name:    "tms",
		Usage:   "Designer availability and assignment engine",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Usage: "debug|info|warn|error (overrides TMS_LOG_LEVEL)"},
		},
		Commands: []*cli.Command{
			evaluateCmd(),
			importScheduleCmd(),
			mcpCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	a.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return a
}

// loadConfig reads the layered config and applies global flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.Context)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitFailure)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

func evaluateCmd() *cli.Command {
	return &cli.Command{
		Name:  "evaluate",
		Usage: "Rank designers for a task and report who is free before the deadline",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Task description", Required: true},
			&cli.Float64Flag{Name: "hours", Usage: "Working hours the task needs"},
			&cli.IntFlag{Name: "units", Usage: "Design units, used when --hours is not given"},
			&cli.StringFlag{Name: "deadline", Usage: "RFC3339 timestamp or YYYY-MM-DD"},
			&cli.StringFlag{Name: "language", Usage: "Target language of the deliverable"},
			&cli.StringFlag{Name: "category", Usage: "Service category label"},
			&cli.IntFlag{Name: "category-id", Usage: "Service category id; marks the label as resolved"},
			&cli.StringFlag{Name: "roster", Usage: "Roster YAML file (overrides roster_path)"},
			&cli.StringFlag{Name: "schedule", Usage: "Schedule YAML file to evaluate against instead of the database"},
			&cli.StringFlag{Name: "db", Usage: "Schedule database (overrides schedule_db_path)"},
			&cli.BoolFlag{Name: "json", Usage: "Print the evaluation as JSON"},
			&cli.BoolFlag{Name: "pretty", Usage: "Render the report for the terminal"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			cfg.WatchRoster = false
			if p := c.String("roster"); p != "" {
				cfg.RosterPath = p
			}
			if p := c.String("db"); p != "" {
				cfg.ScheduleDBPath = p
			}
			var sched *repository.Schedule
			if p := c.String("schedule"); p != "" {
				if sched, err = repository.LoadSchedule(p); err != nil {
					return cli.Exit(err.Error(), exitFailure)
				}
				cfg.ScheduleDBPath = ""
			}

			engine, err := app.Build(c.Context, cfg, logger.Get().Named("tms"))
			if err != nil {
				return cli.Exit(err.Error(), exitFailure)
			}
			defer engine.Close()
			if sched != nil {
				if _, err := sched.Apply(c.Context, engine.Store); err != nil {
					return cli.Exit(err.Error(), exitFailure)
				}
			}

			task, eval, err := engine.EvaluateRequest(c.Context, app.TaskRequest{
				Description:    c.String("description"),
				DurationHours:  c.Float64("hours"),
				DesignUnits:    c.Int("units"),
				Deadline:       c.String("deadline"),
				TargetLanguage: c.String("language"),
				Category:       categoryFromFlags(c.Int("category-id"), c.String("category")),
			})
			if err != nil {
				if errors.Is(err, model.ErrInvalidTask) {
					return cli.Exit(err.Error(), exitInvalidTask)
				}
				return cli.Exit(err.Error(), exitFailure)
			}

			switch {
			case c.Bool("json"):
				return outputJSON(c.App.Writer, eval)
			case c.Bool("pretty"):
				return outputPretty(c.App.Writer, report.Markdown(task, eval))
			default:
				_, err := io.WriteString(c.App.Writer, report.Markdown(task, eval))
				return err
			}
		},
	}
}

func importScheduleCmd() *cli.Command {
	return &cli.Command{
		Name:      "import-schedule",
		Usage:     "Load employees and commitments from a YAML file into the schedule database",
		ArgsUsage: "<schedule.yaml>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Usage: "Schedule database (overrides schedule_db_path)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("exactly one schedule file is required", exitFailure)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			dbPath := cfg.ScheduleDBPath
			if p := c.String("db"); p != "" {
				dbPath = p
			}

			sched, err := repository.LoadSchedule(c.Args().First())
			if err != nil {
				return cli.Exit(err.Error(), exitFailure)
			}
			store, err := repository.OpenSQLite(dbPath)
			if err != nil {
				return cli.Exit(err.Error(), exitFailure)
			}
			defer store.Close()

			added, err := sched.Apply(c.Context, store)
			if err != nil {
				return cli.Exit(fmt.Sprintf("imported %d commitments before failing: %v", added, err), exitFailure)
			}
			return outputJSON(c.App.Writer, map[string]any{
				"employees":   len(sched.Employees),
				"commitments": added,
				"db":          dbPath,
			})
		},
	}
}

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the designer_evaluate tool over stdio",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			log := logger.Get().Named("mcp")
			engine, err := app.Build(c.Context, cfg, log)
			if err != nil {
				return cli.Exit(err.Error(), exitFailure)
			}
			defer engine.Close()
			return mcp.Run(engine, Version, log)
		},
	}
}

func categoryFromFlags(id int, label string) model.ServiceCategory {
	switch {
	case id > 0:
		return model.KnownCategory(id, label)
	case label != "":
		return model.InvalidCategory(label)
	default:
		return model.UnsetCategory()
	}
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputPretty(w io.Writer, md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(prettyWrap),
	)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	out, err := r.Render(md)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	_, err = io.WriteString(w, out)
	return err
}
