package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/atlas/internal/atlas"
	"github.com/hay-kot/atlas/internal/core/styles"
)

const dateLayout = "2006-01-02"

type PlanCmd struct {
	flags *Flags
	app   *atlas.App

	date         string
	daily        string
	create       bool
	stdout       bool
	render       bool
	scanVault    bool
	modeTagModel string
	archive      bool
	receipt      bool
}

// NewPlanCmd creates a new plan command.
func NewPlanCmd(flags *Flags, app *atlas.App) *PlanCmd {
	return &PlanCmd{flags: flags, app: app}
}

// Register adds the plan command to the application.
func (cmd *PlanCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "plan",
		Usage:     "Build today's plan and write it into the daily note",
		UsageText: "atlas plan [options]",
		Description: `Reads meetings from the daily note and open tasks from the daily note,
the scratchpad, and the configured task sources. Schedules the free time
around meetings, assigns tasks to the deep-work and focus slots, tags the
source lines, and replaces the generated block in the daily note.

Running plan twice on the same inputs produces the same note.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "date",
				Usage:       "plan for this date (YYYY-MM-DD); defaults to the daily note name or today",
				Destination: &cmd.date,
			},
			&cli.StringFlag{
				Name:        "daily",
				Usage:       "path to the daily note (defaults to <vault>/<daily_dir>/<date>.md)",
				Destination: &cmd.daily,
			},
			&cli.BoolFlag{
				Name:        "create",
				Usage:       "create the daily note when it does not exist",
				Destination: &cmd.create,
			},
			&cli.BoolFlag{
				Name:        "stdout",
				Usage:       "print the block instead of writing it into the daily note",
				Destination: &cmd.stdout,
			},
			&cli.BoolFlag{
				Name:        "render",
				Usage:       "with --stdout, render the block as styled markdown",
				Destination: &cmd.render,
			},
			&cli.BoolFlag{
				Name:        "scan-vault",
				Usage:       "also collect tasks from every note in the vault",
				Destination: &cmd.scanVault,
			},
			&cli.StringFlag{
				Name:        "mode-tag-model",
				Usage:       "tag untagged tasks with a work mode using this local model",
				Sources:     cli.EnvVars("ATLAS_MODE_TAG_MODEL"),
				Destination: &cmd.modeTagModel,
			},
			&cli.BoolFlag{
				Name:        "archive",
				Usage:       "archive completed scratchpad items after writing",
				Destination: &cmd.archive,
			},
			&cli.BoolFlag{
				Name:        "run-receipt",
				Usage:       "write a run receipt to the logs directory",
				Destination: &cmd.receipt,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *PlanCmd) options() (atlas.PlanOptions, error) {
	opts := atlas.PlanOptions{
		DailyPath:    cmd.daily,
		Create:       cmd.create,
		Stdout:       cmd.stdout,
		ScanVault:    cmd.scanVault,
		ModeTagModel: cmd.modeTagModel,
		Archive:      cmd.archive,
		Receipt:      cmd.receipt,
	}
	if cmd.date != "" {
		d, err := time.Parse(dateLayout, cmd.date)
		if err != nil {
			return opts, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", cmd.date)
		}
		opts.Date = d
	}
	return opts, nil
}

func (cmd *PlanCmd) run(ctx context.Context, c *cli.Command) error {
	opts, err := cmd.options()
	if err != nil {
		return usageError(err)
	}

	res, err := cmd.app.Planner.Plan(ctx, opts)
	if err != nil {
		return usageError(err)
	}

	if cmd.stdout {
		return cmd.printBlock(c, res.Block)
	}

	w := os.Stderr
	_, _ = fmt.Fprintf(w, "%s %s\n", styles.SuccessStyle.Render("✔"), res.DailyPath)
	_, _ = fmt.Fprintln(w, styles.MutedStyle.Render(fmt.Sprintf(
		"%d meetings, %d tasks assigned, %d lines tagged in %d files",
		len(res.Meetings), len(res.Plan.Assigned()), res.Tagged.Lines, len(res.Tagged.Written),
	)))
	for _, link := range res.Tagged.Unresolved {
		_, _ = fmt.Fprintf(w, "%s unresolved source %s\n", styles.WarningStyle.Render("●"), link)
	}
	if res.ModeTags != nil {
		_, _ = fmt.Fprintln(w, styles.MutedStyle.Render(fmt.Sprintf(
			"mode tags: %d tagged, %d already tagged, %d failed",
			res.ModeTags.Tagged, res.ModeTags.Skipped, res.ModeTags.Failed,
		)))
	}
	if res.Archived != nil {
		_, _ = fmt.Fprintln(w, styles.MutedStyle.Render(fmt.Sprintf("archived %d scratchpad items", res.Archived.Archived)))
	}
	if res.Receipt != nil {
		_, _ = fmt.Fprintln(w, styles.MutedStyle.Render("receipt "+res.Receipt.Log))
	}
	return nil
}

func (cmd *PlanCmd) printBlock(c *cli.Command, block string) error {
	out := block
	if cmd.render {
		width := 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
		rendered, err := styles.RenderMarkdown(block, width)
		if err != nil {
			return fmt.Errorf("render block: %w", err)
		}
		out = rendered
	}
	_, err := fmt.Fprint(c.Root().Writer, out)
	return err
}

type ClearCmd struct {
	flags *Flags
	app   *atlas.App
	daily string
	date  string
}

// NewClearCmd creates a new clear command.
func NewClearCmd(flags *Flags, app *atlas.App) *ClearCmd {
	return &ClearCmd{flags: flags, app: app}
}

// Register adds the clear command to the application.
func (cmd *ClearCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "clear",
		Usage:       "Remove planning tags from every source note",
		UsageText:   "atlas clear [options]",
		Description: "Strips #atlas/today, #atlas/focus, and #atlas/slot tags without writing a new plan.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "date",
				Usage:       "date of the daily note to include (YYYY-MM-DD)",
				Destination: &cmd.date,
			},
			&cli.StringFlag{
				Name:        "daily",
				Usage:       "path to the daily note",
				Destination: &cmd.daily,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ClearCmd) run(ctx context.Context, _ *cli.Command) error {
	opts := atlas.PlanOptions{DailyPath: cmd.daily}
	if cmd.date != "" {
		d, err := time.Parse(dateLayout, cmd.date)
		if err != nil {
			return usageError(fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", cmd.date))
		}
		opts.Date = d
	}

	res, err := cmd.app.Planner.Clear(ctx, opts)
	if err != nil {
		return usageError(err)
	}

	_, _ = fmt.Fprintf(os.Stderr, "%s cleared %d lines in %d of %d files\n",
		styles.SuccessStyle.Render("✔"), res.Lines, len(res.Written), res.Files)
	return nil
}

type ArchiveCmd struct {
	flags *Flags
	app   *atlas.App
}

// NewArchiveCmd creates a new archive command.
func NewArchiveCmd(flags *Flags, app *atlas.App) *ArchiveCmd {
	return &ArchiveCmd{flags: flags, app: app}
}

// Register adds the archive command to the application.
func (cmd *ArchiveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "archive",
		Usage:       "Move completed scratchpad items into the archive note",
		UsageText:   "atlas archive",
		Description: "Backs up the scratchpad, then moves checked items into the scratchpad archive under a timestamped heading.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *ArchiveCmd) run(ctx context.Context, _ *cli.Command) error {
	res, err := cmd.app.Archive.Archive(ctx)
	if err != nil {
		return usageError(err)
	}

	w := os.Stderr
	if res.Archived == 0 {
		_, _ = fmt.Fprintln(w, styles.MutedStyle.Render("nothing to archive"))
		return nil
	}
	_, _ = fmt.Fprintf(w, "%s archived %d items\n", styles.SuccessStyle.Render("✔"), res.Archived)
	if res.Backup != "" {
		_, _ = fmt.Fprintln(w, styles.MutedStyle.Render("backup "+res.Backup))
	}
	return nil
}
