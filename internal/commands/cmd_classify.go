package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/atlas/internal/atlas"
	"github.com/hay-kot/atlas/internal/core/classify"
	"github.com/hay-kot/atlas/internal/core/styles"
	"github.com/hay-kot/atlas/pkg/iojson"
)

type ClassifyCmd struct {
	flags  *Flags
	app    *atlas.App
	format string

	// validate subcommand
	reader iojson.FileReader[classify.Raw]
	stem   string
}

// NewClassifyCmd creates a new classify command.
func NewClassifyCmd(flags *Flags, app *atlas.App) *ClassifyCmd {
	return &ClassifyCmd{flags: flags, app: app}
}

// Register adds the classify command to the application.
func (cmd *ClassifyCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "classify",
		Usage:     "Classify documents and write sidecar records",
		UsageText: "atlas classify [options] <file>...",
		Description: `Extracts text from each file, asks the local model for a record, checks it
against the configured schema, and writes <file>.atlas.json next to it. The
pair is then moved to the ready or review folder.

Exit codes: 0 when every file is ready for import, 10 when any file needs
review, 2 for usage errors, and 1 for anything unexpected.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
		},
		Action:        cmd.run,
		ShellComplete: InboxFileCompleter(cmd.app),
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Check a record against the schema",
				UsageText:   "atlas classify validate [-f record.json]",
				Description: "Reads a record from a file or stdin, coerces it, and prints the result with the violations found.",
				Flags: []cli.Flag{
					cmd.reader.Flag(),
					&cli.StringFlag{
						Name:        "stem",
						Usage:       "title used when the record has none",
						Value:       "untitled",
						Destination: &cmd.stem,
					},
				},
				Action: cmd.runValidate,
			},
		},
	})

	return app
}

func (cmd *ClassifyCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() == 0 {
		return cli.Exit("at least one file is required", classify.ExitUsage)
	}

	code := classify.ExitReady
	results := make([]atlas.ClassifyResult, 0, c.Args().Len())
	for _, path := range c.Args().Slice() {
		res, err := cmd.app.Classifier.Classify(ctx, path)
		if err != nil {
			if errors.Is(err, atlas.ErrNotAFile) {
				return cli.Exit(err.Error(), classify.ExitUsage)
			}
			return cli.Exit(err.Error(), classify.ExitUnexpected)
		}
		results = append(results, res)
		if res.ExitCode() != classify.ExitReady {
			code = res.ExitCode()
		}
	}

	if cmd.format == "json" {
		if err := iojson.WriteWith(c.Root().Writer, os.Stderr, results); err != nil {
			return err
		}
	} else {
		cmd.outputText(results)
	}

	if code != classify.ExitReady {
		return cli.Exit("", code)
	}
	return nil
}

func (cmd *ClassifyCmd) outputText(results []atlas.ClassifyResult) {
	w := os.Stderr
	for _, res := range results {
		badge := styles.ReadyBadgeStyle.Render("READY")
		if !res.Dest.IsReady() {
			badge = styles.ReviewBadgeStyle.Render("REVIEW")
		}

		_, _ = fmt.Fprintf(w, "%s %s %s\n", badge, filepath.Base(res.File),
			styles.MutedStyle.Render(fmt.Sprintf("%s %.2f", res.Record.Domain, res.Record.Confidence)))
		if res.Record.Reason != "" {
			_, _ = fmt.Fprintf(w, "  %s\n", styles.MutedStyle.Render(res.Record.Reason))
		}
		_, _ = fmt.Fprintf(w, "  %s\n", styles.MutedStyle.Render("→ "+res.Moved))
	}
}

func (cmd *ClassifyCmd) runValidate(_ context.Context, c *cli.Command) error {
	raw, err := cmd.reader.Read()
	if err != nil {
		return cli.Exit(err.Error(), classify.ExitUsage)
	}

	v := cmd.app.Classifier.ValidateRecord(raw, cmd.stem)
	out := struct {
		Valid      bool            `json:"valid"`
		Violations []string        `json:"violations,omitempty"`
		Record     classify.Record `json:"record"`
	}{
		Valid:      !v.Forced,
		Violations: v.Violations,
		Record:     v.Record,
	}
	if err := iojson.WriteWith(c.Root().Writer, os.Stderr, out); err != nil {
		return err
	}

	if v.Record.NeedsReview {
		return cli.Exit("", classify.ExitNeedsReview)
	}
	return nil
}
