package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/atlas/internal/atlas"
	"github.com/hay-kot/atlas/internal/core/styles"
	"github.com/hay-kot/atlas/pkg/iojson"
)

type ImportCmd struct {
	flags  *Flags
	app    *atlas.App
	format string
}

// NewImportCmd creates a new import command.
func NewImportCmd(flags *Flags, app *atlas.App) *ImportCmd {
	return &ImportCmd{flags: flags, app: app}
}

// Register adds the import command to the application.
func (cmd *ImportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "import",
		Usage:     "Import classified documents into DEVONthink",
		UsageText: "atlas import [options] [file-or-dir]",
		Description: `Imports each document that has a sidecar record, tags it from the record,
writes the DEVONthink UUID back into the sidecar, and moves the pair to the
imported folder. Defaults to the ready folder.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ImportCmd) run(ctx context.Context, c *cli.Command) error {
	sum, err := cmd.app.Importer.Import(ctx, c.Args().First())

	if cmd.format == "json" {
		if werr := iojson.WriteWith(c.Root().Writer, os.Stderr, sum.Items); werr != nil {
			return werr
		}
	} else {
		w := os.Stderr
		for _, item := range sum.Items {
			if item.Skip != "" {
				_, _ = fmt.Fprintf(w, "%s %s %s\n", styles.WarningStyle.Render("●"), filepath.Base(item.File), styles.MutedStyle.Render(item.Skip))
				continue
			}
			_, _ = fmt.Fprintf(w, "%s %s %s\n", styles.SuccessStyle.Render("✔"), filepath.Base(item.File), styles.MutedStyle.Render(item.UUID))
		}
		_, _ = fmt.Fprintln(w, styles.MutedStyle.Render(fmt.Sprintf("%d imported, %d skipped", sum.Imported(), sum.Skipped())))
	}

	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}
