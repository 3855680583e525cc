package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/atlas/internal/atlas"
	"github.com/hay-kot/atlas/internal/core/classify"
	"github.com/hay-kot/atlas/internal/core/doctor"
	"github.com/hay-kot/atlas/internal/core/styles"
	"github.com/hay-kot/atlas/pkg/iojson"
)

type DoctorCmd struct {
	flags   *Flags
	app     *atlas.App
	format  string
	autofix bool
	only    []string
}

func NewDoctorCmd(flags *Flags, app *atlas.App) *DoctorCmd {
	return &DoctorCmd{flags: flags, app: app}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "doctor",
		Usage:     "Check that plan, classify and import can run",
		UsageText: "atlas doctor [--only config,vault,data,tools] [--autofix] [--format text|json]",
		Description: `Checks the configuration, the vault notes the planner reads, the data
folders the classifier moves files through, and the external tools it runs.
The results are then summarised per command.

Exits 2 when any check fails.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "autofix",
				Usage:       "create missing data directories",
				Destination: &cmd.autofix,
			},
			&cli.StringSliceFlag{
				Name:        "only",
				Usage:       fmt.Sprintf("limit to check groups (%s)", strings.Join(atlas.CheckGroups, ", ")),
				Destination: &cmd.only,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	only, err := parseGroups(cmd.only)
	if err != nil {
		return usageError(err)
	}

	results := cmd.app.Doctor.RunChecks(ctx, atlas.DoctorOptions{
		ConfigPath: cmd.flags.ConfigPath,
		Autofix:    cmd.autofix,
		Only:       only,
	})
	ready := doctor.Assess(results)

	if cmd.format == "json" {
		err = cmd.outputJSON(c.Root().Writer, results, ready)
	} else {
		cmd.outputText(os.Stderr, results, ready)
	}
	if err != nil {
		return err
	}

	if _, _, failed := doctor.Summary(results); failed > 0 {
		return cli.Exit("", classify.ExitUsage)
	}
	return nil
}

// parseGroups accepts comma lists as well as repeated flags.
func parseGroups(raw []string) ([]string, error) {
	var out []string
	for _, r := range raw {
		for _, g := range strings.Split(r, ",") {
			g = strings.ToLower(strings.TrimSpace(g))
			if g == "" {
				continue
			}
			if !slices.Contains(atlas.CheckGroups, g) {
				return nil, fmt.Errorf("unknown check group %q (want %s)", g, strings.Join(atlas.CheckGroups, ", "))
			}
			if !slices.Contains(out, g) {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func (cmd *DoctorCmd) outputJSON(w io.Writer, results []doctor.Result, ready []doctor.Readiness) error {
	passed, warned, failed := doctor.Summary(results)

	out := struct {
		Healthy   bool               `json:"healthy"`
		Summary   summaryJSON        `json:"summary"`
		Readiness []doctor.Readiness `json:"readiness,omitempty"`
		Checks    []doctor.Result    `json:"checks"`
	}{
		Healthy:   failed == 0,
		Summary:   summaryJSON{Passed: passed, Warned: warned, Failed: failed},
		Readiness: ready,
		Checks:    results,
	}

	return iojson.WriteWith(w, os.Stderr, out)
}

type summaryJSON struct {
	Passed int `json:"passed"`
	Warned int `json:"warned"`
	Failed int `json:"failed"`
}

func statusIcon(s doctor.Status) string {
	switch s {
	case doctor.StatusPass:
		return styles.SuccessStyle.Render("✔")
	case doctor.StatusWarn:
		return styles.WarningStyle.Render("●")
	default:
		return styles.ErrorStyle.Render("✘")
	}
}

func (cmd *DoctorCmd) outputText(w io.Writer, results []doctor.Result, ready []doctor.Readiness) {
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, styles.CommandHeaderStyle.Render("Atlas Doctor"))
	_, _ = fmt.Fprintln(w, styles.MutedStyle.Render(strings.Repeat("─", 40)))

	for _, result := range results {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, styles.CommandStyle.Bold(true).Render(result.Name))
		for _, item := range result.Items {
			detail := ""
			if item.Detail != "" {
				detail = " " + styles.MutedStyle.Render(item.Detail)
			}
			_, _ = fmt.Fprintf(w, "  %s %s%s\n", statusIcon(item.Status), item.Label, detail)
		}
	}

	if len(ready) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, styles.CommandStyle.Bold(true).Render("Readiness"))
		for _, rd := range ready {
			state := "ready"
			switch rd.Status {
			case doctor.StatusWarn:
				state = "degraded"
			case doctor.StatusFail:
				state = "blocked"
			}
			_, _ = fmt.Fprintf(w, "  %s atlas %-9s %s\n", statusIcon(rd.Status), rd.Command, styles.MutedStyle.Render(state))
			for _, issue := range rd.Issues {
				_, _ = fmt.Fprintf(w, "      %s\n", styles.MutedStyle.Render(issue))
			}
		}
	}

	passed, warned, failed := doctor.Summary(results)
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
		styles.SuccessStyle.Render(fmt.Sprintf("%d passed", passed)),
		styles.WarningStyle.Render(fmt.Sprintf("%d warnings", warned)),
		styles.ErrorStyle.Render(fmt.Sprintf("%d failed", failed)),
	)

	if fixable := doctor.CountFixable(results); !cmd.autofix && fixable > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, styles.MutedStyle.Render(fmt.Sprintf("Run 'atlas doctor --autofix' to create %d missing folder(s)", fixable)))
	}
}
