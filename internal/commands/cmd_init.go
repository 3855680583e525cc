package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	initcmd "github.com/hay-kot/atlas/internal/commands/init"
)

type InitCmd struct {
	flags *Flags
	yes   bool
	force bool
	vault string
}

func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Initialize atlas configuration with an interactive wizard",
		UsageText: "atlas init [options]",
		Description: `Sets up atlas for first-time use with an interactive wizard.

The wizard asks for the vault root, the daily notes folder, the scratchpad,
and the local models, then writes ~/.config/atlas/config.yaml and checks it.

Use --yes with --vault to accept all other defaults without prompts.
Use --force to overwrite existing configuration.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "accept defaults without prompting",
				Destination: &cmd.yes,
			},
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "overwrite existing configuration",
				Destination: &cmd.force,
			},
			&cli.StringFlag{
				Name:        "vault",
				Usage:       "vault root directory",
				Destination: &cmd.vault,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *InitCmd) run(ctx context.Context, _ *cli.Command) error {
	wizard := initcmd.NewWizard(initcmd.WizardOptions{
		ConfigPath: cmd.flags.ConfigPath,
		DataDir:    cmd.flags.DataDir,
		Yes:        cmd.yes,
		Force:      cmd.force,
		VaultRoot:  cmd.vault,
	})
	return wizard.Run(ctx)
}
