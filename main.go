package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/atlas/internal/atlas"
	"github.com/hay-kot/atlas/internal/commands"
	"github.com/hay-kot/atlas/internal/core/classify"
	"github.com/hay-kot/atlas/internal/core/config"
	"github.com/hay-kot/atlas/internal/core/logging"
	"github.com/hay-kot/atlas/internal/core/receipt"
	"github.com/hay-kot/atlas/internal/core/styles"
	"github.com/hay-kot/atlas/pkg/executil"
	"github.com/hay-kot/atlas/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	// A .env next to the invocation may carry ATLAS_* settings.
	_ = godotenv.Load()

	var (
		logCloser func()
		atlasApp  = &atlas.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "atlas",
		Usage:     "Plan the day from your notes and file your documents",
		UsageText: "atlas [global options] command [command options]",
		Description: `Atlas reads meetings and tasks from an Obsidian vault, schedules the free
time around the meetings, and writes a plan block into the daily note.

It also classifies documents with a local model, writing a sidecar record
for each, and imports the classified pairs into DEVONthink.

Run 'atlas init' to create a configuration file.
Run 'atlas plan' to build today's plan.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("ATLAS_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/atlas.log)",
				Sources:     cli.EnvVars("ATLAS_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("ATLAS_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("ATLAS_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "theme",
				Usage:       fmt.Sprintf("output color theme (%v)", styles.ThemeNames()),
				Sources:     cli.EnvVars("ATLAS_THEME"),
				Value:       styles.DefaultTheme,
				Destination: &flags.Theme,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; use explicit path or default to <datadir>/atlas.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "atlas.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, cli.Exit(fmt.Sprintf("setup logger: %v", err), classify.ExitUsage)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			palette, ok := styles.GetPalette(flags.Theme)
			if !ok {
				return ctx, cli.Exit(fmt.Sprintf("unknown theme %q", flags.Theme), classify.ExitUsage)
			}
			styles.SetTheme(palette)

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, cli.Exit(fmt.Sprintf("load config: %v", err), classify.ExitUsage)
			}
			flags.Config = cfg

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*atlasApp = *atlas.NewApp(cfg, &executil.RealExecutor{})

			ctx = logging.WithRunID(ctx, receipt.NewRunID())
			if len(c.Args().Slice()) > 0 {
				ctx = logging.WithCommand(ctx, c.Args().First())
			}

			log.Debug().Ctx(ctx).Str("config", flags.ConfigPath).Str("data_dir", cfg.DataDir).Msg("atlas starting")
			return ctx, nil
		},
		// Exit codes are resolved below so the log file is closed first.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewPlanCmd(flags, atlasApp).Register(app)
	app = commands.NewClearCmd(flags, atlasApp).Register(app)
	app = commands.NewArchiveCmd(flags, atlasApp).Register(app)
	app = commands.NewClassifyCmd(flags, atlasApp).Register(app)
	app = commands.NewImportCmd(flags, atlasApp).Register(app)
	app = commands.NewDoctorCmd(flags, atlasApp).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)
	app = commands.NewInitCmd(flags).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		exitCode = classify.ExitUnexpected
		var coder cli.ExitCoder
		if errors.As(runErr, &coder) {
			exitCode = coder.ExitCode()
		}
		if msg := runErr.Error(); msg != "" {
			_, _ = fmt.Fprintln(os.Stderr, msg)
		}
	}

	os.Exit(exitCode)
}
