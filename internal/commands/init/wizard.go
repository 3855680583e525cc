// Package initcmd implements the first-run setup wizard.
package initcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/hay-kot/atlas/internal/core/config"
	"github.com/hay-kot/atlas/internal/core/doctor"
	"github.com/hay-kot/atlas/internal/core/styles"
)

// WizardOptions configures the wizard behavior.
type WizardOptions struct {
	ConfigPath string
	DataDir    string
	Yes        bool // skip prompts, use defaults
	Force      bool // overwrite existing config
	VaultRoot  string
	Out        io.Writer
}

// Wizard orchestrates the init process.
type Wizard struct {
	opts WizardOptions
}

// NewWizard creates a new init wizard.
func NewWizard(opts WizardOptions) *Wizard {
	if opts.Out == nil {
		opts.Out = os.Stderr
	}
	return &Wizard{opts: opts}
}

// Run executes the wizard.
func (w *Wizard) Run(ctx context.Context) error {
	if ConfigExists(w.opts.ConfigPath) && !w.opts.Force {
		if w.opts.Yes {
			return fmt.Errorf("config exists at %s; use --force to overwrite", w.opts.ConfigPath)
		}

		var overwrite bool
		err := huh.NewConfirm().
			Title("Config file already exists").
			Description(w.opts.ConfigPath + "\nOverwrite? (a backup will be created)").
			Value(&overwrite).
			Run()
		if err != nil {
			return err
		}
		if !overwrite {
			w.info("Init cancelled")
			return nil
		}
	}

	opts := w.defaults()
	if !w.opts.Yes {
		if err := w.promptUser(&opts); err != nil {
			return err
		}
	}
	if opts.VaultRoot == "" {
		return errors.New("a vault root is required; pass --vault or answer the prompt")
	}
	opts.VaultRoot = expandHome(opts.VaultRoot)

	content, err := GenerateConfig(opts)
	if err != nil {
		return err
	}

	backupPath, err := BackupConfig(w.opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("backup config: %w", err)
	}
	if backupPath != "" {
		w.success("Backed up config to: " + backupPath)
	}

	if err := WriteConfig(content, w.opts.ConfigPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	w.success("Created config: " + w.opts.ConfigPath)

	cfg, err := config.Load(w.opts.ConfigPath, w.opts.DataDir)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	w.printCheck(doctor.NewConfigCheck(cfg, w.opts.ConfigPath).Run(ctx))
	w.printNextSteps()
	return nil
}

func (w *Wizard) defaults() ConfigOptions {
	cfg := config.DefaultConfig()
	return ConfigOptions{
		VaultRoot:       w.opts.VaultRoot,
		DailyDir:        cfg.Vault.DailyDir,
		Scratchpad:      cfg.Vault.Scratchpad,
		ClassifierModel: cfg.Classifier.Model,
	}
}

func (w *Wizard) promptUser(opts *ConfigOptions) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Vault root").
				Description("Directory of the Obsidian vault holding your daily notes").
				Value(&opts.VaultRoot).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("vault root is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Daily notes folder").
				Description("Relative to the vault root").
				Value(&opts.DailyDir),
			huh.NewInput().
				Title("Scratchpad note").
				Description("Relative to the vault root").
				Value(&opts.Scratchpad),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Classifier model").
				Description("Local model used by 'atlas classify'").
				Value(&opts.ClassifierModel),
			huh.NewInput().
				Title("Mode tag model").
				Description("Leave empty to skip work-mode tagging during 'atlas plan'").
				Value(&opts.ModeTagModel),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	opts.VaultRoot = strings.TrimSpace(opts.VaultRoot)
	opts.ModeTagModel = strings.TrimSpace(opts.ModeTagModel)
	return nil
}

func (w *Wizard) printCheck(result doctor.Result) {
	_, _ = fmt.Fprintln(w.opts.Out)
	_, _ = fmt.Fprintln(w.opts.Out, styles.CommandHeaderStyle.Render(result.Name))
	for _, item := range result.Items {
		var icon string
		switch item.Status {
		case doctor.StatusPass:
			icon = styles.SuccessStyle.Render("✔")
		case doctor.StatusWarn:
			icon = styles.WarningStyle.Render("●")
		case doctor.StatusFail:
			icon = styles.ErrorStyle.Render("✘")
		}

		var detail string
		if item.Detail != "" {
			detail = " " + styles.MutedStyle.Render(item.Detail)
		}
		_, _ = fmt.Fprintf(w.opts.Out, "  %s %s%s\n", icon, item.Label, detail)
	}
}

func (w *Wizard) printNextSteps() {
	_, _ = fmt.Fprintln(w.opts.Out)
	_, _ = fmt.Fprintln(w.opts.Out, styles.CommandHeaderStyle.Render("Next Steps"))
	_, _ = fmt.Fprintln(w.opts.Out, "  1. Run 'atlas doctor --autofix' to create the data folders")
	_, _ = fmt.Fprintln(w.opts.Out, "  2. Run 'atlas plan --stdout' to preview today's plan")
}

func (w *Wizard) success(msg string) {
	_, _ = fmt.Fprintf(w.opts.Out, "%s %s\n", styles.SuccessStyle.Render("✔"), msg)
}

func (w *Wizard) info(msg string) {
	_, _ = fmt.Fprintln(w.opts.Out, styles.MutedStyle.Render(msg))
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
