package atlas

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/hay-kot/atlas/internal/core/config"
	"github.com/hay-kot/atlas/internal/core/doctor"
	"github.com/hay-kot/atlas/internal/core/logging"
)

// DoctorService runs health checks on the atlas setup.
type DoctorService struct {
	config *config.Config
}

// NewDoctorService creates a new DoctorService.
func NewDoctorService(cfg *config.Config) *DoctorService {
	return &DoctorService{config: cfg}
}

// CheckGroups are the names accepted by DoctorOptions.Only.
var CheckGroups = []string{"config", "vault", "data", "tools"}

// DoctorOptions selects what the doctor runs.
type DoctorOptions struct {
	ConfigPath string
	// Autofix creates missing data directories before the checks run.
	Autofix bool
	// Only limits the run to these groups. Empty runs every group.
	Only []string
}

// RunChecks executes the selected checks and returns their results.
func (d *DoctorService) RunChecks(ctx context.Context, opts DoctorOptions) []doctor.Result {
	data := doctor.NewPathsCheck(doctor.DataName, d.dataPaths())
	if opts.Autofix && wants(opts.Only, "data") {
		created, err := data.Fix()
		log := logging.ComponentCtx(ctx, "doctor")
		for _, p := range created {
			log.Info().Str("path", p).Msg("created directory")
		}
		if err != nil {
			log.Error().Err(err).Msg("autofix failed")
		}
	}

	groups := []struct {
		name  string
		check doctor.Check
	}{
		{"config", doctor.NewConfigCheck(d.config, opts.ConfigPath)},
		{"vault", doctor.NewPathsCheck(doctor.VaultName, d.vaultPaths())},
		{"data", data},
		{"tools", doctor.NewToolsCheck(d.tools())},
	}

	checks := make([]doctor.Check, 0, len(groups))
	for _, g := range groups {
		if wants(opts.Only, g.name) {
			checks = append(checks, g.check)
		}
	}
	return doctor.RunAll(ctx, checks)
}

func wants(only []string, group string) bool {
	return len(only) == 0 || slices.Contains(only, group)
}

func (d *DoctorService) vaultPaths() []doctor.Path {
	v, err := d.config.VaultLayout()
	if err != nil {
		return nil
	}
	return []doctor.Path{
		{Label: "root", Path: v.Root, Kind: doctor.Dir, Required: true},
		{Label: "daily_dir", Path: filepath.Join(v.Root, v.DailyDir), Kind: doctor.Dir, Required: true},
		{Label: "scratchpad", Path: v.ScratchpadPath(), Kind: doctor.File, Required: true},
		{Label: "scratchpad_archive", Path: d.config.ScratchpadArchivePath(), Kind: doctor.File},
	}
}

func (d *DoctorService) dataPaths() []doctor.Path {
	c := d.config.Classifier
	dir := func(label, p string) doctor.Path {
		return doctor.Path{Label: label, Path: p, Kind: doctor.Dir, Create: true}
	}
	return []doctor.Path{
		dir("data_dir", d.config.DataDir),
		dir("logs", d.config.LogsDir()),
		dir("backups", d.config.BackupsDir()),
		dir("inbox", d.config.ClassifierDir(c.InboxDir)),
		dir("ready", d.config.ClassifierDir(c.ReadyDir)),
		dir("review", d.config.ClassifierDir(c.ReviewDir)),
		dir("imported", d.config.ClassifierDir(c.ImportedDir)),
		dir("classifier_logs", d.config.ClassifierDir(c.LogDir)),
	}
}

func (d *DoctorService) tools() []doctor.Tool {
	t := d.config.Classifier.Tools
	paths := map[string]string{
		"ollama":    d.config.Classifier.OllamaPath,
		"pdftotext": t.PDFToText,
		"pdftoppm":  t.PDFToPPM,
		"tesseract": t.Tesseract,
		"textutil":  t.Textutil,
		"osascript": t.Osascript,
	}

	tools := doctor.DefaultTools()
	for i := range tools {
		tools[i].Path = paths[tools[i].Name]
	}
	return tools
}
