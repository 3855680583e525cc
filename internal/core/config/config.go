// Package config handles configuration loading and validation for atlas.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hay-kot/atlas/internal/core/classify"
	"github.com/hay-kot/atlas/internal/core/clock"
	"github.com/hay-kot/atlas/internal/core/extract"
	"github.com/hay-kot/atlas/internal/core/llm"
	"github.com/hay-kot/atlas/internal/core/render"
	"github.com/hay-kot/atlas/internal/core/schedule"
	"github.com/hay-kot/atlas/internal/core/triage"
	"github.com/hay-kot/atlas/internal/core/vault"
)

// ErrNoVault is returned when an operation needs a vault root and none is set.
var ErrNoVault = errors.New("vault.root is not configured")

// Config holds the application configuration.
type Config struct {
	Vault      VaultConfig      `yaml:"vault"`
	Workday    WorkdayConfig    `yaml:"workday"`
	Policy     PolicyConfig     `yaml:"policy"`
	Planner    PlannerConfig    `yaml:"planner"`
	Classifier ClassifierConfig `yaml:"classifier"`
	DataDir    string           `yaml:"-"` // set by caller, not from config file

	configDir string
}

// VaultConfig locates the notes the planner reads and writes.
type VaultConfig struct {
	Root              string   `yaml:"root"`
	DailyDir          string   `yaml:"daily_dir"`          // relative to root
	Scratchpad        string   `yaml:"scratchpad"`         // relative to root
	ScratchpadArchive string   `yaml:"scratchpad_archive"` // relative to root
	TaskSources       []string `yaml:"task_sources"`       // files, dirs, or globs relative to root
	ExcludeArchived   bool     `yaml:"exclude_archived"`
}

// WorkdayConfig bounds the schedulable day. Times are HHMM or H:MM tokens.
type WorkdayConfig struct {
	Start      string `yaml:"start"`
	End        string `yaml:"end"`
	LunchStart string `yaml:"lunch_start"`
	LunchEnd   string `yaml:"lunch_end"`
}

// PolicyConfig tunes block placement and task triage.
type PolicyConfig struct {
	DeepWorkMinutes     []int    `yaml:"deep_work_minutes"`
	AdminMinutes        int      `yaml:"admin_minutes"`
	SocialMinutes       int      `yaml:"social_minutes"`
	SocialMinWindow     int      `yaml:"social_min_window"`
	QuickWinUnit        int      `yaml:"quick_win_unit"`
	FocusSlotMinutes    int      `yaml:"focus_slot_minutes"`
	WorkBlockMaxMinutes int      `yaml:"work_block_max_minutes"`
	StaleOverdueDays    int      `yaml:"stale_overdue_days"`
	MaxOverdueDays      int      `yaml:"max_overdue_days"` // 0 disables the cap
	HighSignalTerms     []string `yaml:"high_signal_terms"`
}

// PlannerConfig holds optional planning behavior.
type PlannerConfig struct {
	// ModeTagModel enables work-mode tagging with the named local model.
	ModeTagModel string `yaml:"mode_tag_model"`
	ScanVault    bool   `yaml:"scan_vault"`
	RunReceipt   bool   `yaml:"run_receipt"`
}

// ClassifierConfig configures document classification and import.
type ClassifierConfig struct {
	Model               string                 `yaml:"model"`
	OllamaPath          string                 `yaml:"ollama_path"`
	PromptFile          string                 `yaml:"prompt_file"`
	InboxDir            string                 `yaml:"inbox_dir"`
	ReadyDir            string                 `yaml:"ready_dir"`
	ReviewDir           string                 `yaml:"review_dir"`
	ImportedDir         string                 `yaml:"imported_dir"`
	LogDir              string                 `yaml:"log_dir"`
	ConfidenceThreshold float64                `yaml:"confidence_threshold"`
	MaxChars            int                    `yaml:"max_chars"`
	PDFPages            int                    `yaml:"pdf_pages"`
	ImportUnsupported   bool                   `yaml:"import_unsupported"`
	Domains             []string               `yaml:"domains"`
	ArtifactTypes       []string               `yaml:"artifact_types"`
	ArtifactAliases     map[string]string      `yaml:"artifact_aliases"`
	KeywordOverrides    []classify.KeywordRule `yaml:"keyword_overrides"`
	// RulesFiles are YAML lists of keyword rules appended after KeywordOverrides.
	RulesFiles []string    `yaml:"rules_files"`
	Tools      ToolsConfig `yaml:"tools"`
}

// ToolsConfig names external binaries.
type ToolsConfig struct {
	Textutil  string `yaml:"textutil"`
	PDFToText string `yaml:"pdftotext"`
	PDFToPPM  string `yaml:"pdftoppm"`
	Tesseract string `yaml:"tesseract"`
	Osascript string `yaml:"osascript"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	sp := schedule.DefaultPolicy()
	tp := triage.DefaultPolicy()
	schema := classify.DefaultSchema()

	return Config{
		Vault: VaultConfig{
			DailyDir:          "Daily Notes",
			Scratchpad:        "Scratchpad.md",
			ScratchpadArchive: "Scratchpad Archive.md",
			ExcludeArchived:   true,
		},
		Workday: WorkdayConfig{
			Start:      clock.Format(sp.DayStart),
			End:        clock.Format(sp.DayEnd),
			LunchStart: clock.Format(sp.LunchStart),
			LunchEnd:   clock.Format(sp.LunchEnd),
		},
		Policy: PolicyConfig{
			DeepWorkMinutes:     sp.DeepWorkMinutes,
			AdminMinutes:        sp.AdminMinutes,
			SocialMinutes:       sp.SocialMinutes,
			SocialMinWindow:     sp.SocialMinWindow,
			QuickWinUnit:        sp.QuickWinUnit,
			FocusSlotMinutes:    sp.FocusSlotMinutes,
			WorkBlockMaxMinutes: render.DefaultWorkBlockMinutes,
			StaleOverdueDays:    tp.StaleDays,
			MaxOverdueDays:      tp.MaxOverdueDays,
			HighSignalTerms:     tp.HighSignalTerms,
		},
		Classifier: ClassifierConfig{
			Model:               "atlas-dt-classifier:latest",
			OllamaPath:          llm.DefaultOllamaPath,
			InboxDir:            "classifier/01_Inbox_To_Classify",
			ReadyDir:            "classifier/02_Ready_For_DEVONthink",
			ReviewDir:           "classifier/03_Needs_Review",
			ImportedDir:         "classifier/04_Imported",
			LogDir:              "classifier/99_Logs",
			ConfidenceThreshold: classify.DefaultThreshold,
			MaxChars:            classify.DefaultMaxChars,
			PDFPages:            extract.DefaultPDFPages,
			ImportUnsupported:   true,
			Domains:             schema.Domains,
			ArtifactTypes:       schema.ArtifactTypes,
			ArtifactAliases:     schema.Aliases,
			KeywordOverrides:    classify.DefaultKeywordRules(),
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
			cfg.configDir = filepath.Dir(configPath)
		}
	}

	if len(cfg.Classifier.RulesFiles) > 0 {
		rules, err := loadRulesFiles(cfg.configDir, cfg.Classifier.RulesFiles)
		if err != nil {
			return nil, err
		}
		cfg.Classifier.KeywordOverrides = append(cfg.Classifier.KeywordOverrides, rules...)
	}

	// Apply defaults for zero values
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	d := DefaultConfig()

	setStr := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	setInt := func(dst *int, def int) {
		if *dst == 0 {
			*dst = def
		}
	}

	setStr(&c.Vault.DailyDir, d.Vault.DailyDir)
	setStr(&c.Vault.Scratchpad, d.Vault.Scratchpad)
	setStr(&c.Vault.ScratchpadArchive, d.Vault.ScratchpadArchive)

	setStr(&c.Workday.Start, d.Workday.Start)
	setStr(&c.Workday.End, d.Workday.End)
	setStr(&c.Workday.LunchStart, d.Workday.LunchStart)
	setStr(&c.Workday.LunchEnd, d.Workday.LunchEnd)

	if len(c.Policy.DeepWorkMinutes) == 0 {
		c.Policy.DeepWorkMinutes = d.Policy.DeepWorkMinutes
	}
	setInt(&c.Policy.AdminMinutes, d.Policy.AdminMinutes)
	setInt(&c.Policy.SocialMinutes, d.Policy.SocialMinutes)
	setInt(&c.Policy.SocialMinWindow, d.Policy.SocialMinWindow)
	setInt(&c.Policy.QuickWinUnit, d.Policy.QuickWinUnit)
	setInt(&c.Policy.FocusSlotMinutes, d.Policy.FocusSlotMinutes)
	setInt(&c.Policy.WorkBlockMaxMinutes, d.Policy.WorkBlockMaxMinutes)
	setInt(&c.Policy.StaleOverdueDays, d.Policy.StaleOverdueDays)

	cl := &c.Classifier
	setStr(&cl.Model, d.Classifier.Model)
	setStr(&cl.OllamaPath, d.Classifier.OllamaPath)
	setStr(&cl.InboxDir, d.Classifier.InboxDir)
	setStr(&cl.ReadyDir, d.Classifier.ReadyDir)
	setStr(&cl.ReviewDir, d.Classifier.ReviewDir)
	setStr(&cl.ImportedDir, d.Classifier.ImportedDir)
	setStr(&cl.LogDir, d.Classifier.LogDir)
	setInt(&cl.MaxChars, d.Classifier.MaxChars)
	setInt(&cl.PDFPages, d.Classifier.PDFPages)
	if cl.ConfidenceThreshold == 0 {
		cl.ConfidenceThreshold = d.Classifier.ConfidenceThreshold
	}
	if len(cl.Domains) == 0 {
		cl.Domains = d.Classifier.Domains
	}
	if len(cl.ArtifactTypes) == 0 {
		cl.ArtifactTypes = d.Classifier.ArtifactTypes
	}
	if cl.ArtifactAliases == nil {
		cl.ArtifactAliases = d.Classifier.ArtifactAliases
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if _, err := c.SchedulePolicy(); err != nil {
		return err
	}

	for _, m := range c.Policy.DeepWorkMinutes {
		if m <= 0 {
			return fmt.Errorf("policy.deep_work_minutes must be positive, got %d", m)
		}
	}
	if c.Policy.FocusSlotMinutes < 1 {
		return fmt.Errorf("policy.focus_slot_minutes must be at least 1")
	}
	if c.Policy.QuickWinUnit < 1 {
		return fmt.Errorf("policy.quick_win_unit must be at least 1")
	}
	if c.Policy.WorkBlockMaxMinutes < c.Policy.FocusSlotMinutes {
		return fmt.Errorf("policy.work_block_max_minutes must be at least focus_slot_minutes")
	}
	if c.Policy.MaxOverdueDays < 0 {
		return fmt.Errorf("policy.max_overdue_days cannot be negative")
	}
	if c.Policy.MaxOverdueDays > 0 && c.Policy.MaxOverdueDays < c.Policy.StaleOverdueDays {
		return fmt.Errorf("policy.max_overdue_days must be 0 or at least stale_overdue_days")
	}

	cl := c.Classifier
	if cl.ConfidenceThreshold < 0 || cl.ConfidenceThreshold > 1 {
		return fmt.Errorf("classifier.confidence_threshold must be between 0 and 1")
	}
	if cl.MaxChars < 1 {
		return fmt.Errorf("classifier.max_chars must be at least 1")
	}
	if cl.PDFPages < 1 {
		return fmt.Errorf("classifier.pdf_pages must be at least 1")
	}
	if !contains(cl.Domains, classify.FallbackDomain) {
		return fmt.Errorf("classifier.domains must include %q", classify.FallbackDomain)
	}

	for i, r := range cl.KeywordOverrides {
		if err := validateRule(r); err != nil {
			return fmt.Errorf("classifier.keyword_overrides[%d]: %w", i, err)
		}
		if !contains(cl.Domains, r.Domain) {
			return fmt.Errorf("classifier.keyword_overrides[%d]: unknown domain %q", i, r.Domain)
		}
	}

	return nil
}

func validateRule(r classify.KeywordRule) error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Domain == "" {
		return fmt.Errorf("rule %q: domain is required", r.Name)
	}
	if len(r.Keywords) == 0 {
		return fmt.Errorf("rule %q: keywords are required", r.Name)
	}
	return nil
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// SchedulePolicy builds the placement policy from the workday and policy sections.
func (c *Config) SchedulePolicy() (schedule.Policy, error) {
	var p schedule.Policy
	fields := []struct {
		name string
		tok  string
		dst  *int
	}{
		{"workday.start", c.Workday.Start, &p.DayStart},
		{"workday.end", c.Workday.End, &p.DayEnd},
		{"workday.lunch_start", c.Workday.LunchStart, &p.LunchStart},
		{"workday.lunch_end", c.Workday.LunchEnd, &p.LunchEnd},
	}
	for _, f := range fields {
		m, err := clock.Parse(f.tok)
		if err != nil {
			return p, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = m
	}
	if p.DayEnd <= p.DayStart {
		return p, fmt.Errorf("workday.end must be after workday.start")
	}
	if p.LunchEnd < p.LunchStart {
		return p, fmt.Errorf("workday.lunch_end must not be before workday.lunch_start")
	}

	p.DeepWorkMinutes = c.Policy.DeepWorkMinutes
	p.AdminMinutes = c.Policy.AdminMinutes
	p.SocialMinutes = c.Policy.SocialMinutes
	p.SocialMinWindow = c.Policy.SocialMinWindow
	p.QuickWinUnit = c.Policy.QuickWinUnit
	p.FocusSlotMinutes = c.Policy.FocusSlotMinutes
	return p, nil
}

// TriagePolicy builds the tiering policy.
func (c *Config) TriagePolicy() triage.Policy {
	return triage.Policy{
		StaleDays:       c.Policy.StaleOverdueDays,
		MaxOverdueDays:  c.Policy.MaxOverdueDays,
		HighSignalTerms: c.Policy.HighSignalTerms,
	}
}

// VaultLayout returns the vault with configured paths.
func (c *Config) VaultLayout() (vault.Vault, error) {
	if c.Vault.Root == "" {
		return vault.Vault{}, ErrNoVault
	}
	return vault.Vault{
		Root:            expandHome(c.Vault.Root),
		DailyDir:        c.Vault.DailyDir,
		Scratchpad:      c.Vault.Scratchpad,
		Sources:         c.Vault.TaskSources,
		ExcludeArchived: c.Vault.ExcludeArchived,
	}, nil
}

// ScratchpadArchivePath is the absolute path of the archive note.
func (c *Config) ScratchpadArchivePath() string {
	return resolve(expandHome(c.Vault.Root), c.Vault.ScratchpadArchive)
}

// Schema returns the classifier vocabulary.
func (c *Config) Schema() classify.Schema {
	return classify.Schema{
		Domains:       c.Classifier.Domains,
		ArtifactTypes: c.Classifier.ArtifactTypes,
		Aliases:       c.Classifier.ArtifactAliases,
		Threshold:     c.Classifier.ConfidenceThreshold,
		Fallback:      classify.FallbackDomain,
	}
}

// ExtractTools returns the binaries used for text extraction.
func (c *Config) ExtractTools() extract.Tools {
	t := c.Classifier.Tools
	return extract.Tools{
		Textutil:  t.Textutil,
		PDFToText: t.PDFToText,
		PDFToPPM:  t.PDFToPPM,
		Tesseract: t.Tesseract,
	}
}

// LogsDir is where run receipts are written.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// BackupsDir is where scratchpad backups are written.
func (c *Config) BackupsDir() string {
	return filepath.Join(c.DataDir, "backups")
}

// LogFile is the default structured log file.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "atlas.log")
}

// ClassifierDir resolves a classifier directory against the data directory.
func (c *Config) ClassifierDir(dir string) string {
	return resolve(c.DataDir, expandHome(dir))
}

// TelemetryFile is the classifier decision log.
func (c *Config) TelemetryFile() string {
	return filepath.Join(c.ClassifierDir(c.Classifier.LogDir), "atlas-decisions.jsonl")
}

// PromptTemplate returns the configured prompt template, or the built-in one.
func (c *Config) PromptTemplate() (string, error) {
	if c.Classifier.PromptFile == "" {
		return classify.DefaultPrompt(), nil
	}
	p := resolve(c.configDir, expandHome(c.Classifier.PromptFile))
	data, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("read prompt file: %w", err)
	}
	return string(data), nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

func expandHome(p string) string {
	if p == "~" || (len(p) > 1 && p[:2] == "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}
