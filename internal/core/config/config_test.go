package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/atlas/internal/core/classify"
	"github.com/hay-kot/atlas/internal/core/schedule"
)

func writeTestFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)

	p, err := cfg.SchedulePolicy()
	require.NoError(t, err)
	assert.Equal(t, schedule.DefaultPolicy(), p)

	assert.True(t, cfg.Vault.ExcludeArchived)
	assert.Equal(t, 120, cfg.Policy.WorkBlockMaxMinutes)
	assert.Equal(t, 0.72, cfg.Classifier.ConfidenceThreshold)
	assert.Len(t, cfg.Classifier.KeywordOverrides, 2)
}

func TestLoad_OverlayAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeTestFile(path, `
vault:
  root: /notes
  task_sources: [Projects, "Areas/**/*.md"]
  exclude_archived: false
workday:
  start: "0800"
  end: "17:30"
policy:
  deep_work_minutes: [90]
  max_overdue_days: 0
planner:
  mode_tag_model: llama3
classifier:
  confidence_threshold: 0.8
  keyword_overrides:
    - name: praxis
      domain: PraxisScribe
      keywords: [praxis]
`))

	cfg, err := Load(path, filepath.Join(dir, "data"))
	require.NoError(t, err)

	assert.Equal(t, "/notes", cfg.Vault.Root)
	assert.False(t, cfg.Vault.ExcludeArchived)
	assert.Equal(t, "Daily Notes", cfg.Vault.DailyDir, "unset fields keep defaults")
	assert.Equal(t, "llama3", cfg.Planner.ModeTagModel)

	p, err := cfg.SchedulePolicy()
	require.NoError(t, err)
	assert.Equal(t, 8*60, p.DayStart)
	assert.Equal(t, 17*60+30, p.DayEnd)
	assert.Equal(t, 12*60, p.LunchStart)
	assert.Equal(t, []int{90}, p.DeepWorkMinutes)
	assert.Equal(t, 30, p.AdminMinutes)

	assert.Zero(t, cfg.TriagePolicy().MaxOverdueDays)
	assert.Equal(t, 0.8, cfg.Schema().Threshold)
	require.Len(t, cfg.Classifier.KeywordOverrides, 1, "a configured list replaces the defaults")
	assert.Equal(t, "praxis", cfg.Classifier.KeywordOverrides[0].Name)
}

func TestLoad_RulesFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeTestFile(filepath.Join(dir, "rules", "extra.yaml"), `
- name: doctoral
  domain: ALS_Doctoral
  keywords: [dissertation]
`))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeTestFile(path, "classifier:\n  rules_files: [rules/extra.yaml]\n"))

	cfg, err := Load(path, t.TempDir())
	require.NoError(t, err)

	rules := cfg.Classifier.KeywordOverrides
	require.Len(t, rules, 3)
	assert.Equal(t, "doctoral", rules[2].Name)
}

func TestLoad_MissingRulesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeTestFile(path, "classifier:\n  rules_files: [nope.yaml]\n"))

	_, err := Load(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read rules file")
}

func TestLoad_ParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeTestFile(path, "vault: [not, a, map]\n"))

	_, err := Load(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "no data dir", mutate: func(c *Config) { c.DataDir = "" }, wantErr: "data directory"},
		{name: "bad time", mutate: func(c *Config) { c.Workday.Start = "7am" }, wantErr: "workday.start"},
		{name: "minutes out of range", mutate: func(c *Config) { c.Workday.End = "1875" }, wantErr: "workday.end"},
		{name: "end before start", mutate: func(c *Config) { c.Workday.End = "0600" }, wantErr: "after workday.start"},
		{name: "lunch inverted", mutate: func(c *Config) { c.Workday.LunchEnd = "1100" }, wantErr: "lunch_end"},
		{name: "zero deep block", mutate: func(c *Config) { c.Policy.DeepWorkMinutes = []int{60, 0} }, wantErr: "deep_work_minutes"},
		{name: "work block below slot", mutate: func(c *Config) { c.Policy.WorkBlockMaxMinutes = 15 }, wantErr: "work_block_max_minutes"},
		{name: "negative cap", mutate: func(c *Config) { c.Policy.MaxOverdueDays = -1 }, wantErr: "cannot be negative"},
		{name: "cap below stale", mutate: func(c *Config) { c.Policy.MaxOverdueDays = 10 }, wantErr: "at least stale_overdue_days"},
		{name: "threshold range", mutate: func(c *Config) { c.Classifier.ConfidenceThreshold = 1.5 }, wantErr: "confidence_threshold"},
		{
			name:    "fallback domain required",
			mutate:  func(c *Config) { c.Classifier.Domains = []string{"BOCC"} },
			wantErr: `must include "Personal"`,
		},
		{
			name: "rule without keywords",
			mutate: func(c *Config) {
				c.Classifier.KeywordOverrides = []classify.KeywordRule{{Name: "x", Domain: "BOCC"}}
			},
			wantErr: "keywords are required",
		},
		{
			name: "rule with unknown domain",
			mutate: func(c *Config) {
				c.Classifier.KeywordOverrides = []classify.KeywordRule{{Name: "x", Domain: "Nope", Keywords: []string{"a"}}}
			},
			wantErr: `unknown domain "Nope"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = t.TempDir()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data"
	cfg.Vault.Root = "/vault"

	assert.Equal(t, "/data/logs", cfg.LogsDir())
	assert.Equal(t, "/data/backups", cfg.BackupsDir())
	assert.Equal(t, "/data/atlas.log", cfg.LogFile())
	assert.Equal(t, "/vault/Scratchpad Archive.md", cfg.ScratchpadArchivePath())
	assert.Equal(t, "/data/classifier/01_Inbox_To_Classify", cfg.ClassifierDir(cfg.Classifier.InboxDir))
	assert.Equal(t, "/elsewhere", cfg.ClassifierDir("/elsewhere"))
	assert.Equal(t, "/data/classifier/99_Logs/atlas-decisions.jsonl", cfg.TelemetryFile())

	v, err := cfg.VaultLayout()
	require.NoError(t, err)
	assert.Equal(t, "/vault", v.Root)
	assert.Equal(t, "Daily Notes", v.DailyDir)

	cfg.Vault.Root = ""
	_, err = cfg.VaultLayout()
	require.ErrorIs(t, err, ErrNoVault)
}

func TestPromptTemplate(t *testing.T) {
	cfg := DefaultConfig()
	got, err := cfg.PromptTemplate()
	require.NoError(t, err)
	assert.Equal(t, classify.DefaultPrompt(), got)

	dir := t.TempDir()
	require.NoError(t, writeTestFile(filepath.Join(dir, "prompt.txt"), "Classify {{ .Filename }}"))
	cfg.configDir = dir
	cfg.Classifier.PromptFile = "prompt.txt"

	got, err = cfg.PromptTemplate()
	require.NoError(t, err)
	assert.Equal(t, "Classify {{ .Filename }}", got)
}
