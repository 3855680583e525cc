package initcmd

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigOptions are the answers collected by the wizard.
type ConfigOptions struct {
	VaultRoot       string
	DailyDir        string
	Scratchpad      string
	ClassifierModel string
	ModeTagModel    string
}

// generated is the subset of the configuration the wizard writes. Everything
// else keeps its built-in default.
type generated struct {
	Vault struct {
		Root       string `yaml:"root"`
		DailyDir   string `yaml:"daily_dir"`
		Scratchpad string `yaml:"scratchpad"`
	} `yaml:"vault"`
	Planner struct {
		ModeTagModel string `yaml:"mode_tag_model,omitempty"`
	} `yaml:"planner,omitempty"`
	Classifier struct {
		Model string `yaml:"model"`
	} `yaml:"classifier"`
}

// GenerateConfig renders the config file for the given answers.
func GenerateConfig(opts ConfigOptions) ([]byte, error) {
	var g generated
	g.Vault.Root = opts.VaultRoot
	g.Vault.DailyDir = opts.DailyDir
	g.Vault.Scratchpad = opts.Scratchpad
	g.Planner.ModeTagModel = opts.ModeTagModel
	g.Classifier.Model = opts.ClassifierModel

	body, err := yaml.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return append([]byte("# atlas configuration (generated by atlas init)\n"), body...), nil
}

// WriteConfig writes content to configPath, creating parent directories.
func WriteConfig(content []byte, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(configPath, content, 0o644)
}

// BackupConfig copies an existing config to <path>.bak before it is
// overwritten. Returns "" when there was nothing to back up.
func BackupConfig(configPath string) (string, error) {
	content, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read existing config: %w", err)
	}

	backupPath := configPath + ".bak"
	if err := os.WriteFile(backupPath, content, 0o644); err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	return backupPath, nil
}

// ConfigExists checks if a config file exists at the given path.
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return err == nil
}
