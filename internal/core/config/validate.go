package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/hay-kot/criterio"

	"github.com/hay-kot/atlas/internal/core/classify"
	"github.com/hay-kot/atlas/pkg/tmpl"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// prompt template syntax and file accessibility. The configPath argument
// specifies the config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateVault(),
		c.validatePrompt(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Vault.Root == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Vault",
			Message:  "vault.root is not set; plan, clear, and archive will fail",
		})
	}

	if c.Policy.MaxOverdueDays > 0 && len(c.Policy.HighSignalTerms) == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "Policy",
			Item:     "max_overdue_days",
			Message:  "overdue cap is enabled with no high_signal_terms; every old task is dropped",
		})
	}

	for i, r := range c.Classifier.KeywordOverrides {
		for _, d := range r.OnlyFrom {
			if d != "" && !contains(c.Classifier.Domains, d) {
				warnings = append(warnings, ValidationWarning{
					Category: "Classifier",
					Item:     fmt.Sprintf("keyword_overrides[%d]", i),
					Message:  fmt.Sprintf("only_from lists %q which is not a configured domain", d),
				})
			}
		}
	}

	return warnings
}

// validateFileAccess checks config file, data directory, and the model runner.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("classifier.ollama_path", c.Classifier.OllamaPath, executableExists),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// validateVault checks that the vault root and the configured notes exist.
func (c *Config) validateVault() error {
	if c.Vault.Root == "" {
		return nil
	}

	root := expandHome(c.Vault.Root)
	var errs criterio.FieldErrorsBuilder
	if err := isDirectory(root); err != nil {
		return errs.Append("vault.root", err).ToError()
	}
	if err := isDirectory(filepath.Join(root, c.Vault.DailyDir)); err != nil {
		errs = errs.Append("vault.daily_dir", err)
	}
	if _, err := os.Stat(filepath.Join(root, c.Vault.Scratchpad)); err != nil {
		errs = errs.Append("vault.scratchpad", fmt.Errorf("file not found: %s", c.Vault.Scratchpad))
	}
	return errs.ToError()
}

// validatePrompt checks the prompt template renders against sample data.
func (c *Config) validatePrompt() error {
	prompt, err := c.PromptTemplate()
	if err != nil {
		return criterio.NewFieldErrors("classifier.prompt_file", err)
	}
	data := classify.NewPromptData(c.Schema(), "sample.pdf", "sample content", c.Classifier.MaxChars)
	if _, err := tmpl.Render(prompt, data); err != nil {
		return criterio.NewFieldErrors("classifier.prompt_file", fmt.Errorf("template error: %w", err))
	}
	return nil
}

// executableExists validates that the path resolves to an executable.
func executableExists(path string) error {
	if path == "" {
		return nil
	}
	if _, err := exec.LookPath(path); err != nil {
		return fmt.Errorf("executable not found: %s", path)
	}
	return nil
}

func isDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
