package atlas

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hay-kot/atlas/internal/core/config"
)

var day = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

// fakeModel implements llm.Generator for testing.
type fakeModel struct {
	out     string
	err     error
	prompts []string
}

func (f *fakeModel) Model() string { return "test-model" }

func (f *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

var errModel = errors.New("model crashed")

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// testConfig returns defaults rooted in temporary vault and data dirs.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Vault.Root = t.TempDir()
	return &cfg
}
