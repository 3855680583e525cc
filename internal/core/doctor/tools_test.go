package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubLookPath(t *testing.T, missing ...string) {
	t.Helper()
	orig := lookPathFunc
	t.Cleanup(func() { lookPathFunc = orig })

	lookPathFunc = func(file string) (string, error) {
		for _, m := range missing {
			if file == m {
				return "", &exec.Error{Name: file, Err: fmt.Errorf("not found")}
			}
		}
		return "/usr/bin/" + file, nil
	}
}

func TestToolsCheck_AllPresent(t *testing.T) {
	stubLookPath(t)

	result := NewToolsCheck(DefaultTools()).Run(context.Background())

	assert.Equal(t, "Tools", result.Name)
	require.Len(t, result.Items, 6)
	for _, item := range result.Items {
		assert.Equal(t, StatusPass, item.Status, item.Label)
		assert.Equal(t, "/usr/bin/"+item.Label, item.Detail)
	}
}

func TestToolsCheck_Missing(t *testing.T) {
	stubLookPath(t, "ollama", "tesseract")

	result := NewToolsCheck(DefaultTools()).Run(context.Background())

	byLabel := map[string]CheckItem{}
	for _, item := range result.Items {
		byLabel[item.Label] = item
	}

	assert.Equal(t, StatusFail, byLabel["ollama"].Status, "required tool fails")
	assert.Equal(t, StatusWarn, byLabel["tesseract"].Status, "optional tool warns")
	assert.Contains(t, byLabel["tesseract"].Detail, "OCR fallback")
	assert.Equal(t, StatusPass, byLabel["pdftotext"].Status)
}

func TestToolsCheck_CustomPath(t *testing.T) {
	stubLookPath(t, "ollama")

	result := NewToolsCheck([]Tool{{Name: "ollama", Path: "/opt/ollama/bin/ollama", Required: true}}).Run(context.Background())

	require.Len(t, result.Items, 1)
	assert.Equal(t, StatusPass, result.Items[0].Status)
	assert.Equal(t, "ollama", result.Items[0].Label)
}

func TestSummary(t *testing.T) {
	stubLookPath(t, "ollama", "textutil")

	results := RunAll(context.Background(), []Check{NewToolsCheck(DefaultTools())})
	passed, warned, failed := Summary(results)

	assert.Equal(t, 4, passed)
	assert.Equal(t, 1, warned)
	assert.Equal(t, 1, failed)
	assert.Equal(t, "fail", results[0].Items[0].StatusStr)
}
