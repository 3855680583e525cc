package classify

import (
	_ "embed"
	"path/filepath"
	"strings"

	"github.com/hay-kot/atlas/pkg/tmpl"
)

// DefaultMaxChars bounds the document text placed in a prompt.
const DefaultMaxChars = 18000

// TruncatedMarker follows content cut to the character limit.
const TruncatedMarker = "\n\n[TRUNCATED]"

//go:embed prompt.tmpl
var defaultPrompt string

// DefaultPrompt returns the built-in prompt template.
func DefaultPrompt() string { return defaultPrompt }

// PromptData is the template input.
type PromptData struct {
	Filename      string
	Extension     string
	Content       string
	Domains       []string
	ArtifactTypes []string
}

// NewPromptData trims and truncates content for path. maxChars <= 0 uses
// DefaultMaxChars.
func NewPromptData(s Schema, path, content string, maxChars int) PromptData {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	content = strings.TrimSpace(content)
	if r := []rune(content); len(r) > maxChars {
		content = string(r[:maxChars]) + TruncatedMarker
	}
	return PromptData{
		Filename:      filepath.Base(path),
		Extension:     strings.TrimPrefix(filepath.Ext(path), "."),
		Content:       content,
		Domains:       s.Domains,
		ArtifactTypes: s.ArtifactTypes,
	}
}

// RenderPrompt fills a prompt template.
func RenderPrompt(template string, data PromptData) (string, error) {
	return tmpl.Render(template, data)
}
