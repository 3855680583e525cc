// Package llm runs prompts against a local text-generation model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hay-kot/atlas/pkg/executil"
)

// DefaultOllamaPath is the ollama binary looked up on PATH.
const DefaultOllamaPath = "ollama"

// ErrEmptyResponse is returned when the model prints nothing.
var ErrEmptyResponse = errors.New("empty model response")

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Ollama runs `ollama run <model>` with the prompt on stdin.
type Ollama struct {
	exec  executil.Executor
	path  string
	model string
}

// NewOllama returns a generator for model. An empty path uses DefaultOllamaPath.
func NewOllama(exec executil.Executor, path, model string) *Ollama {
	if path == "" {
		path = DefaultOllamaPath
	}
	return &Ollama{exec: exec, path: path, model: model}
}

// Model returns the configured model name.
func (o *Ollama) Model() string { return o.model }

// Generate returns the trimmed model output.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	if o.model == "" {
		return "", fmt.Errorf("ollama: no model configured")
	}

	out, err := o.exec.RunInput(ctx, prompt, o.path, "run", o.model)
	if err != nil {
		return "", fmt.Errorf("ollama run %s: %w", o.model, err)
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
