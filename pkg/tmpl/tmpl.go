// Package tmpl provides template rendering utilities for model prompts.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// truncate cuts s to at most n runes, appending marker when anything was cut.
func truncate(n int, marker, s string) string {
	r := []rune(s)
	if n < 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + marker
}

// bullets renders one "- item" line per element.
func bullets(items []string) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(it)
	}
	return b.String()
}

var funcs = template.FuncMap{
	"join":     strings.Join,
	"lower":    strings.ToLower,
	"upper":    strings.ToUpper,
	"trim":     strings.TrimSpace,
	"truncate": truncate,
	"bullets":  bullets,
}

// Render executes a Go template string with the given data.
// Returns an error if the template is invalid or references undefined keys.
//
// Available template functions:
//   - join: Join string slice with separator (e.g., join .Domains ", ")
//   - lower, upper, trim: string helpers
//   - truncate: Cut to N runes with a marker (e.g., truncate 100 "..." .Content)
//   - bullets: One "- item" line per slice element
func Render(tmpl string, data any) (string, error) {
	t, err := template.New("").Funcs(funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
