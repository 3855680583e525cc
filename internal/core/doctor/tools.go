package doctor

import (
	"context"
	"os/exec"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

// Tool is an external binary atlas shells out to.
type Tool struct {
	Name string
	Path string
	// Required tools fail the check when missing; others warn.
	Required bool
	// Purpose is shown when the tool is missing.
	Purpose string
}

// DefaultTools lists the binaries used by planning, classification, and import.
func DefaultTools() []Tool {
	return []Tool{
		{Name: "ollama", Required: true, Purpose: "classify and --mode-tag-model"},
		{Name: "pdftotext", Purpose: "PDF text extraction"},
		{Name: "pdftoppm", Purpose: "OCR fallback for scanned PDFs"},
		{Name: "tesseract", Purpose: "OCR fallback for scanned PDFs"},
		{Name: "textutil", Purpose: "RTF and DOC extraction (macOS)"},
		{Name: "osascript", Purpose: "DEVONthink import (macOS)"},
	}
}

// ToolsCheck verifies that external tools are available on $PATH.
type ToolsCheck struct {
	tools []Tool
}

// NewToolsCheck creates a new tools check.
func NewToolsCheck(tools []Tool) *ToolsCheck {
	return &ToolsCheck{tools: tools}
}

func (c *ToolsCheck) Name() string {
	return ToolsName
}

func (c *ToolsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	for _, tool := range c.tools {
		bin := tool.Path
		if bin == "" {
			bin = tool.Name
		}

		path, err := lookPathFunc(bin)
		if err == nil {
			result.Items = append(result.Items, CheckItem{
				Label:  tool.Name,
				Status: StatusPass,
				Detail: path,
			})
			continue
		}

		status := StatusWarn
		if tool.Required {
			status = StatusFail
		}
		detail := "not found on PATH"
		if tool.Purpose != "" {
			detail += " (needed for " + tool.Purpose + ")"
		}
		result.Items = append(result.Items, CheckItem{
			Label:  tool.Name,
			Status: status,
			Detail: detail,
		})
	}

	return result
}
