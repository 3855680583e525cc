package doctor

import (
	"context"
	"fmt"
	"os"
)

// PathKind is what a checked path is expected to be.
type PathKind int

const (
	Dir PathKind = iota
	File
)

// Path is a location atlas reads or writes.
type Path struct {
	Label string
	Path  string
	Kind  PathKind
	// Required paths fail when missing; others warn.
	Required bool
	// Create marks directories that atlas may create on demand.
	Create bool
}

// PathsCheck verifies that vault and data locations exist and have the
// expected type.
type PathsCheck struct {
	name  string
	paths []Path
}

// NewPathsCheck creates a new paths check.
func NewPathsCheck(name string, paths []Path) *PathsCheck {
	return &PathsCheck{name: name, paths: paths}
}

func (c *PathsCheck) Name() string {
	return c.name
}

func (c *PathsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if len(c.paths) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "paths",
			Status: StatusPass,
			Detail: "none configured",
		})
		return result
	}

	for _, p := range c.paths {
		info, err := os.Stat(p.Path)
		switch {
		case os.IsNotExist(err):
			status := StatusWarn
			if p.Required {
				status = StatusFail
			}
			result.Items = append(result.Items, CheckItem{
				Label:   p.Label,
				Status:  status,
				Detail:  fmt.Sprintf("%s does not exist", p.Path),
				Fixable: p.Create && p.Kind == Dir,
			})
		case err != nil:
			result.Items = append(result.Items, CheckItem{
				Label:  p.Label,
				Status: StatusFail,
				Detail: fmt.Sprintf("inaccessible: %v", err),
			})
		case p.Kind == Dir && !info.IsDir():
			result.Items = append(result.Items, CheckItem{
				Label:  p.Label,
				Status: StatusFail,
				Detail: fmt.Sprintf("%s is not a directory", p.Path),
			})
		case p.Kind == File && info.IsDir():
			result.Items = append(result.Items, CheckItem{
				Label:  p.Label,
				Status: StatusFail,
				Detail: fmt.Sprintf("%s is a directory, not a file", p.Path),
			})
		default:
			result.Items = append(result.Items, CheckItem{
				Label:  p.Label,
				Status: StatusPass,
				Detail: p.Path,
			})
		}
	}

	return result
}

// Fix creates missing directories marked Create. It returns the paths it
// created.
func (c *PathsCheck) Fix() ([]string, error) {
	var created []string
	for _, p := range c.paths {
		if !p.Create || p.Kind != Dir {
			continue
		}
		if _, err := os.Stat(p.Path); !os.IsNotExist(err) {
			continue
		}
		if err := os.MkdirAll(p.Path, 0o755); err != nil {
			return created, fmt.Errorf("create %s: %w", p.Path, err)
		}
		created = append(created, p.Path)
	}
	return created, nil
}
