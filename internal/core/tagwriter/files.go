package tagwriter

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/hay-kot/atlas/internal/core/assign"
	"github.com/hay-kot/atlas/internal/core/notes"
	"github.com/hay-kot/atlas/internal/core/vault"
)

// Result summarizes a pass over source files.
type Result struct {
	// Files is how many files were read.
	Files int
	// Written lists files that were rewritten.
	Written []string
	// Lines counts modified lines across all files.
	Lines int
	// Unresolved lists source links that did not map to an existing file.
	Unresolved []string
}

// Clear removes planning tags from every file. Files without planning tags
// are not rewritten. Missing files are skipped.
func Clear(files []string) (Result, error) {
	var res Result
	for _, f := range files {
		text, err := vault.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return res, fmt.Errorf("read %s: %w", f, err)
		}
		res.Files++

		out, n := ClearText(text)
		if n == 0 {
			continue
		}
		if err := vault.Write(f, out); err != nil {
			return res, fmt.Errorf("write %s: %w", f, err)
		}
		res.Written = append(res.Written, f)
		res.Lines += n
	}
	return res, nil
}

// Resolver maps a backlink target to a file path.
type Resolver func(link string) (string, error)

// Targets maps a source link to the tags wanted on each task key in it.
type Targets map[string]map[string][]string

// Add records tags for the task key in source.
func (t Targets) Add(source, key string, tags []string) {
	m, ok := t[source]
	if !ok {
		m = make(map[string][]string)
		t[source] = m
	}
	m[key] = append(m[key], tags...)
}

// Apply writes each assignment's tags to its source line. Assignments
// without a source backlink are ignored.
func Apply(resolve Resolver, assigned []assign.Assignment) (Result, error) {
	targets := make(Targets)
	for _, a := range assigned {
		if a.Task.Source == "" || len(a.Tags) == 0 {
			continue
		}
		targets.Add(a.Task.Source, notes.Key(a.Task.Text), a.Tags)
	}
	return ApplyTargets(resolve, targets)
}

// ApplyTargets stamps tags onto source lines. Each file is read and written
// once; sources are visited in sorted order.
func ApplyTargets(resolve Resolver, targets Targets) (Result, error) {
	var res Result

	links := make([]string, 0, len(targets))
	for link := range targets {
		links = append(links, link)
	}
	sort.Strings(links)

	for _, link := range links {
		p, err := resolve(link)
		if err != nil {
			res.Unresolved = append(res.Unresolved, link)
			continue
		}

		text, err := vault.Read(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				res.Unresolved = append(res.Unresolved, link)
				continue
			}
			return res, fmt.Errorf("read %s: %w", p, err)
		}
		res.Files++

		out, n := ApplyText(text, targets[link])
		if n == 0 {
			continue
		}
		if err := vault.Write(p, out); err != nil {
			return res, fmt.Errorf("write %s: %w", p, err)
		}
		res.Written = append(res.Written, p)
		res.Lines += n
	}

	return res, nil
}
