// Package vault locates notes inside a markdown vault and reads and writes
// them.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hay-kot/atlas/internal/core/notes"
)

// Fallback backlinks used when a note lives outside the vault root.
const (
	FallbackDailyLink   = "[[Daily Note|daily]]"
	FallbackScratchLink = "[[Scratchpad|scratch]]"
)

// Backlink labels.
const (
	DailyLabel   = "daily"
	ScratchLabel = "scratch"
	SourceLabel  = "source"
)

var archiveRe = regexp.MustCompile(`(?i)(^|/)(?:_archive|archive)(/|$)`)

// ErrOutsideVault is returned when a path or link resolves outside the root.
var ErrOutsideVault = errors.New("path is outside the vault")

// Vault describes the note layout.
type Vault struct {
	Root string
	// DailyDir holds notes named YYYY-MM-DD.md. Relative paths resolve
	// against Root.
	DailyDir string
	// Scratchpad is the scratchpad note path.
	Scratchpad string
	// Sources are directories, files, or doublestar patterns relative to Root.
	Sources         []string
	ExcludeArchived bool
}

func (v Vault) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(v.Root, p)
}

// DailyPath returns the daily note for a day.
func (v Vault) DailyPath(day time.Time) string {
	return filepath.Join(v.abs(v.DailyDir), day.Format(notes.DateLayout)+".md")
}

// ScratchpadPath returns the absolute scratchpad path.
func (v Vault) ScratchpadPath() string {
	return v.abs(v.Scratchpad)
}

// Rel returns p relative to the root in slash form without the .md suffix.
func (v Vault) Rel(p string) (string, error) {
	rel, err := filepath.Rel(v.Root, v.abs(p))
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", ErrOutsideVault
	}
	return strings.TrimSuffix(rel, ".md"), nil
}

// Backlink formats a wikilink with an alias label.
func Backlink(target, label string) string {
	return "[[" + target + "|" + label + "]]"
}

// DailyBacklink links to the daily note at p.
func (v Vault) DailyBacklink(p string) string {
	rel, err := v.Rel(p)
	if err != nil {
		return FallbackDailyLink
	}
	return Backlink(rel, DailyLabel)
}

// ScratchBacklink links to the scratchpad.
func (v Vault) ScratchBacklink() string {
	rel, err := v.Rel(v.ScratchpadPath())
	if err != nil {
		return FallbackScratchLink
	}
	return Backlink(rel, ScratchLabel)
}

// NotePath resolves a wikilink target such as "Calendar/Notes/2025-01-10" to
// its file.
func (v Vault) NotePath(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("empty link")
	}
	if !strings.HasSuffix(strings.ToLower(link), ".md") {
		link += ".md"
	}

	p := filepath.Join(v.Root, filepath.FromSlash(link))
	if _, err := v.Rel(p); err != nil {
		return "", fmt.Errorf("resolve %q: %w", link, err)
	}
	return p, nil
}

// IsHidden reports whether any segment of the slash path starts with a dot.
func IsHidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

// IsArchived reports whether the slash path passes through an archive folder.
func IsArchived(rel string) bool {
	return archiveRe.MatchString(rel)
}

// Discover expands the configured sources into markdown files. Missing
// sources are skipped. Results keep source order without duplicates.
func (v Vault) Discover() ([]string, error) {
	return v.discover(v.Sources)
}

// DiscoverWith is Discover over the configured sources plus extra paths.
func (v Vault) DiscoverWith(extra ...string) ([]string, error) {
	sources := append(append([]string(nil), v.Sources...), extra...)
	return v.discover(sources)
}

func (v Vault) discover(sources []string) ([]string, error) {
	fsys := os.DirFS(v.Root)
	seen := make(map[string]struct{})
	var out []string

	add := func(rel string) {
		if !strings.HasSuffix(strings.ToLower(rel), ".md") {
			return
		}
		if IsHidden(rel) || (v.ExcludeArchived && IsArchived(rel)) {
			return
		}
		if _, ok := seen[rel]; ok {
			return
		}
		seen[rel] = struct{}{}
		out = append(out, filepath.Join(v.Root, filepath.FromSlash(rel)))
	}

	for _, src := range sources {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		if filepath.IsAbs(src) {
			rel, err := v.Rel(src)
			if err != nil {
				continue
			}
			if strings.HasSuffix(strings.ToLower(src), ".md") {
				rel += ".md"
			}
			src = rel
		}
		src = path.Clean(filepath.ToSlash(src))

		pattern := src
		if !hasMeta(src) {
			info, err := fs.Stat(fsys, src)
			switch {
			case err != nil:
				continue
			case !info.IsDir():
				add(src)
				continue
			case src == ".":
				pattern = "**/*.md"
			default:
				pattern = src + "/**/*.md"
			}
		}

		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			add(m)
		}
	}

	return out, nil
}

func hasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// Read returns the note text. A missing file is reported with fs.ErrNotExist.
func Read(p string) (string, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write replaces the note through a temporary file, keeping the existing mode.
func Write(p, text string) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(p); err == nil {
		mode = info.Mode().Perm()
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create note dir: %w", err)
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), mode); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
