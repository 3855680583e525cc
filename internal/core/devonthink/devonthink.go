// Package devonthink imports classified documents into DEVONthink through
// its AppleScript interface.
package devonthink

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hay-kot/atlas/internal/core/classify"
	"github.com/hay-kot/atlas/pkg/executil"
	"github.com/hay-kot/atlas/pkg/iojson"
)

//go:embed import.applescript
var importScript string

// DefaultOsascript is the AppleScript runner looked up on PATH.
const DefaultOsascript = "osascript"

// ReviewTag marks records that still need a human look.
const ReviewTag = "atlas::needs-review"

// MapTags converts a record to hierarchical DEVONthink tags.
func MapTags(rec classify.Record) []string {
	var tags []string
	if rec.Domain != "" {
		tags = append(tags, "domain::"+rec.Domain)
	}
	for i, a := range rec.ArtifactTypes {
		if i >= classify.MaxArtifactTypes {
			break
		}
		if a != "" {
			tags = append(tags, "artifact::"+a)
		}
	}
	for i, c := range rec.Concepts {
		if i >= classify.MaxConcepts {
			break
		}
		if c != "" {
			tags = append(tags, "concept::"+c)
		}
	}
	if rec.NeedsReview {
		tags = append(tags, ReviewTag)
	}
	return tags
}

// Skip reasons.
const (
	SkipNoSidecar = "no sidecar"
	SkipImported  = "already imported"
)

// Item is the outcome for one document.
type Item struct {
	File   string          `json:"file"`
	UUID   string          `json:"uuid,omitempty"`
	Dest   string          `json:"dest,omitempty"`
	Skip   string          `json:"skip,omitempty"`
	Record classify.Record `json:"record"`
}

// Summary collects the outcome of an import run.
type Summary struct {
	Items []Item
}

// Imported counts documents that were imported.
func (s Summary) Imported() int {
	n := 0
	for _, it := range s.Items {
		if it.Skip == "" {
			n++
		}
	}
	return n
}

// Skipped counts documents that were skipped.
func (s Summary) Skipped() int {
	return len(s.Items) - s.Imported()
}

// Importer imports documents with their sidecar records.
type Importer struct {
	exec        executil.Executor
	osascript   string
	importedDir string
	now         func() time.Time
}

// New returns an importer that moves finished pairs into importedDir.
func New(exec executil.Executor, osascript, importedDir string) *Importer {
	if osascript == "" {
		osascript = DefaultOsascript
	}
	return &Importer{exec: exec, osascript: osascript, importedDir: importedDir, now: time.Now}
}

// Targets expands a file or a directory into documents. Directory entries
// that are sidecars or subdirectories are ignored.
func Targets(target string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{target}, nil
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || classify.IsSidecar(e.Name()) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(target, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Run imports every document under target. A document without a sidecar,
// or whose record already has a dt_uuid, is skipped. The first failed
// import stops the run; the summary covers what finished before it.
func (i *Importer) Run(ctx context.Context, target string) (Summary, error) {
	var sum Summary

	files, err := Targets(target)
	if err != nil {
		return sum, fmt.Errorf("list %s: %w", target, err)
	}

	for _, f := range files {
		item, err := i.importOne(ctx, f)
		if err != nil {
			return sum, err
		}
		sum.Items = append(sum.Items, item)
	}
	return sum, nil
}

func (i *Importer) importOne(ctx context.Context, doc string) (Item, error) {
	item := Item{File: doc}
	sidecar := classify.SidecarPath(doc)

	rec, err := iojson.ReadFile[classify.Record](sidecar)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		item.Skip = SkipNoSidecar
		return item, nil
	case err != nil:
		return item, fmt.Errorf("read sidecar for %s: %w", filepath.Base(doc), err)
	}
	item.Record = rec

	if rec.DTUUID != "" {
		item.UUID = rec.DTUUID
		item.Skip = SkipImported
		return item, nil
	}

	uuid, err := i.Import(ctx, doc, MapTags(rec), rec.ProposedTitle)
	if err != nil {
		return item, err
	}
	item.UUID = uuid

	rec.DTUUID = uuid
	rec.DTImportedAt = i.now().Format("2006-01-02T15:04:05")
	item.Record = rec
	if err := iojson.WriteFile(sidecar, rec); err != nil {
		return item, fmt.Errorf("stamp sidecar: %w", err)
	}

	dest, err := i.movePair(doc, sidecar, uuid)
	if err != nil {
		return item, err
	}
	item.Dest = dest
	return item, nil
}

// Import runs the import script for one file and returns the new record UUID.
func (i *Importer) Import(ctx context.Context, path string, tags []string, title string) (string, error) {
	out, err := i.exec.Run(ctx, i.osascript, "-e", importScript, path, strings.Join(tags, "\n"), title)
	if err != nil {
		return "", fmt.Errorf("import %s: %w", filepath.Base(path), err)
	}
	uuid := strings.TrimSpace(string(out))
	if uuid == "" {
		return "", fmt.Errorf("import %s: script returned no uuid", filepath.Base(path))
	}
	return uuid, nil
}

// movePair moves the document and its sidecar into the imported folder.
// Name collisions get "__<uuid>" before the extension.
func (i *Importer) movePair(doc, sidecar, uuid string) (string, error) {
	if err := os.MkdirAll(i.importedDir, 0o755); err != nil {
		return "", fmt.Errorf("create imported dir: %w", err)
	}

	destDoc := freeName(i.importedDir, filepath.Base(doc), uuid)
	destSidecar := freeName(i.importedDir, filepath.Base(sidecar), uuid)

	if err := os.Rename(doc, destDoc); err != nil {
		return "", fmt.Errorf("move %s: %w", filepath.Base(doc), err)
	}
	if err := os.Rename(sidecar, destSidecar); err != nil {
		return "", fmt.Errorf("move %s: %w", filepath.Base(sidecar), err)
	}
	return destDoc, nil
}

func freeName(dir, name, uuid string) string {
	p := filepath.Join(dir, name)
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		return p
	}
	ext := filepath.Ext(name)
	return filepath.Join(dir, strings.TrimSuffix(name, ext)+"__"+uuid+ext)
}
