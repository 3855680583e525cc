// Package archive moves completed checkbox lines out of the scratchpad and
// into an archive note.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hay-kot/atlas/internal/core/vault"
)

var completedRe = regexp.MustCompile(`^\s*-\s*\[\s*[xX]\s*\]\s+`)

// Split separates completed "- [x]" lines from the rest. Lines are
// right-trimmed.
func Split(text string) (kept, completed []string) {
	for _, ln := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		ln = strings.TrimRight(ln, " \t\r")
		if completedRe.MatchString(ln) {
			completed = append(completed, ln)
			continue
		}
		kept = append(kept, ln)
	}
	return kept, completed
}

// Section renders the block appended to the archive note.
func Section(now time.Time, completed []string) string {
	return "## Archived completed items — " + now.Format("2006-01-02 15:04") + "\n\n" +
		strings.TrimRight(strings.Join(completed, "\n"), " \t\r\n") + "\n\n"
}

// Result reports what an archive pass did.
type Result struct {
	Archived int
	Backup   string
}

// Archiver archives completed scratchpad items.
type Archiver struct {
	Scratchpad string
	Archive    string
	BackupDir  string

	now func() time.Time
}

// New returns an archiver for the given scratchpad, archive note, and
// backup directory.
func New(scratchpad, archiveNote, backupDir string) *Archiver {
	return &Archiver{Scratchpad: scratchpad, Archive: archiveNote, BackupDir: backupDir, now: time.Now}
}

// Run moves completed lines. The scratchpad is backed up before it is
// rewritten; nothing is written when there is nothing to archive.
func (a *Archiver) Run() (Result, error) {
	raw, err := vault.Read(a.Scratchpad)
	if err != nil {
		return Result{}, fmt.Errorf("read scratchpad: %w", err)
	}

	kept, completed := Split(raw)
	if len(completed) == 0 {
		return Result{}, nil
	}

	now := a.now()
	res := Result{Archived: len(completed)}

	stem := strings.TrimSuffix(filepath.Base(a.Scratchpad), filepath.Ext(a.Scratchpad))
	res.Backup = filepath.Join(a.BackupDir, fmt.Sprintf("%s.backup.%s%s", stem, now.Format("20060102-150405"), filepath.Ext(a.Scratchpad)))
	if err := os.MkdirAll(a.BackupDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create backup dir: %w", err)
	}
	if err := os.WriteFile(res.Backup, []byte(raw), 0o644); err != nil {
		return Result{}, fmt.Errorf("write backup: %w", err)
	}

	cleaned := strings.TrimRight(strings.Join(kept, "\n"), " \t\r\n") + "\n"
	if err := vault.Write(a.Scratchpad, cleaned); err != nil {
		return Result{}, fmt.Errorf("write scratchpad: %w", err)
	}

	if err := appendFile(a.Archive, Section(now, completed)); err != nil {
		return Result{}, fmt.Errorf("append archive: %w", err)
	}
	return res, nil
}

func appendFile(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
