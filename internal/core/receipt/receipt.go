// Package receipt writes human-readable and JSON records of what a planning
// run did.
package receipt

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hay-kot/atlas/internal/core/clock"
	"github.com/hay-kot/atlas/internal/core/modetag"
	"github.com/hay-kot/atlas/internal/core/notes"
	"github.com/hay-kot/atlas/internal/core/schedule"
	"github.com/hay-kot/atlas/pkg/iojson"
	"github.com/hay-kot/atlas/pkg/tmpl"
)

var (
	//go:embed run.tmpl
	runTemplate string
	//go:embed modetags.tmpl
	modeTagsTemplate string
)

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Block is a placed required block.
type Block struct {
	Kind     string `json:"kind"`
	Start    string `json:"start"`
	End      string `json:"end"`
	StartMin int    `json:"start_min"`
	EndMin   int    `json:"end_min"`
}

// BlocksFrom converts scheduled blocks.
func BlocksFrom(bs []schedule.Block) []Block {
	out := make([]Block, 0, len(bs))
	for _, b := range bs {
		out = append(out, Block{
			Kind:     string(b.Kind),
			Start:    clock.Format(b.Start),
			End:      clock.Format(b.End),
			StartMin: b.Start,
			EndMin:   b.End,
		})
	}
	return out
}

// Assignment is a task and the tags written to it.
type Assignment struct {
	Task string   `json:"task"`
	Tags []string `json:"tags"`
}

// ModeTags summarizes the optional mode-tagging pass.
type ModeTags struct {
	Model     string `json:"model"`
	Seen      int    `json:"tasks_seen"`
	Evaluated int    `json:"tasks_evaluated"`
	Tagged    int    `json:"tasks_tagged"`
	Skipped   int    `json:"tasks_skipped"`
	LogPath   string `json:"log_path"`
	JSONPath  string `json:"json_path"`
}

// Run is the receipt for one planning run.
type Run struct {
	RunID          string    `json:"run_id"`
	Timestamp      string    `json:"timestamp"`
	Date           time.Time `json:"-"`
	RunDate        string    `json:"run_date"`
	VaultRoot      string    `json:"vault_root"`
	DailyPath      string    `json:"daily_path"`
	ScratchpadPath string    `json:"scratchpad_path"`
	SourcesCleared []string  `json:"sources_cleared"`

	MeetingsCount    int     `json:"meetings_count"`
	FreeWindowsCount int     `json:"free_windows_count"`
	FocusSlotsCount  int     `json:"focus_slots_count"`
	RequiredBlocks   []Block `json:"required_blocks"`

	TasksSeen      int `json:"tasks_seen"`
	TasksUnique    int `json:"tasks_unique"`
	TasksCapped    int `json:"tasks_capped"`
	TasksDeepCount int `json:"tasks_deep_count"`

	Assignments     []Assignment `json:"assignments"`
	TagChangedFiles int          `json:"tag_changed_files_count"`

	ModeTags *ModeTags `json:"mode_tags,omitempty"`

	Stamp string `json:"-"`
}

// Paths are the files a receipt was written to.
type Paths struct {
	Log  string
	JSON string
}

// Writer writes receipts into a logs directory.
type Writer struct {
	Dir string
	now func() time.Time
}

// NewWriter returns a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, now: time.Now}
}

// WriteRun writes the log and JSON receipt for a run. File names carry a
// timestamp so several runs on one day do not overwrite each other.
func (w *Writer) WriteRun(r Run) (Paths, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create logs dir: %w", err)
	}

	now := w.now()
	if r.RunID == "" {
		r.RunID = NewRunID()
	}
	r.RunDate = r.Date.Format(notes.DateLayout)
	r.Timestamp = now.Format("2006-01-02T15:04:05")
	r.Stamp = now.Format("2006-01-02 15:04:05")
	if r.SourcesCleared == nil {
		r.SourcesCleared = []string{}
	}
	if r.Assignments == nil {
		r.Assignments = []Assignment{}
	}

	base := fmt.Sprintf("atlas_run_receipt_%s_%s", r.RunDate, now.Format("2006-01-02_150405"))
	p := Paths{
		Log:  filepath.Join(w.Dir, base+".log"),
		JSON: filepath.Join(w.Dir, base+".json"),
	}

	text, err := tmpl.Render(runTemplate, r)
	if err != nil {
		return Paths{}, fmt.Errorf("render receipt: %w", err)
	}
	if err := os.WriteFile(p.Log, []byte(strings.TrimRight(text, "\n")+"\n"), 0o644); err != nil {
		return Paths{}, fmt.Errorf("write receipt log: %w", err)
	}
	if err := iojson.WriteFile(p.JSON, r); err != nil {
		return Paths{}, fmt.Errorf("write receipt json: %w", err)
	}
	return p, nil
}

type modeTagsDoc struct {
	Date      string `json:"date"`
	Timestamp string `json:"timestamp"`
	modetag.Report
	Stamp string `json:"-"`
}

// WriteModeTags appends to the day's mode-tagging log and replaces the
// day's JSON record.
func (w *Writer) WriteModeTags(rep modetag.Report) (Paths, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create logs dir: %w", err)
	}

	now := w.now()
	day := rep.Date.Format(notes.DateLayout)
	if rep.Decisions == nil {
		rep.Decisions = []modetag.Decision{}
	}
	doc := modeTagsDoc{
		Date:      day,
		Timestamp: now.Format("2006-01-02 15:04:05"),
		Report:    rep,
		Stamp:     now.Format("2006-01-02 15:04:05"),
	}

	p := Paths{
		Log:  filepath.Join(w.Dir, "atlas_mode_tags_"+day+".log"),
		JSON: filepath.Join(w.Dir, "atlas_mode_tags_"+day+".json"),
	}

	text, err := tmpl.Render(modeTagsTemplate, doc)
	if err != nil {
		return Paths{}, fmt.Errorf("render mode tag receipt: %w", err)
	}

	f, err := os.OpenFile(p.Log, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Paths{}, fmt.Errorf("open mode tag log: %w", err)
	}
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return Paths{}, fmt.Errorf("write mode tag log: %w", err)
	}
	if err := f.Close(); err != nil {
		return Paths{}, fmt.Errorf("close mode tag log: %w", err)
	}

	if err := iojson.WriteFile(p.JSON, doc); err != nil {
		return Paths{}, fmt.Errorf("write mode tag json: %w", err)
	}
	return p, nil
}

// FromModeTags summarizes a mode-tag report for a run receipt.
func FromModeTags(rep modetag.Report, p Paths) *ModeTags {
	return &ModeTags{
		Model:     rep.Model,
		Seen:      rep.Seen,
		Evaluated: rep.Evaluated,
		Tagged:    rep.Tagged,
		Skipped:   rep.Skipped,
		LogPath:   p.Log,
		JSONPath:  p.JSON,
	}
}
