// Package triage merges tasks from several notes and ranks them into urgency tiers.
package triage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hay-kot/atlas/internal/core/notes"
)

// Tier is an urgency bucket.
type Tier int

const (
	Untiered Tier = iota
	Immediate
	Critical
	Standard
	Stale
)

func (t Tier) String() string {
	switch t {
	case Immediate:
		return "immediate"
	case Critical:
		return "critical"
	case Standard:
		return "standard"
	case Stale:
		return "stale"
	default:
		return "untiered"
	}
}

// Policy holds the tiering and cap thresholds.
type Policy struct {
	// StaleDays moves tasks overdue by more than this to the stale tier.
	StaleDays int
	// MaxOverdueDays drops tasks overdue by more than this unless they carry
	// a high-signal term. Zero disables the cap.
	MaxOverdueDays  int
	HighSignalTerms []string
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{
		StaleDays:      30,
		MaxOverdueDays: 180,
		HighSignalTerms: []string{
			"#tforge", "#todo", "#bocc",
			"grant", "contract", "mou", "agenda",
			"procurement", "legal", "budget", "sole source",
			"rfp", "rfq", "bid",
		},
	}
}

// TierOf returns the tier for a given overdue-day count.
func (p Policy) TierOf(overdue int) Tier {
	switch {
	case overdue > p.StaleDays:
		return Stale
	case overdue > 7 || overdue == 0:
		return Immediate
	case overdue >= 3 && overdue <= 7:
		return Critical
	case (overdue >= 1 && overdue <= 2) || overdue <= -1:
		return Standard
	default:
		return Untiered
	}
}

// Tiers holds tasks bucketed and sorted per tier.
type Tiers struct {
	Immediate []notes.Task
	Critical  []notes.Task
	Standard  []notes.Task
	Stale     []notes.Task
}

// Ordered concatenates the tiers most urgent first.
func (t Tiers) Ordered() []notes.Task {
	out := make([]notes.Task, 0, t.Len())
	out = append(out, t.Immediate...)
	out = append(out, t.Critical...)
	out = append(out, t.Standard...)
	out = append(out, t.Stale...)
	return out
}

// Len is the number of tiered tasks.
func (t Tiers) Len() int {
	return len(t.Immediate) + len(t.Critical) + len(t.Standard) + len(t.Stale)
}

// GapError reports a task whose overdue count fell outside every tier.
type GapError struct {
	Task notes.Task
}

func (e *GapError) Error() string {
	return fmt.Sprintf("task %q with %d overdue days matched no tier", e.Task.Text, e.Task.OverdueDays)
}

// TierTasks buckets tasks. Immediate, critical, and stale sort by overdue
// days descending then due date. Standard sorts by distance from today then
// due date. A task matching no tier is an error.
func (p Policy) TierTasks(tasks []notes.Task) (Tiers, error) {
	var t Tiers
	for _, task := range tasks {
		switch p.TierOf(task.OverdueDays) {
		case Immediate:
			t.Immediate = append(t.Immediate, task)
		case Critical:
			t.Critical = append(t.Critical, task)
		case Standard:
			t.Standard = append(t.Standard, task)
		case Stale:
			t.Stale = append(t.Stale, task)
		default:
			return Tiers{}, &GapError{Task: task}
		}
	}

	byOverdue := func(ts []notes.Task) {
		sort.SliceStable(ts, func(i, j int) bool {
			if ts[i].OverdueDays != ts[j].OverdueDays {
				return ts[i].OverdueDays > ts[j].OverdueDays
			}
			return ts[i].Due.Before(ts[j].Due)
		})
	}
	byDistance := func(ts []notes.Task) {
		sort.SliceStable(ts, func(i, j int) bool {
			ai, aj := abs(ts[i].OverdueDays), abs(ts[j].OverdueDays)
			if ai != aj {
				return ai < aj
			}
			return ts[i].Due.Before(ts[j].Due)
		})
	}

	byOverdue(t.Immediate)
	byOverdue(t.Critical)
	byDistance(t.Standard)
	byOverdue(t.Stale)
	return t, nil
}

// Merge combines per-source task lists and keeps the most urgent copy of each
// normalized key.
func Merge(sources ...[]notes.Task) []notes.Task {
	var all []notes.Task
	for _, s := range sources {
		all = append(all, s...)
	}
	return notes.DedupTasks(all)
}

// ApplyOverdueCap drops tasks overdue beyond the cap unless they contain a
// high-signal term. It returns the kept tasks and the number dropped.
func (p Policy) ApplyOverdueCap(tasks []notes.Task) ([]notes.Task, int) {
	if p.MaxOverdueDays <= 0 {
		return tasks, 0
	}
	kept := make([]notes.Task, 0, len(tasks))
	dropped := 0
	for _, t := range tasks {
		if t.OverdueDays > p.MaxOverdueDays && !p.HighSignal(t.Text) {
			dropped++
			continue
		}
		kept = append(kept, t)
	}
	return kept, dropped
}

// HighSignal reports whether text contains any high-signal term, ignoring case.
func (p Policy) HighSignal(text string) bool {
	s := strings.ToLower(text)
	for _, term := range p.HighSignalTerms {
		if term != "" && strings.Contains(s, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// StatusLabel is the human suffix shown next to a task.
func StatusLabel(overdue int) string {
	switch {
	case overdue > 0:
		return fmt.Sprintf("%d days overdue", overdue)
	case overdue == 0:
		return "Due today"
	default:
		return fmt.Sprintf("Due in %d days", -overdue)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
