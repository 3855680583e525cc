package notes

import (
	"regexp"
	"sort"
	"strings"
)

var (
	keyBacklinkRe = regexp.MustCompile(`\s+⤴\s+\[\[.*?\]\]\s*$`)
	keyStatusRe   = regexp.MustCompile(
		`(?i)\s+–\s+(?:\d+\s+days\s+overdue|Due today|Due in\s+\d+\s+days|\d+\s+days\s+old|Captured today)\s*$`,
	)
)

// Key normalizes task text for cross-source comparison: the trailing
// backlink and status suffix are stripped and the result is case-folded.
func Key(text string) string {
	s := strings.TrimSpace(text)
	s = keyBacklinkRe.ReplaceAllString(s, "")
	s = keyStatusRe.ReplaceAllString(s, "")
	return strings.ToLower(strings.TrimSpace(s))
}

// SortByUrgency orders tasks by overdue days descending, then due date, then text.
func SortByUrgency(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.OverdueDays != b.OverdueDays {
			return a.OverdueDays > b.OverdueDays
		}
		if !a.Due.Equal(b.Due) {
			return a.Due.Before(b.Due)
		}
		return a.Text < b.Text
	})
}

// DedupTasks keeps the most urgent task for each Key. The input is not modified.
func DedupTasks(tasks []Task) []Task {
	sorted := make([]Task, len(tasks))
	copy(sorted, tasks)
	SortByUrgency(sorted)

	seen := make(map[string]struct{}, len(sorted))
	out := make([]Task, 0, len(sorted))
	for _, t := range sorted {
		k := Key(t.Text)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}

// DedupFunnel drops exact (capture date, text) repeats and orders the rest
// by capture date then text.
func DedupFunnel(items []FunnelItem) []FunnelItem {
	type key struct {
		date string
		text string
	}

	seen := make(map[key]struct{}, len(items))
	out := make([]FunnelItem, 0, len(items))
	for _, it := range items {
		k := key{date: it.Captured.Format(DateLayout), text: it.Text}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Captured.Equal(out[j].Captured) {
			return out[i].Captured.Before(out[j].Captured)
		}
		return out[i].Text < out[j].Text
	})
	return out
}
