// Package schedule carves a workday into free windows and places work blocks
// into them. All times are minutes since midnight.
package schedule

import (
	"fmt"
	"sort"

	"github.com/hay-kot/atlas/internal/core/clock"
)

// Window is a half-open interval [Start, End).
type Window struct {
	Start int
	End   int
}

// Minutes is the window length, never negative.
func (w Window) Minutes() int {
	return max(0, w.End-w.Start)
}

func (w Window) String() string {
	return fmt.Sprintf("%s-%s", clock.Format(w.Start), clock.Format(w.End))
}

// Preference selects which qualifying window ChooseSlot uses.
type Preference int

const (
	Earliest Preference = iota
	Latest
	Largest
)

func (p Preference) String() string {
	switch p {
	case Latest:
		return "latest"
	case Largest:
		return "largest"
	default:
		return "earliest"
	}
}

// MergeBusy unions the busy intervals into a sorted, non-overlapping list.
// Touching intervals are joined.
func MergeBusy(busy []Window) []Window {
	sorted := make([]Window, 0, len(busy))
	for _, b := range busy {
		if b.Minutes() > 0 {
			sorted = append(sorted, b)
		}
	}
	sortWindows(sorted)

	merged := make([]Window, 0, len(sorted))
	for _, b := range sorted {
		if n := len(merged); n > 0 && b.Start <= merged[n-1].End {
			merged[n-1].End = max(merged[n-1].End, b.End)
			continue
		}
		merged = append(merged, b)
	}
	return merged
}

// Invert returns the free windows of [dayStart, dayEnd) not covered by the
// merged busy list. Every result has positive length.
func Invert(busy []Window, dayStart, dayEnd int) []Window {
	var free []Window
	cursor := dayStart
	for _, b := range busy {
		if b.Start > cursor {
			free = appendPositive(free, Window{Start: cursor, End: min(b.Start, dayEnd)})
		}
		cursor = max(cursor, b.End)
	}
	if cursor < dayEnd {
		free = append(free, Window{Start: cursor, End: dayEnd})
	}
	return free
}

// Subtract removes [start, end) from every window it touches, splitting a
// window into at most two remaining parts and dropping empty results.
func Subtract(windows []Window, start, end int) []Window {
	out := make([]Window, 0, len(windows)+1)
	for _, w := range windows {
		if end <= w.Start || start >= w.End {
			out = append(out, w)
			continue
		}
		if start > w.Start {
			out = appendPositive(out, Window{Start: w.Start, End: start})
		}
		if end < w.End {
			out = appendPositive(out, Window{Start: end, End: w.End})
		}
	}
	return out
}

// ChooseSlot picks an interval of the given length from the windows that
// can hold it. Largest prefers the longest window, breaking ties by
// earliest start, and uses its start. Latest uses the window ending last and
// anchors the interval to that end. Earliest uses the earliest-starting window.
func ChooseSlot(windows []Window, minutes int, pref Preference) (Window, bool) {
	var (
		best  Window
		found bool
	)

	for _, w := range windows {
		if minutes <= 0 || w.Minutes() < minutes {
			continue
		}
		if !found || better(w, best, pref) {
			best = w
			found = true
		}
	}
	if !found {
		return Window{}, false
	}

	if pref == Latest {
		return Window{Start: best.End - minutes, End: best.End}, true
	}
	return Window{Start: best.Start, End: best.Start + minutes}, true
}

func better(a, b Window, pref Preference) bool {
	switch pref {
	case Largest:
		if a.Minutes() != b.Minutes() {
			return a.Minutes() > b.Minutes()
		}
		return a.Start < b.Start
	case Latest:
		if a.End != b.End {
			return a.End > b.End
		}
		return a.Minutes() > b.Minutes()
	default:
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.Minutes() < b.Minutes()
	}
}

func appendPositive(ws []Window, w Window) []Window {
	if w.Minutes() > 0 {
		ws = append(ws, w)
	}
	return ws
}

func sortWindows(ws []Window) {
	sort.SliceStable(ws, func(i, j int) bool {
		if ws[i].Start != ws[j].Start {
			return ws[i].Start < ws[j].Start
		}
		return ws[i].End < ws[j].End
	})
}
