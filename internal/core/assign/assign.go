// Package assign matches ranked tasks to scheduled blocks and decides which
// tracking tags each chosen task receives.
package assign

import (
	"strings"
	"time"

	"github.com/hay-kot/atlas/internal/core/clock"
	"github.com/hay-kot/atlas/internal/core/notes"
	"github.com/hay-kot/atlas/internal/core/schedule"
)

// Tag prefixes written to source notes.
const (
	TagPrefix = "#atlas/"
	TodayTag  = "#atlas/today"
)

// Slot labels for blocks that are not identified by their interval.
const (
	DeepLabel    = "deep"
	SocialLabel1 = "social-1"
	SocialLabel2 = "social-2"
)

// FocusTag marks a task as planned for the given day.
func FocusTag(day time.Time) string {
	return TagPrefix + "focus/" + day.Format(notes.DateLayout)
}

// SlotTag identifies a slot on the given day, e.g. "#atlas/slot/2025-01-10/0830-0900".
func SlotTag(day time.Time, label string) string {
	return TagPrefix + "slot/" + day.Format(notes.DateLayout) + "/" + label
}

// Label is the slot label for a block.
func Label(b schedule.Block) string {
	switch b.Kind {
	case schedule.DeepWork:
		return DeepLabel
	case schedule.SocialPost:
		return SocialLabel1
	case schedule.SocialReplies:
		return SocialLabel2
	default:
		return clock.Format(b.Start) + "-" + clock.Format(b.End)
	}
}

// Assignment places one task into one block.
type Assignment struct {
	Task  notes.Task
	Block schedule.Block
	Tags  []string
}

// Plan is the outcome of matching tasks to blocks.
type Plan struct {
	// Deep is nil when the day has no deep-work block or no eligible task.
	Deep *Assignment
	// DeepUnfilled is set when a deep-work block exists but nothing qualified.
	DeepUnfilled bool
	// Focus holds one assignment per filled focus slot, in slot order.
	Focus []Assignment
	// Tags maps a task's normalized key to the tags for its source line.
	Tags map[string][]string
}

// Assigned returns every assignment, deep work first.
func (p Plan) Assigned() []Assignment {
	out := make([]Assignment, 0, len(p.Focus)+1)
	if p.Deep != nil {
		out = append(out, *p.Deep)
	}
	return append(out, p.Focus...)
}

// ForSlot returns the assignment for a focus slot, if any.
func (p Plan) ForSlot(b schedule.Block) (Assignment, bool) {
	for _, a := range p.Focus {
		if a.Block.Start == b.Start && a.Block.End == b.End {
			return a, true
		}
	}
	return Assignment{}, false
}

// IsCapture reports whether task text carries the quick-capture tag.
func IsCapture(text string) bool {
	return strings.Contains(text, notes.CaptureTag)
}

// DeepEligible reports whether a task may fill the deep-work block.
func DeepEligible(t notes.Task) bool {
	return t.Deep && !IsCapture(t.Text)
}

// FocusEligible reports whether a task may fill a focus slot. Capture items
// and deep tasks not yet due are held back.
func FocusEligible(t notes.Task) bool {
	if IsCapture(t.Text) {
		return false
	}
	if t.Deep && t.OverdueDays <= -1 {
		return false
	}
	return true
}

// Assign walks the pool, which must be ordered most urgent first. The
// deep-work block takes the first deep-eligible task and is never filled
// otherwise. Focus slots then take the next unused eligible task in slot
// order. Admin, social, and quick-win blocks receive no tasks.
func Assign(day time.Time, sched schedule.Day, pool []notes.Task) Plan {
	plan := Plan{Tags: make(map[string][]string)}
	used := make(map[string]struct{})

	tagsFor := func(b schedule.Block) []string {
		return []string{TodayTag, FocusTag(day), SlotTag(day, Label(b))}
	}
	record := func(t notes.Task, b schedule.Block) Assignment {
		key := notes.Key(t.Text)
		used[key] = struct{}{}
		a := Assignment{Task: t, Block: b, Tags: tagsFor(b)}
		plan.Tags[key] = a.Tags
		return a
	}

	if deep, ok := sched.Find(schedule.DeepWork); ok {
		for _, t := range pool {
			if DeepEligible(t) {
				a := record(t, deep)
				plan.Deep = &a
				break
			}
		}
		plan.DeepUnfilled = plan.Deep == nil
	}

	next := 0
	for _, slot := range sched.Focus {
		var (
			picked notes.Task
			found  bool
		)
		for next < len(pool) {
			t := pool[next]
			next++
			if _, taken := used[notes.Key(t.Text)]; taken || !FocusEligible(t) {
				continue
			}
			picked, found = t, true
			break
		}
		if !found {
			break
		}
		plan.Focus = append(plan.Focus, record(picked, slot))
	}

	return plan
}
