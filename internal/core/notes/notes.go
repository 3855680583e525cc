// Package notes extracts meetings, dated tasks, and capture items from
// markdown note text.
package notes

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Meeting is a busy interval from the time-blocking section, in minutes since midnight.
type Meeting struct {
	Start int
	End   int
	Title string
}

// Task is a live checkbox line with a due date.
type Task struct {
	Text        string
	Due         time.Time
	OverdueDays int
	Deep        bool
	// Source is the vault-relative note path taken from the trailing backlink.
	Source string
}

// FunnelItem is a capture-only checkbox line with a capture date.
type FunnelItem struct {
	Text     string
	Captured time.Time
	AgeDays  int
}

// Kind identifies what a classified line holds.
type Kind int

const (
	Unrecognized Kind = iota
	MeetingEntry
	TaskEntry
	FunnelEntry
)

func (k Kind) String() string {
	switch k {
	case MeetingEntry:
		return "meeting"
	case TaskEntry:
		return "task"
	case FunnelEntry:
		return "funnel"
	default:
		return "unrecognized"
	}
}

// Entry is the tagged result of classifying one line. Only the field matching
// Kind is populated.
type Entry struct {
	Kind    Kind
	Meeting Meeting
	Task    Task
	Funnel  FunnelItem
}

// Section describes where a line sits in the note.
type Section struct {
	TimeBlocking bool
	Funnel       bool
}

// Options controls a scan.
type Options struct {
	Today time.Time
	// Backlink is appended to task text, e.g. "[[Daily Notes/2025-01-10|daily]]".
	Backlink string
}

// Classify classifies a single line given its section. Inside the
// time-blocking section a meeting match wins; Scan still reads a dated
// meeting line as a task. A line with a due marker is
// always a task, never a funnel item.
func Classify(line string, sec Section, opts Options) Entry {
	if sec.TimeBlocking {
		if m, ok := ParseMeetingLine(line); ok {
			return Entry{Kind: MeetingEntry, Meeting: m}
		}
	}
	if t, ok := ParseTaskLine(line, opts.Today, opts.Backlink); ok {
		return Entry{Kind: TaskEntry, Task: t}
	}
	if f, ok := ParseFunnelLine(line, sec.Funnel, opts.Today); ok {
		return Entry{Kind: FunnelEntry, Funnel: f}
	}
	return Entry{Kind: Unrecognized}
}

// Result holds everything found in one scan.
type Result struct {
	Meetings []Meeting
	// Tasks is deduplicated and ordered most urgent first.
	Tasks []Task
	// Active counts every qualifying task line before deduplication.
	Active int
	// Funnel is deduplicated and ordered by capture date then text.
	Funnel []FunnelItem
}

var (
	timeBlockingTitleRe = regexp.MustCompile(`(?i)^time\s+blocking$`)
	funnelTitleRe       = regexp.MustCompile(`(?i)^funnel\b`)
)

const timeBlockingLevel = 3

// Scan walks text once, tracking sections, and collects every entry.
//
// The time-blocking section is a "### Time Blocking" heading closed by any
// heading of the same or higher level. The Funnel section is a "# Funnel"
// heading closed by any other heading.
func Scan(text string, opts Options) Result {
	var (
		res      Result
		sec      Section
		tasks    []Task
		funnel   []FunnelItem
		blockLvl int
	)

	for _, line := range strings.Split(text, "\n") {
		if level, title, ok := Heading(line); ok {
			if sec.TimeBlocking && level <= blockLvl {
				sec.TimeBlocking = false
			}
			if level == timeBlockingLevel && timeBlockingTitleRe.MatchString(title) {
				sec.TimeBlocking = true
				blockLvl = level
			}
			sec.Funnel = level == 1 && funnelTitleRe.MatchString(title)
			continue
		}

		e := Classify(line, sec, opts)
		switch e.Kind {
		case MeetingEntry:
			res.Meetings = append(res.Meetings, e.Meeting)
			// A dated checkbox in the time-blocking section is also a task.
			if t, ok := ParseTaskLine(line, opts.Today, opts.Backlink); ok {
				res.Active++
				tasks = append(tasks, t)
			}
		case TaskEntry:
			res.Active++
			tasks = append(tasks, e.Task)
		case FunnelEntry:
			funnel = append(funnel, e.Funnel)
		}
	}

	SortMeetings(res.Meetings)
	res.Tasks = DedupTasks(tasks)
	res.Funnel = DedupFunnel(funnel)
	return res
}

// ExtractMeetings returns the meetings in the time-blocking section, sorted.
// A note without the section yields no meetings.
func ExtractMeetings(text string) []Meeting {
	return Scan(text, Options{}).Meetings
}

// ExtractTasks returns deduplicated dated tasks and the raw active count.
func ExtractTasks(text string, today time.Time, backlink string) ([]Task, int) {
	res := Scan(text, Options{Today: today, Backlink: backlink})
	return res.Tasks, res.Active
}

// ExtractFunnel returns deduplicated capture items.
func ExtractFunnel(text string, today time.Time) []FunnelItem {
	return Scan(text, Options{Today: today}).Funnel
}

// SortMeetings orders meetings by start, end, then title.
func SortMeetings(ms []Meeting) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.Title < b.Title
	})
}

// ClampMeetings intersects each meeting with the workday. Meetings entirely
// outside are dropped and partial overlaps are truncated.
func ClampMeetings(ms []Meeting, dayStart, dayEnd int) []Meeting {
	out := make([]Meeting, 0, len(ms))
	for _, m := range ms {
		start := max(m.Start, dayStart)
		end := min(m.End, dayEnd)
		if end <= start {
			continue
		}
		out = append(out, Meeting{Start: start, End: end, Title: m.Title})
	}
	return out
}
