// Package render serializes a day plan into the sentinel-delimited markdown
// block written into the daily note.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/hay-kot/atlas/internal/core/assign"
	"github.com/hay-kot/atlas/internal/core/clock"
	"github.com/hay-kot/atlas/internal/core/notes"
	"github.com/hay-kot/atlas/internal/core/schedule"
	"github.com/hay-kot/atlas/internal/core/triage"
)

// DefaultWorkBlockMinutes caps how many consecutive focus slots are grouped.
const DefaultWorkBlockMinutes = 120

// Input is everything the block shows.
type Input struct {
	Day      time.Time
	Meetings []notes.Meeting
	Schedule schedule.Day
	Plan     assign.Plan
	Tiers    triage.Tiers
	Funnel   triage.FunnelBuckets
	// FunnelTotal counts every capture item, including future-dated ones.
	FunnelTotal int
	// Active is the raw count of qualifying task lines before dedup.
	Active int
	// WorkBlockMinutes caps grouped focus slots; zero uses DefaultWorkBlockMinutes.
	WorkBlockMinutes int
}

type writer struct {
	b strings.Builder
}

func (w *writer) line(format string, args ...any) {
	if len(args) == 0 {
		w.b.WriteString(format)
	} else {
		fmt.Fprintf(&w.b, format, args...)
	}
	w.b.WriteByte('\n')
}

// raw writes a pre-built line as is.
func (w *writer) raw(s string) {
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *writer) blank() { w.b.WriteByte('\n') }

// Block renders the full block, bounded by StartMarker and EndMarker, with no
// trailing newline.
func Block(in Input) string {
	w := &writer{}
	date := in.Day.Format(notes.DateLayout)

	w.line(StartMarker)
	w.blank()
	w.line("## ATLAS Focus Plan (%s)", date)
	w.blank()

	w.line("### Time Blocking")
	if len(in.Meetings) == 0 {
		w.line("- (no meetings)")
	}
	for _, m := range in.Meetings {
		w.line("- %s - %s: %s", clock.Format(m.Start), clock.Format(m.End), m.Title)
	}
	w.blank()

	renderRunway(w, in)
	renderFocusViews(w, in)
	renderPriorities(w, in)
	renderFunnel(w, in)

	w.b.WriteString(EndMarker)
	return w.b.String()
}

func heading(b schedule.Block, title string) string {
	return fmt.Sprintf("#### %s - %s: %s", clock.Format(b.Start), clock.Format(b.End), title)
}

func renderRunway(w *writer, in Input) {
	w.line("### Execution Runway")
	w.blank()

	var items []schedule.Block
	items = append(items, in.Schedule.Required...)
	items = append(items, in.Schedule.Focus...)
	items = append(items, in.Schedule.QuickWins...)
	schedule.SortBlocks(items)

	limit := in.WorkBlockMinutes
	if limit <= 0 {
		limit = DefaultWorkBlockMinutes
	}

	var group []schedule.Block
	flush := func() {
		if len(group) > 0 {
			renderWorkBlock(w, in, group)
			group = nil
		}
	}

	if len(items) == 0 {
		w.line("_No free time today._")
		w.blank()
	}

	for _, b := range items {
		if b.Kind == schedule.FocusSlot {
			if n := len(group); n > 0 && (b.Start != group[n-1].End || b.End-group[0].Start > limit) {
				flush()
			}
			group = append(group, b)
			continue
		}
		flush()

		switch b.Kind {
		case schedule.DeepWork:
			w.raw(heading(b, fmt.Sprintf("Deep Work (%d min)", b.Minutes())))
			switch {
			case in.Plan.Deep != nil:
				w.line("- %s", in.Plan.Deep.Task.Text)
			case in.Plan.DeepUnfilled:
				w.line("_No eligible tasks. Tag one task #deep to fill this block._")
			}
			writeQuery(w, []string{assign.SlotTag(in.Day, assign.Label(b))}, 20)
		case schedule.AdminAM:
			w.raw(heading(b, "Admin AM (buffer)"))
			w.line("_Email, calls, triage. No assigned tasks._")
			w.blank()
		case schedule.AdminPM:
			w.raw(heading(b, "Admin PM (buffer)"))
			w.line("_Wrap-up, inbox, ops. No assigned tasks._")
			w.blank()
		case schedule.SocialPost:
			w.raw(heading(b, fmt.Sprintf("Writing (Social): Create/Post (%d min)", b.Minutes())))
			writeQuery(w, []string{assign.SlotTag(in.Day, assign.Label(b))}, 20)
		case schedule.SocialReplies:
			w.raw(heading(b, fmt.Sprintf("Writing (Social): Engage/Replies (%d min)", b.Minutes())))
			writeQuery(w, []string{assign.SlotTag(in.Day, assign.Label(b))}, 20)
		case schedule.QuickWins:
			w.raw(heading(b, fmt.Sprintf("Quick Wins (%d units)", b.Units)))
			w.line("_Capacity only. Pull from the Quick Wins view._")
			w.blank()
		}
	}
	flush()
}

func renderWorkBlock(w *writer, in Input, group []schedule.Block) {
	span := schedule.Block{Start: group[0].Start, End: group[len(group)-1].End}
	w.raw(heading(span, fmt.Sprintf("Work Block (%d)", len(group))))

	tags := make([]string, 0, len(group))
	for _, slot := range group {
		tags = append(tags, assign.SlotTag(in.Day, assign.Label(slot)))
		if a, ok := in.Plan.ForSlot(slot); ok {
			w.line("- %s", a.Task.Text)
		}
	}
	writeQuery(w, tags, len(group))
}

func writeQuery(w *writer, tags []string, limit int) {
	w.line("```tasks")
	switch len(tags) {
	case 0:
		w.line("tag includes %sslot/none", assign.TagPrefix)
	case 1:
		w.line("tag includes %s", tags[0])
	default:
		conds := make([]string, 0, len(tags))
		for _, t := range tags {
			conds = append(conds, "(tag includes "+t+")")
		}
		w.line("(%s)", strings.Join(conds, " OR "))
	}
	w.line("not done")
	w.line("short mode")
	w.line("limit %d", limit)
	w.line("```")
	w.blank()
}

type view struct {
	title  string
	filter []string
	sort   string
	limit  int
}

var focusViews = []view{
	{title: "⚡ Quick Wins (Top 5)", filter: []string{"tag includes " + notes.CaptureTag}, sort: "sort by function reverse task.urgency", limit: 5},
	{title: "Due today", filter: []string{"tag includes " + assign.TodayTag, "due today"}, sort: "sort by function reverse task.urgency", limit: 50},
	{title: "<span style='color:red; '>PAST DUE</span>", filter: []string{"tag includes " + assign.TodayTag, "due before today"}, sort: "sort by function reverse task.urgency", limit: 50},
	{title: "Upcoming", filter: []string{"tag includes " + assign.TodayTag, "due after today"}, sort: "sort by due", limit: 50},
}

func renderFocusViews(w *writer, in Input) {
	w.line("### Focus Views")
	w.blank()
	for _, v := range focusViews {
		w.line("#### %s", v.title)
		w.line("```tasks")
		for _, f := range v.filter {
			w.raw(f)
		}
		w.line("not done")
		w.raw(v.sort)
		w.line("short mode")
		w.line("limit %d", v.limit)
		w.line("```")
		w.blank()
	}

	w.line("**Active task count:** %d", in.Active)
	w.line("**Planned today:** %d", len(in.Plan.Assigned()))
	w.blank()
}

func renderPriorities(w *writer, in Input) {
	w.line("### Priorities")
	w.blank()

	tiers := []struct {
		title string
		tasks []notes.Task
	}{
		{"🔴 Immediate (>7 days overdue or due today)", in.Tiers.Immediate},
		{"🟠 Critical (3-7 days overdue)", in.Tiers.Critical},
		{"🟡 Standard", in.Tiers.Standard},
		{"🧊 Cold storage", in.Tiers.Stale},
	}

	listed := false
	for _, tier := range tiers {
		if len(tier.tasks) == 0 {
			continue
		}
		listed = true
		w.line("**%s:**", tier.title)
		for _, t := range tier.tasks {
			w.line("- %s", withStatus(t.Text, triage.StatusLabel(t.OverdueDays)))
		}
		w.blank()
	}
	if !listed {
		w.line("_No dated tasks._")
		w.blank()
	}
}

// withStatus inserts the status label ahead of any trailing backlink.
func withStatus(text, label string) string {
	loc := notes.BacklinkRe.FindStringIndex(text)
	if loc == nil {
		return text + " – " + label
	}
	body := strings.TrimRight(text[:loc[0]], " ")
	return body + " – " + label + " " + text[loc[0]:]
}

func renderFunnel(w *writer, in Input) {
	w.line("**📥 FUNNEL:**")
	w.blank()

	if len(in.Funnel.Immediate) > 0 {
		w.line("**Items needing immediate processing (>%d days old):**", triage.FunnelStaleDays)
		for _, it := range in.Funnel.Immediate {
			w.line("- %s – %s", it.Text, triage.AgeLabel(it.AgeDays))
		}
		w.blank()
	}

	if len(in.Funnel.Recent) > 0 {
		w.line("**Recent captures:**")
		for _, it := range in.Funnel.Recent {
			w.line("- %s – %s", it.Text, triage.AgeLabel(it.AgeDays))
		}
		w.blank()
	}

	w.line("**Funnel count:** %d total, %d items >%d days old", in.FunnelTotal, len(in.Funnel.Immediate), triage.FunnelStaleDays)
	w.blank()
}
