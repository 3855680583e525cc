package notes

import (
	"regexp"
	"strings"
	"time"

	"github.com/hay-kot/atlas/internal/core/clock"
)

// DefaultMeetingMinutes is the nominal length given to a zero-length meeting.
const DefaultMeetingMinutes = 15

// DateLayout is the ISO date layout used by due and capture markers.
const DateLayout = "2006-01-02"

var (
	headingRe = regexp.MustCompile(`^\s*(#{1,6})\s+(.*?)\s*$`)

	meetingCheckboxRe  = regexp.MustCompile(`^\s*[-•]\s*\[\s*([xX\-])?\s*\]\s*`)
	meetingCancelledRe = regexp.MustCompile(`^\s*[-•]\s*\[\s*-\s*\]\s*`)
	meetingLineRe      = regexp.MustCompile(
		`^\s*(?:[-•]\s*)?(\d{1,2}:\d{2}|\d{3,4})\b\s*-\s*(\d{1,2}:\d{2}|\d{3,4})\b\s*:?\s*(?:MEET\s+)?(?:\[\[(.*?)\]\]|(.+?))\s*$`,
	)

	taskIncompleteRe = regexp.MustCompile(`^\s*(?:[-*+]\s*)?\[\s*\]\s+(.+)$`)
	taskCompleteRe   = regexp.MustCompile(`^\s*(?:[-*+]\s*)?\[\s*[xX]\s*\]\s+`)
	taskCancelledRe  = regexp.MustCompile(`^\s*(?:[-*+]\s*)?\[\s*[-/]\s*\]\s+`)
	cancelWordRe     = regexp.MustCompile(`(?i)\b(cancelled|canceled|cancel)\b`)
	checkboxPrefixRe = regexp.MustCompile(`^\s*(?:[-*+]\s*)?\[\s*[xX]?\s*\]\s*`)
	funnelCheckboxRe = regexp.MustCompile(`^\s*-\s*\[\s*\]\s+`)
	multiSpaceRe     = regexp.MustCompile(`\s{2,}`)
	deepTagRe        = regexp.MustCompile(`(?i)\B#deep\b`)
	isoDateRe        = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

	// DueRe matches the due-date marker and captures its ISO date.
	DueRe = regexp.MustCompile(`📅\s*(\d{4}-\d{2}-\d{2})`)
	// BacklinkRe matches a trailing source backlink and captures the link target.
	BacklinkRe = regexp.MustCompile(`⤴\s*\[\[([^|\]]+)(?:\|([^\]]+))?\]\]\s*$`)
)

// CaptureTag marks a quick-capture line outside of the Funnel section.
const CaptureTag = "#quickcap"

// Heading reports the level and title of a markdown heading line.
func Heading(line string) (level int, title string, ok bool) {
	m := headingRe.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	return len(m[1]), m[2], true
}

// ParseMeetingLine parses a calendar-style line such as "- [ ] 0800 - 0830: MEET [[Standup]]".
// Cancelled entries ("- [-] ...") and lines with unparseable times do not qualify.
func ParseMeetingLine(line string) (Meeting, bool) {
	line = strings.TrimRight(line, " \t\r")
	if strings.TrimSpace(line) == "" {
		return Meeting{}, false
	}
	if meetingCancelledRe.MatchString(line) {
		return Meeting{}, false
	}
	if loc := meetingCheckboxRe.FindStringIndex(line); loc != nil {
		line = "- " + line[loc[1]:]
	}

	m := meetingLineRe.FindStringSubmatch(line)
	if m == nil {
		return Meeting{}, false
	}

	title := strings.TrimSpace(m[3])
	if title == "" {
		title = strings.TrimSpace(m[4])
	}
	if title == "" {
		return Meeting{}, false
	}

	start, err := clock.Parse(m[1])
	if err != nil {
		return Meeting{}, false
	}
	end, err := clock.Parse(m[2])
	if err != nil {
		return Meeting{}, false
	}

	if start == end {
		end = start + DefaultMeetingMinutes
	}
	if end < start {
		start, end = end, start
	}

	return Meeting{Start: start, End: end, Title: title}, true
}

// IsLiveTaskLine reports whether a line is an open checkbox that is neither
// complete nor cancelled. It does not require a due marker.
func IsLiveTaskLine(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" {
		return false
	}
	if strings.Contains(s, "✅") || strings.Contains(s, "❌") || cancelWordRe.MatchString(s) {
		return false
	}
	if taskCompleteRe.MatchString(s) || taskCancelledRe.MatchString(s) {
		return false
	}
	return taskIncompleteRe.MatchString(s)
}

// ParseTaskLine parses a live task line bearing a due marker. The backlink is
// appended to the display text unless the line already carries one.
func ParseTaskLine(line string, today time.Time, backlink string) (Task, bool) {
	if !IsLiveTaskLine(line) {
		return Task{}, false
	}

	dm := DueRe.FindStringSubmatch(line)
	if dm == nil {
		return Task{}, false
	}
	due, err := time.Parse(DateLayout, dm[1])
	if err != nil {
		return Task{}, false
	}

	text := DisplayText(line)
	if backlink != "" && !strings.Contains(text, "⤴ [[") {
		text = text + " ⤴ " + backlink
	}

	return Task{
		Text:        text,
		Due:         due,
		OverdueDays: DaysBetween(due, today),
		Deep:        deepTagRe.MatchString(text),
		Source:      SourceOf(text),
	}, true
}

// ParseFunnelLine parses a capture-only item. A line qualifies when it is an
// open "- [ ]" checkbox, either sits in the Funnel section or carries the
// capture tag, has a bare ISO date, and has no due marker.
func ParseFunnelLine(line string, inFunnel bool, today time.Time) (FunnelItem, bool) {
	s := strings.TrimSpace(line)
	if s == "" {
		return FunnelItem{}, false
	}
	if !inFunnel && !strings.Contains(s, CaptureTag) {
		return FunnelItem{}, false
	}
	if taskCompleteRe.MatchString(s) || !funnelCheckboxRe.MatchString(line) {
		return FunnelItem{}, false
	}

	text := DisplayText(line)
	if DueRe.MatchString(text) {
		return FunnelItem{}, false
	}

	m := isoDateRe.FindStringSubmatch(text)
	if m == nil {
		return FunnelItem{}, false
	}
	captured, err := time.Parse(DateLayout, m[1])
	if err != nil {
		return FunnelItem{}, false
	}

	return FunnelItem{
		Text:     text,
		Captured: captured,
		AgeDays:  DaysBetween(captured, today),
	}, true
}

// DisplayText strips the checkbox prefix and collapses runs of whitespace.
func DisplayText(line string) string {
	s := checkboxPrefixRe.ReplaceAllString(line, "")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// SourceOf returns the link target of a trailing backlink, or "".
func SourceOf(text string) string {
	m := BacklinkRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// DaysBetween returns the whole calendar days from a to b. The result is
// negative when b is before a.
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int((bd.Unix() - ad.Unix()) / 86400)
}
