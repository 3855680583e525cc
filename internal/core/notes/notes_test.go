package notes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

const dailyNote = `# 2025-01-10

### Time Blocking
- [ ] 0800 - 0830: MEET [[Standup]]
- [x] 10:00 - 11:00 Vendor review
- [-] 1300 - 1400 MEET Cancelled sync
• 1400 - 1400 MEET Quick check
- 1530 - 1500 Inverted
not a meeting

#### Notes
- 1600 - 1700 Still in section

### Tasks
- [ ] 1700 - 1800 Not a meeting here
- [ ] Renew permit 📅 2025-01-01 #deep
- [ ] Email Bob 📅 2025-01-10
- [x] Done thing 📅 2025-01-01
- [-] Dropped thing 📅 2025-01-01
- [ ] Cancel the subscription 📅 2025-01-01
- [ ] Finished ✅ 📅 2025-01-01
- [ ] No due date here
- [ ] Bad date 📅 2025-13-45

# Funnel
- [ ] Idea about onboarding 2025-01-01
- [ ] Idea about onboarding 2025-01-01
- [ ] Fresh capture 2025-01-09
- [ ] Has due 2025-01-09 📅 2025-01-12
- [x] Processed 2025-01-02

## Other
- [ ] Outside funnel 2025-01-02
- [ ] Tagged #quickcap 2025-01-05
`

func TestScan_Meetings(t *testing.T) {
	res := Scan(dailyNote, Options{Today: day("2025-01-10")})

	want := []Meeting{
		{Start: 8 * 60, End: 8*60 + 30, Title: "Standup"},
		{Start: 10 * 60, End: 11 * 60, Title: "Vendor review"},
		{Start: 14 * 60, End: 14*60 + 15, Title: "Quick check"},
		{Start: 15 * 60, End: 15*60 + 30, Title: "Inverted"},
		{Start: 16 * 60, End: 17 * 60, Title: "Still in section"},
	}
	assert.Equal(t, want, res.Meetings)
}

func TestScan_Tasks(t *testing.T) {
	res := Scan(dailyNote, Options{Today: day("2025-01-10"), Backlink: "[[Daily/2025-01-10|daily]]"})

	require.Len(t, res.Tasks, 3)
	assert.Equal(t, 3, res.Active)

	first := res.Tasks[0]
	assert.Equal(t, "Renew permit 📅 2025-01-01 #deep ⤴ [[Daily/2025-01-10|daily]]", first.Text)
	assert.Equal(t, 9, first.OverdueDays)
	assert.True(t, first.Deep)
	assert.Equal(t, "Daily/2025-01-10", first.Source)

	second := res.Tasks[1]
	assert.Equal(t, 0, second.OverdueDays)
	assert.False(t, second.Deep)

	// Dated lines inside the Funnel section are tasks.
	third := res.Tasks[2]
	assert.Equal(t, -2, third.OverdueDays)
	assert.Contains(t, third.Text, "Has due")
}

func TestScan_Funnel(t *testing.T) {
	res := Scan(dailyNote, Options{Today: day("2025-01-10")})

	texts := make([]string, 0, len(res.Funnel))
	for _, f := range res.Funnel {
		texts = append(texts, f.Text)
	}
	assert.Equal(t, []string{
		"Idea about onboarding 2025-01-01",
		"Tagged #quickcap 2025-01-05",
		"Fresh capture 2025-01-09",
	}, texts)
	assert.Equal(t, 9, res.Funnel[0].AgeDays)
	assert.Equal(t, 1, res.Funnel[2].AgeDays)
}

func TestScan_NoSections(t *testing.T) {
	res := Scan("just some text\n- [ ] nothing dated", Options{Today: day("2025-01-10")})
	assert.Empty(t, res.Meetings)
	assert.Empty(t, res.Tasks)
	assert.Empty(t, res.Funnel)
	assert.Zero(t, res.Active)
}

func TestParseMeetingLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Meeting
		ok   bool
	}{
		{name: "zero length expands", line: "- 1400 - 1400 MEET Sync", want: Meeting{840, 855, "Sync"}, ok: true},
		{name: "inverted swaps", line: "- 1500 - 1430 Review", want: Meeting{870, 900, "Review"}, ok: true},
		{name: "wikilink title", line: "- [ ] 0900 - 0930: MEET [[1:1 Alex]]", want: Meeting{540, 570, "1:1 Alex"}, ok: true},
		{name: "three digit times", line: "900 - 945 Planning", want: Meeting{540, 585, "Planning"}, ok: true},
		{name: "cancelled", line: "- [-] 0900 - 0930 Review"},
		{name: "bad minutes", line: "- 0990 - 1000 Review"},
		{name: "no title", line: "- 0900 - 0930"},
		{name: "prose", line: "Lunch with the team"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMeetingLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseTaskLine_BacklinkIdempotent(t *testing.T) {
	line := "- [ ] Call vendor 📅 2025-01-01 ⤴ [[Calendar/Meetings/Vendor|source]]"
	got, ok := ParseTaskLine(line, day("2025-01-10"), "[[Scratchpad|scratch]]")
	require.True(t, ok)
	assert.Equal(t, "Call vendor 📅 2025-01-01 ⤴ [[Calendar/Meetings/Vendor|source]]", got.Text)
	assert.Equal(t, "Calendar/Meetings/Vendor", got.Source)
}

func TestParseTaskLine_FutureDue(t *testing.T) {
	got, ok := ParseTaskLine("* [ ] Prepare slides 📅 2025-01-13", day("2025-01-10"), "")
	require.True(t, ok)
	assert.Equal(t, -3, got.OverdueDays)
	assert.Empty(t, got.Source)
}

func TestParseTaskLine_DeepTagWholeWord(t *testing.T) {
	got, ok := ParseTaskLine("- [ ] Draft #deeper plan 📅 2025-01-13", day("2025-01-10"), "")
	require.True(t, ok)
	assert.False(t, got.Deep)

	got, ok = ParseTaskLine("- [ ] Draft plan #DEEP 📅 2025-01-13", day("2025-01-10"), "")
	require.True(t, ok)
	assert.True(t, got.Deep)
}

func TestClassify_DueBeatsFunnel(t *testing.T) {
	e := Classify("- [ ] Captured 2025-01-02 #quickcap 📅 2025-01-12", Section{Funnel: true}, Options{Today: day("2025-01-10")})
	assert.Equal(t, TaskEntry, e.Kind)
}

func TestClassify_MeetingOnlyInSection(t *testing.T) {
	line := "- [ ] 0800 - 0830 Standup"
	assert.Equal(t, MeetingEntry, Classify(line, Section{TimeBlocking: true}, Options{}).Kind)
	assert.Equal(t, Unrecognized, Classify(line, Section{}, Options{}).Kind)
}

func TestClampMeetings(t *testing.T) {
	in := []Meeting{
		{Start: 6 * 60, End: 7 * 60, Title: "early"},
		{Start: 7*60 + 30, End: 9 * 60, Title: "straddle start"},
		{Start: 10 * 60, End: 11 * 60, Title: "inside"},
		{Start: 16 * 60, End: 18 * 60, Title: "straddle end"},
		{Start: 18 * 60, End: 19 * 60, Title: "late"},
	}

	got := ClampMeetings(in, 8*60, 17*60)
	assert.Equal(t, []Meeting{
		{Start: 8 * 60, End: 9 * 60, Title: "straddle start"},
		{Start: 10 * 60, End: 11 * 60, Title: "inside"},
		{Start: 16 * 60, End: 17 * 60, Title: "straddle end"},
	}, got)
}

func TestKey(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Renew permit 📅 2025-01-01", "renew permit 📅 2025-01-01"},
		{"Renew Permit 📅 2025-01-01 ⤴ [[Daily/2025-01-09|daily]]", "renew permit 📅 2025-01-01"},
		{"Renew permit 📅 2025-01-01 – 9 days overdue", "renew permit 📅 2025-01-01"},
		{"Renew permit 📅 2025-01-01 – due today", "renew permit 📅 2025-01-01"},
		{"Renew permit 📅 2025-01-01 – Due in 3 days", "renew permit 📅 2025-01-01"},
		{"  Spaced  ", "spaced"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Key(tt.text), tt.text)
	}
}

func TestDedupTasks_KeepsMostUrgent(t *testing.T) {
	tasks := []Task{
		{Text: "Renew permit 📅 2025-01-01 ⤴ [[Scratchpad|scratch]]", Due: day("2025-01-01"), OverdueDays: 2},
		{Text: "Renew permit 📅 2025-01-01 – 9 days overdue ⤴ [[Daily/2025-01-09|daily]]", Due: day("2025-01-01"), OverdueDays: 9},
		{Text: "Other", Due: day("2025-01-05"), OverdueDays: 5},
	}

	got := DedupTasks(tasks)
	require.Len(t, got, 2)
	assert.Equal(t, 9, got[0].OverdueDays)
	assert.Contains(t, got[0].Text, "daily")
	assert.Equal(t, "Other", got[1].Text)
	assert.Equal(t, 2, tasks[0].OverdueDays, "input order must be untouched")
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 9, DaysBetween(day("2025-01-01"), day("2025-01-10")))
	assert.Equal(t, -3, DaysBetween(day("2025-01-13"), day("2025-01-10")))
	assert.Equal(t, 0, DaysBetween(day("2025-03-09"), time.Date(2025, 3, 9, 23, 0, 0, 0, time.Local)))
	assert.Equal(t, 739260, DaysBetween(day("0001-01-01"), day("2025-01-10")), "beyond the time.Duration range")
}

func TestScan_DatedMeetingLineIsAlsoTask(t *testing.T) {
	res := Scan("### Time Blocking\n- [ ] 1400 - 1500 Review 📅 2025-01-10\n", Options{Today: day("2025-01-10")})

	require.Len(t, res.Meetings, 1)
	assert.Equal(t, 14*60, res.Meetings[0].Start)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, 1, res.Active)
	assert.Equal(t, 0, res.Tasks[0].OverdueDays)
	assert.Contains(t, res.Tasks[0].Text, "Review")
}
