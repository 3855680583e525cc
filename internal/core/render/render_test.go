package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/atlas/internal/core/assign"
	"github.com/hay-kot/atlas/internal/core/notes"
	"github.com/hay-kot/atlas/internal/core/schedule"
	"github.com/hay-kot/atlas/internal/core/triage"
)

var today = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

func sampleInput(t *testing.T) Input {
	t.Helper()

	p := schedule.DefaultPolicy()
	meetings := []notes.Meeting{{Start: 9 * 60, End: 11 * 60, Title: "Board prep"}}
	day := p.Build([]schedule.Window{{Start: 9 * 60, End: 11 * 60}})

	pool := []notes.Task{
		{Text: "Write grant narrative #deep ⤴ [[Scratchpad|scratch]]", Due: today.AddDate(0, 0, -9), OverdueDays: 9, Deep: true},
		{Text: "Email county clerk ⤴ [[Daily/2025-01-10|daily]]", Due: today, OverdueDays: 0},
		{Text: "Review budget", Due: today.AddDate(0, 0, 2), OverdueDays: -2},
	}
	tiers, err := triage.DefaultPolicy().TierTasks(pool)
	require.NoError(t, err)

	funnel := []notes.FunnelItem{
		{Text: "Podcast idea 2024-12-01", Captured: today.AddDate(0, 0, -40), AgeDays: 40},
		{Text: "Book rec 2025-01-09", Captured: today.AddDate(0, 0, -1), AgeDays: 1},
	}

	return Input{
		Day:         today,
		Meetings:    meetings,
		Schedule:    day,
		Plan:        assign.Assign(today, day, tiers.Ordered()),
		Tiers:       tiers,
		Funnel:      triage.BucketFunnel(funnel),
		FunnelTotal: len(funnel),
		Active:      4,
	}
}

func TestBlock_Structure(t *testing.T) {
	out := Block(sampleInput(t))

	assert.True(t, strings.HasPrefix(out, StartMarker))
	assert.True(t, strings.HasSuffix(out, EndMarker))
	assert.Equal(t, 1, strings.Count(out, StartMarker))

	assert.Contains(t, out, "## ATLAS Focus Plan (2025-01-10)")
	assert.Contains(t, out, "- 0900 - 1100: Board prep")
	assert.Contains(t, out, "#### 1300 - 1500: Deep Work (120 min)\n- Write grant narrative #deep ⤴ [[Scratchpad|scratch]]")
	assert.Contains(t, out, "tag includes #atlas/slot/2025-01-10/deep")
	assert.Contains(t, out, "Admin AM (buffer)")
	assert.Contains(t, out, "tag includes #atlas/slot/2025-01-10/social-1")
	assert.Contains(t, out, "Work Block (2)")
	assert.Contains(t, out, "(tag includes #atlas/slot/2025-01-10/0800-0830) OR (tag includes #atlas/slot/2025-01-10/0830-0900)")
	assert.Contains(t, out, "- Email county clerk – Due today ⤴ [[Daily/2025-01-10|daily]]")
	assert.Contains(t, out, "- Review budget – Due in 2 days")
	assert.Contains(t, out, "- Podcast idea 2024-12-01 – 40 days old")
	assert.Contains(t, out, "**Funnel count:** 2 total, 1 items >7 days old")
	assert.Contains(t, out, "**Active task count:** 4")
	assert.Contains(t, out, "**Planned today:** 3")
}

func TestBlock_DeepUnfilled(t *testing.T) {
	in := sampleInput(t)
	in.Plan = assign.Assign(today, in.Schedule, nil)

	out := Block(in)
	assert.Contains(t, out, "_No eligible tasks.")
}

func TestBlock_NoMeetings(t *testing.T) {
	out := Block(Input{Day: today})
	assert.Contains(t, out, "- (no meetings)")
	assert.Contains(t, out, "_No free time today._")
	assert.Contains(t, out, "_No dated tasks._")
}

func TestBlock_WorkBlockCap(t *testing.T) {
	var focus []schedule.Block
	for st := 8 * 60; st < 12*60; st += 30 {
		focus = append(focus, schedule.Block{Start: st, End: st + 30, Kind: schedule.FocusSlot, MaxTasks: 1})
	}

	out := Block(Input{Day: today, Schedule: schedule.Day{Focus: focus}, WorkBlockMinutes: 120})

	assert.Contains(t, out, "#### 0800 - 1000: Work Block (4)")
	assert.Contains(t, out, "#### 1000 - 1200: Work Block (4)")
	assert.Equal(t, 2, strings.Count(out, "Work Block ("))
}

func TestBlock_QuickWins(t *testing.T) {
	out := Block(Input{Day: today, Schedule: schedule.Day{
		QuickWins: []schedule.Block{{Start: 600, End: 615, Kind: schedule.QuickWins, Units: 1}},
	}})
	assert.Contains(t, out, "#### 1000 - 1015: Quick Wins (1 units)")
}

func TestUpsert(t *testing.T) {
	block := StartMarker + "\nfirst\n" + EndMarker

	t.Run("appends when absent", func(t *testing.T) {
		got := Upsert("# Daily\n\nnotes\n", block)
		assert.True(t, strings.HasPrefix(got, "# Daily\n\nnotes\n\n"+block))
		assert.Contains(t, got, ShutdownHeading)
	})

	t.Run("empty note", func(t *testing.T) {
		got := Upsert("", block)
		assert.True(t, strings.HasPrefix(got, block))
	})

	t.Run("replaces existing", func(t *testing.T) {
		note := "# Daily\n\n" + block + "\n\n### Shutdown\nmine\n"
		next := StartMarker + "\nsecond\n" + EndMarker
		got := Upsert(note, next)
		assert.Equal(t, "# Daily\n\n"+next+"\n\n### Shutdown\nmine\n", got)
	})

	t.Run("tolerates sentinel spacing", func(t *testing.T) {
		note := "<!--ATLAS:START-->\nold\n<!--  ATLAS:END -->\n"
		got := Upsert(note, block)
		assert.NotContains(t, got, "old")
		assert.Equal(t, 1, strings.Count(got, "ATLAS:START"))
	})

	t.Run("orphan start keeps user text", func(t *testing.T) {
		note := "# Daily\n" + StartMarker + "\nimportant user text\n"
		once := Upsert(note, block)
		twice := Upsert(once, block)

		assert.Contains(t, once, "important user text")
		assert.Contains(t, twice, "important user text")
		assert.Equal(t, once, twice)
		assert.Equal(t, 1, strings.Count(twice, EndMarker))
	})

	t.Run("idempotent", func(t *testing.T) {
		for _, note := range []string{"", "# Daily\n", "# Daily\n\n" + block + "\ntrailing\n"} {
			once := Upsert(note, block+"\n")
			twice := Upsert(once, block+"\n")
			assert.Equal(t, once, twice)
			assert.Equal(t, 1, strings.Count(twice, StartMarker))
			assert.Equal(t, 1, strings.Count(twice, ShutdownHeading))
		}
	})
}

func TestEnsureShutdown_PlacedAfterBlock(t *testing.T) {
	note := "# Daily\n\n" + StartMarker + "\nx\n" + EndMarker + "\n\n## Journal\ntext\n"
	got := EnsureShutdown(note)

	blockEnd := strings.Index(got, EndMarker)
	shutdown := strings.Index(got, ShutdownHeading)
	journal := strings.Index(got, "## Journal")
	assert.Less(t, blockEnd, shutdown)
	assert.Less(t, shutdown, journal)
}

func TestStrip(t *testing.T) {
	note := "before\n" + StartMarker + "\n- [ ] Echo 📅 2025-01-01\n" + EndMarker + "\nafter"
	assert.Equal(t, "before\n\nafter", Strip(note))
}

func TestStrip_OrphanStart(t *testing.T) {
	note := StartMarker + "\nkeep me\n" + StartMarker + "\nold\n" + EndMarker + "\nafter"
	assert.Equal(t, StartMarker+"\nkeep me\n\nafter", Strip(note))
	assert.Equal(t, "no markers", Strip("no markers"))
}

func TestWriter_RawKeepsPercent(t *testing.T) {
	var w writer
	w.raw("#### 0900 - 0930: 100% focus")
	w.line("limit %d", 5)
	assert.Equal(t, "#### 0900 - 0930: 100% focus\nlimit 5\n", w.b.String())
}
