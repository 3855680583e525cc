package schedule

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/atlas/internal/core/clock"
)

func hm(tok string) int { return clock.MustParse(tok) }

func win(a, b string) Window { return Window{Start: hm(a), End: hm(b)} }

func eightToFivePolicy() Policy {
	p := DefaultPolicy()
	p.DayStart = hm("0800")
	p.DayEnd = hm("1700")
	return p
}

func TestFreeWindows_OneMeeting(t *testing.T) {
	p := eightToFivePolicy()

	got := p.FreeWindows([]Window{win("1000", "1100")})

	assert.Equal(t, []Window{
		win("0800", "1000"),
		win("1100", "1200"),
		win("1300", "1700"),
	}, got)
}

func TestMergeBusy(t *testing.T) {
	tests := []struct {
		name string
		in   []Window
		want []Window
	}{
		{name: "empty", in: nil, want: []Window{}},
		{name: "overlap", in: []Window{win("0900", "1000"), win("0930", "1100")}, want: []Window{win("0900", "1100")}},
		{name: "touching joins", in: []Window{win("0900", "1000"), win("1000", "1030")}, want: []Window{win("0900", "1030")}},
		{name: "contained", in: []Window{win("0900", "1200"), win("1000", "1030")}, want: []Window{win("0900", "1200")}},
		{name: "unsorted disjoint", in: []Window{win("1400", "1500"), win("0900", "1000")}, want: []Window{win("0900", "1000"), win("1400", "1500")}},
		{name: "drops empty", in: []Window{win("0900", "0900")}, want: []Window{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeBusy(tt.in))
		})
	}
}

func TestInvert_FullyBooked(t *testing.T) {
	got := Invert([]Window{win("0700", "1800")}, hm("0800"), hm("1700"))
	assert.Empty(t, got)
}

func TestSubtract(t *testing.T) {
	w := []Window{win("0800", "1000"), win("1300", "1700")}

	tests := []struct {
		name       string
		start, end int
		want       []Window
	}{
		{name: "middle splits", start: hm("0830"), end: hm("0900"), want: []Window{win("0800", "0830"), win("0900", "1000"), win("1300", "1700")}},
		{name: "flush start", start: hm("0800"), end: hm("0830"), want: []Window{win("0830", "1000"), win("1300", "1700")}},
		{name: "flush end", start: hm("1630"), end: hm("1700"), want: []Window{win("0800", "1000"), win("1300", "1630")}},
		{name: "whole window", start: hm("0800"), end: hm("1000"), want: []Window{win("1300", "1700")}},
		{name: "miss", start: hm("1100"), end: hm("1200"), want: w},
		{name: "spans two", start: hm("0900"), end: hm("1400"), want: []Window{win("0800", "0900"), win("1400", "1700")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Subtract(w, tt.start, tt.end))
		})
	}
}

func TestChooseSlot(t *testing.T) {
	ws := []Window{win("0800", "0900"), win("1000", "1200"), win("1300", "1500"), win("1600", "1630")}

	tests := []struct {
		name    string
		minutes int
		pref    Preference
		want    Window
		ok      bool
	}{
		{name: "earliest", minutes: 30, pref: Earliest, want: win("0800", "0830"), ok: true},
		{name: "latest anchors to end", minutes: 30, pref: Latest, want: win("1600", "1630"), ok: true},
		{name: "latest skips small", minutes: 60, pref: Latest, want: win("1400", "1500"), ok: true},
		{name: "largest ties earliest", minutes: 90, pref: Largest, want: win("1000", "1130"), ok: true},
		{name: "none fits", minutes: 180, pref: Largest},
		{name: "zero minutes", minutes: 0, pref: Earliest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ChooseSlot(ws, tt.minutes, tt.pref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaceRequired_OneMeetingDay(t *testing.T) {
	p := eightToFivePolicy()
	free := p.FreeWindows([]Window{win("1000", "1100")})

	blocks, remaining := p.PlaceRequired(free)

	assert.Equal(t, []Block{
		{Start: hm("0800"), End: hm("0830"), Kind: AdminAM},
		{Start: hm("0830"), End: hm("0900"), Kind: SocialPost},
		{Start: hm("1300"), End: hm("1500"), Kind: DeepWork, MaxTasks: 1},
		{Start: hm("1600"), End: hm("1630"), Kind: SocialReplies},
		{Start: hm("1630"), End: hm("1700"), Kind: AdminPM},
	}, blocks)
	assert.Equal(t, []Window{win("0900", "1000"), win("1100", "1200"), win("1500", "1600")}, remaining)
}

func TestPlaceRequired_DeepFallsBack(t *testing.T) {
	p := eightToFivePolicy()
	// Largest free window is 90 minutes.
	free := []Window{win("0800", "0930"), win("1000", "1030")}

	blocks, _ := p.PlaceRequired(free)

	deep := findKind(blocks, DeepWork)
	require.NotNil(t, deep)
	assert.Equal(t, 90, deep.Minutes())
}

func TestPlaceRequired_NoSocialWithoutSlack(t *testing.T) {
	p := eightToFivePolicy()
	free := []Window{win("0800", "0845"), win("0900", "0945"), win("1000", "1045")}

	blocks, _ := p.PlaceRequired(free)

	assert.Nil(t, findKind(blocks, DeepWork))
	assert.Nil(t, findKind(blocks, SocialPost))
	assert.Nil(t, findKind(blocks, SocialReplies))
	assert.NotNil(t, findKind(blocks, AdminAM))
	assert.NotNil(t, findKind(blocks, AdminPM))
}

func TestPlaceRequired_FullyBooked(t *testing.T) {
	p := eightToFivePolicy()
	blocks, remaining := p.PlaceRequired(nil)
	assert.Empty(t, blocks)
	assert.Empty(t, remaining)
}

func TestQuickWins(t *testing.T) {
	p := eightToFivePolicy()
	got := p.QuickWins([]Window{win("0800", "0850"), win("0900", "0910"), win("1000", "1015")})
	assert.Equal(t, []Block{
		{Start: hm("0800"), End: hm("0850"), Kind: QuickWins, Units: 3},
		{Start: hm("1000"), End: hm("1015"), Kind: QuickWins, Units: 1},
	}, got)
}

func TestFocusSlots(t *testing.T) {
	p := eightToFivePolicy()
	slots, tails := p.FocusSlots([]Window{win("0900", "1015"), win("1100", "1120")})

	require.Len(t, slots, 2)
	assert.Equal(t, win("0900", "0930"), slots[0].Window())
	assert.Equal(t, win("0930", "1000"), slots[1].Window())
	assert.Equal(t, []Window{win("1000", "1015"), win("1100", "1120")}, tails)
}

func TestBuild_QuickWinsFromTails(t *testing.T) {
	p := eightToFivePolicy()
	day := p.Build([]Window{win("0815", "1000"), win("1100", "1145")})

	for _, q := range day.QuickWins {
		assert.Less(t, q.Minutes(), p.FocusSlotMinutes)
		assert.Positive(t, q.Units)
	}
	_, ok := day.Find(DeepWork)
	assert.True(t, ok)
}

func TestProperties_Randomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := eightToFivePolicy()

	for i := 0; i < 500; i++ {
		var meetings []Window
		for j := rng.Intn(8); j > 0; j-- {
			start := p.DayStart - 60 + rng.Intn(p.DayEnd-p.DayStart+120)
			meetings = append(meetings, Window{Start: start, End: start + 15 + rng.Intn(120)})
		}

		free := p.FreeWindows(meetings)
		assertOrdered(t, free)
		for _, w := range free {
			assert.GreaterOrEqual(t, w.Start, p.DayStart)
			assert.LessOrEqual(t, w.End, p.DayEnd)
		}

		blocks, remaining := p.PlaceRequired(free)
		assertOrdered(t, remaining)

		seen := map[Kind]int{}
		for _, b := range blocks {
			seen[b.Kind]++
			assert.True(t, insideAny(free, b.Window()), "block %v outside free windows", b)
		}
		for k, n := range seen {
			assert.Equal(t, 1, n, "kind %s placed more than once", k)
		}

		// Subtracting an interior interval reconstructs the original window.
		for _, w := range free {
			if w.Minutes() < 3 {
				continue
			}
			s := w.Start + 1 + rng.Intn(w.Minutes()-2)
			e := s + 1 + rng.Intn(w.End-s)
			parts := Subtract([]Window{w}, s, e)
			total := e - s
			for _, part := range parts {
				total += part.Minutes()
			}
			assert.Equal(t, w.Minutes(), total)
			assert.LessOrEqual(t, len(parts), 2)
		}
	}
}

func assertOrdered(t *testing.T, ws []Window) {
	t.Helper()
	for i, w := range ws {
		assert.Positive(t, w.Minutes(), "window %v must have positive length", w)
		if i > 0 {
			assert.GreaterOrEqual(t, w.Start, ws[i-1].End, "windows must be sorted and disjoint")
		}
	}
}

func insideAny(ws []Window, in Window) bool {
	for _, w := range ws {
		if in.Start >= w.Start && in.End <= w.End {
			return true
		}
	}
	return false
}

func findKind(bs []Block, k Kind) *Block {
	for i := range bs {
		if bs[i].Kind == k {
			return &bs[i]
		}
	}
	return nil
}
