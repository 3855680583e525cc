package schedule

import (
	"sort"
)

// Kind names a block type. The string values order blocks that share a start and end.
type Kind string

const (
	DeepWork      Kind = "DEEP_WORK"
	AdminAM       Kind = "ADMIN_AM"
	AdminPM       Kind = "ADMIN_PM"
	SocialPost    Kind = "SOCIAL_POST"
	SocialReplies Kind = "SOCIAL_REPLIES"
	QuickWins     Kind = "QUICK_WINS"
	FocusSlot     Kind = "FOCUS_SLOT"
)

// Block is a placed interval of a given kind.
type Block struct {
	Start int
	End   int
	Kind  Kind
	// Units is the quick-win capacity, in Policy.QuickWinUnit minutes.
	Units int
	// MaxTasks is how many tasks the block may receive.
	MaxTasks int
}

// Minutes is the block length.
func (b Block) Minutes() int {
	return max(0, b.End-b.Start)
}

// Window returns the block interval.
func (b Block) Window() Window {
	return Window{Start: b.Start, End: b.End}
}

// Policy holds the tunable placement parameters.
type Policy struct {
	DayStart   int
	DayEnd     int
	LunchStart int
	LunchEnd   int

	// DeepWorkMinutes are tried in order; the first that fits is placed.
	DeepWorkMinutes []int
	AdminMinutes    int
	SocialMinutes   int
	// SocialMinWindow gates social blocks on the day's original free windows.
	SocialMinWindow  int
	QuickWinUnit     int
	FocusSlotMinutes int
}

// DefaultPolicy is a 07:00 to 18:00 day with lunch at noon.
func DefaultPolicy() Policy {
	return Policy{
		DayStart:         7 * 60,
		DayEnd:           18 * 60,
		LunchStart:       12 * 60,
		LunchEnd:         13 * 60,
		DeepWorkMinutes:  []int{120, 90, 60},
		AdminMinutes:     30,
		SocialMinutes:    30,
		SocialMinWindow:  60,
		QuickWinUnit:     15,
		FocusSlotMinutes: 30,
	}
}

// FreeWindows merges the meetings with lunch and inverts them over the workday.
func (p Policy) FreeWindows(meetings []Window) []Window {
	busy := make([]Window, 0, len(meetings)+1)
	busy = append(busy, meetings...)
	busy = append(busy, Window{Start: p.LunchStart, End: p.LunchEnd})
	return Invert(MergeBusy(busy), p.DayStart, p.DayEnd)
}

// PlaceRequired places deep work, admin AM, admin PM, then the social pair,
// in that order, each consuming its interval before the next runs. A block
// that does not fit is omitted. Blocks return sorted by start, end, kind and
// the remaining windows by start.
func (p Policy) PlaceRequired(free []Window) ([]Block, []Window) {
	var (
		blocks    []Block
		remaining = append([]Window(nil), free...)
	)

	take := func(minutes int, pref Preference, kind Kind, maxTasks int) bool {
		w, ok := ChooseSlot(remaining, minutes, pref)
		if !ok {
			return false
		}
		blocks = append(blocks, Block{Start: w.Start, End: w.End, Kind: kind, MaxTasks: maxTasks})
		remaining = Subtract(remaining, w.Start, w.End)
		return true
	}

	for _, m := range p.DeepWorkMinutes {
		if take(m, Largest, DeepWork, 1) {
			break
		}
	}

	take(p.AdminMinutes, Earliest, AdminAM, 0)
	take(p.AdminMinutes, Latest, AdminPM, 0)

	if hasWindow(free, p.SocialMinWindow) {
		take(p.SocialMinutes, Earliest, SocialPost, 0)
		take(p.SocialMinutes, Latest, SocialReplies, 0)
	}

	SortBlocks(blocks)
	sortWindows(remaining)
	return blocks, remaining
}

// QuickWins turns each window into a capacity block of whole units, dropping
// windows shorter than one unit.
func (p Policy) QuickWins(windows []Window) []Block {
	if p.QuickWinUnit <= 0 {
		return nil
	}
	var out []Block
	for _, w := range windows {
		units := w.Minutes() / p.QuickWinUnit
		if units <= 0 {
			continue
		}
		out = append(out, Block{Start: w.Start, End: w.End, Kind: QuickWins, Units: units})
	}
	return out
}

// FocusSlots cuts each window into back-to-back fixed-length slots. The
// second return value holds the tails too short for a slot.
func (p Policy) FocusSlots(windows []Window) ([]Block, []Window) {
	if p.FocusSlotMinutes <= 0 {
		return nil, windows
	}
	var (
		slots []Block
		tails []Window
	)
	for _, w := range windows {
		st := w.Start
		for st+p.FocusSlotMinutes <= w.End {
			slots = append(slots, Block{Start: st, End: st + p.FocusSlotMinutes, Kind: FocusSlot, MaxTasks: 1})
			st += p.FocusSlotMinutes
		}
		tails = appendPositive(tails, Window{Start: st, End: w.End})
	}
	return slots, tails
}

// Day is the full schedule for one run.
type Day struct {
	Free      []Window
	Required  []Block
	Remaining []Window
	Focus     []Block
	QuickWins []Block
}

// Build computes the day from clamped meetings: free windows, required
// blocks, focus slots from what remains, and quick-win capacity from the
// leftover tails.
func (p Policy) Build(meetings []Window) Day {
	free := p.FreeWindows(meetings)
	required, remaining := p.PlaceRequired(free)
	focus, tails := p.FocusSlots(remaining)
	return Day{
		Free:      free,
		Required:  required,
		Remaining: remaining,
		Focus:     focus,
		QuickWins: p.QuickWins(tails),
	}
}

// Find returns the first required block of the given kind.
func (d Day) Find(kind Kind) (Block, bool) {
	for _, b := range d.Required {
		if b.Kind == kind {
			return b, true
		}
	}
	return Block{}, false
}

// SortBlocks orders blocks by start, end, then kind.
func SortBlocks(bs []Block) {
	sort.SliceStable(bs, func(i, j int) bool {
		a, b := bs[i], bs[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.Kind < b.Kind
	})
}

func hasWindow(ws []Window, minutes int) bool {
	for _, w := range ws {
		if w.Minutes() >= minutes {
			return true
		}
	}
	return false
}
