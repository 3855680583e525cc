package render

import (
	"regexp"
	"strings"
)

// Sentinels bounding the generated block.
const (
	StartMarker = "<!-- ATLAS:START -->"
	EndMarker   = "<!-- ATLAS:END -->"
)

var (
	startRe = regexp.MustCompile(`<!--\s*ATLAS:START\s*-->`)
	endRe   = regexp.MustCompile(`<!--\s*ATLAS:END\s*-->`)
)

// findBlock locates the first generated block, pairing the first end marker
// with the nearest start marker before it. A start marker with no end marker
// is left to the user text around it.
func findBlock(note string) []int {
	starts := startRe.FindAllStringIndex(note, -1)
	if len(starts) == 0 {
		return nil
	}
	for _, end := range endRe.FindAllStringIndex(note, -1) {
		var open []int
		for _, st := range starts {
			if st[1] > end[0] {
				break
			}
			open = st
		}
		if open != nil {
			return []int{open[0], end[1]}
		}
	}
	return nil
}

// ShutdownHeading identifies the end-of-day checklist.
const ShutdownHeading = "### Shutdown"

// ShutdownTemplate is seeded once after the block and never regenerated.
const ShutdownTemplate = ShutdownHeading + `

**✅ Wins (3 bullets):**
-
-
-

**🧹 Close the loops:**
- [ ] Inbox triage (email + messages): defer, delegate, or answer
- [ ] Update task statuses (check off, reschedule, add due dates)
- [ ] Capture new inputs into the Funnel (#quickcap)

**🧠 Tomorrow's first move:**
- [ ] Pick the ONE deep work task for tomorrow (must have #deep)
- [ ] If blocked: write the next physical action and who is needed

**⏱️ Meetings sanity check:**
- [ ] Any meetings that ran long or were missing? Note adjustments.

**🧾 End-of-day note:**
- `

// HasBlock reports whether the note already holds a generated block.
func HasBlock(note string) bool {
	return findBlock(note) != nil
}

// Upsert replaces the first generated block in note with block, or appends
// block when none exists, then seeds the shutdown checklist. Calling it again
// with the same block returns the same text.
func Upsert(note, block string) string {
	block = strings.TrimRight(block, "\n")

	var out string
	if loc := findBlock(note); loc != nil {
		out = note[:loc[0]] + block + note[loc[1]:]
	} else if trimmed := strings.TrimRight(note, " \t\r\n"); trimmed == "" {
		out = block + "\n"
	} else {
		out = trimmed + "\n\n" + block + "\n"
	}

	return EnsureShutdown(out)
}

// EnsureShutdown inserts the shutdown checklist right after the block. A
// note that already has the checklist is returned unchanged.
func EnsureShutdown(note string) string {
	if strings.Contains(note, ShutdownHeading) {
		return note
	}

	tmpl := strings.TrimRight(ShutdownTemplate, "\n")
	loc := findBlock(note)
	if loc == nil {
		return strings.TrimRight(note, "\n") + "\n\n" + tmpl + "\n"
	}

	before := strings.TrimRight(note[:loc[1]], "\n")
	after := strings.TrimLeft(note[loc[1]:], "\n")
	if after == "" {
		return before + "\n\n" + tmpl + "\n"
	}
	return before + "\n\n" + tmpl + "\n\n" + after
}

// Strip removes the generated block so its echoed content is not read back
// as note input.
func Strip(note string) string {
	for loc := findBlock(note); loc != nil; loc = findBlock(note) {
		note = note[:loc[0]] + note[loc[1]:]
	}
	return note
}
