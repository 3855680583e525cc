// Package tagwriter adds and removes the planning tags on task lines in
// source notes.
package tagwriter

import (
	"regexp"
	"strings"

	"github.com/hay-kot/atlas/internal/core/notes"
)

var (
	planTagRe = regexp.MustCompile(
		`(^|[ \t])#atlas/(?:today|focus/\d{4}-\d{2}-\d{2}|slot/\d{4}-\d{2}-\d{2}/[A-Za-z0-9]+(?:-[A-Za-z0-9]+)*)\b`,
	)
	indentRe    = regexp.MustCompile(`^[ \t]*`)
	spaceRunRe  = regexp.MustCompile(`[ \t]{2,}`)
	quotePrefix = regexp.MustCompile(`^\s*(?:>\s*)+`)
)

// HasPlanTag reports whether the line carries any planning tag.
func HasPlanTag(line string) bool {
	return planTagRe.MatchString(line)
}

// ClearLine removes planning tags from a line. Leading indentation is kept,
// whitespace runs left behind collapse to one space, and trailing blanks are
// trimmed. Lines without a planning tag are returned unchanged.
func ClearLine(line string) string {
	body, cr := splitCR(line)
	if !planTagRe.MatchString(body) {
		return line
	}

	out := planTagRe.ReplaceAllString(body, "$1")
	indent := indentRe.FindString(out)
	rest := spaceRunRe.ReplaceAllString(out[len(indent):], " ")
	return strings.TrimRight(indent+rest, " \t") + cr
}

// ClearText applies ClearLine to every line outside fenced code and reports
// how many changed. Query fences that name planning tags are left intact.
func ClearText(text string) (string, int) {
	lines := strings.Split(text, "\n")
	changed := 0
	fenced := false
	for i, ln := range lines {
		if strings.HasPrefix(strings.TrimSpace(ln), "```") {
			fenced = !fenced
			continue
		}
		if fenced {
			continue
		}
		if out := ClearLine(ln); out != ln {
			lines[i] = out
			changed++
		}
	}
	if changed == 0 {
		return text, 0
	}
	return strings.Join(lines, "\n"), changed
}

// LineKey returns the normalized key of a live task line, ignoring planning
// tags and blockquote markers. Complete and cancelled lines report false.
func LineKey(line string) (string, bool) {
	body, _ := splitCR(line)
	body = quotePrefix.ReplaceAllString(ClearLine(body), "")
	if !notes.IsLiveTaskLine(body) {
		return "", false
	}
	return notes.Key(notes.DisplayText(body)), true
}

// AddTags appends the missing tags to a line, ahead of a trailing backlink
// when one is present.
func AddTags(line string, tags []string) string {
	body, cr := splitCR(line)

	tail := ""
	if loc := notes.BacklinkRe.FindStringIndex(body); loc != nil {
		tail = strings.TrimRight(body[loc[0]:], " \t")
		body = body[:loc[0]]
	}
	body = strings.TrimRight(body, " \t")

	tokens := strings.Fields(body)
	has := func(tag string) bool {
		for _, t := range tokens {
			if t == tag {
				return true
			}
		}
		return false
	}

	for _, tag := range tags {
		if tag == "" || has(tag) {
			continue
		}
		body += " " + tag
		tokens = append(tokens, tag)
	}

	if tail != "" {
		body += " " + tail
	}
	return body + cr
}

// ApplyText stamps tags onto lines whose key is in targets. Each key is
// applied to every matching live line. It returns the new text and the
// number of lines modified.
func ApplyText(text string, targets map[string][]string) (string, int) {
	if len(targets) == 0 {
		return text, 0
	}

	lines := strings.Split(text, "\n")
	changed := 0
	for i, ln := range lines {
		key, ok := LineKey(ln)
		if !ok {
			continue
		}
		tags, ok := targets[key]
		if !ok {
			continue
		}
		if out := AddTags(ln, tags); out != ln {
			lines[i] = out
			changed++
		}
	}
	if changed == 0 {
		return text, 0
	}
	return strings.Join(lines, "\n"), changed
}

func splitCR(line string) (string, string) {
	if strings.HasSuffix(line, "\r") {
		return line[:len(line)-1], "\r"
	}
	return line, ""
}
