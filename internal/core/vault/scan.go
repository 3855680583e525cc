package vault

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hay-kot/atlas/internal/core/notes"
)

// anyCheckboxRe accepts checkboxes nested in blockquotes and callouts.
var anyCheckboxRe = regexp.MustCompile(`^\s*(?:>\s*)*[-*+]\s*\[\s*([^\]]?)\s*\]\s+(.+)$`)

// ScanResult is the outcome of a vault task scan.
type ScanResult struct {
	Files int
	// Lines counts qualifying lines before dedup.
	Lines int
	Tasks []notes.Task
}

// CollectTaskLines scans files for open checkbox lines with a due marker.
// Each task gets a source backlink to its note. Lines repeated verbatim
// within or across files are kept once.
func (v Vault) CollectTaskLines(files []string, today time.Time) (ScanResult, error) {
	res := ScanResult{}
	seen := make(map[string]struct{})

	for _, f := range files {
		text, err := Read(f)
		if err != nil {
			return res, fmt.Errorf("read %s: %w", f, err)
		}
		res.Files++

		link := ""
		if rel, err := v.Rel(f); err == nil {
			link = Backlink(rel, SourceLabel)
		}

		for _, line := range strings.Split(text, "\n") {
			norm, ok := normalizeCheckbox(line)
			if !ok {
				continue
			}
			task, ok := notes.ParseTaskLine(norm, today, link)
			if !ok {
				continue
			}
			res.Lines++
			if _, dup := seen[task.Text]; dup {
				continue
			}
			seen[task.Text] = struct{}{}
			res.Tasks = append(res.Tasks, task)
		}
	}

	return res, nil
}

// normalizeCheckbox rewrites an open, dated checkbox line as "- [ ] body".
func normalizeCheckbox(line string) (string, bool) {
	m := anyCheckboxRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if m == nil {
		return "", false
	}

	mark, body := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	switch strings.ToLower(mark) {
	case "x", "-", "/":
		return "", false
	}
	if strings.Contains(body, "✅") || strings.Contains(body, "❌") {
		return "", false
	}
	if !notes.DueRe.MatchString(body) {
		return "", false
	}
	return "- [ ] " + body, true
}
