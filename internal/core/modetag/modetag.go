// Package modetag asks a local model to label untagged tasks with a work
// mode (#deep, #focus, #shallow, #admin, #call, #quickcap).
package modetag

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/atlas/internal/core/llm"
	"github.com/hay-kot/atlas/internal/core/notes"
	"github.com/hay-kot/atlas/internal/core/tagwriter"
)

// Tags are the recognized work-mode tags in prompt order.
var Tags = []string{"#deep", "#focus", "#shallow", "#admin", "#call", "#quickcap"}

var (
	modeTagRe  = regexp.MustCompile(`(?i)(^|\s)#(?:deep|focus|shallow|admin|call|quickcap)\b`)
	dueTailRe  = regexp.MustCompile(`\s+📅\s+\d{4}-\d{2}-\d{2}.*$`)
	backlinkRe = regexp.MustCompile(`\s+⤴\s+\[\[.*?\]\]\s*$`)
)

// HasModeTag reports whether text already carries one of the mode tags.
func HasModeTag(text string) bool {
	return modeTagRe.MatchString(text)
}

// Body is the task text sent to the model: no checkbox, due marker, or
// backlink.
func Body(text string) string {
	s := notes.DisplayText(text)
	s = backlinkRe.ReplaceAllString(s, "")
	s = dueTailRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Prompt builds the single-tag classification prompt.
func Prompt(body string) string {
	return "Classify the task into exactly ONE of these tags: " +
		strings.Join(Tags, ", ") + ".\n" +
		"Return ONLY the tag.\n" +
		"Task: " + strings.TrimSpace(body) + "\n" +
		"Tag:"
}

// ParseTag picks a mode tag out of model output. An exact answer wins,
// then a whitespace-delimited token, then any substring. It returns "" when
// nothing matches.
func ParseTag(out string) string {
	out = strings.TrimSpace(out)
	for _, t := range Tags {
		if out == t {
			return t
		}
	}
	fields := strings.Fields(out)
	for _, t := range Tags {
		for _, f := range fields {
			if f == t {
				return t
			}
		}
	}
	for _, t := range Tags {
		if strings.Contains(out, t) {
			return t
		}
	}
	return ""
}

// Decision is one task the model labeled.
type Decision struct {
	Task string `json:"task"`
	Tag  string `json:"tag"`
	Key  string `json:"-"`
}

// Report summarizes a tagging pass.
type Report struct {
	Date      time.Time  `json:"-"`
	Model     string     `json:"model"`
	Seen      int        `json:"tasks_seen"`
	Evaluated int        `json:"tasks_evaluated"`
	Tagged    int        `json:"tasks_tagged"`
	Skipped   int        `json:"tasks_skipped_already_tagged"`
	Failed    int        `json:"tasks_failed"`
	Files     int        `json:"source_notes_updated"`
	Decisions []Decision `json:"decisions"`
}

// Tagger labels tasks through a Generator.
type Tagger struct {
	gen llm.Generator
	log zerolog.Logger
}

// New returns a Tagger backed by gen.
func New(gen llm.Generator, log zerolog.Logger) *Tagger {
	return &Tagger{gen: gen, log: log}
}

// Decide asks the model about every task without a mode tag. Tasks sharing
// a key are asked about once. A failed or unparseable answer leaves the
// task untagged. The returned targets are keyed by source link.
func (t *Tagger) Decide(ctx context.Context, day time.Time, tasks []notes.Task) (Report, tagwriter.Targets) {
	rep := Report{Date: day, Model: t.gen.Model(), Seen: len(tasks)}
	decided := make(map[string]string)
	asked := make(map[string]bool)

	for _, task := range tasks {
		if HasModeTag(task.Text) {
			rep.Skipped++
			continue
		}
		key := notes.Key(task.Text)
		if asked[key] {
			continue
		}
		asked[key] = true

		if ctx.Err() != nil {
			rep.Failed++
			continue
		}

		body := Body(task.Text)
		out, err := t.gen.Generate(ctx, Prompt(body))
		if err != nil {
			t.log.Warn().Err(err).Str("task", body).Msg("mode tag request failed")
			rep.Failed++
			continue
		}
		tag := ParseTag(out)
		if tag == "" {
			t.log.Debug().Str("task", body).Str("output", out).Msg("no mode tag in model output")
			rep.Failed++
			continue
		}

		decided[key] = tag
		rep.Decisions = append(rep.Decisions, Decision{Task: body, Tag: tag, Key: key})
	}

	rep.Evaluated = len(rep.Decisions)
	rep.Tagged = len(rep.Decisions)

	targets := make(tagwriter.Targets)
	for _, task := range tasks {
		key := notes.Key(task.Text)
		tag, ok := decided[key]
		if !ok || task.Source == "" {
			continue
		}
		targets.Add(task.Source, key, []string{tag})
	}
	return rep, targets
}

// Run decides tags and writes them to the source notes.
func (t *Tagger) Run(ctx context.Context, day time.Time, tasks []notes.Task, resolve tagwriter.Resolver) (Report, error) {
	rep, targets := t.Decide(ctx, day, tasks)
	if len(targets) == 0 {
		return rep, nil
	}
	res, err := tagwriter.ApplyTargets(resolve, targets)
	rep.Files = len(res.Written)
	return rep, err
}

// Retag returns a copy of tasks with each decided tag appended the way it was
// written to the source line, so plan tags still find those lines. Tasks
// without a source were not rewritten and are left alone.
func Retag(tasks []notes.Task, rep Report) []notes.Task {
	tags := make(map[string]string, len(rep.Decisions))
	for _, d := range rep.Decisions {
		tags[d.Key] = d.Tag
	}

	out := make([]notes.Task, len(tasks))
	copy(out, tasks)
	for i, t := range out {
		tag, ok := tags[notes.Key(t.Text)]
		if !ok || t.Source == "" {
			continue
		}
		out[i].Text = tagwriter.AddTags(t.Text, []string{tag})
		if tag == "#deep" {
			out[i].Deep = true
		}
	}
	return out
}
