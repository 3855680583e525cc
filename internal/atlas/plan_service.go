package atlas

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hay-kot/atlas/internal/core/archive"
	"github.com/hay-kot/atlas/internal/core/assign"
	"github.com/hay-kot/atlas/internal/core/config"
	"github.com/hay-kot/atlas/internal/core/llm"
	"github.com/hay-kot/atlas/internal/core/logging"
	"github.com/hay-kot/atlas/internal/core/modetag"
	"github.com/hay-kot/atlas/internal/core/notes"
	"github.com/hay-kot/atlas/internal/core/receipt"
	"github.com/hay-kot/atlas/internal/core/render"
	"github.com/hay-kot/atlas/internal/core/schedule"
	"github.com/hay-kot/atlas/internal/core/tagwriter"
	"github.com/hay-kot/atlas/internal/core/triage"
	"github.com/hay-kot/atlas/internal/core/vault"
)

// ErrNoDailyNote is returned when the daily note is missing and creation
// was not requested.
var ErrNoDailyNote = errors.New("daily note not found")

// PlanOptions configures a planning run.
type PlanOptions struct {
	// Date forces the planning day. Zero derives it from DailyPath's file
	// name, then the clock.
	Date time.Time
	// DailyPath overrides the vault's daily note for the day.
	DailyPath string
	// Create starts a new daily note when it does not exist.
	Create bool
	// Stdout returns the block without rewriting the daily note. Source
	// tags are still written.
	Stdout       bool
	ScanVault    bool
	ModeTagModel string
	Archive      bool
	Receipt      bool
}

// PlanResult reports what a planning run did.
type PlanResult struct {
	Day       time.Time
	DailyPath string
	Block     string
	// Wrote is set when the daily note was rewritten.
	Wrote bool

	Meetings []notes.Meeting
	Cleared  tagwriter.Result
	Tagged   tagwriter.Result
	Plan     assign.Plan

	ModeTags        *modetag.Report
	ModeTagsReceipt *receipt.Paths
	Archived        *archive.Result
	Receipt         *receipt.Paths
}

// PlanService builds the daily plan block and stamps tags onto source notes.
type PlanService struct {
	config    *config.Config
	generator func(model string) llm.Generator
	now       func() time.Time
}

// NewPlanService creates a PlanService. generator builds the model used for
// mode tagging.
func NewPlanService(cfg *config.Config, generator func(model string) llm.Generator) *PlanService {
	return &PlanService{
		config:    cfg,
		generator: generator,
		now:       time.Now,
	}
}

// Day picks the planning day: the forced date, else a YYYY-MM-DD daily
// file name, else today.
func (s *PlanService) Day(opts PlanOptions) time.Time {
	if !opts.Date.IsZero() {
		return opts.Date
	}
	if opts.DailyPath != "" {
		base := filepath.Base(opts.DailyPath)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if d, err := time.Parse(notes.DateLayout, stem); err == nil {
			return d
		}
	}
	n := s.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// Plan runs the full pipeline for one day.
func (s *PlanService) Plan(ctx context.Context, opts PlanOptions) (PlanResult, error) {
	log := logging.ComponentCtx(ctx, "planner")

	v, err := s.config.VaultLayout()
	if err != nil {
		return PlanResult{}, err
	}
	policy, err := s.config.SchedulePolicy()
	if err != nil {
		return PlanResult{}, err
	}
	tp := s.config.TriagePolicy()

	day := s.Day(opts)
	dailyPath := opts.DailyPath
	if dailyPath == "" {
		dailyPath = v.DailyPath(day)
	}
	scratchPath := v.ScratchpadPath()
	res := PlanResult{Day: day, DailyPath: dailyPath}

	if _, err := os.Stat(dailyPath); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return res, fmt.Errorf("stat daily note: %w", err)
		}
		if !opts.Create {
			return res, fmt.Errorf("%w: %s", ErrNoDailyNote, dailyPath)
		}
	}

	resolve := s.resolver(v, dailyPath)

	// previous run's tags come off before anything is read
	files, err := s.sourceFiles(v, dailyPath, scratchPath)
	if err != nil {
		return res, err
	}
	res.Cleared, err = tagwriter.Clear(files)
	if err != nil {
		return res, fmt.Errorf("clear tags: %w", err)
	}
	log.Debug().Int("files", len(res.Cleared.Written)).Int("lines", res.Cleared.Lines).Msg("cleared plan tags")

	dailyText, err := readOptional(dailyPath)
	if err != nil {
		return res, fmt.Errorf("read daily note: %w", err)
	}
	scratchText, err := readOptional(scratchPath)
	if err != nil {
		return res, fmt.Errorf("read scratchpad: %w", err)
	}

	daily := notes.Scan(render.Strip(dailyText), notes.Options{Today: day, Backlink: v.DailyBacklink(dailyPath)})
	scratch := notes.Scan(scratchText, notes.Options{Today: day, Backlink: v.ScratchBacklink()})

	seen := daily.Active + scratch.Active
	sources := [][]notes.Task{daily.Tasks, scratch.Tasks}

	if opts.ScanVault || s.config.Planner.ScanVault {
		found, err := v.Discover()
		if err != nil {
			return res, fmt.Errorf("discover task sources: %w", err)
		}
		scan, err := v.CollectTaskLines(found, day)
		if err != nil {
			return res, fmt.Errorf("scan task sources: %w", err)
		}
		log.Debug().Int("files", scan.Files).Int("tasks", len(scan.Tasks)).Msg("scanned vault")
		seen += scan.Lines
		sources = append(sources, scan.Tasks)
	}

	merged := triage.Merge(sources...)
	pool, capped := tp.ApplyOverdueCap(merged)

	meetings := notes.ClampMeetings(daily.Meetings, policy.DayStart, policy.DayEnd)
	res.Meetings = meetings
	busy := make([]schedule.Window, 0, len(meetings))
	for _, m := range meetings {
		busy = append(busy, schedule.Window{Start: m.Start, End: m.End})
	}
	sched := policy.Build(busy)

	model := opts.ModeTagModel
	if model == "" {
		model = s.config.Planner.ModeTagModel
	}
	if model != "" {
		rep, err := modetag.New(s.generator(model), log).Run(ctx, day, pool, resolve)
		if err != nil {
			return res, fmt.Errorf("mode tags: %w", err)
		}
		pool = modetag.Retag(pool, rep)
		res.ModeTags = &rep

		paths, err := receipt.NewWriter(s.config.LogsDir()).WriteModeTags(rep)
		if err != nil {
			log.Warn().Err(err).Msg("mode tag receipt skipped")
		} else {
			res.ModeTagsReceipt = &paths
		}
	}

	tiers, err := tp.TierTasks(pool)
	if err != nil {
		return res, err
	}

	res.Plan = assign.Assign(day, sched, tiers.Ordered())
	res.Tagged, err = tagwriter.Apply(resolve, res.Plan.Assigned())
	if err != nil {
		return res, fmt.Errorf("tag sources: %w", err)
	}
	for _, link := range res.Tagged.Unresolved {
		log.Warn().Str("source", link).Msg("assigned task source not found")
	}

	funnelItems := notes.DedupFunnel(append(append([]notes.FunnelItem(nil), daily.Funnel...), scratch.Funnel...))

	res.Block = render.Block(render.Input{
		Day:              day,
		Meetings:         meetings,
		Schedule:         sched,
		Plan:             res.Plan,
		Tiers:            tiers,
		Funnel:           triage.BucketFunnel(funnelItems),
		FunnelTotal:      len(funnelItems),
		Active:           seen,
		WorkBlockMinutes: s.config.Policy.WorkBlockMaxMinutes,
	})

	log.Info().
		Str("day", day.Format(notes.DateLayout)).
		Int("meetings", len(meetings)).
		Int("tasks", tiers.Len()).
		Int("assigned", len(res.Plan.Assigned())).
		Int("tagged_files", len(res.Tagged.Written)).
		Msg("plan built")

	if opts.Stdout {
		return res, nil
	}

	// tagging rewrote the daily note, so the block goes into a fresh read
	current, err := readOptional(dailyPath)
	if err != nil {
		return res, fmt.Errorf("read daily note: %w", err)
	}
	if err := vault.Write(dailyPath, render.Upsert(current, res.Block)); err != nil {
		return res, fmt.Errorf("write daily note: %w", err)
	}
	res.Wrote = true

	if opts.Archive {
		ar, err := archive.New(scratchPath, s.config.ScratchpadArchivePath(), s.config.BackupsDir()).Run()
		if err != nil {
			return res, fmt.Errorf("archive scratchpad: %w", err)
		}
		res.Archived = &ar
	}

	if opts.Receipt || s.config.Planner.RunReceipt {
		run := s.receipt(ctx, v, res, files, sched, seen, len(merged), capped, pool)
		paths, err := receipt.NewWriter(s.config.LogsDir()).WriteRun(run)
		if err != nil {
			log.Warn().Err(err).Msg("run receipt skipped")
		} else {
			res.Receipt = &paths
		}
	}

	return res, nil
}

// Clear strips plan tags from the day's notes and the configured sources.
func (s *PlanService) Clear(ctx context.Context, opts PlanOptions) (tagwriter.Result, error) {
	v, err := s.config.VaultLayout()
	if err != nil {
		return tagwriter.Result{}, err
	}

	dailyPath := opts.DailyPath
	if dailyPath == "" {
		dailyPath = v.DailyPath(s.Day(opts))
	}

	files, err := s.sourceFiles(v, dailyPath, v.ScratchpadPath())
	if err != nil {
		return tagwriter.Result{}, err
	}

	res, err := tagwriter.Clear(files)
	if err != nil {
		return res, fmt.Errorf("clear tags: %w", err)
	}
	log := logging.ComponentCtx(ctx, "planner")
	log.Info().
		Int("files", res.Files).
		Int("written", len(res.Written)).
		Int("lines", res.Lines).
		Msg("cleared plan tags")
	return res, nil
}

// sourceFiles lists the configured sources plus the daily note and
// scratchpad, even when those two sit outside the vault.
func (s *PlanService) sourceFiles(v vault.Vault, dailyPath, scratchPath string) ([]string, error) {
	files, err := v.DiscoverWith(scratchPath, dailyPath)
	if err != nil {
		return nil, fmt.Errorf("discover task sources: %w", err)
	}

	have := make(map[string]bool, len(files))
	for _, f := range files {
		have[filepath.Clean(f)] = true
	}
	for _, f := range []string{scratchPath, dailyPath} {
		if !have[filepath.Clean(f)] {
			files = append(files, f)
			have[filepath.Clean(f)] = true
		}
	}
	return files, nil
}

// resolver maps backlink targets to files. The daily and scratch backlinks
// resolve to the notes actually read, which may live outside the vault.
func (s *PlanService) resolver(v vault.Vault, dailyPath string) tagwriter.Resolver {
	known := map[string]string{
		notes.SourceOf("⤴ " + v.DailyBacklink(dailyPath)): dailyPath,
		notes.SourceOf("⤴ " + v.ScratchBacklink()):       v.ScratchpadPath(),
	}
	return func(link string) (string, error) {
		if p, ok := known[link]; ok {
			return p, nil
		}
		return v.NotePath(link)
	}
}

func (s *PlanService) receipt(
	ctx context.Context,
	v vault.Vault,
	res PlanResult,
	cleared []string,
	sched schedule.Day,
	seen, unique, capped int,
	pool []notes.Task,
) receipt.Run {
	deep := 0
	for _, t := range pool {
		if t.Deep {
			deep++
		}
	}

	assignments := make([]receipt.Assignment, 0, len(res.Plan.Assigned()))
	for _, a := range res.Plan.Assigned() {
		assignments = append(assignments, receipt.Assignment{Task: a.Task.Text, Tags: a.Tags})
	}

	run := receipt.Run{
		RunID:            logging.GetRunID(ctx),
		Date:             res.Day,
		VaultRoot:        v.Root,
		DailyPath:        res.DailyPath,
		ScratchpadPath:   v.ScratchpadPath(),
		SourcesCleared:   cleared,
		MeetingsCount:    len(res.Meetings),
		FreeWindowsCount: len(sched.Free),
		FocusSlotsCount:  len(sched.Focus),
		RequiredBlocks:   receipt.BlocksFrom(sched.Required),
		TasksSeen:        seen,
		TasksUnique:      unique,
		TasksCapped:      capped,
		TasksDeepCount:   deep,
		Assignments:      assignments,
		TagChangedFiles:  len(res.Tagged.Written),
	}
	if res.ModeTags != nil {
		p := receipt.Paths{}
		if res.ModeTagsReceipt != nil {
			p = *res.ModeTagsReceipt
		}
		run.ModeTags = receipt.FromModeTags(*res.ModeTags, p)
	}
	return run
}

// readOptional reads a note, returning "" when it does not exist.
func readOptional(p string) (string, error) {
	text, err := vault.Read(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	return text, err
}
