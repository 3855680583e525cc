package atlas

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hay-kot/atlas/internal/core/classify"
	"github.com/hay-kot/atlas/internal/core/config"
	"github.com/hay-kot/atlas/internal/core/extract"
	"github.com/hay-kot/atlas/internal/core/llm"
	"github.com/hay-kot/atlas/internal/core/logging"
	"github.com/hay-kot/atlas/internal/core/receipt"
	"github.com/hay-kot/atlas/pkg/executil"
	"github.com/hay-kot/atlas/pkg/iojson"
)

// ErrNotAFile is returned when the classify target is missing or a directory.
var ErrNotAFile = errors.New("file not found")

// ClassifyResult reports one classified document.
type ClassifyResult struct {
	File    string               `json:"file"`
	Dest    classify.Destination `json:"dest"`
	Moved   string               `json:"moved_to"`
	Sidecar string               `json:"sidecar"`
	Method  extract.Method       `json:"method,omitempty"`
	// Override names the keyword rule that rewrote the domain, if any.
	Override   string          `json:"override,omitempty"`
	Violations []string        `json:"violations,omitempty"`
	Record     classify.Record `json:"record"`
}

// ExitCode is the process exit code for the result.
func (r ClassifyResult) ExitCode() int {
	return r.Dest.ExitCode()
}

// ClassifyService classifies inbox documents into sidecar records.
type ClassifyService struct {
	config    *config.Config
	extractor *extract.Extractor
	gen       llm.Generator
	now       func() time.Time
}

// NewClassifyService creates a ClassifyService.
func NewClassifyService(cfg *config.Config, exec executil.Executor, gen llm.Generator) *ClassifyService {
	return &ClassifyService{
		config:    cfg,
		extractor: extract.New(exec, cfg.ExtractTools(), cfg.Classifier.PDFPages),
		gen:       gen,
		now:       time.Now,
	}
}

// Classify extracts text from path, asks the model for a record, validates
// it, writes the sidecar, and moves the pair to the ready or review folder.
// Model failures produce a needs-review record rather than an error; errors
// are reserved for a bad target or a failed write.
func (s *ClassifyService) Classify(ctx context.Context, path string) (ClassifyResult, error) {
	log := logging.ComponentCtx(ctx, "classifier")

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ClassifyResult{}, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return ClassifyResult{}, fmt.Errorf("resolve %s: %w", path, err)
	}

	res := ClassifyResult{File: abs}

	if !extract.Supported(filepath.Ext(abs)) {
		res.Record = classify.UnsupportedRecord(abs)
		res.Dest = classify.RouteUnsupported(s.config.Classifier.ImportUnsupported)
		log.Info().Str("file", filepath.Base(abs)).Str("dest", string(res.Dest)).Msg("unsupported file type")
		return s.finish(ctx, res)
	}

	prompt, err := s.config.PromptTemplate()
	if err != nil {
		return res, err
	}

	text, err := s.extractor.Text(ctx, abs)
	if err != nil {
		return res, fmt.Errorf("extract text: %w", err)
	}
	res.Method = text.Method

	schema := s.config.Schema()
	rendered, err := classify.RenderPrompt(prompt, classify.NewPromptData(schema, abs, text.Text, s.config.Classifier.MaxChars))
	if err != nil {
		return res, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := s.ask(ctx, rendered)
	if err != nil {
		log.Warn().Err(err).Str("file", filepath.Base(abs)).Msg("model output unusable")
		res.Record = classify.ModelFailureRecord(abs, s.gen.Model(), err)
		res.Dest = classify.Review
		return s.finish(ctx, res)
	}

	res.Override = classify.ApplyKeywordRules(s.config.Classifier.KeywordOverrides, abs, text.Text, raw)
	v := schema.Validate(raw, classify.Stem(abs))
	res.Record = v.Record
	res.Violations = v.Violations
	res.Dest = classify.Route(v.Record)

	log.Info().
		Str("file", filepath.Base(abs)).
		Str("method", string(text.Method)).
		Str("domain", v.Record.Domain).
		Float64("confidence", v.Record.Confidence).
		Strs("violations", v.Violations).
		Str("dest", string(res.Dest)).
		Msg("classified")

	return s.finish(ctx, res)
}

func (s *ClassifyService) ask(ctx context.Context, prompt string) (classify.Raw, error) {
	out, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return classify.ExtractJSON(out)
}

// finish writes the sidecar, moves the pair, and appends telemetry.
func (s *ClassifyService) finish(ctx context.Context, res ClassifyResult) (ClassifyResult, error) {
	sidecar := classify.SidecarPath(res.File)
	if err := iojson.WriteFile(sidecar, res.Record); err != nil {
		return res, fmt.Errorf("write sidecar: %w", err)
	}

	dir := s.config.ClassifierDir(s.config.Classifier.ReviewDir)
	if res.Dest.IsReady() {
		dir = s.config.ClassifierDir(s.config.Classifier.ReadyDir)
	}

	moved, movedSidecar, err := movePair(res.File, sidecar, dir)
	if err != nil {
		return res, err
	}
	res.Moved = moved
	res.Sidecar = movedSidecar

	runID := logging.GetRunID(ctx)
	if runID == "" {
		runID = receipt.NewRunID()
	}
	line := classify.NewTelemetry(s.now(), runID, res.File, s.gen.Model(), res.Dest, res.Record)
	telemetry := s.config.TelemetryFile()
	if err := os.MkdirAll(filepath.Dir(telemetry), 0o755); err != nil {
		return res, fmt.Errorf("create log dir: %w", err)
	}
	if err := iojson.AppendLine(telemetry, line); err != nil {
		log := logging.ComponentCtx(ctx, "classifier")
		log.Warn().Err(err).Msg("telemetry append failed")
	}

	return res, nil
}

// movePair moves a document and its sidecar into dir, replacing files of the
// same name.
func movePair(doc, sidecar, dir string) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create %s: %w", dir, err)
	}
	destDoc := filepath.Join(dir, filepath.Base(doc))
	destSidecar := filepath.Join(dir, filepath.Base(sidecar))
	if err := os.Rename(doc, destDoc); err != nil {
		return "", "", fmt.Errorf("move %s: %w", filepath.Base(doc), err)
	}
	if err := os.Rename(sidecar, destSidecar); err != nil {
		return "", "", fmt.Errorf("move %s: %w", filepath.Base(sidecar), err)
	}
	return destDoc, destSidecar, nil
}

// ValidateRecord coerces an existing record against the configured schema.
func (s *ClassifyService) ValidateRecord(raw classify.Raw, stem string) classify.Validation {
	return s.config.Schema().Validate(raw, stem)
}
