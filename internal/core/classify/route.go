package classify

import "time"

// Destination names where a classified document was routed.
type Destination string

const (
	Ready             Destination = "ReadyForDT"
	Review            Destination = "NeedsReview"
	ReadyUnsupported  Destination = "ReadyForDT_Unsupported"
	ReviewUnsupported Destination = "NeedsReview_Unsupported"
)

// Process exit codes for a classification run.
const (
	ExitReady       = 0
	ExitUnexpected  = 1
	ExitUsage       = 2
	ExitNeedsReview = 10
)

// IsReady reports whether the document goes to the ready folder.
func (d Destination) IsReady() bool {
	return d == Ready || d == ReadyUnsupported
}

// ExitCode maps the destination to the process exit code.
func (d Destination) ExitCode() int {
	if d.IsReady() {
		return ExitReady
	}
	return ExitNeedsReview
}

// Route picks the destination for a validated record.
func Route(rec Record) Destination {
	if rec.NeedsReview {
		return Review
	}
	return Ready
}

// RouteUnsupported picks the destination for a file type the model skips.
func RouteUnsupported(importUnsupported bool) Destination {
	if importUnsupported {
		return ReadyUnsupported
	}
	return ReviewUnsupported
}

// Telemetry is one JSONL line appended per classification.
type Telemetry struct {
	TS            string   `json:"ts"`
	RunID         string   `json:"run_id"`
	File          string   `json:"file"`
	Dest          string   `json:"dest"`
	Model         string   `json:"model"`
	Domain        string   `json:"domain"`
	ArtifactTypes []string `json:"artifact_types"`
	Concepts      []string `json:"concepts"`
	Confidence    float64  `json:"confidence"`
	NeedsReview   bool     `json:"needs_review"`
}

// NewTelemetry builds the telemetry line for a routed record.
func NewTelemetry(now time.Time, runID, file, model string, dest Destination, rec Record) Telemetry {
	return Telemetry{
		TS:            now.Format("2006-01-02T15:04:05"),
		RunID:         runID,
		File:          file,
		Dest:          string(dest),
		Model:         model,
		Domain:        rec.Domain,
		ArtifactTypes: rec.ArtifactTypes,
		Concepts:      rec.Concepts,
		Confidence:    rec.Confidence,
		NeedsReview:   rec.NeedsReview,
	}
}
