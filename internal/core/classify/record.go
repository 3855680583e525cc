// Package classify defines the sidecar decision record written for each
// triaged document and the rules that coerce model output into it.
package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// SidecarSuffix is appended to a document's file name to name its record.
const SidecarSuffix = ".atlas.json"

// SidecarPath returns the record path for a document.
func SidecarPath(doc string) string {
	return doc + SidecarSuffix
}

// IsSidecar reports whether name is a record file.
func IsSidecar(name string) bool {
	return strings.HasSuffix(name, SidecarSuffix)
}

// Record is the decision written next to a classified document.
type Record struct {
	Domain        string   `json:"domain"`
	ArtifactTypes []string `json:"artifact_types"`
	Concepts      []string `json:"concepts"`
	Confidence    float64  `json:"confidence"`
	NeedsReview   bool     `json:"needs_review"`
	Reason        string   `json:"reason"`
	ProposedTitle string   `json:"proposed_title"`

	// Set by the document-manager import.
	DTUUID       string `json:"dt_uuid,omitempty"`
	DTImportedAt string `json:"dt_imported_at,omitempty"`
}

// Raw is undecoded model output. Values may have any JSON type.
type Raw map[string]any

// RawFromRecord converts a record back to raw form so it can be validated again.
func RawFromRecord(r Record) Raw {
	raw := Raw{
		"domain":         r.Domain,
		"confidence":     r.Confidence,
		"needs_review":   r.NeedsReview,
		"reason":         r.Reason,
		"proposed_title": r.ProposedTitle,
	}
	arts := make([]any, 0, len(r.ArtifactTypes))
	for _, a := range r.ArtifactTypes {
		arts = append(arts, a)
	}
	raw["artifact_types"] = arts

	concepts := make([]any, 0, len(r.Concepts))
	for _, c := range r.Concepts {
		concepts = append(concepts, c)
	}
	raw["concepts"] = concepts
	return raw
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// ErrNoJSON is returned when model output holds no JSON object.
var ErrNoJSON = errors.New("no JSON object found in model output")

// ExtractJSON decodes the span from the first "{" to the last "}" in output.
func ExtractJSON(output string) (Raw, error) {
	span := jsonObjectRe.FindString(output)
	if span == "" {
		return nil, ErrNoJSON
	}

	var raw Raw
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	return raw, nil
}

func (r Raw) str(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// list returns the string forms of a JSON array value, or nil when the
// value is not an array.
func (r Raw) list(key string) ([]string, bool) {
	arr, ok := r[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case nil:
			out = append(out, "")
		default:
			out = append(out, fmt.Sprint(t))
		}
	}
	return out, true
}

// number parses a numeric or numeric-string value. Unparseable values are 0.
func (r Raw) number(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

// truthy follows JSON-ish truthiness: non-empty strings and non-zero numbers
// count as true.
func (r Raw) truthy(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	return false
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
