package classify

import (
	"path/filepath"
	"strings"
)

// Stem returns the file name without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// UnsupportedRecord is written for file types that are not sent to the model.
func UnsupportedRecord(path string) Record {
	return Record{
		Domain:        FallbackDomain,
		ArtifactTypes: []string{"reference"},
		Concepts:      []string{"file-triage"},
		Confidence:    0.5,
		NeedsReview:   true,
		Reason:        "unsupported-filetype:" + strings.ToLower(filepath.Ext(path)),
		ProposedTitle: clip(Stem(path), MaxTitleLen),
	}
}

// ModelFailureRecord is written when the model call fails or returns no
// usable JSON.
func ModelFailureRecord(path, model string, err error) Record {
	return Record{
		Domain:        FallbackDomain,
		ArtifactTypes: []string{"other"},
		Concepts:      []string{},
		Confidence:    0,
		NeedsReview:   true,
		Reason:        "model-output-not-json:" + model + ":" + clip(err.Error(), 120),
		ProposedTitle: clip(Stem(path), MaxTitleLen),
	}
}
