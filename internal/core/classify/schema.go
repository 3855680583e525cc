package classify

import (
	"regexp"
	"strings"
)

// Field limits.
const (
	MaxArtifactTypes = 2
	MaxConcepts      = 5
	MaxTitleLen      = 120
	MaxReasonLen     = 240
	MaxOverrideLen   = 180

	DefaultThreshold = 0.72
	FallbackDomain   = "Personal"
)

// Schema is the closed vocabulary records are checked against.
type Schema struct {
	Domains       []string
	ArtifactTypes []string
	// Aliases rewrite artifact types before they are checked.
	Aliases map[string]string
	// Threshold is the confidence below which a record needs review.
	Threshold float64
	Fallback  string
}

// DefaultSchema returns the standard domains and artifact types.
func DefaultSchema() Schema {
	return Schema{
		Domains: []string{"ABLT", "PraxisScribe", "BOCC", "ALS_Doctoral", "CrimsonOath", "Personal"},
		ArtifactTypes: []string{
			"reference", "research", "literature-review", "case-study", "note", "draft",
			"outline", "published-piece", "policy", "procedure", "memo", "meeting-notes",
			"agenda", "report", "contract", "invoice", "budget", "grant", "course-material",
			"assignment", "study-notes", "itinerary", "supplier-info", "client-communication",
			"scene", "character-profile", "worldbuilding", "other",
		},
		Aliases: map[string]string{
			"agreement":                   "contract",
			"interlocal-agreement":        "contract",
			"interlocal agreement":        "contract",
			"mou":                         "contract",
			"memorandum-of-understanding": "contract",
			"memorandum of understanding": "contract",
			"contractual-agreement":       "contract",
		},
		Threshold: DefaultThreshold,
		Fallback:  FallbackDomain,
	}
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

var (
	spaceRe      = regexp.MustCompile(`\s+`)
	conceptBadRe = regexp.MustCompile(`[^a-z0-9-]`)
	dashRunRe    = regexp.MustCompile(`-{2,}`)
)

// NormalizeDomain trims and replaces spaces with underscores.
func NormalizeDomain(d string) string {
	return strings.ReplaceAll(strings.TrimSpace(d), " ", "_")
}

// NormalizeConcept lowercases, hyphenates whitespace, and drops anything
// outside [a-z0-9-].
func NormalizeConcept(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	c = spaceRe.ReplaceAllString(c, "-")
	c = conceptBadRe.ReplaceAllString(c, "")
	c = dashRunRe.ReplaceAllString(c, "-")
	return strings.Trim(c, "-")
}

// Validation is the coerced record plus what was wrong with the input.
type Validation struct {
	Record Record
	// Forced is set when any field had to be coerced.
	Forced bool
	// Violations lists the coercions in the order they were applied.
	Violations []string
}

// Validate coerces raw model output into a record. Invalid values are
// replaced with safe defaults rather than rejected, and each replacement is
// recorded and appended to the reason. The returned record's NeedsReview is
// set from the coercions, the model's own flag, and the confidence threshold.
func (s Schema) Validate(raw Raw, stem string) Validation {
	var (
		rec     Record
		reasons []string
	)
	flag := func(r string) { reasons = append(reasons, r) }

	// domain
	rawDomain := raw.str("domain")
	domain := NormalizeDomain(rawDomain)
	switch {
	case contains(s.Domains, domain):
		rec.Domain = domain
	default:
		if domain == "" {
			flag("invalid-domain:missing")
		} else {
			flag("invalid-domain:" + domain)
		}
		rec.Domain = s.fallback()
	}

	// artifact types
	arts, _ := raw.list("artifact_types")
	cleaned := make([]string, 0, len(arts))
	for _, a := range arts {
		if a = strings.TrimSpace(a); a != "" {
			cleaned = append(cleaned, a)
		}
	}
	if len(cleaned) > MaxArtifactTypes {
		cleaned = cleaned[:MaxArtifactTypes]
	}
	var invalid []string
	rec.ArtifactTypes = make([]string, 0, len(cleaned))
	for _, a := range cleaned {
		if alias, ok := s.Aliases[a]; ok {
			a = alias
		}
		if !contains(s.ArtifactTypes, a) {
			invalid = append(invalid, a)
			continue
		}
		rec.ArtifactTypes = append(rec.ArtifactTypes, a)
	}
	if len(invalid) > 0 {
		flag("invalid-artifact-types:" + strings.Join(invalid, ","))
	}
	if len(rec.ArtifactTypes) == 0 {
		flag("missing-artifact-types")
	}

	// concepts
	concepts, _ := raw.list("concepts")
	seen := make(map[string]struct{}, len(concepts))
	rec.Concepts = make([]string, 0, MaxConcepts)
	for _, c := range concepts {
		nc := NormalizeConcept(c)
		if nc == "" {
			continue
		}
		if _, dup := seen[nc]; dup {
			continue
		}
		seen[nc] = struct{}{}
		if len(rec.Concepts) < MaxConcepts {
			rec.Concepts = append(rec.Concepts, nc)
		}
	}
	if len(concepts) > 0 && len(rec.Concepts) == 0 {
		flag("invalid-concepts")
	}

	// confidence
	conf := raw.number("confidence")
	if conf < 0 || conf > 1 {
		flag("invalid-confidence")
		conf = 0
	}
	rec.Confidence = conf

	// title
	title := strings.TrimSpace(raw.str("proposed_title"))
	if title == "" {
		title = stem
	}
	rec.ProposedTitle = clip(title, MaxTitleLen)

	// reason
	forced := len(reasons) > 0
	reason := strings.TrimSpace(raw.str("reason"))
	if forced {
		suffix := strings.Join(reasons, " | ")
		if reason == "" {
			reason = suffix
		} else {
			reason = strings.Trim(reason+" | "+suffix, " |")
		}
	}
	rec.Reason = clip(reason, MaxReasonLen)

	rec.DTUUID = raw.str("dt_uuid")
	rec.DTImportedAt = raw.str("dt_imported_at")

	rec.NeedsReview = forced || raw.truthy("needs_review") || rec.Confidence < s.threshold()

	return Validation{Record: rec, Forced: forced, Violations: reasons}
}

func (s Schema) fallback() string {
	if s.Fallback != "" {
		return s.Fallback
	}
	return FallbackDomain
}

func (s Schema) threshold() float64 {
	if s.Threshold > 0 {
		return s.Threshold
	}
	return DefaultThreshold
}
