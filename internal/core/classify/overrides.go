package classify

import (
	"path/filepath"
	"strings"
)

// KeywordRule forces a domain when the file name or content mentions any of
// its keywords.
type KeywordRule struct {
	Name     string   `yaml:"name"`
	Domain   string   `yaml:"domain"`
	Keywords []string `yaml:"keywords"`
	// OnlyFrom limits the rule to records whose current domain is listed.
	// An empty string in the list matches a missing domain. Empty means any.
	OnlyFrom []string `yaml:"only_from"`
}

// DefaultKeywordRules returns the government and public-safety rules.
func DefaultKeywordRules() []KeywordRule {
	return []KeywordRule{
		{
			Name:   "bocc-government-doc",
			Domain: "BOCC",
			Keywords: []string{
				"sumter county", "board of county commissioners", "bocc",
				"certificate of public convenience and necessity", "copcn",
				"ordinance", "resolution", "county administrator", "clerk of court",
				"attest:", "issued this", "zendesk", "county attorney", "clerk to the board",
			},
		},
		{
			Name:   "public-safety",
			Domain: "BOCC",
			Keywords: []string{
				"nena", "apco", "psap", "e911", "ng911", "911",
				"rapidsos", "rapiddeploy", "motorola vesta",
			},
			OnlyFrom: []string{"ABLT", "Archive", "Personal", ""},
		},
	}
}

// ApplyKeywordRules rewrites the raw domain using the first rule that fires
// and prefixes the reason with "keyword-override:<name>". It runs before
// validation. The name of the fired rule is returned, or "".
func ApplyKeywordRules(rules []KeywordRule, path, content string, raw Raw) string {
	hay := strings.ToLower(filepath.Base(path) + "\n" + content)
	current := raw.str("domain")

	for _, rule := range rules {
		if !mentions(hay, rule.Keywords) {
			continue
		}
		if len(rule.OnlyFrom) > 0 && !contains(rule.OnlyFrom, current) {
			continue
		}

		raw["domain"] = rule.Domain
		prefix := "keyword-override:" + rule.Name
		reason := strings.TrimSpace(raw.str("reason"))
		if reason == "" {
			raw["reason"] = clip(prefix, MaxOverrideLen)
		} else {
			raw["reason"] = clip(prefix+" | "+reason, MaxOverrideLen)
		}
		return rule.Name
	}
	return ""
}

func mentions(hay string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(hay, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
