package doctor

import "fmt"

// Check result names shared by the atlas checks and the readiness table.
const (
	ConfigName = "Configuration"
	VaultName  = "Vault"
	DataName   = "Data"
	ToolsName  = "Tools"
)

// Readiness says whether one atlas command can run with the setup checked.
type Readiness struct {
	Command string   `json:"command"`
	Status  Status   `json:"status"`
	Issues  []string `json:"issues,omitempty"`
}

// need names the check items a command depends on. An empty label means
// every item of the check.
type need struct {
	check string
	label string
}

var commandNeeds = []struct {
	command string
	needs   []need
}{
	{"plan", []need{
		{ConfigName, ""},
		{VaultName, "root"},
		{VaultName, "daily_dir"},
		{VaultName, "scratchpad"},
	}},
	{"classify", []need{
		{ConfigName, ""},
		{DataName, "inbox"},
		{DataName, "ready"},
		{DataName, "review"},
		{DataName, "classifier_logs"},
		{ToolsName, "ollama"},
		{ToolsName, "pdftotext"},
	}},
	{"import", []need{
		{DataName, "ready"},
		{DataName, "imported"},
		{ToolsName, "osascript"},
	}},
}

// Assess maps check results onto the commands that depend on them. A command
// takes the worst status among its items. Commands whose checks were not run
// are left out.
func Assess(results []Result) []Readiness {
	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}

	var out []Readiness
	for _, cn := range commandNeeds {
		rd := Readiness{Command: cn.command, Status: StatusPass}
		complete := true
		for _, n := range cn.needs {
			r, ok := byName[n.check]
			if !ok {
				complete = false
				break
			}
			for _, item := range r.Items {
				if n.label != "" && item.Label != n.label {
					continue
				}
				if item.Status == StatusPass {
					continue
				}
				rd.Status = worse(rd.Status, item.Status)
				rd.Issues = append(rd.Issues, fmt.Sprintf("%s/%s: %s", n.check, item.Label, item.Detail))
			}
		}
		if complete {
			out = append(out, rd)
		}
	}
	return out
}

func worse(a, b Status) Status {
	rank := map[Status]int{StatusPass: 0, StatusWarn: 1, StatusFail: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
