// Package atlas wires the core packages into the operations the CLI runs.
package atlas

import (
	"github.com/hay-kot/atlas/internal/core/config"
	"github.com/hay-kot/atlas/internal/core/llm"
	"github.com/hay-kot/atlas/pkg/executil"
)

// App is the central entry point for all atlas operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Planner    *PlanService
	Classifier *ClassifyService
	Importer   *ImportService
	Archive    *ArchiveService
	Doctor     *DoctorService

	Config *config.Config
}

// NewApp constructs an App from explicit dependencies. All model calls and
// external tools run through exec.
func NewApp(cfg *config.Config, exec executil.Executor) *App {
	models := func(model string) llm.Generator {
		return llm.NewOllama(exec, cfg.Classifier.OllamaPath, model)
	}

	return &App{
		Planner:    NewPlanService(cfg, models),
		Classifier: NewClassifyService(cfg, exec, models(cfg.Classifier.Model)),
		Importer:   NewImportService(cfg, exec),
		Archive:    NewArchiveService(cfg),
		Doctor:     NewDoctorService(cfg),
		Config:     cfg,
	}
}
