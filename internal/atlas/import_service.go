package atlas

import (
	"context"

	"github.com/hay-kot/atlas/internal/core/archive"
	"github.com/hay-kot/atlas/internal/core/config"
	"github.com/hay-kot/atlas/internal/core/devonthink"
	"github.com/hay-kot/atlas/internal/core/logging"
	"github.com/hay-kot/atlas/pkg/executil"
)

// ImportService hands classified documents to DEVONthink.
type ImportService struct {
	importer *devonthink.Importer
	readyDir string
}

// NewImportService creates an ImportService.
func NewImportService(cfg *config.Config, exec executil.Executor) *ImportService {
	return &ImportService{
		importer: devonthink.New(exec, cfg.Classifier.Tools.Osascript, cfg.ClassifierDir(cfg.Classifier.ImportedDir)),
		readyDir: cfg.ClassifierDir(cfg.Classifier.ReadyDir),
	}
}

// ReadyDir is the default import target.
func (s *ImportService) ReadyDir() string {
	return s.readyDir
}

// Import imports target, a file or a directory. An empty target imports the
// ready folder.
func (s *ImportService) Import(ctx context.Context, target string) (devonthink.Summary, error) {
	if target == "" {
		target = s.readyDir
	}

	sum, err := s.importer.Run(ctx, target)
	log := logging.ComponentCtx(ctx, "import")
	for _, item := range sum.Items {
		if item.Skip != "" {
			log.Debug().Str("file", item.File).Str("reason", item.Skip).Msg("skipped")
			continue
		}
		log.Info().Str("file", item.File).Str("uuid", item.UUID).Str("dest", item.Dest).Msg("imported")
	}
	return sum, err
}

// ArchiveService moves completed scratchpad items into the archive note.
type ArchiveService struct {
	config *config.Config
}

// NewArchiveService creates an ArchiveService.
func NewArchiveService(cfg *config.Config) *ArchiveService {
	return &ArchiveService{config: cfg}
}

// Archive runs one archive pass over the scratchpad.
func (s *ArchiveService) Archive(ctx context.Context) (archive.Result, error) {
	v, err := s.config.VaultLayout()
	if err != nil {
		return archive.Result{}, err
	}

	res, err := archive.New(v.ScratchpadPath(), s.config.ScratchpadArchivePath(), s.config.BackupsDir()).Run()
	if err != nil {
		return res, err
	}
	log := logging.ComponentCtx(ctx, "archive")
	log.Info().Int("archived", res.Archived).Str("backup", res.Backup).Msg("archived scratchpad")
	return res, nil
}
