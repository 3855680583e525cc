package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/atlas/internal/atlas"
	"github.com/hay-kot/atlas/internal/core/classify"
)

// InboxFileCompleter returns a ShellCompleteFunc that suggests the documents
// waiting in the classifier inbox as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func InboxFileCompleter(app *atlas.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		if app.Config == nil {
			return
		}
		inbox := app.Config.ClassifierDir(app.Config.Classifier.InboxDir)
		entries, err := os.ReadDir(inbox)
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, e := range entries {
			if e.IsDir() || classify.IsSidecar(e.Name()) || e.Name()[0] == '.' {
				continue
			}
			_, _ = fmt.Fprintln(w, filepath.Join(inbox, e.Name()))
		}
	}
}
