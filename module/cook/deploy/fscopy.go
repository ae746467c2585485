package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/cookware/cargo-cook/config"
	"github.com/cookware/cargo-cook/util/common/errors"
	"github.com/cookware/cargo-cook/util/common/fileutil"
	"github.com/cookware/cargo-cook/util/common/progress"
)

const fscopyName = "fscopy"

// FSCopyTarget copies the cook directory entries into a local directory.
type FSCopyTarget struct {
	reporter progress.Reporter
}

// NewFSCopyTarget creates the fscopy target.
func NewFSCopyTarget(reporter progress.Reporter) *FSCopyTarget {
	return &FSCopyTarget{reporter: reporter}
}

func (t *FSCopyTarget) Name() string {
	return fscopyName
}

func (t *FSCopyTarget) Check(cfg *config.Deploy) error {
	if cfg == nil || cfg.FSCopy == nil {
		return errors.NewValidationError("cook.deploy.fscopy", "target fscopy requires a [cook.deploy.fscopy] block")
	}
	if cfg.FSCopy.Path == "" {
		return errors.NewValidationError("cook.deploy.fscopy.path", "path must be specified")
	}
	return nil
}

// Deploy copies each entry to {path}/{entry}. The destination directory must
// exist. The first failed copy stops the target; files already copied stay.
func (t *FSCopyTarget) Deploy(ctx context.Context, sourceDir string, cfg *config.Deploy) error {
	if err := t.Check(cfg); err != nil {
		return errors.NewDeployError(fscopyName, "", err)
	}
	dest := cfg.FSCopy.Path

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return errors.NewDeployError(fscopyName, "reading "+sourceDir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return errors.NewDeployError(fscopyName, "", err)
		}

		src := filepath.Join(sourceDir, entry.Name())
		t.reporter.Step(fmt.Sprintf("Copying %q to %q", src, dest))

		n, err := fileutil.CopyFile(src, filepath.Join(dest, entry.Name()))
		if err != nil {
			return errors.NewDeployError(fscopyName, fmt.Sprintf("copying %q", entry.Name()), err)
		}

		log.Debug().Str("source", src).Int64("bytes", n).Msg("copied")
		t.reporter.Success(fmt.Sprintf("Copied %q to %q", src, dest))
	}
	return nil
}
