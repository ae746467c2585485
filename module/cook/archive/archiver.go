// Package archive turns a manifest into one archive per container plus its
// hash sidecar files.
package archive

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/cookware/cargo-cook/config"
	"github.com/cookware/cargo-cook/module/cook/container"
	"github.com/cookware/cargo-cook/module/cook/hash"
	"github.com/cookware/cargo-cook/module/cook/ingredient"
	"github.com/cookware/cargo-cook/util/common"
	"github.com/cookware/cargo-cook/util/common/errors"
	"github.com/cookware/cargo-cook/util/common/fileutil"
	"github.com/cookware/cargo-cook/util/common/progress"
)

// Archive describes one produced container file.
type Archive struct {
	Container string
	// Path is the canonical absolute path of the archive.
	Path string
	Size int64
	// Payload is the number of content bytes before compression.
	Payload  int64
	Sidecars []string
}

// Archiver builds archives with the container registry and digests them with
// the hash registry.
type Archiver struct {
	containers *container.Registry
	hashes     *hash.Registry
	reporter   progress.Reporter
}

// New creates an Archiver.
func New(containers *container.Registry, hashes *hash.Registry, reporter progress.Reporter) *Archiver {
	return &Archiver{containers: containers, hashes: hashes, reporter: reporter}
}

// Path returns {cook_directory}/{name}-{version}.{container}.
func Path(cfg *config.Config, containerName string) string {
	return filepath.Join(cfg.Cook.CookDirectory, cfg.ArchiveBaseName()+"."+containerName)
}

// Run creates the cook directory and writes one archive for every configured
// container, each followed by a "{archive}.{hash}" sidecar per configured
// hash holding the lowercase hex digest and a newline.
func (a *Archiver) Run(cfg *config.Config, files ingredient.Manifest) ([]Archive, error) {
	if err := fileutil.EnsureDir(cfg.Cook.CookDirectory); err != nil {
		return nil, err
	}

	archives := make([]Archive, 0, len(cfg.Cook.Containers))
	for _, name := range cfg.Cook.Containers {
		archive, err := a.build(cfg, files, name)
		if err != nil {
			return archives, err
		}
		archives = append(archives, archive)
	}
	return archives, nil
}

func (a *Archiver) build(cfg *config.Config, files ingredient.Manifest, name string) (Archive, error) {
	path := Path(cfg, name)

	payload, err := a.containers.Compress(files, path, name)
	if err != nil {
		return Archive{}, err
	}

	data, err := fileutil.ReadFile(path)
	if err != nil {
		return Archive{}, errors.NewArchiveError(name, path, err)
	}

	archive := Archive{
		Container: name,
		Path:      canonical(path),
		Size:      int64(len(data)),
		Payload:   payload,
	}

	for _, h := range cfg.Cook.Hashes {
		digest, err := a.hashes.Digest(data, h)
		if err != nil {
			return archive, err
		}
		sidecar := path + "." + h
		if err := fileutil.WriteFile(sidecar, []byte(digest+"\n")); err != nil {
			return archive, err
		}
		archive.Sidecars = append(archive.Sidecars, sidecar)
		log.Debug().Str("hash", h).Str("digest", digest).Str("sidecar", sidecar).Msg("digest written")
	}

	a.reporter.Success("Cooked " + archive.Path)
	a.reporter.Info(fmt.Sprintf("%s from %s of content (%s)",
		common.GetSize(archive.Size), common.GetSize(archive.Payload), ratio(archive.Size, archive.Payload)))
	return archive, nil
}

// canonical resolves path to an absolute path with symlinks evaluated,
// falling back to the absolute form when resolution fails.
func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func ratio(size, payload int64) string {
	if payload == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", float64(size)/float64(payload)*100)
}
