// Package container maps container format names ("tar", "tar.bzip2", ...)
// to the archive builders the archiver dispatches to.
package container

import (
	"io"
	"os"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/cookware/cargo-cook/module/cook/ingredient"
	"github.com/cookware/cargo-cook/util/common/errors"
)

// Compressor writes every manifest entry into one archive.
// It returns the number of payload bytes fed into the archive before any
// compression, so callers can report a ratio.
type Compressor interface {
	Name() string
	Compress(w io.Writer, files ingredient.Manifest) (int64, error)
}

// Registry looks compressors up by exact name.
type Registry struct {
	compressors map[string]Compressor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{compressors: map[string]Compressor{}}
}

// DefaultRegistry returns a Registry holding every built-in container.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Tar{})
	r.Register(newCompressedTar("tar.gz", gzipWriter))
	r.Register(newCompressedTar("tar.bzip2", bzip2Writer))
	r.Register(newCompressedTar("tar.xz", xzWriter))
	r.Register(newCompressedTar("tar.zst", zstdWriter))
	r.Register(Zip{})
	return r
}

// Register adds or replaces a compressor.
func (r *Registry) Register(c Compressor) {
	r.compressors[c.Name()] = c
}

// Supports reports whether name is a registered container.
func (r *Registry) Supports(name string) bool {
	_, ok := r.compressors[name]
	return ok
}

// Names lists the registered containers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.compressors))
	for n := range r.compressors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Compress builds the named container at destination, truncating any
// previous file. A source that cannot be opened aborts the archive.
func (r *Registry) Compress(files ingredient.Manifest, destination, name string) (int64, error) {
	c, ok := r.compressors[name]
	if !ok {
		return 0, errors.NewUnsupportedError(errors.KindContainer, name)
	}

	f, err := os.Create(destination)
	if err != nil {
		return 0, errors.NewArchiveError(name, destination, err)
	}

	raw, err := c.Compress(f, files)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.NewArchiveError(name, destination, cerr)
	}
	if err != nil {
		return 0, err
	}

	log.Debug().Str("container", name).Str("archive", destination).Int64("payload", raw).Msg("archive written")
	return raw, nil
}
