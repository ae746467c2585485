// Package ingredient resolves the declared ingredients of a cook run into
// the flat, ordered manifest the archiver consumes.
package ingredient

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"

	"github.com/cookware/cargo-cook/config"
	"github.com/cookware/cargo-cook/util/common/errors"
)

// FileEntry is one resolved (destination inside the archive, source on disk) pair.
type FileEntry struct {
	Destination string
	Source      string
}

// Manifest is the ordered list of entries of one cook run.
type Manifest []FileEntry

// Matcher reports whether a directory entry name is wanted.
type Matcher interface {
	Match(name string) bool
}

type regexMatcher struct{ re *regexp.Regexp }

func (m regexMatcher) Match(name string) bool { return m.re.MatchString(name) }

// NewMatcher compiles the filter (regular expression) or glob of an
// ingredient. It returns a nil Matcher when neither is set.
func NewMatcher(ing config.Ingredient) (Matcher, error) {
	switch {
	case ing.Filter != "":
		re, err := regexp.Compile(ing.Filter)
		if err != nil {
			return nil, err
		}
		return regexMatcher{re}, nil
	case ing.Glob != "":
		return glob.Compile(ing.Glob)
	}
	return nil, nil
}

// ArtifactEntry is the primary build artifact: target_directory/name,
// stored as target_rename when given.
func ArtifactEntry(cfg *config.Config) FileEntry {
	dest := cfg.Package.Name
	if cfg.Cook.TargetRename != "" {
		dest = cfg.Cook.TargetRename
	}
	return FileEntry{
		Destination: dest,
		Source:      cfg.Cook.TargetDirectory + "/" + cfg.Package.Name,
	}
}

// Collect resolves ingredients in declaration order and appends artifact as
// the last entry. Directories are listed one level deep only: sub-directories
// become entries of their own and are not descended into.
func Collect(ingredients []config.Ingredient, artifact FileEntry) (Manifest, error) {
	var files Manifest
	for _, ing := range ingredients {
		info, err := os.Stat(ing.Source)
		switch {
		case err == nil && info.Mode().IsRegular():
			files = append(files, FileEntry{Destination: ing.Destination, Source: ing.Source})
		case err == nil && info.IsDir():
			matcher, err := NewMatcher(ing)
			if err != nil {
				return nil, errors.NewCollectionError(ing.Source, "invalid filter", err)
			}
			files, err = collectDir(ing, matcher, files)
			if err != nil {
				return nil, err
			}
		default:
			return nil, errors.NewCollectionError(ing.Source, "is neither a file nor a directory", err)
		}
	}

	files = append(files, artifact)
	log.Debug().Int("entries", len(files)).Msg("collected ingredients")
	return files, nil
}

func collectDir(ing config.Ingredient, matcher Matcher, files Manifest) (Manifest, error) {
	entries, err := os.ReadDir(ing.Source)
	if err != nil {
		return nil, errors.NewCollectionError(ing.Source, "unable to read directory", err)
	}
	for _, e := range entries {
		name := e.Name()
		if matcher != nil && !matcher.Match(name) {
			log.Debug().Str("source", ing.Source).Str("entry", name).Msg("skipped by filter")
			continue
		}
		files = append(files, FileEntry{
			Destination: ing.Destination + "/" + name,
			Source:      filepath.Join(ing.Source, name),
		})
	}
	return files, nil
}
