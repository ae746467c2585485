// Package pipeline runs a complete cook: validation, hooks, collection,
// archiving and deployment.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/cookware/cargo-cook/config"
	"github.com/cookware/cargo-cook/module/cook/archive"
	"github.com/cookware/cargo-cook/module/cook/container"
	"github.com/cookware/cargo-cook/module/cook/deploy"
	"github.com/cookware/cargo-cook/module/cook/hash"
	"github.com/cookware/cargo-cook/module/cook/ingredient"
	"github.com/cookware/cargo-cook/util/common/errors"
	"github.com/cookware/cargo-cook/util/common/progress"
)

// Pipeline holds the registries consulted by every step.
type Pipeline struct {
	containers *container.Registry
	hashes     *hash.Registry
	targets    *deploy.Registry
	reporter   progress.Reporter

	// Stdin, Stdout and Stderr are handed to hook processes.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New creates a Pipeline whose hooks inherit the process stdio.
func New(containers *container.Registry, hashes *hash.Registry, targets *deploy.Registry, reporter progress.Reporter) *Pipeline {
	return &Pipeline{
		containers: containers,
		hashes:     hashes,
		targets:    targets,
		reporter:   reporter,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

// Summary is what a finished run produced.
type Summary struct {
	Manifest    ingredient.Manifest
	Archives    []archive.Archive
	Deployments []deploy.Outcome
	PreCook     *HookResult
	PostCook    *HookResult
}

// FailedDeployments returns the outcomes of the targets that failed.
func (s *Summary) FailedDeployments() []deploy.Outcome {
	var failed []deploy.Outcome
	for _, o := range s.Deployments {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Validate checks every declared container, hash and deploy target against
// the registries. It performs no file I/O.
func (p *Pipeline) Validate(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.NewConfigurationError("invalid configuration", err)
	}

	for _, name := range cfg.Cook.Containers {
		if !p.containers.Supports(name) {
			return errors.NewConfigurationError("invalid configuration", errors.NewUnsupportedError(errors.KindContainer, name))
		}
	}
	for _, name := range cfg.Cook.Hashes {
		if !p.hashes.Supports(name) {
			return errors.NewConfigurationError("invalid configuration", errors.NewUnsupportedError(errors.KindHash, name))
		}
	}
	if d := cfg.Cook.Deploy; d != nil {
		for _, name := range d.Targets {
			if err := p.targets.Check(name, d); err != nil {
				return errors.NewConfigurationError("invalid configuration", err)
			}
		}
	}
	return nil
}

// Run executes the whole pipeline. Validation, collection, archiving and hook
// launch failures are returned as errors; deploy failures are recorded in the
// summary and never stop the run.
func (p *Pipeline) Run(ctx context.Context, cfg *config.Config) (*Summary, error) {
	if err := p.Validate(cfg); err != nil {
		return nil, err
	}
	c := cfg.Cook
	summary := &Summary{}

	p.reporter.Start(fmt.Sprintf("Cooking %s v%s", cfg.Package.Name, cfg.Package.Version))
	defer p.reporter.End()

	var err error
	if summary.PreCook, err = p.runHook(ctx, preCookHook, c.PreCook, c.FailOnHookError); err != nil {
		return summary, err
	}

	summary.Manifest, err = ingredient.Collect(c.Ingredients, ingredient.ArtifactEntry(cfg))
	if err != nil {
		return summary, err
	}

	summary.Archives, err = archive.New(p.containers, p.hashes, p.reporter).Run(cfg, summary.Manifest)
	if err != nil {
		return summary, err
	}

	if c.Deploy != nil && len(c.Deploy.Targets) > 0 {
		deployer := deploy.NewDeployer(p.targets, p.reporter)
		summary.Deployments = deployer.Run(ctx, c.CookDirectory, c.Deploy)
	}

	if summary.PostCook, err = p.runHook(ctx, postCookHook, c.PostCook, c.FailOnHookError); err != nil {
		return summary, err
	}

	log.Info().
		Int("entries", len(summary.Manifest)).
		Int("archives", len(summary.Archives)).
		Int("failed_deployments", len(summary.FailedDeployments())).
		Msg("cook finished")
	p.reporter.Success("Finished cooking")
	return summary, nil
}
