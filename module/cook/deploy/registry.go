// Package deploy ships the cook directory to the configured deploy targets.
package deploy

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cookware/cargo-cook/config"
	"github.com/cookware/cargo-cook/util/common/errors"
	"github.com/cookware/cargo-cook/util/common/progress"
)

// Target is one upload or copy mechanism, selected by name.
type Target interface {
	// Name is the identifier used in cook.deploy.targets.
	Name() string

	// Check reports a missing or incomplete parameter block for this target.
	Check(cfg *config.Deploy) error

	// Deploy ships every immediate entry of sourceDir.
	Deploy(ctx context.Context, sourceDir string, cfg *config.Deploy) error
}

// Registry maps lower-cased target names to their implementation.
type Registry struct {
	targets map[string]Target
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{targets: map[string]Target{}}
}

// DefaultRegistry returns a registry holding fscopy, ssh and http, reporting
// through reporter and asking prompter for ssh passwords.
func DefaultRegistry(reporter progress.Reporter, prompter PasswordPrompter) *Registry {
	r := NewRegistry()
	r.Register(NewFSCopyTarget(reporter))
	r.Register(NewSSHTarget(reporter, prompter, NewSSHDialer()))
	r.Register(NewHTTPTarget(reporter))
	return r
}

// Register adds t, replacing any target with the same name.
func (r *Registry) Register(t Target) {
	r.targets[strings.ToLower(t.Name())] = t
}

// Supports reports whether name is registered, ignoring case.
func (r *Registry) Supports(name string) bool {
	_, ok := r.targets[strings.ToLower(name)]
	return ok
}

// Check validates that name is registered and that its parameter block is
// usable.
func (r *Registry) Check(name string, cfg *config.Deploy) error {
	t, ok := r.targets[strings.ToLower(name)]
	if !ok {
		return errors.NewUnsupportedError(errors.KindTarget, name)
	}
	return t.Check(cfg)
}

// Deploy runs the target registered under name.
func (r *Registry) Deploy(ctx context.Context, name, sourceDir string, cfg *config.Deploy) error {
	t, ok := r.targets[strings.ToLower(name)]
	if !ok {
		return errors.NewUnsupportedError(errors.KindTarget, name)
	}
	return t.Deploy(ctx, sourceDir, cfg)
}

// Names returns the registered target names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Outcome is the result of one deploy target.
type Outcome struct {
	Target string
	Err    error
}

// OK reports whether the target succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Deployer runs each declared target once, in declaration order.
type Deployer struct {
	registry *Registry
	reporter progress.Reporter
}

// NewDeployer creates a Deployer over registry.
func NewDeployer(registry *Registry, reporter progress.Reporter) *Deployer {
	return &Deployer{registry: registry, reporter: reporter}
}

// Run deploys sourceDir to every target in cfg. A failing target is reported
// and recorded in its Outcome; the remaining targets still run.
func (d *Deployer) Run(ctx context.Context, sourceDir string, cfg *config.Deploy) []Outcome {
	if cfg == nil {
		return nil
	}

	outcomes := make([]Outcome, 0, len(cfg.Targets))
	for _, name := range cfg.Targets {
		d.reporter.Step(fmt.Sprintf("Deploying to %s", name))

		err := d.registry.Deploy(ctx, name, sourceDir, cfg)
		if err != nil {
			var deployErr *errors.DeployError
			if !errors.As(err, &deployErr) {
				err = errors.NewDeployError(name, "", err)
			}
			log.Error().Err(err).Str("target", name).Msg("deploy target failed")
			d.reporter.Error(err.Error())
		} else {
			log.Debug().Str("target", name).Msg("deploy target finished")
			d.reporter.Success(fmt.Sprintf("Deployed to %s", name))
		}

		outcomes = append(outcomes, Outcome{Target: name, Err: err})
	}
	return outcomes
}
