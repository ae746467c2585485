package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cookware/cargo-cook/config"
	"github.com/cookware/cargo-cook/module/cook/container"
	"github.com/cookware/cargo-cook/module/cook/deploy"
	"github.com/cookware/cargo-cook/module/cook/hash"
	"github.com/cookware/cargo-cook/util/common/errors"
	"github.com/cookware/cargo-cook/util/common/progress"
)

type fixture struct {
	root   string
	cfg    *config.Config
	out    bytes.Buffer
	hookIO bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	build := filepath.Join(root, "build")
	assert.Nil(t, os.Mkdir(build, 0755))
	assert.Nil(t, os.WriteFile(filepath.Join(build, "demo"), []byte("demo binary"), 0755))

	return &fixture{
		root: root,
		cfg: &config.Config{
			Package: config.Package{Name: "demo", Version: "1.0.0"},
			Cook: &config.Cook{
				TargetDirectory: build,
				CookDirectory:   filepath.Join(root, "out"),
				Containers:      []string{"tar"},
				Hashes:          []string{"sha256"},
			},
		},
	}
}

// script writes an executable shell hook that touches marker and exits
// with code.
func (f *fixture) script(t *testing.T, name string, code int) (path, marker string) {
	t.Helper()
	path = filepath.Join(f.root, name)
	marker = path + ".ran"
	body := fmt.Sprintf("#!/bin/sh\necho %s\ntouch %q\nexit %d\n", name, marker, code)
	assert.Nil(t, os.WriteFile(path, []byte(body), 0755))
	return path, marker
}

func (f *fixture) pipeline() *Pipeline {
	reporter := progress.NewWriterReporter(&f.out)
	p := New(container.DefaultRegistry(), hash.DefaultRegistry(), deploy.DefaultRegistry(reporter, nil), reporter)
	p.Stdin = nil
	p.Stdout = &f.hookIO
	p.Stderr = &f.hookIO
	return p
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRun_DemoPackage(t *testing.T) {
	f := newFixture(t)
	dest := filepath.Join(f.root, "dest")
	assert.Nil(t, os.Mkdir(dest, 0755))
	pre, preMarker := f.script(t, "pre.sh", 0)
	post, postMarker := f.script(t, "post.sh", 0)

	f.cfg.Cook.PreCook = pre
	f.cfg.Cook.PostCook = post
	f.cfg.Cook.Deploy = &config.Deploy{Targets: []string{"fscopy"}, FSCopy: &config.FSCopy{Path: dest}}

	summary, err := f.pipeline().Run(context.Background(), f.cfg)
	assert.Nil(t, err)

	assert.Len(t, summary.Manifest, 1)
	assert.Equal(t, "demo", summary.Manifest[0].Destination)
	assert.Len(t, summary.Archives, 1)
	assert.True(t, summary.PreCook.OK())
	assert.True(t, summary.PostCook.OK())
	assert.Empty(t, summary.FailedDeployments())

	assert.True(t, exists(preMarker))
	assert.True(t, exists(postMarker))
	assert.True(t, exists(filepath.Join(f.cfg.Cook.CookDirectory, "demo-1.0.0.tar")))
	assert.True(t, exists(filepath.Join(f.cfg.Cook.CookDirectory, "demo-1.0.0.tar.sha256")))
	assert.True(t, exists(filepath.Join(dest, "demo-1.0.0.tar")))
	assert.True(t, exists(filepath.Join(dest, "demo-1.0.0.tar.sha256")))

	out := f.out.String()
	assert.Contains(t, out, "⚡ Cooking demo v1.0.0\n")
	assert.Contains(t, out, "Executing Pre-cook")
	assert.Contains(t, out, "✅ Pre-cook returned 0")
	assert.Contains(t, out, "✅ Finished cooking\n")
	assert.Contains(t, f.hookIO.String(), "pre.sh\n")
}

func TestRun_ValidationHappensBeforeAnyIO(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Cook)
		want   error
	}{
		{"unsupported container", func(c *config.Cook) { c.Containers = []string{"tar", "rar"} }, errors.ErrUnsupportedContainer},
		{"container names are exact", func(c *config.Cook) { c.Containers = []string{"TAR"} }, errors.ErrUnsupportedContainer},
		{"unsupported hash", func(c *config.Cook) { c.Hashes = []string{"crc32"} }, errors.ErrUnsupportedHash},
		{"unsupported target", func(c *config.Cook) {
			c.Deploy = &config.Deploy{Targets: []string{"ftp"}}
		}, errors.ErrUnsupportedTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			pre, marker := f.script(t, "pre.sh", 0)
			f.cfg.Cook.PreCook = pre
			tt.mutate(f.cfg.Cook)

			_, err := f.pipeline().Run(context.Background(), f.cfg)

			var cfgErr *errors.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
			assert.True(t, errors.Is(err, tt.want))
			assert.False(t, exists(f.cfg.Cook.CookDirectory))
			assert.False(t, exists(marker))
			assert.Empty(t, f.out.String())
		})
	}
}

func TestRun_TargetWithoutParameterBlock(t *testing.T) {
	f := newFixture(t)
	f.cfg.Cook.Deploy = &config.Deploy{Targets: []string{"ssh"}}

	_, err := f.pipeline().Run(context.Background(), f.cfg)

	var valErr *errors.ValidationError
	if assert.True(t, errors.As(err, &valErr)) {
		assert.Equal(t, "cook.deploy.ssh", valErr.Field)
	}
	assert.False(t, exists(f.cfg.Cook.CookDirectory))
}

func TestRun_HookExitStatus(t *testing.T) {
	t.Run("reported only", func(t *testing.T) {
		f := newFixture(t)
		pre, _ := f.script(t, "pre.sh", 3)
		f.cfg.Cook.PreCook = pre

		summary, err := f.pipeline().Run(context.Background(), f.cfg)
		assert.Nil(t, err)
		assert.Equal(t, 3, summary.PreCook.ExitCode)
		assert.Contains(t, f.out.String(), "❌ Pre-cook returned 3")
		assert.True(t, exists(filepath.Join(f.cfg.Cook.CookDirectory, "demo-1.0.0.tar")))
	})

	t.Run("fatal when configured", func(t *testing.T) {
		f := newFixture(t)
		pre, _ := f.script(t, "pre.sh", 3)
		f.cfg.Cook.PreCook = pre
		f.cfg.Cook.FailOnHookError = true

		_, err := f.pipeline().Run(context.Background(), f.cfg)

		var hookErr *errors.HookError
		if assert.True(t, errors.As(err, &hookErr)) {
			assert.Equal(t, "Pre-cook", hookErr.Hook)
			assert.Equal(t, 3, hookErr.ExitCode)
			assert.Equal(t, "Pre-cook returned 3", err.Error())
		}
		assert.False(t, exists(filepath.Join(f.cfg.Cook.CookDirectory, "demo-1.0.0.tar")))
	})

	t.Run("post hook after archive", func(t *testing.T) {
		f := newFixture(t)
		post, marker := f.script(t, "post.sh", 1)
		f.cfg.Cook.PostCook = post
		f.cfg.Cook.FailOnHookError = true

		summary, err := f.pipeline().Run(context.Background(), f.cfg)
		assert.NotNil(t, err)
		assert.True(t, exists(marker))
		assert.Len(t, summary.Archives, 1)
		assert.NotContains(t, f.out.String(), "Finished cooking")
	})
}

func TestRun_HookLaunchFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.cfg.Cook.PreCook = filepath.Join(f.root, "missing.sh")

	_, err := f.pipeline().Run(context.Background(), f.cfg)

	var hookErr *errors.HookError
	if assert.True(t, errors.As(err, &hookErr)) {
		assert.NotNil(t, hookErr.Wrapped)
	}
	assert.False(t, exists(f.cfg.Cook.CookDirectory))
}

func TestRun_DeployFailureDoesNotStopTheRun(t *testing.T) {
	f := newFixture(t)
	good := filepath.Join(f.root, "good")
	assert.Nil(t, os.Mkdir(good, 0755))
	post, marker := f.script(t, "post.sh", 0)

	f.cfg.Cook.PostCook = post
	f.cfg.Cook.Deploy = &config.Deploy{
		Targets: []string{"fscopy", "http"},
		FSCopy:  &config.FSCopy{Path: good},
		// Nothing listens on port 1.
		HTTP: &config.HTTP{URL: "http://127.0.0.1:1/upload", RetryMax: 1},
	}

	summary, err := f.pipeline().Run(context.Background(), f.cfg)
	assert.Nil(t, err)

	failed := summary.FailedDeployments()
	if assert.Len(t, failed, 1) {
		assert.Equal(t, "http", failed[0].Target)
	}
	assert.True(t, exists(filepath.Join(good, "demo-1.0.0.tar")))
	assert.True(t, exists(marker))
	assert.Contains(t, f.out.String(), "Finished cooking")
}

func TestRun_CollectionError(t *testing.T) {
	f := newFixture(t)
	f.cfg.Cook.Ingredients = []config.Ingredient{
		{Source: filepath.Join(f.root, "nope"), Destination: "nope"},
	}

	_, err := f.pipeline().Run(context.Background(), f.cfg)

	var collErr *errors.CollectionError
	assert.True(t, errors.As(err, &collErr))
	assert.False(t, exists(f.cfg.Cook.CookDirectory))
}
