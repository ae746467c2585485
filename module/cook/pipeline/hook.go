package pipeline

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/cookware/cargo-cook/util/common/errors"
)

const (
	preCookHook  = "Pre-cook"
	postCookHook = "Post-cook"
)

// HookResult is the exit status of a hook that ran.
type HookResult struct {
	Hook     string
	Command  string
	ExitCode int
}

// OK reports whether the hook exited with status zero.
func (r *HookResult) OK() bool {
	return r != nil && r.ExitCode == 0
}

// runHook executes command as a plain executable without arguments, in the
// current working directory. A command that cannot be launched is always a
// HookError; a non-zero exit only becomes one when strict is set.
func (p *Pipeline) runHook(ctx context.Context, hook, command string, strict bool) (*HookResult, error) {
	if command == "" {
		return nil, nil
	}

	p.reporter.Step("Executing " + hook)

	path, err := filepath.Abs(command)
	if err != nil {
		return nil, errors.NewHookError(hook, -1, err)
	}

	cmd := exec.CommandContext(ctx, path)
	cmd.Stdin = p.Stdin
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr

	err = cmd.Run()
	result := &HookResult{Hook: hook, Command: command}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return nil, errors.NewHookError(hook, -1, err)
	}

	log.Debug().Str("hook", hook).Str("command", path).Int("exit_code", result.ExitCode).Msg("hook finished")

	message := fmt.Sprintf("%s returned %d", hook, result.ExitCode)
	if result.OK() {
		p.reporter.Success(message)
		return result, nil
	}

	if strict {
		return result, errors.NewHookError(hook, result.ExitCode, nil)
	}
	p.reporter.Error(message)
	return result, nil
}
