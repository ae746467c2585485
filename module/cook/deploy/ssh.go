package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog/log"

	"github.com/cookware/cargo-cook/config"
	"github.com/cookware/cargo-cook/util/common/errors"
	"github.com/cookware/cargo-cook/util/common/progress"
)

const (
	sshName = "ssh"

	maxPasswordAttempts = 3
)

// PasswordPrompter asks the user for a secret without echoing it.
type PasswordPrompter interface {
	Password(prompt string) (string, error)
}

// SSHSession is one connection to the deploy host. It is owned by a single
// target invocation and closed when that invocation ends.
type SSHSession interface {
	// Authenticate attempts password authentication. A failed attempt may
	// be followed by another one on the same session.
	Authenticate(ctx context.Context, username, password string) error

	// EnsureRemoteDir creates path and its parents on the remote host.
	EnsureRemoteDir(path string) error

	// Upload streams localPath to remotePath, keeping its permission bits,
	// and calls progress with the size of every chunk sent.
	Upload(localPath, remotePath string, progress func(n int)) error

	// Run executes cmd remotely and returns its combined output and exit
	// status. Only transport failures are returned as errors.
	Run(cmd string) (output string, status int, err error)

	Close() error
}

// Dialer opens the transport connection for an SSH session.
type Dialer interface {
	Dial(ctx context.Context, cfg *config.SSH) (SSHSession, error)
}

// SSHTarget uploads the cook directory over SCP and optionally runs a deploy
// script on the remote host.
type SSHTarget struct {
	reporter progress.Reporter
	prompter PasswordPrompter
	dialer   Dialer
}

// NewSSHTarget creates the ssh target.
func NewSSHTarget(reporter progress.Reporter, prompter PasswordPrompter, dialer Dialer) *SSHTarget {
	return &SSHTarget{reporter: reporter, prompter: prompter, dialer: dialer}
}

func (t *SSHTarget) Name() string {
	return sshName
}

func (t *SSHTarget) Check(cfg *config.Deploy) error {
	if cfg == nil || cfg.SSH == nil {
		return errors.NewValidationError("cook.deploy.ssh", "target ssh requires a [cook.deploy.ssh] block")
	}
	switch {
	case cfg.SSH.Hostname == "":
		return errors.NewValidationError("cook.deploy.ssh.hostname", "hostname must be specified")
	case cfg.SSH.Username == "":
		return errors.NewValidationError("cook.deploy.ssh.username", "username must be specified")
	case cfg.SSH.RemotePath == "":
		return errors.NewValidationError("cook.deploy.ssh.remote_path", "remote path must be specified")
	}
	return nil
}

// Deploy connects, authenticates, uploads every entry of sourceDir and runs
// the deploy script when one is configured.
func (t *SSHTarget) Deploy(ctx context.Context, sourceDir string, cfg *config.Deploy) error {
	if err := t.Check(cfg); err != nil {
		return errors.NewDeployError(sshName, "", err)
	}
	c := cfg.SSH

	var sess SSHSession
	err := t.reporter.Wait(fmt.Sprintf("Connecting to %s", c.Hostname), func() error {
		var err error
		sess, err = t.dialer.Dial(ctx, c)
		return err
	})
	if err != nil {
		return errors.NewDeployError(sshName, "connecting to "+c.Hostname, err)
	}
	defer sess.Close()

	if err := t.authenticate(ctx, sess, c); err != nil {
		return err
	}

	t.reporter.Step("Uploading files...")
	if err := sess.EnsureRemoteDir(c.RemotePath); err != nil {
		return errors.NewDeployError(sshName, "creating "+c.RemotePath, err)
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return errors.NewDeployError(sshName, "reading "+sourceDir, err)
	}
	for _, entry := range entries {
		local := filepath.Join(sourceDir, entry.Name())
		if err := t.upload(sess, local, remotePath(c.RemotePath, entry.Name())); err != nil {
			return errors.NewDeployError(sshName, fmt.Sprintf("uploading %q", entry.Name()), err)
		}
	}

	if c.DeployScript != "" {
		return t.runDeployScript(sess, c)
	}
	return nil
}

// authenticate prompts for the password up to maxPasswordAttempts times. The
// password itself never leaves this function except towards the session.
func (t *SSHTarget) authenticate(ctx context.Context, sess SSHSession, c *config.SSH) error {
	for attempt := 1; attempt <= maxPasswordAttempts; attempt++ {
		last := attempt == maxPasswordAttempts

		password, err := t.prompter.Password(fmt.Sprintf("Password for %s: ", c.Username))
		if err != nil {
			return errors.NewDeployError(sshName, "reading password", err)
		}

		if password == "" {
			if last {
				return errors.NewDeployError(sshName, "", errors.ErrEmptyPassword)
			}
			t.reporter.Warn("Password can not be empty.")
			continue
		}

		err = t.reporter.Wait("Authorizing", func() error {
			return sess.Authenticate(ctx, c.Username, password)
		})
		if err == nil {
			log.Debug().Str("username", c.Username).Int("attempt", attempt).Msg("authenticated")
			return nil
		}

		log.Debug().Err(err).Str("username", c.Username).Int("attempt", attempt).Msg("authentication failed")
		if errors.Is(err, ErrConnectionFailed) {
			return errors.NewDeployError(sshName, "connecting to "+c.Hostname, err)
		}
		if last || errors.Is(err, ErrHostKeyRejected) || ctx.Err() != nil {
			return errors.NewDeployError(sshName, "authentication failed", err)
		}
		t.reporter.Error(err.Error())
	}
	return nil
}

func (t *SSHTarget) upload(sess SSHSession, local, remote string) error {
	info, err := os.Stat(local)
	if err != nil {
		return err
	}

	transfer := t.reporter.Transfer(local, info.Size())
	err = sess.Upload(local, remote, transfer.Add)
	transfer.Done()
	return err
}

// runDeployScript uploads the script next to the archives, runs it from the
// remote directory and removes it again.
func (t *SSHTarget) runDeployScript(sess SSHSession, c *config.SSH) error {
	name := filepath.Base(c.DeployScript)
	remote := remotePath(c.RemotePath, name)

	t.reporter.Step(fmt.Sprintf("Uploading deploy script: %s", c.DeployScript))
	if err := t.upload(sess, c.DeployScript, remote); err != nil {
		return errors.NewDeployError(sshName, fmt.Sprintf("uploading deploy script %q", name), err)
	}

	t.reporter.Step(fmt.Sprintf("Executing deploy script: %s", name))
	status, runErr := t.run(sess, fmt.Sprintf("cd %s; sh %s", quoteRemotePath(c.RemotePath), shellescape.Quote(name)))

	if _, err := t.run(sess, "rm "+quoteRemotePath(remote)); err != nil {
		t.reporter.Warn(fmt.Sprintf("Failed to remove %s: %v", remote, err))
	}

	if runErr != nil {
		if c.FailOnScriptError {
			return errors.NewDeployError(sshName, "executing deploy script", runErr)
		}
		t.reporter.Warn(fmt.Sprintf("Failed to execute deploy script: %v", runErr))
		return nil
	}
	if status != 0 {
		message := fmt.Sprintf("deploy script returned %d", status)
		if c.FailOnScriptError {
			return errors.NewDeployError(sshName, message, nil)
		}
		t.reporter.Warn(message)
	}
	return nil
}

// run executes cmd and shows its output, if any.
func (t *SSHTarget) run(sess SSHSession, cmd string) (int, error) {
	output, status, err := sess.Run(cmd)
	if out := strings.TrimRight(output, "\n"); out != "" {
		t.reporter.Info(out)
	}
	log.Debug().Str("command", cmd).Int("status", status).Msg("remote command finished")
	return status, err
}

func remotePath(dir, name string) string {
	return strings.TrimRight(dir, "/") + "/" + name
}

// quoteRemotePath shell-quotes p for the remote shell, leaving a leading ~
// unquoted so that it still expands to the login directory.
func quoteRemotePath(p string) string {
	switch {
	case p == "~" || p == "~/":
		return p
	case strings.HasPrefix(p, "~/"):
		return "~/" + shellescape.Quote(p[2:])
	}
	return shellescape.Quote(p)
}
