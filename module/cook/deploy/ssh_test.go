package deploy

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cookware/cargo-cook/config"
	"github.com/cookware/cargo-cook/util/common/errors"
	"github.com/cookware/cargo-cook/util/common/progress"
)

const goodPassword = "s3cret-pa55"

type queuedPrompter struct {
	answers []string
	asked   int
}

func (p *queuedPrompter) Password(prompt string) (string, error) {
	if p.asked >= len(p.answers) {
		return "", fmt.Errorf("no more answers")
	}
	answer := p.answers[p.asked]
	p.asked++
	return answer, nil
}

type fakeSession struct {
	authAttempts int
	authErr      error
	ensured      []string
	uploads      map[string]string
	commands     []string
	status       map[string]int
	runErrs      map[string]error
	closed       bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{uploads: map[string]string{}, status: map[string]int{}, runErrs: map[string]error{}}
}

func (s *fakeSession) Authenticate(ctx context.Context, username, password string) error {
	s.authAttempts++
	if s.authErr != nil {
		return s.authErr
	}
	if password != goodPassword {
		return fmt.Errorf("ssh: handshake failed: ssh: unable to authenticate")
	}
	return nil
}

func (s *fakeSession) EnsureRemoteDir(path string) error {
	s.ensured = append(s.ensured, path)
	return nil
}

func (s *fakeSession) Upload(localPath, remotePath string, progress func(n int)) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	s.uploads[remotePath] = string(data)
	progress(len(data))
	return nil
}

func (s *fakeSession) Run(cmd string) (string, int, error) {
	s.commands = append(s.commands, cmd)
	if err := s.runErrs[cmd]; err != nil {
		return "", -1, err
	}
	if strings.HasPrefix(cmd, "cd ") {
		return "deployed\n", s.status[cmd], nil
	}
	return "", s.status[cmd], nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeDialer struct {
	session *fakeSession
	err     error
}

func (d *fakeDialer) Dial(ctx context.Context, cfg *config.SSH) (SSHSession, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.session, nil
}

func sshConfig(script string) *config.Deploy {
	return &config.Deploy{
		Targets: []string{"ssh"},
		SSH: &config.SSH{
			Hostname:     "deploy.example.org",
			Username:     "cook",
			RemotePath:   "/srv/demo",
			DeployScript: script,
		},
	}
}

func TestSSH_Authentication(t *testing.T) {
	tests := []struct {
		name         string
		answers      []string
		wantErr      error
		wantMessage  string
		wantAttempts int
		wantPrompts  int
	}{
		{
			name:         "three wrong passwords",
			answers:      []string{"one", "two", "three"},
			wantMessage:  "authentication failed",
			wantAttempts: 3,
			wantPrompts:  3,
		},
		{
			name:         "three empty passwords",
			answers:      []string{"", "", ""},
			wantErr:      errors.ErrEmptyPassword,
			wantAttempts: 0,
			wantPrompts:  3,
		},
		{
			name:         "empty then wrong twice",
			answers:      []string{"", "one", "two"},
			wantMessage:  "authentication failed",
			wantAttempts: 2,
			wantPrompts:  3,
		},
		{
			name:         "success on second attempt",
			answers:      []string{"wrong", goodPassword},
			wantAttempts: 2,
			wantPrompts:  2,
		},
		{
			name:         "empty then success",
			answers:      []string{"", goodPassword},
			wantAttempts: 1,
			wantPrompts:  2,
		},
		{
			name:         "wrong twice then empty",
			answers:      []string{"one", "two", ""},
			wantErr:      errors.ErrEmptyPassword,
			wantAttempts: 2,
			wantPrompts:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newFakeSession()
			prompter := &queuedPrompter{answers: tt.answers}
			target := NewSSHTarget(progress.NewNopReporter(), prompter, &fakeDialer{session: sess})

			err := target.Deploy(context.Background(), cookDir(t), sshConfig(""))

			assert.Equal(t, tt.wantAttempts, sess.authAttempts)
			assert.Equal(t, tt.wantPrompts, prompter.asked)
			assert.True(t, sess.closed)

			failed := tt.wantErr != nil || tt.wantMessage != ""
			if !failed {
				assert.Nil(t, err)
				assert.Len(t, sess.uploads, 2)
				return
			}

			assert.Empty(t, sess.uploads)
			var deployErr *errors.DeployError
			if assert.True(t, errors.As(err, &deployErr)) {
				assert.Equal(t, "ssh", deployErr.Target)
			}
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Equal(t, "ssh: SSH password can not be empty", err.Error())
			}
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, deployErr.Message)
			}
			for _, answer := range tt.answers {
				if answer != "" {
					assert.NotContains(t, err.Error(), answer)
				}
			}
		})
	}
}

func TestSSH_UploadsEveryEntry(t *testing.T) {
	sess := newFakeSession()
	var buf bytes.Buffer
	target := NewSSHTarget(progress.NewWriterReporter(&buf), &queuedPrompter{answers: []string{goodPassword}}, &fakeDialer{session: sess})

	err := target.Deploy(context.Background(), cookDir(t), sshConfig(""))
	assert.Nil(t, err)

	assert.Equal(t, []string{"/srv/demo"}, sess.ensured)
	assert.Equal(t, map[string]string{
		"/srv/demo/demo-1.0.0.tar":        "archive",
		"/srv/demo/demo-1.0.0.tar.sha256": "abc\n",
	}, sess.uploads)
	assert.Empty(t, sess.commands)
	assert.NotContains(t, buf.String(), goodPassword)
	assert.Contains(t, buf.String(), "Uploading files...")
}

func TestSSH_DeployScript(t *testing.T) {
	script := filepath.Join(t.TempDir(), "deploy.sh")
	assert.Nil(t, os.WriteFile(script, []byte("tar xf demo-1.0.0.tar\n"), 0755))

	sess := newFakeSession()
	var buf bytes.Buffer
	target := NewSSHTarget(progress.NewWriterReporter(&buf), &queuedPrompter{answers: []string{goodPassword}}, &fakeDialer{session: sess})

	err := target.Deploy(context.Background(), cookDir(t), sshConfig(script))
	assert.Nil(t, err)

	assert.Equal(t, "tar xf demo-1.0.0.tar\n", sess.uploads["/srv/demo/deploy.sh"])
	assert.Equal(t, []string{
		"cd /srv/demo; sh deploy.sh",
		"rm /srv/demo/deploy.sh",
	}, sess.commands)
	assert.Contains(t, buf.String(), "    deployed\n")
}

func TestSSH_DeployScriptExitStatus(t *testing.T) {
	script := filepath.Join(t.TempDir(), "deploy.sh")
	assert.Nil(t, os.WriteFile(script, []byte("exit 3\n"), 0755))

	for _, strict := range []bool{false, true} {
		t.Run(fmt.Sprintf("strict=%v", strict), func(t *testing.T) {
			sess := newFakeSession()
			sess.status["cd /srv/demo; sh deploy.sh"] = 3

			var buf bytes.Buffer
			target := NewSSHTarget(progress.NewWriterReporter(&buf), &queuedPrompter{answers: []string{goodPassword}}, &fakeDialer{session: sess})
			cfg := sshConfig(script)
			cfg.SSH.FailOnScriptError = strict

			err := target.Deploy(context.Background(), cookDir(t), cfg)

			assert.Contains(t, sess.commands, "rm /srv/demo/deploy.sh")
			if strict {
				var deployErr *errors.DeployError
				if assert.True(t, errors.As(err, &deployErr)) {
					assert.Equal(t, "deploy script returned 3", deployErr.Message)
				}
			} else {
				assert.Nil(t, err)
				assert.Contains(t, buf.String(), "⚠ deploy script returned 3")
			}
		})
	}
}

func TestSSH_DeployScriptTransportError(t *testing.T) {
	script := filepath.Join(t.TempDir(), "deploy.sh")
	assert.Nil(t, os.WriteFile(script, []byte("true\n"), 0755))

	for _, strict := range []bool{false, true} {
		t.Run(fmt.Sprintf("strict=%v", strict), func(t *testing.T) {
			sess := newFakeSession()
			sess.runErrs["cd /srv/demo; sh deploy.sh"] = fmt.Errorf("ssh: channel closed")

			var buf bytes.Buffer
			target := NewSSHTarget(progress.NewWriterReporter(&buf), &queuedPrompter{answers: []string{goodPassword}}, &fakeDialer{session: sess})
			cfg := sshConfig(script)
			cfg.SSH.FailOnScriptError = strict

			err := target.Deploy(context.Background(), cookDir(t), cfg)

			assert.Contains(t, sess.commands, "rm /srv/demo/deploy.sh")
			if strict {
				var deployErr *errors.DeployError
				if assert.True(t, errors.As(err, &deployErr)) {
					assert.Equal(t, "executing deploy script", deployErr.Message)
				}
			} else {
				assert.Nil(t, err)
				assert.Contains(t, buf.String(), "⚠ Failed to execute deploy script: ssh: channel closed")
			}
		})
	}
}

func TestSSH_HomeRelativeRemotePath(t *testing.T) {
	script := filepath.Join(t.TempDir(), "deploy.sh")
	assert.Nil(t, os.WriteFile(script, []byte("true\n"), 0755))

	sess := newFakeSession()
	target := NewSSHTarget(progress.NewNopReporter(), &queuedPrompter{answers: []string{goodPassword}}, &fakeDialer{session: sess})
	cfg := sshConfig(script)
	cfg.SSH.RemotePath = "~/apps"

	assert.Nil(t, target.Deploy(context.Background(), cookDir(t), cfg))

	assert.Equal(t, []string{"~/apps"}, sess.ensured)
	assert.Contains(t, sess.uploads, "~/apps/demo-1.0.0.tar")
	assert.Equal(t, []string{
		"cd ~/apps; sh deploy.sh",
		"rm ~/apps/deploy.sh",
	}, sess.commands)
}

func TestQuoteRemotePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/srv/demo", "/srv/demo"},
		{"~", "~"},
		{"~/", "~/"},
		{"~/apps", "~/apps"},
		{"~/my apps/demo.tar", "~/'my apps/demo.tar'"},
		{"/srv/my apps", "'/srv/my apps'"},
		{"~other/apps", "'~other/apps'"},
		{"/srv/$(reboot)", "'/srv/$(reboot)'"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, quoteRemotePath(tt.in))
		})
	}
}

func TestSSH_ReconnectFailureIsNotRetried(t *testing.T) {
	sess := newFakeSession()
	sess.authErr = fmt.Errorf("%w: %w", ErrConnectionFailed, fmt.Errorf("dial tcp: connection refused"))
	prompter := &queuedPrompter{answers: []string{goodPassword, goodPassword, goodPassword}}
	target := NewSSHTarget(progress.NewNopReporter(), prompter, &fakeDialer{session: sess})

	err := target.Deploy(context.Background(), cookDir(t), sshConfig(""))

	var deployErr *errors.DeployError
	if assert.True(t, errors.As(err, &deployErr)) {
		assert.Equal(t, "connecting to deploy.example.org", deployErr.Message)
	}
	assert.True(t, errors.Is(err, ErrConnectionFailed))
	assert.Equal(t, 1, sess.authAttempts)
	assert.Equal(t, 1, prompter.asked)
}

func TestSSH_ConnectFailure(t *testing.T) {
	prompter := &queuedPrompter{answers: []string{goodPassword}}
	target := NewSSHTarget(progress.NewNopReporter(), prompter, &fakeDialer{err: fmt.Errorf("dial tcp: connection refused")})

	err := target.Deploy(context.Background(), cookDir(t), sshConfig(""))

	var deployErr *errors.DeployError
	if assert.True(t, errors.As(err, &deployErr)) {
		assert.Equal(t, "connecting to deploy.example.org", deployErr.Message)
	}
	assert.Equal(t, 0, prompter.asked)
}

func TestSSH_HostKeyRejectedIsNotRetried(t *testing.T) {
	sess := newFakeSession()
	sess.authErr = errors.Wrap(ErrHostKeyRejected, "knownhosts: key mismatch")
	prompter := &queuedPrompter{answers: []string{goodPassword, goodPassword, goodPassword}}
	target := NewSSHTarget(progress.NewNopReporter(), prompter, &fakeDialer{session: sess})

	err := target.Deploy(context.Background(), cookDir(t), sshConfig(""))

	assert.True(t, errors.Is(err, ErrHostKeyRejected))
	assert.Equal(t, 1, sess.authAttempts)
	assert.Equal(t, 1, prompter.asked)
}

func TestSSH_SiblingTargetStillRuns(t *testing.T) {
	dest := t.TempDir()
	sess := newFakeSession()

	r := NewRegistry()
	r.Register(NewSSHTarget(progress.NewNopReporter(), &queuedPrompter{answers: []string{"a", "b", "c"}}, &fakeDialer{session: sess}))
	r.Register(NewFSCopyTarget(progress.NewNopReporter()))

	cfg := sshConfig("")
	cfg.Targets = []string{"ssh", "fscopy"}
	cfg.FSCopy = &config.FSCopy{Path: dest}

	outcomes := NewDeployer(r, progress.NewNopReporter()).Run(context.Background(), cookDir(t), cfg)

	assert.False(t, outcomes[0].OK())
	assert.True(t, outcomes[1].OK())
	assert.Empty(t, sess.uploads)
	_, err := os.Stat(filepath.Join(dest, "demo-1.0.0.tar"))
	assert.Nil(t, err)
}

func TestRemotePath(t *testing.T) {
	assert.Equal(t, "/srv/demo/a.tar", remotePath("/srv/demo", "a.tar"))
	assert.Equal(t, "/srv/demo/a.tar", remotePath("/srv/demo/", "a.tar"))
}
