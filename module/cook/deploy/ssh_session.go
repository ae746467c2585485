package deploy

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/net/proxy"

	"github.com/cookware/cargo-cook/config"
	"github.com/cookware/cargo-cook/util/common/errors"
)

const (
	defaultSSHPort = "22"
	dialTimeout    = 30 * time.Second
)

var (
	// ErrHostKeyRejected is returned when the server key does not match
	// the configured known_hosts file. It is never retried.
	ErrHostKeyRejected = fmt.Errorf("ssh: host key rejected")

	// ErrConnectionFailed is returned when the host can not be reached again
	// after a failed authentication attempt. It is never retried.
	ErrConnectionFailed = fmt.Errorf("ssh: connection failed")

	errNotAuthenticated = fmt.Errorf("ssh: session is not authenticated")
)

type sshDialer struct{}

// NewSSHDialer returns a Dialer backed by golang.org/x/crypto/ssh.
func NewSSHDialer() Dialer {
	return sshDialer{}
}

func (sshDialer) Dial(ctx context.Context, cfg *config.SSH) (SSHSession, error) {
	hostKeys, err := hostKeyCallback(cfg.KnownHosts)
	if err != nil {
		return nil, err
	}

	s := &sshSession{
		addr:     hostAddress(cfg.Hostname),
		proxy:    cfg.Proxy,
		hostKeys: hostKeys,
	}
	if s.conn, err = s.dial(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// hostAddress appends the default port when hostname has none.
func hostAddress(hostname string) string {
	if _, _, err := net.SplitHostPort(hostname); err == nil {
		return hostname
	}
	return net.JoinHostPort(strings.Trim(hostname, "[]"), defaultSSHPort)
}

func hostKeyCallback(knownHostsFile string) (ssh.HostKeyCallback, error) {
	if knownHostsFile != "" {
		cb, err := knownhosts.New(knownHostsFile)
		if err != nil {
			return nil, errors.NewFileError(knownHostsFile, "read", err)
		}
		return cb, nil
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		log.Warn().
			Str("host", hostname).
			Str("fingerprint", ssh.FingerprintSHA256(key)).
			Msg("accepting host key without verification, set ssh.known_hosts to check it")
		return nil
	}, nil
}

// sshSession keeps the raw connection until authentication succeeds. A failed
// handshake closes the connection, so the next attempt dials again.
type sshSession struct {
	addr     string
	proxy    string
	hostKeys ssh.HostKeyCallback

	conn       net.Conn
	client     *ssh.Client
	hostKeyErr error
}

func (s *sshSession) dial(ctx context.Context) (net.Conn, error) {
	if s.proxy == "" {
		d := net.Dialer{Timeout: dialTimeout}
		return d.DialContext(ctx, "tcp", s.addr)
	}

	u, err := url.Parse(s.proxy)
	if err != nil {
		return nil, errors.NewValidationError("ssh.proxy", err.Error())
	}
	d, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, err
	}
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, "tcp", s.addr)
	}
	return d.Dial("tcp", s.addr)
}

func (s *sshSession) checkHostKey(hostname string, remote net.Addr, key ssh.PublicKey) error {
	if err := s.hostKeys(hostname, remote, key); err != nil {
		s.hostKeyErr = err
		return err
	}
	return nil
}

func (s *sshSession) Authenticate(ctx context.Context, username, password string) error {
	if s.client != nil {
		return nil
	}
	if s.conn == nil {
		conn, err := s.dial(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
		}
		s.conn = conn
	}

	cfg := &ssh.ClientConfig{
		User:            username,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: s.checkHostKey,
		Timeout:         dialTimeout,
	}

	s.hostKeyErr = nil
	c, chans, reqs, err := ssh.NewClientConn(s.conn, s.addr, cfg)
	if err != nil {
		s.conn.Close()
		s.conn = nil
		if s.hostKeyErr != nil {
			return errors.Wrap(ErrHostKeyRejected, s.hostKeyErr.Error())
		}
		return err
	}

	s.client = ssh.NewClient(c, chans, reqs)
	return nil
}

func (s *sshSession) Run(cmd string) (string, int, error) {
	if s.client == nil {
		return "", -1, errNotAuthenticated
	}

	session, err := s.client.NewSession()
	if err != nil {
		return "", -1, err
	}
	defer session.Close()

	out, err := session.CombinedOutput(cmd)
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return string(out), exitErr.ExitStatus(), nil
		}
		return string(out), -1, err
	}
	return string(out), 0, nil
}

func (s *sshSession) EnsureRemoteDir(dir string) error {
	out, status, err := s.Run("mkdir -p " + quoteRemotePath(dir))
	if err != nil {
		return err
	}
	if status != 0 {
		return fmt.Errorf("mkdir -p %s returned %d: %s", dir, status, strings.TrimSpace(out))
	}
	return nil
}

func (s *sshSession) Upload(localPath, remotePath string, progress func(n int)) error {
	if s.client == nil {
		return errNotAuthenticated
	}

	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", localPath)
	}

	session, err := s.client.NewSession()
	if err != nil {
		return err
	}
	defer session.Close()

	stdin, err := session.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		return err
	}

	if err := session.Start("scp -qt " + quoteRemotePath(remotePath)); err != nil {
		return err
	}

	if err := scpSend(stdin, stdout, path.Base(remotePath), info.Mode(), info.Size(), f, progress); err != nil {
		stdin.Close()
		return err
	}
	stdin.Close()
	return session.Wait()
}

func (s *sshSession) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
