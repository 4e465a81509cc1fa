package directory

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"

	"github.com/ltessier/rostersync/core"
)

// sudoMarker flags commands that will prompt for an elevation password on
// stdin right after invocation.
const sudoMarker = "sudo -S"

// Executor runs one remote command at a time and returns its trimmed
// stdout/stderr. Non-empty stderr is NOT an error by itself: several remote
// commands legitimately write to stderr on success, so callers classify the
// content instead.
type Executor interface {
	Execute(ctx context.Context, command string, timeout time.Duration) (stdout, stderr string, err error)
}

// Gateway holds one SSH session to the samba host and serializes command
// execution over it. Not safe for use from concurrent provisioning runs;
// at most one batch drives a gateway at a time.
type Gateway struct {
	conf core.DirectoryConfig
	log  core.Logger

	mu     sync.Mutex
	client *ssh.Client
}

var _ Executor = (*Gateway)(nil)

func NewGateway(conf core.DirectoryConfig, log core.Logger) *Gateway {
	return &Gateway{conf: conf, log: log}
}

// Connect dials the samba host. Host keys are trusted on first use: these
// are unattended school servers reinstalled every summer, which is a trust
// decision made by ops, not an endorsement.
func (g *Gateway) Connect() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return nil
	}

	cfg := &ssh.ClientConfig{
		User:            g.conf.User,
		Auth:            []ssh.AuthMethod{ssh.Password(g.conf.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         g.conf.ConnectTimeout,
	}
	client, err := ssh.Dial("tcp", g.conf.Server, cfg)
	if err != nil {
		return &core.DirectoryUnavailableError{Server: g.conf.Server, Err: err}
	}
	g.client = client
	return nil
}

// Close tears the connection down. Safe to call when not connected.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	return err
}

// Execute runs a single command on the remote host, injecting the elevation
// password when the command carries the sudo marker. It blocks until the
// remote process exits or timeout elapses; on timeout the session is
// abandoned but the connection is kept; the next command gets a fresh
// session on the same transport.
func (g *Gateway) Execute(ctx context.Context, command string, timeout time.Duration) (string, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client == nil {
		return "", "", &core.DirectoryUnavailableError{Server: g.conf.Server, Err: errors.New("not connected")}
	}
	if timeout <= 0 {
		timeout = g.conf.CommandTimeout
	}

	session, err := g.client.NewSession()
	if err != nil {
		return "", "", &core.DirectoryUnavailableError{Server: g.conf.Server, Err: err}
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if strings.Contains(command, sudoMarker) {
		stdin, err := session.StdinPipe()
		if err != nil {
			return "", "", errors.Wrap(err, "opening stdin")
		}
		if err := session.Start(command); err != nil {
			return "", "", errors.Wrapf(err, "starting %q", command)
		}
		// the remote sudo reads the password then expects nothing more
		if _, err := stdin.Write([]byte(g.conf.Password + "\n")); err != nil {
			return "", "", errors.Wrap(err, "writing elevation password")
		}
		_ = stdin.Close()
	} else if err := session.Start(command); err != nil {
		return "", "", errors.Wrapf(err, "starting %q", command)
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		// remote exit status is irrelevant: stderr content decides outcome
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return "", "", ctx.Err()
	case <-timer.C:
		_ = session.Signal(ssh.SIGKILL)
		return "", "", errors.Errorf("command timed out after %s", timeout)
	}

	return cleanOutput(stdout.String()), cleanOutput(stderr.String()), nil
}

// cleanOutput trims whitespace and drops the sudo password prompt echo that
// some shells leave on the first stderr line.
func cleanOutput(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[sudo]") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			return strings.TrimSpace(s[i+1:])
		}
		return ""
	}
	return s
}
