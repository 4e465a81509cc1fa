package adsync

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ltessier/rostersync/core"
)

// ErrTimeout is returned when the sync process outlives its wall-clock
// budget; whatever output was captured up to that point is still returned.
var ErrTimeout = errors.New("sync process timed out")

const defaultTimeout = 10 * time.Minute

// mocked in tests
var (
	checkRunning = pgrep
	killRunning  = pkill
	kinitFunc    = kinit
	startSync    = runSyncProcess
	sleepFunc    = time.Sleep
)

// Result holds one sync run: the exit code, every captured output line and
// the parsed summary (Summary.Found is false when the script emitted none).
type Result struct {
	ExitCode int      `json:"exit_code"`
	Lines    []string `json:"lines"`
	Summary  Summary  `json:"summary"`
}

// Service launches the cloud-identity sync script as a subprocess. The
// script owns the actual tenant communication; this side only guards
// against concurrent runs, authenticates, streams output and parses the
// trailing summary block.
type Service struct {
	conf core.SyncConfig
	log  core.Logger
}

func NewService(conf core.SyncConfig, log core.Logger) *Service {
	return &Service{conf: conf, log: log}
}

// Run executes one sync pass. A prior instance still running is killed
// first rather than queued behind; two concurrent syncs against the same
// tenant corrupt each other's state.
func (s *Service) Run(ctx context.Context, dryRun bool) (*Result, error) {
	pattern := filepath.Base(s.conf.Script)

	running, err := checkRunning(ctx, pattern)
	if err != nil {
		return nil, errors.Wrap(err, "checking for a running sync")
	}
	if running {
		s.log.Warn("a sync is already running, killing it",
			map[string]interface{}{"pattern": pattern})
		if err = killRunning(ctx, pattern); err != nil {
			return nil, errors.Wrap(err, "killing the running sync")
		}
		sleepFunc(2 * time.Second)
	}

	if s.conf.KeytabPath != "" {
		if err = kinitFunc(ctx, s.conf); err != nil {
			return nil, errors.Wrap(err, "kerberos authentication")
		}
		s.log.Info("kerberos ticket acquired",
			map[string]interface{}{"principal": s.conf.Principal})
	}

	timeout := s.conf.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res := &Result{}
	res.ExitCode, err = startSync(runCtx, s.conf, dryRun, func(line string) {
		res.Lines = append(res.Lines, line)
		s.log.Debug(line)
	})
	if runCtx.Err() == context.DeadlineExceeded {
		res.Summary = ParseSummary(res.Lines)
		return res, errors.Wrapf(ErrTimeout, "after %s", timeout)
	}
	if err != nil {
		return res, errors.Wrap(err, "running sync process")
	}

	res.Summary = ParseSummary(res.Lines)
	return res, nil
}

func pgrep(ctx context.Context, pattern string) (bool, error) {
	out, err := exec.CommandContext(ctx, "pgrep", "-f", pattern).Output()
	if err != nil {
		// exit code 1 means no process matched
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(string(out)) != "", nil
}

func pkill(ctx context.Context, pattern string) error {
	err := exec.CommandContext(ctx, "pkill", "-f", pattern).Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return nil
	}
	return err
}

func kinit(ctx context.Context, conf core.SyncConfig) error {
	cmd := exec.CommandContext(ctx, "kinit", "-k", "-t", conf.KeytabPath, conf.Principal)
	cmd.Env = syncEnv(conf)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Errorf("kinit: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

// runSyncProcess starts the script with stderr folded into stdout and
// feeds each output line to lineFn as it arrives.
func runSyncProcess(ctx context.Context, conf core.SyncConfig, dryRun bool, lineFn func(string)) (int, error) {
	args := []string{conf.Script}
	if dryRun {
		args = append(args, "--dryrun")
	}
	cmd := exec.CommandContext(ctx, conf.Python, args...)
	cmd.Dir = conf.WorkDir
	cmd.Env = syncEnv(conf)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		return -1, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lineFn(strings.TrimRight(scanner.Text(), "\r"))
		}
	}()

	err := cmd.Wait()
	pw.Close()
	<-done

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}

func syncEnv(conf core.SyncConfig) []string {
	env := os.Environ()
	if conf.Krb5Conf != "" {
		env = append(env, "KRB5_CONFIG="+conf.Krb5Conf)
	}
	return env
}
