package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ltessier/rostersync/core"
)

// Service drives the samba-tool CLI surface over an Executor. All mutations
// are single commands; multi-step flows (create then group-add) are
// sequenced by the provisioning orchestrator, never silently here.
type Service struct {
	exec Executor
	conf core.DirectoryConfig
	log  core.Logger
}

func NewService(exec Executor, conf core.DirectoryConfig, log core.Logger) *Service {
	return &Service{exec: exec, conf: conf, log: log}
}

// quote single-quotes a shell argument, escaping embedded apostrophes.
func quote(s string) string {
	return "'" + strings.ReplaceAll(strings.TrimSpace(s), "'", `\'`) + "'"
}

// CreateUser creates the account with its display names and the class code
// as description. An already-existing account is a soft-success.
func (s *Service) CreateUser(ctx context.Context, login, password, firstname, surname, classCode string) error {
	cmd := fmt.Sprintf(
		"sudo -S samba-tool user create %s %s --given-name=%s --surname=%s --description=%s",
		quote(login), quote(password), quote(firstname), quote(surname), quote(classCode),
	)
	_, stderr, err := s.exec.Execute(ctx, cmd, 60*time.Second)
	if err != nil {
		return err
	}
	switch Classify(stderr) {
	case OK:
		return nil
	case AlreadySatisfied:
		s.log.Info("account already exists in directory", map[string]interface{}{"login": login})
		return nil
	default:
		return &core.DirectoryCommandError{Command: cmd, Stderr: stderr}
	}
}

// DeleteUser removes the account. Reports (false, nil) when the account was
// already gone.
func (s *Service) DeleteUser(ctx context.Context, login string) (bool, error) {
	cmd := "sudo -S samba-tool user delete " + quote(login)
	_, stderr, err := s.exec.Execute(ctx, cmd, 0)
	if err != nil {
		return false, err
	}
	switch Classify(stderr) {
	case OK:
		return true, nil
	case Missing:
		return false, nil
	default:
		return false, &core.DirectoryCommandError{Command: cmd, Stderr: stderr}
	}
}

// SetPassword resets an account's password.
func (s *Service) SetPassword(ctx context.Context, login, password string) error {
	cmd := fmt.Sprintf("sudo -S samba-tool user setpassword %s --newpassword=%s", quote(login), quote(password))
	_, stderr, err := s.exec.Execute(ctx, cmd, 0)
	if err != nil {
		return err
	}
	if out := Classify(stderr); out != OK {
		return &core.DirectoryCommandError{Command: cmd, Stderr: stderr}
	}
	return nil
}

// EnsureGroup creates the group if it is not there yet.
func (s *Service) EnsureGroup(ctx context.Context, group string) error {
	cmd := "sudo -S samba-tool group add " + quote(group)
	_, stderr, err := s.exec.Execute(ctx, cmd, 0)
	if err != nil {
		return err
	}
	switch Classify(stderr) {
	case OK, AlreadySatisfied:
		return nil
	default:
		return &core.DirectoryCommandError{Command: cmd, Stderr: stderr}
	}
}

// AddGroupMember adds login to group; membership already in place is a
// soft-success.
func (s *Service) AddGroupMember(ctx context.Context, group, login string) error {
	cmd := fmt.Sprintf("sudo -S samba-tool group addmembers %s %s", quote(group), quote(login))
	_, stderr, err := s.exec.Execute(ctx, cmd, 0)
	if err != nil {
		return err
	}
	switch Classify(stderr) {
	case OK, AlreadySatisfied:
		return nil
	default:
		return &core.DirectoryCommandError{Command: cmd, Stderr: stderr}
	}
}

// ListGroupMembers returns the live membership of group, system accounts
// filtered out. A missing group yields an empty list.
func (s *Service) ListGroupMembers(ctx context.Context, group string) ([]string, error) {
	cmd := "sudo -S samba-tool group listmembers " + quote(group)
	stdout, stderr, err := s.exec.Execute(ctx, cmd, 0)
	if err != nil {
		return nil, err
	}
	switch Classify(stderr) {
	case OK, AlreadySatisfied:
		return s.filterAccounts(stdout), nil
	case Missing:
		s.log.Warn("group does not exist", map[string]interface{}{"group": group})
		return nil, nil
	default:
		return nil, &core.DirectoryCommandError{Command: cmd, Stderr: stderr}
	}
}

// UserExists probes for an account with several methods, first conclusive
// answer wins; when every probe is inconclusive the account is assumed
// absent (and creation will classify the duplicate as a soft-success anyway).
func (s *Service) UserExists(ctx context.Context, login string) (bool, error) {
	probe := "%s >/dev/null 2>&1 && echo 'exists' || echo 'not found'"
	checks := []string{
		fmt.Sprintf(probe, fmt.Sprintf("wbinfo -i '%s\\%s'", s.conf.Domain, login)),
		fmt.Sprintf(probe, fmt.Sprintf("getent passwd '%s\\%s'", s.conf.Domain, login)),
		fmt.Sprintf(probe, "wbinfo -i "+login),
		fmt.Sprintf(probe, "sudo -S samba-tool user show "+login),
		fmt.Sprintf(probe, fmt.Sprintf(`wbinfo -u | grep -i '^%s\\\\%s$'`, s.conf.Domain, login)),
	}

	for _, cmd := range checks {
		stdout, _, err := s.exec.Execute(ctx, cmd, 10*time.Second)
		if err != nil {
			if core.IsDirectoryUnavailable(err) {
				return false, err
			}
			continue
		}
		if strings.Contains(stdout, "not found") {
			return false, nil
		}
		if strings.Contains(stdout, "exists") {
			return true, nil
		}
	}
	s.log.Warn("could not verify account existence, assuming absent", map[string]interface{}{"login": login})
	return false, nil
}

// builtin accounts never reported by listings, in addition to the
// configured ignore list
var builtinAccounts = []string{
	"nobody", "root", "daemon", "bin", "sys", "sync", "halt",
	"shutdown", "mail", "administrator", "guest", "krbtgt",
}

func (s *Service) filterAccounts(output string) []string {
	ignored := make(map[string]struct{}, len(s.conf.IgnoredAccounts)+len(builtinAccounts))
	for _, u := range s.conf.IgnoredAccounts {
		ignored[strings.ToLower(u)] = struct{}{}
	}
	for _, u := range builtinAccounts {
		ignored[u] = struct{}{}
	}

	var users []string
	for _, line := range strings.Split(output, "\n") {
		name := strings.TrimSpace(line)
		// strip DOMAIN\user prefixes some methods emit
		if i := strings.IndexByte(name, '\\'); i >= 0 {
			name = name[i+1:]
		}
		if name == "" ||
			strings.HasPrefix(name, "#") ||
			strings.HasSuffix(name, "$") || // machine accounts
			strings.HasPrefix(name, "CN=") {
			continue
		}
		if _, skip := ignored[strings.ToLower(name)]; skip {
			continue
		}
		users = append(users, name)
	}
	return users
}
