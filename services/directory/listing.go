package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ltessier/rostersync/core"
)

// listingCommands returns the alternative user-listing commands in priority
// order. Different samba deployments silently return partial lists under
// some of these methods, so ListUsers tries every one and keeps the largest
// filtered result instead of stopping at the first success.
func (s *Service) listingCommands() []string {
	realm := s.conf.Realm
	baseDN := realmToBaseDN(realm)

	return []string{
		// 1: LDAP search with system authentication, Users container only
		fmt.Sprintf("sudo -S ldapsearch -Y EXTERNAL -H ldapi:/// -b 'CN=Users,%s' "+
			"'(&(objectClass=user)(!(objectClass=computer)))' sAMAccountName | grep sAMAccountName | cut -d' ' -f2", baseDN),
		// 2: LDAP over the whole base, disabled accounts excluded
		fmt.Sprintf("sudo -S ldapsearch -Y EXTERNAL -H ldapi:/// -b '%s' "+
			"'(&(objectClass=user)(!(objectClass=computer))(!(userAccountControl:1.2.840.113556.1.4.803:=2)))' sAMAccountName | grep sAMAccountName | cut -d' ' -f2", baseDN),
		// 3: winbind, all domains
		"wbinfo -u",
		// 4: getent restricted to the realm
		fmt.Sprintf("getent passwd | grep '@%s' | cut -d: -f1 | cut -d@ -f1", realm),
		// 5: samba-tool with admin credentials
		"sudo -S samba-tool user list --username=Administrator --password=$(cat /etc/samba/admin_password 2>/dev/null)",
		// 6: LDAP with an admin bind
		fmt.Sprintf("ldapsearch -x -H ldap://localhost:389 -D 'Administrator@%s' "+
			"-w $(cat /etc/samba/admin_password 2>/dev/null) -b '%s' "+
			"'(&(objectClass=user)(!(objectClass=computer)))' sAMAccountName | grep sAMAccountName | cut -d' ' -f2", realm, baseDN),
		// 7: net rpc
		"net rpc user list -U Administrator%$(cat /etc/samba/admin_password 2>/dev/null) 2>/dev/null",
		// 8: last-resort getent
		"getent passwd | cut -d: -f1",
	}
}

// ListUsers snapshots the directory's account names. Best-effort maximum:
// every listing method is tried and the largest non-empty filtered result
// wins, because no single method is reliable on every deployment and there
// is no ground truth to validate against.
func (s *Service) ListUsers(ctx context.Context) ([]string, error) {
	var best []string
	var lastErr error

	for i, cmd := range s.listingCommands() {
		stdout, stderr, err := s.exec.Execute(ctx, cmd, 30*time.Second)
		if err != nil {
			if core.IsDirectoryUnavailable(err) {
				return nil, err
			}
			lastErr = err
			continue
		}

		users := s.filterAccounts(stdout)
		if len(users) > len(best) {
			best = users
			s.log.Debug("listing method improved the snapshot",
				map[string]interface{}{"method": i + 1, "count": len(users)})
		}
		if stderr != "" && len(users) == 0 {
			s.log.Warn("listing method failed",
				map[string]interface{}{"method": i + 1, "stderr": truncate(stderr, 100)})
		}
	}

	if best == nil && lastErr != nil {
		return nil, lastErr
	}
	return best, nil
}

func realmToBaseDN(realm string) string {
	parts := strings.Split(realm, ".")
	for i, p := range parts {
		parts[i] = "DC=" + p
	}
	return strings.Join(parts, ",")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
