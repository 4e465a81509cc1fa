package directory

import (
	"context"
	"testing"
	"time"

	"github.com/ltessier/rostersync/core"
)

// orderedExec returns one canned result per call, in order.
type orderedExec struct {
	results []fakeResult
	calls   int
}

func (o *orderedExec) Execute(_ context.Context, _ string, _ time.Duration) (string, string, error) {
	res := fakeResult{}
	if o.calls < len(o.results) {
		res = o.results[o.calls]
	}
	o.calls++
	return res.stdout, res.stderr, res.err
}

func TestService_ListUsers_keepsBestResult(t *testing.T) {
	// method 1 returns a small partial list, method 3 the full one, method 5
	// a partial one again: the best must win and all 8 must have been tried
	exec := &orderedExec{results: []fakeResult{
		{stdout: "jean.dupont\n"},
		{stderr: "ldap_sasl_interactive_bind_s: Can't contact LDAP server"},
		{stdout: "CFA-ELEVES\\jean.dupont\nCFA-ELEVES\\lea.martin\nCFA-ELEVES\\paul.durand\n"},
		{},
		{stdout: "jean.dupont\nlea.martin\n"},
		{},
		{},
		{stdout: "root\ndaemon\nnobody\n"},
	}}
	svc := newTestService(exec)

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if exec.calls != 8 {
		t.Errorf("methods tried = %d, want all 8", exec.calls)
	}
	if len(users) != 3 {
		t.Fatalf("ListUsers() = %v, want the 3-entry snapshot", users)
	}
	if users[0] != "jean.dupont" || users[1] != "lea.martin" || users[2] != "paul.durand" {
		t.Errorf("ListUsers() = %v, domain prefixes not stripped", users)
	}
}

func TestService_ListUsers_allMethodsEmpty(t *testing.T) {
	svc := newTestService(&orderedExec{})

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 0 {
		t.Errorf("ListUsers() = %v, want empty", users)
	}
}

func TestService_ListUsers_connectionLossAborts(t *testing.T) {
	unavailable := &core.DirectoryUnavailableError{Server: "samba:22"}
	exec := &orderedExec{results: []fakeResult{
		{stdout: "jean.dupont\n"},
		{err: unavailable},
	}}
	svc := newTestService(exec)

	if _, err := svc.ListUsers(context.Background()); !core.IsDirectoryUnavailable(err) {
		t.Errorf("ListUsers() error = %v, want DirectoryUnavailableError", err)
	}
}

func TestRealmToBaseDN(t *testing.T) {
	if got := realmToBaseDN("cfa-eleves.lan"); got != "DC=cfa-eleves,DC=lan" {
		t.Errorf("realmToBaseDN() = %q", got)
	}
}
