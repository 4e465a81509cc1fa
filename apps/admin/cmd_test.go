package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/ltessier/rostersync/core/provision"
	"github.com/ltessier/rostersync/core/roster"
	"github.com/ltessier/rostersync/services/adsync"
)

type fakeProvisioner struct {
	diff roster.DiffResult

	provisionClass string
	provisionGroup string
	resetGroup     string
	resetLogin     string
	resetPwd       string
	addedClasses   []string
	createdAccount roster.NewAccount
	dirUsers       []string

	err error
}

func (f *fakeProvisioner) Reconcile(ctx context.Context) (roster.DiffResult, error) {
	return f.diff, f.err
}

func (f *fakeProvisioner) ProvisionMissing(ctx context.Context, classCode, group string) (*provision.BatchReport, error) {
	f.provisionClass, f.provisionGroup = classCode, group
	return &provision.BatchReport{}, f.err
}

func (f *fakeProvisioner) CreateAccount(ctx context.Context, na roster.NewAccount) (roster.Account, error) {
	f.createdAccount = na
	return roster.Account{Login: "jean.dupont", Password: "CFAjd1234!*"}, f.err
}

func (f *fakeProvisioner) Reset(ctx context.Context, group string) (*provision.BatchReport, error) {
	f.resetGroup = group
	return &provision.BatchReport{}, f.err
}

func (f *fakeProvisioner) ResetPassword(ctx context.Context, login, password string) (string, error) {
	f.resetLogin, f.resetPwd = login, password
	if password == "" {
		return "CFAjd0000!*", f.err
	}
	return password, f.err
}

func (f *fakeProvisioner) AddClassToGroup(ctx context.Context, classCodes []string, group string) (*provision.BatchReport, error) {
	f.addedClasses = classCodes
	return &provision.BatchReport{}, f.err
}

func (f *fakeProvisioner) ListDirectoryUsers(ctx context.Context) ([]string, error) {
	return f.dirUsers, f.err
}

type fakeSync struct {
	dryRun      bool
	hadDeadline bool
	res         *adsync.Result
}

func (f *fakeSync) Run(ctx context.Context, dryRun bool) (*adsync.Result, error) {
	f.dryRun = dryRun
	_, f.hadDeadline = ctx.Deadline()
	if f.res != nil {
		return f.res, nil
	}
	return &adsync.Result{}, nil
}

func setup() (*commandLine, *fakeProvisioner, *fakeSync, *bytes.Buffer) {
	svc := &fakeProvisioner{}
	sync := &fakeSync{}
	out := new(bytes.Buffer)
	cli := &commandLine{
		svc:         svc,
		sync:        sync,
		out:         out,
		migrateFunc: func(command string, args ...string) error { return nil },
	}
	return cli, svc, sync, out
}

func Test_commandLine_help(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no subcommand", args: []string{"admin"}},
		{name: "unknown subcommand", args: []string{"admin", "lol"}},
		{name: "raz: no group", args: []string{"admin", "raz"}},
		{name: "resetpassword: no login", args: []string{"admin", "resetpassword"}},
		{name: "adduser: no names", args: []string{"admin", "adduser", "-class", "TBACPRO"}},
		{name: "addtogroup: no classes", args: []string{"admin", "addtogroup", "-group", "WIFI"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, _, _, _ := setup()
			if err := cli.run(tt.args); err != errHelp {
				t.Errorf("cli.run() error = %v, want errHelp", err)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _, _ := setup()
	var gotCommand string
	var gotArgs []string
	cli.migrateFunc = func(command string, args ...string) error {
		gotCommand, gotArgs = command, args
		return nil
	}

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Fatal(err)
	}
	if gotCommand != "up" {
		t.Errorf("command = %q, want up", gotCommand)
	}

	if err := cli.run([]string{"admin", "migrate", "down-to", "1"}); err != nil {
		t.Fatal(err)
	}
	if gotCommand != "down-to" || len(gotArgs) != 1 || gotArgs[0] != "1" {
		t.Errorf("command = %q args = %v", gotCommand, gotArgs)
	}
}

func Test_commandLine_reconcile(t *testing.T) {
	cli, svc, _, out := setup()
	svc.diff = roster.DiffResult{
		MissingInTarget: []roster.PersonRecord{{Surname: "DUPONT", Firstname: "Jean", ClassLabel: "TBACPRO"}},
		ExtraInTarget:   []roster.Account{{Login: "old.account", ClassCode: "2CAP"}},
	}

	if err := cli.run([]string{"admin", "reconcile"}); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if !strings.Contains(got, "missing in store: 1") || !strings.Contains(got, "+ Jean DUPONT") {
		t.Errorf("output = %q", got)
	}
	if !strings.Contains(got, "- old.account") {
		t.Errorf("output = %q", got)
	}
}

func Test_commandLine_provision(t *testing.T) {
	cli, svc, _, _ := setup()

	if err := cli.run([]string{"admin", "provision", "-class", "TBACPRO", "-group", "Eleves2025"}); err != nil {
		t.Fatal(err)
	}
	if svc.provisionClass != "TBACPRO" || svc.provisionGroup != "Eleves2025" {
		t.Errorf("class = %q group = %q", svc.provisionClass, svc.provisionGroup)
	}
}

func Test_commandLine_adduser(t *testing.T) {
	cli, svc, _, out := setup()

	err := cli.run([]string{"admin", "adduser", "-firstname", "Jean", "-surname", "Dupont", "-class", "TERM BAC PRO"})
	if err != nil {
		t.Fatal(err)
	}
	if svc.createdAccount.Firstname != "Jean" || svc.createdAccount.ClassLabel != "TERM BAC PRO" {
		t.Errorf("created = %+v", svc.createdAccount)
	}
	if !strings.Contains(out.String(), "created jean.dupont") {
		t.Errorf("output = %q", out.String())
	}
}

func Test_commandLine_raz(t *testing.T) {
	origRead := readLineFunc
	defer func() { readLineFunc = origRead }()

	t.Run("confirmed", func(t *testing.T) {
		cli, svc, _, _ := setup()
		readLineFunc = func() (string, error) { return razConfirmation, nil }
		if err := cli.run([]string{"admin", "raz", "-group", "Eleves"}); err != nil {
			t.Fatal(err)
		}
		if svc.resetGroup != "Eleves" {
			t.Errorf("reset group = %q", svc.resetGroup)
		}
	})

	t.Run("wrong confirmation aborts", func(t *testing.T) {
		cli, svc, _, _ := setup()
		readLineFunc = func() (string, error) { return "oui", nil }
		if err := cli.run([]string{"admin", "raz", "-group", "Eleves"}); err != errAborted {
			t.Errorf("cli.run() error = %v, want errAborted", err)
		}
		if svc.resetGroup != "" {
			t.Error("reset ran despite aborted confirmation")
		}
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	origRead := readPasswordFunc
	defer func() { readPasswordFunc = origRead }()

	t.Run("chosen password", func(t *testing.T) {
		cli, svc, _, _ := setup()
		readPasswordFunc = func(fd int) ([]byte, error) { return []byte("S3cret!"), nil }
		if err := cli.run([]string{"admin", "resetpassword", "-login", "jean.dupont"}); err != nil {
			t.Fatal(err)
		}
		if svc.resetLogin != "jean.dupont" || svc.resetPwd != "S3cret!" {
			t.Errorf("login = %q pwd = %q", svc.resetLogin, svc.resetPwd)
		}
	})

	t.Run("empty password regenerates", func(t *testing.T) {
		cli, svc, _, out := setup()
		readPasswordFunc = func(fd int) ([]byte, error) { return nil, nil }
		if err := cli.run([]string{"admin", "resetpassword", "-login", "jean.dupont"}); err != nil {
			t.Fatal(err)
		}
		if svc.resetPwd != "" {
			t.Errorf("pwd = %q, want empty (regenerate)", svc.resetPwd)
		}
		if !strings.Contains(out.String(), "CFAjd0000!*") {
			t.Errorf("output = %q", out.String())
		}
	})
}

func Test_commandLine_addToGroup(t *testing.T) {
	cli, svc, _, _ := setup()

	if err := cli.run([]string{"admin", "addtogroup", "-group", "WIFI", "-classes", "TBACPRO,2CAP"}); err != nil {
		t.Fatal(err)
	}
	if len(svc.addedClasses) != 2 || svc.addedClasses[1] != "2CAP" {
		t.Errorf("classes = %v", svc.addedClasses)
	}
}

func Test_commandLine_listUsers(t *testing.T) {
	cli, svc, _, out := setup()
	svc.dirUsers = []string{"jean.dupont", "luc.martin"}

	if err := cli.run([]string{"admin", "listusers"}); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if !strings.Contains(got, "users in directory: 2") ||
		!strings.Contains(got, "jean.dupont") || !strings.Contains(got, "luc.martin") {
		t.Errorf("output = %q", got)
	}
}

func Test_commandLine_syncAD(t *testing.T) {
	cli, _, sync, out := setup()
	sync.res = &adsync.Result{
		ExitCode: 0,
		Summary: adsync.Summary{
			Found: true, DryRun: true, DurationSec: 42.7, SuccessRate: 97.5,
			UsersSynced: 120, UserErrors: 3,
		},
	}

	if err := cli.run([]string{"admin", "syncad", "-dryrun"}); err != nil {
		t.Fatal(err)
	}
	if !sync.dryRun {
		t.Error("dry-run flag not passed")
	}
	got := out.String()
	if !strings.Contains(got, "mode: DRY RUN") || !strings.Contains(got, "users: 120 synced, 3 errors") {
		t.Errorf("output = %q", got)
	}
}

func Test_commandLine_syncAD_noSummary(t *testing.T) {
	cli, _, sync, out := setup()
	sync.res = &adsync.Result{ExitCode: 2, Lines: []string{"boom"}}

	if err := cli.run([]string{"admin", "syncad"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "exit code: 2") || !strings.Contains(out.String(), "boom") {
		t.Errorf("output = %q", out.String())
	}
}

func Test_commandLine_syncAD_timeoutFlag(t *testing.T) {
	cli, _, sync, _ := setup()

	if err := cli.run([]string{"admin", "syncad", "-timeout", "5m"}); err != nil {
		t.Fatal(err)
	}
	if !sync.hadDeadline {
		t.Error("expected a deadline on the sync context")
	}

	sync.hadDeadline = false
	if err := cli.run([]string{"admin", "syncad"}); err != nil {
		t.Fatal(err)
	}
	if sync.hadDeadline {
		t.Error("expected no deadline without -timeout")
	}
}

func Test_commandLine_errorsPropagate(t *testing.T) {
	cli, svc, _, _ := setup()
	svc.err = errors.New("store unavailable")

	if err := cli.run([]string{"admin", "reconcile"}); err == nil {
		t.Fatal("expected an error")
	}
}
