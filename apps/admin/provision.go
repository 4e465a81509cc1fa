package main

import (
	"context"
	"fmt"

	"github.com/ltessier/rostersync/core/roster"
)

func (cli *commandLine) reconcile(ctx context.Context) error {
	diff, err := cli.svc.Reconcile(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "missing in store: %d\n", len(diff.MissingInTarget))
	for _, rec := range diff.MissingInTarget {
		fmt.Fprintf(cli.out, "  + %s %s (%s)\n", rec.Firstname, rec.Surname, rec.ClassLabel)
	}
	fmt.Fprintf(cli.out, "no longer on roster: %d\n", len(diff.ExtraInTarget))
	for _, acct := range diff.ExtraInTarget {
		fmt.Fprintf(cli.out, "  - %s (%s)\n", acct.Login, acct.ClassCode)
	}
	return nil
}

func (cli *commandLine) listUsers(ctx context.Context) error {
	logins, err := cli.svc.ListDirectoryUsers(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "users in directory: %d\n", len(logins))
	for _, login := range logins {
		fmt.Fprintf(cli.out, "  %s\n", login)
	}
	return nil
}

func (cli *commandLine) provision(ctx context.Context, classCode, group string) error {
	report, err := cli.svc.ProvisionMissing(ctx, classCode, group)
	if err != nil {
		return err
	}
	fmt.Fprint(cli.out, report.Summary())
	return nil
}

func (cli *commandLine) addUser(ctx context.Context, na roster.NewAccount) error {
	acct, err := cli.svc.CreateAccount(ctx, na)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created %s (password: %s)\n", acct.Login, acct.Password)
	return nil
}

func (cli *commandLine) raz(ctx context.Context, group string) error {
	fmt.Fprintf(cli.out, "This deletes EVERY account of group %q from the directory and the store.\n", group)
	fmt.Fprintf(cli.out, "Type %q to confirm: ", razConfirmation)
	line, err := readLineFunc()
	if err != nil {
		return err
	}
	if line != razConfirmation {
		return errAborted
	}

	report, err := cli.svc.Reset(ctx, group)
	if err != nil {
		return err
	}
	fmt.Fprint(cli.out, report.Summary())
	return nil
}

func (cli *commandLine) resetPassword(ctx context.Context, login, password string) error {
	applied, err := cli.svc.ResetPassword(ctx, login, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password for %s set to: %s\n", login, applied)
	return nil
}

func (cli *commandLine) addToGroup(ctx context.Context, classCodes []string, group string) error {
	report, err := cli.svc.AddClassToGroup(ctx, classCodes, group)
	if err != nil {
		return err
	}
	fmt.Fprint(cli.out, report.Summary())
	return nil
}

func (cli *commandLine) syncAD(ctx context.Context, dryRun bool) error {
	res, err := cli.sync.Run(ctx, dryRun)
	if err != nil {
		return err
	}

	if !res.Summary.Found {
		for _, line := range res.Lines {
			fmt.Fprintln(cli.out, line)
		}
		fmt.Fprintf(cli.out, "exit code: %d (no summary block in output)\n", res.ExitCode)
		return nil
	}

	sum := res.Summary
	if sum.DryRun {
		fmt.Fprintln(cli.out, "mode: DRY RUN")
	}
	fmt.Fprintf(cli.out, "duration: %.1fs, success rate: %.1f%%\n", sum.DurationSec, sum.SuccessRate)
	fmt.Fprintf(cli.out, "users: %d synced, %d errors\n", sum.UsersSynced, sum.UserErrors)
	fmt.Fprintf(cli.out, "groups: %d synced, %d errors\n", sum.GroupsSynced, sum.GroupErrors)
	fmt.Fprintf(cli.out, "password hashes: %d synced, %d errors\n", sum.PasswordsSynced, sum.PasswordErrors)
	return nil
}
