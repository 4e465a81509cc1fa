package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/ltessier/rostersync/core/provision"
	"github.com/ltessier/rostersync/core/roster"
	"github.com/ltessier/rostersync/services/adsync"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	readLineFunc     = readLine          // mockable

	errHelp    = errors.New("help provided")
	errAborted = errors.New("aborted")
)

// razConfirmation must be typed verbatim before a group wipe runs.
const razConfirmation = "SUPPRIMER TOUS"

type (
	provisioner interface {
		Reconcile(ctx context.Context) (roster.DiffResult, error)
		ProvisionMissing(ctx context.Context, classCode, group string) (*provision.BatchReport, error)
		CreateAccount(ctx context.Context, na roster.NewAccount) (roster.Account, error)
		Reset(ctx context.Context, group string) (*provision.BatchReport, error)
		ResetPassword(ctx context.Context, login, password string) (string, error)
		AddClassToGroup(ctx context.Context, classCodes []string, group string) (*provision.BatchReport, error)
		ListDirectoryUsers(ctx context.Context) ([]string, error)
	}

	syncRunner interface {
		Run(ctx context.Context, dryRun bool) (*adsync.Result, error)
	}
)

type commandLine struct {
	svc  provisioner
	sync syncRunner
	out  io.Writer

	migrateFunc func(command string, args ...string) error
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate [COMMAND] [ARGS...]                - run database migrations (default: up)")
	fmt.Fprintln(cli.out, "  reconcile                                  - diff the roster against stored accounts")
	fmt.Fprintln(cli.out, "  provision [-class CODE] [-group GROUP]     - create accounts missing from the store")
	fmt.Fprintln(cli.out, "  adduser -firstname F -surname S [-class C] [-group G] [-password P]")
	fmt.Fprintln(cli.out, "  raz -group GROUP                           - delete every account of a group")
	fmt.Fprintln(cli.out, "  resetpassword -login LOGIN                 - set or regenerate one account's password")
	fmt.Fprintln(cli.out, "  addtogroup -group GROUP -classes A,B       - add stored accounts of classes to a group")
	fmt.Fprintln(cli.out, "  listusers                                  - list user accounts live in the directory")
	fmt.Fprintln(cli.out, "  syncad [-dryrun] [-timeout 5m]             - run the cloud directory sync")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	provisionCmd := flag.NewFlagSet("provision", flag.ExitOnError)
	provisionClass := provisionCmd.String("class", "", "Restrict provisioning to one normalized class code.")
	provisionGroup := provisionCmd.String("group", "", "Directory group for the new accounts (default from config).")

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserFirstname := addUserCmd.String("firstname", "", "The person's firstname.")
	addUserSurname := addUserCmd.String("surname", "", "The person's surname.")
	addUserClass := addUserCmd.String("class", "", "The person's class label.")
	addUserGroup := addUserCmd.String("group", "", "Directory group (default from config).")
	addUserPassword := addUserCmd.String("password", "", "Password; generated from policy when empty.")

	razCmd := flag.NewFlagSet("raz", flag.ExitOnError)
	razGroup := razCmd.String("group", "", "The directory group to wipe.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordLogin := resetPasswordCmd.String("login", "", "The account's login. The password will be prompted next.")

	addToGroupCmd := flag.NewFlagSet("addtogroup", flag.ExitOnError)
	addToGroupGroup := addToGroupCmd.String("group", "", "The target directory group.")
	addToGroupClasses := addToGroupCmd.String("classes", "", "Comma-separated normalized class codes.")

	syncCmd := flag.NewFlagSet("syncad", flag.ExitOnError)
	syncDryRun := syncCmd.Bool("dryrun", false, "Run the sync without applying changes.")
	syncTimeout := syncCmd.Duration("timeout", 0, "Cap the sync run (e.g. 5m). 0 keeps the configured limit.")

	ctx := context.Background()

	switch args[1] {
	case "migrate":
		command := "up"
		var rest []string
		if len(args) > 2 {
			command = args[2]
			rest = args[3:]
		}
		return cli.migrateFunc(command, rest...)

	case "reconcile":
		return cli.reconcile(ctx)

	case "listusers":
		return cli.listUsers(ctx)

	case "provision":
		if err := provisionCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.provision(ctx, *provisionClass, *provisionGroup)

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserFirstname == "" || *addUserSurname == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(ctx, roster.NewAccount{
			Firstname:  *addUserFirstname,
			Surname:    *addUserSurname,
			ClassLabel: *addUserClass,
			Group:      *addUserGroup,
			Password:   *addUserPassword,
		})

	case "raz":
		if err := razCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *razGroup == "" {
			razCmd.Usage()
			return errHelp
		}
		return cli.raz(ctx, *razGroup)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordLogin == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password (empty to regenerate from policy):")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		return cli.resetPassword(ctx, *resetPasswordLogin, string(pwd))

	case "addtogroup":
		if err := addToGroupCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addToGroupGroup == "" || *addToGroupClasses == "" {
			addToGroupCmd.Usage()
			return errHelp
		}
		return cli.addToGroup(ctx, strings.Split(*addToGroupClasses, ","), *addToGroupGroup)

	case "syncad":
		if err := syncCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *syncTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, *syncTimeout)
			defer cancel()
		}
		return cli.syncAD(ctx, *syncDryRun)

	default:
		cli.printUsage()
		return errHelp
	}
}

func readLine() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line), err
}
