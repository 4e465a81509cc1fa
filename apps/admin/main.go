package main

import (
	"log"
	"os"

	"github.com/ltessier/rostersync/core"
	"github.com/ltessier/rostersync/core/provision"
	"github.com/ltessier/rostersync/core/roster"
	"github.com/ltessier/rostersync/services/adsync"
	"github.com/ltessier/rostersync/services/directory"
	emailsvc "github.com/ltessier/rostersync/services/email"
	logsvc "github.com/ltessier/rostersync/services/logger"
	rostersvc "github.com/ltessier/rostersync/services/roster"
	"github.com/ltessier/rostersync/storage/database"
	sqlxrepos "github.com/ltessier/rostersync/storage/database/sqlx"
)

// subcommands that talk to the samba host over SSH
var directoryCommands = map[string]bool{
	"provision":     true,
	"adduser":       true,
	"raz":           true,
	"resetpassword": true,
	"addtogroup":    true,
	"listusers":     true,
}

func main() {
	defer os.Exit(0)

	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.LoadConfig()

	var logger core.Logger
	if conf.RollbarToken != "" {
		logger = logsvc.NewRollbarLogger(std, conf)
	} else {
		logger = logsvc.NewStdLogger(std, conf)
	}

	db, err := database.Open(conf)
	errAndDie(std, err)
	defer db.Close()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	gateway := directory.NewGateway(conf.Directory, logger)
	if len(os.Args) > 1 && directoryCommands[os.Args[1]] {
		errAndDie(std, gateway.Connect())
		defer gateway.Close()
	}

	svc := provision.NewService(
		rostersvc.NewService(conf.RosterFile, logger),
		sqlxrepos.NewAccountRepository(db),
		directory.NewService(gateway, conf.Directory, logger),
		roster.NewClassNormalizer(conf.ClassMapping, logger),
		conf,
		logger,
		mailSvc,
	)

	cli := commandLine{
		svc:  svc,
		sync: adsync.NewService(conf.Sync, logger),
		out:  os.Stdout,
		migrateFunc: func(command string, args ...string) error {
			return database.Run(command, db, args...)
		},
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
