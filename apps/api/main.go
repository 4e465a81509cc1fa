package main

import (
	"log"
	"os"

	"github.com/ltessier/rostersync/apps/api/echo"
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

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.LoadConfig()

	var logger core.Logger
	if conf.RollbarToken != "" {
		logger = logsvc.NewRollbarLogger(std, conf)
	} else {
		logger = logsvc.NewStdLogger(std, conf)
	}

	if conf.Server.AdminToken == "" {
		std.Fatal("an admin token must be configured")
	}

	db, err := database.Open(conf)
	errAndDie(std, err)
	defer db.Close()
	repo := sqlxrepos.NewAccountRepository(db)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	gateway := directory.NewGateway(conf.Directory, logger)
	errAndDie(std, gateway.Connect())
	defer gateway.Close()

	svc := provision.NewService(
		rostersvc.NewService(conf.RosterFile, logger),
		repo,
		directory.NewService(gateway, conf.Directory, logger),
		roster.NewClassNormalizer(conf.ClassMapping, logger),
		conf,
		logger,
		mailSvc,
	)

	app := echoapi.NewServer(&echoapi.Options{
		Address:    conf.Server.Address,
		AdminToken: conf.Server.AdminToken,
		Debug:      conf.Debug,
		Svc:        svc,
		Sync:       adsync.NewService(conf.Sync, logger),
		Repo:       repo,
		Logger:     logger,
	})
	app.Start()
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
