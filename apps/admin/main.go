package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	dig_container "github.com/trezcool/academia/apps/api/di/dig"
	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assessment"
	"github.com/trezcool/academia/core/submission"
	"github.com/trezcool/academia/core/user"
	"github.com/trezcool/academia/storage/database"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	var cli commandLine
	if conf.Storage == core.StoragePostgres {
		cli.openDB = func(ctx context.Context) (*sql.DB, error) {
			db, err := database.Open(ctx, conf)
			if err != nil {
				return nil, err
			}
			return db.DB, nil
		}
		cli.createDB = func(ctx context.Context) error {
			return database.CreateIfNotExist(ctx, conf)
		}
	}

	// schema commands must not go through the container: opening the stores migrates up
	if len(os.Args) > 1 && (os.Args[1] == "adduser" || os.Args[1] == "addsubmission") {
		if conf.Storage == core.StorageMemory {
			logger.Println("warning: in-memory storage, nothing will be persisted")
		}
		var runErr error
		c := dig_container.New()
		errAndDie(c.Invoke(func(
			validate *validator.Validate,
			usrRepo user.Repository,
			assessments assessment.Repository,
			submissions submission.Repository,
			closeStores dig_container.StoreCloser,
		) {
			defer func() { _ = closeStores(context.Background()) }()
			cli.validate = validate
			cli.usrRepo = usrRepo
			cli.usrSvc = user.NewService(usrRepo, validate)
			cli.assessments = assessments
			cli.submissions = submissions
			runErr = cli.run(os.Args)
		}))
		exit(runErr)
		return
	}
	exit(cli.run(os.Args))
}

func exit(err error) {
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
