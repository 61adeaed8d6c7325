package main

import (
	"context"
	"errors"

	"github.com/trezcool/academia/storage/database"
)

var (
	gooseRunFunc = database.RunMigrations // mockable

	errNotPostgres = errors.New("this command requires the postgres storage backend")
)

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	if cli.openDB == nil {
		return errNotPostgres
	}
	db, err := cli.openDB(ctx)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	}
	return gooseRunFunc(db, args[0], args[1:]...)
}
