package main

import (
	"github.com/pkg/errors"

	"github.com/trezcool/revisa/storage/database"
)

var (
	gooseRunFunc = database.RunMigration // mockable

	errNoSQLDB = errors.New("migrations require a SQL database engine (postgres or sqlite3)")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoSQLDB
	}
	return gooseRunFunc(cli.db, args[0], args[1:]...)
}
