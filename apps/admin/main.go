package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/revisa/apps/internal/stack"
	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/batch"
	logsvc "github.com/trezcool/revisa/services/logger"
)

func main() {
	conf := core.Conf
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// migrations are run explicitly through the `migrate` command
	deps, err := stack.New(conf, logger, false /* migrate */)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up dependencies: %v", err), err)
	}

	cli := commandLine{
		conf:       conf,
		logger:     logger,
		out:        os.Stdout,
		db:         deps.DB,
		usrSvc:     deps.UserSvc,
		plannerSvc: deps.PlannerSvc,
		runner:     batch.NewRunner(deps.UserSvc, logger, conf.Batch),
	}
	err = cli.run(os.Args)
	_ = deps.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err), err)
		}
		os.Exit(1)
	}
}
