package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/revisa/apps/internal/stack"
	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/batch"
	logsvc "github.com/trezcool/revisa/services/logger"
)

func main() {
	conf := core.Conf

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "WORKER : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	deps, err := stack.New(conf, logger, false /* migrate */)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up dependencies: %v", err), err)
	}
	defer func() {
		if err = deps.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	runner := batch.NewRunner(deps.UserSvc, logger, conf.Batch)
	scheduler := batch.NewScheduler(runner, logger, conf.BatchLocation())
	if err = batch.RegisterPlannerJobs(scheduler, deps.PlannerSvc, logger, conf.Batch); err != nil {
		logger.Error(fmt.Sprintf("registering jobs: %v", err), err)
		return
	}
	if err = batch.RegisterStreakJob(scheduler, deps.UserSvc, conf.Batch); err != nil {
		logger.Error(fmt.Sprintf("registering jobs: %v", err), err)
		return
	}

	logger.Info(fmt.Sprintf("Worker started : version %q, jobs %v", conf.Build, scheduler.Jobs()))
	scheduler.Start()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown

	logger.Info(fmt.Sprintf("%v: Stopping scheduler...", sig))
	scheduler.Stop()
	logger.Info("Worker stopped")
}
