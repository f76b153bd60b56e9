package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"

	"github.com/trezcool/revisa/core"
)

// Scheduler triggers batch runs on cron expressions. A job never overlaps a still running instance of itself.
type Scheduler struct {
	cron   *gocron.Scheduler
	runner *Runner
	logger core.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(runner *Runner, logger core.Logger, loc *time.Location) *Scheduler {
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   s,
		runner: runner,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule runs job for all eligible users whenever spec fires.
func (s *Scheduler) Schedule(spec, name string, job JobFunc) error {
	return s.schedule(spec, name, func() {
		_, _ = s.runner.RunForAllEligibleUsers(s.ctx, name, job) // failures are logged by the runner
	})
}

// ScheduleTask runs task whenever spec fires.
func (s *Scheduler) ScheduleTask(spec, name string, task TaskFunc) error {
	return s.schedule(spec, name, func() {
		_, _ = s.runner.RunTask(s.ctx, name, task)
	})
}

func (s *Scheduler) schedule(spec, name string, fn func()) error {
	_, err := s.cron.Cron(spec).Tag(name).Do(fn)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("scheduling %s (%s)", name, spec))
	}
	s.logger.Info(fmt.Sprintf("scheduled %s job: %q", name, spec))
	return nil
}

// Jobs returns the tags of the registered jobs.
func (s *Scheduler) Jobs() []string {
	tags := make([]string, 0)
	for _, j := range s.cron.Jobs() {
		tags = append(tags, j.Tags()...)
	}
	return tags
}

func (s *Scheduler) Start() {
	s.cron.StartAsync()
}

// Stop cancels the running batches and stops the scheduler.
func (s *Scheduler) Stop() {
	s.cancel()
	s.cron.Stop()
}

// RegisterPlannerJobs schedules the weekly build (one job per cron) and the daily update.
func RegisterPlannerJobs(s *Scheduler, svc PlannerService, logger core.Logger, conf core.BatchConfig) error {
	for i, spec := range conf.WeeklyCrons {
		if err := s.Schedule(spec, fmt.Sprintf("weekly-planner-%d", i+1), WeeklyPlannerJob(svc, logger, conf.NextWeek)); err != nil {
			return err
		}
	}
	if conf.DailyCron != "" {
		if err := s.Schedule(conf.DailyCron, "daily-planner-update", DailyUpdateJob(svc, logger)); err != nil {
			return err
		}
	}
	return nil
}

// RegisterStreakJob schedules the daily reset of the streaks not extended since yesterday.
func RegisterStreakJob(s *Scheduler, svc StreakService, conf core.BatchConfig) error {
	if conf.StreakCron == "" {
		return nil
	}
	return s.ScheduleTask(conf.StreakCron, "streak-reset", StreakResetTask(svc))
}
