package batch

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/planner"
	"github.com/trezcool/revisa/core/user"
)

type (
	// PlannerService is the subset of planner.Service the batch jobs drive.
	PlannerService interface {
		CreatePlannerFor(ctx context.Context, usr user.User, opts planner.BuildOptions) (planner.Planner, error)
		UpdateDailyPlannerFor(ctx context.Context, usr user.User) (planner.UpdateResult, error)
	}

	StreakService interface {
		ResetStaleStreaks(ctx context.Context) (int, error)
	}
)

// WeeklyPlannerJob builds each user's weekly planner. Users who already have one are skipped.
func WeeklyPlannerJob(svc PlannerService, logger core.Logger, nextWeek bool) JobFunc {
	return func(ctx context.Context, usr user.User) error {
		p, err := svc.CreatePlannerFor(ctx, usr, planner.BuildOptions{NextWeek: nextWeek})
		switch errors.Cause(err) {
		case nil:
			logger.Debug(fmt.Sprintf("planner %s created for %s (%s)", p.ID, usr.ID, p.StartDate.Format("2006-01-02")))
			return nil
		case planner.ErrPlannerExists, planner.ErrPreconditionFailed:
			logger.Debug(fmt.Sprintf("planner skipped for %s: %v", usr.ID, err))
			return nil
		default:
			return errors.Wrap(err, "creating weekly planner")
		}
	}
}

// DailyUpdateJob adds today's topics to tomorrow's entry of each user's planner.
func DailyUpdateJob(svc PlannerService, logger core.Logger) JobFunc {
	return func(ctx context.Context, usr user.User) error {
		res, err := svc.UpdateDailyPlannerFor(ctx, usr)
		switch errors.Cause(err) {
		case nil:
			logger.Debug(fmt.Sprintf("planner of %s updated with %d topic(s)", usr.ID, len(res.Added)))
			return nil
		case planner.ErrNothingNew, planner.ErrNotFound, planner.ErrDayNotFound:
			return nil
		default:
			return errors.Wrap(err, "updating daily planner")
		}
	}
}

// StreakResetTask zeroes the streaks of the students who did not report progress since yesterday.
func StreakResetTask(svc StreakService) TaskFunc {
	return func(ctx context.Context) (int, error) {
		n, err := svc.ResetStaleStreaks(ctx)
		return n, errors.Wrap(err, "resetting stale streaks")
	}
}
