package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/user"
)

type (
	// UserLister enumerates the users a batch job applies to.
	UserLister interface {
		QueryEligible(ctx context.Context) ([]user.User, error)
	}

	// JobFunc processes a single user. Its error only affects that user.
	JobFunc func(ctx context.Context, usr user.User) error

	// TaskFunc processes every matching record at once and returns how many it processed.
	TaskFunc func(ctx context.Context) (int, error)

	// Runner applies a JobFunc to every eligible user, retrying the whole run when enumeration fails.
	Runner struct {
		users      UserLister
		logger     core.Logger
		maxRetries int
		retryDelay time.Duration
		sleep      func(ctx context.Context, d time.Duration) error
	}

	// Report summarizes a completed run.
	Report struct {
		Attempts  int
		Processed int
		Failed    int
	}
)

func NewRunner(users UserLister, logger core.Logger, conf core.BatchConfig) *Runner {
	return &Runner{
		users:      users,
		logger:     logger,
		maxRetries: conf.MaxRetries,
		retryDelay: conf.RetryDelay,
		sleep:      sleepCtx,
	}
}

// RunForAllEligibleUsers runs job for every eligible user. A failure of the run itself (e.g. enumerating users)
// is retried after retryDelay, up to maxRetries times; every retry re-processes all users.
// After exhausting the retries the failure is logged and returned.
func (r *Runner) RunForAllEligibleUsers(ctx context.Context, name string, job JobFunc) (Report, error) {
	return r.retry(ctx, name, func(ctx context.Context) (int, int, error) {
		return r.runOnce(ctx, job)
	})
}

// RunTask runs task with the retry policy of RunForAllEligibleUsers.
func (r *Runner) RunTask(ctx context.Context, name string, task TaskFunc) (Report, error) {
	return r.retry(ctx, name, func(ctx context.Context) (int, int, error) {
		n, err := task(ctx)
		return n, 0, err
	})
}

func (r *Runner) retry(ctx context.Context, name string, run func(ctx context.Context) (processed, failed int, err error)) (Report, error) {
	var rep Report
	for {
		rep.Attempts++
		processed, failed, err := run(ctx)
		if err == nil {
			rep.Processed, rep.Failed = processed, failed
			r.logger.Info(fmt.Sprintf("scheduled %s job completed: %d record(s), %d failure(s)", name, processed, failed))
			return rep, nil
		}

		retriesLeft := r.maxRetries - (rep.Attempts - 1)
		if retriesLeft <= 0 || ctx.Err() != nil {
			r.logger.Error(fmt.Sprintf("running scheduled %s job failed after %d attempt(s)", name, rep.Attempts), err)
			return rep, err
		}
		r.logger.Warn(fmt.Sprintf("running scheduled %s job failed, retrying... (%d retries left)", name, retriesLeft), err)
		if err := r.sleep(ctx, r.retryDelay); err != nil {
			r.logger.Error(fmt.Sprintf("scheduled %s job cancelled", name), err)
			return rep, err
		}
	}
}

func (r *Runner) runOnce(ctx context.Context, job JobFunc) (processed, failed int, err error) {
	users, err := r.users.QueryEligible(ctx)
	if err != nil {
		return 0, 0, errors.Wrap(err, "querying eligible users")
	}

	for _, usr := range users {
		if err := ctx.Err(); err != nil {
			return processed, failed, err
		}
		if err := job(ctx, usr); err != nil {
			failed++
			r.logger.Error(fmt.Sprintf("processing user %s: %v", usr.ID, err), err, usr)
		}
		processed++
	}
	return processed, failed, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
