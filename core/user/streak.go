package user

import (
	"context"
	"time"

	"github.com/jinzhu/now"
	"github.com/pkg/errors"
)

func (svc *Service) startOfDay(t time.Time) time.Time {
	return now.New(t.In(svc.loc)).BeginningOfDay()
}

// ExtendStreak counts today in the study streak of usr. Days already counted are left as is;
// a streak last extended before yesterday restarts at 1.
func (svc *Service) ExtendStreak(ctx context.Context, usr User) (User, error) {
	at := NowFunc().UTC()
	today := svc.startOfDay(at)

	if usr.Streak.Count == 0 || usr.Streak.UpdatedAt == nil {
		usr.Streak.Count = 1
	} else {
		last := svc.startOfDay(*usr.Streak.UpdatedAt)
		switch {
		case !last.Before(today):
			return usr, nil
		case last.Equal(today.AddDate(0, 0, -1)):
			usr.Streak.Count++
		default:
			usr.Streak.Count = 1
		}
	}
	usr.Streak.UpdatedAt = &at
	usr.UpdatedAt = at

	usr, err := svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "extending streak")
}

// ResetStaleStreaks zeroes the streak of every user who did not extend it yesterday or today.
// It returns the number of streaks reset.
func (svc *Service) ResetStaleStreaks(ctx context.Context) (int, error) {
	at := NowFunc().UTC()
	yesterday := svc.startOfDay(at).AddDate(0, 0, -1)

	users, err := svc.repo.QueryUsers(ctx, &QueryFilter{StreakBefore: yesterday})
	if err != nil {
		return 0, errors.Wrap(err, "querying stale streaks")
	}
	for i, usr := range users {
		resetAt := at
		usr.Streak = Streak{Count: 0, UpdatedAt: &resetAt}
		usr.UpdatedAt = at
		if _, err := svc.repo.UpdateUser(ctx, usr); err != nil {
			return i, errors.Wrapf(err, "resetting streak of user %s", usr.ID)
		}
	}
	return len(users), nil
}
