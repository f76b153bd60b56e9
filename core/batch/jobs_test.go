package batch

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/planner"
	"github.com/trezcool/revisa/core/user"
	"github.com/trezcool/revisa/services/logger"
)

type plannerSvcMock struct {
	createErr error
	updateErr error
	nextWeek  []bool
}

func (m *plannerSvcMock) CreatePlannerFor(_ context.Context, usr user.User, opts planner.BuildOptions) (planner.Planner, error) {
	m.nextWeek = append(m.nextWeek, opts.NextWeek)
	return planner.Planner{ID: "p-" + usr.ID}, m.createErr
}

func (m *plannerSvcMock) UpdateDailyPlannerFor(context.Context, user.User) (planner.UpdateResult, error) {
	return planner.UpdateResult{}, m.updateErr
}

func TestWeeklyPlannerJob(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "created"},
		{name: "already exists", err: planner.ErrPlannerExists},
		{name: "not subscribed", err: planner.ErrPreconditionFailed},
		{name: "storage failure", err: errors.New("db is down"), wantErr: true},
		{name: "retrieval failure", err: &planner.RetrievalError{Op: "loading topics", Err: errors.New("timeout")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &plannerSvcMock{createErr: tt.err}
			job := WeeklyPlannerJob(svc, logsvc.NewDiscardLogger(), true)

			err := job(context.Background(), user.User{ID: "u1"})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, []bool{true}, svc.nextWeek)
		})
	}
}

func TestDailyUpdateJob(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "updated"},
		{name: "nothing new", err: planner.ErrNothingNew},
		{name: "no planner", err: planner.ErrNotFound},
		{name: "no day", err: planner.ErrDayNotFound},
		{name: "storage failure", err: errors.New("db is down"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := DailyUpdateJob(&plannerSvcMock{updateErr: tt.err}, logsvc.NewDiscardLogger())
			err := job(context.Background(), user.User{ID: "u1"})
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestRegisterPlannerJobs(t *testing.T) {
	logger := logsvc.NewDiscardLogger()
	runner := NewRunner(&userListerMock{}, logger, core.BatchConfig{})
	s := NewScheduler(runner, logger, time.UTC)
	defer s.Stop()

	err := RegisterPlannerJobs(s, &plannerSvcMock{}, logger, core.BatchConfig{
		WeeklyCrons: []string{"10 19 * * 4", "12 19 * * 4"},
		DailyCron:   "30 16 * * *",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"weekly-planner-1", "weekly-planner-2", "daily-planner-update"}, s.Jobs())

	err = s.Schedule("not a cron", "broken", DailyUpdateJob(&plannerSvcMock{}, logger))
	assert.Error(t, err)

	require.NoError(t, RegisterStreakJob(s, &streakSvcMock{}, core.BatchConfig{StreakCron: "12 0 * * *"}))
	assert.Contains(t, s.Jobs(), "streak-reset")
	assert.Error(t, RegisterStreakJob(s, &streakSvcMock{}, core.BatchConfig{StreakCron: "lol"}))
}

type streakSvcMock struct {
	calls int
	err   error
}

func (m *streakSvcMock) ResetStaleStreaks(context.Context) (int, error) {
	m.calls++
	return 5, m.err
}

func TestStreakResetTask(t *testing.T) {
	svc := &streakSvcMock{}
	n, err := StreakResetTask(svc)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	svc.err = errors.New("db is down")
	_, err = StreakResetTask(svc)(context.Background())
	assert.EqualError(t, err, "resetting stale streaks: db is down")
	assert.Equal(t, 2, svc.calls)
}
