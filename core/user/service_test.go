package user_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/user"
	"github.com/trezcool/revisa/storage/database/inmem"
	"github.com/trezcool/revisa/testutil"
)

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 4, 3, 10, 0, 0, 0, time.UTC)
	user.NowFunc = testutil.Clock(now)
	defer func() { user.NowFunc = time.Now }()

	svc := user.NewService(inmemdb.NewUserRepository(inmemdb.NewDB()))
	activation := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		nu        user.NewUser
		wantErr   bool
		wantCheck func(t *testing.T, usr user.User)
	}{
		{
			name: "subscribed",
			nu: user.NewUser{
				Name: "  Asha ", Email: "ASHA@test.in ", Standard: 12, Subjects: []string{"Physics"},
				Category: user.CategoryPro, Subscribed: true, ActivationAt: &activation,
			},
			wantCheck: func(t *testing.T, usr user.User) {
				assert.NotEmpty(t, usr.ID)
				assert.Equal(t, "Asha", usr.Name)
				assert.Equal(t, "asha@test.in", usr.Email)
				assert.Equal(t, []string{"physics"}, usr.Subjects)
				assert.Equal(t, user.CategoryPro, usr.Category())
				assert.True(t, usr.IsEligible())
				got, ok := usr.ActivationDate()
				assert.True(t, ok)
				assert.Equal(t, activation, got)
				assert.Equal(t, now, usr.CreatedAt)
			},
		},
		{
			name: "trial activates now",
			nu:   user.NewUser{Name: "Ravi", Email: "ravi@test.in", Trial: true},
			wantCheck: func(t *testing.T, usr user.User) {
				assert.Equal(t, user.CategoryFree, usr.Category())
				assert.Equal(t, user.StatusInactive, usr.Subscription.Status)
				got, ok := usr.ActivationDate()
				assert.True(t, ok)
				assert.Equal(t, now, got)
			},
		},
		{name: "blank name", nu: user.NewUser{Name: "   ", Email: "x@test.in"}, wantErr: true},
		{name: "invalid email", nu: user.NewUser{Name: "X", Email: "nope"}, wantErr: true},
		{name: "unknown category", nu: user.NewUser{Name: "X", Email: "x@test.in", Category: "gold"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.Create(ctx, tt.nu)
			if tt.wantErr {
				var vErrs validator.ValidationErrors
				assert.ErrorAs(t, err, &vErrs)
				return
			}
			require.NoError(t, err)
			tt.wantCheck(t, usr)
		})
	}
}

func TestService_GetByID(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	svc := user.NewService(repo)
	usr := testutil.CreateUser(t, repo, testutil.Student{Name: "Asha", Email: "asha@test.in", Trial: true})

	got, err := svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, usr.Email, got.Email)

	_, err = svc.GetByID(ctx, "6f0c4f5a-6d5a-4f0e-8a43-3d2b5e1e7c11")
	assert.Equal(t, user.ErrNotFound, err)

	_, err = svc.GetByID(ctx, "42")
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "id", vErr.Fields[0].Field)
}

func TestService_QueryEligible_MarkPlannerCreated(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	svc := user.NewService(repo)

	base := time.Now().UTC().Add(-time.Hour)
	subscribed := testutil.CreateUser(t, repo, testutil.Student{Name: "A", Email: "a@test.in", Category: user.CategoryBasic, CreatedAt: base})
	trial := testutil.CreateUser(t, repo, testutil.Student{Name: "B", Email: "b@test.in", Trial: true, CreatedAt: base.Add(time.Minute)})
	_ = testutil.CreateUser(t, repo, testutil.Student{Name: "C", Email: "c@test.in", CreatedAt: base.Add(2 * time.Minute)})

	eligible, err := svc.QueryEligible(ctx)
	require.NoError(t, err)
	require.Len(t, eligible, 2)
	assert.Equal(t, subscribed.ID, eligible[0].ID)
	assert.Equal(t, trial.ID, eligible[1].ID)

	marked, err := svc.MarkPlannerCreated(ctx, subscribed)
	require.NoError(t, err)
	assert.True(t, marked.HasPlanner)

	got, err := svc.GetByID(ctx, subscribed.ID)
	require.NoError(t, err)
	assert.True(t, got.HasPlanner)
	assert.Equal(t, subscribed.CreatedAt, got.CreatedAt)
}

func TestService_ExtendStreak(t *testing.T) {
	ctx := context.Background()
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	now := time.Date(2024, 4, 3, 10, 0, 0, 0, kolkata)
	user.NowFunc = testutil.Clock(now)
	defer func() { user.NowFunc = time.Now }()

	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	svc := user.NewService(repo, kolkata)

	earlierToday := time.Date(2024, 4, 3, 0, 30, 0, 0, kolkata)
	lateYesterday := time.Date(2024, 4, 2, 23, 50, 0, 0, kolkata)
	twoDaysAgo := time.Date(2024, 4, 1, 22, 0, 0, 0, kolkata)

	tests := []struct {
		name      string
		streak    user.Streak
		wantCount int
		wantMoved bool
	}{
		{name: "first progress", wantCount: 1, wantMoved: true},
		{name: "reset streak", streak: user.Streak{Count: 0, UpdatedAt: &twoDaysAgo}, wantCount: 1, wantMoved: true},
		{name: "already counted today", streak: user.Streak{Count: 3, UpdatedAt: &earlierToday}, wantCount: 3},
		{name: "continued from yesterday", streak: user.Streak{Count: 3, UpdatedAt: &lateYesterday}, wantCount: 4, wantMoved: true},
		{name: "broken streak", streak: user.Streak{Count: 5, UpdatedAt: &twoDaysAgo}, wantCount: 1, wantMoved: true},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr := testutil.CreateUser(t, repo, testutil.Student{Name: "S", Email: fmt.Sprintf("s%d@test.in", i), Trial: true})
			usr.Streak = tt.streak
			usr, err := repo.UpdateUser(ctx, usr)
			require.NoError(t, err)

			got, err := svc.ExtendStreak(ctx, usr)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, got.Streak.Count)
			require.NotNil(t, got.Streak.UpdatedAt)
			if tt.wantMoved {
				assert.True(t, got.Streak.UpdatedAt.Equal(now))
			} else {
				assert.True(t, got.Streak.UpdatedAt.Equal(*tt.streak.UpdatedAt))
			}

			stored, err := svc.GetByID(ctx, usr.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, stored.Streak.Count)
		})
	}
}

func TestService_ResetStaleStreaks(t *testing.T) {
	ctx := context.Background()
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	now := time.Date(2024, 4, 3, 0, 12, 0, 0, kolkata)
	user.NowFunc = testutil.Clock(now)
	defer func() { user.NowFunc = time.Now }()

	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	svc := user.NewService(repo, kolkata)

	withStreak := func(email string, count int, at time.Time) user.User {
		usr := testutil.CreateUser(t, repo, testutil.Student{Name: "S", Email: email, Trial: true})
		usr.Streak = user.Streak{Count: count, UpdatedAt: &at}
		usr, err := repo.UpdateUser(ctx, usr)
		require.NoError(t, err)
		return usr
	}
	stale := withStreak("stale@test.in", 6, time.Date(2024, 4, 1, 23, 59, 0, 0, kolkata))
	yesterday := withStreak("yesterday@test.in", 2, time.Date(2024, 4, 2, 0, 5, 0, 0, kolkata))
	alreadyReset := withStreak("reset@test.in", 0, time.Date(2024, 3, 20, 8, 0, 0, 0, kolkata))

	n, err := svc.ResetStaleStreaks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for _, tt := range []struct {
		usr       user.User
		wantCount int
	}{{stale, 0}, {yesterday, 2}, {alreadyReset, 0}} {
		got, err := svc.GetByID(ctx, tt.usr.ID)
		require.NoError(t, err)
		assert.Equal(t, tt.wantCount, got.Streak.Count, tt.usr.Email)
	}
	got, err := svc.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.True(t, got.Streak.UpdatedAt.Equal(now))

	n, err = svc.ResetStaleStreaks(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
