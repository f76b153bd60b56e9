package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/revisa/core/user"
)

const userColumns = `id, name, email, standard, subjects, subscription_id, subscription_status, subscription_category,
	subscription_activated_at, free_trial_availed, free_trial_active, free_trial_activated_at, free_trial_deactivated_at,
	has_planner, streak_count, streak_updated_at, created_at, updated_at`

type userRow struct {
	ID                      string    `db:"id"`
	Name                    string    `db:"name"`
	Email                   string    `db:"email"`
	Standard                int       `db:"standard"`
	Subjects                string    `db:"subjects"`
	SubscriptionID          string    `db:"subscription_id"`
	SubscriptionStatus      string    `db:"subscription_status"`
	SubscriptionCategory    string    `db:"subscription_category"`
	SubscriptionActivatedAt null.Time `db:"subscription_activated_at"`
	FreeTrialAvailed        bool      `db:"free_trial_availed"`
	FreeTrialActive         bool      `db:"free_trial_active"`
	FreeTrialActivatedAt    null.Time `db:"free_trial_activated_at"`
	FreeTrialDeactivatedAt  null.Time `db:"free_trial_deactivated_at"`
	HasPlanner              bool      `db:"has_planner"`
	StreakCount             int       `db:"streak_count"`
	StreakUpdatedAt         null.Time `db:"streak_updated_at"`
	CreatedAt               time.Time `db:"created_at"`
	UpdatedAt               time.Time `db:"updated_at"`
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func utcPtr(t *time.Time) null.Time {
	if t == nil || t.IsZero() {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}

func (repo userRepository) toRow(usr user.User) (userRow, error) {
	subjects, err := asJSON(nonNilStrings(usr.Subjects)).Value()
	if err != nil {
		return userRow{}, err
	}
	return userRow{
		ID:                      usr.ID,
		Name:                    usr.Name,
		Email:                   usr.Email,
		Standard:                usr.Standard,
		Subjects:                subjects.(string),
		SubscriptionID:          usr.Subscription.ID,
		SubscriptionStatus:      usr.Subscription.Status,
		SubscriptionCategory:    usr.Subscription.Category,
		SubscriptionActivatedAt: utcPtr(usr.Subscription.DateOfActivation),
		FreeTrialAvailed:        usr.FreeTrial.Availed,
		FreeTrialActive:         usr.FreeTrial.Active,
		FreeTrialActivatedAt:    utcPtr(usr.FreeTrial.DateOfActivation),
		FreeTrialDeactivatedAt:  utcPtr(usr.FreeTrial.DateOfDeactivation),
		HasPlanner:              usr.HasPlanner,
		StreakCount:             usr.Streak.Count,
		StreakUpdatedAt:         utcPtr(usr.Streak.UpdatedAt),
		CreatedAt:               usr.CreatedAt.UTC(),
		UpdatedAt:               usr.UpdatedAt.UTC(),
	}, nil
}

func (repo userRepository) fromRow(row userRow) (user.User, error) {
	usr := user.User{
		ID:       row.ID,
		Name:     row.Name,
		Email:    row.Email,
		Standard: row.Standard,
		Subscription: user.Subscription{
			ID:               row.SubscriptionID,
			Status:           row.SubscriptionStatus,
			Category:         row.SubscriptionCategory,
			DateOfActivation: row.SubscriptionActivatedAt.Ptr(),
		},
		FreeTrial: user.FreeTrial{
			Availed:            row.FreeTrialAvailed,
			Active:             row.FreeTrialActive,
			DateOfActivation:   row.FreeTrialActivatedAt.Ptr(),
			DateOfDeactivation: row.FreeTrialDeactivatedAt.Ptr(),
		},
		HasPlanner: row.HasPlanner,
		Streak:     user.Streak{Count: row.StreakCount, UpdatedAt: row.StreakUpdatedAt.Ptr()},
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
	if err := fromJSON(row.Subjects, &usr.Subjects); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row, err := repo.toRow(usr)
	if err != nil {
		return user.User{}, err
	}

	q := `INSERT INTO users (` + userColumns + `) VALUES (:id, :name, :email, :standard, :subjects, :subscription_id,
		:subscription_status, :subscription_category, :subscription_activated_at, :free_trial_availed, :free_trial_active,
		:free_trial_activated_at, :free_trial_deactivated_at, :has_planner, :streak_count, :streak_updated_at, :created_at,
		:updated_at)`
	if _, err = sqlx.NamedExecContext(ctx, getExec(ctx, repo.db), q, row); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.fromRow(row)
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter) ([]user.User, error) {
	var where []string
	var args []interface{}

	if filter != nil {
		if filter.Eligible {
			where = append(where, `((subscription_status = ? AND subscription_activated_at IS NOT NULL) OR free_trial_active = ?)`)
			args = append(args, user.StatusActive, true)
		}
		if !filter.StreakBefore.IsZero() {
			where = append(where, "(streak_count > 0 AND streak_updated_at < ?)")
			args = append(args, filter.StreakBefore.UTC())
		}
	}

	q := "SELECT " + userColumns + " FROM users"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at ASC"

	var rows []userRow
	if err := sqlx.SelectContext(ctx, getExec(ctx, repo.db), &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		usr, err := repo.fromRow(row)
		if err != nil {
			return nil, err
		}
		users = append(users, usr)
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	q := repo.db.Rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	if err := sqlx.GetContext(ctx, getExec(ctx, repo.db), &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	return repo.fromRow(row)
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row, err := repo.toRow(usr)
	if err != nil {
		return user.User{}, err
	}

	q := `UPDATE users SET name = :name, email = :email, standard = :standard, subjects = :subjects,
		subscription_id = :subscription_id, subscription_status = :subscription_status,
		subscription_category = :subscription_category, subscription_activated_at = :subscription_activated_at,
		free_trial_availed = :free_trial_availed, free_trial_active = :free_trial_active,
		free_trial_activated_at = :free_trial_activated_at, free_trial_deactivated_at = :free_trial_deactivated_at,
		has_planner = :has_planner, streak_count = :streak_count, streak_updated_at = :streak_updated_at,
		updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, getExec(ctx, repo.db), q, row)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, usr.ID)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return make([]string, 0)
	}
	return s
}
