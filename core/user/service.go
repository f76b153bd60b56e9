package user

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/revisa/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("user not found")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields; a nil filter returns every User.
		QueryUsers(ctx context.Context, filter *QueryFilter) ([]User, error)
		GetUser(ctx context.Context, id string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo Repository
		loc  *time.Location // streak days; UTC by default
	}
)

func NewService(repo Repository, loc ...*time.Location) *Service {
	svc := &Service{repo: repo, loc: time.UTC}
	if len(loc) > 0 && loc[0] != nil {
		svc.loc = loc[0]
	}
	return svc
}

// NewUser contains information needed to register a student (admin CLI / seeding).
type NewUser struct {
	Name         string     `json:"name" validate:"required,notblank"`
	Email        string     `json:"email" validate:"required,email"`
	Standard     int        `json:"standard" validate:"gte=0"`
	Subjects     []string   `json:"subjects" validate:"dive,notblank"`
	Category     string     `json:"category" validate:"omitempty,oneof=basic pro premium free"`
	Subscribed   bool       `json:"subscribed"`
	Trial        bool       `json:"trial"`
	ActivationAt *time.Time `json:"activation_at"`
}

func (nu *NewUser) Validate() error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	for i, s := range nu.Subjects {
		nu.Subjects[i] = core.CleanString(s, true /* lower */)
	}
	return core.Validate.Struct(nu)
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(); err != nil {
		return User{}, err
	}

	now := NowFunc().UTC()
	activation := now
	if nu.ActivationAt != nil {
		activation = nu.ActivationAt.UTC()
	}
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Standard:  nu.Standard,
		Subjects:  nu.Subjects,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nu.Subscribed {
		usr.Subscription = Subscription{Status: StatusActive, Category: nu.Category, DateOfActivation: &activation}
	} else {
		usr.Subscription = Subscription{Status: StatusInactive}
	}
	if nu.Trial {
		usr.FreeTrial = FreeTrial{Availed: true, Active: true, DateOfActivation: &activation}
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	return usr, errors.Wrap(err, "creating user")
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	if err := core.ValidateID("id", id); err != nil {
		return User{}, err
	}
	return svc.repo.GetUser(ctx, id)
}

// QueryEligible returns every User that should get planners from the batch jobs.
func (svc *Service) QueryEligible(ctx context.Context) ([]User, error) {
	users, err := svc.repo.QueryUsers(ctx, &QueryFilter{Eligible: true})
	return users, errors.Wrap(err, "querying eligible users")
}

// MarkPlannerCreated flags usr as owning a planner.
func (svc *Service) MarkPlannerCreated(ctx context.Context, usr User) (User, error) {
	if usr.HasPlanner {
		return usr, nil
	}
	usr.HasPlanner = true
	usr.UpdatedAt = NowFunc().UTC()
	usr, err := svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "marking planner created")
}
