package planner

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/user"
)

var NowFunc = time.Now // mockable

type (
	// UserService is the subset of user.Service the planner relies on.
	UserService interface {
		GetByID(ctx context.Context, id string) (user.User, error)
		MarkPlannerCreated(ctx context.Context, usr user.User) (user.User, error)
		ExtendStreak(ctx context.Context, usr user.User) (user.User, error)
	}

	Deps struct {
		Conf      *core.Config
		Logger    core.Logger
		Tx        core.Transactor
		Users     UserService
		Topics    TopicRepository
		Planners  PlannerRepository
		Questions QuestionBank
		Solved    SolvedQuestionRepository
		MailSvc   core.EmailService // optional
	}

	Service struct {
		tx        core.Transactor
		users     UserService
		topics    TopicRepository
		planners  PlannerRepository
		mailSvc   core.EmailService
		logger    core.Logger
		cal       calendar
		builder   *Builder
		updater   *DailyUpdater
		assembler *QuestionAssembler
	}
)

func NewService(deps Deps) *Service {
	conf := deps.Conf.Planner
	loc := deps.Conf.Location()
	selector := NewTopicSelector(SelectorLimits{
		MaxContinuous: conf.MaxContinuousPerDay,
		MaxBack:       conf.MaxBackPerDay,
		MaxPerSubject: conf.MaxPerSubjectPerDay,
	})
	assembler := NewQuestionAssembler(deps.Questions, deps.Solved, deps.Logger, conf.QuestionsPerTopic, conf.QuestionTiers)

	return &Service{
		tx:        deps.Tx,
		users:     deps.Users,
		topics:    deps.Topics,
		planners:  deps.Planners,
		mailSvc:   deps.MailSvc,
		logger:    deps.Logger,
		cal:       newCalendar(loc),
		builder:   NewBuilder(selector, assembler, deps.Topics, deps.Planners, deps.Tx, deps.Logger, loc, conf),
		updater:   NewDailyUpdater(selector, assembler, deps.Topics, deps.Planners, deps.Tx, deps.Logger, loc, conf),
		assembler: assembler,
	}
}

// Assembler exposes the question assembler shared by every planner-based feature.
func (svc *Service) Assembler() *QuestionAssembler {
	return svc.assembler
}

// CreatePlanner builds the student's weekly planner.
func (svc *Service) CreatePlanner(ctx context.Context, userID string, opts BuildOptions) (Planner, error) {
	usr, err := svc.users.GetByID(ctx, userID)
	if err != nil {
		return Planner{}, errors.Wrap(err, "getting user")
	}
	return svc.CreatePlannerFor(ctx, usr, opts)
}

// CreatePlannerFor builds the weekly planner of an already loaded student.
func (svc *Service) CreatePlannerFor(ctx context.Context, usr user.User, opts BuildOptions) (Planner, error) {
	activation, ok := usr.ActivationDate()
	if !ok {
		return Planner{}, ErrPreconditionFailed
	}

	back, err := svc.topics.QueryTopics(ctx, TopicFilter{
		StudentID:   usr.ID,
		Tag:         TagBackRevision,
		CreatedFrom: svc.cal.day(activation),
	})
	if err != nil {
		return Planner{}, &RetrievalError{Op: "loading back revision topics", Err: err}
	}

	p, err := svc.builder.BuildWeeklyPlanner(ctx, usr, back, BuildOptions{NextWeek: opts.NextWeek})
	if err != nil {
		return p, err
	}

	if _, err := svc.users.MarkPlannerCreated(ctx, usr); err != nil {
		return p, errors.Wrap(err, "marking planner created")
	}
	svc.notify(usr, p)
	return p, nil
}

// UpdateDailyPlanner adds today's new topics to tomorrow's entry of the student's planner.
func (svc *Service) UpdateDailyPlanner(ctx context.Context, userID string) (UpdateResult, error) {
	usr, err := svc.users.GetByID(ctx, userID)
	if err != nil {
		return UpdateResult{}, errors.Wrap(err, "getting user")
	}
	return svc.updater.UpdateDailyPlanner(ctx, usr)
}

// UpdateDailyPlannerFor is UpdateDailyPlanner for an already loaded student.
func (svc *Service) UpdateDailyPlannerFor(ctx context.Context, usr user.User) (UpdateResult, error) {
	return svc.updater.UpdateDailyPlanner(ctx, usr)
}

// GetPlanner returns the student's planner for the current ISO week.
func (svc *Service) GetPlanner(ctx context.Context, userID string) (Planner, error) {
	if err := core.ValidateID("id", userID); err != nil {
		return Planner{}, err
	}
	monday, sunday := svc.cal.week(NowFunc())
	p, err := svc.planners.GetPlanner(ctx, PlannerFilter{StudentID: userID, WeekStart: monday, WeekEnd: sunday})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Planner{}, ErrNotFound
		}
		return Planner{}, errors.Wrap(err, "getting planner")
	}
	return p, nil
}
