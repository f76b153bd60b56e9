package quiz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/planner"
	"github.com/trezcool/revisa/core/user"
)

const TypeWeekly = "weekly"

var NowFunc = time.Now // mockable

type (
	Quiz struct {
		ID        string            `json:"id"`
		StudentID string            `json:"student_id"`
		Type      string            `json:"quiz_type"`
		Questions planner.Questions `json:"questions"`
		StartDate time.Time         `json:"start_date"`
		EndDate   time.Time         `json:"end_date"`
		CreatedAt time.Time         `json:"created_at"` // UTC
	}

	Repository interface {
		CreateQuiz(ctx context.Context, q Quiz) (Quiz, error)
	}

	PlannerService interface {
		GetPlanner(ctx context.Context, userID string) (planner.Planner, error)
		Assembler() *planner.QuestionAssembler
	}

	UserService interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo     Repository
		users    UserService
		planners PlannerService
		logger   core.Logger
	}
)

func NewService(repo Repository, users UserService, planners PlannerService, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		planners: planners,
		logger:   logger,
	}
}

// CreateWeeklyQuiz draws questions covering every topic of the student's current week planner.
func (svc *Service) CreateWeeklyQuiz(ctx context.Context, userID string) (Quiz, error) {
	usr, err := svc.users.GetByID(ctx, userID)
	if err != nil {
		return Quiz{}, errors.Wrap(err, "getting user")
	}
	if _, ok := usr.ActivationDate(); !ok {
		return Quiz{}, planner.ErrPreconditionFailed
	}

	p, err := svc.planners.GetPlanner(ctx, usr.ID)
	if err != nil {
		return Quiz{}, err
	}

	topics := weekTopics(p)
	questions, err := svc.planners.Assembler().AssembleQuestions(ctx, usr.ID, "week", p.StartDate, topics)
	if err != nil {
		return Quiz{}, errors.Wrap(err, "assembling weekly quiz questions")
	}

	q, err := svc.repo.CreateQuiz(ctx, Quiz{
		StudentID: usr.ID,
		Type:      TypeWeekly,
		Questions: questions,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		CreatedAt: NowFunc().UTC(),
	})
	if err != nil {
		return Quiz{}, errors.Wrap(err, "creating weekly quiz")
	}
	svc.logger.Info(fmt.Sprintf("weekly quiz %s created with %d topic(s)", q.ID, len(q.Questions)), usr)
	return q, nil
}

// weekTopics lists the continuous then back revision topics of the week, once per (case-insensitive) name.
func weekTopics(p planner.Planner) []planner.RevisionTopic {
	seen := make(map[string]struct{})
	topics := make([]planner.RevisionTopic, 0)
	add := func(list []planner.RevisionTopic) {
		for _, rt := range list {
			key := strings.ToLower(strings.TrimSpace(rt.Topic.Name))
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			topics = append(topics, rt)
		}
	}
	for _, d := range p.Days {
		add(d.ContinuousRevisionTopics)
	}
	for _, d := range p.Days {
		add(d.BackRevisionTopics)
	}
	return topics
}
