package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/revisa/core/planner"
	"github.com/trezcool/revisa/core/user"
	"github.com/trezcool/revisa/storage/database"
)

// PrepareDB opens a private in-memory sqlite database with every migration applied.
func PrepareDB(t *testing.T) *sqlx.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.New().String())
	db, err := sqlx.Open(database.EngineSQLite, dsn)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed to migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Student describes the subscription state of a test student.
type Student struct {
	Name        string
	Email       string
	Standard    int
	Subjects    []string
	Category    string     // paid category; empty means no active subscription
	Trial       bool       // active free trial
	ActivatedAt *time.Time // defaults to CreatedAt
	CreatedAt   time.Time  // defaults to now
}

func CreateUser(t *testing.T, repo user.Repository, s Student) user.User {
	tstamp := time.Now().UTC()
	if !s.CreatedAt.IsZero() {
		tstamp = s.CreatedAt.UTC()
	}
	activation := tstamp
	if s.ActivatedAt != nil {
		activation = s.ActivatedAt.UTC()
	}

	usr := user.User{
		Name:         s.Name,
		Email:        s.Email,
		Standard:     s.Standard,
		Subjects:     s.Subjects,
		Subscription: user.Subscription{Status: user.StatusInactive},
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	}
	if s.Category != "" {
		usr.Subscription = user.Subscription{
			ID:               "sub_" + uuid.New().String()[:8],
			Status:           user.StatusActive,
			Category:         s.Category,
			DateOfActivation: &activation,
		}
	}
	if s.Trial {
		usr.FreeTrial = user.FreeTrial{Availed: true, Active: true, DateOfActivation: &activation}
	}

	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// Topic describes a revision topic to record for a student.
type Topic struct {
	Name       string
	Chapter    string
	Subject    string
	Standard   int
	Tag        string // defaults to continuous_revision
	Frequency  int
	Efficiency float64
	CreatedAt  time.Time // defaults to now
}

func CreateTopic(t *testing.T, repo planner.TopicRepository, studentID string, tp Topic) planner.RevisionTopic {
	tstamp := time.Now().UTC()
	if !tp.CreatedAt.IsZero() {
		tstamp = tp.CreatedAt.UTC()
	}
	tag := tp.Tag
	if tag == "" {
		tag = planner.TagContinuousRevision
	}

	rt, err := repo.CreateTopic(context.Background(), planner.RevisionTopic{
		StudentID: studentID,
		Tag:       tag,
		Topic: planner.Topic{
			Name:              tp.Name,
			OverallEfficiency: tp.Efficiency,
			PlannerFrequency:  tp.Frequency,
			StudiedAt:         make([]planner.StudyEvent, 0),
		},
		Chapter:   planner.Chapter{Name: tp.Chapter},
		Subject:   tp.Subject,
		Standard:  tp.Standard,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateTopic() failed: %v", err)
	}
	return rt
}

// CreateQuestions adds n distinct questions about topic at the given level.
func CreateQuestions(t *testing.T, bank planner.QuestionBank, topic, level string, n int) []planner.Question {
	questions := make([]planner.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, planner.Question{
			Question: fmt.Sprintf("%s (%s) #%d?", topic, level, i+1),
			Options:  []string{"a", "b", "c", "d"},
			Answer:   "a",
			Level:    level,
			Topics:   []string{topic},
		})
	}
	created, err := bank.CreateQuestions(context.Background(), questions...)
	if err != nil {
		t.Fatalf("CreateQuestions() failed: %v", err)
	}
	return created
}

// Clock returns a mockable NowFunc frozen at t.
func Clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TimePtr(t time.Time) *time.Time {
	return &t
}
