package planner

import (
	"context"
	"time"
)

type (
	TopicRepository interface {
		CreateTopic(ctx context.Context, rt RevisionTopic) (RevisionTopic, error)
		// QueryTopics returns the student's topics matching filter, oldest first.
		QueryTopics(ctx context.Context, filter TopicFilter) ([]RevisionTopic, error)
		// UpdateTopics persists the tag, topic & chapter of every given topic.
		UpdateTopics(ctx context.Context, topics ...RevisionTopic) error
		// DeleteTopics removes the student's topics with the given IDs and returns how many were removed.
		DeleteTopics(ctx context.Context, studentID string, ids ...string) (int, error)
	}

	PlannerRepository interface {
		// CreatePlanner fails with ErrPlannerExists when the student already has a planner for that week.
		CreatePlanner(ctx context.Context, p Planner) (Planner, error)
		GetPlanner(ctx context.Context, filter PlannerFilter) (Planner, error)
		// AppendDayTopics adds topics to the continuous revision list of a single day and replaces its questions.
		AppendDayTopics(ctx context.Context, plannerID string, date time.Time, topics []RevisionTopic, questions Questions) (Planner, error)
	}

	QuestionBank interface {
		CreateQuestions(ctx context.Context, questions ...Question) ([]Question, error)
		// SampleQuestions draws up to size random questions matching query.
		SampleQuestions(ctx context.Context, query QuestionQuery, size int) ([]Question, error)
	}

	SolvedQuestionRepository interface {
		RecordSolved(ctx context.Context, studentID string, q Question) error
		// IsSolved matches on the question body.
		IsSolved(ctx context.Context, studentID, body string) (bool, error)
	}
)
