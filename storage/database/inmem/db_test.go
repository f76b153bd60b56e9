package inmemdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/revisa/core/planner"
	"github.com/trezcool/revisa/core/user"
	"github.com/trezcool/revisa/testutil"
)

func TestTransactor_WithinTx(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	tx := NewTransactor(db)
	topics := NewTopicRepository(db)
	planners := NewPlannerRepository(db)

	rt := testutil.CreateTopic(t, topics, "student", testutil.Topic{Name: "Optics", Subject: "physics"})
	monday := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	boom := errors.New("boom")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		_, err := planners.CreatePlanner(ctx, planner.Planner{StudentID: "student", StartDate: monday, EndDate: monday.AddDate(0, 0, 6)})
		require.NoError(t, err)

		retagged := rt
		retagged.Tag = planner.TagActiveContinuousRevision
		require.NoError(t, topics.UpdateTopics(ctx, retagged))

		// nested calls join the outer transaction
		return tx.WithinTx(ctx, func(ctx context.Context) error { return boom })
	})
	assert.Equal(t, boom, err)

	_, err = planners.GetPlanner(ctx, planner.PlannerFilter{StudentID: "student", WeekStart: monday, WeekEnd: monday.AddDate(0, 0, 6)})
	assert.Equal(t, planner.ErrNotFound, err)

	got, err := topics.QueryTopics(ctx, planner.TopicFilter{StudentID: "student"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, planner.TagContinuousRevision, got[0].Tag)
}

func Test_plannerRepository_unique(t *testing.T) {
	ctx := context.Background()
	repo := NewPlannerRepository(NewDB())
	monday := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.CreatePlanner(ctx, planner.Planner{StudentID: "a", StartDate: monday.AddDate(0, 0, 3), EndDate: monday.AddDate(0, 0, 6)})
	require.NoError(t, err)
	_, err = repo.CreatePlanner(ctx, planner.Planner{StudentID: "b", StartDate: monday, EndDate: monday.AddDate(0, 0, 6)})
	require.NoError(t, err)
	_, err = repo.CreatePlanner(ctx, planner.Planner{StudentID: "a", StartDate: monday, EndDate: monday.AddDate(0, 0, 6)})
	assert.Equal(t, planner.ErrPlannerExists, err)
}

func Test_userRepository_eligible(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewDB())
	paid := testutil.CreateUser(t, repo, testutil.Student{Name: "Paid", Email: "paid@test.in", Category: user.CategoryBasic})
	trial := testutil.CreateUser(t, repo, testutil.Student{Name: "Trial", Email: "trial@test.in", Trial: true})
	testutil.CreateUser(t, repo, testutil.Student{Name: "Lapsed", Email: "lapsed@test.in"})

	users, err := repo.QueryUsers(ctx, &user.QueryFilter{Eligible: true})
	require.NoError(t, err)
	require.Len(t, users, 2)
	ids := []string{users[0].ID, users[1].ID}
	assert.ElementsMatch(t, []string{paid.ID, trial.ID}, ids)
}

func Test_questionBank_sample(t *testing.T) {
	ctx := context.Background()
	bank := NewQuestionBank(NewDB())
	qs := testutil.CreateQuestions(t, bank, "Optics", "neet", 3)

	got, err := bank.SampleQuestions(ctx, planner.QuestionQuery{Topic: " OPTICS ", Level: "neet", ExcludeIDs: []string{qs[0].ID}}, 5)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, q := range got {
		assert.NotEqual(t, qs[0].ID, q.ID)
	}

	got, err = bank.SampleQuestions(ctx, planner.QuestionQuery{Topic: "Optics", Level: "boards"}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
