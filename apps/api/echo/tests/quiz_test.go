package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/revisa/apps/api/echo"
	"github.com/trezcool/revisa/core/planner"
	"github.com/trezcool/revisa/core/quiz"
	"github.com/trezcool/revisa/testutil"
)

func Test_quizApi_createWeekly(t *testing.T) {
	app := setup(t)
	usr := app.subscriber(t, "asha@test.in")
	token := app.getToken(t, usr)

	t.Run("no planner", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/quiz/weekly", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, ErrorResponse{Message: "Planner not exists for the current week"}),
		}, rec)
	})

	for _, name := range []string{"Optics", "Waves"} {
		testutil.CreateQuestions(t, app.bank, name, "neet", 4)
		testutil.CreateTopic(t, app.topics, usr.ID, testutil.Topic{Name: name, Subject: "physics", CreatedAt: wednesday.Add(-time.Hour)})
	}
	_, err := app.planners.CreatePlanner(context.Background(), usr.ID, planner.BuildOptions{})
	require.NoError(t, err)

	t.Run("created", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/quiz/weekly", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp QuizResponse
		unmarshall(t, rec, &resp)
		assert.True(t, resp.Success)
		assert.Equal(t, "Weekly quiz created successfully!", resp.Message)
		assert.Equal(t, quiz.TypeWeekly, resp.WeeklyQuiz.Type)
		assert.Equal(t, usr.ID, resp.WeeklyQuiz.StudentID)
		assert.Len(t, resp.WeeklyQuiz.Questions["Optics"], 2)
		assert.Len(t, resp.WeeklyQuiz.Questions["Waves"], 2)

		saved := app.quizzes.QueryQuizzes(usr.ID)
		require.Len(t, saved, 1)
		assert.Equal(t, resp.WeeklyQuiz.ID, saved[0].ID)
	})
}
