package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/revisa/apps/api/echo"
	"github.com/trezcool/revisa/core/planner"
	"github.com/trezcool/revisa/testutil"
)

func Test_plannerApi_auth(t *testing.T) {
	app := setup(t)
	lapsed := testutil.CreateUser(t, app.users, testutil.Student{Name: "Ravi", Email: "ravi@test.in"})
	ghost := app.subscriber(t, "ghost@test.in")
	ghost.ID = "9b2f3a56-8f0e-4b8e-a6a9-2d0f8d3c4e11"

	expired := GetUserClaims(app.subscriber(t, "late@test.in"), app.conf)
	expired.ExpiresAt = time.Now().Add(-time.Hour).Unix()
	expiredToken, err := GenerateToken(expired, app.conf)
	require.NoError(t, err)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, GetUserClaims(lapsed, app.conf)).SignedString([]byte("not the secret"))
	require.NoError(t, err)

	tests := []httpTest{
		{
			name:     "no token",
			method:   http.MethodGet,
			path:     "/v1/planner",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "expired token",
			method:   http.MethodGet,
			path:     "/v1/planner",
			token:    expiredToken,
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, ErrorResponse{Message: "invalid or expired jwt"}),
		},
		{
			name:     "forged token",
			method:   http.MethodPost,
			path:     "/v1/planner/create",
			token:    forged,
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, ErrorResponse{Message: "invalid or expired jwt"}),
		},
		{
			name:     "unknown student",
			method:   http.MethodGet,
			path:     "/v1/planner",
			token:    app.getToken(t, ghost),
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, ErrorResponse{Message: "user not authenticated"}),
		},
		{
			name:     "not subscribed",
			method:   http.MethodPost,
			path:     "/v1/planner/update-daily",
			token:    app.getToken(t, lapsed),
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, ErrorResponse{Message: "You don't have an active subscription or free trial"}),
		},
		{
			name:     "quiz not subscribed",
			method:   http.MethodPost,
			path:     "/v1/quiz/weekly",
			token:    app.getToken(t, lapsed),
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, ErrorResponse{Message: "You don't have an active subscription or free trial"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_plannerApi_lifecycle(t *testing.T) {
	app := setup(t)
	usr := app.subscriber(t, "asha@test.in")
	token := app.getToken(t, usr)

	for _, name := range []string{"Optics", "Acids"} {
		testutil.CreateQuestions(t, app.bank, name, "jeemains_easy", 3)
	}
	testutil.CreateTopic(t, app.topics, usr.ID, testutil.Topic{Name: "Optics", Subject: "physics", CreatedAt: wednesday.Add(-20 * time.Hour)})

	t.Run("no planner yet", func(t *testing.T) {
		tests := []httpTest{
			{
				name:     "get",
				method:   http.MethodGet,
				path:     "/v1/planner",
				wantCode: http.StatusNotFound,
				wantData: marshallObj(t, ErrorResponse{Message: "Planner not exists for the current week"}),
			},
			{
				name:     "update daily",
				method:   http.MethodPost,
				path:     "/v1/planner/update-daily",
				wantCode: http.StatusNotFound,
				wantData: marshallObj(t, ErrorResponse{Message: "Planner not exists for the current week"}),
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req, rec := newAuthRequest(tt.method, tt.path, token)
				app.ServeHTTP(rec, req)
				checkCodeAndData(t, tt, rec)
			})
		}
	})

	var created PlannerResponse
	t.Run("create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/planner/create", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		unmarshall(t, rec, &created)
		assert.True(t, created.Success)
		assert.Equal(t, "Planner created for 2024-04-01 - 2024-04-07", created.Message)
		require.NotNil(t, created.Planner)
		require.Len(t, created.Planner.Days, 7)
		assert.Equal(t, "Monday", created.Planner.Days[0].Weekday)
		require.Len(t, created.Planner.Days[0].ContinuousRevisionTopics, 1)
		assert.Equal(t, "Optics", created.Planner.Days[0].ContinuousRevisionTopics[0].Topic.Name)
		assert.Len(t, created.Planner.Days[0].Questions["Optics"], 2)
	})

	t.Run("create twice", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/planner/create", token, []byte(`{"next_week": false}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marshallObj(t, ErrorResponse{Message: planner.ErrPlannerExists.Error()}),
		}, rec)
	})

	t.Run("create next week", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/planner/create", token, []byte(`{"next_week": true}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp PlannerResponse
		unmarshall(t, rec, &resp)
		assert.Equal(t, "Planner created for 2024-04-08 - 2024-04-14", resp.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/planner/create", token, []byte(`{"next_week": "yes"`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("nothing new for tomorrow", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/planner/update-daily", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, ErrorResponse{Message: "Topics are already added for the next day."}),
		}, rec)
	})

	t.Run("update daily", func(t *testing.T) {
		body := []byte(`{"topics": [{"name": "Acids", "chapter": "Acids and Bases", "subject": "Chemistry"}]}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/progress/save", token, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		req, rec = newAuthRequest(http.MethodPost, "/v1/planner/update-daily", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp PlannerResponse
		unmarshall(t, rec, &resp)
		assert.Equal(t, "Planner Updated for 2024-04-04", resp.Message)
		require.NotNil(t, resp.Planner)
		thursday := resp.Planner.Days[3]
		require.Len(t, thursday.ContinuousRevisionTopics, 1)
		assert.Equal(t, "acids", thursday.ContinuousRevisionTopics[0].Topic.Name)
		assert.Equal(t, []string{"acids and bases"}, thursday.Chapters)
	})

	t.Run("get", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/planner/", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp GetPlannerResponse
		unmarshall(t, rec, &resp)
		assert.True(t, resp.Success)
		assert.Equal(t, created.Planner.ID, resp.Data.ID)
		assert.Len(t, resp.Data.Days[3].ContinuousRevisionTopics, 1)
	})
}
