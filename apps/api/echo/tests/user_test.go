package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/revisa/apps/api/echo"
	"github.com/trezcool/revisa/testutil"
)

func Test_home(t *testing.T) {
	app := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Revisa API!", rec.Body.String())
}

func Test_userApi_me(t *testing.T) {
	app := setup(t)
	usr := app.subscriber(t, "asha@test.in")

	req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", app.getToken(t, usr))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp UserResponse
	unmarshall(t, rec, &resp)
	assert.Equal(t, usr.ID, resp.User.ID)
	assert.Equal(t, "basic", resp.User.Category())
}

func Test_userApi_progress(t *testing.T) {
	app := setup(t)
	usr := app.subscriber(t, "asha@test.in")
	token := app.getToken(t, usr)

	tests := []httpTest{
		{
			name:     "no topics",
			method:   http.MethodPost,
			path:     "/v1/users/progress/save",
			body:     []byte(`{"topics": []}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, ErrorResponse{Message: "invalid input", Errors: map[string]string{"topics": "topics must contain at least 1 item"}}),
		},
		{
			name:     "blank name",
			method:   http.MethodPost,
			path:     "/v1/users/progress/save",
			body:     []byte(`{"topics": [{"name": "  ", "subject": "physics"}]}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, ErrorResponse{Message: "invalid input", Errors: map[string]string{"name": "this field is required"}}),
		},
		{
			name:     "no token",
			method:   http.MethodPost,
			path:     "/v1/users/progress/save",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := token
			if tt.name == "no token" {
				tok = ""
			}
			req, rec := newAuthRequest(tt.method, tt.path, tok, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("saved topics are pending", func(t *testing.T) {
		body := []byte(`{"topics": [{"name": "Optics", "subject": "physics"}, {"name": "optics ", "subject": "physics"}]}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/progress/save", token, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var saved TopicsResponse
		unmarshall(t, rec, &saved)
		require.Len(t, saved.Topics, 1)
		assert.Equal(t, "optics", saved.Topics[0].Topic.Name)

		testutil.CreateTopic(t, app.topics, usr.ID, testutil.Topic{Name: "Heat", Subject: "physics", Tag: "back_revision"})

		req, rec = newAuthRequest(http.MethodGet, "/v1/users/topics", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var pending TopicsResponse
		unmarshall(t, rec, &pending)
		require.Len(t, pending.Topics, 1)
		assert.Equal(t, saved.Topics[0].ID, pending.Topics[0].ID)

		req, rec = newAuthRequest(http.MethodGet, "/v1/users/me", token)
		app.ServeHTTP(rec, req)
		var me UserResponse
		unmarshall(t, rec, &me)
		assert.Equal(t, 1, me.User.Streak.Count)
	})
}

func Test_userApi_deleteTopics(t *testing.T) {
	app := setup(t)
	usr := app.subscriber(t, "asha@test.in")
	token := app.getToken(t, usr)

	for _, name := range []string{"optics", "waves", "acids"} {
		testutil.CreateTopic(t, app.topics, usr.ID, testutil.Topic{Name: name, Subject: "physics"})
	}

	tests := []httpTest{
		{
			name:     "no token",
			method:   http.MethodDelete,
			path:     "/v1/users/topics",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "malformed body",
			method:   http.MethodDelete,
			path:     "/v1/users/topics",
			body:     []byte(`{"topics": "optics"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "by name",
			method:   http.MethodDelete,
			path:     "/v1/users/topics",
			body:     []byte(`{"topics": ["Optics", "gravitation"]}`),
			wantCode: http.StatusOK,
			wantData: marshallObj(t, DeleteTopicsResponse{Success: true, Message: "Deleted 1 topic(s)", Deleted: 1}),
		},
		{
			name:     "all pending",
			method:   http.MethodDelete,
			path:     "/v1/users/topics",
			wantCode: http.StatusOK,
			wantData: marshallObj(t, DeleteTopicsResponse{Success: true, Message: "Deleted 2 topic(s)", Deleted: 2}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := token
			if tt.name == "no token" {
				tok = ""
			}
			req, rec := newAuthRequest(tt.method, tt.path, tok, tt.body)
			app.ServeHTTP(rec, req)
			if tt.wantData == nil {
				assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/users/topics", token)
	app.ServeHTTP(rec, req)
	var pending TopicsResponse
	unmarshall(t, rec, &pending)
	assert.Empty(t, pending.Topics)
}
