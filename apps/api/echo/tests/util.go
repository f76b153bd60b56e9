package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/revisa/apps/api/echo"
	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/planner"
	"github.com/trezcool/revisa/core/quiz"
	"github.com/trezcool/revisa/core/user"
	"github.com/trezcool/revisa/services/email"
	"github.com/trezcool/revisa/services/logger"
	"github.com/trezcool/revisa/storage/database/inmem"
	"github.com/trezcool/revisa/testutil"
)

var (
	kolkata, _ = time.LoadLocation("Asia/Kolkata")
	// Wednesday 2024-04-03 10:00 in the planner time zone
	wednesday = time.Date(2024, 4, 3, 10, 0, 0, 0, kolkata)

	errMissingToken = ErrorResponse{Message: "missing or malformed jwt"}
)

type testApp struct {
	Server
	conf     *core.Config
	users    user.Repository
	topics   planner.TopicRepository
	bank     planner.QuestionBank
	quizzes  interface{ QueryQuizzes(string) []quiz.Quiz }
	planners *planner.Service
}

func setup(t *testing.T) testApp {
	planner.NowFunc = testutil.Clock(wednesday)
	t.Cleanup(func() { planner.NowFunc = time.Now })

	conf := *core.Conf
	conf.Debug = false
	conf.TestMode = true
	conf.Timezone = "Asia/Kolkata"

	// set up DB & repos
	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	topicRepo := inmemdb.NewTopicRepository(db)
	bank := inmemdb.NewQuestionBank(db)
	quizRepo := inmemdb.NewQuizRepository(db)

	// set up services
	logger := logsvc.NewDiscardLogger()
	usrSvc := user.NewService(usrRepo)
	plannerSvc := planner.NewService(planner.Deps{
		Conf:      &conf,
		Logger:    logger,
		Tx:        inmemdb.NewTransactor(db),
		Users:     usrSvc,
		Topics:    topicRepo,
		Planners:  inmemdb.NewPlannerRepository(db),
		Questions: bank,
		Solved:    inmemdb.NewSolvedQuestionRepository(db),
		MailSvc:   emailsvc.NewConsoleServiceMock(logger),
	})
	quizSvc := quiz.NewService(quizRepo, usrSvc, plannerSvc, logger)

	// set up server
	srv := NewServer(ServerDeps{
		Conf:           &conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		PlannerSvc:     plannerSvc,
		QuizSvc:        quizSvc,
		DisableReqLogs: true,
	})
	return testApp{
		Server:   srv,
		conf:     &conf,
		users:    usrRepo,
		topics:   topicRepo,
		bank:     bank,
		quizzes:  quizRepo,
		planners: plannerSvc,
	}
}

// subscriber creates a student on the basic plan, activated long before the current week.
func (app testApp) subscriber(t *testing.T, email string) user.User {
	activated := time.Date(2024, 1, 8, 9, 0, 0, 0, kolkata)
	return testutil.CreateUser(t, app.users, testutil.Student{
		Name:        "Asha",
		Email:       email,
		Standard:    12,
		Subjects:    []string{"physics", "chemistry"},
		Category:    user.CategoryBasic,
		ActivatedAt: &activated,
		CreatedAt:   activated,
	})
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (app testApp) getToken(t *testing.T, usr user.User) string {
	token, err := GenerateToken(GetUserClaims(usr, app.conf), app.conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarshall(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
