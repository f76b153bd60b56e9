package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/batch"
	"github.com/trezcool/revisa/core/planner"
	"github.com/trezcool/revisa/core/user"
	emailsvc "github.com/trezcool/revisa/services/email"
	logsvc "github.com/trezcool/revisa/services/logger"
	inmemdb "github.com/trezcool/revisa/storage/database/inmem"
	"github.com/trezcool/revisa/testutil"
)

var (
	kolkata, _ = time.LoadLocation("Asia/Kolkata")
	wednesday  = time.Date(2024, 4, 3, 10, 0, 0, 0, kolkata)
)

type testCLI struct {
	*commandLine
	out        *bytes.Buffer
	users      user.Repository
	plannerSvc *planner.Service
}

func setup(t *testing.T) testCLI {
	planner.NowFunc = testutil.Clock(wednesday)
	user.NowFunc = testutil.Clock(wednesday)
	t.Cleanup(func() {
		planner.NowFunc = time.Now
		user.NowFunc = time.Now
	})

	conf := *core.Conf
	conf.TestMode = true
	conf.Timezone = "Asia/Kolkata"
	conf.Batch.NextWeek = false
	conf.Batch.MaxRetries = 0

	db := inmemdb.NewDB()
	logger := logsvc.NewDiscardLogger()
	users := inmemdb.NewUserRepository(db)
	usrSvc := user.NewService(users, conf.Location())
	plannerSvc := planner.NewService(planner.Deps{
		Conf:      &conf,
		Logger:    logger,
		Tx:        inmemdb.NewTransactor(db),
		Users:     usrSvc,
		Topics:    inmemdb.NewTopicRepository(db),
		Planners:  inmemdb.NewPlannerRepository(db),
		Questions: inmemdb.NewQuestionBank(db),
		Solved:    inmemdb.NewSolvedQuestionRepository(db),
		MailSvc:   emailsvc.NewConsoleServiceMock(logger),
	})

	out := new(bytes.Buffer)
	return testCLI{
		commandLine: &commandLine{
			conf:       &conf,
			logger:     logger,
			out:        out,
			usrSvc:     usrSvc,
			plannerSvc: plannerSvc,
			runner:     batch.NewRunner(usrSvc, logger, conf.Batch),
		},
		out:        out,
		users:      users,
		plannerSvc: plannerSvc,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrStr)
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_run(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "adduser: no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "adduser: no email", args: []string{"adduser", "-name", "Asha"}, wantErr: errHelp},
		{name: "adduser: help", args: []string{"adduser", "-h"}, wantErr: errHelp},
		{name: "adduser: bad email", args: []string{"adduser", "-name", "Asha", "-email", "asha"}, wantErrStr: "email"},
		{name: "token: no args", args: []string{"token"}, wantErr: errHelp},
		{name: "token: unknown student", args: []string{"token", "-user", "9b2f3a56-8f0e-4b8e-a6a9-2d0f8d3c4e11"}, wantErr: user.ErrNotFound},
		{name: "migrate: no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "migrate: memory engine", args: []string{"migrate", "up"}, wantErr: errNoSQLDB},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)
	cli.db = testutil.PrepareDB(t)

	var ran []string
	origRun := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = origRun })
	gooseRunFunc = func(db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, strings.TrimSpace(command+" "+strings.Join(args, " ")))
		return nil
	}

	tests := []cliTest{
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "planner_notes", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
	assert.Equal(t, []string{"up", "up-to 2", "down-to 1", "status", "create planner_notes sql"}, ran)
}

func Test_commandLine_planners(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	require.NoError(t, cli.run([]string{"admin", "adduser", "-name", "Asha", "-email", "Asha@Test.in", "-standard", "12",
		"-subjects", "physics, chemistry,", "-category", "basic"}))
	require.NoError(t, cli.run([]string{"admin", "adduser", "-name", "Ravi", "-email", "ravi@test.in"}))

	eligible, err := cli.usrSvc.QueryEligible(ctx)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	asha := eligible[0]
	assert.Equal(t, "asha@test.in", asha.Email)
	assert.Equal(t, []string{"physics", "chemistry"}, asha.Subjects)
	assert.Contains(t, cli.out.String(), "student "+asha.ID+" created (asha@test.in)")

	t.Run("createplanners", func(t *testing.T) {
		for i := 0; i < 2; i++ { // second run skips the existing planner
			cli.out.Reset()
			require.NoError(t, cli.run([]string{"admin", "createplanners"}))
			assert.True(t, strings.HasPrefix(cli.out.String(), "weekly-planner: 1 student(s) processed, 0 failure(s)"), cli.out.String())
		}

		p, err := cli.plannerSvc.GetPlanner(ctx, asha.ID)
		require.NoError(t, err)
		assert.Equal(t, "2024-04-03", p.StartDate.In(kolkata).Format("2006-01-02"))
		assert.Len(t, p.Days, 7)
	})

	t.Run("createplanners next week", func(t *testing.T) {
		cli.out.Reset()
		require.NoError(t, cli.run([]string{"admin", "createplanners", "-next-week"}))
		assert.Contains(t, cli.out.String(), "1 student(s) processed, 0 failure(s)")
	})

	t.Run("updateplanners", func(t *testing.T) {
		cli.out.Reset()
		require.NoError(t, cli.run([]string{"admin", "updateplanners"}))
		assert.True(t, strings.HasPrefix(cli.out.String(), "daily-planner-update: 1 student(s) processed, 0 failure(s)"), cli.out.String())
	})

	t.Run("resetstreaks", func(t *testing.T) {
		stale := wednesday.AddDate(0, 0, -3)
		usr, err := cli.usrSvc.GetByID(ctx, asha.ID)
		require.NoError(t, err)
		usr.Streak = user.Streak{Count: 3, UpdatedAt: &stale}
		_, err = cli.users.UpdateUser(ctx, usr)
		require.NoError(t, err)

		cli.out.Reset()
		require.NoError(t, cli.run([]string{"admin", "resetstreaks"}))
		assert.True(t, strings.HasPrefix(cli.out.String(), "streak-reset: 1 streak(s) reset"), cli.out.String())

		got, err := cli.usrSvc.GetByID(ctx, asha.ID)
		require.NoError(t, err)
		assert.Zero(t, got.Streak.Count)
	})

	t.Run("token", func(t *testing.T) {
		cli.out.Reset()
		require.NoError(t, cli.run([]string{"admin", "token", "-user", asha.ID}))
		assert.Len(t, strings.Split(strings.TrimSpace(cli.out.String()), "."), 3)
	})
}
