package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/batch"
	"github.com/trezcool/revisa/core/user"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf       *core.Config
	logger     core.Logger
	out        io.Writer
	db         *sqlx.DB // nil with the memory engine
	usrSvc     *user.Service
	plannerSvc batch.PlannerService
	runner     *batch.Runner
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                       - run a goose command (up, down, status, ...)")
	_, _ = fmt.Fprintln(cli.out, "  createplanners [-next-week]                  - build the weekly planner of every eligible student")
	_, _ = fmt.Fprintln(cli.out, "  updateplanners                               - add today's topics to tomorrow's planner entries")
	_, _ = fmt.Fprintln(cli.out, "  resetstreaks                                 - zero the streaks not extended since yesterday")
	_, _ = fmt.Fprintln(cli.out, "  adduser -name NAME -email EMAIL [options]    - register a student")
	_, _ = fmt.Fprintln(cli.out, "  token -user ID                               - print an API token for a student")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "createplanners":
		cmd := cli.newFlagSet("createplanners")
		nextWeek := cmd.Bool("next-week", cli.conf.Batch.NextWeek, "Build the planners of the upcoming week.")
		if err := cmd.Parse(args[2:]); err != nil {
			return cli.flagErr(err)
		}
		return cli.runJob(ctx, "weekly-planner", batch.WeeklyPlannerJob(cli.plannerSvc, cli.logger, *nextWeek))

	case "updateplanners":
		return cli.runJob(ctx, "daily-planner-update", batch.DailyUpdateJob(cli.plannerSvc, cli.logger))

	case "resetstreaks":
		start := time.Now()
		rep, err := cli.runner.RunTask(ctx, "streak-reset", batch.StreakResetTask(cli.usrSvc))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cli.out, "streak-reset: %d streak(s) reset in %s\n", rep.Processed, time.Since(start).Round(time.Millisecond))
		return nil

	case "adduser":
		cmd := cli.newFlagSet("adduser")
		name := cmd.String("name", "", "The student's name.")
		email := cmd.String("email", "", "The student's email.")
		standard := cmd.Int("standard", 0, "The student's standard (class).")
		subjects := cmd.String("subjects", "", "Comma-separated subjects.")
		category := cmd.String("category", "", "Paid subscription category (basic, pro, premium). Empty means no subscription.")
		trial := cmd.Bool("trial", false, "Activate a free trial.")
		if err := cmd.Parse(args[2:]); err != nil {
			return cli.flagErr(err)
		}
		if *name == "" || *email == "" {
			cmd.Usage()
			return errHelp
		}
		nu := user.NewUser{
			Name:       *name,
			Email:      *email,
			Standard:   *standard,
			Subjects:   splitList(*subjects),
			Category:   *category,
			Subscribed: *category != "",
			Trial:      *trial,
		}
		return cli.addUser(ctx, nu)

	case "token":
		cmd := cli.newFlagSet("token")
		userID := cmd.String("user", "", "The student's ID.")
		if err := cmd.Parse(args[2:]); err != nil {
			return cli.flagErr(err)
		}
		if *userID == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.token(ctx, *userID)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) flagErr(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return errHelp
	}
	return err
}

func (cli *commandLine) runJob(ctx context.Context, name string, job batch.JobFunc) error {
	start := time.Now()
	rep, err := cli.runner.RunForAllEligibleUsers(ctx, name, job)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "%s: %d student(s) processed, %d failure(s) in %s\n",
		name, rep.Processed, rep.Failed, time.Since(start).Round(time.Millisecond))
	return nil
}

func splitList(s string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
