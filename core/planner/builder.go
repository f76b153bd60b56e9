package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/user"
)

type BuildOptions struct {
	// NextWeek builds the planner of the ISO week following the current one.
	NextWeek bool
}

// Builder generates the seven-day planner of an ISO week for one student.
type Builder struct {
	selector              TopicSelector
	assembler             *QuestionAssembler
	topics                TopicRepository
	planners              PlannerRepository
	tx                    core.Transactor
	logger                core.Logger
	cal                   calendar
	concurrency           int
	abortOnRetrievalError bool
}

func NewBuilder(
	selector TopicSelector,
	assembler *QuestionAssembler,
	topics TopicRepository,
	planners PlannerRepository,
	tx core.Transactor,
	logger core.Logger,
	loc *time.Location,
	conf core.PlannerConfig,
) *Builder {
	concurrency := conf.AssembleConcurrency
	if concurrency <= 0 {
		concurrency = len(Weekdays)
	}
	return &Builder{
		selector:              selector,
		assembler:             assembler,
		topics:                topics,
		planners:              planners,
		tx:                    tx,
		logger:                logger,
		cal:                   newCalendar(loc),
		concurrency:           concurrency,
		abortOnRetrievalError: conf.AbortOnRetrievalError,
	}
}

// BuildWeeklyPlanner creates the planner of the week starting at the student's activation date (when it
// falls in the reference week or later) or at the reference week's Monday.
// If the student already has a planner for that week, it is returned along with ErrPlannerExists.
func (b *Builder) BuildWeeklyPlanner(ctx context.Context, usr user.User, backTopics []RevisionTopic, opts BuildOptions) (Planner, error) {
	activation, ok := usr.ActivationDate()
	if !ok {
		return Planner{}, ErrPreconditionFailed
	}

	now := NowFunc()
	ref := now
	if opts.NextWeek {
		ref = b.cal.nextWeek(now)
	}
	startDate := b.cal.plannerStart(ref, activation)
	monday, sunday := b.cal.week(startDate)

	existing, err := b.planners.GetPlanner(ctx, PlannerFilter{StudentID: usr.ID, WeekStart: monday, WeekEnd: sunday})
	switch {
	case err == nil:
		return existing, ErrPlannerExists
	case errors.Cause(err) != ErrNotFound:
		return Planner{}, &RetrievalError{Op: "looking up existing planner", Err: err}
	}

	pool, err := b.topics.QueryTopics(ctx, TopicFilter{
		StudentID:          usr.ID,
		Tag:                TagContinuousRevision,
		CreatedFrom:        b.cal.addDays(b.cal.day(now), -1),
		IncludeUnscheduled: true,
	})
	if err != nil {
		return Planner{}, &RetrievalError{Op: "loading continuous revision topics", Err: err}
	}

	days, scheduled := b.scheduleWeek(usr, monday, startDate, pool, backTopics)

	if err := b.assembleQuestions(ctx, usr, days); err != nil {
		return Planner{}, err
	}

	p := Planner{
		StudentID: usr.ID,
		StartDate: startDate,
		EndDate:   sunday,
		Days:      days,
		CreatedAt: now.UTC(),
	}

	err = b.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = b.planners.CreatePlanner(ctx, p); err != nil {
			return err
		}
		return errors.Wrap(b.topics.UpdateTopics(ctx, scheduled...), "updating scheduled topics")
	})
	if err != nil {
		if errors.Cause(err) == ErrPlannerExists {
			existing, gErr := b.planners.GetPlanner(ctx, PlannerFilter{StudentID: usr.ID, WeekStart: monday, WeekEnd: sunday})
			if gErr != nil {
				return Planner{}, errors.Wrap(gErr, "getting concurrently created planner")
			}
			return existing, ErrPlannerExists
		}
		return Planner{}, errors.Wrap(err, "saving planner")
	}
	return p, nil
}

// scheduleWeek lays out Monday to Sunday of the week, only filling days from startDate on.
// Each topic is scheduled at most once in the week: once picked it leaves the pending pools.
// It returns the days and the picked topics in their updated state (continuous ones retagged as active).
func (b *Builder) scheduleWeek(usr user.User, monday, startDate time.Time, continuous, back []RevisionTopic) ([]Day, []RevisionTopic) {
	continuous = append([]RevisionTopic(nil), continuous...)
	back = append([]RevisionTopic(nil), back...)
	days := make([]Day, 0, len(Weekdays))
	scheduled := make([]RevisionTopic, 0)
	updatedAt := NowFunc().UTC()

	for i, weekday := range Weekdays {
		date := b.cal.addDays(monday, i)
		day := newDay(date, weekday)

		if !date.Before(startDate) {
			ci, bi := b.selector.pick(continuous, back, usr)
			for _, idx := range ci {
				rt := &continuous[idx]
				rt.markStudied(date)
				rt.Tag = TagActiveContinuousRevision
				rt.UpdatedAt = updatedAt
				day.ContinuousRevisionTopics = append(day.ContinuousRevisionTopics, rt.clone())
				scheduled = append(scheduled, rt.clone())
			}
			for _, idx := range bi {
				rt := &back[idx]
				rt.markStudied(date)
				rt.UpdatedAt = updatedAt
				day.BackRevisionTopics = append(day.BackRevisionTopics, rt.clone())
				scheduled = append(scheduled, rt.clone())
			}
			day.Chapters = chapterNames(day)
			continuous = without(continuous, ci)
			back = without(back, bi)
		}
		days = append(days, day)
	}

	if len(continuous) > 0 {
		b.logger.Info(fmt.Sprintf("%d continuous revision topic(s) carried over for student %s", len(continuous), usr.ID))
	}
	return days, scheduled
}

// assembleQuestions fills every day's questions concurrently. Each day only writes its own entry.
func (b *Builder) assembleQuestions(ctx context.Context, usr user.User, days []Day) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i := range days {
		i := i
		topics := append(append([]RevisionTopic{}, days[i].ContinuousRevisionTopics...), days[i].BackRevisionTopics...)
		if len(topics) == 0 {
			continue
		}
		g.Go(func() error {
			qs, err := b.assembler.AssembleQuestions(gctx, usr.ID, days[i].Weekday, days[i].Date, topics)
			days[i].Questions = qs
			if err != nil {
				if IsRetrievalError(err) && !b.abortOnRetrievalError {
					b.logger.Warn(fmt.Sprintf("partial questions for %s: %v", days[i].DateKey(), err), err, usr)
					return nil
				}
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func newDay(date time.Time, weekday string) Day {
	return Day{
		Date:                     date,
		Weekday:                  weekday,
		ContinuousRevisionTopics: make([]RevisionTopic, 0),
		BackRevisionTopics:       make([]RevisionTopic, 0),
		Chapters:                 make([]string, 0),
		CompletedTopics:          make([]string, 0),
		IncompletedTopics:        make([]string, 0),
		Questions:                make(Questions),
	}
}

func chapterNames(day Day) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, topics := range [][]RevisionTopic{day.ContinuousRevisionTopics, day.BackRevisionTopics} {
		for _, rt := range topics {
			if rt.Chapter.Name == "" {
				continue
			}
			if _, ok := seen[rt.Chapter.Name]; !ok {
				seen[rt.Chapter.Name] = struct{}{}
				names = append(names, rt.Chapter.Name)
			}
		}
	}
	return names
}
