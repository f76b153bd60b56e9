package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/user"
)

// UpdateResult describes what the daily update added.
type UpdateResult struct {
	Planner Planner         `json:"planner"`
	Date    time.Time       `json:"date"`
	Added   []RevisionTopic `json:"added"`
}

// DailyUpdater adds the topics recorded today to tomorrow's entry of the student's planner.
type DailyUpdater struct {
	selector              TopicSelector
	assembler             *QuestionAssembler
	topics                TopicRepository
	planners              PlannerRepository
	tx                    core.Transactor
	logger                core.Logger
	cal                   calendar
	abortOnRetrievalError bool
}

func NewDailyUpdater(
	selector TopicSelector,
	assembler *QuestionAssembler,
	topics TopicRepository,
	planners PlannerRepository,
	tx core.Transactor,
	logger core.Logger,
	loc *time.Location,
	conf core.PlannerConfig,
) *DailyUpdater {
	return &DailyUpdater{
		selector:              selector,
		assembler:             assembler,
		topics:                topics,
		planners:              planners,
		tx:                    tx,
		logger:                logger,
		cal:                   newCalendar(loc),
		abortOnRetrievalError: conf.AbortOnRetrievalError,
	}
}

// UpdateDailyPlanner schedules the continuous revision topics created today on tomorrow's day.
// Topics already on that day (case-insensitive name match) are never added twice; if nothing is
// left to add, ErrNothingNew is returned and the planner is left untouched.
func (u *DailyUpdater) UpdateDailyPlanner(ctx context.Context, usr user.User) (UpdateResult, error) {
	today := u.cal.day(NowFunc())
	nextDay := u.cal.addDays(today, 1)
	monday, sunday := u.cal.week(nextDay)

	p, err := u.planners.GetPlanner(ctx, PlannerFilter{StudentID: usr.ID, WeekStart: monday, WeekEnd: sunday})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return UpdateResult{}, ErrNotFound
		}
		return UpdateResult{}, &RetrievalError{Op: "getting planner", Err: err}
	}
	_, day, ok := p.Day(nextDay)
	if !ok {
		return UpdateResult{}, ErrDayNotFound
	}

	loaded, err := u.topics.QueryTopics(ctx, TopicFilter{
		StudentID:   usr.ID,
		Tag:         TagContinuousRevision,
		CreatedFrom: today,
	})
	if err != nil {
		return UpdateResult{}, &RetrievalError{Op: "loading continuous revision topics", Err: err}
	}

	existing := day.TopicNames()
	fresh := make([]RevisionTopic, 0, len(loaded))
	duplicates := make([]RevisionTopic, 0)
	for _, rt := range loaded {
		if _, dup := existing[rt.Topic.key()]; dup {
			duplicates = append(duplicates, rt)
		} else {
			fresh = append(fresh, rt)
		}
	}

	ci, _ := u.selector.pick(fresh, nil, usr)
	if len(ci) == 0 {
		// already on the planner: consume them so the next weekly build does not schedule them again
		if err := u.retire(ctx, duplicates); err != nil {
			return UpdateResult{}, err
		}
		return UpdateResult{Planner: p, Date: nextDay}, ErrNothingNew
	}

	updatedAt := NowFunc().UTC()
	added := make([]RevisionTopic, 0, len(ci))
	for _, idx := range ci {
		rt := fresh[idx].clone()
		rt.markStudied(nextDay)
		rt.Tag = TagActiveContinuousRevision
		rt.UpdatedAt = updatedAt
		added = append(added, rt)
	}

	questions, err := u.assembler.AssembleQuestions(ctx, usr.ID, day.Weekday, nextDay, added)
	if err != nil {
		if !IsRetrievalError(err) || u.abortOnRetrievalError {
			return UpdateResult{}, err
		}
		u.logger.Warn(fmt.Sprintf("partial questions for %s: %v", nextDay.Format(dateLayout), err), err, usr)
	}
	merged := day.Questions.merge(questions)

	err = u.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = u.planners.AppendDayTopics(ctx, p.ID, nextDay, added, merged); err != nil {
			return errors.Wrap(err, "appending day topics")
		}
		toSave := append(append([]RevisionTopic{}, added...), retired(duplicates, updatedAt)...)
		return errors.Wrap(u.topics.UpdateTopics(ctx, toSave...), "updating scheduled topics")
	})
	if err != nil {
		return UpdateResult{}, errors.Wrap(err, "saving daily update")
	}
	return UpdateResult{Planner: p, Date: nextDay, Added: added}, nil
}

func (u *DailyUpdater) retire(ctx context.Context, topics []RevisionTopic) error {
	if len(topics) == 0 {
		return nil
	}
	err := u.topics.UpdateTopics(ctx, retired(topics, NowFunc().UTC())...)
	return errors.Wrap(err, "retiring duplicate topics")
}

func retired(topics []RevisionTopic, updatedAt time.Time) []RevisionTopic {
	out := make([]RevisionTopic, 0, len(topics))
	for _, rt := range topics {
		rt = rt.clone()
		rt.Tag = TagActiveContinuousRevision
		rt.UpdatedAt = updatedAt
		out = append(out, rt)
	}
	return out
}
