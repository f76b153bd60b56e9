package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/revisa/core/planner"
)

type (
	plannerRow struct {
		ID        string    `db:"id"`
		StudentID string    `db:"student_id"`
		StartDate time.Time `db:"start_date"`
		EndDate   time.Time `db:"end_date"`
		CreatedAt time.Time `db:"created_at"`
	}

	dayRow struct {
		PlannerID         string    `db:"planner_id"`
		Position          int       `db:"position"`
		Date              time.Time `db:"date"`
		Weekday           string    `db:"weekday"`
		ContinuousTopics  string    `db:"continuous_topics"`
		BackTopics        string    `db:"back_topics"`
		Chapters          string    `db:"chapters"`
		CompletedTopics   string    `db:"completed_topics"`
		IncompletedTopics string    `db:"incompleted_topics"`
		Questions         string    `db:"questions"`
	}
)

type plannerRepository struct {
	db  *sqlx.DB
	loc *time.Location
}

var _ planner.PlannerRepository = (*plannerRepository)(nil) // interface compliance check

// NewPlannerRepository stores dates in UTC and hands them back in loc, the planner time zone.
func NewPlannerRepository(db *sqlx.DB, loc *time.Location) *plannerRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &plannerRepository{db: db, loc: loc}
}

func (repo plannerRepository) dayToRow(plannerID string, position int, d planner.Day) (dayRow, error) {
	row := dayRow{
		PlannerID: plannerID,
		Position:  position,
		Date:      d.Date.UTC(),
		Weekday:   d.Weekday,
	}
	fields := []struct {
		dst *string
		v   interface{}
	}{
		{&row.ContinuousTopics, nonNilTopics(d.ContinuousRevisionTopics)},
		{&row.BackTopics, nonNilTopics(d.BackRevisionTopics)},
		{&row.Chapters, nonNilStrings(d.Chapters)},
		{&row.CompletedTopics, nonNilStrings(d.CompletedTopics)},
		{&row.IncompletedTopics, nonNilStrings(d.IncompletedTopics)},
		{&row.Questions, nonNilQuestions(d.Questions)},
	}
	for _, f := range fields {
		v, err := asJSON(f.v).Value()
		if err != nil {
			return dayRow{}, err
		}
		*f.dst = v.(string)
	}
	return row, nil
}

func (repo plannerRepository) dayFromRow(row dayRow) (planner.Day, error) {
	d := planner.Day{
		Date:                     row.Date.In(repo.loc),
		Weekday:                  row.Weekday,
		ContinuousRevisionTopics: make([]planner.RevisionTopic, 0),
		BackRevisionTopics:       make([]planner.RevisionTopic, 0),
		Chapters:                 make([]string, 0),
		CompletedTopics:          make([]string, 0),
		IncompletedTopics:        make([]string, 0),
		Questions:                make(planner.Questions),
	}
	fields := []struct {
		src string
		v   interface{}
	}{
		{row.ContinuousTopics, &d.ContinuousRevisionTopics},
		{row.BackTopics, &d.BackRevisionTopics},
		{row.Chapters, &d.Chapters},
		{row.CompletedTopics, &d.CompletedTopics},
		{row.IncompletedTopics, &d.IncompletedTopics},
		{row.Questions, &d.Questions},
	}
	for _, f := range fields {
		if err := fromJSON(f.src, f.v); err != nil {
			return planner.Day{}, err
		}
	}
	return d, nil
}

func (repo plannerRepository) CreatePlanner(ctx context.Context, p planner.Planner) (planner.Planner, error) {
	p.ID = uuid.New().String()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	row := plannerRow{
		ID:        p.ID,
		StudentID: p.StudentID,
		StartDate: p.StartDate.UTC(),
		EndDate:   p.EndDate.UTC(),
		CreatedAt: p.CreatedAt.UTC(),
	}

	err := NewTransactor(repo.db).WithinTx(ctx, func(ctx context.Context) error {
		exec := getExec(ctx, repo.db)
		q := `INSERT INTO planners (id, student_id, start_date, end_date, created_at)
			VALUES (:id, :student_id, :start_date, :end_date, :created_at)`
		if _, err := sqlx.NamedExecContext(ctx, exec, q, row); err != nil {
			if isUniqueViolation(err) {
				return planner.ErrPlannerExists
			}
			return errors.Wrap(err, "inserting planner")
		}

		q = `INSERT INTO planner_days (planner_id, position, date, weekday, continuous_topics, back_topics, chapters,
			completed_topics, incompleted_topics, questions) VALUES (:planner_id, :position, :date, :weekday,
			:continuous_topics, :back_topics, :chapters, :completed_topics, :incompleted_topics, :questions)`
		for i, d := range p.Days {
			dr, err := repo.dayToRow(p.ID, i, d)
			if err != nil {
				return err
			}
			if _, err = sqlx.NamedExecContext(ctx, exec, q, dr); err != nil {
				return errors.Wrapf(err, "inserting planner day %s", d.DateKey())
			}
		}
		return nil
	})
	if err != nil {
		return planner.Planner{}, err
	}
	return repo.getByID(ctx, p.ID)
}

func (repo plannerRepository) GetPlanner(ctx context.Context, filter planner.PlannerFilter) (planner.Planner, error) {
	var row plannerRow
	q := repo.db.Rebind(`SELECT id, student_id, start_date, end_date, created_at FROM planners
		WHERE student_id = ? AND start_date >= ? AND end_date <= ? ORDER BY created_at DESC LIMIT 1`)
	err := sqlx.GetContext(ctx, getExec(ctx, repo.db), &row, q, filter.StudentID, filter.WeekStart.UTC(), filter.WeekEnd.UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			return planner.Planner{}, planner.ErrNotFound
		}
		return planner.Planner{}, errors.Wrap(err, "finding planner")
	}
	return repo.withDays(ctx, row)
}

func (repo plannerRepository) getByID(ctx context.Context, id string) (planner.Planner, error) {
	var row plannerRow
	q := repo.db.Rebind("SELECT id, student_id, start_date, end_date, created_at FROM planners WHERE id = ?")
	if err := sqlx.GetContext(ctx, getExec(ctx, repo.db), &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return planner.Planner{}, planner.ErrNotFound
		}
		return planner.Planner{}, errors.Wrap(err, "finding planner by ID")
	}
	return repo.withDays(ctx, row)
}

func (repo plannerRepository) withDays(ctx context.Context, row plannerRow) (planner.Planner, error) {
	var rows []dayRow
	q := repo.db.Rebind(`SELECT planner_id, position, date, weekday, continuous_topics, back_topics, chapters,
		completed_topics, incompleted_topics, questions FROM planner_days WHERE planner_id = ? ORDER BY position ASC`)
	if err := sqlx.SelectContext(ctx, getExec(ctx, repo.db), &rows, q, row.ID); err != nil {
		return planner.Planner{}, errors.Wrap(err, "querying planner days")
	}

	p := planner.Planner{
		ID:        row.ID,
		StudentID: row.StudentID,
		StartDate: row.StartDate.In(repo.loc),
		EndDate:   row.EndDate.In(repo.loc),
		Days:      make([]planner.Day, 0, len(rows)),
		CreatedAt: row.CreatedAt.UTC(),
	}
	for _, dr := range rows {
		d, err := repo.dayFromRow(dr)
		if err != nil {
			return planner.Planner{}, err
		}
		p.Days = append(p.Days, d)
	}
	return p, nil
}

func (repo plannerRepository) AppendDayTopics(
	ctx context.Context,
	plannerID string,
	date time.Time,
	topics []planner.RevisionTopic,
	questions planner.Questions,
) (planner.Planner, error) {
	p, err := repo.getByID(ctx, plannerID)
	if err != nil {
		return planner.Planner{}, err
	}
	pos, day, ok := p.Day(date.In(repo.loc))
	if !ok {
		return planner.Planner{}, planner.ErrDayNotFound
	}

	day.ContinuousRevisionTopics = append(day.ContinuousRevisionTopics, topics...)
	day.Chapters = appendChapters(day.Chapters, topics)
	day.Questions = questions

	row, err := repo.dayToRow(plannerID, pos, day)
	if err != nil {
		return planner.Planner{}, err
	}
	q := `UPDATE planner_days SET continuous_topics = :continuous_topics, chapters = :chapters, questions = :questions
		WHERE planner_id = :planner_id AND position = :position`
	if _, err = sqlx.NamedExecContext(ctx, getExec(ctx, repo.db), q, row); err != nil {
		return planner.Planner{}, errors.Wrap(err, "updating planner day")
	}
	return repo.getByID(ctx, plannerID)
}

func appendChapters(chapters []string, topics []planner.RevisionTopic) []string {
	seen := make(map[string]struct{}, len(chapters))
	for _, c := range chapters {
		seen[c] = struct{}{}
	}
	for _, rt := range topics {
		if rt.Chapter.Name == "" {
			continue
		}
		if _, ok := seen[rt.Chapter.Name]; !ok {
			seen[rt.Chapter.Name] = struct{}{}
			chapters = append(chapters, rt.Chapter.Name)
		}
	}
	return chapters
}

func nonNilTopics(topics []planner.RevisionTopic) []planner.RevisionTopic {
	if topics == nil {
		return make([]planner.RevisionTopic, 0)
	}
	return topics
}

func nonNilQuestions(qs planner.Questions) planner.Questions {
	if qs == nil {
		return make(planner.Questions)
	}
	return qs
}
