package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/revisa/core/planner"
)

const topicColumns = `id, student_id, tag, topic_name, topic, chapter, subject, standard, planner_frequency, created_at, updated_at`

type topicRow struct {
	ID               string    `db:"id"`
	StudentID        string    `db:"student_id"`
	Tag              string    `db:"tag"`
	TopicName        string    `db:"topic_name"`
	Topic            string    `db:"topic"`
	Chapter          string    `db:"chapter"`
	Subject          string    `db:"subject"`
	Standard         int       `db:"standard"`
	PlannerFrequency int       `db:"planner_frequency"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

type topicRepository struct {
	db *sqlx.DB
}

var _ planner.TopicRepository = (*topicRepository)(nil) // interface compliance check

func NewTopicRepository(db *sqlx.DB) *topicRepository {
	return &topicRepository{db: db}
}

func (repo topicRepository) toRow(rt planner.RevisionTopic) (topicRow, error) {
	if rt.Topic.StudiedAt == nil {
		rt.Topic.StudiedAt = make([]planner.StudyEvent, 0)
	}
	topic, err := asJSON(rt.Topic).Value()
	if err != nil {
		return topicRow{}, err
	}
	chapter, err := asJSON(rt.Chapter).Value()
	if err != nil {
		return topicRow{}, err
	}
	return topicRow{
		ID:               rt.ID,
		StudentID:        rt.StudentID,
		Tag:              rt.Tag,
		TopicName:        rt.Topic.Name,
		Topic:            topic.(string),
		Chapter:          chapter.(string),
		Subject:          rt.Subject,
		Standard:         rt.Standard,
		PlannerFrequency: rt.Topic.PlannerFrequency,
		CreatedAt:        rt.CreatedAt.UTC(),
		UpdatedAt:        rt.UpdatedAt.UTC(),
	}, nil
}

func (repo topicRepository) fromRow(row topicRow) (planner.RevisionTopic, error) {
	rt := planner.RevisionTopic{
		ID:        row.ID,
		StudentID: row.StudentID,
		Tag:       row.Tag,
		Subject:   row.Subject,
		Standard:  row.Standard,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if err := fromJSON(row.Topic, &rt.Topic); err != nil {
		return planner.RevisionTopic{}, err
	}
	if err := fromJSON(row.Chapter, &rt.Chapter); err != nil {
		return planner.RevisionTopic{}, err
	}
	return rt, nil
}

func (repo topicRepository) CreateTopic(ctx context.Context, rt planner.RevisionTopic) (planner.RevisionTopic, error) {
	rt.ID = uuid.New().String()
	row, err := repo.toRow(rt)
	if err != nil {
		return planner.RevisionTopic{}, err
	}

	q := `INSERT INTO revision_topics (` + topicColumns + `) VALUES (:id, :student_id, :tag, :topic_name, :topic,
		:chapter, :subject, :standard, :planner_frequency, :created_at, :updated_at)`
	if _, err = sqlx.NamedExecContext(ctx, getExec(ctx, repo.db), q, row); err != nil {
		return planner.RevisionTopic{}, errors.Wrap(err, "inserting revision topic")
	}
	return repo.fromRow(row)
}

func (repo topicRepository) QueryTopics(ctx context.Context, filter planner.TopicFilter) ([]planner.RevisionTopic, error) {
	where := []string{"student_id = ?"}
	args := []interface{}{filter.StudentID}

	if filter.Tag != "" {
		where = append(where, "tag = ?")
		args = append(args, filter.Tag)
	}
	if !filter.CreatedFrom.IsZero() {
		if filter.IncludeUnscheduled {
			where = append(where, "(created_at >= ? OR planner_frequency = 0)")
		} else {
			where = append(where, "created_at >= ?")
		}
		args = append(args, filter.CreatedFrom.UTC())
	}

	q := "SELECT " + topicColumns + " FROM revision_topics WHERE " + strings.Join(where, " AND ") + " ORDER BY created_at ASC"

	var rows []topicRow
	if err := sqlx.SelectContext(ctx, getExec(ctx, repo.db), &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying revision topics")
	}

	topics := make([]planner.RevisionTopic, 0, len(rows))
	for _, row := range rows {
		rt, err := repo.fromRow(row)
		if err != nil {
			return nil, err
		}
		topics = append(topics, rt)
	}
	return topics, nil
}

func (repo topicRepository) UpdateTopics(ctx context.Context, topics ...planner.RevisionTopic) error {
	q := `UPDATE revision_topics SET tag = :tag, topic_name = :topic_name, topic = :topic, chapter = :chapter,
		planner_frequency = :planner_frequency, updated_at = :updated_at WHERE id = :id`

	for _, rt := range topics {
		row, err := repo.toRow(rt)
		if err != nil {
			return err
		}
		res, err := sqlx.NamedExecContext(ctx, getExec(ctx, repo.db), q, row)
		if err != nil {
			return errors.Wrapf(err, "updating revision topic %s", rt.ID)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return errors.Errorf("revision topic %s not found", rt.ID)
		}
	}
	return nil
}

func (repo topicRepository) DeleteTopics(ctx context.Context, studentID string, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In("DELETE FROM revision_topics WHERE student_id = ? AND id IN (?)", studentID, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := getExec(ctx, repo.db).ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting revision topics")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "counting deleted revision topics")
}
