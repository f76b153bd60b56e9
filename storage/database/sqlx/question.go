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

type questionRow struct {
	ID       string `db:"id"`
	Question string `db:"question"`
	Options  string `db:"options"`
	Answer   string `db:"answer"`
	Level    string `db:"level"`
	Subject  string `db:"subject"`
	Topics   string `db:"topics"`
}

func (row questionRow) toQuestion() (planner.Question, error) {
	q := planner.Question{
		ID:       row.ID,
		Question: row.Question,
		Answer:   row.Answer,
		Level:    row.Level,
		Subject:  row.Subject,
		Options:  make([]string, 0),
		Topics:   make([]string, 0),
	}
	if err := fromJSON(row.Options, &q.Options); err != nil {
		return planner.Question{}, err
	}
	if err := fromJSON(row.Topics, &q.Topics); err != nil {
		return planner.Question{}, err
	}
	return q, nil
}

func topicKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type questionBank struct {
	db *sqlx.DB
}

var _ planner.QuestionBank = (*questionBank)(nil) // interface compliance check

func NewQuestionBank(db *sqlx.DB) *questionBank {
	return &questionBank{db: db}
}

func (repo questionBank) CreateQuestions(ctx context.Context, questions ...planner.Question) ([]planner.Question, error) {
	created := make([]planner.Question, 0, len(questions))

	err := NewTransactor(repo.db).WithinTx(ctx, func(ctx context.Context) error {
		exec := getExec(ctx, repo.db)
		for _, q := range questions {
			if q.ID == "" {
				q.ID = uuid.New().String()
			}
			options, err := asJSON(nonNilStrings(q.Options)).Value()
			if err != nil {
				return err
			}
			topics, err := asJSON(nonNilStrings(q.Topics)).Value()
			if err != nil {
				return err
			}
			row := questionRow{
				ID:       q.ID,
				Question: q.Question,
				Options:  options.(string),
				Answer:   q.Answer,
				Level:    q.Level,
				Subject:  q.Subject,
				Topics:   topics.(string),
			}

			ins := `INSERT INTO questions (id, question, options, answer, level, subject, topics)
				VALUES (:id, :question, :options, :answer, :level, :subject, :topics)`
			if _, err = sqlx.NamedExecContext(ctx, exec, ins, row); err != nil {
				return errors.Wrap(err, "inserting question")
			}

			seen := make(map[string]struct{}, len(q.Topics))
			for _, t := range q.Topics {
				key := topicKey(t)
				if _, dup := seen[key]; dup || key == "" {
					continue
				}
				seen[key] = struct{}{}
				ins = repo.db.Rebind("INSERT INTO question_topics (question_id, topic) VALUES (?, ?)")
				if _, err = exec.ExecContext(ctx, ins, q.ID, key); err != nil {
					return errors.Wrap(err, "inserting question topic")
				}
			}

			cq, err := row.toQuestion()
			if err != nil {
				return err
			}
			created = append(created, cq)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (repo questionBank) SampleQuestions(ctx context.Context, query planner.QuestionQuery, size int) ([]planner.Question, error) {
	if size <= 0 {
		return make([]planner.Question, 0), nil
	}

	q := `SELECT q.id, q.question, q.options, q.answer, q.level, q.subject, q.topics FROM questions q
		JOIN question_topics t ON t.question_id = q.id
		WHERE t.topic = ? AND q.level = ?`
	args := []interface{}{topicKey(query.Topic), query.Level}
	if len(query.ExcludeIDs) > 0 {
		q += " AND q.id NOT IN (?)"
		args = append(args, query.ExcludeIDs)
	}
	q += " ORDER BY RANDOM() LIMIT ?"
	args = append(args, size)

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "expanding sample query")
	}

	var rows []questionRow
	if err = sqlx.SelectContext(ctx, getExec(ctx, repo.db), &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "sampling questions")
	}

	questions := make([]planner.Question, 0, len(rows))
	for _, row := range rows {
		qst, err := row.toQuestion()
		if err != nil {
			return nil, err
		}
		questions = append(questions, qst)
	}
	return questions, nil
}

type solvedQuestionRepository struct {
	db *sqlx.DB
}

var _ planner.SolvedQuestionRepository = (*solvedQuestionRepository)(nil) // interface compliance check

func NewSolvedQuestionRepository(db *sqlx.DB) *solvedQuestionRepository {
	return &solvedQuestionRepository{db: db}
}

func (repo solvedQuestionRepository) RecordSolved(ctx context.Context, studentID string, q planner.Question) error {
	ins := repo.db.Rebind(`INSERT INTO solved_questions (id, student_id, question_id, question, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	_, err := getExec(ctx, repo.db).ExecContext(ctx, ins, uuid.New().String(), studentID, q.ID, q.Question, time.Now().UTC())
	return errors.Wrap(err, "recording solved question")
}

func (repo solvedQuestionRepository) IsSolved(ctx context.Context, studentID, body string) (bool, error) {
	var count int
	q := repo.db.Rebind("SELECT COUNT(*) FROM solved_questions WHERE student_id = ? AND question = ?")
	if err := sqlx.GetContext(ctx, getExec(ctx, repo.db), &count, q, studentID, body); err != nil {
		return false, errors.Wrap(err, "checking solved question")
	}
	return count > 0, nil
}
