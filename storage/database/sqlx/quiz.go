package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/revisa/core/quiz"
)

type quizRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	Type      string    `db:"quiz_type"`
	Questions string    `db:"questions"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	CreatedAt time.Time `db:"created_at"`
}

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *sqlx.DB) *quizRepository {
	return &quizRepository{db: db}
}

func (repo quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	qz.ID = uuid.New().String()
	questions, err := asJSON(nonNilQuestions(qz.Questions)).Value()
	if err != nil {
		return quiz.Quiz{}, err
	}
	row := quizRow{
		ID:        qz.ID,
		StudentID: qz.StudentID,
		Type:      qz.Type,
		Questions: questions.(string),
		StartDate: qz.StartDate.UTC(),
		EndDate:   qz.EndDate.UTC(),
		CreatedAt: qz.CreatedAt.UTC(),
	}

	q := `INSERT INTO quizzes (id, student_id, quiz_type, questions, start_date, end_date, created_at)
		VALUES (:id, :student_id, :quiz_type, :questions, :start_date, :end_date, :created_at)`
	if _, err = sqlx.NamedExecContext(ctx, getExec(ctx, repo.db), q, row); err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "inserting quiz")
	}
	return qz, nil
}
