package inmemdb

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/revisa/core/planner"
	"github.com/trezcool/revisa/core/quiz"
)

type topicRepository struct {
	db *topicTable
}

var _ planner.TopicRepository = (*topicRepository)(nil) // interface compliance check

func NewTopicRepository(db *DB) *topicRepository {
	return &topicRepository{db: db.topic}
}

func (repo *topicRepository) CreateTopic(_ context.Context, rt planner.RevisionTopic) (planner.RevisionTopic, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rt.ID = uuid.New().String()
	if rt.Topic.StudiedAt == nil {
		rt.Topic.StudiedAt = make([]planner.StudyEvent, 0)
	}
	repo.db.table[rt.ID] = cloneTopic(rt)
	repo.db.order = append(repo.db.order, rt.ID)
	return cloneTopic(rt), nil
}

func (repo *topicRepository) QueryTopics(_ context.Context, filter planner.TopicFilter) ([]planner.RevisionTopic, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	topics := make([]planner.RevisionTopic, 0)
	for _, id := range repo.db.order {
		rt := repo.db.table[id]
		if rt.StudentID != filter.StudentID {
			continue
		}
		if filter.Tag != "" && rt.Tag != filter.Tag {
			continue
		}
		if !filter.CreatedFrom.IsZero() && rt.CreatedAt.Before(filter.CreatedFrom) {
			if !filter.IncludeUnscheduled || rt.Topic.PlannerFrequency != 0 {
				continue
			}
		}
		topics = append(topics, cloneTopic(rt))
	}
	sort.SliceStable(topics, func(i, j int) bool { return topics[i].CreatedAt.Before(topics[j].CreatedAt) })
	return topics, nil
}

func (repo *topicRepository) UpdateTopics(_ context.Context, topics ...planner.RevisionTopic) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, rt := range topics {
		if _, ok := repo.db.table[rt.ID]; !ok {
			return errTopicNotFound(rt.ID)
		}
	}
	for _, rt := range topics {
		orig := repo.db.table[rt.ID]
		orig.Tag = rt.Tag
		orig.Topic = rt.Topic
		orig.Chapter = rt.Chapter
		orig.UpdatedAt = rt.UpdatedAt
		repo.db.table[rt.ID] = cloneTopic(orig)
	}
	return nil
}

func (repo *topicRepository) DeleteTopics(_ context.Context, studentID string, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	remove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if rt, ok := repo.db.table[id]; ok && rt.StudentID == studentID {
			remove[id] = struct{}{}
			delete(repo.db.table, id)
		}
	}
	order := repo.db.order[:0]
	for _, id := range repo.db.order {
		if _, ok := remove[id]; !ok {
			order = append(order, id)
		}
	}
	repo.db.order = order
	return len(remove), nil
}

type plannerRepository struct {
	db *plannerTable
}

var _ planner.PlannerRepository = (*plannerRepository)(nil) // interface compliance check

func NewPlannerRepository(db *DB) *plannerRepository {
	return &plannerRepository{db: db.planner}
}

func (repo *plannerRepository) CreatePlanner(_ context.Context, p planner.Planner) (planner.Planner, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.table {
		if existing.StudentID == p.StudentID && existing.EndDate.Equal(p.EndDate) {
			return planner.Planner{}, planner.ErrPlannerExists
		}
	}
	p.ID = uuid.New().String()
	repo.db.table[p.ID] = clonePlanner(p)
	return clonePlanner(p), nil
}

func (repo *plannerRepository) GetPlanner(_ context.Context, filter planner.PlannerFilter) (planner.Planner, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var found *planner.Planner
	for _, p := range repo.db.table {
		p := p
		if p.StudentID != filter.StudentID || p.StartDate.Before(filter.WeekStart) || p.EndDate.After(filter.WeekEnd) {
			continue
		}
		if found == nil || p.CreatedAt.After(found.CreatedAt) {
			found = &p
		}
	}
	if found == nil {
		return planner.Planner{}, planner.ErrNotFound
	}
	return clonePlanner(*found), nil
}

func (repo *plannerRepository) AppendDayTopics(
	_ context.Context,
	plannerID string,
	date time.Time,
	topics []planner.RevisionTopic,
	questions planner.Questions,
) (planner.Planner, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.table[plannerID]
	if !ok {
		return planner.Planner{}, planner.ErrNotFound
	}
	p := clonePlanner(stored)
	pos, day, ok := p.Day(date)
	if !ok {
		return planner.Planner{}, planner.ErrDayNotFound
	}

	for _, rt := range topics {
		day.ContinuousRevisionTopics = append(day.ContinuousRevisionTopics, cloneTopic(rt))
		if rt.Chapter.Name != "" && !contains(day.Chapters, rt.Chapter.Name) {
			day.Chapters = append(day.Chapters, rt.Chapter.Name)
		}
	}
	day.Questions = questions
	p.Days[pos] = day

	repo.db.table[p.ID] = clonePlanner(p)
	return p, nil
}

type questionBank struct {
	db *questionTable
}

var _ planner.QuestionBank = (*questionBank)(nil) // interface compliance check

func NewQuestionBank(db *DB) *questionBank {
	return &questionBank{db: db.question}
}

func (repo *questionBank) CreateQuestions(_ context.Context, questions ...planner.Question) ([]planner.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	created := make([]planner.Question, 0, len(questions))
	for _, q := range questions {
		if q.ID == "" {
			q.ID = uuid.New().String()
		}
		repo.db.table[q.ID] = q
		created = append(created, q)
	}
	return created, nil
}

func (repo *questionBank) SampleQuestions(_ context.Context, query planner.QuestionQuery, size int) ([]planner.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]struct{}, len(query.ExcludeIDs))
	for _, id := range query.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	matches := make([]planner.Question, 0)
	for _, q := range repo.db.table {
		if _, skip := excluded[q.ID]; skip || q.Level != query.Level || !coversTopic(q, query.Topic) {
			continue
		}
		matches = append(matches, q)
	}
	rand.Shuffle(len(matches), func(i, j int) { matches[i], matches[j] = matches[j], matches[i] })
	if len(matches) > size {
		matches = matches[:size]
	}
	return matches, nil
}

type solvedQuestionRepository struct {
	db *questionTable
}

var _ planner.SolvedQuestionRepository = (*solvedQuestionRepository)(nil) // interface compliance check

func NewSolvedQuestionRepository(db *DB) *solvedQuestionRepository {
	return &solvedQuestionRepository{db: db.question}
}

func (repo *solvedQuestionRepository) RecordSolved(_ context.Context, studentID string, q planner.Question) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.db.solved[studentID] == nil {
		repo.db.solved[studentID] = make(map[string]struct{})
	}
	repo.db.solved[studentID][q.Question] = struct{}{}
	return nil
}

func (repo *solvedQuestionRepository) IsSolved(_ context.Context, studentID, body string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	_, ok := repo.db.solved[studentID][body]
	return ok, nil
}

type quizRepository struct {
	db *quizTable
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *DB) *quizRepository {
	return &quizRepository{db: db.quiz}
}

func (repo *quizRepository) CreateQuiz(_ context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	qz.ID = uuid.New().String()
	repo.db.table[qz.ID] = qz
	return qz, nil
}

// QueryQuizzes returns the student's quizzes (test helper, no API uses it).
func (repo *quizRepository) QueryQuizzes(studentID string) []quiz.Quiz {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	quizzes := make([]quiz.Quiz, 0)
	for _, qz := range repo.db.table {
		if qz.StudentID == studentID {
			quizzes = append(quizzes, qz)
		}
	}
	return quizzes
}

func errTopicNotFound(id string) error {
	return errors.Errorf("revision topic %s not found", id)
}

func coversTopic(q planner.Question, topic string) bool {
	key := strings.ToLower(strings.TrimSpace(topic))
	for _, t := range q.Topics {
		if strings.ToLower(strings.TrimSpace(t)) == key {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cloneTopic(rt planner.RevisionTopic) planner.RevisionTopic {
	rt.Topic.StudiedAt = append([]planner.StudyEvent(nil), rt.Topic.StudiedAt...)
	return rt
}

func clonePlanner(p planner.Planner) planner.Planner {
	days := make([]planner.Day, len(p.Days))
	for i, d := range p.Days {
		cd := d
		cd.ContinuousRevisionTopics = make([]planner.RevisionTopic, 0, len(d.ContinuousRevisionTopics))
		for _, rt := range d.ContinuousRevisionTopics {
			cd.ContinuousRevisionTopics = append(cd.ContinuousRevisionTopics, cloneTopic(rt))
		}
		cd.BackRevisionTopics = make([]planner.RevisionTopic, 0, len(d.BackRevisionTopics))
		for _, rt := range d.BackRevisionTopics {
			cd.BackRevisionTopics = append(cd.BackRevisionTopics, cloneTopic(rt))
		}
		cd.Chapters = append(make([]string, 0, len(d.Chapters)), d.Chapters...)
		cd.CompletedTopics = append(make([]string, 0, len(d.CompletedTopics)), d.CompletedTopics...)
		cd.IncompletedTopics = append(make([]string, 0, len(d.IncompletedTopics)), d.IncompletedTopics...)
		cd.Questions = make(planner.Questions, len(d.Questions))
		for k, v := range d.Questions {
			cd.Questions[k] = append([]planner.Question(nil), v...)
		}
		days[i] = cd
	}
	p.Days = days
	return p
}
