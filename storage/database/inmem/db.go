package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/planner"
	"github.com/trezcool/revisa/core/quiz"
	"github.com/trezcool/revisa/core/user"
)

type (
	userTable struct {
		mutex sync.RWMutex
		table map[string]user.User
	}

	topicTable struct {
		mutex sync.RWMutex
		table map[string]planner.RevisionTopic
		order []string // insertion order
	}

	plannerTable struct {
		mutex sync.RWMutex
		table map[string]planner.Planner
	}

	questionTable struct {
		mutex  sync.RWMutex
		table  map[string]planner.Question
		solved map[string]map[string]struct{} // student ID -> solved question bodies
	}

	quizTable struct {
		mutex sync.RWMutex
		table map[string]quiz.Quiz
	}

	// DB is a process-local store used by tests & the `memory` database engine.
	DB struct {
		txMutex  sync.Mutex
		user     *userTable
		topic    *topicTable
		planner  *plannerTable
		question *questionTable
		quiz     *quizTable
	}
)

func NewDB() *DB {
	return &DB{
		user:     &userTable{table: make(map[string]user.User)},
		topic:    &topicTable{table: make(map[string]planner.RevisionTopic)},
		planner:  &plannerTable{table: make(map[string]planner.Planner)},
		question: &questionTable{table: make(map[string]planner.Question), solved: make(map[string]map[string]struct{})},
		quiz:     &quizTable{table: make(map[string]quiz.Quiz)},
	}
}

type snapshot struct {
	users    map[string]user.User
	topics   map[string]planner.RevisionTopic
	order    []string
	planners map[string]planner.Planner
}

func (db *DB) snapshot() snapshot {
	s := snapshot{
		users:    make(map[string]user.User),
		topics:   make(map[string]planner.RevisionTopic),
		planners: make(map[string]planner.Planner),
	}

	db.user.mutex.RLock()
	for k, v := range db.user.table {
		s.users[k] = v
	}
	db.user.mutex.RUnlock()

	db.topic.mutex.RLock()
	for k, v := range db.topic.table {
		s.topics[k] = v
	}
	s.order = append(s.order, db.topic.order...)
	db.topic.mutex.RUnlock()

	db.planner.mutex.RLock()
	for k, v := range db.planner.table {
		s.planners[k] = v
	}
	db.planner.mutex.RUnlock()
	return s
}

func (db *DB) restore(s snapshot) {
	db.user.mutex.Lock()
	db.user.table = s.users
	db.user.mutex.Unlock()

	db.topic.mutex.Lock()
	db.topic.table = s.topics
	db.topic.order = s.order
	db.topic.mutex.Unlock()

	db.planner.mutex.Lock()
	db.planner.table = s.planners
	db.planner.mutex.Unlock()
}

type txKey struct{}

type transactor struct {
	db *DB
}

var _ core.Transactor = (*transactor)(nil) // interface compliance check

func NewTransactor(db *DB) *transactor {
	return &transactor{db: db}
}

// WithinTx serializes transactions and restores the user, topic & planner tables when fn fails.
// Stored values are never mutated in place, so shallow table copies are enough.
func (t transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	t.db.txMutex.Lock()
	defer t.db.txMutex.Unlock()

	snap := t.db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}
