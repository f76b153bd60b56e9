// Package stack wires the storage engine & domain services shared by every app binary.
package stack

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/planner"
	"github.com/trezcool/revisa/core/quiz"
	"github.com/trezcool/revisa/core/user"
	emailsvc "github.com/trezcool/revisa/services/email"
	"github.com/trezcool/revisa/storage/database"
	inmemdb "github.com/trezcool/revisa/storage/database/inmem"
	sqlxrepos "github.com/trezcool/revisa/storage/database/sqlx"
)

const EngineMemory = "memory"

type Stack struct {
	DB         *sqlx.DB // nil with the memory engine
	MailSvc    core.EmailService
	UserSvc    *user.Service
	PlannerSvc *planner.Service
	QuizSvc    *quiz.Service

	closers []func() error
}

type repos struct {
	tx        core.Transactor
	users     user.Repository
	topics    planner.TopicRepository
	planners  planner.PlannerRepository
	questions planner.QuestionBank
	solved    planner.SolvedQuestionRepository
	quizzes   quiz.Repository
}

// New opens the configured database (creating & migrating it if needed) and builds the services on top of it.
func New(conf *core.Config, logger core.Logger, migrate bool) (*Stack, error) {
	s := new(Stack)

	var rs repos
	if conf.Database.Engine == EngineMemory {
		logger.Warn("using the in-memory database: data is lost on exit")
		db := inmemdb.NewDB()
		rs = repos{
			tx:        inmemdb.NewTransactor(db),
			users:     inmemdb.NewUserRepository(db),
			topics:    inmemdb.NewTopicRepository(db),
			planners:  inmemdb.NewPlannerRepository(db),
			questions: inmemdb.NewQuestionBank(db),
			solved:    inmemdb.NewSolvedQuestionRepository(db),
			quizzes:   inmemdb.NewQuizRepository(db),
		}
	} else {
		db, err := setUpDB(conf, migrate)
		if err != nil {
			return nil, errors.Wrap(err, "setting up database")
		}
		s.DB = db
		s.closers = append(s.closers, db.Close)

		bankDB := db
		if conf.Database.Engine == database.EnginePostgres && conf.Database.QuestionBankName() != conf.Database.Name {
			if bankDB, err = database.OpenQuestionBank(conf); err != nil {
				_ = s.Close()
				return nil, errors.Wrap(err, "setting up question bank")
			}
			s.closers = append(s.closers, bankDB.Close)
		}

		rs = repos{
			tx:        sqlxrepos.NewTransactor(db),
			users:     sqlxrepos.NewUserRepository(db),
			topics:    sqlxrepos.NewTopicRepository(db),
			planners:  sqlxrepos.NewPlannerRepository(db, conf.Location()),
			questions: sqlxrepos.NewQuestionBank(bankDB),
			solved:    sqlxrepos.NewSolvedQuestionRepository(db),
			quizzes:   sqlxrepos.NewQuizRepository(db),
		}
	}

	if conf.Debug {
		s.MailSvc = emailsvc.NewConsoleService(logger)
	} else {
		s.MailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	s.UserSvc = user.NewService(rs.users, conf.Location())
	s.PlannerSvc = planner.NewService(planner.Deps{
		Conf:      conf,
		Logger:    logger,
		Tx:        rs.tx,
		Users:     s.UserSvc,
		Topics:    rs.topics,
		Planners:  rs.planners,
		Questions: rs.questions,
		Solved:    rs.solved,
		MailSvc:   s.MailSvc,
	})
	s.QuizSvc = quiz.NewService(rs.quizzes, s.UserSvc, s.PlannerSvc, logger)
	return s, nil
}

// Close releases the database connections, returning the first error.
func (s *Stack) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

func setUpDB(conf *core.Config, migrate bool) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if migrate {
		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, conf.Database.Engine)
		}
	}
	return db, nil
}
