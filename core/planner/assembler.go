package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/revisa/core"
)

// maxDrawsPerTier bounds how many times a single difficulty tier is re-sampled for one topic.
const maxDrawsPerTier = 10

// QuestionAssembler draws practice questions per topic, walking difficulty tiers in order
// and skipping questions the student already solved.
type QuestionAssembler struct {
	bank     QuestionBank
	solved   SolvedQuestionRepository
	logger   core.Logger
	perTopic int
	tiers    []string
}

func NewQuestionAssembler(bank QuestionBank, solved SolvedQuestionRepository, logger core.Logger, perTopic int, tiers []string) *QuestionAssembler {
	return &QuestionAssembler{
		bank:     bank,
		solved:   solved,
		logger:   logger,
		perTopic: perTopic,
		tiers:    tiers,
	}
}

// AssembleQuestions returns up to perTopic unsolved questions for every topic, keyed by topic name.
// Every topic gets a key (possibly with no questions). On a retrieval failure the questions gathered
// so far are returned along with the first *RetrievalError; the caller decides whether to proceed.
func (a *QuestionAssembler) AssembleQuestions(ctx context.Context, studentID, weekday string, date time.Time, topics []RevisionTopic) (Questions, error) {
	result := make(Questions, len(topics))
	var firstErr error

	for _, rt := range topics {
		name := rt.Topic.Name
		if _, done := result[name]; done {
			continue
		}
		questions, err := a.forTopic(ctx, studentID, name)
		result[name] = questions
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
	}

	if a.logger != nil {
		a.logger.Debug(fmt.Sprintf("assembled questions for %d topic(s) on %s %s", len(result), weekday, date.Format(dateLayout)))
	}
	return result, firstErr
}

// forTopic accumulates sequentially: a tier is only re-sampled once the previous draw was fully inspected,
// so the remaining count is always exact.
func (a *QuestionAssembler) forTopic(ctx context.Context, studentID, topic string) ([]Question, error) {
	picked := make([]Question, 0, a.perTopic)
	remaining := a.perTopic
	bodies := make(map[string]struct{}, a.perTopic)
	drawn := make([]string, 0)

	for _, tier := range a.tiers {
		for draw := 0; remaining > 0 && draw < maxDrawsPerTier; draw++ {
			sample, err := a.bank.SampleQuestions(ctx, QuestionQuery{Topic: topic, Level: tier, ExcludeIDs: drawn}, remaining)
			if err != nil {
				return picked, newQuestionRetrievalError(topic, tier, err)
			}
			if len(sample) == 0 {
				break // tier exhausted
			}

			for _, q := range sample {
				drawn = append(drawn, q.ID)
				if remaining == 0 {
					break
				}
				if _, dup := bodies[q.Question]; dup {
					continue
				}
				solved, err := a.solved.IsSolved(ctx, studentID, q.Question)
				if err != nil {
					return picked, newQuestionRetrievalError(topic, tier, err)
				}
				if solved {
					continue
				}
				bodies[q.Question] = struct{}{}
				picked = append(picked, q)
				remaining--
			}
		}
		if remaining == 0 {
			break
		}
	}
	return picked, nil
}
