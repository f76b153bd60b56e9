package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/planner"
	"github.com/trezcool/revisa/core/quiz"
	"github.com/trezcool/revisa/core/user"
)

type (
	CreatePlannerRequest struct {
		NextWeek bool `json:"next_week"`
	}

	ProgressRequest struct {
		Topics []planner.NewTopic `json:"topics" validate:"required,min=1,dive"`
	}

	// DeleteTopicsRequest names the pending topics to remove; an empty list removes them all.
	DeleteTopicsRequest struct {
		Topics []string `json:"topics"`
	}

	DeleteTopicsResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Deleted int    `json:"deleted"`
	}

	PlannerResponse struct {
		Success bool             `json:"success"`
		Message string           `json:"message"`
		Planner *planner.Planner `json:"planner,omitempty"`
	}

	GetPlannerResponse struct {
		Success bool            `json:"success"`
		Data    planner.Planner `json:"data"`
	}

	QuizResponse struct {
		Success    bool      `json:"success"`
		Message    string    `json:"message"`
		WeeklyQuiz quiz.Quiz `json:"weekly_quiz"`
	}

	TopicsResponse struct {
		Success bool                    `json:"success"`
		Message string                  `json:"message,omitempty"`
		Topics  []planner.RevisionTopic `json:"topics"`
	}

	UserResponse struct {
		Success bool      `json:"success"`
		User    user.User `json:"user"`
	}
)

// bind decodes the request body (an empty body leaves data untouched).
func bind(ctx echo.Context, data interface{}, name string) error {
	if err := ctx.Bind(data); err != nil {
		if herr, ok := err.(*echo.HTTPError); ok {
			return core.NewValidationError(errors.Errorf("malformed %s: %v", name, herr.Message))
		}
		return errors.Wrap(err, "binding to "+name)
	}
	return nil
}

func (pr *ProgressRequest) Validate() error {
	for i := range pr.Topics {
		if err := pr.Topics[i].Validate(); err != nil {
			return err
		}
	}
	return core.Validate.Struct(pr)
}
