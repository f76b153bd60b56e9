package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type quizApi struct {
	svc   QuizService
	users UserService
}

func registerQuizAPI(g *echo.Group, subscriber echo.MiddlewareFunc, svc QuizService, users UserService) {
	api := quizApi{svc: svc, users: users}

	qg := g.Group("/quiz", subscriber)
	qg.POST("/weekly", api.createWeekly)
}

func (api *quizApi) createWeekly(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	q, err := api.svc.CreateWeeklyQuiz(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "creating weekly quiz")
	}
	return ctx.JSON(http.StatusOK, QuizResponse{
		Success:    true,
		Message:    "Weekly quiz created successfully!",
		WeeklyQuiz: q,
	})
}
