package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type userApi struct {
	svc      UserService
	planners PlannerService
}

func registerUserAPI(g *echo.Group, svc UserService, planners PlannerService) {
	api := userApi{svc: svc, planners: planners}

	ug := g.Group("/users")
	ug.GET("/me", api.retrieve)
	ug.POST("/progress/save", api.saveProgress)
	ug.GET("/topics", api.pendingTopics)
	ug.DELETE("/topics", api.deleteTopics)
}

// Handlers

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, UserResponse{Success: true, User: usr})
}

// saveProgress records the topics the student studied; they feed the next planner updates.
func (api *userApi) saveProgress(ctx echo.Context) error {
	var data ProgressRequest
	if err := bind(ctx, &data, "ProgressRequest"); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	topics, err := api.planners.RecordTopics(ctx.Request().Context(), usr.ID, data.Topics)
	if err != nil {
		return errors.Wrap(err, "recording topics")
	}
	return ctx.JSON(http.StatusCreated, TopicsResponse{Success: true, Message: "Progress saved", Topics: topics})
}

func (api *userApi) pendingTopics(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	topics, err := api.planners.PendingTopics(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting pending topics")
	}
	return ctx.JSON(http.StatusOK, TopicsResponse{Success: true, Topics: topics})
}

func (api *userApi) deleteTopics(ctx echo.Context) error {
	var data DeleteTopicsRequest
	if err := bind(ctx, &data, "DeleteTopicsRequest"); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	n, err := api.planners.DeleteTopics(ctx.Request().Context(), usr.ID, data.Topics)
	if err != nil {
		return errors.Wrap(err, "deleting pending topics")
	}
	return ctx.JSON(http.StatusOK, DeleteTopicsResponse{Success: true, Message: fmt.Sprintf("Deleted %d topic(s)", n), Deleted: n})
}
