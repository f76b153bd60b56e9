package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/revisa/core/planner"
)

type plannerApi struct {
	svc   PlannerService
	users UserService
}

func registerPlannerAPI(g *echo.Group, subscriber echo.MiddlewareFunc, svc PlannerService, users UserService) {
	api := plannerApi{svc: svc, users: users}

	pg := g.Group("/planner", subscriber)
	pg.GET("", api.retrieve)
	pg.POST("/create", api.create)
	pg.POST("/update-daily", api.updateDaily)
}

// Handlers

func (api *plannerApi) create(ctx echo.Context) error {
	var data CreatePlannerRequest
	if err := bind(ctx, &data, "CreatePlannerRequest"); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	p, err := api.svc.CreatePlanner(ctx.Request().Context(), usr.ID, planner.BuildOptions{NextWeek: data.NextWeek})
	if err != nil {
		return errors.Wrap(err, "creating planner")
	}
	return ctx.JSON(http.StatusOK, PlannerResponse{
		Success: true,
		Message: fmt.Sprintf("Planner created for %s - %s", p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02")),
		Planner: &p,
	})
}

func (api *plannerApi) updateDaily(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	res, err := api.svc.UpdateDailyPlanner(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "updating daily planner")
	}
	return ctx.JSON(http.StatusOK, PlannerResponse{
		Success: true,
		Message: fmt.Sprintf("Planner Updated for %s", res.Date.Format("2006-01-02")),
		Planner: &res.Planner,
	})
}

func (api *plannerApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	p, err := api.svc.GetPlanner(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting planner")
	}
	return ctx.JSON(http.StatusOK, GetPlannerResponse{Success: true, Data: p})
}
