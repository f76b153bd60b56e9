package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

var errNoSubscription = echo.NewHTTPError(http.StatusForbidden, "You don't have an active subscription or free trial")

// subscriberMiddleware only lets through students whose subscription (or free trial) grants `category` or higher.
func subscriberMiddleware(svc UserService, category string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if !usr.HasActiveSubscription() && !usr.FreeTrial.Active {
				return errNoSubscription
			}
			if !usr.HasCategory(category) {
				return echo.NewHTTPError(http.StatusForbidden, fmt.Sprintf("This feature requires a %s subscription or higher", category))
			}
			return next(ctx)
		}
	}
}
