package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/planner"
	"github.com/trezcool/revisa/core/user"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errInvalidInput = "invalid input"
)

// ErrorResponse is the envelope of every failed request.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// domainErrorCode maps the domain outcomes that are not server errors to their HTTP status.
func domainErrorCode(err error) (int, bool) {
	switch err {
	case planner.ErrPreconditionFailed, planner.ErrNothingNew:
		return http.StatusBadRequest, true
	case planner.ErrNotFound, planner.ErrDayNotFound, user.ErrNotFound:
		return http.StatusNotFound, true
	case planner.ErrPlannerExists:
		return http.StatusConflict, true
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		resp := ErrorResponse{Success: false}
		var code int

		cause := errors.Cause(err)
		if c, ok := domainErrorCode(cause); ok {
			code = c
			resp.Message = cause.Error()
		} else {
			switch origErr := cause.(type) {
			case *echo.HTTPError:
				if origErr == middleware.ErrJWTMissing {
					code = http.StatusUnauthorized
					resp.Message = fmt.Sprint(origErr.Message)
					break
				}
				if origErr.Internal != nil {
					if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
						origErr = herr
					}
				}
				code = origErr.Code
				resp.Message = fmt.Sprint(origErr.Message)
			case validator.ValidationErrors:
				resp.Errors = make(map[string]string, len(origErr))
				for _, vErr := range origErr {
					resp.Errors[vErr.Field()] = vErr.Translate(core.Translator)
				}
				code = http.StatusBadRequest
				resp.Message = errInvalidInput
			case *core.ValidationError:
				if origErr.Fields != nil {
					resp.Errors = make(map[string]string, len(origErr.Fields))
					for _, fErr := range origErr.Fields {
						resp.Errors[fErr.Field] = fErr.Error
					}
					resp.Message = errInvalidInput
				} else {
					resp.Message = origErr.Error()
				}
				code = http.StatusBadRequest
			default: // any other error is a server error
				code = http.StatusInternalServerError
				resp.Message = http.StatusText(http.StatusInternalServerError)

				var usr user.User
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr.ID = claims.Subject
					usr.Name = claims.Name
					usr.Email = claims.Email
				}
				logger.Error(resp.Message, errors.Wrap(err, resp.Message), usr)

				if ctx.Echo().Debug {
					resp.Message = err.Error()
				}

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
