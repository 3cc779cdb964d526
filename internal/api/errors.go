package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain"
)

// ErrorBoundary wraps every handler. A panic becomes an error, and every
// error that is not a client mistake is logged with the request it broke.
// Rendering is left to HTTPErrorHandler.
func ErrorBoundary(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
					logger.Error("Handler panicked",
						zap.String("method", c.Request().Method),
						zap.String("path", c.Path()),
						zap.Any("panic", r),
						zap.Stack("stack"))
				}
			}()

			err = next(c)
			if err == nil {
				return nil
			}

			var he *echo.HTTPError
			if errors.As(err, &he) {
				return err
			}
			status, _ := domain.ClientError(err)
			if status >= http.StatusInternalServerError {
				logger.Error("Request failed",
					zap.String("method", c.Request().Method),
					zap.String("path", c.Path()),
					zap.Error(err))
			}
			return err
		}
	}
}

// HTTPErrorHandler renders errors as {"error": ...}. Validation errors keep
// their message; every other failure gets a generic one.
func HTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status int
			msg    string
			he     *echo.HTTPError
		)
		if errors.As(err, &he) {
			status = he.Code
			msg = http.StatusText(status)
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			}
			if status >= http.StatusInternalServerError {
				msg = domain.InternalErrorMessage
			}
		} else {
			status, msg = domain.ClientError(err)
		}

		var respErr error
		if c.Request().Method == http.MethodHead {
			respErr = c.NoContent(status)
		} else {
			respErr = c.JSON(status, ErrorResponse{Error: msg})
		}
		if respErr != nil {
			logger.Debug("Failed to write error response", zap.Error(respErr))
		}
	}
}
