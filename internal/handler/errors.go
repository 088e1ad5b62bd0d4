package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders every error that reaches Echo as JSON. Unknown routes
// and methods become a 404 listing the available endpoints; anything that is
// not an *echo.HTTPError (including recovered panics) becomes a generic 500.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	logger = logger.With("component", "error_handler")

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		req := c.Request()
		status := http.StatusInternalServerError
		var body any = map[string]string{"error": "Internal server error"}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			switch he.Code {
			case http.StatusNotFound, http.StatusMethodNotAllowed:
				status = http.StatusNotFound
				body = map[string]any{
					"error":              "Not found",
					"message":            fmt.Sprintf("No endpoint matches %s %s", req.Method, req.URL.Path),
					"availableEndpoints": AvailableEndpoints,
				}
			case http.StatusInternalServerError:
				// keep the generic body
			default:
				status = he.Code
				body = map[string]string{"error": fmt.Sprint(he.Message)}
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error("unhandled error",
				"err", err,
				"method", req.Method,
				"path", req.URL.Path,
			)
		}

		var werr error
		if req.Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.Error("writing error response", "err", werr)
		}
	}
}
