package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"wealthbook/internal/dates"
	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/logger"
	"wealthbook/internal/middleware"
	"wealthbook/internal/uuid"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// getOwner returns the token subject, or "" on unauthenticated pipeline routes.
func getOwner(c *gin.Context) string {
	return middleware.Owner(c)
}

// parsePathID validates a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parsePathDate parses a YYYY-MM-DD path parameter.
func parsePathDate(c *gin.Context, param string) (time.Time, error) {
	d, err := dates.Parse(c.Param(param))
	if err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return d, nil
}

// parseQueryDate parses an optional date query parameter, returning def when absent.
func parseQueryDate(c *gin.Context, name string, def time.Time) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	d, err := dates.Parse(raw)
	if err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return d, nil
}

// parseDateRange reads from/to query parameters. The range defaults to the
// last year up to today.
func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	to, err := parseQueryDate(c, "to", dates.Today())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from, err := parseQueryDate(c, "from", dates.YearAgo(to))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "from must not be after to")
	}
	return from, to, nil
}

// parseBodyDate parses an optional date string from a request body, defaulting to today.
func parseBodyDate(s string) (time.Time, error) {
	if s == "" {
		return dates.Today(), nil
	}
	d, err := dates.Parse(s)
	if err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return d, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, ErrorResponse{Error: ErrorDetail{Code: appErr.Code, Message: appErr.Message}})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, ErrorResponse{Error: ErrorDetail{
		Code:    apperrors.ErrInternalServer.Code,
		Message: apperrors.ErrInternalServer.Message,
	}})
}

func bindError(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}
