package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// HTTPErrorHandler renders every error returned by a handler or middleware.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := he.Message
		if s, ok := msg.(string); ok {
			msg = apperror.ErrorResponse{Error: s}
		} else if _, ok := msg.(error); ok {
			msg = apperror.ErrorResponse{Error: http.StatusText(he.Code)}
		}
		respond(c, he.Code, msg)
		return
	}

	appErr := toAppError(err)
	if appErr.Type == apperror.InternalError {
		logger.WithSource("http").
			WithError(err).
			WithField("method", c.Request().Method).
			WithField("path", c.Path()).
			Error(appErr.Message)
	}
	respond(c, appErr.StatusCode(), appErr.Body())
}

func respond(c echo.Context, code int, body interface{}) {
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		logger.WithSource("http").WithError(err).Warn("failed to write error response")
	}
}

func toAppError(err error) *apperror.AppError {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repositories.ErrPostNotFound):
		return apperror.NewNotFoundError("Not found.", err)
	case errors.Is(err, repositories.ErrUserNotFound):
		return apperror.NewNotFoundError("User not found.", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		// a row referenced a user or post deleted concurrently
		return apperror.NewNotFoundError("Not found.", err)
	default:
		return apperror.NewInternalError("unhandled error", err)
	}
}

func invalidPayload(err error) error {
	return apperror.NewValidationError("Invalid request payload", err)
}

// pathID parses the :id path parameter. Anything that is not a positive
// integer cannot name a post and is reported as not found.
func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.NewNotFoundError("Not found.", err)
	}
	return uint(id), nil
}

// optionalFile returns the uploaded file for field, or nil when the request
// carries none.
func optionalFile(c echo.Context, field string) (*multipart.FileHeader, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, apperror.NewFieldError(field, "The submitted data was not a file.")
	}
	return fh, nil
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
