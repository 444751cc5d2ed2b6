package http

import (
	"errors"
	"net/http"
	"strconv"

	"invoice-ledger/internal/adapter/middleware"
	"invoice-ledger/pkg/errs"

	"github.com/labstack/echo/v4"
)

// statusOf maps an error category to its HTTP status.
func statusOf(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrValidation:
		return http.StatusUnprocessableEntity
	case errs.ErrAuthorization:
		return http.StatusForbidden
	case errs.ErrNotFound:
		return http.StatusNotFound
	case errs.ErrState:
		return http.StatusConflict
	case errs.ErrTransfer:
		return http.StatusPaymentRequired
	}
	return http.StatusInternalServerError
}

// fail writes categorized errors directly and hands anything else to the
// echo error handler so that it is logged with the request.
func fail(c echo.Context, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		return echo.NewHTTPError(status, "internal error").SetInternal(err)
	}
	return c.JSON(status, ErrorResponse{Error: err.Error()})
}

// ErrorHandler renders echo errors in the ErrorResponse shape.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := http.StatusInternalServerError, "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(code)
		}
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, ErrorResponse{Error: msg})
}

// bind decodes and validates the request body into dst. It writes the
// 400/422 response itself and reports whether the handler should go on.
func bind(c echo.Context, dst any) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(dst); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func badID(c echo.Context, name string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name + " path param"})
}

func caller(c echo.Context) string { return middleware.Principal(c) }
