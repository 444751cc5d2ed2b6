package http

import (
	"net/http"
	"time"

	"invoice-ledger/internal/usecase/stats"

	"github.com/labstack/echo/v4"
)

type Handler struct{ stats *stats.Usecase }

func NewHandler(st *stats.Usecase) *Handler { return &Handler{stats: st} }

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) Stats(c echo.Context) error {
	out, err := h.stats.Global(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
