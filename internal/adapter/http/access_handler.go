package http

import (
	"net/http"

	"invoice-ledger/internal/usecase/access"

	"github.com/labstack/echo/v4"
)

type AccessHandler struct{ uc *access.Usecase }

func NewAccessHandler(uc *access.Usecase) *AccessHandler { return &AccessHandler{uc: uc} }

func (h *AccessHandler) Grant(c echo.Context) error {
	var req access.GrantInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	out, err := h.uc.Grant(c.Request().Context(), caller(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AccessHandler) Revoke(c echo.Context) error {
	var req access.GrantInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	out, err := h.uc.Revoke(c.Request().Context(), caller(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AccessHandler) Roles(c echo.Context) error {
	out, err := h.uc.Roles(c.Request().Context(), c.Param("principal"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
