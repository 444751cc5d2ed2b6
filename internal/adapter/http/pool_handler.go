package http

import (
	"net/http"

	"invoice-ledger/internal/usecase/pool"

	"github.com/labstack/echo/v4"
)

type PoolHandler struct{ uc *pool.Usecase }

func NewPoolHandler(uc *pool.Usecase) *PoolHandler { return &PoolHandler{uc: uc} }

func (h *PoolHandler) Deposit(c echo.Context) error {
	var req pool.DepositInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	out, err := h.uc.Deposit(c.Request().Context(), caller(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PoolHandler) FundLoan(c echo.Context) error {
	var req pool.FundLoanInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	out, err := h.uc.FundLoan(c.Request().Context(), caller(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PoolHandler) Summary(c echo.Context) error {
	out, err := h.uc.Summary(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PoolHandler) Events(c echo.Context) error {
	out, err := h.uc.Events(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
