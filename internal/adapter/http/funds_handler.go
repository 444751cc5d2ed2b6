package http

import (
	"net/http"

	"invoice-ledger/internal/usecase/funds"

	"github.com/labstack/echo/v4"
)

type FundsHandler struct{ uc *funds.Usecase }

func NewFundsHandler(uc *funds.Usecase) *FundsHandler { return &FundsHandler{uc: uc} }

func (h *FundsHandler) Approve(c echo.Context) error {
	var req funds.ApproveInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	out, err := h.uc.Approve(c.Request().Context(), caller(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *FundsHandler) Mint(c echo.Context) error {
	var req funds.MintInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	out, err := h.uc.Mint(c.Request().Context(), caller(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *FundsHandler) Balance(c echo.Context) error {
	out, err := h.uc.Balance(c.Request().Context(), c.Param("account"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *FundsHandler) Allowance(c echo.Context) error {
	out, err := h.uc.Allowance(c.Request().Context(), c.Param("owner"), c.Param("spender"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
