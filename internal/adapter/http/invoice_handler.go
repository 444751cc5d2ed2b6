package http

import (
	"net/http"

	"invoice-ledger/internal/usecase/invoice"

	"github.com/labstack/echo/v4"
)

type InvoiceHandler struct{ uc *invoice.Usecase }

func NewInvoiceHandler(uc *invoice.Usecase) *InvoiceHandler { return &InvoiceHandler{uc: uc} }

func (h *InvoiceHandler) Mint(c echo.Context) error {
	var req invoice.MintInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	inv, err := h.uc.Mint(c.Request().Context(), caller(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, inv)
}

// Verify records an attestor's verification.
func (h *InvoiceHandler) Verify(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	inv, err := h.uc.Verify(c.Request().Context(), caller(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *InvoiceHandler) VerifyByOracle(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	inv, err := h.uc.VerifyByOracle(c.Request().Context(), caller(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *InvoiceHandler) Transfer(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	var req invoice.TransferInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	inv, err := h.uc.Transfer(c.Request().Context(), caller(c), id, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *InvoiceHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	inv, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *InvoiceHandler) OwnerOf(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	owner, err := h.uc.OwnerOf(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"invoice_id": id, "owner": owner})
}

func (h *InvoiceHandler) List(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), c.QueryParam("owner"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InvoiceHandler) Events(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	out, err := h.uc.Events(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
