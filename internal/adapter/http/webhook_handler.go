package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"invoice-ledger/internal/usecase/relay"

	"github.com/labstack/echo/v4"
)

const signatureHeader = "X-Webhook-Signature"

// WebhookHandler serves the status relay. Its responses follow the relay
// contract rather than the ledger's error mapping.
type WebhookHandler struct{ uc *relay.Usecase }

func NewWebhookHandler(uc *relay.Usecase) *WebhookHandler { return &WebhookHandler{uc: uc} }

func (h *WebhookHandler) Verify(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
	}
	if err := h.uc.Authenticate(body, c.Request().Header.Get(signatureHeader)); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}

	var in relay.WebhookInput
	if err := json.Unmarshal(body, &in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
	}
	res, err := h.uc.Handle(c.Request().Context(), in)
	switch {
	case errors.Is(err, relay.ErrMissingTokenID):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, res)
}
