// Package relay turns off-chain invoice status webhooks into oracle
// verifications.
package relay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"invoice-ledger/internal/domain/invoice"
	"invoice-ledger/pkg/errs"

	"github.com/sirupsen/logrus"
)

var (
	ErrMissingTokenID = errs.New(errs.ErrValidation, "tokenId is required")
	// ErrInvalidTokenID is a present but unusable id; the sender sees it as a failed verification.
	ErrInvalidTokenID = errors.New("invalid tokenId")
	ErrBadSignature   = errs.New(errs.ErrAuthorization, "webhook signature mismatch")
)

// Statuses that trigger a verification. Anything else is acknowledged and ignored.
var triggering = map[string]bool{"VERIFIED": true, "PAID": true}

type Verifier interface {
	VerifyByOracle(ctx context.Context, caller string, id uint64) (*invoice.Invoice, error)
}

// WebhookInput keeps tokenId raw; senders post numbers and strings alike.
type WebhookInput struct {
	TokenID json.RawMessage `json:"tokenId"`
	Status  string      `json:"status"`
}

type Result struct {
	Status    string `json:"status"`
	InvoiceID uint64 `json:"invoiceId,omitempty"`
}

type Usecase struct {
	verifier Verifier
	// relayer is the principal the relay acts as; it must hold the oracle role.
	relayer string
	secret  []byte
	log     logrus.FieldLogger
}

func NewUsecase(v Verifier, relayer, secret string, log logrus.FieldLogger) *Usecase {
	u := &Usecase{verifier: v, relayer: relayer, log: log}
	if secret != "" {
		u.secret = []byte(secret)
	}
	return u
}

// Authenticate checks the hex HMAC-SHA256 of body when a secret is configured.
func (u *Usecase) Authenticate(body []byte, signature string) error {
	if u.secret == nil {
		return nil
	}
	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	if err != nil || len(got) == 0 {
		return ErrBadSignature
	}
	mac := hmac.New(sha256.New, u.secret)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrBadSignature
	}
	return nil
}

func (u *Usecase) Handle(ctx context.Context, in WebhookInput) (*Result, error) {
	raw, ok := tokenText(in.TokenID)
	if !ok {
		return nil, ErrMissingTokenID
	}
	if !triggering[in.Status] {
		u.log.WithFields(logrus.Fields{"token_id": raw, "status": in.Status}).Debug("webhook ignored")
		return &Result{Status: "ignored"}, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		u.log.WithField("token_id", raw).Error("relay verification failed: unusable tokenId")
		return nil, fmt.Errorf("%w %q", ErrInvalidTokenID, raw)
	}

	if _, err := u.verifier.VerifyByOracle(ctx, u.relayer, id); err != nil {
		u.log.WithError(err).WithField("invoice_id", id).Error("relay verification failed")
		return nil, err
	}
	u.log.WithFields(logrus.Fields{"invoice_id": id, "status": in.Status}).Info("invoice verified by relay")
	return &Result{Status: "ok", InvoiceID: id}, nil
}

// tokenText returns the id as text, or false when it is absent, null, empty,
// false or numerically zero.
func tokenText(raw json.RawMessage) (string, bool) {
	s := strings.TrimSpace(string(raw))
	switch s {
	case "", "null", "false":
		return "", false
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return s, true
		}
		return str, str != ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == 0 {
		return "", false
	}
	return s, true
}

// Sign returns the hex signature Authenticate expects. Used by senders and tests.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
