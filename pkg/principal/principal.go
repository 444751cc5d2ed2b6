// Package principal normalizes the account identifiers used for borrowers,
// lenders, role holders and system accounts.
package principal

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var ErrInvalid = errors.New("principal must be a 20-byte hex address")

// Normalize validates s and returns its canonical lowercase 0x form.
func Normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return "", ErrInvalid
	}
	return strings.ToLower(common.HexToAddress(s).Hex()), nil
}

// Valid reports whether s is an acceptable principal.
func Valid(s string) bool {
	return common.IsHexAddress(strings.TrimSpace(s))
}

// Must panics on invalid input. Intended for configuration defaults and tests.
func Must(s string) string {
	p, err := Normalize(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Same compares two principals after normalization.
func Same(a, b string) bool {
	na, errA := Normalize(a)
	nb, errB := Normalize(b)
	return errA == nil && errB == nil && na == nb
}
