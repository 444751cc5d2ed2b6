// Package amount provides the unsigned 256-bit token quantity used for every
// balance, principal and payout in the ledger.
package amount

import (
	"bytes"
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"invoice-ledger/pkg/errs"

	"github.com/holiman/uint256"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// BasisPoints is the denominator for every bps-based ratio.
const BasisPoints = 10_000

var (
	ErrInvalid = errors.New("amount must be a non-negative base-10 integer")
	// ErrTooWide is returned on write when the column cannot hold the value.
	ErrTooWide = errs.New(errs.ErrValidation, "amount exceeds the storage column precision")
)

// maxDecimal65 is the largest value a MySQL DECIMAL(65,0) column holds.
var maxDecimal65 = MustParse(strings.Repeat("9", 65))

// Amount is a value type; the zero value is 0.
type Amount struct{ v uint256.Int }

func Zero() Amount { return Amount{} }

func New(u uint64) Amount {
	var a Amount
	a.v.SetUint64(u)
	return a
}

// Parse reads a base-10 unsigned integer without sign, exponent or fraction.
func Parse(s string) (Amount, error) {
	if s == "" || len(s) > 78 {
		return Amount{}, ErrInvalid
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return Amount{}, ErrInvalid
		}
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Amount{}, ErrInvalid
	}
	return Amount{v: *v}, nil
}

// MustParse panics on malformed input; intended for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("amount: %q: %v", s, err))
	}
	return a
}

func (a Amount) IsZero() bool     { return a.v.IsZero() }
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }
func (a Amount) Equal(b Amount) bool {
	return a.v.Eq(&b.v)
}
func (a Amount) String() string { return a.v.Dec() }

// Add returns a+b and whether the sum overflowed 256 bits.
func (a Amount) Add(b Amount) (Amount, bool) {
	var out Amount
	_, overflow := out.v.AddOverflow(&a.v, &b.v)
	return out, overflow
}

// Sub returns a-b and whether it underflowed.
func (a Amount) Sub(b Amount) (Amount, bool) {
	var out Amount
	_, underflow := out.v.SubOverflow(&a.v, &b.v)
	return out, underflow
}

// MulDiv returns floor(a*num/den). ok is false when den is zero or the
// result does not fit in 256 bits.
func (a Amount) MulDiv(num, den Amount) (Amount, bool) {
	if den.IsZero() {
		return Amount{}, false
	}
	var out Amount
	if _, overflow := out.v.MulDivOverflow(&a.v, &num.v, &den.v); !overflow {
		return out, true
	}
	// The product exceeded 256 bits; the quotient may still fit.
	q := new(big.Int).Mul(a.v.ToBig(), num.v.ToBig())
	q.Quo(q, den.v.ToBig())
	v, overflow := uint256.FromBig(q)
	if overflow {
		return Amount{}, false
	}
	return Amount{v: *v}, true
}

// Bps returns floor(a*bps/10000).
func (a Amount) Bps(bps uint32) Amount {
	out, _ := a.MulDiv(New(uint64(bps)), New(BasisPoints))
	return out
}

// Sum adds all values, reporting overflow.
func Sum(values ...Amount) (Amount, bool) {
	var total Amount
	for _, v := range values {
		var overflow bool
		total, overflow = total.Add(v)
		if overflow {
			return Amount{}, true
		}
	}
	return total, false
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

// UnmarshalJSON accepts a decimal string or a bare integer literal.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = Amount{}
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return ErrInvalid
		}
		s = unq
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value stores amounts as decimal text so no dialect loses precision.
func (a Amount) Value() (driver.Value, error) { return a.String(), nil }

func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case []byte:
		return a.scanString(string(v))
	case string:
		return a.scanString(v)
	case int64:
		if v < 0 {
			return ErrInvalid
		}
		*a = New(uint64(v))
		return nil
	default:
		return fmt.Errorf("amount: unsupported scan type %T", src)
	}
}

func (a *Amount) scanString(s string) error {
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// GormDBDataType picks an exact column type per dialect.
func (Amount) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "DECIMAL(65,0)"
	case "postgres":
		return "NUMERIC(78,0)"
	default:
		return "TEXT"
	}
}

// GormValue binds the decimal text and fails the statement when the
// dialect's column is narrower than 256 bits.
func (a Amount) GormValue(_ context.Context, db *gorm.DB) clause.Expr {
	if db.Dialector != nil && db.Dialector.Name() == "mysql" && a.Cmp(maxDecimal65) > 0 {
		_ = db.AddError(fmt.Errorf("%w: %d digits, mysql keeps 65", ErrTooWide, len(a.String())))
	}
	return clause.Expr{SQL: "?", Vars: []any{a.String()}}
}

// Float64 is lossy; use it only for metrics.
func (a Amount) Float64() float64 {
	f, _ := new(big.Float).SetInt(a.v.ToBig()).Float64()
	return f
}
