// Package ledgertest opens throwaway sqlite ledgers for usecase tests.
package ledgertest

import (
	"context"
	"testing"
	"time"

	"invoice-ledger/internal/adapter/repository/mysql"
	"invoice-ledger/internal/domain/access"
	"invoice-ledger/internal/domain/funds"
	"invoice-ledger/internal/domain/uow"
	"invoice-ledger/pkg/amount"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	RoleAdmin   = "0x000000000000000000000000000000000000a0a0"
	Admin       = "0x000000000000000000000000000000000000ad01"
	Attestor    = "0x000000000000000000000000000000000000a701"
	Oracle      = "0x0000000000000000000000000000000000000c01"
	Borrower    = "0x00000000000000000000000000000000000000b1"
	Lender1     = "0x00000000000000000000000000000000000000c1"
	Lender2     = "0x00000000000000000000000000000000000000c2"
	Stranger    = "0x00000000000000000000000000000000000000f1"
	Treasury    = "0x00000000000000000000000000000000000000ee"
	FeeReceiver = "0x00000000000000000000000000000000000000fe"
	Pool        = "0x0000000000000000000000000000000000000001"
)

// Epoch is the default test clock reading.
var Epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type Ledger struct {
	DB  *gorm.DB
	UoW *mysql.GormUoW
	uow.Repos
}

// Open returns a migrated in-memory ledger with the standard roles granted.
func Open(t *testing.T) *Ledger {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := mysql.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	l := &Ledger{DB: db, UoW: mysql.NewGormUoW(db), Repos: mysql.NewRepos(db)}
	l.Grant(t, RoleAdmin, access.RoleRoleAdmin)
	l.Grant(t, Admin, access.RoleAdmin)
	l.Grant(t, Attestor, access.RoleAttestor)
	l.Grant(t, Oracle, access.RoleOracle)
	return l
}

func (l *Ledger) Grant(t *testing.T, who string, role access.Role) {
	t.Helper()
	if err := l.Grants.Create(context.Background(), &access.Grant{Principal: who, Role: role, GrantedBy: RoleAdmin}); err != nil {
		t.Fatalf("grant %s to %s: %v", role, who, err)
	}
}

// Fund credits who with amt and approves spender for the same amount.
func (l *Ledger) Fund(t *testing.T, who, spender string, amt uint64) {
	t.Helper()
	ctx := context.Background()
	if err := funds.Credit(ctx, l.Funds, who, amount.New(amt)); err != nil {
		t.Fatalf("credit %s: %v", who, err)
	}
	if err := funds.Approve(ctx, l.Funds, who, spender, amount.New(amt)); err != nil {
		t.Fatalf("approve %s: %v", who, err)
	}
}

func (l *Ledger) Balance(t *testing.T, who string) string {
	t.Helper()
	b, err := l.Funds.GetBalance(context.Background(), who)
	if err != nil {
		t.Fatalf("balance %s: %v", who, err)
	}
	return b.Amount.String()
}

// Clock is a settable time source.
type Clock struct{ T time.Time }

func NewClock() *Clock                   { return &Clock{T: Epoch} }
func (c *Clock) Now() time.Time          { return c.T }
func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }
