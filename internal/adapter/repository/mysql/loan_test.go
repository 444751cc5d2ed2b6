package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "invoice-ledger/internal/domain/loan"
	"invoice-ledger/pkg/amount"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB creates an in-memory sqlite DB with the full ledger schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// one connection, or every new one sees an empty in-memory database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

const (
	borrowerA = "0x00000000000000000000000000000000000000b1"
	borrowerB = "0x00000000000000000000000000000000000000b2"
	lender1   = "0x00000000000000000000000000000000000000c1"
	lender2   = "0x00000000000000000000000000000000000000c2"
)

func makeLoan(borrower string, invoiceID uint64, principal uint64) *domain.Loan {
	return &domain.Loan{
		Borrower:            borrower,
		CollateralInvoiceID: invoiceID,
		Principal:           amount.New(principal),
		InterestBps:         500,
		DurationDays:        14,
		State:               domain.StateRequested,
		StateUpdatedAt:      time.Now().UTC(),
	}
}

func TestCreateAndGetByID(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	l := makeLoan(borrowerA, 1, 700)
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.ID == 0 {
		t.Fatalf("Create did not set auto-increment ID")
	}

	got, err := repo.GetByID(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Borrower != borrowerA || !got.Principal.Equal(amount.New(700)) || !got.TotalFunded.IsZero() {
		t.Errorf("unexpected loan: %+v", got)
	}
}

func TestSaveUpdates_LargeAmounts(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	l := makeLoan(borrowerA, 1, 1)
	l.Principal = amount.MustParse("700000000000000000000000")
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}

	due := time.Now().UTC().Add(14 * 24 * time.Hour)
	l.TotalFunded = l.Principal
	l.State = domain.StateFunded
	l.DueDate = &due
	if err := repo.Save(ctx, l); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByIDForUpdate(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetByIDForUpdate: %v", err)
	}
	if got.TotalFunded.String() != "700000000000000000000000" || got.State != domain.StateFunded {
		t.Errorf("not updated: %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("due date = %v, want %v", got.DueDate, due)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := NewLoanRepository(openTestDB(t))
	_, err := repo.GetByID(context.Background(), 99)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestContributions(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	l := makeLoan(borrowerA, 1, 700)
	if err := repo.Create(ctx, l); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.GetContribution(ctx, l.ID, lender1); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	for _, c := range []*domain.Contribution{
		{LoanID: l.ID, Lender: lender2, Amount: amount.New(300)},
		{LoanID: l.ID, Lender: lender1, Amount: amount.New(100)},
	} {
		if err := repo.SaveContribution(ctx, c); err != nil {
			t.Fatalf("SaveContribution: %v", err)
		}
	}

	c, err := repo.GetContribution(ctx, l.ID, lender1)
	if err != nil {
		t.Fatalf("GetContribution: %v", err)
	}
	c.Amount, _ = c.Amount.Add(amount.New(300))
	if err := repo.SaveContribution(ctx, c); err != nil {
		t.Fatalf("accumulate: %v", err)
	}

	// a second row for the same lender violates the unique index
	dup := &domain.Contribution{LoanID: l.ID, Lender: lender1, Amount: amount.New(1)}
	if err := repo.SaveContribution(ctx, dup); err == nil {
		t.Fatalf("expected unique violation")
	}

	list, err := repo.ListContributions(ctx, l.ID)
	if err != nil {
		t.Fatalf("ListContributions: %v", err)
	}
	if len(list) != 2 || list[0].Lender != lender2 || list[1].Lender != lender1 {
		t.Fatalf("want funding order, got %+v", list)
	}
	if list[1].Amount.String() != "400" {
		t.Fatalf("accumulated amount = %s", list[1].Amount)
	}

	byLender, err := repo.ListContributionsByLender(ctx, lender1)
	if err != nil || len(byLender) != 1 {
		t.Fatalf("ListContributionsByLender: %v %+v", err, byLender)
	}
}

func TestListFiltersAndCount(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	a := makeLoan(borrowerA, 1, 100)
	b := makeLoan(borrowerB, 2, 100)
	b.State = domain.StateFunding
	for _, l := range []*domain.Loan{a, b} {
		if err := repo.Create(ctx, l); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.SaveContribution(ctx, &domain.Contribution{LoanID: b.ID, Lender: lender1, Amount: amount.New(5)}); err != nil {
		t.Fatal(err)
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	cases := []struct {
		f    domain.Filter
		want []uint64
	}{
		{domain.Filter{}, []uint64{a.ID, b.ID}},
		{domain.Filter{Borrower: borrowerA}, []uint64{a.ID}},
		{domain.Filter{State: domain.StateFunding}, []uint64{b.ID}},
		{domain.Filter{Lender: lender1}, []uint64{b.ID}},
		{domain.Filter{Lender: lender2}, nil},
	}
	for _, tc := range cases {
		got, err := repo.List(ctx, tc.f)
		if err != nil {
			t.Fatalf("List(%+v): %v", tc.f, err)
		}
		var ids []uint64
		for _, l := range got {
			ids = append(ids, l.ID)
		}
		if len(ids) != len(tc.want) {
			t.Fatalf("List(%+v) = %v, want %v", tc.f, ids, tc.want)
		}
		for i := range ids {
			if ids[i] != tc.want[i] {
				t.Fatalf("List(%+v) = %v, want %v", tc.f, ids, tc.want)
			}
		}
	}
}

func TestListOverdue(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	past, future := now.Add(-time.Hour), now.Add(time.Hour)
	overdue := makeLoan(borrowerA, 1, 100)
	overdue.State, overdue.DueDate = domain.StateFunded, &past
	current := makeLoan(borrowerA, 2, 100)
	current.State, current.DueDate = domain.StateFunded, &future
	repaid := makeLoan(borrowerA, 3, 100)
	repaid.State, repaid.DueDate = domain.StateRepaid, &past
	for _, l := range []*domain.Loan{overdue, current, repaid} {
		if err := repo.Create(ctx, l); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.ListOverdue(ctx, now)
	if err != nil {
		t.Fatalf("ListOverdue: %v", err)
	}
	if len(got) != 1 || got[0].ID != overdue.ID {
		t.Fatalf("ListOverdue = %+v", got)
	}
}

type ctxKey struct{}

func TestList_LenderSubqueryCarriesContext(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)

	var seen any
	err := db.Callback().Query().Before("gorm:query").Register("test:subquery_ctx", func(tx *gorm.DB) {
		if tx.Statement.Table == "loan_contributions" {
			seen = tx.Statement.Context.Value(ctxKey{})
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
	if _, err := repo.List(ctx, domain.Filter{Lender: lender1}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if seen != "req-1" {
		t.Fatalf("lender subquery ran without the request context, saw %v", seen)
	}
}
