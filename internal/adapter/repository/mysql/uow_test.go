package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"invoice-ledger/internal/domain/access"
	"invoice-ledger/internal/domain/event"
	"invoice-ledger/internal/domain/funds"
	"invoice-ledger/internal/domain/invoice"
	loanDomain "invoice-ledger/internal/domain/loan"
	"invoice-ledger/internal/domain/uow"
	"invoice-ledger/pkg/amount"

	"gorm.io/gorm"
)

func makeInvoice(owner string) *invoice.Invoice {
	return &invoice.Invoice{
		Owner:             owner,
		Amount:            amount.New(1000),
		DueDate:           time.Now().UTC().Add(14 * 24 * time.Hour),
		ExternalInvoiceID: "INV-1",
		MetadataURI:       "ipfs://meta",
	}
}

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)

	var invID uint64
	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		inv := makeInvoice(borrowerA)
		if err := r.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		l := makeLoan(borrowerA, inv.ID, 700)
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if err := inv.Lock(l.ID); err != nil {
			return err
		}
		invID = inv.ID
		if err := r.Invoices.Save(ctx, inv); err != nil {
			return err
		}
		return r.Events.Append(ctx, &event.Event{
			Subject: event.SubjectLoan, SubjectID: l.ID, Type: event.LoanRequested,
			Actor: borrowerA, Amount: l.Principal, CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	got, err := NewInvoiceRepository(db).GetByID(ctx, invID)
	if err != nil {
		t.Fatalf("invoice not visible after commit: %v", err)
	}
	if got.ActiveLoanID == nil {
		t.Fatalf("lock not persisted")
	}
	evs, err := NewEventRepository(db).ListBySubject(ctx, event.SubjectLoan, *got.ActiveLoanID)
	if err != nil || len(evs) != 1 || len(evs[0].EventID) != 32 {
		t.Fatalf("events = %+v, %v", evs, err)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)
	sentinel := errors.New("boom")

	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := funds.Credit(ctx, r.Funds, lender1, amount.New(10)); err != nil {
			return err
		}
		if err := r.Invoices.Create(ctx, makeInvoice(borrowerA)); err != nil {
			return err
		}
		return sentinel // force rollback
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("want sentinel, got %v", err)
	}

	b, err := NewFundsRepository(db).GetBalance(ctx, lender1)
	if err != nil || !b.Amount.IsZero() {
		t.Fatalf("balance after rollback = %+v, %v", b, err)
	}
	if _, err := NewInvoiceRepository(db).GetByID(ctx, 1); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected invoice absent after rollback, got %v", err)
	}
}

func TestGormUoW_WithinLoanTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)
	loans := NewLoanRepository(db)

	seed := makeLoan(borrowerA, 1, 700)
	if err := loans.Create(ctx, seed); err != nil {
		t.Fatalf("seed loan: %v", err)
	}

	if err := guow.WithinLoanTx(ctx, seed.ID, func(r uow.Repos, l *loanDomain.Loan) error {
		if l.ID != seed.ID || l.State != loanDomain.StateRequested {
			t.Fatalf("unexpected loan passed to fn: %+v", l)
		}
		if _, err := l.ApplyFunding(amount.New(700), time.Now().UTC()); err != nil {
			return err
		}
		return r.Loans.Save(ctx, l)
	}); err != nil {
		t.Fatalf("WithinLoanTx commit err: %v", err)
	}

	got, err := loans.GetByID(ctx, seed.ID)
	if err != nil {
		t.Fatalf("GetByID post-commit: %v", err)
	}
	if got.State != loanDomain.StateFunded || got.DueDate == nil {
		t.Fatalf("loan not funded: %+v", got)
	}

	sentinel := errors.New("stop")
	_ = guow.WithinLoanTx(ctx, seed.ID, func(r uow.Repos, l *loanDomain.Loan) error {
		l.State = loanDomain.StateRepaid
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		return sentinel
	})
	got, _ = loans.GetByID(ctx, seed.ID)
	if got.State != loanDomain.StateFunded {
		t.Fatalf("expected funded after rollback, got %s", got.State)
	}
}

func TestGormUoW_WithinLoanTx_LoanNotFound(t *testing.T) {
	guow := NewGormUoW(openTestDB(t))

	err := guow.WithinLoanTx(context.Background(), 42, func(uow.Repos, *loanDomain.Loan) error {
		t.Fatalf("callback should not be called when loan missing")
		return nil
	})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestFundsRepository_UpsertAndTransfer(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)
	treasury := "0x00000000000000000000000000000000000000ee"

	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := funds.Credit(ctx, r.Funds, lender1, amount.New(1000)); err != nil {
			return err
		}
		if err := funds.Approve(ctx, r.Funds, lender1, treasury, amount.New(400)); err != nil {
			return err
		}
		return funds.TransferFrom(ctx, r.Funds, treasury, lender1, treasury, amount.New(400))
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	repo := NewFundsRepository(db)
	l1, _ := repo.GetBalance(ctx, lender1)
	tr, _ := repo.GetBalance(ctx, treasury)
	al, _ := repo.GetAllowance(ctx, lender1, treasury)
	if l1.Amount.String() != "600" || tr.Amount.String() != "400" || !al.Amount.IsZero() {
		t.Fatalf("balances %s/%s allowance %s", l1.Amount, tr.Amount, al.Amount)
	}

	err = guow.WithinTx(ctx, func(r uow.Repos) error {
		return funds.TransferFrom(ctx, r.Funds, treasury, lender1, treasury, amount.New(1))
	})
	if !errors.Is(err, funds.ErrInsufficientAllowance) {
		t.Fatalf("want ErrInsufficientAllowance, got %v", err)
	}
}

func TestGrantRepository(t *testing.T) {
	repo := NewGrantRepository(openTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &access.Grant{Principal: lender1, Role: access.RoleAdmin, GrantedBy: borrowerA}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, &access.Grant{Principal: lender1, Role: access.RoleAdmin, GrantedBy: borrowerA}); err == nil {
		t.Fatalf("expected unique violation on duplicate grant")
	}
	if ok, err := repo.HasRole(ctx, lender1, access.RoleAdmin); err != nil || !ok {
		t.Fatalf("HasRole = %v, %v", ok, err)
	}
	if n, _ := repo.CountByRole(ctx, access.RoleAdmin); n != 1 {
		t.Fatalf("CountByRole = %d", n)
	}
	if ok, _ := repo.Delete(ctx, lender1, access.RoleAdmin); !ok {
		t.Fatalf("Delete reported no row")
	}
	if ok, _ := repo.Delete(ctx, lender1, access.RoleAdmin); ok {
		t.Fatalf("second Delete reported a row")
	}
	if gs, _ := repo.ListByPrincipal(ctx, lender1); len(gs) != 0 {
		t.Fatalf("grants left: %+v", gs)
	}
}

func TestPoolRepository(t *testing.T) {
	repo := NewPoolRepository(openTestDB(t))
	ctx := context.Background()

	d, err := repo.GetForUpdate(ctx, lender1)
	if err != nil || !d.Amount.IsZero() {
		t.Fatalf("GetForUpdate on empty = %+v, %v", d, err)
	}
	d.Amount = amount.New(5)
	if err := repo.Save(ctx, d); err != nil {
		t.Fatalf("Save: %v", err)
	}
	d.Amount = amount.New(9)
	if err := repo.Save(ctx, d); err != nil {
		t.Fatalf("Save upsert: %v", err)
	}
	all, err := repo.List(ctx)
	if err != nil || len(all) != 1 || all[0].Amount.String() != "9" {
		t.Fatalf("List = %+v, %v", all, err)
	}
}
