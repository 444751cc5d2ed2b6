package loanmock

import (
	"context"
	"errors"
	"testing"

	domain "invoice-ledger/internal/domain/loan"
)

func TestRepo_Create(t *testing.T) {
	ctx := context.Background()
	l := &domain.Loan{ID: 1}

	called := false
	wantErr := errors.New("boom")
	m := &Repo{
		CreateFn: func(gotCtx context.Context, got *domain.Loan) error {
			called = true
			if gotCtx != ctx || got != l {
				t.Fatalf("Create args mismatch")
			}
			return wantErr
		},
	}
	if err := m.Create(ctx, l); !errors.Is(err, wantErr) {
		t.Fatalf("Create: want %v, got %v", wantErr, err)
	}
	if !called {
		t.Fatalf("CreateFn not called")
	}

	// Default (nil func) → no-op, nil error
	m = &Repo{}
	if err := m.Create(ctx, l); err != nil {
		t.Fatalf("Create default: want nil, got %v", err)
	}
}

func TestRepo_GetByIDForUpdate(t *testing.T) {
	ctx := context.Background()
	want := &domain.Loan{ID: 2}

	m := &Repo{
		GetByIDForUpdateFn: func(_ context.Context, id uint64) (*domain.Loan, error) {
			if id != 2 {
				t.Fatalf("id mismatch: got %d", id)
			}
			return want, nil
		},
	}
	got, err := m.GetByIDForUpdate(ctx, 2)
	if err != nil || got != want {
		t.Fatalf("GetByIDForUpdate: got %v, %v", got, err)
	}

	// Default → context.Canceled
	m = &Repo{}
	if _, err := m.GetByIDForUpdate(ctx, 2); !errors.Is(err, context.Canceled) {
		t.Fatalf("default: want context.Canceled, got %v", err)
	}
	if _, err := m.GetContribution(ctx, 2, "0xa"); !errors.Is(err, context.Canceled) {
		t.Fatalf("default contribution: want context.Canceled, got %v", err)
	}
}

func TestRepo_ListDefaults(t *testing.T) {
	m := &Repo{}
	ctx := context.Background()
	if got, err := m.List(ctx, domain.Filter{}); err != nil || got != nil {
		t.Fatalf("List default = %v, %v", got, err)
	}
	if n, err := m.Count(ctx); err != nil || n != 0 {
		t.Fatalf("Count default = %d, %v", n, err)
	}
}
