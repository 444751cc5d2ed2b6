package mysql

import (
	"context"
	"time"

	loanDomain "invoice-ledger/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).First(&out, id)
	return &out, res.Error
}

func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&out, id)
	return &out, res.Error
}

func (r *LoanRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).Count(&n).Error
	return n, err
}

func (r *LoanRepository) List(ctx context.Context, f loanDomain.Filter) ([]loanDomain.Loan, error) {
	db := r.db.WithContext(ctx)
	q := db.Model(&loanDomain.Loan{})
	if f.Borrower != "" {
		q = q.Where("borrower = ?", f.Borrower)
	}
	if f.State != "" {
		q = q.Where("state = ?", f.State)
	}
	if f.Lender != "" {
		q = q.Where("id IN (?)", db.Model(&loanDomain.Contribution{}).
			Select("loan_id").Where("lender = ?", f.Lender))
	}
	var out []loanDomain.Loan
	err := q.Order("id ASC").Find(&out).Error
	return out, err
}

// ListOverdue returns funded loans whose due date is strictly before now.
func (r *LoanRepository) ListOverdue(ctx context.Context, now time.Time) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("state = ? AND due_date < ?", loanDomain.StateFunded, now).
		Order("due_date ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) GetContribution(ctx context.Context, loanID uint64, lender string) (*loanDomain.Contribution, error) {
	var out loanDomain.Contribution
	res := r.db.WithContext(ctx).
		Where("loan_id = ? AND lender = ?", loanID, lender).
		First(&out)
	return &out, res.Error
}

func (r *LoanRepository) SaveContribution(ctx context.Context, c *loanDomain.Contribution) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *LoanRepository) ListContributions(ctx context.Context, loanID uint64) ([]loanDomain.Contribution, error) {
	var out []loanDomain.Contribution
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) ListContributionsByLender(ctx context.Context, lender string) ([]loanDomain.Contribution, error) {
	var out []loanDomain.Contribution
	err := r.db.WithContext(ctx).
		Where("lender = ?", lender).
		Order("loan_id ASC").
		Find(&out).Error
	return out, err
}
