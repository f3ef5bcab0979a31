package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"underwriting-engine/internal/domain/loan"
	"underwriting-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const (
	insertLoanSQL = `
        INSERT INTO loans (id, customer_id, principal, tenure_months, interest_rate, monthly_payment, emis_paid_on_time, date_of_approval, end_date, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
        RETURNING created_at`

	selectLoansByCustomerSQL = `
        SELECT id, customer_id, principal, tenure_months, interest_rate, monthly_payment, emis_paid_on_time, date_of_approval, end_date, created_at
        FROM loans
        WHERE customer_id = $1
        ORDER BY date_of_approval ASC NULLS LAST, id ASC`

	loanExistsSQL = `SELECT EXISTS (SELECT 1 FROM loans WHERE id = $1)`
)

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	if db == nil {
		panic("DBPool cannot be nil for LoanRepository")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) CreateLoan(ctx context.Context, newLoan *loan.Loan) (*loan.Loan, error) {
	if newLoan == nil {
		return nil, fmt.Errorf("%w: loan cannot be nil", apperrors.ErrInvalidArgument)
	}

	created := *newLoan
	start := time.Now()
	err := r.db.QueryRow(ctx, insertLoanSQL,
		newLoan.ID, newLoan.CustomerID, newLoan.Principal, newLoan.TenureMonths, newLoan.InterestRate,
		newLoan.MonthlyPayment, newLoan.EMIsPaidOnTime, newLoan.ApprovalDate, newLoan.EndDate,
	).Scan(&created.CreatedAt)
	observeQuery("InsertLoan", start, err)

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) || errors.Is(translatedErr, apperrors.ErrNotFound) {
			r.logger.WarnContext(ctx, "Loan insert rejected by constraint", "loan_id", newLoan.ID, "error", translatedErr)
			return nil, translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert loan", "loan_id", newLoan.ID, "error", err)
		return nil, fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", created.ID, "customer_id", created.CustomerID)
	return &created, nil
}

func (r *LoanRepository) FindByCustomerID(ctx context.Context, customerID int64) ([]*loan.Loan, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, selectLoansByCustomerSQL, customerID)
	if err != nil {
		observeQuery("FindLoansByCustomerID", start, err)
		r.logger.ErrorContext(ctx, "Failed to query loans", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	loans := make([]*loan.Loan, 0)
	for rows.Next() {
		var l loan.Loan
		err := rows.Scan(
			&l.ID, &l.CustomerID, &l.Principal, &l.TenureMonths, &l.InterestRate,
			&l.MonthlyPayment, &l.EMIsPaidOnTime, &l.ApprovalDate, &l.EndDate, &l.CreatedAt,
		)
		if err != nil {
			observeQuery("FindLoansByCustomerID", start, err)
			r.logger.ErrorContext(ctx, "Failed to scan loan row", "customer_id", customerID, "error", err)
			return nil, fmt.Errorf("%w: failed to scan loan row: %w", apperrors.ErrDatabase, err)
		}
		loans = append(loans, &l)
	}

	err = rows.Err()
	observeQuery("FindLoansByCustomerID", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating loan rows", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return loans, nil
}

func (r *LoanRepository) ExistsByID(ctx context.Context, loanID int64) (bool, error) {
	start := time.Now()
	var exists bool
	err := r.db.QueryRow(ctx, loanExistsSQL, loanID).Scan(&exists)
	observeQuery("LoanExistsByID", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		r.logger.ErrorContext(ctx, "Failed to check loan id", "loan_id", loanID, "error", err)
		return false, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return exists, nil
}
