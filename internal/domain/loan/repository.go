package loan

import (
	"context"
)

type Repository interface {
	// CreateLoan inserts the loan under its preassigned ID. A duplicate ID
	// yields apperrors.ErrAlreadyExists.
	CreateLoan(ctx context.Context, loan *Loan) (*Loan, error)

	FindByCustomerID(ctx context.Context, customerID int64) ([]*Loan, error)

	ExistsByID(ctx context.Context, loanID int64) (bool, error)
}
