package customer

import (
	"context"
	"fmt"

	"underwriting-engine/internal/pkg/apperrors"
)

var (
	ErrNotFound = fmt.Errorf("customer %w", apperrors.ErrNotFound)

	ErrDuplicatePhone = fmt.Errorf("phone number %w", apperrors.ErrAlreadyExists)
)

type CustomerRepository interface {
	// Save inserts a new customer and assigns the next sequential ID.
	Save(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	FindByPhone(ctx context.Context, phoneNumber string) (*Customer, error)

	FindAll(ctx context.Context) ([]*Customer, error)
}
