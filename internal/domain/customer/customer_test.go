package customer_test

import (
	"testing"
	"time"

	"underwriting-engine/internal/domain/customer"
	"underwriting-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	timeBefore := time.Now()

	cust, err := customer.NewCustomer(" Alice ", "Wonderland", 30, "(555) 010-2030", 50_000)
	timeAfter := time.Now()

	require.NoError(t, err)
	assert.Equal(t, "Alice", cust.FirstName)
	assert.Equal(t, "5550102030", cust.PhoneNumber)
	assert.Equal(t, 1_800_000.0, cust.ApprovedLimit)
	assert.Equal(t, int64(0), cust.CustomerID, "CustomerID is assigned by storage")
	assert.True(t, !cust.CreateDate.Before(timeBefore) && !cust.CreateDate.After(timeAfter))
	assert.Equal(t, "Alice Wonderland", cust.FullName())
}

func TestNewCustomer_Validation(t *testing.T) {
	tests := []struct {
		name   string
		first  string
		last   string
		age    int
		phone  string
		income float64
		field  string
	}{
		{"empty first name", " ", "B", 30, "1", 1, "firstName"},
		{"empty last name", "A", "", 30, "1", 1, "lastName"},
		{"minor", "A", "B", 17, "1", 1, "age"},
		{"empty phone", "A", "B", 30, " - ", 1, "phoneNumber"},
		{"zero income", "A", "B", 30, "1", 0, "monthlyIncome"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := customer.NewCustomer(tt.first, tt.last, tt.age, tt.phone, tt.income)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			var vErr *apperrors.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestApprovedLimitFor(t *testing.T) {
	assert.Equal(t, 0.0, customer.ApprovedLimitFor(0))
	assert.Equal(t, 0.0, customer.ApprovedLimitFor(2_000))
	assert.Equal(t, 100_000.0, customer.ApprovedLimitFor(2_800))
	assert.Equal(t, 1_800_000.0, customer.ApprovedLimitFor(50_000))
	assert.Equal(t, 1_800_000.0, customer.ApprovedLimitFor(52_000))
}
