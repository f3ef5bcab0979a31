package loan

import (
	"testing"
	"time"

	"underwriting-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyInstallment(t *testing.T) {
	t.Run("should compute the annuity payment", func(t *testing.T) {
		payment, err := MonthlyInstallment(100_000, 12, 12)
		require.NoError(t, err)
		assert.InDelta(t, 8884.88, payment, 0.01)
	})

	t.Run("should never repay less than the principal", func(t *testing.T) {
		cases := []struct {
			principal float64
			rate      float64
			tenure    int
		}{
			{1_000, 0.5, 1},
			{50_000, 8, 24},
			{250_000, 12.5, 60},
			{1_000_000, 18, 240},
			{10, 99, 360},
		}
		for _, c := range cases {
			payment, err := MonthlyInstallment(c.principal, c.rate, c.tenure)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, payment*float64(c.tenure), c.principal)
		}
	})

	t.Run("should amortize linearly at zero rate", func(t *testing.T) {
		payment, err := MonthlyInstallment(120_000, 0, 12)
		require.NoError(t, err)
		assert.Equal(t, 10_000.0, payment)
	})

	t.Run("should reject invalid inputs", func(t *testing.T) {
		_, err := MonthlyInstallment(0, 10, 12)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

		_, err = MonthlyInstallment(1000, -1, 12)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

		_, err = MonthlyInstallment(1000, 10, 0)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	})
}

func TestNewLoan(t *testing.T) {
	t.Run("should error when inputs are invalid", func(t *testing.T) {
		l, err := NewLoan(1001, 1, -1, 12, 10, time.Now())
		assert.Error(t, err)
		assert.Nil(t, l)

		l, err = NewLoan(1001, 0, 1000, 12, 10, time.Now())
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
		assert.Nil(t, l)
	})

	t.Run("should create a loan with derived payment and dates", func(t *testing.T) {
		approvedAt := time.Date(2024, time.March, 15, 13, 45, 0, 0, time.UTC)
		l, err := NewLoan(4242, 7, 500_000, 24, 14, approvedAt)
		require.NoError(t, err)

		expectedPayment, _ := MonthlyInstallment(500_000, 14, 24)
		assert.Equal(t, int64(4242), l.ID)
		assert.Equal(t, int64(7), l.CustomerID)
		assert.Equal(t, expectedPayment, l.MonthlyPayment)
		assert.Equal(t, 0, l.EMIsPaidOnTime)
		require.NotNil(t, l.ApprovalDate)
		require.NotNil(t, l.EndDate)
		assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), *l.ApprovalDate)
		assert.Equal(t, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), *l.EndDate)
		assert.Equal(t, AddMonths(*l.ApprovalDate, 24), *l.EndDate)
	})
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		months   int
		expected time.Time
	}{
		{"plain", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), 3, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)},
		{"clamps to leap february", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"clamps to short month", time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2023, 4, 30, 0, 0, 0, 0, time.UTC)},
		{"crosses year", time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC), 3, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AddMonths(tt.start, tt.months))
		})
	}
}

func TestLoanIsActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.True(t, (&Loan{EndDate: &future}).IsActive(now))
	assert.False(t, (&Loan{EndDate: &past}).IsActive(now))
	assert.False(t, (&Loan{EndDate: &now}).IsActive(now), "end date equal to now is not active")
	assert.False(t, (&Loan{}).IsActive(now), "unknown end date is not active")
}
