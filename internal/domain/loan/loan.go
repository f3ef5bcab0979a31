package loan

import (
	"fmt"
	"math"
	"time"

	"underwriting-engine/internal/pkg/apperrors"
)

type Loan struct {
	ID             int64
	CustomerID     int64
	Principal      float64
	TenureMonths   int
	InterestRate   float64
	MonthlyPayment float64
	EMIsPaidOnTime int
	// ApprovalDate and EndDate are nil when the stored value could not be
	// parsed; such loans are skipped by date-dependent calculations.
	ApprovalDate *time.Time
	EndDate      *time.Time
	CreatedAt    time.Time
}

// NewLoan builds an approved loan starting at approvedAt. The monthly
// payment is always derived from principal, rate and tenure.
func NewLoan(id, customerID int64, principal float64, tenureMonths int, annualRate float64, approvedAt time.Time) (*Loan, error) {
	if customerID <= 0 {
		return nil, fmt.Errorf("%w: customer id must be positive", apperrors.ErrInvalidArgument)
	}
	payment, err := MonthlyInstallment(principal, annualRate, tenureMonths)
	if err != nil {
		return nil, err
	}
	if approvedAt.IsZero() {
		approvedAt = time.Now()
	}
	y, m, d := approvedAt.UTC().Date()
	approval := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	end := AddMonths(approval, tenureMonths)

	return &Loan{
		ID:             id,
		CustomerID:     customerID,
		Principal:      principal,
		TenureMonths:   tenureMonths,
		InterestRate:   annualRate,
		MonthlyPayment: payment,
		EMIsPaidOnTime: 0,
		ApprovalDate:   &approval,
		EndDate:        &end,
	}, nil
}

// IsActive reports whether the loan's end date is strictly after now.
func (l *Loan) IsActive(now time.Time) bool {
	return l.EndDate != nil && l.EndDate.After(now)
}

// MonthlyInstallment returns the fixed annuity payment for the loan terms.
// A zero rate amortizes linearly.
func MonthlyInstallment(principal, annualRate float64, tenureMonths int) (float64, error) {
	if principal <= 0 {
		return 0, fmt.Errorf("%w: principal must be greater than zero", apperrors.ErrInvalidArgument)
	}
	if tenureMonths <= 0 {
		return 0, fmt.Errorf("%w: tenure must be a positive number of months", apperrors.ErrInvalidArgument)
	}
	if annualRate < 0 || math.IsNaN(annualRate) || math.IsInf(annualRate, 0) {
		return 0, fmt.Errorf("%w: interest rate must be non-negative", apperrors.ErrInvalidArgument)
	}
	if annualRate == 0 {
		return principal / float64(tenureMonths), nil
	}

	r := annualRate / 12 / 100
	n := float64(tenureMonths)
	return principal * r / (1 - math.Pow(1+r, -n)), nil
}

// AddMonths adds n calendar months, clamping the day to the last day of the
// target month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return firstOfTarget.AddDate(0, 0, day-1)
}
