package customer

import (
	"math"
	"strings"
	"time"

	"underwriting-engine/internal/pkg/apperrors"
)

const (
	MinimumAge = 18

	// The approved limit is LimitIncomeMultiplier times the monthly income,
	// rounded down to a whole LimitRoundingUnit.
	LimitIncomeMultiplier = 36
	LimitRoundingUnit     = 100_000
)

type Customer struct {
	CustomerID    int64     `json:"customerId"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Age           int       `json:"age"`
	PhoneNumber   string    `json:"phoneNumber"`
	MonthlyIncome float64   `json:"monthlyIncome"`
	ApprovedLimit float64   `json:"approvedLimit"`
	CreateDate    time.Time `json:"createDate"`
}

func NewCustomer(firstName, lastName string, age int, phoneNumber string, monthlyIncome float64) (*Customer, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	phoneNumber = NormalizePhone(phoneNumber)

	switch {
	case firstName == "":
		return nil, apperrors.NewValidationError("firstName", "first name cannot be empty")
	case lastName == "":
		return nil, apperrors.NewValidationError("lastName", "last name cannot be empty")
	case age < MinimumAge:
		return nil, apperrors.NewValidationError("age", "customer must be at least 18 years old")
	case phoneNumber == "":
		return nil, apperrors.NewValidationError("phoneNumber", "phone number cannot be empty")
	case monthlyIncome <= 0:
		return nil, apperrors.NewValidationError("monthlyIncome", "monthly income must be greater than zero")
	}

	return &Customer{
		FirstName:     firstName,
		LastName:      lastName,
		Age:           age,
		PhoneNumber:   phoneNumber,
		MonthlyIncome: monthlyIncome,
		ApprovedLimit: ApprovedLimitFor(monthlyIncome),
		CreateDate:    time.Now(),
	}, nil
}

func ApprovedLimitFor(monthlyIncome float64) float64 {
	if monthlyIncome <= 0 {
		return 0
	}
	return math.Floor(LimitIncomeMultiplier*monthlyIncome/LimitRoundingUnit) * LimitRoundingUnit
}

// NormalizePhone strips whitespace and common separators so that lookups
// match regardless of how the number was typed.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
