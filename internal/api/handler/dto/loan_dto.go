package dto

import (
	"time"

	"underwriting-engine/internal/domain/underwriting"
)

// LoanApplicationRequest uses pointers so an omitted field is rejected
// instead of being read as zero.
type LoanApplicationRequest struct {
	PhoneNumber  string   `json:"phoneNumber" validate:"required"`
	LoanAmount   *float64 `json:"loanAmount" validate:"required,gt=0"`
	InterestRate *float64 `json:"interestRate" validate:"required,gte=0"`
	Tenure       *int     `json:"tenure" validate:"required,gt=0"`
}

func (r *LoanApplicationRequest) Validate() error {
	return validateStruct(r)
}

// ToApplication expects a request that passed Validate.
func (r *LoanApplicationRequest) ToApplication() underwriting.LoanApplication {
	return underwriting.LoanApplication{
		PhoneNumber:  r.PhoneNumber,
		Amount:       deref(r.LoanAmount),
		InterestRate: deref(r.InterestRate),
		TenureMonths: deref(r.Tenure),
	}
}

func deref[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

type OriginationResponse struct {
	LoanID             *int64   `json:"loanId"`
	CustomerID         int64    `json:"customerId"`
	LoanApproved       bool     `json:"loanApproved"`
	InterestRate       string   `json:"interestRate"`
	MonthlyInstallment *string  `json:"monthlyInstallment"`
	Message            string   `json:"message"`
	Reasons            []string `json:"reasons"`
}

func NewOriginationResponse(o *underwriting.Origination) OriginationResponse {
	resp := OriginationResponse{
		LoanID:       o.LoanID,
		CustomerID:   o.CustomerID,
		LoanApproved: o.Approved,
		InterestRate: formatRate(o.InterestRate),
		Reasons:      nonNil(o.Reasons),
	}
	if o.MonthlyInstallment != nil {
		s := formatMoney(*o.MonthlyInstallment)
		resp.MonthlyInstallment = &s
	}
	if o.Approved {
		resp.Message = "Loan approved"
	} else {
		resp.Message = "Loan not approved"
	}
	return resp
}

type ScoreComponentResponse struct {
	Name       string `json:"name"`
	Points     int    `json:"points"`
	MaxPoints  int    `json:"maxPoints"`
	Applicable bool   `json:"applicable"`
	Reason     string `json:"reason,omitempty"`
}

func newComponents(results []underwriting.ComponentResult) []ScoreComponentResponse {
	out := make([]ScoreComponentResponse, len(results))
	for i, c := range results {
		out[i] = ScoreComponentResponse(c)
	}
	return out
}

type EligibilityResponse struct {
	CustomerID            int64                    `json:"customerId"`
	CreditScore           int                      `json:"creditScore"`
	Approval              bool                     `json:"approval"`
	InterestRate          string                   `json:"interestRate"`
	CorrectedInterestRate *string                  `json:"correctedInterestRate"`
	Tenure                int                      `json:"tenure"`
	MonthlyInstallment    string                   `json:"monthlyInstallment"`
	Reasons               []string                 `json:"reasons"`
	Warnings              []string                 `json:"warnings"`
	Components            []ScoreComponentResponse `json:"components"`
}

func NewEligibilityResponse(r *underwriting.EligibilityReport) EligibilityResponse {
	resp := EligibilityResponse{
		CustomerID:         r.CustomerID,
		CreditScore:        r.CreditScore,
		Approval:           r.Approved,
		InterestRate:       formatRate(r.InterestRate),
		Tenure:             r.TenureMonths,
		MonthlyInstallment: formatMoney(r.MonthlyInstallment),
		Reasons:            nonNil(r.Reasons),
		Warnings:           nonNil(r.Warnings),
		Components:         newComponents(r.Components),
	}
	if r.CorrectedInterestRate != nil {
		s := formatRate(*r.CorrectedInterestRate)
		resp.CorrectedInterestRate = &s
	}
	return resp
}

type LoanListResponse struct {
	CustomerID int64            `json:"customerId"`
	Columns    []string         `json:"columns"`
	Loans      []map[string]any `json:"loans"`
}

func NewLoanListResponse(l *underwriting.LoanListing) LoanListResponse {
	return LoanListResponse{CustomerID: l.CustomerID, Columns: l.Columns, Loans: l.Loans}
}

type CreditScoreResponse struct {
	CustomerID int64                    `json:"customerId"`
	Score      int                      `json:"creditScore"`
	Components []ScoreComponentResponse `json:"components"`
	Warnings   []string                 `json:"warnings"`
	ComputedAt time.Time                `json:"computedAt"`
	Cached     bool                     `json:"cached"`
}

func NewCreditScoreResponse(s *underwriting.ScoreSnapshot) CreditScoreResponse {
	return CreditScoreResponse{
		CustomerID: s.CustomerID,
		Score:      s.Score,
		Components: newComponents(s.Components),
		Warnings:   nonNil(s.Warnings),
		ComputedAt: s.ComputedAt,
		Cached:     s.Cached,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
