package underwriting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"underwriting-engine/internal/domain/loan"
)

const (
	ReasonRateFloor12    = "You are only eligible for interest rates above 12%"
	ReasonRateFloor16    = "You are only eligible for interest rates above 16%"
	ReasonScoreTooLow    = "Your credit score is too low."
	ReasonAffordability  = "Sum of all your EMIs exceeds 50% of your monthly salary."
	reasonNoHistoryLimit = "Since you have no credit history, you are not eligible for loans exceeding amount %s."
	reasonNoHistoryRate  = "Since you have no credit history, you are not eligible for loans with Interest Rates less than %s%%."

	DefaultAffordabilityRatio = 0.5
	DefaultNoHistoryMaxAmount = 1_000_000
	DefaultNoHistoryMinRate   = 12.0
)

type Eligibility struct {
	Approved bool
	// CorrectedRate is the lowest rate the score permits, never below the
	// proposed rate. It is nil when the score is too low for any rate.
	CorrectedRate *float64
	Reasons       []string
}

// ResolveEligibility applies the score tiers to a proposed annual rate.
func ResolveEligibility(score int, proposedRate float64) Eligibility {
	switch {
	case score > 50:
		rate := proposedRate
		return Eligibility{Approved: true, CorrectedRate: &rate, Reasons: []string{}}
	case score > 30:
		return applyFloor(proposedRate, 12, ReasonRateFloor12)
	case score > 10:
		return applyFloor(proposedRate, 16, ReasonRateFloor16)
	default:
		return Eligibility{Approved: false, Reasons: []string{ReasonScoreTooLow}}
	}
}

func applyFloor(proposed, floor float64, reason string) Eligibility {
	rate := max(proposed, floor)
	if proposed < floor {
		return Eligibility{Approved: false, CorrectedRate: &rate, Reasons: []string{reason}}
	}
	return Eligibility{Approved: true, CorrectedRate: &rate, Reasons: []string{}}
}

// ExceedsAffordability reports whether the active loans' installments plus
// the candidate installment are more than half of the monthly income.
func ExceedsAffordability(monthlyIncome float64, loans []*loan.Loan, candidate float64, now time.Time) bool {
	return exceedsAffordability(DefaultAffordabilityRatio, monthlyIncome, loans, candidate, now)
}

func exceedsAffordability(ratio, monthlyIncome float64, loans []*loan.Loan, candidate float64, now time.Time) bool {
	total := candidate
	for _, l := range loans {
		if l != nil && l.IsActive(now) {
			total += l.MonthlyPayment
		}
	}
	return total > monthlyIncome*ratio
}

// Policy holds the tunable limits of origination.
type Policy struct {
	AffordabilityRatio float64
	NoHistoryMaxAmount float64
	NoHistoryMinRate   float64
}

func DefaultPolicy() Policy {
	return Policy{
		AffordabilityRatio: DefaultAffordabilityRatio,
		NoHistoryMaxAmount: DefaultNoHistoryMaxAmount,
		NoHistoryMinRate:   DefaultNoHistoryMinRate,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.AffordabilityRatio <= 0 {
		p.AffordabilityRatio = d.AffordabilityRatio
	}
	if p.NoHistoryMaxAmount <= 0 {
		p.NoHistoryMaxAmount = d.NoHistoryMaxAmount
	}
	if p.NoHistoryMinRate <= 0 {
		p.NoHistoryMinRate = d.NoHistoryMinRate
	}
	return p
}

// noHistoryReasons returns the rejection reasons for a first-time borrower.
func (p Policy) noHistoryReasons(amount, rate float64) []string {
	reasons := []string{}
	if amount > p.NoHistoryMaxAmount {
		reasons = append(reasons, fmt.Sprintf(reasonNoHistoryLimit, groupThousands(int64(p.NoHistoryMaxAmount))))
	}
	if rate < p.NoHistoryMinRate {
		reasons = append(reasons, fmt.Sprintf(reasonNoHistoryRate, strconv.FormatFloat(p.NoHistoryMinRate, 'f', -1, 64)))
	}
	return reasons
}

func groupThousands(n int64) string {
	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
