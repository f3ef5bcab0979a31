package underwriting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"underwriting-engine/internal/domain/customer"
	"underwriting-engine/internal/domain/loan"
)

const (
	MinScore = 0
	MaxScore = 100

	ComponentLimitUtilization = "limit_utilization"
	ComponentPaymentHistory   = "payment_history"
	ComponentAverageTenure    = "average_tenure"
	ComponentHistoryLength    = "history_length"
	ComponentLoanCount        = "loan_count"

	WarningCloseToLimit    = "You are very close to your approved limit"
	WarningExceededLimit   = "You have exceeded your approved limit"
	WarningLowOnTimeShare  = "Less than 50% EMIs paid on time"
	warningOnTimeShareTmpl = "Only %.1f%% EMIs paid on time"
)

// ComponentResult is one scored factor. Applicable is false when the factor
// could not be computed from the history, in which case Points is zero.
type ComponentResult struct {
	Name       string `json:"name"`
	Points     int    `json:"points"`
	MaxPoints  int    `json:"maxPoints"`
	Applicable bool   `json:"applicable"`
	Reason     string `json:"reason,omitempty"`
}

type Score struct {
	Value      int               `json:"value"`
	Components []ComponentResult `json:"components"`
	Warnings   []string          `json:"warnings"`
}

type Scorer struct {
	logger *slog.Logger
}

func NewScorer(logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{logger: logger.With("component", "CreditScorer")}
}

// Score rates a customer from 0 to 100 using the full loan history as of now.
func (s *Scorer) Score(ctx context.Context, cust *customer.Customer, loans []*loan.Loan, now time.Time) Score {
	dated := make([]*loan.Loan, 0, len(loans))
	undated := 0
	for _, l := range loans {
		if l == nil {
			continue
		}
		if l.ApprovalDate == nil || l.EndDate == nil {
			undated++
		}
		if l.ApprovalDate != nil {
			dated = append(dated, l)
		}
	}
	if undated > 0 {
		s.logger.WarnContext(ctx, "Some loans have missing or unparseable dates, excluding them from date based factors",
			slog.Int64("customerID", cust.CustomerID), slog.Int("loans", undated))
	}

	var warnings []string
	components := []ComponentResult{
		limitUtilization(cust, loans, now, &warnings),
		paymentHistory(dated, now, &warnings),
		averageTenure(loans),
		historyLength(dated),
		loanCount(loans),
	}

	total := 0
	for _, c := range components {
		total += c.Points
	}
	total = min(max(total, MinScore), MaxScore)

	s.logger.DebugContext(ctx, "Credit score computed",
		slog.Int64("customerID", cust.CustomerID), slog.Int("score", total), slog.Int("loans", len(loans)))

	if warnings == nil {
		warnings = []string{}
	}
	return Score{Value: total, Components: components, Warnings: warnings}
}

func notApplicable(name string, maxPoints int, reason string) ComponentResult {
	return ComponentResult{Name: name, MaxPoints: maxPoints, Reason: reason}
}

func limitUtilization(cust *customer.Customer, loans []*loan.Loan, now time.Time, warnings *[]string) ComponentResult {
	const maxPoints = 25
	if cust.ApprovedLimit <= 0 {
		return notApplicable(ComponentLimitUtilization, maxPoints, "customer has no approved limit")
	}

	active := 0.0
	for _, l := range loans {
		if l != nil && l.IsActive(now) {
			active += l.Principal
		}
	}
	pct := active / cust.ApprovedLimit * 100

	res := ComponentResult{Name: ComponentLimitUtilization, MaxPoints: maxPoints, Applicable: true}
	switch {
	case pct < 15:
		res.Points = 25
	case pct < 30:
		res.Points = 22
	case pct < 35:
		res.Points = 16
	case pct < 40:
		res.Points = 14
	case pct < 55:
		res.Points = 10
	case pct < 60:
		res.Points = 6
	case pct < 80:
		res.Points = 4
		*warnings = append(*warnings, WarningCloseToLimit)
	case pct < 95:
		res.Points = 2
		*warnings = append(*warnings, WarningCloseToLimit)
	default:
		*warnings = append(*warnings, WarningExceededLimit)
	}
	res.Reason = fmt.Sprintf("%.1f%% of approved limit in use", pct)
	return res
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

func paymentHistory(dated []*loan.Loan, now time.Time, warnings *[]string) ComponentResult {
	const maxPoints = 30
	totalMonths, onTime := 0, 0
	for _, l := range dated {
		totalMonths += monthsBetween(*l.ApprovalDate, now)
		onTime += l.EMIsPaidOnTime
	}
	if totalMonths <= 0 {
		return notApplicable(ComponentPaymentHistory, maxPoints, "no elapsed installment months")
	}

	pct := float64(onTime) / float64(totalMonths) * 100
	res := ComponentResult{Name: ComponentPaymentHistory, MaxPoints: maxPoints, Applicable: true}
	switch {
	case pct >= 120:
		res.Points = 30
	case pct >= 100:
		res.Points = 26
	case pct >= 90:
		res.Points = 22
	case pct >= 80:
		res.Points = 18
	case pct >= 70:
		res.Points = 15
	case pct >= 60:
		res.Points = 12
	case pct >= 50:
		res.Points = 8
		*warnings = append(*warnings, WarningLowOnTimeShare)
	default:
		res.Points = 4
		*warnings = append(*warnings, fmt.Sprintf(warningOnTimeShareTmpl, pct))
	}
	res.Reason = fmt.Sprintf("%.1f%% of installments paid on time", pct)
	return res
}

func averageTenure(loans []*loan.Loan) ComponentResult {
	const maxPoints = 15
	count, months := 0, 0
	for _, l := range loans {
		if l == nil {
			continue
		}
		count++
		months += l.TenureMonths
	}
	if count == 0 {
		return notApplicable(ComponentAverageTenure, maxPoints, "no loans")
	}

	years := float64(months) / float64(count) / 12
	res := ComponentResult{Name: ComponentAverageTenure, MaxPoints: maxPoints, Applicable: true}
	switch {
	case years >= 15:
		res.Points = 15
	case years >= 10:
		res.Points = 12
	case years >= 8:
		res.Points = 8
	case years >= 6:
		res.Points = 6
	case years >= 4:
		res.Points = 4
	case years >= 2:
		res.Points = 2
	default:
		res.Points = 1
	}
	res.Reason = fmt.Sprintf("average tenure %.1f years", years)
	return res
}

func historyLength(dated []*loan.Loan) ComponentResult {
	const maxPoints = 10
	if len(dated) == 0 {
		return notApplicable(ComponentHistoryLength, maxPoints, "no dated loans")
	}

	oldest := dated[0].ApprovalDate.Year()
	for _, l := range dated[1:] {
		oldest = min(oldest, l.ApprovalDate.Year())
	}

	res := ComponentResult{Name: ComponentHistoryLength, MaxPoints: maxPoints, Applicable: true}
	switch {
	case oldest <= 2010:
		res.Points = 10
	case oldest < 2014:
		res.Points = 8
	case oldest < 2016:
		res.Points = 5
	case oldest < 2020:
		res.Points = 2
	}
	res.Reason = fmt.Sprintf("first loan approved in %d", oldest)
	return res
}

func loanCount(loans []*loan.Loan) ComponentResult {
	const maxPoints = 20
	n := 0
	for _, l := range loans {
		if l != nil {
			n++
		}
	}
	if n == 0 {
		return notApplicable(ComponentLoanCount, maxPoints, "no loans")
	}

	res := ComponentResult{Name: ComponentLoanCount, MaxPoints: maxPoints, Applicable: true}
	switch {
	case n > 15:
		res.Points = 20
	case n >= 10:
		res.Points = 15
	case n >= 6:
		res.Points = 12
	case n >= 2:
		res.Points = 8
	default:
		res.Points = 2
	}
	res.Reason = fmt.Sprintf("%d loans taken", n)
	return res
}
