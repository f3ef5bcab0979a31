package underwriting

import (
	"fmt"
	"strings"
	"time"

	"underwriting-engine/internal/domain/loan"
	"underwriting-engine/internal/pkg/apperrors"
)

const dateLayout = "2006-01-02"

const (
	ColumnLoanID         = "loan_id"
	ColumnCustomerID     = "customer_id"
	ColumnLoanAmount     = "loan_amount"
	ColumnTenure         = "tenure"
	ColumnInterestRate   = "interest_rate"
	ColumnMonthlyPayment = "monthly_payment"
	ColumnEMIsPaidOnTime = "emis_paid_on_time"
	ColumnDateOfApproval = "date_of_approval"
	ColumnEndDate        = "end_date"
)

var DefaultLoanColumns = []string{
	ColumnLoanAmount,
	ColumnTenure,
	ColumnInterestRate,
	ColumnEndDate,
	ColumnMonthlyPayment,
	ColumnDateOfApproval,
}

var loanColumns = map[string]func(*loan.Loan) any{
	ColumnLoanID:         func(l *loan.Loan) any { return l.ID },
	ColumnCustomerID:     func(l *loan.Loan) any { return l.CustomerID },
	ColumnLoanAmount:     func(l *loan.Loan) any { return l.Principal },
	ColumnTenure:         func(l *loan.Loan) any { return l.TenureMonths },
	ColumnInterestRate:   func(l *loan.Loan) any { return l.InterestRate },
	ColumnMonthlyPayment: func(l *loan.Loan) any { return l.MonthlyPayment },
	ColumnEMIsPaidOnTime: func(l *loan.Loan) any { return l.EMIsPaidOnTime },
	ColumnDateOfApproval: func(l *loan.Loan) any { return formatDate(l.ApprovalDate) },
	ColumnEndDate:        func(l *loan.Loan) any { return formatDate(l.EndDate) },
}

// columnAliases lets callers use the CamelCase names of the tabular export
// (LoanAmount, DateOfApproval, ...) as well as snake_case.
var columnAliases = func() map[string]string {
	aliases := make(map[string]string, len(loanColumns))
	for name := range loanColumns {
		aliases[squash(name)] = name
	}
	return aliases
}()

func squash(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
}

// ResolveColumns canonicalizes the requested projection. An empty request
// selects DefaultLoanColumns.
func ResolveColumns(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return append([]string(nil), DefaultLoanColumns...), nil
	}

	resolved := make([]string, 0, len(requested))
	seen := make(map[string]bool, len(requested))
	for _, raw := range requested {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		name, ok := columnAliases[squash(raw)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown loan column %q", apperrors.ErrInvalidArgument, raw)
		}
		if !seen[name] {
			seen[name] = true
			resolved = append(resolved, name)
		}
	}
	if len(resolved) == 0 {
		return append([]string(nil), DefaultLoanColumns...), nil
	}
	return resolved, nil
}

func projectLoan(l *loan.Loan, columns []string) map[string]any {
	row := make(map[string]any, len(columns))
	for _, c := range columns {
		row[c] = loanColumns[c](l)
	}
	return row
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}
