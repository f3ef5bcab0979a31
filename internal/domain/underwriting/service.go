package underwriting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"underwriting-engine/internal/domain/customer"
	"underwriting-engine/internal/domain/loan"
	"underwriting-engine/internal/event"
	"underwriting-engine/internal/pkg/apperrors"
)

const (
	BranchScored    = "scored"
	BranchNoHistory = "no_history"

	OperationCreateLoan       = "create_loan"
	OperationCheckEligibility = "check_eligibility"
)

var (
	ErrNoLoans = fmt.Errorf("%w: no loans found for this customer", apperrors.ErrNotFound)

	ErrSnapshotNotFound = errors.New("credit score snapshot not found")
)

type CustomerLookup interface {
	GetCustomerByPhone(ctx context.Context, phoneNumber string) (*customer.Customer, error)
	ListCustomers(ctx context.Context) ([]*customer.Customer, error)
}

// Locker serializes originations for one customer. The returned release
// function must be called once the loan has been persisted or rejected.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

type SnapshotStore interface {
	// Get returns ErrSnapshotNotFound when no snapshot is stored.
	Get(ctx context.Context, customerID int64) (*ScoreSnapshot, error)
	Put(ctx context.Context, snapshot *ScoreSnapshot) error
}

type Recorder interface {
	RecordDecision(operation, branch string, approved bool)
	ObserveCreditScore(score int)
}

type LoanApplication struct {
	PhoneNumber  string
	Amount       float64
	InterestRate float64
	TenureMonths int
}

func (a LoanApplication) validate() error {
	switch {
	case a.Amount <= 0 || math.IsNaN(a.Amount) || math.IsInf(a.Amount, 0):
		return apperrors.NewValidationError("loanAmount", "loan amount must be greater than zero")
	case a.InterestRate < 0 || math.IsNaN(a.InterestRate) || math.IsInf(a.InterestRate, 0):
		return apperrors.NewValidationError("interestRate", "interest rate cannot be negative")
	case a.TenureMonths <= 0:
		return apperrors.NewValidationError("tenure", "tenure must be a positive number of months")
	}
	return nil
}

type Origination struct {
	LoanID             *int64   `json:"loanId"`
	CustomerID         int64    `json:"customerId"`
	Approved           bool     `json:"approved"`
	InterestRate       float64  `json:"interestRate"`
	MonthlyInstallment *float64 `json:"monthlyInstallment"`
	Reasons            []string `json:"reasons"`
}

type EligibilityReport struct {
	CustomerID            int64             `json:"customerId"`
	CreditScore           int               `json:"creditScore"`
	Components            []ComponentResult `json:"components"`
	Approved              bool              `json:"approved"`
	InterestRate          float64           `json:"interestRate"`
	CorrectedInterestRate *float64          `json:"correctedInterestRate"`
	TenureMonths          int               `json:"tenure"`
	MonthlyInstallment    float64           `json:"monthlyInstallment"`
	Reasons               []string          `json:"reasons"`
	Warnings              []string          `json:"warnings"`
}

type LoanListing struct {
	CustomerID int64            `json:"customerId"`
	Columns    []string         `json:"columns"`
	Loans      []map[string]any `json:"loans"`
}

type ScoreSnapshot struct {
	CustomerID int64             `json:"customerId"`
	Score      int               `json:"score"`
	Components []ComponentResult `json:"components"`
	Warnings   []string          `json:"warnings"`
	ComputedAt time.Time         `json:"computedAt"`
	Cached     bool              `json:"-"`
}

type ServiceDeps struct {
	Customers CustomerLookup
	Loans     loan.Repository
	IDs       *loan.IDGenerator
	Scorer    *Scorer
	Policy    Policy
	Locker    Locker
	Snapshots SnapshotStore
	Publisher event.EventPublisher
	Recorder  Recorder
	Now       func() time.Time
}

type Service struct {
	customers CustomerLookup
	loans     loan.Repository
	ids       *loan.IDGenerator
	scorer    *Scorer
	policy    Policy
	locker    Locker
	snapshots SnapshotStore
	pub       event.EventPublisher
	recorder  Recorder
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(deps ServiceDeps, logger *slog.Logger) (*Service, error) {
	if deps.Customers == nil || deps.Loans == nil || deps.IDs == nil {
		return nil, fmt.Errorf("%w: customers, loans and id generator are required", apperrors.ErrInvalidArgument)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Scorer == nil {
		deps.Scorer = NewScorer(logger)
	}
	if deps.Locker == nil {
		deps.Locker = noopLocker{}
	}
	if deps.Publisher == nil {
		deps.Publisher = event.NewNoopPublisher(logger)
	}
	if deps.Recorder == nil {
		deps.Recorder = noopRecorder{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Service{
		customers: deps.Customers,
		loans:     deps.Loans,
		ids:       deps.IDs,
		scorer:    deps.Scorer,
		policy:    deps.Policy.withDefaults(),
		locker:    deps.Locker,
		snapshots: deps.Snapshots,
		pub:       deps.Publisher,
		recorder:  deps.Recorder,
		now:       deps.Now,
		logger:    logger.With("component", "UnderwritingService"),
	}, nil
}

type scoredDecision struct {
	score         Score
	approved      bool
	correctedRate *float64
	installment   float64
	reasons       []string
}

// evaluateScored runs score, rate tiers and affordability. The installment
// uses the corrected rate, or the proposed rate when no rate is offered.
func (s *Service) evaluateScored(ctx context.Context, cust *customer.Customer, loans []*loan.Loan, app LoanApplication, now time.Time) (scoredDecision, error) {
	score := s.scorer.Score(ctx, cust, loans, now)
	s.recorder.ObserveCreditScore(score.Value)

	elig := ResolveEligibility(score.Value, app.InterestRate)
	rate := app.InterestRate
	if elig.CorrectedRate != nil {
		rate = *elig.CorrectedRate
	}

	installment, err := loan.MonthlyInstallment(app.Amount, rate, app.TenureMonths)
	if err != nil {
		return scoredDecision{}, err
	}

	approved := elig.Approved
	reasons := append([]string{}, elig.Reasons...)
	if exceedsAffordability(s.policy.AffordabilityRatio, cust.MonthlyIncome, loans, installment, now) {
		reasons = append(reasons, ReasonAffordability)
		approved = false
	}

	return scoredDecision{
		score:         score,
		approved:      approved,
		correctedRate: elig.CorrectedRate,
		installment:   installment,
		reasons:       reasons,
	}, nil
}

// CreateLoan decides on the application and persists the loan when approved.
// A rejection is a normal result and writes nothing.
func (s *Service) CreateLoan(ctx context.Context, app LoanApplication) (*Origination, error) {
	logger := s.logger.With(slog.String("operation", OperationCreateLoan))
	if err := app.validate(); err != nil {
		logger.WarnContext(ctx, "Loan application failed validation", slog.Any("error", err))
		return nil, err
	}

	cust, err := s.customers.GetCustomerByPhone(ctx, app.PhoneNumber)
	if err != nil {
		return nil, err
	}
	logger = logger.With(slog.Int64("customerID", cust.CustomerID))

	release, err := s.locker.Acquire(ctx, fmt.Sprintf("customer:%d", cust.CustomerID))
	if err != nil {
		logger.WarnContext(ctx, "Could not acquire origination lock", slog.Any("error", err))
		return nil, err
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			logger.WarnContext(ctx, "Failed to release origination lock", slog.Any("error", relErr))
		}
	}()

	history, err := s.loans.FindByCustomerID(ctx, cust.CustomerID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load loan history", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load loans for customer %d: %w", cust.CustomerID, err)
	}

	loanID, err := s.ids.Next(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := &Origination{CustomerID: cust.CustomerID, InterestRate: app.InterestRate}
	branch := BranchScored

	if len(history) > 0 {
		decision, err := s.evaluateScored(ctx, cust, history, app, now)
		if err != nil {
			return nil, err
		}
		result.Approved = decision.approved
		result.Reasons = decision.reasons
		if decision.correctedRate != nil {
			result.InterestRate = *decision.correctedRate
		}
		logger = logger.With(slog.Int("creditScore", decision.score.Value))
	} else {
		branch = BranchNoHistory
		result.Reasons = s.policy.noHistoryReasons(app.Amount, app.InterestRate)
		result.Approved = len(result.Reasons) == 0
	}
	logger = logger.With(slog.String("branch", branch))
	s.recorder.RecordDecision(OperationCreateLoan, branch, result.Approved)

	if !result.Approved {
		logger.InfoContext(ctx, "Loan application rejected", slog.Any("reasons", result.Reasons))
		return result, nil
	}

	newLoan, err := loan.NewLoan(loanID, cust.CustomerID, app.Amount, app.TenureMonths, result.InterestRate, now)
	if err != nil {
		return nil, err
	}

	created, err := s.persist(ctx, newLoan)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to persist approved loan", slog.Any("error", err))
		return nil, err
	}

	result.LoanID = &created.ID
	result.MonthlyInstallment = &created.MonthlyPayment
	logger.InfoContext(ctx, "Loan approved and created",
		slog.Int64("loanID", created.ID),
		slog.Float64("interestRate", created.InterestRate),
		slog.Float64("monthlyInstallment", created.MonthlyPayment))

	s.publishApproved(ctx, created)
	s.invalidateSnapshot(ctx, cust)
	return result, nil
}

// invalidateSnapshot recomputes the stored score after a new loan so the
// credit-score lookup never serves the pre-origination value.
func (s *Service) invalidateSnapshot(ctx context.Context, cust *customer.Customer) {
	if s.snapshots == nil {
		return
	}
	if _, err := s.refreshSnapshot(ctx, cust); err != nil {
		s.logger.WarnContext(ctx, "Failed to refresh score snapshot after origination",
			slog.Int64("customerID", cust.CustomerID), slog.Any("error", err))
	}
}

// persist inserts the loan, drawing a fresh id when storage reports a
// collision. Collisions share the generator's attempt budget.
func (s *Service) persist(ctx context.Context, l *loan.Loan) (*loan.Loan, error) {
	for attempt := 1; ; attempt++ {
		created, err := s.loans.CreateLoan(ctx, l)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, fmt.Errorf("failed to create loan: %w", err)
		}
		if attempt >= s.ids.MaxAttempts() {
			return nil, fmt.Errorf("%w: loan id collided on insert %d times", loan.ErrIDSpaceExhausted, attempt)
		}

		s.logger.WarnContext(ctx, "Loan id taken at insert, drawing a new one", slog.Int64("loanID", l.ID), slog.Int("attempt", attempt))
		id, err := s.ids.Next(ctx)
		if err != nil {
			return nil, err
		}
		l.ID = id
	}
}

func (s *Service) publishApproved(ctx context.Context, l *loan.Loan) {
	evt := event.LoanApprovedEvent{
		Timestamp:      s.now(),
		LoanID:         l.ID,
		CustomerID:     l.CustomerID,
		Principal:      l.Principal,
		InterestRate:   l.InterestRate,
		TenureMonths:   l.TenureMonths,
		MonthlyPayment: l.MonthlyPayment,
	}
	if l.ApprovalDate != nil {
		evt.ApprovalDate = *l.ApprovalDate
	}
	if l.EndDate != nil {
		evt.EndDate = *l.EndDate
	}
	if err := s.pub.PublishLoanApproved(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Loan created, but FAILED to publish approval event",
			slog.Int64("loanID", l.ID), slog.Any("error", err))
	}
}

// CheckEligibility scores the application against the current history
// without writing anything.
func (s *Service) CheckEligibility(ctx context.Context, app LoanApplication) (*EligibilityReport, error) {
	if err := app.validate(); err != nil {
		return nil, err
	}

	cust, err := s.customers.GetCustomerByPhone(ctx, app.PhoneNumber)
	if err != nil {
		return nil, err
	}

	history, err := s.loans.FindByCustomerID(ctx, cust.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loans for customer %d: %w", cust.CustomerID, err)
	}

	decision, err := s.evaluateScored(ctx, cust, history, app, s.now())
	if err != nil {
		return nil, err
	}
	s.recorder.RecordDecision(OperationCheckEligibility, BranchScored, decision.approved)

	s.logger.InfoContext(ctx, "Eligibility checked",
		slog.Int64("customerID", cust.CustomerID),
		slog.Int("creditScore", decision.score.Value),
		slog.Bool("approved", decision.approved))

	return &EligibilityReport{
		CustomerID:            cust.CustomerID,
		CreditScore:           decision.score.Value,
		Components:            decision.score.Components,
		Approved:              decision.approved,
		InterestRate:          app.InterestRate,
		CorrectedInterestRate: decision.correctedRate,
		TenureMonths:          app.TenureMonths,
		MonthlyInstallment:    decision.installment,
		Reasons:               decision.reasons,
		Warnings:              decision.score.Warnings,
	}, nil
}

// ListLoans returns the customer's loans projected to the requested columns.
func (s *Service) ListLoans(ctx context.Context, phoneNumber string, columns []string) (*LoanListing, error) {
	resolved, err := ResolveColumns(columns)
	if err != nil {
		return nil, err
	}

	cust, err := s.customers.GetCustomerByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}

	loans, err := s.loans.FindByCustomerID(ctx, cust.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loans for customer %d: %w", cust.CustomerID, err)
	}
	if len(loans) == 0 {
		return nil, ErrNoLoans
	}

	rows := make([]map[string]any, 0, len(loans))
	for _, l := range loans {
		rows = append(rows, projectLoan(l, resolved))
	}
	return &LoanListing{CustomerID: cust.CustomerID, Columns: resolved, Loans: rows}, nil
}

// CreditScore returns the stored snapshot for the customer, computing and
// storing a fresh one when none exists.
func (s *Service) CreditScore(ctx context.Context, phoneNumber string) (*ScoreSnapshot, error) {
	cust, err := s.customers.GetCustomerByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}

	if s.snapshots != nil {
		snap, err := s.snapshots.Get(ctx, cust.CustomerID)
		switch {
		case err == nil:
			snap.Cached = true
			return snap, nil
		case !errors.Is(err, ErrSnapshotNotFound):
			s.logger.WarnContext(ctx, "Snapshot lookup failed, computing fresh score",
				slog.Int64("customerID", cust.CustomerID), slog.Any("error", err))
		}
	}

	return s.refreshSnapshot(ctx, cust)
}

func (s *Service) refreshSnapshot(ctx context.Context, cust *customer.Customer) (*ScoreSnapshot, error) {
	loans, err := s.loans.FindByCustomerID(ctx, cust.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loans for customer %d: %w", cust.CustomerID, err)
	}

	now := s.now()
	score := s.scorer.Score(ctx, cust, loans, now)
	s.recorder.ObserveCreditScore(score.Value)
	snap := &ScoreSnapshot{
		CustomerID: cust.CustomerID,
		Score:      score.Value,
		Components: score.Components,
		Warnings:   score.Warnings,
		ComputedAt: now,
	}

	if s.snapshots != nil {
		if err := s.snapshots.Put(ctx, snap); err != nil {
			s.logger.WarnContext(ctx, "Failed to store score snapshot",
				slog.Int64("customerID", cust.CustomerID), slog.Any("error", err))
		}
	}
	return snap, nil
}

// RefreshSnapshots recomputes and stores the score of every customer. It
// keeps going past individual failures and reports them joined.
func (s *Service) RefreshSnapshots(ctx context.Context) (int, error) {
	customers, err := s.customers.ListCustomers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list customers: %w", err)
	}

	refreshed := 0
	var errs []error
	for _, cust := range customers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.refreshSnapshot(ctx, cust); err != nil {
			errs = append(errs, err)
			continue
		}
		refreshed++
	}
	return refreshed, errors.Join(errs...)
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

type noopRecorder struct{}

func (noopRecorder) RecordDecision(string, string, bool) {}
func (noopRecorder) ObserveCreditScore(int)              {}
