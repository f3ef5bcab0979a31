package underwriting

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"underwriting-engine/internal/domain/customer"
	"underwriting-engine/internal/domain/loan"
	"underwriting-engine/internal/event"
	"underwriting-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type memCustomers struct {
	byPhone map[string]*customer.Customer
}

func (m *memCustomers) GetCustomerByPhone(_ context.Context, phone string) (*customer.Customer, error) {
	if c, ok := m.byPhone[customer.NormalizePhone(phone)]; ok {
		return c, nil
	}
	return nil, customer.ErrNotFound
}

func (m *memCustomers) ListCustomers(context.Context) ([]*customer.Customer, error) {
	out := make([]*customer.Customer, 0, len(m.byPhone))
	for _, c := range m.byPhone {
		out = append(out, c)
	}
	return out, nil
}

type memLoans struct {
	mu      sync.Mutex
	loans   []*loan.Loan
	creates int
	// conflicts makes the next N inserts fail with ErrAlreadyExists.
	conflicts int
}

func (m *memLoans) CreateLoan(_ context.Context, l *loan.Loan) (*loan.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts > 0 {
		m.conflicts--
		return nil, apperrors.ErrAlreadyExists
	}
	for _, existing := range m.loans {
		if existing.ID == l.ID {
			return nil, apperrors.ErrAlreadyExists
		}
	}
	stored := *l
	m.loans = append(m.loans, &stored)
	m.creates++
	return &stored, nil
}

func (m *memLoans) FindByCustomerID(_ context.Context, customerID int64) ([]*loan.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*loan.Loan
	for _, l := range m.loans {
		if l.CustomerID == customerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memLoans) ExistsByID(_ context.Context, loanID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.loans {
		if l.ID == loanID {
			return true, nil
		}
	}
	return false, nil
}

type recordingPublisher struct {
	approved []event.LoanApprovedEvent
}

func (p *recordingPublisher) PublishCustomerCreated(context.Context, event.CustomerCreatedEvent) error {
	return nil
}

func (p *recordingPublisher) PublishLoanApproved(_ context.Context, evt event.LoanApprovedEvent) error {
	p.approved = append(p.approved, evt)
	return nil
}

type countingLocker struct {
	acquired, released int
	err                error
}

func (l *countingLocker) Acquire(context.Context, string) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}

type memSnapshots struct {
	snaps map[int64]*ScoreSnapshot
	puts  int
}

func (m *memSnapshots) Get(_ context.Context, customerID int64) (*ScoreSnapshot, error) {
	if s, ok := m.snaps[customerID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, ErrSnapshotNotFound
}

func (m *memSnapshots) Put(_ context.Context, snap *ScoreSnapshot) error {
	if m.snaps == nil {
		m.snaps = map[int64]*ScoreSnapshot{}
	}
	m.snaps[snap.CustomerID] = snap
	m.puts++
	return nil
}

type testEnv struct {
	svc       *Service
	customers *memCustomers
	loans     *memLoans
	pub       *recordingPublisher
	locker    *countingLocker
	snapshots *memSnapshots
	now       time.Time
}

func newTestEnv(t *testing.T, customers ...*customer.Customer) *testEnv {
	t.Helper()
	env := &testEnv{
		customers: &memCustomers{byPhone: map[string]*customer.Customer{}},
		loans:     &memLoans{},
		pub:       &recordingPublisher{},
		locker:    &countingLocker{},
		snapshots: &memSnapshots{},
		now:       time.Date(2025, time.January, 31, 10, 0, 0, 0, time.UTC),
	}
	for _, c := range customers {
		env.customers.byPhone[c.PhoneNumber] = c
	}

	ids, err := loan.NewIDGenerator(env.loans.ExistsByID, loan.DefaultIDMin, loan.DefaultIDMax, 8, discardLogger)
	require.NoError(t, err)

	env.svc, err = NewService(ServiceDeps{
		Customers: env.customers,
		Loans:     env.loans,
		IDs:       ids,
		Locker:    env.locker,
		Snapshots: env.snapshots,
		Publisher: env.pub,
		Now:       func() time.Time { return env.now },
	}, discardLogger)
	require.NoError(t, err)
	return env
}

func testCustomer(id int64, phone string, income float64) *customer.Customer {
	return &customer.Customer{
		CustomerID:    id,
		FirstName:     "Test",
		LastName:      "Customer",
		Age:           35,
		PhoneNumber:   phone,
		MonthlyIncome: income,
		ApprovedLimit: customer.ApprovedLimitFor(income),
	}
}

func datedLoan(id, customerID int64, principal float64, tenure int, payment float64, onTime int, approval time.Time) *loan.Loan {
	end := loan.AddMonths(approval, tenure)
	return &loan.Loan{
		ID:             id,
		CustomerID:     customerID,
		Principal:      principal,
		TenureMonths:   tenure,
		InterestRate:   10,
		MonthlyPayment: payment,
		EMIsPaidOnTime: onTime,
		ApprovalDate:   &approval,
		EndDate:        &end,
	}
}
