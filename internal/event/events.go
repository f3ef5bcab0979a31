package event

import (
	"context"
	"log/slog"
	"time"
)

type CustomerEventPayload struct {
	CustomerID    int64     `json:"customerId"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	PhoneNumber   string    `json:"phoneNumber"`
	MonthlyIncome float64   `json:"monthlyIncome"`
	ApprovedLimit float64   `json:"approvedLimit"`
	CreateDate    time.Time `json:"createDate"`
}

type CustomerCreatedEvent struct {
	Timestamp time.Time            `json:"timestamp"`
	Payload   CustomerEventPayload `json:"payload"`
}

type LoanApprovedEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	LoanID         int64     `json:"loanId"`
	CustomerID     int64     `json:"customerId"`
	Principal      float64   `json:"principal"`
	InterestRate   float64   `json:"interestRate"`
	TenureMonths   int       `json:"tenureMonths"`
	MonthlyPayment float64   `json:"monthlyPayment"`
	ApprovalDate   time.Time `json:"approvalDate"`
	EndDate        time.Time `json:"endDate"`
	CreditScore    *int      `json:"creditScore,omitempty"`
}

func (p *RabbitMQEventPublisher) PublishCustomerCreated(ctx context.Context, event CustomerCreatedEvent) error {
	return p.publish(ctx, routingKeyCustomerCreated, event)
}

func (p *RabbitMQEventPublisher) PublishLoanApproved(ctx context.Context, event LoanApprovedEvent) error {
	return p.publish(ctx, routingKeyLoanApproved, event)
}

// NoopPublisher drops events. Used when no broker is configured.
type NoopPublisher struct {
	logger *slog.Logger
}

func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger.With("component", "NoopPublisher")}
}

func (p *NoopPublisher) PublishCustomerCreated(ctx context.Context, event CustomerCreatedEvent) error {
	p.logger.DebugContext(ctx, "Dropping customer created event", slog.Int64("customerId", event.Payload.CustomerID))
	return nil
}

func (p *NoopPublisher) PublishLoanApproved(ctx context.Context, event LoanApprovedEvent) error {
	p.logger.DebugContext(ctx, "Dropping loan approved event", slog.Int64("loanId", event.LoanID))
	return nil
}

var _ EventPublisher = (*NoopPublisher)(nil)
