package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"underwriting-engine/internal/event"
)

const customerNotFound = "Customer not found by repository"

type NewCustomerInput struct {
	FirstName     string
	LastName      string
	Age           int
	PhoneNumber   string
	MonthlyIncome float64
}

type CustomerService interface {
	RegisterCustomer(ctx context.Context, input NewCustomerInput) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	GetCustomerByPhone(ctx context.Context, phoneNumber string) (*Customer, error)
	ListCustomers(ctx context.Context) ([]*Customer, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	pub    event.EventPublisher
	logger *slog.Logger
}

func NewCustomerService(repo CustomerRepository, eventPublisher event.EventPublisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	if eventPublisher == nil {
		logger.Warn("No event publisher provided to NewCustomerService, events will be dropped")
		eventPublisher = event.NewNoopPublisher(logger)
	}

	return &customerService{
		repo:   repo,
		pub:    eventPublisher,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func NewCustomerEventPayload(cust *Customer) event.CustomerEventPayload {
	if cust == nil {
		return event.CustomerEventPayload{}
	}
	return event.CustomerEventPayload{
		CustomerID:    cust.CustomerID,
		FirstName:     cust.FirstName,
		LastName:      cust.LastName,
		PhoneNumber:   cust.PhoneNumber,
		MonthlyIncome: cust.MonthlyIncome,
		ApprovedLimit: cust.ApprovedLimit,
		CreateDate:    cust.CreateDate,
	}
}

func (s *customerService) RegisterCustomer(ctx context.Context, input NewCustomerInput) (*Customer, error) {
	logger := s.logger.With(slog.String("phoneNumber", NormalizePhone(input.PhoneNumber)))
	logger.InfoContext(ctx, "Attempting to register new customer")

	customer, err := NewCustomer(input.FirstName, input.LastName, input.Age, input.PhoneNumber, input.MonthlyIncome)
	if err != nil {
		logger.WarnContext(ctx, "Validation failed for new customer", slog.Any("error", err))
		return nil, err
	}

	existing, err := s.repo.FindByPhone(ctx, customer.PhoneNumber)
	switch {
	case err == nil && existing != nil:
		logger.WarnContext(ctx, "Phone number already registered", slog.Int64("existingCustomerID", existing.CustomerID))
		return nil, ErrDuplicatePhone
	case err != nil && !errors.Is(err, ErrNotFound):
		logger.ErrorContext(ctx, "Repository error checking phone number", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check phone number: %w", err)
	}

	if err := s.repo.Save(ctx, customer); err != nil {
		logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		if errors.Is(err, ErrDuplicatePhone) {
			return nil, ErrDuplicatePhone
		}
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}

	logger = logger.With(slog.Int64("customerID", customer.CustomerID))
	logger.InfoContext(ctx, "Successfully saved new customer, publishing creation event",
		slog.Float64("approvedLimit", customer.ApprovedLimit))

	createdEvent := event.CustomerCreatedEvent{
		Timestamp: time.Now(),
		Payload:   NewCustomerEventPayload(customer),
	}
	if pubErr := s.pub.PublishCustomerCreated(ctx, createdEvent); pubErr != nil {
		logger.ErrorContext(ctx, "Customer created, but FAILED to publish creation event", slog.Any("error", pubErr))
	}

	return customer, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	logger := s.logger.With(slog.Int64("customerID", customerID))

	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.WarnContext(ctx, customerNotFound)
			return nil, ErrNotFound
		}
		logger.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	logger.DebugContext(ctx, "Successfully retrieved customer")
	return customer, nil
}

func (s *customerService) GetCustomerByPhone(ctx context.Context, phoneNumber string) (*Customer, error) {
	phoneNumber = NormalizePhone(phoneNumber)
	logger := s.logger.With(slog.String("phoneNumber", phoneNumber))

	if phoneNumber == "" {
		return nil, ErrNotFound
	}

	customer, err := s.repo.FindByPhone(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.WarnContext(ctx, customerNotFound)
			return nil, ErrNotFound
		}
		logger.ErrorContext(ctx, "Repository error finding customer by phone", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer by phone: %w", err)
	}

	logger.DebugContext(ctx, "Successfully retrieved customer", slog.Int64("customerID", customer.CustomerID))
	return customer, nil
}

func (s *customerService) ListCustomers(ctx context.Context) ([]*Customer, error) {
	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully retrieved customers", slog.Int("count", len(customers)))
	return customers, nil
}
