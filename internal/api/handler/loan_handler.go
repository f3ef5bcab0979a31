package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"underwriting-engine/internal/api/handler/dto"
	"underwriting-engine/internal/domain/underwriting"
	"underwriting-engine/internal/pkg/apperrors"
)

type UnderwritingService interface {
	CreateLoan(ctx context.Context, app underwriting.LoanApplication) (*underwriting.Origination, error)
	CheckEligibility(ctx context.Context, app underwriting.LoanApplication) (*underwriting.EligibilityReport, error)
	ListLoans(ctx context.Context, phoneNumber string, columns []string) (*underwriting.LoanListing, error)
	CreditScore(ctx context.Context, phoneNumber string) (*underwriting.ScoreSnapshot, error)
}

var _ UnderwritingService = (*underwriting.Service)(nil)

type LoanHandler struct {
	service UnderwritingService
	logger  *slog.Logger
}

func NewLoanHandler(s UnderwritingService, l *slog.Logger) *LoanHandler {
	if s == nil {
		panic("underwriting service cannot be nil")
	}
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

func (h *LoanHandler) decodeApplication(r *http.Request) (underwriting.LoanApplication, error) {
	var req dto.LoanApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		return underwriting.LoanApplication{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.Any("error", err))
		return underwriting.LoanApplication{}, err
	}
	return req.ToApplication(), nil
}

// parseColumns splits a comma separated column list. Empty means defaults.
func parseColumns(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cols = append(cols, p)
		}
	}
	return cols
}

// CreateLoan underwrites an application and books the loan when approved.
//
// @Summary Apply for a loan
// @Description Scores the customer, applies the interest rate floors and the 50% affordability rule, and creates the loan when approved. A rejection is returned with status 200 and the reasons.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.LoanApplicationRequest true "Loan application"
// @Success 201 {object} dto.OriginationResponse "Loan approved and created"
// @Success 200 {object} dto.OriginationResponse "Loan not approved"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 503 {object} dto.ErrorResponse "Origination lock or loan id space unavailable"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	app, err := h.decodeApplication(r)
	if err != nil {
		respondError(w, err)
		return
	}

	origination, err := h.service.CreateLoan(r.Context(), app)
	if err != nil {
		h.logError(r.Context(), "Service failed to create loan", err)
		respondError(w, err)
		return
	}

	status := http.StatusOK
	if origination.Approved {
		status = http.StatusCreated
	}
	respondJSON(w, status, dto.NewOriginationResponse(origination))
}

// CheckEligibility reports the decision for an application without booking it.
//
// @Summary Check loan eligibility
// @Description Scores the customer and returns the decision, the corrected interest rate and the monthly installment. Nothing is written.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.LoanApplicationRequest true "Loan application"
// @Success 200 {object} dto.EligibilityResponse "Customer is eligible"
// @Failure 403 {object} dto.EligibilityResponse "Customer is not eligible"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/eligibility [post]
// @Security BearerAuth
func (h *LoanHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	app, err := h.decodeApplication(r)
	if err != nil {
		respondError(w, err)
		return
	}

	report, err := h.service.CheckEligibility(r.Context(), app)
	if err != nil {
		h.logError(r.Context(), "Service failed to check eligibility", err)
		respondError(w, err)
		return
	}

	status := http.StatusOK
	if !report.Approved {
		status = http.StatusForbidden
	}
	respondJSON(w, status, dto.NewEligibilityResponse(report))
}

// ListLoans returns the customer's loans.
//
// @Summary List a customer's loans
// @Description Lists the loans of a customer. The columns query parameter selects the fields returned (loan_id, customer_id, loan_amount, tenure, interest_rate, monthly_payment, emis_paid_on_time, date_of_approval, end_date).
// @Tags Loans
// @Produce json
// @Param phoneNumber path string true "Customer phone number"
// @Param columns query string false "Comma separated column names" Example(loan_amount,end_date)
// @Success 200 {object} dto.LoanListResponse "Loans of the customer"
// @Failure 400 {object} dto.ErrorResponse "Unknown column"
// @Failure 404 {object} dto.ErrorResponse "Customer not found or customer has no loans"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{phoneNumber}/loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	phone, err := getPhoneFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	listing, err := h.service.ListLoans(r.Context(), phone, parseColumns(r.URL.Query().Get("columns")))
	if err != nil {
		h.logError(r.Context(), "Service failed to list loans", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanListResponse(listing))
}

// GetCreditScore returns the customer's credit score snapshot.
//
// @Summary Get a customer's credit score
// @Description Returns the stored credit score snapshot, computing a fresh one when none is stored.
// @Tags Loans
// @Produce json
// @Param phoneNumber path string true "Customer phone number"
// @Success 200 {object} dto.CreditScoreResponse "Credit score"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{phoneNumber}/credit-score [get]
// @Security BearerAuth
func (h *LoanHandler) GetCreditScore(w http.ResponseWriter, r *http.Request) {
	phone, err := getPhoneFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	snapshot, err := h.service.CreditScore(r.Context(), phone)
	if err != nil {
		h.logError(r.Context(), "Service failed to get credit score", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCreditScoreResponse(snapshot))
}

func (h *LoanHandler) logError(ctx context.Context, msg string, err error) {
	level := slog.LevelError
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrInvalidArgument) ||
		errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrUnavailable) {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, msg, slog.Any("error", err))
}
