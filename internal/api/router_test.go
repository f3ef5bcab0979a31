package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"underwriting-engine/internal/config"
	"underwriting-engine/internal/domain/customer"
	"underwriting-engine/internal/domain/underwriting"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUnderwriting struct {
	lastPhone   string
	lastColumns []string
}

func (s *stubUnderwriting) CreateLoan(_ context.Context, app underwriting.LoanApplication) (*underwriting.Origination, error) {
	s.lastPhone = app.PhoneNumber
	return &underwriting.Origination{CustomerID: 1, InterestRate: app.InterestRate, Reasons: []string{underwriting.ReasonScoreTooLow}}, nil
}

func (s *stubUnderwriting) CheckEligibility(_ context.Context, app underwriting.LoanApplication) (*underwriting.EligibilityReport, error) {
	s.lastPhone = app.PhoneNumber
	return &underwriting.EligibilityReport{CustomerID: 1, Approved: false, InterestRate: app.InterestRate}, nil
}

func (s *stubUnderwriting) ListLoans(_ context.Context, phone string, columns []string) (*underwriting.LoanListing, error) {
	s.lastPhone, s.lastColumns = phone, columns
	return &underwriting.LoanListing{CustomerID: 1, Columns: columns, Loans: []map[string]any{}}, nil
}

func (s *stubUnderwriting) CreditScore(_ context.Context, phone string) (*underwriting.ScoreSnapshot, error) {
	s.lastPhone = phone
	return &underwriting.ScoreSnapshot{CustomerID: 1, Score: 42}, nil
}

type stubCustomers struct{}

func (stubCustomers) RegisterCustomer(_ context.Context, in customer.NewCustomerInput) (*customer.Customer, error) {
	return &customer.Customer{CustomerID: 1, FirstName: in.FirstName, PhoneNumber: in.PhoneNumber}, nil
}

func (stubCustomers) GetCustomer(context.Context, int64) (*customer.Customer, error) {
	return nil, customer.ErrNotFound
}

func (stubCustomers) GetCustomerByPhone(_ context.Context, phone string) (*customer.Customer, error) {
	if phone == "404" {
		return nil, customer.ErrNotFound
	}
	return &customer.Customer{CustomerID: 1, PhoneNumber: phone}, nil
}

func (stubCustomers) ListCustomers(context.Context) ([]*customer.Customer, error) {
	return []*customer.Customer{}, nil
}

const routerSecret = "router-secret"

func newTestRouter(t *testing.T, authEnabled bool) (http.Handler, *stubUnderwriting) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Auth: config.AuthConfig{Enabled: authEnabled, JWTSecret: routerSecret, TokenTTL: time.Hour},
		},
		Metrics: config.MetricsConfig{Path: "/metrics"},
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	uw := &stubUnderwriting{}
	return SetupRouter(ctx, uw, stubCustomers{}, cfg, slog.New(slog.NewTextHandler(io.Discard, nil))), uw
}

func do(router http.Handler, method, target string, body []byte, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealth(t *testing.T) {
	router, _ := newTestRouter(t, true)

	rec := do(router, http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouterRequiresToken(t *testing.T) {
	router, _ := newTestRouter(t, true)

	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/customers/9000000001", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodPost, "/loans/", []byte(`{}`), "").Code)
}

func TestRouterIssuedTokenOpensProtectedRoutes(t *testing.T) {
	router, uw := newTestRouter(t, true)

	rec := do(router, http.MethodPost, "/auth/token", []byte(`{"username":"ops"}`), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tok))
	raw := tok.Token[len("Bearer "):]

	parsed, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) { return []byte(routerSecret), nil })
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	rec = do(router, http.MethodGet, "/customers/9000000001/credit-score", nil, raw)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "9000000001", uw.lastPhone)
}

func TestRouterLoanRoutes(t *testing.T) {
	router, uw := newTestRouter(t, false)
	body := []byte(`{"phoneNumber":"9000000001","loanAmount":1000,"interestRate":10,"tenure":6}`)

	rec := do(router, http.MethodPost, "/loans/", body, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodPost, "/loans/eligibility", body, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "9000000001", uw.lastPhone)
}

func TestRouterCustomerRoutes(t *testing.T) {
	router, uw := newTestRouter(t, false)

	rec := do(router, http.MethodGet, "/customers/9000000001/loans?columns=loan_id,tenure", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"loan_id", "tenure"}, uw.lastColumns)

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/customers/404", nil, "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/customers/", nil, "").Code)

	rec = do(router, http.MethodPost, "/customers/", []byte(`{"firstName":"A","lastName":"B","age":30,"phoneNumber":"1","monthlyIncome":1000}`), "")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouterSwaggerRedirect(t *testing.T) {
	router, _ := newTestRouter(t, false)

	rec := do(router, http.MethodGet, "/swagger", nil, "")

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/swagger/index.html", rec.Header().Get("Location"))
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, false)
	do(router, http.MethodGet, "/health", nil, "")

	rec := do(router, http.MethodGet, "/metrics", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "underwriting_engine_http_requests_total")
}
