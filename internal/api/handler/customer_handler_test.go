package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"underwriting-engine/internal/api/handler/dto"
	"underwriting-engine/internal/domain/customer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleCustomer() *customer.Customer {
	return &customer.Customer{
		CustomerID:    12,
		FirstName:     "Ana",
		LastName:      "Lee",
		Age:           30,
		PhoneNumber:   "9000000001",
		MonthlyIncome: 50_000,
		ApprovedLimit: 1_800_000,
		CreateDate:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCustomerHandlerCreateCustomer(t *testing.T) {
	validReq := dto.CreateCustomerRequest{FirstName: "Ana", LastName: "Lee", Age: 30, PhoneNumber: "9000000001", MonthlyIncome: 50_000}

	t.Run("registers the customer", func(t *testing.T) {
		svc := new(MockCustomerService)
		h := NewCustomerHandler(svc, logger)
		svc.On("RegisterCustomer", mock.Anything, validReq.ToInput()).Return(sampleCustomer(), nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/customers", jsonBody(t, validReq))
		rec := httptest.NewRecorder()
		h.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.CustomerResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, int64(12), resp.CustomerID)
		assert.Equal(t, "1800000.00", resp.ApprovedLimit)
		svc.AssertExpectations(t)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		svc := new(MockCustomerService)
		h := NewCustomerHandler(svc, logger)

		req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(`{"firstName":"Ana","nickname":"A"}`))
		rec := httptest.NewRecorder()
		h.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "RegisterCustomer", mock.Anything, mock.Anything)
	})

	t.Run("rejects an underage customer", func(t *testing.T) {
		svc := new(MockCustomerService)
		h := NewCustomerHandler(svc, logger)
		underage := validReq
		underage.Age = 16

		req := httptest.NewRequest(http.MethodPost, "/customers", jsonBody(t, underage))
		rec := httptest.NewRecorder()
		h.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "age", decodeError(t, rec).Error.Field)
	})

	t.Run("maps duplicate phone to conflict", func(t *testing.T) {
		svc := new(MockCustomerService)
		h := NewCustomerHandler(svc, logger)
		svc.On("RegisterCustomer", mock.Anything, mock.Anything).Return(nil, customer.ErrDuplicatePhone).Once()

		req := httptest.NewRequest(http.MethodPost, "/customers", jsonBody(t, validReq))
		rec := httptest.NewRecorder()
		h.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestCustomerHandlerGetCustomer(t *testing.T) {
	t.Run("returns the customer", func(t *testing.T) {
		svc := new(MockCustomerService)
		h := NewCustomerHandler(svc, logger)
		svc.On("GetCustomerByPhone", mock.Anything, "9000000001").Return(sampleCustomer(), nil).Once()

		rec := httptest.NewRecorder()
		h.GetCustomer(rec, withPhone(httptest.NewRequest(http.MethodGet, "/customers/9000000001", nil), "9000000001"))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.CustomerResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "Ana Lee", resp.Name)
	})

	t.Run("returns 404 for an unknown phone", func(t *testing.T) {
		svc := new(MockCustomerService)
		h := NewCustomerHandler(svc, logger)
		svc.On("GetCustomerByPhone", mock.Anything, "0").Return(nil, customer.ErrNotFound).Once()

		rec := httptest.NewRecorder()
		h.GetCustomer(rec, withPhone(httptest.NewRequest(http.MethodGet, "/customers/0", nil), "0"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("returns 400 without a phone", func(t *testing.T) {
		h := NewCustomerHandler(new(MockCustomerService), logger)

		rec := httptest.NewRecorder()
		h.GetCustomer(rec, withPhone(httptest.NewRequest(http.MethodGet, "/customers/", nil), " "))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCustomerHandlerListCustomers(t *testing.T) {
	t.Run("lists customers", func(t *testing.T) {
		svc := new(MockCustomerService)
		h := NewCustomerHandler(svc, logger)
		svc.On("ListCustomers", mock.Anything).Return([]*customer.Customer{sampleCustomer()}, nil).Once()

		rec := httptest.NewRecorder()
		h.ListCustomers(rec, httptest.NewRequest(http.MethodGet, "/customers", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp []dto.CustomerResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Len(t, resp, 1)
	})

	t.Run("surfaces storage failures", func(t *testing.T) {
		svc := new(MockCustomerService)
		h := NewCustomerHandler(svc, logger)
		svc.On("ListCustomers", mock.Anything).Return(nil, errors.New("db down")).Once()

		rec := httptest.NewRecorder()
		h.ListCustomers(rec, httptest.NewRequest(http.MethodGet, "/customers", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
