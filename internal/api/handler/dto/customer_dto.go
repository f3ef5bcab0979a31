package dto

import (
	"time"

	"underwriting-engine/internal/domain/customer"
)

type CreateCustomerRequest struct {
	FirstName     string  `json:"firstName" validate:"required,max=100"`
	LastName      string  `json:"lastName" validate:"required,max=100"`
	Age           int     `json:"age" validate:"gte=18"`
	PhoneNumber   string  `json:"phoneNumber" validate:"required,max=20"`
	MonthlyIncome float64 `json:"monthlyIncome" validate:"gt=0"`
}

func (r *CreateCustomerRequest) Validate() error {
	return validateStruct(r)
}

func (r *CreateCustomerRequest) ToInput() customer.NewCustomerInput {
	return customer.NewCustomerInput{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Age:           r.Age,
		PhoneNumber:   r.PhoneNumber,
		MonthlyIncome: r.MonthlyIncome,
	}
}

type CustomerResponse struct {
	CustomerID    int64     `json:"customerId"`
	Name          string    `json:"name"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Age           int       `json:"age"`
	PhoneNumber   string    `json:"phoneNumber"`
	MonthlyIncome string    `json:"monthlyIncome"`
	ApprovedLimit string    `json:"approvedLimit"`
	CreateDate    time.Time `json:"createDate"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}
	return CustomerResponse{
		CustomerID:    cust.CustomerID,
		Name:          cust.FullName(),
		FirstName:     cust.FirstName,
		LastName:      cust.LastName,
		Age:           cust.Age,
		PhoneNumber:   cust.PhoneNumber,
		MonthlyIncome: formatMoney(cust.MonthlyIncome),
		ApprovedLimit: formatMoney(cust.ApprovedLimit),
		CreateDate:    cust.CreateDate,
	}
}
