package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"underwriting-engine/internal/domain/loan"
	"underwriting-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loanRowColumns = []string{"id", "customer_id", "principal", "tenure_months", "interest_rate", "monthly_payment", "emis_paid_on_time", "date_of_approval", "end_date", "created_at"}

func setupLoanRepo(t *testing.T) (context.Context, *LoanRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}
	return context.Background(), NewLoanRepository(mockPool, logger), mockPool
}

func newLoanFixture(t *testing.T) *loan.Loan {
	t.Helper()
	l, err := loan.NewLoan(4321, 7, 100_000, 12, 12, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return l
}

func expectInsertLoan(mockPool pgxmock.PgxPoolIface, l *loan.Loan) *pgxmock.ExpectedQuery {
	return mockPool.ExpectQuery(regexp.QuoteMeta(insertLoanSQL)).WithArgs(
		l.ID, l.CustomerID, l.Principal, l.TenureMonths, l.InterestRate,
		l.MonthlyPayment, l.EMIsPaidOnTime, l.ApprovalDate, l.EndDate,
	)
}

func TestLoanRepository_CreateLoan(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()
	l := newLoanFixture(t)
	createdAt := time.Date(2025, 2, 10, 8, 30, 0, 0, time.UTC)

	expectInsertLoan(mockPool, l).WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	created, err := repo.CreateLoan(ctx, l)

	require.NoError(t, err)
	assert.Equal(t, int64(4321), created.ID)
	assert.Equal(t, createdAt, created.CreatedAt)
	assert.Equal(t, l.MonthlyPayment, created.MonthlyPayment)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepository_CreateLoanFractionalRate(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()
	l, err := loan.NewLoan(4322, 7, 250_000.5, 18, 12.345, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	want, err := loan.MonthlyInstallment(250_000.5, 12.345, 18)
	require.NoError(t, err)

	mockPool.ExpectQuery(regexp.QuoteMeta(insertLoanSQL)).WithArgs(
		int64(4322), int64(7), 250_000.5, 18, 12.345,
		want, 0, l.ApprovalDate, l.EndDate,
	).WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	created, err := repo.CreateLoan(ctx, l)

	require.NoError(t, err)
	assert.Equal(t, 12.345, created.InterestRate)
	assert.Equal(t, want, created.MonthlyPayment)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepository_CreateLoanDuplicateID(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()
	l := newLoanFixture(t)

	expectInsertLoan(mockPool, l).WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "loans_pkey"})

	created, err := repo.CreateLoan(ctx, l)

	assert.Nil(t, created)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepository_CreateLoanUnknownCustomer(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()
	l := newLoanFixture(t)

	expectInsertLoan(mockPool, l).WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "loans_customer_id_fkey"})

	_, err := repo.CreateLoan(ctx, l)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLoanRepository_CreateLoanDatabaseError(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()
	l := newLoanFixture(t)

	expectInsertLoan(mockPool, l).WillReturnError(errors.New("connection lost"))

	_, err := repo.CreateLoan(ctx, l)

	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.NotErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestLoanRepository_FindByCustomerID(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()
	approval := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery(regexp.QuoteMeta(selectLoansByCustomerSQL)).WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(loanRowColumns).
			AddRow(int64(1500), int64(7), 250_000.0, 36, 11.5, 8_244.0, 20, &approval, &end, createdAt))

	loans, err := repo.FindByCustomerID(ctx, 7)

	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, int64(1500), loans[0].ID)
	assert.Equal(t, 36, loans[0].TenureMonths)
	assert.Equal(t, 20, loans[0].EMIsPaidOnTime)
	require.NotNil(t, loans[0].ApprovalDate)
	assert.Equal(t, approval, *loans[0].ApprovalDate)
	assert.Equal(t, end, *loans[0].EndDate)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepository_FindByCustomerIDEmpty(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(selectLoansByCustomerSQL)).WithArgs(int64(8)).
		WillReturnRows(pgxmock.NewRows(loanRowColumns))

	loans, err := repo.FindByCustomerID(ctx, 8)

	require.NoError(t, err)
	assert.Empty(t, loans)
}

func TestLoanRepository_ExistsByID(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(loanExistsSQL)).WithArgs(int64(1234)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mockPool.ExpectQuery(regexp.QuoteMeta(loanExistsSQL)).WithArgs(int64(4321)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	taken, err := repo.ExistsByID(ctx, 1234)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.ExistsByID(ctx, 4321)
	require.NoError(t, err)
	assert.False(t, taken)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestTranslateDBError(t *testing.T) {
	assert.Nil(t, translateDBError(nil, logger))
	assert.ErrorIs(t, translateDBError(&pgconn.PgError{Code: "42P01"}, logger), apperrors.ErrDatabase)
	assert.ErrorIs(t, translateDBError(errors.New("boom"), logger), apperrors.ErrDatabase)

	var appErr *apperrors.AppError
	require.ErrorAs(t, translateDBError(errors.New("dial tcp 10.0.0.5:5432: connection refused"), logger), &appErr)
	assert.Equal(t, "DB_ERROR", appErr.Code)
	assert.NotContains(t, appErr.Message, "10.0.0.5")
}
