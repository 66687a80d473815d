package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"poscore/internal/model"
)

// Commands are validated at the service boundary with go-playground
// validator tags; failures map to the validation error kind.

type RecordWithdrawalCommand struct {
	SessionID    uuid.UUID       `validate:"required"`
	AuthorizerID uuid.UUID       `validate:"required"`
	Amount       decimal.Decimal `validate:"gt=0"`
	Reason       string          `validate:"required,min=3"`
}

type CreateDebtCommand struct {
	Side           model.DebtSide  `validate:"required,oneof=receivable payable"`
	CounterpartyID uuid.UUID       `validate:"required"`
	Amount         decimal.Decimal `validate:"gt=0"`
	DueDate        time.Time       `validate:"required"`
	Description    string
}

type ApplyPaymentCommand struct {
	DebtID uuid.UUID           `validate:"required"`
	Amount decimal.Decimal     `validate:"gt=0"`
	Method model.PaymentMethod `validate:"required,oneof=cash pix credit_card debit_card store_credit meal_ticket"`
	Notes  *string
}

type BulkApplyCommand struct {
	CounterpartyID uuid.UUID           `validate:"required"`
	TotalAmount    decimal.Decimal     `validate:"gt=0"`
	Method         model.PaymentMethod `validate:"required,oneof=cash pix credit_card debit_card store_credit meal_ticket"`
	DebtIDs        []uuid.UUID         `validate:"required,min=1"`
}

type RegisterCreditSaleCommand struct {
	CustomerID  uuid.UUID       `validate:"required"`
	SaleTotal   decimal.Decimal `validate:"gt=0"`
	DueDate     time.Time       `validate:"required"`
	Description string
}

// BulkApplyResult surfaces every created payment and the unallocated
// remainder; the remainder is never silently dropped.
type BulkApplyResult struct {
	Payments  []model.DebtPayment
	Allocated decimal.Decimal
	Remainder decimal.Decimal
}
