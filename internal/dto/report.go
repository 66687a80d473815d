package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"poscore/internal/model"
)

// MethodBreakdown is one payment-method bucket of a report section.
type MethodBreakdown struct {
	Method model.PaymentMethod `json:"method"`
	Total  decimal.Decimal     `json:"total"`
	Count  int64               `json:"count"`
}

// ReconciliationReport aggregates one session for reconciliation review.
// Expected amount and difference are recomputed from source records with the
// same formula session close uses, never read back from cached columns.
type ReconciliationReport struct {
	SessionID    uuid.UUID           `json:"session_id"`
	OperatorID   uuid.UUID           `json:"operator_id"`
	Status       model.SessionStatus `json:"status"`
	OpenedAt     time.Time           `json:"opened_at"`
	ClosedAt     *time.Time          `json:"closed_at"`
	OpeningFloat decimal.Decimal     `json:"opening_float"`

	NormalSales      []MethodBreakdown `json:"normal_sales"`
	NormalSalesTotal decimal.Decimal   `json:"normal_sales_total"`
	NormalSalesCount int64             `json:"normal_sales_count"`

	DebtPayments      []MethodBreakdown `json:"debt_payments"`
	DebtPaymentsTotal decimal.Decimal   `json:"debt_payments_total"`

	Withdrawals      []model.CashWithdrawal `json:"withdrawals"`
	WithdrawalsTotal decimal.Decimal        `json:"withdrawals_total"`

	ExpectedAmount decimal.Decimal  `json:"expected_amount"`
	ClosingAmount  *decimal.Decimal `json:"closing_amount"`
	Difference     *decimal.Decimal `json:"difference"`
}
