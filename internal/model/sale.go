package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod values mirror the checkout surface. Only cash-method totals
// enter the drawer's expected amount.
type PaymentMethod string

const (
	MethodCash        PaymentMethod = "cash"
	MethodPix         PaymentMethod = "pix"
	MethodCreditCard  PaymentMethod = "credit_card"
	MethodDebitCard   PaymentMethod = "debit_card"
	MethodStoreCredit PaymentMethod = "store_credit"
	MethodMealTicket  PaymentMethod = "meal_ticket"
)

// SaleKind discriminates normal sales from debt-payment pseudo-sales with an
// explicit field set at creation time, never by matching description text.
type SaleKind string

const (
	SaleNormal      SaleKind = "normal"
	SaleDebtPayment SaleKind = "debt_payment"
)

// SaleRecord is the read-only reference the sales collaborator supplies. The
// core never mutates a sale except to attach an orphan to its session during
// the administrative repair pass.
type SaleRecord struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID     *uuid.UUID      `gorm:"type:uuid;index"`
	OperatorID    uuid.UUID       `gorm:"type:uuid;not null"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(20);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Kind          SaleKind        `gorm:"type:varchar(20);not null;default:'normal'"`
	// DebtID links a debt_payment sale to the settled DebtAccount.
	DebtID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
}
