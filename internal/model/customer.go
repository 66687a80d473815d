package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer carries the credit profile used by credit-sale enforcement.
// CurrentDebt is always recomputed by resumming the customer's non-paid
// receivables, never incremented in place, so it cannot drift from the
// ledger.
type Customer struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string          `gorm:"not null"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CurrentDebt decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Active      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
}

// AvailableCredit is creditLimit − currentDebt. It may be negative when the
// limit was lowered after debt accrued.
func (c *Customer) AvailableCredit() decimal.Decimal {
	return c.CreditLimit.Sub(c.CurrentDebt)
}
