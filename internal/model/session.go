package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionStatus: "open" | "closed". The transition is one-way; a closed
// session is append-only.
type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// CashSession is the custody period during which one operator is accountable
// for a drawer's cash. At most one open session exists per operator per
// calendar day, enforced by a partial unique index on (operator_id,
// date(opened_at)) WHERE status = 'open'.
type CashSession struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OperatorID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	OpeningFloat decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ExpectedAmount and Difference are computed on close and recomputed
	// rather than trusted blindly when read back (see report builder).
	ExpectedAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ClosingAmount  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Difference     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status         SessionStatus    `gorm:"type:varchar(20);not null;default:'open'"`
	Notes          *string
	OpenedAt       time.Time
	ClosedAt       *time.Time

	Withdrawals []CashWithdrawal `gorm:"foreignKey:SessionID"`
}

// CashWithdrawal is an immutable record of cash leaving the drawer during a
// session. Withdrawal totals are never cached on the session; they are summed
// fresh at close and report time.
type CashWithdrawal struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	AuthorizerID uuid.UUID       `gorm:"type:uuid;not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reason       string
	CreatedAt    time.Time
}

// SessionTotals holds the freshly summed cash-relevant figures of a session.
type SessionTotals struct {
	CashSales        decimal.Decimal
	CashDebtPayments decimal.Decimal
	Withdrawals      decimal.Decimal
}

// Expected is the single expected-amount formula shared by session close and
// report building: float plus cash-settled inflows minus cash-settled
// outflows.
func (t SessionTotals) Expected(openingFloat decimal.Decimal) decimal.Decimal {
	return openingFloat.Add(t.CashSales).Add(t.CashDebtPayments).Sub(t.Withdrawals)
}
