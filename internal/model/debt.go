package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebtSide: receivables are owed by customers, payables are owed to
// suppliers. Both share the same shape and status rules.
type DebtSide string

const (
	SideReceivable DebtSide = "receivable"
	SidePayable    DebtSide = "payable"
)

// DebtStatus is always a pure function of (paidAmount, remainingAmount,
// dueDate, today); see DeriveDebtStatus.
type DebtStatus string

const (
	DebtPending DebtStatus = "pending"
	DebtPartial DebtStatus = "partial"
	DebtOverdue DebtStatus = "overdue"
	DebtPaid    DebtStatus = "paid"
)

// DebtAccount is a receivable or payable supporting partial payment.
type DebtAccount struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Side           DebtSide        `gorm:"type:varchar(20);not null;index"`
	CounterpartyID uuid.UUID       `gorm:"type:uuid;not null;index"`
	OriginalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DueDate        time.Time       `gorm:"not null"`
	Status         DebtStatus      `gorm:"type:varchar(20);not null;index"`
	Description    string
	CreatedAt      time.Time

	Payments []DebtPayment `gorm:"foreignKey:DebtAccountID"`
}

// RemainingAmount is derived, never stored: originalAmount − paidAmount.
// Overpayment is rejected before it can drive this negative.
func (d *DebtAccount) RemainingAmount() decimal.Decimal {
	return d.OriginalAmount.Sub(d.PaidAmount)
}

// Refresh re-derives the status after a mutation.
func (d *DebtAccount) Refresh(today time.Time) {
	d.Status = DeriveDebtStatus(d.PaidAmount, d.RemainingAmount(), d.DueDate, today)
}

// DebtPayment is an immutable payment event. The sum of a debt's payments
// equals its paidAmount.
type DebtPayment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DebtAccountID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method        PaymentMethod   `gorm:"type:varchar(20);not null"`
	Notes         *string
	CreatedAt     time.Time
}

// DeriveDebtStatus applies the status precedence shared by every mutation
// path: settled beats partial beats overdue beats pending. A partially paid,
// past-due debt therefore resolves to partial, not overdue.
func DeriveDebtStatus(paid, remaining decimal.Decimal, dueDate, today time.Time) DebtStatus {
	switch {
	case remaining.LessThanOrEqual(decimal.Zero):
		return DebtPaid
	case paid.GreaterThan(decimal.Zero):
		return DebtPartial
	case DateOnly(dueDate).Before(DateOnly(today)):
		return DebtOverdue
	default:
		return DebtPending
	}
}

// DateOnly truncates a timestamp to its calendar date in UTC, so due-date
// comparisons ignore the time of day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
