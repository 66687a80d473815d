package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDeriveDebtStatus(t *testing.T) {
	today := time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)
	future := today.AddDate(0, 0, 7)
	past := today.AddDate(0, 0, -7)

	cases := []struct {
		name            string
		paid, remaining decimal.Decimal
		due             time.Time
		want            DebtStatus
	}{
		{"untouched before due", d("0"), d("500"), future, DebtPending},
		{"untouched past due", d("0"), d("500"), past, DebtOverdue},
		{"partially paid before due", d("200"), d("300"), future, DebtPartial},
		// Partial wins over overdue when both apply.
		{"partially paid past due", d("200"), d("300"), past, DebtPartial},
		{"settled before due", d("500"), d("0"), future, DebtPaid},
		{"settled past due", d("500"), d("0"), past, DebtPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveDebtStatus(tc.paid, tc.remaining, tc.due, today))
		})
	}
}

func TestDeriveDebtStatusDueTodayIsNotOverdue(t *testing.T) {
	today := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	dueEarlierToday := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, DebtPending, DeriveDebtStatus(d("0"), d("100"), dueEarlierToday, today))
}

func TestRemainingAmount(t *testing.T) {
	debt := DebtAccount{OriginalAmount: d("500.00"), PaidAmount: d("123.45")}
	assert.True(t, debt.RemainingAmount().Equal(d("376.55")))
}

func TestRefresh(t *testing.T) {
	today := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	debt := DebtAccount{
		OriginalAmount: d("500.00"),
		PaidAmount:     d("500.00"),
		DueDate:        today.AddDate(0, 0, -30),
	}
	debt.Refresh(today)
	assert.Equal(t, DebtPaid, debt.Status)
}
