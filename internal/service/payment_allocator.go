package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"poscore/internal/dto"
	"poscore/internal/fault"
	"poscore/internal/repository"
)

// PaymentAllocator spreads one received amount across several of a
// counterparty's debts, oldest due date first. The whole allocation commits
// or rolls back as one transaction, and whatever cannot be allocated is
// surfaced as the remainder, never dropped.
type PaymentAllocator interface {
	BulkApply(ctx context.Context, cmd dto.BulkApplyCommand, now time.Time) (*dto.BulkApplyResult, error)
}

type paymentAllocator struct {
	debts     repository.DebtRepository
	customers repository.CustomerRepository
}

func NewPaymentAllocator(debts repository.DebtRepository, customers repository.CustomerRepository) PaymentAllocator {
	return &paymentAllocator{debts: debts, customers: customers}
}

func (a *paymentAllocator) BulkApply(ctx context.Context, cmd dto.BulkApplyCommand, now time.Time) (*dto.BulkApplyResult, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	result := &dto.BulkApplyResult{}
	err := runTx(ctx, a.debts.DB(), func(tx *gorm.DB) error {
		// Customer row first, debts second: the same order every credit
		// mutation takes. Payable counterparties have no customer row.
		customer, err := a.customers.FindByIDForUpdate(tx, cmd.CounterpartyID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fault.Internal(err)
		}

		debts, err := a.debts.ListByIDsForUpdate(tx, cmd.DebtIDs)
		if err != nil {
			return fault.Internal(err)
		}
		if len(debts) != len(cmd.DebtIDs) {
			return fault.NotFound("one or more debts not found")
		}
		for i := range debts {
			if debts[i].CounterpartyID != cmd.CounterpartyID {
				return fault.Validation("debt %s does not belong to counterparty %s", debts[i].ID, cmd.CounterpartyID)
			}
		}

		unallocated := cmd.TotalAmount
		for i := range debts {
			if !unallocated.GreaterThan(decimal.Zero) {
				break
			}
			remaining := debts[i].RemainingAmount()
			if !remaining.GreaterThan(decimal.Zero) {
				continue
			}
			slice := decimal.Min(remaining, unallocated)
			payment, err := applyPaymentLocked(tx, a.debts, &debts[i], slice, cmd.Method, nil, now)
			if err != nil {
				return err
			}
			result.Payments = append(result.Payments, *payment)
			unallocated = unallocated.Sub(slice)
		}
		result.Allocated = cmd.TotalAmount.Sub(unallocated)
		result.Remainder = unallocated

		if customer != nil {
			total, err := a.debts.SumRemainingReceivables(tx, cmd.CounterpartyID)
			if err != nil {
				return fault.Internal(err)
			}
			if err := a.customers.UpdateCurrentDebtTx(tx, cmd.CounterpartyID, total); err != nil {
				return fault.Internal(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	evt := log.Info().
		Str("counterparty_id", cmd.CounterpartyID.String()).
		Str("total", cmd.TotalAmount.String()).
		Str("allocated", result.Allocated.String()).
		Int("payments", len(result.Payments))
	if result.Remainder.GreaterThan(decimal.Zero) {
		evt = evt.Str("remainder", result.Remainder.String())
	}
	evt.Msg("bulk payment allocated")
	return result, nil
}
