package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"poscore/internal/dto"
	"poscore/internal/fault"
	"poscore/internal/model"
	"poscore/internal/repository"
)

// DebtService owns the receivable and payable ledgers. Payments only ever
// append immutable DebtPayment rows; a debt's paid amount and status follow
// from them.
type DebtService interface {
	Create(ctx context.Context, cmd dto.CreateDebtCommand, now time.Time) (*model.DebtAccount, error)
	Get(ctx context.Context, id uuid.UUID) (*model.DebtAccount, error)
	List(ctx context.Context, counterpartyID uuid.UUID, f repository.DebtFilter) ([]model.DebtAccount, error)
	OutstandingTotal(ctx context.Context, side model.DebtSide) (decimal.Decimal, error)
	// ApplyPayment records one partial or full payment against a debt. It is
	// deliberately not idempotent: submitting the same command twice records
	// two payments.
	ApplyPayment(ctx context.Context, cmd dto.ApplyPaymentCommand, now time.Time) (*model.DebtPayment, error)
	// Cancel hard-deletes a debt that has received no payment.
	Cancel(ctx context.Context, id uuid.UUID) error
}

type debtService struct {
	debts     repository.DebtRepository
	customers repository.CustomerRepository
}

func NewDebtService(debts repository.DebtRepository, customers repository.CustomerRepository) DebtService {
	return &debtService{debts: debts, customers: customers}
}

func (s *debtService) Create(ctx context.Context, cmd dto.CreateDebtCommand, now time.Time) (*model.DebtAccount, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	debt := &model.DebtAccount{
		Side:           cmd.Side,
		CounterpartyID: cmd.CounterpartyID,
		OriginalAmount: cmd.Amount,
		PaidAmount:     decimal.Zero,
		DueDate:        cmd.DueDate,
		Description:    cmd.Description,
	}
	debt.Refresh(now)

	err := runTx(ctx, s.debts.DB(), func(tx *gorm.DB) error {
		// Receivables lock the customer row first so the credit profile
		// recompute serializes with credit-sale registration.
		if cmd.Side == model.SideReceivable {
			if _, err := s.customers.FindByIDForUpdate(tx, cmd.CounterpartyID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fault.NotFound("customer %s not found", cmd.CounterpartyID)
				}
				return fault.Internal(err)
			}
		}
		if err := s.debts.CreateTx(tx, debt); err != nil {
			return fault.Internal(err)
		}
		if cmd.Side == model.SideReceivable {
			return s.refreshCustomerDebt(tx, cmd.CounterpartyID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("debt_id", debt.ID.String()).
		Str("side", string(debt.Side)).
		Str("counterparty_id", cmd.CounterpartyID.String()).
		Str("amount", cmd.Amount.String()).
		Msg("debt created")
	return debt, nil
}

func (s *debtService) Get(ctx context.Context, id uuid.UUID) (*model.DebtAccount, error) {
	debt, err := s.debts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.NotFound("debt %s not found", id)
		}
		return nil, fault.Internal(err)
	}
	return debt, nil
}

func (s *debtService) List(ctx context.Context, counterpartyID uuid.UUID, f repository.DebtFilter) ([]model.DebtAccount, error) {
	debts, err := s.debts.ListByCounterparty(ctx, counterpartyID, f)
	if err != nil {
		return nil, fault.Internal(err)
	}
	return debts, nil
}

func (s *debtService) OutstandingTotal(ctx context.Context, side model.DebtSide) (decimal.Decimal, error) {
	total, err := s.debts.OutstandingTotal(ctx, side)
	if err != nil {
		return decimal.Zero, fault.Internal(err)
	}
	return total, nil
}

func (s *debtService) ApplyPayment(ctx context.Context, cmd dto.ApplyPaymentCommand, now time.Time) (*model.DebtPayment, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	// Side and counterparty are read outside the locks to fix the lock
	// order: customer row first, then debt row.
	head, err := s.Get(ctx, cmd.DebtID)
	if err != nil {
		return nil, err
	}

	var payment *model.DebtPayment
	err = runTx(ctx, s.debts.DB(), func(tx *gorm.DB) error {
		if head.Side == model.SideReceivable {
			if _, err := s.customers.FindByIDForUpdate(tx, head.CounterpartyID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fault.NotFound("customer %s not found", head.CounterpartyID)
				}
				return fault.Internal(err)
			}
		}

		debt, err := s.debts.FindByIDForUpdate(tx, cmd.DebtID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fault.NotFound("debt %s not found", cmd.DebtID)
			}
			return fault.Internal(err)
		}

		payment, err = applyPaymentLocked(tx, s.debts, debt, cmd.Amount, cmd.Method, cmd.Notes, now)
		if err != nil {
			return err
		}
		if debt.Side == model.SideReceivable {
			return s.refreshCustomerDebt(tx, debt.CounterpartyID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("payment_id", payment.ID.String()).
		Str("debt_id", cmd.DebtID.String()).
		Str("amount", cmd.Amount.String()).
		Str("method", string(cmd.Method)).
		Msg("debt payment applied")
	return payment, nil
}

func (s *debtService) Cancel(ctx context.Context, id uuid.UUID) error {
	head, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = runTx(ctx, s.debts.DB(), func(tx *gorm.DB) error {
		if head.Side == model.SideReceivable {
			if _, err := s.customers.FindByIDForUpdate(tx, head.CounterpartyID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fault.NotFound("customer %s not found", head.CounterpartyID)
				}
				return fault.Internal(err)
			}
		}

		debt, err := s.debts.FindByIDForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fault.NotFound("debt %s not found", id)
			}
			return fault.Internal(err)
		}
		if debt.PaidAmount.GreaterThan(decimal.Zero) {
			return fault.Conflict("debt %s has recorded payments and cannot be cancelled", id)
		}
		if err := s.debts.DeleteTx(tx, id); err != nil {
			return fault.Internal(err)
		}
		if debt.Side == model.SideReceivable {
			return s.refreshCustomerDebt(tx, debt.CounterpartyID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("debt_id", id.String()).Msg("debt cancelled")
	return nil
}

// refreshCustomerDebt resums the customer's non-paid receivables and stores
// the result. The caller holds the customer row lock.
func (s *debtService) refreshCustomerDebt(tx *gorm.DB, customerID uuid.UUID) error {
	total, err := s.debts.SumRemainingReceivables(tx, customerID)
	if err != nil {
		return fault.Internal(err)
	}
	if err := s.customers.UpdateCurrentDebtTx(tx, customerID, total); err != nil {
		return fault.Internal(err)
	}
	return nil
}

// applyPaymentLocked records one payment against a debt the caller has
// already locked: append the payment row, bump paidAmount, re-derive status.
// Shared by single payment application and bulk allocation.
func applyPaymentLocked(tx *gorm.DB, debts repository.DebtRepository, debt *model.DebtAccount, amount decimal.Decimal, method model.PaymentMethod, notes *string, now time.Time) (*model.DebtPayment, error) {
	if !amount.GreaterThan(decimal.Zero) {
		return nil, fault.Validation("payment amount must be positive")
	}
	remaining := debt.RemainingAmount()
	if amount.GreaterThan(remaining) {
		return nil, fault.Validation("payment of %s exceeds remaining amount %s", amount, remaining)
	}

	payment := &model.DebtPayment{
		DebtAccountID: debt.ID,
		Amount:        amount,
		Method:        method,
		Notes:         notes,
		CreatedAt:     now,
	}
	if err := debts.CreatePaymentTx(tx, payment); err != nil {
		return nil, fault.Internal(err)
	}

	debt.PaidAmount = debt.PaidAmount.Add(amount)
	debt.Refresh(now)
	if err := debts.UpdateTx(tx, debt); err != nil {
		return nil, fault.Internal(err)
	}
	return payment, nil
}
