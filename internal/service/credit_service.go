package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"poscore/internal/auth"
	"poscore/internal/dto"
	"poscore/internal/fault"
	"poscore/internal/model"
	"poscore/internal/repository"
)

// CreditDecision is the outcome of a credit-limit check.
type CreditDecision string

const (
	CreditAllow                CreditDecision = "allow"
	CreditRequireAuthorization CreditDecision = "require_authorization"
	CreditDeny                 CreditDecision = "deny"
)

// CreditCheck carries the decision plus the figures it was made from.
type CreditCheck struct {
	Decision        CreditDecision
	AvailableCredit decimal.Decimal
	// AuthorizerID is set when an override token carried the decision.
	AuthorizerID *uuid.UUID
}

// CreditService enforces customer credit limits on store-credit sales and
// registers the receivable a credit sale creates.
type CreditService interface {
	// Check evaluates a prospective credit sale. Over-limit sales pass only
	// with a credit-override token from an elevated principal.
	Check(ctx context.Context, customerID uuid.UUID, saleTotal decimal.Decimal, overrideToken string) (*CreditCheck, error)
	// RegisterCreditSale creates the receivable and refreshes the customer's
	// credit profile in one transaction.
	RegisterCreditSale(ctx context.Context, cmd dto.RegisterCreditSaleCommand, now time.Time) (*model.DebtAccount, error)
}

type creditService struct {
	customers repository.CustomerRepository
	debts     repository.DebtRepository
	tokens    auth.Verifier
}

func NewCreditService(customers repository.CustomerRepository, debts repository.DebtRepository, tokens auth.Verifier) CreditService {
	return &creditService{customers: customers, debts: debts, tokens: tokens}
}

func (s *creditService) Check(ctx context.Context, customerID uuid.UUID, saleTotal decimal.Decimal, overrideToken string) (*CreditCheck, error) {
	if !saleTotal.GreaterThan(decimal.Zero) {
		return nil, fault.Validation("sale total must be positive")
	}

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.NotFound("customer %s not found", customerID)
		}
		return nil, fault.Internal(err)
	}
	if !customer.Active {
		return &CreditCheck{Decision: CreditDeny, AvailableCredit: decimal.Zero}, nil
	}

	// Available credit is judged against a fresh resum of the ledger, not
	// the stored currentDebt column.
	currentDebt, err := s.debts.SumRemainingReceivables(s.debts.DB(), customerID)
	if err != nil {
		return nil, fault.Internal(err)
	}
	available := customer.CreditLimit.Sub(currentDebt)

	if saleTotal.LessThanOrEqual(available) {
		return &CreditCheck{Decision: CreditAllow, AvailableCredit: available}, nil
	}
	if overrideToken == "" {
		return &CreditCheck{Decision: CreditRequireAuthorization, AvailableCredit: available}, nil
	}

	grant, err := s.tokens.Verify(overrideToken, auth.ScopeCreditOverride)
	if err != nil {
		log.Warn().
			Str("customer_id", customerID.String()).
			Str("sale_total", saleTotal.String()).
			Msg("credit override rejected: invalid token")
		return &CreditCheck{Decision: CreditDeny, AvailableCredit: available}, nil
	}

	log.Info().
		Str("customer_id", customerID.String()).
		Str("sale_total", saleTotal.String()).
		Str("available", available.String()).
		Str("authorizer_id", grant.UserID.String()).
		Msg("over-limit credit sale authorized")
	return &CreditCheck{Decision: CreditAllow, AvailableCredit: available, AuthorizerID: &grant.UserID}, nil
}

func (s *creditService) RegisterCreditSale(ctx context.Context, cmd dto.RegisterCreditSaleCommand, now time.Time) (*model.DebtAccount, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	debt := &model.DebtAccount{
		Side:           model.SideReceivable,
		CounterpartyID: cmd.CustomerID,
		OriginalAmount: cmd.SaleTotal,
		PaidAmount:     decimal.Zero,
		DueDate:        cmd.DueDate,
		Description:    cmd.Description,
	}
	debt.Refresh(now)

	err := runTx(ctx, s.debts.DB(), func(tx *gorm.DB) error {
		if _, err := s.customers.FindByIDForUpdate(tx, cmd.CustomerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fault.NotFound("customer %s not found", cmd.CustomerID)
			}
			return fault.Internal(err)
		}
		if err := s.debts.CreateTx(tx, debt); err != nil {
			return fault.Internal(err)
		}
		total, err := s.debts.SumRemainingReceivables(tx, cmd.CustomerID)
		if err != nil {
			return fault.Internal(err)
		}
		return s.updateCustomerDebt(tx, cmd.CustomerID, total)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("debt_id", debt.ID.String()).
		Str("customer_id", cmd.CustomerID.String()).
		Str("amount", cmd.SaleTotal.String()).
		Msg("credit sale registered as receivable")
	return debt, nil
}

func (s *creditService) updateCustomerDebt(tx *gorm.DB, customerID uuid.UUID, total decimal.Decimal) error {
	if err := s.customers.UpdateCurrentDebtTx(tx, customerID, total); err != nil {
		return fault.Internal(err)
	}
	return nil
}
