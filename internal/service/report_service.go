package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"poscore/internal/dto"
	"poscore/internal/fault"
	"poscore/internal/model"
	"poscore/internal/repository"
)

// ReportService builds the reconciliation report for a session, open or
// closed. Every figure is aggregated fresh from sale, withdrawal and session
// rows; the expected amount comes from the same formula close uses.
type ReportService interface {
	Build(ctx context.Context, sessionID uuid.UUID) (*dto.ReconciliationReport, error)
}

type reportService struct {
	sessions repository.SessionRepository
	sales    repository.SaleRepository
}

func NewReportService(sessions repository.SessionRepository, sales repository.SaleRepository) ReportService {
	return &reportService{sessions: sessions, sales: sales}
}

func (s *reportService) Build(ctx context.Context, sessionID uuid.UUID) (*dto.ReconciliationReport, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.NotFound("session %s not found", sessionID)
		}
		return nil, fault.Internal(err)
	}

	buckets, err := s.sales.MethodTotals(ctx, sessionID)
	if err != nil {
		return nil, fault.Internal(err)
	}
	withdrawals, err := s.sessions.ListWithdrawals(ctx, sessionID)
	if err != nil {
		return nil, fault.Internal(err)
	}
	totals, err := s.sessions.Totals(ctx, sessionID)
	if err != nil {
		return nil, fault.Internal(err)
	}

	report := &dto.ReconciliationReport{
		SessionID:    session.ID,
		OperatorID:   session.OperatorID,
		Status:       session.Status,
		OpenedAt:     session.OpenedAt,
		ClosedAt:     session.ClosedAt,
		OpeningFloat: session.OpeningFloat,
		Withdrawals:  withdrawals,
	}
	for _, b := range buckets {
		mb := dto.MethodBreakdown{Method: b.Method, Total: b.Total, Count: b.Count}
		switch b.Kind {
		case model.SaleDebtPayment:
			report.DebtPayments = append(report.DebtPayments, mb)
			report.DebtPaymentsTotal = report.DebtPaymentsTotal.Add(b.Total)
		default:
			report.NormalSales = append(report.NormalSales, mb)
			report.NormalSalesTotal = report.NormalSalesTotal.Add(b.Total)
			report.NormalSalesCount += b.Count
		}
	}
	for _, w := range withdrawals {
		report.WithdrawalsTotal = report.WithdrawalsTotal.Add(w.Amount)
	}

	report.ExpectedAmount = totals.Expected(session.OpeningFloat)
	if session.Status == model.SessionClosed && session.ClosingAmount != nil {
		closing := *session.ClosingAmount
		difference := closing.Sub(report.ExpectedAmount)
		report.ClosingAmount = &closing
		report.Difference = &difference
	}
	return report, nil
}
