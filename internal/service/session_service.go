package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"poscore/internal/fault"
	"poscore/internal/model"
	"poscore/internal/repository"
)

// ReportDispatcher enqueues fire-and-forget delivery of a closed session's
// reconciliation report. Failures here never affect the close itself.
type ReportDispatcher interface {
	EnqueueReportPrint(ctx context.Context, sessionID uuid.UUID) error
}

// SessionService manages the drawer custody lifecycle: open, close, repair
// and history.
type SessionService interface {
	Open(ctx context.Context, operatorID uuid.UUID, openingFloat decimal.Decimal, now time.Time) (*model.CashSession, error)
	Close(ctx context.Context, sessionID uuid.UUID, declaredClosing decimal.Decimal, now time.Time) (*model.CashSession, error)
	// FindOpen returns nil, nil when the operator has no open session today.
	FindOpen(ctx context.Context, operatorID uuid.UUID, now time.Time) (*model.CashSession, error)
	// RepairAssociation attaches one orphan sale to the session that covered
	// its operator at sale time. It reports whether anything changed.
	RepairAssociation(ctx context.Context, saleID uuid.UUID) (bool, error)
	// RepairAll sweeps every orphan sale, returning repaired and skipped
	// counts.
	RepairAll(ctx context.Context) (repaired, skipped int, err error)
	History(ctx context.Context, from, to time.Time, page, limit int) ([]model.CashSession, int64, error)
}

type sessionService struct {
	sessions   repository.SessionRepository
	sales      repository.SaleRepository
	dispatcher ReportDispatcher
}

func NewSessionService(sessions repository.SessionRepository, sales repository.SaleRepository, dispatcher ReportDispatcher) SessionService {
	return &sessionService{sessions: sessions, sales: sales, dispatcher: dispatcher}
}

func (s *sessionService) Open(ctx context.Context, operatorID uuid.UUID, openingFloat decimal.Decimal, now time.Time) (*model.CashSession, error) {
	if openingFloat.IsNegative() {
		return nil, fault.Validation("opening float cannot be negative")
	}

	existing, err := s.sessions.FindOpenByOperatorAndDay(ctx, operatorID, now)
	if err != nil {
		return nil, fault.Internal(err)
	}
	if existing != nil {
		return nil, fault.Conflict("operator already has an open session today")
	}

	session := &model.CashSession{
		OperatorID:   operatorID,
		OpeningFloat: openingFloat,
		Status:       model.SessionOpen,
		OpenedAt:     now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		// The partial unique index backstops the check above under
		// concurrent opens.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fault.Conflict("operator already has an open session today")
		}
		return nil, fault.Internal(err)
	}

	log.Info().
		Str("session_id", session.ID.String()).
		Str("operator_id", operatorID.String()).
		Str("opening_float", openingFloat.String()).
		Msg("cash session opened")
	return session, nil
}

func (s *sessionService) Close(ctx context.Context, sessionID uuid.UUID, declaredClosing decimal.Decimal, now time.Time) (*model.CashSession, error) {
	if declaredClosing.IsNegative() {
		return nil, fault.Validation("declared closing amount cannot be negative")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.NotFound("session %s not found", sessionID)
		}
		return nil, fault.Internal(err)
	}
	if session.Status == model.SessionClosed {
		return nil, fault.Conflict("session %s is already closed", sessionID)
	}
	if session.Status != model.SessionOpen {
		return nil, fault.InvalidState("session %s is not open", sessionID)
	}

	totals, err := s.sessions.Totals(ctx, sessionID)
	if err != nil {
		return nil, fault.Internal(err)
	}
	expected := totals.Expected(session.OpeningFloat)
	difference := declaredClosing.Sub(expected)

	won, err := s.sessions.CloseIfOpen(ctx, sessionID, expected, declaredClosing, difference, now)
	if err != nil {
		return nil, fault.Internal(err)
	}
	if !won {
		return nil, fault.Conflict("session %s was closed concurrently", sessionID)
	}

	session.Status = model.SessionClosed
	session.ExpectedAmount = &expected
	session.ClosingAmount = &declaredClosing
	session.Difference = &difference
	session.ClosedAt = &now

	log.Info().
		Str("session_id", sessionID.String()).
		Str("expected", expected.String()).
		Str("declared", declaredClosing.String()).
		Str("difference", difference.String()).
		Msg("cash session closed")

	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueReportPrint(ctx, sessionID); err != nil {
			log.Warn().Err(err).
				Str("session_id", sessionID.String()).
				Msg("could not enqueue reconciliation report job")
		}
	}
	return session, nil
}

func (s *sessionService) FindOpen(ctx context.Context, operatorID uuid.UUID, now time.Time) (*model.CashSession, error) {
	session, err := s.sessions.FindOpenByOperatorAndDay(ctx, operatorID, now)
	if err != nil {
		return nil, fault.Internal(err)
	}
	return session, nil
}

func (s *sessionService) RepairAssociation(ctx context.Context, saleID uuid.UUID) (bool, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fault.NotFound("sale %s not found", saleID)
		}
		return false, fault.Internal(err)
	}
	if sale.SessionID != nil {
		return false, nil
	}

	session, err := s.sessions.FindByOperatorAt(ctx, sale.OperatorID, sale.CreatedAt)
	if err != nil {
		return false, fault.Internal(err)
	}
	if session == nil {
		return false, nil
	}
	if err := s.sales.AttachSession(ctx, saleID, session.ID); err != nil {
		return false, fault.Internal(err)
	}

	log.Info().
		Str("sale_id", saleID.String()).
		Str("session_id", session.ID.String()).
		Msg("orphan sale attached to session")
	return true, nil
}

func (s *sessionService) RepairAll(ctx context.Context) (int, int, error) {
	orphans, err := s.sales.ListOrphans(ctx)
	if err != nil {
		return 0, 0, fault.Internal(err)
	}

	var repaired, skipped int
	for _, sale := range orphans {
		ok, err := s.RepairAssociation(ctx, sale.ID)
		if err != nil {
			return repaired, skipped, err
		}
		if ok {
			repaired++
		} else {
			skipped++
		}
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("orphan sales without a covering session remain")
	}
	return repaired, skipped, nil
}

func (s *sessionService) History(ctx context.Context, from, to time.Time, page, limit int) ([]model.CashSession, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	sessions, total, err := s.sessions.List(ctx, from, to, page, limit)
	if err != nil {
		return nil, 0, fault.Internal(err)
	}
	return sessions, total, nil
}
