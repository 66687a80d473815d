package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"poscore/internal/auth"
	"poscore/internal/dto"
	"poscore/internal/fault"
	"poscore/internal/model"
	"poscore/internal/repository"
)

// WithdrawalService records cash leaving the drawer. Every withdrawal is
// backed by an elevated principal: the requester's own role when elevated,
// otherwise a scoped capability token minted by a supervisor or admin.
type WithdrawalService interface {
	// Authorize resolves the authorizer of a withdrawal request and returns
	// their user ID. requesterRole short-circuits token verification for
	// elevated requesters acting on their own authority.
	Authorize(ctx context.Context, requesterID uuid.UUID, requesterRole model.Role, token string) (uuid.UUID, error)
	Record(ctx context.Context, cmd dto.RecordWithdrawalCommand, now time.Time) (*model.CashWithdrawal, error)
}

type withdrawalService struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	tokens   auth.Verifier
}

func NewWithdrawalService(sessions repository.SessionRepository, users repository.UserRepository, tokens auth.Verifier) WithdrawalService {
	return &withdrawalService{sessions: sessions, users: users, tokens: tokens}
}

func (s *withdrawalService) Authorize(ctx context.Context, requesterID uuid.UUID, requesterRole model.Role, token string) (uuid.UUID, error) {
	if requesterRole.Elevated() {
		return requesterID, nil
	}
	if token == "" {
		return uuid.Nil, fault.PermissionDenied("a supervisor or admin must authorize this withdrawal")
	}

	grant, err := s.tokens.Verify(token, auth.ScopeWithdrawal)
	if err != nil {
		return uuid.Nil, err
	}

	// The token carries the role it was minted with; re-check the principal
	// so a deactivated or demoted authorizer cannot ride out a token's TTL.
	user, err := s.users.FindByID(ctx, grant.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, fault.PermissionDenied("authorizing principal no longer exists")
		}
		return uuid.Nil, fault.Internal(err)
	}
	if !user.Active || !user.Role.Elevated() {
		return uuid.Nil, fault.PermissionDenied("authorizing principal lacks an elevated role")
	}
	return grant.UserID, nil
}

func (s *withdrawalService) Record(ctx context.Context, cmd dto.RecordWithdrawalCommand, now time.Time) (*model.CashWithdrawal, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	session, err := s.sessions.FindByID(ctx, cmd.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.NotFound("session %s not found", cmd.SessionID)
		}
		return nil, fault.Internal(err)
	}
	if session.Status != model.SessionOpen {
		return nil, fault.InvalidState("withdrawals require an open session")
	}

	w := &model.CashWithdrawal{
		SessionID:    cmd.SessionID,
		AuthorizerID: cmd.AuthorizerID,
		Amount:       cmd.Amount,
		Reason:       cmd.Reason,
		CreatedAt:    now,
	}
	if err := s.sessions.CreateWithdrawal(ctx, w); err != nil {
		return nil, fault.Internal(err)
	}

	log.Info().
		Str("withdrawal_id", w.ID.String()).
		Str("session_id", cmd.SessionID.String()).
		Str("authorizer_id", cmd.AuthorizerID.String()).
		Str("amount", cmd.Amount.String()).
		Str("reason", cmd.Reason).
		Msg("cash withdrawal recorded")
	return w, nil
}
