package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"poscore/internal/model"
)

type SessionRepository interface {
	Create(ctx context.Context, s *model.CashSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	// FindOpenByOperatorAndDay returns nil, nil when no open session exists.
	FindOpenByOperatorAndDay(ctx context.Context, operatorID uuid.UUID, day time.Time) (*model.CashSession, error)
	// FindByOperatorAt returns the session (open or since closed) that
	// covered the operator's drawer at the given instant, or nil, nil.
	FindByOperatorAt(ctx context.Context, operatorID uuid.UUID, at time.Time) (*model.CashSession, error)
	// CloseIfOpen persists closing figures only if the stored status is still
	// open, reporting whether the optimistic write won.
	CloseIfOpen(ctx context.Context, id uuid.UUID, expected, closing, difference decimal.Decimal, closedAt time.Time) (bool, error)
	// Totals sums the session's cash inflows and withdrawals fresh; nothing
	// here is read from cached columns.
	Totals(ctx context.Context, sessionID uuid.UUID) (model.SessionTotals, error)
	List(ctx context.Context, from, to time.Time, page, limit int) ([]model.CashSession, int64, error)

	CreateWithdrawal(ctx context.Context, w *model.CashWithdrawal) error
	ListWithdrawals(ctx context.Context, sessionID uuid.UUID) ([]model.CashWithdrawal, error)
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) Create(ctx context.Context, s *model.CashSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).Preload("Withdrawals").First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindOpenByOperatorAndDay(ctx context.Context, operatorID uuid.UUID, day time.Time) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("operator_id = ? AND status = ? AND date(opened_at) = date(?)", operatorID, model.SessionOpen, day).
		First(&s).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindByOperatorAt(ctx context.Context, operatorID uuid.UUID, at time.Time) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("operator_id = ? AND opened_at <= ? AND (closed_at IS NULL OR closed_at >= ?)", operatorID, at, at).
		Order("opened_at DESC").
		First(&s).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) CloseIfOpen(ctx context.Context, id uuid.UUID, expected, closing, difference decimal.Decimal, closedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.CashSession{}).
		Where("id = ? AND status = ?", id, model.SessionOpen).
		Updates(map[string]interface{}{
			"status":          model.SessionClosed,
			"expected_amount": expected,
			"closing_amount":  closing,
			"difference":      difference,
			"closed_at":       closedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *sessionRepo) Totals(ctx context.Context, sessionID uuid.UUID) (model.SessionTotals, error) {
	var t model.SessionTotals

	type row struct {
		Kind  model.SaleKind
		Total decimal.Decimal
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.SaleRecord{}).
		Select("kind, COALESCE(SUM(total), 0) AS total").
		Where("session_id = ? AND payment_method = ?", sessionID, model.MethodCash).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return t, err
	}
	for _, rw := range rows {
		switch rw.Kind {
		case model.SaleNormal:
			t.CashSales = rw.Total
		case model.SaleDebtPayment:
			t.CashDebtPayments = rw.Total
		}
	}

	err = r.db.WithContext(ctx).Model(&model.CashWithdrawal{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("session_id = ?", sessionID).
		Scan(&t.Withdrawals).Error
	return t, err
}

func (r *sessionRepo) List(ctx context.Context, from, to time.Time, page, limit int) ([]model.CashSession, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.CashSession{})
	if !from.IsZero() {
		q = q.Where("opened_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("opened_at < ?", to)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var sessions []model.CashSession
	err := q.Order("opened_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&sessions).Error
	return sessions, total, err
}

func (r *sessionRepo) CreateWithdrawal(ctx context.Context, w *model.CashWithdrawal) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *sessionRepo) ListWithdrawals(ctx context.Context, sessionID uuid.UUID) ([]model.CashWithdrawal, error) {
	var ws []model.CashWithdrawal
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&ws).Error
	return ws, err
}
