package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"poscore/internal/model"
)

// MethodTotal is one aggregation bucket of a session's sales: kind plus
// payment method.
type MethodTotal struct {
	Kind   model.SaleKind
	Method model.PaymentMethod
	Total  decimal.Decimal
	Count  int64
}

// SaleRepository reads the sale records the sales collaborator writes.
// Create exists for that collaborator and for seeding; the core itself only
// ever updates a sale during the administrative orphan repair.
type SaleRepository interface {
	Create(ctx context.Context, s *model.SaleRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SaleRecord, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.SaleRecord, error)
	ListOrphans(ctx context.Context) ([]model.SaleRecord, error)
	AttachSession(ctx context.Context, saleID, sessionID uuid.UUID) error
	MethodTotals(ctx context.Context, sessionID uuid.UUID) ([]MethodTotal, error)
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) Create(ctx context.Context, s *model.SaleRecord) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SaleRecord, error) {
	var s model.SaleRecord
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.SaleRecord, error) {
	var sales []model.SaleRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) ListOrphans(ctx context.Context) ([]model.SaleRecord, error) {
	var sales []model.SaleRecord
	err := r.db.WithContext(ctx).
		Where("session_id IS NULL").
		Order("created_at ASC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) AttachSession(ctx context.Context, saleID, sessionID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.SaleRecord{}).
		Where("id = ?", saleID).
		Update("session_id", sessionID).Error
}

func (r *saleRepo) MethodTotals(ctx context.Context, sessionID uuid.UUID) ([]MethodTotal, error) {
	var rows []MethodTotal
	err := r.db.WithContext(ctx).Model(&model.SaleRecord{}).
		Select("kind, payment_method AS method, COALESCE(SUM(total), 0) AS total, COUNT(*) AS count").
		Where("session_id = ?", sessionID).
		Group("kind, payment_method").
		Scan(&rows).Error
	return rows, err
}
