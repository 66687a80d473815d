package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"poscore/internal/model"
)

// DebtFilter narrows ListByCounterparty.
type DebtFilter struct {
	Side     model.DebtSide
	Statuses []model.DebtStatus
}

// DebtRepository owns DebtAccount and DebtPayment rows. The *Tx variants run
// inside a caller-owned transaction so that payment application and credit
// recomputation against the same counterparty serialize on row locks.
type DebtRepository interface {
	Create(ctx context.Context, d *model.DebtAccount) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DebtAccount, error)
	ListByCounterparty(ctx context.Context, counterpartyID uuid.UUID, f DebtFilter) ([]model.DebtAccount, error)
	ListPayments(ctx context.Context, debtID uuid.UUID) ([]model.DebtPayment, error)
	// OutstandingTotal sums remaining amounts over all non-paid debts of one side.
	OutstandingTotal(ctx context.Context, side model.DebtSide) (decimal.Decimal, error)

	CreateTx(tx *gorm.DB, d *model.DebtAccount) error
	FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.DebtAccount, error)
	// ListByIDsForUpdate locks and returns the given debts ordered by due
	// date ascending (oldest obligation first).
	ListByIDsForUpdate(tx *gorm.DB, ids []uuid.UUID) ([]model.DebtAccount, error)
	UpdateTx(tx *gorm.DB, d *model.DebtAccount) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	CreatePaymentTx(tx *gorm.DB, p *model.DebtPayment) error
	// SumRemainingReceivables resums a customer's non-paid receivables from
	// source rows; the caller holds the customer row lock.
	SumRemainingReceivables(tx *gorm.DB, customerID uuid.UUID) (decimal.Decimal, error)

	DB() *gorm.DB
}

type debtRepo struct{ db *gorm.DB }

func NewDebtRepository(db *gorm.DB) DebtRepository { return &debtRepo{db: db} }

func (r *debtRepo) DB() *gorm.DB { return r.db }

func (r *debtRepo) Create(ctx context.Context, d *model.DebtAccount) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *debtRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.DebtAccount, error) {
	var d model.DebtAccount
	err := r.db.WithContext(ctx).Preload("Payments").First(&d, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *debtRepo) ListByCounterparty(ctx context.Context, counterpartyID uuid.UUID, f DebtFilter) ([]model.DebtAccount, error) {
	q := r.db.WithContext(ctx).Where("counterparty_id = ?", counterpartyID)
	if f.Side != "" {
		q = q.Where("side = ?", f.Side)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	var debts []model.DebtAccount
	err := q.Order("due_date ASC").Find(&debts).Error
	return debts, err
}

func (r *debtRepo) ListPayments(ctx context.Context, debtID uuid.UUID) ([]model.DebtPayment, error) {
	var ps []model.DebtPayment
	err := r.db.WithContext(ctx).
		Where("debt_account_id = ?", debtID).
		Order("created_at ASC").
		Find(&ps).Error
	return ps, err
}

func (r *debtRepo) OutstandingTotal(ctx context.Context, side model.DebtSide) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.DebtAccount{}).
		Select("COALESCE(SUM(original_amount - paid_amount), 0)").
		Where("side = ? AND status <> ?", side, model.DebtPaid).
		Scan(&total).Error
	return total, err
}

func (r *debtRepo) CreateTx(tx *gorm.DB, d *model.DebtAccount) error {
	return tx.Create(d).Error
}

func (r *debtRepo) FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.DebtAccount, error) {
	var d model.DebtAccount
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&d, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *debtRepo) ListByIDsForUpdate(tx *gorm.DB, ids []uuid.UUID) ([]model.DebtAccount, error) {
	var debts []model.DebtAccount
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("due_date ASC").
		Find(&debts).Error
	return debts, err
}

func (r *debtRepo) UpdateTx(tx *gorm.DB, d *model.DebtAccount) error {
	return tx.Save(d).Error
}

func (r *debtRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.DebtAccount{}, "id = ?", id).Error
}

func (r *debtRepo) CreatePaymentTx(tx *gorm.DB, p *model.DebtPayment) error {
	return tx.Create(p).Error
}

func (r *debtRepo) SumRemainingReceivables(tx *gorm.DB, customerID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(&model.DebtAccount{}).
		Select("COALESCE(SUM(original_amount - paid_amount), 0)").
		Where("counterparty_id = ? AND side = ? AND status <> ?",
			customerID, model.SideReceivable, model.DebtPaid).
		Scan(&total).Error
	return total, err
}
