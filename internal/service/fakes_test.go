package service_test

// In-memory repositories backing the service unit tests. They honor the same
// contracts the gorm implementations do, including gorm.ErrRecordNotFound on
// missing rows and nil, nil lookups where the interface documents them.

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"poscore/internal/auth"
	"poscore/internal/fault"
	"poscore/internal/model"
	"poscore/internal/repository"
)

// ── Sales ────────────────────────────────────────────────────────────────────

type fakeSaleRepo struct {
	sales []model.SaleRecord
}

func (r *fakeSaleRepo) Create(_ context.Context, s *model.SaleRecord) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sales = append(r.sales, *s)
	return nil
}

func (r *fakeSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.SaleRecord, error) {
	for i := range r.sales {
		if r.sales[i].ID == id {
			cp := r.sales[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSaleRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.SaleRecord, error) {
	var out []model.SaleRecord
	for _, s := range r.sales {
		if s.SessionID != nil && *s.SessionID == sessionID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSaleRepo) ListOrphans(_ context.Context) ([]model.SaleRecord, error) {
	var out []model.SaleRecord
	for _, s := range r.sales {
		if s.SessionID == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSaleRepo) AttachSession(_ context.Context, saleID, sessionID uuid.UUID) error {
	for i := range r.sales {
		if r.sales[i].ID == saleID {
			id := sessionID
			r.sales[i].SessionID = &id
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeSaleRepo) MethodTotals(_ context.Context, sessionID uuid.UUID) ([]repository.MethodTotal, error) {
	type key struct {
		kind   model.SaleKind
		method model.PaymentMethod
	}
	buckets := map[key]*repository.MethodTotal{}
	var order []key
	for _, s := range r.sales {
		if s.SessionID == nil || *s.SessionID != sessionID {
			continue
		}
		k := key{s.Kind, s.PaymentMethod}
		b, ok := buckets[k]
		if !ok {
			b = &repository.MethodTotal{Kind: s.Kind, Method: s.PaymentMethod}
			buckets[k] = b
			order = append(order, k)
		}
		b.Total = b.Total.Add(s.Total)
		b.Count++
	}
	out := make([]repository.MethodTotal, 0, len(order))
	for _, k := range order {
		out = append(out, *buckets[k])
	}
	return out, nil
}

// ── Sessions ─────────────────────────────────────────────────────────────────

type fakeSessionRepo struct {
	sessions    map[uuid.UUID]*model.CashSession
	withdrawals []model.CashWithdrawal
	sales       *fakeSaleRepo
}

func newFakeSessionRepo(sales *fakeSaleRepo) *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions: make(map[uuid.UUID]*model.CashSession),
		sales:    sales,
	}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *model.CashSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) FindOpenByOperatorAndDay(_ context.Context, operatorID uuid.UUID, day time.Time) (*model.CashSession, error) {
	for _, s := range r.sessions {
		if s.OperatorID == operatorID && s.Status == model.SessionOpen &&
			model.DateOnly(s.OpenedAt).Equal(model.DateOnly(day)) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindByOperatorAt(_ context.Context, operatorID uuid.UUID, at time.Time) (*model.CashSession, error) {
	var best *model.CashSession
	for _, s := range r.sessions {
		if s.OperatorID != operatorID || s.OpenedAt.After(at) {
			continue
		}
		if s.ClosedAt != nil && s.ClosedAt.Before(at) {
			continue
		}
		if best == nil || s.OpenedAt.After(best.OpenedAt) {
			best = s
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (r *fakeSessionRepo) CloseIfOpen(_ context.Context, id uuid.UUID, expected, closing, difference decimal.Decimal, closedAt time.Time) (bool, error) {
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionOpen {
		return false, nil
	}
	s.Status = model.SessionClosed
	s.ExpectedAmount = &expected
	s.ClosingAmount = &closing
	s.Difference = &difference
	s.ClosedAt = &closedAt
	return true, nil
}

func (r *fakeSessionRepo) Totals(_ context.Context, sessionID uuid.UUID) (model.SessionTotals, error) {
	var t model.SessionTotals
	for _, s := range r.sales.sales {
		if s.SessionID == nil || *s.SessionID != sessionID || s.PaymentMethod != model.MethodCash {
			continue
		}
		switch s.Kind {
		case model.SaleDebtPayment:
			t.CashDebtPayments = t.CashDebtPayments.Add(s.Total)
		default:
			t.CashSales = t.CashSales.Add(s.Total)
		}
	}
	for _, w := range r.withdrawals {
		if w.SessionID == sessionID {
			t.Withdrawals = t.Withdrawals.Add(w.Amount)
		}
	}
	return t, nil
}

func (r *fakeSessionRepo) List(_ context.Context, from, to time.Time, page, limit int) ([]model.CashSession, int64, error) {
	var all []model.CashSession
	for _, s := range r.sessions {
		if !from.IsZero() && s.OpenedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !s.OpenedAt.Before(to) {
			continue
		}
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].OpenedAt.After(all[j].OpenedAt) })
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *fakeSessionRepo) CreateWithdrawal(_ context.Context, w *model.CashWithdrawal) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	r.withdrawals = append(r.withdrawals, *w)
	return nil
}

func (r *fakeSessionRepo) ListWithdrawals(_ context.Context, sessionID uuid.UUID) ([]model.CashWithdrawal, error) {
	var out []model.CashWithdrawal
	for _, w := range r.withdrawals {
		if w.SessionID == sessionID {
			out = append(out, w)
		}
	}
	return out, nil
}

// ── Debts ────────────────────────────────────────────────────────────────────

type fakeDebtRepo struct {
	debts    map[uuid.UUID]*model.DebtAccount
	payments []model.DebtPayment
}

func newFakeDebtRepo() *fakeDebtRepo {
	return &fakeDebtRepo{debts: make(map[uuid.UUID]*model.DebtAccount)}
}

func (r *fakeDebtRepo) DB() *gorm.DB { return nil }

func (r *fakeDebtRepo) Create(_ context.Context, d *model.DebtAccount) error {
	return r.CreateTx(nil, d)
}

func (r *fakeDebtRepo) CreateTx(_ *gorm.DB, d *model.DebtAccount) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	cp := *d
	r.debts[d.ID] = &cp
	return nil
}

func (r *fakeDebtRepo) FindByID(_ context.Context, id uuid.UUID) (*model.DebtAccount, error) {
	d, ok := r.debts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	cp.Payments = nil
	for _, p := range r.payments {
		if p.DebtAccountID == id {
			cp.Payments = append(cp.Payments, p)
		}
	}
	return &cp, nil
}

func (r *fakeDebtRepo) ListByCounterparty(_ context.Context, counterpartyID uuid.UUID, f repository.DebtFilter) ([]model.DebtAccount, error) {
	var out []model.DebtAccount
	for _, d := range r.debts {
		if d.CounterpartyID != counterpartyID {
			continue
		}
		if f.Side != "" && d.Side != f.Side {
			continue
		}
		if len(f.Statuses) > 0 {
			match := false
			for _, st := range f.Statuses {
				if d.Status == st {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *fakeDebtRepo) ListPayments(_ context.Context, debtID uuid.UUID) ([]model.DebtPayment, error) {
	var out []model.DebtPayment
	for _, p := range r.payments {
		if p.DebtAccountID == debtID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeDebtRepo) OutstandingTotal(_ context.Context, side model.DebtSide) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, d := range r.debts {
		if d.Side == side && d.Status != model.DebtPaid {
			total = total.Add(d.RemainingAmount())
		}
	}
	return total, nil
}

func (r *fakeDebtRepo) FindByIDForUpdate(_ *gorm.DB, id uuid.UUID) (*model.DebtAccount, error) {
	d, ok := r.debts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDebtRepo) ListByIDsForUpdate(_ *gorm.DB, ids []uuid.UUID) ([]model.DebtAccount, error) {
	var out []model.DebtAccount
	for _, id := range ids {
		if d, ok := r.debts[id]; ok {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *fakeDebtRepo) UpdateTx(_ *gorm.DB, d *model.DebtAccount) error {
	cp := *d
	r.debts[d.ID] = &cp
	return nil
}

func (r *fakeDebtRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.debts, id)
	return nil
}

func (r *fakeDebtRepo) CreatePaymentTx(_ *gorm.DB, p *model.DebtPayment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.payments = append(r.payments, *p)
	return nil
}

func (r *fakeDebtRepo) SumRemainingReceivables(_ *gorm.DB, customerID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, d := range r.debts {
		if d.CounterpartyID == customerID && d.Side == model.SideReceivable && d.Status != model.DebtPaid {
			total = total.Add(d.RemainingAmount())
		}
	}
	return total, nil
}

// ── Customers ────────────────────────────────────────────────────────────────

type fakeCustomerRepo struct {
	customers map[uuid.UUID]*model.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[uuid.UUID]*model.Customer)}
}

func (r *fakeCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.customers[c.ID] = c
	return nil
}

func (r *fakeCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCustomerRepo) FindByIDForUpdate(_ *gorm.DB, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCustomerRepo) UpdateCurrentDebtTx(_ *gorm.DB, id uuid.UUID, debt decimal.Decimal) error {
	c, ok := r.customers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.CurrentDebt = debt
	return nil
}

// ── Users ────────────────────────────────────────────────────────────────────

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Token verifier stub ──────────────────────────────────────────────────────

type stubVerifier struct {
	grant     *auth.Grant
	err       error
	wantScope auth.Scope
	lastToken string
}

func (v *stubVerifier) Verify(token string, scope auth.Scope) (*auth.Grant, error) {
	v.lastToken = token
	if v.err != nil {
		return nil, v.err
	}
	if v.wantScope != "" && scope != v.wantScope {
		return nil, fault.PermissionDenied("token not valid for %s", scope)
	}
	return v.grant, nil
}

// Compile-time contract checks.
var (
	_ repository.SaleRepository     = (*fakeSaleRepo)(nil)
	_ repository.SessionRepository  = (*fakeSessionRepo)(nil)
	_ repository.DebtRepository     = (*fakeDebtRepo)(nil)
	_ repository.CustomerRepository = (*fakeCustomerRepo)(nil)
	_ repository.UserRepository     = (*fakeUserRepo)(nil)
	_ auth.Verifier                 = (*stubVerifier)(nil)
)
