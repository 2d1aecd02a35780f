package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"psheikomaniac/club-ledger/internal/models"
	"psheikomaniac/club-ledger/internal/store"
)

var log = logrus.New()

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// DueStatus is the caller-chosen state of a directly recorded due payment.
// Dues recorded this way are either settled immediately or exempt; there is
// no partial state at creation.
type DueStatus string

const (
	DueStatusPaid   DueStatus = "paid"
	DueStatusExempt DueStatus = "exempt"
)

// ChangeEvent describes a committed ledger mutation. Listeners receive it
// after the transaction has committed, decoupled from any transport.
type ChangeEvent struct {
	Op       string
	Kind     models.DebtKind
	MemberID string
}

// recordSource is the read surface needed to assemble a MemberLedger.
// Both *store.Store and *store.Tx satisfy it, so balances can be derived
// inside or outside a transaction.
type recordSource interface {
	ListPaymentsByMember(ctx context.Context, memberID string) ([]models.Payment, error)
	ListFinesByMember(ctx context.Context, memberID string) ([]models.Fine, error)
	ListDuePaymentsByMember(ctx context.Context, memberID string) ([]models.DuePayment, error)
	ListConsumptionsByMember(ctx context.Context, memberID string) ([]models.BeverageConsumption, error)
	ListDues(ctx context.Context) ([]models.Due, error)
}

// Service exposes the ledger operations. Every mutation runs as one store
// transaction that also keeps the member's cached balance mirror in
// lock-step with the derived formula.
type Service struct {
	store *store.Store
	now   func() time.Time

	mu        sync.Mutex
	listeners []func(ChangeEvent)
}

// NewService creates a ledger service on top of the given store.
func NewService(st *store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// Subscribe registers a listener invoked after each committed mutation.
func (s *Service) Subscribe(fn func(ChangeEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) notify(ev ChangeEvent) {
	s.mu.Lock()
	listeners := make([]func(ChangeEvent), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// withTx runs fn in a store transaction and maps exhausted-retry conflicts
// to TransientWriteError.
func (s *Service) withTx(ctx context.Context, fn func(tx *store.Tx) error) error {
	err := s.store.WithTx(ctx, fn)
	if errors.Is(err, store.ErrConflict) {
		return &TransientWriteError{Err: err}
	}
	return err
}

// LoadMemberLedger assembles the complete record set of one member.
func LoadMemberLedger(ctx context.Context, src recordSource, memberID string) (MemberLedger, error) {
	var l MemberLedger
	var err error

	if l.Payments, err = src.ListPaymentsByMember(ctx, memberID); err != nil {
		return l, err
	}
	if l.Fines, err = src.ListFinesByMember(ctx, memberID); err != nil {
		return l, err
	}
	if l.DuePayments, err = src.ListDuePaymentsByMember(ctx, memberID); err != nil {
		return l, err
	}
	if l.Consumptions, err = src.ListConsumptionsByMember(ctx, memberID); err != nil {
		return l, err
	}

	dues, err := src.ListDues(ctx)
	if err != nil {
		return l, err
	}
	l.Dues = make(map[string]models.Due, len(dues))
	for _, d := range dues {
		l.Dues[d.ID] = d
	}

	return l, nil
}

// CreateMember creates a new member with a zero balance.
func (s *Service) CreateMember(ctx context.Context, name, nickname string) (*models.Member, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	member := models.Member{
		ID:        uuid.NewString(),
		Name:      name,
		Nickname:  nickname,
		Active:    true,
		Balance:   decimal.Zero,
		CreatedAt: s.now().UTC(),
	}

	err := s.withTx(ctx, func(tx *store.Tx) error {
		existing, err := tx.GetMemberByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return &ValidationError{Field: "name", Reason: "member already exists"}
		}
		return tx.InsertMember(ctx, member)
	})
	if err != nil {
		return nil, err
	}

	log.WithField("member", member.Name).Info("Created member")
	return &member, nil
}

// CreateFine creates a fine for a member. The auto-payment allocator runs
// against the member's balance derived inside the same transaction, so a
// concurrent mutation cannot slip between the read and the write.
func (s *Service) CreateFine(ctx context.Context, memberID, reason string, amount decimal.Decimal, date time.Time) (*models.Fine, error) {
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Reason: "must not be empty"}
	}

	var fine models.Fine
	err := s.withTx(ctx, func(tx *store.Tx) error {
		member, err := tx.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return &NotFoundError{Kind: "member", ID: memberID}
		}

		l, err := LoadMemberLedger(ctx, tx, memberID)
		if err != nil {
			return err
		}
		balance := Calculate(l)

		alloc, err := Allocate(amount, balance, s.now())
		if err != nil {
			return err
		}

		fine = models.Fine{
			DebtDetails: models.DebtDetails{
				ID:         uuid.NewString(),
				MemberID:   memberID,
				Amount:     amount,
				Paid:       alloc.Paid,
				AmountPaid: alloc.AmountPaid,
				PaidAt:     alloc.PaidAt,
				CreatedAt:  s.now().UTC(),
			},
			Reason: reason,
			Date:   date,
		}

		if err := tx.InsertFine(ctx, fine); err != nil {
			return err
		}
		return tx.UpdateMemberBalance(ctx, memberID, balance.Sub(fine.Outstanding()))
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"member": memberID,
		"amount": amount.StringFixed(2),
		"paid":   fine.Paid,
	}).Info("Created fine")
	s.notify(ChangeEvent{Op: "create", Kind: models.KindFine, MemberID: memberID})
	return &fine, nil
}

// CreateDuePayment records a member's instance of a due. The caller chooses
// paid or exempt explicitly; the numeric allocator is bypassed.
func (s *Service) CreateDuePayment(ctx context.Context, memberID, dueID string, status DueStatus) (*models.DuePayment, error) {
	if status != DueStatusPaid && status != DueStatusExempt {
		return nil, &ValidationError{Field: "status", Reason: "must be paid or exempt"}
	}

	var duePayment models.DuePayment
	err := s.withTx(ctx, func(tx *store.Tx) error {
		member, err := tx.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return &NotFoundError{Kind: "member", ID: memberID}
		}

		due, err := tx.GetDue(ctx, dueID)
		if err != nil {
			return err
		}
		if due == nil {
			return &NotFoundError{Kind: "due", ID: dueID}
		}

		duePayment = models.DuePayment{
			DebtDetails: models.DebtDetails{
				ID:        uuid.NewString(),
				MemberID:  memberID,
				Amount:    due.Amount,
				CreatedAt: s.now().UTC(),
			},
			DueID: dueID,
		}
		if status == DueStatusPaid {
			paidAmount := due.Amount
			paidAt := s.now()
			duePayment.Paid = true
			duePayment.AmountPaid = &paidAmount
			duePayment.PaidAt = &paidAt
		} else {
			duePayment.Exempt = true
		}

		// A paid or exempt due payment contributes nothing to the derived
		// balance, so the cached mirror stays untouched.
		return tx.InsertDuePayment(ctx, duePayment)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ChangeEvent{Op: "create", Kind: models.KindDuePayment, MemberID: memberID})
	return &duePayment, nil
}

// CreateBeverageConsumption records a drink against a member, pricing it
// from the beverage catalog and running the auto-payment allocator.
func (s *Service) CreateBeverageConsumption(ctx context.Context, memberID, beverageID string, date time.Time) (*models.BeverageConsumption, error) {
	var consumption models.BeverageConsumption
	err := s.withTx(ctx, func(tx *store.Tx) error {
		member, err := tx.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return &NotFoundError{Kind: "member", ID: memberID}
		}

		beverage, err := tx.GetBeverage(ctx, beverageID)
		if err != nil {
			return err
		}
		if beverage == nil {
			return &NotFoundError{Kind: "beverage", ID: beverageID}
		}

		l, err := LoadMemberLedger(ctx, tx, memberID)
		if err != nil {
			return err
		}
		balance := Calculate(l)

		alloc, err := Allocate(beverage.Price, balance, s.now())
		if err != nil {
			return err
		}

		consumption = models.BeverageConsumption{
			DebtDetails: models.DebtDetails{
				ID:         uuid.NewString(),
				MemberID:   memberID,
				Amount:     beverage.Price,
				Paid:       alloc.Paid,
				AmountPaid: alloc.AmountPaid,
				PaidAt:     alloc.PaidAt,
				CreatedAt:  s.now().UTC(),
			},
			BeverageID: beverageID,
			Category:   beverage.Category,
			Date:       date,
		}

		if err := tx.InsertConsumption(ctx, consumption); err != nil {
			return err
		}
		return tx.UpdateMemberBalance(ctx, memberID, balance.Sub(consumption.Outstanding()))
	})
	if err != nil {
		return nil, err
	}

	s.notify(ChangeEvent{Op: "create", Kind: models.KindBeverage, MemberID: memberID})
	return &consumption, nil
}

// CreatePayment records a credit for a member and raises the cached balance.
func (s *Service) CreatePayment(ctx context.Context, memberID string, amount decimal.Decimal, description string, date time.Time) (*models.Payment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}

	payment := models.Payment{
		ID:          uuid.NewString(),
		MemberID:    memberID,
		Amount:      amount,
		Description: description,
		Date:        date,
		CreatedAt:   s.now().UTC(),
	}

	err := s.withTx(ctx, func(tx *store.Tx) error {
		member, err := tx.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return &NotFoundError{Kind: "member", ID: memberID}
		}

		if err := tx.InsertPayment(ctx, payment); err != nil {
			return err
		}
		return tx.UpdateMemberBalance(ctx, memberID, member.Balance.Add(amount))
	})
	if err != nil {
		return nil, err
	}

	s.notify(ChangeEvent{Op: "create", Kind: models.KindPayment, MemberID: memberID})
	return &payment, nil
}

// loadDebt fetches one debt record as its shared shape plus the due-only
// exempt flag.
func loadDebt(ctx context.Context, tx *store.Tx, kind models.DebtKind, debtID string) (*models.DebtDetails, bool, error) {
	switch kind {
	case models.KindFine:
		f, err := tx.GetFine(ctx, debtID)
		if err != nil || f == nil {
			return nil, false, err
		}
		return &f.DebtDetails, false, nil
	case models.KindDuePayment:
		dp, err := tx.GetDuePayment(ctx, debtID)
		if err != nil || dp == nil {
			return nil, false, err
		}
		return &dp.DebtDetails, dp.Exempt, nil
	case models.KindBeverage:
		c, err := tx.GetConsumption(ctx, debtID)
		if err != nil || c == nil {
			return nil, false, err
		}
		return &c.DebtDetails, false, nil
	default:
		return nil, false, &ValidationError{Field: "kind", Reason: "unknown debt kind"}
	}
}

// Toggle flips a debt between paid and unpaid in one atomic transaction.
// Turning on always satisfies the debt in full. Turning off reverses it
// completely: the partial amount that existed before the paid transition is
// not retained, so amountPaid goes back to null.
func (s *Service) Toggle(ctx context.Context, kind models.DebtKind, debtID string, targetPaid bool) (*models.DebtDetails, error) {
	if kind == models.KindPayment {
		return nil, &InvalidOperationError{Operation: "toggle", Reason: "payments are immutable credits"}
	}

	var updated models.DebtDetails
	err := s.withTx(ctx, func(tx *store.Tx) error {
		debt, exempt, err := loadDebt(ctx, tx, kind, debtID)
		if err != nil {
			return err
		}
		if debt == nil {
			return &NotFoundError{Kind: string(kind), ID: debtID}
		}
		if exempt {
			return &InvalidOperationError{Operation: "toggle", Reason: "due payment is exempt"}
		}

		priorOutstanding := debt.Outstanding()

		updated = *debt
		if targetPaid {
			paidAmount := debt.Amount
			paidAt := s.now()
			updated.Paid = true
			updated.AmountPaid = &paidAmount
			updated.PaidAt = &paidAt
		} else {
			updated.Paid = false
			updated.AmountPaid = nil
			updated.PaidAt = nil
		}

		if err := tx.UpdateDebtStatus(ctx, kind, debtID, updated.Paid, updated.AmountPaid, updated.PaidAt); err != nil {
			return err
		}

		delta := priorOutstanding.Sub(updated.Outstanding())
		if delta.IsZero() {
			return nil
		}
		member, err := tx.GetMember(ctx, debt.MemberID)
		if err != nil {
			return err
		}
		if member == nil {
			return &NotFoundError{Kind: "member", ID: debt.MemberID}
		}
		return tx.UpdateMemberBalance(ctx, member.ID, member.Balance.Add(delta))
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"kind": kind,
		"debt": debtID,
		"paid": targetPaid,
	}).Info("Toggled debt")
	s.notify(ChangeEvent{Op: "toggle", Kind: kind, MemberID: updated.MemberID})
	return &updated, nil
}

// ApplyAdditionalPayment applies an incremental payment toward a debt and
// marks it paid once the accumulated amount covers what is owed.
func (s *Service) ApplyAdditionalPayment(ctx context.Context, kind models.DebtKind, debtID string, amount decimal.Decimal) (*models.DebtDetails, error) {
	if kind == models.KindPayment {
		return nil, &InvalidOperationError{Operation: "apply-payment", Reason: "payments are immutable credits"}
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}

	var updated models.DebtDetails
	err := s.withTx(ctx, func(tx *store.Tx) error {
		debt, exempt, err := loadDebt(ctx, tx, kind, debtID)
		if err != nil {
			return err
		}
		if debt == nil {
			return &NotFoundError{Kind: string(kind), ID: debtID}
		}
		if exempt {
			return &InvalidOperationError{Operation: "apply-payment", Reason: "due payment is exempt"}
		}
		if debt.Paid {
			return &InvalidOperationError{Operation: "apply-payment", Reason: "debt is already fully paid"}
		}

		priorOutstanding := debt.Outstanding()

		accumulated := amount
		if debt.AmountPaid != nil {
			accumulated = accumulated.Add(*debt.AmountPaid)
		}

		updated = *debt
		if accumulated.GreaterThanOrEqual(debt.Amount) {
			// Overpayment is capped at the debt amount so the invariant
			// amountPaid <= amount holds.
			paidAmount := debt.Amount
			paidAt := s.now()
			updated.Paid = true
			updated.AmountPaid = &paidAmount
			updated.PaidAt = &paidAt
		} else {
			updated.AmountPaid = &accumulated
		}

		if err := tx.UpdateDebtStatus(ctx, kind, debtID, updated.Paid, updated.AmountPaid, updated.PaidAt); err != nil {
			return err
		}

		delta := priorOutstanding.Sub(updated.Outstanding())
		member, err := tx.GetMember(ctx, debt.MemberID)
		if err != nil {
			return err
		}
		if member == nil {
			return &NotFoundError{Kind: "member", ID: debt.MemberID}
		}
		return tx.UpdateMemberBalance(ctx, member.ID, member.Balance.Add(delta))
	})
	if err != nil {
		return nil, err
	}

	s.notify(ChangeEvent{Op: "apply-payment", Kind: kind, MemberID: updated.MemberID})
	return &updated, nil
}

// DeleteDebt removes a debt record and restores its outstanding amount into
// the member's cached balance.
func (s *Service) DeleteDebt(ctx context.Context, kind models.DebtKind, debtID string) error {
	if kind == models.KindPayment {
		return &InvalidOperationError{Operation: "delete", Reason: "payments are immutable credits"}
	}

	var memberID string
	err := s.withTx(ctx, func(tx *store.Tx) error {
		debt, _, err := loadDebt(ctx, tx, kind, debtID)
		if err != nil {
			return err
		}
		if debt == nil {
			return &NotFoundError{Kind: string(kind), ID: debtID}
		}
		memberID = debt.MemberID

		if err := tx.DeleteDebt(ctx, kind, debtID); err != nil {
			return err
		}

		outstanding := debt.Outstanding()
		if outstanding.IsZero() {
			return nil
		}
		member, err := tx.GetMember(ctx, debt.MemberID)
		if err != nil {
			return err
		}
		if member == nil {
			return &NotFoundError{Kind: "member", ID: debt.MemberID}
		}
		return tx.UpdateMemberBalance(ctx, member.ID, member.Balance.Add(outstanding))
	})
	if err != nil {
		return err
	}

	s.notify(ChangeEvent{Op: "delete", Kind: kind, MemberID: memberID})
	return nil
}

// ComputeBalance derives a member's balance from the ledger. The cached
// mirror is never consulted.
func (s *Service) ComputeBalance(ctx context.Context, memberID string) (decimal.Decimal, error) {
	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return decimal.Zero, err
	}
	if member == nil {
		return decimal.Zero, &NotFoundError{Kind: "member", ID: memberID}
	}

	l, err := LoadMemberLedger(ctx, s.store, memberID)
	if err != nil {
		return decimal.Zero, err
	}
	return Calculate(l), nil
}

// RecomputeAllBalances rebuilds every member's cached balance from the
// ledger and reports how many caches had diverged. Intended for one-off
// reconciliation and migrations.
func (s *Service) RecomputeAllBalances(ctx context.Context) (int, error) {
	var updated int
	err := s.withTx(ctx, func(tx *store.Tx) error {
		members, err := tx.ListMembers(ctx)
		if err != nil {
			return err
		}

		for _, m := range members {
			l, err := LoadMemberLedger(ctx, tx, m.ID)
			if err != nil {
				return err
			}
			balance := Calculate(l)
			if balance.Equal(m.Balance) {
				continue
			}
			if err := tx.UpdateMemberBalance(ctx, m.ID, balance); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.WithField("count", updated).Info("Recomputed member balances")
	return updated, nil
}
