package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psheikomaniac/club-ledger/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func testMember(name string) models.Member {
	return models.Member{
		ID:        uuid.NewString(),
		Name:      name,
		Active:    true,
		Balance:   decimal.Zero,
		CreatedAt: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestMemberRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	member := testMember("Max")
	member.Nickname = "Maxi"
	member.Balance = decimal.RequireFromString("-12.50")
	require.NoError(t, st.InsertMember(ctx, member))

	loaded, err := st.GetMember(ctx, member.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, member.ID, loaded.ID)
	assert.Equal(t, "Max", loaded.Name)
	assert.Equal(t, "Maxi", loaded.Nickname)
	assert.True(t, loaded.Active)
	assert.True(t, member.Balance.Equal(loaded.Balance))
	assert.True(t, member.CreatedAt.Equal(loaded.CreatedAt))

	byName, err := st.GetMemberByName(ctx, "Max")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, member.ID, byName.ID)
}

func TestGetMemberMissingReturnsNil(t *testing.T) {
	st := newTestStore(t)

	member, err := st.GetMember(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, member)
}

func TestInsertMemberDuplicateNameFails(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.InsertMember(ctx, testMember("Max")))
	assert.Error(t, st.InsertMember(ctx, testMember("Max")))
}

func TestUpdateMemberBalance(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	member := testMember("Max")
	require.NoError(t, st.InsertMember(ctx, member))

	target := decimal.RequireFromString("7.25")
	require.NoError(t, st.UpdateMemberBalance(ctx, member.ID, target))

	loaded, err := st.GetMember(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, target.Equal(loaded.Balance))

	assert.Error(t, st.UpdateMemberBalance(ctx, "no-such-id", target))
}

func TestFineRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	member := testMember("Max")
	require.NoError(t, st.InsertMember(ctx, member))

	partial := decimal.RequireFromString("2.00")
	fine := models.Fine{
		DebtDetails: models.DebtDetails{
			ID:         uuid.NewString(),
			MemberID:   member.ID,
			Amount:     decimal.RequireFromString("5.00"),
			AmountPaid: &partial,
			CreatedAt:  time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		},
		Reason: "Late to training",
		Date:   time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.InsertFine(ctx, fine))

	loaded, err := st.GetFine(ctx, fine.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, "Late to training", loaded.Reason)
	assert.False(t, loaded.Paid)
	require.NotNil(t, loaded.AmountPaid)
	assert.True(t, partial.Equal(*loaded.AmountPaid))
	assert.Nil(t, loaded.PaidAt)
	assert.True(t, fine.Amount.Equal(loaded.Amount))
	assert.True(t, fine.Date.Equal(loaded.Date))

	listed, err := st.ListFinesByMember(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, fine.ID, listed[0].ID)
}

func TestUpdateDebtStatus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	member := testMember("Max")
	require.NoError(t, st.InsertMember(ctx, member))

	fine := models.Fine{
		DebtDetails: models.DebtDetails{
			ID:        uuid.NewString(),
			MemberID:  member.ID,
			Amount:    decimal.RequireFromString("5.00"),
			CreatedAt: time.Now().UTC(),
		},
		Reason: "Late to training",
		Date:   time.Now().UTC(),
	}
	require.NoError(t, st.InsertFine(ctx, fine))

	paidAmount := fine.Amount
	paidAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.UpdateDebtStatus(ctx, models.KindFine, fine.ID, true, &paidAmount, &paidAt))

	loaded, err := st.GetFine(ctx, fine.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Paid)
	require.NotNil(t, loaded.AmountPaid)
	assert.True(t, paidAmount.Equal(*loaded.AmountPaid))
	require.NotNil(t, loaded.PaidAt)
	assert.True(t, paidAt.Equal(*loaded.PaidAt))

	// Back to unpaid with cleared payment fields.
	require.NoError(t, st.UpdateDebtStatus(ctx, models.KindFine, fine.ID, false, nil, nil))
	loaded, err = st.GetFine(ctx, fine.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Paid)
	assert.Nil(t, loaded.AmountPaid)
	assert.Nil(t, loaded.PaidAt)
}

func TestDeleteDebt(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	member := testMember("Max")
	require.NoError(t, st.InsertMember(ctx, member))

	fine := models.Fine{
		DebtDetails: models.DebtDetails{
			ID:        uuid.NewString(),
			MemberID:  member.ID,
			Amount:    decimal.RequireFromString("5.00"),
			CreatedAt: time.Now().UTC(),
		},
		Reason: "Late to training",
		Date:   time.Now().UTC(),
	}
	require.NoError(t, st.InsertFine(ctx, fine))
	require.NoError(t, st.DeleteDebt(ctx, models.KindFine, fine.ID))

	loaded, err := st.GetFine(ctx, fine.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDueCatalog(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	due := models.Due{
		ID:        uuid.NewString(),
		Name:      "Jahresbeitrag 2026",
		Amount:    decimal.RequireFromString("50.00"),
		Active:    true,
		DueDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.InsertDue(ctx, due))

	byName, err := st.GetDueByName(ctx, "Jahresbeitrag 2026")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, due.ID, byName.ID)
	assert.True(t, due.Amount.Equal(byName.Amount))
	assert.False(t, byName.Archived)

	missing, err := st.GetDueByName(ctx, "Monatsbeitrag")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	member := testMember("Max")
	sentinel := errors.New("boom")

	err := st.WithTx(ctx, func(tx *Tx) error {
		if err := tx.InsertMember(ctx, member); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	loaded, err := st.GetMember(ctx, member.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestWithTxCommits(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	member := testMember("Max")
	require.NoError(t, st.WithTx(ctx, func(tx *Tx) error {
		return tx.InsertMember(ctx, member)
	}))

	loaded, err := st.GetMember(ctx, member.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Max", loaded.Name)
}
