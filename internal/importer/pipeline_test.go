package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psheikomaniac/club-ledger/internal/classifier"
	"psheikomaniac/club-ledger/internal/ledger"
	"psheikomaniac/club-ledger/internal/models"
	"psheikomaniac/club-ledger/internal/store"
)

func newTestPipeline(t *testing.T, chunkSize int) (*Pipeline, *store.Store) {
	t.Helper()

	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return NewPipeline(st, classifier.New(classifier.DefaultVocabulary()), ';', chunkSize), st
}

func memberBalance(t *testing.T, st *store.Store, name string) decimal.Decimal {
	t.Helper()

	member, err := st.GetMemberByName(context.Background(), name)
	require.NoError(t, err)
	require.NotNil(t, member)
	return member.Balance
}

func TestImportPunishments(t *testing.T) {
	pipeline, st := newTestPipeline(t, 0)

	csv := strings.Join([]string{
		"player;reason;amount;date;paid",
		"Max;Zu spät zum Training;500;01.06.2025;",
		"Max;Bier;150;02.06.2025;",
		"Max;Guthaben;2000;03.06.2025;",
		"Mia;Handy klingelt;250;01.06.2025;bezahlt",
	}, "\n")

	result, err := pipeline.Import(context.Background(), csv, models.SchemaPunishments, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, result.RowsProcessed)
	assert.Empty(t, result.Warnings)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, result.Created.Fines)
	assert.Equal(t, 1, result.Created.Beverages)
	assert.Equal(t, 1, result.Created.Payments)
	assert.Equal(t, 0, result.Created.Dues)

	// -5.00 fine, -1.50 drink, +20.00 deposit.
	assert.True(t, decimal.RequireFromString("13.50").Equal(memberBalance(t, st, "Max")))
	// Paid fine contributes nothing.
	assert.True(t, decimal.Zero.Equal(memberBalance(t, st, "Mia")))

	// The cached mirror matches the derived balance.
	svc := ledger.NewService(st)
	max, err := st.GetMemberByName(context.Background(), "Max")
	require.NoError(t, err)
	derived, err := svc.ComputeBalance(context.Background(), max.ID)
	require.NoError(t, err)
	assert.True(t, derived.Equal(max.Balance))
}

func TestImportStripsBOM(t *testing.T) {
	pipeline, _ := newTestPipeline(t, 0)

	csv := "\uFEFFplayer;reason;amount;date;paid\nMax;Bier;150;01.06.2025;\n"

	result, err := pipeline.Import(context.Background(), csv, models.SchemaPunishments, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created.Beverages)
}

func TestImportRejectsWrongHeader(t *testing.T) {
	pipeline, _ := newTestPipeline(t, 0)

	csv := "name;value\nMax;500\n"

	_, err := pipeline.Import(context.Background(), csv, models.SchemaPunishments, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestImportSkipsBadRowsAndContinues(t *testing.T) {
	pipeline, st := newTestPipeline(t, 0)

	csv := strings.Join([]string{
		"player;reason;amount;date;paid",
		"Unknown;Bier;150;01.06.2025;",
		"Max;Bier;abc;01.06.2025;",
		"Max;Bier;0;01.06.2025;",
		"Max;Bier;-150;01.06.2025;",
		"Max;Bier;150;01.06.2025;",
	}, "\n")

	result, err := pipeline.Import(context.Background(), csv, models.SchemaPunishments, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, result.RowsProcessed)
	require.Len(t, result.Warnings, 4)
	assert.Contains(t, result.Warnings[0], "row 2")
	assert.Contains(t, result.Warnings[0], "unknown player")
	assert.Contains(t, result.Warnings[1], "invalid amount")
	assert.Contains(t, result.Warnings[2], "zero-amount row")
	assert.Contains(t, result.Warnings[3], "negative amount")
	assert.Equal(t, 1, result.Created.Beverages)

	assert.True(t, decimal.RequireFromString("-1.50").Equal(memberBalance(t, st, "Max")))
}

func TestImportNegativePaymentAccepted(t *testing.T) {
	pipeline, st := newTestPipeline(t, 0)

	csv := strings.Join([]string{
		"player;subject;reason;amount;date;paid",
		"Max;Einzahlung;;2000;01.06.2025;",
		"Max;Guthaben Storno;;-500;02.06.2025;",
	}, "\n")

	result, err := pipeline.Import(context.Background(), csv, models.SchemaTransactions, nil)
	require.NoError(t, err)

	assert.Empty(t, result.Warnings)
	assert.Equal(t, 2, result.Created.Payments)
	assert.True(t, decimal.RequireFromString("15.00").Equal(memberBalance(t, st, "Max")))
}

func TestImportDuesExemptsPreMembershipRows(t *testing.T) {
	pipeline, st := newTestPipeline(t, 0)
	ctx := context.Background()

	// Mia joined long ago; Max is created by this import run.
	svc := ledger.NewService(st)
	mia, err := svc.CreateMember(ctx, "Mia", "")
	require.NoError(t, err)

	csv := strings.Join([]string{
		"player;due;amount;date;paid",
		"Max;Jahresbeitrag 2020;5000;01.01.2020;",
		"Mia;Jahresbeitrag 2020;5000;01.01.2020;",
	}, "\n")

	result, err := pipeline.Import(ctx, csv, models.SchemaDues, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created.Dues)

	// Max's due pre-dates his membership and is exempt.
	max, err := st.GetMemberByName(ctx, "Max")
	require.NoError(t, err)
	maxDues, err := st.ListDuePaymentsByMember(ctx, max.ID)
	require.NoError(t, err)
	require.Len(t, maxDues, 1)
	assert.True(t, maxDues[0].Exempt)
	assert.True(t, decimal.Zero.Equal(memberBalance(t, st, "Max")))

	// Mia pre-existed, so her due counts in full.
	miaDues, err := st.ListDuePaymentsByMember(ctx, mia.ID)
	require.NoError(t, err)
	require.Len(t, miaDues, 1)
	assert.False(t, miaDues[0].Exempt)
	assert.True(t, decimal.RequireFromString("-50.00").Equal(memberBalance(t, st, "Mia")))

	// Both rows share one due definition.
	due, err := st.GetDueByName(ctx, "Jahresbeitrag 2020")
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.True(t, decimal.RequireFromString("50.00").Equal(due.Amount))
}

func TestImportChunksLargeFiles(t *testing.T) {
	pipeline, st := newTestPipeline(t, 500)

	var sb strings.Builder
	sb.WriteString("player;reason;amount;date;paid\n")
	players := []string{"Max", "Mia", "Tom"}
	for i := 0; i < 1200; i++ {
		fmt.Fprintf(&sb, "%s;Bier;150;01.06.2025;\n", players[i%len(players)])
	}

	var progress [][2]int
	result, err := pipeline.Import(context.Background(), sb.String(), models.SchemaPunishments, func(processed, total int) {
		progress = append(progress, [2]int{processed, total})
	})
	require.NoError(t, err)

	assert.Equal(t, 1200, result.RowsProcessed)
	assert.Equal(t, 1200, result.Created.Beverages)
	assert.Empty(t, result.Errors)

	require.Len(t, progress, 3)
	assert.Equal(t, [2]int{500, 1200}, progress[0])
	assert.Equal(t, [2]int{1000, 1200}, progress[1])
	assert.Equal(t, [2]int{1200, 1200}, progress[2])

	// 400 drinks each at 1.50.
	assert.True(t, decimal.RequireFromString("-600.00").Equal(memberBalance(t, st, "Max")))
}

func TestImportCancelledBetweenChunks(t *testing.T) {
	pipeline, _ := newTestPipeline(t, 10)

	var sb strings.Builder
	sb.WriteString("player;reason;amount;date;paid\n")
	for i := 0; i < 30; i++ {
		sb.WriteString("Max;Bier;150;01.06.2025;\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	result, err := pipeline.Import(ctx, sb.String(), models.SchemaPunishments, func(processed, total int) {
		calls++
		if calls == 1 {
			cancel()
		}
	})
	require.NoError(t, err)

	// The first chunk committed, the rest never ran.
	assert.Equal(t, 10, result.Created.Beverages)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "cancelled")
}

func TestImportResolvesMembersByExactName(t *testing.T) {
	// Resolution is exact-match, so names differing in case are distinct
	// members, whether the rows share a file or arrive in separate runs.
	pipeline, st := newTestPipeline(t, 0)
	ctx := context.Background()

	csv := strings.Join([]string{
		"player;reason;amount;date;paid",
		"Max;Bier;150;01.06.2025;",
		"MAX;Bier;150;01.06.2025;",
	}, "\n")

	result, err := pipeline.Import(ctx, csv, models.SchemaPunishments, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created.Beverages)

	lower, err := st.GetMemberByName(ctx, "Max")
	require.NoError(t, err)
	require.NotNil(t, lower)
	upper, err := st.GetMemberByName(ctx, "MAX")
	require.NoError(t, err)
	require.NotNil(t, upper)
	assert.NotEqual(t, lower.ID, upper.ID)

	// A later run resolves to the same records instead of minting new ones.
	_, err = pipeline.Import(ctx, "player;reason;amount;date;paid\nMAX;Bier;150;02.06.2025;\n", models.SchemaPunishments, nil)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("-1.50").Equal(memberBalance(t, st, "Max")))
	assert.True(t, decimal.RequireFromString("-3.00").Equal(memberBalance(t, st, "MAX")))
}

func TestImportKeepsCommittedChunksOnFailure(t *testing.T) {
	// A chunk that fails to write becomes an error entry; earlier chunks
	// stay committed and the run still finishes.
	path := filepath.Join(t.TempDir(), "ledger.db")
	st, err := store.New(path)
	require.NoError(t, err)

	pipeline := NewPipeline(st, classifier.New(classifier.DefaultVocabulary()), ';', 2)

	var sb strings.Builder
	sb.WriteString("player;reason;amount;date;paid\n")
	for i := 0; i < 6; i++ {
		sb.WriteString("Max;Bier;150;01.06.2025;\n")
	}

	var calls int
	result, err := pipeline.Import(context.Background(), sb.String(), models.SchemaPunishments, func(processed, total int) {
		calls++
		if calls == 1 {
			require.NoError(t, st.Close())
		}
	})
	require.NoError(t, err)

	assert.Equal(t, 6, result.RowsProcessed)
	assert.Equal(t, 2, result.Created.Beverages)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "chunk 2")
	assert.Contains(t, result.Errors[1], "chunk 3")

	// The first chunk survives the failed run.
	reopened, err := store.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	ctx := context.Background()
	max, err := reopened.GetMemberByName(ctx, "Max")
	require.NoError(t, err)
	require.NotNil(t, max)
	drinks, err := reopened.ListConsumptionsByMember(ctx, max.ID)
	require.NoError(t, err)
	assert.Len(t, drinks, 2)
	assert.True(t, decimal.RequireFromString("-3.00").Equal(max.Balance))
}

func TestImportDuplicatesOnReimport(t *testing.T) {
	// There is no row identity matching, so importing the same file twice
	// doubles the records while members resolve to the same row.
	pipeline, st := newTestPipeline(t, 0)
	ctx := context.Background()

	csv := "player;reason;amount;date;paid\nMax;Bier;150;01.06.2025;\n"

	for i := 0; i < 2; i++ {
		result, err := pipeline.Import(ctx, csv, models.SchemaPunishments, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Created.Beverages)
	}

	max, err := st.GetMemberByName(ctx, "Max")
	require.NoError(t, err)
	drinks, err := st.ListConsumptionsByMember(ctx, max.ID)
	require.NoError(t, err)
	assert.Len(t, drinks, 2)
	assert.True(t, decimal.RequireFromString("-3.00").Equal(max.Balance))
}

func TestImportReusesExistingTime(t *testing.T) {
	// Dates anchor at UTC midnight so re-imports and balance reports do
	// not depend on the machine timezone.
	pipeline, st := newTestPipeline(t, 0)
	ctx := context.Background()

	csv := "player;reason;amount;date;paid\nMax;Bier;150;24.12.25;\n"
	_, err := pipeline.Import(ctx, csv, models.SchemaPunishments, nil)
	require.NoError(t, err)

	max, err := st.GetMemberByName(ctx, "Max")
	require.NoError(t, err)
	drinks, err := st.ListConsumptionsByMember(ctx, max.ID)
	require.NoError(t, err)
	require.Len(t, drinks, 1)
	assert.Equal(t, time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC), drinks[0].Date.UTC())
}
