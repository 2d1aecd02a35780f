// Package importer drives bulk CSV imports: it parses an export file,
// classifies every row, and writes the resulting records in chunked
// transactions so a single bad chunk cannot take down the whole run.
package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"psheikomaniac/club-ledger/internal/classifier"
	"psheikomaniac/club-ledger/internal/models"
	"psheikomaniac/club-ledger/internal/store"
)

var log = logrus.New()

// SetLogger allows setting a custom logger.
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// DefaultChunkSize bounds how many rows go into one transaction.
const DefaultChunkSize = 500

// Pipeline wires the classifier to the store for bulk imports.
type Pipeline struct {
	store      *store.Store
	classifier *classifier.Classifier
	delimiter  rune
	chunkSize  int
	now        func() time.Time
}

// NewPipeline creates an import pipeline. A chunkSize of zero or less
// falls back to DefaultChunkSize.
func NewPipeline(st *store.Store, cls *classifier.Classifier, delimiter rune, chunkSize int) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if delimiter == 0 {
		delimiter = ';'
	}
	return &Pipeline{
		store:      st,
		classifier: cls,
		delimiter:  delimiter,
		chunkSize:  chunkSize,
		now:        time.Now,
	}
}

// numberedRow pairs a classified row with its line number in the source
// file, so chunk-level messages can point back at the input.
type numberedRow struct {
	line int
	row  *models.ClassifiedRow
}

// cachedMember is a member resolved earlier in the run. createdByRun marks
// members the import itself created, which makes their pre-dated due rows
// eligible for exemption.
type cachedMember struct {
	id           string
	createdAt    time.Time
	createdByRun bool
}

// Import parses rawText as the given schema and writes the classified rows
// in chunks, each chunk one transaction. Row-level problems become
// warnings, chunk-level write failures become errors, and later chunks
// still run. Cancellation is honored between chunks; rows already
// committed stay committed.
func (p *Pipeline) Import(ctx context.Context, rawText string, schema models.Schema, onProgress ProgressFunc) (*Result, error) {
	text := strings.TrimPrefix(rawText, "\uFEFF")

	raw, err := readRows(text, schema, p.delimiter)
	if err != nil {
		return nil, err
	}

	result := &Result{RowsProcessed: len(raw)}

	rows := make([]numberedRow, 0, len(raw))
	for i, rawRow := range raw {
		// Line 1 is the header.
		line := i + 2

		var res classifier.Result
		if schema == models.SchemaDues {
			res = p.classifier.ClassifyDueRow(rawRow)
		} else {
			res = p.classifier.Classify(rawRow)
		}
		if res.Warning != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %s", line, res.Warning))
			continue
		}

		// Negative amounts only make sense as payment corrections.
		if res.Row.Type != models.RowPayment && res.Row.Amount.IsNegative() {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: negative amount %s on %s row", line, res.Row.Amount, res.Row.Type))
			continue
		}

		rows = append(rows, numberedRow{line: line, row: res.Row})
	}

	skipped := len(raw) - len(rows)
	if skipped > 0 {
		log.WithFields(logrus.Fields{
			"schema":  schema,
			"skipped": skipped,
		}).Warn("Skipped rows during classification")
	}

	members := make(map[string]cachedMember)
	dues := make(map[string]*models.Due)
	beverages := make(map[string]string)

	processed := skipped
	for start := 0; start < len(rows); start += p.chunkSize {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("import cancelled: %v", err))
			break
		}

		end := start + p.chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		// Filled inside the transaction and merged only after it
		// commits, so a retried or failed chunk leaves no trace in the
		// run-level caches or counts.
		var (
			chunkMembers   map[string]cachedMember
			chunkDues      map[string]*models.Due
			chunkBeverages map[string]string
			chunkCounts    CreatedCounts
		)

		txErr := p.store.WithTx(ctx, func(tx *store.Tx) error {
			chunkMembers = make(map[string]cachedMember)
			chunkDues = make(map[string]*models.Due)
			chunkBeverages = make(map[string]string)
			chunkCounts = CreatedCounts{}
			deltas := make(map[string]decimal.Decimal)

			for _, item := range chunk {
				if err := p.writeRow(ctx, tx, item.row, members, chunkMembers, dues, chunkDues, beverages, chunkBeverages, &chunkCounts, deltas); err != nil {
					return fmt.Errorf("row %d: %w", item.line, err)
				}
			}

			for memberID, delta := range deltas {
				if delta.IsZero() {
					continue
				}
				member, err := tx.GetMember(ctx, memberID)
				if err != nil {
					return fmt.Errorf("error reloading member %s: %w", memberID, err)
				}
				if err := tx.UpdateMemberBalance(ctx, memberID, member.Balance.Add(delta)); err != nil {
					return fmt.Errorf("error updating balance for member %s: %w", memberID, err)
				}
			}
			return nil
		})

		processed += len(chunk)

		if txErr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("chunk %d: %v", start/p.chunkSize+1, txErr))
			log.WithError(txErr).WithField("chunk", start/p.chunkSize+1).Error("Chunk failed, continuing with remaining chunks")
		} else {
			for k, v := range chunkMembers {
				members[k] = v
			}
			for k, v := range chunkDues {
				dues[k] = v
			}
			for k, v := range chunkBeverages {
				beverages[k] = v
			}
			result.Created.Fines += chunkCounts.Fines
			result.Created.Payments += chunkCounts.Payments
			result.Created.Dues += chunkCounts.Dues
			result.Created.Beverages += chunkCounts.Beverages
		}

		if onProgress != nil {
			onProgress(processed, len(raw))
		}
	}

	log.WithFields(logrus.Fields{
		"schema":   schema,
		"rows":     result.RowsProcessed,
		"warnings": len(result.Warnings),
		"errors":   len(result.Errors),
	}).Info("Import finished")

	return result, nil
}

// writeRow persists one classified row inside the chunk transaction and
// records the member balance delta it causes.
func (p *Pipeline) writeRow(
	ctx context.Context,
	tx *store.Tx,
	row *models.ClassifiedRow,
	members, chunkMembers map[string]cachedMember,
	dues, chunkDues map[string]*models.Due,
	beverages, chunkBeverages map[string]string,
	counts *CreatedCounts,
	deltas map[string]decimal.Decimal,
) error {
	member, err := p.resolveMember(ctx, tx, row.PlayerName, members, chunkMembers)
	if err != nil {
		return err
	}

	now := p.now()
	details := models.DebtDetails{
		ID:        uuid.NewString(),
		MemberID:  member.id,
		Amount:    row.Amount,
		Paid:      row.Paid,
		PaidAt:    row.PaidAt,
		CreatedAt: now,
	}

	switch row.Type {
	case models.RowPayment:
		payment := models.Payment{
			ID:          uuid.NewString(),
			MemberID:    member.id,
			Amount:      row.Amount,
			Description: row.Reason,
			Date:        row.Date,
			CreatedAt:   now,
		}
		if err := tx.InsertPayment(ctx, payment); err != nil {
			return fmt.Errorf("error inserting payment: %w", err)
		}
		deltas[member.id] = deltas[member.id].Add(row.Amount)
		counts.Payments++

	case models.RowFine:
		fine := models.Fine{
			DebtDetails: details,
			Reason:      row.Reason,
			Date:        row.Date,
		}
		if err := tx.InsertFine(ctx, fine); err != nil {
			return fmt.Errorf("error inserting fine: %w", err)
		}
		deltas[member.id] = deltas[member.id].Sub(fine.Outstanding())
		counts.Fines++

	case models.RowDrink:
		beverageID, err := p.resolveBeverage(ctx, tx, row, beverages, chunkBeverages)
		if err != nil {
			return err
		}
		consumption := models.BeverageConsumption{
			DebtDetails: details,
			BeverageID:  beverageID,
			Category:    row.BeverageCategory,
			Date:        row.Date,
		}
		if err := tx.InsertConsumption(ctx, consumption); err != nil {
			return fmt.Errorf("error inserting beverage consumption: %w", err)
		}
		deltas[member.id] = deltas[member.id].Sub(consumption.Outstanding())
		counts.Beverages++

	case models.RowDue:
		due, err := p.resolveDue(ctx, tx, row, dues, chunkDues)
		if err != nil {
			return err
		}
		duePayment := models.DuePayment{
			DebtDetails: details,
			DueID:       due.ID,
			Exempt:      member.createdByRun && row.Date.Before(member.createdAt),
		}
		if err := tx.InsertDuePayment(ctx, duePayment); err != nil {
			return fmt.Errorf("error inserting due payment: %w", err)
		}
		if !duePayment.Exempt {
			deltas[member.id] = deltas[member.id].Sub(duePayment.Outstanding())
		}
		counts.Dues++

	default:
		return fmt.Errorf("unsupported row type: %s", row.Type)
	}

	return nil
}

// resolveMember finds a member by exact name, first in the run and chunk
// caches, then in the store, creating the member when nothing matches.
// Matching is exact on both paths so resolution does not depend on how
// rows are split across chunks or runs.
func (p *Pipeline) resolveMember(ctx context.Context, tx *store.Tx, name string, run, local map[string]cachedMember) (cachedMember, error) {
	key := name
	if m, ok := run[key]; ok {
		return m, nil
	}
	if m, ok := local[key]; ok {
		return m, nil
	}

	existing, err := tx.GetMemberByName(ctx, name)
	if err != nil {
		return cachedMember{}, fmt.Errorf("error looking up member %q: %w", name, err)
	}
	if existing != nil {
		m := cachedMember{id: existing.ID, createdAt: existing.CreatedAt}
		local[key] = m
		return m, nil
	}

	member := models.Member{
		ID:        uuid.NewString(),
		Name:      name,
		Active:    true,
		Balance:   decimal.Zero,
		CreatedAt: p.now(),
	}
	if err := tx.InsertMember(ctx, member); err != nil {
		return cachedMember{}, fmt.Errorf("error creating member %q: %w", name, err)
	}
	log.WithField("member", name).Debug("Created member from import row")

	m := cachedMember{id: member.ID, createdAt: member.CreatedAt, createdByRun: true}
	local[key] = m
	return m, nil
}

// resolveDue finds a due definition by name, creating it from the row when
// the catalog has no entry yet.
func (p *Pipeline) resolveDue(ctx context.Context, tx *store.Tx, row *models.ClassifiedRow, run, local map[string]*models.Due) (*models.Due, error) {
	key := row.DueName
	if d, ok := run[key]; ok {
		return d, nil
	}
	if d, ok := local[key]; ok {
		return d, nil
	}

	existing, err := tx.GetDueByName(ctx, row.DueName)
	if err != nil {
		return nil, fmt.Errorf("error looking up due %q: %w", row.DueName, err)
	}
	if existing != nil {
		local[key] = existing
		return existing, nil
	}

	due := models.Due{
		ID:        uuid.NewString(),
		Name:      row.DueName,
		Amount:    row.Amount,
		Active:    true,
		DueDate:   row.Date,
		CreatedAt: p.now(),
	}
	if err := tx.InsertDue(ctx, due); err != nil {
		return nil, fmt.Errorf("error creating due %q: %w", row.DueName, err)
	}
	log.WithField("due", row.DueName).Debug("Created due definition from import row")

	local[key] = &due
	return &due, nil
}

// resolveBeverage finds a beverage by its row text, creating a catalog
// entry priced from the row when none exists.
func (p *Pipeline) resolveBeverage(ctx context.Context, tx *store.Tx, row *models.ClassifiedRow, run, local map[string]string) (string, error) {
	key := row.Reason
	if id, ok := run[key]; ok {
		return id, nil
	}
	if id, ok := local[key]; ok {
		return id, nil
	}

	existing, err := tx.GetBeverageByName(ctx, row.Reason)
	if err != nil {
		return "", fmt.Errorf("error looking up beverage %q: %w", row.Reason, err)
	}
	if existing != nil {
		local[key] = existing.ID
		return existing.ID, nil
	}

	beverage := models.Beverage{
		ID:       uuid.NewString(),
		Name:     row.Reason,
		Price:    row.Amount,
		Category: row.BeverageCategory,
	}
	if err := tx.InsertBeverage(ctx, beverage); err != nil {
		return "", fmt.Errorf("error creating beverage %q: %w", row.Reason, err)
	}

	local[key] = beverage.ID
	return beverage.ID, nil
}
