// Package classifier maps raw export rows to typed, validated ledger
// records. Classification never fails hard: recoverable problems turn the
// row into a skip with a warning so one malformed line cannot abort an
// import.
package classifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"psheikomaniac/club-ledger/internal/currencyutils"
	"psheikomaniac/club-ledger/internal/dateutils"
	"psheikomaniac/club-ledger/internal/models"
)

// RawRow is one row of an external export, as plain strings. Subject is
// only present in the transactions export and, when set, is preferred over
// Reason for classification.
type RawRow struct {
	Player  string
	Subject string
	Reason  string
	Amount  string
	Date    string
	Paid    string
}

// Result is the outcome of classifying one row: either a typed row or a
// skip warning, never both.
type Result struct {
	Row     *models.ClassifiedRow
	Warning string
}

func skip(format string, args ...any) Result {
	return Result{Warning: fmt.Sprintf(format, args...)}
}

// Classifier applies the vocabulary tables to raw rows.
type Classifier struct {
	vocab Vocabulary
	now   func() time.Time
}

// New creates a classifier with the given vocabulary.
func New(vocab Vocabulary) *Classifier {
	return &Classifier{vocab: vocab, now: time.Now}
}

// Classify maps a row of the punishments or transactions export to a
// FINE, DRINK or PAYMENT row. Rules are evaluated in order against the
// most specific free-text field available:
//
//  1. deposit vocabulary -> PAYMENT
//  2. drink vocabulary, unless an exclusion also matches -> DRINK
//  3. otherwise -> FINE
func (c *Classifier) Classify(raw RawRow) Result {
	row, res := c.validate(raw)
	if res != nil {
		return *res
	}

	subject := strings.TrimSpace(raw.Subject)
	text := subject
	if text == "" {
		text = row.Reason
	}
	lower := strings.ToLower(text)

	switch {
	case c.matchesAny(lower, c.vocab.Deposit):
		row.Type = models.RowPayment
	case c.matchesAny(lower, c.vocab.Drinks) && !c.matchesAny(lower, c.vocab.Exclusions):
		row.Type = models.RowDrink
		row.BeverageCategory = c.resolveCategory(lower)
	default:
		row.Type = models.RowFine
	}

	return Result{Row: row}
}

// ClassifyDueRow maps a row of the dues export. The kind is structural:
// every valid row is a due assignment named by the reason field.
func (c *Classifier) ClassifyDueRow(raw RawRow) Result {
	row, res := c.validate(raw)
	if res != nil {
		return *res
	}

	row.Type = models.RowDue
	row.DueName = row.Reason
	return Result{Row: row}
}

// validate applies the row checks shared by every schema and fills the
// fields that do not depend on classification.
func (c *Classifier) validate(raw RawRow) (*models.ClassifiedRow, *Result) {
	player := strings.TrimSpace(raw.Player)
	reason := strings.TrimSpace(raw.Reason)
	if reason == "" {
		reason = strings.TrimSpace(raw.Subject)
	}
	amountStr := strings.TrimSpace(raw.Amount)

	switch {
	case player == "":
		res := skip("missing required field: player")
		return nil, &res
	case reason == "":
		res := skip("missing required field: reason")
		return nil, &res
	case amountStr == "":
		res := skip("missing required field: amount")
		return nil, &res
	}

	if c.matchesToken(strings.ToLower(player), c.vocab.Placeholders) {
		res := skip("unknown player %q", player)
		return nil, &res
	}

	amount, err := currencyutils.ParseCents(amountStr)
	if err != nil {
		res := skip("invalid amount %q", amountStr)
		return nil, &res
	}
	if amount.IsZero() {
		res := skip("zero-amount row")
		return nil, &res
	}

	date, err := dateutils.ParseDayMonthYear(raw.Date)
	if err != nil {
		res := skip("invalid date %q", strings.TrimSpace(raw.Date))
		return nil, &res
	}

	paid, paidAt := c.ParsePaidStatus(raw.Paid)

	return &models.ClassifiedRow{
		PlayerName: player,
		Amount:     amount,
		Date:       date,
		Paid:       paid,
		PaidAt:     paidAt,
		Reason:     reason,
	}, nil
}

// ParsePaidStatus interprets the paid column. Blank means unpaid. A
// recognized paid token means paid now (no better date is available). A
// value that parses as a date means paid on that date. Anything else is
// conservatively treated as unpaid.
func (c *Classifier) ParsePaidStatus(value string) (bool, *time.Time) {
	cleaned := strings.ToLower(strings.TrimSpace(value))
	if cleaned == "" {
		return false, nil
	}

	if c.matchesToken(cleaned, c.vocab.PaidTokens) {
		now := c.now()
		return true, &now
	}
	if c.matchesToken(cleaned, c.vocab.UnpaidTokens) {
		return false, nil
	}
	if dateutils.IsDate(cleaned) {
		paidAt, _ := dateutils.ParseDayMonthYear(cleaned)
		return true, &paidAt
	}

	return false, nil
}

func (c *Classifier) matchesAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(text, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func (c *Classifier) matchesToken(text string, tokens []string) bool {
	for _, token := range tokens {
		if text == strings.ToLower(token) {
			return true
		}
	}
	return false
}

// resolveCategory maps drink text to a beverage category via the keyword
// table, defaulting to the generic category. Categories are checked in
// sorted order so resolution is deterministic.
func (c *Classifier) resolveCategory(text string) string {
	names := make([]string, 0, len(c.vocab.Categories))
	for name := range c.vocab.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if c.matchesAny(text, c.vocab.Categories[name]) {
			return name
		}
	}
	return c.vocab.DefaultCategory
}
