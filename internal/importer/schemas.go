package importer

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"

	"psheikomaniac/club-ledger/internal/classifier"
	"psheikomaniac/club-ledger/internal/models"
)

// duesRow matches the dues export schema.
type duesRow struct {
	Player string `csv:"player"`
	Due    string `csv:"due"`
	Amount string `csv:"amount"`
	Date   string `csv:"date"`
	Paid   string `csv:"paid"`
}

// punishmentsRow matches the punishments export schema.
type punishmentsRow struct {
	Player string `csv:"player"`
	Reason string `csv:"reason"`
	Amount string `csv:"amount"`
	Date   string `csv:"date"`
	Paid   string `csv:"paid"`
}

// transactionsRow matches the transactions export schema, which carries an
// extra subject column next to the free-form reason.
type transactionsRow struct {
	Player  string `csv:"player"`
	Subject string `csv:"subject"`
	Reason  string `csv:"reason"`
	Amount  string `csv:"amount"`
	Date    string `csv:"date"`
	Paid    string `csv:"paid"`
}

var schemaHeaders = map[models.Schema][]string{
	models.SchemaDues:         {"player", "due", "amount", "date", "paid"},
	models.SchemaPunishments:  {"player", "reason", "amount", "date", "paid"},
	models.SchemaTransactions: {"player", "subject", "reason", "amount", "date", "paid"},
}

// validateHeader checks that the first line of the export carries the
// columns the declared schema requires. A mismatch is a file-level error:
// the caller picked the wrong schema or the file is not a ledger export.
func validateHeader(text string, schema models.Schema, delimiter rune) error {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("error reading CSV header: %w", err)
	}

	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[strings.ToLower(strings.TrimSpace(col))] = true
	}

	for _, required := range schemaHeaders[schema] {
		if !present[required] {
			return fmt.Errorf("missing required column %q for %s schema", required, schema)
		}
	}
	return nil
}

// readRows parses the export text into the raw rows the classifier consumes.
func readRows(text string, schema models.Schema, delimiter rune) ([]classifier.RawRow, error) {
	if err := validateHeader(text, schema, delimiter); err != nil {
		return nil, err
	}

	newReader := func() gocsv.CSVReader {
		reader := csv.NewReader(strings.NewReader(text))
		reader.Comma = delimiter
		reader.LazyQuotes = true
		reader.TrimLeadingSpace = true
		return reader
	}

	switch schema {
	case models.SchemaDues:
		var rows []duesRow
		if err := gocsv.UnmarshalCSV(newReader(), &rows); err != nil {
			return nil, fmt.Errorf("error parsing dues export: %w", err)
		}
		raw := make([]classifier.RawRow, len(rows))
		for i, row := range rows {
			raw[i] = classifier.RawRow{
				Player: row.Player,
				Reason: row.Due,
				Amount: row.Amount,
				Date:   row.Date,
				Paid:   row.Paid,
			}
		}
		return raw, nil

	case models.SchemaPunishments:
		var rows []punishmentsRow
		if err := gocsv.UnmarshalCSV(newReader(), &rows); err != nil {
			return nil, fmt.Errorf("error parsing punishments export: %w", err)
		}
		raw := make([]classifier.RawRow, len(rows))
		for i, row := range rows {
			raw[i] = classifier.RawRow{
				Player: row.Player,
				Reason: row.Reason,
				Amount: row.Amount,
				Date:   row.Date,
				Paid:   row.Paid,
			}
		}
		return raw, nil

	case models.SchemaTransactions:
		var rows []transactionsRow
		if err := gocsv.UnmarshalCSV(newReader(), &rows); err != nil {
			return nil, fmt.Errorf("error parsing transactions export: %w", err)
		}
		raw := make([]classifier.RawRow, len(rows))
		for i, row := range rows {
			raw[i] = classifier.RawRow{
				Player:  row.Player,
				Subject: row.Subject,
				Reason:  row.Reason,
				Amount:  row.Amount,
				Date:    row.Date,
				Paid:    row.Paid,
			}
		}
		return raw, nil

	default:
		return nil, fmt.Errorf("unknown schema: %s", schema)
	}
}
