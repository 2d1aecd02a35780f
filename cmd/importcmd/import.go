// Package importcmd handles bulk imports of the club's CSV exports
package importcmd

import (
	"os"

	"github.com/spf13/cobra"

	"psheikomaniac/club-ledger/cmd/root"
	"psheikomaniac/club-ledger/internal/importer"
	"psheikomaniac/club-ledger/internal/models"
)

var (
	inputFile  string
	schemaName string
)

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Import a club CSV export",
	Long: `Import a club CSV export into the ledger.

The schema names the export layout: dues, punishments or transactions.
Rows are classified, members and catalog entries are created on the fly,
and records are written in chunked transactions.

Example:
  club-ledger import -i punishments.csv -s punishments`,
	Run: importFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input CSV file (required)")
	Cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Export schema: dues, punishments or transactions (required)")
	_ = Cmd.MarkFlagRequired("input")
	_ = Cmd.MarkFlagRequired("schema")
}

func importFunc(cmd *cobra.Command, args []string) {
	root.Log.Info("Import command called")
	root.Log.Infof("Input file: %s", inputFile)
	root.Log.Infof("Schema: %s", schemaName)

	var schema models.Schema
	switch schemaName {
	case "dues":
		schema = models.SchemaDues
	case "punishments":
		schema = models.SchemaPunishments
	case "transactions":
		schema = models.SchemaTransactions
	default:
		root.Log.Fatalf("Unknown schema %q (expected dues, punishments or transactions)", schemaName)
	}

	data, err := os.ReadFile(inputFile)
	if err != nil {
		root.Log.Fatalf("Error reading input file: %v", err)
	}

	st := root.OpenStore()
	defer st.Close()

	delimiter := []rune(root.Cfg.CSV.Delimiter)[0]
	pipeline := importer.NewPipeline(st, root.NewClassifier(), delimiter, root.Cfg.Import.ChunkSize)

	result, err := pipeline.Import(cmd.Context(), string(data), schema, func(processed, total int) {
		root.Log.Infof("Processed %d/%d rows", processed, total)
	})
	if err != nil {
		root.Log.Fatalf("Error importing file: %v", err)
	}

	for _, warning := range result.Warnings {
		root.Log.Warn(warning)
	}
	for _, importErr := range result.Errors {
		root.Log.Error(importErr)
	}

	root.Log.Infof("Rows processed: %d", result.RowsProcessed)
	root.Log.Infof("Created: %d fines, %d due payments, %d beverage consumptions, %d payments",
		result.Created.Fines, result.Created.Dues, result.Created.Beverages, result.Created.Payments)

	if len(result.Errors) > 0 {
		root.Log.Fatal("Import finished with errors")
	}
	root.Log.Info("Import completed successfully!")
}
