package importer

// CreatedCounts reports how many records an import created, by kind.
type CreatedCounts struct {
	Fines     int
	Payments  int
	Dues      int
	Beverages int
}

// Result is the structured outcome of an import run. Warnings are
// row-level and non-fatal; Errors are chunk-level write failures. A run
// with warnings but no errors is a successful import with partial coverage.
type Result struct {
	RowsProcessed int
	Created       CreatedCounts
	Warnings      []string
	Errors        []string
}

// ProgressFunc is invoked after each chunk with the number of rows handled
// so far and the total row count.
type ProgressFunc func(processed, total int)
