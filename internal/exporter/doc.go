// Package exporter writes pipeline artifacts to disk.
//
// CSVWriter is the core writer: plain and streaming CSV output with an
// optional UTF-8 BOM for Excel. On top of it sit the artifact writers for
// prepared feature tables, entity return-history lookups, the customer
// sales-class lookup and prediction submissions.
//
// WorkbookExporter collects every lookup table into one XLSX workbook, one
// sheet per table, for manual review.
//
// Example usage:
//
//	w := exporter.NewCSVWriter("data/lookups", logger)
//	err := w.WriteHistory("customer_returns.csv", domain.EntityCustomer, records)
package exporter
