package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"orderreturns/internal/errors"
	"orderreturns/pkg/contracts/domain"
)

// SalesClassSheet is the workbook sheet holding the sales-class lookup.
const SalesClassSheet = "customer_abcd"

// HistorySheet returns the workbook sheet name for an entity's history.
func HistorySheet(entity domain.Entity) string {
	return string(entity) + "_returns"
}

// WorkbookExporter writes every lookup table into one XLSX workbook for review.
type WorkbookExporter struct {
	logger *slog.Logger
}

// NewWorkbookExporter creates a workbook exporter.
func NewWorkbookExporter(logger *slog.Logger) *WorkbookExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExporter{logger: logger}
}

// Export writes one sheet per entity history, plus the sales classes when present.
func (e *WorkbookExporter) Export(path string, histories map[domain.Entity][]domain.HistoryRecord, classes []domain.SalesClassRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for _, entity := range domain.Entities() {
		records, ok := histories[entity]
		if !ok {
			continue
		}
		rows := make([][]interface{}, len(records))
		for i, r := range records {
			rows[i] = []interface{}{r.EntityID, r.TotalReturns, r.TotalOrders, r.ReturnRate, string(r.Category)}
		}
		if err := e.writeSheet(f, HistorySheet(entity), HistoryHeaders(entity), rows, first); err != nil {
			return err
		}
		first = false
	}

	if classes != nil {
		rows := make([][]interface{}, len(classes))
		for i, r := range classes {
			rows[i] = []interface{}{r.CustomerID, r.TotalSales, string(r.Class)}
		}
		if err := e.writeSheet(f, SalesClassSheet, SalesClassHeaders, rows, first); err != nil {
			return err
		}
		first = false
	}
	if first {
		return errors.NewAppValidationError("no lookup tables to export")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory", err)
	}
	if err := f.SaveAs(path); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to save workbook %s", path), err)
	}

	e.logger.Info("Lookup workbook written",
		slog.String("file", path),
		slog.Int("sheets", len(f.GetSheetList())))
	return nil
}

// writeSheet fills a sheet. The first sheet written replaces the default one.
func (e *WorkbookExporter) writeSheet(f *excelize.File, name string, headers []string, rows [][]interface{}, first bool) error {
	if first {
		if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
			return errors.NewStorageError("failed to rename sheet", err)
		}
	} else if _, err := f.NewSheet(name); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to create sheet %s", name), err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to write header of %s", name), err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.NewStorageError("invalid cell reference", err)
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to write row %d of %s", i+1, name), err)
		}
	}
	return nil
}
