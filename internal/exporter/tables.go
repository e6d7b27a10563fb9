package exporter

import (
	"log/slog"

	"orderreturns/internal/dataprocessing"
	"orderreturns/internal/errors"
	"orderreturns/internal/validation"
	"orderreturns/pkg/contracts/domain"
)

// HistoryHeaders returns the lookup file header for entity.
func HistoryHeaders(entity domain.Entity) []string {
	return []string{
		entity.KeyColumn(),
		domain.ColTotalReturns,
		domain.ColTotalOrders,
		domain.ColReturnRate,
		entity.CategoryColumn(),
	}
}

// SalesClassHeaders is the header of the customer sales-class lookup file.
var SalesClassHeaders = []string{domain.ColCustomerID, domain.ColTotalSales, domain.ColCustomerClass}

// SubmissionHeaders is the header of a prediction submission file.
var SubmissionHeaders = []string{domain.ColID, domain.ColReturn}

// WriteTable streams every row of t to filePath.
func (w *CSVWriter) WriteTable(filePath string, t *dataprocessing.Table) error {
	names := t.Columns()
	cols := make([]*dataprocessing.Column, len(names))
	for i, name := range names {
		cols[i], _ = t.Column(name)
	}

	stream, err := w.CreateStreamWriter(filePath, names)
	if err != nil {
		return err
	}
	record := make([]string, len(cols))
	for r := 0; r < t.Len(); r++ {
		for i, c := range cols {
			record[i] = c.Format(r)
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return errors.NewStorageError("failed to write feature row", err)
		}
	}
	if err := stream.Close(); err != nil {
		return err
	}

	w.logger.Info("Feature table written",
		slog.String("file", w.ResolvePath(filePath)),
		slog.Int("rows", t.Len()),
		slog.Int("columns", len(names)))
	return nil
}

// WriteHistory writes an entity's return history lookup.
func (w *CSVWriter) WriteHistory(filePath string, entity domain.Entity, records []domain.HistoryRecord) error {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.EntityID,
			formatInt(r.TotalReturns),
			formatInt(r.TotalOrders),
			formatFloat(r.ReturnRate),
			string(r.Category),
		}
	}
	return w.WriteCSV(filePath, WriteOptions{Headers: HistoryHeaders(entity), Records: rows})
}

// WriteSalesClasses writes the customer sales-class lookup.
func (w *CSVWriter) WriteSalesClasses(filePath string, records []domain.SalesClassRecord) error {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{r.CustomerID, formatFloat(r.TotalSales), string(r.Class)}
	}
	return w.WriteCSV(filePath, WriteOptions{Headers: SalesClassHeaders, Records: rows})
}

// WriteSubmission writes predictions in input row order.
func (w *CSVWriter) WriteSubmission(filePath string, predictions []domain.Prediction) error {
	if err := validation.ValidatePredictions(predictions); err != nil {
		return err
	}
	rows := make([][]string, len(predictions))
	for i, p := range predictions {
		rows[i] = []string{p.ID, formatInt(int64(p.Return))}
	}
	return w.WriteCSV(filePath, WriteOptions{Headers: SubmissionHeaders, Records: rows})
}
