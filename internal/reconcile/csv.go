package reconcile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chequera-dev/chequera/internal/model"
)

// Header is the CSV header for records.csv.
const Header = "batch_id,movement_id,kind,basis,line_date,line_description,line_amount,applied"

const dateFormat = "2006-01-02"

const (
	numFields     = 8
	colBatch      = 0
	colMovement   = 1
	colKind       = 2
	colBasis      = 3
	colLineDate   = 4
	colLineDesc   = 5
	colLineAmount = 6
	colApplied    = 7
)

// ReadRecords reads all reconciliation records from a records.csv reader.
func ReadRecords(r io.Reader) ([]model.ReconciliationRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading records CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var out []model.ReconciliationRecord
	for i, rec := range records[1:] {
		rr, err := UnmarshalRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, rr)
	}
	return out, nil
}

// AppendRecords appends records to an existing records.csv writer (no header).
func AppendRecords(w io.Writer, records []model.ReconciliationRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, rr := range records {
		if err := cw.Write(MarshalRecord(rr)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return cw.Error()
}

// WriteRecords writes records.csv (including header).
func WriteRecords(w io.Writer, records []model.ReconciliationRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, rr := range records {
		if err := cw.Write(MarshalRecord(rr)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalRecord converts a ReconciliationRecord to a CSV row. Manual
// clearings have no statement line; their line fields stay empty.
func MarshalRecord(rr model.ReconciliationRecord) []string {
	row := make([]string, numFields)
	row[colBatch] = rr.BatchID
	row[colMovement] = rr.MovementID
	row[colKind] = string(rr.Kind)
	row[colBasis] = string(rr.Basis)
	if !rr.LineDate.IsZero() {
		row[colLineDate] = rr.LineDate.Format(dateFormat)
	}
	row[colLineDesc] = rr.LineDesc
	if rr.Basis != model.BasisManual {
		row[colLineAmount] = rr.LineAmount.StringFixed(2)
	}
	row[colApplied] = string(rr.Applied)
	return row
}

// UnmarshalRecord converts a CSV row to a ReconciliationRecord.
func UnmarshalRecord(record []string) (model.ReconciliationRecord, error) {
	if len(record) != numFields {
		return model.ReconciliationRecord{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	var lineDate time.Time
	if record[colLineDate] != "" {
		var err error
		lineDate, err = time.Parse(dateFormat, record[colLineDate])
		if err != nil {
			return model.ReconciliationRecord{}, fmt.Errorf("parsing line_date %q: %w", record[colLineDate], err)
		}
	}

	var lineAmount decimal.Decimal
	if record[colLineAmount] != "" {
		var err error
		lineAmount, err = decimal.NewFromString(record[colLineAmount])
		if err != nil {
			return model.ReconciliationRecord{}, fmt.Errorf("parsing line_amount %q: %w", record[colLineAmount], err)
		}
	}

	return model.ReconciliationRecord{
		BatchID:    record[colBatch],
		MovementID: record[colMovement],
		Kind:       model.MovementKind(record[colKind]),
		Basis:      model.MatchBasis(record[colBasis]),
		LineDate:   lineDate,
		LineDesc:   record[colLineDesc],
		LineAmount: lineAmount,
		Applied:    model.CheckStatus(record[colApplied]),
	}, nil
}
