package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chequera-dev/chequera/internal/model"
)

// GenericParser parses the plain statement export format: a header row
// followed by date,description,amount records. Checks appear as negative
// amounts, deposits as positive.
type GenericParser struct{}

const (
	genericNumFields = 3
	genericColDate   = 0
	genericColDesc   = 1
	genericColAmount = 2
)

// Accepted date layouts, tried in order.
var genericDateLayouts = []string{"2006-01-02", "02/01/2006", "01/02/2006"}

// Format returns the parser name.
func (p *GenericParser) Format() string { return "generic" }

// Parse reads a statement CSV. Malformed rows are returned as SkippedLines
// rather than failing the batch.
func (p *GenericParser) Parse(r io.Reader) ([]model.BankStatementLine, []SkippedLine, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // short rows become SkippedLines, not a reader error

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading statement CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil, nil
	}

	var lines []model.BankStatementLine
	var skipped []SkippedLine
	for i, rec := range records[1:] {
		row := i + 2
		line, err := parseGenericRow(rec)
		if err != nil {
			skipped = append(skipped, SkippedLine{Row: row, Reason: err.Error()})
			continue
		}
		lines = append(lines, line)
	}
	return lines, skipped, nil
}

func parseGenericRow(rec []string) (model.BankStatementLine, error) {
	if len(rec) != genericNumFields {
		return model.BankStatementLine{}, fmt.Errorf("expected %d fields, got %d", genericNumFields, len(rec))
	}

	date, err := parseGenericDate(rec[genericColDate])
	if err != nil {
		return model.BankStatementLine{}, err
	}

	amount, err := decimal.NewFromString(rec[genericColAmount])
	if err != nil {
		return model.BankStatementLine{}, fmt.Errorf("parsing amount %q: %w", rec[genericColAmount], err)
	}

	desc := rec[genericColDesc]
	return model.BankStatementLine{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Reference:   ExtractReference(desc),
	}, nil
}

func parseGenericDate(s string) (time.Time, error) {
	for _, layout := range genericDateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing date %q", s)
}

// ExtractReference pulls the reference token out of a statement
// description: the first contiguous run of digits of length >= 4, with
// leading zeros stripped so "CHQ 000101" references check number 101. An
// empty result forces heuristic matching.
func ExtractReference(desc string) string {
	start := -1
	for i := 0; i <= len(desc); i++ {
		digit := i < len(desc) && desc[i] >= '0' && desc[i] <= '9'
		if digit {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= 4 {
			return trimLeadingZeros(desc[start:i])
		}
		start = -1
	}
	return ""
}

func trimLeadingZeros(s string) string {
	for len(s) > 1 && s[0] == '0' {
		s = s[1:]
	}
	return s
}
