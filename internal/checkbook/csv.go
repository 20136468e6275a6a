package checkbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chequera-dev/chequera/internal/model"
)

// Header is the CSV header for checkbooks.csv.
const Header = "checkbook_id,account_id,start,end,next_number,active"

const (
	numFields  = 6
	colID      = 0
	colAccount = 1
	colStart   = 2
	colEnd     = 3
	colNext    = 4
	colActive  = 5
)

// ReadCheckbooks reads all checkbooks from a checkbooks.csv reader.
func ReadCheckbooks(r io.Reader) ([]model.Checkbook, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading checkbooks CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var books []model.Checkbook
	for i, rec := range records[1:] {
		cb, err := UnmarshalCheckbook(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		books = append(books, cb)
	}
	return books, nil
}

// WriteCheckbooks writes checkbooks.csv (including header).
func WriteCheckbooks(w io.Writer, books []model.Checkbook) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, cb := range books {
		if err := cw.Write(MarshalCheckbook(cb)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalCheckbook converts a Checkbook to a CSV row.
func MarshalCheckbook(cb model.Checkbook) []string {
	row := make([]string, numFields)
	row[colID] = cb.ID
	row[colAccount] = cb.AccountID
	row[colStart] = strconv.Itoa(cb.Start)
	row[colEnd] = strconv.Itoa(cb.End)
	row[colNext] = strconv.Itoa(cb.NextNumber)
	row[colActive] = strconv.FormatBool(cb.Active)
	return row
}

// UnmarshalCheckbook converts a CSV row to a Checkbook.
func UnmarshalCheckbook(record []string) (model.Checkbook, error) {
	if len(record) != numFields {
		return model.Checkbook{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	start, err := strconv.Atoi(record[colStart])
	if err != nil {
		return model.Checkbook{}, fmt.Errorf("parsing start %q: %w", record[colStart], err)
	}
	end, err := strconv.Atoi(record[colEnd])
	if err != nil {
		return model.Checkbook{}, fmt.Errorf("parsing end %q: %w", record[colEnd], err)
	}
	next, err := strconv.Atoi(record[colNext])
	if err != nil {
		return model.Checkbook{}, fmt.Errorf("parsing next_number %q: %w", record[colNext], err)
	}
	active, err := strconv.ParseBool(record[colActive])
	if err != nil {
		return model.Checkbook{}, fmt.Errorf("parsing active %q: %w", record[colActive], err)
	}

	return model.Checkbook{
		ID:         record[colID],
		AccountID:  record[colAccount],
		Start:      start,
		End:        end,
		NextNumber: next,
		Active:     active,
	}, nil
}
