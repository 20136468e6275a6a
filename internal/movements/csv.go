package movements

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chequera-dev/chequera/internal/model"
)

// CheckHeader is the CSV header for checks.csv.
const CheckHeader = "check_id,checkbook_id,account_id,number,date,beneficiary,amount,concept,status"

// DepositHeader is the CSV header for deposits.csv.
const DepositHeader = "deposit_id,account_id,date,amount,type,reference,concept,reconciled"

const dateFormat = "2006-01-02"

const (
	checkNumFields      = 9
	checkColID          = 0
	checkColCheckbook   = 1
	checkColAccount     = 2
	checkColNumber      = 3
	checkColDate        = 4
	checkColBeneficiary = 5
	checkColAmount      = 6
	checkColConcept     = 7
	checkColStatus      = 8
)

const (
	depNumFields     = 8
	depColID         = 0
	depColAccount    = 1
	depColDate       = 2
	depColAmount     = 3
	depColType       = 4
	depColReference  = 5
	depColConcept    = 6
	depColReconciled = 7
)

// ReadChecks reads all checks from a checks.csv reader.
func ReadChecks(r io.Reader) ([]model.Check, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = checkNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading checks CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var checks []model.Check
	for i, rec := range records[1:] {
		c, err := UnmarshalCheck(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		checks = append(checks, c)
	}
	return checks, nil
}

// WriteChecks writes checks.csv (including header).
func WriteChecks(w io.Writer, checks []model.Check) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(CheckHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, c := range checks {
		if err := cw.Write(MarshalCheck(c)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// AppendChecks appends checks to an existing checks.csv writer (no header).
func AppendChecks(w io.Writer, checks []model.Check) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, c := range checks {
		if err := cw.Write(MarshalCheck(c)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return cw.Error()
}

// MarshalCheck converts a Check to a CSV row.
func MarshalCheck(c model.Check) []string {
	row := make([]string, checkNumFields)
	row[checkColID] = c.ID
	row[checkColCheckbook] = c.CheckbookID
	row[checkColAccount] = c.AccountID
	row[checkColNumber] = strconv.Itoa(c.Number)
	row[checkColDate] = c.Date.Format(dateFormat)
	row[checkColBeneficiary] = c.Beneficiary
	row[checkColAmount] = c.Amount.StringFixed(2)
	row[checkColConcept] = c.Concept
	row[checkColStatus] = string(c.Status)
	return row
}

// UnmarshalCheck converts a CSV row to a Check.
func UnmarshalCheck(record []string) (model.Check, error) {
	if len(record) != checkNumFields {
		return model.Check{}, fmt.Errorf("expected %d fields, got %d", checkNumFields, len(record))
	}

	number, err := strconv.Atoi(record[checkColNumber])
	if err != nil {
		return model.Check{}, fmt.Errorf("parsing number %q: %w", record[checkColNumber], err)
	}
	date, err := time.Parse(dateFormat, record[checkColDate])
	if err != nil {
		return model.Check{}, fmt.Errorf("parsing date %q: %w", record[checkColDate], err)
	}
	amount, err := decimal.NewFromString(record[checkColAmount])
	if err != nil {
		return model.Check{}, fmt.Errorf("parsing amount %q: %w", record[checkColAmount], err)
	}
	status := model.CheckStatus(record[checkColStatus])
	if !model.ValidStatus(status) {
		return model.Check{}, fmt.Errorf("unknown status %q", record[checkColStatus])
	}

	return model.Check{
		ID:          record[checkColID],
		CheckbookID: record[checkColCheckbook],
		AccountID:   record[checkColAccount],
		Number:      number,
		Date:        date,
		Beneficiary: record[checkColBeneficiary],
		Amount:      amount,
		Concept:     record[checkColConcept],
		Status:      status,
	}, nil
}

// ReadDeposits reads all deposits from a deposits.csv reader.
func ReadDeposits(r io.Reader) ([]model.Deposit, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = depNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading deposits CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var deposits []model.Deposit
	for i, rec := range records[1:] {
		d, err := UnmarshalDeposit(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		deposits = append(deposits, d)
	}
	return deposits, nil
}

// WriteDeposits writes deposits.csv (including header).
func WriteDeposits(w io.Writer, deposits []model.Deposit) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(DepositHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, d := range deposits {
		if err := cw.Write(MarshalDeposit(d)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// AppendDeposits appends deposits to an existing deposits.csv writer (no header).
func AppendDeposits(w io.Writer, deposits []model.Deposit) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, d := range deposits {
		if err := cw.Write(MarshalDeposit(d)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return cw.Error()
}

// MarshalDeposit converts a Deposit to a CSV row.
func MarshalDeposit(d model.Deposit) []string {
	row := make([]string, depNumFields)
	row[depColID] = d.ID
	row[depColAccount] = d.AccountID
	row[depColDate] = d.Date.Format(dateFormat)
	row[depColAmount] = d.Amount.StringFixed(2)
	row[depColType] = string(d.Type)
	row[depColReference] = d.Reference
	row[depColConcept] = d.Concept
	row[depColReconciled] = strconv.FormatBool(d.Reconciled)
	return row
}

// UnmarshalDeposit converts a CSV row to a Deposit.
func UnmarshalDeposit(record []string) (model.Deposit, error) {
	if len(record) != depNumFields {
		return model.Deposit{}, fmt.Errorf("expected %d fields, got %d", depNumFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[depColDate])
	if err != nil {
		return model.Deposit{}, fmt.Errorf("parsing date %q: %w", record[depColDate], err)
	}
	amount, err := decimal.NewFromString(record[depColAmount])
	if err != nil {
		return model.Deposit{}, fmt.Errorf("parsing amount %q: %w", record[depColAmount], err)
	}
	depType := model.DepositType(record[depColType])
	if !model.ValidDepositType(depType) {
		return model.Deposit{}, fmt.Errorf("unknown deposit type %q", record[depColType])
	}
	reconciled, err := strconv.ParseBool(record[depColReconciled])
	if err != nil {
		return model.Deposit{}, fmt.Errorf("parsing reconciled %q: %w", record[depColReconciled], err)
	}

	return model.Deposit{
		ID:         record[depColID],
		AccountID:  record[depColAccount],
		Date:       date,
		Amount:     amount,
		Type:       depType,
		Reference:  record[depColReference],
		Concept:    record[depColConcept],
		Reconciled: reconciled,
	}, nil
}
