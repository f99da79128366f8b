package bulk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/recurringhub/internal/domain"
)

// Import columns, in order
const (
	colName = iota
	colPhone
	colPlan
	colFee
	colDueDay
)

type importRow struct {
	draft domain.CustomerDraft
	item  Item
}

// parseCustomerCSV reads name,phone,plan,fee,dueDay rows after a header.
// Blank lines are skipped. Rows without a name or phone carry a validation
// error; unparseable fee and due day fall back to the intake defaults.
// A malformed header rejects the whole file.
func parseCustomerCSV(r io.Reader) ([]importRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []importRow
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			if header {
				return nil, domain.WrapError(domain.ErrorCodeValidationFailed, "malformed csv header", parseErr).
					WithDetail("line", parseErr.Line)
			}
			rows = append(rows, importRow{item: Item{
				ID:  fmt.Sprintf("line %d", parseErr.Line),
				Err: domain.WrapError(domain.ErrorCodeValidationFailed, "malformed row", parseErr),
			}})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		if header {
			header = false
			continue
		}

		if blank(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		rows = append(rows, parseRow(record, line))
	}
	return rows, nil
}

func parseRow(record []string, line int) importRow {
	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	name := field(colName)
	row := importRow{item: Item{ID: fmt.Sprintf("line %d", line), Label: name}}

	if name == "" || field(colPhone) == "" {
		row.item.Err = domain.NewDomainError(domain.ErrorCodeValidationMissingField,
			fmt.Sprintf("Row %q: missing required fields", name))
		return row
	}

	row.draft = domain.CustomerDraft{
		Name:  name,
		Phone: field(colPhone),
		Plan:  field(colPlan),
	}
	if fee, err := decimal.NewFromString(field(colFee)); err == nil {
		row.draft.MonthlyFee = fee
	}
	if day, err := strconv.Atoi(field(colDueDay)); err == nil {
		row.draft.DueDay = day
	}
	return row
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
