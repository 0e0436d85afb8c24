// Package boqimport reads bill-of-quantities sheets (CSV or XLSX) into validated line rows.
package boqimport

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// Column names accepted in the header row
const (
	ColItemCode          = "item_code"
	ColParentItemCode    = "parent_item_code"
	ColDescription       = "description"
	ColQuantity          = "quantity"
	ColUnit              = "unit"
	ColUnitPrice         = "unit_price"
	ColEstimatedUnitCost = "estimated_unit_cost"
	ColCategory          = "category"
)

// RequiredColumns must be present in the header row
var RequiredColumns = []string{ColItemCode, ColDescription, ColQuantity, ColUnit, ColUnitPrice}

const maxItemCodeLength = 50

// Line is one validated BoQ row. Parents are referenced by item code and
// must appear earlier in the file or already exist on the project.
type Line struct {
	Row               int
	ItemCode          string
	ParentItemCode    string
	Description       string
	Quantity          decimal.Decimal
	Unit              string
	UnitPrice         decimal.Decimal
	EstimatedUnitCost decimal.Decimal
	Category          string
}

// Result holds the parsed lines and per-row errors
type Result struct {
	TotalRows int
	Lines     []Line
	Errors    *ErrorCollection
}

// Parser validates BoQ sheets
type Parser struct {
	maxErrors int
}

// Option configures a Parser
type Option func(*Parser)

// WithMaxErrors caps the number of row errors kept in a Result
func WithMaxErrors(n int) Option {
	return func(p *Parser) {
		p.maxErrors = n
	}
}

// NewParser creates a Parser
func NewParser(opts ...Option) *Parser {
	p := &Parser{maxErrors: 100}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads the sheet and validates every row. File-level problems
// (encoding, missing header, no rows) are returned as an error; row-level
// problems are collected in Result.Errors.
func (p *Parser) Parse(r io.Reader, format Format) (*Result, error) {
	s, err := readSheet(r, format)
	if err != nil {
		return nil, err
	}
	if missing := s.missing(RequiredColumns); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %v", ErrMissingHeader, missing)
	}

	result := &Result{
		TotalRows: len(s.rows),
		Lines:     make([]Line, 0, len(s.rows)),
		Errors:    NewErrorCollection(p.maxErrors),
	}
	seen := make(map[string]int, len(s.rows))
	for _, row := range s.rows {
		line, ok := p.parseRow(row, result.Errors)
		if !ok {
			continue
		}
		if first, dup := seen[line.ItemCode]; dup {
			result.Errors.AddValueError(row.LineNumber, ColItemCode, ErrCodeImportDuplicate,
				fmt.Sprintf("item code already used on row %d", first), line.ItemCode)
			continue
		}
		seen[line.ItemCode] = row.LineNumber
		result.Lines = append(result.Lines, line)
	}
	return result, nil
}

func (p *Parser) parseRow(row *Row, errs *ErrorCollection) (Line, bool) {
	before := errs.TotalCount()
	line := Line{
		Row:            row.LineNumber,
		ItemCode:       row.Get(ColItemCode),
		ParentItemCode: row.Get(ColParentItemCode),
		Description:    row.Get(ColDescription),
		Unit:           row.Get(ColUnit),
		Category:       row.Get(ColCategory),
	}

	for _, col := range []string{ColItemCode, ColDescription, ColUnit} {
		if row.Get(col) == "" {
			errs.AddRequiredError(row.LineNumber, col)
		}
	}
	if len(line.ItemCode) > maxItemCodeLength {
		errs.AddValueError(row.LineNumber, ColItemCode, ErrCodeImportInvalidLength,
			fmt.Sprintf("must be at most %d characters", maxItemCodeLength), line.ItemCode)
	}
	if line.ParentItemCode != "" && line.ParentItemCode == line.ItemCode {
		errs.AddValueError(row.LineNumber, ColParentItemCode, ErrCodeImportInvalidRange,
			"line cannot be its own parent", line.ParentItemCode)
	}

	line.Quantity = parseAmount(row, ColQuantity, true, errs)
	line.UnitPrice = parseAmount(row, ColUnitPrice, true, errs)
	line.EstimatedUnitCost = parseAmount(row, ColEstimatedUnitCost, false, errs)

	return line, errs.TotalCount() == before
}

// parseAmount reads a non-negative decimal; optional blanks are zero
func parseAmount(row *Row, col string, required bool, errs *ErrorCollection) decimal.Decimal {
	raw := row.Get(col)
	if raw == "" {
		if required {
			errs.AddRequiredError(row.LineNumber, col)
		}
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		errs.AddValueError(row.LineNumber, col, ErrCodeImportInvalidType, "expected a decimal number", raw)
		return decimal.Zero
	}
	if value.IsNegative() {
		errs.AddValueError(row.LineNumber, col, ErrCodeImportInvalidRange, "cannot be negative", raw)
		return decimal.Zero
	}
	return value
}
