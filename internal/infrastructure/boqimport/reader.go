package boqimport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Format is the upload format of a BoQ sheet
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the format from an explicit value or the file extension
func DetectFormat(explicit, filename string) (Format, error) {
	value := strings.ToLower(strings.TrimSpace(explicit))
	if value == "" {
		value = strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	}
	switch Format(value) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, value)
}

// Row is a data row keyed by normalized header name
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value for a column by header name
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// record is one raw row with its 1-based line number in the upload
type record struct {
	line   int
	fields []string
}

// sheet is the header plus data rows of one upload
type sheet struct {
	headers map[string]int
	rows    []*Row
}

func (s *sheet) missing(required []string) []string {
	var missing []string
	for _, h := range required {
		if _, ok := s.headers[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

func readSheet(r io.Reader, format Format) (*sheet, error) {
	var (
		records []record
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = readCSVRecords(r)
	case FormatXLSX:
		records, err = readXLSXRecords(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return buildSheet(records)
}

func readCSVRecords(r io.Reader) ([]record, error) {
	br := bufio.NewReader(r)

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	head, err := br.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	const checkSize = 4096
	content, err := br.Peek(checkSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(content) {
		return nil, ErrInvalidEncoding
	}

	reader := csv.NewReader(br)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var records []record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
		// blank lines are skipped by the csv reader, so take the line from the field position
		line, _ := reader.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
	return records, nil
}

// readXLSXRecords reads the first worksheet of a workbook
func readXLSXRecords(r io.Reader) ([]record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	records := make([]record, len(rows))
	for i, fields := range rows {
		records[i] = record{line: i + 1, fields: fields}
	}
	return records, nil
}

func buildSheet(records []record) (*sheet, error) {
	if len(records) == 0 || len(records[0].fields) == 0 {
		return nil, ErrMissingHeader
	}
	header := records[0].fields
	s := &sheet{headers: make(map[string]int, len(header))}
	names := make([]string, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		names[i] = name
		if name != "" {
			s.headers[name] = i
		}
	}
	if len(s.headers) == 0 {
		return nil, ErrMissingHeader
	}

	for _, rec := range records[1:] {
		row := &Row{
			LineNumber: rec.line,
			Data:       make(map[string]string, len(names)),
		}
		for col, name := range names {
			if name == "" {
				continue
			}
			if col < len(rec.fields) {
				row.Data[name] = strings.TrimSpace(rec.fields[col])
			} else {
				row.Data[name] = ""
			}
		}
		if row.IsEmpty() {
			continue
		}
		s.rows = append(s.rows, row)
	}
	if len(s.rows) == 0 {
		return nil, ErrNoDataRows
	}
	return s, nil
}

// normalizeHeader maps "Unit Price" and "unit-price" to "unit_price"
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer(" ", "_", "-", "_").Replace(h)
	return h
}
