package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// utf8BOM is prepended by many Windows programs when saving CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Column is a named column of cell values.
// Values are kept as text; Valid marks which cells are present.
// A nil Valid slice means every cell is present unless its text is blank or
// a missing-value marker such as NA or null.
type Column struct {
	Name   string
	Kind   Kind
	Values []string
	Valid  []bool
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	return len(c.Values)
}

// IsMissing reports whether cell i holds no value.
func (c *Column) IsMissing(i int) bool {
	if c.Valid != nil {
		return !c.Valid[i]
	}
	return IsNAValue(c.Values[i])
}

// Present returns the non-missing values in row order.
func (c *Column) Present() []string {
	out := make([]string, 0, len(c.Values))
	for i, v := range c.Values {
		if !c.IsMissing(i) {
			out = append(out, v)
		}
	}
	return out
}

// Dataset is an in-memory table of equally sized, uniquely named columns.
type Dataset struct {
	columns []Column
	index   map[string]int
}

// NewDataset validates and assembles columns into a Dataset.
// Column order is preserved; it defines positional alignment with classifier output.
func NewDataset(columns ...Column) (*Dataset, error) {
	ds := &Dataset{
		columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if _, dup := ds.index[col.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, col.Name)
		}
		if col.Len() != columns[0].Len() {
			return nil, fmt.Errorf("%w: column %q has %d values, want %d",
				ErrRaggedColumns, col.Name, col.Len(), columns[0].Len())
		}
		if col.Valid != nil && len(col.Valid) != col.Len() {
			return nil, fmt.Errorf("%w: column %q validity mask has %d entries, want %d",
				ErrRaggedColumns, col.Name, len(col.Valid), col.Len())
		}
		ds.index[col.Name] = i
	}
	return ds, nil
}

// Columns returns the dataset columns in order.
func (d *Dataset) Columns() []Column {
	return d.columns
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return &d.columns[i], true
}

// NumColumns returns the number of columns.
func (d *Dataset) NumColumns() int {
	return len(d.columns)
}

// NumRows returns the number of rows.
func (d *Dataset) NumRows() int {
	if len(d.columns) == 0 {
		return 0
	}
	return d.columns[0].Len()
}

// CSVOptions bounds how much of a CSV source is read.
type CSVOptions struct {
	MaxBytes int64 // 0 means unlimited
	MaxRows  int   // data rows to keep; 0 means all
}

// ReadCSV parses a CSV document with a header row into a Dataset.
// A UTF-8 BOM is skipped and invalid UTF-8 sequences are replaced.
func ReadCSV(r io.Reader, opts CSVOptions) (*Dataset, error) {
	if opts.MaxBytes > 0 {
		r = io.LimitReader(r, opts.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if opts.MaxBytes > 0 && int64(len(data)) > opts.MaxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, opts.MaxBytes)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	data = bytes.ToValidUTF8(data, []byte("�"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrInvalidCSV, err)
	}

	columns := make([]Column, len(header))
	for i, h := range header {
		columns[i] = Column{Name: cleanHeader(h)}
	}

	for rows := 0; opts.MaxRows <= 0 || rows < opts.MaxRows; rows++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		for i := range columns {
			v := ""
			if i < len(rec) {
				v = CleanCell(rec[i])
			}
			columns[i].Values = append(columns[i].Values, v)
		}
	}

	return NewDataset(columns...)
}

// CleanCell trims whitespace and unwraps Excel's text-preserving ="..."
// wrapper. Other quote marks are part of the value (5' is a length, not 5).
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	}
	return s
}

// cleanHeader also drops quotes left around column names by sloppy exporters.
func cleanHeader(s string) string {
	return strings.TrimSpace(strings.Trim(CleanCell(s), `"'`))
}
