package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ----------------------------------------------------------------------------
// NewDataset Tests
// ----------------------------------------------------------------------------

func TestNewDataset(t *testing.T) {
	tests := []struct {
		name    string
		columns []Column
		wantErr error
	}{
		{
			name: "valid columns",
			columns: []Column{
				{Name: "a", Values: []string{"1", "2"}},
				{Name: "b", Values: []string{"x", "y"}},
			},
		},
		{
			name:    "no columns",
			columns: nil,
		},
		{
			name: "duplicate name",
			columns: []Column{
				{Name: "a", Values: []string{"1"}},
				{Name: "a", Values: []string{"2"}},
			},
			wantErr: ErrDuplicateColumn,
		},
		{
			name: "ragged columns",
			columns: []Column{
				{Name: "a", Values: []string{"1", "2"}},
				{Name: "b", Values: []string{"x"}},
			},
			wantErr: ErrRaggedColumns,
		},
		{
			name: "validity mask length",
			columns: []Column{
				{Name: "a", Values: []string{"1", "2"}, Valid: []bool{true}},
			},
			wantErr: ErrRaggedColumns,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := NewDataset(tt.columns...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.columns), ds.NumColumns())
		})
	}
}

func TestDataset_Accessors(t *testing.T) {
	ds, err := NewDataset(
		Column{Name: "id", Kind: KindInt, Values: []string{"1", "2", "3"}},
		Column{Name: "name", Values: []string{"a", "", "c"}},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, ds.Names())
	assert.Equal(t, 2, ds.NumColumns())
	assert.Equal(t, 3, ds.NumRows())

	col, ok := ds.Column("name")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "c"}, col.Present())

	_, ok = ds.Column("missing")
	assert.False(t, ok)

	empty, err := NewDataset()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NumRows())
	assert.Empty(t, empty.Names())
}

func TestColumn_IsMissing(t *testing.T) {
	blank := Column{Values: []string{"x", "", "  "}}
	assert.False(t, blank.IsMissing(0))
	assert.True(t, blank.IsMissing(1))
	assert.True(t, blank.IsMissing(2))

	markers := Column{Values: []string{"NA", "null", "N/A", "Na", "0"}}
	assert.Equal(t, []string{"Na", "0"}, markers.Present())

	// An explicit mask wins over the cell text.
	masked := Column{Values: []string{"", "0"}, Valid: []bool{true, false}}
	assert.False(t, masked.IsMissing(0))
	assert.True(t, masked.IsMissing(1))
}

// ----------------------------------------------------------------------------
// ReadCSV Tests
// ----------------------------------------------------------------------------

func TestReadCSV(t *testing.T) {
	input := "\xEF\xBB\xBFid, name ,note\n1,alice,\"hello, world\"\n2,=\"007\"\n3,carol,x,extra\n"

	ds, err := ReadCSV(strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "note"}, ds.Names())
	assert.Equal(t, 3, ds.NumRows())

	name, _ := ds.Column("name")
	assert.Equal(t, []string{"alice", "007", "carol"}, name.Values)

	id, _ := ds.Column("id")
	assert.Equal(t, []string{"1", "2", "3"}, id.Values)

	note, _ := ds.Column("note")
	assert.Equal(t, []string{"hello, world", "", "x"}, note.Values)
	assert.True(t, note.IsMissing(1))
}

func TestReadCSV_MaxRows(t *testing.T) {
	input := "a\n1\n2\n3\n4\n"

	ds, err := ReadCSV(strings.NewReader(input), CSVOptions{MaxRows: 2})
	require.NoError(t, err)
	col, _ := ds.Column("a")
	assert.Equal(t, []string{"1", "2"}, col.Values)
}

func TestReadCSV_MaxBytes(t *testing.T) {
	input := "a,b\n1,2\n"

	_, err := ReadCSV(strings.NewReader(input), CSVOptions{MaxBytes: int64(len(input)) - 1})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	ds, err := ReadCSV(strings.NewReader(input), CSVOptions{MaxBytes: int64(len(input))})
	require.NoError(t, err)
	assert.Equal(t, 1, ds.NumRows())
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty input", "", ErrEmptyFile},
		{"whitespace only", " \n\t\n", ErrEmptyFile},
		{"bom only", "\xEF\xBB\xBF", ErrEmptyFile},
		{"duplicate header", "a,b,a\n1,2,3\n", ErrDuplicateColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), CSVOptions{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("a,b\n"), CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.Names())
	assert.Equal(t, 0, ds.NumRows())
}
