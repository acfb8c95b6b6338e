package database

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sortinghat/internal/core"
)

// fakeRows serves fixed values through the pgx.Rows interface.
type fakeRows struct {
	fields []pgconn.FieldDescription
	data   [][]any
	pos    int
	err    error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Scan(...any) error                            { return errors.New("not supported") }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.data[r.pos-1], nil
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// fakeDB records statements and answers queries from canned results.
type fakeDB struct {
	rows     *fakeRows
	row      pgx.Row
	execSQL  []string
	execArgs [][]any
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execSQL = append(db.execSQL, sql)
	db.execArgs = append(db.execArgs, args)
	return pgconn.CommandTag{}, nil
}

func (db *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return db.rows, nil
}

func (db *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return db.row
}

func field(name string, oid uint32) pgconn.FieldDescription {
	return pgconn.FieldDescription{Name: name, DataTypeOID: oid}
}

// ----------------------------------------------------------------------------
// LoadQuery Tests
// ----------------------------------------------------------------------------

func TestLoadQuery(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{
		fields: []pgconn.FieldDescription{
			field("id", pgtype.Int8OID),
			field("score", pgtype.Int4OID),
			field("name", pgtype.TextOID),
			field("active", pgtype.BoolOID),
			field("joined", pgtype.DateOID),
			field("extra", 999999),
		},
		data: [][]any{
			{int64(1), int32(10), "alice", true, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "x"},
			{int64(2), nil, nil, false, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), "y"},
		},
	}}

	ds, err := LoadQuery(context.Background(), db, "SELECT ...", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "score", "name", "active", "joined", "extra"}, ds.Names())
	assert.Equal(t, 2, ds.NumRows())

	id, _ := ds.Column("id")
	assert.Equal(t, core.KindInt, id.Kind)
	assert.Equal(t, []string{"1", "2"}, id.Values)

	score, _ := ds.Column("score")
	assert.Equal(t, core.KindFloat, score.Kind, "int column with NULL widens to float")
	assert.True(t, score.IsMissing(1))

	name, _ := ds.Column("name")
	assert.Equal(t, core.KindString, name.Kind)
	assert.True(t, name.IsMissing(1))

	joined, _ := ds.Column("joined")
	assert.Equal(t, []string{"2024-01-02", "2024-03-04"}, joined.Values)

	extra, _ := ds.Column("extra")
	assert.Equal(t, core.KindUnknown, extra.Kind)
}

func TestLoadQuery_MaxRows(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{
		fields: []pgconn.FieldDescription{field("n", pgtype.Int4OID)},
		data:   [][]any{{int32(1)}, {int32(2)}, {int32(3)}},
	}}

	_, err := LoadQuery(context.Background(), db, "SELECT n", 2)
	assert.ErrorIs(t, err, core.ErrTooManyRows)
}

func TestLoadQuery_Empty(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{
		fields: []pgconn.FieldDescription{field("n", pgtype.Int4OID)},
	}}

	ds, err := LoadQuery(context.Background(), db, "SELECT n WHERE false", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, ds.NumRows())
	assert.Equal(t, []string{"n"}, ds.Names())
}

func TestLoadQuery_RowsError(t *testing.T) {
	boom := errors.New("connection lost")
	db := &fakeDB{rows: &fakeRows{
		fields: []pgconn.FieldDescription{field("n", pgtype.Int4OID)},
		err:    boom,
	}}

	_, err := LoadQuery(context.Background(), db, "SELECT n", 0)
	assert.ErrorIs(t, err, boom)
}

// ----------------------------------------------------------------------------
// Value Formatting Tests
// ----------------------------------------------------------------------------

func TestKindForOID(t *testing.T) {
	tests := []struct {
		oid  uint32
		want core.Kind
	}{
		{pgtype.Int2OID, core.KindInt},
		{pgtype.Int8OID, core.KindInt},
		{pgtype.Float8OID, core.KindFloat},
		{pgtype.NumericOID, core.KindFloat},
		{pgtype.BoolOID, core.KindBool},
		{pgtype.TimestamptzOID, core.KindDatetime},
		{pgtype.VarcharOID, core.KindString},
		{pgtype.JSONBOID, core.KindString},
		{pgtype.ByteaOID, core.KindUnknown},
	}

	for _, tt := range tests {
		if got := KindForOID(tt.oid); got != tt.want {
			t.Errorf("KindForOID(%d) = %v, want %v", tt.oid, got, tt.want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		name   string
		input  any
		want   string
		wantOK bool
	}{
		{"nil", nil, "", false},
		{"string", "hello", "hello", true},
		{"bool", true, "true", true},
		{"int16", int16(-7), "-7", true},
		{"int32", int32(42), "42", true},
		{"int64", int64(1 << 40), "1099511627776", true},
		{"float32", float32(1.5), "1.5", true},
		{"float64", 0.1, "0.1", true},
		{"date", time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), "2024-05-06", true},
		{"timestamp", time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC), "2024-05-06T07:08:09Z", true},
		{"uuid", [16]byte(id), id.String(), true},
		{"time of day", pgtype.Time{Microseconds: (13*3600 + 5*60 + 9) * 1_000_000, Valid: true}, "13:05:09", true},
		{"null time of day", pgtype.Time{}, "", false},
		{"bytes", []byte("raw"), "raw", true},
		{"fallback", []int{1, 2}, "[1 2]", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatValue(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatNumeric(t *testing.T) {
	tests := []struct {
		name   string
		input  pgtype.Numeric
		want   string
		wantOK bool
	}{
		{"null", pgtype.Numeric{}, "", false},
		{"nan", pgtype.Numeric{NaN: true, Valid: true}, "NaN", true},
		{"integer", pgtype.Numeric{Int: big.NewInt(123), Exp: 0, Valid: true}, "123", true},
		{"positive exponent", pgtype.Numeric{Int: big.NewInt(12), Exp: 3, Valid: true}, "12000", true},
		{"decimal", pgtype.Numeric{Int: big.NewInt(12345), Exp: -2, Valid: true}, "123.45", true},
		{"negative decimal", pgtype.Numeric{Int: big.NewInt(-5), Exp: -3, Valid: true}, "-0.005", true},
		{"trailing zeros", pgtype.Numeric{Int: big.NewInt(1500), Exp: -2, Valid: true}, "15", true},
		{"nil int", pgtype.Numeric{Valid: true}, "0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatValue(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ----------------------------------------------------------------------------
// RunStore Tests
// ----------------------------------------------------------------------------

func TestRunStore_MigrateAndSave(t *testing.T) {
	db := &fakeDB{}
	store := NewRunStore(db)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))
	require.Len(t, db.execSQL, 1)
	assert.Contains(t, db.execSQL[0], "CREATE TABLE IF NOT EXISTS inference_runs")

	md, err := core.NewFeatureMetadata([]string{"a"}, map[string]core.RawType{"a": core.RawObject},
		map[core.SpecialType][]string{core.SpecialText: {"a"}})
	require.NoError(t, err)
	run := &core.Run{
		ID:         uuid.New(),
		Source:     "people.csv",
		Classifier: "default",
		CreatedAt:  time.Now().UTC(),
		Duration:   1500 * time.Millisecond,
		Rows:       10,
		Codes:      map[string]core.ClassifierCode{"a": core.CodeSentence},
		Metadata:   md,
	}
	require.NoError(t, store.SaveRun(ctx, run))

	require.Len(t, db.execArgs, 2)
	args := db.execArgs[1]
	require.Len(t, args, 9)
	assert.Equal(t, pgtype.UUID{Bytes: run.ID, Valid: true}, args[0])
	assert.Equal(t, int64(1500), args[4])
	assert.Equal(t, 1, args[6])
	assert.JSONEq(t, `{"a":3}`, args[7].(string))

	var decoded core.FeatureMetadata
	require.NoError(t, json.Unmarshal([]byte(args[8].(string)), &decoded))
	assert.Equal(t, *md, decoded)
}

func TestRunStore_GetRunNotFound(t *testing.T) {
	store := NewRunStore(&fakeDB{row: errRow{pgx.ErrNoRows}})

	_, err := store.GetRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, core.ErrRunNotFound)
}

func TestRunStore_GetRunError(t *testing.T) {
	boom := errors.New("timeout")
	store := NewRunStore(&fakeDB{row: errRow{boom}})

	_, err := store.GetRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, core.ErrRunNotFound)
}
