package database

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/sortinghat/internal/core"
)

// LoadQuery runs a query and returns its result as a dataset.
// Column kinds come from the result's type OIDs and NULLs are missing cells.
// maxRows <= 0 means unlimited.
func LoadQuery(ctx context.Context, db DBTX, query string, maxRows int, args ...any) (*core.Dataset, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]core.Column, len(fields))
	for i, f := range fields {
		cols[i] = core.Column{Name: f.Name, Kind: KindForOID(f.DataTypeOID)}
	}

	n := 0
	for rows.Next() {
		n++
		if maxRows > 0 && n > maxRows {
			return nil, fmt.Errorf("%w: limit is %d", core.ErrTooManyRows, maxRows)
		}

		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		for i, v := range values {
			s, ok := FormatValue(v)
			cols[i].Values = append(cols[i].Values, s)
			cols[i].Valid = append(cols[i].Valid, ok)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range cols {
		// Integer columns holding NULLs widen to float, as in a data frame.
		if cols[i].Kind == core.KindInt && hasNull(cols[i].Valid) {
			cols[i].Kind = core.KindFloat
		}
		if cols[i].Values == nil {
			cols[i].Values = []string{}
			cols[i].Valid = []bool{}
		}
	}

	return core.NewDataset(cols...)
}

// KindForOID maps a PostgreSQL type OID to a column kind.
// Types without a direct mapping are left for text inference.
func KindForOID(oid uint32) core.Kind {
	switch oid {
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID:
		return core.KindInt
	case pgtype.Float4OID, pgtype.Float8OID, pgtype.NumericOID:
		return core.KindFloat
	case pgtype.BoolOID:
		return core.KindBool
	case pgtype.DateOID, pgtype.TimestampOID, pgtype.TimestamptzOID:
		return core.KindDatetime
	case pgtype.TextOID, pgtype.VarcharOID, pgtype.BPCharOID, pgtype.NameOID,
		pgtype.UUIDOID, pgtype.JSONOID, pgtype.JSONBOID:
		return core.KindString
	}
	return core.KindUnknown
}

// FormatValue renders a decoded pgx value as cell text.
// The boolean is false for NULL.
func FormatValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}

	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int16:
		return strconv.FormatInt(int64(val), 10), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), true
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02"), true
		}
		return val.Format(time.RFC3339), true
	case [16]byte:
		return uuid.UUID(val).String(), true
	case pgtype.Numeric:
		return formatNumeric(val)
	case pgtype.Time:
		if !val.Valid {
			return "", false
		}
		d := time.Duration(val.Microseconds) * time.Microsecond
		return time.Time{}.Add(d).Format("15:04:05"), true
	case []byte:
		return string(val), true
	case fmt.Stringer:
		return val.String(), true
	}
	return fmt.Sprintf("%v", v), true
}

func formatNumeric(n pgtype.Numeric) (string, bool) {
	if !n.Valid {
		return "", false
	}
	if n.NaN {
		return "NaN", true
	}
	if n.Int == nil {
		return "0", true
	}

	digits := new(big.Int).Abs(n.Int).String()
	sign := ""
	if n.Int.Sign() < 0 {
		sign = "-"
	}

	if n.Exp >= 0 {
		return sign + digits + strings.Repeat("0", int(n.Exp)), true
	}

	scale := int(-n.Exp)
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	whole, frac := digits[:len(digits)-scale], digits[len(digits)-scale:]
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return sign + whole, true
	}
	return sign + whole + "." + frac, true
}

func hasNull(valid []bool) bool {
	for _, ok := range valid {
		if !ok {
			return true
		}
	}
	return false
}
