package core

import "strings"

// DefaultInferrer is the host framework's own type inference, used as the
// baseline that classifier output is reconciled against.
type DefaultInferrer interface {
	// RawTypes returns a raw type for every column.
	RawTypes(ds *Dataset) (map[string]RawType, error)
	// SpecialTypes returns a special type for the columns that have one.
	SpecialTypes(ds *Dataset) (map[string]SpecialType, error)
}

const (
	// datetimeSampleSize caps the values checked for datetime_as_object.
	datetimeSampleSize = 500
	// datetimeMaxFailRatio is the share of unparsable values above which a
	// column is not treated as dates.
	datetimeMaxFailRatio = 0.8

	// textSampleSize caps the values checked for free text.
	textSampleSize = 5000
	// textMinUniqueRatio and textMinAvgWords gate the text special type.
	textMinUniqueRatio = 0.01
	textMinAvgWords    = 3
)

// StandardInferrer infers default types the way a CSV-backed data frame does:
// declared kinds are trusted, untyped text is narrowed to int, float or bool
// when every present value agrees, and object columns are checked for dates
// and free text.
type StandardInferrer struct{}

// RawTypes implements DefaultInferrer.
func (StandardInferrer) RawTypes(ds *Dataset) (map[string]RawType, error) {
	out := make(map[string]RawType, ds.NumColumns())
	for i := range ds.columns {
		col := &ds.columns[i]
		out[col.Name] = defaultRawType(col)
	}
	return out, nil
}

// SpecialTypes implements DefaultInferrer.
func (StandardInferrer) SpecialTypes(ds *Dataset) (map[string]SpecialType, error) {
	out := make(map[string]SpecialType)
	for i := range ds.columns {
		col := &ds.columns[i]
		if defaultRawType(col) != RawObject {
			continue
		}
		switch {
		case isDatetimeAsObject(col):
			out[col.Name] = SpecialDatetimeAsObject
		case isText(col):
			out[col.Name] = SpecialText
		}
	}
	return out, nil
}

func defaultRawType(col *Column) RawType {
	switch col.Kind {
	case KindInt:
		return RawInt
	case KindFloat:
		return RawFloat
	case KindBool:
		return RawBool
	case KindDatetime:
		return RawDatetime
	case KindCategory:
		return RawCategory
	case KindString:
		return RawObject
	}
	return inferRawFromText(col)
}

// inferRawFromText narrows untyped text. Only plain numbers count as numeric;
// "1,000", "$5" and "5'" keep a column as object. A column with no values at
// all is float, as an all-missing numeric column would be.
func inferRawFromText(col *Column) RawType {
	present := col.Present()
	if len(present) == 0 {
		return RawFloat
	}
	hasMissing := len(present) < col.Len()

	allNumeric, allIntegral := true, true
	for _, v := range present {
		_, integral, ok := ParseCSVNumber(v)
		if !ok {
			allNumeric = false
			break
		}
		allIntegral = allIntegral && integral
	}
	if allNumeric {
		if allIntegral && !hasMissing {
			return RawInt
		}
		return RawFloat
	}

	if !hasMissing {
		allBool := true
		for _, v := range present {
			if _, ok := ParseBool(v); !ok {
				allBool = false
				break
			}
		}
		if allBool {
			return RawBool
		}
	}

	return RawObject
}

// isDatetimeAsObject reports whether an object column holds dates stored as text.
// Numeric columns never qualify.
func isDatetimeAsObject(col *Column) bool {
	present := col.Present()
	if len(present) == 0 {
		return false
	}
	allNumeric := true
	for _, v := range present {
		if _, _, ok := ParseCSVNumber(v); !ok {
			allNumeric = false
			break
		}
	}
	if allNumeric {
		return false
	}

	n := min(col.Len(), datetimeSampleSize)
	failed := 0
	for i := range n {
		if col.IsMissing(i) {
			failed++
			continue
		}
		if _, ok := ParseDate(col.Values[i]); !ok {
			failed++
		}
	}
	return float64(failed)/float64(n) <= datetimeMaxFailRatio
}

// isText reports whether an object column holds free-form sentences.
func isText(col *Column) bool {
	n := min(col.Len(), textSampleSize)
	if n == 0 {
		return false
	}

	seen := make(map[string]struct{})
	var unique []string
	sawMissing := false
	for i := range n {
		if col.IsMissing(i) {
			sawMissing = true
			continue
		}
		v := col.Values[i]
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			unique = append(unique, v)
		}
	}

	// A missing value counts once towards distinctness but has no words.
	distinct := len(unique)
	if sawMissing {
		distinct++
	}
	if len(unique) == 0 || float64(distinct)/float64(n) <= textMinUniqueRatio {
		return false
	}

	words := 0
	for _, v := range unique {
		words += len(strings.Fields(v))
	}
	return float64(words)/float64(len(unique)) >= textMinAvgWords
}
