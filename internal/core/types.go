package core

import "strconv"

// ClassifierCode is the type label produced by the external classifier for
// a single column. Codes outside the named range are valid values and fall
// back to the default inference during reconciliation.
type ClassifierCode int

const (
	CodeNumeric ClassifierCode = iota
	CodeCategorical
	CodeDatetime
	CodeSentence
	CodeURL
	CodeNumbers
	CodeList
	CodeNotGeneralizable
	CodeCustomObject
)

var codeNames = [...]string{
	CodeNumeric:          "numeric",
	CodeCategorical:      "categorical",
	CodeDatetime:         "datetime",
	CodeSentence:         "sentence",
	CodeURL:              "url",
	CodeNumbers:          "numbers",
	CodeList:             "list",
	CodeNotGeneralizable: "not-generalizable",
	CodeCustomObject:     "custom-object",
}

// Known reports whether c is one of the nine named classifier codes.
func (c ClassifierCode) Known() bool {
	return c >= CodeNumeric && c <= CodeCustomObject
}

func (c ClassifierCode) String() string {
	if c.Known() {
		return codeNames[c]
	}
	return "unknown(" + strconv.Itoa(int(c)) + ")"
}

// RawType is the primary semantic type of a column.
type RawType string

const (
	RawInt      RawType = "int"
	RawFloat    RawType = "float"
	RawObject   RawType = "object"
	RawCategory RawType = "category"
	RawDatetime RawType = "datetime"
	RawBool     RawType = "bool"
)

// SpecialType is an auxiliary tag layered on top of a raw type.
type SpecialType string

const (
	SpecialBool             SpecialType = "bool"
	SpecialBinned           SpecialType = "binned"
	SpecialDatetimeAsInt    SpecialType = "datetime_as_int"
	SpecialDatetimeAsObject SpecialType = "datetime_as_object"
	SpecialText             SpecialType = "text"
	SpecialTextAsCategory   SpecialType = "text_as_category"
	SpecialTextSpecial      SpecialType = "text_special"
	SpecialTextNgram        SpecialType = "text_ngram"
	SpecialImagePath        SpecialType = "image_path"
	SpecialStack            SpecialType = "stack"
)

// Kind is the native type a column was declared with by its source.
// KindUnknown means the values are untyped text (e.g. CSV).
type Kind int

const (
	KindUnknown Kind = iota
	KindInt
	KindFloat
	KindBool
	KindDatetime
	KindCategory
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDatetime:
		return "datetime"
	case KindCategory:
		return "category"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}
