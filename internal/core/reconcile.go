package core

import "fmt"

// ReconcileRawType resolves a column's raw type from its classifier code and
// the default inference.
//
//	Categorical                   -> bool if the default is bool, else category
//	Datetime                      -> datetime
//	Sentence, URL, Numbers, List,
//	NotGeneralizable, CustomObject -> object
//	Numeric or unrecognized       -> default unchanged
func ReconcileRawType(code ClassifierCode, defaultRaw RawType) RawType {
	switch code {
	case CodeCategorical:
		if defaultRaw == RawBool {
			return RawBool
		}
		return RawCategory
	case CodeDatetime:
		return RawDatetime
	case CodeSentence, CodeURL, CodeNumbers, CodeList, CodeNotGeneralizable, CodeCustomObject:
		return RawObject
	default:
		// Numeric leaves int vs float to the default inference.
		return defaultRaw
	}
}

// ReconcileSpecialType resolves a column's special type. Sentences are always
// text; every other code keeps the default special type when there is one.
func ReconcileSpecialType(code ClassifierCode, defaultSpecial SpecialType, hasDefault bool) (SpecialType, bool) {
	switch code {
	case CodeSentence:
		return SpecialText, true
	default:
		// Datetime keeps a default such as datetime_as_object.
		return defaultSpecial, hasDefault
	}
}

// ToFeatureMetadata reconciles classifier codes with the default type maps.
// codes must be positionally aligned with features.
func ToFeatureMetadata(features []string, codes []ClassifierCode, defaultRaw map[string]RawType, defaultSpecial map[string]SpecialType) (*FeatureMetadata, error) {
	if len(codes) != len(features) {
		return nil, fmt.Errorf("%w: got %d codes for %d columns", ErrCodeCountMismatch, len(codes), len(features))
	}

	typeMapRaw := make(map[string]RawType, len(features))
	typeMapSpecial := make(map[string]SpecialType)

	for i, f := range features {
		base, ok := defaultRaw[f]
		if !ok {
			return nil, fmt.Errorf("default inference returned no raw type for column %q", f)
		}
		typeMapRaw[f] = ReconcileRawType(codes[i], base)

		special, hasSpecial := defaultSpecial[f]
		if tag, ok := ReconcileSpecialType(codes[i], special, hasSpecial); ok {
			typeMapSpecial[f] = tag
		}
	}

	return NewFeatureMetadata(features, typeMapRaw, GroupSpecialTypes(features, typeMapSpecial))
}
