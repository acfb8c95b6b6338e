package core

import (
	"fmt"
	"sort"
)

// FeatureMetadata is the reconciled type information for a dataset.
type FeatureMetadata struct {
	// Features lists every column in dataset order.
	Features []string `json:"features" yaml:"features"`

	// TypeMapRaw maps each column to exactly one raw type.
	TypeMapRaw map[string]RawType `json:"type_map_raw" yaml:"type_map_raw"`

	// TypeGroupMapSpecial maps each special tag to the columns carrying it,
	// in dataset column order.
	TypeGroupMapSpecial map[SpecialType][]string `json:"type_group_map_special" yaml:"type_group_map_special"`
}

// NewFeatureMetadata builds metadata from a raw type map and grouped special
// types. features fixes the column order; every feature must have a raw type
// and every grouped column must be a feature.
func NewFeatureMetadata(features []string, typeMapRaw map[string]RawType, typeGroupMapSpecial map[SpecialType][]string) (*FeatureMetadata, error) {
	fm := &FeatureMetadata{
		Features:            features,
		TypeMapRaw:          typeMapRaw,
		TypeGroupMapSpecial: typeGroupMapSpecial,
	}
	if fm.TypeGroupMapSpecial == nil {
		fm.TypeGroupMapSpecial = make(map[SpecialType][]string)
	}
	if err := fm.Validate(); err != nil {
		return nil, err
	}
	return fm, nil
}

// Validate checks the metadata invariants.
func (m *FeatureMetadata) Validate() error {
	if len(m.TypeMapRaw) != len(m.Features) {
		return fmt.Errorf("feature metadata: %d raw types for %d features", len(m.TypeMapRaw), len(m.Features))
	}
	for _, f := range m.Features {
		if _, ok := m.TypeMapRaw[f]; !ok {
			return fmt.Errorf("feature metadata: feature %q has no raw type", f)
		}
	}
	for tag, cols := range m.TypeGroupMapSpecial {
		for _, c := range cols {
			if _, ok := m.TypeMapRaw[c]; !ok {
				return fmt.Errorf("feature metadata: special type %q references unknown feature %q", tag, c)
			}
		}
	}
	return nil
}

// RawType returns the raw type of a feature.
func (m *FeatureMetadata) RawType(feature string) (RawType, bool) {
	r, ok := m.TypeMapRaw[feature]
	return r, ok
}

// SpecialTypes returns the special tags applied to a feature, sorted.
func (m *FeatureMetadata) SpecialTypes(feature string) []SpecialType {
	var tags []SpecialType
	for tag, cols := range m.TypeGroupMapSpecial {
		for _, c := range cols {
			if c == feature {
				tags = append(tags, tag)
				break
			}
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// TypeGroupMapRaw groups features by raw type.
func (m *FeatureMetadata) TypeGroupMapRaw() map[RawType][]string {
	out := make(map[RawType][]string)
	for _, f := range m.Features {
		r := m.TypeMapRaw[f]
		out[r] = append(out[r], f)
	}
	return out
}

// GroupSpecialTypes converts a per-column special type map into tag → columns
// form. order fixes the column order within each group; columns absent from
// order are ignored.
func GroupSpecialTypes(order []string, typeMapSpecial map[string]SpecialType) map[SpecialType][]string {
	groups := make(map[SpecialType][]string)
	for _, col := range order {
		if tag, ok := typeMapSpecial[col]; ok {
			groups[tag] = append(groups[tag], col)
		}
	}
	return groups
}
