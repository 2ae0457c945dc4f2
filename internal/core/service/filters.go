package service

import (
	"maps"

	"github.com/niksmo/cardfinder/internal/core/domain"
)

// Filters holds the current value of every filter criterion.
//
// Invalid transitions are ignored, so Filters never reports an error and
// never exposes a range with Min > Max. Filters is not safe for concurrent
// use, [Dashboard] serializes access to it.
type Filters struct {
	criteria domain.SearchCriteria
	ranges   map[string]domain.Range
	allowed  domain.AllowedValues
}

func NewFilters() *Filters {
	return &Filters{ranges: domain.DefaultRanges()}
}

func (f *Filters) SetRangeLower(name string, v int) (domain.Range, bool) {
	r, ok := f.ranges[name]
	if !ok {
		return domain.Range{}, false
	}
	r, applied := r.WithLower(v)
	f.ranges[name] = r
	return r, applied
}

func (f *Filters) SetRangeUpper(name string, v int) (domain.Range, bool) {
	r, ok := f.ranges[name]
	if !ok {
		return domain.Range{}, false
	}
	r, applied := r.WithUpper(v)
	f.ranges[name] = r
	return r, applied
}

// SetSelection sets a discrete criterion to one of the allowed values.
// An empty value clears it.
func (f *Filters) SetSelection(criterion, value string) bool {
	switch criterion {
	case domain.SelectionBank:
		if value != "" && !f.allowed.HasBank(value) {
			return false
		}
		f.criteria.Bank = value
	case domain.SelectionType:
		if value != "" && !f.allowed.HasType(value) {
			return false
		}
		f.criteria.Type = value
	default:
		return false
	}
	return true
}

// SetField stores raw numeric input. It is parsed when the query is built.
func (f *Filters) SetField(field, raw string) bool {
	switch field {
	case domain.FieldMinCreditScore:
		f.criteria.MinCreditScore = raw
	case domain.FieldMaxAnnualFee:
		f.criteria.MaxAnnualFee = raw
	case domain.FieldMinIncome:
		f.criteria.MinIncome = raw
	case domain.FieldMaxAPR:
		f.criteria.MaxAPR = raw
	default:
		return false
	}
	return true
}

func (f *Filters) ToggleAdvancedMode() {
	f.criteria.AdvancedMode = !f.criteria.AdvancedMode
}

func (f *Filters) ToggleBooleanPreference(name string) bool {
	switch name {
	case domain.PreferenceAdvanced:
		f.ToggleAdvancedMode()
	case domain.PreferenceFrequentTraveler:
		f.criteria.FrequentTraveler = !f.criteria.FrequentTraveler
	default:
		return false
	}
	return true
}

// PopulateAllowedValues republishes the selection domains from cs.
//
// Selections stay as they are even when the new domain no longer holds
// them: a filtered result naturally narrows the domain to the selection
// itself.
func (f *Filters) PopulateAllowedValues(cs []domain.Card) {
	f.allowed = domain.AllowedValuesOf(cs)
}

func (f *Filters) AllowedValues() domain.AllowedValues {
	return f.allowed
}

func (f *Filters) Snapshot() domain.SearchCriteria {
	return f.criteria
}

func (f *Filters) Ranges() map[string]domain.Range {
	return maps.Clone(f.ranges)
}

// Reset restores default criteria and ranges. Allowed values are kept.
func (f *Filters) Reset() {
	f.criteria = domain.SearchCriteria{}
	f.ranges = domain.DefaultRanges()
}
