package domain

import (
	"net/url"
	"sort"
)

// Range criteria names.
const (
	RangeSalary      = "salary"
	RangeCreditScore = "creditScore"
	RangeIncome      = "income"
)

// Selection criteria names.
const (
	SelectionBank = "bank"
	SelectionType = "type"
)

// Numeric text field names. They double as query parameter names.
const (
	FieldMinCreditScore = "minCreditScore"
	FieldMaxAnnualFee   = "maxAnnualFee"
	FieldMinIncome      = "minIncome"
	FieldMaxAPR         = "maxApr"
)

// Boolean preference names.
const (
	PreferenceAdvanced         = "advanced"
	PreferenceFrequentTraveler = "frequentTraveler"
)

// A RangeDomain is the fixed interval a [Range] lives in.
type RangeDomain struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Step int `json:"step"`
}

func (d RangeDomain) Contains(v int) bool {
	return d.Min <= v && v <= d.Max
}

// A Range holds a lower and upper bound within its [RangeDomain].
//
// The zero value is not usable, create ranges with [NewRange].
type Range struct {
	Min    int         `json:"min"`
	Max    int         `json:"max"`
	Domain RangeDomain `json:"domain"`
}

// NewRange returns the unconstrained range covering the whole domain.
func NewRange(d RangeDomain) Range {
	return Range{Min: d.Min, Max: d.Max, Domain: d}
}

// WithLower returns r with the lower bound set to v.
// The write is rejected, and r returned unchanged, if v is outside the domain
// or above the current upper bound.
func (r Range) WithLower(v int) (Range, bool) {
	if !r.Domain.Contains(v) || v > r.Max {
		return r, false
	}
	r.Min = v
	return r, true
}

// WithUpper is the mirror of [Range.WithLower].
func (r Range) WithUpper(v int) (Range, bool) {
	if !r.Domain.Contains(v) || v < r.Min {
		return r, false
	}
	r.Max = v
	return r, true
}

// Valid reports whether domain.Min <= Min <= Max <= domain.Max.
func (r Range) Valid() bool {
	return r.Domain.Min <= r.Min && r.Min <= r.Max && r.Max <= r.Domain.Max
}

// DefaultRanges are the slider ranges of the dashboard.
func DefaultRanges() map[string]Range {
	return map[string]Range{
		RangeSalary:      NewRange(RangeDomain{Min: 20000, Max: 200000, Step: 1000}),
		RangeCreditScore: NewRange(RangeDomain{Min: 300, Max: 850, Step: 10}),
		RangeIncome:      NewRange(RangeDomain{Min: 20000, Max: 200000, Step: 1000}),
	}
}

// SearchCriteria is a filter snapshot.
//
// Numeric criteria hold the raw user input. An empty string means unset.
type SearchCriteria struct {
	Bank             string `json:"bank"`
	Type             string `json:"type"`
	MinCreditScore   string `json:"minCreditScore"`
	MaxAnnualFee     string `json:"maxAnnualFee"`
	MinIncome        string `json:"minIncome"`
	MaxAPR           string `json:"maxApr"`
	AdvancedMode     bool   `json:"advancedMode"`
	FrequentTraveler bool   `json:"frequentTraveler"`
}

// A SearchRequest maps query parameter names to well-formed values.
// It never holds an empty value.
type SearchRequest map[string]string

func (r SearchRequest) Empty() bool {
	return len(r) == 0
}

// Encode returns the query string with keys in sorted order.
func (r SearchRequest) Encode() string {
	vs := make(url.Values, len(r))
	for k, v := range r {
		vs.Set(k, v)
	}
	return vs.Encode()
}

// Keys returns the parameter names in sorted order.
func (r SearchRequest) Keys() []string {
	ks := make([]string, 0, len(r))
	for k := range r {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}
