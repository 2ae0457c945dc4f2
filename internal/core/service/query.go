package service

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/niksmo/cardfinder/internal/core/domain"
)

// TravelRewardsType is the card type requested for frequent travelers.
const TravelRewardsType = "Travel"

type QueryOptions struct {
	// APRFilter enables the maxApr criterion.
	APRFilter bool
	// TravelPreference derives the type criterion from the frequent
	// traveler flag instead of the type selection.
	TravelPreference bool
}

// BuildQuery encodes a filter snapshot. It is a pure function: the same
// snapshot and options always give an equal request, and an unset snapshot
// gives an empty one.
//
// Malformed numeric input is omitted from the request.
func BuildQuery(c domain.SearchCriteria, opts QueryOptions) domain.SearchRequest {
	r := make(domain.SearchRequest)

	if c.Bank != "" {
		r[domain.SelectionBank] = c.Bank
	}

	if opts.TravelPreference {
		if c.FrequentTraveler {
			r[domain.SelectionType] = TravelRewardsType
		}
	} else if c.Type != "" {
		r[domain.SelectionType] = c.Type
	}

	if v, ok := parseCount(domain.FieldMinCreditScore, c.MinCreditScore); ok {
		r[domain.FieldMinCreditScore] = strconv.Itoa(v)
	}

	if v, ok := parseCount(domain.FieldMaxAnnualFee, c.MaxAnnualFee); ok {
		r[domain.FieldMaxAnnualFee] = domain.FormatDollars(v)
	}

	if opts.APRFilter {
		if v, ok := parseRate(domain.FieldMaxAPR, c.MaxAPR); ok {
			r[domain.FieldMaxAPR] = domain.FormatPercent(v)
		}
	}

	if v, ok := parseCount(domain.FieldMinIncome, c.MinIncome); ok {
		r[domain.FieldMinIncome] = strconv.Itoa(v)
	}

	return r
}

// parseCount accepts a non-negative integer.
func parseCount(field, raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		ignoreInput(field, raw)
		return 0, false
	}
	return v, true
}

// parseRate accepts a non-negative decimal, optionally suffixed with "%".
func parseRate(field, raw string) (float64, bool) {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "%")
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		ignoreInput(field, raw)
		return 0, false
	}
	return v, true
}

func ignoreInput(field, raw string) {
	slog.Debug("malformed filter input omitted",
		"op", "BuildQuery", "field", field, "value", raw)
}
