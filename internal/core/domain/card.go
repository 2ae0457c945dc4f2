package domain

import (
	"slices"
	"strconv"
)

const notAvailable = "N/A"

type (
	// A Card is a catalog record. It is never mutated after decoding.
	Card struct {
		ID          string
		Bank        string
		Name        string
		Type        string
		AnnualFee   string
		APR         string
		Rewards     string
		CreditScore Requirement
		MinIncome   *Requirement
	}

	Requirement struct {
		Min   int
		Notes string
	}
)

// CardView is a render-ready projection of [Card].
type CardView struct {
	ID                string `json:"id"`
	Bank              string `json:"bank"`
	Name              string `json:"name"`
	Type              string `json:"type"`
	AnnualFee         string `json:"annualFee"`
	APR               string `json:"apr"`
	Rewards           string `json:"rewards"`
	CreditScoreMin    string `json:"creditScoreMin"`
	CreditScoreNotes  string `json:"creditScoreNotes"`
	MinIncome         string `json:"minIncome"`
	MinIncomeNotes    string `json:"minIncomeNotes"`
	MinIncomeProvided bool   `json:"minIncomeProvided"`
}

func (c Card) View() CardView {
	v := CardView{
		ID:               c.ID,
		Bank:             c.Bank,
		Name:             c.Name,
		Type:             c.Type,
		AnnualFee:        c.AnnualFee,
		APR:              c.APR,
		Rewards:          c.Rewards,
		CreditScoreMin:   strconv.Itoa(c.CreditScore.Min),
		CreditScoreNotes: c.CreditScore.Notes,
		MinIncome:        notAvailable,
		MinIncomeNotes:   notAvailable,
	}

	if c.MinIncome == nil {
		return v
	}

	v.MinIncomeProvided = true
	if c.MinIncome.Min > 0 {
		v.MinIncome = FormatDollars(c.MinIncome.Min)
	}
	if c.MinIncome.Notes != "" {
		v.MinIncomeNotes = c.MinIncome.Notes
	}
	return v
}

func CardViews(cs []Card) []CardView {
	vs := make([]CardView, len(cs))
	for i := range cs {
		vs[i] = cs[i].View()
	}
	return vs
}

// AllowedValues are the selection domains for the bank and type criteria.
type AllowedValues struct {
	Banks []string `json:"banks"`
	Types []string `json:"types"`
}

// AllowedValuesOf projects the distinct banks and card types of cs.
// The result is sorted, so the same set of cards always gives the same value.
func AllowedValuesOf(cs []Card) AllowedValues {
	return AllowedValues{
		Banks: distinct(cs, func(c Card) string { return c.Bank }),
		Types: distinct(cs, func(c Card) string { return c.Type }),
	}
}

func (a AllowedValues) HasBank(v string) bool {
	return slices.Contains(a.Banks, v)
}

func (a AllowedValues) HasType(v string) bool {
	return slices.Contains(a.Types, v)
}

func distinct(cs []Card, field func(Card) string) []string {
	seen := make(map[string]struct{}, len(cs))
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		v := field(c)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
