package catalog

import "github.com/niksmo/cardfinder/internal/core/domain"

// cardDTO accepts the camelCase and the snake_case spelling of the
// compound fields. The catalog backend has shipped both.
type cardDTO struct {
	ID      string `json:"id"`
	Bank    string `json:"bank"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	APR     string `json:"apr"`
	Rewards string `json:"rewards"`

	AnnualFee      string `json:"annualFee"`
	AnnualFeeSnake string `json:"annual_fee"`

	CreditScore      *requirementDTO `json:"creditScore"`
	CreditScoreSnake *requirementDTO `json:"credit_score"`

	MinIncome      *requirementDTO `json:"minIncome"`
	MinIncomeSnake *requirementDTO `json:"min_income"`
}

type requirementDTO struct {
	Min   *int   `json:"min"`
	Notes string `json:"notes"`
}

func (d cardDTO) toDomain() domain.Card {
	c := domain.Card{
		ID:        d.ID,
		Bank:      d.Bank,
		Name:      d.Name,
		Type:      d.Type,
		AnnualFee: firstNonEmpty(d.AnnualFee, d.AnnualFeeSnake),
		APR:       d.APR,
		Rewards:   d.Rewards,
	}

	if cs := firstNonNil(d.CreditScore, d.CreditScoreSnake); cs != nil {
		c.CreditScore.Notes = cs.Notes
		if cs.Min != nil {
			c.CreditScore.Min = *cs.Min
		}
	}

	// a missing minimum renders as N/A, its notes are still shown
	if mi := firstNonNil(d.MinIncome, d.MinIncomeSnake); mi != nil {
		switch {
		case mi.Min != nil:
			c.MinIncome = &domain.Requirement{Min: *mi.Min, Notes: mi.Notes}
		case mi.Notes != "":
			c.MinIncome = &domain.Requirement{Notes: mi.Notes}
		}
	}

	return c
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonNil[T any](vs ...*T) *T {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}
