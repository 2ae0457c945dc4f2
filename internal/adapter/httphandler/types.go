package httphandler

import "github.com/niksmo/cardfinder/internal/core/domain"

type (
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	IdentityResponse struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
)

type (
	RangeRequest struct {
		Min *int `json:"min"`
		Max *int `json:"max"`
	}

	RangeResponse struct {
		Applied bool         `json:"applied"`
		Range   domain.Range `json:"range"`
	}
)

type ValueRequest struct {
	Value string `json:"value"`
}
