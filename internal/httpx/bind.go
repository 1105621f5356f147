package httpx

import (
	"encoding/json"
	"net/http"

	validatorv10 "github.com/go-playground/validator/v10"

	"bookshop/internal/orders"
)

var validate = validatorv10.New()

// bind decodes the request body into dst and runs struct-tag validation.
// Failures come back as ValidationError so writeError maps them to 400.
func bind(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &orders.ValidationError{Msg: "invalid json"}
	}
	if err := validate.Struct(dst); err != nil {
		return &orders.ValidationError{Msg: err.Error()}
	}
	return nil
}
