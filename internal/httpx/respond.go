package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookshop/internal/catalog"
	"bookshop/internal/customers"
	"bookshop/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errBody struct {
	Error     string `json:"error"`
	Available *int   `json:"available,omitempty"`
	Total     string `json:"order_total,omitempty"`
}

// writeError maps the domain error taxonomy onto HTTP statuses and puts
// the recovery context (available stock, current total) in the body.
func writeError(w http.ResponseWriter, err error) {
	var (
		ve  *orders.ValidationError
		ise *orders.InsufficientStockError
		ae  *orders.AmountExceedsTotalError
		se  *orders.StorageError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errBody{Error: ve.Msg})
	case errors.As(err, &ise):
		writeJSON(w, http.StatusConflict, errBody{Error: err.Error(), Available: &ise.Available})
	case errors.As(err, &ae):
		writeJSON(w, http.StatusConflict, errBody{Error: err.Error(), Total: FormatCents(ae.TotalCents)})
	case errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, orders.ErrItemNotFound),
		errors.Is(err, orders.ErrPaymentNotFound),
		errors.Is(err, orders.ErrBookNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, customers.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errBody{Error: err.Error()})
	case errors.As(err, &se):
		writeJSON(w, http.StatusServiceUnavailable, errBody{Error: "storage unavailable"})
	default:
		writeJSON(w, http.StatusInternalServerError, errBody{Error: err.Error()})
	}
}
