package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"bookshop/internal/reports"
)

type ReportsHandler struct {
	Reader *reports.Reader
}

func (h *ReportsHandler) Register(r *chi.Mux) {
	r.Get("/reports/daily-sales", h.dailySales)
	r.Get("/reports/top-books", h.topBooks)
	r.Get("/reports/stock", h.stock)
	r.Get("/reports/stock/low", h.lowStock)
}

type dailySalesBody struct {
	Day        string `json:"day"`
	NumOrders  int    `json:"num_orders"`
	TotalSales string `json:"total_sales"`
}

func (h *ReportsHandler) dailySales(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Reader.DailySales(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]dailySalesBody, 0, len(rows))
	for _, d := range rows {
		out = append(out, dailySalesBody{
			Day:        d.Day.Format("2006-01-02"),
			NumOrders:  d.NumOrders,
			TotalSales: FormatCents(d.SalesCents),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ReportsHandler) topBooks(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Reader.TopBooks(ctx, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *ReportsHandler) stock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Reader.CurrentStock(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *ReportsHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	threshold, _ := strconv.Atoi(r.URL.Query().Get("threshold"))
	if threshold <= 0 {
		threshold = 10
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Reader.LowStock(ctx, threshold)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
