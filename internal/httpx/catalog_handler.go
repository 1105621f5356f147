package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bookshop/internal/catalog"
	"bookshop/internal/orders"
)

type CatalogHandler struct {
	Books *catalog.Repo
	Log   *zap.Logger
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/books", h.list)
	r.Post("/books", h.create)
	r.Get("/books/search", h.search)
	r.Get("/books/{id}", h.get)
	r.Patch("/books/{id}", h.update)
	r.Delete("/books/{id}", h.delete)
	r.Post("/books/{id}/restock", h.restock)
}

type createBookReq struct {
	Title  string      `json:"title" validate:"required"`
	Author string      `json:"author,omitempty"`
	ISBN   string      `json:"isbn,omitempty"`
	Price  json.Number `json:"price" validate:"required"`
	Stock  int         `json:"stock" validate:"min=0"`
}

func (h *CatalogHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBookReq
	if err := bind(r, &req); err != nil {
		writeError(w, err)
		return
	}
	cents, err := ParseAmount(req.Price)
	if err != nil {
		writeError(w, &orders.ValidationError{Msg: err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	b, err := h.Books.Create(ctx, catalog.Book{
		Title:      req.Title,
		Author:     req.Author,
		ISBN:       req.ISBN,
		PriceCents: cents,
		Stock:      req.Stock,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.Log.Info("book created", zap.String("book_id", b.ID), zap.String("title", b.Title))
	writeJSON(w, http.StatusCreated, bookResp(b))
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	bs, err := h.Books.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookBodies(bs))
}

func (h *CatalogHandler) search(w http.ResponseWriter, r *http.Request) {
	by := r.URL.Query().Get("by")
	q := r.URL.Query().Get("q")
	if by == "" || q == "" {
		writeError(w, &orders.ValidationError{Msg: "by and q query params required"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	bs, err := h.Books.Search(ctx, by, q)
	if err != nil {
		writeError(w, &orders.ValidationError{Msg: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, bookBodies(bs))
}

func (h *CatalogHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	b, err := h.Books.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookResp(b))
}

type updateBookReq struct {
	Title  *string     `json:"title,omitempty"`
	Author *string     `json:"author,omitempty"`
	ISBN   *string     `json:"isbn,omitempty"`
	Price  json.Number `json:"price,omitempty"`
}

func (h *CatalogHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateBookReq
	if err := bind(r, &req); err != nil {
		writeError(w, err)
		return
	}
	u := catalog.BookUpdate{Title: req.Title, Author: req.Author, ISBN: req.ISBN}
	if req.Price != "" {
		cents, err := ParseAmount(req.Price)
		if err != nil {
			writeError(w, &orders.ValidationError{Msg: err.Error()})
			return
		}
		u.PriceCents = &cents
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	b, err := h.Books.Update(ctx, chi.URLParam(r, "id"), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookResp(b))
}

func (h *CatalogHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Books.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type restockReq struct {
	Qty int `json:"qty" validate:"required,min=1"`
}

func (h *CatalogHandler) restock(w http.ResponseWriter, r *http.Request) {
	var req restockReq
	if err := bind(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	b, err := h.Books.Restock(ctx, chi.URLParam(r, "id"), req.Qty)
	if err != nil {
		writeError(w, err)
		return
	}
	h.Log.Info("book restocked", zap.String("book_id", b.ID), zap.Int("qty", req.Qty), zap.Int("stock", b.Stock))
	writeJSON(w, http.StatusOK, bookResp(b))
}

func bookBodies(bs []catalog.Book) []bookBody {
	out := make([]bookBody, 0, len(bs))
	for _, b := range bs {
		out = append(out, bookResp(b))
	}
	return out
}
