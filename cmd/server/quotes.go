package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/quotecalc/internal/model"
	"github.com/Simplici0/quotecalc/internal/pricing"
	"github.com/Simplici0/quotecalc/internal/repository"
	"github.com/Simplici0/quotecalc/internal/sheet"
)

type quoteListItem struct {
	model.Quote
	Total int64 `json:"total"`
}

func (s *server) quoteRoutes(r chi.Router) {
	r.Get("/", s.handleQuotesList)
	r.Post("/", s.handleQuoteCreate)
	r.Post("/bulk-delete", s.handleQuotesBulkDelete)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", s.handleQuoteGet)
		r.Patch("/", s.handleQuoteUpdate)
		r.Delete("/", s.handleQuoteDelete)
		r.Put("/client", s.handleQuoteClient)
		r.Put("/custom-client", s.handleQuoteCustomClient)
		r.Post("/duplicate", s.handleQuoteDuplicate)
		r.Get("/total", s.handleQuoteTotal)
		r.Get("/text", s.handleQuoteText)
		r.Get("/sheet", s.handleQuoteSheet)
		r.Route("/views", s.viewRoutes)
	})
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	quotes, err := s.repo.SearchQuotes(r.Context(), query.Get("q"), query.Get("tag"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	lookup, err := s.repo.Lookup(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items := make([]quoteListItem, 0, len(quotes))
	for _, q := range quotes {
		t := pricing.CalculateQuoteTotal(q, "", lookup)
		items = append(items, quoteListItem{Quote: q, Total: t.Total})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if err := s.capture(r, ""); err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := s.repo.CreateQuote(r.Context(), req.Name)
	if err != nil {
		s.rejected(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *server) handleQuotesBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.IDs) == 0 {
		s.writeError(w, r, badRequest("ids is required"))
		return
	}
	if err := s.capture(r, ""); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.repo.DeleteQuotes(r.Context(), req.IDs)
	if err != nil {
		s.rejected(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// loadQuote fetches the path quote or writes a 404.
func (s *server) loadQuote(w http.ResponseWriter, r *http.Request) (*model.Quote, bool) {
	id := chi.URLParam(r, "id")
	q, err := s.repo.Quote(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	if q == nil {
		s.writeError(w, r, fmt.Errorf("quote %s: %w", id, repository.ErrNotFound))
		return nil, false
	}
	return q, true
}

func (s *server) handleQuoteGet(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *server) handleQuoteUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Name  *string `json:"name"`
		TagID *string `json:"tagId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Name == nil && req.TagID == nil {
		s.writeError(w, r, badRequest("nothing to update"))
		return
	}
	if err := s.capture(r, id); err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		q   *model.Quote
		err error
	)
	if req.Name != nil {
		if q, err = s.repo.RenameQuote(r.Context(), id, *req.Name); err != nil {
			s.rejected(w, r, err)
			return
		}
	}
	if req.TagID != nil {
		if q, err = s.repo.SetQuoteTag(r.Context(), id, *req.TagID); err != nil {
			if req.Name != nil {
				// The rename is already stored and keeps its undo point.
				s.writeError(w, r, err)
				return
			}
			s.rejected(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *server) handleQuoteDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.capture(r, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.repo.DeleteQuote(r.Context(), id); err != nil {
		s.rejected(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleQuoteClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		ClientID string `json:"clientId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.capture(r, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := s.repo.SetQuoteClient(r.Context(), id, req.ClientID)
	if err != nil {
		s.rejected(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *server) handleQuoteCustomClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var cc model.CustomClient
	if err := decodeJSON(w, r, &cc); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := cc.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.capture(r, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := s.repo.SetCustomClient(r.Context(), id, cc)
	if err != nil {
		s.rejected(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *server) handleQuoteDuplicate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.capture(r, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := s.repo.DuplicateQuote(r.Context(), id)
	if err != nil {
		s.rejected(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *server) quoteTotal(w http.ResponseWriter, r *http.Request) (*model.Quote, pricing.QuoteTotal, bool) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return nil, pricing.QuoteTotal{}, false
	}
	lookup, err := s.repo.Lookup(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return nil, pricing.QuoteTotal{}, false
	}
	return q, pricing.CalculateQuoteTotal(*q, r.URL.Query().Get("view"), lookup), true
}

func (s *server) handleQuoteTotal(w http.ResponseWriter, r *http.Request) {
	_, total, ok := s.quoteTotal(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, total)
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	q, total, ok := s.quoteTotal(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sheet.Text(*q, total, s.currency)))
}

func (s *server) handleQuoteSheet(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	lookup, err := s.repo.Lookup(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := sheet.Render(*q, lookup)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	name := fmt.Sprintf("quote-%s-%s.xlsx", q.ID, s.now().Format(time.DateOnly))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
