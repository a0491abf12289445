package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/quotecalc/internal/model"
	"github.com/Simplici0/quotecalc/internal/repository"
)

type record interface {
	Validate() error
}

// catalog wires one repository collection to CRUD routes.
type catalog[T record] struct {
	name   string
	list   func(ctx context.Context) ([]T, error)
	get    func(ctx context.Context, id string) (*T, error)
	save   func(ctx context.Context, rec *T) error
	remove func(ctx context.Context, id string) error
	setID  func(rec *T, id string)
	// touchesQuotes marks deletes that also rewrite quotes.
	touchesQuotes bool
}

func (c catalog[T]) routes(s *server) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", c.handleList(s))
		r.Post("/", c.handleCreate(s))
		r.Get("/{id}", c.handleGet(s))
		r.Put("/{id}", c.handleUpdate(s))
		r.Delete("/{id}", c.handleDelete(s))
	}
}

func (c catalog[T]) handleList(s *server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := c.list(r.Context())
		if err != nil {
			s.writeError(w, r, fmt.Errorf("list %s: %w", c.name, err))
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func (c catalog[T]) handleGet(s *server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		rec, err := c.get(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if rec == nil {
			s.writeError(w, r, fmt.Errorf("%s %s: %w", c.name, id, repository.ErrNotFound))
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (c catalog[T]) handleCreate(s *server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec T
		if err := decodeJSON(w, r, &rec); err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := rec.Validate(); err != nil {
			s.writeError(w, r, err)
			return
		}
		c.setID(&rec, "")
		if err := c.save(r.Context(), &rec); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

func (c catalog[T]) handleUpdate(s *server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var rec T
		if err := decodeJSON(w, r, &rec); err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := rec.Validate(); err != nil {
			s.writeError(w, r, err)
			return
		}

		existing, err := c.get(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if existing == nil {
			s.writeError(w, r, fmt.Errorf("%s %s: %w", c.name, id, repository.ErrNotFound))
			return
		}

		c.setID(&rec, id)
		if err := c.save(r.Context(), &rec); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (c catalog[T]) handleDelete(s *server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !c.touchesQuotes {
			if err := c.remove(r.Context(), id); err != nil {
				s.writeError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		existing, err := c.get(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if existing == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err := s.capture(r, ""); err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := c.remove(r.Context(), id); err != nil {
			s.rejected(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *server) catalogRoutes(r chi.Router) {
	materials := catalog[model.Material]{
		name:   "material",
		list:   s.repo.Materials,
		get:    s.repo.Material,
		save:   s.repo.SaveMaterial,
		remove: s.repo.DeleteMaterial,
		setID:  func(m *model.Material, id string) { m.ID = id },
	}
	r.Route("/materials", func(r chi.Router) {
		r.Get("/names", s.handleMaterialNames)
		r.Get("/colors", s.handleMaterialColors)
		materials.routes(s)(r)
	})

	r.Route("/clients", catalog[model.Client]{
		name:   "client",
		list:   s.repo.Clients,
		get:    s.repo.Client,
		save:   s.repo.SaveClient,
		remove: s.repo.DeleteClient,
		setID:  func(c *model.Client, id string) { c.ID = id },
	}.routes(s))

	r.Route("/option-presets", catalog[model.OptionPreset]{
		name:   "option preset",
		list:   s.repo.OptionPresets,
		get:    s.repo.OptionPreset,
		save:   s.repo.SaveOptionPreset,
		remove: s.repo.DeleteOptionPreset,
		setID:  func(p *model.OptionPreset, id string) { p.ID = id },
	}.routes(s))

	r.Route("/tags", catalog[model.Tag]{
		name:          "tag",
		list:          s.repo.Tags,
		get:           s.repo.Tag,
		save:          s.repo.SaveTag,
		remove:        s.repo.DeleteTag,
		setID:         func(t *model.Tag, id string) { t.ID = id },
		touchesQuotes: true,
	}.routes(s))
}

func (s *server) handleMaterialNames(w http.ResponseWriter, r *http.Request) {
	names, err := s.repo.MaterialNames(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *server) handleMaterialColors(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		s.writeError(w, r, badRequest("name is required"))
		return
	}
	colors, err := s.repo.ColorsForMaterial(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, colors)
}
