package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/quotecalc/internal/model"
	"github.com/Simplici0/quotecalc/internal/repository"
)

func (s *server) viewRoutes(r chi.Router) {
	r.Post("/", s.handleViewAdd)
	r.Route("/{viewID}", func(r chi.Router) {
		r.Patch("/", s.handleViewRename)
		r.Delete("/", s.handleViewRemove)
		r.Post("/duplicate", s.handleViewDuplicate)

		r.Post("/parts", s.handlePartAdd)
		r.Route("/parts/{partID}", func(r chi.Router) {
			r.Patch("/", s.handlePartUpdate)
			r.Delete("/", s.handlePartDelete)
			r.Put("/material-name", s.handlePartMaterialName)
			r.Post("/duplicate", s.handlePartDuplicate)

			r.Post("/options", s.handleOptionAdd)
			r.Patch("/options/{index}", s.handleOptionUpdate)
			r.Delete("/options/{index}", s.handleOptionRemove)
			r.Post("/options/{index}/preset", s.handleOptionPreset)
		})
	})
}

// target holds the ids addressed by a nested route.
type target struct {
	quoteID, viewID, partID string
}

func targetOf(r *http.Request) target {
	return target{
		quoteID: chi.URLParam(r, "id"),
		viewID:  chi.URLParam(r, "viewID"),
		partID:  chi.URLParam(r, "partID"),
	}
}

/* Views */

func (s *server) handleViewAdd(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	if err := s.capture(r, t.quoteID); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.repo.AddView(r.Context(), t.quoteID)
	if err != nil {
		s.rejected(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *server) handleViewDuplicate(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	if err := s.capture(r, t.quoteID); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.repo.DuplicateView(r.Context(), t.quoteID, t.viewID)
	if err != nil {
		s.rejected(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *server) handleViewRename(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.capture(r, t.quoteID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.repo.RenameView(r.Context(), t.quoteID, t.viewID, req.Name); err != nil {
		s.rejected(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleViewRemove(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	if err := s.capture(r, t.quoteID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.repo.RemoveView(r.Context(), t.quoteID, t.viewID); err != nil {
		s.rejected(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/* Parts */

func (s *server) handlePartAdd(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	if err := s.capture(r, t.quoteID); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.repo.AddPart(r.Context(), t.quoteID, t.viewID)
	if err != nil {
		s.rejected(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *server) handlePartUpdate(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	var patch repository.PartPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := patch.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.capture(r, t.quoteID); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.repo.UpdatePart(r.Context(), t.quoteID, t.viewID, t.partID, patch)
	if err != nil {
		s.rejected(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handlePartMaterialName(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.capture(r, t.quoteID); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.repo.SetPartMaterialName(r.Context(), t.quoteID, t.viewID, t.partID, req.Name)
	if err != nil {
		s.rejected(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handlePartDuplicate(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	if err := s.capture(r, t.quoteID); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.repo.DuplicatePart(r.Context(), t.quoteID, t.viewID, t.partID)
	if err != nil {
		s.rejected(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *server) handlePartDelete(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	if err := s.capture(r, t.quoteID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.repo.DeletePart(r.Context(), t.quoteID, t.viewID, t.partID); err != nil {
		s.rejected(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/* Options */

func (s *server) handleOptionAdd(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	var req struct {
		Type model.OptionType `json:"type"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := (repository.OptionPatch{Type: &req.Type}).Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.capture(r, t.quoteID); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.repo.AddOption(r.Context(), t.quoteID, t.viewID, t.partID, req.Type)
	if err != nil {
		s.rejected(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *server) handleOptionUpdate(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	index, err := indexParam(r, "index")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var patch repository.OptionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := patch.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.capture(r, t.quoteID); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.repo.UpdateOption(r.Context(), t.quoteID, t.viewID, t.partID, index, patch)
	if err != nil {
		s.rejected(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleOptionRemove(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	index, err := indexParam(r, "index")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.capture(r, t.quoteID); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.repo.RemoveOption(r.Context(), t.quoteID, t.viewID, t.partID, index)
	if err != nil {
		s.rejected(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleOptionPreset(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	index, err := indexParam(r, "index")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		PresetID string `json:"presetId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.capture(r, t.quoteID); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.repo.ApplyOptionPreset(r.Context(), t.quoteID, t.viewID, t.partID, index, req.PresetID)
	if err != nil {
		s.rejected(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
