package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/quotecalc/internal/configio"
	"github.com/Simplici0/quotecalc/internal/model"
)

/* History */

type historyState struct {
	OK            bool   `json:"ok"`
	ActiveQuoteID string `json:"activeQuoteId,omitempty"`
	CanUndo       bool   `json:"canUndo"`
	CanRedo       bool   `json:"canRedo"`
}

func (s *server) historyState(ok bool, active string) historyState {
	return historyState{OK: ok, ActiveQuoteID: active, CanUndo: s.history.CanUndo(), CanRedo: s.history.CanRedo()}
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.historyState(true, ""))
}

func (s *server) handleUndo(w http.ResponseWriter, r *http.Request) {
	active, ok, err := s.history.Undo(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.historyState(ok, active))
}

func (s *server) handleRedo(w http.ResponseWriter, r *http.Request) {
	active, ok, err := s.history.Redo(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.historyState(ok, active))
}

/* Configuration file */

func (s *server) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.config.Export(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", configio.FileName(s.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *server) handleConfigImport(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	quotes := s.config.ImportsQuotes()
	if quotes {
		if err := s.capture(r, ""); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if err := s.config.Import(r.Context(), data); err != nil {
		if quotes {
			s.rejected(w, r, err)
			return
		}
		s.writeError(w, r, err)
		return
	}
	s.log.Info("configuration imported", "bytes", len(data))
	w.WriteHeader(http.StatusNoContent)
}

/* Settings */

func (s *server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := s.repo.Settings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *server) handleSettingsPut(w http.ResponseWriter, r *http.Request) {
	var settings model.Settings
	if err := decodeJSON(w, r, &settings); err != nil {
		s.writeError(w, r, err)
		return
	}
	if settings == nil {
		s.writeError(w, r, badRequest("settings must be an object"))
		return
	}
	if err := s.repo.SaveSettings(r.Context(), settings); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings.WithoutLocalKeys())
}

type localSetting struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func (s *server) handleLocalSettingGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	v, err := s.repo.LocalSetting(r.Context(), key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, localSetting{Key: key, Value: v})
}

func (s *server) handleLocalSettingPut(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req localSetting
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.repo.SaveLocalSetting(r.Context(), key, req.Value); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, localSetting{Key: key, Value: req.Value})
}

/* Mirror */

func (s *server) handleMirrorStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.mirror.Status(r.Context()))
}

func (s *server) handleMirrorEnable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PreferExisting bool `json:"preferExisting"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if req.PreferExisting {
		// Loading replaces quotes wholesale.
		if err := s.capture(r, ""); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if err := s.mirror.Enable(r.Context(), req.PreferExisting); err != nil {
		if req.PreferExisting {
			s.rejected(w, r, err)
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.mirror.Status(r.Context()))
}

func (s *server) handleMirrorDisable(w http.ResponseWriter, r *http.Request) {
	if err := s.mirror.Disable(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.mirror.Status(r.Context()))
}

func (s *server) handleMirrorSave(w http.ResponseWriter, r *http.Request) {
	if err := s.mirror.Save(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.mirror.Status(r.Context()))
}

func (s *server) handleMirrorLoad(w http.ResponseWriter, r *http.Request) {
	if err := s.capture(r, ""); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.mirror.Load(r.Context()); err != nil {
		s.rejected(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.mirror.Status(r.Context()))
}
