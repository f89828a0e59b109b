package http

import (
	"net/http"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
)

// ListExercises handles the GET /exercises request.
func (s *Server) ListExercises(w http.ResponseWriter, r *http.Request) {
	list, err := s.Engine.Catalog().ListExercises(r.Context(), userFrom(r))
	if err != nil {
		s.writeError(w, r, domain.Unavailable(err))
		return
	}
	if list == nil {
		list = []domain.Exercise{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetExercise handles the GET /exercises/{id} request.
func (s *Server) GetExercise(w http.ResponseWriter, r *http.Request) {
	ex, err := s.Engine.Catalog().GetExercise(r.Context(), userFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

// CreateExercise handles the POST /exercises request. Omitted timer settings
// take the catalog defaults.
func (s *Server) CreateExercise(w http.ResponseWriter, r *http.Request) {
	s.saveExercise(w, r, "", http.StatusCreated)
}

// UpdateExercise handles the PUT /exercises/{id} request.
func (s *Server) UpdateExercise(w http.ResponseWriter, r *http.Request) {
	s.saveExercise(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (s *Server) saveExercise(w http.ResponseWriter, r *http.Request, id string, status int) {
	ex := domain.NewExercise(userFrom(r), id, "", "")
	if !decode(w, r, ex) {
		return
	}
	ex.UserID = userFrom(r)
	if id != "" {
		ex.ID = id
	}
	if err := s.Engine.SaveExercise(r.Context(), ex); err != nil {
		if !errors.Is(err, domain.ErrStorageUnavailable) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, ex)
}

// DeleteExercise handles the DELETE /exercises/{id} request.
func (s *Server) DeleteExercise(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Catalog().DeleteExercise(r.Context(), userFrom(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTemplates handles the GET /templates request.
func (s *Server) ListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.Engine.Templates().ListTemplates(r.Context(), userFrom(r))
	if err != nil {
		s.writeError(w, r, domain.Unavailable(err))
		return
	}
	if list == nil {
		list = []domain.Template{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetTemplate handles the GET /templates/{id} request.
func (s *Server) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.Engine.Templates().GetTemplate(r.Context(), userFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

// NextTemplate handles the GET /templates/next request.
func (s *Server) NextTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.Engine.NextTemplate(r.Context(), userFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

// CreateTemplate handles the POST /templates request.
func (s *Server) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	s.saveTemplate(w, r, "", http.StatusCreated)
}

// UpdateTemplate handles the PUT /templates/{id} request.
func (s *Server) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	s.saveTemplate(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (s *Server) saveTemplate(w http.ResponseWriter, r *http.Request, id string, status int) {
	var tmpl domain.Template
	if !decode(w, r, &tmpl) {
		return
	}
	tmpl.UserID = userFrom(r)
	if id != "" {
		tmpl.ID = id
	}
	if err := s.Engine.SaveTemplate(r.Context(), &tmpl); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, tmpl)
}

// DeleteTemplate handles the DELETE /templates/{id} request.
func (s *Server) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Templates().DeleteTemplate(r.Context(), userFrom(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListExecutions handles the GET /executions request.
func (s *Server) ListExecutions(w http.ResponseWriter, r *http.Request) {
	records, err := s.Engine.History(r.Context(), userFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.ExecutionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// GetReport handles the GET /report request.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Engine.Report(r.Context(), userFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
