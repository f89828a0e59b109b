package http

import (
	"net/http"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
)

type startRequest struct {
	TemplateID string `json:"template_id"`
}

type valueRequest struct {
	Field domain.Field `json:"field"`
	Value float64      `json:"value"`
}

type bulkRequest struct {
	Weight *float64 `json:"weight"`
	Reps   *float64 `json:"reps"`
}

type focusRequest struct {
	Slot *int `json:"slot"`
}

type timerRequest struct {
	Seconds int `json:"seconds"`
}

type endRequest struct {
	Confirmed bool `json:"confirmed"`
}

type pendingConfirmation struct {
	PendingConfirmation bool                   `json:"pending_confirmation"`
	Status              domain.ExecutionStatus `json:"status"`
	Hint                string                 `json:"hint,omitempty"`
}

// slotParams binds the integer path parameters present on the route.
func slotParams(r *http.Request, names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		v, err := pathInt(name, chi.URLParam(r, name))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, session *domain.ActiveSession, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// GetSession handles the GET /session request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.Engine.ActiveSession(r.Context(), userFrom(r))
	s.writeSession(w, r, session, err)
}

// StartSession handles the POST /session request.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if !decode(w, r, &body) {
		return
	}
	session, err := s.Engine.StartSession(r.Context(), userFrom(r), body.TemplateID)
	s.writeSession(w, r, session, err)
}

// AbandonSession handles the DELETE /session request.
func (s *Server) AbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.AbandonSession(r.Context(), userFrom(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleSet handles the POST /session/slots/{slot}/sets/{set}/toggle request.
func (s *Server) ToggleSet(w http.ResponseWriter, r *http.Request) {
	p, err := slotParams(r, "slot", "set")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	session, err := s.Engine.ToggleSetCompletion(r.Context(), userFrom(r), p[0], p[1])
	s.writeSession(w, r, session, err)
}

// SetValue handles the PUT /session/slots/{slot}/exercises/{exercise}/sets/{set} request.
func (s *Server) SetValue(w http.ResponseWriter, r *http.Request) {
	p, err := slotParams(r, "slot", "set")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	var body valueRequest
	if !decode(w, r, &body) {
		return
	}
	session, err := s.Engine.SetSetValue(r.Context(), userFrom(r), p[0], chi.URLParam(r, "exercise"), p[1], body.Field, body.Value)
	s.writeSession(w, r, session, err)
}

// ApplyBulk handles the PUT /session/slots/{slot}/exercises/{exercise}/bulk request.
func (s *Server) ApplyBulk(w http.ResponseWriter, r *http.Request) {
	p, err := slotParams(r, "slot")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	var body bulkRequest
	if !decode(w, r, &body) {
		return
	}
	session, err := s.Engine.ApplyBulkToExercise(r.Context(), userFrom(r), p[0], chi.URLParam(r, "exercise"), body.Weight, body.Reps)
	s.writeSession(w, r, session, err)
}

// AddSet handles the POST /session/slots/{slot}/sets request.
func (s *Server) AddSet(w http.ResponseWriter, r *http.Request) {
	p, err := slotParams(r, "slot")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	session, err := s.Engine.AddSet(r.Context(), userFrom(r), p[0])
	s.writeSession(w, r, session, err)
}

// RemoveSet handles the DELETE /session/slots/{slot}/sets request.
func (s *Server) RemoveSet(w http.ResponseWriter, r *http.Request) {
	p, err := slotParams(r, "slot")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	session, err := s.Engine.RemoveSet(r.Context(), userFrom(r), p[0])
	s.writeSession(w, r, session, err)
}

// SetFocus handles the PUT /session/focus request. A null slot collapses
// every slot.
func (s *Server) SetFocus(w http.ResponseWriter, r *http.Request) {
	var body focusRequest
	if !decode(w, r, &body) {
		return
	}
	session, err := s.Engine.SetFocus(r.Context(), userFrom(r), body.Slot)
	s.writeSession(w, r, session, err)
}

// GetTimer handles the GET /session/timer request.
func (s *Server) GetTimer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Timer(userFrom(r)))
}

// StartTimer handles the POST /session/timer request.
func (s *Server) StartTimer(w http.ResponseWriter, r *http.Request) {
	var body timerRequest
	if !decode(w, r, &body) {
		return
	}
	userID := userFrom(r)
	s.Engine.StartTimer(userID, body.Seconds)
	writeJSON(w, http.StatusOK, s.Engine.Timer(userID))
}

// StopTimer handles the DELETE /session/timer request.
func (s *Server) StopTimer(w http.ResponseWriter, r *http.Request) {
	s.Engine.StopTimer(userFrom(r))
	w.WriteHeader(http.StatusNoContent)
}

// EndSession handles the POST /session/end request. An incomplete workout
// without confirmation answers 409 and leaves the session running.
func (s *Server) EndSession(w http.ResponseWriter, r *http.Request) {
	var body endRequest
	if !decode(w, r, &body) {
		return
	}
	record, err := s.Engine.EndSession(r.Context(), userFrom(r), body.Confirmed)
	if errors.Is(err, domain.ErrConfirmationRequired) {
		hints := errors.GetAllHints(err)
		resp := pendingConfirmation{PendingConfirmation: true, Status: domain.ExecutionIncomplete}
		if len(hints) > 0 {
			resp.Hint = hints[0]
		}
		writeJSON(w, http.StatusConflict, resp)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}
