package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-predict/internal/predict"
	"github.com/p-n-ai/pai-predict/internal/selection"
)

const maxBodyBytes = 4 << 10

// sessionResponse is a session as returned by the API.
type sessionResponse struct {
	selection.State
	PredictEnabled bool `json:"predict_enabled"`
}

func newSessionResponse(st selection.State) sessionResponse {
	return sessionResponse{State: st, PredictEnabled: st.PredictEnabled()}
}

// selectionPatch changes any subset of the non-mode choices.
type selectionPatch struct {
	University *string `json:"university"`
	Stream     *string `json:"stream"`
	Year       *string `json:"year"`
	Subject    *string `json:"subject"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Create(r.Context(), selection.NewWithDefaultMode(s.catalog))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	slog.Info("session created", "session_id", st.ID)
	writeJSON(w, http.StatusCreated, newSessionResponse(st))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(st))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var patch selectionPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	st, err := s.store.Update(r.Context(), r.PathValue("id"), func(st *selection.State) error {
		if patch.University != nil {
			if err := st.SetUniversity(s.catalog, *patch.University); err != nil {
				return err
			}
		}
		if patch.Stream != nil {
			if err := st.SetStream(s.catalog, *patch.Stream); err != nil {
				return err
			}
		}
		if patch.Year != nil {
			if err := st.SetYear(s.catalog, *patch.Year); err != nil {
				return err
			}
		}
		if patch.Subject != nil {
			if err := st.SetSubject(s.catalog, *patch.Subject); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(st))
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	st, err := s.store.Update(r.Context(), r.PathValue("id"), func(st *selection.State) error {
		return st.SetMode(s.catalog, req.Mode)
	})
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(st))
}

// handlePredict runs a prediction straight away, without the progress
// animation.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	st, err := s.beginPredict(r.Context(), id)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	res, err := s.predictor.Predict(r.Context(), st.Selection)
	s.finishPredict(r.Context(), id, res, err)
	if err != nil {
		writeError(w, err, res.Log)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// beginPredict takes the session's predict gate.
func (s *Server) beginPredict(ctx context.Context, id string) (selection.State, error) {
	return s.store.Update(ctx, id, func(st *selection.State) error {
		return st.BeginPredict()
	})
}

// finishPredict releases the predict gate and records the outcome. It runs
// even if the request context has ended so the gate is never left taken.
func (s *Server) finishPredict(ctx context.Context, id string, res predict.Result, predictErr error) {
	ctx = context.WithoutCancel(ctx)
	_, err := s.store.Update(ctx, id, func(st *selection.State) error {
		var p *selection.Prediction
		if predictErr == nil {
			p = res.Prediction(s.now())
		}
		if res.Log != nil {
			st.Log = res.Log
		}
		st.FinishPredict(p)
		return nil
	})
	if err != nil {
		slog.Error("failed to release predict gate", "session_id", id, "error", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}
