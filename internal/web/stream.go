package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-predict/internal/activity"
	"github.com/p-n-ai/pai-predict/internal/predict"
	"github.com/p-n-ai/pai-predict/internal/progress"
)

// Stream event types.
const (
	eventProgress = "progress"
	eventResult   = "result"
	eventError    = "error"
)

// streamEvent is one websocket message. A stream is zero or more progress
// events followed by exactly one result or error event.
type streamEvent struct {
	Type     string           `json:"type"`
	Progress *progress.Tick   `json:"progress,omitempty"`
	Result   *predict.Result  `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
	Message  string           `json:"message,omitempty"`
	Log      []activity.Entry `json:"log,omitempty"`
}

// handleStream plays the progress animation over a websocket and then
// delivers the prediction. Gate failures are reported as plain HTTP errors
// before the upgrade.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	st, err := s.beginPredict(r.Context(), id)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "session_id", id, "error", err)
		s.finishPredict(r.Context(), id, predict.Result{}, err)
		return
	}
	defer conn.CloseNow()

	// No client messages are expected; CloseRead ends ctx when the peer leaves.
	ctx := conn.CloseRead(r.Context())

	err = s.progress.Run(ctx, func(t progress.Tick) {
		if werr := wsjson.Write(ctx, conn, streamEvent{Type: eventProgress, Progress: &t}); werr != nil {
			slog.Debug("progress write failed", "session_id", id, "error", werr)
		}
	})
	if err != nil {
		slog.Info("prediction stream abandoned", "session_id", id, "error", err)
		s.finishPredict(ctx, id, predict.Result{}, err)
		return
	}

	res, err := s.predictor.Predict(ctx, st.Selection)
	s.finishPredict(ctx, id, res, err)

	ev := streamEvent{Type: eventResult, Result: &res}
	if err != nil {
		_, code := classify(err)
		ev = streamEvent{Type: eventError, Error: code, Message: err.Error(), Log: res.Log}
	}
	if err := wsjson.Write(ctx, conn, ev); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Warn("result write failed", "session_id", id, "error", err)
		}
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}
