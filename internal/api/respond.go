package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Spok95/batchflow/internal/fulfillment"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, reason string) {
	writeJSON(w, status, errorBody{Error: kind, Reason: reason})
}

// invalidStatus is the HTTP status an INVALID_STATE maps to. Submissions
// report it as a bad request, decisions on already-decided bids as a conflict.
type invalidStatus int

const (
	onSubmit  invalidStatus = http.StatusBadRequest
	onResolve invalidStatus = http.StatusConflict
)

// fail writes an engine error. Unclassified errors are logged and hidden
// behind a 500.
func fail(w http.ResponseWriter, log *slog.Logger, err error, invalid invalidStatus) {
	var e *fulfillment.Error
	if !errors.As(err, &e) {
		log.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	status := http.StatusInternalServerError
	switch e.Kind {
	case fulfillment.KindNotFound:
		status = http.StatusNotFound
	case fulfillment.KindUnauthorized:
		status = http.StatusUnauthorized
	case fulfillment.KindInvalidState:
		status = int(invalid)
	case fulfillment.KindConflict:
		status = http.StatusConflict
	case fulfillment.KindInvalidArgument:
		status = http.StatusBadRequest
	case fulfillment.KindTransactionConflict:
		w.Header().Set("Retry-After", "1")
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, string(e.Kind), e.Reason)
}

func badRequest(w http.ResponseWriter, reason string) {
	writeError(w, http.StatusBadRequest, string(fulfillment.KindInvalidArgument), reason)
}

func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, string(fulfillment.KindNotFound), "unknown id")
		return uuid.Nil, false
	}
	return id, true
}
