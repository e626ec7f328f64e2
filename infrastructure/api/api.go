// Package api holds the small helpers JSON handlers share: decoding
// request bodies, writing payloads, and translating operation faults
// into status codes.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"stoneyard/factory/faults"
)

// Decode reads the request body into dst.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("api: encode response failed", slog.Any("err", err))
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// WriteError writes a JSON error payload with the given status code.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorBody{Error: msg})
}

// WriteFault maps an operation error to its status code. Faults keep
// their wrapped message; anything unrecognized is treated as a storage
// failure, logged, and reported without internals.
func WriteFault(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, faults.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, faults.ErrPermissionDenied):
		WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, faults.ErrDuplicateJobNo),
		errors.Is(err, faults.ErrDuplicateName),
		errors.Is(err, faults.ErrInvalidTransition),
		errors.Is(err, faults.ErrMachineBusy),
		errors.Is(err, faults.ErrResinLineBusy):
		WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, faults.ErrInvalidQuantity),
		errors.Is(err, faults.ErrInvalidArgument):
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("api: operation failed", slog.Any("err", err))
		WriteError(w, http.StatusInternalServerError, "storage failure, please retry")
	}
}
