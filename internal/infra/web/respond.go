package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"leadpilot/internal/domain"
	"leadpilot/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps domain errors onto HTTP statuses. Unknown errors are
// answered generically; the detail stays in the logs.
func writeError(w http.ResponseWriter, err error) {
	var fe *usecase.FieldError
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fe.Message, Field: fe.Field})
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request"})
	case errors.Is(err, domain.ErrNoSession):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "authentication required"})
	case errors.Is(err, domain.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorBody{Error: "action not available in this state"})
	case errors.Is(err, domain.ErrInsufficientCredits):
		writeJSON(w, http.StatusPaymentRequired, errorBody{Error: "insufficient credits"})
	case errors.Is(err, domain.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many attempts, try again later"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// gateResponse is the envelope for every gated action: either the action was
// allowed (and Result carries its output), or Presenter carries the banner
// the client must render.
type gateResponse struct {
	Allowed   bool                   `json:"allowed"`
	Result    interface{}            `json:"result,omitempty"`
	Presenter *usecase.PresenterView `json:"presenter,omitempty"`
}
