package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ElHadji11/farmconnect-backend/internal/domain"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", domain.ErrValidation)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// writeError maps domain errors to HTTP statuses. Unclassified errors are
// logged and answered with a generic 500 so internals never leak.
func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	var status int
	message := err.Error()

	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrOptimisticLock):
		status = http.StatusConflict
		message = "the post was modified concurrently, please retry"
	case errors.Is(err, domain.ErrUpload):
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
		message = "internal server error"
		log.Error("Unhandled error in request", zap.Error(err))
	}

	writeJSON(w, status, errorResponse{Error: message})
}
