package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ljramones/lore-ingest-go/internal/domain"
)

// errorEnvelope is the {ok:false, error:{type,message}} shape every failed
// response takes. Mirrors service/http_app.py's exception handlers.
type errorEnvelope struct {
	OK    bool      `json:"ok"`
	Error errorBody `json:"error"`
}

type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, errorEnvelope{OK: false, Error: errorBody{Type: errType, Message: message}})
}

// writeDomainError maps a domain/store error to its HTTP status and
// envelope, covering the sentinels every read handler can return.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NotFound", err.Error())
	case errors.Is(err, domain.ErrOutOfRange):
		writeError(w, http.StatusRequestedRangeNotSatisfiable, "OutOfRange", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "InvalidInput", err.Error())
	default:
		var ie *domain.IngestError
		if errors.As(err, &ie) {
			writeError(w, statusForKind(ie.Kind), string(ie.Kind), ie.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "InternalError", err.Error())
	}
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindUnsupportedFileType:
		return http.StatusUnsupportedMediaType
	case domain.KindOversizedInput:
		return http.StatusRequestEntityTooLarge
	case domain.KindDependencyMissing:
		return http.StatusServiceUnavailable
	case domain.KindParseError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
