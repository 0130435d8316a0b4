package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/NASA-AMMOS/aerie-gateway/pkg/serrors"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WritePipelineError reports a failed import or upload. Every pipeline
// failure is a 500; the code and kind tell clients what went wrong.
func WritePipelineError(w http.ResponseWriter, err error) error {
	return WriteError(w, http.StatusInternalServerError, serrors.CodeOf(err), err.Error(), map[string]string{
		"kind": string(serrors.KindOf(err)),
	})
}
