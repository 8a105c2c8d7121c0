// Package httputil holds the JSON response and error-mapping helpers shared
// by all HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	dErrors "attestgate/pkg/domain-errors"
	"attestgate/pkg/platform/sentinel"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteError maps a domain error to its HTTP status and writes the standard
// error body. Internal errors never leak their message to the client; the
// handler is expected to have logged the cause already.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	if errors.Is(err, sentinel.ErrNotFound) {
		code = dErrors.CodeNotFound
	}

	resp := errorResponse{Error: string(code)}
	if code.HTTPStatus() < http.StatusInternalServerError {
		var de *dErrors.Error
		if errors.As(err, &de) {
			resp.Description = de.Message
		}
	}

	WriteJSON(w, code.HTTPStatus(), resp)
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
// Returns a CodeBadRequest domain error on any decode failure so handlers
// can pass it straight to WriteError.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(fmt.Errorf("decode request body: %w", err), dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
