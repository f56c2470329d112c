package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	nerrors "github.com/matzehuels/nodel/pkg/errors"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    nerrors.Code `json:"code"`
	Message string       `json:"message"`
}

// StatusFor maps an error to the HTTP status it is reported with.
func StatusFor(err error) int {
	if nerrors.IsNotFound(err) {
		return http.StatusNotFound
	}
	switch nerrors.GetCode(err) {
	case nerrors.ErrCodeInvalidInput, nerrors.ErrCodeInvalidFormat, nerrors.ErrCodeInvalidName,
		nerrors.ErrCodeInvalidPath, nerrors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case nerrors.ErrCodeInvalidOperation, nerrors.ErrCodeInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	resp := ErrorResponse{Code: nerrors.GetCode(err), Message: nerrors.UserMessage(err)}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		if resp.Code == "" {
			resp.Code = nerrors.ErrCodeInternal
		}
		resp.Message = "internal error"
	}
	s.writeJSON(w, resp, status)
}

// decode reads a JSON body into v. An empty body leaves v unchanged when
// optional is true.
func decode(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if optional && err == io.EOF {
			return nil
		}
		return nerrors.Wrap(nerrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func isYAML(contentType string) bool {
	return strings.Contains(contentType, "yaml")
}
