package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"devwish/internal/misc"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s Server) writeJsonResponse(w http.ResponseWriter, r *http.Request, v any, statusCode int) {
	tc := getTraceContext(r.Context())
	resp, err := json.Marshal(v)
	if err != nil {
		s.Logger.Errorf("%s: error marshalling response, err: %+v", tc, errors.WithStack(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(resp); err != nil {
		s.Logger.Errorf("%s: error writing response, err: %+v", tc, errors.WithStack(err))
		return
	}
	s.Logger.Tracef("%s: response written, status: %d, body: %s",
		tc, statusCode, misc.BytesLimit(resp, 500))
}

func (s Server) writeError(w http.ResponseWriter, r *http.Request, msg string, statusCode int) {
	s.writeJsonResponse(w, r, errorResponse{Error: msg}, statusCode)
}

func decodeJsonBody(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	body := http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.Wrap(err, "decoding request body")
	}
	return nil
}
