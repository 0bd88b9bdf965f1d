package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type nopLogger struct{}

func (nopLogger) Debug(v ...any)                 {}
func (nopLogger) Info(v ...any)                  {}
func (nopLogger) Error(v ...any)                 {}
func (nopLogger) Tracef(format string, v ...any) {}
func (nopLogger) Debugf(format string, v ...any) {}
func (nopLogger) Infof(format string, v ...any)  {}
func (nopLogger) Warnf(format string, v ...any)  {}
func (nopLogger) Errorf(format string, v ...any) {}

func TestLoggingMiddlewareAttachesTraceContext(t *testing.T) {
	t.Parallel()
	s := Server{Logger: nopLogger{}}
	var tc traceContext
	h := s.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc = getTraceContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wish", nil))

	if tc.traceID == "" {
		t.Error("trace ID was not set on the request context")
	}
}

func TestLoggingMiddlewareRecoversFromPanic(t *testing.T) {
	t.Parallel()
	s := Server{Logger: nopLogger{}}
	h := s.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler blew up")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wish", nil))

	if got, want := rec.Code, http.StatusInternalServerError; got != want {
		t.Errorf("status = %d, want %d", got, want)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	t.Parallel()
	s := Server{Logger: nopLogger{}}
	h := s.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without credentials")
	}))

	for _, header := range []string{"", "Bearer ", "Basic dXNlcjpwYXNz"} {
		req := httptest.NewRequest(http.MethodGet, "/api/user/info", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got, want := rec.Code, http.StatusUnauthorized; got != want {
			t.Errorf("header %q: status = %d, want %d", header, got, want)
		}
	}
}

func TestWriteJsonResponse(t *testing.T) {
	t.Parallel()
	s := Server{Logger: nopLogger{}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/wish", nil)

	s.writeJsonResponse(rec, req, map[string]string{"message": "ok"}, http.StatusCreated)

	if got, want := rec.Code, http.StatusCreated; got != want {
		t.Errorf("status = %d, want %d", got, want)
	}
	if got, want := rec.Header().Get("Content-Type"), "application/json"; got != want {
		t.Errorf("content type = %q, want %q", got, want)
	}
	if !strings.Contains(rec.Body.String(), `"message":"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}
