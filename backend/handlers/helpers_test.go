// ABOUTME: Shared fixtures for handler tests
// ABOUTME: Mock Drive backend, a sealed-cookie session service and request helpers

package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angga1207/drive-oi-v3-sub000/backend/cache"
	"github.com/angga1207/drive-oi-v3-sub000/backend/config"
	"github.com/angga1207/drive-oi-v3-sub000/backend/middleware"
	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
	"github.com/angga1207/drive-oi-v3-sub000/backend/services"
)

const testToken = "tok-siti"

var testUser = models.User{ID: 7, Username: "siti", Name: "Siti Aminah", Role: "user"}

type testEnv struct {
	h        *Handler
	cfg      *config.Config
	sessions *services.SessionService
	backend  *httptest.Server
}

// newTestEnv starts a mock Drive backend and wires a Handler to it.
// A nil backend handler answers 500 to everything. opts adjust the config
// before the Handler is built.
func newTestEnv(t *testing.T, backend http.HandlerFunc, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	if backend == nil {
		backend = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	sealer, err := services.NewSealer([]byte("handler-test-secret-handler-test-secret"))
	require.NoError(t, err)
	sessions := services.NewSessionService(sealer, false)

	cfg := &config.Config{
		Environment:        "test",
		DriveAPIURL:        srv.URL,
		DriveAPITimeout:    5 * time.Second,
		UploadMaxBytes:     1 << 20,
		CORSAllowedOrigins: []string{"https://drive.oganilirkab.go.id"},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &testEnv{
		h:        NewHandler(cfg, sessions, cache.New[models.User](time.Minute)),
		cfg:      cfg,
		sessions: sessions,
		backend:  srv,
	}
}

// sessionCookies mints a valid session cookie and a CSRF cookie for user.
func (e *testEnv) sessionCookies(t *testing.T, user models.User) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, e.sessions.Set(rec, testToken, user))
	_, err := middleware.IssueCSRFToken(rec, false)
	require.NoError(t, err)
	return rec.Result().Cookies()
}

// authed attaches session cookies and the matching CSRF header to req.
func (e *testEnv) authed(t *testing.T, req *http.Request, user models.User) *http.Request {
	t.Helper()
	for _, c := range e.sessionCookies(t, user) {
		req.AddCookie(c)
		if c.Name == middleware.CSRFCookieName {
			req.Header.Set(middleware.CSRFHeaderName, c.Value)
		}
	}
	return req
}

// serve runs req through the full route table with rate limiting disabled.
func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.h.Server(Limiters{}).ServeHTTP(w, req)
	return w
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// multipartBody builds an upload body with the given files and extra fields.
func multipartBody(t *testing.T, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, mw.WriteField(name, value))
	}
	for name, content := range files {
		part, err := mw.CreateFormFile(filesField, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

func writeBackendFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "error",
		"message": message,
	})
}
