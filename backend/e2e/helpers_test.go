// ABOUTME: Test helpers for e2e tests
// ABOUTME: Provides env management, a mock Drive backend and a full web tier behind a real listener

package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angga1207/drive-oi-v3-sub000/backend/cache"
	"github.com/angga1207/drive-oi-v3-sub000/backend/config"
	"github.com/angga1207/drive-oi-v3-sub000/backend/handlers"
	"github.com/angga1207/drive-oi-v3-sub000/backend/middleware"
	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
	"github.com/angga1207/drive-oi-v3-sub000/backend/services"
)

const (
	mockToken    = "e2e-bearer-token"
	mockPassword = "rahasia"
)

// withTestDriveEnv sets DRIVE_API_URL plus additional vars,
// returning a cleanup function that restores all original values.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    t.Cleanup(withTestDriveEnv(t, backend.URL, map[string]string{
//	        "CORS_ALLOWED_ORIGINS": "https://example.com",
//	    }))
//	}
func withTestDriveEnv(t *testing.T, driveURL string, extra map[string]string) func() {
	t.Helper()

	originals := map[string]string{
		"DRIVE_API_URL":      os.Getenv("DRIVE_API_URL"),
		"APP_ENV":            os.Getenv("APP_ENV"),
		"RATE_LIMIT_ENABLED": os.Getenv("RATE_LIMIT_ENABLED"),
	}
	for key := range extra {
		originals[key] = os.Getenv(key)
	}

	os.Setenv("DRIVE_API_URL", driveURL)
	os.Setenv("APP_ENV", "test")
	os.Setenv("RATE_LIMIT_ENABLED", "false")
	for key, value := range extra {
		os.Setenv(key, value)
	}

	return func() {
		for key, value := range originals {
			os.Setenv(key, value)
		}
	}
}

// mockDrive is an in-memory Drive backend: users, revocations and received uploads.
type mockDrive struct {
	mu      sync.Mutex
	users   map[string]models.User // username -> profile
	revoked map[string]bool
	uploads []receivedUpload
	logouts int
}

type receivedUpload struct {
	Path       string
	FolderName string
	Files      []string
}

func newMockDrive() *mockDrive {
	return &mockDrive{
		users: map[string]models.User{
			"siti":  {ID: 7, Username: "siti", Name: "Siti Aminah", Email: "siti@oganilirkab.go.id", Role: "user"},
			"admin": {ID: 1, Username: "admin", Name: "Administrator", Role: "admin"},
		},
		revoked: map[string]bool{},
	}
}

func (m *mockDrive) tokenFor(username string) string {
	return mockToken + "-" + username
}

func (m *mockDrive) userForToken(r *http.Request) (models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, u := range m.users {
		if r.Header.Get("Authorization") == "Bearer "+m.tokenFor(name) && !m.revoked[m.tokenFor(name)] {
			return u, true
		}
	}
	return models.User{}, false
}

func (m *mockDrive) revoke(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[m.tokenFor(username)] = true
}

func (m *mockDrive) received() []receivedUpload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]receivedUpload(nil), m.uploads...)
}

func (m *mockDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.URL.Path == "/auth/login" {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		m.mu.Lock()
		u, ok := m.users[body["username"]]
		m.mu.Unlock()
		if !ok || body["password"] != mockPassword {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Username atau password salah"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"token": m.tokenFor(u.Username), "user": u},
		})
		return
	}

	user, ok := m.userForToken(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Unauthenticated."})
		return
	}

	switch {
	case r.URL.Path == "/auth/logout":
		m.mu.Lock()
		m.logouts++
		m.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"status": "success"})
	case r.URL.Path == "/auth/me":
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": user})
	case strings.HasPrefix(r.URL.Path, "/files/"):
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		up := receivedUpload{Path: r.URL.Path, FolderName: r.FormValue("folderName")}
		for _, fh := range r.MultipartForm.File["files[]"] {
			up.Files = append(up.Files, fh.Filename)
		}
		m.mu.Lock()
		m.uploads = append(m.uploads, up)
		m.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "message": "Berhasil diunggah", "data": []any{}})
	case r.URL.Path == "/folders/root":
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": map[string]any{"items": []any{}}})
	case r.URL.Path == "/admin/users":
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": []any{}})
	default:
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Tidak ditemukan"})
	}
}

// stack is the web tier under test plus its mock backend.
type stack struct {
	drive  *mockDrive
	server *httptest.Server
	cfg    *config.Config
}

// newStack starts the mock backend and the full web tier built from env config.
func newStack(t *testing.T, extraEnv map[string]string) *stack {
	t.Helper()

	drive := newMockDrive()
	backend := httptest.NewServer(drive)
	t.Cleanup(backend.Close)

	t.Cleanup(withTestDriveEnv(t, backend.URL, extraEnv))

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load failed: %v", err)
	}

	sealer, err := services.NewRandomSealer()
	if err != nil {
		t.Fatalf("NewRandomSealer failed: %v", err)
	}
	sessions := services.NewSessionService(sealer, cfg.CookieSecure)
	profiles := cache.New[models.User](time.Minute)
	t.Cleanup(profiles.Close)

	h := handlers.NewHandler(cfg, sessions, profiles)

	var limiters handlers.Limiters
	if cfg.RateLimitEnabled {
		limiters = handlers.Limiters{
			Auth:    middleware.NewRateLimiter(cfg.RateLimitAuth, time.Minute),
			Upload:  middleware.NewRateLimiter(cfg.RateLimitUpload, time.Minute),
			Default: middleware.NewRateLimiter(cfg.RateLimitDefault, time.Minute),
		}
	}

	srv := httptest.NewServer(h.Server(limiters))
	t.Cleanup(srv.Close)

	return &stack{drive: drive, server: srv, cfg: cfg}
}

// browser returns a client with a cookie jar that does not follow redirects.
func (s *stack) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New failed: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// cookie returns the named cookie the client holds for the web tier, or nil.
func (s *stack) cookie(t *testing.T, client *http.Client, name string) *http.Cookie {
	t.Helper()
	u, _ := url.Parse(s.server.URL)
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == name {
			return c
		}
	}
	return nil
}
