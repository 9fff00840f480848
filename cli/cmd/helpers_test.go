// ABOUTME: Shared fixtures for command tests
// ABOUTME: A fake web tier with cookie sessions plus isolated config and flag state

package cmd

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
)

// fakeWeb mimics the web tier routes the CLI calls.
type fakeWeb struct {
	mu       sync.Mutex
	requests []string
	uploads  [][]string
	fields   []map[string]string
	expired  bool
}

func (f *fakeWeb) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	_, cookieErr := r.Cookie("DRIVE_SESSION")
	signedIn := cookieErr == nil && !f.expired

	switch {
	case r.URL.Path == "/api/health":
		json.NewEncoder(w).Encode(models.HealthResponse{Status: "ok", DriveAPI: "ok", ProxyEnabled: true, Timestamp: "2026-10-16T08:00:00Z"})

	case r.URL.Path == "/api/auth/login":
		var req models.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "rahasia" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(models.LoginResponse{Error: "Username atau password salah"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "DRIVE_SESSION", Value: "sealed", Path: "/", HttpOnly: true})
		http.SetCookie(w, &http.Cookie{Name: "DRIVE_CSRF", Value: "csrf-123", Path: "/"})
		json.NewEncoder(w).Encode(models.LoginResponse{Success: true, User: testUser()})

	case r.URL.Path == "/api/auth/logout":
		json.NewEncoder(w).Encode(map[string]bool{"success": true})

	case r.URL.Path == "/api/auth/me":
		if !signedIn {
			json.NewEncoder(w).Encode(models.UserInfoResponse{Authenticated: false, Error: "Session expired"})
			return
		}
		refreshed := r.URL.Query().Get("refresh") == "1"
		if refreshed {
			http.SetCookie(w, &http.Cookie{Name: "DRIVE_SESSION", Value: "renewed", Path: "/", HttpOnly: true})
		}
		json.NewEncoder(w).Encode(models.UserInfoResponse{Authenticated: true, User: testUser(), Refreshed: refreshed})

	case strings.HasPrefix(r.URL.Path, "/api/folders/"):
		json.NewEncoder(w).Encode(map[string]any{"data": models.FolderContents{Items: []models.Item{}}})

	case strings.HasPrefix(r.URL.Path, "/api/upload"):
		if !signedIn {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Unauthorized", Code: 401})
			return
		}
		names, fields := readParts(r)
		f.uploads = append(f.uploads, names)
		f.fields = append(f.fields, fields)
		for _, n := range names {
			if strings.HasPrefix(n, "bad") {
				w.WriteHeader(http.StatusUnprocessableEntity)
				json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Storage quota exceeded", Code: 422})
				return
			}
		}
		json.NewEncoder(w).Encode(models.UploadResponse{Success: true, Data: []models.Item{}})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeWeb) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

// uploadRequests returns the file names and form fields of each upload
func (f *fakeWeb) uploadRequests() ([][]string, []map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.uploads...), append([]map[string]string(nil), f.fields...)
}

func (f *fakeWeb) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func readParts(r *http.Request) ([]string, map[string]string) {
	fields := map[string]string{}
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fields
	}
	var names []string
	for {
		p, err := mr.NextPart()
		if err != nil {
			break
		}
		if p.FileName() != "" {
			names = append(names, p.FileName())
			io.Copy(io.Discard, p)
			continue
		}
		v, _ := io.ReadAll(p)
		fields[p.FormName()] = string(v)
	}
	return names, fields
}

func testUser() *models.User {
	return &models.User{
		ID:       7,
		Name:     "Siti Aminah",
		Username: "siti",
		Email:    "siti@oganilirkab.go.id",
		Storage:  models.Storage{Total: 10 << 30, Used: 1 << 30, Percent: 10},
	}
}

// withFakeWeb points the commands at a fake web tier and an empty config dir
func withFakeWeb(t *testing.T) *fakeWeb {
	t.Helper()
	web := &fakeWeb{}
	server := httptest.NewServer(web)
	t.Cleanup(server.Close)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	apiURL = server.URL
	jsonOutput = false
	uploadTo = models.RootDestination
	uploadFolder = false
	whoamiRefresh = false
	t.Cleanup(func() {
		apiURL = ""
		jsonOutput = false
		uploadFolder = false
		whoamiRefresh = false
	})
	return web
}

// signIn logs in against the fake web tier so the session is saved
func signIn(t *testing.T) {
	t.Helper()
	var buf strings.Builder
	if code := runLogin(context.Background(), &buf, loginCreds("siti", "rahasia")); code != exitOK {
		t.Fatalf("login failed with exit %d: %s", code, buf.String())
	}
}
