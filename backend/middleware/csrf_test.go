// ABOUTME: Tests for CSRF middleware
// ABOUTME: Validates double-submit cookie pattern implementation

package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// 44-character tokens matching base64url-encoded 32 bytes
const (
	testCSRFToken  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnop=="
	testCSRFToken2 = "ZYXWVUTSRQPONMLKJIHGFEDCBAzyxwvutsrqponmlk=="
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestCSRF_SkipsSafeMethods(t *testing.T) {
	handler := CSRF()(okHandler)

	for _, method := range []string{"GET", "HEAD", "OPTIONS"} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/api/shared", nil)
			req.AddCookie(&http.Cookie{Name: "DRIVE_SESSION", Value: "sealed"})
			rr := httptest.NewRecorder()
			handler(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("Expected 200 for %s, got %d", method, rr.Code)
			}
		})
	}
}

func TestCSRF_SkipsNoSessionCookie(t *testing.T) {
	handler := CSRF()(okHandler)

	req := httptest.NewRequest("POST", "/api/upload/root", nil)
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 without session cookie, got %d", rr.Code)
	}
}

func TestCSRF_RejectsMissingHeader(t *testing.T) {
	handler := CSRF()(okHandler)

	req := httptest.NewRequest("POST", "/api/upload/root", nil)
	req.AddCookie(&http.Cookie{Name: "DRIVE_SESSION", Value: "sealed"})
	req.AddCookie(&http.Cookie{Name: "DRIVE_CSRF", Value: testCSRFToken})
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for missing header, got %d", rr.Code)
	}
}

func TestCSRF_RejectsMissingCookie(t *testing.T) {
	handler := CSRF()(okHandler)

	req := httptest.NewRequest("POST", "/api/upload/root", nil)
	req.AddCookie(&http.Cookie{Name: "DRIVE_SESSION", Value: "sealed"})
	req.Header.Set("X-CSRF-Token", testCSRFToken)
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for missing cookie, got %d", rr.Code)
	}
}

func TestCSRF_RejectsTokenMismatch(t *testing.T) {
	handler := CSRF()(okHandler)

	req := httptest.NewRequest("POST", "/api/upload/root", nil)
	req.AddCookie(&http.Cookie{Name: "DRIVE_SESSION", Value: "sealed"})
	req.AddCookie(&http.Cookie{Name: "DRIVE_CSRF", Value: testCSRFToken})
	req.Header.Set("X-CSRF-Token", testCSRFToken2)
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for token mismatch, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON error body, got Content-Type %q", ct)
	}
}

func TestCSRF_RejectsInvalidTokenLength(t *testing.T) {
	handler := CSRF()(okHandler)

	req := httptest.NewRequest("POST", "/api/upload/root", nil)
	req.AddCookie(&http.Cookie{Name: "DRIVE_SESSION", Value: "sealed"})
	req.AddCookie(&http.Cookie{Name: "DRIVE_CSRF", Value: "short"})
	req.Header.Set("X-CSRF-Token", "short")
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for short token, got %d", rr.Code)
	}
}

func TestCSRF_AcceptsValidHeader(t *testing.T) {
	handler := CSRF()(okHandler)

	req := httptest.NewRequest("POST", "/api/upload/root", nil)
	req.AddCookie(&http.Cookie{Name: "DRIVE_SESSION", Value: "sealed"})
	req.AddCookie(&http.Cookie{Name: "DRIVE_CSRF", Value: testCSRFToken})
	req.Header.Set("X-CSRF-Token", testCSRFToken)
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 for valid token, got %d", rr.Code)
	}
}

func TestCSRF_AcceptsFormField(t *testing.T) {
	handler := CSRF()(okHandler)

	form := url.Values{"csrf_token": {testCSRFToken}}
	req := httptest.NewRequest("POST", "/logout", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "DRIVE_SESSION", Value: "sealed"})
	req.AddCookie(&http.Cookie{Name: "DRIVE_CSRF", Value: testCSRFToken})
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 for valid form token, got %d", rr.Code)
	}
}

func TestCSRF_IgnoresFormFieldInMultipart(t *testing.T) {
	handler := CSRF()(okHandler)

	body := "--b\r\nContent-Disposition: form-data; name=\"csrf_token\"\r\n\r\n" + testCSRFToken + "\r\n--b--\r\n"
	req := httptest.NewRequest("POST", "/api/upload/root", strings.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")
	req.AddCookie(&http.Cookie{Name: "DRIVE_SESSION", Value: "sealed"})
	req.AddCookie(&http.Cookie{Name: "DRIVE_CSRF", Value: testCSRFToken})
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 when multipart carries no header, got %d", rr.Code)
	}
}

func TestCSRF_SkipsLoginPaths(t *testing.T) {
	handler := CSRF()(okHandler)

	for _, path := range []string{"/api/auth/login", "/login"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest("POST", path, nil)
			req.AddCookie(&http.Cookie{Name: "DRIVE_SESSION", Value: "stale"})
			rr := httptest.NewRecorder()
			handler(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("Expected 200 for %s, got %d", path, rr.Code)
			}
		})
	}
}

func TestCSRF_DoesNotSkipOtherWrites(t *testing.T) {
	handler := CSRF()(okHandler)

	paths := []string{"/api/auth/logout", "/api/upload/root", "/api/upload-in-folder/root", "/logout"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest("POST", path, nil)
			req.AddCookie(&http.Cookie{Name: "DRIVE_SESSION", Value: "sealed"})
			rr := httptest.NewRecorder()
			handler(rr, req)

			if rr.Code != http.StatusForbidden {
				t.Errorf("Expected 403 for %s without token, got %d", path, rr.Code)
			}
		})
	}
}

func TestIssueCSRFToken(t *testing.T) {
	rr := httptest.NewRecorder()
	token, err := IssueCSRFToken(rr, true)
	if err != nil {
		t.Fatalf("IssueCSRFToken returned error: %v", err)
	}
	if len(token) != csrfTokenLength {
		t.Errorf("Expected %d-char token, got %d", csrfTokenLength, len(token))
	}

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != CSRFCookieName || c.Value != token {
		t.Errorf("Unexpected cookie %s=%s", c.Name, c.Value)
	}
	if c.HttpOnly {
		t.Error("CSRF cookie must be readable by clients")
	}
	if !c.Secure {
		t.Error("Expected Secure cookie")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(c)
	if got := CSRFToken(req); got != token {
		t.Errorf("CSRFToken() = %q, want %q", got, token)
	}
}
