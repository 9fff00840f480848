// ABOUTME: Tests for session persistence
// ABOUTME: Validates XDG storage, file permissions and per-URL isolation

package credentials

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFile(t *testing.T) {
	s := New(t.TempDir())

	session, err := s.Load("http://localhost:8080")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session != nil {
		t.Errorf("expected no session, got %+v", session)
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := New(t.TempDir())
	saved := &Session{
		APIURL:   "http://localhost:8080",
		Username: "siti",
		Cookies:  []Cookie{{Name: "DRIVE_SESSION", Value: "sealed"}, {Name: "DRIVE_CSRF", Value: "csrf"}},
	}

	if err := s.Save(saved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Load("http://localhost:8080")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Username != "siti" || len(got.Cookies) != 2 {
		t.Fatalf("unexpected session: %+v", got)
	}
	cookies := got.HTTPCookies()
	if cookies[0].Name != "DRIVE_SESSION" || cookies[0].Value != "sealed" {
		t.Errorf("unexpected cookie: %+v", cookies[0])
	}
}

func TestSave_Permissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "drive-ogan-ilir")
	s := New(dir)

	if err := s.Save(&Session{APIURL: "http://localhost:8080"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(s.Path())
	if err != nil {
		t.Fatalf("session file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected 0600, got %o", perm)
	}
	dirInfo, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("config dir missing: %v", err)
	}
	if perm := dirInfo.Mode().Perm(); perm != 0o700 {
		t.Errorf("expected 0700, got %o", perm)
	}
}

func TestSessionsAreKeyedByURL(t *testing.T) {
	s := New(t.TempDir())
	s.Save(&Session{APIURL: "https://drive.oganilirkab.go.id", Username: "prod"})
	s.Save(&Session{APIURL: "http://localhost:8080", Username: "dev"})

	if err := s.Delete("http://localhost:8080"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gone, _ := s.Load("http://localhost:8080")
	if gone != nil {
		t.Error("expected dev session deleted")
	}
	kept, _ := s.Load("https://drive.oganilirkab.go.id")
	if kept == nil || kept.Username != "prod" {
		t.Errorf("expected prod session kept, got %+v", kept)
	}
}

func TestDelete_Missing(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Delete("http://localhost:8080"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("delete of a missing session should not create the file")
	}
}

func TestLoad_CorruptFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	session, err := s.Load("http://localhost:8080")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session != nil {
		t.Errorf("expected no session, got %+v", session)
	}
}

func TestDefaultConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := DefaultConfigDir(); got != "/tmp/xdg/drive-ogan-ilir" {
		t.Errorf("expected XDG path, got %s", got)
	}
}
