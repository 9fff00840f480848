// ABOUTME: Persists the CLI's web tier session cookies between runs
// ABOUTME: Stores one session per API URL in the XDG config directory with owner-only permissions

package credentials

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Cookie is a saved name/value pair. The values are sealed by the server
// and opaque to the CLI.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Session is what a successful login leaves on disk.
type Session struct {
	APIURL   string    `json:"api_url"`
	Username string    `json:"username"`
	Cookies  []Cookie  `json:"cookies"`
	SavedAt  time.Time `json:"saved_at"`
}

// HTTPCookies converts the saved pairs for a cookie jar.
func (s *Session) HTTPCookies() []*http.Cookie {
	out := make([]*http.Cookie, len(s.Cookies))
	for i, c := range s.Cookies {
		out[i] = &http.Cookie{Name: c.Name, Value: c.Value}
	}
	return out
}

// FromHTTP builds a Session from the cookies a client currently holds.
func FromHTTP(apiURL, username string, cookies []*http.Cookie) *Session {
	s := &Session{APIURL: apiURL, Username: username, SavedAt: time.Now().UTC()}
	for _, c := range cookies {
		s.Cookies = append(s.Cookies, Cookie{Name: c.Name, Value: c.Value})
	}
	return s
}

type fileData struct {
	Sessions map[string]*Session `json:"sessions"`
}

// Store manages the session file
type Store struct {
	configDir string
}

// New creates a Store rooted at configDir
func New(configDir string) *Store {
	return &Store{configDir: configDir}
}

// DefaultConfigDir returns the default config directory following XDG spec
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "drive-ogan-ilir")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "drive-ogan-ilir")
}

// Path returns the session file location
func (s *Store) Path() string {
	return filepath.Join(s.configDir, "session.json")
}

func (s *Store) read() (*fileData, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return &fileData{Sessions: map[string]*Session{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var fd fileData
	if err := json.Unmarshal(data, &fd); err != nil || fd.Sessions == nil {
		// Unreadable file, start fresh
		return &fileData{Sessions: map[string]*Session{}}, nil
	}
	return &fd, nil
}

func (s *Store) write(fd *fileData) error {
	if err := os.MkdirAll(s.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(fd, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path())
}

// Load returns the saved session for apiURL, or nil when there is none
func (s *Store) Load(apiURL string) (*Session, error) {
	fd, err := s.read()
	if err != nil {
		return nil, err
	}
	return fd.Sessions[apiURL], nil
}

// Save replaces the session for its API URL
func (s *Store) Save(session *Session) error {
	fd, err := s.read()
	if err != nil {
		return err
	}
	fd.Sessions[session.APIURL] = session
	return s.write(fd)
}

// Delete forgets the session for apiURL. Deleting a missing session is not an error.
func (s *Store) Delete(apiURL string) error {
	fd, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := fd.Sessions[apiURL]; !ok {
		return nil
	}
	delete(fd.Sessions, apiURL)
	return s.write(fd)
}
