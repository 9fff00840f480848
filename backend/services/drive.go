// ABOUTME: HTTP client for the Drive backend API
// ABOUTME: Forwards bearer-authenticated calls and streams multipart uploads, optionally via SSH+SOCKS5

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cloudfoundry/socks5-proxy"

	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
)

// ErrNotAuthenticated is returned before any network I/O when a call needs a
// bearer token and none is available.
var ErrNotAuthenticated = errors.New("not authenticated")

// APIError carries a non-2xx answer from the Drive backend.
// Message and Status are passed through to callers unchanged.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("drive backend error (status %d): %s", e.Status, e.Message)
}

// FilePart is one file to forward in a multipart upload.
type FilePart struct {
	Filename    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// LoginResult is the backend's answer to a successful login.
type LoginResult struct {
	Token string
	User  models.User
}

// UploadResult is the backend's answer to a successful upload.
type UploadResult struct {
	Message string
	Items   []models.Item
}

// envelope is the backend's standard response wrapper
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type DriveClient struct {
	baseURL      string
	client       *http.Client
	uploadClient *http.Client
	proxied      bool
}

// NewDriveClient creates a client for the backend at baseURL.
// allProxy, when set, routes connections through an SSH+SOCKS5 jumpbox
// (format: ssh+socks5://user@host:port?private-key=/path/to/key).
func NewDriveClient(baseURL string, timeout time.Duration, allProxy string) *DriveClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSHandshakeTimeout = 30 * time.Second

	proxied := false
	if allProxy != "" {
		if dialContextFunc := createSOCKS5DialContextFunc(allProxy); dialContextFunc != nil {
			transport.DialContext = dialContextFunc
			transport.Proxy = nil
			proxied = true
		}
	}

	// Uploads stream bodies up to UPLOAD_MAX_BYTES, so only the wait for the
	// response headers is bounded.
	uploadTransport := transport.Clone()
	uploadTransport.ResponseHeaderTimeout = timeout

	return &DriveClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		uploadClient: &http.Client{Transport: uploadTransport},
		proxied:      proxied,
	}
}

// SetHTTPClient allows overriding the HTTP client (useful for testing)
func (d *DriveClient) SetHTTPClient(client *http.Client) {
	d.client = client
	d.uploadClient = client
}

// Proxied reports whether connections go through the SOCKS5 jumpbox
func (d *DriveClient) Proxied() bool {
	return d.proxied
}

// Login exchanges credentials for a bearer token and profile snapshot.
func (d *DriveClient) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	body, err := json.Marshal(map[string]string{
		"username": identifier,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var data struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	if _, err := d.doJSON(req, &data); err != nil {
		return nil, err
	}
	if data.Token == "" {
		return nil, fmt.Errorf("drive backend returned no token")
	}

	return &LoginResult{Token: data.Token, User: data.User}, nil
}

// Logout revokes the token on the backend.
func (d *DriveClient) Logout(ctx context.Context, token string) error {
	req, err := d.newAuthedRequest(ctx, http.MethodPost, "/auth/logout", token, nil)
	if err != nil {
		return err
	}
	_, err = d.doJSON(req, nil)
	return err
}

// Profile fetches the current user's profile.
func (d *DriveClient) Profile(ctx context.Context, token string) (*models.User, error) {
	req, err := d.newAuthedRequest(ctx, http.MethodGet, "/auth/me", token, nil)
	if err != nil {
		return nil, err
	}

	var user models.User
	if _, err := d.doJSON(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Folder fetches one folder's listing; slug "root" is the user's root.
func (d *DriveClient) Folder(ctx context.Context, token, slug string) (*models.FolderContents, error) {
	req, err := d.newAuthedRequest(ctx, http.MethodGet, "/folders/"+url.PathEscape(slug), token, nil)
	if err != nil {
		return nil, err
	}

	var contents models.FolderContents
	if _, err := d.doJSON(req, &contents); err != nil {
		return nil, err
	}
	return &contents, nil
}

// Upload forwards files into destinationID.
func (d *DriveClient) Upload(ctx context.Context, token, destinationID string, files []FilePart) (*UploadResult, error) {
	return d.upload(ctx, token, "/files/upload/"+url.PathEscape(destinationID), nil, files)
}

// UploadInFolder forwards files as one folder named folderName inside destinationID.
func (d *DriveClient) UploadInFolder(ctx context.Context, token, destinationID, folderName string, files []FilePart) (*UploadResult, error) {
	fields := map[string]string{"folderName": folderName}
	return d.upload(ctx, token, "/files/upload-in-folder/"+url.PathEscape(destinationID), fields, files)
}

// Forward performs an authenticated request and hands back the raw response.
// The caller owns resp.Body.
func (d *DriveClient) Forward(ctx context.Context, method, path string, query url.Values, token string) (*http.Response, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	req, err := d.newAuthedRequest(ctx, method, path, token, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive backend request failed: %w", err)
	}
	return resp, nil
}

// Ping checks that the backend answers at all.
func (d *DriveClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("drive backend returned status %d", resp.StatusCode)
	}
	return nil
}

func (d *DriveClient) upload(ctx context.Context, token, path string, fields map[string]string, files []FilePart) (*UploadResult, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to upload")
	}

	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, fields, files))
	}()

	req, err := d.newAuthedRequest(ctx, http.MethodPost, path, token, pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var items []models.Item
	message, err := d.doJSONWith(d.uploadClient, req, &items)
	if err != nil {
		return nil, err
	}

	slog.Debug("Drive upload forwarded", "path", path, "files", len(files), "items", len(items))
	return &UploadResult{Message: message, Items: items}, nil
}

func writeMultipart(mw *multipart.Writer, fields map[string]string, files []FilePart) error {
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}

	for _, f := range files {
		if err := writeFilePart(mw, f); err != nil {
			return err
		}
	}

	return mw.Close()
}

func writeFilePart(mw *multipart.Writer, f FilePart) error {
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files[]"; filename="%s"`, escapeQuotes(f.Filename)))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Filename, err)
	}
	defer src.Close()

	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to stream %s: %w", f.Filename, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func (d *DriveClient) newAuthedRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON sends req and decodes the envelope's data into out (if non-nil).
// Non-2xx answers become *APIError carrying the backend's message and status.
func (d *DriveClient) doJSON(req *http.Request, out any) (string, error) {
	return d.doJSONWith(d.client, req, out)
}

func (d *DriveClient) doJSONWith(hc *http.Client, req *http.Request, out any) (string, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("drive backend request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read drive backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{Status: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return "", nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("invalid response from drive backend: %w", err)
	}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", fmt.Errorf("invalid response data from drive backend: %w", err)
		}
	}
	return env.Message, nil
}

// errorMessage extracts the most specific message from an error body
func errorMessage(raw []byte, status int) string {
	var env envelope
	if json.Unmarshal(raw, &env) == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) <= 512 && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(status)
}

// createSOCKS5DialContextFunc creates a dial function for SSH+SOCKS5 proxy connections.
// Supports format: ssh+socks5://user@host:port?private-key=/path/to/key
func createSOCKS5DialContextFunc(allProxy string) func(ctx context.Context, network, address string) (net.Conn, error) {
	// Strip ssh+ prefix if present
	allProxy = strings.TrimPrefix(allProxy, "ssh+")

	proxyURL, err := url.Parse(allProxy)
	if err != nil {
		slog.Error("Failed to parse DRIVE_API_ALL_PROXY URL", "error", err)
		return nil
	}

	queryMap, err := url.ParseQuery(proxyURL.RawQuery)
	if err != nil {
		slog.Error("Failed to parse DRIVE_API_ALL_PROXY query params", "error", err)
		return nil
	}

	username := ""
	if proxyURL.User != nil {
		username = proxyURL.User.Username()
	}

	proxySSHKeyPath := queryMap.Get("private-key")
	if proxySSHKeyPath == "" {
		slog.Error("DRIVE_API_ALL_PROXY missing required 'private-key' query param")
		return nil
	}

	proxySSHKey, err := os.ReadFile(proxySSHKeyPath)
	if err != nil {
		slog.Error("Failed to read SSH private key", "path", proxySSHKeyPath, "error", err)
		return nil
	}

	socks5Proxy := proxy.NewSocks5Proxy(proxy.NewHostKey(), log.Default(), 1*time.Minute)

	var (
		dialer proxy.DialFunc
		mut    sync.RWMutex
	)

	return func(ctx context.Context, network, address string) (net.Conn, error) {
		mut.RLock()
		haveDialer := dialer != nil
		mut.RUnlock()

		if haveDialer {
			return dialer(network, address)
		}

		mut.Lock()
		defer mut.Unlock()
		if dialer == nil {
			proxyDialer, err := socks5Proxy.Dialer(username, string(proxySSHKey), proxyURL.Host)
			if err != nil {
				return nil, fmt.Errorf("error creating SOCKS5 dialer: %w", err)
			}
			dialer = proxyDialer
		}
		return dialer(network, address)
	}
}
