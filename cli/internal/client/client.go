// ABOUTME: HTTP client for the Drive Ogan Ilir web tier
// ABOUTME: Holds the session cookies, echoes the CSRF token on writes and streams multipart uploads

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/upload"
)

const (
	sessionCookie = "DRIVE_SESSION"
	csrfCookie    = "DRIVE_CSRF"
	csrfHeader    = "X-CSRF-Token"
)

// ErrNotLoggedIn is returned by calls that need a session when none is held.
var ErrNotLoggedIn = errors.New("not logged in (run: drive login)")

// APIError is a non-2xx answer from the web tier. Message is the server's
// error text, unchanged.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsUnauthorized reports whether err is a 401 from the web tier.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client is the API client for the Drive web tier
type Client struct {
	baseURL    *url.URL
	jar        http.CookieJar
	httpClient *http.Client
	// uploads have no overall timeout; stalls are detected by the orchestrator
	uploadClient *http.Client
}

// New creates a new API client with the given base URL
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", baseURL)
	}

	jar, _ := cookiejar.New(nil)
	noRedirect := func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	return &Client{
		baseURL: u,
		jar:     jar,
		httpClient: &http.Client{
			Timeout:       30 * time.Second,
			Jar:           jar,
			CheckRedirect: noRedirect,
		},
		uploadClient: &http.Client{
			Jar:           jar,
			CheckRedirect: noRedirect,
		},
	}, nil
}

// BaseURL returns the web tier address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Cookies returns the session and CSRF cookies currently held.
func (c *Client) Cookies() []*http.Cookie {
	var out []*http.Cookie
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == sessionCookie || ck.Name == csrfCookie {
			out = append(out, &http.Cookie{Name: ck.Name, Value: ck.Value})
		}
	}
	return out
}

// SetCookies restores previously saved cookies.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	restored := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		restored = append(restored, &http.Cookie{Name: ck.Name, Value: ck.Value, Path: "/"})
	}
	c.jar.SetCookies(c.baseURL, restored)
}

// HasSession reports whether a session cookie is held.
func (c *Client) HasSession() bool {
	return c.cookie(sessionCookie) != ""
}

func (c *Client) cookie(name string) string {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// Health calls the /api/health endpoint
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var health models.HealthResponse
	if err := c.getJSON(ctx, "/api/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Login posts credentials; identifiers containing "@" are sent as email.
func (c *Client) Login(ctx context.Context, identifier, password string) (*models.User, error) {
	creds := models.LoginRequest{Password: password}
	if strings.Contains(identifier, "@") {
		creds.Email = identifier
	} else {
		creds.Username = identifier
	}

	body, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentials: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var login models.LoginResponse
	if err := c.doJSON(ctx, c.httpClient, req, &login); err != nil {
		return nil, err
	}
	if !login.Success || login.User == nil {
		return nil, &APIError{Status: http.StatusUnauthorized, Message: login.Error}
	}
	return login.User, nil
}

// Logout ends the session on the server. The local cookies are dropped
// even when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	if !c.HasSession() {
		return ErrNotLoggedIn
	}
	defer c.dropCookies()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, c.httpClient, req, nil)
}

func (c *Client) dropCookies() {
	expired := []*http.Cookie{
		{Name: sessionCookie, Path: "/", MaxAge: -1},
		{Name: csrfCookie, Path: "/", MaxAge: -1},
	}
	c.jar.SetCookies(c.baseURL, expired)
}

// Me returns the current session. With refresh the server re-fetches the
// profile and renews the cookie.
func (c *Client) Me(ctx context.Context, refresh bool) (*models.UserInfoResponse, error) {
	path := "/api/auth/me"
	if refresh {
		path += "?refresh=1"
	}
	var info models.UserInfoResponse
	if err := c.getJSON(ctx, path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// FolderContents returns the listing of a folder ("root" for the user's root).
func (c *Client) FolderContents(ctx context.Context, slug string) (*models.FolderContents, error) {
	var env struct {
		Data models.FolderContents `json:"data"`
	}
	if err := c.getJSON(ctx, "/api/folders/"+url.PathEscape(slug), &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// UploadFiles sends files to destinationID in one multipart request.
func (c *Client) UploadFiles(ctx context.Context, destinationID string, files []upload.File, progress upload.ProgressFunc) error {
	_, err := c.upload(ctx, "/api/upload/"+url.PathEscape(destinationID), nil, files, progress)
	return err
}

// UploadFolder creates folderName under destinationID and sends files into
// it in one multipart request.
func (c *Client) UploadFolder(ctx context.Context, destinationID, folderName string, files []upload.File, progress upload.ProgressFunc) error {
	fields := map[string]string{"folderName": folderName}
	_, err := c.upload(ctx, "/api/upload-in-folder/"+url.PathEscape(destinationID), fields, files, progress)
	return err
}

func (c *Client) upload(ctx context.Context, path string, fields map[string]string, files []upload.File, progress upload.ProgressFunc) (*models.UploadResponse, error) {
	if !c.HasSession() {
		return nil, ErrNotLoggedIn
	}

	var total int64
	for _, f := range files {
		total += f.Size
	}
	counter := &progressCounter{total: total, report: progress}

	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, fields, files, counter))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, path, pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result models.UploadResponse
	if err := c.doJSON(ctx, c.uploadClient, req, &result); err != nil {
		return nil, err
	}
	counter.finish()
	return &result, nil
}

// progressCounter turns bytes read from the source files into a percentage
// of the batch. Every read is reported so slow large files keep the stall
// watchdog fed.
type progressCounter struct {
	mu     sync.Mutex
	total  int64
	sent   int64
	report upload.ProgressFunc
}

func (p *progressCounter) add(n int) {
	if p.report == nil {
		return
	}
	p.mu.Lock()
	p.sent += int64(n)
	percent := 100
	if p.total > 0 {
		percent = int(p.sent * 100 / p.total)
	}
	p.mu.Unlock()
	p.report(min(percent, 100))
}

func (p *progressCounter) finish() {
	if p.report != nil {
		p.report(100)
	}
}

type countingReader struct {
	r       io.Reader
	counter *progressCounter
}

func (cr *countingReader) Read(b []byte) (int, error) {
	n, err := cr.r.Read(b)
	if n > 0 {
		cr.counter.add(n)
	}
	return n, err
}

func writeMultipart(mw *multipart.Writer, fields map[string]string, files []upload.File, counter *progressCounter) error {
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	for _, f := range files {
		if err := writeFilePart(mw, f, counter); err != nil {
			return err
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, f upload.File, counter *progressCounter) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files[]"; filename="%s"`, quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", "application/octet-stream")

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer src.Close()

	if _, err := io.Copy(part, &countingReader{r: src, counter: counter}); err != nil {
		return fmt.Errorf("failed to stream %s: %w", f.Name, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, c.httpClient, req, out)
}

// newRequest builds a request against the web tier and echoes the CSRF
// cookie on state-changing methods.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if method != http.MethodGet && method != http.MethodHead {
		if token := c.cookie(csrfCookie); token != "" {
			req.Header.Set(csrfHeader, token)
		}
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, hc *http.Client, req *http.Request, out any) error {
	resp, err := hc.Do(req)
	if err != nil {
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from web tier: %w", err)
	}
	return nil
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil && ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("request timed out")
		}
		if errors.Is(cause, context.Canceled) {
			return upload.ErrCancelled
		}
		return cause
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("request timed out")
	}
	return fmt.Errorf("cannot connect to web tier at %s: %w", c.baseURL, err)
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &body) == nil {
		if body.Error != "" {
			return &APIError{Status: resp.StatusCode, Message: body.Error}
		}
		if body.Message != "" {
			return &APIError{Status: resp.StatusCode, Message: body.Message}
		}
	}
	return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("web tier returned status %d", resp.StatusCode)}
}
