// ABOUTME: Server-rendered pages: login form, dashboard and folder view
// ABOUTME: Each page validates the session itself; the gate only checks cookie presence

package handlers

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/angga1207/drive-oi-v3-sub000/backend/middleware"
	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
	"github.com/angga1207/drive-oi-v3-sub000/backend/services"
)

//go:embed templates/*.html
var templateFS embed.FS

func parsePages() *template.Template {
	funcs := template.FuncMap{
		"bytes": func(n int64) string {
			if n < 0 {
				n = 0
			}
			return humanize.IBytes(uint64(n))
		},
	}
	return template.Must(template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

type loginPage struct {
	Title      string
	Error      string
	Redirect   string
	Identifier string
}

type folderPage struct {
	Title     string
	Error     string
	User      models.User
	Contents  models.FolderContents
	CSRFToken string
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := h.pages.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Failed to render page", "page", name, "error", err)
	}
}

// Root sends / to the dashboard
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// LoginPage renders the login form
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "login", loginPage{
		Title:    "Masuk",
		Redirect: middleware.SafeRedirect(r.URL.Query().Get("redirect")),
	})
}

// LoginSubmit handles the login form post
func (h *Handler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "login", loginPage{Title: "Masuk", Error: "Formulir tidak valid"})
		return
	}

	identifier := strings.TrimSpace(r.PostFormValue("username"))
	page := loginPage{
		Title:      "Masuk",
		Redirect:   middleware.SafeRedirect(r.PostFormValue("redirect")),
		Identifier: identifier,
	}

	req := models.LoginRequest{Password: r.PostFormValue("password")}
	if strings.Contains(identifier, "@") {
		req.Email = identifier
	} else {
		req.Username = identifier
	}

	if err := services.ValidateLogin(req); err != nil {
		page.Error = err.Error()
		h.render(w, http.StatusBadRequest, "login", page)
		return
	}

	if _, err := h.startSession(w, r, req); err != nil {
		status := http.StatusBadGateway
		page.Error = "Layanan Drive sedang tidak tersedia"
		var apiErr *services.APIError
		if errors.As(err, &apiErr) {
			status = apiErr.Status
			page.Error = apiErr.Message
		}
		slog.Warn("Form login failed", "identifier", identifier, "status", status)
		h.render(w, status, "login", page)
		return
	}

	http.Redirect(w, r, page.Redirect, http.StatusSeeOther)
}

// LogoutSubmit handles the logout form post
func (h *Handler) LogoutSubmit(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// DashboardPage shows the root folder
func (h *Handler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	h.folderPage(w, r, models.RootDestination, "Beranda")
}

// FilesPage shows one folder
func (h *Handler) FilesPage(w http.ResponseWriter, r *http.Request) {
	slug := services.NormalizeDestination(r.PathValue("slug"))
	if err := services.ValidateSlug(slug); err != nil {
		http.NotFound(w, r)
		return
	}
	h.folderPage(w, r, slug, "")
}

func (h *Handler) folderPage(w http.ResponseWriter, r *http.Request, slug, title string) {
	// Full validation; an invalid cookie is cleared here so the gate lets /login through
	session := h.sessions.Get(w, r)
	if session == nil {
		h.redirectToLogin(w, r)
		return
	}

	page := folderPage{
		Title:     title,
		User:      session.User,
		CSRFToken: middleware.CSRFToken(r),
	}

	contents, err := h.drive.Folder(r.Context(), session.Token, slug)
	status := http.StatusOK
	if err != nil {
		var apiErr *services.APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized:
			h.sessions.Clear(w)
			h.redirectToLogin(w, r)
			return
		case errors.As(err, &apiErr):
			status = apiErr.Status
			page.Error = apiErr.Message
		default:
			slog.Error("Folder page: backend unreachable", "slug", slug, "error", err)
			status = http.StatusBadGateway
			page.Error = "Layanan Drive sedang tidak tersedia"
		}
	} else {
		page.Contents = *contents
		if page.Title == "" && contents.Folder != nil {
			page.Title = contents.Folder.Name
		}
	}
	if page.Title == "" {
		page.Title = "Folder"
	}

	h.render(w, status, "folder", page)
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login?redirect="+url.QueryEscape(r.URL.Path), http.StatusFound)
}
