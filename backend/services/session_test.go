// ABOUTME: Tests for the cookie-backed session proxy
// ABOUTME: Verifies round trips, expiry self-cleaning, tamper handling and cookie attributes

package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
)

func newTestSessionService(t *testing.T) *SessionService {
	t.Helper()
	sealer, err := NewSealer([]byte("test-secret-that-is-long-enough-1234"))
	require.NoError(t, err)
	return NewSessionService(sealer, false)
}

func testUser() models.User {
	return models.User{
		ID:        42,
		FirstName: "Siti",
		LastName:  "Aminah",
		Name:      "Siti Aminah",
		Username:  "siti",
		Email:     "siti@oganilirkab.go.id",
		Access:    true,
		Storage:   models.Storage{Total: 10 << 30, Used: 1 << 30, Percent: 10},
	}
}

// sessionCookie extracts the session cookie written to rec.
func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie written", SessionCookieName)
	return nil
}

func requestWithCookie(c *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if c != nil {
		req.AddCookie(c)
	}
	return req
}

func TestSessionService_SetThenGet(t *testing.T) {
	svc := newTestSessionService(t)
	user := testUser()

	rec := httptest.NewRecorder()
	require.NoError(t, svc.Set(rec, "bearer-abc", user))

	cookie := sessionCookie(t, rec)
	session := svc.Get(httptest.NewRecorder(), requestWithCookie(cookie))
	require.NotNil(t, session)

	assert.Equal(t, "bearer-abc", session.Token)
	assert.Equal(t, user, session.User)
	assert.True(t, session.ExpiresTime().After(time.Now()), "expiresAt must be in the future")
}

func TestSessionService_CookieAttributes(t *testing.T) {
	sealer, err := NewSealer([]byte("secret"))
	require.NoError(t, err)
	svc := NewSessionService(sealer, true)

	rec := httptest.NewRecorder()
	require.NoError(t, svc.Set(rec, "tok", testUser()))

	c := sessionCookie(t, rec)
	assert.True(t, c.HttpOnly, "cookie must be httpOnly")
	assert.True(t, c.Secure, "cookie must be Secure when configured")
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 7*24*60*60, c.MaxAge)
	assert.NotContains(t, c.Value, "tok")
	assert.NotContains(t, c.Value, "siti")
}

func TestSessionService_SetRejectsEmptyToken(t *testing.T) {
	svc := newTestSessionService(t)
	rec := httptest.NewRecorder()

	err := svc.Set(rec, "", testUser())
	assert.ErrorIs(t, err, ErrEmptyToken)
	assert.Empty(t, rec.Result().Cookies())
}

func TestSessionService_GetWithoutCookie(t *testing.T) {
	svc := newTestSessionService(t)
	rec := httptest.NewRecorder()

	assert.Nil(t, svc.Get(rec, requestWithCookie(nil)))
	assert.Empty(t, rec.Result().Cookies(), "absent cookie needs no clearing")
}

func TestSessionService_ExpiredSessionSelfCleans(t *testing.T) {
	svc := newTestSessionService(t)

	issued := time.Now().Add(-8 * 24 * time.Hour)
	svc.now = func() time.Time { return issued }
	setRec := httptest.NewRecorder()
	require.NoError(t, svc.Set(setRec, "old-token", testUser()))
	cookie := sessionCookie(t, setRec)

	svc.now = time.Now
	rec := httptest.NewRecorder()
	assert.Nil(t, svc.Get(rec, requestWithCookie(cookie)))

	cleared := sessionCookie(t, rec)
	assert.Equal(t, -1, cleared.MaxAge, "expired session must be deleted")
	assert.Empty(t, cleared.Value)

	// Still nil on a second read without an explicit Clear.
	assert.Nil(t, svc.Get(httptest.NewRecorder(), requestWithCookie(cookie)))
	// And nil once the browser has applied the deletion.
	assert.Nil(t, svc.Get(httptest.NewRecorder(), requestWithCookie(nil)))
}

func TestSessionService_ExpiryBoundary(t *testing.T) {
	svc := newTestSessionService(t)
	base := time.Now()
	svc.now = func() time.Time { return base }

	rec := httptest.NewRecorder()
	require.NoError(t, svc.Set(rec, "tok", testUser()))
	cookie := sessionCookie(t, rec)

	svc.now = func() time.Time { return base.Add(SessionMaxAge - time.Millisecond) }
	assert.NotNil(t, svc.Get(nil, requestWithCookie(cookie)), "valid just before expiresAt")

	svc.now = func() time.Time { return base.Add(SessionMaxAge) }
	assert.Nil(t, svc.Get(nil, requestWithCookie(cookie)), "invalid at expiresAt")
}

func TestSessionService_CorruptCookie(t *testing.T) {
	svc := newTestSessionService(t)

	values := []string{
		"not-a-sealed-value",
		"eyJ0b2tlbiI6ImFiYyJ9", // base64 JSON, the old unauthenticated form
		"%%%%",
	}

	for _, v := range values {
		t.Run(v, func(t *testing.T) {
			rec := httptest.NewRecorder()
			var session *models.Session
			assert.NotPanics(t, func() {
				session = svc.Get(rec, requestWithCookie(&http.Cookie{Name: SessionCookieName, Value: v}))
			})
			assert.Nil(t, session)
			assert.Equal(t, -1, sessionCookie(t, rec).MaxAge, "corrupt cookie is cleared")
		})
	}
}

func TestSessionService_ForeignKeyRejected(t *testing.T) {
	a := newTestSessionService(t)
	other, err := NewSealer([]byte("some-other-deployment-secret"))
	require.NoError(t, err)
	b := NewSessionService(other, false)

	rec := httptest.NewRecorder()
	require.NoError(t, a.Set(rec, "tok", testUser()))

	assert.Nil(t, b.Get(nil, requestWithCookie(sessionCookie(t, rec))))
}

func TestSessionService_Projections(t *testing.T) {
	svc := newTestSessionService(t)

	assert.Empty(t, svc.Token(nil, requestWithCookie(nil)))
	assert.Nil(t, svc.CurrentUser(nil, requestWithCookie(nil)))
	assert.False(t, svc.IsAuthenticated(nil, requestWithCookie(nil)))

	rec := httptest.NewRecorder()
	require.NoError(t, svc.Set(rec, "tok-1", testUser()))
	req := requestWithCookie(sessionCookie(t, rec))

	assert.Equal(t, "tok-1", svc.Token(nil, req))
	require.NotNil(t, svc.CurrentUser(nil, req))
	assert.Equal(t, "siti", svc.CurrentUser(nil, req).Username)
	assert.True(t, svc.IsAuthenticated(nil, req))
}

func TestSessionService_UpdateUserKeepsTokenAndRenews(t *testing.T) {
	svc := newTestSessionService(t)
	base := time.Now()
	svc.now = func() time.Time { return base }

	rec := httptest.NewRecorder()
	require.NoError(t, svc.Set(rec, "keep-me", testUser()))
	original := svc.Get(nil, requestWithCookie(sessionCookie(t, rec)))
	require.NotNil(t, original)

	later := base.Add(3 * 24 * time.Hour)
	svc.now = func() time.Time { return later }

	updated := testUser()
	updated.Storage.Used = 5 << 30
	updated.Storage.Percent = 50

	updRec := httptest.NewRecorder()
	ok, err := svc.UpdateUser(updRec, requestWithCookie(sessionCookie(t, rec)), updated)
	require.NoError(t, err)
	require.True(t, ok)

	session := svc.Get(nil, requestWithCookie(sessionCookie(t, updRec)))
	require.NotNil(t, session)
	assert.Equal(t, "keep-me", session.Token)
	assert.Equal(t, updated, session.User)
	assert.Equal(t, later.Add(SessionMaxAge).UnixMilli(), session.ExpiresAt)
	assert.Greater(t, session.ExpiresAt, original.ExpiresAt, "profile refresh renews the session")
}

func TestSessionService_UpdateUserWithoutSession(t *testing.T) {
	svc := newTestSessionService(t)
	rec := httptest.NewRecorder()

	ok, err := svc.UpdateUser(rec, requestWithCookie(nil), testUser())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rec.Result().Cookies())
}

func TestSessionService_Clear(t *testing.T) {
	svc := newTestSessionService(t)
	rec := httptest.NewRecorder()

	svc.Clear(rec)

	c := sessionCookie(t, rec)
	assert.Equal(t, -1, c.MaxAge)
	assert.Empty(t, c.Value)
	assert.True(t, c.HttpOnly)
}

func TestHasSessionCookie(t *testing.T) {
	assert.False(t, HasSessionCookie(requestWithCookie(nil)))
	assert.False(t, HasSessionCookie(requestWithCookie(&http.Cookie{Name: SessionCookieName, Value: ""})))
	assert.True(t, HasSessionCookie(requestWithCookie(&http.Cookie{Name: SessionCookieName, Value: "garbage"})))
}
