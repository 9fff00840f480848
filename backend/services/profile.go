// ABOUTME: Profile refresher for the session user
// ABOUTME: Collapses concurrent refreshes per token with singleflight and caches the result briefly

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/angga1207/drive-oi-v3-sub000/backend/cache"
	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
)

// ProfileFetcher loads the profile belonging to a bearer token.
type ProfileFetcher interface {
	Profile(ctx context.Context, token string) (*models.User, error)
}

// ProfileService fetches fresh profiles from the backend.
// Tokens never appear in cache keys or logs; only their SHA-256 does.
type ProfileService struct {
	fetcher ProfileFetcher
	cache   *cache.Cache[models.User]
	group   singleflight.Group
}

func NewProfileService(fetcher ProfileFetcher, c *cache.Cache[models.User]) *ProfileService {
	return &ProfileService{
		fetcher: fetcher,
		cache:   c,
	}
}

// Refresh returns the current profile for token. Results are served from
// cache when fresh; concurrent misses for one token share one backend call.
func (p *ProfileService) Refresh(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	key := "profile:" + tokenHash(token)
	if user, ok := p.cache.Get(key); ok {
		return &user, nil
	}

	v, err, shared := p.group.Do(key, func() (any, error) {
		user, err := p.fetcher.Profile(ctx, token)
		if err != nil {
			return nil, err
		}
		p.cache.Set(key, *user)
		return *user, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("Profile refresh shared", "key", key)
	}

	user := v.(models.User)
	return &user, nil
}

// Forget drops the cached profile for token (used on logout).
func (p *ProfileService) Forget(token string) {
	p.cache.Clear("profile:" + tokenHash(token))
}

func tokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
