package server

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/alfredjeanlab/qube/internal/model"
	"github.com/alfredjeanlab/qube/internal/store"
)

// Session is the caller of a request. A session without a user is anonymous.
type Session struct {
	user *model.User
}

// AnonymousSession returns a session with no user.
func AnonymousSession() *Session { return &Session{} }

// UserSession returns a session authenticated as u.
func UserSession(u *model.User) *Session { return &Session{user: u} }

func (s *Session) IsLoggedIn() bool { return s != nil && s.user != nil }

// Login returns the user login, or "" for anonymous sessions.
func (s *Session) Login() string {
	if !s.IsLoggedIn() {
		return ""
	}
	return s.user.Login
}

func (s *Session) userID() *int64 {
	if !s.IsLoggedIn() {
		return nil
	}
	id := s.user.ID
	return &id
}

// CheckLoggedIn fails with Unauthenticated for anonymous sessions.
func (s *Session) CheckLoggedIn() error {
	if !s.IsLoggedIn() {
		return unauthenticated()
	}
	return nil
}

// HasComponentPermission reports whether the caller holds perm on the root
// of c. Public permissions are implied on public projects.
func (s *Session) HasComponentPermission(ctx context.Context, st store.Store, perm string, c *model.Component) (bool, error) {
	root := c
	if !c.IsRoot() && c.RootUUID != "" && c.RootUUID != c.UUID {
		r, err := st.GetComponentByUUID(ctx, c.RootUUID)
		if err != nil {
			return false, fmt.Errorf("loading root of %s: %w", c.Key, err)
		}
		root = r
	}
	if !root.Private && model.IsPublicPermission(perm) {
		return true, nil
	}
	perms, err := st.SelectProjectPermissions(ctx, s.userID(), root.ID)
	if err != nil {
		return false, fmt.Errorf("loading permissions on %s: %w", root.Key, err)
	}
	return slices.Contains(perms, perm), nil
}

// CheckComponentPermission fails with PermissionDenied unless the caller
// holds perm on c.
func (s *Session) CheckComponentPermission(ctx context.Context, st store.Store, perm string, c *model.Component) error {
	ok, err := s.HasComponentPermission(ctx, st, perm, c)
	if err != nil {
		return storeError(err, "Component not found")
	}
	if !ok {
		return forbidden()
	}
	return nil
}

// CheckOrganizationPermission fails with PermissionDenied unless the caller
// holds perm on the organization.
func (s *Session) CheckOrganizationPermission(ctx context.Context, st store.Store, perm, orgUUID string) error {
	perms, err := st.SelectOrganizationPermissions(ctx, s.userID(), orgUUID)
	if err != nil {
		return storeError(err, "Organization not found")
	}
	if !slices.Contains(perms, perm) {
		return forbidden()
	}
	return nil
}

type sessionKey struct{}

func withSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the session attached to ctx, or an anonymous one.
func SessionFrom(ctx context.Context) *Session {
	if sess, ok := ctx.Value(sessionKey{}).(*Session); ok && sess != nil {
		return sess
	}
	return AnonymousSession()
}

// errInvalidToken is returned for a bearer token that matches no active user.
var errInvalidToken = errors.New("invalid token")

// sessionResolver turns bearer tokens into sessions. Only token hashes are
// stored; resolved users are cached for a short TTL.
type sessionResolver struct {
	store store.Store
	cache *expirable.LRU[string, *model.User] // nil when caching is disabled
}

func newSessionResolver(s store.Store, size int, ttl time.Duration) *sessionResolver {
	r := &sessionResolver{store: s}
	if ttl > 0 {
		r.cache = expirable.NewLRU[string, *model.User](size, nil, ttl)
	}
	return r
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// resolve returns the session for an Authorization header value. An empty
// header is an anonymous session.
func (r *sessionResolver) resolve(ctx context.Context, authorization string) (*Session, error) {
	if authorization == "" {
		return AnonymousSession(), nil
	}
	token, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok || token == "" {
		return nil, errInvalidToken
	}
	hash := hashToken(token)
	if r.cache != nil {
		if u, ok := r.cache.Get(hash); ok {
			return UserSession(u), nil
		}
	}
	u, err := r.store.GetUserByTokenHash(ctx, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("resolving token: %w", err)
	}
	if !u.Active {
		return nil, errInvalidToken
	}
	if r.cache != nil {
		r.cache.Add(hash, u)
	}
	return UserSession(u), nil
}
