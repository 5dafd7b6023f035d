package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/joblisting"
)

// SessionCookie carries the admin session token for browser requests.
const SessionCookie = "admin_session"

var (
	// ErrUnauthenticated means no valid session accompanies the request.
	ErrUnauthenticated = errors.New("not logged in")
	// ErrForbidden means the user lacks the page's capability.
	ErrForbidden = errors.New("insufficient permissions")
)

// UserLookup resolves a session subject to a platform user.
type UserLookup interface {
	User(ctx context.Context, id int64) (*joblisting.User, error)
}

// Authenticator verifies HS256 session tokens whose subject is a user id.
type Authenticator struct {
	secret []byte
	users  UserLookup
	now    func() time.Time
}

func NewAuthenticator(secret string, users UserLookup) *Authenticator {
	return &Authenticator{secret: []byte(secret), users: users, now: time.Now}
}

// IssueToken signs a session token for userID valid for ttl.
func (a *Authenticator) IssueToken(userID int64, ttl time.Duration) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Authenticate returns the user behind the request's session token. Any
// token problem, or a subject that no longer resolves, is ErrUnauthenticated.
func (a *Authenticator) Authenticate(r *http.Request) (*joblisting.User, error) {
	raw := tokenFromRequest(r)
	if raw == "" {
		return nil, ErrUnauthenticated
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: bad subject %q", ErrUnauthenticated, claims.Subject)
	}

	user, err := a.users.User(r.Context(), id)
	if errors.Is(err, joblisting.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: user %d not found", ErrUnauthenticated, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return user, nil
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

type userKey struct{}

// WithUser returns ctx carrying the authenticated user.
func WithUser(ctx context.Context, u *joblisting.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the user stored by the page registry.
func UserFromContext(ctx context.Context) (*joblisting.User, bool) {
	u, ok := ctx.Value(userKey{}).(*joblisting.User)
	return u, ok && u != nil
}
