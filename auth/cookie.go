package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"churchsite/constants"

	"github.com/golang-jwt/jwt/v5"
)

const SessionCookieName = "parish_session"

var ErrNoSession = errors.New("no session")

type claims struct {
	UserID   uint   `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// CookieStore keeps the session in an HTTP-only cookie holding HS256 signed
// claims. Nothing is stored server side.
type CookieStore struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewCookieStore(secret string, ttl time.Duration, secure bool) (*CookieStore, error) {
	if len(secret) < constants.MIN_SESSION_SECRET {
		return nil, fmt.Errorf("session secret must be at least %d bytes", constants.MIN_SESSION_SECRET)
	}
	if ttl <= 0 {
		ttl = constants.DEFAULT_SESSION_TTL
	}
	return &CookieStore{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}, nil
}

// Save signs the session and sets the cookie.
func (c *CookieStore) Save(w http.ResponseWriter, s *Session) error {
	now := c.now()
	expires := now.Add(c.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID:   s.ID,
		Username: s.Username,
		Email:    s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(s.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return fmt.Errorf("error signing session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    signed,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Load returns the session carried by the request cookie. The issue time is
// returned so callers can decide to refresh it.
func (c *CookieStore) Load(r *http.Request) (*Session, time.Time, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, time.Time{}, ErrNoSession
	}

	var cl claims
	_, err = jwt.ParseWithClaims(cookie.Value, &cl, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("invalid session cookie: %w", err)
	}
	if cl.UserID == 0 {
		return nil, time.Time{}, errors.New("invalid session cookie: missing user")
	}

	var issued time.Time
	if cl.IssuedAt != nil {
		issued = cl.IssuedAt.Time
	}
	return &Session{ID: cl.UserID, Username: cl.Username, Email: cl.Email}, issued, nil
}

func (c *CookieStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
