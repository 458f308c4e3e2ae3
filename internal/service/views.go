package service

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ViewTracker remembers which articles a browser has already been counted
// for, using one signed cookie per article.
type ViewTracker struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

type ViewOption func(*ViewTracker)

func WithViewClock(now func() time.Time) ViewOption {
	return func(v *ViewTracker) { v.now = now }
}

func NewViewTracker(secret string, ttl time.Duration, secure bool, opts ...ViewOption) *ViewTracker {
	v := &ViewTracker{
		secret: []byte("views:" + secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func ViewCookieName(newsID int64) string {
	return "viewed_news_" + strconv.FormatInt(newsID, 10)
}

func viewSubject(newsID int64) string {
	return "news:" + strconv.FormatInt(newsID, 10)
}

// Seen reports whether r carries a valid, unexpired marker for newsID.
func (v *ViewTracker) Seen(r *http.Request, newsID int64) bool {
	cookie, err := r.Cookie(ViewCookieName(newsID))
	if err != nil || cookie.Value == "" {
		return false
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return false
	}

	return claims.Subject == viewSubject(newsID)
}

// Mark sets the marker cookie for newsID.
func (v *ViewTracker) Mark(w http.ResponseWriter, newsID int64) error {
	now := v.now()
	expiry := now.Add(v.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   viewSubject(newsID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiry),
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return fmt.Errorf("failed to sign view cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     ViewCookieName(newsID),
		Value:    value,
		Path:     "/",
		Expires:  expiry,
		MaxAge:   int(v.ttl.Seconds()),
		HttpOnly: true,
		Secure:   v.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
