package session

import (
	"net/http"
	"time"
)

const CookieName = "X-Session-Token"

// DefaultTTLHours is used when configuration does not override the
// session lifetime.
const DefaultTTLHours = 12

func SessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
	}
}

// ExpiryIn returns the expiry timestamp for a session opened now with
// the given lifetime. Non-positive ttlHours falls back to the default.
func ExpiryIn(ttlHours int) time.Time {
	if ttlHours <= 0 {
		ttlHours = DefaultTTLHours
	}
	return time.Now().Add(time.Duration(ttlHours) * time.Hour)
}
