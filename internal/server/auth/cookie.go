package auth

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/ideaboard/internal/common"
)

// SetRefreshTokenCookie attaches the refresh token as an http-only cookie
// that expires after ttl (Max-Age in whole seconds).
func SetRefreshTokenCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl).UTC(),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
