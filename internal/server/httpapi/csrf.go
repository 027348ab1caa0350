package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/ideaboard/internal/common"
	"github.com/gin-gonic/gin"
)

const csrfNonceSize = 32

var errCSRF = errors.New("csrf token mismatch")

// CSRF issues and checks double-submit tokens of the form
// base64url(nonce) "." base64url(HMAC-SHA256(secret, nonce)).
type CSRF struct {
	secret []byte
	secure bool
}

func NewCSRF(secret string, secure bool) *CSRF {
	return &CSRF{secret: []byte(secret), secure: secure}
}

func (x *CSRF) sign(nonce []byte) []byte {
	mac := hmac.New(sha256.New, x.secret)
	mac.Write(nonce)
	return mac.Sum(nil)
}

// Issue returns a new token.
func (x *CSRF) Issue() string {
	nonce := common.GenerateRandByteArray(csrfNonceSize)
	enc := base64.RawURLEncoding
	return enc.EncodeToString(nonce) + "." + enc.EncodeToString(x.sign(nonce))
}

// Verify reports whether token carries a valid signature.
func (x *CSRF) Verify(token string) bool {
	n, m, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	enc := base64.RawURLEncoding
	nonce, err := enc.DecodeString(n)
	if err != nil || len(nonce) != csrfNonceSize {
		return false
	}
	mac, err := enc.DecodeString(m)
	if err != nil {
		return false
	}
	return hmac.Equal(mac, x.sign(nonce))
}

func (x *CSRF) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.CSRFCookieName,
		Value:    token,
		Path:     "/",
		Secure:   x.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Protect rejects unsafe requests whose header token differs from the
// cookie token or is not signed by us.
func (x *CSRF) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		header := c.GetHeader(common.CSRFHeaderName)
		cookie, err := c.Cookie(common.CSRFCookieName)
		if err != nil || header == "" ||
			subtle.ConstantTimeCompare([]byte(header), []byte(cookie)) != 1 ||
			!x.Verify(header) {
			loggerFrom(c).Warn(c.Request.Context(), "csrf check failed", "path", c.Request.URL.Path)
			c.Header("X-Content-Type-Options", "nosniff")
			c.Header("X-Frame-Options", "DENY")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": errCSRF.Error()})
			return
		}
		c.Next()
	}
}

// handleGetToken serves GET /csrf/get-token.
func (x *CSRF) handleGetToken(c *gin.Context) {
	token := x.Issue()
	x.setCookie(c.Writer, token)
	c.JSON(http.StatusOK, gin.H{"csrf_token": token})
}
