package common

const (
	// RefreshTokenCookieName is the http-only cookie carrying the refresh token.
	RefreshTokenCookieName = "refresh_token"

	// CSRFCookieName and CSRFHeaderName carry the double-submit CSRF token.
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"

	// TokenTypeBearer is reported as token_type in token responses.
	TokenTypeBearer = "bearer"
)
