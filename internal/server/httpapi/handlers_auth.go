package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/ideaboard/internal/common"
	"github.com/dmitrijs2005/ideaboard/internal/server/auth"
	"github.com/dmitrijs2005/ideaboard/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (a *API) writeLogin(c *gin.Context, status int, data *services.LoginData) {
	auth.SetRefreshTokenCookie(c.Writer, data.Tokens.RefreshToken, data.Tokens.RefreshTTL, a.config.CookieSecure)
	c.JSON(status, loginResponse{
		UserData: newUserResponse(data.User),
		Token:    data.Token,
	})
}

// handleLogin serves POST /auth with form fields username and password.
func (a *API) handleLogin(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		writeError(c, invalid(err.Error()))
		return
	}

	ctx := c.Request.Context()
	user, err := a.credentials.Authenticate(ctx, form.Username, form.Password)
	a.metrics.loginResult(err == nil)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			loggerFrom(c).Info(ctx, "login failed", "username", form.Username)
		}
		writeError(c, err)
		return
	}

	data, err := a.credentials.Login(user)
	if err != nil {
		writeError(c, err)
		return
	}
	a.writeLogin(c, http.StatusOK, data)
}

// handleRefresh serves GET /refresh. The refresh token comes from its
// cookie only.
func (a *API) handleRefresh(c *gin.Context) {
	token, err := c.Cookie(common.RefreshTokenCookieName)
	if err != nil || token == "" {
		writeError(c, invalid("refresh token cookie is missing"))
		return
	}

	access, err := a.credentials.Refresh(c.Request.Context(), token)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, access)
}
