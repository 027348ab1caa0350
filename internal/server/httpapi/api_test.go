package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/ideaboard/internal/common"
	"github.com/dmitrijs2005/ideaboard/internal/logging"
	"github.com/dmitrijs2005/ideaboard/internal/server/auth"
	"github.com/dmitrijs2005/ideaboard/internal/server/config"
	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ideaboard/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	cfg     *config.Config
	svc     Services
	codec   *auth.Codec
	handler http.Handler
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	cfg.CSRFSecretKey = "csrf-secret"
	cfg.CSRFEnabled = false
	for _, m := range mutate {
		m(cfg)
	}

	h, err := auth.NewHasher(auth.Argon2Params{Memory: 64, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)

	rm := repomanager.NewInMemoryRepositoryManager()
	codec := auth.NewCodec(cfg)
	creds := services.NewCredentialService(rm, h, codec, cfg)
	svc := Services{
		Credentials: creds,
		Sessions:    services.NewSessionResolver(rm, codec),
		Users:       services.NewUserService(rm, h, creds),
		Ideas:       services.NewIdeaService(rm),
		Votes:       services.NewVoteService(rm),
	}

	api := NewAPI(cfg, svc, logging.Discard())
	return &testServer{cfg: cfg, svc: svc, codec: codec, handler: api.Router()}
}

// addUser creates a user and returns it with a valid access token.
func (s *testServer) addUser(t *testing.T, username string, admin, active bool) (*models.User, string) {
	t.Helper()
	ctx := context.Background()

	u, err := s.svc.Users.CreateByAdmin(ctx, services.UserCreate{
		Username: username, Name: username, Password: "password", IsAdmin: admin,
	})
	require.NoError(t, err)

	if !active {
		u, err = s.svc.Users.AdminUpdate(ctx, u.ID, services.AdminUserPatch{IsActive: &active})
		require.NoError(t, err)
	}

	pair, err := s.svc.Credentials.CreateTokens(u.ID)
	require.NoError(t, err)
	return u, pair.AccessToken
}

type request struct {
	method  string
	path    string
	body    any
	form    url.Values
	token   string
	headers map[string]string
	cookies []*http.Cookie
}

func (s *testServer) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	switch {
	case r.form != nil:
		body = bytes.NewBufferString(r.form.Encode())
	case r.body != nil:
		b, err := json.Marshal(r.body)
		require.NoError(t, err)
		body = bytes.NewBuffer(b)
	default:
		body = &bytes.Buffer{}
	}

	req := httptest.NewRequest(r.method, r.path, body)
	switch {
	case r.form != nil:
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	case r.body != nil:
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["detail"]
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, request{method: http.MethodPost, path: "/users/", body: map[string]any{
		"username": "  ann  ", "name": "Ann", "password": "password",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "hashed_password")

	res := decode[loginResponse](t, w)
	assert.Equal(t, "ann", res.UserData.Username)
	assert.Equal(t, "bearer", res.Token.TokenType)
	assert.False(t, res.UserData.IsAdmin)

	rc := cookieNamed(w, common.RefreshTokenCookieName)
	require.NotNil(t, rc)
	assert.True(t, rc.HttpOnly)
	assert.NotEqual(t, res.Token.AccessToken, rc.Value)

	w = s.do(t, request{method: http.MethodPost, path: "/users/", body: map[string]any{
		"username": "ann", "name": "Other", "password": "password",
	}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Username already registered", detail(t, w))

	w = s.do(t, request{method: http.MethodPost, path: "/auth", form: url.Values{
		"username": {"ann"}, "password": {"password"},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotNil(t, cookieNamed(w, common.RefreshTokenCookieName))

	w = s.do(t, request{method: http.MethodPost, path: "/auth", form: url.Values{
		"username": {"ann"}, "password": {"wrong-password"},
	}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "Incorrect username or password", detail(t, w))

	w = s.do(t, request{method: http.MethodPost, path: "/auth", form: url.Values{"username": {"ann"}}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"short password", map[string]any{"username": "ann", "name": "Ann", "password": "short"}},
		{"blank username", map[string]any{"username": "   ", "name": "Ann", "password": "password"}},
		{"missing name", map[string]any{"username": "ann", "password": "password"}},
		{"long name", map[string]any{"username": "ann", "name": strings.Repeat("x", 256), "password": "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, request{method: http.MethodPost, path: "/users/", body: tt.body})
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		})
	}
}

func TestRefresh(t *testing.T) {
	s := newTestServer(t)
	u, _ := s.addUser(t, "ann", false, true)

	w := s.do(t, request{method: http.MethodGet, path: "/refresh"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, request{method: http.MethodGet, path: "/refresh", cookies: []*http.Cookie{
		{Name: common.RefreshTokenCookieName, Value: "garbage"},
	}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "Could not validate credentials", detail(t, w))

	expired, err := s.codec.Encode(map[string]any{"sub": u.ID.String()}, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	w = s.do(t, request{method: http.MethodGet, path: "/refresh", cookies: []*http.Cookie{
		{Name: common.RefreshTokenCookieName, Value: expired},
	}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	pair, err := s.svc.Credentials.CreateTokens(u.ID)
	require.NoError(t, err)
	w = s.do(t, request{method: http.MethodGet, path: "/refresh", cookies: []*http.Cookie{
		{Name: common.RefreshTokenCookieName, Value: pair.RefreshToken},
	}})
	require.Equal(t, http.StatusOK, w.Code)
	tok := decode[services.AccessToken](t, w)
	assert.Equal(t, "bearer", tok.TokenType)

	w = s.do(t, request{method: http.MethodGet, path: "/me", token: tok.AccessToken})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionGates(t *testing.T) {
	s := newTestServer(t)
	_, userTok := s.addUser(t, "user", false, true)
	_, inactiveTok := s.addUser(t, "inactive", false, false)
	_, adminTok := s.addUser(t, "admin", true, true)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
		detail string
	}{
		{"no token", "/me", "", http.StatusUnauthorized, "Not authenticated"},
		{"bad token", "/me", "x.y.z", http.StatusUnauthorized, "Could not validate credentials"},
		{"inactive", "/me", inactiveTok, http.StatusBadRequest, "Inactive user"},
		{"active", "/me", userTok, http.StatusOK, ""},
		{"not admin", "/users/", userTok, http.StatusForbidden, "Not enough permissions"},
		{"inactive admin gate", "/users/", inactiveTok, http.StatusBadRequest, "Inactive user"},
		{"admin", "/users/", adminTok, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, request{method: http.MethodGet, path: tt.path, token: tt.token})
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.detail != "" {
				assert.Equal(t, tt.detail, detail(t, w))
			}
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestAdminUsers(t *testing.T) {
	s := newTestServer(t)
	_, adminTok := s.addUser(t, "admin", true, true)
	ann, _ := s.addUser(t, "ann", false, true)

	w := s.do(t, request{method: http.MethodPost, path: "/users/add", token: adminTok, body: map[string]any{
		"username": "mod", "name": "mod", "password": "password", "is_admin": true,
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, decode[userResponse](t, w).IsAdmin)

	w = s.do(t, request{method: http.MethodGet, path: "/users/?skip=1&limit=1", token: adminTok})
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]userResponse](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "ann", list[0].Name)

	w = s.do(t, request{method: http.MethodGet, path: "/users/?limit=-1", token: adminTok})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, request{method: http.MethodGet, path: "/users/" + ann.ID.String(), token: adminTok})
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, request{method: http.MethodGet, path: "/users/not-a-uuid", token: adminTok})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, request{method: http.MethodGet, path: "/users/00000000-0000-0000-0000-000000000001", token: adminTok})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", detail(t, w))

	w = s.do(t, request{method: http.MethodPatch, path: "/users/" + ann.ID.String(), token: adminTok, body: map[string]any{
		"is_active": false,
	}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[userResponse](t, w).IsActive)

	w = s.do(t, request{method: http.MethodGet, path: "/users/" + ann.ID.String() + "/ideas/", token: adminTok})
	require.Equal(t, http.StatusOK, w.Code)
	ui := decode[userIdeasResponse](t, w)
	assert.Equal(t, "ann", ui.Username)
	assert.Zero(t, ui.Count)
}

func TestPatchMe(t *testing.T) {
	s := newTestServer(t)
	_, tok := s.addUser(t, "ann", false, true)

	w := s.do(t, request{method: http.MethodPatch, path: "/me", token: tok, body: map[string]any{
		"old_password": "wrong-one", "new_password": "new-password",
	}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Invalid password", detail(t, w))

	w = s.do(t, request{method: http.MethodPatch, path: "/me", token: tok, body: map[string]any{
		"name": " Annie ", "old_password": "password", "new_password": "new-password",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Annie", decode[userResponse](t, w).Name)

	w = s.do(t, request{method: http.MethodPost, path: "/auth", form: url.Values{
		"username": {"ann"}, "password": {"new-password"},
	}})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMe_TrailingSlash(t *testing.T) {
	s := newTestServer(t)
	_, tok := s.addUser(t, "ann", false, true)

	w := s.do(t, request{method: http.MethodGet, path: "/me/", token: tok})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ann", decode[userResponse](t, w).Username)

	w = s.do(t, request{method: http.MethodPatch, path: "/me/", token: tok, body: map[string]any{"name": "Annie"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Annie", decode[userResponse](t, w).Name)

	w = s.do(t, request{method: http.MethodPatch, path: "/me/", body: map[string]any{"name": "x"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdeasFlow(t *testing.T) {
	s := newTestServer(t)
	owner, ownerTok := s.addUser(t, "owner", false, true)
	_, otherTok := s.addUser(t, "other", false, true)
	_, adminTok := s.addUser(t, "admin", true, true)

	w := s.do(t, request{method: http.MethodPost, path: "/ideas/", token: ownerTok, body: map[string]any{
		"name": "Dark mode", "description": "Please",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	idea := decode[ideaResponse](t, w)
	assert.Equal(t, owner.ID, idea.CreatorID)
	assert.NotNil(t, idea.UpvotedBy)
	ideaPath := "/ideas/" + idea.ID.String()

	w = s.do(t, request{method: http.MethodPost, path: "/ideas/", body: map[string]any{"name": "anon"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, request{method: http.MethodGet, path: "/ideas/?sort=top"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[ideaListResponse](t, w).Count)

	w = s.do(t, request{method: http.MethodGet, path: "/ideas/?sort=random"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, request{method: http.MethodGet, path: "/ideas/count"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[map[string]int](t, w)["count"])

	w = s.do(t, request{method: http.MethodGet, path: "/ideas/00000000-0000-0000-0000-000000000001"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Idea not found", detail(t, w))

	w = s.do(t, request{method: http.MethodPatch, path: ideaPath, token: otherTok, body: map[string]any{"name": "mine"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, request{method: http.MethodPatch, path: ideaPath, token: ownerTok, body: map[string]any{"name": "Dark theme"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dark theme", decode[ideaResponse](t, w).Name)

	// votes
	w = s.do(t, request{method: http.MethodPut, path: ideaPath + "/upvote", token: otherTok, body: map[string]any{
		"idea_id": "00000000-0000-0000-0000-000000000001",
	}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	for range 2 {
		w = s.do(t, request{method: http.MethodPut, path: ideaPath + "/upvote", token: otherTok, body: map[string]any{
			"idea_id": idea.ID.String(),
		}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Len(t, decode[ideaResponse](t, w).UpvotedBy, 1)
	}

	w = s.do(t, request{method: http.MethodGet, path: "/me/upvotes/", token: otherTok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[ideaListResponse](t, w).Count)

	w = s.do(t, request{method: http.MethodPut, path: ideaPath + "/downvote", token: otherTok, body: map[string]any{
		"idea_id": idea.ID.String(),
	}})
	require.Equal(t, http.StatusOK, w.Code)
	voted := decode[ideaResponse](t, w)
	assert.Empty(t, voted.UpvotedBy)
	assert.Len(t, voted.DownvotedBy, 1)

	w = s.do(t, request{method: http.MethodGet, path: "/me/ideas/", token: ownerTok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[ideaListResponse](t, w).Count)

	// delete
	w = s.do(t, request{method: http.MethodDelete, path: ideaPath, token: ownerTok})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, request{method: http.MethodDelete, path: ideaPath, token: adminTok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Idea deleted successfully", decode[map[string]string](t, w)["message"])

	w = s.do(t, request{method: http.MethodGet, path: "/me/downvotes/", token: otherTok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[ideaListResponse](t, w).Count)
}

func TestCSRF(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.CSRFEnabled = true })
	s.addUser(t, "ann", false, true)
	form := url.Values{"username": {"ann"}, "password": {"password"}}

	w := s.do(t, request{method: http.MethodPost, path: "/auth", form: form})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	w = s.do(t, request{method: http.MethodGet, path: "/csrf/get-token"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[map[string]string](t, w)["csrf_token"]
	cookie := cookieNamed(w, common.CSRFCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, token, cookie.Value)

	w = s.do(t, request{method: http.MethodPost, path: "/auth", form: form,
		headers: map[string]string{common.CSRFHeaderName: token}})
	assert.Equal(t, http.StatusForbidden, w.Code, "header without cookie")

	forged := NewCSRF("other-secret", false).Issue()
	w = s.do(t, request{method: http.MethodPost, path: "/auth", form: form,
		headers: map[string]string{common.CSRFHeaderName: forged},
		cookies: []*http.Cookie{{Name: common.CSRFCookieName, Value: forged}}})
	assert.Equal(t, http.StatusForbidden, w.Code, "foreign signature")

	w = s.do(t, request{method: http.MethodPost, path: "/auth", form: form,
		headers: map[string]string{common.CSRFHeaderName: token},
		cookies: []*http.Cookie{cookie}})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestCSRF_Verify(t *testing.T) {
	x := NewCSRF("secret", false)
	tok := x.Issue()
	assert.True(t, x.Verify(tok))

	for _, bad := range []string{"", "nodot", "!!!.!!!", tok + "x", "a." + strings.SplitN(tok, ".", 2)[1]} {
		assert.False(t, x.Verify(bad), bad)
	}
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, request{method: http.MethodOptions, path: "/ideas/", headers: map[string]string{
		"Origin":                         s.cfg.HomeLocation,
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "Content-Type, X-CSRF-Token",
	}})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, s.cfg.HomeLocation, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")

	w = s.do(t, request{method: http.MethodGet, path: "/ideas/", headers: map[string]string{
		"Origin": s.cfg.HomeLocation,
	}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, s.cfg.HomeLocation, w.Header().Get("Access-Control-Allow-Origin"))

	w = s.do(t, request{method: http.MethodGet, path: "/ideas/", headers: map[string]string{
		"Origin": "https://evil.example",
	}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = s.do(t, request{method: http.MethodGet, path: "/ideas/"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_OptionsWithoutOriginIsNotPreflight(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/ideas/", "/no/such/route"} {
		w := s.do(t, request{method: http.MethodOptions, path: path})
		assert.NotEqual(t, http.StatusNoContent, w.Code, path)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"), path)
	}

	w := s.do(t, request{method: http.MethodOptions, path: "/ideas/", headers: map[string]string{
		"Origin":                        "https://evil.example",
		"Access-Control-Request-Method": "POST",
	}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	s.do(t, request{method: http.MethodGet, path: "/ideas/count"})
	w := s.do(t, request{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `ideaboard_http_requests_total{method="GET",route="/ideas/count",status="200"} 1`)
}
