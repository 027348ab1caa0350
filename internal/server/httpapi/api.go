// Package httpapi exposes the ideaboard services over HTTP with gin.
package httpapi

import (
	"fmt"
	"io"

	"github.com/dmitrijs2005/ideaboard/internal/logging"
	"github.com/dmitrijs2005/ideaboard/internal/server/config"
	"github.com/dmitrijs2005/ideaboard/internal/server/services"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Services groups the business logic the handlers call into.
type Services struct {
	Credentials *services.CredentialService
	Sessions    *services.SessionResolver
	Users       *services.UserService
	Ideas       *services.IdeaService
	Votes       *services.VoteService
}

type API struct {
	credentials *services.CredentialService
	sessions    *services.SessionResolver
	users       *services.UserService
	ideas       *services.IdeaService
	votes       *services.VoteService
	csrf        *CSRF
	metrics     *Metrics
	config      *config.Config
	logger      logging.Logger
}

func NewAPI(cfg *config.Config, s Services, l logging.Logger) *API {
	return &API{
		credentials: s.Credentials,
		sessions:    s.Sessions,
		users:       s.Users,
		ideas:       s.Ideas,
		votes:       s.Votes,
		csrf:        NewCSRF(cfg.CSRFSecretKey, cfg.CookieSecure),
		metrics:     NewMetrics(),
		config:      cfg,
		logger:      l.With("module", "httpapi"),
	}
}

// Router builds the gin engine with all routes and middleware.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestLogger(a.logger),
		a.metrics.Middleware(),
		securityHeaders(),
		corsPolicy(a.config.HomeLocation),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})),
	)

	csrf := func(c *gin.Context) { c.Next() }
	if a.config.CSRFEnabled {
		csrf = a.csrf.Protect()
	}

	active := a.authenticate(services.RequireActive)
	admin := a.authenticate(services.RequireAdmin)

	r.GET("/metrics", a.metrics.Handler())
	r.GET("/csrf/get-token", a.csrf.handleGetToken)
	r.POST("/auth", csrf, a.handleLogin)
	r.GET("/refresh", a.handleRefresh)

	users := r.Group("/users")
	{
		users.POST("/", csrf, a.handleRegister)
		users.POST("/add", admin, a.handleCreateUser)
		users.GET("/", admin, a.handleListUsers)
		users.GET("/:id", admin, a.handleGetUser)
		users.PATCH("/:id", admin, a.handlePatchUser)
		users.GET("/:id/ideas/", admin, a.handleUserIdeas)
	}

	me := r.Group("/me", active)
	{
		me.GET("", a.handleGetMe)
		me.GET("/", a.handleGetMe)
		me.PATCH("", a.handlePatchMe)
		me.PATCH("/", a.handlePatchMe)
		me.GET("/ideas/", a.handleMyIdeas)
		me.GET("/upvotes/", a.handleMyUpvotes)
		me.GET("/downvotes/", a.handleMyDownvotes)
	}

	ideas := r.Group("/ideas")
	{
		ideas.POST("/", active, a.handleCreateIdea)
		ideas.GET("/", a.handleListIdeas)
		ideas.GET("/count", a.handleCountIdeas)
		ideas.GET("/:id", a.handleGetIdea)
		ideas.PATCH("/:id", active, a.handlePatchIdea)
		ideas.DELETE("/:id", admin, a.handleDeleteIdea)
		ideas.PUT("/:id/upvote", active, a.handleUpvote)
		ideas.PUT("/:id/downvote", active, a.handleDownvote)
	}

	return r
}

// bindJSON decodes the body into req, trims it and validates it with
// gin's validator. Every failure is a validation error.
func bindJSON(c *gin.Context, req normalizer) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return invalid("could not read body")
	}
	if len(body) == 0 {
		return invalid("request body is required")
	}
	if err := json.Unmarshal(body, req); err != nil {
		return invalid(fmt.Sprintf("invalid JSON: %v", err))
	}
	req.normalize()
	if err := binding.Validator.ValidateStruct(req); err != nil {
		return invalid(err.Error())
	}
	return nil
}

func pathID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, invalid("invalid id")
	}
	return id, nil
}
