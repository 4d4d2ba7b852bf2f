package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rei-da-derivada/identity/internal/accounts"
	"github.com/rei-da-derivada/identity/internal/claims"
	"github.com/rei-da-derivada/identity/internal/token"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuthConfig holds OAuth client credentials for the browser code flow.
// Leave ClientID/ClientSecret empty to disable the redirect routes; the
// token sign-in route works without them.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// accountResolver is the interface expected by AuthHandler, satisfied by
// *accounts.Resolver.
type accountResolver interface {
	Resolve(ctx context.Context, cs *claims.ClaimSet) (*accounts.Account, bool, error)
}

// accountReader serves the lookup route, satisfied by *accounts.AccountRepository.
type accountReader interface {
	GetByEmail(ctx context.Context, email string) (*accounts.Account, error)
}

// AuthHandler handles sign-in routes: token-based sign-in for the App and
// web front-ends that hold a Google access token already, and the
// redirect/callback pair for a plain browser flow. Both paths run the same
// verify→resolve kernel. Session issuance is the front-ends' concern.
type AuthHandler struct {
	verifier claims.Verifier
	resolver accountResolver
	reader   accountReader
	states   *token.StateIssuer
	oauthCfg *oauth2.Config
	logger   *zap.Logger
}

// NewAuthHandler creates an AuthHandler. cfg may be zero to disable the
// browser OAuth routes.
func NewAuthHandler(
	verifier claims.Verifier,
	resolver accountResolver,
	reader accountReader,
	states *token.StateIssuer,
	cfg OAuthConfig,
	logger *zap.Logger,
) *AuthHandler {
	h := &AuthHandler{
		verifier: verifier,
		resolver: resolver,
		reader:   reader,
		states:   states,
		logger:   logger,
	}
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		h.oauthCfg = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return h
}

// Register mounts the auth routes on the provided router group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/google", h.GoogleSignIn)
		auth.GET("/google/login", h.GoogleRedirect)
		auth.GET("/google/callback", h.GoogleCallback)
	}
	rg.GET("/accounts/:email", h.GetAccount)
}

type signInRequest struct {
	AccessToken string `json:"access_token"`
}

// GoogleSignIn handles POST /auth/google — verifies a Google access token
// and provisions or updates the local account. The token is read from the
// JSON body or, failing that, from the Authorization header.
func (h *AuthHandler) GoogleSignIn(c *gin.Context) {
	var req signInRequest
	_ = c.ShouldBindJSON(&req)
	credential := req.AccessToken
	if credential == "" {
		credential = bearerToken(c)
	}

	h.signIn(c, credential)
}

// signIn runs verify→resolve for a credential and writes the response.
func (h *AuthHandler) signIn(c *gin.Context, credential string) {
	ctx := c.Request.Context()

	cs, err := h.verifier.Verify(ctx, credential)
	if err != nil {
		RecordVerification(verificationOutcome(err))
		switch {
		case errors.Is(err, claims.ErrMissingCredential):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "access token is required"})
		case errors.Is(err, claims.ErrRejectedByProvider):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired access token"})
		case errors.Is(err, claims.ErrProviderUnreachable):
			h.logger.Error("identity provider unreachable", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "identity provider unreachable"})
		default:
			h.logger.Error("verify credential", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sign-in failed"})
		}
		return
	}
	RecordVerification("ok")

	a, created, err := h.resolver.Resolve(ctx, cs)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrIncompleteClaims):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "provider returned no email for this token"})
		case errors.Is(err, accounts.ErrStoreUnavailable):
			h.logger.Error("account store unavailable", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "account store unavailable"})
		default:
			h.logger.Error("resolve account", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sign-in failed"})
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"account": a, "created": created})
}

// GoogleRedirect handles GET /auth/google/login — sends the browser to
// Google's consent screen with a signed state parameter.
func (h *AuthHandler) GoogleRedirect(c *gin.Context) {
	if h.oauthCfg == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "google OAuth is not configured"})
		return
	}

	state, err := h.states.Issue("google")
	if err != nil {
		h.logger.Error("generate oauth state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate OAuth state"})
		return
	}

	c.Redirect(http.StatusFound, h.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GoogleCallback handles GET /auth/google/callback — validates state,
// exchanges the authorization code, and feeds the resulting access token
// through the same verify→resolve path as token sign-in.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.oauthCfg == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "google OAuth is not configured"})
		return
	}

	provider, err := h.states.Verify(c.Query("state"))
	if err != nil || provider != "google" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid OAuth state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		errMsg := c.Query("error_description")
		if errMsg == "" {
			errMsg = c.Query("error")
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "OAuth authorization failed: " + errMsg})
		return
	}

	oauthToken, err := h.oauthCfg.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Error("oauth code exchange", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "OAuth code exchange failed"})
		return
	}

	h.signIn(c, oauthToken.AccessToken)
}

// GetAccount handles GET /accounts/:email — point read for ops and the
// event-management frontend.
func (h *AuthHandler) GetAccount(c *gin.Context) {
	a, err := h.reader.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		h.logger.Error("get account", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "account store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": a})
}

// bearerToken extracts a bearer token from the Authorization header.
func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// verificationOutcome maps a verifier error to a metrics label.
func verificationOutcome(err error) string {
	switch {
	case errors.Is(err, claims.ErrMissingCredential):
		return "missing"
	case errors.Is(err, claims.ErrRejectedByProvider):
		return "rejected"
	case errors.Is(err, claims.ErrProviderUnreachable):
		return "unreachable"
	default:
		return "error"
	}
}
