package handlers

import (
	"net/http"
	"strings"

	"github.com/entrefine/lifeos/internal/auth"
	"github.com/entrefine/lifeos/internal/config"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthHandler serves registration, login, token refresh, and profile
// endpoints.
type AuthHandler struct {
	users    *auth.UserService
	sessions *auth.RefreshService
	oauth    *auth.OAuthService
	cfg      config.AuthConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *auth.UserService, sessions *auth.RefreshService, oauth *auth.OAuthService, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, oauth: oauth, cfg: cfg}
}

func publicUser(u *models.User) gin.H {
	return gin.H{
		"id":              u.ID,
		"email":           u.Email,
		"full_name":       u.FullName,
		"profile_picture": u.ProfilePicture,
		"is_active":       u.IsActive,
		"is_verified":     u.IsVerified,
		"created_at":      u.CreatedAt,
	}
}

func (h *AuthHandler) sessionMeta(c *gin.Context) auth.SessionMeta {
	return auth.SessionMeta{UserAgent: c.Request.UserAgent(), IP: c.ClientIP()}
}

// setAuthCookies mirrors the token pair into HTTP-only cookies for browser
// clients. API clients can ignore the cookies and use the JSON body.
func (h *AuthHandler) setAuthCookies(c *gin.Context, pair *auth.TokenPair) {
	accessMaxAge := int(h.cfg.AccessTokenTTL.Seconds())
	refreshMaxAge := int(h.cfg.RefreshTokenTTL.Seconds())
	c.SetCookie(h.cfg.AccessCookieName, pair.AccessToken, accessMaxAge, "/", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
	c.SetCookie(h.cfg.RefreshCookieName, pair.RefreshToken, refreshMaxAge, "/", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	c.SetCookie(h.cfg.AccessCookieName, "", -1, "/", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
	c.SetCookie(h.cfg.RefreshCookieName, "", -1, "/", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
}

// refreshTokenFrom reads the raw refresh token from the body or cookie.
func (h *AuthHandler) refreshTokenFrom(c *gin.Context) string {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind == nil && strings.TrimSpace(body.RefreshToken) != "" {
		return strings.TrimSpace(body.RefreshToken)
	}
	if cookie, errCookie := c.Cookie(h.cfg.RefreshCookieName); errCookie == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// Register creates an account and signs the new user in.
func (h *AuthHandler) Register(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		FullName string `json:"full_name"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), body.Email, body.Password, body.FullName)
	if err != nil {
		writeError(c, err)
		return
	}
	pair, err := h.users.IssueTokens(c.Request.Context(), user, nil, h.sessionMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusCreated, gin.H{
		"user":          publicUser(user),
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// Login verifies credentials and issues a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, pair, err := h.users.Login(c.Request.Context(), body.Email, body.Password, h.sessionMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"user":          publicUser(user),
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// Refresh rotates the refresh session and mints a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw := h.refreshTokenFrom(c)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing refresh token"})
		return
	}

	user, pair, err := h.users.Refresh(c.Request.Context(), raw, h.sessionMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"user":          publicUser(user),
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// Logout revokes the presented refresh session. Always succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	if raw := h.refreshTokenFrom(c); raw != "" {
		if err := h.sessions.Revoke(c.Request.Context(), raw); err != nil {
			writeError(c, err)
			return
		}
	}
	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// LogoutAll revokes every refresh session of the authenticated user.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	revoked, err := h.sessions.RevokeAll(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"status": "logged out", "sessions_revoked": revoked})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": publicUser(user)})
}

// UpdateProfile applies a partial profile update.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var body struct {
		FullName       *string `json:"full_name"`
		ProfilePicture *string `json:"profile_picture"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, auth.ProfileUpdate{
		FullName:       body.FullName,
		ProfilePicture: body.ProfilePicture,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": publicUser(user)})
}

// ChangePassword rotates the password. The caller's own refresh session is
// spared from the revocation sweep when the refresh cookie identifies it;
// bearer-only clients get a fresh token pair instead.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var body struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "current and new password are required"})
		return
	}

	var keep []uuid.UUID
	if cookie, errCookie := c.Cookie(h.cfg.RefreshCookieName); errCookie == nil {
		if session, errGet := h.sessions.GetActive(c.Request.Context(), strings.TrimSpace(cookie)); errGet == nil && session.UserID == userID {
			keep = append(keep, session.ID)
		}
	}

	if err := h.users.ChangePassword(c.Request.Context(), userID, body.CurrentPassword, body.NewPassword, keep...); err != nil {
		writeError(c, err)
		return
	}
	if len(keep) > 0 {
		c.JSON(http.StatusOK, gin.H{"status": "password changed"})
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	pair, err := h.users.IssueTokens(c.Request.Context(), user, nil, h.sessionMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}
	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// ForgotPassword requests a reset link. The response never reveals whether
// the address is registered.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	if err := h.users.RequestPasswordReset(c.Request.Context(), body.Email); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "if the address is registered, a reset email has been sent"})
}

// ResetPassword redeems an emailed reset token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var body struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token and new password are required"})
		return
	}
	if err := h.users.ResetPassword(c.Request.Context(), body.Token, body.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password reset"})
}

// GoogleRedirect sends the browser to the Google consent screen.
func (h *AuthHandler) GoogleRedirect(c *gin.Context) {
	if h.oauth == nil || !h.oauth.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "google login is not configured"})
		return
	}
	state := c.Query("state")
	c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthCodeURL(state))
}

// GoogleCallback redeems the authorization code and signs the user in.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.oauth == nil || !h.oauth.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "google login is not configured"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}

	user, pair, err := h.oauth.Login(c.Request.Context(), code, h.sessionMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"user":          publicUser(user),
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}
