// Package front registers the public REST API and its authentication
// middleware.
package front

import (
	"net/http"
	"strings"

	internalauth "github.com/entrefine/lifeos/internal/auth"
	"github.com/entrefine/lifeos/internal/badges"
	"github.com/entrefine/lifeos/internal/completions"
	"github.com/entrefine/lifeos/internal/config"
	"github.com/entrefine/lifeos/internal/gamification"
	"github.com/entrefine/lifeos/internal/http/api/front/handlers"
	"github.com/entrefine/lifeos/internal/lifeos"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/entrefine/lifeos/internal/nodes"
	"github.com/entrefine/lifeos/internal/security"
	"github.com/entrefine/lifeos/internal/timetracking"
	"github.com/entrefine/lifeos/internal/tracks"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Services bundles everything the route table needs.
type Services struct {
	DB          *gorm.DB
	AuthCfg     config.AuthConfig
	Users       *internalauth.UserService
	Sessions    *internalauth.RefreshService
	Tenants     *internalauth.TenantService
	Invitations *internalauth.InvitationService
	Resolver    *internalauth.TenantResolver
	OAuth       *internalauth.OAuthService
	Stats       *gamification.Service
	Badges      *badges.Service
	Tracks      *tracks.Service
	Nodes       *nodes.Service
	Completions *completions.Service
	Time        *timetracking.Service
	Game        *lifeos.SessionService
	GameState   *lifeos.StateService
	Inventory   *lifeos.InventoryService
	Templates   *lifeos.TemplateService
}

// RegisterRoutes mounts the public API under /api/v1.
func RegisterRoutes(r *gin.Engine, svc Services) {
	api := r.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(svc.Users, svc.Sessions, svc.OAuth, svc.AuthCfg)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)
	api.POST("/auth/forgot-password", authHandler.ForgotPassword)
	api.POST("/auth/reset-password", authHandler.ResetPassword)
	api.GET("/auth/google", authHandler.GoogleRedirect)
	api.GET("/auth/google/callback", authHandler.GoogleCallback)

	authed := api.Group("")
	authed.Use(userAuthMiddleware(svc.DB, svc.AuthCfg))

	authed.GET("/auth/me", authHandler.Me)
	authed.PATCH("/auth/me", authHandler.UpdateProfile)
	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.POST("/auth/logout-all", authHandler.LogoutAll)

	tenantHandler := handlers.NewTenantHandler(svc.Tenants, svc.Invitations, svc.Resolver, svc.Sessions, svc.AuthCfg)
	authed.POST("/tenants", tenantHandler.Create)
	authed.GET("/tenants", tenantHandler.List)
	authed.PATCH("/tenants/current", tenantHandler.Update)
	authed.POST("/tenants/:id/default", tenantHandler.MakeDefault)
	authed.GET("/tenants/current/members", tenantHandler.ListMembers)
	authed.PATCH("/tenants/current/members/:userID", tenantHandler.UpdateMemberRole)
	authed.DELETE("/tenants/current/members/:userID", tenantHandler.RemoveMember)
	authed.POST("/invitations", tenantHandler.CreateInvitation)
	authed.GET("/invitations", tenantHandler.ListInvitations)
	authed.POST("/invitations/accept", tenantHandler.AcceptInvitation)
	authed.DELETE("/invitations/:id", tenantHandler.RevokeInvitation)

	statsHandler := handlers.NewStatsHandler(svc.Stats, svc.Badges)
	authed.GET("/stats", statsHandler.GetStats)
	authed.GET("/stats/progress", statsHandler.GetProgress)
	authed.GET("/badges", statsHandler.ListBadges)
	authed.GET("/badges/mine", statsHandler.ListUserBadges)

	trackHandler := handlers.NewTrackHandler(svc.Tracks, svc.Nodes)
	authed.POST("/tracks", trackHandler.Create)
	authed.GET("/tracks", trackHandler.List)
	authed.GET("/tracks/:id", trackHandler.Get)
	authed.PATCH("/tracks/:id", trackHandler.Update)
	authed.DELETE("/tracks/:id", trackHandler.Delete)
	authed.GET("/tracks/:id/nodes", trackHandler.ListNodes)

	nodeHandler := handlers.NewNodeHandler(svc.Nodes, svc.Completions)
	authed.POST("/nodes", nodeHandler.Create)
	authed.GET("/nodes/:id", nodeHandler.Get)
	authed.PATCH("/nodes/:id", nodeHandler.Update)
	authed.DELETE("/nodes/:id", nodeHandler.Delete)
	authed.POST("/nodes/:id/complete", nodeHandler.Complete)
	authed.GET("/completions", nodeHandler.ListCompletions)

	timeHandler := handlers.NewTimeHandler(svc.Time)
	authed.POST("/time/start", timeHandler.Start)
	authed.POST("/time/stop", timeHandler.Stop)
	authed.POST("/time/entries", timeHandler.AddManual)
	authed.GET("/time/entries", timeHandler.List)
	authed.GET("/time/running", timeHandler.Running)
	authed.GET("/time/summary", timeHandler.Summary)

	gameHandler := handlers.NewGameHandler(svc.Game, svc.GameState, svc.Inventory, svc.Templates)
	authed.GET("/game/state", gameHandler.State)
	authed.GET("/game/world", gameHandler.World)
	authed.POST("/game/world/upgrade", gameHandler.UpgradeWorld)
	authed.POST("/game/sessions", gameHandler.StartSession)
	authed.POST("/game/sessions/:id/complete", gameHandler.CompleteSession)
	authed.POST("/game/sessions/:id/cancel", gameHandler.CancelSession)
	authed.GET("/game/sessions", gameHandler.History)
	authed.GET("/game/inventory", gameHandler.Inventory)
	authed.GET("/game/catalog", gameHandler.Catalog)
	authed.POST("/game/equip", gameHandler.Equip)
	authed.POST("/game/unequip", gameHandler.Unequip)
	authed.POST("/game/templates", gameHandler.CreateTemplate)
	authed.GET("/game/templates", gameHandler.ListTemplates)
	authed.PATCH("/game/templates/:id", gameHandler.UpdateTemplate)
	authed.DELETE("/game/templates/:id", gameHandler.DeleteTemplate)
}

// userAuthMiddleware validates access tokens from the Authorization header
// or the access cookie and loads the user into the request context.
func userAuthMiddleware(db *gorm.DB, cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			if cookie, errCookie := c.Cookie(cfg.AccessCookieName); errCookie == nil {
				token = strings.TrimSpace(cookie)
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		claims, errJWT := security.ParseAccessToken(cfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, "id = ?", claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		c.Set(handlers.ContextUserID, user.ID)
		c.Set(handlers.ContextUser, &user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return ""
	}
	return strings.TrimSpace(token)
}
