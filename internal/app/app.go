// Package app wires configuration, storage, and services into a runnable
// HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	internalauth "github.com/entrefine/lifeos/internal/auth"
	"github.com/entrefine/lifeos/internal/badges"
	"github.com/entrefine/lifeos/internal/completions"
	"github.com/entrefine/lifeos/internal/config"
	"github.com/entrefine/lifeos/internal/db"
	"github.com/entrefine/lifeos/internal/gamification"
	"github.com/entrefine/lifeos/internal/http/api/front"
	"github.com/entrefine/lifeos/internal/lifeos"
	"github.com/entrefine/lifeos/internal/mailer"
	"github.com/entrefine/lifeos/internal/nodes"
	"github.com/entrefine/lifeos/internal/timetracking"
	"github.com/entrefine/lifeos/internal/tracks"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// shutdownGrace bounds how long in-flight requests get after the context
// is cancelled.
const shutdownGrace = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the API server with database-backed services and blocks
// until the context is cancelled or the listener fails.
func RunServer(ctx context.Context, cfg config.AppConfig, defaultPort int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	authCfg, err := config.LoadAuthConfig(configPath)
	if err != nil {
		return err
	}
	if authCfg.Secret == "" {
		return fmt.Errorf("app: auth secret is not configured (set auth.secret or %s)", config.EnvJWTSecret)
	}
	mailCfg, err := config.LoadMailConfig(configPath)
	if err != nil {
		return err
	}
	baseURL := config.LoadFrontendBaseURL(configPath)

	engine := gin.New()
	engine.Use(gin.Recovery())
	front.RegisterRoutes(engine, buildServices(conn, authCfg, mailCfg, baseURL))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if defaultPort <= 0 {
		defaultPort = 8318
	}
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", defaultPort),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"addr": server.Addr, "config": configPath}).Info("server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return fmt.Errorf("app: shutdown: %w", errShutdown)
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", errServe)
	}
}

// buildServices constructs the full service graph behind the route table.
func buildServices(conn *gorm.DB, authCfg config.AuthConfig, mailCfg config.MailConfig, baseURL string) front.Services {
	mail := mailer.New(mailCfg)
	sessions := internalauth.NewRefreshService(conn, authCfg.RefreshTokenTTL)
	users := internalauth.NewUserService(conn, authCfg, sessions, mail, baseURL)
	oauth := internalauth.NewOAuthService(conn, authCfg, users, internalauth.NewGoogleVerifier(authCfg))

	engine := lifeos.NewRewardEngine(rand.New(rand.NewSource(time.Now().UnixNano())))
	gameSessions := lifeos.NewSessionService(conn, engine)

	return front.Services{
		DB:          conn,
		AuthCfg:     authCfg,
		Users:       users,
		Sessions:    sessions,
		Tenants:     internalauth.NewTenantService(conn),
		Invitations: internalauth.NewInvitationService(conn, authCfg, mail, baseURL),
		Resolver:    internalauth.NewTenantResolver(conn),
		OAuth:       oauth,
		Stats:       gamification.NewService(conn),
		Badges:      badges.NewService(conn),
		Tracks:      tracks.NewService(conn),
		Nodes:       nodes.NewService(conn),
		Completions: completions.NewService(conn),
		Time:        timetracking.NewService(conn),
		Game:        gameSessions,
		GameState:   lifeos.NewStateService(conn, gameSessions),
		Inventory:   lifeos.NewInventoryService(conn),
		Templates:   lifeos.NewTemplateService(conn),
	}
}
