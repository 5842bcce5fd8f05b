package auth

import (
	"context"
	"testing"
	"time"

	"github.com/entrefine/lifeos/internal/config"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.User{},
		&models.Tenant{},
		&models.UserTenant{},
		&models.Invitation{},
		&models.RefreshSession{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Secret:          "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

func createTestUser(t *testing.T, conn *gorm.DB, email, password string) *models.User {
	t.Helper()
	svc := NewUserService(conn, testAuthConfig(), NewRefreshService(conn, 24*time.Hour), nil, "")
	user, err := svc.Register(context.Background(), email, password, "Test User")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}
