package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/entrefine/lifeos/internal/config"
	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/entrefine/lifeos/internal/security"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

// googleUserInfoURL is the endpoint queried with the exchanged token.
const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleUser is the subset of the userinfo response the login flow needs.
type GoogleUser struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleVerifier exchanges an authorization code for the user's identity.
// The indirection keeps the login flow testable without Google.
type GoogleVerifier interface {
	AuthCodeURL(state string) string
	FetchUser(ctx context.Context, code string) (*GoogleUser, error)
}

// googleVerifier is the production GoogleVerifier backed by x/oauth2.
type googleVerifier struct {
	cfg *oauth2.Config
}

// NewGoogleVerifier builds the production verifier from auth settings.
func NewGoogleVerifier(cfg config.AuthConfig) GoogleVerifier {
	return &googleVerifier{cfg: &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}}
}

func (v *googleVerifier) AuthCodeURL(state string) string {
	return v.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (v *googleVerifier) FetchUser(ctx context.Context, code string) (*GoogleUser, error) {
	token, err := v.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchange oauth code: %w", err)
	}

	resp, err := v.cfg.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("auth: userinfo status %d: %s", resp.StatusCode, body)
	}

	var user GoogleUser
	if errDecode := json.NewDecoder(resp.Body).Decode(&user); errDecode != nil {
		return nil, fmt.Errorf("auth: decode userinfo: %w", errDecode)
	}
	return &user, nil
}

// OAuthService signs users in through Google, creating accounts on first
// login.
type OAuthService struct {
	db       *gorm.DB
	cfg      config.AuthConfig
	users    *UserService
	verifier GoogleVerifier
}

// NewOAuthService constructs an OAuthService with an injected verifier.
func NewOAuthService(db *gorm.DB, cfg config.AuthConfig, users *UserService, verifier GoogleVerifier) *OAuthService {
	return &OAuthService{db: db, cfg: cfg, users: users, verifier: verifier}
}

// Enabled reports whether Google login is configured.
func (s *OAuthService) Enabled() bool {
	return s.cfg.GoogleClientID != "" && s.cfg.GoogleClientSecret != ""
}

// AuthCodeURL returns the Google consent URL for the given state.
func (s *OAuthService) AuthCodeURL(state string) string {
	return s.verifier.AuthCodeURL(state)
}

// Login redeems a Google authorization code. A new account is created on
// first login with a random password, so the password path stays unusable
// until the user sets one.
func (s *OAuthService) Login(ctx context.Context, code string, meta SessionMeta) (*models.User, *TokenPair, error) {
	if !s.Enabled() {
		return nil, nil, domain.Wrap(domain.ErrBadRequest, "google login is not configured")
	}

	gUser, err := s.verifier.FetchUser(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	if gUser.Email == "" || !gUser.VerifiedEmail {
		return nil, nil, domain.Wrap(domain.ErrForbidden, "google account email is not verified")
	}

	conn := s.db.WithContext(ctx)
	email := NormalizeEmail(gUser.Email)

	var user models.User
	errLoad := conn.Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(errLoad, gorm.ErrRecordNotFound):
		random, errGen := security.GenerateRefreshToken()
		if errGen != nil {
			return nil, nil, errGen
		}
		hashed, errHash := security.HashPassword(random)
		if errHash != nil {
			return nil, nil, errHash
		}
		user = models.User{
			Email:          email,
			HashedPassword: hashed,
			FullName:       gUser.Name,
			ProfilePicture: gUser.Picture,
			IsActive:       true,
			IsVerified:     true,
		}
		if errCreate := conn.Create(&user).Error; errCreate != nil {
			return nil, nil, fmt.Errorf("auth: create oauth user: %w", errCreate)
		}
		log.WithFields(log.Fields{"user_id": user.ID, "email": email}).Info("user created via google login")
	case errLoad != nil:
		return nil, nil, fmt.Errorf("auth: load user: %w", errLoad)
	default:
		if !user.IsActive {
			return nil, nil, domain.Wrap(domain.ErrForbidden, "account disabled")
		}
		changes := map[string]any{"is_verified": true}
		if user.ProfilePicture == "" && gUser.Picture != "" {
			changes["profile_picture"] = gUser.Picture
		}
		if errSave := conn.Model(&models.User{}).Where("id = ?", user.ID).Updates(changes).Error; errSave != nil {
			return nil, nil, fmt.Errorf("auth: update oauth user: %w", errSave)
		}
	}

	pair, err := s.users.IssueTokens(ctx, &user, s.users.defaultTenantID(conn, user.ID), meta)
	if err != nil {
		return nil, nil, err
	}
	return &user, pair, nil
}
