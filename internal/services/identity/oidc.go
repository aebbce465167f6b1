package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/iamangus/newish/internal/config"
	"github.com/iamangus/newish/internal/domain"
	"github.com/iamangus/newish/internal/ports"
)

// SSO is the optional OIDC login path. It is disabled unless a provider is
// configured; password login keeps working either way. Users signing in via
// the provider for the first time get a local account with an unusable
// password hash, so the SSO provider stays their only way in.
type SSO struct {
	provider *oidc.Provider
	conf     oauth2.Config
	users    ports.UserRepository
	sessions *Service
	logger   *logrus.Entry
	enabled  bool
}

func NewSSO(ctx context.Context, cfg config.OIDCConfig, users ports.UserRepository, sessions *Service, logger *logrus.Entry) *SSO {
	if cfg.ProviderURL == "" {
		logger.Info("OIDC provider not configured, SSO login disabled")
		return &SSO{enabled: false}
	}

	provider, err := oidc.NewProvider(ctx, cfg.ProviderURL)
	if err != nil {
		logger.WithError(err).Warn("failed to init OIDC provider, SSO login disabled")
		return &SSO{enabled: false}
	}

	return &SSO{
		provider: provider,
		conf: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		users:    users,
		sessions: sessions,
		logger:   logger,
		enabled:  true,
	}
}

func (s *SSO) Enabled() bool { return s.enabled }

// NewState returns a random anti-CSRF state value for the login redirect.
func (s *SSO) NewState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// AuthCodeURL returns the provider redirect URL for the given state.
func (s *SSO) AuthCodeURL(state string) string {
	return s.conf.AuthCodeURL(state)
}

type idTokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Callback exchanges the authorization code, verifies the ID token, finds or
// creates the local user, and issues a regular session token.
func (s *SSO) Callback(ctx context.Context, code string) (*domain.User, string, error) {
	if !s.enabled {
		return nil, "", errors.New("sso not enabled")
	}

	oauth2Token, err := s.conf.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("%w: code exchange failed", domain.ErrUnauthorized)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, "", fmt.Errorf("%w: provider returned no id_token", domain.ErrUnauthorized)
	}

	verifier := s.provider.Verifier(&oidc.Config{ClientID: s.conf.ClientID})
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, "", fmt.Errorf("%w: id_token verification failed", domain.ErrUnauthorized)
	}

	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil || claims.Email == "" {
		return nil, "", fmt.Errorf("%w: id_token missing email claim", domain.ErrUnauthorized)
	}

	user, err := s.users.GetByEmail(ctx, claims.Email)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = s.provision(ctx, claims)
	}
	if err != nil {
		return nil, "", err
	}

	token, err := s.sessions.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *SSO) provision(ctx context.Context, claims idTokenClaims) (*domain.User, error) {
	name := claims.Name
	if name == "" {
		name = claims.Email
	}

	// Random unusable hash: bcrypt.CompareHashAndPassword can never match it,
	// so password login stays closed for provider-managed accounts.
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        claims.Email,
		PasswordHash: "!oidc:" + hex.EncodeToString(buf),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.WithField("user_id", user.ID).Info("provisioned user from OIDC login")
	return user, nil
}
