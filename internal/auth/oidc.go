package auth

import (
	"context"
	"errors"
	"fmt"

	"go-blog-app/internal/config"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// ErrEmailNotVerified is returned when the provider does not vouch for the email claim.
var ErrEmailNotVerified = errors.New("email not verified by the identity provider")

// Authenticator is a struct that holds the OIDC provider, OAuth2 config, and ID token verifier.
type Authenticator struct {
	*oidc.Provider
	*oauth2.Config
	*oidc.IDTokenVerifier
}

// NewAuthenticator discovers the provider at cfg.IssuerURL. It returns nil
// without error when single sign-on is not configured.
func NewAuthenticator(ctx context.Context, cfg config.OIDCConfig) (*Authenticator, error) {
	if cfg.IssuerURL == "" {
		return nil, nil
	}
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Authenticator{
		Provider:        provider,
		IDTokenVerifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

// VerifiedEmail exchanges the authorization code and returns the verified
// email address of the signed-in account.
func (a *Authenticator) VerifiedEmail(ctx context.Context, code string) (string, error) {
	tok, err := a.Config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok {
		return "", errors.New("no id_token in token response")
	}
	idToken, err := a.IDTokenVerifier.Verify(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("failed to verify id token: %w", err)
	}
	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return "", fmt.Errorf("failed to read id token claims: %w", err)
	}
	if claims.Email == "" || !claims.EmailVerified {
		return "", ErrEmailNotVerified
	}
	return claims.Email, nil
}
