// Package identity is the boundary to the external OpenID Connect provider.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// ErrNonceMismatch means the id_token was not minted for this login attempt.
var ErrNonceMismatch = errors.New("identity: nonce mismatch")

// Identity is what the provider asserts about the person logging in.
type Identity struct {
	Subject  string
	Email    string
	Nickname string
}

// Provider runs the authorization-code handshake.
type Provider interface {
	AuthCodeURL(state, nonce string) string
	Exchange(ctx context.Context, code, nonce string) (Identity, error)
}

// OIDCConfig holds the relying-party registration.
type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// OIDCProvider is a Provider backed by a discovered OpenID Connect issuer.
type OIDCProvider struct {
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
}

type claims struct {
	Email             string `json:"email"`
	Nickname          string `json:"nickname"`
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
}

// NewOIDCProvider discovers the issuer's endpoints and signing keys.
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discover issuer %s: %w", cfg.Issuer, err)
	}
	return &OIDCProvider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (p *OIDCProvider) AuthCodeURL(state, nonce string) string {
	return p.oauth.AuthCodeURL(state, oidc.Nonce(nonce))
}

// Exchange trades the code for tokens and verifies the id_token signature,
// audience, expiry and nonce.
func (p *OIDCProvider) Exchange(ctx context.Context, code, nonce string) (Identity, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("exchange code: %w", err)
	}
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return Identity{}, errors.New("identity: no id_token in token response")
	}
	idToken, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return Identity{}, fmt.Errorf("verify id_token: %w", err)
	}
	if idToken.Nonce != nonce {
		return Identity{}, ErrNonceMismatch
	}

	var c claims
	if err := idToken.Claims(&c); err != nil {
		return Identity{}, fmt.Errorf("decode claims: %w", err)
	}
	return Identity{
		Subject:  idToken.Subject,
		Email:    c.Email,
		Nickname: suggestedNickname(c),
	}, nil
}

func suggestedNickname(c claims) string {
	switch {
	case c.Nickname != "":
		return c.Nickname
	case c.PreferredUsername != "":
		return c.PreferredUsername
	default:
		return c.Name
	}
}
