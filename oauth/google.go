package oauth

import (
	"context"
	"errors"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const googleIssuer = "https://accounts.google.com"

var (
	ErrMissingIdToken = errors.New("missing id_token in provider response")
	ErrInvalidIdToken = errors.New("invalid id_token payload")
)

// Identity is the verified result of an OAuth login.
type Identity struct {
	Email   string
	Subject string
	Name    string
	Picture string
}

// Provider is the external identity provider boundary. Tests swap it for a
// fake, production wires the Google implementation.
type Provider interface {
	LoginURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
	VerifyIdToken(ctx context.Context, rawIdToken string) (*Identity, error)
}

type googleProvider struct {
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewGoogle builds a Google OAuth provider. Discovery runs once at startup.
func NewGoogle(ctx context.Context, clientId string, clientSecret string, appUrl string) (Provider, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, err
	}
	config := &oauth2.Config{
		ClientID:     clientId,
		ClientSecret: clientSecret,
		RedirectURL:  appUrl + "/api/auth/callback/google",
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}
	return &googleProvider{
		config:   config,
		verifier: provider.Verifier(&oidc.Config{ClientID: clientId}),
	}, nil
}

func (p *googleProvider) LoginURL(state string) string {
	return p.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades the one-time code for provider tokens and returns the raw
// ID token. A reused code fails here, there is no retry.
func (p *googleProvider) Exchange(ctx context.Context, code string) (string, error) {
	tokens, err := p.config.Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	rawIdToken, ok := tokens.Extra("id_token").(string)
	if !ok || rawIdToken == "" {
		return "", ErrMissingIdToken
	}
	return rawIdToken, nil
}

func (p *googleProvider) VerifyIdToken(ctx context.Context, rawIdToken string) (*Identity, error) {
	idToken, err := p.verifier.Verify(ctx, rawIdToken)
	if err != nil {
		return nil, err
	}
	var claims struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, ErrInvalidIdToken
	}
	if claims.Email == "" {
		return nil, ErrInvalidIdToken
	}
	return &Identity{
		Email:   claims.Email,
		Subject: idToken.Subject,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}
