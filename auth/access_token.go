package auth

import (
	"context"
	"errors"
	"time"

	"github.com/mcpmqtt/server-go/internal/jwtauth"
)

// AccessTokenAuthOption configures optional aspects of the RFC 9068 access
// token authenticator (scopes, algorithms, leeway, etc.). Audience is a
// required formal argument to NewFromDiscovery instead of an option.
type AccessTokenAuthOption func(*jwtauth.Config)

// WithRequiredScopes requires all of the provided scopes to be present in the
// space-delimited "scope" claim.
func WithRequiredScopes(scopes ...string) AccessTokenAuthOption {
	return func(c *jwtauth.Config) {
		c.RequiredScopes = append([]string(nil), scopes...)
		c.ScopeModeAny = false
	}
}

// WithAnyRequiredScope requires at least one of the provided scopes to be present.
func WithAnyRequiredScope(scopes ...string) AccessTokenAuthOption {
	return func(c *jwtauth.Config) {
		c.RequiredScopes = append([]string(nil), scopes...)
		c.ScopeModeAny = true
	}
}

// WithAdditionalAudiences accepts extra "aud" values beyond the primary
// audience passed to NewFromDiscovery.
func WithAdditionalAudiences(auds ...string) AccessTokenAuthOption {
	return func(c *jwtauth.Config) {
		c.ExpectedAudiences = append(c.ExpectedAudiences, auds...)
	}
}

// WithAllowedAlgs restricts allowed JWS algorithms. "none" is never allowed.
// Defaults to ["RS256"].
func WithAllowedAlgs(algs ...string) AccessTokenAuthOption {
	return func(c *jwtauth.Config) {
		c.AllowedAlgs = append([]string(nil), algs...)
	}
}

// WithLeeway sets clock skew tolerance for time-based claims.
func WithLeeway(d time.Duration) AccessTokenAuthOption {
	return func(c *jwtauth.Config) { c.Leeway = d }
}

// NewFromDiscovery returns an Authenticator that verifies RFC 9068 JWT access
// tokens discovered via OpenID Connect discovery (jwks_uri, issuer).
//
// Required:
//   - issuer:   authorization server issuer URL
//   - audience: expected "aud" claim, typically the server's MCP endpoint identifier
//
// Remaining validation knobs (scopes, algs, leeway, additional audiences) are
// configured via functional options.
func NewFromDiscovery(ctx context.Context, issuer string, audience string, opts ...AccessTokenAuthOption) (Authenticator, error) {
	cfg := jwtauth.DefaultConfig()
	cfg.Issuer = issuer
	cfg.ExpectedAudiences = []string{audience}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.ExpectedAudiences) == 0 || cfg.ExpectedAudiences[0] == "" {
		return nil, errors.New("audience is required")
	}
	internal, err := jwtauth.NewFromDiscovery(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &adapter{a: internal}, nil
}

// NewFromStaticJWKS returns an Authenticator that verifies RFC 9068 JWT access
// tokens against a manually configured issuer, audience and JWKS endpoint,
// skipping OpenID Connect discovery entirely. Use this when the authorization
// server does not expose a discovery document, or discovery is undesirable
// (air-gapped deployments, a JWKS mirrored behind an internal URL).
//
// Required:
//   - issuer:   expected "iss" claim
//   - audience: expected "aud" claim
//   - jwksURL:  JWKS endpoint to fetch signing keys from (auto-refreshed)
//
// The same functional options accepted by NewFromDiscovery apply here.
func NewFromStaticJWKS(ctx context.Context, issuer string, audience string, jwksURL string, opts ...AccessTokenAuthOption) (Authenticator, error) {
	cfg := jwtauth.DefaultConfig()
	cfg.Issuer = issuer
	cfg.ExpectedAudiences = []string{audience}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.ExpectedAudiences) == 0 || cfg.ExpectedAudiences[0] == "" {
		return nil, errors.New("audience is required")
	}
	if jwksURL == "" {
		return nil, errors.New("jwks URL is required")
	}

	staticCfg := &jwtauth.StaticConfig{
		Issuer:            cfg.Issuer,
		ExpectedAudiences: cfg.ExpectedAudiences,
		RequiredScopes:    cfg.RequiredScopes,
		ScopeModeAny:      cfg.ScopeModeAny,
		AllowedAlgs:       cfg.AllowedAlgs,
		Leeway:            cfg.Leeway,
	}
	internal, err := jwtauth.NewStatic(ctx, staticCfg, jwksURL)
	if err != nil {
		return nil, err
	}
	return &adapter{a: internal}, nil
}

// adapter wraps the internal jwtauth authenticator to satisfy the public
// Authenticator interface, mapping internal sentinel errors to the ones
// exported from this package.
type adapter struct {
	a jwtauth.Authenticator
}

func (ad *adapter) CheckAuthentication(ctx context.Context, tok string) (UserInfo, error) {
	ui, err := ad.a.CheckAuthentication(ctx, tok)
	if err != nil {
		if errors.Is(err, jwtauth.ErrInsufficientScope) {
			return nil, errors.Join(ErrInsufficientScope, err)
		}
		return nil, errors.Join(ErrUnauthorized, err)
	}
	return userInfoAdapter{ui: ui}, nil
}

type userInfoAdapter struct{ ui jwtauth.UserInfo }

func (u userInfoAdapter) UserID() string       { return u.ui.UserID() }
func (u userInfoAdapter) Claims(ref any) error { return u.ui.Claims(ref) }
