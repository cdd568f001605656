package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
	"github.com/ewilliams-labs/moodmelody/internal/core/ports"
	"github.com/ewilliams-labs/moodmelody/internal/observability"
)

const defaultTokenURL = "https://accounts.spotify.com/api/token"

// TokenCache holds at most one catalog credential and shares a single
// in-flight exchange between concurrent callers.
type TokenCache struct {
	config     clientcredentials.Config
	httpClient *http.Client
	now        func() time.Time
	metrics    *observability.Metrics

	group singleflight.Group

	mu    sync.Mutex
	cred  domain.Credential
	timer *time.Timer
}

var _ ports.TokenProvider = (*TokenCache)(nil)

// TokenOption configures a TokenCache.
type TokenOption func(*TokenCache)

// WithTokenHTTPClient sets the client used for the exchange.
func WithTokenHTTPClient(c *http.Client) TokenOption {
	return func(tc *TokenCache) {
		if c != nil {
			tc.httpClient = c
		}
	}
}

// WithTokenClock replaces time.Now for expiry checks.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(tc *TokenCache) {
		if now != nil {
			tc.now = now
		}
	}
}

// WithTokenMetrics counts exchanges.
func WithTokenMetrics(m *observability.Metrics) TokenOption {
	return func(tc *TokenCache) {
		tc.metrics = m
	}
}

// NewTokenCache builds a cache performing client-credentials exchanges
// against tokenURL with HTTP Basic client authentication.
func NewTokenCache(clientID, clientSecret, tokenURL string, opts ...TokenOption) *TokenCache {
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	tc := &TokenCache{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: http.DefaultClient,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(tc)
	}
	return tc
}

// Token returns the cached credential while it is valid; otherwise it joins
// or starts the single in-flight exchange.
func (tc *TokenCache) Token(ctx context.Context) (domain.Credential, error) {
	if cred, ok := tc.cached(); ok {
		return cred, nil
	}

	v, err, _ := tc.group.Do("token", func() (any, error) {
		if cred, ok := tc.cached(); ok {
			return cred, nil
		}
		// One caller's cancellation must not fail the others sharing this fetch.
		return tc.exchange(context.WithoutCancel(ctx))
	})
	if err != nil {
		return domain.Credential{}, err
	}
	return v.(domain.Credential), nil
}

// Invalidate drops the cached credential.
func (tc *TokenCache) Invalidate() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.clearLocked()
}

func (tc *TokenCache) cached() (domain.Credential, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.cred.Valid(tc.now()) {
		return tc.cred, true
	}
	if tc.cred.AccessToken != "" {
		tc.clearLocked()
	}
	return domain.Credential{}, false
}

func (tc *TokenCache) exchange(ctx context.Context) (domain.Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, tc.httpClient)
	tok, err := tc.config.Token(ctx)
	if err != nil {
		tc.metrics.ObserveTokenExchange(observability.OutcomeError)
		log.Printf("WARN spotify adapter: token exchange failed: %v", err)
		return domain.Credential{}, fmt.Errorf("spotify adapter: %w: %v", domain.ErrAuthUnavailable, err)
	}

	lifetime := tokenLifetime(tok)
	if tok.AccessToken == "" || lifetime <= 0 {
		tc.metrics.ObserveTokenExchange(observability.OutcomeError)
		return domain.Credential{}, fmt.Errorf("spotify adapter: %w: token without access_token or lifetime", domain.ErrAuthUnavailable)
	}

	cred := domain.Credential{
		AccessToken: tok.AccessToken,
		ExpiresAt:   tc.now().Add(lifetime),
	}
	tc.store(cred, lifetime)
	tc.metrics.ObserveTokenExchange(observability.OutcomeOK)
	log.Printf("DEBUG spotify adapter: cached new token valid for %s", lifetime)
	return cred, nil
}

func (tc *TokenCache) store(cred domain.Credential, lifetime time.Duration) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.clearLocked()
	tc.cred = cred
	tc.timer = time.AfterFunc(lifetime, func() {
		tc.expire(cred.AccessToken)
	})
}

func (tc *TokenCache) expire(token string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.cred.AccessToken == token {
		tc.cred = domain.Credential{}
		tc.timer = nil
	}
}

// clearLocked must be called with mu held.
func (tc *TokenCache) clearLocked() {
	if tc.timer != nil {
		tc.timer.Stop()
		tc.timer = nil
	}
	tc.cred = domain.Credential{}
}

// tokenLifetime reads expires_in (whole seconds) from the token response,
// falling back to the expiry computed by oauth2.
func tokenLifetime(tok *oauth2.Token) time.Duration {
	var seconds int64
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		seconds = int64(v)
	case json.Number:
		seconds, _ = v.Int64()
	case string:
		seconds, _ = strconv.ParseInt(v, 10, 64)
	}
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if !tok.Expiry.IsZero() {
		return time.Until(tok.Expiry).Truncate(time.Second)
	}
	return 0
}
