// Package session manages the per-user OAuth credential lifecycle:
// consent URL construction, authorization-code exchange, lazy refresh,
// and persistence of rotated tokens.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/appmechanic/driveconnect/internal/credentials"
	"github.com/appmechanic/driveconnect/internal/logging"
	"github.com/appmechanic/driveconnect/internal/statetoken"
	"github.com/appmechanic/driveconnect/internal/utils"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const persistTimeout = 10 * time.Second

// Identity is the remote account bound to a credential
type Identity struct {
	AccountID    string
	AccountEmail string
}

// IdentityResolver resolves the remote account behind a fresh token.
// Injectable so exchange stays testable without live endpoints.
type IdentityResolver func(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*Identity, error)

// Manager drives the OAuth session lifecycle for all users
type Manager struct {
	cfg             *oauth2.Config
	codec           *statetoken.Codec
	store           *credentials.Store
	logger          logging.Logger
	resolveIdentity IdentityResolver

	wg sync.WaitGroup
}

// NewManager creates a session manager
func NewManager(cfg *oauth2.Config, codec *statetoken.Codec, store *credentials.Store, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Manager{
		cfg:             cfg,
		codec:           codec,
		store:           store,
		logger:          logger,
		resolveIdentity: resolveIdentity,
	}
}

// BuildConsentURL issues a state token bound to the user and returns
// the provider consent URL. Offline access plus forced re-consent
// guarantees a refresh token on every fresh connect.
func (m *Manager) BuildConsentURL(subjectUserID string) (string, error) {
	state, err := m.codec.Issue(subjectUserID)
	if err != nil {
		return "", err
	}

	return m.cfg.AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// ExchangeResult reports the outcome of a completed connect
type ExchangeResult struct {
	UserID       string
	AccountEmail string
}

// Exchange verifies the state token, exchanges the authorization code,
// resolves the account identity, and persists the resulting credential.
// A repeat consent may omit the refresh token; the previously stored
// one is preserved in that case. When neither a new nor a prior refresh
// token exists the exchange fails with MISSING_REFRESH_TOKEN.
func (m *Manager) Exchange(ctx context.Context, code, state string) (*ExchangeResult, error) {
	userID, err := m.codec.Verify(state)
	if err != nil {
		return nil, err
	}

	token, err := m.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, classifyTokenError("code exchange", err)
	}

	refreshToken := token.RefreshToken
	if refreshToken == "" {
		prior, loadErr := m.store.Load(ctx, userID)
		if loadErr == nil && prior.RefreshToken != "" {
			refreshToken = prior.RefreshToken
		}
	}
	if refreshToken == "" {
		return nil, utils.NewOpError(utils.ErrCodeMissingRefreshToken,
			"exchange yielded no refresh token and none was stored; restart consent").Err()
	}

	identity, err := m.resolveIdentity(ctx, m.cfg, token)
	if err != nil {
		return nil, err
	}

	fields := credentials.Fields{
		Connected:         credentials.Ptr(true),
		AccountID:         credentials.Ptr(identity.AccountID),
		AccountEmail:      credentials.Ptr(identity.AccountEmail),
		Scopes:            grantedScopes(token, m.cfg),
		AccessToken:       credentials.Ptr(token.AccessToken),
		RefreshToken:      credentials.Ptr(refreshToken),
		TokenType:         credentials.Ptr(token.TokenType),
		ExpiryEpochMillis: credentials.Ptr(token.Expiry.UnixMilli()),
	}
	if err := m.store.Save(ctx, userID, fields); err != nil {
		return nil, err
	}

	m.logger.Info("account connected",
		logging.F("userId", userID),
		logging.F("accountEmail", identity.AccountEmail),
	)

	return &ExchangeResult{UserID: userID, AccountEmail: identity.AccountEmail}, nil
}

// UserSession is a live, authenticated token source for one user
type UserSession struct {
	UserID string

	source oauth2.TokenSource
}

// TokenSource returns the rotation-aware token source
func (s *UserSession) TokenSource() oauth2.TokenSource {
	return s.source
}

// HTTPClient returns an HTTP client that authenticates with the
// session's token source
func (s *UserSession) HTTPClient(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, s.source)
}

// Hydrate loads the user's credential and builds a live session whose
// token source refreshes lazily and persists every rotation. It fails
// with NOT_CONNECTED when the user never connected or was disconnected.
func (m *Manager) Hydrate(ctx context.Context, userID string) (*UserSession, error) {
	cred, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cred.Connected || cred.RefreshToken == "" {
		return nil, utils.NewOpError(utils.ErrCodeNotConnected,
			fmt.Sprintf("user %s has no connected account", userID)).Err()
	}

	seed := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    cred.TokenType,
		Expiry:       time.UnixMilli(cred.ExpiryEpochMillis),
	}

	source := newNotifyingTokenSource(
		m.cfg.TokenSource(ctx, seed),
		seed,
		func(token *oauth2.Token) { m.persistRotation(userID, token) },
	)

	return &UserSession{UserID: userID, source: source}, nil
}

// EnsureFresh proactively obtains a valid access token. A permanently
// revoked refresh grant is fatal for the connection: the credential is
// marked disconnected so later calls fail fast with NOT_CONNECTED, and
// the caller gets AUTH_EXPIRED.
func (m *Manager) EnsureFresh(ctx context.Context, sess *UserSession) error {
	if _, err := sess.source.Token(); err != nil {
		if isInvalidGrant(err) {
			if markErr := m.store.MarkDisconnected(ctx, sess.UserID); markErr != nil {
				m.logger.Error("failed to mark credential disconnected",
					logging.F("userId", sess.UserID),
					logging.F("error", markErr.Error()),
				)
			}
			return utils.NewOpError(utils.ErrCodeAuthExpired,
				"refresh grant permanently revoked; reconnect required").WithCause(err).Err()
		}
		return classifyTokenError("token refresh", err)
	}
	return nil
}

// persistRotation saves a rotated token off the hot path. Persistence
// failures are logged, never surfaced: the operation that triggered
// the refresh already holds a valid token.
func (m *Manager) persistRotation(userID string, token *oauth2.Token) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		fields := credentials.Fields{
			AccessToken:       credentials.Ptr(token.AccessToken),
			RefreshToken:      credentials.Ptr(token.RefreshToken),
			TokenType:         credentials.Ptr(token.TokenType),
			ExpiryEpochMillis: credentials.Ptr(token.Expiry.UnixMilli()),
		}
		if err := m.store.Save(ctx, userID, fields); err != nil {
			m.logger.Error("failed to persist rotated token",
				logging.F("userId", userID),
				logging.F("error", err.Error()),
			)
			return
		}

		m.logger.Debug("rotated token persisted", logging.F("userId", userID))
	}()
}

// Flush waits for in-flight rotation persists to settle
func (m *Manager) Flush() {
	m.wg.Wait()
}

// resolveIdentity reads the account id and email from the exchange's
// ID token, falling back to a userinfo lookup when none was returned.
func resolveIdentity(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*Identity, error) {
	if raw, ok := token.Extra("id_token").(string); ok && raw != "" {
		payload, err := idtoken.Validate(ctx, raw, cfg.ClientID)
		if err == nil {
			email, _ := payload.Claims["email"].(string)
			return &Identity{AccountID: payload.Subject, AccountEmail: email}, nil
		}
		// Fall through to userinfo on a malformed ID token
	}

	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(token)))
	if err != nil {
		return nil, classifyTokenError("identity lookup", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, classifyTokenError("identity lookup", err)
	}

	return &Identity{AccountID: info.Id, AccountEmail: info.Email}, nil
}

// grantedScopes returns the scopes the provider actually granted,
// falling back to the requested set
func grantedScopes(token *oauth2.Token, cfg *oauth2.Config) []string {
	if raw, ok := token.Extra("scope").(string); ok && raw != "" {
		return strings.Fields(raw)
	}
	return cfg.Scopes
}

// isInvalidGrant detects the provider's permanent refresh revocation
func isInvalidGrant(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return false
	}
	if retrieveErr.ErrorCode == "invalid_grant" {
		return true
	}
	return strings.Contains(string(retrieveErr.Body), "invalid_grant")
}

// classifyTokenError maps token endpoint failures onto typed errors
func classifyTokenError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil && retrieveErr.Response.StatusCode < 500 {
		return utils.NewOpError(utils.ErrCodeInvalidArgument,
			fmt.Sprintf("%s rejected by provider: %v", op, retrieveErr.ErrorCode)).
			WithHTTPStatus(retrieveErr.Response.StatusCode).
			WithCause(err).
			Err()
	}
	return utils.NewOpError(utils.ErrCodeNetworkError, op+": "+err.Error()).
		WithRetryable(true).
		WithCause(err).
		Err()
}
