// Package statetoken signs and verifies the short-lived state tokens
// that bind an authorization attempt to an application user id.
// Tokens are ephemeral and never persisted.
package statetoken

import (
	"strings"
	"time"

	"github.com/appmechanic/driveconnect/internal/utils"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is how long a consent state token stays valid
const DefaultTTL = 10 * time.Minute

// Codec issues and verifies signed state tokens
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec creates a codec signing with the given secret
func NewCodec(secret string) *Codec {
	return &Codec{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
}

type stateClaims struct {
	jwt.RegisteredClaims
}

// Issue returns a signed token bound to the subject user id,
// valid for the codec TTL.
func (c *Codec) Issue(subjectUserID string) (string, error) {
	if strings.TrimSpace(subjectUserID) == "" {
		return "", utils.NewOpError(utils.ErrCodeInvalidArgument, "subject user id is required").Err()
	}

	now := c.now().UTC()
	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectUserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(c.secret)
}

// Verify checks the token signature and expiry and returns the subject
// user id. Missing, expired, and tampered tokens all map to the same
// INVALID_STATE failure; the caller restarts consent in every case.
func (c *Codec) Verify(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", invalidState("state token missing")
	}

	parsed, err := jwt.ParseWithClaims(token, &stateClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, invalidState("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now() }))
	if err != nil {
		return "", invalidState("state token invalid or expired")
	}

	claims, ok := parsed.Claims.(*stateClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", invalidState("state token invalid or expired")
	}

	return claims.Subject, nil
}

func invalidState(msg string) error {
	return utils.NewOpError(utils.ErrCodeInvalidState, msg).Err()
}
