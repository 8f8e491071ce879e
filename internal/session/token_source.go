package session

import (
	"sync"

	"golang.org/x/oauth2"
)

// RotationFunc observes tokens minted as a side effect of use. It runs
// on the caller's goroutine; implementations that persist should hand
// off and return quickly.
type RotationFunc func(token *oauth2.Token)

// notifyingTokenSource wraps a token source and invokes a callback
// whenever the returned token differs from the last one seen. Rotation
// is modeled as an explicit callback rather than shared mutable state
// so persistence stays independently testable with a fake sink.
type notifyingTokenSource struct {
	mu       sync.Mutex
	src      oauth2.TokenSource
	last     *oauth2.Token
	onRotate RotationFunc
}

func newNotifyingTokenSource(src oauth2.TokenSource, seed *oauth2.Token, onRotate RotationFunc) *notifyingTokenSource {
	return &notifyingTokenSource{
		src:      src,
		last:     seed,
		onRotate: onRotate,
	}
}

// Token returns a valid token, refreshing through the wrapped source
// when needed, and reports rotations to the callback.
func (s *notifyingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	if rotated(s.last, token) {
		s.last = token
		if s.onRotate != nil {
			s.onRotate(token)
		}
	}

	return token, nil
}

func rotated(prev, next *oauth2.Token) bool {
	if prev == nil {
		return true
	}
	if prev.AccessToken != next.AccessToken {
		return true
	}
	if next.RefreshToken != "" && prev.RefreshToken != next.RefreshToken {
		return true
	}
	return !prev.Expiry.Equal(next.Expiry)
}
