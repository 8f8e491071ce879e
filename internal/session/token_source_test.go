package session

import (
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestNotifyingTokenSourceFiresOnRotation(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	seed := &oauth2.Token{AccessToken: "at-1", RefreshToken: "rt-1", Expiry: expiry}
	stub := &stubTokenSource{token: seed}

	var rotations []*oauth2.Token
	src := newNotifyingTokenSource(stub, seed, func(token *oauth2.Token) {
		rotations = append(rotations, token)
	})

	// Same token back: no rotation
	if _, err := src.Token(); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if len(rotations) != 0 {
		t.Fatalf("rotations = %d, want 0 for unchanged token", len(rotations))
	}

	// New access token: rotation fires once
	stub.token = &oauth2.Token{AccessToken: "at-2", RefreshToken: "rt-1", Expiry: expiry.Add(time.Hour)}
	if _, err := src.Token(); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if len(rotations) != 1 || rotations[0].AccessToken != "at-2" {
		t.Fatalf("rotations = %+v, want one with at-2", rotations)
	}

	// Stable again: no extra callback
	if _, err := src.Token(); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if len(rotations) != 1 {
		t.Errorf("rotations = %d, want still 1", len(rotations))
	}
}

func TestRotated(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	base := &oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: expiry}

	tests := []struct {
		name string
		prev *oauth2.Token
		next *oauth2.Token
		want bool
	}{
		{"nil previous", nil, base, true},
		{"identical", base, &oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: expiry}, false},
		{"access token changed", base, &oauth2.Token{AccessToken: "at2", RefreshToken: "rt", Expiry: expiry}, true},
		{"refresh token changed", base, &oauth2.Token{AccessToken: "at", RefreshToken: "rt2", Expiry: expiry}, true},
		{"refresh token omitted", base, &oauth2.Token{AccessToken: "at", Expiry: expiry}, false},
		{"expiry changed", base, &oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: expiry.Add(time.Minute)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rotated(tt.prev, tt.next); got != tt.want {
				t.Errorf("rotated() = %v, want %v", got, tt.want)
			}
		})
	}
}
