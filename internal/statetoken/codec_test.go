package statetoken

import (
	"strings"
	"testing"
	"time"

	"github.com/appmechanic/driveconnect/internal/utils"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")

	token, err := codec.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	subject, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if subject != "user-42" {
		t.Errorf("Verify() subject = %q, want %q", subject, "user-42")
	}
}

func TestIssueRequiresSubject(t *testing.T) {
	codec := NewCodec("test-secret")

	_, err := codec.Issue("  ")
	if err == nil {
		t.Fatal("Issue() with blank subject should fail")
	}
	if !utils.IsCode(err, utils.ErrCodeInvalidArgument) {
		t.Errorf("Issue() error code = %s, want INVALID_ARGUMENT", utils.CodeOf(err))
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	codec := NewCodec("test-secret")
	valid, err := codec.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"whitespace", "   "},
		{"garbage", "not-a-token"},
		{"tampered payload", tamper(valid)},
		{"wrong secret", mustIssue(t, NewCodec("other-secret"), "user-42")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.token)
			if err == nil {
				t.Fatal("Verify() should fail")
			}
			if !utils.IsCode(err, utils.ErrCodeInvalidState) {
				t.Errorf("Verify() error code = %s, want INVALID_STATE", utils.CodeOf(err))
			}
		})
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issued := time.Now()
	codec := NewCodec("test-secret")
	codec.now = func() time.Time { return issued }

	token, err := codec.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Still valid just inside the TTL
	codec.now = func() time.Time { return issued.Add(DefaultTTL - time.Minute) }
	if _, err := codec.Verify(token); err != nil {
		t.Fatalf("Verify() inside TTL error = %v", err)
	}

	// Expired past the TTL
	codec.now = func() time.Time { return issued.Add(DefaultTTL + time.Minute) }
	_, err = codec.Verify(token)
	if err == nil {
		t.Fatal("Verify() past TTL should fail")
	}
	if !utils.IsCode(err, utils.ErrCodeInvalidState) {
		t.Errorf("Verify() error code = %s, want INVALID_STATE", utils.CodeOf(err))
	}
}

// tamper flips a character in the token's payload segment
func tamper(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || len(parts[1]) == 0 {
		return token + "x"
	}
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	parts[1] = string(payload)
	return strings.Join(parts, ".")
}

func mustIssue(t *testing.T, codec *Codec, subject string) string {
	t.Helper()
	token, err := codec.Issue(subject)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return token
}
