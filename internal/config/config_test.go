package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/appmechanic/driveconnect/internal/utils"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.ClientID = "client-id"
	cfg.ClientSecret = "client-secret"
	cfg.RedirectURL = "https://app.example.com/callback"
	cfg.StateSigningSecret = "signing-secret"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing client id", func(c *Config) { c.ClientID = "" }, true},
		{"missing client secret", func(c *Config) { c.ClientSecret = " " }, true},
		{"missing redirect url", func(c *Config) { c.RedirectURL = "" }, true},
		{"missing signing secret", func(c *Config) { c.StateSigningSecret = "" }, true},
		{"timeout too small", func(c *Config) { c.RequestTimeout = 0 }, true},
		{"timeout too large", func(c *Config) { c.RequestTimeout = 9999 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !utils.IsCode(err, utils.ErrCodeConfigError) {
				t.Errorf("error code = %s, want CONFIG_ERROR", utils.CodeOf(err))
			}
		})
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ConfigFileName)
	fileContent := `{
		"clientId": "file-client",
		"clientSecret": "file-secret",
		"redirectUrl": "https://file.example.com/callback",
		"stateSigningSecret": "file-signing",
		"logLevel": "debug"
	}`
	if err := os.WriteFile(configPath, []byte(fileContent), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Setenv(EnvPrefix+"CLIENT_ID", "env-client")
	t.Setenv(EnvPrefix+"REQUEST_TIMEOUT", "60")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Env beats file
	if cfg.ClientID != "env-client" {
		t.Errorf("ClientID = %q, want env-client", cfg.ClientID)
	}
	// File beats defaults
	if cfg.ClientSecret != "file-secret" {
		t.Errorf("ClientSecret = %q, want file-secret", cfg.ClientSecret)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	// Env-only override
	if cfg.RequestTimeout != 60 {
		t.Errorf("RequestTimeout = %d, want 60", cfg.RequestTimeout)
	}
}

func TestLoadMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv(EnvPrefix+"CLIENT_ID", "env-client")
	t.Setenv(EnvPrefix+"CLIENT_SECRET", "env-secret")
	t.Setenv(EnvPrefix+"REDIRECT_URL", "https://env.example.com/callback")
	t.Setenv(EnvPrefix+"STATE_SIGNING_SECRET", "env-signing")

	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ClientID != "env-client" {
		t.Errorf("ClientID = %q, want env-client", cfg.ClientID)
	}
}

func TestLoadValidationFailure(t *testing.T) {
	// No file, no env: required fields missing
	for _, key := range []string{"CLIENT_ID", "CLIENT_SECRET", "REDIRECT_URL", "STATE_SIGNING_SECRET"} {
		t.Setenv(EnvPrefix+key, "")
	}
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.json"))
	if !utils.IsCode(err, utils.ErrCodeConfigError) {
		t.Errorf("error code = %s, want CONFIG_ERROR", utils.CodeOf(err))
	}
}

func TestNormalizedScopes(t *testing.T) {
	cfg := validConfig()
	cfg.Scopes = []string{
		" https://www.googleapis.com/auth/drive.file ",
		"https://www.googleapis.com/auth/drive.file",
		"",
		"openid",
	}

	got := cfg.NormalizedScopes()
	want := []string{
		"https://www.googleapis.com/auth/drive.file",
		"https://www.googleapis.com/auth/userinfo.email",
		"openid",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizedScopes() = %v, want %v", got, want)
	}
}

func TestNormalizedScopesStable(t *testing.T) {
	a := validConfig()
	a.Scopes = []string{"scope-b", "scope-a"}
	b := validConfig()
	b.Scopes = []string{"scope-a", "scope-b"}

	if !reflect.DeepEqual(a.NormalizedScopes(), b.NormalizedScopes()) {
		t.Error("scope order should not affect the normalized set")
	}
}

func TestOAuthConfig(t *testing.T) {
	cfg := validConfig()
	oc := cfg.OAuthConfig()

	if oc.ClientID != cfg.ClientID || oc.ClientSecret != cfg.ClientSecret {
		t.Error("OAuthConfig() should carry the client credentials")
	}
	if oc.RedirectURL != cfg.RedirectURL {
		t.Errorf("RedirectURL = %q", oc.RedirectURL)
	}
	if len(oc.Scopes) == 0 {
		t.Error("OAuthConfig() scopes empty")
	}
}

func TestSplitScopes(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a,b", []string{"a", "b"}},
		{"a b", []string{"a", "b"}},
		{"a, b ,c", []string{"a", "b", "c"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := splitScopes(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitScopes(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
