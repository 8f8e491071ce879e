package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/appmechanic/driveconnect/internal/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
)

const (
	// ConfigFileName is the name of the config file
	ConfigFileName = "config.json"
	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "DRIVECONNECT_"
)

// Identity scopes always requested alongside the configured Drive
// scopes so the account id and email can be resolved after exchange.
var identityScopes = []string{"openid", "https://www.googleapis.com/auth/userinfo.email"}

// Config holds application configuration
type Config struct {
	// ClientID is the OAuth2 client id registered with the provider
	ClientID string `json:"clientId"`

	// ClientSecret is the OAuth2 client secret
	ClientSecret string `json:"clientSecret"`

	// RedirectURL must exactly match the provider's registered value
	RedirectURL string `json:"redirectUrl"`

	// Scopes is the requested Drive scope set
	Scopes []string `json:"scopes"`

	// StateSigningSecret signs the short-lived consent state tokens
	StateSigningSecret string `json:"stateSigningSecret"`

	// RequestTimeout is the default remote call timeout in seconds
	RequestTimeout int `json:"requestTimeout"`

	// LogLevel sets the logging verbosity (debug, info, warn, error)
	LogLevel string `json:"logLevel"`

	// ColorOutput enables color output for console logging
	ColorOutput bool `json:"colorOutput"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Scopes:         []string{drive.DriveFileScope},
		RequestTimeout: 30,
		LogLevel:       "info",
		ColorOutput:    true,
	}
}

// Load loads configuration with precedence: env vars > config file > defaults.
// Validation failures are CONFIG_ERROR: the process must fail before
// accepting traffic.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(configPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, utils.NewOpError(utils.ErrCodeConfigError,
				fmt.Sprintf("failed to load config file: %v", err)).WithCause(err).Err()
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFromFile(configPath string) error {
	if configPath == "" {
		var err error
		configPath, err = GetConfigPath()
		if err != nil {
			return err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv(EnvPrefix + "CLIENT_ID"); v != "" {
		c.ClientID = v
	}
	if v := os.Getenv(EnvPrefix + "CLIENT_SECRET"); v != "" {
		c.ClientSecret = v
	}
	if v := os.Getenv(EnvPrefix + "REDIRECT_URL"); v != "" {
		c.RedirectURL = v
	}
	if v := os.Getenv(EnvPrefix + "SCOPES"); v != "" {
		c.Scopes = splitScopes(v)
	}
	if v := os.Getenv(EnvPrefix + "STATE_SIGNING_SECRET"); v != "" {
		c.StateSigningSecret = v
	}
	if v := os.Getenv(EnvPrefix + "REQUEST_TIMEOUT"); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil {
			c.RequestTimeout = timeout
		}
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvPrefix + "COLOR_OUTPUT"); v != "" {
		c.ColorOutput = parseBool(v)
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.ClientID) == "" {
		missing = append(missing, "clientId")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		missing = append(missing, "clientSecret")
	}
	if strings.TrimSpace(c.RedirectURL) == "" {
		missing = append(missing, "redirectUrl")
	}
	if strings.TrimSpace(c.StateSigningSecret) == "" {
		missing = append(missing, "stateSigningSecret")
	}
	if len(missing) > 0 {
		return utils.NewOpError(utils.ErrCodeConfigError,
			"missing required configuration: "+strings.Join(missing, ", ")).Err()
	}

	if c.RequestTimeout < 1 || c.RequestTimeout > 3600 {
		return utils.NewOpError(utils.ErrCodeConfigError,
			fmt.Sprintf("request timeout must be between 1 and 3600 seconds, got: %d", c.RequestTimeout)).Err()
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	isValid := false
	for _, level := range validLogLevels {
		if c.LogLevel == level {
			isValid = true
			break
		}
	}
	if !isValid {
		return utils.NewOpError(utils.ErrCodeConfigError,
			fmt.Sprintf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))).Err()
	}

	return nil
}

// NormalizedScopes returns the configured scopes trimmed, de-duplicated,
// unioned with the identity scopes, and sorted for stable consent URLs.
func (c *Config) NormalizedScopes() []string {
	seen := make(map[string]struct{})
	var scopes []string

	add := func(scope string) {
		scope = strings.TrimSpace(scope)
		if scope == "" {
			return
		}
		if _, ok := seen[scope]; ok {
			return
		}
		seen[scope] = struct{}{}
		scopes = append(scopes, scope)
	}

	for _, s := range c.Scopes {
		add(s)
	}
	for _, s := range identityScopes {
		add(s)
	}

	sort.Strings(scopes)
	return scopes
}

// OAuthConfig builds the oauth2 client configuration
func (c *Config) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       c.NormalizedScopes(),
		Endpoint:     google.Endpoint,
	}
}

// GetRequestTimeout returns the request timeout as a duration
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "driveconnect"), nil
}

func splitScopes(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	})
	var scopes []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			scopes = append(scopes, p)
		}
	}
	return scopes
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
