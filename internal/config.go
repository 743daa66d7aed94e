package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/starford/lifeos/internal/models"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Remote   RemoteConfig      `yaml:"remote"`
	Defaults DefaultsConfig    `yaml:"defaults"`
	Auth     AuthConfig        `yaml:"auth"`
	Inbox    InboxConfig       `yaml:"inbox"`
	Stub     StubConfig        `yaml:"stub"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	if err := c.Defaults.Validate(); err != nil {
		return err
	}
	if err := c.Stub.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	Timezone string     `yaml:"timezone"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// Location resolves Timezone. An empty name means the host zone.
func (c *ApplicationConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("app: timezone: %w", err)
	}
	return loc, nil
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// RemoteConfig points at the spreadsheet web app.
//
// An Endpoint that is not an http(s) URL leaves the dashboard running on
// local state only: every remote call fails fast without network I/O.
type RemoteConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
	UserID   string        `yaml:"user_id"`
}

// Validate validates the remote configuration.
func (c *RemoteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// DefaultsConfig holds the settings a fresh session starts from.
type DefaultsConfig struct {
	Name          string  `yaml:"name"`
	DailyCalories float64 `yaml:"daily_calories"`
	DailyWater    float64 `yaml:"daily_water"`
	WeeklyBudget  float64 `yaml:"weekly_budget"`
}

// Validate validates the default settings.
func (c *DefaultsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DailyCalories, validation.Min(0.0)),
		validation.Field(&c.DailyWater, validation.Min(0.0)),
		validation.Field(&c.WeeklyBudget, validation.Min(0.0)),
	)
}

// Settings converts the defaults to model settings.
func (c *DefaultsConfig) Settings() models.Settings {
	return models.Settings{
		Name:          c.Name,
		DailyCalories: c.DailyCalories,
		DailyWater:    c.DailyWater,
		WeeklyBudget:  decimal.NewFromFloat(c.WeeklyBudget),
	}
}

// InboxConfig holds the photo inbox directory. Empty disables the watcher.
type InboxConfig struct {
	Path string `yaml:"path"`
}

// StubConfig configures the local sheet stub served by the sheet-stub command.
type StubConfig struct {
	Port       int    `yaml:"port"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Address returns the stub listen address.
func (c *StubConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the stub configuration.
func (c *StubConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.SQLitePath, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Remote: RemoteConfig{
			Timeout: 15 * time.Second,
		},
		Defaults: DefaultsConfig{
			Name:          "User",
			DailyCalories: 2000,
			DailyWater:    2000,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Stub: StubConfig{
			Port:       8090,
			SQLitePath: "./sheetstub.db",
		},
	}
}
