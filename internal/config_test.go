package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         AuthConfig
		wantErr     string
		wantMode    string
		wantEnabled bool
	}{
		{name: "disabled", cfg: AuthConfig{Mode: "disabled"}, wantMode: AuthModeDisabled},
		{name: "empty mode defaults to disabled", cfg: AuthConfig{}, wantMode: AuthModeDisabled},
		{name: "token", cfg: AuthConfig{Mode: "token", Token: "s3cret"}, wantMode: AuthModeToken, wantEnabled: true},
		{name: "token mode without token", cfg: AuthConfig{Mode: "token"}, wantErr: "token is empty"},
		{name: "unknown mode", cfg: AuthConfig{Mode: "magic", Token: "x"}, wantErr: "valid value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			err := cfg.Validate()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Validate() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if cfg.Mode != tt.wantMode {
				t.Errorf("mode = %q, want %q", cfg.Mode, tt.wantMode)
			}
			if cfg.AuthEnabled() != tt.wantEnabled {
				t.Errorf("AuthEnabled() = %v, want %v", cfg.AuthEnabled(), tt.wantEnabled)
			}
		})
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = AuthModeToken
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	s := cfg.Defaults.Settings()
	if s.Name != "User" || s.DailyCalories != 2000 || s.DailyWater != 2000 || !s.WeeklyBudget.IsZero() {
		t.Errorf("default settings = %+v", s)
	}
}

func TestApplicationConfig_Timezone(t *testing.T) {
	cfg := ApplicationConfig{Timezone: "Asia/Taipei", HTTP: HTTPConfig{Port: 8080}}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error: %v", err)
	}
	if loc.String() != "Asia/Taipei" {
		t.Errorf("location = %s", loc)
	}

	cfg.Timezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown timezone should fail validation")
	}
}

func TestDefaultsConfig_NegativeRejected(t *testing.T) {
	cfg := DefaultsConfig{DailyCalories: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative calorie target should fail validation")
	}
}

func TestStubConfig_RequiresPath(t *testing.T) {
	cfg := StubConfig{Port: 8090}
	if err := cfg.Validate(); err == nil {
		t.Fatal("stub without sqlite path should fail validation")
	}
	if got := (&StubConfig{Port: 9000}).Address(); got != ":9000" {
		t.Errorf("Address() = %q", got)
	}
}
