package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv() {
	os.Setenv("JWT_SECRET_KEY", "access-secret")
	os.Setenv("JWT_REFRESH_KEY", "refresh-secret")
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setRequiredEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8000")
	}
	if cfg.AccessTokenTTL != "60m" {
		t.Errorf("AccessTokenTTL = %q, want %q", cfg.AccessTokenTTL, "60m")
	}
	if cfg.RefreshTokenTTL != "168h" {
		t.Errorf("RefreshTokenTTL = %q, want %q", cfg.RefreshTokenTTL, "168h")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.AccessTokenCookie != "_intelliflow_access_token" {
		t.Errorf("AccessTokenCookie = %q, want default", cfg.AccessTokenCookie)
	}
	if cfg.RefreshTokenCookie != "_intelliflow_refresh_token" {
		t.Errorf("RefreshTokenCookie = %q, want default", cfg.RefreshTokenCookie)
	}
	if cfg.SessionIDCookie != "_sid" {
		t.Errorf("SessionIDCookie = %q, want %q", cfg.SessionIDCookie, "_sid")
	}
	if cfg.IsProduction() {
		t.Error("IsProduction should be false for default APP_ENV")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	setRequiredEnv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("ACCESS_TOKEN_TTL", "15m")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("APP_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want 15m", cfg.AccessTTL())
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction should be true when APP_ENV=production")
	}
}

func TestLoad_MissingSecrets(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail when JWT_SECRET_KEY is missing")
	}

	os.Setenv("JWT_SECRET_KEY", "only-access")
	if _, err := Load(); err == nil {
		t.Fatal("Load should fail when JWT_REFRESH_KEY is missing")
	}
}

func TestLoad_EqualSecretsRejected(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET_KEY", "same-secret")
	os.Setenv("JWT_REFRESH_KEY", "same-secret")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail when access and refresh secrets are equal")
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	testCases := []struct {
		name string
		cost string
	}{
		{"too low", "3"},
		{"too high", "32"},
		{"negative", "-1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			setRequiredEnv()
			os.Setenv("BCRYPT_COST", tc.cost)
			if _, err := Load(); err == nil {
				t.Errorf("Load with BCRYPT_COST=%s should return error", tc.cost)
			}
		})
	}
}

func TestTTL_InvalidFallsBackToDefault(t *testing.T) {
	cfg := &Config{AccessTokenTTL: "not-a-duration", RefreshTokenTTL: "-5m"}
	if cfg.AccessTTL() != 60*time.Minute {
		t.Errorf("AccessTTL = %v, want 60m fallback", cfg.AccessTTL())
	}
	if cfg.RefreshTTL() != 168*time.Hour {
		t.Errorf("RefreshTTL = %v, want 168h fallback", cfg.RefreshTTL())
	}
}

func TestCORSOriginsList(t *testing.T) {
	cfg := &Config{CORSOrigins: "http://localhost:3000, https://app.example.com ,"}
	got := cfg.CORSOriginsList()
	want := []string{"http://localhost:3000", "https://app.example.com"}
	if len(got) != len(want) {
		t.Fatalf("CORSOriginsList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CORSOriginsList[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	var nilCfg *Config
	if nilCfg.CORSOriginsList() != nil {
		t.Error("nil config should return nil origins")
	}
}
