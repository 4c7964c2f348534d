package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var knownEnv = []string{
	"PI_API_KEY", "PROOF_TOKEN_SECRET", "RESEND_API_KEY", "MAIL_FROM", "MAIL_TO",
	"PROOFGATE_SERVER_ADDRESS", "PROOFGATE_ROUTE_PREFIX", "PROOFGATE_ADMIN_METRICS_API_KEY",
	"PROOFGATE_REQUEST_TIMEOUT", "PROOFGATE_CORS_ALLOWED_ORIGINS",
	"PROOFGATE_LOG_LEVEL", "PROOFGATE_LOG_FORMAT", "PROOFGATE_ENVIRONMENT",
	"PROOFGATE_GATEWAY_BASE_URL", "PROOFGATE_GATEWAY_TIMEOUT",
	"PROOFGATE_PROOF_TOKEN_LIFETIME",
	"PROOFGATE_MAIL_BASE_URL", "PROOFGATE_MAIL_BRAND", "PROOFGATE_MAIL_TIMEOUT",
	"PROOFGATE_RATE_LIMIT_GLOBAL_ENABLED", "PROOFGATE_RATE_LIMIT_GLOBAL_LIMIT",
	"PROOFGATE_RATE_LIMIT_PER_IP_ENABLED", "PROOFGATE_RATE_LIMIT_PER_IP_LIMIT",
	"PROOFGATE_CIRCUIT_BREAKER_ENABLED",
}

// isolateEnv blanks every variable the loader reads so the host environment cannot leak in.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range knownEnv {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("defaults must load without secrets, got: %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Errorf("expected default address :8080, got %s", cfg.Server.Address)
	}
	if cfg.Server.RoutePrefix != "/api" {
		t.Errorf("expected default route prefix /api, got %s", cfg.Server.RoutePrefix)
	}
	if cfg.Gateway.BaseURL != DefaultGatewayBaseURL {
		t.Errorf("expected gateway base %s, got %s", DefaultGatewayBaseURL, cfg.Gateway.BaseURL)
	}
	if cfg.ProofToken.Lifetime.Duration != 10*time.Minute {
		t.Errorf("expected 10m token lifetime, got %v", cfg.ProofToken.Lifetime.Duration)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Gateway.Configured() || cfg.ProofToken.Configured() || cfg.Mail.Configured() {
		t.Error("nothing should be configured without secrets")
	}

	missing := cfg.MissingSecrets()
	if len(missing) != 5 {
		t.Errorf("expected 5 missing secrets, got %v", missing)
	}
}

func TestLoadConfig_SecretsFromEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("PI_API_KEY", "pi-key")
	t.Setenv("PROOF_TOKEN_SECRET", "s3cret")
	t.Setenv("RESEND_API_KEY", "re_key")
	t.Setenv("MAIL_FROM", "Code Arche <noreply@codearche.io>")
	t.Setenv("MAIL_TO", "guardians@codearche.io")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Gateway.Configured() || !cfg.ProofToken.Configured() || !cfg.Mail.Configured() {
		t.Errorf("expected all operations configured: %+v", cfg)
	}
	if len(cfg.MissingSecrets()) != 0 {
		t.Errorf("expected no missing secrets, got %v", cfg.MissingSecrets())
	}
}

func TestLoadConfig_YAMLFileThenEnv(t *testing.T) {
	isolateEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "proofgate.yaml")
	yamlBody := `
server:
  address: ":9090"
  route_prefix: "guardian/"
  cors_allowed_origins: ["https://codearche.io"]
gateway:
  base_url: "https://sandbox.minepi.test/v2/"
  timeout: 5
proof_token:
  secret: "from-file"
  lifetime: 15m
mail:
  brand: "Arche"
`
	if err := os.WriteFile(path, []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PROOF_TOKEN_SECRET", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Address != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Server.Address)
	}
	if cfg.Server.RoutePrefix != "/guardian" {
		t.Errorf("expected normalized prefix /guardian, got %s", cfg.Server.RoutePrefix)
	}
	if cfg.Gateway.BaseURL != "https://sandbox.minepi.test/v2" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.Gateway.BaseURL)
	}
	if cfg.Gateway.Timeout.Duration != 5*time.Second {
		t.Errorf("expected bare number to parse as seconds, got %v", cfg.Gateway.Timeout.Duration)
	}
	if cfg.ProofToken.Lifetime.Duration != 15*time.Minute {
		t.Errorf("expected 15m lifetime, got %v", cfg.ProofToken.Lifetime.Duration)
	}
	if cfg.ProofToken.Secret != "from-env" {
		t.Errorf("env must override file secret, got %q", cfg.ProofToken.Secret)
	}
	if cfg.Mail.Brand != "Arche" {
		t.Errorf("expected brand from file, got %q", cfg.Mail.Brand)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	isolateEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr string
	}{
		{
			name:    "lifetime too long",
			envVars: map[string]string{"PROOFGATE_PROOF_TOKEN_LIFETIME": "2h"},
			wantErr: "proof_token.lifetime",
		},
		{
			name:    "lifetime too short",
			envVars: map[string]string{"PROOFGATE_PROOF_TOKEN_LIFETIME": "10s"},
			wantErr: "proof_token.lifetime",
		},
		{
			name:    "gateway url without scheme",
			envVars: map[string]string{"PROOFGATE_GATEWAY_BASE_URL": "api.minepi.com/v2"},
			wantErr: "gateway.base_url",
		},
		{
			name:    "mail url with bad scheme",
			envVars: map[string]string{"PROOFGATE_MAIL_BASE_URL": "ftp://mail.example.com"},
			wantErr: "mail.base_url",
		},
		{
			name:    "recipient not an address",
			envVars: map[string]string{"MAIL_TO": "guardians"},
			wantErr: "mail.to",
		},
		{
			name:    "per-ip limit zero while enabled",
			envVars: map[string]string{"PROOFGATE_RATE_LIMIT_PER_IP_LIMIT": "0"},
			wantErr: "per_ip_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			_, err := Load("")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestEnvOverrides_ServerConfig(t *testing.T) {
	tests := []struct {
		name      string
		envVars   map[string]string
		checkFunc func(*testing.T, *Config)
	}{
		{
			name:    "PROOFGATE_SERVER_ADDRESS overrides default",
			envVars: map[string]string{"PROOFGATE_SERVER_ADDRESS": ":3000"},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Server.Address != ":3000" {
					t.Errorf("Expected :3000, got %s", cfg.Server.Address)
				}
			},
		},
		{
			name:    "CORS origins are split and trimmed",
			envVars: map[string]string{"PROOFGATE_CORS_ALLOWED_ORIGINS": "https://a.io, https://b.io,,"},
			checkFunc: func(t *testing.T, cfg *Config) {
				got := cfg.Server.CORSAllowedOrigins
				if len(got) != 2 || got[0] != "https://a.io" || got[1] != "https://b.io" {
					t.Errorf("unexpected origins %v", got)
				}
			},
		},
		{
			name:    "boolean and int overrides",
			envVars: map[string]string{"PROOFGATE_CIRCUIT_BREAKER_ENABLED": "false", "PROOFGATE_RATE_LIMIT_GLOBAL_LIMIT": "42"},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.CircuitBreaker.Enabled {
					t.Error("expected circuit breaker disabled")
				}
				if cfg.RateLimit.GlobalLimit != 42 {
					t.Errorf("expected global limit 42, got %d", cfg.RateLimit.GlobalLimit)
				}
			},
		},
		{
			name:    "unparseable duration is ignored",
			envVars: map[string]string{"PROOFGATE_GATEWAY_TIMEOUT": "soon"},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Gateway.Timeout.Duration != 10*time.Second {
					t.Errorf("expected default timeout kept, got %v", cfg.Gateway.Timeout.Duration)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := defaultConfig()
			cfg.applyEnvOverrides()
			tt.checkFunc(t, cfg)
		})
	}
}

func TestNormalizeRoutePrefix(t *testing.T) {
	tests := map[string]string{
		"":        "",
		"/":       "",
		"api":     "/api",
		"/api/":   "/api",
		" /api ":  "/api",
		"v1/pay/": "/v1/pay",
	}
	for in, want := range tests {
		if got := normalizeRoutePrefix(in); got != want {
			t.Errorf("normalizeRoutePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
