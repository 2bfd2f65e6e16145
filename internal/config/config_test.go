package config

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

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
	if cfg.GRPCAddr != "" {
		t.Errorf("GRPCAddr = %q, want empty", cfg.GRPCAddr)
	}
	if cfg.JWTIssuer != "staff-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "staff-auth")
	}
	if cfg.JWTAudience != "staff-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "staff-api")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
	if cfg.ActivityKafkaTopic != "staff-auth-activity" {
		t.Errorf("ActivityKafkaTopic = %q, want default", cfg.ActivityKafkaTopic)
	}
	if cfg.OTPReturnToClient {
		t.Error("OTPReturnToClient should default to false")
	}
	if got := cfg.LoginSessionLifetime(); got != 5*time.Minute {
		t.Errorf("LoginSessionLifetime = %v, want 5m", got)
	}
	if got := cfg.OTPLifetime(); got != 5*time.Minute {
		t.Errorf("OTPLifetime = %v, want 5m", got)
	}
	if got := cfg.RefreshTTL(); got != 24*time.Hour {
		t.Errorf("RefreshTTL = %v, want 24h", got)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9000")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("REDIS_URL", "redis://localhost:6379/2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9000")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if cfg.RedisURL != "redis://localhost:6379/2" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
}

func TestLoad_BCRYPT_COSTRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"valid middle", "12", 12, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
		{"zero", "0", 12, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("BCRYPT_COST", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestLoad_OTPReturnToClientProduction(t *testing.T) {
	os.Clearenv()
	os.Setenv("OTP_RETURN_TO_CLIENT", "true")
	os.Setenv("APP_ENV", "production")
	os.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load should return error when OTP_RETURN_TO_CLIENT=true and APP_ENV=production")
	}
	if cfg != nil {
		t.Error("Load should return nil config on error")
	}
	if err.Error() != "config: OTP_RETURN_TO_CLIENT must not be true when APP_ENV=production" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestLoad_ProductionRequiresRedis(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "Production")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject production without REDIS_URL")
	}

	os.Setenv("REDIS_URL", "redis://cache:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction should be true")
	}
}

func TestLoad_OTPReturnToClientDevelopment(t *testing.T) {
	os.Clearenv()
	os.Setenv("OTP_RETURN_TO_CLIENT", "true")
	os.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.OTPReturnToClient {
		t.Error("OTPReturnToClient should be true")
	}
}

func TestLoad_SMTPPortRange(t *testing.T) {
	os.Clearenv()
	os.Setenv("SMTP_PORT", "70000")
	if _, err := Load(); err == nil {
		t.Fatal("Load should reject SMTP_PORT above 65535")
	}
}

func TestDurations_FallBackOnInvalid(t *testing.T) {
	testCases := []struct {
		name  string
		value string
	}{
		{"invalid", "invalid"},
		{"zero", "0"},
		{"negative", "-5m"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				JWTAccessTTL:    tc.value,
				JWTRefreshTTL:   tc.value,
				LoginSessionTTL: tc.value,
				OTPTTL:          tc.value,
			}
			if got := cfg.AccessTTL(); got != 15*time.Minute {
				t.Errorf("AccessTTL = %v, want 15m", got)
			}
			if got := cfg.RefreshTTL(); got != 24*time.Hour {
				t.Errorf("RefreshTTL = %v, want 24h", got)
			}
			if got := cfg.LoginSessionLifetime(); got != 5*time.Minute {
				t.Errorf("LoginSessionLifetime = %v, want 5m", got)
			}
			if got := cfg.OTPLifetime(); got != 5*time.Minute {
				t.Errorf("OTPLifetime = %v, want 5m", got)
			}
		})
	}
}

func TestDurations_Valid(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "30m", JWTRefreshTTL: "336h", LoginSessionTTL: "2m", OTPTTL: "90s"}
	if got := cfg.AccessTTL(); got != 30*time.Minute {
		t.Errorf("AccessTTL = %v", got)
	}
	if got := cfg.RefreshTTL(); got != 14*24*time.Hour {
		t.Errorf("RefreshTTL = %v", got)
	}
	if got := cfg.LoginSessionLifetime(); got != 2*time.Minute {
		t.Errorf("LoginSessionLifetime = %v", got)
	}
	if got := cfg.OTPLifetime(); got != 90*time.Second {
		t.Errorf("OTPLifetime = %v", got)
	}
}

func TestSlogLevel(t *testing.T) {
	testCases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range testCases {
		cfg := &Config{LogLevel: in}
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestKafkaBrokersList(t *testing.T) {
	cfg := &Config{KafkaBrokers: " a:9092, ,b:9092 "}
	got := cfg.KafkaBrokersList()
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("KafkaBrokersList = %v", got)
	}
	var nilCfg *Config
	if nilCfg.KafkaBrokersList() != nil {
		t.Error("nil config should yield nil brokers")
	}
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogFormat: "json", LogLevel: "warn", ServiceName: "staff-auth"}
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"service":"staff-auth"`) {
		t.Errorf("json output = %s", out)
	}

	buf.Reset()
	cfg.LogFormat = "TEXT"
	cfg.NewLogger(&buf).Warn("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Errorf("text output = %s", buf.String())
	}
}
