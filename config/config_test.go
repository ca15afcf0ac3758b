package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/nativesvc/logger"
)

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Bridge        bridgeSection `yaml:"bridge" mapstructure:"bridge"`
}

type bridgeSection struct {
	BodyMode  string `mapstructure:"body_mode" validate:"oneof=buffered streamed"`
	KeepAlive bool   `mapstructure:"keep_alive"`
}

func (c *testConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Bridge.BodyMode == "" {
		c.Bridge.BodyMode = "buffered"
	}
}

func (c *testConfig) Validate() error {
	return c.ServiceConfig.Validate()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestServiceConfigDefaults(t *testing.T) {
	tests := []struct {
		name      string
		cfg       ServiceConfig
		wantDebug bool
		wantLevel string
	}{
		{"empty environment defaults to development", ServiceConfig{Name: "svc"}, true, "debug"},
		{"production keeps debug off", ServiceConfig{Name: "svc", Environment: "production"}, false, "info"},
		{"explicit level wins", ServiceConfig{Name: "svc", Logging: loggerLevel("warn")}, true, "warn"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.ApplyDefaults()
			if tc.cfg.Debug != tc.wantDebug {
				t.Errorf("expected debug=%v, got %v", tc.wantDebug, tc.cfg.Debug)
			}
			if tc.cfg.Logging.Level != tc.wantLevel {
				t.Errorf("expected level %q, got %q", tc.wantLevel, tc.cfg.Logging.Level)
			}
		})
	}
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ServiceConfig
		errMsg string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "name: is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, "environment: must be one of"},
		{"invalid log level", ServiceConfig{Name: "svc", Environment: "production", Logging: loggerLevel("loud")}, "config.logging"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: nativesvc
environment: staging
bridge:
  body_mode: streamed
  keep_alive: true
`)

	var cfg testConfig
	if err := LoadConfig("nativesvc", &cfg, WithConfigFile(path), WithEnvFile(filepath.Join(dir, "none.env"))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "nativesvc" || cfg.Environment != "staging" {
		t.Errorf("unexpected service section %+v", cfg.ServiceConfig)
	}
	if cfg.Bridge.BodyMode != "streamed" || !cfg.Bridge.KeepAlive {
		t.Errorf("unexpected bridge section %+v", cfg.Bridge)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "name: nativesvc\nbridge:\n  body_mode: streamed\n")
	t.Setenv("BRIDGE_BODY_MODE", "buffered")

	var cfg testConfig
	if err := LoadConfig("nativesvc", &cfg, WithConfigFile(path)); err != nil {
		t.Fatal(err)
	}
	if cfg.Bridge.BodyMode != "buffered" {
		t.Errorf("expected env override, got %q", cfg.Bridge.BodyMode)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yml", "name: nativesvc\n")
	envPath := writeFile(t, dir, ".env", "BRIDGE_KEEP_ALIVE=true\n")
	t.Cleanup(func() { _ = os.Unsetenv("BRIDGE_KEEP_ALIVE") })

	var cfg testConfig
	if err := LoadConfig("nativesvc", &cfg, WithConfigFile(cfgPath), WithEnvFile(envPath)); err != nil {
		t.Fatal(err)
	}
	if !cfg.Bridge.KeepAlive {
		t.Error("expected keep_alive from .env")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	if err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml")); err != nil {
		t.Fatalf("expected missing file to be skipped, got %v", err)
	}
}

func TestLoadConfigBrokenFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", "name: [unclosed\n")
	var cfg testConfig
	if err := LoadConfig("nativesvc", &cfg, WithConfigFile(path)); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	good := writeFile(t, dir, "good.yml", "name: nativesvc\nenvironment: production\n")
	cfg, err := Load[testConfig]("nativesvc", WithConfigFile(good))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Bridge.BodyMode != "buffered" {
		t.Errorf("expected defaults applied, got %q", cfg.Bridge.BodyMode)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected info level in production, got %q", cfg.Logging.Level)
	}

	bad := writeFile(t, dir, "bad.yml", "environment: production\n")
	if _, err := Load[testConfig]("nativesvc", WithConfigFile(bad)); err == nil {
		t.Error("expected validation error for missing name")
	}
}

func TestResolverWithMockFS(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]bool
		wantCfg string
		wantEnv string
	}{
		{"cmd dir", map[string]bool{"./cmd/nativesvc/config.yml": true, "./cmd/nativesvc/.env": true}, "./cmd/nativesvc/config.yml", "./cmd/nativesvc/.env"},
		{"short name", map[string]bool{"./cmd/svc/config.yml": true}, "./cmd/svc/config.yml", ""},
		{"root", map[string]bool{"./config.yml": true, ".env": true}, "./config.yml", ".env"},
		{"nothing", map[string]bool{}, "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resolver := &Resolver{FileSystem: &mockFS{files: tc.files}}
			service := "nativesvc"
			if tc.name == "short name" {
				service = "native-svc"
			}
			files := resolver.ResolveFiles(service, LoaderConfig{})
			if files.ConfigFile != tc.wantCfg {
				t.Errorf("expected config %q, got %q", tc.wantCfg, files.ConfigFile)
			}
			if files.EnvFile != tc.wantEnv {
				t.Errorf("expected env %q, got %q", tc.wantEnv, files.EnvFile)
			}
		})
	}
}

func TestGenerateEnvKeyVariants(t *testing.T) {
	variants := generateEnvKeyVariants("CONNECTION_CLIENT_KEEP_ALIVE")
	for _, want := range []string{"connection.client.keep_alive", "connection_client_keep_alive", "connection.client.keep.alive"} {
		found := false
		for _, v := range variants {
			if v == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected %q in %v", want, variants)
		}
	}
	if got := generateEnvKeyVariants("DEBUG"); len(got) != 1 || got[0] != "debug" {
		t.Errorf("expected [debug], got %v", got)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(string) error    { return nil }
func (m *mockFS) Getwd() (string, error)  { return "/mock", nil }

func loggerLevel(level string) logger.Config {
	return logger.Config{Level: level}
}
