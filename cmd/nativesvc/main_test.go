package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/nativesvc/connection"
	"github.com/kbukum/nativesvc/logger"
	"github.com/kbukum/nativesvc/server"
	"github.com/kbukum/nativesvc/version"
)

// execute runs the command tree with args and returns what it wrote.
func execute(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	rootCmd := newRootCmd(&stdout, &stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := server.New(server.Config{}, logger.Nop())
	s.ApplyDefaults("nativesvc-test", nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	content := "name: nativesvc-test\nenvironment: production\nlogging:\n  level: disabled\n" + extra
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
		wantOut string
	}{
		{"no args", nil, "", "Available Commands:"},
		{"help", []string{"help"}, "", "request"},
		{"request help", []string{"request", "--help"}, "", "--header"},
		{"unknown", []string{"fetch"}, `unknown command "fetch"`, ""},
		{"version short", []string{"version", "--short"}, "", version.GetVersion()},
		{"version flag", []string{"--version"}, "", version.GetShortVersion()},
		{"version extra arg", []string{"version", "now"}, "unknown command", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stdout, _, err := execute(tc.args...)
			if tc.wantErr == "" && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tc.wantErr)) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
			if !strings.Contains(stdout, tc.wantOut) {
				t.Errorf("expected output containing %q, got %q", tc.wantOut, stdout)
			}
		})
	}
}

func TestParseHeaders(t *testing.T) {
	got, err := parseHeaders([]string{"Accept: application/json", "X-Tag:a", "X-Tag: b "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []connection.HeaderPair{
		{Name: "Accept", Value: "application/json"},
		{Name: "X-Tag", Value: "a"},
		{Name: "X-Tag", Value: "b"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d pairs, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pair %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	if _, err := parseHeaders([]string{"no-colon"}); err == nil {
		t.Error("expected error for header without colon")
	}
}

func TestApplyAddr(t *testing.T) {
	tests := []struct {
		addr     string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"127.0.0.1:9090", "127.0.0.1", 9090, false},
		{":0", "", 0, false},
		{"localhost", "", 0, true},
		{"host:http", "", 0, true},
		{"host:70000", "", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.addr, func(t *testing.T) {
			var cfg server.Config
			err := applyAddr(&cfg, tc.addr)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Host != tc.wantHost || cfg.Port != tc.wantPort {
				t.Errorf("expected %s:%d, got %s:%d", tc.wantHost, tc.wantPort, cfg.Host, cfg.Port)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, "connection:\n  body_mode: streamed\n"))
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Connection.BodyMode != connection.BodyModeStreamed {
		t.Errorf("expected streamed, got %q", cfg.Connection.BodyMode)
	}
	if cfg.Connection.Headers["User-Agent"] != version.UserAgent() {
		t.Errorf("expected default user agent, got %q", cfg.Connection.Headers["User-Agent"])
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Observability.Environment != "production" {
		t.Errorf("expected observability environment from service, got %q", cfg.Observability.Environment)
	}

	if _, err := loadConfig(writeConfig(t, "observability:\n  sample_rate: 2\n")); err == nil {
		t.Error("expected validation error for sample_rate")
	}
	if _, err := loadConfig(writeConfig(t, "connection:\n  body_mode: chunked\n")); err == nil {
		t.Error("expected validation error for body_mode")
	}
}

func TestRequestCommand(t *testing.T) {
	ts := newEchoServer(t)
	cfgPath := writeConfig(t, "")

	tests := []struct {
		name   string
		args   []string
		method string
		data   string
	}{
		{"get", []string{"-X", "GET"}, "GET", ""},
		{"post body", []string{"-X", "post", "-H", "Content-Type: text/plain", "-d", "hello"}, "POST", "hello"},
		{"header value with comma", []string{"--request", "POST", "--header", "X-List: a, b", "--data", "x"}, "POST", "x"},
		{"streamed put", []string{"-X", "PUT", "--stream", "-d", "streamed body"}, "PUT", "streamed body"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := "/" + strings.ToLower(tc.method)
			args := append([]string{"request", "--config", cfgPath}, tc.args...)
			args = append(args, ts.URL+path)
			stdout, _, err := execute(args...)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}

			var echo server.EchoResponse
			if err := json.Unmarshal([]byte(stdout), &echo); err != nil {
				t.Fatalf("decode echo: %v (%q)", err, stdout)
			}
			if echo.Method != tc.method {
				t.Errorf("expected method %s, got %s", tc.method, echo.Method)
			}
			if echo.Data != tc.data {
				t.Errorf("expected data %q, got %q", tc.data, echo.Data)
			}
			if echo.Headers["User-Agent"] != version.UserAgent() {
				t.Errorf("expected user agent %q, got %q", version.UserAgent(), echo.Headers["User-Agent"])
			}
		})
	}
}

func TestRequestCommandIncludeAndErrors(t *testing.T) {
	ts := newEchoServer(t)
	cfgPath := writeConfig(t, "")

	stdout, _, err := execute("request", "--config", cfgPath, "-i", ts.URL+"/status/404")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
	if !strings.HasPrefix(stdout, "HTTP/1.1 404 Not Found\n") {
		t.Errorf("expected status line, got %q", stdout)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing url", []string{}, "accepts 1 arg(s), received 0"},
		{"two urls", []string{ts.URL, ts.URL}, "accepts 1 arg(s), received 2"},
		{"unknown method", []string{"-X", "BREW", ts.URL}, "unknown method"},
		{"unsupported method", []string{"-X", "PURGE", ts.URL}, "unsupported"},
		{"bad header", []string{"-H", "nope", ts.URL}, "not 'Name: value'"},
		{"missing body file", []string{"-d", "@/nonexistent/body", ts.URL}, "read body file"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"request", "--config", cfgPath}, tc.args...)
			_, _, err := execute(args...)
			if err == nil || !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tc.wantErr)) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
