package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/tgapi/internal/document"
	"github.com/flemzord/tgapi/pkg/botapi"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gopkg.in/yaml.v3"
)

func TestConfigure_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Configure(mustYAMLNode(t, "{}"))
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}

	if cfg.Bind != "127.0.0.1:8089" {
		t.Errorf("Bind = %q, want default", cfg.Bind)
	}
	if cfg.ReadTimeout != 10*time.Second {
		t.Errorf("ReadTimeout = %v, want 10s", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want 10s", cfg.WriteTimeout)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeout)
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Errorf("MaxBodyBytes = %d, want 1 MiB", cfg.MaxBodyBytes)
	}
}

func TestConfigure_ZeroNode(t *testing.T) {
	t.Parallel()

	cfg, err := Configure(&yaml.Node{})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if cfg.Bind != "127.0.0.1:8089" {
		t.Errorf("Bind = %q, want default", cfg.Bind)
	}

	if _, err := Configure(nil); err != nil {
		t.Fatalf("Configure(nil): %v", err)
	}
}

func TestConfigure_Custom(t *testing.T) {
	t.Parallel()

	cfg, err := Configure(mustYAMLNode(t, `
bind: "0.0.0.0:9090"
bearer_token: "my-token"
read_timeout: 5s
max_body_bytes: 2048
rate_limit:
  requests_per_min: 30
check:
  dir: /srv/tgapi/documents
  schedule: "@every 10m"
`))
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}

	if cfg.Bind != "0.0.0.0:9090" {
		t.Errorf("Bind = %q", cfg.Bind)
	}
	if cfg.BearerToken != "my-token" {
		t.Errorf("BearerToken = %q", cfg.BearerToken)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.ReadTimeout)
	}
	if cfg.MaxBodyBytes != 2048 {
		t.Errorf("MaxBodyBytes = %d", cfg.MaxBodyBytes)
	}
	if cfg.RateLimit.RequestsPerMin != 30 {
		t.Errorf("RateLimit.RequestsPerMin = %d", cfg.RateLimit.RequestsPerMin)
	}
	if cfg.Check.Dir != "/srv/tgapi/documents" || cfg.Check.Schedule != "@every 10m" {
		t.Errorf("Check = %+v", cfg.Check)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestConfigure_DecodeError(t *testing.T) {
	t.Parallel()

	if _, err := Configure(mustYAMLNode(t, "read_timeout: [1, 2]")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "defaults", yaml: "{}"},
		{name: "bad bind", yaml: `bind: "not-an-address"`, wantErr: "bind address"},
		{
			name:    "bad check schedule",
			yaml:    "check:\n  dir: docs\n  schedule: every minute",
			wantErr: "check.schedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := Configure(mustYAMLNode(t, tt.yaml))
			if err != nil {
				t.Fatalf("Configure: %v", err)
			}
			err = cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestGateway_StartStop(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, Config{Bind: "127.0.0.1:0"}, document.Defaults{})

	if err := g.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := g.Start(t.Context()); err == nil {
		t.Error("second Start should fail")
	}

	resp := doRequest(t, http.MethodGet, "http://"+g.Addr().String()+"/health", nil)
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("health.Status = %q, want %q", health.Status, "ok")
	}

	if err := g.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestGateway_StartPortInUse(t *testing.T) {
	t.Parallel()

	var lc net.ListenConfig
	ln, err := lc.Listen(t.Context(), "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = ln.Close() }()

	g := newTestGateway(t, Config{Bind: ln.Addr().String()}, document.Defaults{})
	if err := g.Start(t.Context()); err == nil {
		_ = g.Stop(context.Background())
		t.Fatal("Start on a bound port should fail")
	}
}

func TestGateway_DocumentCheck(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "welcome.yaml"), []byte("method: sendMessage\nchat_id: 1\ntext: hi\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Config{Bind: "127.0.0.1:0", Check: CheckConfig{Dir: dir, Schedule: "@hourly"}}
	g := newTestGateway(t, cfg, document.Defaults{})
	if err := g.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = g.Stop(context.Background()) }()

	// The first check runs in the background right after Start.
	deadline := time.Now().Add(5 * time.Second)
	for testutil.ToFloat64(g.Metrics().lastCheck) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("document check did not run")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := testutil.ToFloat64(g.Metrics().documents.WithLabelValues("valid")); got != 1 {
		t.Errorf("documents{valid} = %v, want 1", got)
	}
}

func TestConfigure_CheckScheduleDefault(t *testing.T) {
	t.Parallel()

	cfg, err := Configure(mustYAMLNode(t, "check:\n  dir: docs"))
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if cfg.Check.Schedule == "" {
		t.Error("Check.Schedule should default when Dir is set")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestGateway_StopNilServer(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, Config{}, document.Defaults{})
	if err := g.Stop(context.Background()); err != nil {
		t.Errorf("Stop without Start: %v", err)
	}
	if g.Addr() != nil {
		t.Errorf("Addr before Start = %v, want nil", g.Addr())
	}
}

func TestGateway_MethodsRoute(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, Config{}, document.Defaults{})
	rr := serve(t, g, http.MethodGet, "/v1/methods", nil, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var body map[string][]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body["methods"]) != len(document.Methods()) {
		t.Errorf("methods = %v, want %v", body["methods"], document.Methods())
	}
}

func TestGateway_RequireBearerOnV1(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, Config{BearerToken: "s3cret"}, document.Defaults{})

	if rr := serve(t, g, http.MethodGet, "/v1/methods", nil, nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("without token: status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	auth := http.Header{"Authorization": {"Bearer s3cret"}}
	if rr := serve(t, g, http.MethodGet, "/v1/methods", nil, auth); rr.Code != http.StatusOK {
		t.Errorf("with token: status = %d, want %d", rr.Code, http.StatusOK)
	}

	// Health stays public.
	if rr := serve(t, g, http.MethodGet, "/health", nil, nil); rr.Code != http.StatusOK {
		t.Errorf("health: status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestGateway_RequestRateLimit(t *testing.T) {
	t.Parallel()

	cfg := Config{}
	cfg.RateLimit.RequestsPerMin = 2
	g := newTestGateway(t, cfg, document.Defaults{})

	for i := range 2 {
		if rr := serve(t, g, http.MethodGet, "/v1/methods", nil, nil); rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rr.Code)
		}
	}
	rr := serve(t, g, http.MethodGet, "/v1/methods", nil, nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestGateway_NotFound(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, Config{}, document.Defaults{})
	if rr := serve(t, g, http.MethodGet, "/v1/nope", nil, nil); rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// newTestGateway builds a gateway around cfg with defaults applied and a
// discarded log.
func newTestGateway(t *testing.T, cfg Config, defaults document.Defaults) *Gateway {
	t.Helper()
	cfg.defaults()
	return New(cfg, Options{
		Logger:   testLogger(),
		Defaults: defaults,
	})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// serve runs one request through the gateway router.
func serve(t *testing.T, g *Gateway, method, target string, body []byte, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rr := httptest.NewRecorder()
	g.Handler().ServeHTTP(rr, req)
	return rr
}

// doRequest makes a request with context against a live server.
func doRequest(t *testing.T, method, url string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), method, url, body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// mustYAMLNode parses YAML text into a *yaml.Node for Configure calls.
func mustYAMLNode(t *testing.T, text string) *yaml.Node {
	t.Helper()
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(text), &node); err != nil {
		t.Fatalf("YAML parse: %v", err)
	}
	if len(node.Content) > 0 {
		return node.Content[0]
	}
	return &node
}

// parseModeHTML is shared by render tests that set a default parse mode.
var parseModeHTML = document.Defaults{ParseMode: botapi.Some(botapi.ParseModeHTML)}
