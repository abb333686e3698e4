package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/tracecheck/pkg/predicate"
	"github.com/ccollicutt/tracecheck/pkg/validator"
	"github.com/ccollicutt/tracecheck/pkg/window"
)

const validConfig = `
trace_file: ./dump.txt
host: pubads.g.doubleclick.net
utc_offset: "-05:00"
poll_interval: 500ms
watch: true
cases:
  - name: ad-request
    description: Home page banner request
    uri_contains:
      - 'iu=/123(&|$)'
    params:
      - {name: sz, non_blank: true}
      - {name: pos, one_of: [top, bottom]}
    uri_not_contains: ['debug=1']
    body_json:
      - {path: "$.ad.id", pattern: '^\d+$'}
    path_expr: 'len(value) > 0'
    from_offset: 5s
    to_offset: 30s
    verbose: true
`

func TestLoad_ValidConfig(t *testing.T) {
	path := writeTempFile(t, "config.yaml", validConfig)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Host != "pubads.g.doubleclick.net" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, want 500ms", cfg.PollInterval)
	}
	if !cfg.Watch {
		t.Error("Watch = false, want true")
	}
	if _, off := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).In(cfg.Location()).Zone(); off != -5*3600 {
		t.Errorf("Location offset = %d, want -18000", off)
	}
	if len(cfg.Cases) != 1 {
		t.Fatalf("Cases = %d, want 1", len(cfg.Cases))
	}

	c := cfg.Cases[0]
	if got := len(c.ParamPatterns()); got != 2 {
		t.Errorf("ParamPatterns() = %d, want 2", got)
	}
}

func TestCaseConfig_Request(t *testing.T) {
	path := writeTempFile(t, "config.yaml", validConfig)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	c, ok := cfg.Case("ad-request")
	if !ok {
		t.Fatal("Case() did not find ad-request")
	}
	req := c.Request()

	if len(req.URIContains) != 3 {
		t.Errorf("URIContains = %v, want 3 entries", req.URIContains)
	}
	if req.From.String() != "5s" || req.To.String() != "30s" {
		t.Errorf("window = %s..%s, want 5s..30s", req.From, req.To)
	}
	if !req.Verbose {
		t.Error("Verbose = false, want true")
	}

	checks := req.AllChecks()
	wantNames := []string{"uri_contains", "uri_not_contains", "body_json[0]", "path_expr"}
	if len(checks) != len(wantNames) {
		t.Fatalf("AllChecks() = %d, want %d", len(checks), len(wantNames))
	}
	for i, name := range wantNames {
		if checks[i].Name != name {
			t.Errorf("checks[%d].Name = %q, want %q", i, checks[i].Name, name)
		}
	}
	if checks[2].Rule.Kind != predicate.KindJSONPath || checks[2].Field != validator.FieldBody {
		t.Errorf("checks[2] = %+v, want body json_path", checks[2])
	}
}

func TestCaseConfig_AbsoluteBounds(t *testing.T) {
	cfg := &Config{
		TraceFile: "dump.txt",
		Host:      "h",
		TimeZone:  "UTC",
		Cases: []CaseConfig{{
			Name:        "replay",
			URIContains: []string{"a=1"},
			From:        "2024-01-01 11:59:55",
			To:          "2024-01-01 12:00:05",
		}},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	req := cfg.Cases[0].Request()
	if req.From.String() != "2024-01-01 11:59:55" || req.To.String() != "2024-01-01 12:00:05" {
		t.Errorf("window = %s..%s", req.From, req.To)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	content := `invalid: yaml: content: [`
	path := writeTempFile(t, "invalid.yaml", content)
	_, err := Load(context.Background(), path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvTraceFile, "/tmp/other.txt")
	t.Setenv(EnvHost, "other.example")
	t.Setenv(EnvTimeZone, "UTC")

	content := `
host: ads.example
time_zone: EST
cases:
  - {name: a, uri_contains: [x], from_offset: 1s, to_offset: 1s}
`
	path := writeTempFile(t, "config.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TraceFile != "/tmp/other.txt" {
		t.Errorf("TraceFile = %q, want /tmp/other.txt", cfg.TraceFile)
	}
	if cfg.Host != "other.example" {
		t.Errorf("Host = %q, want other.example", cfg.Host)
	}
	if cfg.TimeZone != "UTC" {
		t.Errorf("TimeZone = %q, want UTC", cfg.TimeZone)
	}
}

func TestValidate_Errors(t *testing.T) {
	okCase := CaseConfig{Name: "a", URIContains: []string{"x"}, FromOffset: durationPtr(time.Second), ToOffset: durationPtr(time.Second)}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing trace file", func(c *Config) { c.TraceFile = "" }, "trace_file"},
		{"missing host", func(c *Config) { c.Host = "" }, "host"},
		{"bad time zone", func(c *Config) { c.TimeZone = "Nowhere/Special" }, "time_zone"},
		{"bad utc offset", func(c *Config) { c.UTCOffset = "five" }, "time_zone"},
		{"negative poll interval", func(c *Config) { c.PollInterval = -time.Second }, "poll_interval"},
		{"negative pass rate", func(c *Config) { c.MaxPassRate = -1 }, "max_pass_rate"},
		{"no cases", func(c *Config) { c.Cases = nil }, "at least one case"},
		{"unnamed case", func(c *Config) { c.Cases[0].Name = "" }, "name is required"},
		{"duplicate case", func(c *Config) { c.Cases = append(c.Cases, okCase) }, "duplicate name"},
		{"no criteria", func(c *Config) { c.Cases[0].URIContains = nil }, "at least one criterion"},
		{"invalid pattern", func(c *Config) { c.Cases[0].URIContains = []string{"("} }, "uri_contains"},
		{"invalid expr", func(c *Config) { c.Cases[0].BodyExpr = "len(value)" }, "body_expr"},
		{"missing from", func(c *Config) { c.Cases[0].FromOffset = nil }, "from_offset or from"},
		{"both to forms", func(c *Config) { c.Cases[0].To = "2024-01-01 12:00:00" }, "only one of to_offset and to"},
		{"bad absolute from", func(c *Config) { c.Cases[0].FromOffset = nil; c.Cases[0].From = "noon" }, "invalid timestamp"},
		{"param without intent", func(c *Config) { c.Cases[0].Params = []ParamConfig{{Name: "sz"}} }, "params[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				TraceFile: "dump.txt",
				Host:      "h",
				Cases:     []CaseConfig{okCase},
			}
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ZeroOffsetMeansNow(t *testing.T) {
	path := writeTempFile(t, "config.yaml", `
trace_file: ./dump.txt
host: h
cases:
  - name: starts-now
    uri_contains: ['x']
    from_offset: 0s
    to_offset: 30s
`)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	c := cfg.Cases[0]
	if c.FromOffset == nil || *c.FromOffset != 0 {
		t.Fatalf("FromOffset = %v, want explicit 0", c.FromOffset)
	}
	req := c.Request()
	if got, want := req.From.String(), window.Offset(0).String(); got != want {
		t.Errorf("Request().From = %v, want %v", got, want)
	}
}

func durationPtr(d time.Duration) *time.Duration {
	return &d
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TraceFile != DefaultTraceFile {
		t.Errorf("TraceFile = %q, want %q", cfg.TraceFile, DefaultTraceFile)
	}
	if cfg.TimeZone != DefaultTimeZone {
		t.Errorf("TimeZone = %q, want %q", cfg.TimeZone, DefaultTimeZone)
	}
	if cfg.PollInterval != validator.DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, validator.DefaultPollInterval)
	}
	if cfg.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC before validation", cfg.Location())
	}
}

func TestConfig_ValidatorConfig(t *testing.T) {
	path := writeTempFile(t, "config.yaml", validConfig)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	vc := cfg.ValidatorConfig()
	if vc.TraceFile != "./dump.txt" || vc.Host != cfg.Host || !vc.Watch {
		t.Errorf("ValidatorConfig() = %+v", vc)
	}
	if vc.Location != cfg.Location() {
		t.Errorf("Location = %v, want %v", vc.Location, cfg.Location())
	}

	if _, err := validator.New(vc); err != nil {
		t.Errorf("validator.New() error = %v", err)
	}
}

func TestValidate_Webhooks(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_TOKEN", "secret-value")

	tests := []struct {
		name        string
		webhook     WebhookConfig
		wantErr     bool
		wantTrigger WebhookTrigger
	}{
		{"valid https", WebhookConfig{URL: "https://hooks.example.com/x", Trigger: WebhookTriggerAlways}, false, WebhookTriggerAlways},
		{"valid http", WebhookConfig{URL: "http://localhost:8080/hook"}, false, WebhookTriggerOnFailure},
		{"never", WebhookConfig{URL: "https://h.example/x", Trigger: WebhookTriggerNever}, false, WebhookTriggerNever},
		{"missing url", WebhookConfig{}, true, ""},
		{"bad scheme", WebhookConfig{URL: "ftp://h.example/x"}, true, ""},
		{"no host", WebhookConfig{URL: "https:///x"}, true, ""},
		{"bad trigger", WebhookConfig{URL: "https://h.example/x", Trigger: "sometimes"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wh := tt.webhook
			wh.Token = "${TEST_WEBHOOK_TOKEN}"
			err := validateWebhook(&wh)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateWebhook() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if wh.Trigger != tt.wantTrigger {
				t.Errorf("Trigger = %q, want %q", wh.Trigger, tt.wantTrigger)
			}
			if wh.Timeout != DefaultWebhookTimeout {
				t.Errorf("Timeout = %v, want %v", wh.Timeout, DefaultWebhookTimeout)
			}
			if wh.Token != "secret-value" {
				t.Errorf("Token = %q, want expanded value", wh.Token)
			}
		})
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("TEST_VAR", "secret-value")

	tests := []struct {
		input string
		want  string
	}{
		{"${TEST_VAR}", "secret-value"},
		{"$TEST_VAR", "secret-value"},
		{"literal-token", "literal-token"},
		{"", ""},
		{"${NONEXISTENT_VAR}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := expandEnvVar(tt.input); got != tt.want {
				t.Errorf("expandEnvVar(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}
