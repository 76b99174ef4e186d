package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fastEngineConfig = `vectordb:
  base_latency_ms: 1
  latency_variance_ms: 0
  index_size: 50
  seed: 7
log:
  level: warn
  format: json
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(fastEngineConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func executeRun(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"run", "-c", writeConfig(t)}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRunCmd_Flags(t *testing.T) {
	cmd := NewRunCmd()

	tests := []struct {
		flagName string
		defValue string
	}{
		{"profile", ""},
		{"format", "json"},
		{"metrics-addr", ""},
		{"requests", "0"},
		{"concurrency", "0"},
		{"rate", "0"},
		{"top-k", "0"},
		{"timeout", "0s"},
	}
	for _, tt := range tests {
		flag := cmd.Flags().Lookup(tt.flagName)
		if flag == nil {
			t.Errorf("--%s flag not found", tt.flagName)
			continue
		}
		if flag.DefValue != tt.defValue {
			t.Errorf("--%s default = %q, want %q", tt.flagName, flag.DefValue, tt.defValue)
		}
	}
}

func TestRunCmd_JSONReport(t *testing.T) {
	out, _, err := executeRun(t, "--profile", "baseline", "--requests", "6", "--concurrency", "2")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var report struct {
		Profile  string         `json:"profile"`
		Requests int            `json:"requests"`
		Outcomes map[string]int `json:"outcomes"`
		Engine   struct {
			TotalRequests int64 `json:"total_requests"`
		} `json:"engine"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}

	if report.Profile != "baseline" || report.Requests != 6 {
		t.Errorf("report = %+v", report)
	}
	total := 0
	for _, n := range report.Outcomes {
		total += n
	}
	if total != 6 {
		t.Errorf("outcomes sum to %d, want 6: %v", total, report.Outcomes)
	}
	if report.Engine.TotalRequests != 6 {
		t.Errorf("engine total_requests = %d, want 6", report.Engine.TotalRequests)
	}
}

func TestRunCmd_YAMLReport(t *testing.T) {
	out, _, err := executeRun(t, "--profile", "chaos", "--requests", "4", "--format", "yaml")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, want := range []string{"profile: chaos", "requests: 4", "engine:"} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCmd_MetricsServer(t *testing.T) {
	_, logs, err := executeRun(t, "--profile", "baseline", "--requests", "2",
		"--metrics-addr", "127.0.0.1:0", "--log-level", "info")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(logs, "serving metrics") {
		t.Errorf("expected the metrics address to be logged:\n%s", logs)
	}
}

func TestRunCmd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown profile", []string{"--profile", "soak"}, "unknown scenario profile"},
		{"bad format", []string{"--format", "xml"}, "invalid format"},
		{"positional args", []string{"baseline"}, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeRun(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestRunCmd_MissingConfig(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "-c", filepath.Join(t.TempDir(), "missing.yaml")})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Errorf("expected a config load error, got %v", err)
	}
}

func TestRunCmd_TimeoutPrintsPartialReport(t *testing.T) {
	out, _, err := executeRun(t, "--profile", "recovery", "--timeout", "50ms")
	if err == nil || !strings.Contains(err.Error(), "stopped after") {
		t.Fatalf("expected an interrupted run, got %v", err)
	}

	var report struct {
		Profile  string `json:"profile"`
		Requests int    `json:"requests"`
	}
	if jsonErr := json.Unmarshal([]byte(out), &report); jsonErr != nil {
		t.Fatalf("partial report is not JSON: %v\n%s", jsonErr, out)
	}
	if report.Profile != "recovery" || report.Requests >= 200 {
		t.Errorf("report = %+v, want fewer than 200 dispatched", report)
	}
}
