package main

// Notes:
// - Tests go through runDoctorCmd() and inspect its JSON or text report.
// - The redis check is only exercised for the unreachable case; a live
//   redis is not available in unit tests.

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

// writeDoctorConfig points the output directory at a temp dir so the
// writability check never touches the package directory.
func writeDoctorConfig(t *testing.T, s *testSetup) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doctor.yaml")
	writeFile(t, path, "app:\n  id: cli_test\n  secret: s3cr3t\napi:\n  baseURL: "+s.server.URL+
		"\noutput:\n  dir: "+t.TempDir()+"\n")
	return path
}

func runDoctorJSON(t *testing.T, s *testSetup, args ...string) (*doctorResult, int) {
	t.Helper()
	code := runDoctorCmd(t.Context(), append([]string{"--json"}, args...), s.env)

	var result doctorResult
	if err := json.Unmarshal(s.stdout.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, s.stdout.String())
	}
	return &result, code
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd - Diagnostics
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_Ready(t *testing.T) {
	t.Parallel()

	s := newTestSetup(t)
	result, code := runDoctorJSON(t, s, "--config", writeDoctorConfig(t, s))

	if code != ExitSuccess {
		t.Errorf("exit code = %d, errors: %v", code, result.Errors)
	}
	if !result.Config.Valid || !result.Credentials.TokenIssued || !result.Output.Writable {
		t.Errorf("result = %+v", result)
	}
	if result.TokenCache.Backend != "memory" {
		t.Errorf("backend = %q", result.TokenCache.Backend)
	}
	if result.Env.OS == "" || result.Env.Go == "" {
		t.Error("environment section should be filled")
	}
}

func TestRunDoctorCmd_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		config    func(t *testing.T, s *testSetup) string
		wantError string
	}{
		{
			name:      "missing credentials",
			config:    func(t *testing.T, s *testSetup) string { return writeTestConfig(t, s.server.URL, "", "") },
			wantError: "app credentials missing",
		},
		{
			name:      "rejected credentials",
			config:    func(t *testing.T, s *testSetup) string { return writeTestConfig(t, s.server.URL, testAppID, "nope") },
			wantError: "credentials rejected",
		},
		{
			name:      "missing config",
			config:    func(t *testing.T, _ *testSetup) string { return filepath.Join(t.TempDir(), "absent.yaml") },
			wantError: "config file not found",
		},
		{
			name: "unreachable redis",
			config: func(t *testing.T, s *testSetup) string {
				path := filepath.Join(t.TempDir(), "redis.yaml")
				writeFile(t, path, "app:\n  id: cli_test\n  secret: s3cr3t\napi:\n  baseURL: "+s.server.URL+
					"\ntokenCache:\n  backend: redis\n  redisAddr: 127.0.0.1:1\n")
				return path
			},
			wantError: "redis not reachable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestSetup(t)
			result, code := runDoctorJSON(t, s, "--config", tt.config(t, s))

			if code != ExitGeneral || result.Status != "errors" {
				t.Errorf("code = %d, status = %q", code, result.Status)
			}
			if !strings.Contains(strings.Join(result.Errors, "\n"), tt.wantError) {
				t.Errorf("errors %v should mention %q", result.Errors, tt.wantError)
			}
		})
	}
}

func TestRunDoctorCmd_TextOutput(t *testing.T) {
	t.Parallel()

	s := newTestSetup(t)
	code := runDoctorCmd(t.Context(), []string{"--config", writeDoctorConfig(t, s)}, s.env)

	out := s.stdout.String()
	for _, want := range []string{"lark2html doctor", "Configuration", "[OK] Tenant token issued", "Token cache", "Status: "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if code != ExitSuccess {
		t.Errorf("exit code = %d\n%s", code, out)
	}
}

func TestRunDoctorCmd_VerboseMasksSecret(t *testing.T) {
	t.Parallel()

	s := newTestSetup(t)
	runDoctorCmd(t.Context(), []string{"--config", writeDoctorConfig(t, s), "-v"}, s.env)

	out := s.stdout.String()
	if !strings.Contains(out, "Effective configuration") {
		t.Errorf("verbose output should show the configuration\n%s", out)
	}
	if strings.Contains(out, testSecret) {
		t.Error("the app secret must be masked")
	}
}

func TestRunDoctorCmd_BadFlag(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr}
	if code := runDoctorCmd(t.Context(), []string{"--bogus"}, env); code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
}

// ---------------------------------------------------------------------------
// TestPrintDoctorResult - Status lines
// ---------------------------------------------------------------------------

func TestPrintDoctorResult_Status(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status string
		want   string
	}{
		{"ready", "Status: Ready to extract"},
		{"warnings", "Status: Ready with warnings"},
		{"errors", "Status: Not ready (see errors above)"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			printDoctorResult(&buf, &doctorResult{
				Status:   tt.status,
				Warnings: []string{"w1"},
				Errors:   []string{"e1"},
			})
			out := buf.String()
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q\n%s", tt.want, out)
			}
			if !strings.Contains(out, "[WARN] w1") || !strings.Contains(out, "[ERROR] e1") {
				t.Errorf("warnings and errors should be listed\n%s", out)
			}
		})
	}
}
