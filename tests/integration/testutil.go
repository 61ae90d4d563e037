// Package integration provides CLI integration tests for accountdesk.
package integration

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	// accountdeskBin is the path to the built accountdesk binary.
	accountdeskBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the project root by walking up and looking for go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// TestEnv provides an isolated test environment with its own config and data directory.
type TestEnv struct {
	t       *testing.T
	TempDir string
	Config  string
	DataDir string
}

// NewTestEnv creates a new isolated test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build accountdesk: %v", buildErr)
	}
	if accountdeskBin == "" {
		t.Fatal("accountdesk binary not built")
	}

	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	configDir := filepath.Join(tempDir, "config")

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	configContent := "backend: sqlite\ndata_dir: " + dataDir + "\nlog_level: error\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return &TestEnv{
		t:       t,
		TempDir: tempDir,
		Config:  configDir,
		DataDir: dataDir,
	}
}

// CmdResult holds the result of an accountdesk command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Command returns an unstarted accountdesk command bound to this environment.
func (e *TestEnv) Command(args ...string) *exec.Cmd {
	allArgs := append([]string{"--config-dir", e.Config, "--data-dir", e.DataDir}, args...)
	return exec.Command(accountdeskBin, allArgs...)
}

// Run executes the accountdesk CLI with the given arguments.
func (e *TestEnv) Run(args ...string) CmdResult {
	e.t.Helper()

	cmd := e.Command(args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			e.t.Fatalf("failed to run accountdesk: %v", err)
		}
	}

	return CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// MustRun executes the accountdesk CLI and fails the test if it returns non-zero.
func (e *TestEnv) MustRun(args ...string) CmdResult {
	e.t.Helper()
	result := e.Run(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("accountdesk %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// SourceFile returns the path of accounts.jsonl.
func (e *TestEnv) SourceFile() string {
	return filepath.Join(e.DataDir, "accounts.jsonl")
}

// WriteSource replaces accounts.jsonl with one JSON line per record.
func (e *TestEnv) WriteSource(records ...Record) {
	e.t.Helper()
	if err := os.MkdirAll(e.DataDir, 0o755); err != nil {
		e.t.Fatalf("failed to create data dir: %v", err)
	}
	var buf bytes.Buffer
	for _, r := range records {
		line, err := json.Marshal(r)
		if err != nil {
			e.t.Fatalf("failed to marshal record: %v", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(e.SourceFile(), buf.Bytes(), 0o644); err != nil {
		e.t.Fatalf("failed to write %s: %v", e.SourceFile(), err)
	}
}

// Record is one line of accounts.jsonl.
type Record struct {
	AccountID     string  `json:"account_id"`
	Name          string  `json:"name"`
	OwnerID       *string `json:"owner_id,omitempty"`
	OwnerName     *string `json:"owner_name,omitempty"`
	Phone         *string `json:"phone"`
	Website       *string `json:"website"`
	AnnualRevenue *string `json:"annual_revenue"`
}

// Account is the JSON shape printed by list --json.
type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"owner"`
	Phone         *string `json:"phone"`
	Website       *string `json:"website"`
	AnnualRevenue *string `json:"annualRevenue"`
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, jsonStr string) T {
	t.Helper()
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", jsonStr, err)
	}
	return result
}

// ReadJSONLFile reads a JSONL file (one JSON object per line) and returns a slice.
func ReadJSONLFile[T any](t *testing.T, path string) []T {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open JSONL file %s: %v", path, err)
	}
	defer f.Close()

	var results []T
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			t.Fatalf("failed to parse JSONL line in %s: %v", path, err)
		}
		results = append(results, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("failed to scan JSONL file %s: %v", path, err)
	}
	return results
}

// FreeAddr returns a loopback address with a port that was free when checked.
func FreeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve a port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func strPtr(s string) *string { return &s }
