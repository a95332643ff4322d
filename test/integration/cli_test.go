package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func getProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "../.."
	}
	// Walk up until we find go.mod
	for dir != "/" {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		dir = filepath.Dir(dir)
	}
	return "../.."
}

func getBinaryPath(t *testing.T) string {
	// Use pre-built binary from CI or build locally
	binaryPath := os.Getenv("REPOSYNC_BINARY")
	if binaryPath == "" {
		buildCmd := exec.Command("go", "build", "-o", "reposync-test", "./cmd/reposync")
		buildCmd.Dir = getProjectRoot()
		var buildOut bytes.Buffer
		buildCmd.Stdout = &buildOut
		buildCmd.Stderr = &buildOut
		if err := buildCmd.Run(); err != nil {
			t.Fatalf("Failed to build binary: %v\nOutput: %s", err, buildOut.String())
		}
		binaryPath = filepath.Join(getProjectRoot(), "reposync-test")

		t.Cleanup(func() {
			if err := os.Remove(binaryPath); err != nil {
				t.Logf("Failed to remove test binary: %v", err)
			}
		})
	} else if !filepath.IsAbs(binaryPath) {
		binaryPath = filepath.Join(getProjectRoot(), binaryPath)
	}

	return binaryPath
}

func TestCLIIntegration(t *testing.T) {
	binaryPath := getBinaryPath(t)

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "no arguments (shows help)",
			args:     []string{},
			expected: "reposync",
		},
		{
			name:     "help command",
			args:     []string{"--help"},
			expected: "reposync",
		},
		{
			name:     "upload help",
			args:     []string{"upload", "--help"},
			expected: "--pick",
		},
		{
			name:     "auth login help",
			args:     []string{"auth", "login", "--help"},
			expected: "--with-token",
		},
		{
			name:     "daemon help",
			args:     []string{"daemon", "--help"},
			expected: "--metrics-addr",
		},
		{
			name:     "init help",
			args:     []string{"init", "--help"},
			expected: "init",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(binaryPath, tt.args...)
			var out bytes.Buffer
			cmd.Stdout = &out
			cmd.Stderr = &out

			if err := cmd.Run(); err != nil {
				t.Fatalf("Command failed: %v\nOutput: %s", err, out.String())
			}

			if !strings.Contains(out.String(), tt.expected) {
				t.Errorf("Expected output to contain '%s', got: %s", tt.expected, out.String())
			}
		})
	}
}

func TestCLIUploadWithoutConfiguration(t *testing.T) {
	binaryPath := getBinaryPath(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("sync_paths: notes.txt\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(binaryPath, "upload", "--config", configPath)
	cmd.Env = append(os.Environ(), "GITHUB_TOKEN=")
	output, err := cmd.CombinedOutput()

	exitErr, ok := err.(*exec.ExitError)
	if !ok || exitErr.ExitCode() != 1 {
		t.Fatalf("Expected exit code 1, got %v\nOutput: %s", err, output)
	}
	if !strings.Contains(string(output), "configuration error") {
		t.Errorf("Expected a configuration error, got: %s", output)
	}
}
