package cmd

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"reposync/pkg/config"
)

// executeCommand runs the root command with args and returns what it wrote
// to stdout and stderr
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetCommandState(t)
	return runCommand(t, stdin, args...)
}

// runCommand is executeCommand without the reset, for tests that prepare
// the keyring, environment or terminal checks themselves
func runCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetCommandState(t *testing.T) {
	t.Helper()
	keyring.MockInit()
	t.Setenv(config.TokenEnvVar, "")

	cfgFile, logLevel, logFormat = "", "", ""
	syncPick, syncNoProgress = false, false
	authLoginWeb, authLoginStdin = false, false
	initForce = false
	daemonMetricsAddr = ""

	stdinIsTerminal = func() bool { return false }
	stderrIsTerminal = func() bool { return false }
}

// writeConfig stores cfg as YAML in a temporary directory
func writeConfig(t *testing.T, cfg map[string]any) string {
	t.Helper()
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

// fakeAPI serves the user and contents endpoints under /api/v3
type fakeAPI struct {
	server *httptest.Server
	token  string
	scopes string

	mu       sync.Mutex
	files    map[string][]byte
	requests int
}

func newFakeAPI(t *testing.T, token string) *fakeAPI {
	api := &fakeAPI{token: token, scopes: "repo, gist", files: map[string][]byte{}}
	api.server = httptest.NewServer(http.HandlerFunc(api.handle))
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeAPI) file(path string) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.files[path]
	return data, ok
}

func (a *fakeAPI) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests
}

func (a *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests++

	w.Header().Set("Content-Type", "application/json")
	if r.Header.Get("Authorization") != "Bearer "+a.token {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
		return
	}

	if r.URL.Path == "/api/v3/user" {
		w.Header().Set("X-OAuth-Scopes", a.scopes)
		_, _ = w.Write([]byte(`{"login":"alice"}`))
		return
	}

	const prefix = "/api/v3/repos/alice/dotfiles/contents/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
		return
	}
	path := strings.TrimPrefix(r.URL.Path, prefix)

	switch r.Method {
	case http.MethodGet:
		data, ok := a.files[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":     "file",
			"encoding": "base64",
			"path":     path,
			"sha":      "sha-" + path,
			"content":  base64.StdEncoding.EncodeToString(data),
		})
	case http.MethodPut:
		var body struct {
			Content string `json:"content"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		data, _ := base64.StdEncoding.DecodeString(body.Content)
		_, existed := a.files[path]
		a.files[path] = data
		if existed {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusCreated)
		}
		_, _ = w.Write([]byte(`{"content":{"sha":"new"},"commit":{"sha":"c0ffee"}}`))
	}
}
