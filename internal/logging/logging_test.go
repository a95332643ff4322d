package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() { Replace(nil) })

	tests := []struct {
		name        string
		cfg         Config
		expectError string
	}{
		{name: "defaults", cfg: Config{}},
		{name: "json debug", cfg: Config{Level: "debug", Format: "json"}},
		{name: "bad level", cfg: Config{Level: "loud"}, expectError: "invalid log level"},
		{name: "bad format", cfg: Config{Format: "xml"}, expectError: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Init(tt.cfg)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, L())
		})
	}
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { Replace(nil) })
	require.NoError(t, Init(Config{Level: "info"}))

	require.NoError(t, SetLevel("error"))
	assert.False(t, L().Core().Enabled(zapcore.WarnLevel))

	require.NoError(t, SetLevel("debug"))
	assert.True(t, L().Core().Enabled(zapcore.DebugLevel))

	assert.Error(t, SetLevel("nope"))
}

func TestL_BeforeInit(t *testing.T) {
	Replace(nil)
	assert.NotPanics(t, func() { L().Info("dropped") })
	assert.NoError(t, Sync())
}

func TestWithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Replace(zap.New(core))
	t.Cleanup(func() { Replace(nil) })

	ctx := WithFields(context.Background(), zap.String("pass_id", "p-1"))
	WithContext(ctx).Info("hello")
	WithContext(context.Background()).Info("plain")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "p-1", entries[0].ContextMap()["pass_id"])
	assert.NotContains(t, entries[1].ContextMap(), "pass_id")
}

func TestMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Replace(zap.New(core))
	t.Cleanup(func() { Replace(nil) })

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, int64(15), fields["size"])
	assert.Equal(t, rec.Header().Get("X-Request-ID"), fields["request_id"])
}
