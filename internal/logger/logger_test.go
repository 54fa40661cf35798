package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		level   string
		wantErr bool
	}{
		{"production", "production", "", false},
		{"development", "development", "debug", false},
		{"empty_env_defaults_to_dev", "", "", false},
		{"test_env", "test", "", false},
		{"unknown_env", "staging-42", "", true},
		{"bad_level", "production", "loud", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(tt.env, tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func TestMiddleware_AttachesRequestScopedLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	h := middleware.RequestID(Middleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("handled")
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stores", nil))

	require.Equal(t, 2, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "handled", logs.All()[0].Message)
	assert.Equal(t, "/stores", fields["path"])
	assert.Equal(t, http.MethodGet, fields["method"])
	assert.NotEmpty(t, fields["request_id"])

	access := logs.All()[1]
	assert.Equal(t, "request completed", access.Message)
	assert.Equal(t, int64(http.StatusNoContent), access.ContextMap()["status"])
}

func TestLookup(t *testing.T) {
	_, ok := Lookup(context.Background())
	assert.False(t, ok)

	l := zap.NewNop()
	got, ok := Lookup(ContextWithLogger(context.Background(), l))
	require.True(t, ok)
	assert.Same(t, l, got)
}
