package openrouter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewClient(Config{BaseURL: "https://openrouter.ai/api/v1"}))
}

func TestVerifyModel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models/gpt-4o-mini" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"gpt-4o-mini","object":"model","created":0,"owned_by":"openai"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"model not found"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})
	require.NotNil(t, client)

	assert.NoError(t, VerifyModel(context.Background(), client, "gpt-4o-mini"))
	assert.Error(t, VerifyModel(context.Background(), client, "does-not-exist"))
	assert.Error(t, VerifyModel(context.Background(), client, " "))
	assert.Error(t, VerifyModel(context.Background(), nil, "gpt-4o-mini"))
}
