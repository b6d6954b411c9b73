package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l4m1fy/playerpop/internal/auth"
	"github.com/l4m1fy/playerpop/internal/config"
	"github.com/l4m1fy/playerpop/internal/model"
)

func intPtr(v int) *int { return &v }

func TestEmitter_Send(t *testing.T) {
	type received struct {
		path      string
		signature string
		body      []byte
	}
	got := make(chan received, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- received{
			path:      r.URL.Path,
			signature: r.Header.Get(auth.SignatureHeader),
			body:      body,
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &config.AgentConfig{
		TenantID:       "s1",
		Endpoint:       server.URL,
		Secret:         "hmac-secret",
		StatusURL:      "unused",
		RequestTimeout: 2 * time.Second,
	}
	logger, _ := zap.NewDevelopment()
	emitter := NewEmitter(cfg, logger)

	err := emitter.Send(context.Background(), &model.Event{
		Type:           model.EventCount,
		CurrentPlayers: intPtr(12),
		MaxPlayers:     intPtr(50),
	})
	require.NoError(t, err)

	req := <-got
	assert.Equal(t, "/events/s1", req.path)
	assert.True(t, auth.Verify([]byte("hmac-secret"), req.body, req.signature),
		"signature must verify against the exact bytes sent")

	var ev model.Event
	require.NoError(t, json.Unmarshal(req.body, &ev))
	assert.Equal(t, model.EventCount, ev.Type)
	assert.Equal(t, 12, *ev.CurrentPlayers)
	assert.NotEmpty(t, ev.Timestamp, "emitter stamps events that lack a timestamp")
}

func TestEmitter_Send_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	cfg := &config.AgentConfig{
		TenantID:       "s1",
		Endpoint:       server.URL,
		Secret:         "wrong",
		StatusURL:      "unused",
		RequestTimeout: 2 * time.Second,
	}
	logger, _ := zap.NewDevelopment()
	emitter := NewEmitter(cfg, logger)

	err := emitter.Send(context.Background(), &model.Event{Type: model.EventStartup})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
}
