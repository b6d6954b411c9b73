// Package agent implements the game-server-side producer: it watches a local
// status endpoint and reports occupancy events to the presence service.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/l4m1fy/playerpop/internal/auth"
	"github.com/l4m1fy/playerpop/internal/config"
	"github.com/l4m1fy/playerpop/internal/model"
)

// EventSender delivers one event to the service.
type EventSender interface {
	Send(ctx context.Context, ev *model.Event) error
}

// Emitter signs events with the tenant secret and POSTs them to the
// ingestion endpoint. Delivery is at-most-once: a failed send is logged and
// dropped, and the periodic count heartbeat heals any resulting drift.
type Emitter struct {
	url    string
	secret []byte
	client *http.Client
	logger *zap.Logger
}

// NewEmitter creates an emitter for the configured tenant.
func NewEmitter(cfg *config.AgentConfig, logger *zap.Logger) *Emitter {
	return &Emitter{
		url:    fmt.Sprintf("%s/events/%s", cfg.Endpoint, cfg.TenantID),
		secret: []byte(cfg.Secret),
		client: &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger,
	}
}

// Send marshals, signs, and delivers one event.
func (e *Emitter) Send(ctx context.Context, ev *model.Event) error {
	if ev.Timestamp == "" {
		ev.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.SignatureHeader, auth.Sign(e.secret, body))

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("service rejected event: HTTP %d", resp.StatusCode)
	}

	e.logger.Debug("event sent", zap.String("type", string(ev.Type)))
	return nil
}
