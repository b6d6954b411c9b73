package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/l4m1fy/playerpop/internal/config"
	"github.com/l4m1fy/playerpop/internal/model"
)

// Status is the occupancy snapshot exposed by the game server's local status
// endpoint.
type Status struct {
	Players    int `json:"players"`
	MaxPlayers int `json:"max_players"`
}

// StatusFunc fetches the current occupancy from the local game server.
type StatusFunc func(ctx context.Context) (Status, error)

// Watcher polls the game server and turns observed changes into events:
// startup when the server first answers, shutdown when it stops answering,
// join/leave on debounced count changes, and a periodic count heartbeat that
// resynchronizes the service after any missed event.
type Watcher struct {
	cfg    *config.AgentConfig
	fetch  StatusFunc
	sender EventSender
	logger *zap.Logger

	online       bool
	lastReported int

	// pending tracks a count change waiting out the debounce window, so a
	// player bouncing through a reconnect does not emit a leave/join pair.
	pending      int
	pendingSince time.Time
	hasPending   bool
}

// NewWatcher creates a watcher that polls the configured status URL.
func NewWatcher(cfg *config.AgentConfig, sender EventSender, logger *zap.Logger) *Watcher {
	w := &Watcher{
		cfg:    cfg,
		sender: sender,
		logger: logger,
	}
	w.fetch = w.fetchHTTP
	return w
}

// Run polls until ctx is cancelled, then reports shutdown.
func (w *Watcher) Run(ctx context.Context) {
	poll := time.NewTicker(w.cfg.PollInterval)
	defer poll.Stop()
	heartbeat := time.NewTicker(w.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			w.reportShutdown()
			return
		case <-poll.C:
			w.poll(ctx)
		case <-heartbeat.C:
			w.sendHeartbeat(ctx)
		}
	}
}

// poll fetches the current status and emits whatever event the observed
// transition calls for.
func (w *Watcher) poll(ctx context.Context) {
	status, err := w.fetch(ctx)
	if err != nil {
		if w.online {
			w.logger.Warn("game server stopped answering", zap.Error(err))
			w.send(ctx, &model.Event{Type: model.EventShutdown})
			w.online = false
			w.hasPending = false
		}
		return
	}

	if !w.online {
		w.logger.Info("game server is up",
			zap.Int("players", status.Players),
			zap.Int("max_players", status.MaxPlayers),
		)
		w.send(ctx, &model.Event{
			Type:           model.EventStartup,
			CurrentPlayers: &status.Players,
			MaxPlayers:     &status.MaxPlayers,
		})
		w.online = true
		w.lastReported = status.Players
		w.hasPending = false
		return
	}

	w.observeCount(ctx, status)
}

// observeCount applies the debounce window to a changed player count before
// reporting it as a join or leave.
func (w *Watcher) observeCount(ctx context.Context, status Status) {
	if status.Players == w.lastReported {
		w.hasPending = false
		return
	}

	if !w.hasPending || status.Players != w.pending {
		w.pending = status.Players
		w.pendingSince = time.Now()
		w.hasPending = true
		return
	}

	if time.Since(w.pendingSince) < w.cfg.Debounce {
		return
	}

	eventType := model.EventJoin
	if status.Players < w.lastReported {
		eventType = model.EventLeave
	}
	w.send(ctx, &model.Event{
		Type:           eventType,
		CurrentPlayers: &status.Players,
		MaxPlayers:     &status.MaxPlayers,
	})
	w.lastReported = status.Players
	w.hasPending = false
}

// sendHeartbeat reports the current count as a resynchronization event.
func (w *Watcher) sendHeartbeat(ctx context.Context) {
	if !w.online {
		return
	}
	status, err := w.fetch(ctx)
	if err != nil {
		return
	}
	w.send(ctx, &model.Event{
		Type:           model.EventCount,
		CurrentPlayers: &status.Players,
		MaxPlayers:     &status.MaxPlayers,
	})
	w.lastReported = status.Players
}

// reportShutdown sends a final shutdown event with its own short deadline,
// since the run context is already cancelled.
func (w *Watcher) reportShutdown() {
	if !w.online {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.RequestTimeout)
	defer cancel()
	w.send(ctx, &model.Event{Type: model.EventShutdown})
}

// send delivers an event, logging failures instead of propagating them.
func (w *Watcher) send(ctx context.Context, ev *model.Event) {
	if err := w.sender.Send(ctx, ev); err != nil {
		w.logger.Warn("failed to send event",
			zap.String("type", string(ev.Type)),
			zap.Error(err),
		)
	}
}

// fetchHTTP reads the status endpoint.
func (w *Watcher) fetchHTTP(ctx context.Context) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.StatusURL, nil)
	if err != nil {
		return Status{}, err
	}

	client := &http.Client{Timeout: w.cfg.RequestTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return Status{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("status endpoint returned HTTP %d", resp.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return Status{}, fmt.Errorf("failed to decode status: %w", err)
	}
	return status, nil
}
