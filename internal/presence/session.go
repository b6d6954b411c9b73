package presence

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/l4m1fy/playerpop/internal/config"
	"github.com/l4m1fy/playerpop/internal/metrics"
	"github.com/l4m1fy/playerpop/internal/model"
)

const (
	// Time allowed to read the next pong message from the gateway.
	pongWait = 60 * time.Second

	// Send pings to the gateway with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Session is one tenant's connection to the presence gateway. It runs its own
// connect/reconnect loop, decoupled from event ingestion: state changes reach
// it through a one-slot latest-wins mailbox, so a stalled session can never
// block an Apply.
type Session struct {
	tenantID     string
	token        string
	activityType string
	cfg          config.PresenceConfig

	// state returns the tenant's current state, used to resynchronize the
	// presence after every (re)connect.
	state func() model.TenantState

	updates chan model.TenantState
	live    atomic.Bool

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewSession creates a session for one tenant.
func NewSession(tenantID string, tenant config.TenantConfig, cfg config.PresenceConfig, state func() model.TenantState, logger *zap.Logger, m *metrics.Metrics) *Session {
	return &Session{
		tenantID:     tenantID,
		token:        tenant.Token,
		activityType: tenant.Activity(),
		cfg:          cfg,
		state:        state,
		updates:      make(chan model.TenantState, 1),
		logger:       logger.With(zap.String("tenant", tenantID)),
		metrics:      m,
	}
}

// Notify hands the session a new state to render. The mailbox keeps only the
// most recent state: if the session has not consumed the previous value it is
// replaced, never queued. Notify never blocks.
func (s *Session) Notify(state model.TenantState) {
	for {
		select {
		case s.updates <- state:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

// Live reports whether the session currently holds a gateway connection.
func (s *Session) Live() bool {
	return s.live.Load()
}

// Run drives the session until ctx is cancelled, reconnecting with
// exponential backoff on every failure. The backoff resets after each
// successful dial.
func (s *Session) Run(ctx context.Context) {
	backoff := s.cfg.ReconnectMin

	for {
		conn, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("presence gateway dial failed",
				zap.Error(err),
				zap.Duration("retry_in", backoff),
			)
			if !sleep(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, s.cfg.ReconnectMax)
			continue
		}

		backoff = s.cfg.ReconnectMin
		s.setLive(true)
		s.logger.Info("presence session established")

		err = s.serve(ctx, conn)
		s.setLive(false)

		if ctx.Err() != nil {
			return
		}

		s.logger.Warn("presence session lost",
			zap.Error(err),
			zap.Duration("retry_in", backoff),
		)
		if !sleep(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, s.cfg.ReconnectMax)
	}
}

// dial opens a websocket connection to the gateway.
func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, s.cfg.GatewayURL, nil)
	return conn, err
}

// serve identifies, resynchronizes the presence, and then renders updates
// until the connection or the context dies.
func (s *Session) serve(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	// Renders are deduplicated per connection; the gateway forgets our
	// presence on disconnect, so the cache must not outlive the connection.
	var lastRendered *Frame

	if err := s.write(conn, identifyFrame(s.token)); err != nil {
		return err
	}
	if err := s.render(conn, s.state(), &lastRendered); err != nil {
		return err
	}

	readErr := make(chan error, 1)
	go s.readLoop(conn, readErr)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return ctx.Err()
		case state := <-s.updates:
			if err := s.render(conn, state, &lastRendered); err != nil {
				return err
			}
		case <-ticker.C:
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return err
			}
		case err := <-readErr:
			return err
		}
	}
}

// readLoop consumes inbound messages so pings are answered and a dead
// connection is detected. The gateway sends nothing we act on.
func (s *Session) readLoop(conn *websocket.Conn, readErr chan<- error) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			readErr <- err
			return
		}
	}
}

// render writes the presence frame for state, skipping the write when it is
// identical to the last frame this connection rendered.
func (s *Session) render(conn *websocket.Conn, state model.TenantState, lastRendered **Frame) error {
	frame := PresenceFrame(state, s.activityType)
	if *lastRendered != nil && frame == **lastRendered {
		return nil
	}

	err := s.write(conn, frame)
	s.metrics.RecordRender(s.tenantID, err)
	if err != nil {
		s.logger.Warn("presence render failed", zap.Error(err))
		return err
	}

	*lastRendered = &frame
	s.logger.Info("presence updated",
		zap.String("status", frame.Status),
		zap.String("activity", frame.ActivityName),
	)
	return nil
}

// write sends one frame with a bounded deadline.
func (s *Session) write(conn *websocket.Conn, frame Frame) error {
	conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return conn.WriteJSON(frame)
}

func (s *Session) setLive(live bool) {
	s.live.Store(live)
	s.metrics.SetSessionLive(s.tenantID, live)
}

// nextBackoff doubles the delay up to max.
func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		next = max
	}
	return next
}

// sleep waits for d or until ctx is cancelled, reporting whether the full
// delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
