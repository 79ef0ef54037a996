package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Vodeneev/betengine/internal/pkg/models"
)

// Reconnection and heartbeat tuning.
const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 60 * time.Second
	backoffFactor  = 2.0
	jitterPercent  = 0.2

	heartbeatTimeout = 60 * time.Second
	pongTimeout      = 10 * time.Second
	writeTimeout     = 10 * time.Second
)

// feedMessage is one snapshot as the live feed delivers it.
type feedMessage struct {
	Sport     string             `json:"sport"`
	HomeTeam  string             `json:"home_team"`
	AwayTeam  string             `json:"away_team"`
	StartTime time.Time          `json:"start_time"`
	HomeScore int                `json:"home_score"`
	AwayScore int                `json:"away_score"`
	Minute    int                `json:"minute"`
	Stats     map[string]float64 `json:"stats"`
	Odds      map[string]float64 `json:"odds"`
}

// Listener maintains the websocket connection to the live feed and
// pushes normalized snapshots into snapChan. Reconnects with
// exponential backoff and jitter on any failure.
type Listener struct {
	url       string
	snapChan  chan<- models.LiveSnapshot
	conn      *websocket.Conn
	connMu    sync.Mutex
	backoff   time.Duration
	lastMsg   time.Time
	lastMsgMu sync.RWMutex
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewListener creates a websocket listener for the live feed.
func NewListener(url string, snapChan chan<- models.LiveSnapshot) *Listener {
	return &Listener{
		url:      url,
		snapChan: snapChan,
		backoff:  initialBackoff,
		stopChan: make(chan struct{}),
	}
}

// Start begins the listener with automatic reconnection.
func (l *Listener) Start(ctx context.Context) {
	l.wg.Add(1)
	go l.runLoop(ctx)

	l.wg.Add(1)
	go l.heartbeatMonitor(ctx)
}

// Stop gracefully shuts down the listener.
func (l *Listener) Stop() {
	close(l.stopChan)
	l.closeConnection()
	l.wg.Wait()
}

func (l *Listener) runLoop(ctx context.Context) {
	defer l.wg.Done()

	for {
		select {
		case <-ctx.Done():
			slog.Info("live_feed_stopping", "reason", "context cancelled")
			return
		case <-l.stopChan:
			slog.Info("live_feed_stopping", "reason", "stop signal")
			return
		default:
		}

		if err := l.connect(ctx); err != nil {
			slog.Error("live_feed_connect_failed", "error", err, "backoff", l.backoff)
			l.waitBackoff(ctx)
			continue
		}

		if err := l.readLoop(ctx); err != nil {
			slog.Warn("live_feed_read_error", "error", err)
		}

		l.closeConnection()

		select {
		case <-ctx.Done():
			return
		case <-l.stopChan:
			return
		default:
			l.waitBackoff(ctx)
		}
	}
}

func (l *Listener) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("dial failed: %w", err)
	}

	l.connMu.Lock()
	l.conn = conn
	l.connMu.Unlock()

	// Reset backoff on successful connection
	l.backoff = initialBackoff

	slog.Info("live_feed_connected", "endpoint", l.url)
	l.updateLastMsg()
	return nil
}

func (l *Listener) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stopChan:
			return nil
		default:
		}

		l.connMu.Lock()
		conn := l.conn
		l.connMu.Unlock()

		if conn == nil {
			return fmt.Errorf("connection is nil")
		}

		conn.SetReadDeadline(time.Now().Add(heartbeatTimeout + pongTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}

		l.updateLastMsg()
		l.handleMessage(message)
	}
}

func (l *Listener) handleMessage(data []byte) {
	var msg feedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Debug("live_feed_parse_error", "error", err)
		return
	}

	snap, ok := normalizeSnapshot(msg)
	if !ok {
		slog.Debug("live_feed_skipping_message", "home", msg.HomeTeam, "away", msg.AwayTeam)
		return
	}

	select {
	case l.snapChan <- snap:
		slog.Debug("live_snapshot_received",
			"fixture", snap.FixtureID,
			"minute", snap.Minute,
			"score", fmt.Sprintf("%d-%d", snap.HomeScore, snap.AwayScore),
		)
	default:
		slog.Warn("live_snapshot_channel_full", "dropped_fixture", snap.FixtureID)
	}
}

// normalizeSnapshot converts a feed message into the engine's snapshot
// shape. Messages without identifiable teams are dropped.
func normalizeSnapshot(msg feedMessage) (models.LiveSnapshot, bool) {
	id := models.CanonicalFixtureID(msg.Sport, msg.HomeTeam, msg.AwayTeam, msg.StartTime)
	if id == "" {
		return models.LiveSnapshot{}, false
	}

	odds := make(map[models.Outcome]float64, len(msg.Odds))
	for outcome, v := range msg.Odds {
		odds[models.Outcome(outcome)] = v
	}

	return models.LiveSnapshot{
		FixtureID: id,
		Sport:     msg.Sport,
		HomeScore: msg.HomeScore,
		AwayScore: msg.AwayScore,
		Minute:    msg.Minute,
		Stats:     msg.Stats,
		Odds:      odds,
	}, true
}

func (l *Listener) heartbeatMonitor(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.checkHeartbeat()
		}
	}
}

func (l *Listener) checkHeartbeat() {
	l.lastMsgMu.RLock()
	lastMsg := l.lastMsg
	l.lastMsgMu.RUnlock()

	if lastMsg.IsZero() {
		return
	}

	elapsed := time.Since(lastMsg)
	if elapsed > heartbeatTimeout {
		slog.Warn("live_feed_heartbeat_timeout", "elapsed", elapsed)

		l.connMu.Lock()
		conn := l.conn
		l.connMu.Unlock()

		if conn != nil {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Warn("live_feed_ping_failed", "error", err)
				l.closeConnection()
			}
		}
	}
}

func (l *Listener) updateLastMsg() {
	l.lastMsgMu.Lock()
	l.lastMsg = time.Now()
	l.lastMsgMu.Unlock()
}

func (l *Listener) closeConnection() {
	l.connMu.Lock()
	defer l.connMu.Unlock()

	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
		slog.Info("live_feed_disconnected")
	}
}

// waitBackoff sleeps for the current backoff plus jitter, then doubles
// the backoff up to the cap.
func (l *Listener) waitBackoff(ctx context.Context) {
	jitter := time.Duration(rand.Float64() * jitterPercent * float64(l.backoff))
	wait := l.backoff + jitter

	select {
	case <-ctx.Done():
	case <-l.stopChan:
	case <-time.After(wait):
	}

	l.backoff = time.Duration(float64(l.backoff) * backoffFactor)
	if l.backoff > maxBackoff {
		l.backoff = maxBackoff
	}
}
