package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// OddsUpdate is one price revision pushed by the stream.
type OddsUpdate struct {
	SourceID    string           `json:"matchId"`
	Bookmaker   string           `json:"bookmaker"`
	OverOdds    *decimal.Decimal `json:"over25"`
	UnderOdds   *decimal.Decimal `json:"under25"`
	BTTSYesOdds *decimal.Decimal `json:"bttsYes"`
	BTTSNoOdds  *decimal.Decimal `json:"bttsNo"`
	Heartbeat   bool             `json:"heartbeat"`
}

// UpdateHandler is called for every odds update received from the stream
type UpdateHandler func(update *OddsUpdate) error

// ReconnectConfig controls reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultReconnectConfig returns default reconnection configuration
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        10,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// OddsStreamClient handles the WebSocket connection to a live odds feed
type OddsStreamClient struct {
	conn            *websocket.Conn
	apiKey          string
	url             string
	mu              sync.RWMutex
	isConnected     bool
	handlers        []UpdateHandler
	reconnectConfig ReconnectConfig
	lastMessageTime time.Time
	logger          *logrus.Entry
}

// NewOddsStreamClient creates a new odds stream client
func NewOddsStreamClient(url, apiKey string, baseLogger *logrus.Logger) *OddsStreamClient {
	return &OddsStreamClient{
		apiKey:          apiKey,
		url:             url,
		handlers:        make([]UpdateHandler, 0),
		reconnectConfig: DefaultReconnectConfig(),
		logger:          baseLogger.WithField("component", "odds_stream"),
	}
}

// Connect establishes the WebSocket connection and starts the read loop
func (s *OddsStreamClient) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isConnected {
		return fmt.Errorf("already connected")
	}

	s.logger.WithField("url", s.url).Info("Connecting to odds stream")

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to stream: %w", err)
	}

	s.conn = conn
	s.isConnected = true
	s.lastMessageTime = time.Now()

	go s.readMessages()

	return nil
}

// Authenticate sends the authentication message
func (s *OddsStreamClient) Authenticate(ctx context.Context) error {
	return s.sendMessage(map[string]interface{}{
		"op":     "auth",
		"apiKey": s.apiKey,
	})
}

// Subscribe requests odds updates for the given provider match IDs
func (s *OddsStreamClient) Subscribe(ctx context.Context, sourceIDs []string) error {
	s.logger.WithField("matches", len(sourceIDs)).Info("Subscribing to odds updates")
	return s.sendMessage(map[string]interface{}{
		"op":        "subscribe",
		"apiKey":    s.apiKey,
		"matchIds":  sourceIDs,
		"heartbeat": true,
	})
}

// AddHandler registers an update handler
func (s *OddsStreamClient) AddHandler(handler UpdateHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// readMessages reads updates from the WebSocket connection
func (s *OddsStreamClient) readMessages() {
	defer s.Close()

	for {
		var raw json.RawMessage
		if err := s.conn.ReadJSON(&raw); err != nil {
			s.logger.WithError(err).Warn("Stream read failed")
			s.mu.Lock()
			s.isConnected = false
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		s.lastMessageTime = time.Now()
		s.mu.Unlock()

		var update OddsUpdate
		if err := json.Unmarshal(raw, &update); err != nil {
			s.logger.WithError(err).Debug("Unparseable stream message")
			continue
		}
		if update.Heartbeat {
			continue
		}

		s.mu.RLock()
		handlers := s.handlers
		s.mu.RUnlock()

		for _, handler := range handlers {
			if err := handler(&update); err != nil {
				s.logger.WithError(err).Error("Odds update handler failed")
			}
		}
	}
}

// sendMessage sends a JSON message to the stream
func (s *OddsStreamClient) sendMessage(msg interface{}) error {
	s.mu.RLock()
	if !s.isConnected || s.conn == nil {
		s.mu.RUnlock()
		return fmt.Errorf("not connected")
	}
	conn := s.conn
	s.mu.RUnlock()

	return conn.WriteJSON(msg)
}

// IsConnected returns whether the stream is connected
func (s *OddsStreamClient) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isConnected
}

// LastMessageTime returns the time of the last received message
func (s *OddsStreamClient) LastMessageTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMessageTime
}

// Close closes the stream connection
func (s *OddsStreamClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	s.isConnected = false
	return s.conn.Close()
}

// Ping sends a ping message to keep the connection alive
func (s *OddsStreamClient) Ping() error {
	return s.sendMessage(map[string]interface{}{
		"op": "ping",
	})
}
