package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
	xhttp "github.com/OQueQuantFirm/Market-Analyzer/pkg/http"
	applogger "github.com/OQueQuantFirm/Market-Analyzer/pkg/logger"

	"github.com/gorilla/websocket"
)

// Stream implements repository.TickerStream over the KuCoin public
// websocket feed. Connect obtains a bullet-public token first; the
// endpoint and ping interval come from the handshake response.
type Stream struct {
	host           string
	endpoint       string // overrides the handshake endpoint when set
	instrument     string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	http           *xhttp.Client
	logger         *applogger.Logger

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{} // closed when the current conn is torn down
}

// NewStream creates a ticker stream for one instrument.
func NewStream(host, endpoint, instrument string, reconnectDelay, pingInterval time.Duration, logger *applogger.Logger) *Stream {
	return &Stream{
		host:           host,
		endpoint:       endpoint,
		instrument:     instrument,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		http:           xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		logger:         logger,
	}
}

// Connect performs the bullet-public handshake and dials the socket.
func (s *Stream) Connect(ctx context.Context) error {
	var envelope apiResponse
	err := s.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    s.host + "/api/v1/bullet-public",
	}, &envelope)
	if err != nil {
		return &models.NetworkError{Op: "bullet-public", Err: err}
	}
	if envelope.Code != okCode {
		return &models.ExchangeError{Code: envelope.Code, Message: envelope.Msg}
	}

	var token bulletToken
	if err := json.Unmarshal(envelope.Data, &token); err != nil {
		return &models.NetworkError{Op: "bullet-public", Err: fmt.Errorf("decode token: %w", err)}
	}
	if len(token.InstanceServers) == 0 {
		return models.ErrDataUnavailable
	}

	endpoint := token.InstanceServers[0].Endpoint
	if s.endpoint != "" {
		endpoint = s.endpoint
	}
	if iv := token.InstanceServers[0].PingInterval; iv > 0 {
		s.pingInterval = time.Duration(iv) * time.Millisecond
	}

	u := fmt.Sprintf("%s?token=%s", endpoint, token.Token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return &models.NetworkError{Op: "ws-dial", Err: err}
	}

	s.mu.Lock()
	s.conn = conn
	s.done = make(chan struct{})
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("ticker stream: connected", applogger.String("instrument", s.instrument))
	}
	return nil
}

// Subscribe subscribes to the tickerV2 topic for the instrument.
func (s *Stream) Subscribe(ctx context.Context) error {
	conn, _ := s.current()
	if conn == nil {
		return fmt.Errorf("ticker stream not connected")
	}
	msg := map[string]interface{}{
		"id":       strconv.FormatInt(time.Now().UnixNano(), 10),
		"type":     "subscribe",
		"topic":    "/contractMarket/tickerV2:" + instrumentToSymbol(s.instrument),
		"response": true,
	}
	if err := conn.WriteJSON(msg); err != nil {
		return &models.NetworkError{Op: "ws-subscribe", Err: err}
	}
	if s.logger != nil {
		s.logger.Info("ticker stream: subscribed", applogger.String("instrument", s.instrument))
	}
	return nil
}

// current snapshots the live connection and its teardown channel.
func (s *Stream) current() (*websocket.Conn, chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn, s.done
}

// Read streams ticks and errors until the context is cancelled or the
// connection breaks. Both goroutines are bound to the connection live
// at call time; Close (and therefore Reconnect) stops them, so a fresh
// Read after a reconnect never stacks keepalives.
func (s *Stream) Read(ctx context.Context) (<-chan models.Tick, <-chan error) {
	ticks := make(chan models.Tick, 256)
	errs := make(chan error, 1)

	conn, done := s.current()
	if conn == nil {
		errs <- fmt.Errorf("ticker stream not connected")
		close(ticks)
		close(errs)
		return ticks, errs
	}

	// keepalive loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				_ = conn.WriteJSON(map[string]string{
					"id":   strconv.FormatInt(time.Now().UnixNano(), 10),
					"type": "ping",
				})
			}
		}
	}()

	// read loop
	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			default:
				_, b, err := conn.ReadMessage()
				if err != nil {
					select {
					case <-done:
						// teardown already underway
					default:
						errs <- &models.NetworkError{Op: "ws-read", Err: err}
					}
					return
				}
				var m tickerMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-ticker frames
					continue
				}
				if m.Type != "message" {
					continue
				}
				tick := models.Tick{
					Instrument: s.instrument,
					Price:      m.Data.Price,
					Size:       m.Data.Size,
					Timestamp:  m.Data.Ts / int64(time.Millisecond),
				}
				select {
				case ticks <- tick:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close tears down the current connection and stops its goroutines.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}
