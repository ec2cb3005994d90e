// Package live tracks asynchronous payment outcomes for one
// reservation over the backend's push channel.
package live

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// Status is the watcher state machine. It starts awaiting and moves to
// exactly one terminal value.
type Status string

const (
	StatusAwaiting  Status = "awaiting_confirmation"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// EventPaymentStatus is the named event carrying payment outcomes.
const EventPaymentStatus = "payment.status"

// Wire outcome values emitted by the payment channel.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

var (
	// ErrNoCredential is returned when no access token is available;
	// the caller stays in the awaiting state and owns any fallback UX.
	ErrNoCredential = errors.New("live: credential required")
	// ErrNoReservation is returned when no reservation id is tracked.
	ErrNoReservation = errors.New("live: reservation id required")
)

// Event is a named push frame.
type Event struct {
	Event string       `json:"event"`
	Data  StatusChange `json:"data"`
}

// StatusChange is the payload of a payment-status event.
type StatusChange struct {
	ReservationID string `json:"reservationId"`
	Status        string `json:"status"`
}

// Config defines one watcher subscription.
type Config struct {
	URL           string
	Token         string
	ReservationID string
	Logger        *slog.Logger
	Dialer        *websocket.Dialer
}

// Watcher holds a single live subscription scoped to one reservation.
// Events for other reservations are ignored; the completion callback
// fires at most once. Close must be called whether or not a terminal
// state was reached.
type Watcher struct {
	cfg  Config
	conn *websocket.Conn

	mu       sync.RWMutex
	status   Status
	terminal sync.Once
	closing  sync.Once
	outcome  chan Status
}

// Watch dials the push channel, authenticating with the token as a
// query parameter, and invokes onDone exactly once when a terminal
// outcome arrives for the tracked reservation.
func Watch(cfg Config, onDone func(succeeded bool)) (*Watcher, error) {
	if cfg.Token == "" {
		return nil, ErrNoCredential
	}
	if cfg.ReservationID == "" {
		return nil, ErrNoReservation
	}
	endpoint, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, err
	}
	query := endpoint.Query()
	query.Set("token", cfg.Token)
	endpoint.RawQuery = query.Encode()

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.Dial(endpoint.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		cfg:     cfg,
		conn:    conn,
		status:  StatusAwaiting,
		outcome: make(chan Status, 1),
	}
	go w.readLoop(onDone)
	if cfg.Logger != nil {
		cfg.Logger.Info("payment watcher subscribed", "reservation_id", cfg.ReservationID)
	}
	return w, nil
}

// Status returns the current state.
func (w *Watcher) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// Outcome delivers the terminal status once it is reached.
func (w *Watcher) Outcome() <-chan Status {
	return w.outcome
}

// Close tears the subscription down unconditionally. Safe to call more
// than once and regardless of whether an outcome was observed.
func (w *Watcher) Close() {
	w.closing.Do(func() {
		_ = w.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = w.conn.Close()
	})
}

func (w *Watcher) readLoop(onDone func(succeeded bool)) {
	for {
		_, payload, err := w.conn.ReadMessage()
		if err != nil {
			return
		}
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			if w.cfg.Logger != nil {
				w.cfg.Logger.Warn("malformed push frame", "error", err)
			}
			continue
		}
		if event.Event != EventPaymentStatus {
			continue
		}
		if event.Data.ReservationID != w.cfg.ReservationID {
			continue
		}
		switch event.Data.Status {
		case OutcomeCompleted:
			w.finish(StatusSucceeded, onDone)
		case OutcomeFailed:
			w.finish(StatusFailed, onDone)
		}
	}
}

func (w *Watcher) finish(status Status, onDone func(succeeded bool)) {
	w.terminal.Do(func() {
		w.mu.Lock()
		w.status = status
		w.mu.Unlock()
		w.outcome <- status
		if onDone != nil {
			onDone(status == StatusSucceeded)
		}
	})
}
