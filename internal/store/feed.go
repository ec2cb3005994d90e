package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ridepool/internal/api"
	"ridepool/internal/domain/chat"
)

// ErrNoActiveConversation is returned when a feed operation targets a
// conversation that is not the open one.
var ErrNoActiveConversation = errors.New("store: no active conversation")

// DefaultPageSize matches the backend's fixed message page size. The
// message endpoint has no explicit hasNextPage flag; a full page is
// taken to mean more history likely exists, at worst costing one empty
// round trip.
const DefaultPageSize = 10

// FeedStore holds the message history of the open conversation, oldest
// to newest. Page 1 of a fetch opens (or reloads) a conversation; later
// pages prepend older history.
type FeedStore struct {
	mu            sync.RWMutex
	gw            api.Gateway
	conversations *ConversationStore
	logger        *slog.Logger
	pageSize      int

	reservationID string
	gen           uint64
	messages      []chat.Message
	hasNext       bool
	loading       bool
	err           error
}

// NewFeedStore builds an empty feed. The conversation store may be nil
// when list previews need not be kept in sync.
func NewFeedStore(gw api.Gateway, conversations *ConversationStore, pageSize int, logger *slog.Logger) *FeedStore {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &FeedStore{
		gw:            gw,
		conversations: conversations,
		pageSize:      pageSize,
		logger:        logger,
	}
}

// Load fetches one 1-based page of the conversation's history. Page 1
// switches the store to reservationID: the feed is cleared before the
// fetch so a slow response for a previous conversation can never leak
// into the new one. Each load is tagged with a generation; a response
// arriving after another switch is discarded.
func (s *FeedStore) Load(ctx context.Context, reservationID string, page int) error {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	if page == 1 {
		s.reservationID = reservationID
		s.gen++
		s.messages = nil
		s.hasNext = false
	} else if s.reservationID != reservationID {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoActiveConversation, reservationID)
	}
	gen := s.gen
	s.err = nil
	s.loading = true
	s.mu.Unlock()

	batch, err := s.gw.ListMessages(ctx, reservationID, page)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// The user switched conversations while this page was in
		// flight. Drop the response on the floor.
		if s.logger != nil {
			s.logger.Debug("stale message page discarded", "reservation_id", reservationID, "page", page)
		}
		return nil
	}
	s.loading = false
	if err != nil {
		if s.logger != nil {
			s.logger.Error("message page load failed", "reservation_id", reservationID, "page", page, "error", err)
		}
		s.err = err
		s.hasNext = false
		return err
	}

	// Pages arrive newest-first; the feed displays oldest-first.
	chat.Reverse(batch)
	if page == 1 {
		s.messages = batch
	} else {
		s.messages = append(batch, s.messages...)
	}
	s.hasNext = len(batch) == s.pageSize
	return nil
}

// Send posts content to the conversation. On success the persisted
// message is appended to the feed (it is new, not history) and the
// matching list preview is refreshed. On failure the feed is untouched
// and the error is returned for the caller to surface; there is no
// automatic retry.
func (s *FeedStore) Send(ctx context.Context, reservationID, content string) (chat.Message, error) {
	message, err := s.gw.SendMessage(ctx, reservationID, content)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("send failed", "reservation_id", reservationID, "error", err)
		}
		return chat.Message{}, err
	}

	s.mu.Lock()
	if s.reservationID == reservationID {
		s.messages = append(s.messages, message)
	}
	s.mu.Unlock()

	// Best effort: the preview update is an independent projection of
	// the same event, reconciled by the next full list refresh.
	if s.conversations != nil {
		s.conversations.updatePreview(reservationID, message.Preview())
	}
	return message, nil
}

// Messages returns a snapshot of the feed in display order.
func (s *FeedStore) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]chat.Message(nil), s.messages...)
}

// ActiveReservation returns the open conversation id, empty when none.
func (s *FeedStore) ActiveReservation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reservationID
}

// HasNext reports whether older history is likely available.
func (s *FeedStore) HasNext() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasNext
}

// Loading reports whether a fetch is in flight.
func (s *FeedStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last load failure, cleared on the next Load.
func (s *FeedStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// markSeen flips one loaded message to seen.
func (s *FeedStore) markSeen(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			s.messages[i].Seen = true
			return
		}
	}
}

// markAllSeen flips every loaded message to seen when the conversation
// is the open one.
func (s *FeedStore) markAllSeen(reservationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reservationID != reservationID {
		return
	}
	for i := range s.messages {
		s.messages[i].Seen = true
	}
}
