package store

import (
	"context"
	"log/slog"
	"sync"

	"ridepool/internal/api"
	"ridepool/internal/domain/chat"
)

// ConversationStore holds the paginated conversation list, most recent
// first. The order within fetched pages is server-determined and never
// rearranged locally.
type ConversationStore struct {
	mu     sync.RWMutex
	gw     api.Gateway
	logger *slog.Logger

	items   []chat.Conversation
	hasNext bool
	loading bool
	err     error
}

// NewConversationStore builds an empty store backed by the gateway.
func NewConversationStore(gw api.Gateway, logger *slog.Logger) *ConversationStore {
	return &ConversationStore{gw: gw, logger: logger}
}

// Load fetches one 1-based page. Page 1 replaces the whole list, later
// pages are appended. It returns whether another page exists. On
// failure the list is left untouched and further loading is stopped.
func (s *ConversationStore) Load(ctx context.Context, page int) (bool, error) {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	s.err = nil
	s.loading = true
	s.mu.Unlock()

	fetched, err := s.gw.ListConversations(ctx, page)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		if s.logger != nil {
			s.logger.Error("conversation page load failed", "page", page, "error", err)
		}
		s.err = err
		s.hasNext = false
		return false, err
	}
	if page == 1 {
		s.items = fetched.Items
	} else {
		s.items = append(s.items, fetched.Items...)
	}
	s.hasNext = fetched.HasNextPage
	return s.hasNext, nil
}

// Conversations returns a snapshot of the loaded list.
func (s *ConversationStore) Conversations() []chat.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]chat.Conversation(nil), s.items...)
}

// HasNext reports whether another page can be requested.
func (s *ConversationStore) HasNext() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasNext
}

// Loading reports whether a fetch is in flight.
func (s *ConversationStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last load failure, cleared on the next Load.
func (s *ConversationStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// UnreadCount counts loaded conversations with unseen messages.
func (s *ConversationStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, conv := range s.items {
		if conv.HasUnseen {
			count++
		}
	}
	return count
}

// updatePreview refreshes the last-message summary of one list entry
// without reordering. Called after a successful send.
func (s *ConversationStore) updatePreview(reservationID string, preview chat.MessagePreview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ReservationID == reservationID {
			s.items[i].LastMessage = preview
			return
		}
	}
}

// clearUnseen drops the unseen flag of one list entry.
func (s *ConversationStore) clearUnseen(reservationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ReservationID == reservationID {
			s.items[i].HasUnseen = false
			return
		}
	}
}
