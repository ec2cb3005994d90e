// Package stub is a memory-backed stand-in for the marketplace backend,
// implementing the chat and payment-status contract the client
// consumes. It powers ridepoold for local development and the
// integration tests.
package stub

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"ridepool/internal/api"
	"ridepool/internal/domain/chat"
)

// ErrConversationNotFound is returned for unknown reservation ids.
var ErrConversationNotFound = errors.New("stub: conversation not found")

// SenderSelf is the sender id the stub assigns to authenticated sends.
const SenderSelf = "me"

// State holds all stub chat data guarded by one lock. Conversations are
// kept most-recently-active first, the order the list endpoint pages
// through.
type State struct {
	mu       sync.RWMutex
	order    []string
	threads  map[string]*thread
	pageSize int
	now      func() time.Time
}

type thread struct {
	conv     chat.Conversation
	messages []chat.Message // oldest to newest
}

// NewState builds an empty state with the given fixed page size.
func NewState(pageSize int) *State {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &State{
		threads:  make(map[string]*thread),
		pageSize: pageSize,
		now:      time.Now,
	}
}

// Seed replaces all state with the given fixtures, keeping their order.
func (s *State) Seed(fixtures []Fixture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = s.order[:0]
	s.threads = make(map[string]*thread, len(fixtures))
	for _, f := range fixtures {
		messages := append([]chat.Message(nil), f.Messages...)
		chat.SortBySentAt(messages)
		conv := f.Conversation
		if len(messages) > 0 {
			conv.LastMessage = messages[len(messages)-1].Preview()
		}
		s.order = append(s.order, conv.ReservationID)
		s.threads[conv.ReservationID] = &thread{conv: conv, messages: messages}
	}
}

// ListConversations returns one 1-based page with an explicit
// has-next-page flag.
func (s *State) ListConversations(page int) api.ConversationPage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if page < 1 {
		page = 1
	}
	start := (page - 1) * s.pageSize
	if start >= len(s.order) {
		return api.ConversationPage{Items: []chat.Conversation{}}
	}
	end := start + s.pageSize
	if end > len(s.order) {
		end = len(s.order)
	}
	items := make([]chat.Conversation, 0, end-start)
	for _, id := range s.order[start:end] {
		items = append(items, s.threads[id].conv)
	}
	return api.ConversationPage{Items: items, HasNextPage: end < len(s.order)}
}

// ListMessages returns one 1-based page of a conversation, newest
// first. There is no has-next flag on this endpoint; a short page is
// the only termination signal.
func (s *State) ListMessages(reservationID string, page int) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threads[reservationID]
	if !ok {
		return nil, ErrConversationNotFound
	}
	if page < 1 {
		page = 1
	}
	end := len(t.messages) - (page-1)*s.pageSize
	if end <= 0 {
		return []chat.Message{}, nil
	}
	start := end - s.pageSize
	if start < 0 {
		start = 0
	}
	items := make([]chat.Message, 0, end-start)
	for i := end - 1; i >= start; i-- {
		items = append(items, t.messages[i])
	}
	return items, nil
}

// AddMessage persists a new message from the authenticated user and
// refreshes the conversation's preview and recency.
func (s *State) AddMessage(reservationID, content string) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[reservationID]
	if !ok {
		return chat.Message{}, ErrConversationNotFound
	}
	message := chat.Message{
		ID:            uuid.NewString(),
		ReservationID: reservationID,
		SenderID:      SenderSelf,
		Content:       content,
		SentAt:        s.now().UTC(),
	}
	t.messages = append(t.messages, message)
	t.conv.LastMessage = message.Preview()
	s.moveToFront(reservationID)
	return message, nil
}

// MarkSeen flips one message to seen. Unknown ids are not an error; the
// transition is monotonic either way.
func (s *State) MarkSeen(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.threads {
		for i := range t.messages {
			if t.messages[i].ID == messageID {
				t.messages[i].Seen = true
				return
			}
		}
	}
}

// MarkAllSeen flips every message of a conversation to seen and clears
// its unseen badge.
func (s *State) MarkAllSeen(reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[reservationID]
	if !ok {
		return ErrConversationNotFound
	}
	for i := range t.messages {
		t.messages[i].Seen = true
	}
	t.conv.HasUnseen = false
	return nil
}

func (s *State) moveToFront(reservationID string) {
	for i, id := range s.order {
		if id == reservationID {
			copy(s.order[1:i+1], s.order[:i])
			s.order[0] = reservationID
			return
		}
	}
	s.order = append([]string{reservationID}, s.order...)
}
