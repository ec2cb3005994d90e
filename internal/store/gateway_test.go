package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"ridepool/internal/api"
	"ridepool/internal/domain/chat"
)

// fakeGateway scripts transport behavior per test.
type fakeGateway struct {
	mu sync.Mutex

	conversationsFn func(page int) (api.ConversationPage, error)
	messagesFn      func(reservationID string, page int) ([]chat.Message, error)
	sendFn          func(reservationID, content string) (chat.Message, error)
	markSeenErr     error
	markAllSeenErr  error

	markSeenCalls    []string
	markAllSeenCalls []string
}

func (f *fakeGateway) ListConversations(_ context.Context, page int) (api.ConversationPage, error) {
	if f.conversationsFn == nil {
		return api.ConversationPage{}, errors.New("unexpected ListConversations")
	}
	return f.conversationsFn(page)
}

func (f *fakeGateway) ListMessages(_ context.Context, reservationID string, page int) ([]chat.Message, error) {
	if f.messagesFn == nil {
		return nil, errors.New("unexpected ListMessages")
	}
	return f.messagesFn(reservationID, page)
}

func (f *fakeGateway) SendMessage(_ context.Context, reservationID, content string) (chat.Message, error) {
	if f.sendFn == nil {
		return chat.Message{}, errors.New("unexpected SendMessage")
	}
	return f.sendFn(reservationID, content)
}

func (f *fakeGateway) MarkSeen(_ context.Context, messageID string) error {
	f.mu.Lock()
	f.markSeenCalls = append(f.markSeenCalls, messageID)
	f.mu.Unlock()
	return f.markSeenErr
}

func (f *fakeGateway) MarkAllSeen(_ context.Context, reservationID string) error {
	f.mu.Lock()
	f.markAllSeenCalls = append(f.markAllSeenCalls, reservationID)
	f.mu.Unlock()
	return f.markAllSeenErr
}

var _ api.Gateway = (*fakeGateway)(nil)

func msg(id, reservationID string, minute int) chat.Message {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return chat.Message{
		ID:            id,
		ReservationID: reservationID,
		SenderID:      "driver-1",
		Content:       "message " + id,
		SentAt:        base.Add(time.Duration(minute) * time.Minute),
	}
}

func conv(reservationID, name string, unseen bool) chat.Conversation {
	return chat.Conversation{
		ReservationID:   reservationID,
		CounterpartName: name,
		HasUnseen:       unseen,
	}
}

func ids(messages []chat.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.ID)
	}
	return out
}
