package chat

import (
	"sort"
	"time"
)

// Conversation is the thread tied 1:1 to a reservation between a
// passenger and a driver. The client never creates one; the backend
// does when a reservation is made.
type Conversation struct {
	ReservationID   string         `json:"reservationId"`
	CounterpartName string         `json:"counterpartName"`
	LastMessage     MessagePreview `json:"lastMessage"`
	HasUnseen       bool           `json:"hasUnseen"`
}

// MessagePreview is the truncated last-message summary shown in the
// conversation list.
type MessagePreview struct {
	Content string    `json:"content"`
	SentAt  time.Time `json:"sentAt"`
}

// Message is a single chat message. The seen flag only ever moves from
// false to true.
type Message struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservationId"`
	SenderID      string    `json:"senderId"`
	Content       string    `json:"content"`
	SentAt        time.Time `json:"sentAt"`
	Seen          bool      `json:"seen"`
}

// Preview derives the list-entry summary from a message.
func (m Message) Preview() MessagePreview {
	return MessagePreview{Content: m.Content, SentAt: m.SentAt}
}

// SortBySentAt orders messages oldest to newest in place, the display
// order of a feed.
func SortBySentAt(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].SentAt.Before(messages[j].SentAt)
	})
}

// Reverse flips a page in place. List endpoints return newest-first
// pages while feeds display oldest-first.
func Reverse(messages []Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
