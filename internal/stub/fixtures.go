package stub

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"ridepool/internal/domain/chat"
)

// Fixture seeds one conversation with its history.
type Fixture struct {
	Conversation chat.Conversation `json:"conversation"`
	Messages     []chat.Message    `json:"messages"`
}

// LoadFixtures reads seed data from a JSON file.
func LoadFixtures(path string) ([]Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fixtures []Fixture
	if err := json.Unmarshal(raw, &fixtures); err != nil {
		return nil, fmt.Errorf("stub: parse fixtures %s: %w", path, err)
	}
	return fixtures, nil
}

// DefaultFixtures returns a small seed set so ridepoold is usable
// without a fixtures file.
func DefaultFixtures() []Fixture {
	base := time.Now().UTC().Add(-2 * time.Hour)
	return []Fixture{
		{
			Conversation: chat.Conversation{
				ReservationID:   "res-1001",
				CounterpartName: "Mamadou D.",
				HasUnseen:       true,
			},
			Messages: []chat.Message{
				{ID: "msg-1", ReservationID: "res-1001", SenderID: "driver-7", Content: "I am at the meeting point.", SentAt: base.Add(10 * time.Minute)},
				{ID: "msg-2", ReservationID: "res-1001", SenderID: SenderSelf, Content: "Coming, two minutes.", SentAt: base.Add(12 * time.Minute), Seen: true},
				{ID: "msg-3", ReservationID: "res-1001", SenderID: "driver-7", Content: "Blue Corolla near the gate.", SentAt: base.Add(14 * time.Minute)},
			},
		},
		{
			Conversation: chat.Conversation{
				ReservationID:   "res-1002",
				CounterpartName: "Aissatou B.",
			},
			Messages: []chat.Message{
				{ID: "msg-4", ReservationID: "res-1002", SenderID: SenderSelf, Content: "Is the 8am seat still free?", SentAt: base, Seen: true},
				{ID: "msg-5", ReservationID: "res-1002", SenderID: "driver-12", Content: "Yes, booked for you.", SentAt: base.Add(5 * time.Minute), Seen: true},
			},
		},
	}
}
