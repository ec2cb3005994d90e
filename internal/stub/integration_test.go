package stub_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridepool/internal/api"
	"ridepool/internal/domain/chat"
	"ridepool/internal/live"
	"ridepool/internal/store"
	"ridepool/internal/stub"
)

const testToken = "it-token"

type harness struct {
	srv    *httptest.Server
	hub    *stub.Hub
	client *api.Client
}

func newHarness(t *testing.T, pageSize int, fixtures []stub.Fixture) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	state := stub.NewState(pageSize)
	state.Seed(fixtures)
	hub := stub.NewHub(nil)
	t.Cleanup(hub.Close)

	srv := httptest.NewServer(stub.NewRouter(state, hub, []string{testToken}, nil))
	t.Cleanup(srv.Close)

	client, err := api.NewClient(api.Config{BaseURL: srv.URL, Token: testToken}, nil)
	require.NoError(t, err)
	return &harness{srv: srv, hub: hub, client: client}
}

func fixtures(pageSize int) []stub.Fixture {
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	history := make([]chat.Message, 0, pageSize+2)
	for i := 1; i <= pageSize+2; i++ {
		history = append(history, chat.Message{
			ID:            "h" + string(rune('0'+i)),
			ReservationID: "res-42",
			SenderID:      "driver-9",
			Content:       "msg",
			SentAt:        base.Add(time.Duration(i) * time.Minute),
		})
	}
	return []stub.Fixture{
		{
			Conversation: chat.Conversation{ReservationID: "res-42", CounterpartName: "Driver", HasUnseen: true},
			Messages:     history,
		},
		{
			Conversation: chat.Conversation{ReservationID: "res-43", CounterpartName: "Passenger"},
			Messages: []chat.Message{{
				ID: "x1", ReservationID: "res-43", SenderID: "me", Content: "hi", SentAt: base, Seen: true,
			}},
		},
	}
}

func TestEndToEndChatFlow(t *testing.T) {
	const pageSize = 3
	h := newHarness(t, pageSize, fixtures(pageSize))
	ctx := context.Background()

	conversations := store.NewConversationStore(h.client, nil)
	feed := store.NewFeedStore(h.client, conversations, pageSize, nil)
	seen := store.NewSeenSync(h.client, feed, conversations, nil)

	hasNext, err := conversations.Load(ctx, 1)
	require.NoError(t, err)
	assert.False(t, hasNext)
	require.Len(t, conversations.Conversations(), 2)
	assert.Equal(t, 1, conversations.UnreadCount())

	// Open the unread conversation: newest page first, then older
	// history prepended, display order always oldest to newest.
	require.NoError(t, feed.Load(ctx, "res-42", 1))
	require.True(t, feed.HasNext())
	require.NoError(t, feed.Load(ctx, "res-42", 2))

	messages := feed.Messages()
	require.Len(t, messages, pageSize+2)
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].SentAt.Before(messages[i-1].SentAt))
	}
	assert.False(t, feed.HasNext(), "short second page terminates paging")

	require.NoError(t, seen.MarkAllSeen(ctx, "res-42"))
	assert.Equal(t, 0, conversations.UnreadCount())
	for _, m := range feed.Messages() {
		assert.True(t, m.Seen)
	}

	sent, err := feed.Send(ctx, "res-42", "thanks for the ride")
	require.NoError(t, err)
	assert.NotEmpty(t, sent.ID)
	tail := feed.Messages()
	assert.Equal(t, sent.ID, tail[len(tail)-1].ID)

	// The list preview reflects the send without any refetch.
	for _, conv := range conversations.Conversations() {
		if conv.ReservationID == "res-42" {
			assert.Equal(t, "thanks for the ride", conv.LastMessage.Content)
		}
	}
}

func TestRejectsBadCredential(t *testing.T) {
	h := newHarness(t, 3, fixtures(3))
	bad, err := api.NewClient(api.Config{BaseURL: h.srv.URL, Token: "wrong"}, nil)
	require.NoError(t, err)

	_, err = bad.ListConversations(context.Background(), 1)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
}

func TestLiveChannelDeliversScriptedOutcome(t *testing.T) {
	h := newHarness(t, 3, fixtures(3))

	watcher, err := live.Watch(live.Config{
		URL:           "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/live",
		Token:         testToken,
		ReservationID: "res-42",
	}, nil)
	require.NoError(t, err)
	defer watcher.Close()

	// Give the hub a beat to register the socket before emitting.
	require.Eventually(t, func() bool {
		h.hub.EmitStatus("res-99", live.OutcomeCompleted) // foreign id, ignored
		h.hub.EmitStatus("res-42", live.OutcomeCompleted)
		return watcher.Status() == live.StatusSucceeded
	}, 2*time.Second, 20*time.Millisecond)

	select {
	case status := <-watcher.Outcome():
		assert.Equal(t, live.StatusSucceeded, status)
	default:
		t.Fatal("outcome channel empty after terminal status")
	}
}
