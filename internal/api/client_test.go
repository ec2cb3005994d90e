package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridepool/internal/domain/chat"
)

func TestClientRequestShape(t *testing.T) {
	var got *http.Request
	var body struct {
		Content string `json:"content"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chat.Message{
			ID:            "m9",
			ReservationID: "res 7",
			Content:       body.Content,
			SentAt:        time.Now().UTC(),
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, Token: "tok"}, nil)
	require.NoError(t, err)

	message, err := client.SendMessage(context.Background(), "res 7", "hello there")
	require.NoError(t, err)
	assert.Equal(t, "m9", message.ID)
	assert.Equal(t, "hello there", body.Content)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/messages/res%207", got.URL.EscapedPath(), "reservation id must be path-escaped")
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
}

func TestClientListConversations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations/2", r.URL.Path)
		_ = json.NewEncoder(w).Encode(ConversationPage{
			Items:       []chat.Conversation{{ReservationID: "r1"}},
			HasNextPage: true,
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	page, err := client.ListConversations(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, page.HasNextPage)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "r1", page.Items[0].ReservationID)
}

func TestClientSurfacesStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"conversation not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = client.ListMessages(context.Background(), "res-1", 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, apiErr.Body, "conversation not found")
}

func TestClientMarkCallsHaveNoBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	assert.NoError(t, client.MarkSeen(context.Background(), "m1"))
	assert.NoError(t, client.MarkAllSeen(context.Background(), "res-1"))
}

func TestClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	assert.Error(t, err)
}
