package store

import (
	"context"
	"log/slog"

	"ridepool/internal/api"
)

// SeenSync reconciles local seen flags with the server. The server is
// always told first; local state flips only after confirmation, so the
// client never shows "seen" the server did not record.
type SeenSync struct {
	gw            api.Gateway
	feed          *FeedStore
	conversations *ConversationStore
	logger        *slog.Logger
}

// NewSeenSync wires the synchronizer to the stores it reconciles.
func NewSeenSync(gw api.Gateway, feed *FeedStore, conversations *ConversationStore, logger *slog.Logger) *SeenSync {
	return &SeenSync{gw: gw, feed: feed, conversations: conversations, logger: logger}
}

// MarkSeen records one message as viewed. Repeating the call for an
// already-seen message is a no-op for the caller.
func (s *SeenSync) MarkSeen(ctx context.Context, messageID string) error {
	if err := s.gw.MarkSeen(ctx, messageID); err != nil {
		if s.logger != nil {
			s.logger.Error("mark seen failed", "message_id", messageID, "error", err)
		}
		return err
	}
	if s.feed != nil {
		s.feed.markSeen(messageID)
	}
	return nil
}

// MarkAllSeen records a whole conversation as viewed: the unseen badge
// on the list entry is cleared and every loaded feed message flips to
// seen. Called when a conversation is opened.
func (s *SeenSync) MarkAllSeen(ctx context.Context, reservationID string) error {
	if err := s.gw.MarkAllSeen(ctx, reservationID); err != nil {
		if s.logger != nil {
			s.logger.Error("mark all seen failed", "reservation_id", reservationID, "error", err)
		}
		return err
	}
	if s.feed != nil {
		s.feed.markAllSeen(reservationID)
	}
	if s.conversations != nil {
		s.conversations.clearUnseen(reservationID)
	}
	return nil
}
