package platform

import (
	"context"
	"fmt"
)

const messagesTable = "messages"

// MessagesBetween fetches the full two-party history between a and b,
// ordered by creation time ascending.
func (c *Client) MessagesBetween(ctx context.Context, a, b string) ([]Message, error) {
	var out []Message
	err := c.From(messagesTable).
		Select("*").
		Or(BetweenFilter(a, b)).
		Order("created_at", true).
		Get(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return out, nil
}

// RecentMessagesTouching fetches the newest messages where selfID is
// sender or recipient, newest first. Used to warm the last-activity
// index at session start.
func (c *Client) RecentMessagesTouching(ctx context.Context, selfID string, limit int) ([]Message, error) {
	var out []Message
	err := c.From(messagesTable).
		Select("*").
		Or(fmt.Sprintf("sender_id.eq.%s,recipient_id.eq.%s", selfID, selfID)).
		Order("created_at", false).
		Limit(limit).
		Get(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("fetch recent messages: %w", err)
	}
	return out, nil
}

// InsertMessage submits a send. The store assigns id and created_at;
// the confirmed row arrives through the realtime feed.
func (c *Client) InsertMessage(ctx context.Context, nm NewMessage) error {
	if err := c.From(messagesTable).Insert(ctx, nm); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// UpdateReactions replaces the reactions map of a message row.
func (c *Client) UpdateReactions(ctx context.Context, id MessageID, reactions map[string]string) error {
	patch := map[string]any{"reactions": reactions}
	if err := c.From(messagesTable).Eq("id", string(id)).Update(ctx, patch); err != nil {
		return fmt.Errorf("update reactions: %w", err)
	}
	return nil
}
