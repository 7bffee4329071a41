// Package flash keeps one-shot user messages in the session until the next
// rendered page shows them.
package flash

import (
	"context"
	"encoding/json"

	"go-blog-app/internal/session"
)

// Level styles a message.
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

// Message is a single flash message.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Add queues a message for the next rendered page.
func Add(ctx context.Context, sm session.Manager, level Level, text string) {
	msgs := peek(ctx, sm)
	msgs = append(msgs, Message{Level: level, Text: text})
	raw, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	sm.Put(ctx, session.FlashKey, string(raw))
}

// Pop returns the queued messages and clears them.
func Pop(ctx context.Context, sm session.Manager) []Message {
	raw := sm.PopString(ctx, session.FlashKey)
	return decode(raw)
}

func peek(ctx context.Context, sm session.Manager) []Message {
	return decode(sm.GetString(ctx, session.FlashKey))
}

func decode(raw string) []Message {
	if raw == "" {
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil
	}
	return msgs
}
