package sms

import (
	"context"
	"log/slog"
	"sync"
)

// LogSender records messages instead of sending them. Used when no gateway
// is configured.
type LogSender struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []Message
}

type Message struct {
	Phone string
	Text  string
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, phone, text string) error {
	to, err := NormalizePhone(phone)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sent = append(s.sent, Message{Phone: to, Text: text})
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.InfoContext(ctx, "sms not sent, no gateway configured", "to", maskPhone(to))
	}
	return nil
}

// Sent returns the recorded messages.
func (s *LogSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}
