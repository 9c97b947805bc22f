package email

import (
	"context"
	"strings"
	"sync"

	"coursedelivery/logger"
)

// keepSent bounds the copies a ConsoleMailer holds.
const keepSent = 100

// ConsoleMailer logs message headers instead of sending them and keeps the
// most recent copies, which is what tests read codes back from. Bodies are
// never logged since they carry sign-in codes.
type ConsoleMailer struct {
	log  *logger.Logger
	mu   sync.Mutex
	sent []Message
	Fail error // returned by Send when set
}

func NewConsoleMailer(log *logger.Logger) *ConsoleMailer {
	return &ConsoleMailer{log: log}
}

func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	if m.Fail != nil {
		return m.Fail
	}
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	if over := len(m.sent) - keepSent; over > 0 {
		m.sent = append([]Message(nil), m.sent[over:]...)
	}
	m.mu.Unlock()

	m.log.Info("Email sent to console", "subject", msg.Subject, "recipient_email", msg.To)
	return nil
}

func (m *ConsoleMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

// Last returns the most recent message to addr, compared case-insensitively.
func (m *ConsoleMailer) Last(addr string) (Message, bool) {
	addr = strings.TrimSpace(addr)
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if strings.EqualFold(m.sent[i].To, addr) {
			return m.sent[i], true
		}
	}
	return Message{}, false
}
