package api

import (
	"context"
	"strconv"
	"sync"

	"github.com/eventplaza/eventplaza/pkg/mail"
)

// stubMailer records outbound messages instead of delivering them. Setting
// err makes every Send fail with it.
type stubMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	err      error
}

func (m *stubMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *stubMailer) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *stubMailer) sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]mail.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
