package emailsvc

import (
	"context"
	"errors"
	"sync"

	"github.com/trezcool/academia/core"
)

// ErrMockDelivery is returned by Mock for the recipients it is told to fail.
var ErrMockDelivery = errors.New("mock delivery failure")

// Mock records messages instead of sending them. It is safe for concurrent use.
type Mock struct {
	mu      sync.Mutex
	failFor map[string]struct{}
	sent    []core.EmailMessage
	calls   int
}

var _ core.EmailService = (*Mock)(nil)

// NewMock returns a Mock failing every delivery to one of `failFor`.
func NewMock(failFor ...string) *Mock {
	m := &Mock{failFor: make(map[string]struct{}, len(failFor))}
	for _, addr := range failFor {
		m.failFor[addr] = struct{}{}
	}
	return m
}

func (m *Mock) Send(ctx context.Context, msg *core.EmailMessage) error {
	recipient := firstRecipient(msg)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if err := ctx.Err(); err != nil {
		return core.NewDeliveryError(recipient, err)
	}
	if _, ok := m.failFor[recipient]; ok {
		return core.NewDeliveryError(recipient, ErrMockDelivery)
	}
	if err := msg.Render(""); err != nil {
		return core.NewDeliveryError(recipient, err)
	}
	m.sent = append(m.sent, *msg)
	return nil
}

// Calls returns the number of Send invocations.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Sent returns a copy of the delivered messages.
func (m *Mock) Sent() []core.EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.EmailMessage(nil), m.sent...)
}
