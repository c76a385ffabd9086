package testutil

import "sync"

// Mail is one message captured by MemoryMailer.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// MemoryMailer records sent mail instead of delivering it. Safe for
// concurrent use.
type MemoryMailer struct {
	mu   sync.Mutex
	sent []Mail
}

func NewMemoryMailer() *MemoryMailer {
	return &MemoryMailer{}
}

func (m *MemoryMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Mail{To: to, Subject: subject, Body: body})
	return nil
}

// Sent returns a copy of all captured mail.
func (m *MemoryMailer) Sent() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.sent...)
}
