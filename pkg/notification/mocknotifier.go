package notification

import "sync"

// SentNotice records one notification delivered through a MockNotifier
type SentNotice struct {
	NoticeType NoticeType
	Data       NotificationData
	Template   NoticeTemplate
}

// MockNotifier records notifications instead of delivering them, for tests
type MockNotifier struct {
	mutex sync.Mutex
	sent  []SentNotice

	// FailWith, when set, is returned by Send without recording
	FailWith error
}

// NewMockNotifier creates a new recording notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Send implements Notifier
func (m *MockNotifier) Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	m.sent = append(m.sent, SentNotice{NoticeType: noticeType, Data: notification, Template: template})
	return nil
}

// Sent returns a copy of all recorded notifications
func (m *MockNotifier) Sent() []SentNotice {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	out := make([]SentNotice, len(m.sent))
	copy(out, m.sent)
	return out
}

// Last returns the most recently recorded notification, if any
func (m *MockNotifier) Last() (SentNotice, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if len(m.sent) == 0 {
		return SentNotice{}, false
	}
	return m.sent[len(m.sent)-1], true
}
