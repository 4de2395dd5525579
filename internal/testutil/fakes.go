package testutil

import (
	"context"
	"errors"
	"sync"
	"time"
)

// WindowStore counts keys in memory. Expiry is ignored; limiter keys carry the window start.
type WindowStore struct {
	mu     sync.Mutex
	counts map[string]int64
	Err    error
}

func NewWindowStore() *WindowStore {
	return &WindowStore{counts: map[string]int64{}}
}

func (s *WindowStore) Incr(_ context.Context, key string, _ time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	s.counts[key]++
	return s.counts[key], nil
}

// Queue records published stream entries.
type Queue struct {
	mu       sync.Mutex
	Messages []map[string]interface{}
	FailAt   int
}

var ErrQueueFull = errors.New("queue full")

func (q *Queue) Publish(_ context.Context, values map[string]interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.FailAt > 0 && len(q.Messages)+1 == q.FailAt {
		return ErrQueueFull
	}
	q.Messages = append(q.Messages, values)
	return nil
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.Messages)
}

// Mailer records verification links instead of sending them.
type Mailer struct {
	mu    sync.Mutex
	Links map[string]string
	Err   error
}

func NewMailer() *Mailer {
	return &Mailer{Links: map[string]string{}}
}

func (m *Mailer) SendVerification(_ context.Context, to, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Links[to] = link
	return nil
}
