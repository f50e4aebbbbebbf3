package transport

import (
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// ErrClosed is returned when bus is used after Close.
var ErrClosed = errors.New("transport closed")

// Memory is in-process bus. Every subscription has its own delivery
// goroutine, payloads are delivered in publishing order.
type Memory struct {
	log    *zap.Logger
	mu     sync.Mutex
	subs   map[string][]*subscription
	closed bool
}

type subscription struct {
	handler func([]byte)
	mu      sync.Mutex
	cond    *sync.Cond
	queue   [][]byte
	stopped bool
}

// NewMemory creates in-process bus.
func NewMemory(log *zap.Logger) *Memory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Memory{
		log:  log.Named("memory-bus"),
		subs: make(map[string][]*subscription),
	}
}

// Send queues payload for every subscriber of event. Never blocks on slow
// subscribers.
func (m *Memory) Send(event string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for _, s := range m.subs[event] {
		s.push(slices.Clone(payload))
	}
	return nil
}

// Subscribe registers handler for event.
func (m *Memory) Subscribe(event string, handler func([]byte)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	s := &subscription{handler: handler}
	s.cond = sync.NewCond(&s.mu)
	m.subs[event] = append(m.subs[event], s)
	go s.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			m.subs[event] = slices.DeleteFunc(m.subs[event], func(e *subscription) bool { return e == s })
			m.mu.Unlock()
			s.stop()
		})
	}, nil
}

// Close stops all subscriptions.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, subs := range m.subs {
		for _, s := range subs {
			s.stop()
		}
	}
	clear(m.subs)
	m.log.Debug("Memory bus closed")
	return nil
}

func (s *subscription) push(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.queue = append(s.queue, payload)
	s.cond.Signal()
}

// stop ends delivery, pending payloads are dropped. Handler call in
// progress is not interrupted.
func (s *subscription) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.cond.Signal()
}

func (s *subscription) run() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.stopped {
			s.cond.Wait()
		}
		if s.stopped {
			s.mu.Unlock()
			return
		}
		payload := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.handler(payload)
	}
}
