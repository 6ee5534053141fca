package stream

import "sync"

// Broadcaster 进程内广播器：订阅者挂接后才收到事件，不回放历史
type Broadcaster[T any] struct {
	mu     sync.RWMutex
	subs   map[chan T]struct{}
	closed bool
}

func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{
		subs: make(map[chan T]struct{}),
	}
}

// Subscribe 返回只读事件通道与退订函数，退订后通道关闭
func (s *Broadcaster[T]) Subscribe(buffer int) (<-chan T, func()) {
	ch := make(chan T, buffer)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	// 通道只由摘除成员表条目的一方关闭，退订与 Close 不会重复关闭
	cancel := func() {
		s.mu.Lock()
		_, present := s.subs[ch]
		delete(s.subs, ch)
		s.mu.Unlock()
		if present {
			close(ch)
		}
	}
	return ch, cancel
}

// Publish 向全部订阅者投递，缓冲满的订阅者丢弃本条，绝不阻塞发布方
func (s *Broadcaster[T]) Publish(event T) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	for ch := range s.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (s *Broadcaster[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
}
