package eventlog

import "sync"

// Buffer fans appended entries out to live subscribers and keeps a bounded
// tail for replay. Durable replay-from-start is served by the store; the
// buffer only covers the live edge.
type Buffer struct {
	mu       sync.Mutex
	max      int
	entries  []Entry
	watchers map[chan Entry]struct{}
	closed   bool
}

func NewBuffer(max int) *Buffer {
	if max <= 0 {
		max = 500
	}
	return &Buffer{
		max:      max,
		watchers: map[chan Entry]struct{}{},
	}
}

func (b *Buffer) Publish(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.entries = append(b.entries, e)
	if len(b.entries) > b.max {
		b.entries = b.entries[len(b.entries)-b.max:]
	}
	for ch := range b.watchers {
		select {
		case ch <- e:
		default:
		}
	}
}

// ReplayAfter returns buffered entries with Seq > afterSeq, oldest first.
func (b *Buffer) ReplayAfter(afterSeq int64) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		if e.Seq > afterSeq {
			out = append(out, e)
		}
	}
	return out
}

func (b *Buffer) Subscribe() chan Entry {
	ch := make(chan Entry, 32)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.watchers[ch] = struct{}{}
	return ch
}

func (b *Buffer) Unsubscribe(ch chan Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watchers[ch]; ok {
		delete(b.watchers, ch)
		close(ch)
	}
}

func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.watchers {
		close(ch)
		delete(b.watchers, ch)
	}
}
