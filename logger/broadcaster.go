package logger

import (
	"io"
	"os"
	"sync"
)

// Broadcaster is an io.Writer that mirrors log output to stdout and to any
// subscribed channels (used by the admin websocket log stream).
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[chan string]bool
}

// NewBroadcaster creates an empty broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan string]bool),
	}
}

func (b *Broadcaster) Write(p []byte) (n int, err error) {
	msg := string(p)

	os.Stdout.Write(p)

	b.mu.Lock()
	for ch := range b.subscribers {
		// Non-blocking send so a slow websocket reader never stalls logging
		select {
		case ch <- msg:
		default:
		}
	}
	b.mu.Unlock()

	return len(p), nil
}

// Subscribe registers a new channel that receives every log line
func (b *Broadcaster) Subscribe() chan string {
	ch := make(chan string, 100)
	b.mu.Lock()
	b.subscribers[ch] = true
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel and closes it
func (b *Broadcaster) Unsubscribe(ch chan string) {
	b.mu.Lock()
	delete(b.subscribers, ch)
	b.mu.Unlock()
	close(ch)
}

var _ io.Writer = (*Broadcaster)(nil)
