package main

import "sync"

// logBuffer keeps a fixed amount of most recent log messages for the debug ui
type logBuffer struct {
	mu    sync.Mutex
	data  [][]byte
	next  int
	count int
}

func newLogBuffer(size int) *logBuffer {
	if size < 1 {
		size = 1
	}
	return &logBuffer{data: make([][]byte, size)}
}

func (b *logBuffer) WriteMessage(msg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[b.next] = msg
	b.next = (b.next + 1) % len(b.data)
	if b.count < len(b.data) {
		b.count++
	}
}

// ReadLastMessages returns up to n newest messages, oldest first
func (b *logBuffer) ReadLastMessages(n int) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > b.count {
		n = b.count
	}
	if n <= 0 {
		return nil
	}

	out := make([][]byte, 0, n)
	start := b.next - n
	if start < 0 {
		start += len(b.data)
	}
	for i := 0; i < n; i++ {
		out = append(out, b.data[(start+i)%len(b.data)])
	}
	return out
}
