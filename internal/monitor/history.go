package monitor

import "sync"

// DefaultHistorySize is the number of samples kept per series (10 minutes
// at the default 1s refresh).
const DefaultHistorySize = 600

// History stores named metric series in ring buffers for sparklines.
// Series are created on first push.
type History struct {
	mu     sync.RWMutex
	size   int
	series map[string]*ringBuffer
}

// ringBuffer is a fixed-size circular buffer for float64 values.
type ringBuffer struct {
	data  []float64
	head  int
	count int
	size  int
}

// NewHistory creates a history with size samples per series.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		size:   size,
		series: make(map[string]*ringBuffer),
	}
}

// Push appends value to the named series.
func (h *History) Push(name string, value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rb, ok := h.series[name]
	if !ok {
		rb = newRingBuffer(h.size)
		h.series[name] = rb
	}
	rb.push(value)
}

// Get returns up to the last count values of a series, oldest first.
// A count <= 0 returns the whole series.
func (h *History) Get(name string, count int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rb, ok := h.series[name]
	if !ok {
		return nil
	}
	if count <= 0 {
		return rb.getAll()
	}
	return rb.getLast(count)
}

// Latest returns the most recent value of a series.
func (h *History) Latest(name string) (float64, bool) {
	values := h.Get(name, 1)
	if len(values) == 0 {
		return 0, false
	}
	return values[0], true
}

// Len reports how many samples a series holds.
func (h *History) Len(name string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if rb, ok := h.series[name]; ok {
		return rb.count
	}
	return 0
}

// Drop forgets a series.
func (h *History) Drop(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.series, name)
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		data: make([]float64, size),
		size: size,
	}
}

func (r *ringBuffer) push(value float64) {
	r.data[r.head] = value
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// getLast returns the last count values in chronological order.
func (r *ringBuffer) getLast(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}
	if count > r.count {
		count = r.count
	}

	result := make([]float64, count)
	// head is the next write position, so the newest value is at head-1.
	start := (r.head - count + r.size) % r.size
	for i := 0; i < count; i++ {
		result[i] = r.data[(start+i)%r.size]
	}
	return result
}

func (r *ringBuffer) getAll() []float64 {
	return r.getLast(r.count)
}
