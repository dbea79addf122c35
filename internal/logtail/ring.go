package logtail

// ring is a fixed-capacity FIFO of log lines that drops the oldest on overflow.
// The owning Tail serializes access.
type ring struct {
	buf      []string
	capacity int
	head     int // next write position
	count    int
	dropped  int // lines overwritten since creation
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{
		buf:      make([]string, capacity),
		capacity: capacity,
	}
}

func (r *ring) push(line string) {
	if r.count == r.capacity {
		// Overwrite oldest: head is already pointing at it
		r.buf[r.head] = line
		r.head = (r.head + 1) % r.capacity
		r.dropped++
		return
	}
	r.buf[r.head] = line
	r.head = (r.head + 1) % r.capacity
	r.count++
}

// lines returns the buffered lines, oldest first, without draining.
func (r *ring) lines() []string {
	if r.count == 0 {
		return nil
	}

	result := make([]string, r.count)
	// Oldest item is at (head - count) mod capacity
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		result[i] = r.buf[(start+i)%r.capacity]
	}
	return result
}

func (r *ring) len() int {
	return r.count
}
