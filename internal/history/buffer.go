// Package history keeps the rolling strip-chart data: one byte per render
// tick, stored in a bounded ring.
package history

// Buffer is an append-only sequence of chart values. Len counts every append
// ever made; only the most recent entries up to the retain limit are kept in
// memory. Buffer is owned by the render loop and is not safe for concurrent
// use.
type Buffer struct {
	ring  []uint8
	next  int
	total int
}

// New returns a Buffer that retains the last retain entries. retain values
// below 1 are treated as 1.
func New(retain int) *Buffer {
	if retain < 1 {
		retain = 1
	}
	return &Buffer{ring: make([]uint8, 0, retain)}
}

// Append adds one entry, evicting the oldest retained entry when full.
func (b *Buffer) Append(v uint8) {
	b.total++
	if len(b.ring) < cap(b.ring) {
		b.ring = append(b.ring, v)
		return
	}
	b.ring[b.next] = v
	b.next = (b.next + 1) % len(b.ring)
}

// Len returns the number of appends made so far.
func (b *Buffer) Len() int {
	return b.total
}

// Retained returns how many entries are held in memory.
func (b *Buffer) Retained() int {
	return len(b.ring)
}

// Window returns a copy of the last n entries, oldest first. Fewer are
// returned when fewer are retained.
func (b *Buffer) Window(n int) []uint8 {
	if n > len(b.ring) {
		n = len(b.ring)
	}
	if n <= 0 {
		return []uint8{}
	}
	out := make([]uint8, n)
	// b.next is the oldest slot once the ring has wrapped, and 0 before.
	start := (b.next + len(b.ring) - n) % len(b.ring)
	for i := range out {
		out[i] = b.ring[(start+i)%len(b.ring)]
	}
	return out
}
