package playback

import (
	"strings"
	"sync"

	"github.com/rivo/uniseg"
)

// Buffer accumulates the text received for one session together with the
// reveal cursor. Lengths and positions count user-perceived characters
// (grapheme clusters), so a reveal never splits an emoji or a base letter
// from its combining marks.
//
// Every method takes the same mutex: the writer and the reader never observe
// a length that disagrees with the content.
type Buffer struct {
	mu      sync.Mutex
	text    strings.Builder
	ends    []int // byte offset where each grapheme cluster ends
	cursor  int   // clusters revealed so far; 0 <= cursor <= len(ends)
	changed chan struct{}
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{changed: make(chan struct{})}
}

// Append adds a fragment to the end of the buffer and returns the new length.
func (b *Buffer) Append(fragment string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fragment == "" {
		return len(b.ends)
	}

	// The last cluster may continue into the fragment (combining marks,
	// zero-width joiners), so segment again from its first byte. A revealed
	// cluster is already on screen and keeps its boundary; a joining mark
	// after it starts a cluster of its own.
	start := 0
	if n := len(b.ends); n > 0 {
		if b.cursor == n {
			start = b.ends[n-1]
		} else {
			if n > 1 {
				start = b.ends[n-2]
			}
			b.ends = b.ends[:n-1]
		}
	}
	b.text.WriteString(fragment)

	rest := b.text.String()[start:]
	offset := start
	state := -1
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		offset += len(cluster)
		b.ends = append(b.ends, offset)
	}
	b.notifyLocked()
	return len(b.ends)
}

// Reveal advances the cursor by at most n characters, never past the current
// length. It returns the revealed prefix and whether the cursor moved.
func (b *Buffer) Reveal(n int) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	target := min(b.cursor+max(n, 0), len(b.ends))
	if target <= b.cursor {
		return b.prefixLocked(b.cursor), false
	}
	b.cursor = target
	b.notifyLocked()
	return b.prefixLocked(target), true
}

// Revealed returns the prefix up to the cursor.
func (b *Buffer) Revealed() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.prefixLocked(b.cursor)
}

// String returns the full buffered text.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text.String()
}

// Len returns the number of buffered characters.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ends)
}

// Cursor returns the number of revealed characters.
func (b *Buffer) Cursor() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// Ahead returns the number of buffered characters not yet revealed.
func (b *Buffer) Ahead() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ends) - b.cursor
}

// Changed returns a channel that is closed by the next mutation. Callers take
// the channel before inspecting the buffer so no change is missed.
func (b *Buffer) Changed() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.changed
}

// Reset discards all text and rewinds the cursor.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text.Reset()
	b.ends = nil
	b.cursor = 0
	b.notifyLocked()
}

func (b *Buffer) prefixLocked(n int) string {
	if n == 0 {
		return ""
	}
	return b.text.String()[:b.ends[n-1]]
}

func (b *Buffer) notifyLocked() {
	close(b.changed)
	b.changed = make(chan struct{})
}
