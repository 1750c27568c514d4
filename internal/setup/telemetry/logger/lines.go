package logger

// lineBuffer keeps the most recent lines written to a log file.
type lineBuffer struct {
	lines    []string
	head     int // next write position
	size     int
	sinceCut int // lines added since the file was last trimmed
}

func newLineBuffer(capacity int) *lineBuffer {
	return &lineBuffer{lines: make([]string, capacity)}
}

func (b *lineBuffer) add(line string) {
	b.lines[b.head] = line
	b.head = (b.head + 1) % len(b.lines)
	if b.size < len(b.lines) {
		b.size++
	}
	b.sinceCut++
}

// snapshot returns the kept lines oldest first.
func (b *lineBuffer) snapshot() []string {
	if b.size == 0 {
		return nil
	}

	result := make([]string, b.size)
	start := (b.head - b.size + len(b.lines)) % len(b.lines)
	for i := range b.size {
		result[i] = b.lines[(start+i)%len(b.lines)]
	}

	return result
}
