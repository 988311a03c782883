// Package source reads line-delimited candidate text from an input
// stream into a pkg/textbuf.Buffer and pkg/itemstore.Store pair.
//
// There is exactly one reader goroutine per Store; it is the sole writer
// spec.md §5 requires for both collaborators.
package source

import (
	"bufio"
	"io"

	"github.com/snapfind/snapfind/pkg/itemstore"
	"github.com/snapfind/snapfind/pkg/textbuf"
)

// maxItemLen is the longest line whose position fields survive a 16-bit
// positions array unclamped, per spec.md §6: "lines exceeding 65535 bytes
// have their positions clamped". The reader itself never rejects a long
// line; it only truncates what it stores so offsets stay representable
// downstream in matcher.Scratch's position buffers.
const maxItemLen = 65535

// Stats reports what a Read call consumed, for diagnostics only.
type Stats struct {
	Lines   uint32
	Dropped uint32 // whitespace-only lines, trimmed away
}

// Read scans r for LF-delimited lines, appending each non-blank line to
// buf and registering it in store, until r is exhausted or ctx-like
// cancellation isn't needed (the reader never blocks on anything but r;
// callers cancel by closing/abandoning r).
//
// A CR immediately before LF is stripped. Lines that are empty or
// all-ASCII-whitespace after trimming are dropped entirely, per spec.md
// §6. I/O errors other than io.EOF stop the scan early and are returned;
// the caller still has every item read so far, matching spec.md §7's
// InputError policy: "I/O errors on stdin terminate the producer but the
// UI continues with items read so far."
func Read(r io.Reader, buf *textbuf.Buffer, store *itemstore.Store) (Stats, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBuffer)

	var stats Stats

	for scanner.Scan() {
		line := trimLine(scanner.Bytes())
		if len(line) == 0 {
			stats.Dropped++
			continue
		}

		if len(line) > maxItemLen {
			line = line[:maxItemLen]
		}

		off, length := buf.AppendRaw(line)
		store.Register(off, length)
		stats.Lines++
	}

	if err := scanner.Err(); err != nil {
		return stats, err
	}

	return stats, nil
}

// maxLineBuffer bounds bufio.Scanner's internal token buffer. Set well
// past maxItemLen since the scanner must buffer a whole overlong line
// before Read can truncate it.
const maxLineBuffer = 16 * 1024 * 1024

// trimLine strips a trailing CR (bufio.ScanLines already stripped the
// LF) and drops the line if it is empty or all ASCII whitespace after
// trimming both ends. A non-blank line is returned with only its
// surrounding CR removed — inner bytes are untouched, matching spec.md
// §6's "whitespace-only lines ... are dropped" (not "trimmed and kept").
func trimLine(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}

	if isBlank(line) {
		return nil
	}

	return line
}

func isBlank(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			continue
		default:
			return false
		}
	}

	return true
}
