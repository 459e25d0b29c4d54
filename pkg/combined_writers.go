package pkg

import (
	"io"
	"os"
	"sync"

	"go.uber.org/multierr"
)

// CombinedWriter fans every write out to all writers, e.g. stdout and a rotated log file.
// A failing writer does not stop the others; their errors are combined.
type CombinedWriter struct {
	mu      sync.Mutex
	writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{
		writers: writers,
	}
}

// Write reports len(p) as written if at least one writer took the whole of p.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	var (
		err     error
		written bool
	)
	for _, w := range cw.writers {
		n, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		if n == len(p) {
			written = true
		}
	}
	if !written {
		return 0, err
	}
	return len(p), err
}

// Close closes the writers that are io.Closers, leaving stdout and stderr open.
func (cw *CombinedWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	var err error
	for _, w := range cw.writers {
		if w == os.Stdout || w == os.Stderr {
			continue
		}
		if c, ok := w.(io.Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
