package posesource

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/2beens/formcheck/internal/formcheck"
)

const maxLineBytes = 1024 * 1024

// FileSource replays frames stored as JSON lines, one frame per line.
type FileSource struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

func NewFileSource(r io.Reader) *FileSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &FileSource{
		scanner: scanner,
	}
}

func OpenFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frames file: %w", err)
	}
	src := NewFileSource(f)
	src.closer = f
	return src, nil
}

// Next returns the next frame. Blank lines are skipped; a malformed line is
// reported with its line number and the replay continues on the next call.
func (s *FileSource) Next(ctx context.Context) (formcheck.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return formcheck.Frame{}, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return formcheck.Frame{}, fmt.Errorf("read frames: %w", err)
			}
			return formcheck.Frame{}, io.EOF
		}
		s.line++

		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var frame formcheck.Frame
		if err := json.Unmarshal(line, &frame); err != nil {
			return formcheck.Frame{}, fmt.Errorf("line %d: %w", s.line, err)
		}
		return frame, nil
	}
}

func (s *FileSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
