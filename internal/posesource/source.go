// Package posesource provides keypoint frames to the client-side poller.
package posesource

import (
	"context"
	"errors"

	"github.com/2beens/formcheck/internal/formcheck"
)

// ErrNoNewFrame is returned when the provider has nothing newer than the last frame.
var ErrNoNewFrame = errors.New("no new frame")

// Source yields keypoint frames; io.EOF marks the end of the stream.
type Source interface {
	Next(ctx context.Context) (formcheck.Frame, error)
}
