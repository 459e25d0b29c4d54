package middleware

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// maxDrainBytes bounds how much of an unread body is discarded; the rest is
// left to Close.
const maxDrainBytes = 256 << 10

// DrainAndCloseRequest discards what the handler left unread in the request
// body (up to maxDrainBytes) and closes it.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil || r.Body == http.NoBody {
				return
			}
			drained, err := io.CopyN(io.Discard, r.Body, maxDrainBytes)
			if err == nil {
				log.Tracef("%s %s: unread body over %d bytes, closing without full drain", r.Method, r.URL.Path, drained)
			}
			_ = r.Body.Close()
		})
	}
}
