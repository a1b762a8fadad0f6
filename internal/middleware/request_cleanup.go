package middleware

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// maxDrainBytes bounds how much of an unread request body gets discarded.
// Anything bigger is just closed, the connection won't be reused then.
const maxDrainBytes = 256 << 10

// DrainAndCloseRequest discards what the handler left unread in the body and closes it.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil || r.Body == http.NoBody {
				return
			}

			if _, err := io.CopyN(io.Discard, r.Body, maxDrainBytes); err == nil {
				log.Debugf("%s %s: body left unread past %d bytes", r.Method, r.URL.Path, maxDrainBytes)
			}
			if err := r.Body.Close(); err != nil {
				log.Tracef("close request body: %s", err)
			}
		})
	}
}
