package httpserver

import (
	"net/http"
	"time"
)

// readHeaderTimeout bounds how long a client may take to send request
// headers, closing slow-loris connections early. No write timeout: the
// admin rebuild endpoint legitimately holds its response until the pass
// finishes.
const readHeaderTimeout = 5 * time.Second

// New returns the process HTTP server. Lifecycle (ListenAndServe,
// Shutdown) stays with the caller.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
