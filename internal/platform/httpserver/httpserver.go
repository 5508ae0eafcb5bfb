package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server with the timeouts goalplan runs with. The
// header timeout bounds slow clients; calculation responses are small, so
// no write timeout is set.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
