package httpserver

import "time"

// ShutdownTimeout bounds the graceful shutdown of the HTTP server and of the
// background workers drained after it.
var ShutdownTimeout = 10 * time.Second
