// Package httpserver runs the service's HTTP listener with sane timeouts
// and graceful shutdown. Run blocks until the context is cancelled or an
// interrupt/SIGTERM arrives, then drains in-flight requests within the
// configured shutdown timeout so tenant pools are only closed after the last
// request finished with them.
package httpserver
