// Package requestid attaches correlation identifiers to HTTP requests so
// log records from the authentication gate and the pool manager can be tied
// back to a single client interaction.
//
// The middleware reuses a valid client-supplied X-Request-ID header or
// generates a UUIDv4, stores the id in the request context, and echoes it in
// the response. LoggerExtractor plugs the id into the slog handler chain.
package requestid
