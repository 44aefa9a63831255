// Package http provides the HTTP client used for catalog API calls,
// cover-art fetches and streaming media downloads.
//
// The client sets a qobuz-dl User-Agent on every request and applies a
// 60 second timeout. Streaming downloads are opened with Stream, which
// returns the raw body so the transfer layer can copy it in chunks,
// report byte progress, and classify connection-level failures for
// retry.
package http
