// Package server exposes the grid engine to browser clients over WebSocket.
//
// Every connection gets its own session with an independent grid built from
// a shared RowSource. Clients send JSON messages (see package protocol) and
// receive the derived view after each change, preceded by any events the
// change produced.
//
// # Routes
//
//	/ws         WebSocket grid session
//	/api/rows   current rows as JSON
//	/api/view   one-shot view: ?filter=text&sort=column:asc&group=column
//	/healthz    liveness and session count
//
// # Debouncing
//
// filter-input messages go through a per-session debouncer and only the
// last value of a burst is applied. set-filter applies immediately and
// drops any pending filter-input.
//
// # Concurrency
//
// A session's grid is only touched with the session mutex held. Socket
// writes happen on a single writePump goroutine fed by a buffered channel.
package server
