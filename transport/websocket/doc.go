// Package websocket pushes live game updates to browsers and other listeners.
//
// A central Hub tracks the clients subscribed to each session. Every command
// executed through the REST API is broadcast to that session's clients as a
// JSON Message carrying the new game state, the command's message and its
// events (move, foundation, flip, victory, ...).
//
// Message Protocol:
//
//   - On connect: {"session_id": "ab12", "event": "connected", "game_state": {...}}
//   - After each command: {"session_id": "ab12", "event": "state_update", "game_state": {...}, "message": "...", "events": [...]}
//
// Clients only listen. Incoming frames are read and discarded to keep the
// connection alive.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	hub.ServeWS(w, r, sessionID, currentState)
//	hub.BroadcastResult(sessionID, result)
//
// Concurrency:
//
// Broadcasts are queued to the Run goroutine and never block the caller; when
// the queue is full the update is dropped. A client that cannot keep up is
// disconnected.
package websocket
