// Package session provides session management for the Klondike server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session persistence to files or Redis
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// It implements service.SessionManager. Each session owns its own engine, a
// game ID for the current deal and a command log.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. IDs are
// case-insensitive and generated with cryptographic randomness.
//
// Persistence:
//
// FilePersistence writes one JSON record per session and RedisPersistence
// stores the same record under a key prefix. Records hold the engine's
// versioned game blob. A blob that no longer loads is replaced by a fresh
// deal and a warning is logged. Undo history is never persisted.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", configManager)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", "classic", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Concurrency:
//
// The manager's map is guarded internally. Game commands and Save must run
// with the session's own lock held.
package session
