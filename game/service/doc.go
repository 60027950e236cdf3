// Package service provides the business logic layer for the Klondike server.
//
// The service package implements:
//   - Multi-session game management
//   - Command execution (draw, move, undo, auto-complete, hint)
//   - Per-session command logs with pagination
//   - Game export and import
//   - Win statistics through an optional StatsRecorder
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and persistence.
// ConfigManager manages game configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transports (HTTP/WebSocket/MCP) and the
// engine. Each session owns a GameEngine, which is not safe for concurrent
// use, so every command runs under the session's lock together with the save
// that follows it.
//
// Usage:
//
//	sessionMgr := session.NewManager(persistence)
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr, service.WithStats(tracker))
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, engine.Move{
//		SourceKind: engine.PileWaste,
//		TargetKind: engine.PileFoundation,
//	})
//
// An illegal move is not an error: the result carries Success false and the
// rejection reason.
package service
