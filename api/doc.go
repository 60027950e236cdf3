// Package api provides the HTTP REST API for Klondike sessions.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"config_id": "easy"}, body optional)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Session details including the current board
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Commands:
//   - GET /api/sessions/{id}/state - Current board
//   - POST /api/sessions/{id}/new-game - Deal again ({"difficulty": "hard"}, optional)
//   - POST /api/sessions/{id}/draw - Draw from stock, or recycle the waste
//   - POST /api/sessions/{id}/move - Move cards between piles
//   - POST /api/sessions/{id}/undo - Revert the last change
//   - POST /api/sessions/{id}/auto-complete - Move every safe card to the foundations
//   - POST /api/sessions/{id}/tick - Advance the game clock ({"seconds": N}, default 1, at most 3600)
//   - GET /api/sessions/{id}/hint - Suggest a move
//   - GET /api/sessions/{id}/history - Command log (?page=1&limit=20&order=desc)
//   - GET /api/sessions/{id}/export - Download the saved-game blob
//   - POST /api/sessions/{id}/import - Replace the game with an uploaded blob
//
// Configuration:
//   - GET /api/configs - List configurations
//   - GET /api/configs/{name} - Read one configuration
//   - POST /api/configs - Save a configuration
//
// Other:
//   - GET /api/stats - Cross-session statistics
//   - GET /health - Liveness probe
//   - GET /ws?session={id} - WebSocket live updates
//
// A move request names the source and target piles:
//
//	{
//	  "source_kind": "tableau",
//	  "source_index": 2,
//	  "card_count": 3,
//	  "target_kind": "tableau",
//	  "target_index": 5
//	}
//
// Commands answer with the action result: success flag, new board, message,
// events and whether undo is available. A rejected move answers 422 with the
// same body and the rejection reason, leaving the board unchanged.
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes:
//
//	{
//	  "error": "error message",
//	  "code": 404
//	}
package api
