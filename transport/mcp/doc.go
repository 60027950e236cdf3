// Package mcp exposes Klondike sessions to AI agents over the Model Context
// Protocol.
//
// Client is a thin proxy: every tool call becomes a request to the REST API
// (see package api), and the answer is rendered as plain text that a language
// model can read. The board is drawn with compact card labels ("10H", "QS"),
// "##" for face-down cards and 1-based pile numbers (T1-T7, F1-F4).
//
// MCP Tools:
//   - create_session, get_session, list_sessions: session management
//   - game_state: current board
//   - new_game, draw, move, undo, auto_complete: game commands
//   - hint: suggested move, including ready-to-use move arguments
//   - move_history: paginated command log
//   - describe_pile: every card of one pile
//   - list_configs, get_stats, game_instructions
//
// A rejected move is not a tool error. The tool answers with the rejection
// reason and the unchanged board so the agent can try again.
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer()) for local MCP clients
//   - HTTP: the main server forwards POST /mcp bodies to HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
