package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/klondike/game/engine"
	"github.com/wricardo/mcp-training/klondike/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// APIError is a non-2xx answer from the REST API
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API error: %d", e.Status)
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Klondike Solitaire",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Klondike Solitaire - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Build all four foundations from Ace to King, one suit per foundation.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage games
- game_state: show the board
- draw: turn cards from the stock, or recycle the waste when the stock is empty
- move: move cards between piles - requires intent explanation
- undo: revert the last change (up to 10 steps)
- auto_complete: move top cards to the foundations until none fit
- hint: suggest a move
- new_game: deal again, optionally switching difficulty
- move_history: view past commands
- describe_pile: list every card of one pile
- list_configs, get_stats, game_instructions

Piles are numbered from 1 in tool arguments and in the board display.`),
	)

	c.registerTools()
}

func sessionProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func sessionOnly() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{"session_id": sessionProp()},
		Required:   []string{"session_id"},
	}
}

var pileKinds = []string{
	string(engine.PileStock),
	string(engine.PileWaste),
	string(engine.PileFoundation),
	string(engine.PileTableau),
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Config to use, see list_configs (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionOnly(),
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board",
		InputSchema: sessionOnly(),
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Deal a new game in the session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"difficulty": map[string]interface{}{
					"type":        "string",
					"enum":        []string{string(engine.Easy), string(engine.Medium), string(engine.Hard)},
					"description": "easy draws 1 card, medium and hard draw 3 (optional, keeps the current difficulty)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleNewGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "draw",
		Description: "Draw from the stock to the waste. With an empty stock, turns the waste over into a new stock.",
		InputSchema: sessionOnly(),
	}, c.handleDraw)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move one or more cards from a source pile to a target pile",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"source": map[string]interface{}{
					"type":        "string",
					"enum":        pileKinds,
					"description": "Source pile kind",
				},
				"source_index": map[string]interface{}{
					"type":        "integer",
					"description": "Source pile number, 1-7 for tableau and 1-4 for foundation (ignored for waste)",
				},
				"target": map[string]interface{}{
					"type":        "string",
					"enum":        []string{string(engine.PileFoundation), string(engine.PileTableau)},
					"description": "Target pile kind",
				},
				"target_index": map[string]interface{}{
					"type":        "integer",
					"description": "Target pile number, 1-7 for tableau and 1-4 for foundation",
				},
				"card_count": map[string]interface{}{
					"type":        "integer",
					"description": "Number of cards to move from the bottom of the run (tableau only, default 1)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "source", "target"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "undo",
		Description: "Undo the last draw or move",
		InputSchema: sessionOnly(),
	}, c.handleUndo)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "auto_complete",
		Description: "Repeatedly move waste and tableau top cards to the foundations until none fit",
		InputSchema: sessionOnly(),
	}, c.handleAutoComplete)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "hint",
		Description: "Suggest a legal move",
		InputSchema: sessionOnly(),
	}, c.handleHint)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get the command history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_pile",
		Description: "List every card of a pile, bottom to top, including face-down cards",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"pile": map[string]interface{}{
					"type":        "string",
					"enum":        pileKinds,
					"description": "Pile kind",
				},
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "Pile number for tableau (1-7) or foundation (1-4)",
				},
			},
			Required: []string{"session_id", "pile"},
		},
	}, c.handleDescribePile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_stats",
		Description: "Games played, games won and best results across all sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGetStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of Klondike and how to use the tools",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{Status: resp.StatusCode, Body: data}
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errResp) == nil {
			apiErr.Message = errResp.Error
		}
		return apiErr
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

// intArg reads a JSON number argument, returning def when absent
func intArg(args map[string]interface{}, key string, def int) int {
	if n, ok := args[key].(float64); ok {
		return int(n)
	}
	return def
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]string{}
	if configID := stringArg(args, "config_id"); configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "in progress"
		if s.GameState != nil && s.GameState.Won {
			status = "won"
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Created: %s, %s)\n",
			s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"), status)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

// command posts to a session command endpoint and renders the result
func (c *Client) command(ctx context.Context, sessionID, suffix string, body interface{}) (*mcp.CallToolResult, error) {
	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, suffix), body, &result); err != nil {
		// A rejected move carries the full result
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnprocessableEntity &&
			json.Unmarshal(apiErr.Body, &result) == nil && result.GameState != nil {
			return mcp.NewToolResultText(formatActionResult(&result)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	body := map[string]string{}
	if d := stringArg(args, "difficulty"); d != "" {
		body["difficulty"] = d
	}
	return c.command(ctx, stringArg(args, "session_id"), "/new-game", body)
}

func (c *Client) handleDraw(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.command(ctx, stringArg(arguments(request), "session_id"), "/draw", nil)
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = stringArg(args, "intent")

	move, err := moveFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.command(ctx, stringArg(args, "session_id"), "/move", move)
}

// moveFromArgs converts 1-based tool arguments into an engine move
func moveFromArgs(args map[string]interface{}) (engine.Move, error) {
	move := engine.Move{
		SourceKind: engine.PileKind(stringArg(args, "source")),
		TargetKind: engine.PileKind(stringArg(args, "target")),
		CardCount:  intArg(args, "card_count", 1),
	}
	if move.SourceKind == "" || move.TargetKind == "" {
		return move, fmt.Errorf("source and target are required")
	}
	if move.SourceKind == engine.PileFoundation || move.SourceKind == engine.PileTableau {
		n := intArg(args, "source_index", 0)
		if n < 1 {
			return move, fmt.Errorf("source_index is required for %s (starting at 1)", move.SourceKind)
		}
		move.SourceIndex = n - 1
	}
	n := intArg(args, "target_index", 0)
	if n < 1 {
		return move, fmt.Errorf("target_index is required (starting at 1)")
	}
	move.TargetIndex = n - 1
	return move, nil
}

func (c *Client) handleUndo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.command(ctx, stringArg(arguments(request), "session_id"), "/undo", nil)
}

func (c *Client) handleAutoComplete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.command(ctx, stringArg(arguments(request), "session_id"), "/auto-complete", nil)
}

func (c *Client) handleHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var result service.ActionResult
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/hint"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHint(&result)), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")

	query := url.Values{}
	if page := intArg(args, "page", 0); page > 0 {
		query.Set("page", fmt.Sprint(page))
	}
	if limit := intArg(args, "limit", 0); limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(sessionID, "/history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleDescribePile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")
	kind := engine.PileKind(stringArg(args, "pile"))
	index := intArg(args, "index", 1) - 1

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pile, ok := state.Pile(kind, index)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("No pile %s %d. Tableau piles are numbered 1-%d and foundations 1-%d",
			kind, index+1, engine.NumTableau, engine.NumFoundations)), nil
	}

	return mcp.NewToolResultText(describePile(kind, index, pile)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		seeded := ""
		if config.Seeded {
			seeded = ", fixed deal"
		}
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Difficulty: %s, Draw: %d%s\n\n",
			config.Name, config.ConfigID, config.Description, config.Difficulty, config.DrawCount, seeded)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats service.StatsSummary
	if err := c.apiCall(ctx, "GET", "/api/stats", nil, &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Games played: %d\nGames won: %d\nWin rate: %.1f%%\nBest score: %d\n",
		stats.GamesPlayed, stats.GamesWon, stats.WinRate*100, stats.BestScore)
	if stats.BestTimeSeconds > 0 {
		result += "Fastest win: " + formatClock(stats.BestTimeSeconds) + "\n"
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `🃏 Klondike Solitaire - Complete Instructions

GAME OBJECTIVE:
Move all 52 cards onto the four foundations. Each foundation holds one suit,
built up from Ace to King.

THE LAYOUT:
• Stock: face-down cards you draw from
• Waste: cards turned over from the stock; only the top card is playable
• Foundations F1-F4: start empty, accept an Ace first, then the next rank of the same suit
• Tableau T1-T7: column n starts with n cards, only the last one face up

BOARD LEGEND:
• ## - a face-down card
• 10H, QS, AD - face-up cards (rank then suit letter H, D, C, S)
• [7C] - the playable top of the waste
• -- - an empty pile

MOVES:
• Tableau build: place a card on a face-up card of the opposite color and one rank higher
  (red 9 on black 10)
• Runs: move a correctly built face-up run between tableau columns with card_count
• Empty tableau column: only a King, or a run starting with a King
• Foundation: only the single top card of the waste or a tableau column
• Foundation back to tableau is allowed when the card fits the column
• When the top card of a column is moved away, the face-down card beneath turns face up

DRAWING:
• easy: one card per draw
• medium and hard: three cards per draw
• Drawing from an empty stock turns the whole waste over into a new stock

SCORING:
• +10 for each card placed on a foundation
• +5 when a face-down tableau card is turned over
• -15 for moving a card off a foundation
• Draws and recycling the waste do not change the score

TOOLS:
• hint suggests a move when you are stuck
• undo reverts up to the last 10 draws or moves
• auto_complete keeps moving waste and tableau tops to the foundations until none fit
• describe_pile shows a full column when the board summary is not enough

VICTORY CONDITIONS:
- All four foundations reach King
- The board displays "🎉 VICTORY!" and no further moves are accepted

Good luck!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting

func formatSessionInfo(session *service.SessionInfo) string {
	undo := "no"
	if session.CanUndo {
		undo = "yes"
	}
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\nUndo available: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		undo,
		formatGameState(session.GameState))
}

func formatClock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func cardLabel(card engine.Card) string {
	if !card.FaceUp {
		return "##"
	}
	return card.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Difficulty: %s (draw %d) | Score: %d | Moves: %d | Time: %s\n\n",
		state.Difficulty, state.Difficulty.DrawCount(), state.Score, state.MoveCount, formatClock(state.ElapsedSeconds))

	fmt.Fprintf(&b, "Stock: %d card(s)\n", len(state.Stock))

	b.WriteString("Waste: ")
	if len(state.Waste) == 0 {
		b.WriteString("--")
	} else {
		// The last three cards are enough to follow a draw of three
		start := len(state.Waste) - 3
		if start < 0 {
			start = 0
		}
		if start > 0 {
			fmt.Fprintf(&b, "(%d more) ", start)
		}
		for i := start; i < len(state.Waste); i++ {
			if i == len(state.Waste)-1 {
				fmt.Fprintf(&b, "[%s]", cardLabel(state.Waste[i]))
			} else {
				b.WriteString(cardLabel(state.Waste[i]) + " ")
			}
		}
	}
	b.WriteString("\n")

	b.WriteString("Foundations:")
	for i, pile := range state.Foundations {
		top := "--"
		if card, ok := engine.Top(pile); ok {
			top = card.String()
		}
		fmt.Fprintf(&b, " F%d %s", i+1, top)
	}
	b.WriteString("\n\nTableau:\n")

	for i, pile := range state.Tableau {
		fmt.Fprintf(&b, "T%d:", i+1)
		if len(pile) == 0 {
			b.WriteString(" --")
		}
		for _, card := range pile {
			b.WriteString(" " + cardLabel(card))
		}
		b.WriteString("\n")
	}

	if state.Won {
		b.WriteString("\n🎉 VICTORY!")
	}

	return b.String()
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ " + result.Message + "\n")
	} else {
		b.WriteString("✗ " + result.Message + "\n")
		if result.Reason != "" {
			b.WriteString("Reason: " + result.Reason + "\n")
		}
	}

	if len(result.Applied) > 0 {
		b.WriteString("Applied:\n")
		for _, move := range result.Applied {
			fmt.Fprintf(&b, "- %s\n", move)
		}
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	if result.CanUndo {
		b.WriteString("Undo available\n")
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatHint(result *service.ActionResult) string {
	if result.Hint == nil || !result.Hint.Found {
		return "No move found. Try drawing from the stock, or undo."
	}
	text := "💡 " + result.Hint.Text
	if m := result.Hint.Move; m != nil {
		args := fmt.Sprintf("source=%s", m.SourceKind)
		if m.SourceKind == engine.PileTableau || m.SourceKind == engine.PileFoundation {
			args += fmt.Sprintf(" source_index=%d", m.SourceIndex+1)
		}
		args += fmt.Sprintf(" target=%s target_index=%d", m.TargetKind, m.TargetIndex+1)
		if m.CardCount > 1 {
			args += fmt.Sprintf(" card_count=%d", m.CardCount)
		}
		text += "\nmove arguments: " + args
	}
	return text
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Command History (Page %d/%d) — Total: %d\n\n",
		history.Page, history.TotalPages, history.Total)

	for _, entry := range history.Entries {
		status := "✓"
		if !entry.Success {
			status = "✗"
		}
		action := entry.Action
		if entry.Move != nil {
			action += " " + entry.Move.String()
		}
		fmt.Fprintf(&b, "%d. %s %s [Score: %d, Moves: %d]\n",
			entry.Number, action, status, entry.Score, entry.MoveCount)
	}

	return b.String()
}

func describePile(kind engine.PileKind, index int, pile []engine.Card) string {
	name := string(kind)
	if kind == engine.PileTableau || kind == engine.PileFoundation {
		name = fmt.Sprintf("%s %d", kind, index+1)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d card(s), bottom to top\n", name, len(pile))
	faceDown := 0
	for i, card := range pile {
		if !card.FaceUp {
			faceDown++
			if kind != engine.PileStock {
				fmt.Fprintf(&b, "%2d. ## (face down)\n", i+1)
			}
			continue
		}
		fmt.Fprintf(&b, "%2d. %s (%s %s, %s)\n", i+1, card, card.Rank, card.Suit, card.Color())
	}
	if kind == engine.PileStock && faceDown > 0 {
		fmt.Fprintf(&b, "%d face-down card(s)\n", faceDown)
	}
	return b.String()
}
