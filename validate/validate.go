// Command validate checks the files the Klondike server reads at startup.
//
// For game configurations (configs/*.json) it checks:
//   - JSON structure and unknown keys
//   - Required fields and a known difficulty
//   - Message templates and their format verbs
//   - That a seeded configuration deals a well-formed board
//
// For persisted sessions (sessions/*.json) it checks:
//   - The record shape and that the ID matches the file name
//   - The saved-game blob version and every board invariant
//   - The command log numbering and size
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/klondike/game/engine"
	"github.com/wricardo/mcp-training/klondike/game/service"
	"github.com/wricardo/mcp-training/klondike/game/session"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

func newResult(filePath string) ValidationResult {
	return ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}
}

// validateConfig loads and validates a single configuration JSON file
func validateConfig(filePath string) ValidationResult {
	result := newResult(filePath)

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	// Typos in optional keys would otherwise be silently ignored
	strict := json.NewDecoder(bytes.NewReader(data))
	strict.DisallowUnknownFields()
	var probe engine.GameConfig
	if err := strict.Decode(&probe); err != nil {
		result.fail("Unknown field: %v", err)
	}

	missing := defaultedMessages(config.Messages)
	config.ApplyDefaults()
	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%v", err)
		return result
	}

	result.info("%s: %s", config.Name, config.Description)
	result.info("Difficulty %s, draws %d card(s)", config.Difficulty, config.Difficulty.DrawCount())
	if len(missing) > 0 {
		result.info("Built-in text used for messages: %s", strings.Join(missing, ", "))
	}

	if config.Seed != 0 {
		state := engine.NewGameState(config.Difficulty, engine.NewRand(config.Seed))
		if err := engine.CheckInvariants(state); err != nil {
			result.fail("Seed %d deals a malformed board: %v", config.Seed, err)
			return result
		}
		top, _ := engine.Top(state.Tableau[engine.NumTableau-1])
		result.info("Seed %d deals a fixed game (tableau 7 shows %s)", config.Seed, top)
	}

	return result
}

// defaultedMessages lists the message keys left empty in the file
func defaultedMessages(m engine.GameMessages) []string {
	var missing []string
	for _, f := range []struct {
		key, value string
	}{
		{"welcome", m.Welcome},
		{"illegal_move", m.IllegalMove},
		{"moved", m.Moved},
		{"victory", m.Victory},
		{"hint", m.Hint},
		{"no_hint", m.NoHint},
		{"drew", m.Drew},
		{"recycled", m.Recycled},
		{"nothing_to_draw", m.NothingToDraw},
		{"undone", m.Undone},
		{"nothing_to_undo", m.NothingToUndo},
		{"auto_complete", m.AutoComplete},
	} {
		if f.value == "" {
			missing = append(missing, f.key)
		}
	}
	return missing
}

// validateSession loads and validates a single persisted session file
func validateSession(filePath string) ValidationResult {
	result := newResult(filePath)

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var record session.PersistedSessionData
	if err := json.Unmarshal(data, &record); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if want := strings.TrimSuffix(filepath.Base(filePath), ".json"); record.ID != want {
		result.fail("Session id %q does not match file name %q", record.ID, want)
	}
	if record.ConfigName == "" {
		result.fail("config_name is required")
	}
	if record.GameID == "" {
		result.fail("game_id is required")
	}
	if record.LastAccessedAt.Before(record.CreatedAt) {
		result.fail("last_accessed_at is before created_at")
	}

	if len(record.GameState) == 0 {
		result.fail("game_state is missing")
		return result
	}
	state, err := engine.Deserialize(record.GameState)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	if len(record.Log) > service.MaxLogEntries {
		result.fail("Command log has %d entries, limit is %d", len(record.Log), service.MaxLogEntries)
	}
	for i := 1; i < len(record.Log); i++ {
		if record.Log[i].Number != record.Log[i-1].Number+1 {
			result.fail("Command log entry %d follows %d", record.Log[i].Number, record.Log[i-1].Number)
			break
		}
	}

	if result.Valid {
		status := "in progress"
		if state.Won {
			status = "won"
		}
		result.info("Config %s, game %s", record.ConfigName, record.GameID)
		result.info("Score %d, %d move(s), %d card(s) on foundations, %s",
			state.Score, state.MoveCount, state.FoundationCount(), status)
	}

	return result
}

// report prints results and returns false if any file is invalid
func report(results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}
	return allValid
}

func validateDir(dir string, validate func(string) ValidationResult) ([]ValidationResult, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("error finding files in %s: %w", dir, err)
	}
	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, validate(file))
	}
	return results, nil
}

// target pairs a directory with the validator for its files
type target struct {
	dir      string
	validate func(string) ValidationResult
}

func run(targets ...target) error {
	var results []ValidationResult
	for _, t := range targets {
		r, err := validateDir(t.dir, t.validate)
		if err != nil {
			return err
		}
		results = append(results, r...)
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if report(results) {
		fmt.Printf("✅ All %d file(s) are valid!\n", len(results))
		return nil
	}
	return cli.Exit("❌ Some files have errors", 1)
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate Klondike configuration and session files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "../configs", Usage: "Directory containing game configurations"},
			&cli.StringFlag{Name: "sessions-dir", Value: "../sessions", Usage: "Directory containing persisted sessions"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(
				target{cmd.String("config-dir"), validateConfig},
				target{cmd.String("sessions-dir"), validateSession},
			)
		},
		Commands: []*cli.Command{
			{
				Name:  "configs",
				Usage: "Validate configuration files only",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return run(target{cmd.String("config-dir"), validateConfig})
				},
			},
			{
				Name:  "sessions",
				Usage: "Validate session files only",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return run(target{cmd.String("sessions-dir"), validateSession})
				},
			},
		},
	}
}

// main validates configs and sessions, exiting with non-zero status if any
// file is invalid
func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
