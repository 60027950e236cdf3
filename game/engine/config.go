package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateGameConfig validates a game configuration for correctness
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}
	if !config.Difficulty.Valid() {
		return fmt.Errorf("config validation: difficulty must be one of easy, medium, hard, got %q", config.Difficulty)
	}
	if config.Seed < 0 {
		return fmt.Errorf("config validation: seed must not be negative, got %d", config.Seed)
	}

	// Validate messages
	required := map[string]string{
		"welcome":      config.Messages.Welcome,
		"victory":      config.Messages.Victory,
		"illegal_move": config.Messages.IllegalMove,
	}
	for key, value := range required {
		if value == "" {
			return fmt.Errorf("config validation: messages.%s is required", key)
		}
	}

	// Validate format strings
	formats := []struct {
		key, value, verb, what string
	}{
		{"victory", config.Messages.Victory, "%d", "score"},
		{"illegal_move", config.Messages.IllegalMove, "%s", "reason"},
		{"moved", config.Messages.Moved, "%s", "move description"},
		{"hint", config.Messages.Hint, "%s", "hint text"},
		{"drew", config.Messages.Drew, "%d", "card count"},
		{"auto_complete", config.Messages.AutoComplete, "%d", "card count"},
	}
	for _, f := range formats {
		if f.value == "" {
			continue
		}
		verbs := formatVerbs(f.value)
		if len(verbs) == 0 {
			return fmt.Errorf("config validation: messages.%s must contain %s for %s", f.key, f.verb, f.what)
		}
		for _, v := range verbs {
			if v != f.verb {
				return fmt.Errorf("config validation: messages.%s may only use %s, found %s", f.key, f.verb, v)
			}
		}
		if len(verbs) > 1 {
			return fmt.Errorf("config validation: messages.%s must use %s only once", f.key, f.verb)
		}
	}

	return nil
}

// formatVerbs returns the fmt directives in s, ignoring %% escapes
func formatVerbs(s string) []string {
	var verbs []string
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '%' {
			i++
			continue
		}
		// Flags, width and precision come before the verb letter
		j := i + 1
		for j < len(s) && strings.IndexByte("+-# 0123456789.*[]", s[j]) >= 0 {
			j++
		}
		if j >= len(s) {
			verbs = append(verbs, s[i:])
			break
		}
		verbs = append(verbs, s[i:j+1])
		i = j
	}
	return verbs
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	config.ApplyDefaults()

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns the built-in draw-three configuration
func DefaultConfig() *GameConfig {
	config := &GameConfig{
		Name:        "classic",
		Description: "Classic Klondike, draw three",
		Difficulty:  Medium,
	}
	config.ApplyDefaults()
	return config
}

// ApplyDefaults fills empty message templates with the built-in text
func (c *GameConfig) ApplyDefaults() {
	m := &c.Messages
	setDefault(&m.Welcome, "New deal. Build each suit from Ace to King.")
	setDefault(&m.IllegalMove, "Illegal move: %s")
	setDefault(&m.Moved, "Moved %s")
	setDefault(&m.Victory, "You won! Final score: %d")
	setDefault(&m.Hint, "Hint: %s")
	setDefault(&m.NoHint, "No moves available. Try drawing from the stock.")
	setDefault(&m.Drew, "Drew %d card(s)")
	setDefault(&m.Recycled, "Waste recycled into the stock")
	setDefault(&m.NothingToDraw, "Stock and waste are both empty")
	setDefault(&m.Undone, "Last move undone")
	setDefault(&m.NothingToUndo, "Nothing to undo")
	setDefault(&m.AutoComplete, "Auto-complete placed %d card(s)")
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
