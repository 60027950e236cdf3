// Package config provides configuration management for the Klondike game server.
//
// The config package handles:
//   - Loading game configurations from JSON files
//   - Validation through engine.ValidateGameConfig
//   - Default configuration selection
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Game configurations are stored as JSON files in the configs directory.
// Each configuration defines a difficulty (easy draws one card, medium and
// hard draw three), an optional deal seed and the message templates shown
// after each command. Missing messages fall back to built-in text.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("easy")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// When no classic.json exists the first valid file becomes the default, and
// an empty directory falls back to engine.DefaultConfig.
package config
