// Package stats maintains aggregate results across all sessions: games
// played, games won, best score and fastest win. Tracker plugs into the game
// service as its StatsRecorder and writes through a Store, either a JSON file
// or a Postgres table.
package stats
