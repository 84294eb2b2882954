// Package config loads reviewdeck's runtime configuration.
//
// # Sources
//
// Settings are resolved through viper in this order, later sources winning:
//
//  1. Built-in defaults
//  2. ~/.config/reviewdeck/config.toml (or the path given with --config)
//  3. REVIEWDECK_* environment variables (dots become underscores, so
//     log.level is REVIEWDECK_LOG_LEVEL)
//  4. Command-line flags bound by the CLI
//
// A missing config file is not an error. A file that exists but does not
// parse is.
//
// # Keys
//
//	api_base              backend base URL (http://127.0.0.1:8000)
//	wikis_file            JSON wiki list replacing the embedded one
//	display_limit         pages shown before "more" (10)
//	backfill_concurrency  parallel revision fetches, 0 = unbounded (8)
//	poll_interval         background resync period, 0 = off
//	request_timeout       per-request HTTP timeout (10s)
//	prefs.backend         toml or sqlite
//	prefs.path            preference file or database
//	log.level             debug, info, warn, error
//	log.format            json or console
//	log.file              log destination (~/.local/share/reviewdeck/reviewdeck.log)
//
// Paths accept a leading ~. Out-of-range numbers fall back to defaults.
package config
