// Package config loads runtime configuration for the bililive CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. The BILILIVE_PASSPHRASE environment variable.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// The result is checked by (*Config).Validate before anything starts.
//
// Supported flags
//
//	-room uint             live room id, 0 for the logged-in user's room
//	-login-interval dur    qr login poll interval (2s)
//	-room-interval dur     room status poll interval (5s)
//	-timeout dur           per-request timeout (10s)
//	-retries int           consecutive failures tolerated per poll (3)
//	-max-backoff dur       retry delay cap (60s)
//	-qr-ttl dur            login qr lifetime (180s)
//	-frame dur             ui redraw interval (100ms)
//	-history int           snapshots kept on screen (20)
//	-db path               session database (bililive.db)
//	-passphrase string     encrypt the stored session
//	-qr-png path           also write the login qr as png
//	-log-file path         log destination (bililive.log)
//	-log-backend name      slog or zerolog
//	-log-format name       text or json
//	-log-level name        debug, info, warn, error
//	-api-base url          rewrite every endpoint host
//
// # JSON schema
//
//	{
//	  "room_id": 12345,
//	  "login_poll_interval": "2s",
//	  "room_poll_interval": "5s",
//	  "max_retries": 3,
//	  "endpoints": {"room_info": "https://api.live.bilibili.com/room/v1/Room/get_info"}
//	}
package config
