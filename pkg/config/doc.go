/*
Package config manages configuration parsing and validation for secenc.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	      +-----------+-----------+-----------+
	      |           |           |           |
	+-----+-----+ +---+---+ +-----+----+ +----+----+
	|   YAML    | |  HCL  | |   JSON   | |   Env   |
	+-----------+ +-------+ +----------+ +---------+

🎯 Purpose:
- Locates the remote service (server_url, timeout, force_update)
- Places the session file that mirrors the client state
- Tunes the autosave windows (debounce, throttle)
- Tunes the key registry (key_pattern, stale_after, download_dir, upload_concurrency)

🔄 Flow:
1. Resolve picks the file, or falls back to defaults when it is absent
2. A registered Parser decodes the format, rejecting unknown fields
3. SECENC_* environment variables override file values
4. Validate fills defaults and parses durations

🔍 Example:

	cfg, err := config.Resolve(ctx, ".secenc.yaml", false)
	if err != nil {
		return err
	}
	client := remote.New(remote.Options{BaseURL: cfg.ServerURL, Timeout: cfg.TimeoutDuration()})
*/
package config
