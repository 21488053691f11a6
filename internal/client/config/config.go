// Package config handles configuration for the CLI client, including
// defaults, JSON overlay, environment variables, and command-line flags.
package config

import "time"

// Backend and token-store selectors. Variants are chosen at process start,
// never switched at runtime.
const (
	BackendREST = "rest"
	BackendDemo = "demo"

	StoreSQLite  = "sqlite"
	StoreKeyring = "keyring"
	StoreMemory  = "memory"
)

// Config holds runtime settings for the Cartana CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the accounts API, including the /api/v1 prefix.
//   - Backend: which auth adapter to install ("rest" or "demo").
//   - TokenStore: where the session token is persisted ("sqlite", "keyring", "memory").
//   - SessionDBPath: sqlite file for the session database (sqlite store only).
//   - ProfileTTL: staleness window for the cached user profile.
//   - DemoEmail / DemoPassword: the accepted credential pair in demo mode.
type Config struct {
	ServerBaseURL string
	Backend       string
	TokenStore    string
	SessionDBPath string
	ProfileTTL    time.Duration
	DemoEmail     string
	DemoPassword  string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://localhost:8000/api/v1"
	c.Backend = BackendREST
	c.TokenStore = StoreSQLite
	c.SessionDBPath = "session.db"
	c.ProfileTTL = 5 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present), environment variables, and command-line flags.
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
