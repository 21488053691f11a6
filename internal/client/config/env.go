package config

import (
	"os"

	"github.com/joho/godotenv"
)

// parseEnv overlays cfg with environment variables, loading a .env file
// first when one exists in the working directory. The demo credential pair
// is configurable only through the environment, mirroring how deployments
// keep it out of config files.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("CARTANA_API_BASE_URL"); v != "" {
		cfg.ServerBaseURL = v
	}
	if v := os.Getenv("CARTANA_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("CARTANA_TOKEN_STORE"); v != "" {
		cfg.TokenStore = v
	}
	if v := os.Getenv("CARTANA_SESSION_DB"); v != "" {
		cfg.SessionDBPath = v
	}
	if v := os.Getenv("CARTANA_DEMO_USERNAME"); v != "" {
		cfg.DemoEmail = v
	}
	if v := os.Getenv("CARTANA_DEMO_PASSWORD"); v != "" {
		cfg.DemoPassword = v
	}
}
