package config

import (
	"encoding/json"
	"os"

	"github.com/cartana/accounts/internal/flagx"
	"github.com/cartana/accounts/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the profile TTL either as a string like
// "5m" or as integer nanoseconds.
type JsonConfig struct {
	ServerBaseURL string         `json:"server_base_url"`
	Backend       string         `json:"backend"`
	TokenStore    string         `json:"token_store"`
	SessionDBPath string         `json:"session_db_path"`
	ProfileTTL    timex.Duration `json:"profile_ttl"`
}

// parseJson overlays cfg with values loaded from the JSON file named by the
// -c/-config flag. Absent file path means no overlay. Only fields present in
// the file override the current values.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.Backend != "" {
		cfg.Backend = jc.Backend
	}
	if jc.TokenStore != "" {
		cfg.TokenStore = jc.TokenStore
	}
	if jc.SessionDBPath != "" {
		cfg.SessionDBPath = jc.SessionDBPath
	}
	if jc.ProfileTTL.Duration != 0 {
		cfg.ProfileTTL = jc.ProfileTTL.Duration
	}
}
