package config

import (
	"flag"
	"os"

	"github.com/cartana/accounts/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the accounts API (default from Config)
//	-b string   auth backend: rest or demo
//	-s string   token store: sqlite, keyring, or memory
//	-d string   path to the session database file
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-b", "-s", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the accounts API")
	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "auth backend (rest|demo)")
	fs.StringVar(&cfg.TokenStore, "s", cfg.TokenStore, "token store (sqlite|keyring|memory)")
	fs.StringVar(&cfg.SessionDBPath, "d", cfg.SessionDBPath, "path to the session database file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
