package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/cartana/accounts/internal/client/api"
	"github.com/cartana/accounts/internal/client/auth"
	"github.com/cartana/accounts/internal/client/config"
	"github.com/cartana/accounts/internal/client/models"
	"github.com/cartana/accounts/internal/client/session"
	"github.com/cartana/accounts/internal/logging"
)

// sessionService is the surface the CLI needs from the session provider.
// The concrete *session.Provider satisfies it; tests provide a stub.
type sessionService interface {
	Login(ctx context.Context, creds models.LoginCredentials) (auth.AuthResult, error)
	Signup(ctx context.Context, creds models.SignupCredentials) (auth.AuthResult, error)
	Logout(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, resetToken, password string) (auth.AuthResult, error)
	GetUser(ctx context.Context) (*models.UserProfile, error)
	Snapshot() session.Snapshot
}

// App wires configuration, the token store, the auth adapter, and the
// session provider, and drives the REPL.
type App struct {
	config  *config.Config
	logger  logging.Logger
	session sessionService
	store   interface{ Close() error }
	reader  *bufio.Reader
}

// NewApp builds the application from config: it selects the token store and
// the auth adapter, constructs the provider, and restores any persisted
// session.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	store, closer, err := newStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing token store: %w", err)
	}

	var provider *session.Provider

	var adapter auth.Adapter
	switch cfg.Backend {
	case config.BackendDemo:
		adapter = auth.NewDemoAdapter(cfg.DemoEmail, cfg.DemoPassword)
	case config.BackendREST:
		apiClient := api.New(cfg.ServerBaseURL,
			api.WithHTTPClient(&http.Client{Timeout: 15 * time.Second}),
			api.WithTokenSource(func() string { return provider.Token() }),
			api.WithUnauthorizedHook(func() { provider.HandleUnauthorized() }),
		)
		adapter = auth.NewRESTAdapter(apiClient, logger)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	provider = session.NewProvider(adapter, store, logger, session.WithProfileTTL(cfg.ProfileTTL))
	if err := provider.Restore(ctx); err != nil {
		logger.Warn(ctx, "could not restore session", "error", err)
	}

	return &App{
		config:  cfg,
		logger:  logger,
		session: provider,
		store:   closer,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func newStore(ctx context.Context, cfg *config.Config) (session.Store, interface{ Close() error }, error) {
	switch cfg.TokenStore {
	case config.StoreSQLite:
		s, err := session.OpenSQLiteStore(ctx, cfg.SessionDBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.StoreKeyring:
		return session.NewKeyringStore(), nil, nil
	case config.StoreMemory:
		return session.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().Token != ""
}

// Run starts the REPL and blocks until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

// Close releases the token store, if it holds resources.
func (a *App) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}
