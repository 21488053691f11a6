package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cartana/accounts/internal/client/auth"
	"github.com/cartana/accounts/internal/client/models"
	"github.com/cartana/accounts/internal/common"
	"github.com/cartana/accounts/internal/logging"
)

// State is the provider's observable lifecycle state.
type State string

const (
	// StateAnonymous: no session token.
	StateAnonymous State = "anonymous"
	// StateAuthenticating: a credential operation is in flight.
	StateAuthenticating State = "authenticating"
	// StateAuthenticated: token present; profile fetched or still pending.
	StateAuthenticated State = "authenticated"
	// StateProfileLoadFailed: token present but the last profile fetch
	// failed. Degraded but still authenticated; not a logout.
	StateProfileLoadFailed State = "profile_load_failed"
)

// Snapshot is a consistent read of the session exposed to consumers.
type Snapshot struct {
	Token          string
	Profile        *models.UserProfile
	Authenticating bool
}

// DefaultProfileTTL is the staleness window within which a cached profile is
// served without re-contacting the backend.
const DefaultProfileTTL = 5 * time.Minute

// Provider owns the session token and the cached user profile, and is the
// only component that mutates the Store. It serializes writes with a
// per-operation sequence number: a late-resolving operation can never
// overwrite state produced by a logically later one, so a cleared token is
// not resurrected by a slow login.
type Provider struct {
	adapter auth.Adapter
	store   Store
	logger  logging.Logger
	ttl     time.Duration
	now     func() time.Time

	// storeMu orders durable-store mutations against the staleness check:
	// once a later operation has cleared the store, a stale token write can
	// no longer land behind it.
	storeMu sync.Mutex

	mu         sync.Mutex
	seq        uint64 // last sequence handed out
	applied    uint64 // highest sequence whose outcome was applied
	token      string
	profile    *models.UserProfile
	fetchedAt  time.Time
	profileErr error
	inflight   int // credential operations currently running

	fetches sync.WaitGroup // in-flight profile retrievals, awaited in tests
}

type ProviderOption func(*Provider)

// WithProfileTTL overrides the profile staleness window.
func WithProfileTTL(ttl time.Duration) ProviderOption {
	return func(p *Provider) { p.ttl = ttl }
}

// WithClock overrides the provider's time source.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) { p.now = now }
}

func NewProvider(adapter auth.Adapter, store Store, logger logging.Logger, opts ...ProviderOption) *Provider {
	p := &Provider{
		adapter: adapter,
		store:   store,
		logger:  logger.With("component", "session_provider"),
		ttl:     DefaultProfileTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Restore reads a previously persisted token at startup, adopts it, and
// triggers profile retrieval. A missing token leaves the provider anonymous.
func (p *Provider) Restore(ctx context.Context) error {
	token, err := p.store.Read(ctx)
	if err != nil {
		return fmt.Errorf("restoring session: %w", err)
	}
	if token == "" {
		return nil
	}

	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.applied = seq
	p.token = token
	p.mu.Unlock()

	p.logger.Info(ctx, "session restored from store")
	p.launchProfileFetch(ctx, seq, token)
	return nil
}

// Login exchanges credentials for a session token. On success the token is
// persisted before Login returns, then profile retrieval starts in the
// background. Expected rejections come back as a soft AuthResult; a non-nil
// error means the exchange itself failed.
func (p *Provider) Login(ctx context.Context, creds models.LoginCredentials) (auth.AuthResult, error) {
	return p.credentialOp(ctx, "login", func(ctx context.Context) (auth.AuthResult, error) {
		return p.adapter.Login(ctx, creds)
	})
}

// Signup creates an account; an issued token is adopted exactly like Login.
func (p *Provider) Signup(ctx context.Context, creds models.SignupCredentials) (auth.AuthResult, error) {
	return p.credentialOp(ctx, "signup", func(ctx context.Context) (auth.AuthResult, error) {
		return p.adapter.Signup(ctx, creds)
	})
}

// ConfirmPasswordReset submits a new password under the reset token. The
// local expiry classification is advisory only; whatever the backend decides
// here is authoritative. A fresh token is adopted exactly like Login.
func (p *Provider) ConfirmPasswordReset(ctx context.Context, resetToken, password string) (auth.AuthResult, error) {
	return p.credentialOp(ctx, "confirm_reset", func(ctx context.Context) (auth.AuthResult, error) {
		return p.adapter.ConfirmPasswordReset(ctx, resetToken, password)
	})
}

// RequestPasswordReset asks the backend to dispatch a reset link. The
// outcome never reveals whether the address is registered.
func (p *Provider) RequestPasswordReset(ctx context.Context, email string) error {
	return p.adapter.RequestPasswordReset(ctx, email)
}

func (p *Provider) credentialOp(ctx context.Context, name string, op func(context.Context) (auth.AuthResult, error)) (auth.AuthResult, error) {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.inflight++
	p.mu.Unlock()

	// The in-flight flag is released on every path out of this function.
	defer func() {
		p.mu.Lock()
		p.inflight--
		p.mu.Unlock()
	}()

	res, err := op(ctx)
	if err != nil {
		p.logger.Error(ctx, "credential operation failed", "op", name, "error", err)
		return auth.AuthResult{}, err
	}
	if !res.OK() {
		p.logger.Info(ctx, "credential operation rejected", "op", name, "reason", res.Message)
		return res, nil
	}

	if err := p.adoptToken(ctx, seq, res.Token); err != nil {
		return auth.AuthResult{}, err
	}
	return res, nil
}

// adoptToken persists and installs a freshly issued token, unless a later
// operation (another login, a logout) has already been applied.
func (p *Provider) adoptToken(ctx context.Context, seq uint64, token string) error {
	p.storeMu.Lock()
	defer p.storeMu.Unlock()

	p.mu.Lock()
	if seq <= p.applied {
		p.mu.Unlock()
		p.logger.Warn(ctx, "discarding stale token write", "seq", seq)
		return nil
	}
	p.mu.Unlock()

	// Persist before publishing: the durable view must hold the token by the
	// time the operation resolves to the caller.
	if err := p.store.Write(ctx, token); err != nil {
		return fmt.Errorf("persisting session token: %w", err)
	}

	p.mu.Lock()
	if seq <= p.applied {
		// A later operation won the race while we wrote. Its store mutation
		// is queued behind storeMu and will overwrite ours, so only the
		// in-memory publish is dropped here.
		p.mu.Unlock()
		p.logger.Warn(ctx, "discarding stale token write", "seq", seq)
		return nil
	}
	p.applied = seq
	p.token = token
	p.profile = nil
	p.profileErr = nil
	p.fetchedAt = time.Time{}
	p.mu.Unlock()

	p.launchProfileFetch(ctx, seq, token)
	return nil
}

// Logout clears the session from any state, including when already
// anonymous. The store and the cached profile are cleared together; the
// adapter is notified best-effort in the background.
func (p *Provider) Logout(ctx context.Context) error {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.applied = seq
	p.token = ""
	p.profile = nil
	p.profileErr = nil
	p.fetchedAt = time.Time{}
	p.mu.Unlock()

	// Behind storeMu: an in-flight token write for an earlier operation
	// finishes first, and this clear then erases it.
	p.storeMu.Lock()
	err := p.store.Clear(ctx)
	p.storeMu.Unlock()
	if err != nil {
		err = fmt.Errorf("clearing session store: %w", err)
	}

	notifyCtx := context.WithoutCancel(ctx)
	go p.adapter.Logout(notifyCtx)

	return err
}

// HandleUnauthorized is the implicit-logout transition: any 401 from an
// authenticated call clears the session without notifying the adapter.
// Wire it as the API client's unauthorized hook.
func (p *Provider) HandleUnauthorized() {
	ctx := context.Background()

	p.mu.Lock()
	if p.token == "" {
		p.mu.Unlock()
		return
	}
	p.seq++
	p.applied = p.seq
	p.token = ""
	p.profile = nil
	p.profileErr = nil
	p.fetchedAt = time.Time{}
	p.mu.Unlock()

	p.logger.Warn(ctx, "session rejected by backend, logging out")
	p.storeMu.Lock()
	err := p.store.Clear(ctx)
	p.storeMu.Unlock()
	if err != nil {
		p.logger.Error(ctx, "clearing session store", "error", err)
	}
}

// Token returns the current session token, or "" when anonymous. Suitable as
// the API client's token source.
func (p *Provider) Token() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token
}

// Snapshot returns a consistent view of the session for consumers.
func (p *Provider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Token:          p.token,
		Profile:        p.profile,
		Authenticating: p.inflight > 0,
	}
}

// State derives the lifecycle state from the current session data.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.inflight > 0:
		return StateAuthenticating
	case p.token == "":
		return StateAnonymous
	case p.profileErr != nil:
		return StateProfileLoadFailed
	default:
		return StateAuthenticated
	}
}

// GetUser returns the user profile, serving the cache inside the staleness
// window and fetching otherwise. It fails with common.ErrUnauthorized when
// no session token is present: profile retrieval is gated on the token.
func (p *Provider) GetUser(ctx context.Context) (*models.UserProfile, error) {
	p.mu.Lock()
	token := p.token
	if token == "" {
		p.mu.Unlock()
		return nil, common.ErrUnauthorized
	}
	if p.profile != nil && p.now().Sub(p.fetchedAt) < p.ttl {
		profile := p.profile
		p.mu.Unlock()
		return profile, nil
	}
	seq := p.applied
	p.mu.Unlock()

	if err := p.fetchProfile(ctx, seq, token); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.profile == nil {
		// Token changed while we fetched; the response was discarded.
		return nil, common.ErrUnauthorized
	}
	return p.profile, nil
}

// launchProfileFetch starts a background profile retrieval for the given
// token. The fetch outlives the triggering call's context.
func (p *Provider) launchProfileFetch(ctx context.Context, seq uint64, token string) {
	fetchCtx := context.WithoutCancel(ctx)
	p.fetches.Add(1)
	go func() {
		defer p.fetches.Done()
		if err := p.fetchProfile(fetchCtx, seq, token); err != nil {
			p.logger.Warn(fetchCtx, "profile retrieval failed", "error", err)
		}
	}()
}

// fetchProfile performs one gated profile retrieval. The result is discarded
// if the token changed while the request was in flight; an unauthorized
// verdict triggers the implicit-logout transition; any other failure leaves
// the token in place (degraded state) and is not retried on a timer.
func (p *Provider) fetchProfile(ctx context.Context, seq uint64, token string) error {
	p.mu.Lock()
	if p.token != token || token == "" {
		p.mu.Unlock()
		return nil
	}
	if p.profile != nil && p.now().Sub(p.fetchedAt) < p.ttl {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	profile, err := p.adapter.GetUser(ctx)

	p.mu.Lock()
	if p.token != token || p.applied != seq {
		// A later operation replaced or cleared the session; this response
		// belongs to a token that is no longer ours.
		p.mu.Unlock()
		return nil
	}
	if err != nil {
		p.profileErr = err
		p.mu.Unlock()
		if errors.Is(err, common.ErrUnauthorized) {
			p.HandleUnauthorized()
		}
		return err
	}
	p.profile = profile
	p.profileErr = nil
	p.fetchedAt = p.now()
	p.mu.Unlock()
	return nil
}

// RefreshProfile forces a profile retrieval outside the staleness window,
// e.g. after the user edits their profile elsewhere.
func (p *Provider) RefreshProfile(ctx context.Context) error {
	p.mu.Lock()
	token := p.token
	seq := p.applied
	p.profile = nil
	p.fetchedAt = time.Time{}
	p.mu.Unlock()

	if token == "" {
		return common.ErrUnauthorized
	}
	return p.fetchProfile(ctx, seq, token)
}

// Wait blocks until background profile retrievals settle. Intended for
// orderly shutdown and tests.
func (p *Provider) Wait() {
	p.fetches.Wait()
}
