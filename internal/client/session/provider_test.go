package session

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/cartana/accounts/internal/client/auth"
	"github.com/cartana/accounts/internal/client/models"
	"github.com/cartana/accounts/internal/common"
	"github.com/cartana/accounts/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeAdapter implements auth.Adapter for provider tests.
type fakeAdapter struct {
	mu sync.Mutex

	LoginFn   func(creds models.LoginCredentials) (auth.AuthResult, error)
	SignupFn  func(creds models.SignupCredentials) (auth.AuthResult, error)
	ConfirmFn func(resetToken, password string) (auth.AuthResult, error)
	GetUserFn func() (*models.UserProfile, error)
	ResetErr  error

	LogoutCalls int
}

func (f *fakeAdapter) Login(ctx context.Context, creds models.LoginCredentials) (auth.AuthResult, error) {
	if f.LoginFn != nil {
		return f.LoginFn(creds)
	}
	return auth.AuthResult{Message: "Invalid username or password"}, nil
}

func (f *fakeAdapter) Signup(ctx context.Context, creds models.SignupCredentials) (auth.AuthResult, error) {
	if f.SignupFn != nil {
		return f.SignupFn(creds)
	}
	return auth.AuthResult{Message: "rejected"}, nil
}

func (f *fakeAdapter) Logout(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LogoutCalls++
}

func (f *fakeAdapter) logoutCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.LogoutCalls
}

func (f *fakeAdapter) RequestPasswordReset(ctx context.Context, email string) error {
	return f.ResetErr
}

func (f *fakeAdapter) ConfirmPasswordReset(ctx context.Context, resetToken, password string) (auth.AuthResult, error) {
	if f.ConfirmFn != nil {
		return f.ConfirmFn(resetToken, password)
	}
	return auth.AuthResult{Message: "Reset token expired"}, nil
}

func (f *fakeAdapter) GetUser(ctx context.Context) (*models.UserProfile, error) {
	if f.GetUserFn != nil {
		return f.GetUserFn()
	}
	return &models.UserProfile{ID: 1, Email: "demo@example.com", FullName: "Demo User"}, nil
}

func okLogin(token string) func(models.LoginCredentials) (auth.AuthResult, error) {
	return func(models.LoginCredentials) (auth.AuthResult, error) {
		return auth.AuthResult{Token: token, Message: "Success"}, nil
	}
}

func demoCreds() models.LoginCredentials {
	return models.LoginCredentials{Email: "demo@example.com", Password: "correct"}
}

func newProvider(t *testing.T, a *fakeAdapter, store Store, opts ...ProviderOption) *Provider {
	t.Helper()
	if store == nil {
		store = NewMemoryStore()
	}
	return NewProvider(a, store, testLogger(), opts...)
}

// assertInvariant checks the central token↔profile invariant on a snapshot.
func assertInvariant(t *testing.T, s Snapshot) {
	t.Helper()
	if s.Profile != nil {
		assert.NotEmpty(t, s.Token, "profile present without a token")
	}
}

func TestProvider_Login_RejectedLeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	a := &fakeAdapter{} // rejects every login
	p := newProvider(t, a, store)

	res, err := p.Login(context.Background(), models.LoginCredentials{Email: "demo@example.com", Password: "wrongpass"})
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, "Invalid username or password", res.Message)

	persisted, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, persisted)
	assert.Equal(t, StateAnonymous, p.State())
}

func TestProvider_Login_PersistsTokenBeforeReturning(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	a := &fakeAdapter{LoginFn: okLogin("abc123")}
	p := newProvider(t, a, store)

	res, err := p.Login(context.Background(), demoCreds())
	require.NoError(t, err)
	require.True(t, res.OK())

	// persisted value equals the returned token immediately after resolve
	persisted, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", persisted)

	p.Wait()
	snap := p.Snapshot()
	assert.Equal(t, "abc123", snap.Token)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "Demo User", snap.Profile.FullName)
	assert.Equal(t, StateAuthenticated, p.State())
}

func TestProvider_Logout_ClearsEverythingAndIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	a := &fakeAdapter{LoginFn: okLogin("abc123")}
	p := newProvider(t, a, store)

	_, err := p.Login(context.Background(), demoCreds())
	require.NoError(t, err)
	p.Wait()

	require.NoError(t, p.Logout(context.Background()))
	snapOnce := p.Snapshot()
	assert.Empty(t, snapOnce.Token)
	assert.Nil(t, snapOnce.Profile)
	assert.Equal(t, StateAnonymous, p.State())

	persisted, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, persisted)

	// second logout: same state, safe from Anonymous
	require.NoError(t, p.Logout(context.Background()))
	assert.Equal(t, snapOnce, p.Snapshot())
}

func TestProvider_ProfileFetchFailureKeepsToken(t *testing.T) {
	t.Parallel()

	a := &fakeAdapter{
		LoginFn:   okLogin("abc123"),
		GetUserFn: func() (*models.UserProfile, error) { return nil, common.ErrNetwork },
	}
	p := newProvider(t, a, nil)

	_, err := p.Login(context.Background(), demoCreds())
	require.NoError(t, err)
	p.Wait()

	snap := p.Snapshot()
	assert.Equal(t, "abc123", snap.Token, "profile endpoint being down is not a logout")
	assert.Nil(t, snap.Profile)
	assert.Equal(t, StateProfileLoadFailed, p.State())
}

func TestProvider_ImplicitLogoutOn401(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	a := &fakeAdapter{
		LoginFn:   okLogin("abc123"),
		GetUserFn: func() (*models.UserProfile, error) { return nil, common.ErrUnauthorized },
	}
	p := newProvider(t, a, store)

	_, err := p.Login(context.Background(), demoCreds())
	require.NoError(t, err)
	p.Wait()

	snap := p.Snapshot()
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.Profile)
	assert.Equal(t, StateAnonymous, p.State())
	assert.Zero(t, a.logoutCalls(), "implicit logout must not notify the adapter")

	persisted, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestProvider_HandleUnauthorizedFromTransport(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	a := &fakeAdapter{LoginFn: okLogin("abc123")}
	p := newProvider(t, a, store)

	_, err := p.Login(context.Background(), demoCreds())
	require.NoError(t, err)
	p.Wait()

	// e.g. some other authenticated call in the app got a 401
	p.HandleUnauthorized()

	assert.Equal(t, StateAnonymous, p.State())
	persisted, _ := store.Read(context.Background())
	assert.Empty(t, persisted)

	// no-op when already anonymous
	p.HandleUnauthorized()
	assert.Equal(t, StateAnonymous, p.State())
}

func TestProvider_LateLoginCannotResurrectClearedToken(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	release := make(chan struct{})
	a := &fakeAdapter{}
	a.LoginFn = func(models.LoginCredentials) (auth.AuthResult, error) {
		<-release
		return auth.AuthResult{Token: "late-token", Message: "Success"}, nil
	}
	p := newProvider(t, a, store)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Login(context.Background(), demoCreds())
	}()

	// logout is issued while the login is still in flight but logically later
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, p.Logout(context.Background()))
	close(release)
	<-done
	p.Wait()

	snap := p.Snapshot()
	assert.Empty(t, snap.Token, "cleared token resurrected by a late login")
	persisted, _ := store.Read(context.Background())
	assert.Empty(t, persisted)
}

// gatedStore blocks Write until released, so tests can interleave other
// operations while a token persist is in flight.
type gatedStore struct {
	Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *gatedStore) Write(ctx context.Context, token string) error {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return s.Store.Write(ctx, token)
}

func TestProvider_LogoutDuringTokenPersistCannotResurrect(t *testing.T) {
	t.Parallel()

	inner := NewMemoryStore()
	store := &gatedStore{Store: inner, entered: make(chan struct{}), release: make(chan struct{})}

	a := &fakeAdapter{LoginFn: okLogin("stale-token")}
	p := newProvider(t, a, store)

	loginDone := make(chan struct{})
	go func() {
		defer close(loginDone)
		_, _ = p.Login(context.Background(), demoCreds())
	}()

	// the login has resolved and is inside the store write
	<-store.entered

	logoutDone := make(chan struct{})
	go func() {
		defer close(logoutDone)
		_ = p.Logout(context.Background())
	}()

	// give the logout time to clear the in-memory session and reach the
	// store before the blocked write is released
	time.Sleep(10 * time.Millisecond)
	close(store.release)
	<-loginDone
	<-logoutDone
	p.Wait()

	assert.Empty(t, p.Snapshot().Token)
	persisted, err := inner.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, persisted, "cleared session resurrected in the durable store")

	// a fresh provider restoring from the same store stays anonymous
	p2 := newProvider(t, &fakeAdapter{}, inner)
	require.NoError(t, p2.Restore(context.Background()))
	assert.Equal(t, StateAnonymous, p2.State())
}

func TestProvider_ProfileCacheWithinStalenessWindow(t *testing.T) {
	t.Parallel()

	var calls int
	var mu sync.Mutex
	now := time.Now()

	a := &fakeAdapter{LoginFn: okLogin("abc123")}
	a.GetUserFn = func() (*models.UserProfile, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return &models.UserProfile{ID: 1, FullName: "Demo User"}, nil
	}

	p := newProvider(t, a, nil,
		WithProfileTTL(time.Minute),
		WithClock(func() time.Time { mu.Lock(); defer mu.Unlock(); return now }),
	)

	_, err := p.Login(context.Background(), demoCreds())
	require.NoError(t, err)
	p.Wait()

	// repeated consumer reads inside the window serve the cache
	for range 3 {
		_, err := p.GetUser(context.Background())
		require.NoError(t, err)
	}
	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()

	// past the window, one refetch
	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()
	_, err = p.GetUser(context.Background())
	require.NoError(t, err)
	mu.Lock()
	assert.Equal(t, 2, calls)
	mu.Unlock()
}

func TestProvider_GetUser_GatedOnToken(t *testing.T) {
	t.Parallel()

	p := newProvider(t, &fakeAdapter{}, nil)
	_, err := p.GetUser(context.Background())
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestProvider_Restore(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	require.NoError(t, store.Write(context.Background(), "persisted-token"))

	a := &fakeAdapter{}
	p := newProvider(t, a, store)

	require.NoError(t, p.Restore(context.Background()))
	p.Wait()

	snap := p.Snapshot()
	assert.Equal(t, "persisted-token", snap.Token)
	require.NotNil(t, snap.Profile)
}

func TestProvider_ConfirmPasswordReset_AdoptsTokenLikeLogin(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	a := &fakeAdapter{
		ConfirmFn: func(resetToken, password string) (auth.AuthResult, error) {
			return auth.AuthResult{Token: "fresh", Message: "Password updated"}, nil
		},
	}
	p := newProvider(t, a, store)

	res, err := p.ConfirmPasswordReset(context.Background(), "reset-jwt", "NewPass1")
	require.NoError(t, err)
	require.True(t, res.OK())

	persisted, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", persisted)
}

func TestProvider_ConfirmPasswordReset_ServerVerdictWins(t *testing.T) {
	t.Parallel()

	// locally the token may classify Valid; the backend still rejects
	a := &fakeAdapter{
		ConfirmFn: func(resetToken, password string) (auth.AuthResult, error) {
			return auth.AuthResult{Message: "Reset token expired"}, nil
		},
	}
	p := newProvider(t, a, nil)

	res, err := p.ConfirmPasswordReset(context.Background(), "expired", "NewPass1")
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, "Reset token expired", res.Message)
	assert.Equal(t, StateAnonymous, p.State())
}

func TestProvider_Logout_NotifiesAdapterBestEffort(t *testing.T) {
	t.Parallel()

	a := &fakeAdapter{LoginFn: okLogin("abc123")}
	p := newProvider(t, a, nil)

	_, err := p.Login(context.Background(), demoCreds())
	require.NoError(t, err)
	require.NoError(t, p.Logout(context.Background()))

	assert.Eventually(t, func() bool { return a.logoutCalls() == 1 },
		time.Second, 5*time.Millisecond)
}

// TestProvider_InvariantUnderRandomOperations drives the provider through
// random operation sequences and asserts after every step that a profile is
// only ever present alongside a token.
func TestProvider_InvariantUnderRandomOperations(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))

	for seq := 0; seq < 50; seq++ {
		var failProfile, rejectProfile bool
		var mu sync.Mutex

		a := &fakeAdapter{LoginFn: okLogin("tok")}
		a.GetUserFn = func() (*models.UserProfile, error) {
			mu.Lock()
			defer mu.Unlock()
			if rejectProfile {
				return nil, common.ErrUnauthorized
			}
			if failProfile {
				return nil, common.ErrNetwork
			}
			return &models.UserProfile{ID: 1}, nil
		}
		p := newProvider(t, a, nil, WithProfileTTL(0)) // no caching: every step refetches

		for step := 0; step < 20; step++ {
			switch rng.Intn(4) {
			case 0: // login, profile fetch succeeds
				mu.Lock()
				failProfile, rejectProfile = false, false
				mu.Unlock()
				_, err := p.Login(context.Background(), demoCreds())
				require.NoError(t, err)
			case 1: // logout
				require.NoError(t, p.Logout(context.Background()))
			case 2: // profile fetch fails (backend down)
				mu.Lock()
				failProfile, rejectProfile = true, false
				mu.Unlock()
				_, _ = p.GetUser(context.Background())
			case 3: // profile fetch rejected (401)
				mu.Lock()
				failProfile, rejectProfile = false, true
				mu.Unlock()
				_, _ = p.GetUser(context.Background())
			}
			p.Wait()
			assertInvariant(t, p.Snapshot())
		}
	}
}
