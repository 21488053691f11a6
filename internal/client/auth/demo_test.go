package auth

import (
	"context"
	"testing"

	"github.com/cartana/accounts/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoAdapter_Login(t *testing.T) {
	t.Parallel()

	a := NewDemoAdapter("demo@example.com", "correct")

	res, err := a.Login(context.Background(), models.LoginCredentials{Email: "demo@example.com", Password: "wrongpass"})
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, "Invalid username or password", res.Message)

	res, err = a.Login(context.Background(), models.LoginCredentials{Email: "demo@example.com", Password: "correct"})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "dummytoken", res.Token)
}

func TestDemoAdapter_OmitsRefreshCapability(t *testing.T) {
	t.Parallel()

	var a Adapter = NewDemoAdapter("demo@example.com", "correct")
	_, ok := a.(TokenRefresher)
	assert.False(t, ok)
}

// refreshingAdapter is a renewal-capable Adapter covering the positive side
// of the capability assertion.
type refreshingAdapter struct {
	DemoAdapter
}

func (a *refreshingAdapter) RefreshToken(ctx context.Context) (string, error) {
	return "renewed-token", nil
}

func TestAdapter_RefreshCapabilityDetected(t *testing.T) {
	t.Parallel()

	var a Adapter = &refreshingAdapter{}
	r, ok := a.(TokenRefresher)
	require.True(t, ok)

	token, err := r.RefreshToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "renewed-token", token)
}

func TestDemoAdapter_GetUser(t *testing.T) {
	t.Parallel()

	a := NewDemoAdapter("demo@example.com", "correct")
	profile, err := a.GetUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "demo@example.com", profile.Email)
}
