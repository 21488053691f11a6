package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/cartana/accounts/internal/logging"
	"github.com/cartana/accounts/internal/server/auth"
	"github.com/cartana/accounts/internal/server/config"
	"github.com/cartana/accounts/internal/server/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*httptest.Server, *users.Service) {
	t.Helper()

	cfg := &config.Config{
		SecretKey:                    testSecret,
		SessionTokenValidityDuration: time.Hour,
		ResetTokenValidityDuration:   30 * time.Minute,
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	service := users.NewService(users.NewInMemoryRepository(), logger, cfg)
	handler := NewHandler(service, logger, []byte(testSecret))

	srv := httptest.NewServer(handler.Router())
	t.Cleanup(srv.Close)
	return srv, service
}

func postForm(t *testing.T, srv *httptest.Server, path string, form url.Values, bearer string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func credsForm(email, password string) url.Values {
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)
	return form
}

func TestSignup(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := postForm(t, srv, "/api/v1/accounts/signup", credsForm("alice@example.com", "Sup3rSecret"), "")

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "Account created", body["message"])
}

func TestSignup_DuplicateEmail(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := postForm(t, srv, "/api/v1/accounts/signup", credsForm("alice@example.com", "Sup3rSecret"), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := postForm(t, srv, "/api/v1/accounts/signup", credsForm("alice@example.com", "Other1Secret"), "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "An account with this email already exists", body["detail"])
}

func TestSignup_WeakPassword(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := postForm(t, srv, "/api/v1/accounts/signup", credsForm("alice@example.com", "short"), "")

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.NotEmpty(t, body["detail"])
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(t)
	postForm(t, srv, "/api/v1/accounts/signup", credsForm("alice@example.com", "Sup3rSecret"), "")

	form := url.Values{}
	form.Set("username", "alice@example.com")
	form.Set("password", "Sup3rSecret")

	resp, body := postForm(t, srv, "/api/v1/accounts/login", form, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "Login successful", body["message"])
}

func TestLogin_WrongPassword(t *testing.T) {
	srv, _ := newTestServer(t)
	postForm(t, srv, "/api/v1/accounts/signup", credsForm("alice@example.com", "Sup3rSecret"), "")

	form := url.Values{}
	form.Set("username", "alice@example.com")
	form.Set("password", "not-the-password")

	resp, body := postForm(t, srv, "/api/v1/accounts/login", form, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid username or password", body["detail"])
}

func TestProfile(t *testing.T) {
	srv, _ := newTestServer(t)
	_, body := postForm(t, srv, "/api/v1/accounts/signup", credsForm("alice@example.com", "Sup3rSecret"), "")
	token := body["access_token"].(string)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/accounts/profile/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	assert.Equal(t, "alice@example.com", profile["email"])
	assert.NotEmpty(t, profile["uid"])
}

func TestProfile_RequiresSession(t *testing.T) {
	srv, _ := newTestServer(t)

	for name, header := range map[string]string{
		"no header":     "",
		"garbage token": "Bearer not-a-jwt",
		"wrong scheme":  "Basic dXNlcjpwYXNz",
	} {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/accounts/profile/me", nil)
			require.NoError(t, err)
			if header != "" {
				req.Header.Set("Authorization", header)
			}

			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestProfile_RejectsResetToken(t *testing.T) {
	srv, _ := newTestServer(t)
	postForm(t, srv, "/api/v1/accounts/signup", credsForm("alice@example.com", "Sup3rSecret"), "")

	resetToken, err := auth.GenerateResetToken("some-uid", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/accounts/profile/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+resetToken)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequestReset_SameAnswerEitherWay(t *testing.T) {
	srv, _ := newTestServer(t)
	postForm(t, srv, "/api/v1/accounts/signup", credsForm("alice@example.com", "Sup3rSecret"), "")

	for _, email := range []string{"alice@example.com", "nobody@example.com"} {
		form := url.Values{}
		form.Set("email", email)

		resp, body := postForm(t, srv, "/api/v1/accounts/reset-password", form, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "If the address exists, a reset link has been sent", body["message"])
	}
}

func TestConfirmReset(t *testing.T) {
	srv, service := newTestServer(t)
	_, signupBody := postForm(t, srv, "/api/v1/accounts/signup", credsForm("alice@example.com", "Sup3rSecret"), "")

	claims, err := auth.ParseToken(signupBody["access_token"].(string), auth.PurposeSession, []byte(testSecret))
	require.NoError(t, err)

	resetToken, err := auth.GenerateResetToken(claims.UserID, []byte(testSecret), time.Hour)
	require.NoError(t, err)

	form := url.Values{}
	form.Set("password", "NewPass1word")

	resp, body := postForm(t, srv, "/api/v1/accounts/confirm-reset-password", form, resetToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "Password updated", body["message"])

	// reuse of the same link is refused
	resp, body = postForm(t, srv, "/api/v1/accounts/confirm-reset-password", form, resetToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Reset token expired", body["detail"])

	_, err = service.Login(t.Context(), "alice@example.com", "NewPass1word")
	assert.NoError(t, err)
}

func TestConfirmReset_ExpiredToken(t *testing.T) {
	srv, _ := newTestServer(t)
	_, signupBody := postForm(t, srv, "/api/v1/accounts/signup", credsForm("alice@example.com", "Sup3rSecret"), "")

	claims, err := auth.ParseToken(signupBody["access_token"].(string), auth.PurposeSession, []byte(testSecret))
	require.NoError(t, err)

	resetToken, err := auth.GenerateResetToken(claims.UserID, []byte(testSecret), -time.Minute)
	require.NoError(t, err)

	form := url.Values{}
	form.Set("password", "NewPass1word")

	resp, body := postForm(t, srv, "/api/v1/accounts/confirm-reset-password", form, resetToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Reset token expired", body["detail"])
}

func TestConfirmReset_MissingBearer(t *testing.T) {
	srv, _ := newTestServer(t)

	form := url.Values{}
	form.Set("password", "NewPass1word")

	resp, _ := postForm(t, srv, "/api/v1/accounts/confirm-reset-password", form, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := postForm(t, srv, "/api/v1/accounts/logout", url.Values{}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out", body["message"])
}
