// Package api exposes the accounts service over HTTP. Requests are
// form-encoded and responses JSON, matching what the web and CLI clients
// expect: credential operations answer {access_token, message}, failures
// answer {detail} with the status carrying the classification.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/cartana/accounts/internal/common"
	"github.com/cartana/accounts/internal/logging"
	"github.com/cartana/accounts/internal/server/users"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// Handler holds the HTTP endpoints for the accounts service.
type Handler struct {
	users     *users.Service
	logger    logging.Logger
	jwtSecret []byte
	validate  *validator.Validate
}

func NewHandler(userService *users.Service, logger logging.Logger, jwtSecret []byte) *Handler {
	v := validator.New()
	_ = v.RegisterValidation("accountpassword", func(fl validator.FieldLevel) bool {
		return common.PasswordMeetsPolicy(fl.Field().String())
	})
	return &Handler{
		users:     userService,
		logger:    logger.With("component", "api"),
		jwtSecret: jwtSecret,
		validate:  v,
	}
}

// Router wires the endpoints under the /api/v1 prefix.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/accounts/signup", h.signup)
	mux.HandleFunc("POST /api/v1/accounts/login", h.login)
	mux.HandleFunc("POST /api/v1/accounts/logout", h.logout)
	mux.Handle("GET /api/v1/accounts/profile/me", h.withSession(h.profile))
	mux.HandleFunc("POST /api/v1/accounts/reset-password", h.requestReset)
	mux.HandleFunc("POST /api/v1/accounts/confirm-reset-password", h.confirmReset)

	return mux
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Message     string `json:"message"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

type profileResponse struct {
	ID          int64     `json:"id"`
	UID         string    `json:"uid"`
	AccountID   int64     `json:"account_id"`
	AccountType string    `json:"account_type,omitempty"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Avatar      string    `json:"avatar,omitempty"`
	Disabled    bool      `json:"disabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func writeDetail(w http.ResponseWriter, r *http.Request, status int, detail string) {
	render.Status(r, status)
	render.JSON(w, r, detailResponse{Detail: detail})
}

// writeError maps service sentinels to HTTP statuses and a {detail} body.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		writeDetail(w, r, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, common.ErrConflict):
		writeDetail(w, r, http.StatusConflict, "An account with this email already exists")
	case errors.Is(err, common.ErrTokenExpired):
		writeDetail(w, r, http.StatusForbidden, "Reset token expired")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrUnauthorized):
		writeDetail(w, r, http.StatusUnauthorized, "Not authenticated")
	case errors.Is(err, common.ErrNotFound):
		writeDetail(w, r, http.StatusNotFound, "Not found")
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeDetail(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

type signupForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,accountpassword"`
	FullName string
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, r, http.StatusBadRequest, "Malformed form data")
		return
	}

	form := signupForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		FullName: r.PostFormValue("full_name"),
	}
	if err := h.validate.Struct(form); err != nil {
		writeDetail(w, r, http.StatusUnprocessableEntity, "Invalid email or password")
		return
	}

	token, _, err := h.users.Signup(r.Context(), form.Email, form.Password, form.FullName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, tokenResponse{AccessToken: token, Message: "Account created"})
}

type loginForm struct {
	Username string `validate:"required,email"`
	Password string `validate:"required"`
}

// login takes the email address in a "username" field, the shape the web
// client's login form submits.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, r, http.StatusBadRequest, "Malformed form data")
		return
	}

	form := loginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := h.validate.Struct(form); err != nil {
		writeDetail(w, r, http.StatusUnprocessableEntity, "Invalid email or password")
		return
	}

	token, err := h.users.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, tokenResponse{AccessToken: token, Message: "Login successful"})
}

// logout exists so clients can notify the server; sessions are stateless
// JWTs, so there is nothing to revoke yet.
// TODO: revoke the session jti here once a denylist table is added.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, tokenResponse{Message: "Logged out"})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	uid := sessionUID(r.Context())

	user, err := h.users.Profile(r.Context(), uid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, profileResponse{
		ID:          user.ID,
		UID:         user.UID,
		AccountID:   user.AccountID,
		AccountType: user.AccountType,
		FullName:    user.FullName,
		Email:       user.Email,
		Avatar:      user.Avatar,
		Disabled:    user.Disabled,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	})
}

// requestReset answers the same way for known and unknown addresses.
func (h *Handler) requestReset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, r, http.StatusBadRequest, "Malformed form data")
		return
	}

	email := r.PostFormValue("email")
	if h.validate.Var(email, "required,email") != nil {
		writeDetail(w, r, http.StatusUnprocessableEntity, "Invalid email address")
		return
	}

	if err := h.users.RequestReset(r.Context(), email); err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, tokenResponse{Message: "If the address exists, a reset link has been sent"})
}

// confirmReset takes the reset token as the bearer credential and the new
// password in the form body.
func (h *Handler) confirmReset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, r, http.StatusBadRequest, "Malformed form data")
		return
	}

	resetToken := bearerToken(r)
	if resetToken == "" {
		writeDetail(w, r, http.StatusUnauthorized, "Not authenticated")
		return
	}

	password := r.PostFormValue("password")
	if h.validate.Var(password, "required,accountpassword") != nil {
		writeDetail(w, r, http.StatusUnprocessableEntity, "Password does not meet the policy")
		return
	}

	token, err := h.users.ConfirmReset(r.Context(), resetToken, password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, tokenResponse{AccessToken: token, Message: "Password updated"})
}
