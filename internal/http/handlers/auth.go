package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/UVMHacks2025/BashProShop/internal/auth"
	"github.com/UVMHacks2025/BashProShop/internal/config"
	"github.com/UVMHacks2025/BashProShop/internal/domain/user"
	"github.com/UVMHacks2025/BashProShop/internal/http/middlewares"
	"github.com/UVMHacks2025/BashProShop/internal/security"
	"github.com/UVMHacks2025/BashProShop/internal/sessions"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type UserStore interface {
	Create(ctx context.Context, p user.CreateParams) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type SessionTokens interface {
	GenerateSessionToken(userID, email string) (raw string, jti string, expiresAt time.Time, err error)
	VerifySessionToken(token string) (*auth.Claims, error)
}

type AuthHandler struct {
	users   UserStore
	tokens  SessionTokens
	revoked sessions.RevocationStore
	secure  bool
	log     *slog.Logger
}

func NewAuthHandler(users UserStore, tokens SessionTokens, revoked sessions.RevocationStore, cfg config.Config, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		users:   users,
		tokens:  tokens,
		revoked: revoked,
		secure:  cfg.Env == "prod",
		log:     log,
	}
}

// SignUpForm describes the fields POST /signup accepts.
func (h *AuthHandler) SignUpForm(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"action": "/signup",
		"method": http.MethodPost,
		"fields": []gin.H{
			{"name": "first_name", "type": "text", "required": true},
			{"name": "last_name", "type": "text", "required": true},
			{"name": "email", "type": "email", "required": true},
			{"name": "affiliation", "type": "text", "required": false},
			{"name": "password", "type": "password", "required": true, "minLength": 8},
			{"name": "confirm_password", "type": "password", "required": true},
		},
	})
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req user.SignUpRequest

	// gin decodes the body before validating it, so req is populated even
	// when a field rule fails
	err := ctx.ShouldBind(&req)

	var fieldErrs validator.ValidationErrors
	if err != nil && !errors.As(err, &fieldErrs) {
		RespondBadRequest(ctx, "Invalid request body", parseBindError(err, &req, fieldTagFor(ctx)))
		return
	}

	// a mismatch is reported ahead of any other field error
	if security.ConfirmPassword(req.Password, req.ConfirmPassword) != nil {
		RespondBadRequest(ctx, "Passwords do not match.", gin.H{"field": "confirm_password"})
		return
	}

	if err != nil {
		RespondBadRequest(ctx, "Invalid request body", parseBindError(err, &req, fieldTagFor(ctx)))
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	params := user.CreateParams{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
	}
	if a := strings.TrimSpace(req.Affiliation); a != "" {
		params.Affiliation = &a
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.Create(cctx, params)
	if err != nil {
		if errors.Is(err, user.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "signup failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	if !h.startSession(ctx, u) {
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"user": u})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !Bind(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.GetByEmail(cctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			h.log.ErrorContext(ctx.Request.Context(), "login lookup failed", "err", err)
		}
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	if !h.startSession(ctx, u) {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

// Logout revokes the presented session token for the rest of its lifetime
// and clears the cookie. Calling it without a valid session is a no-op.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	raw := middlewares.TokenFromRequest(ctx)
	if raw == "" {
		h.clearSessionCookie(ctx)
		ctx.Status(http.StatusNoContent)
		return
	}

	claims, err := h.tokens.VerifySessionToken(raw)
	if err != nil {
		h.clearSessionCookie(ctx)
		ctx.Status(http.StatusNoContent)
		return
	}

	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if left := time.Until(claims.ExpiresAt.Time); left > 0 {
			ttl = left
		}
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.revoked.Revoke(cctx, claims.JTI, ttl); err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "session revoke failed", "err", err)
		RespondInternal(ctx, "Could not log out")
		return
	}

	h.clearSessionCookie(ctx)
	ctx.Status(http.StatusNoContent)
}

func (h *AuthHandler) startSession(ctx *gin.Context, u user.User) bool {
	raw, _, expiresAt, err := h.tokens.GenerateSessionToken(u.ID, u.Email)
	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return false
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(
		middlewares.SessionCookieName,
		raw,
		int(time.Until(expiresAt).Seconds()),
		"/",
		"",
		h.secure,
		true, // HttpOnly.
	)
	return true
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middlewares.SessionCookieName, "", -1, "/", "", h.secure, true)
}
