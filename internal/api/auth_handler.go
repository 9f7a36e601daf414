package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/api/shared"
	"github.com/sortlab/sortlab-api/internal/config"
	"github.com/sortlab/sortlab-api/internal/service"
	"github.com/sortlab/sortlab-api/internal/service/auth"
	"github.com/sortlab/sortlab-api/internal/store"
)

// AuthHandler handles registration, login, and token refresh.
type AuthHandler struct {
	userService      service.UserService
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	authConfig       *config.AuthConfig
	logger           *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(
	userService service.UserService,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	authConfig *config.AuthConfig,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		userService:      userService,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		authConfig:       authConfig,
		logger:           logger.With("component", "auth_handler"),
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.CreateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			shared.RespondWithErrorAndLog(w, r, http.StatusConflict, "Email already exists", err)
			return
		}
		RespondWithMappedError(w, r, err)
		return
	}

	resp, err := h.issueTokens(r, user.ID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		// Unknown email and wrong password produce the same response so
		// registered emails cannot be enumerated.
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid email or password", err,
				shared.WithElevatedLogLevel())
			return
		}
		RespondWithMappedError(w, r, err)
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid email or password", err,
			shared.WithElevatedLogLevel())
		return
	}

	resp, err := h.issueTokens(r, user.ID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// RefreshToken handles POST /api/auth/refresh.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	resp, err := h.issueTokens(r, claims.UserID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// issueTokens generates a fresh access and refresh token pair for the user.
func (h *AuthHandler) issueTokens(r *http.Request, userID uuid.UUID) (*AuthResponse, error) {
	accessToken, err := h.jwtService.GenerateToken(r.Context(), userID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(r.Context(), userID)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().UTC().Add(time.Duration(h.authConfig.TokenLifetimeMinutes) * time.Minute)

	return &AuthResponse{
		UserID:       userID.String(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt.Format(time.RFC3339),
	}, nil
}
