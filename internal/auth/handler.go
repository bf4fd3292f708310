package auth

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"amusurvey/backend/internal"
	"amusurvey/backend/internal/jwt"
	"amusurvey/backend/internal/user"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"
)

type JWTIssuer interface {
	New(ctx context.Context, user user.User) (string, error)
	GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (jwt.RefreshToken, error)
	GetUserIDByRefreshToken(ctx context.Context, refreshTokenID uuid.UUID) (uuid.UUID, error)
}

type JWTStore interface {
	InactivateRefreshToken(ctx context.Context, id uuid.UUID) error
	GetRefreshTokenByID(ctx context.Context, id uuid.UUID) (jwt.RefreshToken, error)
}

type UserStore interface {
	Register(ctx context.Context, username, password, name, email string, userType user.UserType) (user.User, error)
	Authenticate(ctx context.Context, username, password string) (user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,username_rules"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"max=128"`
	Email    string `json:"email" validate:"omitempty,email"`
	UserType string `json:"userType" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SessionResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name,omitempty"`
	IsStaff  bool      `json:"isStaff"`
}

type Handler struct {
	logger *zap.Logger
	tracer trace.Tracer

	baseURL string
	devMode bool

	validator     *validator.Validate
	problemWriter *problem.HttpWriter

	userStore UserStore
	jwtIssuer JWTIssuer
	jwtStore  JWTStore

	accessTokenExpiration  time.Duration
	refreshTokenExpiration time.Duration
}

func NewHandler(
	logger *zap.Logger,
	validator *validator.Validate,
	problemWriter *problem.HttpWriter,
	userStore UserStore,
	jwtIssuer JWTIssuer,
	jwtStore JWTStore,

	baseURL string,
	devMode bool,

	accessTokenExpiration time.Duration,
	refreshTokenExpiration time.Duration,
) *Handler {
	return &Handler{
		logger: logger,
		tracer: otel.Tracer("auth/handler"),

		baseURL: baseURL,
		devMode: devMode,

		validator:     validator,
		problemWriter: problemWriter,

		userStore: userStore,
		jwtIssuer: jwtIssuer,
		jwtStore:  jwtStore,

		accessTokenExpiration:  accessTokenExpiration,
		refreshTokenExpiration: refreshTokenExpiration,
	}
}

// Register creates a local account and opens a session for it in one step.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "Register")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	var req RegisterRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if !user.IsValidUserType(user.UserType(req.UserType)) {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInvalidUserType, logger)
		return
	}

	created, err := h.userStore.Register(traceCtx, req.Username, req.Password, req.Name, req.Email, user.UserType(req.UserType))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if err := h.openSession(traceCtx, w, created); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusCreated, SessionResponse{
		ID:       created.ID,
		Username: created.Username,
		Name:     created.Name.String,
		IsStaff:  created.IsStaff,
	})
}

// Login verifies credentials and sets the session cookies.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "Login")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	var req LoginRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	authenticated, err := h.userStore.Authenticate(traceCtx, req.Username, req.Password)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if err := h.openSession(traceCtx, w, authenticated); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, SessionResponse{
		ID:       authenticated.ID,
		Username: authenticated.Username,
		Name:     authenticated.Name.String,
		IsStaff:  authenticated.IsStaff,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "Logout")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	refreshTokenCookie, err := r.Cookie(RefreshTokenCookieName)
	if err == nil {
		refreshTokenID, parseErr := uuid.Parse(refreshTokenCookie.Value)
		if parseErr == nil {
			if inactivateErr := h.jwtStore.InactivateRefreshToken(traceCtx, refreshTokenID); inactivateErr != nil {
				logger.Warn("Failed to inactivate refresh token during logout", zap.Error(inactivateErr))
			}
		}
	}

	h.clearAccessAndRefreshCookies(w)

	handlerutil.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

// RefreshToken rotates the refresh token from the cookie and issues a fresh
// access token. The old refresh token is inactivated before the new pair is
// written.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "RefreshToken")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	refreshTokenCookie, err := r.Cookie(RefreshTokenCookieName)
	if err != nil || refreshTokenCookie.Value == "" {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInvalidRefreshToken, logger)
		return
	}

	refreshTokenID, err := uuid.Parse(refreshTokenCookie.Value)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInvalidRefreshToken, logger)
		return
	}

	userID, err := h.jwtIssuer.GetUserIDByRefreshToken(traceCtx, refreshTokenID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInvalidRefreshToken, logger)
		return
	}

	if err := h.jwtStore.InactivateRefreshToken(traceCtx, refreshTokenID); err != nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInternalServerError, logger)
		return
	}

	current, err := h.userStore.GetByID(traceCtx, userID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if err := h.openSession(traceCtx, w, current); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) openSession(ctx context.Context, w http.ResponseWriter, u user.User) error {
	traceCtx, span := h.tracer.Start(ctx, "openSession")
	defer span.End()

	accessToken, err := h.jwtIssuer.New(traceCtx, u)
	if err != nil {
		return err
	}

	refreshToken, err := h.jwtIssuer.GenerateRefreshToken(traceCtx, u.ID)
	if err != nil {
		return err
	}

	baseURL, err := url.Parse(h.baseURL)
	if err != nil {
		return internal.ErrInternalServerError
	}

	h.setAccessAndRefreshCookies(w, baseURL.Host, accessToken, refreshToken.ID.String())
	return nil
}

func (h *Handler) setAccessAndRefreshCookies(w http.ResponseWriter, domain, accessToken, refreshTokenID string) {
	var sameSite http.SameSite
	if h.devMode {
		sameSite = http.SameSiteNoneMode
	} else {
		sameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookieName,
		Value:    accessToken,
		HttpOnly: true,
		Secure:   true,
		SameSite: sameSite,
		Path:     "/",
		MaxAge:   int(h.accessTokenExpiration.Seconds()),
		Domain:   domain,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookieName,
		Value:    refreshTokenID,
		HttpOnly: true,
		Secure:   true,
		SameSite: sameSite,
		Path:     "/api/auth/refresh",
		MaxAge:   int(h.refreshTokenExpiration.Seconds()),
		Domain:   domain,
	})
}

func (h *Handler) clearAccessAndRefreshCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		Path:     "/",
		MaxAge:   -1,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		Path:     "/api/auth/refresh",
		MaxAge:   -1,
	})
}
