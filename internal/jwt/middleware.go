package jwt

import (
	"context"
	"net/http"
	"strings"

	"amusurvey/backend/internal"
	"amusurvey/backend/internal/user"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const AccessTokenCookieName = "access_token"

type Parser interface {
	Parse(ctx context.Context, tokenString string) (user.User, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
}

type Middleware struct {
	logger        *zap.Logger
	tracer        trace.Tracer
	parser        Parser
	userStore     UserStore
	problemWriter *problem.HttpWriter
}

func NewMiddleware(logger *zap.Logger, parser Parser, userStore UserStore, problemWriter *problem.HttpWriter) *Middleware {
	return &Middleware{
		logger:        logger,
		tracer:        otel.Tracer("jwt/middleware"),
		parser:        parser,
		userStore:     userStore,
		problemWriter: problemWriter,
	}
}

// AuthenticateMiddleware resolves the caller from the access_token cookie or
// the Authorization header, re-reads the account from storage, and stores it
// in the request context.
func (m *Middleware) AuthenticateMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceCtx, span := m.tracer.Start(r.Context(), "AuthenticateMiddleware")
		defer span.End()
		logger := logutil.WithContext(traceCtx, m.logger)

		tokenString, err := extractToken(r)
		if err != nil {
			m.problemWriter.WriteError(traceCtx, w, err, logger)
			return
		}

		claimsUser, err := m.parser.Parse(traceCtx, tokenString)
		if err != nil {
			span.RecordError(err)
			m.problemWriter.WriteError(traceCtx, w, internal.ErrInvalidJWTToken, logger)
			return
		}

		current, err := m.userStore.GetByID(traceCtx, claimsUser.ID)
		if err != nil {
			span.RecordError(err)
			m.problemWriter.WriteError(traceCtx, w, internal.ErrInvalidAuthUser, logger)
			return
		}

		ctx := context.WithValue(traceCtx, internal.UserContextKey, &current)
		next(w, r.WithContext(ctx))
	}
}

func extractToken(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(AccessTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", internal.ErrMissingAuthHeader
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", internal.ErrInvalidAuthHeaderFormat
	}
	return strings.TrimPrefix(header, "Bearer "), nil
}
