package jwt

import (
	"context"
	"testing"
	"time"

	"amusurvey/backend/internal/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func newTestService(accessTokenExpiration time.Duration) *Service {
	return &Service{
		logger:                zap.NewNop(),
		secret:                "secret-for-tests",
		accessTokenExpiration: accessTokenExpiration,
		tracer:                noop.NewTracerProvider().Tracer("test"),
	}
}

func TestService_NewAndParse(t *testing.T) {
	s := newTestService(time.Hour)

	original := user.User{
		ID:       uuid.New(),
		Username: "jdoe",
		Name:     pgtype.Text{String: "Jane Doe", Valid: true},
		IsStaff:  true,
	}

	tokenString, err := s.New(context.Background(), original)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	parsed, err := s.Parse(context.Background(), tokenString)
	require.NoError(t, err)
	require.Equal(t, original.ID, parsed.ID)
	require.Equal(t, original.Username, parsed.Username)
	require.Equal(t, original.Name.String, parsed.Name.String)
	require.True(t, parsed.IsStaff)
}

func TestService_Parse_BearerPrefix(t *testing.T) {
	s := newTestService(time.Hour)

	tokenString, err := s.New(context.Background(), user.User{ID: uuid.New(), Username: "jdoe"})
	require.NoError(t, err)

	parsed, err := s.Parse(context.Background(), "Bearer "+tokenString)
	require.NoError(t, err)
	require.Equal(t, "jdoe", parsed.Username)
}

func TestService_Parse_Expired(t *testing.T) {
	s := newTestService(-time.Minute)

	tokenString, err := s.New(context.Background(), user.User{ID: uuid.New(), Username: "jdoe"})
	require.NoError(t, err)

	_, err = s.Parse(context.Background(), tokenString)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestService_Parse_WrongSecret(t *testing.T) {
	signer := newTestService(time.Hour)
	verifier := newTestService(time.Hour)
	verifier.secret = "a-different-secret"

	tokenString, err := signer.New(context.Background(), user.User{ID: uuid.New(), Username: "jdoe"})
	require.NoError(t, err)

	_, err = verifier.Parse(context.Background(), tokenString)
	require.ErrorIs(t, err, jwt.ErrSignatureInvalid)
}

func TestService_Parse_Malformed(t *testing.T) {
	s := newTestService(time.Hour)

	_, err := s.Parse(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, jwt.ErrTokenMalformed)
}
