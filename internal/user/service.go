package user

import (
	"context"
	"errors"
	"fmt"

	"amusurvey/backend/internal"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// GetFromContext extracts the authenticated user from request context
func GetFromContext(ctx context.Context) (*User, bool) {
	userData, ok := ctx.Value(internal.UserContextKey).(*User)
	return userData, ok
}

type Querier interface {
	Create(ctx context.Context, arg CreateParams) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error)
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (Profile, error)
}

// DB is the subset of pgxpool.Pool the service needs: plain queries plus
// the ability to open a transaction for registration.
type DB interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service struct {
	logger  *zap.Logger
	db      DB
	queries Querier
	tracer  trace.Tracer
}

func NewService(logger *zap.Logger, db DB) *Service {
	return &Service{
		logger:  logger,
		db:      db,
		queries: New(db),
		tracer:  otel.Tracer("user/service"),
	}
}

// Register creates the user row and its profile row in one transaction so a
// profile failure never leaves an orphaned account behind.
func (s *Service) Register(ctx context.Context, username, password, name, email string, userType UserType) (User, error) {
	traceCtx, span := s.tracer.Start(ctx, "Register")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	if !IsValidUserType(userType) {
		return User{}, internal.ErrInvalidUserType
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	tx, err := s.db.Begin(traceCtx)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "begin register transaction")
		span.RecordError(err)
		return User{}, err
	}
	defer func() {
		_ = tx.Rollback(traceCtx)
	}()

	qtx := New(s.db).WithTx(tx)

	// name and email are optional; they are stored as empty strings, never
	// NULL, to match the column constraints.
	created, err := qtx.Create(traceCtx, CreateParams{
		Username:     username,
		Name:         pgtype.Text{String: name, Valid: true},
		Email:        pgtype.Text{String: email, Valid: true},
		PasswordHash: string(hash),
		IsStaff:      userType == UserTypeSurveyCreator,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create user")
		span.RecordError(err)
		if errors.Is(err, databaseutil.ErrUniqueViolation) {
			return User{}, internal.ErrUsernameConflict
		}
		return User{}, err
	}

	_, err = qtx.CreateProfile(traceCtx, CreateProfileParams{
		UserID:   created.ID,
		UserType: userType,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create profile")
		span.RecordError(err)
		return User{}, err
	}

	if err := tx.Commit(traceCtx); err != nil {
		err = databaseutil.WrapDBError(err, logger, "commit register transaction")
		span.RecordError(err)
		return User{}, err
	}

	logger.Info("registered user", zap.String("username", username), zap.String("user_type", string(userType)))
	return created, nil
}

// Authenticate verifies the username/password pair against the stored bcrypt
// hash. A missing user and a wrong password are indistinguishable to the
// caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	traceCtx, span := s.tracer.Start(ctx, "Authenticate")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	found, err := s.queries.GetByUsername(traceCtx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, internal.ErrInvalidCredentials
		}
		err = databaseutil.WrapDBError(err, logger, "get user by username")
		span.RecordError(err)
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)); err != nil {
		return User{}, internal.ErrInvalidCredentials
	}

	return found, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetByID")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	found, err := s.queries.GetByID(traceCtx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, internal.ErrUserNotFound
		}
		err = databaseutil.WrapDBError(err, logger, "get user by id")
		span.RecordError(err)
		return User{}, err
	}
	return found, nil
}

func (s *Service) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	traceCtx, span := s.tracer.Start(ctx, "ExistsByID")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	exists, err := s.queries.ExistsByID(traceCtx, id)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "check user existence")
		span.RecordError(err)
		return false, err
	}
	return exists, nil
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetProfile")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	profile, err := s.queries.GetProfileByUserID(traceCtx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, internal.ErrUserNotFound
		}
		err = databaseutil.WrapDBError(err, logger, "get profile by user id")
		span.RecordError(err)
		return Profile{}, err
	}
	return profile, nil
}
