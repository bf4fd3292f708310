package user

import (
	"context"
	"strings"
	"testing"

	"amusurvey/backend/internal"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// mockQuerier implements Querier; only the methods a given test configures
// are expected to be called.
type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) Create(ctx context.Context, arg CreateParams) (User, error) {
	args := m.Called(ctx, arg)
	row, _ := args.Get(0).(User)
	return row, args.Error(1)
}

func (m *mockQuerier) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	args := m.Called(ctx, id)
	row, _ := args.Get(0).(User)
	return row, args.Error(1)
}

func (m *mockQuerier) GetByUsername(ctx context.Context, username string) (User, error) {
	args := m.Called(ctx, username)
	row, _ := args.Get(0).(User)
	return row, args.Error(1)
}

func (m *mockQuerier) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockQuerier) CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error) {
	args := m.Called(ctx, arg)
	row, _ := args.Get(0).(Profile)
	return row, args.Error(1)
}

func (m *mockQuerier) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (Profile, error) {
	args := m.Called(ctx, userID)
	row, _ := args.Get(0).(Profile)
	return row, args.Error(1)
}

// fakeDB records every statement issued through it, including statements run
// inside a transaction, so tests can assert on the exact bind arguments.
type recordedCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	calls   []recordedCall
	scan    func(sql string, dest []any) error
	commits int
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, recordedCall{sql: sql, args: args})
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	f.calls = append(f.calls, recordedCall{sql: sql, args: args})
	return nil, pgx.ErrNoRows
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	f.calls = append(f.calls, recordedCall{sql: sql, args: args})
	return fakeRow{db: f, sql: sql}
}

func (f *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return fakeTx{db: f}, nil
}

type fakeRow struct {
	db  *fakeDB
	sql string
}

func (r fakeRow) Scan(dest ...any) error {
	if r.db.scan == nil {
		return nil
	}
	return r.db.scan(r.sql, dest)
}

type fakeTx struct {
	db *fakeDB
}

func (t fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t fakeTx) Commit(ctx context.Context) error          { t.db.commits++; return nil }
func (t fakeTx) Rollback(ctx context.Context) error        { return nil }
func (t fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, arguments...)
}
func (t fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.db.Query(ctx, sql, args...)
}
func (t fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.db.QueryRow(ctx, sql, args...)
}
func (t fakeTx) Conn() *pgx.Conn { return nil }

func newTestService(q Querier) *Service {
	return &Service{
		logger:  zap.NewNop(),
		queries: q,
		tracer:  noop.NewTracerProvider().Tracer("test"),
	}
}

func TestService_Authenticate(t *testing.T) {
	password := gofakeit.Password(true, true, true, false, false, 12)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	stored := User{
		ID:           uuid.New(),
		Username:     "jdoe",
		PasswordHash: string(hash),
	}

	testCases := []struct {
		name     string
		username string
		password string
		setup    func(q *mockQuerier)
		wantErr  error
	}{
		{
			name:     "valid credentials",
			username: "jdoe",
			password: password,
			setup: func(q *mockQuerier) {
				q.On("GetByUsername", mock.Anything, "jdoe").Return(stored, nil)
			},
		},
		{
			name:     "wrong password",
			username: "jdoe",
			password: "not-the-password",
			setup: func(q *mockQuerier) {
				q.On("GetByUsername", mock.Anything, "jdoe").Return(stored, nil)
			},
			wantErr: internal.ErrInvalidCredentials,
		},
		{
			name:     "unknown username",
			username: "ghost",
			password: password,
			setup: func(q *mockQuerier) {
				q.On("GetByUsername", mock.Anything, "ghost").Return(User{}, pgx.ErrNoRows)
			},
			wantErr: internal.ErrInvalidCredentials,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := new(mockQuerier)
			tc.setup(q)
			s := newTestService(q)

			got, err := s.Authenticate(context.Background(), tc.username, tc.password)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, stored.ID, got.ID)
			q.AssertExpectations(t)
		})
	}
}

func TestService_Register_StoresOptionalFieldsAsEmptyStrings(t *testing.T) {
	db := &fakeDB{
		scan: func(sql string, dest []any) error {
			if strings.Contains(sql, "INSERT INTO users") {
				*(dest[0].(*uuid.UUID)) = uuid.New()
			}
			return nil
		},
	}
	s := &Service{
		logger:  zap.NewNop(),
		db:      db,
		queries: New(db),
		tracer:  noop.NewTracerProvider().Tracer("test"),
	}

	_, err := s.Register(context.Background(), "jdoe", "password123", "", "", UserTypeStudent)
	require.NoError(t, err)
	require.Equal(t, 1, db.commits)

	var insert *recordedCall
	for i := range db.calls {
		if strings.Contains(db.calls[i].sql, "INSERT INTO users") {
			insert = &db.calls[i]
		}
	}
	require.NotNil(t, insert)

	// name and email were omitted; the insert must still bind non-NULL
	// values so the NOT NULL columns accept the row.
	name, ok := insert.args[1].(pgtype.Text)
	require.True(t, ok)
	require.True(t, name.Valid)
	require.Equal(t, "", name.String)

	email, ok := insert.args[2].(pgtype.Text)
	require.True(t, ok)
	require.True(t, email.Valid)
	require.Equal(t, "", email.String)
}

func TestService_GetByID_NotFound(t *testing.T) {
	q := new(mockQuerier)
	id := uuid.New()
	q.On("GetByID", mock.Anything, id).Return(User{}, pgx.ErrNoRows)

	s := newTestService(q)
	_, err := s.GetByID(context.Background(), id)
	require.ErrorIs(t, err, internal.ErrUserNotFound)
}

func TestIsValidUserType(t *testing.T) {
	for _, valid := range []UserType{UserTypeStudent, UserTypeFaculty, UserTypeStaff, UserTypeSurveyCreator, UserTypeOther} {
		require.True(t, IsValidUserType(valid), string(valid))
	}
	require.False(t, IsValidUserType(UserType("ADMIN")))
	require.False(t, IsValidUserType(UserType("")))
}
