package response

import (
	"context"
	"strings"
	"testing"
	"time"

	"amusurvey/backend/internal"
	"amusurvey/backend/internal/survey/question"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) Create(ctx context.Context, arg CreateParams) (Response, error) {
	args := m.Called(ctx, arg)
	row, _ := args.Get(0).(Response)
	return row, args.Error(1)
}

func (m *mockQuerier) CreateAnswer(ctx context.Context, arg CreateAnswerParams) (Answer, error) {
	args := m.Called(ctx, arg)
	row, _ := args.Get(0).(Answer)
	return row, args.Error(1)
}

func (m *mockQuerier) CreateAnswerChoice(ctx context.Context, arg CreateAnswerChoiceParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *mockQuerier) ListBySurveyID(ctx context.Context, surveyID uuid.UUID) ([]Response, error) {
	args := m.Called(ctx, surveyID)
	rows, _ := args.Get(0).([]Response)
	return rows, args.Error(1)
}

func (m *mockQuerier) ListAnswersBySurveyID(ctx context.Context, surveyID uuid.UUID) ([]Answer, error) {
	args := m.Called(ctx, surveyID)
	rows, _ := args.Get(0).([]Answer)
	return rows, args.Error(1)
}

func (m *mockQuerier) ListAnswerChoicesBySurveyID(ctx context.Context, surveyID uuid.UUID) ([]AnswerChoiceRow, error) {
	args := m.Called(ctx, surveyID)
	rows, _ := args.Get(0).([]AnswerChoiceRow)
	return rows, args.Error(1)
}

type mockQuestionStore struct {
	mock.Mock
}

func (m *mockQuestionStore) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]question.Question, error) {
	args := m.Called(ctx, surveyID)
	rows, _ := args.Get(0).([]question.Question)
	return rows, args.Error(1)
}

func (m *mockQuestionStore) ListChoicesBySurvey(ctx context.Context, surveyID uuid.UUID) ([]question.Choice, error) {
	args := m.Called(ctx, surveyID)
	rows, _ := args.Get(0).([]question.Choice)
	return rows, args.Error(1)
}

// fakeDB records every statement issued through it, including statements run
// inside a transaction, so tests can assert on what the service attempted.
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
	return pgconn.NewCommandTag("INSERT 0 1"), nil
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

func newTestService(q Querier, qs QuestionStore) *Service {
	return &Service{
		logger:        zap.NewNop(),
		queries:       q,
		questionStore: qs,
		tracer:        noop.NewTracerProvider().Tracer("test"),
	}
}

func TestService_ListResults(t *testing.T) {
	surveyID := uuid.New()
	questionID := uuid.New()
	choiceID := uuid.New()

	resp1 := Response{ID: uuid.New(), SurveyID: surveyID, RespondentID: uuid.New(), SubmittedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true}}
	resp2 := Response{ID: uuid.New(), SurveyID: surveyID, RespondentID: uuid.New(), SubmittedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true}}

	answer1 := Answer{ID: uuid.New(), ResponseID: resp1.ID, QuestionID: questionID, Body: pgtype.Text{String: "Jane", Valid: true}}
	answer2 := Answer{ID: uuid.New(), ResponseID: resp2.ID, QuestionID: questionID}

	q := new(mockQuerier)
	q.On("ListBySurveyID", mock.Anything, surveyID).Return([]Response{resp1, resp2}, nil)
	q.On("ListAnswersBySurveyID", mock.Anything, surveyID).Return([]Answer{answer1, answer2}, nil)
	q.On("ListAnswerChoicesBySurveyID", mock.Anything, surveyID).Return([]AnswerChoiceRow{
		{AnswerID: answer2.ID, ChoiceID: choiceID},
	}, nil)

	s := newTestService(q, new(mockQuestionStore))
	results, err := s.ListResults(context.Background(), surveyID)
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, resp1.ID, results[0].Response.ID)
	require.Len(t, results[0].Answers, 1)
	require.Equal(t, "Jane", results[0].Answers[0].Body)
	require.Empty(t, results[0].Answers[0].ChoiceIDs)

	require.Equal(t, resp2.ID, results[1].Response.ID)
	require.Len(t, results[1].Answers, 1)
	require.Equal(t, []uuid.UUID{choiceID}, results[1].Answers[0].ChoiceIDs)

	q.AssertExpectations(t)
}

func TestService_Submit_RejectsInvalidPlanBeforeTransaction(t *testing.T) {
	surveyID := uuid.New()
	respondentID := uuid.New()
	choiceQ := question.Question{ID: uuid.New(), SurveyID: surveyID, QuestionType: question.TypeChoice}

	qs := new(mockQuestionStore)
	qs.On("ListBySurvey", mock.Anything, surveyID).Return([]question.Question{choiceQ}, nil)
	qs.On("ListChoicesBySurvey", mock.Anything, surveyID).Return([]question.Choice(nil), nil)

	// No transaction mock is wired: an invalid payload must fail before the
	// service ever touches the database.
	s := newTestService(new(mockQuerier), qs)
	_, err := s.Submit(context.Background(), surveyID, respondentID, []AnswerParam{
		{QuestionID: choiceQ.ID, ChoiceIDs: []uuid.UUID{uuid.New()}},
	})
	require.Error(t, err)
	qs.AssertExpectations(t)
}

func TestService_Submit_DuplicateSubmission(t *testing.T) {
	surveyID := uuid.New()
	respondentID := uuid.New()
	textQ := question.Question{ID: uuid.New(), SurveyID: surveyID, QuestionType: question.TypeText}

	qs := new(mockQuestionStore)
	qs.On("ListBySurvey", mock.Anything, surveyID).Return([]question.Question{textQ}, nil)
	qs.On("ListChoicesBySurvey", mock.Anything, surveyID).Return([]question.Choice(nil), nil)

	// The response insert hits the (survey, respondent) unique constraint,
	// as a concurrent duplicate would.
	db := &fakeDB{
		scan: func(sql string, dest []any) error {
			if strings.Contains(sql, "INSERT INTO responses") {
				return &pgconn.PgError{Code: "23505"}
			}
			return nil
		},
	}
	s := &Service{
		logger:        zap.NewNop(),
		db:            db,
		queries:       New(db),
		questionStore: qs,
		tracer:        noop.NewTracerProvider().Tracer("test"),
	}

	_, err := s.Submit(context.Background(), surveyID, respondentID, []AnswerParam{
		{QuestionID: textQ.ID, Body: "hello"},
	})
	require.ErrorIs(t, err, internal.ErrDuplicateSubmission)
	require.Zero(t, db.commits)

	// Nothing beyond the failed response insert may be attempted.
	for _, c := range db.calls {
		require.NotContains(t, c.sql, "INSERT INTO answers")
		require.NotContains(t, c.sql, "INSERT INTO answer_choices")
	}
	qs.AssertExpectations(t)
}
