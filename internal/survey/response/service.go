package response

import (
	"context"
	"errors"

	"amusurvey/backend/internal"
	"amusurvey/backend/internal/survey/question"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Querier interface {
	Create(ctx context.Context, arg CreateParams) (Response, error)
	CreateAnswer(ctx context.Context, arg CreateAnswerParams) (Answer, error)
	CreateAnswerChoice(ctx context.Context, arg CreateAnswerChoiceParams) error
	ListBySurveyID(ctx context.Context, surveyID uuid.UUID) ([]Response, error)
	ListAnswersBySurveyID(ctx context.Context, surveyID uuid.UUID) ([]Answer, error)
	ListAnswerChoicesBySurveyID(ctx context.Context, surveyID uuid.UUID) ([]AnswerChoiceRow, error)
}

// QuestionStore supplies the question graph the materializer plans against.
type QuestionStore interface {
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]question.Question, error)
	ListChoicesBySurvey(ctx context.Context, surveyID uuid.UUID) ([]question.Choice, error)
}

type DB interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service struct {
	logger        *zap.Logger
	db            DB
	queries       Querier
	questionStore QuestionStore
	tracer        trace.Tracer
}

func NewService(logger *zap.Logger, db DB, questionStore QuestionStore) *Service {
	return &Service{
		logger:        logger,
		db:            db,
		queries:       New(db),
		questionStore: questionStore,
		tracer:        otel.Tracer("response/service"),
	}
}

// Submit materializes one submission in a single transaction: the response
// row first, then every planned answer with its choices. The unique
// constraint on (survey, respondent) turns a concurrent duplicate into
// ErrDuplicateSubmission with nothing persisted; any other failure rolls the
// whole submission back the same way.
func (s *Service) Submit(ctx context.Context, surveyID, respondentID uuid.UUID, payload []AnswerParam) (Response, error) {
	traceCtx, span := s.tracer.Start(ctx, "Submit")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	questions, err := s.questionStore.ListBySurvey(traceCtx, surveyID)
	if err != nil {
		span.RecordError(err)
		return Response{}, err
	}
	if len(questions) == 0 {
		return Response{}, internal.ErrNoQuestions
	}
	choices, err := s.questionStore.ListChoicesBySurvey(traceCtx, surveyID)
	if err != nil {
		span.RecordError(err)
		return Response{}, err
	}

	plan, err := buildAnswerPlan(questions, choices, payload)
	if err != nil {
		return Response{}, err
	}

	tx, err := s.db.Begin(traceCtx)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "begin submit transaction")
		span.RecordError(err)
		return Response{}, err
	}
	defer func() {
		_ = tx.Rollback(traceCtx)
	}()

	qtx := New(s.db).WithTx(tx)

	created, err := qtx.Create(traceCtx, CreateParams{
		SurveyID:     surveyID,
		RespondentID: respondentID,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create response")
		span.RecordError(err)
		if errors.Is(err, databaseutil.ErrUniqueViolation) {
			return Response{}, internal.ErrDuplicateSubmission
		}
		return Response{}, err
	}

	for _, planned := range plan {
		answer, err := qtx.CreateAnswer(traceCtx, CreateAnswerParams{
			ResponseID: created.ID,
			QuestionID: planned.QuestionID,
			Body:       planned.Body,
		})
		if err != nil {
			err = databaseutil.WrapDBError(err, logger, "create answer")
			span.RecordError(err)
			return Response{}, err
		}
		for _, choiceID := range planned.ChoiceIDs {
			if err := qtx.CreateAnswerChoice(traceCtx, CreateAnswerChoiceParams{
				AnswerID: answer.ID,
				ChoiceID: choiceID,
			}); err != nil {
				err = databaseutil.WrapDBError(err, logger, "create answer choice")
				span.RecordError(err)
				return Response{}, err
			}
		}
	}

	if err := tx.Commit(traceCtx); err != nil {
		err = databaseutil.WrapDBError(err, logger, "commit submit transaction")
		span.RecordError(err)
		if errors.Is(err, databaseutil.ErrUniqueViolation) {
			return Response{}, internal.ErrDuplicateSubmission
		}
		return Response{}, err
	}

	logger.Info("submitted response",
		zap.String("survey_id", surveyID.String()),
		zap.String("respondent_id", respondentID.String()),
		zap.Int("answers", len(plan)))
	return created, nil
}

// SurveyResult is the creator-facing view of one submission with its answers
// and selected choices resolved.
type SurveyResult struct {
	Response Response
	Answers  []ResultAnswer
}

type ResultAnswer struct {
	QuestionID uuid.UUID
	Body       string
	ChoiceIDs  []uuid.UUID
}

// ListResults assembles every response to a survey with answers grouped per
// submission.
func (s *Service) ListResults(ctx context.Context, surveyID uuid.UUID) ([]SurveyResult, error) {
	traceCtx, span := s.tracer.Start(ctx, "ListResults")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	responses, err := s.queries.ListBySurveyID(traceCtx, surveyID)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list responses by survey")
		span.RecordError(err)
		return nil, err
	}
	answers, err := s.queries.ListAnswersBySurveyID(traceCtx, surveyID)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list answers by survey")
		span.RecordError(err)
		return nil, err
	}
	answerChoices, err := s.queries.ListAnswerChoicesBySurveyID(traceCtx, surveyID)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list answer choices by survey")
		span.RecordError(err)
		return nil, err
	}

	choicesByAnswer := make(map[uuid.UUID][]uuid.UUID)
	for _, row := range answerChoices {
		choicesByAnswer[row.AnswerID] = append(choicesByAnswer[row.AnswerID], row.ChoiceID)
	}

	answersByResponse := make(map[uuid.UUID][]ResultAnswer)
	for _, a := range answers {
		answersByResponse[a.ResponseID] = append(answersByResponse[a.ResponseID], ResultAnswer{
			QuestionID: a.QuestionID,
			Body:       a.Body.String,
			ChoiceIDs:  choicesByAnswer[a.ID],
		})
	}

	results := make([]SurveyResult, 0, len(responses))
	for _, r := range responses {
		results = append(results, SurveyResult{
			Response: r,
			Answers:  answersByResponse[r.ID],
		})
	}
	return results, nil
}
