package question

import (
	"context"
	"errors"
	"strings"

	"amusurvey/backend/internal"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Querier interface {
	Create(ctx context.Context, arg CreateParams) (Question, error)
	GetByID(ctx context.Context, id uuid.UUID) (Question, error)
	Update(ctx context.Context, arg UpdateParams) (Question, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (int64, error)
	ListBySurveyID(ctx context.Context, surveyID uuid.UUID) ([]Question, error)
	GetCreatorIDByQuestionID(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	CreateChoice(ctx context.Context, arg CreateChoiceParams) (Choice, error)
	DeleteChoicesByQuestionID(ctx context.Context, questionID uuid.UUID) error
	ListChoicesByQuestionID(ctx context.Context, questionID uuid.UUID) ([]Choice, error)
	ListChoicesBySurveyID(ctx context.Context, surveyID uuid.UUID) ([]Choice, error)
}

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
		tracer:  otel.Tracer("question/service"),
	}
}

// UpdateRequest carries the editable fields of a single question. ChoicesText
// is the raw newline-delimited choice input; it only applies to choice types.
type UpdateRequest struct {
	Text         string
	QuestionType QuestionType
	Order        int32
	ChoicesText  string
}

// Update rewrites one question and replaces its whole choice set in a single
// transaction. The caller must be the creator of the owning survey.
func (s *Service) Update(ctx context.Context, questionID, actorID uuid.UUID, req UpdateRequest) (Question, error) {
	traceCtx, span := s.tracer.Start(ctx, "Update")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	if strings.TrimSpace(req.Text) == "" || !IsValidType(req.QuestionType) || req.Order < 0 {
		return Question{}, internal.ErrValidationFailed
	}

	creatorID, err := s.queries.GetCreatorIDByQuestionID(traceCtx, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Question{}, internal.ErrQuestionNotFound
		}
		err = databaseutil.WrapDBError(err, logger, "get question creator")
		span.RecordError(err)
		return Question{}, err
	}
	if creatorID != actorID {
		return Question{}, internal.ErrPermissionDenied
	}

	tx, err := s.db.Begin(traceCtx)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "begin question update transaction")
		span.RecordError(err)
		return Question{}, err
	}
	defer func() {
		_ = tx.Rollback(traceCtx)
	}()

	qtx := New(s.db).WithTx(tx)

	updated, err := qtx.Update(traceCtx, UpdateParams{
		ID:           questionID,
		Text:         strings.TrimSpace(req.Text),
		QuestionType: req.QuestionType,
		Order:        req.Order,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "update question")
		span.RecordError(err)
		return Question{}, err
	}

	// The choice set is replaced wholesale; a type change away from the
	// choice kinds drops the old choices.
	if err := qtx.DeleteChoicesByQuestionID(traceCtx, questionID); err != nil {
		err = databaseutil.WrapDBError(err, logger, "delete question choices")
		span.RecordError(err)
		return Question{}, err
	}
	if req.QuestionType.HasChoices() {
		for _, text := range ParseChoiceLines(req.ChoicesText) {
			if _, err := qtx.CreateChoice(traceCtx, CreateChoiceParams{QuestionID: questionID, Text: text}); err != nil {
				err = databaseutil.WrapDBError(err, logger, "create question choice")
				span.RecordError(err)
				return Question{}, err
			}
		}
	}

	if err := tx.Commit(traceCtx); err != nil {
		err = databaseutil.WrapDBError(err, logger, "commit question update transaction")
		span.RecordError(err)
		return Question{}, err
	}

	logger.Info("updated question", zap.String("question_id", questionID.String()))
	return updated, nil
}

func (s *Service) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]Question, error) {
	traceCtx, span := s.tracer.Start(ctx, "ListBySurvey")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	questions, err := s.queries.ListBySurveyID(traceCtx, surveyID)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list questions by survey")
		span.RecordError(err)
		return nil, err
	}
	return questions, nil
}

func (s *Service) ListChoicesBySurvey(ctx context.Context, surveyID uuid.UUID) ([]Choice, error) {
	traceCtx, span := s.tracer.Start(ctx, "ListChoicesBySurvey")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	choices, err := s.queries.ListChoicesBySurveyID(traceCtx, surveyID)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list choices by survey")
		span.RecordError(err)
		return nil, err
	}
	return choices, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Question, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetByID")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	found, err := s.queries.GetByID(traceCtx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Question{}, internal.ErrQuestionNotFound
		}
		err = databaseutil.WrapDBError(err, logger, "get question by id")
		span.RecordError(err)
		return Question{}, err
	}
	return found, nil
}
