package survey

import (
	"context"
	"errors"
	"strings"
	"time"

	"amusurvey/backend/internal"
	"amusurvey/backend/internal/survey/question"
	"amusurvey/backend/internal/user"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Querier interface {
	Create(ctx context.Context, arg CreateParams) (Survey, error)
	GetByID(ctx context.Context, id uuid.UUID) (Survey, error)
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (Survey, error)
	Update(ctx context.Context, arg UpdateParams) (Survey, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]Survey, error)
	ListOpenForRespondent(ctx context.Context, arg ListOpenForRespondentParams) ([]Survey, error)
	HasResponded(ctx context.Context, arg HasRespondedParams) (bool, error)
}

// ProfileStore supplies the respondent's community role for audience checks.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (user.Profile, error)
}

type DB interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service struct {
	logger       *zap.Logger
	db           DB
	queries      Querier
	profileStore ProfileStore
	tracer       trace.Tracer
}

func NewService(logger *zap.Logger, db DB, profileStore ProfileStore) *Service {
	return &Service{
		logger:       logger,
		db:           db,
		queries:      New(db),
		profileStore: profileStore,
		tracer:       otel.Tracer("survey/service"),
	}
}

// Fields carries the survey-level authoring input; the creator is always
// bound server-side from the authenticated actor.
type Fields struct {
	Title          string
	Description    string
	TargetAudience Audience
	StartDate      pgtype.Timestamptz
	EndDate        pgtype.Timestamptz
	IsActive       bool
	IsPublic       bool
}

func (f Fields) validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return internal.ErrValidationFailed
	}
	if !IsValidAudience(f.TargetAudience) {
		return internal.ErrValidationFailed
	}
	return nil
}

// Create persists the whole survey graph in one transaction: the survey row,
// one question per retained spec with order equal to its positional index,
// the choices parsed from each choice-type spec, and the deletion of any
// questions the specs marked for removal. Any failure rolls the whole
// creation back.
func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, fields Fields, specs []QuestionSpec) (Survey, error) {
	traceCtx, span := s.tracer.Start(ctx, "Create")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	if err := fields.validate(); err != nil {
		return Survey{}, err
	}
	retained, deleted, err := normalizeSpecs(specs)
	if err != nil {
		return Survey{}, err
	}

	tx, err := s.db.Begin(traceCtx)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "begin survey create transaction")
		span.RecordError(err)
		return Survey{}, err
	}
	defer func() {
		_ = tx.Rollback(traceCtx)
	}()

	qtx := New(s.db).WithTx(tx)
	questionTx := question.New(tx)

	created, err := qtx.Create(traceCtx, CreateParams{
		Title:          strings.TrimSpace(fields.Title),
		Description:    fields.Description,
		CreatorID:      creatorID,
		TargetAudience: fields.TargetAudience,
		StartDate:      fields.StartDate,
		EndDate:        fields.EndDate,
		IsActive:       fields.IsActive,
		IsPublic:       fields.IsPublic,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create survey")
		span.RecordError(err)
		return Survey{}, err
	}

	for _, spec := range retained {
		inserted, err := questionTx.Create(traceCtx, question.CreateParams{
			SurveyID:     created.ID,
			Text:         spec.Text,
			QuestionType: spec.QuestionType,
			Order:        spec.Order,
		})
		if err != nil {
			err = databaseutil.WrapDBError(err, logger, "create survey question")
			span.RecordError(err)
			return Survey{}, err
		}
		for _, choiceText := range spec.Choices {
			if _, err := questionTx.CreateChoice(traceCtx, question.CreateChoiceParams{
				QuestionID: inserted.ID,
				Text:       choiceText,
			}); err != nil {
				err = databaseutil.WrapDBError(err, logger, "create survey choice")
				span.RecordError(err)
				return Survey{}, err
			}
		}
	}

	// Deletion markers reference questions persisted under the creator's
	// earlier surveys, so ownership is checked per question before removal.
	// An id that no longer resolves is skipped.
	for _, questionID := range deleted {
		ownerID, err := questionTx.GetCreatorIDByQuestionID(traceCtx, questionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			err = databaseutil.WrapDBError(err, logger, "resolve removed question owner")
			span.RecordError(err)
			return Survey{}, err
		}
		if ownerID != creatorID {
			return Survey{}, internal.ErrPermissionDenied
		}
		if _, err := questionTx.DeleteByID(traceCtx, questionID); err != nil {
			err = databaseutil.WrapDBError(err, logger, "delete removed question")
			span.RecordError(err)
			return Survey{}, err
		}
	}

	if err := tx.Commit(traceCtx); err != nil {
		err = databaseutil.WrapDBError(err, logger, "commit survey create transaction")
		span.RecordError(err)
		return Survey{}, err
	}

	logger.Info("created survey",
		zap.String("survey_id", created.ID.String()),
		zap.String("creator_id", creatorID.String()),
		zap.Int("questions", len(retained)))
	return created, nil
}

// Update rewrites the survey-level settings; only the creator may do so and
// public_id never changes.
func (s *Service) Update(ctx context.Context, surveyID, actorID uuid.UUID, fields Fields) (Survey, error) {
	traceCtx, span := s.tracer.Start(ctx, "Update")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	if err := fields.validate(); err != nil {
		return Survey{}, err
	}

	existing, err := s.GetByID(traceCtx, surveyID)
	if err != nil {
		return Survey{}, err
	}
	if existing.CreatorID != actorID {
		return Survey{}, internal.ErrPermissionDenied
	}

	updated, err := s.queries.Update(traceCtx, UpdateParams{
		ID:             surveyID,
		Title:          strings.TrimSpace(fields.Title),
		Description:    fields.Description,
		TargetAudience: fields.TargetAudience,
		StartDate:      fields.StartDate,
		EndDate:        fields.EndDate,
		IsActive:       fields.IsActive,
		IsPublic:       fields.IsPublic,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "update survey")
		span.RecordError(err)
		return Survey{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, surveyID, actorID uuid.UUID) error {
	traceCtx, span := s.tracer.Start(ctx, "Delete")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	existing, err := s.GetByID(traceCtx, surveyID)
	if err != nil {
		return err
	}
	if existing.CreatorID != actorID {
		return internal.ErrPermissionDenied
	}

	if _, err := s.queries.Delete(traceCtx, surveyID); err != nil {
		err = databaseutil.WrapDBError(err, logger, "delete survey")
		span.RecordError(err)
		return err
	}

	logger.Info("deleted survey", zap.String("survey_id", surveyID.String()))
	return nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Survey, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetByID")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	found, err := s.queries.GetByID(traceCtx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Survey{}, internal.ErrSurveyNotFound
		}
		err = databaseutil.WrapDBError(err, logger, "get survey by id")
		span.RecordError(err)
		return Survey{}, err
	}
	return found, nil
}

// GetByPublicID resolves the shareable-link entry point. A survey that is not
// public or not active is reported as not found rather than forbidden, so the
// link leaks nothing about its existence.
func (s *Service) GetByPublicID(ctx context.Context, publicID uuid.UUID) (Survey, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetByPublicID")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	found, err := s.queries.GetByPublicID(traceCtx, publicID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Survey{}, internal.ErrSurveyNotFound
		}
		err = databaseutil.WrapDBError(err, logger, "get survey by public id")
		span.RecordError(err)
		return Survey{}, err
	}
	if !found.IsPublic || !found.IsActive {
		return Survey{}, internal.ErrSurveyNotFound
	}
	return found, nil
}

func (s *Service) ListMine(ctx context.Context, creatorID uuid.UUID) ([]Survey, error) {
	traceCtx, span := s.tracer.Start(ctx, "ListMine")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	surveys, err := s.queries.ListByCreator(traceCtx, creatorID)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list surveys by creator")
		span.RecordError(err)
		return nil, err
	}
	return surveys, nil
}

// ListAvailable is the respondent-facing listing: open, audience-matched,
// not yet answered.
func (s *Service) ListAvailable(ctx context.Context, respondentID uuid.UUID) ([]Survey, error) {
	traceCtx, span := s.tracer.Start(ctx, "ListAvailable")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	userType := ""
	profile, err := s.profileStore.GetProfile(traceCtx, respondentID)
	if err == nil {
		userType = string(profile.UserType)
	} else if !errors.Is(err, internal.ErrUserNotFound) {
		span.RecordError(err)
		return nil, err
	}

	surveys, err := s.queries.ListOpenForRespondent(traceCtx, ListOpenForRespondentParams{
		RespondentID: respondentID,
		UserType:     userType,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list open surveys")
		span.RecordError(err)
		return nil, err
	}
	return surveys, nil
}

// CheckEligibility performs the reads canRespond needs and maps a rejection
// to ErrSurveyNotAvailable; callers render a generic unavailable state.
func (s *Service) CheckEligibility(ctx context.Context, sv Survey, respondentID uuid.UUID, mode AccessMode) error {
	traceCtx, span := s.tracer.Start(ctx, "CheckEligibility")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	responded, err := s.queries.HasResponded(traceCtx, HasRespondedParams{
		SurveyID:     sv.ID,
		RespondentID: respondentID,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "check existing response")
		span.RecordError(err)
		return err
	}

	hasProfile := true
	var userType user.UserType
	profile, err := s.profileStore.GetProfile(traceCtx, respondentID)
	switch {
	case err == nil:
		userType = profile.UserType
	case errors.Is(err, internal.ErrUserNotFound):
		hasProfile = false
	default:
		span.RecordError(err)
		return err
	}

	if !canRespond(EligibilityInput{
		Survey:       sv,
		RespondentID: respondentID,
		UserType:     userType,
		HasProfile:   hasProfile,
		HasResponded: responded,
		Now:          time.Now(),
		Mode:         mode,
	}) {
		return internal.ErrSurveyNotAvailable
	}
	return nil
}
