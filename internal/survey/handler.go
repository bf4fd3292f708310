package survey

import (
	"context"
	"net/http"
	"time"

	"amusurvey/backend/internal"
	"amusurvey/backend/internal/survey/question"
	"amusurvey/backend/internal/user"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// QuestionStore supplies the question graph for the take-survey payload.
type QuestionStore interface {
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]question.Question, error)
	ListChoicesBySurvey(ctx context.Context, surveyID uuid.UUID) ([]question.Choice, error)
}

type QuestionSpecBody struct {
	ID            string `json:"id" validate:"omitempty,uuid"`
	Text          string `json:"text"`
	QuestionType  string `json:"questionType"`
	ChoicesText   string `json:"choicesText"`
	MarkedDeleted bool   `json:"markedDeleted"`
}

type CreateRequest struct {
	Title          string             `json:"title" validate:"required"`
	Description    string             `json:"description"`
	TargetAudience string             `json:"targetAudience" validate:"required"`
	StartDate      *time.Time         `json:"startDate"`
	EndDate        *time.Time         `json:"endDate"`
	IsActive       bool               `json:"isActive"`
	IsPublic       bool               `json:"isPublic"`
	Questions      []QuestionSpecBody `json:"questions" validate:"required,min=1,dive"`
}

type UpdateRequest struct {
	Title          string     `json:"title" validate:"required"`
	Description    string     `json:"description"`
	TargetAudience string     `json:"targetAudience" validate:"required"`
	StartDate      *time.Time `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
	IsActive       bool       `json:"isActive"`
	IsPublic       bool       `json:"isPublic"`
}

type Response struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	CreatorID      uuid.UUID  `json:"creatorId"`
	TargetAudience Audience   `json:"targetAudience"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	IsActive       bool       `json:"isActive"`
	IsPublic       bool       `json:"isPublic"`
	PublicID       uuid.UUID  `json:"publicId"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type TakeQuestionResponse struct {
	ID           uuid.UUID                 `json:"id"`
	Text         string                    `json:"text"`
	QuestionType question.QuestionType     `json:"questionType"`
	Order        int32                     `json:"order"`
	Choices      []question.ChoiceResponse `json:"choices,omitempty"`
}

type TakeResponse struct {
	Survey    Response               `json:"survey"`
	Questions []TakeQuestionResponse `json:"questions"`
}

type Handler struct {
	logger        *zap.Logger
	validator     *validator.Validate
	service       *Service
	questionStore QuestionStore
	problemWriter *problem.HttpWriter
	tracer        trace.Tracer
}

func NewHandler(logger *zap.Logger, validator *validator.Validate, service *Service, questionStore QuestionStore, problemWriter *problem.HttpWriter) *Handler {
	return &Handler{
		logger:        logger,
		validator:     validator,
		service:       service,
		questionStore: questionStore,
		problemWriter: problemWriter,
		tracer:        otel.Tracer("survey/handler"),
	}
}

func toResponse(s Survey) Response {
	resp := Response{
		ID:             s.ID,
		Title:          s.Title,
		Description:    s.Description,
		CreatorID:      s.CreatorID,
		TargetAudience: s.TargetAudience,
		IsActive:       s.IsActive,
		IsPublic:       s.IsPublic,
		PublicID:       s.PublicID,
		CreatedAt:      s.CreatedAt.Time,
	}
	if s.StartDate.Valid {
		t := s.StartDate.Time
		resp.StartDate = &t
	}
	if s.EndDate.Valid {
		t := s.EndDate.Time
		resp.EndDate = &t
	}
	return resp
}

func toTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func specsFromBody(bodies []QuestionSpecBody) []QuestionSpec {
	specs := make([]QuestionSpec, 0, len(bodies))
	for _, b := range bodies {
		spec := QuestionSpec{
			Text:          b.Text,
			QuestionType:  question.QuestionType(b.QuestionType),
			ChoicesText:   b.ChoicesText,
			MarkedDeleted: b.MarkedDeleted,
		}
		if id, err := uuid.Parse(b.ID); err == nil {
			spec.ID = id
		}
		specs = append(specs, spec)
	}
	return specs
}

// CreateHandler persists a full survey graph. Only staff accounts author
// surveys.
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "CreateHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	current, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}
	if !current.IsStaff {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrPermissionDenied, logger)
		return
	}

	var req CreateRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	created, err := h.service.Create(traceCtx, current.ID, Fields{
		Title:          req.Title,
		Description:    req.Description,
		TargetAudience: Audience(req.TargetAudience),
		StartDate:      toTimestamptz(req.StartDate),
		EndDate:        toTimestamptz(req.EndDate),
		IsActive:       req.IsActive,
		IsPublic:       req.IsPublic,
	}, specsFromBody(req.Questions))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "UpdateHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	surveyID, err := handlerutil.ParseUUID(r.PathValue("surveyId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	current, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	var req UpdateRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	updated, err := h.service.Update(traceCtx, surveyID, current.ID, Fields{
		Title:          req.Title,
		Description:    req.Description,
		TargetAudience: Audience(req.TargetAudience),
		StartDate:      toTimestamptz(req.StartDate),
		EndDate:        toTimestamptz(req.EndDate),
		IsActive:       req.IsActive,
		IsPublic:       req.IsPublic,
	})
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "DeleteHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	surveyID, err := handlerutil.ParseUUID(r.PathValue("surveyId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	current, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	if err := h.service.Delete(traceCtx, surveyID, current.ID); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	surveyID, err := handlerutil.ParseUUID(r.PathValue("surveyId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	current, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	found, err := h.service.GetByID(traceCtx, surveyID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}
	if found.CreatorID != current.ID {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrPermissionDenied, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, toResponse(found))
}

func (h *Handler) ListAvailableHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ListAvailableHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	current, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	surveys, err := h.service.ListAvailable(traceCtx, current.ID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	responses := make([]Response, 0, len(surveys))
	for _, s := range surveys {
		responses = append(responses, toResponse(s))
	}
	handlerutil.WriteJSONResponse(w, http.StatusOK, responses)
}

func (h *Handler) ListMineHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ListMineHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	current, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	surveys, err := h.service.ListMine(traceCtx, current.ID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	responses := make([]Response, 0, len(surveys))
	for _, s := range surveys {
		responses = append(responses, toResponse(s))
	}
	handlerutil.WriteJSONResponse(w, http.StatusOK, responses)
}

// TakeHandler checks eligibility for direct navigation and returns the form
// payload: survey fields plus ordered questions with their choices.
func (h *Handler) TakeHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "TakeHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	surveyID, err := handlerutil.ParseUUID(r.PathValue("surveyId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	found, err := h.service.GetByID(traceCtx, surveyID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	h.writeTakePayload(traceCtx, w, found, AccessAuthenticated, logger)
}

// TakeByPublicIDHandler is the shareable-link entry point. Possession of the
// link does not waive login; eligibility runs in public-link mode.
func (h *Handler) TakeByPublicIDHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "TakeByPublicIDHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	publicID, err := handlerutil.ParseUUID(r.PathValue("publicId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	found, err := h.service.GetByPublicID(traceCtx, publicID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	h.writeTakePayload(traceCtx, w, found, AccessPublicLink, logger)
}

func (h *Handler) writeTakePayload(ctx context.Context, w http.ResponseWriter, sv Survey, mode AccessMode, logger *zap.Logger) {
	current, ok := user.GetFromContext(ctx)
	if !ok {
		h.problemWriter.WriteError(ctx, w, internal.ErrNoUserInContext, logger)
		return
	}

	if err := h.service.CheckEligibility(ctx, sv, current.ID, mode); err != nil {
		h.problemWriter.WriteError(ctx, w, err, logger)
		return
	}

	questions, err := h.questionStore.ListBySurvey(ctx, sv.ID)
	if err != nil {
		h.problemWriter.WriteError(ctx, w, err, logger)
		return
	}
	choices, err := h.questionStore.ListChoicesBySurvey(ctx, sv.ID)
	if err != nil {
		h.problemWriter.WriteError(ctx, w, err, logger)
		return
	}

	choicesByQuestion := make(map[uuid.UUID][]question.ChoiceResponse)
	for _, c := range choices {
		choicesByQuestion[c.QuestionID] = append(choicesByQuestion[c.QuestionID], question.ChoiceResponse{
			ID:   c.ID,
			Text: c.Text,
		})
	}

	payload := TakeResponse{
		Survey:    toResponse(sv),
		Questions: make([]TakeQuestionResponse, 0, len(questions)),
	}
	for _, q := range questions {
		payload.Questions = append(payload.Questions, TakeQuestionResponse{
			ID:           q.ID,
			Text:         q.Text,
			QuestionType: q.QuestionType,
			Order:        q.Order,
			Choices:      choicesByQuestion[q.ID],
		})
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, payload)
}
