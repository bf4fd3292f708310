package response

import (
	"context"
	"net/http"
	"time"

	"amusurvey/backend/internal"
	"amusurvey/backend/internal/survey"
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

// SurveyStore resolves the target survey and gates submission on
// eligibility.
type SurveyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (survey.Survey, error)
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (survey.Survey, error)
	CheckEligibility(ctx context.Context, sv survey.Survey, respondentID uuid.UUID, mode survey.AccessMode) error
}

type AnswerBody struct {
	QuestionID string   `json:"questionId" validate:"required,uuid"`
	Body       string   `json:"body"`
	ChoiceIDs  []string `json:"choiceIds" validate:"dive,uuid"`
}

type SubmitRequest struct {
	Answers []AnswerBody `json:"answers" validate:"dive"`
}

type SubmitResponse struct {
	ID          uuid.UUID `json:"id"`
	SurveyID    uuid.UUID `json:"surveyId"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type ResultAnswerResponse struct {
	QuestionID uuid.UUID   `json:"questionId"`
	Body       string      `json:"body,omitempty"`
	ChoiceIDs  []uuid.UUID `json:"choiceIds,omitempty"`
}

type ResultResponse struct {
	ResponseID   uuid.UUID              `json:"responseId"`
	RespondentID uuid.UUID              `json:"respondentId"`
	SubmittedAt  time.Time              `json:"submittedAt"`
	Answers      []ResultAnswerResponse `json:"answers"`
}

type Handler struct {
	logger        *zap.Logger
	validator     *validator.Validate
	service       *Service
	surveyStore   SurveyStore
	problemWriter *problem.HttpWriter
	tracer        trace.Tracer
}

func NewHandler(logger *zap.Logger, validator *validator.Validate, service *Service, surveyStore SurveyStore, problemWriter *problem.HttpWriter) *Handler {
	return &Handler{
		logger:        logger,
		validator:     validator,
		service:       service,
		surveyStore:   surveyStore,
		problemWriter: problemWriter,
		tracer:        otel.Tracer("response/handler"),
	}
}

// SubmitHandler accepts a submission reached by direct navigation.
func (h *Handler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "SubmitHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	surveyID, err := handlerutil.ParseUUID(r.PathValue("surveyId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	sv, err := h.surveyStore.GetByID(traceCtx, surveyID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	h.submit(traceCtx, w, r, sv, survey.AccessAuthenticated, logger)
}

// SubmitByPublicIDHandler accepts a submission through the shareable link.
func (h *Handler) SubmitByPublicIDHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "SubmitByPublicIDHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	publicID, err := handlerutil.ParseUUID(r.PathValue("publicId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	sv, err := h.surveyStore.GetByPublicID(traceCtx, publicID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	h.submit(traceCtx, w, r, sv, survey.AccessPublicLink, logger)
}

func (h *Handler) submit(ctx context.Context, w http.ResponseWriter, r *http.Request, sv survey.Survey, mode survey.AccessMode, logger *zap.Logger) {
	current, ok := user.GetFromContext(ctx)
	if !ok {
		h.problemWriter.WriteError(ctx, w, internal.ErrNoUserInContext, logger)
		return
	}

	if err := h.surveyStore.CheckEligibility(ctx, sv, current.ID, mode); err != nil {
		h.problemWriter.WriteError(ctx, w, err, logger)
		return
	}

	var req SubmitRequest
	if err := handlerutil.ParseAndValidateRequestBody(ctx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(ctx, w, err, logger)
		return
	}

	payload := make([]AnswerParam, 0, len(req.Answers))
	for _, a := range req.Answers {
		questionID, err := uuid.Parse(a.QuestionID)
		if err != nil {
			h.problemWriter.WriteError(ctx, w, internal.ErrValidationFailed, logger)
			return
		}
		param := AnswerParam{QuestionID: questionID, Body: a.Body}
		for _, raw := range a.ChoiceIDs {
			choiceID, err := uuid.Parse(raw)
			if err != nil {
				h.problemWriter.WriteError(ctx, w, internal.ErrValidationFailed, logger)
				return
			}
			param.ChoiceIDs = append(param.ChoiceIDs, choiceID)
		}
		payload = append(payload, param)
	}

	created, err := h.service.Submit(ctx, sv.ID, current.ID, payload)
	if err != nil {
		h.problemWriter.WriteError(ctx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusCreated, SubmitResponse{
		ID:          created.ID,
		SurveyID:    created.SurveyID,
		SubmittedAt: created.SubmittedAt.Time,
	})
}

// ResultsHandler returns every submission for the creator's survey.
func (h *Handler) ResultsHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ResultsHandler")
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

	sv, err := h.surveyStore.GetByID(traceCtx, surveyID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}
	if sv.CreatorID != current.ID {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrPermissionDenied, logger)
		return
	}

	results, err := h.service.ListResults(traceCtx, surveyID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	out := make([]ResultResponse, 0, len(results))
	for _, res := range results {
		item := ResultResponse{
			ResponseID:   res.Response.ID,
			RespondentID: res.Response.RespondentID,
			SubmittedAt:  res.Response.SubmittedAt.Time,
			Answers:      make([]ResultAnswerResponse, 0, len(res.Answers)),
		}
		for _, a := range res.Answers {
			item.Answers = append(item.Answers, ResultAnswerResponse{
				QuestionID: a.QuestionID,
				Body:       a.Body,
				ChoiceIDs:  a.ChoiceIDs,
			})
		}
		out = append(out, item)
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, out)
}
