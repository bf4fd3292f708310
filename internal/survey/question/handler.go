package question

import (
	"net/http"

	"amusurvey/backend/internal"
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

type UpdateRequestBody struct {
	Text         string `json:"text" validate:"required"`
	QuestionType string `json:"questionType" validate:"required"`
	Order        int32  `json:"order" validate:"gte=0"`
	ChoicesText  string `json:"choicesText"`
}

type ChoiceResponse struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

type Response struct {
	ID           uuid.UUID        `json:"id"`
	SurveyID     uuid.UUID        `json:"surveyId"`
	Text         string           `json:"text"`
	QuestionType QuestionType     `json:"questionType"`
	Order        int32            `json:"order"`
	Choices      []ChoiceResponse `json:"choices,omitempty"`
}

type Handler struct {
	logger        *zap.Logger
	validator     *validator.Validate
	service       *Service
	problemWriter *problem.HttpWriter
	tracer        trace.Tracer
}

func NewHandler(logger *zap.Logger, validator *validator.Validate, service *Service, problemWriter *problem.HttpWriter) *Handler {
	return &Handler{
		logger:        logger,
		validator:     validator,
		service:       service,
		problemWriter: problemWriter,
		tracer:        otel.Tracer("question/handler"),
	}
}

// UpdateHandler is the single-question edit path: text, type, order and the
// full choice set in one request.
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "UpdateHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	questionID, err := handlerutil.ParseUUID(r.PathValue("questionId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	current, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	var body UpdateRequestBody
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &body); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	updated, err := h.service.Update(traceCtx, questionID, current.ID, UpdateRequest{
		Text:         body.Text,
		QuestionType: QuestionType(body.QuestionType),
		Order:        body.Order,
		ChoicesText:  body.ChoicesText,
	})
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, Response{
		ID:           updated.ID,
		SurveyID:     updated.SurveyID,
		Text:         updated.Text,
		QuestionType: updated.QuestionType,
		Order:        updated.Order,
	})
}
