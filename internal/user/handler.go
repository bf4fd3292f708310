package user

import (
	"net/http"

	"amusurvey/backend/internal"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Response struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name,omitempty"`
	Email    string    `json:"email,omitempty"`
	UserType UserType  `json:"userType"`
	IsStaff  bool      `json:"isStaff"`
}

type Handler struct {
	logger        *zap.Logger
	service       *Service
	problemWriter *problem.HttpWriter
	tracer        trace.Tracer
}

func NewHandler(logger *zap.Logger, service *Service, problemWriter *problem.HttpWriter) *Handler {
	return &Handler{
		logger:        logger,
		service:       service,
		problemWriter: problemWriter,
		tracer:        otel.Tracer("user/handler"),
	}
}

// GetMeHandler returns the authenticated user's account and profile.
func (h *Handler) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetMeHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	current, ok := GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	profile, err := h.service.GetProfile(traceCtx, current.ID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, Response{
		ID:       current.ID,
		Username: current.Username,
		Name:     current.Name.String,
		Email:    current.Email.String,
		UserType: profile.UserType,
		IsStaff:  current.IsStaff,
	})
}
