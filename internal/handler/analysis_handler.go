package handler

import (
	"errors"
	"net/http"

	"pr-analysis-service/internal/api"
	"pr-analysis-service/internal/auth"
	"pr-analysis-service/internal/generator"
	"pr-analysis-service/internal/models"
	"pr-analysis-service/internal/service"
	"pr-analysis-service/internal/validation"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AnalysisHandler struct {
	analysisService *service.AnalysisService
	log             *zap.Logger
}

var _ api.ServerInterface = (*AnalysisHandler)(nil)

func NewAnalysisHandler(analysisService *service.AnalysisService, log *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		log:             log,
	}
}

func (h *AnalysisHandler) CreateAnalysis(c echo.Context) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	req := &api.CreateAnalysisRequest{}
	if err := c.Bind(req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid JSON body", nil)
	}

	if fe := validation.ValidateCreateAnalysis(req); !fe.Empty() {
		return validationError(c, fe)
	}

	a, err := h.analysisService.CreateAnalysis(c.Request().Context(), service.CreateAnalysisCommand{
		PRName:      req.PrName,
		BranchName:  req.BranchName,
		TicketID:    req.TicketId,
		DiffContent: req.DiffContent,
	}, userID)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, api.CreateAnalysisResponse{
		Data: api.CreateAnalysisData{
			Id:         a.ID,
			Status:     toAPIStatus(a.Status),
			AiResponse: toAPIResponse(a.AIResponse),
			CreatedAt:  a.CreatedAt,
		},
	})
}

func (h *AnalysisHandler) GetAnalysis(c echo.Context, id uuid.UUID) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	a, err := h.analysisService.GetAnalysisByID(c.Request().Context(), userID, id)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, api.AnalysisResponse{Data: toAnalysisDTO(a)})
}

func (h *AnalysisHandler) UpdateAnalysis(c echo.Context, id uuid.UUID) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	req := &api.UpdateAnalysisRequest{}
	if err := c.Bind(req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid JSON body", nil)
	}

	if fe := validation.ValidateUpdateAnalysis(req); !fe.Empty() {
		return validationError(c, fe)
	}

	a, err := h.analysisService.UpdateAnalysis(c.Request().Context(), userID, id, service.UpdateAnalysisCommand{
		PRName:     req.PrName,
		BranchName: req.BranchName,
		TicketID:   req.TicketId,
		AIResponse: models.AIResponse{
			Summary: req.AiResponse.Summary,
			Risks:   req.AiResponse.Risks,
			Tests:   req.AiResponse.Tests,
		},
		StatusID: req.StatusId,
	})
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, api.AnalysisResponse{Data: toAnalysisDTO(a)})
}

func (h *AnalysisHandler) GenerateAnalysis(c echo.Context, id uuid.UUID) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	resp, err := h.analysisService.GenerateForExisting(c.Request().Context(), userID, id)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, api.GenerateAnalysisResponse{Data: toAPIResponse(resp)})
}

func (h *AnalysisHandler) DeleteAnalyses(c echo.Context) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	req := &api.DeleteAnalysesRequest{}
	if err := c.Bind(req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid JSON body", nil)
	}

	ids, fe := validation.ValidateDeleteIDs(req.Ids)
	if !fe.Empty() {
		return validationError(c, fe)
	}

	deleted, err := h.analysisService.DeleteAnalyses(c.Request().Context(), userID, ids)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, api.DeleteAnalysesResponse{DeletedCount: deleted})
}

func (h *AnalysisHandler) ListAnalyses(c echo.Context, params api.ListAnalysesParams) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	query, fe := validation.ValidateListQuery(params)
	if !fe.Empty() {
		return validationError(c, fe)
	}

	items, total, err := h.analysisService.ListAnalyses(c.Request().Context(), userID, query)
	if err != nil {
		return h.serviceError(c, err)
	}

	data := make([]api.AnalysisListItem, len(items))
	for i, item := range items {
		data[i] = api.AnalysisListItem{
			Id:         item.ID,
			PrName:     item.PRName,
			BranchName: item.BranchName,
			Status:     toAPIStatus(item.Status),
			CreatedAt:  item.CreatedAt,
		}
	}

	return c.JSON(http.StatusOK, api.AnalysisListResponse{
		Data: data,
		Meta: api.ListMeta{
			Total: total,
			Page:  query.Page,
			Limit: query.Limit,
		},
	})
}

func (h *AnalysisHandler) GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// serviceError maps service failures onto the HTTP error taxonomy.
func (h *AnalysisHandler) serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return errorResponse(c, http.StatusNotFound, "Analysis not found", nil)
	case errors.Is(err, service.ErrInvalidStatus):
		return errorResponse(c, http.StatusUnprocessableEntity, "Invalid status", nil)
	}

	var genErr *generator.GenerationError
	if errors.As(err, &genErr) {
		status, message := generationFailure(genErr.StatusCode)
		return errorResponse(c, status, message, &genErr.Message)
	}

	h.log.Error("unhandled service error", zap.Error(err))

	return errorResponse(c, http.StatusInternalServerError, "Internal server error", nil)
}

// generationFailure picks the caller-facing status for an upstream
// failure. 429/503/504 pass through as independently retryable; every
// other upstream code collapses to 502.
func generationFailure(upstream int) (int, string) {
	switch upstream {
	case http.StatusTooManyRequests:
		return http.StatusTooManyRequests, "Too many requests - rate limit exceeded"
	case http.StatusServiceUnavailable:
		return http.StatusServiceUnavailable, "AI service unavailable"
	case http.StatusGatewayTimeout:
		return http.StatusGatewayTimeout, "AI service timeout"
	default:
		return http.StatusBadGateway, "AI generation failed"
	}
}

func unauthorized(c echo.Context) error {
	return errorResponse(c, http.StatusUnauthorized, "Unauthorized", nil)
}

func errorResponse(c echo.Context, status int, message string, details *string) error {
	return c.JSON(status, api.ErrorResponse{
		Error:      message,
		Details:    details,
		StatusCode: status,
	})
}

func validationError(c echo.Context, fe validation.FieldErrors) error {
	return c.JSON(http.StatusBadRequest, api.ValidationErrorResponse{
		Error:       "Validation failed",
		FieldErrors: fe,
		StatusCode:  http.StatusBadRequest,
	})
}

func toAPIStatus(s models.Status) api.Status {
	return api.Status{Id: s.ID, Code: s.Code}
}

// toAPIResponse always yields an explicit triple; a not-yet-generated
// analysis reads as three empty strings on the wire.
func toAPIResponse(r models.AIResponse) api.AIResponse {
	return api.AIResponse{
		Summary: r.Summary,
		Risks:   r.Risks,
		Tests:   r.Tests,
	}
}

func toAnalysisDTO(a *models.Analysis) api.AnalysisDTO {
	return api.AnalysisDTO{
		Id:          a.ID,
		PrName:      a.PRName,
		BranchName:  a.BranchName,
		TicketId:    a.TicketID,
		DiffContent: a.DiffContent,
		AiResponse:  toAPIResponse(a.AIResponse),
		Status:      toAPIStatus(a.Status),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
