package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pr-analysis-service/internal/api"
	"pr-analysis-service/internal/auth"
	"pr-analysis-service/internal/generator"
	"pr-analysis-service/internal/handler"
	"pr-analysis-service/internal/mocks"
	"pr-analysis-service/internal/models"
	"pr-analysis-service/internal/repository"
	"pr-analysis-service/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

const validDiff = `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
 package main
+import "fmt"
`

// env wires the real router, middleware, service and mock generator
// over mocked repositories, so a request exercises the full chain.
type env struct {
	router       *echo.Echo
	analysisRepo *mocks.MockAnalysisRepository
	statusRepo   *mocks.MockStatusRepository
	aiLogRepo    *mocks.MockAILogRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	analysisRepo := mocks.NewMockAnalysisRepository(ctrl)
	statusRepo := mocks.NewMockStatusRepository(ctrl)
	aiLogRepo := mocks.NewMockAILogRepository(ctrl)

	svc := service.NewAnalysisService(
		analysisRepo,
		statusRepo,
		aiLogRepo,
		generator.NewMock(),
		service.TxManagerStub{},
		zap.NewNop(),
	)

	e := echo.New()
	e.Use(auth.Middleware(auth.NewTrustedHeaderResolver(""), "/health"))
	api.RegisterHandlers(e, handler.NewAnalysisHandler(svc, zap.NewNop()))

	return &env{
		router:       e,
		analysisRepo: analysisRepo,
		statusRepo:   statusRepo,
		aiLogRepo:    aiLogRepo,
	}
}

func (env *env) request(t *testing.T, method, path string, userID *uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != nil {
		req.Header.Set(auth.DefaultUserIDHeader, userID.String())
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func createBody() api.CreateAnalysisRequest {
	return api.CreateAnalysisRequest{
		PrName:      "Add caching",
		BranchName:  "feature/cache",
		DiffContent: validDiff,
	}
}

func TestAnalysisHandler_Auth(t *testing.T) {
	env := newEnv(t)

	t.Run("missing user header", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/api/analysis/all", nil, nil)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		resp := decode[api.ErrorResponse](t, rec)
		require.Equal(t, "Unauthorized", resp.Error)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed user header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/analysis/all", nil)
		req.Header.Set(auth.DefaultUserIDHeader, "not-a-uuid")
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("health needs no identity", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/health", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAnalysisHandler_CreateAnalysis(t *testing.T) {
	userID := uuid.New()
	analysisID := uuid.New()

	stubDraft := func(env *env) {
		env.analysisRepo.EXPECT().
			CreateDraft(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, a *models.Analysis) error {
				a.ID = analysisID
				a.Status = models.DraftStatus
				return nil
			})
	}

	t.Run("success", func(t *testing.T) {
		env := newEnv(t)
		stubDraft(env)
		env.aiLogRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
		env.analysisRepo.EXPECT().
			SetAIResponse(gomock.Any(), userID, analysisID, gomock.Any()).
			Return(nil)

		rec := env.request(t, http.MethodPost, "/api/analysis", &userID, createBody())

		require.Equal(t, http.StatusCreated, rec.Code)
		resp := decode[api.CreateAnalysisResponse](t, rec)
		require.Equal(t, analysisID, resp.Data.Id)
		require.Equal(t, models.StatusDraft, resp.Data.Status.Id)
		require.NotEmpty(t, resp.Data.AiResponse.Summary)
		require.NotEmpty(t, resp.Data.AiResponse.Risks)
		require.NotEmpty(t, resp.Data.AiResponse.Tests)
	})

	t.Run("validation failure shape", func(t *testing.T) {
		env := newEnv(t)

		body := createBody()
		body.PrName = ""
		body.DiffContent = "not a diff"
		rec := env.request(t, http.MethodPost, "/api/analysis", &userID, body)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[api.ValidationErrorResponse](t, rec)
		require.Equal(t, "Validation failed", resp.Error)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Contains(t, resp.FieldErrors, "pr_name")
		require.Contains(t, resp.FieldErrors, "diff_content")
	})

	t.Run("upstream failures map onto the taxonomy", func(t *testing.T) {
		tests := []struct {
			keyword string
			status  int
		}{
			{generator.KeywordRateLimit, http.StatusTooManyRequests},
			{generator.KeywordServiceUnavailable, http.StatusServiceUnavailable},
			{generator.KeywordTimeout, http.StatusGatewayTimeout},
			{generator.KeywordInternalError, http.StatusBadGateway},
		}

		for _, tt := range tests {
			t.Run(fmt.Sprintf("%s->%d", tt.keyword, tt.status), func(t *testing.T) {
				env := newEnv(t)
				stubDraft(env)
				env.aiLogRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

				body := createBody()
				body.PrName = "test " + tt.keyword
				rec := env.request(t, http.MethodPost, "/api/analysis", &userID, body)

				require.Equal(t, tt.status, rec.Code)
				resp := decode[api.ErrorResponse](t, rec)
				require.Equal(t, tt.status, resp.StatusCode)
				require.NotNil(t, resp.Details)
			})
		}
	})
}

func TestAnalysisHandler_GetAnalysis(t *testing.T) {
	userID := uuid.New()
	analysisID := uuid.New()

	t.Run("success", func(t *testing.T) {
		env := newEnv(t)

		ticket := "PROJ-7"
		env.analysisRepo.EXPECT().
			GetByID(gomock.Any(), userID, analysisID).
			Return(&models.Analysis{
				ID:          analysisID,
				UserID:      userID,
				PRName:      "Add caching",
				BranchName:  "feature/cache",
				TicketID:    &ticket,
				DiffContent: validDiff,
				AIResponse:  models.AIResponse{Summary: "s", Risks: "r", Tests: "t"},
				Status:      models.Status{ID: models.StatusPendingReview, Code: "pending_review"},
			}, nil)

		rec := env.request(t, http.MethodGet, "/api/analysis/"+analysisID.String(), &userID, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[api.AnalysisResponse](t, rec)
		require.Equal(t, analysisID, resp.Data.Id)
		require.Equal(t, "pending_review", resp.Data.Status.Code)
		require.NotNil(t, resp.Data.TicketId)
		require.Equal(t, ticket, *resp.Data.TicketId)
	})

	t.Run("not found shape", func(t *testing.T) {
		env := newEnv(t)

		env.analysisRepo.EXPECT().
			GetByID(gomock.Any(), userID, analysisID).
			Return(nil, repository.ErrNotFound)

		rec := env.request(t, http.MethodGet, "/api/analysis/"+analysisID.String(), &userID, nil)

		require.Equal(t, http.StatusNotFound, rec.Code)
		resp := decode[api.ErrorResponse](t, rec)
		require.Equal(t, "Analysis not found", resp.Error)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed id", func(t *testing.T) {
		env := newEnv(t)

		rec := env.request(t, http.MethodGet, "/api/analysis/not-a-uuid", &userID, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAnalysisHandler_UpdateAnalysis(t *testing.T) {
	userID := uuid.New()
	analysisID := uuid.New()

	body := api.UpdateAnalysisRequest{
		PrName:     "Renamed",
		BranchName: "feature/renamed",
		AiResponse: api.AIResponse{Summary: "s", Risks: "r", Tests: "t"},
		StatusId:   models.StatusCompleted,
	}

	t.Run("success", func(t *testing.T) {
		env := newEnv(t)

		env.statusRepo.EXPECT().
			GetByID(gomock.Any(), models.StatusCompleted).
			Return(&models.Status{ID: models.StatusCompleted, Code: "completed"}, nil)
		env.analysisRepo.EXPECT().
			Update(gomock.Any(), userID, analysisID, gomock.Any()).
			Return(&models.Analysis{
				ID:         analysisID,
				UserID:     userID,
				PRName:     body.PrName,
				BranchName: body.BranchName,
				AIResponse: models.AIResponse{Summary: "s", Risks: "r", Tests: "t"},
			}, nil)

		rec := env.request(t, http.MethodPut, "/api/analysis/"+analysisID.String(), &userID, body)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[api.AnalysisResponse](t, rec)
		require.Equal(t, "completed", resp.Data.Status.Code)
		require.Equal(t, body.PrName, resp.Data.PrName)
	})

	t.Run("unknown status id", func(t *testing.T) {
		env := newEnv(t)

		env.statusRepo.EXPECT().
			GetByID(gomock.Any(), models.StatusCompleted).
			Return(nil, repository.ErrNotFound)

		rec := env.request(t, http.MethodPut, "/api/analysis/"+analysisID.String(), &userID, body)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decode[api.ErrorResponse](t, rec)
		require.Equal(t, "Invalid status", resp.Error)
	})

	t.Run("incomplete triple rejected", func(t *testing.T) {
		env := newEnv(t)

		partial := body
		partial.AiResponse = api.AIResponse{Summary: "s"}
		rec := env.request(t, http.MethodPut, "/api/analysis/"+analysisID.String(), &userID, partial)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[api.ValidationErrorResponse](t, rec)
		require.Contains(t, resp.FieldErrors, "ai_response.risks")
		require.Contains(t, resp.FieldErrors, "ai_response.tests")
	})
}

func TestAnalysisHandler_GenerateAnalysis(t *testing.T) {
	userID := uuid.New()
	analysisID := uuid.New()

	t.Run("regenerates from the stored diff", func(t *testing.T) {
		env := newEnv(t)

		env.analysisRepo.EXPECT().
			GetByID(gomock.Any(), userID, analysisID).
			Return(&models.Analysis{
				ID:          analysisID,
				UserID:      userID,
				PRName:      "Add caching",
				BranchName:  "feature/cache",
				DiffContent: validDiff,
				Status:      models.DraftStatus,
			}, nil)
		env.aiLogRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
		env.analysisRepo.EXPECT().
			SetAIResponse(gomock.Any(), userID, analysisID, gomock.Any()).
			Return(nil)

		rec := env.request(t, http.MethodPost, "/api/analysis/"+analysisID.String()+"/generate", &userID, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[api.GenerateAnalysisResponse](t, rec)
		require.NotEmpty(t, resp.Data.Summary)
	})

	t.Run("unknown analysis", func(t *testing.T) {
		env := newEnv(t)

		env.analysisRepo.EXPECT().
			GetByID(gomock.Any(), userID, analysisID).
			Return(nil, repository.ErrNotFound)

		rec := env.request(t, http.MethodPost, "/api/analysis/"+analysisID.String()+"/generate", &userID, nil)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAnalysisHandler_DeleteAnalyses(t *testing.T) {
	userID := uuid.New()

	t.Run("reports the removed count", func(t *testing.T) {
		env := newEnv(t)

		ids := []uuid.UUID{uuid.New(), uuid.New()}
		env.analysisRepo.EXPECT().
			DeleteByIDs(gomock.Any(), userID, ids).
			Return(int64(1), nil)

		rec := env.request(t, http.MethodDelete, "/api/analysis", &userID, api.DeleteAnalysesRequest{
			Ids: []string{ids[0].String(), ids[1].String()},
		})

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[api.DeleteAnalysesResponse](t, rec)
		require.Equal(t, int64(1), resp.DeletedCount)
	})

	t.Run("duplicate ids rejected", func(t *testing.T) {
		env := newEnv(t)

		id := uuid.New().String()
		rec := env.request(t, http.MethodDelete, "/api/analysis", &userID, api.DeleteAnalysesRequest{
			Ids: []string{id, id},
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[api.ValidationErrorResponse](t, rec)
		require.Contains(t, resp.FieldErrors, "ids")
	})
}

func TestAnalysisHandler_ListAnalyses(t *testing.T) {
	userID := uuid.New()

	t.Run("defaults forwarded", func(t *testing.T) {
		env := newEnv(t)

		env.analysisRepo.EXPECT().
			List(gomock.Any(), userID, models.ListQuery{
				Page:      1,
				Limit:     10,
				SortField: models.SortFieldCreatedAt,
				SortOrder: models.SortOrderDesc,
			}).
			Return([]*models.AnalysisSummary{}, int64(0), nil)

		rec := env.request(t, http.MethodGet, "/api/analysis/all", &userID, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[api.AnalysisListResponse](t, rec)
		require.Empty(t, resp.Data)
		require.Equal(t, int64(0), resp.Meta.Total)
		require.Equal(t, 1, resp.Meta.Page)
		require.Equal(t, 10, resp.Meta.Limit)
	})

	t.Run("query parameters forwarded", func(t *testing.T) {
		env := newEnv(t)

		statusID := models.StatusCompleted
		env.analysisRepo.EXPECT().
			List(gomock.Any(), userID, models.ListQuery{
				Page:      2,
				Limit:     20,
				StatusID:  &statusID,
				Search:    "cache",
				SortField: models.SortFieldPRName,
				SortOrder: models.SortOrderAsc,
			}).
			Return([]*models.AnalysisSummary{
				{ID: uuid.New(), PRName: "Add cache", BranchName: "feature/cache", Status: models.DraftStatus},
			}, int64(21), nil)

		rec := env.request(t, http.MethodGet,
			"/api/analysis/all?page=2&limit=20&status_id=3&search=cache&sort_field=pr_name&sort_order=asc",
			&userID, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[api.AnalysisListResponse](t, rec)
		require.Len(t, resp.Data, 1)
		require.Equal(t, int64(21), resp.Meta.Total)
	})

	t.Run("out-of-set limit rejected", func(t *testing.T) {
		env := newEnv(t)

		rec := env.request(t, http.MethodGet, "/api/analysis/all?limit=15", &userID, nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[api.ValidationErrorResponse](t, rec)
		require.Contains(t, resp.FieldErrors, "limit")
	})
}
