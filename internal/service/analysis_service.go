//go:generate mockgen -source=analysis_service.go -destination=../mocks/analysis_service.go -package=mocks .

package service

import (
	"context"
	"errors"
	"net/http"

	"pr-analysis-service/internal/generator"
	"pr-analysis-service/internal/models"
	"pr-analysis-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AnalysisRepository interface {
	// Insert a new draft with the empty AI response sentinel
	CreateDraft(ctx context.Context, a *models.Analysis) error

	// Fetch one analysis with its status resolved
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Analysis, error)

	// Store a freshly generated triple on an existing row
	SetAIResponse(ctx context.Context, userID, id uuid.UUID, resp models.AIResponse) error

	// Full overwrite of the editable fields
	Update(ctx context.Context, userID, id uuid.UUID, cmd repository.UpdateCommand) (*models.Analysis, error)

	// Batch delete, returning the number of rows removed
	DeleteByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error)

	// One page of summaries plus the exact total under the same filters
	List(ctx context.Context, userID uuid.UUID, q models.ListQuery) ([]*models.AnalysisSummary, int64, error)
}

type StatusRepository interface {
	// Look up one entry of the status reference set
	GetByID(ctx context.Context, id int) (*models.Status, error)
}

type AILogRepository interface {
	// Append one generation-attempt audit record
	Insert(ctx context.Context, entry *models.AIRequestLog) error
}

type Generator interface {
	// Produce the review triple for one diff, or a *generator.GenerationError
	Generate(ctx context.Context, diff, prName, branchName string, ticketID *string) (*generator.Result, error)
}

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type CreateAnalysisCommand struct {
	PRName      string
	BranchName  string
	TicketID    *string
	DiffContent string
}

type UpdateAnalysisCommand struct {
	PRName     string
	BranchName string
	TicketID   *string
	AIResponse models.AIResponse
	StatusID   int
}

// AnalysisService owns every state transition of an analysis and its
// interaction with the generation collaborator and the audit log. It
// holds no per-request state; ownership checks live in storage.
type AnalysisService struct {
	analysisRepo AnalysisRepository
	statusRepo   StatusRepository
	aiLogRepo    AILogRepository
	gen          Generator

	trManager TxManager

	log *zap.Logger
}

type TxManagerStub struct{}

func (TxManagerStub) Do(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func NewAnalysisService(
	analysisRepo AnalysisRepository,
	statusRepo StatusRepository,
	aiLogRepo AILogRepository,
	gen Generator,
	trManager TxManager,
	log *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		analysisRepo: analysisRepo,
		statusRepo:   statusRepo,
		aiLogRepo:    aiLogRepo,
		gen:          gen,
		trManager:    trManager,
		log:          log,
	}
}

// CreateAnalysis persists a draft, runs the first generation and
// returns the draft enriched with the generated triple. The draft row
// exists after this call regardless of generation outcome, so a failed
// generation can be retried via GenerateForExisting.
func (s *AnalysisService) CreateAnalysis(ctx context.Context, cmd CreateAnalysisCommand, userID uuid.UUID) (*models.Analysis, error) {
	a := &models.Analysis{
		UserID:      userID,
		PRName:      cmd.PRName,
		BranchName:  cmd.BranchName,
		TicketID:    cmd.TicketID,
		DiffContent: cmd.DiffContent,
	}

	if err := s.analysisRepo.CreateDraft(ctx, a); err != nil {
		s.log.Error("failed to create analysis draft",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, err
	}

	resp, err := s.generate(ctx, a)
	if err != nil {
		return nil, err
	}

	a.AIResponse = resp

	s.log.Info("analysis created",
		zap.String("analysis_id", a.ID.String()),
	)

	return a, nil
}

// GenerateForExisting reruns generation for an analysis using its
// stored diff and metadata, and returns only the regenerated triple.
func (s *AnalysisService) GenerateForExisting(ctx context.Context, userID, analysisID uuid.UUID) (models.AIResponse, error) {
	a, err := s.analysisRepo.GetByID(ctx, userID, analysisID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("analysis not found for regeneration",
				zap.String("analysis_id", analysisID.String()),
			)
			return models.AIResponse{}, ErrNotFound
		}
		s.log.Error("failed to get analysis",
			zap.Error(err),
			zap.String("analysis_id", analysisID.String()),
		)
		return models.AIResponse{}, err
	}

	resp, err := s.generate(ctx, a)
	if err != nil {
		return models.AIResponse{}, err
	}

	s.log.Info("analysis regenerated",
		zap.String("analysis_id", a.ID.String()),
	)

	return resp, nil
}

// generate runs the generation + audit-log + persist sequence for an
// existing row. Every attempt leaves an audit record. Persisting the
// triple after a successful generation is best effort: the caller
// already holds the generated text, so a failed save is only logged.
func (s *AnalysisService) generate(ctx context.Context, a *models.Analysis) (models.AIResponse, error) {
	result, genErr := s.gen.Generate(ctx, a.DiffContent, a.PRName, a.BranchName, a.TicketID)
	if genErr != nil {
		failure := asGenerationError(genErr)

		s.logAIRequest(ctx, &models.AIRequestLog{
			AnalysisID:   &a.ID,
			UserID:       a.UserID,
			Model:        failure.Model,
			TokenUsage:   failure.TokenUsage,
			StatusCode:   failure.StatusCode,
			ErrorMessage: &failure.Message,
		})

		s.log.Warn("AI generation failed",
			zap.String("analysis_id", a.ID.String()),
			zap.Int("status_code", failure.StatusCode),
			zap.String("message", failure.Message),
		)

		return models.AIResponse{}, failure
	}

	s.logAIRequest(ctx, &models.AIRequestLog{
		AnalysisID: &a.ID,
		UserID:     a.UserID,
		Model:      result.Model,
		TokenUsage: result.TokenUsage,
		StatusCode: result.StatusCode,
	})

	if err := s.analysisRepo.SetAIResponse(ctx, a.UserID, a.ID, result.Response); err != nil {
		// Generation already succeeded; the caller gets the triple
		// either way and may retry the save through an update.
		s.log.Error("failed to persist AI response",
			zap.Error(err),
			zap.String("analysis_id", a.ID.String()),
		)
	}

	return result.Response, nil
}

// logAIRequest appends one audit record. A telemetry write must never
// turn a successful generation into a reported failure, so errors are
// logged and swallowed.
func (s *AnalysisService) logAIRequest(ctx context.Context, entry *models.AIRequestLog) {
	if err := s.aiLogRepo.Insert(ctx, entry); err != nil {
		s.log.Error("failed to log AI request",
			zap.Error(err),
			zap.String("user_id", entry.UserID.String()),
		)
	}
}

// GetAnalysisByID fetches a single analysis with its status resolved.
func (s *AnalysisService) GetAnalysisByID(ctx context.Context, userID, analysisID uuid.UUID) (*models.Analysis, error) {
	a, err := s.analysisRepo.GetByID(ctx, userID, analysisID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.log.Error("failed to get analysis",
			zap.Error(err),
			zap.String("analysis_id", analysisID.String()),
		)
		return nil, err
	}

	return a, nil
}

// UpdateAnalysis applies a full overwrite of the editable fields. The
// status lookup and the overwrite run in one transaction so the
// validated status cannot be unseeded between the two statements.
func (s *AnalysisService) UpdateAnalysis(ctx context.Context, userID, analysisID uuid.UUID, cmd UpdateAnalysisCommand) (*models.Analysis, error) {
	var updated *models.Analysis

	txErr := s.trManager.Do(ctx, func(ctx context.Context) error {
		status, err := s.statusRepo.GetByID(ctx, cmd.StatusID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.log.Warn("invalid status id",
					zap.Int("status_id", cmd.StatusID),
					zap.String("analysis_id", analysisID.String()),
				)
				return ErrInvalidStatus
			}
			return err
		}

		updated, err = s.analysisRepo.Update(ctx, userID, analysisID, repository.UpdateCommand{
			PRName:     cmd.PRName,
			BranchName: cmd.BranchName,
			TicketID:   cmd.TicketID,
			AIResponse: cmd.AIResponse,
			StatusID:   cmd.StatusID,
		})
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			s.log.Error("failed to update analysis",
				zap.Error(err),
				zap.String("analysis_id", analysisID.String()),
			)
			return err
		}

		updated.Status = *status

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.log.Info("analysis updated",
		zap.String("analysis_id", analysisID.String()),
		zap.Int("status_id", cmd.StatusID),
	)

	return updated, nil
}

// DeleteAnalyses removes the caller's analyses matching ids. Absent
// and foreign ids are skipped silently; the count reflects exactly the
// rows removed. Audit log rows keep living with a detached reference.
func (s *AnalysisService) DeleteAnalyses(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	deleted, err := s.analysisRepo.DeleteByIDs(ctx, userID, ids)
	if err != nil {
		s.log.Error("failed to delete analyses",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("requested", len(ids)),
		)
		return 0, err
	}

	s.log.Info("analyses deleted",
		zap.String("user_id", userID.String()),
		zap.Int("requested", len(ids)),
		zap.Int64("deleted", deleted),
	)

	return deleted, nil
}

// ListAnalyses returns one page of summaries plus the total count for
// the same filters.
func (s *AnalysisService) ListAnalyses(ctx context.Context, userID uuid.UUID, q models.ListQuery) ([]*models.AnalysisSummary, int64, error) {
	items, total, err := s.analysisRepo.List(ctx, userID, q)
	if err != nil {
		s.log.Error("failed to list analyses",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, 0, err
	}

	return items, total, nil
}

// asGenerationError normalizes any generation failure to the typed
// form the audit log and the HTTP layer need. Untyped failures read as
// a generic 500 from an unknown model, matching the collaborator
// contract's fallback.
func asGenerationError(err error) *generator.GenerationError {
	var genErr *generator.GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	return &generator.GenerationError{
		Message:    err.Error(),
		StatusCode: http.StatusInternalServerError,
		Model:      "unknown",
	}
}
