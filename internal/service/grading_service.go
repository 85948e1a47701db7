package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/scriptsure-ai/grading-api/internal/assessment"
	"github.com/scriptsure-ai/grading-api/internal/dto"
	"github.com/scriptsure-ai/grading-api/internal/models"
	"github.com/scriptsure-ai/grading-api/internal/observability"
	"github.com/scriptsure-ai/grading-api/internal/repository"
)

// ErrGradingResultNotFound indicates no grading result exists for the
// requested assignment and owner.
var ErrGradingResultNotFound = errors.New("grading result not found")

// ErrMissingOwner indicates the caller identity was not supplied.
var ErrMissingOwner = errors.New("owner identity required")

// DefaultSubjectLabel is used when a submission carries no assignment type.
const DefaultSubjectLabel = "General"

// FileUploader stores an artifact and returns its public URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// AssessmentRunner executes the staged assessment pipeline.
type AssessmentRunner interface {
	Run(ctx context.Context, artifact assessment.Artifact, report assessment.ProgressFunc) (assessment.RawMetrics, error)
}

// GradingService orchestrates the grading submission workflow: resolve or
// create the assignment, run the assessment, derive the score server-side,
// persist atomically, and serve the read-side history.
type GradingService interface {
	Submit(ctx context.Context, ownerID string, payload dto.GradingSubmitRequest, artifact assessment.Artifact, report assessment.ProgressFunc) (dto.SubmissionOutcome, error)
	History(ctx context.Context, ownerID string) ([]dto.GradingResultResponse, error)
	GetResult(ctx context.Context, ownerID, assignmentID string) (dto.GradingResultResponse, error)
}

type gradingService struct {
	assignments repository.AssignmentRepository
	results     repository.GradingResultRepository
	runner      AssessmentRunner
	uploader    FileUploader
	cache       *redis.Client
	cacheTTL    time.Duration
	runTimeout  time.Duration
	validator   *validator.Validate
	policy      *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs a GradingService instance. The uploader and
// cache are optional; a nil cache disables the history read-through.
func NewGradingService(
	assignments repository.AssignmentRepository,
	results repository.GradingResultRepository,
	runner AssessmentRunner,
	uploader FileUploader,
	cache *redis.Client,
	cacheTTL time.Duration,
	runTimeout time.Duration,
	validate *validator.Validate,
	logger zerolog.Logger,
) GradingService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &gradingService{
		assignments: assignments,
		results:     results,
		runner:      runner,
		uploader:    uploader,
		cache:       cache,
		cacheTTL:    cacheTTL,
		runTimeout:  runTimeout,
		validator:   validate,
		policy:      bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradingService) Submit(ctx context.Context, ownerID string, payload dto.GradingSubmitRequest, artifact assessment.Artifact, report assessment.ProgressFunc) (dto.SubmissionOutcome, error) {
	tracer := otel.Tracer("github.com/scriptsure-ai/grading-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.submit")
	span.SetAttributes(attribute.String("grading.owner_id", ownerID))
	defer span.End()

	if ownerID == "" {
		return dto.SubmissionOutcome{}, ErrMissingOwner
	}

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionOutcome{}, err
	}

	assignment, err := s.resolveAssignment(ctx, payload.AssignmentID, ownerID, payload.AssignmentType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment_resolution_failed")
		return dto.SubmissionOutcome{}, err
	}
	span.SetAttributes(attribute.String("grading.assignment_id", assignment.ID))

	artifactURL := ""
	if s.uploader != nil {
		url, err := s.uploader.Upload(ctx, artifact.Name, bytes.NewReader(artifact.Data))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "artifact_upload_failed")
			return dto.SubmissionOutcome{}, fmt.Errorf("failed to store artifact: %w", err)
		}
		artifactURL = url
	}

	runCtx := ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	metrics, err := s.runner.Run(runCtx, artifact, report)
	if err != nil {
		observability.AssessmentRuns().WithLabelValues(runOutcome(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "assessment_failed")
		return dto.SubmissionOutcome{}, err
	}

	overall, err := assessment.ComputeOverallScore(metrics.Accuracy, metrics.Completeness, metrics.Legibility, metrics.Presentation)
	if err != nil {
		observability.AssessmentRuns().WithLabelValues("invalid_input").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "score_computation_failed")
		return dto.SubmissionOutcome{}, err
	}
	grade := assessment.LetterGrade(overall)

	result, err := s.buildResult(assignment, ownerID, metrics, overall, grade, artifactURL)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionOutcome{}, err
	}

	if err := s.results.CreateGraded(ctx, &result); err != nil {
		observability.AssessmentRuns().WithLabelValues("store_failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "result_persist_failed")
		return dto.SubmissionOutcome{}, err
	}
	assignment.Status = models.AssignmentStatusGraded
	observability.AssessmentRuns().WithLabelValues("completed").Inc()

	s.invalidateHistory(ctx, ownerID)

	s.logger.Info().
		Str("owner_id", ownerID).
		Str("assignment_id", assignment.ID).
		Str("result_id", result.ID).
		Float64("overall_score", overall).
		Str("grade", grade).
		Msg("grading result stored")

	span.SetAttributes(
		attribute.Float64("grading.overall_score", overall),
		attribute.String("grading.grade", grade),
	)

	return dto.SubmissionOutcome{
		GradingResult: dto.NewGradingResultResponse(result),
		Assignment:    dto.NewAssignmentResponse(assignment),
	}, nil
}

// resolveAssignment returns the existing assignment when the supplied id
// belongs to the owner, and otherwise creates a fresh PENDING assignment due
// now. Resolution is idempotent for an existing id.
func (s *gradingService) resolveAssignment(ctx context.Context, assignmentID, ownerID, label string) (models.Assignment, error) {
	if assignmentID != "" {
		existing, err := s.assignments.GetByIDForOwner(ctx, assignmentID, ownerID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, err
		}
	}

	subject := strings.TrimSpace(s.policy.Sanitize(label))
	if subject == "" {
		subject = DefaultSubjectLabel
	}

	assignment := models.Assignment{
		Title:   fmt.Sprintf("Handwriting Assignment - %s", subject),
		Subject: subject,
		DueDate: s.now(),
		Status:  models.AssignmentStatusPending,
		OwnerID: ownerID,
	}
	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (s *gradingService) buildResult(assignment models.Assignment, ownerID string, metrics assessment.RawMetrics, overall float64, grade, artifactURL string) (models.GradingResult, error) {
	feedback, err := models.EncodeStringList(metrics.Feedback)
	if err != nil {
		return models.GradingResult{}, fmt.Errorf("failed to encode feedback: %w", err)
	}

	suggestions, err := models.EncodeStringList(metrics.Suggestions)
	if err != nil {
		return models.GradingResult{}, fmt.Errorf("failed to encode suggestions: %w", err)
	}

	quality, err := json.Marshal(metrics.QualityMetrics)
	if err != nil {
		return models.GradingResult{}, fmt.Errorf("failed to encode quality metrics: %w", err)
	}

	return models.GradingResult{
		AssignmentID:        assignment.ID,
		UserID:              ownerID,
		Accuracy:            metrics.Accuracy,
		Completeness:        metrics.Completeness,
		Legibility:          metrics.Legibility,
		Presentation:        metrics.Presentation,
		OverallScore:        overall,
		Grade:               grade,
		Feedback:            feedback,
		Suggestions:         suggestions,
		TimeSpent:           metrics.TimeSpentMinutes,
		QualityMetrics:      datatypes.JSON(quality),
		ArtifactURL:         artifactURL,
		ProcessingTimestamp: s.now(),
	}, nil
}

func (s *gradingService) History(ctx context.Context, ownerID string) ([]dto.GradingResultResponse, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}

	cacheKey := historyCacheKey(ownerID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var responses []dto.GradingResultResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &responses); unmarshalErr == nil {
				s.logger.Debug().Str("owner_id", ownerID).Msg("history cache hit")
				return responses, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read history cache")
		}
	}

	results, err := s.results.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	responses := dto.NewGradingResultResponseSlice(results)

	if s.cache != nil {
		if payload, err := json.Marshal(responses); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store history cache")
			}
		}
	}

	return responses, nil
}

func (s *gradingService) GetResult(ctx context.Context, ownerID, assignmentID string) (dto.GradingResultResponse, error) {
	if ownerID == "" {
		return dto.GradingResultResponse{}, ErrMissingOwner
	}

	result, err := s.results.GetByAssignmentForOwner(ctx, assignmentID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradingResultResponse{}, ErrGradingResultNotFound
		}
		return dto.GradingResultResponse{}, err
	}

	return dto.NewGradingResultResponse(result), nil
}

func (s *gradingService) invalidateHistory(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, historyCacheKey(ownerID)).Err(); err != nil {
		s.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("failed to invalidate history cache")
	}
}

func historyCacheKey(ownerID string) string {
	return fmt.Sprintf("grading:history:v1:%s", ownerID)
}

func runOutcome(err error) string {
	switch {
	case errors.Is(err, assessment.ErrInvalidArtifact):
		return "invalid_artifact"
	case errors.Is(err, assessment.ErrAssessmentAborted):
		return "aborted"
	default:
		return "failed"
	}
}
