package service

import (
	"context"
	"io"
	"sort"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/scriptsure-ai/grading-api/internal/assessment"
	"github.com/scriptsure-ai/grading-api/internal/dto"
	"github.com/scriptsure-ai/grading-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// Minimal PNG signature, enough for content-type detection.
var pngArtifact = assessment.Artifact{
	Name: "homework.png",
	Data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D},
}

type memoryAssignmentRepo struct {
	assignments map[string]models.Assignment
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{assignments: make(map[string]models.Assignment)}
}

func (m *memoryAssignmentRepo) GetByIDForOwner(_ context.Context, id, ownerID string) (models.Assignment, error) {
	assignment, ok := m.assignments[id]
	if !ok || assignment.OwnerID != ownerID {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (m *memoryAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	assignment.CreatedAt = time.Now()
	assignment.UpdatedAt = time.Now()
	m.assignments[assignment.ID] = *assignment
	return nil
}

func (m *memoryAssignmentRepo) ListByOwner(_ context.Context, ownerID string) ([]models.Assignment, error) {
	results := make([]models.Assignment, 0, len(m.assignments))
	for _, assignment := range m.assignments {
		if assignment.OwnerID == ownerID {
			results = append(results, assignment)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].DueDate.Before(results[j].DueDate) })
	return results, nil
}

func (m *memoryAssignmentRepo) UpdateStatus(_ context.Context, id, status string) error {
	assignment, ok := m.assignments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	assignment.Status = status
	m.assignments[id] = assignment
	return nil
}

type memoryResultRepo struct {
	assignments *memoryAssignmentRepo
	results     []models.GradingResult
}

func newMemoryResultRepo(assignments *memoryAssignmentRepo) *memoryResultRepo {
	return &memoryResultRepo{assignments: assignments}
}

func (m *memoryResultRepo) CreateGraded(ctx context.Context, result *models.GradingResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if err := m.assignments.UpdateStatus(ctx, result.AssignmentID, models.AssignmentStatusGraded); err != nil {
		return err
	}
	result.Assignment = m.assignments.assignments[result.AssignmentID]
	m.results = append(m.results, *result)
	return nil
}

func (m *memoryResultRepo) ListByOwner(_ context.Context, ownerID string) ([]models.GradingResult, error) {
	matches := make([]models.GradingResult, 0, len(m.results))
	for _, result := range m.results {
		if result.UserID == ownerID {
			matches = append(matches, result)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ProcessingTimestamp.After(matches[j].ProcessingTimestamp)
	})
	return matches, nil
}

func (m *memoryResultRepo) GetByAssignmentForOwner(_ context.Context, assignmentID, ownerID string) (models.GradingResult, error) {
	var latest *models.GradingResult
	for i := range m.results {
		result := m.results[i]
		if result.AssignmentID != assignmentID || result.UserID != ownerID {
			continue
		}
		if latest == nil || result.ProcessingTimestamp.After(latest.ProcessingTimestamp) {
			latest = &m.results[i]
		}
	}
	if latest == nil {
		return models.GradingResult{}, gorm.ErrRecordNotFound
	}
	return *latest, nil
}

type stubUploader struct {
	uploads int
}

func (s *stubUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	s.uploads++
	return "https://cdn.example.com/" + name, nil
}

type gradingFixture struct {
	service     GradingService
	assignments *memoryAssignmentRepo
	results     *memoryResultRepo
	uploader    *stubUploader
	cache       *redis.Client
}

func newGradingFixture(t *testing.T, runner AssessmentRunner, runTimeout time.Duration, withCache bool) gradingFixture {
	t.Helper()

	assignments := newMemoryAssignmentRepo()
	results := newMemoryResultRepo(assignments)
	uploader := &stubUploader{}
	validate := validator.New(validator.WithRequiredStructEnabled())

	var cache *redis.Client
	if withCache {
		server, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(server.Close)

		cache = redis.NewClient(&redis.Options{Addr: server.Addr()})
		t.Cleanup(func() { cache.Close() })
	}

	svc := NewGradingService(assignments, results, runner, uploader, cache, time.Minute, runTimeout, validate, testLogger())

	return gradingFixture{
		service:     svc,
		assignments: assignments,
		results:     results,
		uploader:    uploader,
		cache:       cache,
	}
}

func TestGradingServiceSubmitCreatesAssignmentAndResult(t *testing.T) {
	runner := assessment.NewSeededRunner(0, 42, testLogger())
	fx := newGradingFixture(t, runner, 0, false)
	ownerID := uuid.NewString()

	outcome, err := fx.service.Submit(context.Background(), ownerID, dto.GradingSubmitRequest{}, pngArtifact, nil)
	require.NoError(t, err)

	require.Equal(t, "Handwriting Assignment - General", outcome.Assignment.Title)
	require.Equal(t, DefaultSubjectLabel, outcome.Assignment.Subject)
	require.Equal(t, models.AssignmentStatusGraded, outcome.Assignment.Status)
	require.Equal(t, ownerID, outcome.Assignment.OwnerID)

	result := outcome.GradingResult
	require.Equal(t, outcome.Assignment.ID, result.AssignmentID)
	require.Equal(t, ownerID, result.UserID)
	require.Equal(t, assessment.LetterGrade(result.OverallScore), result.Grade)
	require.Len(t, result.Feedback, 5)
	require.Len(t, result.Suggestions, 4)
	require.Equal(t, "https://cdn.example.com/homework.png", result.ArtifactURL)
	require.GreaterOrEqual(t, result.TimeSpent, 15)
	require.Less(t, result.TimeSpent, 45)
	require.NotEmpty(t, result.QualityMetrics)

	stored, ok := fx.assignments.assignments[outcome.Assignment.ID]
	require.True(t, ok)
	require.Equal(t, models.AssignmentStatusGraded, stored.Status)
	require.Equal(t, 1, fx.uploader.uploads)
}

func TestGradingServiceSubmitReusesExistingAssignment(t *testing.T) {
	runner := assessment.NewSeededRunner(0, 7, testLogger())
	fx := newGradingFixture(t, runner, 0, false)
	ownerID := uuid.NewString()

	first, err := fx.service.Submit(context.Background(), ownerID, dto.GradingSubmitRequest{}, pngArtifact, nil)
	require.NoError(t, err)

	second, err := fx.service.Submit(context.Background(), ownerID, dto.GradingSubmitRequest{AssignmentID: first.Assignment.ID}, pngArtifact, nil)
	require.NoError(t, err)

	require.Equal(t, first.Assignment.ID, second.Assignment.ID)
	require.Len(t, fx.assignments.assignments, 1)
	require.Len(t, fx.results.results, 2)
}

func TestGradingServiceSubmitSanitizesSubjectLabel(t *testing.T) {
	runner := assessment.NewSeededRunner(0, 3, testLogger())
	fx := newGradingFixture(t, runner, 0, false)

	outcome, err := fx.service.Submit(context.Background(), uuid.NewString(), dto.GradingSubmitRequest{AssignmentType: "<b>Math</b>"}, pngArtifact, nil)
	require.NoError(t, err)

	require.Equal(t, "Math", outcome.Assignment.Subject)
	require.Equal(t, "Handwriting Assignment - Math", outcome.Assignment.Title)
}

func TestGradingServiceSubmitAbortsWhenRunTimeoutElapses(t *testing.T) {
	runner := assessment.NewSeededRunner(30*time.Millisecond, 11, testLogger())
	fx := newGradingFixture(t, runner, 60*time.Millisecond, false)
	ownerID := uuid.NewString()

	_, err := fx.service.Submit(context.Background(), ownerID, dto.GradingSubmitRequest{}, pngArtifact, nil)
	require.ErrorIs(t, err, assessment.ErrAssessmentAborted)

	require.Empty(t, fx.results.results, "aborted run must not persist a result")
	for _, assignment := range fx.assignments.assignments {
		require.Equal(t, models.AssignmentStatusPending, assignment.Status)
	}
}

func TestGradingServiceSubmitRejectsInvalidArtifact(t *testing.T) {
	runner := assessment.NewSeededRunner(0, 5, testLogger())
	fx := newGradingFixture(t, runner, 0, false)

	artifact := assessment.Artifact{Name: "notes.txt", Data: []byte("plain text")}
	_, err := fx.service.Submit(context.Background(), uuid.NewString(), dto.GradingSubmitRequest{}, artifact, nil)
	require.ErrorIs(t, err, assessment.ErrInvalidArtifact)
	require.Empty(t, fx.results.results)
}

func TestGradingServiceSubmitRequiresOwner(t *testing.T) {
	runner := assessment.NewSeededRunner(0, 1, testLogger())
	fx := newGradingFixture(t, runner, 0, false)

	_, err := fx.service.Submit(context.Background(), "", dto.GradingSubmitRequest{}, pngArtifact, nil)
	require.ErrorIs(t, err, ErrMissingOwner)
}

func TestGradingServiceHistoryCachesAndInvalidates(t *testing.T) {
	runner := assessment.NewSeededRunner(0, 9, testLogger())
	fx := newGradingFixture(t, runner, 0, true)
	ownerID := uuid.NewString()

	_, err := fx.service.Submit(context.Background(), ownerID, dto.GradingSubmitRequest{}, pngArtifact, nil)
	require.NoError(t, err)

	history, err := fx.service.History(context.Background(), ownerID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	// Mutate the store behind the cache; the cached snapshot should be served.
	fx.results.results = nil
	cached, err := fx.service.History(context.Background(), ownerID)
	require.NoError(t, err)
	require.Len(t, cached, 1)

	// A new submission invalidates the cache, so the next read hits the store.
	_, err = fx.service.Submit(context.Background(), ownerID, dto.GradingSubmitRequest{}, pngArtifact, nil)
	require.NoError(t, err)

	fresh, err := fx.service.History(context.Background(), ownerID)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
}

func TestGradingServiceHistoryOrdersNewestFirst(t *testing.T) {
	runner := assessment.NewSeededRunner(0, 13, testLogger())
	fx := newGradingFixture(t, runner, 0, false)
	ownerID := uuid.NewString()

	clock := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	fx.service.(*gradingService).now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	first, err := fx.service.Submit(context.Background(), ownerID, dto.GradingSubmitRequest{}, pngArtifact, nil)
	require.NoError(t, err)
	second, err := fx.service.Submit(context.Background(), ownerID, dto.GradingSubmitRequest{AssignmentID: first.Assignment.ID}, pngArtifact, nil)
	require.NoError(t, err)

	history, err := fx.service.History(context.Background(), ownerID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, second.GradingResult.ID, history[0].ID, "expected newest result first")
	require.Equal(t, first.GradingResult.ID, history[1].ID)
}

func TestGradingServiceGetResultScopedToOwner(t *testing.T) {
	runner := assessment.NewSeededRunner(0, 17, testLogger())
	fx := newGradingFixture(t, runner, 0, false)
	ownerID := uuid.NewString()

	outcome, err := fx.service.Submit(context.Background(), ownerID, dto.GradingSubmitRequest{}, pngArtifact, nil)
	require.NoError(t, err)

	found, err := fx.service.GetResult(context.Background(), ownerID, outcome.Assignment.ID)
	require.NoError(t, err)
	require.Equal(t, outcome.GradingResult.ID, found.ID)

	_, err = fx.service.GetResult(context.Background(), uuid.NewString(), outcome.Assignment.ID)
	require.ErrorIs(t, err, ErrGradingResultNotFound)
}
