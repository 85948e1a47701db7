package assessment

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// Minimal PNG signature, enough for content-type detection.
var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}

func pngArtifact() Artifact {
	return Artifact{Name: "homework.png", Data: pngBytes}
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestRunnerDeterministicUnderFixedSeed(t *testing.T) {
	first, err := NewSeededRunner(0, 42, testLogger()).Run(context.Background(), pngArtifact(), nil)
	require.NoError(t, err)

	second, err := NewSeededRunner(0, 42, testLogger()).Run(context.Background(), pngArtifact(), nil)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestRunnerMetricRanges(t *testing.T) {
	runner := NewSeededRunner(0, 7, testLogger())

	for i := 0; i < 50; i++ {
		metrics, err := runner.Run(context.Background(), pngArtifact(), nil)
		require.NoError(t, err)

		require.GreaterOrEqual(t, metrics.Accuracy, 80.0)
		require.Less(t, metrics.Accuracy, 100.0)
		require.GreaterOrEqual(t, metrics.Completeness, 85.0)
		require.Less(t, metrics.Completeness, 100.0)
		require.GreaterOrEqual(t, metrics.Legibility, 75.0)
		require.Less(t, metrics.Legibility, 100.0)
		require.GreaterOrEqual(t, metrics.Presentation, 80.0)
		require.Less(t, metrics.Presentation, 100.0)
		require.GreaterOrEqual(t, metrics.TimeSpentMinutes, 15)
		require.Less(t, metrics.TimeSpentMinutes, 45)

		for name, value := range metrics.QualityMetrics {
			require.GreaterOrEqual(t, value, 0.70, name)
			require.LessOrEqual(t, value, 1.0, name)
		}
	}
}

func TestRunnerProgressSequence(t *testing.T) {
	runner := NewSeededRunner(0, 1, testLogger())

	var reports []Progress
	_, err := runner.Run(context.Background(), pngArtifact(), func(p Progress) {
		reports = append(reports, p)
	})
	require.NoError(t, err)

	require.Len(t, reports, len(Stages))
	for i, report := range reports {
		require.Equal(t, Stages[i], report.Stage)
		require.Equal(t, i, report.StageIndex)
		require.Equal(t, len(Stages), report.TotalStages)
		require.InDelta(t, float64(i+1)/float64(len(Stages))*100, report.Percent, 1e-9)
	}
	require.InDelta(t, 100, reports[len(reports)-1].Percent, 1e-9)
}

func TestRunnerFeedbackPoolsReturnedInFull(t *testing.T) {
	metrics, err := NewSeededRunner(0, 3, testLogger()).Run(context.Background(), pngArtifact(), nil)
	require.NoError(t, err)

	require.Equal(t, feedbackPool, metrics.Feedback)
	require.Equal(t, suggestionPool, metrics.Suggestions)
}

func TestRunnerRejectsInvalidArtifactBeforeStages(t *testing.T) {
	runner := NewSeededRunner(0, 9, testLogger())

	progressCalls := 0
	report := func(Progress) { progressCalls++ }

	_, err := runner.Run(context.Background(), Artifact{Name: "empty.png"}, report)
	require.ErrorIs(t, err, ErrInvalidArtifact)

	_, err = runner.Run(context.Background(), Artifact{Name: "notes.txt", Data: []byte("plain text, not an image")}, report)
	require.ErrorIs(t, err, ErrInvalidArtifact)

	require.Zero(t, progressCalls)
}

func TestRunnerAbortsOnCancelledContext(t *testing.T) {
	runner := NewSeededRunner(0, 11, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	progressCalls := 0
	_, err := runner.Run(ctx, pngArtifact(), func(Progress) { progressCalls++ })
	require.ErrorIs(t, err, ErrAssessmentAborted)
	require.Zero(t, progressCalls)
}

func TestRunnerAbortsMidRunOnDeadline(t *testing.T) {
	runner := NewSeededRunner(20*time.Millisecond, 13, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 70*time.Millisecond)
	defer cancel()

	progressCalls := 0
	_, err := runner.Run(ctx, pngArtifact(), func(Progress) { progressCalls++ })
	require.ErrorIs(t, err, ErrAssessmentAborted)
	require.Less(t, progressCalls, len(Stages), "run must stop before completing all stages")
}
