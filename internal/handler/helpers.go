package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/scriptsure-ai/grading-api/internal/assessment"
	"github.com/scriptsure-ai/grading-api/internal/middleware"
)

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func readArtifact(file *multipart.FileHeader) (assessment.Artifact, error) {
	reader, err := file.Open()
	if err != nil {
		return assessment.Artifact{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return assessment.Artifact{}, fmt.Errorf("failed to read file: %w", err)
	}

	return assessment.Artifact{Name: file.Filename, Data: data}, nil
}

// queryAny returns the first non-empty value among the given query keys. The
// grading endpoints accept both snake_case and the legacy camelCase key.
func queryAny(c *fiber.Ctx, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(c.Query(key)); value != "" {
			return value
		}
	}
	return ""
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
