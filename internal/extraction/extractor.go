// Package extraction turns free text into typed job and resume records
// through a structured model call.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"atsmatch/internal/ai"
	"atsmatch/internal/config"
	"atsmatch/internal/errors"
	"atsmatch/internal/schemas"
	"atsmatch/internal/types"
	"atsmatch/internal/utils"
)

// Extractor performs structured extraction of job postings and resumes.
type Extractor struct {
	gen    ai.Generator
	cfg    *config.Config
	logger *errors.Logger
}

// NewExtractor creates an Extractor. cfg supplies prompt overrides and may be nil.
func NewExtractor(gen ai.Generator, cfg *config.Config, logger *errors.Logger) *Extractor {
	if logger == nil {
		logger = errors.NewNop()
	}
	return &Extractor{gen: gen, cfg: cfg, logger: logger}
}

// ExtractJob converts a raw posting into a JobRecord. HTML postings are
// converted to markdown first.
func (e *Extractor) ExtractJob(ctx context.Context, rawPosting string) (*types.JobRecord, error) {
	posting := strings.TrimSpace(rawPosting)
	if posting == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "job description is empty", nil)
	}

	if utils.LooksLikeHTML(posting) {
		md, err := htmltomarkdown.ConvertString(posting)
		if err != nil {
			e.logger.Warn("HTML conversion failed, using raw posting", "error", err.Error())
		} else {
			posting = md
		}
	}

	return extract[types.JobRecord](ctx, e, "extract_job", config.PromptJobExtraction, schemas.Job, posting)
}

// ExtractResume converts resume text into a ResumeRecord.
func (e *Extractor) ExtractResume(ctx context.Context, resumeText string) (*types.ResumeRecord, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "resume text is empty", nil)
	}
	return extract[types.ResumeRecord](ctx, e, "extract_resume", config.PromptResumeExtraction, schemas.Resume, resumeText)
}

func extract[T any](ctx context.Context, e *Extractor, operation, promptName, schemaName, text string) (*T, error) {
	schema, err := schemas.Source(schemaName)
	if err != nil {
		return nil, errors.NewInternalError("SCHEMA_UNAVAILABLE", "extraction schema missing", err)
	}

	system, user, err := ai.RenderPrompt(e.cfg, promptName, ai.ExtractionPromptData{Schema: schema, Text: text})
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to render extraction prompt", err)
	}

	raw, err := e.gen.Generate(ctx, ai.Request{
		Operation: operation,
		System:    system,
		Prompt:    user,
		JSON:      true,
	})
	if err != nil {
		return nil, err
	}

	out, err := ParseStructured[T](raw, schemaName)
	if err != nil {
		e.logger.LogError(err, "Structured extraction failed", "operation", operation)
		return nil, err
	}

	e.logger.Debug("Structured extraction completed", "operation", operation, "response_length", len(raw))
	return out, nil
}

// ParseStructured is the parsing boundary for model JSON: strip fences,
// check syntax, validate against the named schema, then decode. Every
// failure is a STRUCTURED_EXTRACTION_FAILED error carrying raw.
func ParseStructured[T any](raw, schemaName string) (*T, error) {
	cleaned := utils.StripCodeFences(raw)

	if !json.Valid([]byte(cleaned)) {
		return nil, errors.NewExtractionError("model response is not valid JSON", raw, nil)
	}

	if err := schemas.Validate(schemaName, cleaned); err != nil {
		return nil, errors.NewExtractionError(
			fmt.Sprintf("model response does not match the %s schema", schemaName), raw, err)
	}

	var out T
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, errors.NewExtractionError("failed to decode model response", raw, err)
	}
	return &out, nil
}
