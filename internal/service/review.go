package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"scoreservice.app/review/common/id"
	"scoreservice.app/review/common/llm"
	"scoreservice.app/review/common/logger"
	"scoreservice.app/review/core/config"
	"scoreservice.app/review/internal/model"
	"scoreservice.app/review/internal/review"
)

const reviewSchemaName = "design_review_result"

var reviewSchema = sync.OnceValue(func() any {
	return llm.GenerateSchema[model.DesignReviewResult]()
})

// DesignReviewParams asks the model to review a caller supplied prompt.
type DesignReviewParams struct {
	APIKey string
	Prompt string
	Model  string // empty uses LLM_MODEL
}

type DesignReview struct {
	ID     string // completion id reported by the provider
	Result *model.DesignReviewResult
}

// AnalysisParams drives a full review: both trees are fetched from Backlog
// and the rendered outline is sent to the model.
type AnalysisParams struct {
	ProjectID              int64
	DesignDocumentID       int64
	RequirementsDocumentID int64
	BacklogAPIKey          string
	LLMAPIKey              string
	Model                  string
	MaxDepth               *int
}

type Analysis struct {
	ID        string
	ReviewID  int64
	Documents int
	Result    *model.DesignReviewResult
}

type ReviewService interface {
	Review(ctx context.Context, params DesignReviewParams) (*DesignReview, error)
	Analyze(ctx context.Context, params AnalysisParams) (*Analysis, error)
}

type reviewService struct {
	llmCfg    config.LLMConfig
	language  string
	documents DocumentService
	newLLM    LLMFactory
	prompts   *review.PromptBuilder
}

func NewReviewService(cfg config.Config, documents DocumentService, newLLM LLMFactory, prompts *review.PromptBuilder) ReviewService {
	return &reviewService{
		llmCfg:    cfg.LLM,
		language:  cfg.Review.Language,
		documents: documents,
		newLLM:    newLLM,
		prompts:   prompts,
	}
}

func (s *reviewService) Review(ctx context.Context, params DesignReviewParams) (*DesignReview, error) {
	apiKey := strings.TrimSpace(params.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: apiKey is required", ErrInvalidInput)
	}
	prompt := strings.TrimSpace(params.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}

	reviewID := id.New()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ReviewID:  &reviewID,
		Component: "service.review",
	})

	sc := logger.StartSpan(ctx, "review.design_review")
	defer sc.End()
	ctx = sc.Context()

	resp, result, err := s.complete(ctx, apiKey, params.Model, prompt)
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	return &DesignReview{ID: resp.ID, Result: result}, nil
}

func (s *reviewService) Analyze(ctx context.Context, params AnalysisParams) (*Analysis, error) {
	if err := validateAnalysis(params); err != nil {
		return nil, err
	}

	reviewID := id.New()
	projectKey := strconv.FormatInt(params.ProjectID, 10)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ReviewID:   &reviewID,
		ProjectKey: &projectKey,
		Component:  "service.review",
	})

	sc := logger.StartSpan(ctx, "review.analyze")
	defer sc.End()
	ctx = sc.Context()
	sc.SetAttributes(
		attribute.Int64("review.id", reviewID),
		attribute.Int64("backlog.design_document_id", params.DesignDocumentID),
		attribute.Int64("backlog.requirements_document_id", params.RequirementsDocumentID),
	)

	slog.InfoContext(ctx, "analysis started",
		"design_document_id", params.DesignDocumentID,
		"requirements_document_id", params.RequirementsDocumentID)

	var design, requirements *model.DocumentTreeNode
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tree, err := s.documents.FetchTree(gctx, DocumentTreeParams{
			ProjectIDOrKey: projectKey,
			APIKey:         params.BacklogAPIKey,
			DocumentID:     params.DesignDocumentID,
			MaxDepth:       params.MaxDepth,
		})
		if err != nil {
			return fmt.Errorf("design documents: %w", err)
		}
		design = tree
		return nil
	})
	g.Go(func() error {
		tree, err := s.documents.FetchTree(gctx, DocumentTreeParams{
			ProjectIDOrKey: projectKey,
			APIKey:         params.BacklogAPIKey,
			DocumentID:     params.RequirementsDocumentID,
			MaxDepth:       params.MaxDepth,
		})
		if err != nil {
			return fmt.Errorf("requirements documents: %w", err)
		}
		requirements = tree
		return nil
	})
	if err := g.Wait(); err != nil {
		sc.RecordError(err)
		return nil, err
	}

	prompt, err := s.prompts.Build(review.PromptInput{
		ProjectID:    projectKey,
		Design:       design,
		Requirements: requirements,
	})
	if err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("building prompt: %w", err)
	}

	documents := design.Count() + requirements.Count()
	sc.SetAttributes(attribute.Int("review.documents", documents))

	resp, result, err := s.complete(ctx, params.LLMAPIKey, params.Model, prompt)
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	slog.InfoContext(ctx, "analysis completed",
		"documents", documents,
		"total_score", result.RootDocument.TotalScore.Value,
		"max_score", result.RootDocument.TotalScore.Max)

	return &Analysis{
		ID:        resp.ID,
		ReviewID:  reviewID,
		Documents: documents,
		Result:    result,
	}, nil
}

// complete runs one model call and parses its answer. Failures of the call
// itself wrap ErrModelRequest; a malformed answer is a *review.InvalidResultError.
func (s *reviewService) complete(ctx context.Context, apiKey, modelName, prompt string) (*llm.Response, *model.DesignReviewResult, error) {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = s.llmCfg.Model
	}

	client, err := s.newLLM(llm.Config{
		Provider: s.llmCfg.Provider,
		APIKey:   strings.TrimSpace(apiKey),
		BaseURL:  s.llmCfg.BaseURL,
		Model:    modelName,
		Timeout:  s.llmCfg.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrModelRequest, err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{Model: &modelName})

	start := time.Now()
	resp, err := client.Complete(ctx, llm.Request{
		SystemPrompt: review.SystemPrompt(s.language),
		UserPrompt:   prompt,
		SchemaName:   reviewSchemaName,
		Schema:       reviewSchema(),
		MaxTokens:    s.llmCfg.MaxTokens,
		Temperature:  llm.Temp(0),
	})
	if err != nil {
		slog.WarnContext(ctx, "model request failed", "error", err)
		return nil, nil, fmt.Errorf("%w: %w", ErrModelRequest, err)
	}

	slog.InfoContext(ctx, "model response received",
		"completion_id", resp.ID,
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens,
		"latency_ms", time.Since(start).Milliseconds())

	result, err := review.ParseDesignReviewResult(resp.Content)
	if err != nil {
		slog.WarnContext(ctx, "model response rejected",
			"error", err,
			"content", logger.Truncate(resp.Content, 500))
		return nil, nil, err
	}

	return resp, result, nil
}

func validateAnalysis(p AnalysisParams) error {
	switch {
	case p.ProjectID <= 0:
		return fmt.Errorf("%w: backlog project id must be a positive integer", ErrInvalidInput)
	case p.DesignDocumentID <= 0:
		return fmt.Errorf("%w: design document id must be a positive integer", ErrInvalidInput)
	case p.RequirementsDocumentID <= 0:
		return fmt.Errorf("%w: requirements document id must be a positive integer", ErrInvalidInput)
	case strings.TrimSpace(p.BacklogAPIKey) == "":
		return fmt.Errorf("%w: backlog api key is required", ErrInvalidInput)
	case strings.TrimSpace(p.LLMAPIKey) == "":
		return fmt.Errorf("%w: model api key is required", ErrInvalidInput)
	case p.MaxDepth != nil && *p.MaxDepth < 0:
		return fmt.Errorf("%w: maxDepth must be greater than or equal to 0", ErrInvalidInput)
	}
	return nil
}
