package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"scoreservice.app/review/common/logger"
	"scoreservice.app/review/core/config"
	"scoreservice.app/review/internal/backlog"
	"scoreservice.app/review/internal/model"
)

// DocumentTreeFetcher is satisfied by *backlog.Client.
type DocumentTreeFetcher interface {
	FetchDocumentTree(ctx context.Context, rootID any, opts backlog.TreeOptions) (*model.DocumentTreeNode, error)
}

type DocumentTreeParams struct {
	ProjectIDOrKey string
	APIKey         string
	DocumentID     any
	MaxDepth       *int // nil falls back to BACKLOG_MAX_DEPTH
}

type DocumentService interface {
	FetchTree(ctx context.Context, params DocumentTreeParams) (*model.DocumentTreeNode, error)
}

type documentService struct {
	cfg        config.BacklogConfig
	newFetcher TreeFetcherFactory
}

func NewDocumentService(cfg config.BacklogConfig, newFetcher TreeFetcherFactory) DocumentService {
	return &documentService{cfg: cfg, newFetcher: newFetcher}
}

func (s *documentService) FetchTree(ctx context.Context, params DocumentTreeParams) (*model.DocumentTreeNode, error) {
	projectKey := strings.TrimSpace(params.ProjectIDOrKey)
	if projectKey == "" {
		return nil, fmt.Errorf("%w: projectIdOrKey is required", ErrInvalidInput)
	}
	apiKey := strings.TrimSpace(params.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: backlog api key is required", ErrInvalidInput)
	}

	documentID, err := backlog.NormalizeDocumentID(params.DocumentID)
	if err != nil {
		return nil, err
	}

	maxDepth := params.MaxDepth
	if maxDepth == nil {
		maxDepth = s.cfg.MaxDepth
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ProjectKey: &projectKey,
		DocumentID: &documentID,
		Component:  "service.documents",
	})

	sc := logger.StartSpan(ctx, "documents.fetch_tree")
	defer sc.End()
	ctx = sc.Context()
	sc.SetAttributes(
		attribute.String("backlog.project", projectKey),
		attribute.String("backlog.document_id", documentID),
	)

	fetcher, err := s.newFetcher(backlog.Config{
		BaseURL:        s.cfg.BaseURL,
		APIKey:         apiKey,
		ProjectIDOrKey: projectKey,
		Timeout:        s.cfg.Timeout,
	})
	if err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("creating backlog client: %w", err)
	}

	start := time.Now()
	tree, err := fetcher.FetchDocumentTree(ctx, documentID, backlog.TreeOptions{
		MaxDepth:           maxDepth,
		SiblingConcurrency: s.cfg.SiblingConcurrency,
	})
	if err != nil {
		sc.RecordError(err)
		slog.WarnContext(ctx, "document tree fetch failed", "error", err)
		return nil, fmt.Errorf("fetching document tree %s: %w", documentID, err)
	}

	count := tree.Count()
	sc.SetAttributes(attribute.Int("backlog.documents", count))
	slog.InfoContext(ctx, "document tree fetched",
		"documents", count,
		"duration_ms", time.Since(start).Milliseconds())

	return tree, nil
}
