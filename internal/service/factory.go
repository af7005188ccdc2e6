package service

import (
	"scoreservice.app/review/common/llm"
	"scoreservice.app/review/core/config"
	"scoreservice.app/review/internal/backlog"
	"scoreservice.app/review/internal/review"
)

// TreeFetcherFactory builds a Backlog tree fetcher for one request's credentials.
type TreeFetcherFactory func(cfg backlog.Config) (DocumentTreeFetcher, error)

// LLMFactory builds a model client for one request's credentials.
type LLMFactory func(cfg llm.Config) (llm.Client, error)

func newBacklogFetcher(cfg backlog.Config) (DocumentTreeFetcher, error) {
	client, err := backlog.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

type Services struct {
	cfg            config.Config
	newTreeFetcher TreeFetcherFactory
	newLLM         LLMFactory
	prompts        *review.PromptBuilder
}

type Option func(*Services)

// WithTreeFetcherFactory replaces the Backlog client constructor.
func WithTreeFetcherFactory(f TreeFetcherFactory) Option {
	return func(s *Services) { s.newTreeFetcher = f }
}

// WithLLMFactory replaces the model client constructor.
func WithLLMFactory(f LLMFactory) Option {
	return func(s *Services) { s.newLLM = f }
}

func NewServices(cfg config.Config, opts ...Option) *Services {
	s := &Services{
		cfg:            cfg,
		newTreeFetcher: newBacklogFetcher,
		newLLM:         llm.NewClient,
		prompts:        review.NewPromptBuilder(review.NewContentConverter()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Services) Documents() DocumentService {
	return NewDocumentService(s.cfg.Backlog, s.newTreeFetcher)
}

func (s *Services) Reviews() ReviewService {
	return NewReviewService(s.cfg, s.Documents(), s.newLLM, s.prompts)
}
