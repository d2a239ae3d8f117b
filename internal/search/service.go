package search

import (
	"context"

	"go.uber.org/zap"
)

type nodeIndex interface {
	Locator
	Healthy() bool
	IndexNodes([]NodeRecord) error
}

// Service tries Meilisearch first and falls back to the catalog locator.
type Service struct {
	meili    nodeIndex
	fallback Locator
	logger   *zap.Logger
}

// NewService creates a locator service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, fallback Locator, logger *zap.Logger) *Service {
	s := &Service{fallback: fallback, logger: logger.Named("search")}
	if meili != nil {
		s.meili = meili
	}
	return s
}

// FindNodeRef asks the index when it is healthy. An index error or miss falls
// through to the catalog, which stays authoritative while the index lags.
func (s *Service) FindNodeRef(ctx context.Context, siteID, container, name string) (string, error) {
	if s.meili != nil && s.meili.Healthy() {
		ref, err := s.meili.FindNodeRef(ctx, siteID, container, name)
		if err == nil && ref != "" {
			return ref, nil
		}
		if err != nil {
			s.logger.Warn("meilisearch lookup failed, falling back to catalog", zap.Error(err))
		}
	}
	if s.fallback == nil {
		return "", nil
	}
	return s.fallback.FindNodeRef(ctx, siteID, container, name)
}

// IndexEnabled reports whether a Meilisearch index is configured.
func (s *Service) IndexEnabled() bool {
	return s.meili != nil
}

// IndexHealthy reports whether the configured index is reachable.
func (s *Service) IndexHealthy() bool {
	return s.meili != nil && s.meili.Healthy()
}

// IndexNodes indexes records (fire-and-forget to Meilisearch).
func (s *Service) IndexNodes(records []NodeRecord) {
	if s.meili == nil || !s.meili.Healthy() || len(records) == 0 {
		return
	}
	go func() {
		if err := s.meili.IndexNodes(records); err != nil {
			s.logger.Warn("index nodes", zap.Int("count", len(records)), zap.Error(err))
		}
	}()
}
