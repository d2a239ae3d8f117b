package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"commentlist/api/internal/config"
	"commentlist/api/internal/search"
	"commentlist/api/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const metadataFetchTimeout = 5 * time.Second

type dataStore interface {
	GetNode(context.Context, string) (store.Node, error)
	ListContainerNodes(context.Context) ([]store.Node, error)
	Ping(context.Context) error
}

type metadataCache interface {
	GetMetadata(context.Context, string) (*store.NodeMetadata, error)
	SetMetadata(context.Context, store.NodeMetadata) error
	Ping(context.Context) error
}

type indexHealth interface {
	IndexEnabled() bool
	IndexHealthy() bool
}

type nodeIndexer interface {
	IndexNodes([]search.NodeRecord)
}

type Service struct {
	cfg     config.Config
	store   dataStore
	cache   metadataCache
	locator search.Locator
	logger  *zap.Logger
	fetches singleflight.Group
}

// New wires the service. cache and locator may be nil: without a cache every
// metadata read goes to the catalog, without a locator blog and link ids never
// resolve.
func New(cfg config.Config, dataStore dataStore, cache metadataCache, locator search.Locator, logger *zap.Logger) *Service {
	return &Service{
		cfg:     cfg,
		store:   dataStore,
		cache:   cache,
		locator: locator,
		logger:  logger,
	}
}

func (s *Service) DefaultLocale() string {
	if s.cfg.DefaultLocale == "" {
		return "en_US"
	}
	return s.cfg.DefaultLocale
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// CacheConfigured reports whether a metadata cache is wired in.
func (s *Service) CacheConfigured() bool {
	return s.cache != nil
}

func (s *Service) PingCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Ping(ctx)
}

// IndexStatus is "disabled" without a search index, otherwise "ok" or
// "degraded". Lookups keep working through the catalog while degraded.
func (s *Service) IndexStatus() string {
	health, ok := s.locator.(indexHealth)
	if !ok || !health.IndexEnabled() {
		return "disabled"
	}
	if health.IndexHealthy() {
		return "ok"
	}
	return "degraded"
}

// Metadata returns the metadata of nodeRef, or nil when the node is unknown.
func (s *Service) Metadata(ctx context.Context, nodeRef string) (*store.NodeMetadata, error) {
	if nodeRef == "" {
		return nil, nil
	}

	if s.cache != nil {
		cached, err := s.cache.GetMetadata(ctx, nodeRef)
		switch {
		case err != nil:
			metadataCacheLookups.WithLabelValues("error").Inc()
			s.logger.Warn("metadata cache read failed", zap.String("nodeRef", nodeRef), zap.Error(err))
		case cached != nil:
			metadataCacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metadataCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	// Detached from the caller: waiters for the same node share this fetch.
	results := s.fetches.DoChan(nodeRef, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metadataFetchTimeout)
		defer cancel()
		node, err := s.store.GetNode(fetchCtx, nodeRef)
		if errors.Is(err, sql.ErrNoRows) {
			return (*store.NodeMetadata)(nil), nil
		}
		if err != nil {
			return nil, err
		}
		md := node.Metadata()
		return &md, nil
	})
	var value any
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch metadata: %w", ctx.Err())
	case res := <-results:
		if res.Err != nil {
			return nil, fmt.Errorf("fetch metadata: %w", res.Err)
		}
		value = res.Val
	}
	md := value.(*store.NodeMetadata)
	if md == nil {
		return nil, nil
	}

	if s.cache != nil {
		if err := s.cache.SetMetadata(ctx, *md); err != nil {
			s.logger.Warn("metadata cache write failed", zap.String("nodeRef", nodeRef), zap.Error(err))
		}
	}
	return md, nil
}

// NodeDetails returns the catalog entry for nodeRef, or nil when it does not
// exist. site is informational; nodes are found regardless of their site.
func (s *Service) NodeDetails(ctx context.Context, nodeRef, site string) (*store.Node, error) {
	if nodeRef == "" {
		return nil, nil
	}
	node, err := s.store.GetNode(ctx, nodeRef)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("node not found", zap.String("nodeRef", nodeRef), zap.String("site", site))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("node details: %w", err)
	}
	return &node, nil
}

// BlogPostNodeRef translates a blog post id into a node reference, "" if unknown.
func (s *Service) BlogPostNodeRef(ctx context.Context, site, container, postID string) string {
	return s.locate(ctx, "blog post", site, container, postID)
}

// LinkNodeRef translates a link id into a node reference, "" if unknown.
func (s *Service) LinkNodeRef(ctx context.Context, site, container, linkID string) string {
	return s.locate(ctx, "link", site, container, linkID)
}

func (s *Service) locate(ctx context.Context, kind, site, container, name string) string {
	if s.locator == nil {
		return ""
	}
	ref, err := s.locator.FindNodeRef(ctx, site, container, name)
	if err != nil {
		s.logger.Warn("lookup failed",
			zap.String("kind", kind),
			zap.String("site", site),
			zap.String("container", container),
			zap.String("name", name),
			zap.Error(err),
		)
		return ""
	}
	return ref
}

// WarmIndex pushes every node living in a site container to the search index.
func (s *Service) WarmIndex(ctx context.Context) error {
	indexer, ok := s.locator.(nodeIndexer)
	if !ok {
		return nil
	}
	nodes, err := s.store.ListContainerNodes(ctx)
	if err != nil {
		return fmt.Errorf("warm index: %w", err)
	}
	records := make([]search.NodeRecord, 0, len(nodes))
	for _, node := range nodes {
		records = append(records, search.NewNodeRecord(node.NodeRef, node.SiteID, node.Container, node.Name))
	}
	indexer.IndexNodes(records)
	s.logger.Info("search index warmed", zap.Int("nodes", len(records)))
	return nil
}
