package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

const idxNodes = "comment_nodes"

// Meili implements Locator via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	logger  *zap.Logger
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the node index.
// An unreachable server is tolerated; the health loop picks it up later.
func NewMeili(url, apiKey string, logger *zap.Logger) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		logger: logger.Named("search"),
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		m.logger.Warn("meilisearch unavailable", zap.String("url", url), zap.Error(err))
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxNodes,
		PrimaryKey: "id",
	}); err != nil {
		m.logger.Debug("create index (may already exist)", zap.String("index", idxNodes), zap.Error(err))
	}

	index := m.client.Index(idxNodes)
	filterable := []interface{}{"siteId", "container", "name"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		m.logger.Warn("update filterable attributes", zap.String("index", idxNodes), zap.Error(err))
	}
	searchable := []string{"name"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		m.logger.Warn("update searchable attributes", zap.String("index", idxNodes), zap.Error(err))
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				m.logger.Info("meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// FindNodeRef runs an exact filter query for the (site, container, name) triple.
func (m *Meili) FindNodeRef(_ context.Context, siteID, container, name string) (string, error) {
	if !m.healthy.Load() {
		return "", fmt.Errorf("meilisearch unhealthy")
	}
	filters := nodeFilters(siteID, container, name)
	if filters == nil {
		return "", nil
	}

	resp, err := m.client.Index(idxNodes).Search("", &meili.SearchRequest{
		Filter: filters,
		Limit:  1,
	})
	if err != nil {
		m.healthy.Store(false)
		return "", fmt.Errorf("meilisearch search: %w", err)
	}
	for _, hit := range resp.Hits {
		if ref := decodeString(hit, "nodeRef"); ref != "" {
			return ref, nil
		}
	}
	return "", nil
}

// nodeFilters returns nil when any part is blank; such lookups never match.
func nodeFilters(siteID, container, name string) []string {
	if strings.TrimSpace(siteID) == "" || strings.TrimSpace(container) == "" || strings.TrimSpace(name) == "" {
		return nil
	}
	return []string{
		"siteId = " + quoteFilterValue(siteID),
		"container = " + quoteFilterValue(container),
		"name = " + quoteFilterValue(name),
	}
}

var filterEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quoteFilterValue wraps v in double quotes, escaping only backslash and
// double quote as Meilisearch filter strings expect.
func quoteFilterValue(v string) string {
	return `"` + filterEscaper.Replace(v) + `"`
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// IndexNodes bulk-indexes node records.
func (m *Meili) IndexNodes(records []NodeRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxNodes).AddDocuments(records, nil)
	return err
}
