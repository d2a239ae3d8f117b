package search

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
)

// Locator translates a name inside a site container (a blog post id, a link
// id) into a node reference. Implementations return "" when nothing matches.
type Locator interface {
	FindNodeRef(ctx context.Context, siteID, container, name string) (string, error)
}

// NodeRecord is the data we index for a locatable node.
type NodeRecord struct {
	ID        string `json:"id"`
	NodeRef   string `json:"nodeRef"`
	SiteID    string `json:"siteId"`
	Container string `json:"container"`
	Name      string `json:"name"`
}

// NewNodeRecord builds an index record. Node refs contain characters that
// Meilisearch rejects in primary keys, so the id is a digest of the ref.
func NewNodeRecord(nodeRef, siteID, container, name string) NodeRecord {
	return NodeRecord{
		ID:        recordID(nodeRef),
		NodeRef:   nodeRef,
		SiteID:    siteID,
		Container: container,
		Name:      name,
	}
}

func recordID(nodeRef string) string {
	sum := sha1.Sum([]byte(nodeRef))
	return hex.EncodeToString(sum[:])
}
