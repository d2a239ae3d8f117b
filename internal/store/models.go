package store

import "time"

// Node is a content item known to the catalog: a document, folder, blog post
// or link. Properties are keyed by fully qualified property name, for example
// "{http://www.alfresco.org/model/content/1.0}name".
type Node struct {
	NodeRef    string
	Type       string
	SiteID     string
	Container  string
	Name       string
	Properties map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NodeMetadata is the metadata view of a node handed to page controllers.
type NodeMetadata struct {
	NodeRef    string         `json:"nodeRef"`
	Properties map[string]any `json:"properties"`
}

func (n Node) Metadata() NodeMetadata {
	return NodeMetadata{
		NodeRef:    n.NodeRef,
		Properties: n.Properties,
	}
}
