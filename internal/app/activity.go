package app

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// Qualified property names used to describe the item a comment list belongs to.
const (
	contentModelNamespace = "{http://www.alfresco.org/model/content/1.0}"
	linksModelNamespace   = "{http://www.alfresco.org/model/linksmodel/1.0}"

	propContentName  = contentModelNamespace + "name"
	propContentTitle = contentModelNamespace + "title"
	propLinkTitle    = linksModelNamespace + "title"
)

const (
	ActivityDocument = "document"
	ActivityFolder   = "folder"
	ActivityLink     = "link"
	ActivityBlog     = "blog"
)

// ActivityParameters tells the client which page shows the commented item.
// Absent property values are left out of the JSON form.
type ActivityParameters struct {
	ItemTitle  any            `json:"itemTitle,omitempty"`
	Page       string         `json:"page"`
	PageParams map[string]any `json:"pageParams"`
}

// ActivityParameters fetches the metadata of nodeRef and maps activityType to
// a navigation descriptor. It returns fallback when the metadata or its
// properties are missing, or when activityType is not one of document,
// folder, link or blog.
func (s *Service) ActivityParameters(ctx context.Context, nodeRef, activityType string, fallback *ActivityParameters) *ActivityParameters {
	md, err := s.Metadata(ctx, nodeRef)
	if err != nil {
		s.logger.Warn("activity metadata unavailable", zap.String("nodeRef", nodeRef), zap.Error(err))
		return fallback
	}
	if md == nil || md.Properties == nil {
		return fallback
	}
	props := md.Properties

	switch activityType {
	case ActivityDocument:
		return &ActivityParameters{
			ItemTitle:  props[propContentName],
			Page:       "document-details",
			PageParams: pageParams("nodeRef", md.NodeRef),
		}
	case ActivityFolder:
		return &ActivityParameters{
			ItemTitle:  props[propContentName],
			Page:       "folder-details",
			PageParams: pageParams("nodeRef", md.NodeRef),
		}
	case ActivityLink:
		return &ActivityParameters{
			ItemTitle:  props[propLinkTitle],
			Page:       "links-view",
			PageParams: pageParams("linkId", props[propContentName]),
		}
	case ActivityBlog:
		return &ActivityParameters{
			ItemTitle:  props[propContentTitle],
			Page:       "blog-postview",
			PageParams: pageParams("postId", props[propContentName]),
		}
	default:
		return fallback
	}
}

func pageParams(key string, value any) map[string]any {
	params := map[string]any{}
	if value != nil {
		params[key] = value
	}
	return params
}

// encodeActivityParameters renders the descriptor the way the client expects
// to embed it: compact, without HTML escaping, no trailing newline.
func encodeActivityParameters(params *ActivityParameters) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(params); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
