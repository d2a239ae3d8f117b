package app

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultMaxItems      = 10
	defaultBlogContainer = "blog"
	defaultLinkContainer = "links"
)

// PageArgs are the raw request parameters of the comment-list page. Empty
// strings mean the parameter was not supplied.
type PageArgs struct {
	NodeRef      string
	Site         string
	MaxItems     string
	ActivityType string
	PostID       string
	LinkID       string
	Container    string
}

func pageArgsFromQuery(query url.Values) PageArgs {
	return PageArgs{
		NodeRef:      queryParam(query, "nodeRef"),
		Site:         queryParam(query, "site"),
		MaxItems:     queryParam(query, "maxItems"),
		ActivityType: queryParam(query, "activityType"),
		PostID:       queryParam(query, "postId"),
		LinkID:       queryParam(query, "linkId"),
		Container:    queryParam(query, "container"),
	}
}

func queryParam(query url.Values, name string) string {
	return strings.TrimSpace(query.Get(name))
}

func paramOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// parseMaxItems reads the leading decimal integer of raw ("12abc" is 12,
// "0x10" is 0). Values without one, or whose prefix overflows int, fall back
// to the default page size.
func parseMaxItems(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return defaultMaxItems
	}
	value, err := strconv.Atoi(raw[:end])
	if err != nil {
		return defaultMaxItems
	}
	return value
}
