package app

import (
	"context"

	"go.uber.org/zap"
)

const (
	commentsListWidgetID   = "CommentsList"
	commentsListWidgetName = "Alfresco.CommentsList"
)

// CommentsListModel is what the page template receives. A null NodeRef tells
// the template not to render comments.
type CommentsListModel struct {
	NodeRef               *string  `json:"nodeRef"`
	Site                  string   `json:"site,omitempty"`
	MaxItems              int      `json:"maxItems"`
	ActivityType          string   `json:"activityType,omitempty"`
	PostID                string   `json:"postId,omitempty"`
	LinkID                string   `json:"linkId,omitempty"`
	Container             string   `json:"container,omitempty"`
	ActivityParameterJSON string   `json:"activityParameterJSON,omitempty"`
	Widgets               []Widget `json:"widgets"`
}

type Widget struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Options CommentsListOptions `json:"options"`
}

type CommentsListOptions struct {
	NodeRef      *string      `json:"nodeRef"`
	SiteID       *string      `json:"siteId"`
	MaxItems     int          `json:"maxItems"`
	Activity     string       `json:"activity,omitempty"`
	EditorConfig EditorConfig `json:"editorConfig"`
}

// EditorConfig configures the rich-text editor used to write comments.
type EditorConfig struct {
	InlineStyles                   bool    `json:"inline_styles"`
	ConvertFontsToSpans            bool    `json:"convert_fonts_to_spans"`
	Theme                          string  `json:"theme"`
	ThemeAdvancedButtons1          string  `json:"theme_advanced_buttons1"`
	ThemeAdvancedToolbarLocation   string  `json:"theme_advanced_toolbar_location"`
	ThemeAdvancedToolbarAlign      string  `json:"theme_advanced_toolbar_align"`
	ThemeAdvancedStatusbarLocation string  `json:"theme_advanced_statusbar_location"`
	ThemeAdvancedResizing          bool    `json:"theme_advanced_resizing"`
	ThemeAdvancedButtons2          *string `json:"theme_advanced_buttons2"`
	ThemeAdvancedButtons3          *string `json:"theme_advanced_buttons3"`
	ThemeAdvancedPath              bool    `json:"theme_advanced_path"`
	Language                       string  `json:"language"`
}

func newEditorConfig(language string) EditorConfig {
	return EditorConfig{
		InlineStyles:                   false,
		ConvertFontsToSpans:            false,
		Theme:                          "advanced",
		ThemeAdvancedButtons1:          "bold,italic,underline,|,bullist,numlist,|,forecolor,|,undo,redo,removeformat",
		ThemeAdvancedToolbarLocation:   "top",
		ThemeAdvancedToolbarAlign:      "left",
		ThemeAdvancedStatusbarLocation: "bottom",
		ThemeAdvancedResizing:          true,
		ThemeAdvancedPath:              false,
		Language:                       language,
	}
}

// CommentsList resolves the commented node and builds the widget model.
// Lookups are best effort: anything that cannot be resolved ends with a nil
// NodeRef rather than an error.
func (s *Service) CommentsList(ctx context.Context, args PageArgs, locale string) CommentsListModel {
	model := CommentsListModel{
		Site:         args.Site,
		MaxItems:     parseMaxItems(args.MaxItems),
		ActivityType: args.ActivityType,
	}

	nodeRef := args.NodeRef
	if nodeRef == "" {
		if args.PostID != "" {
			model.PostID = args.PostID
			model.Container = paramOr(args.Container, defaultBlogContainer)
			nodeRef = s.BlogPostNodeRef(ctx, args.Site, model.Container, args.PostID)
		} else if args.LinkID != "" {
			model.LinkID = args.LinkID
			model.Container = paramOr(args.Container, defaultLinkContainer)
			nodeRef = s.LinkNodeRef(ctx, args.Site, model.Container, args.LinkID)
		}
	}

	details, err := s.NodeDetails(ctx, nodeRef, args.Site)
	if err != nil {
		s.logger.Warn("node details unavailable", zap.String("nodeRef", nodeRef), zap.Error(err))
	}
	if details != nil {
		model.NodeRef = &nodeRef
		if params := s.ActivityParameters(ctx, nodeRef, args.ActivityType, nil); params != nil {
			encoded, err := encodeActivityParameters(params)
			if err != nil {
				s.logger.Warn("encode activity parameters", zap.String("nodeRef", nodeRef), zap.Error(err))
			} else {
				model.ActivityParameterJSON = encoded
			}
		}
		commentsListRenders.WithLabelValues("enabled").Inc()
	} else {
		commentsListRenders.WithLabelValues("disabled").Inc()
	}

	var siteID *string
	if args.Site != "" {
		site := args.Site
		siteID = &site
	}
	model.Widgets = []Widget{{
		ID:   commentsListWidgetID,
		Name: commentsListWidgetName,
		Options: CommentsListOptions{
			NodeRef:      model.NodeRef,
			SiteID:       siteID,
			MaxItems:     model.MaxItems,
			Activity:     model.ActivityParameterJSON,
			EditorConfig: newEditorConfig(languageCode(locale)),
		},
	}}
	return model
}
