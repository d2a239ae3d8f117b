package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T, fs *fakeStore, locator *fakeLocator) http.Handler {
	t.Helper()
	var svc *Service
	if locator != nil {
		svc = newTestService(t, fs, nil, locator)
	} else {
		svc = newTestService(t, fs, nil, nil)
	}
	return NewHTTPServer(svc, "*", zaptest.NewLogger(t)).Handler()
}

func serve(t *testing.T, handler http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var body map[string]any
	if rr.Body.Len() > 0 && strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	}
	return rr, body
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t, &fakeStore{}, nil)

	rr, body := serve(t, handler, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		handler := newTestServer(t, &fakeStore{}, nil)

		rr, body := serve(t, handler, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ready", body["status"])
	})

	t.Run("database down", func(t *testing.T) {
		fs := &fakeStore{pingFn: func(context.Context) error { return errors.New("connection refused") }}
		handler := newTestServer(t, fs, nil)

		rr, body := serve(t, handler, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "not_ready", body["status"])
		assert.Equal(t, false, body["ok"])
		database := body["checks"].(map[string]any)["database"].(map[string]any)
		assert.Equal(t, "connection refused", database["error"])
	})

	t.Run("cache down", func(t *testing.T) {
		svc := newTestService(t, &fakeStore{}, &fakeCache{pingErr: errors.New("redis: connection refused")}, nil)
		handler := NewHTTPServer(svc, "*", zaptest.NewLogger(t)).Handler()

		rr, body := serve(t, handler, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "not_ready", body["status"])
		cache := body["checks"].(map[string]any)["cache"].(map[string]any)
		assert.Equal(t, "error", cache["status"])
		assert.Equal(t, "redis: connection refused", cache["error"])
	})

	t.Run("degraded index stays ready", func(t *testing.T) {
		idx := &fakeIndexHealth{enabled: true, healthy: false}
		svc := newTestService(t, &fakeStore{}, &fakeCache{}, idx)
		handler := NewHTTPServer(svc, "*", zaptest.NewLogger(t)).Handler()

		rr, body := serve(t, handler, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		checks := body["checks"].(map[string]any)
		assert.Equal(t, "ok", checks["cache"].(map[string]any)["status"])
		assert.Equal(t, "degraded", checks["search"].(map[string]any)["status"])
	})
}

func TestRequestIDIsEchoed(t *testing.T) {
	handler := newTestServer(t, &fakeStore{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-123")

	rr, _ := serve(t, handler, req)

	assert.Equal(t, "req-123", rr.Header().Get("X-Request-ID"))
}

func TestCommentsListEndpoint(t *testing.T) {
	handler := newTestServer(t, &fakeStore{nodes: testNodes()}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/components/comments/comments-list?nodeRef="+reportRef+"&site=demo&activityType=document&maxItems=5", nil)
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	rr, body := serve(t, handler, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, reportRef, body["nodeRef"])
	assert.Equal(t, `{"itemTitle":"Report.pdf","page":"document-details","pageParams":{"nodeRef":"`+reportRef+`"}}`, body["activityParameterJSON"])

	widgets := body["widgets"].([]any)
	require.Len(t, widgets, 1)
	options := widgets[0].(map[string]any)["options"].(map[string]any)
	assert.Equal(t, "demo", options["siteId"])
	assert.Equal(t, float64(5), options["maxItems"])
	assert.Equal(t, "en", options["editorConfig"].(map[string]any)["language"])
}

func TestCommentsListEndpointMissingNode(t *testing.T) {
	handler := newTestServer(t, &fakeStore{nodes: testNodes()}, nil)

	rr, body := serve(t, handler, httptest.NewRequest(http.MethodGet, "/api/components/comments/comments-list?nodeRef=workspace://SpacesStore/gone", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, body, "nodeRef")
	assert.Nil(t, body["nodeRef"])
}

func TestCommentsListEndpointLinkID(t *testing.T) {
	locator := &fakeLocator{refs: map[lookupCall]string{
		{Site: "demo", Container: "links", Name: "l1"}: linkRef,
	}}
	handler := newTestServer(t, &fakeStore{nodes: testNodes()}, locator)

	rr, body := serve(t, handler, httptest.NewRequest(http.MethodGet, "/api/components/comments/comments-list?site=demo&linkId=l1&activityType=link&locale=de_DE", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, linkRef, body["nodeRef"])
	assert.Equal(t, "links", body["container"])
	options := body["widgets"].([]any)[0].(map[string]any)["options"].(map[string]any)
	assert.Equal(t, "de", options["editorConfig"].(map[string]any)["language"])
}

func TestActivityParametersEndpoint(t *testing.T) {
	handler := newTestServer(t, &fakeStore{nodes: testNodes()}, nil)

	rr, body := serve(t, handler, httptest.NewRequest(http.MethodGet, "/api/activity-parameters?nodeRef="+folderRef+"&activityType=folder", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	params := body["activityParameters"].(map[string]any)
	assert.Equal(t, "folder-details", params["page"])
	assert.Equal(t, "Contracts", params["itemTitle"])
}

func TestActivityParametersEndpointUnknownType(t *testing.T) {
	handler := newTestServer(t, &fakeStore{nodes: testNodes()}, nil)

	rr, body := serve(t, handler, httptest.NewRequest(http.MethodGet, "/api/activity-parameters?nodeRef="+folderRef+"&activityType=calendar", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, body, "activityParameters")
	assert.Nil(t, body["activityParameters"])
}

func TestActivityParametersEndpointRequiresNodeRef(t *testing.T) {
	handler := newTestServer(t, &fakeStore{}, nil)

	rr, body := serve(t, handler, httptest.NewRequest(http.MethodGet, "/api/activity-parameters?activityType=folder", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Equal(t, "nodeRef", body["details"].(map[string]any)["field"])
}

func TestUnknownRoute(t *testing.T) {
	handler := newTestServer(t, &fakeStore{}, nil)

	rr, body := serve(t, handler, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestServer(t, &fakeStore{}, nil)

	rr, body := serve(t, handler, httptest.NewRequest(http.MethodPost, "/api/components/comments/comments-list", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", body["code"])
}

func TestPreflight(t *testing.T) {
	handler := newTestServer(t, &fakeStore{}, nil)

	rr, _ := serve(t, handler, httptest.NewRequest(http.MethodOptions, "/api/components/comments/comments-list", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestServer(t, &fakeStore{nodes: testNodes()}, nil)
	serve(t, handler, httptest.NewRequest(http.MethodGet, "/api/components/comments/comments-list?nodeRef="+reportRef, nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "commentlist_renders_total")
	assert.Contains(t, rr.Body.String(), `route="/api/components/comments/comments-list"`)
}

func TestMapError(t *testing.T) {
	status, code, _, _ := mapError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "SERVER_ERROR", code)

	status, code, message, details := mapError(validationError("maxItems", "bad"))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_ERROR", code)
	assert.Equal(t, "bad", message)
	assert.Equal(t, map[string]any{"field": "maxItems"}, details)
}
