package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainPost "github.com/AzielCF/fedisched/domains/post"
	pkgError "github.com/AzielCF/fedisched/pkg/error"
	"github.com/AzielCF/fedisched/ui/rest/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPostService struct {
	createFn func(ctx context.Context, request domainPost.CreateRequest) ([]domainPost.ScheduledPost, error)
	listFn   func(ctx context.Context, filter domainPost.ListFilter) ([]domainPost.ScheduledPost, error)
	retryFn  func(ctx context.Context, id string) (domainPost.ScheduledPost, error)
	deleteFn func(ctx context.Context, id string) error
}

func (s *stubPostService) Create(ctx context.Context, request domainPost.CreateRequest) ([]domainPost.ScheduledPost, error) {
	return s.createFn(ctx, request)
}

func (s *stubPostService) List(ctx context.Context, filter domainPost.ListFilter) ([]domainPost.ScheduledPost, error) {
	return s.listFn(ctx, filter)
}

func (s *stubPostService) Retry(ctx context.Context, id string) (domainPost.ScheduledPost, error) {
	return s.retryFn(ctx, id)
}

func (s *stubPostService) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func newPostApp(service domainPost.IPostUsecase) *fiber.App {
	app := fiber.New()
	app.Use(middleware.Recovery())
	api := app.Group("/api")
	InitRestPost(api, service)
	return app
}

func TestCreatePostsEndpoint(t *testing.T) {
	var captured domainPost.CreateRequest
	service := &stubPostService{
		createFn: func(ctx context.Context, request domainPost.CreateRequest) ([]domainPost.ScheduledPost, error) {
			captured = request
			return []domainPost.ScheduledPost{
				{ID: "post-1", AccountID: "acc-1", Content: request.Content, Status: domainPost.StatusScheduled},
			}, nil
		},
	}
	app := newPostApp(service)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	body, _ := json.Marshal(map[string]any{
		"content":      "hello fediverse",
		"account_ids":  []string{"acc-1"},
		"scheduled_at": at.Format(time.RFC3339),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, "hello fediverse", captured.Content)
	assert.Equal(t, []string{"acc-1"}, captured.AccountIDs)
	require.NotNil(t, captured.ScheduledAt)
	assert.True(t, captured.ScheduledAt.Equal(at))

	var envelope struct {
		Code    string                     `json:"code"`
		Results []domainPost.ScheduledPost `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "CREATED", envelope.Code)
	require.Len(t, envelope.Results, 1)
	assert.Equal(t, "post-1", envelope.Results[0].ID)
}

func TestCreatePostsValidationErrorMapsTo400(t *testing.T) {
	service := &stubPostService{
		createFn: func(ctx context.Context, request domainPost.CreateRequest) ([]domainPost.ScheduledPost, error) {
			return nil, pkgError.ValidationError("content: cannot be blank")
		},
	}
	app := newPostApp(service)

	body, _ := json.Marshal(map[string]any{"content": "", "account_ids": []string{"acc-1"}})
	req := httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "VALIDATION_ERROR", envelope.Code)
	assert.Contains(t, envelope.Message, "cannot be blank")
}

func TestListPostsEndpointPassesFilter(t *testing.T) {
	var captured domainPost.ListFilter
	service := &stubPostService{
		listFn: func(ctx context.Context, filter domainPost.ListFilter) ([]domainPost.ScheduledPost, error) {
			captured = filter
			return nil, nil
		},
	}
	app := newPostApp(service)

	req := httptest.NewRequest(http.MethodGet, "/api/posts?status=failed&limit=10&offset=20", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "failed", captured.Status)
	assert.Equal(t, 10, captured.Limit)
	assert.Equal(t, 20, captured.Offset)

	// nil service result still serializes as an empty array, not null
	var envelope struct {
		Results []domainPost.ScheduledPost `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.NotNil(t, envelope.Results)
	assert.Empty(t, envelope.Results)
}

func TestRetryPostEndpoint(t *testing.T) {
	service := &stubPostService{
		retryFn: func(ctx context.Context, id string) (domainPost.ScheduledPost, error) {
			assert.Equal(t, "post-1", id)
			return domainPost.ScheduledPost{ID: id, Status: domainPost.StatusScheduled}, nil
		},
	}
	app := newPostApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/posts/post-1/retry", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeletePostEndpointNotFound(t *testing.T) {
	service := &stubPostService{
		deleteFn: func(ctx context.Context, id string) error {
			return pkgError.NotFoundError("post not found")
		},
	}
	app := newPostApp(service)

	req := httptest.NewRequest(http.MethodDelete, "/api/posts/missing", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
