package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersin/stackd/internal/adapters/builder"
	"github.com/ersin/stackd/internal/core/domain"
)

type fakeStackService struct {
	stacks    []domain.StackInfo
	deployErr error
	torntDown []string
}

func (f *fakeStackService) Deploy(ctx context.Context, req domain.DeployRequest) (domain.StackInfo, error) {
	if f.deployErr != nil {
		return domain.StackInfo{}, f.deployErr
	}
	return domain.StackInfo{Name: req.Name, DeployID: "d-1"}, nil
}

func (f *fakeStackService) Teardown(ctx context.Context, name string) error {
	f.torntDown = append(f.torntDown, name)
	return nil
}

func (f *fakeStackService) List(ctx context.Context) ([]domain.StackInfo, error) {
	return f.stacks, nil
}

func (f *fakeStackService) Logs(ctx context.Context, stack, service string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("log line\n")), nil
}

func (f *fakeStackService) Manifest(ctx context.Context, stack string) ([]byte, error) {
	if stack != "shop" {
		return nil, fmt.Errorf("service app not found in stack %s", stack)
	}
	return []byte("services:\n"), nil
}

func (f *fakeStackService) Edge(ctx context.Context, stack string) (domain.Service, error) {
	return domain.Service{Name: "proxy", IPAddress: "172.18.0.4", State: "running"}, nil
}

func testApp(svc *fakeStackService) *fiber.App {
	h := NewStackHandler(svc)
	app := fiber.New()
	stacks := app.Group("/api/v1/stacks")
	stacks.Get("/", h.ListStacks)
	stacks.Post("/", h.DeployStack)
	stacks.Delete("/:name", h.TeardownStack)
	stacks.Get("/:name/compose", h.StackManifest)
	stacks.Get("/:name/logs/:service", h.ServiceLogs)
	return app
}

func TestListStacks(t *testing.T) {
	svc := &fakeStackService{stacks: []domain.StackInfo{{Name: "shop", DeployID: "d-1"}}}
	app := testApp(svc)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/stacks/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got []domain.StackInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "shop", got[0].Name)
}

func TestDeployStackValidation(t *testing.T) {
	app := testApp(&fakeStackService{})

	req := httptest.NewRequest("POST", "/api/v1/stacks/", strings.NewReader(`{"name":"shop"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDeployStackSuccess(t *testing.T) {
	app := testApp(&fakeStackService{})

	body := `{"name":"shop","repo_url":"https://example.com/shop.git"}`
	req := httptest.NewRequest("POST", "/api/v1/stacks/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestDeployStackLintGateIsUnprocessable(t *testing.T) {
	svc := &fakeStackService{deployErr: fmt.Errorf("build application image: %w", builder.ErrLintGate)}
	app := testApp(svc)

	body := `{"name":"shop","repo_url":"https://example.com/shop.git"}`
	req := httptest.NewRequest("POST", "/api/v1/stacks/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestTeardownStack(t *testing.T) {
	svc := &fakeStackService{}
	app := testApp(svc)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/api/v1/stacks/shop", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"shop"}, svc.torntDown)
}

func TestStackManifest(t *testing.T) {
	app := testApp(&fakeStackService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/stacks/shop/compose", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/stacks/ghost/compose", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
