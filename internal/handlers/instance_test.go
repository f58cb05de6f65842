package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"waconsole/internal/domain"
	"waconsole/internal/notify"
	"waconsole/internal/registry"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLocation = "XCrKRkp9vLhW6P6tXIkK"

type fakeAPI struct {
	mu        sync.Mutex
	instances []domain.Instance
	users     []domain.User
	detail    *domain.InstanceDetail

	listErr  error
	usersErr error

	lastLocationID string
}

func (f *fakeAPI) GetUsers(ctx context.Context, locationID string) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLocationID = locationID
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return f.users, nil
}

func (f *fakeAPI) ListInstances(ctx context.Context, locationID string) ([]domain.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLocationID = locationID
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.instances, nil
}

func (f *fakeAPI) GetInstanceConfig(ctx context.Context, locationID, instanceID string) (*domain.InstanceDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detail == nil {
		return nil, domain.NewBackendError("get instance config", "response has no data")
	}
	return f.detail, nil
}

func (f *fakeAPI) CreateInstance(ctx context.Context, locationID string, cfg domain.InstanceConfig, instanceName string, contact *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instances = append(f.instances, domain.Instance{InstanceName: instanceName, InstanceAlias: cfg.Alias})
	return nil
}

func (f *fakeAPI) EditInstance(ctx context.Context, locationID, instanceName string, cfg domain.InstanceConfig) error {
	return nil
}

func (f *fakeAPI) DeleteInstance(ctx context.Context, locationID, instanceName string) error {
	return nil
}

func (f *fakeAPI) TurnOffInstance(ctx context.Context, locationID, instanceName string) error {
	return nil
}

func newTestServer(api *fakeAPI) (*httptest.Server, *notify.Hub) {
	hub := notify.NewHub()
	reg := registry.New(api, hub, nil, registry.Config{})

	instanceHandler := NewInstanceHandler(reg, api, testLocation)
	usersHandler := NewUsersHandler(api, hub, testLocation)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/users", usersHandler.List)
		r.Route("/instances", func(r chi.Router) {
			r.Get("/", instanceHandler.List)
			r.Post("/", instanceHandler.Create)
			r.Get("/config", instanceHandler.GetConfig)
			r.Route("/{instanceName}", func(r chi.Router) {
				r.Put("/", instanceHandler.Edit)
				r.Delete("/", instanceHandler.Delete)
				r.Post("/turnoff", instanceHandler.TurnOff)
			})
		})
	})

	return httptest.NewServer(r), hub
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestInstanceList(t *testing.T) {
	t.Run("returns instances with derived metadata", func(t *testing.T) {
		api := &fakeAPI{instances: []domain.Instance{
			{InstanceName: "infragrowth-whatsapp2", MainDevice: true},
		}}
		server, _ := newTestServer(api)
		defer server.Close()

		resp, err := http.Get(server.URL + "/api/v1/instances/")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, float64(1), body["total"])
		assert.Equal(t, true, body["has_main_device"])
		assert.Equal(t, "infragrowth-whatsapp3", body["next_default_name"])
	})

	t.Run("bridge failure maps to 502", func(t *testing.T) {
		api := &fakeAPI{listErr: domain.NewNetworkError("GET /ver-instancias", errors.New("timeout"))}
		server, _ := newTestServer(api)
		defer server.Close()

		resp, err := http.Get(server.URL + "/api/v1/instances/")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("locationId query overrides the default tenant", func(t *testing.T) {
		api := &fakeAPI{}
		server, _ := newTestServer(api)
		defer server.Close()

		resp, err := http.Get(server.URL + "/api/v1/instances/?locationId=otherTenant")
		require.NoError(t, err)
		resp.Body.Close()

		api.mu.Lock()
		defer api.mu.Unlock()
		assert.Equal(t, "otherTenant", api.lastLocationID)
	})
}

func TestInstanceCreate(t *testing.T) {
	t.Run("returns the derived instance name", func(t *testing.T) {
		api := &fakeAPI{users: []domain.User{{ID: "u1", Name: "Ana"}}}
		server, _ := newTestServer(api)
		defer server.Close()

		resp, err := http.Post(server.URL+"/api/v1/instances/", "application/json",
			strings.NewReader(`{"alias":"Ventas","userId":"u1"}`))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "infragrowth-whatsapp1", body["instance_name"])
	})

	t.Run("invalid json maps to 400", func(t *testing.T) {
		server, _ := newTestServer(&fakeAPI{})
		defer server.Close()

		resp, err := http.Post(server.URL+"/api/v1/instances/", "application/json",
			strings.NewReader(`{not json`))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty alias maps to 400 with the form message", func(t *testing.T) {
		server, _ := newTestServer(&fakeAPI{})
		defer server.Close()

		resp, err := http.Post(server.URL+"/api/v1/instances/", "application/json",
			strings.NewReader(`{"alias":"","userId":"u1"}`))
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Contains(t, body["error"], "El alias es requerido")
	})
}

func TestInstanceGetConfig(t *testing.T) {
	t.Run("requires the instanceId query param", func(t *testing.T) {
		server, _ := newTestServer(&fakeAPI{})
		defer server.Close()

		resp, err := http.Get(server.URL + "/api/v1/instances/config")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("returns the configuration payload", func(t *testing.T) {
		api := &fakeAPI{detail: &domain.InstanceDetail{InstanceID: 7, InstanceAlias: "Ventas"}}
		server, _ := newTestServer(api)
		defer server.Close()

		resp, err := http.Get(server.URL + "/api/v1/instances/config?instanceId=7")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		data, ok := body["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Ventas", data["instance_alias"])
	})
}

func TestInstanceDelete(t *testing.T) {
	api := &fakeAPI{instances: []domain.Instance{{InstanceName: "infragrowth-whatsapp1"}}}
	server, _ := newTestServer(api)
	defer server.Close()

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/v1/instances/infragrowth-whatsapp1/", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestUsersList(t *testing.T) {
	t.Run("failure yields an empty list and a notification", func(t *testing.T) {
		api := &fakeAPI{usersErr: errors.New("timeout")}
		server, hub := newTestServer(api)
		defer server.Close()

		resp, err := http.Get(server.URL + "/api/v1/users")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, float64(0), body["total"])

		notifications := hub.Drain()
		require.Len(t, notifications, 1)
		assert.Equal(t, "Error al cargar los usuarios", notifications[0].Message)
	})

	t.Run("returns the user list", func(t *testing.T) {
		api := &fakeAPI{users: []domain.User{{ID: "u1", Name: "Ana", Email: "ana@example.com"}}}
		server, _ := newTestServer(api)
		defer server.Close()

		resp, err := http.Get(server.URL + "/api/v1/users")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, float64(1), body["total"])
	})
}
