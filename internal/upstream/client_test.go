package upstream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"waconsole/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLocation = "XCrKRkp9vLhW6P6tXIkK"

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Body   map[string]any
}

// newTestClient spins up an httptest server that records the request and
// replies with the given payload.
func newTestClient(t *testing.T, status int, payload any) (*Client, *recordedRequest) {
	t.Helper()

	rec := &recordedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.Method = r.Method
		rec.Path = r.URL.Path
		rec.Query = map[string]string{}
		for key := range r.URL.Query() {
			rec.Query[key] = r.URL.Query().Get(key)
		}
		if r.Body != nil {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				rec.Body = body
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(server.Close)

	return New(server.URL, 5*time.Second), rec
}

func TestGetUsers(t *testing.T) {
	t.Run("decodes string and numeric ids", func(t *testing.T) {
		client, rec := newTestClient(t, http.StatusOK, map[string]any{
			"data": []map[string]any{
				{"id": "u1", "name": "Ana", "email": "ana@example.com"},
				{"id": 42, "name": "Luis", "email": "luis@example.com", "phone": "600111222"},
			},
		})

		users, err := client.GetUsers(context.Background(), testLocation)
		require.NoError(t, err)

		assert.Equal(t, http.MethodGet, rec.Method)
		assert.Equal(t, "/get-users", rec.Path)
		assert.Equal(t, testLocation, rec.Query["locationId"])

		require.Len(t, users, 2)
		assert.Equal(t, "u1", users[0].ID)
		assert.Equal(t, "42", users[1].ID)
		assert.Equal(t, "600111222", users[1].Phone)
	})
}

func TestListInstances(t *testing.T) {
	t.Run("returns the instance list", func(t *testing.T) {
		client, rec := newTestClient(t, http.StatusOK, map[string]any{
			"status": true,
			"data": []map[string]any{
				{"instance_id": 7, "instance_name": "infragrowth-whatsapp1", "connectionStatus": "open"},
			},
		})

		instances, err := client.ListInstances(context.Background(), testLocation)
		require.NoError(t, err)

		assert.Equal(t, "/ver-instancias", rec.Path)
		require.Len(t, instances, 1)
		assert.Equal(t, int64(7), instances[0].InstanceID)
		assert.True(t, instances[0].IsConnected())
	})

	t.Run("missing data yields an empty list", func(t *testing.T) {
		client, _ := newTestClient(t, http.StatusOK, map[string]any{"status": true})

		instances, err := client.ListInstances(context.Background(), testLocation)
		require.NoError(t, err)
		assert.Empty(t, instances)
	})
}

func TestGetInstanceConfig(t *testing.T) {
	t.Run("sends the instance id as a query param", func(t *testing.T) {
		client, rec := newTestClient(t, http.StatusOK, map[string]any{
			"data": map[string]any{"instance_id": 7, "instance_alias": "Ventas"},
		})

		detail, err := client.GetInstanceConfig(context.Background(), testLocation, "7")
		require.NoError(t, err)

		assert.Equal(t, "/ver-instancia", rec.Path)
		assert.Equal(t, "7", rec.Query["instanceId"])
		assert.Equal(t, "Ventas", detail.InstanceAlias)
	})

	t.Run("missing data is a backend error", func(t *testing.T) {
		client, _ := newTestClient(t, http.StatusOK, map[string]any{"status": false})

		_, err := client.GetInstanceConfig(context.Background(), testLocation, "7")

		var backendErr *domain.BackendError
		require.ErrorAs(t, err, &backendErr)
	})
}

func TestCreateInstance(t *testing.T) {
	cfg := domain.InstanceConfig{Alias: "Ventas", UserID: "u1", FacebookAds: true}

	t.Run("denormalizes the assigned user's contact details", func(t *testing.T) {
		client, rec := newTestClient(t, http.StatusOK, map[string]any{"status": "ok"})

		contact := &domain.User{ID: "u1", Name: "Ana", Email: "ana@example.com", Phone: "600111222"}
		err := client.CreateInstance(context.Background(), testLocation, cfg, "infragrowth-whatsapp2", contact)
		require.NoError(t, err)

		assert.Equal(t, http.MethodPost, rec.Method)
		assert.Equal(t, "/create-instance", rec.Path)
		assert.Equal(t, testLocation, rec.Body["locationId"])
		assert.Equal(t, "infragrowth-whatsapp2", rec.Body["instance_name"])
		assert.Equal(t, "Ana", rec.Body["user_name"])
		assert.Equal(t, "ana@example.com", rec.Body["user_email"])
		assert.Equal(t, true, rec.Body["facebookAds"])
	})

	t.Run("error field in the envelope is surfaced", func(t *testing.T) {
		client, _ := newTestClient(t, http.StatusOK, map[string]any{"error": "limite alcanzado"})

		err := client.CreateInstance(context.Background(), testLocation, cfg, "infragrowth-whatsapp2", nil)

		var backendErr *domain.BackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Contains(t, err.Error(), "limite alcanzado")
	})
}

func TestDeleteInstance(t *testing.T) {
	t.Run("sends the tenant and name in the DELETE body", func(t *testing.T) {
		client, rec := newTestClient(t, http.StatusOK, map[string]any{"status": "ok"})

		err := client.DeleteInstance(context.Background(), testLocation, "infragrowth-whatsapp1")
		require.NoError(t, err)

		assert.Equal(t, http.MethodDelete, rec.Method)
		assert.Equal(t, "/delete-instance", rec.Path)
		assert.Equal(t, testLocation, rec.Body["locationId"])
		assert.Equal(t, "infragrowth-whatsapp1", rec.Body["instanceName"])
	})
}

func TestTurnOffInstance(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, map[string]any{"status": "ok"})

	err := client.TurnOffInstance(context.Background(), testLocation, "infragrowth-whatsapp1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.Method)
	assert.Equal(t, "/turn-off", rec.Path)
}

func TestRefreshQR(t *testing.T) {
	t.Run("normalizes a bare base64 qr payload", func(t *testing.T) {
		png := base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a})
		client, rec := newTestClient(t, http.StatusOK, map[string]any{
			"qrcode": png,
			"state":  "connecting",
		})

		result, err := client.RefreshQR(context.Background(), testLocation, "infragrowth-whatsapp1")
		require.NoError(t, err)

		assert.Equal(t, "/get-qr", rec.Path)
		assert.Equal(t, "data:image/png;base64,"+png, result.DataURI)
		assert.False(t, result.State.IsConnected())
	})

	t.Run("reports the connected state without a qr payload", func(t *testing.T) {
		client, _ := newTestClient(t, http.StatusOK, map[string]any{"state": "open"})

		result, err := client.RefreshQR(context.Background(), testLocation, "infragrowth-whatsapp1")
		require.NoError(t, err)

		assert.Empty(t, result.DataURI)
		assert.True(t, result.State.IsConnected())
	})
}

func TestGetInstanceData(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, map[string]any{
		"name":   "Ventas",
		"number": "34600111222",
		"photo":  "https://example.com/p.jpg",
	})

	profile, err := client.GetInstanceData(context.Background(), testLocation, "infragrowth-whatsapp1")
	require.NoError(t, err)

	assert.Equal(t, "/get-instance-data", rec.Path)
	assert.Equal(t, "Ventas", profile.Name)
	assert.Equal(t, "34600111222", profile.Number)
}

func TestClientErrorMapping(t *testing.T) {
	t.Run("transport failure is a network error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()
		client := New(server.URL, time.Second)

		_, err := client.ListInstances(context.Background(), testLocation)

		var netErr *domain.NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.NotNil(t, errors.Unwrap(netErr))
	})

	t.Run("error status is a backend error", func(t *testing.T) {
		client, _ := newTestClient(t, http.StatusInternalServerError, map[string]any{"message": "boom"})

		_, err := client.ListInstances(context.Background(), testLocation)

		var backendErr *domain.BackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Contains(t, err.Error(), "status 500")
	})

	t.Run("malformed body is a backend error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		t.Cleanup(server.Close)
		client := New(server.URL, time.Second)

		_, err := client.ListInstances(context.Background(), testLocation)

		var backendErr *domain.BackendError
		require.ErrorAs(t, err, &backendErr)
	})
}
