package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"waconsole/internal/domain"

	"github.com/rs/zerolog/log"
)

// Client is a stateless wrapper around the WhatsApp-bridge webhook API.
// Every call is scoped to a tenant through its locationId.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a new bridge API client
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// apiResponse is the generic envelope returned by mutation endpoints
type apiResponse struct {
	Status  json.RawMessage `json:"status,omitempty"`
	State   string          `json:"state,omitempty"`
	QRCode  string          `json:"qrcode,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

type listInstancesResponse struct {
	Data    []domain.Instance `json:"data"`
	Message string            `json:"message"`
	Status  bool              `json:"status"`
}

type instanceDetailResponse struct {
	Data    *domain.InstanceDetail `json:"data"`
	Message string                 `json:"message"`
	Status  bool                   `json:"status"`
}

// flexID tolerates the backend returning user IDs as strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id is neither string nor number: %s", data)
	}
	*f = flexID(n.String())
	return nil
}

type userData struct {
	ID    flexID `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type usersResponse struct {
	Data []userData `json:"data"`
}

type createInstanceRequest struct {
	LocationID   string `json:"locationId"`
	Alias        string `json:"alias"`
	UserID       string `json:"userId,omitempty"`
	IsMainDevice bool   `json:"isMainDevice"`
	FacebookAds  bool   `json:"facebookAds"`
	InstanceName string `json:"instance_name"`
	UserName     string `json:"user_name,omitempty"`
	UserEmail    string `json:"user_email,omitempty"`
	UserPhone    string `json:"user_phone,omitempty"`
}

type editInstanceRequest struct {
	LocationID   string `json:"locationId"`
	InstanceName string `json:"instanceName"`
	Alias        string `json:"alias"`
	UserID       string `json:"userId,omitempty"`
	IsMainDevice bool   `json:"isMainDevice"`
	FacebookAds  bool   `json:"facebookAds"`
}

type instanceNameRequest struct {
	LocationID   string `json:"locationId"`
	InstanceName string `json:"instanceName"`
}

// GetUsers fetches the tenant's users for the assignment dropdown
func (c *Client) GetUsers(ctx context.Context, locationID string) ([]domain.User, error) {
	var resp usersResponse
	query := url.Values{"locationId": {locationID}}
	if err := c.do(ctx, http.MethodGet, "/get-users", query, nil, &resp); err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(resp.Data))
	for _, u := range resp.Data {
		users = append(users, domain.User{
			ID:    string(u.ID),
			Name:  u.Name,
			Email: u.Email,
			Phone: u.Phone,
		})
	}
	return users, nil
}

// ListInstances fetches all instances for the tenant
func (c *Client) ListInstances(ctx context.Context, locationID string) ([]domain.Instance, error) {
	var resp listInstancesResponse
	query := url.Values{"locationId": {locationID}}
	if err := c.do(ctx, http.MethodGet, "/ver-instancias", query, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []domain.Instance{}, nil
	}
	return resp.Data, nil
}

// GetInstanceConfig fetches the full configuration of one instance
func (c *Client) GetInstanceConfig(ctx context.Context, locationID, instanceID string) (*domain.InstanceDetail, error) {
	var resp instanceDetailResponse
	query := url.Values{"locationId": {locationID}, "instanceId": {instanceID}}
	if err := c.do(ctx, http.MethodGet, "/ver-instancia", query, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, domain.NewBackendError("get instance config", "response has no data")
	}
	return resp.Data, nil
}

// CreateInstance provisions a new instance. The contact fields are the
// denormalized details of the assigned user, when one is assigned.
func (c *Client) CreateInstance(ctx context.Context, locationID string, cfg domain.InstanceConfig, instanceName string, contact *domain.User) error {
	req := createInstanceRequest{
		LocationID:   locationID,
		Alias:        cfg.Alias,
		UserID:       cfg.UserID,
		IsMainDevice: cfg.IsMainDevice,
		FacebookAds:  cfg.FacebookAds,
		InstanceName: instanceName,
	}
	if contact != nil {
		req.UserName = contact.Name
		req.UserEmail = contact.Email
		req.UserPhone = contact.Phone
	}

	var resp apiResponse
	if err := c.do(ctx, http.MethodPost, "/create-instance", nil, req, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return domain.NewBackendError("create instance", resp.Error)
	}
	return nil
}

// EditInstance updates an instance's configuration
func (c *Client) EditInstance(ctx context.Context, locationID, instanceName string, cfg domain.InstanceConfig) error {
	req := editInstanceRequest{
		LocationID:   locationID,
		InstanceName: instanceName,
		Alias:        cfg.Alias,
		UserID:       cfg.UserID,
		IsMainDevice: cfg.IsMainDevice,
		FacebookAds:  cfg.FacebookAds,
	}

	var resp apiResponse
	if err := c.do(ctx, http.MethodPut, "/edit-instance", nil, req, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return domain.NewBackendError("edit instance", resp.Error)
	}
	return nil
}

// DeleteInstance removes an instance. The backend expects the tenant and
// instance name in the DELETE body.
func (c *Client) DeleteInstance(ctx context.Context, locationID, instanceName string) error {
	req := instanceNameRequest{LocationID: locationID, InstanceName: instanceName}

	var resp apiResponse
	if err := c.do(ctx, http.MethodDelete, "/delete-instance", nil, req, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return domain.NewBackendError("delete instance", resp.Error)
	}
	return nil
}

// TurnOffInstance disconnects an instance without deleting it
func (c *Client) TurnOffInstance(ctx context.Context, locationID, instanceName string) error {
	req := instanceNameRequest{LocationID: locationID, InstanceName: instanceName}

	var resp apiResponse
	if err := c.do(ctx, http.MethodPost, "/turn-off", nil, req, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return domain.NewBackendError("turn off instance", resp.Error)
	}
	return nil
}

// QRResult is a normalized QR refresh response. DataURI is always a
// ready-to-render data URI when a QR payload was returned; Code carries
// the raw pairing string when the backend sent one.
type QRResult struct {
	DataURI string
	Code    string
	State   domain.ConnectionStatus
}

// RefreshQR asks the bridge for a fresh pairing QR code and the current
// connection state of the instance.
func (c *Client) RefreshQR(ctx context.Context, locationID, instanceName string) (*QRResult, error) {
	req := instanceNameRequest{LocationID: locationID, InstanceName: instanceName}

	var resp apiResponse
	if err := c.do(ctx, http.MethodPost, "/get-qr", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, domain.NewBackendError("refresh qr", resp.Error)
	}

	result := &QRResult{State: domain.ConnectionStatus(resp.State)}
	if resp.QRCode != "" {
		qr, err := NormalizeQR(resp.QRCode)
		if err != nil {
			return nil, domain.NewBackendError("refresh qr", err.Error())
		}
		result.DataURI = qr.DataURI
		result.Code = qr.Code
	}
	return result, nil
}

// GetInstanceData fetches the live profile of a connected instance
func (c *Client) GetInstanceData(ctx context.Context, locationID, instanceName string) (*domain.InstanceProfile, error) {
	req := instanceNameRequest{LocationID: locationID, InstanceName: instanceName}

	var profile domain.InstanceProfile
	if err := c.do(ctx, http.MethodPost, "/get-instance-data", nil, req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// do performs one request against the webhook API and decodes the JSON
// response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("Bridge API request failed")
		return domain.NewNetworkError(method+" "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Error().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("path", path).
			Msg("Bridge API returned error status")
		return domain.NewBackendError(method+" "+path, fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("Failed to decode bridge API response")
		return domain.NewBackendError(method+" "+path, "malformed response body")
	}
	return nil
}
