package smartthings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nerrad567/vesync-connect/internal/infrastructure/logging"
)

// DefaultBaseURL is the production hub API endpoint.
const DefaultBaseURL = "https://api.smartthings.com/v1"

// Client is the SmartThings REST client used for device lifecycle and
// event delivery. Every call carries the per-installation bearer token
// passed by the caller; the client itself holds no credentials.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logging.Logger
}

// NewClient creates a hub client. An empty baseURL selects the
// production endpoint.
func NewClient(baseURL string, logger *logging.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With("component", "smartthings"),
	}
}

// do sends one authenticated request and decodes the response into out
// when out is non-nil. Any non-2xx status is an ErrHubAPI.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encoding request: %w", ErrHubAPI, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrHubAPI, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrHubAPI, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrHubAPI, method, path, resp.StatusCode, detail)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %s %s: decoding response: %w", ErrHubAPI, method, path, err)
		}
	}
	return nil
}

// CreateDevice registers a new app-owned device with the hub.
//
// Returns:
//   - *Device: the created record, including the hub-assigned deviceId
//   - error: ErrHubAPI on any failure
func (c *Client) CreateDevice(ctx context.Context, token string, req CreateDeviceRequest) (*Device, error) {
	var created Device
	if err := c.do(ctx, http.MethodPost, "/devices", token, req, &created); err != nil {
		return nil, err
	}

	c.logger.Debug("hub device created",
		"device_id", created.DeviceID,
		"external_id", req.App.ExternalID,
		"label", req.Label)
	return &created, nil
}

// DeleteDevice removes a device from the hub.
func (c *Client) DeleteDevice(ctx context.Context, token, deviceID string) error {
	if err := c.do(ctx, http.MethodDelete, "/devices/"+url.PathEscape(deviceID), token, nil, nil); err != nil {
		return err
	}

	c.logger.Debug("hub device deleted", "device_id", deviceID)
	return nil
}

// ListDevices fetches all devices owned by the given installed app. The
// hub pages the device list; this walks every page and filters to the
// installation so callers see exactly the connector's own devices.
func (c *Client) ListDevices(ctx context.Context, token, installedAppID string) ([]Device, error) {
	var devices []Device
	path := "/devices"

	for path != "" {
		var page deviceListPage
		if err := c.do(ctx, http.MethodGet, path, token, nil, &page); err != nil {
			return nil, err
		}
		for _, d := range page.Items {
			if d.App.InstalledAppID == installedAppID {
				devices = append(devices, d)
			}
		}
		path = ""
		if page.Links.Next != nil && page.Links.Next.Href != "" {
			// Next links are absolute; strip back to a path under baseURL.
			next, err := url.Parse(page.Links.Next.Href)
			if err != nil {
				return nil, fmt.Errorf("%w: parsing next page link: %w", ErrHubAPI, err)
			}
			path = next.Path
			if next.RawQuery != "" {
				path += "?" + next.RawQuery
			}
			path = trimBasePath(path, c.baseURL)
		}
	}

	return devices, nil
}

// SendEvents posts device state events to the hub.
func (c *Client) SendEvents(ctx context.Context, token, deviceID string, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	body := eventsRequest{DeviceEvents: events}
	if err := c.do(ctx, http.MethodPost, "/devices/"+url.PathEscape(deviceID)+"/events", token, body, nil); err != nil {
		return err
	}

	c.logger.Debug("hub events sent", "device_id", deviceID, "count", len(events))
	return nil
}

// trimBasePath removes the base URL's path prefix from an absolute link
// path so it can be re-appended to baseURL.
func trimBasePath(path, baseURL string) string {
	base, err := url.Parse(baseURL)
	if err != nil || base.Path == "" {
		return path
	}
	if len(path) >= len(base.Path) && path[:len(base.Path)] == base.Path {
		return path[len(base.Path):]
	}
	return path
}
