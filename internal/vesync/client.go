package vesync

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // vendor login protocol requires an MD5 password digest
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/vesync-connect/internal/infrastructure/config"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/logging"
)

// Request constants required by the vendor API. The cloud rejects calls
// without a plausible mobile-app fingerprint.
const (
	defaultTimezone = "US/Central"
	defaultLanguage = "en"
	appVersion      = "2.5.1"
	phoneBrand      = "SM N9005"
	phoneOS         = "Android"
	userType        = "1"

	// devicePageSize is the page size for the device list call. The
	// connector is sized for tens of devices; one page covers it.
	devicePageSize = "50"
)

// API paths.
const (
	pathLogin          = "/cloud/v1/user/login"
	pathDevices        = "/cloud/v1/deviceManaged/devices"
	pathPurifierDetail = "/131airPurifier/v1/device/deviceDetail"
	pathPurifierSpeed  = "/131airPurifier/v1/device/updateSpeed"
	pathPurifierStatus = "/131airPurifier/v1/device/deviceStatus"
	pathBulbDetail     = "/SmartBulb/v1/device/devicedetail"
)

// Client is the VeSync cloud REST client.
//
// It is a thin transport collaborator: request plumbing, login encoding,
// and the vendor's result-code convention. All methods treat a non-zero
// result code as a hard error (ErrVendorAPI).
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logging.Logger
}

// NewClient creates a vendor client from configuration.
func NewClient(cfg config.VeSyncConfig, logger *logging.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.APIEndpoint,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "vesync"),
	}
}

// envelope is the vendor's standard response wrapper. Result codes other
// than zero indicate failure even when HTTP reports 200.
type envelope struct {
	Code   int             `json:"code"`
	Msg    string          `json:"msg"`
	Result json.RawMessage `json:"result"`
}

// requestBody builds the common field set every vendor call requires,
// merged with call-specific fields.
func requestBody(extra map[string]any) map[string]any {
	body := map[string]any{
		"timeZone":       defaultTimezone,
		"acceptLanguage": defaultLanguage,
		"appVersion":     appVersion,
		"phoneBrand":     phoneBrand,
		"phoneOS":        phoneOS,
		"traceId":        uuid.NewString(),
		"userType":       userType,
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

// post sends a JSON POST to the given path and decodes the result payload
// into out (when out is non-nil). The vendor envelope's code is checked
// before any decoding of the result.
func (c *Client) post(ctx context.Context, path string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %w", ErrVendorAPI, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrVendorAPI, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", defaultLanguage)
	req.Header.Set("tz", defaultTimezone)
	req.Header.Set("app-version", appVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrVendorAPI, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: unexpected status %d", ErrVendorAPI, path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: %s: decoding response: %w", ErrVendorAPI, path, err)
	}
	if env.Code != 0 {
		return fmt.Errorf("%w: %s: code %d (%s)", ErrVendorAPI, path, env.Code, env.Msg)
	}

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("%w: %s: decoding result: %w", ErrVendorAPI, path, err)
		}
	}
	return nil
}

// postFlat is post for the device detail endpoints, which return their
// status fields at the top level of the response alongside the code
// rather than nested under result.
func (c *Client) postFlat(ctx context.Context, path string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %w", ErrVendorAPI, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrVendorAPI, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", defaultLanguage)
	req.Header.Set("tz", defaultTimezone)
	req.Header.Set("app-version", appVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrVendorAPI, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: unexpected status %d", ErrVendorAPI, path, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: reading response: %w", ErrVendorAPI, path, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %s: decoding response: %w", ErrVendorAPI, path, err)
	}
	if env.Code != 0 {
		return fmt.Errorf("%w: %s: code %d (%s)", ErrVendorAPI, path, env.Code, env.Msg)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: decoding detail: %w", ErrVendorAPI, path, err)
	}
	return nil
}

// loginResult is the payload of a successful login.
type loginResult struct {
	AccountID string `json:"accountID"`
	Token     string `json:"token"`
}

// Login exchanges account email and password for API credentials.
//
// The password is sent as an MD5 digest per the vendor's login protocol.
//
// Returns:
//   - Credentials: accountId/token pair for subsequent calls
//   - error: ErrVendorAPI on any failure
func (c *Client) Login(ctx context.Context, email, password string) (Credentials, error) {
	sum := md5.Sum([]byte(password)) //nolint:gosec // vendor protocol
	body := requestBody(map[string]any{
		"email":    email,
		"password": hex.EncodeToString(sum[:]),
		"devToken": "",
		"method":   "login",
	})

	var result loginResult
	if err := c.post(ctx, pathLogin, body, &result); err != nil {
		return Credentials{}, err
	}

	c.logger.Debug("vendor login succeeded", "account_id", result.AccountID)
	return Credentials{AccountID: result.AccountID, Token: result.Token}, nil
}

// GetDevices fetches the account's managed-device list.
//
// Returns:
//   - *DeviceList: ordered device list plus the vendor's total count
//   - error: ErrVendorAPI on any failure
func (c *Client) GetDevices(ctx context.Context, creds Credentials) (*DeviceList, error) {
	body := requestBody(map[string]any{
		"method":    "devices",
		"pageNo":    "1",
		"pageSize":  devicePageSize,
		"accountID": creds.AccountID,
		"token":     creds.Token,
	})

	var result DeviceList
	if err := c.post(ctx, pathDevices, body, &result); err != nil {
		return nil, err
	}

	c.logger.Debug("vendor device list fetched", "total", result.Total)
	return &result, nil
}

// GetAirPurifierDetail fetches the status record for one air purifier.
func (c *Client) GetAirPurifierDetail(ctx context.Context, creds Credentials, externalID string) (*AirPurifierDetail, error) {
	body := requestBody(map[string]any{
		"method":    "devicedetail",
		"uuid":      externalID,
		"mobileId":  mobileID(),
		"accountID": creds.AccountID,
		"token":     creds.Token,
	})

	var result AirPurifierDetail
	if err := c.postFlat(ctx, pathPurifierDetail, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetLightStatus fetches the status record for one smart bulb.
func (c *Client) GetLightStatus(ctx context.Context, creds Credentials, externalID string) (*LightStatus, error) {
	body := requestBody(map[string]any{
		"method":    "devicedetail",
		"uuid":      externalID,
		"mobileId":  mobileID(),
		"accountID": creds.AccountID,
		"token":     creds.Token,
	})

	var result LightStatus
	if err := c.postFlat(ctx, pathBulbDetail, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetFanSpeed sets an air purifier's fan level (1..3).
//
// Level 0 is not valid here; route zero to TurnOff instead.
func (c *Client) SetFanSpeed(ctx context.Context, creds Credentials, externalID string, level int) error {
	body := requestBody(map[string]any{
		"method":    "updateSpeed",
		"uuid":      externalID,
		"level":     level,
		"mobileId":  mobileID(),
		"accountID": creds.AccountID,
		"token":     creds.Token,
	})

	if err := c.post(ctx, pathPurifierSpeed, body, nil); err != nil {
		return err
	}

	c.logger.Debug("vendor fan speed set", "external_id", externalID, "level", level)
	return nil
}

// TurnOff powers an air purifier down.
func (c *Client) TurnOff(ctx context.Context, creds Credentials, externalID string) error {
	body := requestBody(map[string]any{
		"method":    "deviceStatus",
		"uuid":      externalID,
		"status":    "off",
		"mobileId":  mobileID(),
		"accountID": creds.AccountID,
		"token":     creds.Token,
	})

	if err := c.post(ctx, pathPurifierStatus, body, nil); err != nil {
		return err
	}

	c.logger.Debug("vendor device turned off", "external_id", externalID)
	return nil
}

// mobileID returns the pseudo mobile-client identifier the detail and
// action endpoints expect.
func mobileID() string {
	return "1234567890123456"
}
