package vesync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nerrad567/vesync-connect/internal/infrastructure/config"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/logging"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.VeSyncConfig{APIEndpoint: srv.URL, Timeout: 5}, logging.Default())
}

func TestLogin_HashesPassword(t *testing.T) {
	var gotBody map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pathLogin {
			t.Errorf("path = %q, want %q", r.URL.Path, pathLogin)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"result": map[string]string{
				"accountID": "acct-1",
				"token":     "tok-1",
			},
		})
	})

	creds, err := client.Login(context.Background(), "me@example.com", "password")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if creds.AccountID != "acct-1" || creds.Token != "tok-1" {
		t.Errorf("Login() = %+v, want acct-1/tok-1", creds)
	}

	// md5("password")
	if gotBody["password"] != "5f4dcc3b5aa765d61d8327deb882cf99" {
		t.Errorf("password sent = %v, want md5 digest", gotBody["password"])
	}
	if gotBody["email"] != "me@example.com" {
		t.Errorf("email sent = %v", gotBody["email"])
	}
}

func TestGetDevices_NonZeroCode(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 11, "msg": "token expired"})
	})

	_, err := client.GetDevices(context.Background(), Credentials{AccountID: "a", Token: "t"})
	if !errors.Is(err, ErrVendorAPI) {
		t.Fatalf("GetDevices() error = %v, want ErrVendorAPI", err)
	}
}

func TestGetDevices_ParsesList(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"result": map[string]any{
				"total": 2,
				"list": []map[string]any{
					{"uuid": "u1", "deviceName": "Purifier", "type": "wifi-air", "connectionStatus": "online"},
					{"uuid": "u2", "deviceName": "Bulb", "type": "wifi-light", "connectionStatus": "offline"},
				},
			},
		})
	})

	list, err := client.GetDevices(context.Background(), Credentials{AccountID: "a", Token: "t"})
	if err != nil {
		t.Fatalf("GetDevices() error = %v", err)
	}
	if list.Total != 2 || len(list.List) != 2 {
		t.Fatalf("GetDevices() total = %d, len = %d, want 2/2", list.Total, len(list.List))
	}
	if !list.List[0].IsAirPurifier() {
		t.Error("first device should be an air purifier")
	}
	if list.List[1].ExternalID() != "u2" {
		t.Errorf("ExternalID() = %q, want u2", list.List[1].ExternalID())
	}
}

func TestGetDevices_DecodesProductCapabilities(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"result": map[string]any{
				"total": 2,
				"list": []map[string]any{
					{
						"uuid": "u1", "type": "wifi-light",
						"product": map[string]any{
							"capabilities": map[string]any{"has_color": true},
						},
					},
					{
						"uuid": "u2", "type": "wifi-light",
						"product": map[string]any{
							"capabilities": map[string]any{"has_variable_color_temp": true},
						},
					},
				},
			},
		})
	})

	list, err := client.GetDevices(context.Background(), Credentials{AccountID: "a", Token: "t"})
	if err != nil {
		t.Fatalf("GetDevices() error = %v", err)
	}
	if !list.List[0].Product.Capabilities.HasColor {
		t.Error("has_color not decoded from product.capabilities")
	}
	if list.List[0].Product.Capabilities.HasVariableColorTemp {
		t.Error("has_variable_color_temp decoded true without being sent")
	}
	if !list.List[1].Product.Capabilities.HasVariableColorTemp {
		t.Error("has_variable_color_temp not decoded from product.capabilities")
	}
}

func TestSetFanSpeed_SendsLevel(t *testing.T) {
	var gotBody map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pathPurifierSpeed {
			t.Errorf("path = %q, want %q", r.URL.Path, pathPurifierSpeed)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 0})
	})

	err := client.SetFanSpeed(context.Background(), Credentials{AccountID: "a", Token: "t"}, "u1", 2)
	if err != nil {
		t.Fatalf("SetFanSpeed() error = %v", err)
	}
	if gotBody["level"] != float64(2) {
		t.Errorf("level sent = %v, want 2", gotBody["level"])
	}
	if gotBody["uuid"] != "u1" {
		t.Errorf("uuid sent = %v, want u1", gotBody["uuid"])
	}
}

func TestTurnOff_SendsStatus(t *testing.T) {
	var gotBody map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pathPurifierStatus {
			t.Errorf("path = %q, want %q", r.URL.Path, pathPurifierStatus)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 0})
	})

	if err := client.TurnOff(context.Background(), Credentials{AccountID: "a", Token: "t"}, "u1"); err != nil {
		t.Fatalf("TurnOff() error = %v", err)
	}
	if gotBody["status"] != "off" {
		t.Errorf("status sent = %v, want off", gotBody["status"])
	}
}

func TestGetAirPurifierDetail(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code":             0,
			"deviceStatus":     "on",
			"connectionStatus": "online",
			"mode":             "manual",
			"level":            2,
			"airQuality":       "excellent",
			"filterLife":       map[string]any{"percent": 0.87},
		})
	})

	// The purifier detail endpoint returns status fields at the top level
	// alongside the code, not nested under result.
	detail, err := client.GetAirPurifierDetail(context.Background(), Credentials{AccountID: "a", Token: "t"}, "u1")
	if err != nil {
		t.Fatalf("GetAirPurifierDetail() error = %v", err)
	}
	if detail.Level != 2 || detail.AirQuality != "excellent" {
		t.Errorf("detail = %+v", detail)
	}
	if !detail.IsOnline() {
		t.Error("IsOnline() = false, want true")
	}
}

func TestTransportError(t *testing.T) {
	client := NewClient(config.VeSyncConfig{APIEndpoint: "http://127.0.0.1:1", Timeout: 1}, logging.Default())

	_, err := client.GetDevices(context.Background(), Credentials{AccountID: "a", Token: "t"})
	if !errors.Is(err, ErrVendorAPI) {
		t.Fatalf("GetDevices() error = %v, want ErrVendorAPI", err)
	}
}
