package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/nerrad567/vesync-connect/internal/vesync"
)

func configurationPayload(phase, pageID string, cfg map[string]any) map[string]any {
	data := map[string]any{
		"installedAppId": "app-1",
		"phase":          phase,
		"pageId":         pageID,
	}
	if cfg != nil {
		data["config"] = cfg
	}
	return map[string]any{
		"lifecycle":         "CONFIGURATION",
		"configurationData": data,
	}
}

func credentialConfig() map[string]any {
	return map[string]any{
		"email":    stringConfig("me@example.com"),
		"password": stringConfig("secret"),
	}
}

func pageFromResponse(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	cd, _ := body["configurationData"].(map[string]any)
	p, ok := cd["page"].(map[string]any)
	if !ok {
		t.Fatalf("response has no page: %v", body)
	}
	return p
}

func TestConfiguration_Initialize(t *testing.T) {
	h := newHarness(t)

	rec := h.post(t, configurationPayload("INITIALIZE", "", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	cd, _ := body["configurationData"].(map[string]any)
	init, ok := cd["initialize"].(map[string]any)
	if !ok {
		t.Fatalf("response has no initialize: %v", body)
	}
	if init["firstPageId"] != "mainPage" {
		t.Errorf("firstPageId = %v, want mainPage", init["firstPageId"])
	}
}

func TestConfiguration_MainPage(t *testing.T) {
	h := newHarness(t)

	rec := h.post(t, configurationPayload("PAGE", "mainPage", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	p := pageFromResponse(t, decodeBody(t, rec))
	if p["pageId"] != "mainPage" || p["nextPageId"] != "selectDevicesPage" {
		t.Errorf("page = %v", p)
	}
	if p["complete"] == true {
		t.Error("main page must not be terminal")
	}
}

func TestConfiguration_SelectDevicesPage(t *testing.T) {
	h := newHarness(t)
	h.vendor.devices = []vesync.Device{
		{UUID: "u1", DeviceName: "Bedroom Bulb", Type: vesync.TypeLight},
		{UUID: "u2", DeviceName: "Air Purifier", Type: vesync.TypeAirPurifier},
	}

	rec := h.post(t, configurationPayload("PAGE", "selectDevicesPage", credentialConfig()))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	p := pageFromResponse(t, decodeBody(t, rec))
	if p["complete"] != true {
		t.Error("select devices page must be terminal")
	}
	sections, _ := p["sections"].([]any)
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want one per device", len(sections))
	}

	// Sorted by name, so the purifier comes first.
	first, _ := sections[0].(map[string]any)
	if first["name"] != "Air Purifier" {
		t.Errorf("first section = %v, want Air Purifier", first["name"])
	}
	settings, _ := first["settings"].([]any)
	if len(settings) != 2 {
		t.Fatalf("got %d settings, want toggle and label", len(settings))
	}
	toggle, _ := settings[0].(map[string]any)
	if toggle["id"] != "device:uuid:u2:enabled" {
		t.Errorf("toggle id = %v", toggle["id"])
	}
	label, _ := settings[1].(map[string]any)
	if label["id"] != "device:uuid:u2:label" || label["defaultValue"] != "Air Purifier" {
		t.Errorf("label setting = %v", label)
	}
}

func TestConfiguration_SelectDevicesLoginFails(t *testing.T) {
	h := newHarness(t)
	h.vendor.loginErr = errors.New("bad credentials")

	rec := h.post(t, configurationPayload("PAGE", "selectDevicesPage", credentialConfig()))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (error rendered inline)", rec.Code)
	}

	p := pageFromResponse(t, decodeBody(t, rec))
	sections, _ := p["sections"].([]any)
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want one error section", len(sections))
	}
	section, _ := sections[0].(map[string]any)
	if section["name"] != "Sign-in failed" {
		t.Errorf("section = %v", section["name"])
	}
}

func TestConfiguration_SelectDevicesMissingCredentials(t *testing.T) {
	h := newHarness(t)

	rec := h.post(t, configurationPayload("PAGE", "selectDevicesPage", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	p := pageFromResponse(t, decodeBody(t, rec))
	sections, _ := p["sections"].([]any)
	section, _ := sections[0].(map[string]any)
	if section["name"] != "Missing credentials" {
		t.Errorf("section = %v", section["name"])
	}
}

func TestConfiguration_UnknownPage(t *testing.T) {
	h := newHarness(t)

	rec := h.post(t, configurationPayload("PAGE", "bogusPage", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestConfiguration_UnknownPhase(t *testing.T) {
	h := newHarness(t)

	rec := h.post(t, configurationPayload("FINALIZE", "", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
