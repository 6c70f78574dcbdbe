package api

import (
	"context"
	"net/http"
	"sort"
)

// Configuration phases.
const (
	phaseInitialize = "INITIALIZE"
	phasePage       = "PAGE"
)

// Wizard page IDs.
const (
	pageMain          = "mainPage"
	pageSelectDevices = "selectDevicesPage"
)

// Wizard setting IDs.
const (
	settingEmail    = "email"
	settingPassword = "password"
)

// deviceSettingID builds a per-device setting ID, e.g.
// device:uuid:abc123:enabled.
func deviceSettingID(uuid, field string) string {
	return "device:uuid:" + uuid + ":" + field
}

// pageSetting is one input on a wizard page.
type pageSetting struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Type         string `json:"type"`
	Required     bool   `json:"required"`
	DefaultValue string `json:"defaultValue,omitempty"`
}

// pageSection groups settings on a wizard page.
type pageSection struct {
	Name     string        `json:"name"`
	Settings []pageSetting `json:"settings"`
}

// page is one wizard page.
type page struct {
	PageID         string        `json:"pageId"`
	Name           string        `json:"name"`
	NextPageID     string        `json:"nextPageId,omitempty"`
	PreviousPageID string        `json:"previousPageId,omitempty"`
	Complete       bool          `json:"complete"`
	Sections       []pageSection `json:"sections"`
}

// handleConfiguration serves the INITIALIZE handshake and the wizard pages.
func (s *Server) handleConfiguration(ctx context.Context, w http.ResponseWriter, data *configurationData) {
	if data == nil {
		writeBadRequest(w, "missing configurationData")
		return
	}

	switch data.Phase {
	case phaseInitialize:
		writeJSON(w, http.StatusOK, map[string]any{
			"configurationData": map[string]any{
				"initialize": map[string]any{
					"name":        "VeSync Connect",
					"description": "Connect VeSync devices to SmartThings",
					"id":          "app",
					"firstPageId": pageMain,
					"permissions": []string{
						"r:devices:*",
						"w:devices:*",
						"x:devices:*",
						"i:deviceprofiles",
					},
				},
			},
		})
	case phasePage:
		s.handleConfigurationPage(ctx, w, data)
	default:
		writeBadRequest(w, "unknown configuration phase: "+data.Phase)
	}
}

// handleConfigurationPage renders one wizard page.
func (s *Server) handleConfigurationPage(ctx context.Context, w http.ResponseWriter, data *configurationData) {
	var p page
	switch data.PageID {
	case pageMain:
		p = mainPage()
	case pageSelectDevices:
		p = s.selectDevicesPage(ctx, data)
	default:
		writeBadRequest(w, "unknown page: "+data.PageID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"configurationData": map[string]any{"page": p},
	})
}

// mainPage asks for the VeSync account credentials.
func mainPage() page {
	return page{
		PageID:     pageMain,
		Name:       "VeSync Account",
		NextPageID: pageSelectDevices,
		Sections: []pageSection{
			{
				Name: "Sign in to your VeSync account",
				Settings: []pageSetting{
					{
						ID:       settingEmail,
						Name:     "Email",
						Type:     "TEXT",
						Required: true,
					},
					{
						ID:       settingPassword,
						Name:     "Password",
						Type:     "PASSWORD",
						Required: true,
					},
				},
			},
		},
	}
}

// selectDevicesPage logs into the vendor with the entered credentials
// and lists the account's devices with an enable toggle and a label
// input per device.
//
// Login or listing failures render as an inline error section rather
// than failing the webhook, so the user sees what went wrong and can
// go back and retry.
func (s *Server) selectDevicesPage(ctx context.Context, data *configurationData) page {
	p := page{
		PageID:         pageSelectDevices,
		Name:           "Select Devices",
		PreviousPageID: pageMain,
		Complete:       true,
	}

	email := data.Config.stringValue(settingEmail)
	password := data.Config.stringValue(settingPassword)
	if email == "" || password == "" {
		p.Sections = errorSection("Missing credentials", "Enter your VeSync email and password on the previous page.")
		return p
	}

	creds, err := s.vendor.Login(ctx, email, password)
	if err != nil {
		s.logger.Warn("wizard vendor login failed", "installed_app_id", data.InstalledAppID, "error", err)
		p.Sections = errorSection("Sign-in failed", "Could not sign in to VeSync. Check your email and password, then try again.")
		return p
	}

	inventory, err := s.vendor.GetDevices(ctx, creds)
	if err != nil {
		s.logger.Warn("wizard device listing failed", "installed_app_id", data.InstalledAppID, "error", err)
		p.Sections = errorSection("Device listing failed", "Signed in, but the VeSync device list could not be loaded. Try again shortly.")
		return p
	}
	if len(inventory.List) == 0 {
		p.Sections = errorSection("No devices", "Your VeSync account has no devices to connect.")
		return p
	}

	devices := inventory.List
	sort.Slice(devices, func(i, j int) bool { return devices[i].DeviceName < devices[j].DeviceName })

	sections := make([]pageSection, 0, len(devices))
	for _, device := range devices {
		uuid := device.ExternalID()
		sections = append(sections, pageSection{
			Name: device.DeviceName,
			Settings: []pageSetting{
				{
					ID:           deviceSettingID(uuid, "enabled"),
					Name:         "Connect " + device.DeviceName,
					Type:         "BOOLEAN",
					DefaultValue: "false",
				},
				{
					ID:           deviceSettingID(uuid, "label"),
					Name:         "Label",
					Description:  "Name shown in SmartThings",
					Type:         "TEXT",
					DefaultValue: device.DeviceName,
				},
			},
		})
	}
	p.Sections = sections
	return p
}

// errorSection builds a single read-only section describing a wizard failure.
func errorSection(title, message string) []pageSection {
	return []pageSection{
		{
			Name: title,
			Settings: []pageSetting{
				{
					ID:          "error",
					Name:        message,
					Type:        "PARAGRAPH",
					Description: message,
				},
			},
		},
	}
}
