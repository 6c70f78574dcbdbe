package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nerrad567/vesync-connect/internal/command"
	"github.com/nerrad567/vesync-connect/internal/credstore"
	"github.com/nerrad567/vesync-connect/internal/lifecycle"
)

// Lifecycle phase names as sent by the hub.
const (
	lifecyclePing          = "PING"
	lifecycleConfirmation  = "CONFIRMATION"
	lifecycleConfiguration = "CONFIGURATION"
	lifecycleInstall       = "INSTALL"
	lifecycleUpdate        = "UPDATE"
	lifecycleUninstall     = "UNINSTALL"
	lifecycleEvent         = "EVENT"
)

// eventTypeDeviceCommands is the only hub event type this connector acts on.
const eventTypeDeviceCommands = "DEVICE_COMMANDS_EVENT"

// lifecycleRequest is the envelope the hub posts for every phase. Only
// the section matching the lifecycle field is populated.
type lifecycleRequest struct {
	Lifecycle        string             `json:"lifecycle"`
	ExecutionID      string             `json:"executionId"`
	PingData         *pingData          `json:"pingData"`
	ConfirmationData *confirmationData  `json:"confirmationData"`
	ConfigurationData *configurationData `json:"configurationData"`
	InstallData      *installData       `json:"installData"`
	UpdateData       *updateData        `json:"updateData"`
	UninstallData    *uninstallData     `json:"uninstallData"`
	EventData        *eventData         `json:"eventData"`
}

type pingData struct {
	Challenge string `json:"challenge"`
}

type confirmationData struct {
	AppID           string `json:"appId"`
	ConfirmationURL string `json:"confirmationUrl"`
}

// configValue is one stored setting value. The wizard only uses string
// settings, so only stringConfig is modelled.
type configValue struct {
	ValueType    string `json:"valueType"`
	StringConfig *struct {
		Value string `json:"value"`
	} `json:"stringConfig"`
}

// configMap holds the installation's saved settings keyed by setting ID.
type configMap map[string][]configValue

// stringValue returns the first string value for a setting ID.
func (c configMap) stringValue(id string) string {
	values := c[id]
	if len(values) == 0 || values[0].StringConfig == nil {
		return ""
	}
	return values[0].StringConfig.Value
}

type installedApp struct {
	InstalledAppID string    `json:"installedAppId"`
	LocationID     string    `json:"locationId"`
	Config         configMap `json:"config"`
}

type configurationData struct {
	InstalledAppID string    `json:"installedAppId"`
	Phase          string    `json:"phase"`
	PageID         string    `json:"pageId"`
	Config         configMap `json:"config"`
}

type installData struct {
	AuthToken    string       `json:"authToken"`
	InstalledApp installedApp `json:"installedApp"`
}

type updateData struct {
	AuthToken    string       `json:"authToken"`
	InstalledApp installedApp `json:"installedApp"`
}

type uninstallData struct {
	InstalledApp installedApp `json:"installedApp"`
}

type eventData struct {
	AuthToken    string       `json:"authToken"`
	InstalledApp installedApp `json:"installedApp"`
	Events       []hubEvent   `json:"events"`
}

type hubEvent struct {
	EventType           string               `json:"eventType"`
	DeviceCommandsEvent *deviceCommandsEvent `json:"deviceCommandsEvent"`
}

type deviceCommandsEvent struct {
	DeviceID   string            `json:"deviceId"`
	ExternalID string            `json:"externalId"`
	ProfileID  string            `json:"profileId"`
	Commands   []command.Command `json:"commands"`
}

// handleLifecycle dispatches one webhook request by its lifecycle phase.
//
// The hub expects a 200 with a phase-matching body within its request
// timeout; long work (the device sync) runs in the background.
func (s *Server) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	var req lifecycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed lifecycle request")
		return
	}

	s.logger.Debug("lifecycle request", "lifecycle", req.Lifecycle, "execution_id", req.ExecutionID)

	switch req.Lifecycle {
	case lifecyclePing:
		s.handlePing(w, req.PingData)
	case lifecycleConfirmation:
		s.handleConfirmation(w, req.ConfirmationData)
	case lifecycleConfiguration:
		s.handleConfiguration(r.Context(), w, req.ConfigurationData)
	case lifecycleInstall:
		s.handleInstall(r.Context(), w, req.InstallData)
	case lifecycleUpdate:
		s.handleUpdate(r.Context(), w, req.UpdateData)
	case lifecycleUninstall:
		s.handleUninstall(r.Context(), w, req.UninstallData)
	case lifecycleEvent:
		s.handleEvent(r.Context(), w, req.EventData)
	default:
		writeBadRequest(w, "unknown lifecycle: "+req.Lifecycle)
	}
}

// handlePing echoes the hub's challenge.
func (s *Server) handlePing(w http.ResponseWriter, data *pingData) {
	if data == nil {
		writeBadRequest(w, "missing pingData")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pingData": map[string]string{"challenge": data.Challenge},
	})
}

// handleConfirmation acknowledges app registration. The hub verifies
// ownership by having us call back its confirmation URL; that call is
// fire-and-forget so registration can't hang the webhook.
func (s *Server) handleConfirmation(w http.ResponseWriter, data *confirmationData) {
	if data == nil {
		writeBadRequest(w, "missing confirmationData")
		return
	}

	s.logger.Info("app registration confirmation received", "app_id", data.AppID)

	if data.ConfirmationURL != "" {
		go s.callConfirmationURL(data.ConfirmationURL)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"targetUrl": s.cfg.Connector.PublicURL,
	})
}

// callConfirmationURL performs the registration callback.
func (s *Server) callConfirmationURL(url string) {
	resp, err := http.Get(url) //nolint:gosec // URL comes from the hub's signed confirmation payload
	if err != nil {
		s.logger.Error("confirmation callback failed", "error", err)
		return
	}
	defer resp.Body.Close()
	s.logger.Info("confirmation callback completed", "status", resp.StatusCode)
}

// handleInstall handles INSTALL: persist the wizard output and run the
// first device sync.
func (s *Server) handleInstall(ctx context.Context, w http.ResponseWriter, data *installData) {
	if data == nil {
		writeBadRequest(w, "missing installData")
		return
	}

	inst := lifecycle.Installation{
		InstalledAppID: data.InstalledApp.InstalledAppID,
		LocationID:     data.InstalledApp.LocationID,
		Token:          data.AuthToken,
	}
	s.orchestrator.Installed(inst)
	s.persistConfiguration(ctx, data.InstalledApp)
	s.startSync(ctx, inst)

	writeJSON(w, http.StatusOK, map[string]any{"installData": map[string]any{}})
}

// handleUpdate handles UPDATE: re-persist the (possibly changed) wizard
// output and reconcile.
func (s *Server) handleUpdate(ctx context.Context, w http.ResponseWriter, data *updateData) {
	if data == nil {
		writeBadRequest(w, "missing updateData")
		return
	}

	inst := lifecycle.Installation{
		InstalledAppID: data.InstalledApp.InstalledAppID,
		LocationID:     data.InstalledApp.LocationID,
		Token:          data.AuthToken,
	}
	s.persistConfiguration(ctx, data.InstalledApp)
	s.startSync(ctx, inst)

	writeJSON(w, http.StatusOK, map[string]any{"updateData": map[string]any{}})
}

// handleUninstall handles UNINSTALL: cascade-delete the installation's
// stored records.
func (s *Server) handleUninstall(ctx context.Context, w http.ResponseWriter, data *uninstallData) {
	if data == nil {
		writeBadRequest(w, "missing uninstallData")
		return
	}

	if err := s.orchestrator.Uninstalled(ctx, data.InstalledApp.InstalledAppID); err != nil {
		// Acknowledge anyway; the hub will not retry UNINSTALL and leftover
		// records only cost Redis space.
		s.logger.Error("uninstall cleanup incomplete",
			"installed_app_id", data.InstalledApp.InstalledAppID, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"uninstallData": map[string]any{}})
}

// handleEvent handles EVENT: route device commands to the vendor.
func (s *Server) handleEvent(ctx context.Context, w http.ResponseWriter, data *eventData) {
	if data == nil {
		writeBadRequest(w, "missing eventData")
		return
	}

	for _, evt := range data.Events {
		if evt.EventType != eventTypeDeviceCommands || evt.DeviceCommandsEvent == nil {
			continue
		}
		dce := evt.DeviceCommandsEvent
		target := command.Target{
			Token:          data.AuthToken,
			InstalledAppID: data.InstalledApp.InstalledAppID,
			DeviceID:       dce.DeviceID,
			ExternalID:     dce.ExternalID,
		}
		for _, cmd := range dce.Commands {
			if err := s.commands.HandleCommand(ctx, target, cmd); err != nil {
				s.logger.Error("device command failed",
					"device_id", dce.DeviceID,
					"capability", cmd.Capability,
					"command", cmd.Command,
					"error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"eventData": map[string]any{}})
}

// persistConfiguration stores the wizard's output: the vendor credential
// (from a fresh login with the saved email and password) and the device
// selections. Failures are logged, not fatal; the background sync will
// surface missing state as ErrConfigurationMissing.
func (s *Server) persistConfiguration(ctx context.Context, app installedApp) {
	email := app.Config.stringValue(settingEmail)
	password := app.Config.stringValue(settingPassword)

	if email != "" && password != "" {
		creds, err := s.vendor.Login(ctx, email, password)
		if err != nil {
			s.logger.Error("vendor login failed during configuration save",
				"installed_app_id", app.InstalledAppID, "error", err)
		} else if err := s.store.PutAuth(ctx, app.InstalledAppID, credstore.Credential{
			AccountID: creds.AccountID,
			Token:     creds.Token,
		}); err != nil {
			s.logger.Error("credential save failed",
				"installed_app_id", app.InstalledAppID, "error", err)
		}
	}

	sels := parseSelections(app.Config)
	if err := s.store.PutSelections(ctx, app.InstalledAppID, sels); err != nil {
		s.logger.Error("selection save failed",
			"installed_app_id", app.InstalledAppID, "error", err)
	}
}

// startSync runs the device sync in the background. The webhook must
// acknowledge before the hub's timeout; context.WithoutCancel keeps the
// sync alive after the request context is released.
func (s *Server) startSync(ctx context.Context, inst lifecycle.Installation) {
	syncCtx := context.WithoutCancel(ctx)
	go func() {
		if err := s.orchestrator.Updated(syncCtx, inst); err != nil {
			s.logger.Error("device sync failed",
				"installed_app_id", inst.InstalledAppID, "error", err)
		}
	}()
}

// parseSelections extracts the enabled devices and their labels from the
// wizard settings. Setting IDs follow device:uuid:{uuid}:enabled and
// device:uuid:{uuid}:label.
func parseSelections(cfg configMap) []credstore.Selection {
	var sels []credstore.Selection
	for id := range cfg {
		uuid, ok := selectionUUID(id)
		if !ok {
			continue
		}
		if cfg.stringValue(id) != "true" {
			continue
		}
		sels = append(sels, credstore.Selection{
			ExternalID: uuid,
			Label:      cfg.stringValue(deviceSettingID(uuid, "label")),
		})
	}
	return sels
}

// selectionUUID extracts the device UUID from an enabled-toggle setting ID.
func selectionUUID(settingID string) (string, bool) {
	if !strings.HasPrefix(settingID, "device:uuid:") || !strings.HasSuffix(settingID, ":enabled") {
		return "", false
	}
	uuid := strings.TrimSuffix(strings.TrimPrefix(settingID, "device:uuid:"), ":enabled")
	if uuid == "" {
		return "", false
	}
	return uuid, true
}
