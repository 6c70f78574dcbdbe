package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/vesync-connect/internal/credstore"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/logging"
	"github.com/nerrad567/vesync-connect/internal/reconcile"
	"github.com/nerrad567/vesync-connect/internal/smartthings"
	"github.com/nerrad567/vesync-connect/internal/vesync"
)

// Store is the credential store surface the orchestrator needs.
// Satisfied by *credstore.Store.
type Store interface {
	GetAuth(ctx context.Context, scopeID string) (credstore.Credential, error)
	PutAuth(ctx context.Context, scopeID string, cred credstore.Credential) error
	GetSelections(ctx context.Context, installedAppID string) ([]credstore.Selection, error)
	PutDeviceIDs(ctx context.Context, installedAppID string, deviceIDs []string) error
	GetDeviceIDs(ctx context.Context, installedAppID string) ([]string, error)
	Delete(ctx context.Context, scopeID, category string) error
}

// HubClient is the hub surface the orchestrator needs. Satisfied by
// *smartthings.Client.
type HubClient interface {
	ListDevices(ctx context.Context, token, installedAppID string) ([]smartthings.Device, error)
}

// VendorLister fetches the vendor inventory. Satisfied by *vesync.Client.
type VendorLister interface {
	GetDevices(ctx context.Context, creds vesync.Credentials) (*vesync.DeviceList, error)
}

// Syncer runs one inventory convergence. Satisfied by
// *reconcile.Reconciler.
type Syncer interface {
	Reconcile(ctx context.Context, in reconcile.Input) (*reconcile.Result, error)
}

// Installation identifies one SmartApp installation as delivered by the
// webhook: where it lives and the token authorizing hub calls for it.
type Installation struct {
	InstalledAppID string
	LocationID     string
	Token          string
}

// Orchestrator drives the installation lifecycle: the device sync on
// install and update, and the record cascade on uninstall.
type Orchestrator struct {
	store      Store
	hub        HubClient
	vendor     VendorLister
	reconciler Syncer
	logger     *logging.Logger
}

// NewOrchestrator creates a lifecycle orchestrator.
func NewOrchestrator(store Store, hub HubClient, vendor VendorLister, reconciler Syncer, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		store:      store,
		hub:        hub,
		vendor:     vendor,
		reconciler: reconciler,
		logger:     logger.With("component", "lifecycle"),
	}
}

// Installed handles the INSTALL lifecycle phase.
//
// The setup wizard has already persisted credentials and selections by
// the time INSTALL arrives, and the hub sends an UPDATE immediately
// after, so install itself only acknowledges.
func (o *Orchestrator) Installed(inst Installation) {
	o.logger.Info("installation created",
		"installed_app_id", inst.InstalledAppID,
		"location_id", inst.LocationID)
}

// Updated handles the UPDATE lifecycle phase: one full device sync.
//
// It loads the stored credentials and device selections, fetches the
// vendor inventory, narrows it to the selected devices with their
// chosen labels, and reconciles the hub against it. Each created hub
// device then gets its own credential record so commands can be routed
// without touching installation state, and the installation's device ID
// set is rewritten wholesale for the uninstall cascade.
func (o *Orchestrator) Updated(ctx context.Context, inst Installation) error {
	sels, err := o.store.GetSelections(ctx, inst.InstalledAppID)
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return fmt.Errorf("%w: no device selections for %s", ErrConfigurationMissing, inst.InstalledAppID)
		}
		return err
	}

	cred, err := o.store.GetAuth(ctx, inst.InstalledAppID)
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return fmt.Errorf("%w: no credentials for %s", ErrConfigurationMissing, inst.InstalledAppID)
		}
		return err
	}
	creds := vesync.Credentials{AccountID: cred.AccountID, Token: cred.Token}

	inventory, err := o.vendor.GetDevices(ctx, creds)
	if err != nil {
		return err
	}
	wanted := selectDevices(inventory.List, sels)

	hubDevices, err := o.hub.ListDevices(ctx, inst.Token, inst.InstalledAppID)
	if err != nil {
		return err
	}

	result, err := o.reconciler.Reconcile(ctx, reconcile.Input{
		Token:          inst.Token,
		LocationID:     inst.LocationID,
		InstalledAppID: inst.InstalledAppID,
		Credentials:    creds,
		VendorDevices:  wanted,
		HubDevices:     hubDevices,
	})
	if err != nil {
		return err
	}

	// Every created device gets its own credential record keyed by hub
	// device ID so command routing never reads installation state.
	for _, item := range result.Created {
		if item.Err != nil {
			continue
		}
		if err := o.store.PutAuth(ctx, item.DeviceID, cred); err != nil {
			o.logger.Error("device credential write failed",
				"device_id", item.DeviceID, "error", err)
		}
	}

	deviceIDs := survivingDeviceIDs(hubDevices, result)
	if err := o.store.PutDeviceIDs(ctx, inst.InstalledAppID, deviceIDs); err != nil {
		o.logger.Error("device id set write failed",
			"installed_app_id", inst.InstalledAppID, "error", err)
	}

	o.logger.Info("installation synced",
		"installed_app_id", inst.InstalledAppID,
		"created", len(result.Created),
		"deleted", len(result.Deleted),
		"devices", len(deviceIDs))
	return nil
}

// Uninstalled handles the UNINSTALL lifecycle phase: cascade-delete
// every record the installation ever wrote.
//
// Missing records are fine; uninstall must succeed even for an
// installation that never finished setup.
func (o *Orchestrator) Uninstalled(ctx context.Context, installedAppID string) error {
	deviceIDs, err := o.store.GetDeviceIDs(ctx, installedAppID)
	if err != nil && !errors.Is(err, credstore.ErrNotFound) {
		return err
	}

	var failed error
	for _, deviceID := range deviceIDs {
		if err := o.store.Delete(ctx, deviceID, credstore.CategoryAuth); err != nil {
			o.logger.Error("device record cleanup failed", "device_id", deviceID, "error", err)
			failed = err
		}
	}

	for _, category := range []string{
		credstore.CategoryAuth,
		credstore.CategoryDeviceInfo,
		credstore.CategoryDeviceLabels,
		credstore.CategoryDeviceIDs,
	} {
		if err := o.store.Delete(ctx, installedAppID, category); err != nil {
			o.logger.Error("installation record cleanup failed",
				"installed_app_id", installedAppID, "category", category, "error", err)
			failed = err
		}
	}

	o.logger.Info("installation removed",
		"installed_app_id", installedAppID,
		"device_records", len(deviceIDs))
	return failed
}

// selectDevices narrows the vendor inventory to the user's selections,
// applying the chosen label to each device. Selections referencing
// devices no longer present at the vendor are skipped; the reconciler
// will delete their hub counterparts.
func selectDevices(inventory []vesync.Device, sels []credstore.Selection) []vesync.Device {
	byExternal := make(map[string]vesync.Device, len(inventory))
	for _, d := range inventory {
		byExternal[d.ExternalID()] = d
	}

	var wanted []vesync.Device
	for _, sel := range sels {
		device, ok := byExternal[sel.ExternalID]
		if !ok {
			continue
		}
		if sel.Label != "" {
			device.DeviceName = sel.Label
		}
		wanted = append(wanted, device)
	}
	return wanted
}

// survivingDeviceIDs computes the installation's hub device ID set after
// a reconciliation: the existing devices minus successful deletions,
// plus successful creations.
func survivingDeviceIDs(hubDevices []smartthings.Device, result *reconcile.Result) []string {
	removed := make(map[string]bool, len(result.Deleted))
	for _, item := range result.Deleted {
		if item.Err == nil {
			removed[item.DeviceID] = true
		}
	}

	var ids []string
	for _, d := range hubDevices {
		if !removed[d.DeviceID] {
			ids = append(ids, d.DeviceID)
		}
	}
	for _, item := range result.Created {
		if item.Err == nil {
			ids = append(ids, item.DeviceID)
		}
	}
	return ids
}
