package reconcile

import (
	"context"
	"sync"

	"github.com/nerrad567/vesync-connect/internal/capability"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/config"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/logging"
	"github.com/nerrad567/vesync-connect/internal/smartthings"
	"github.com/nerrad567/vesync-connect/internal/vesync"
)

// HubClient is the hub surface the reconciler needs. Satisfied by
// *smartthings.Client.
type HubClient interface {
	CreateDevice(ctx context.Context, token string, req smartthings.CreateDeviceRequest) (*smartthings.Device, error)
	DeleteDevice(ctx context.Context, token, deviceID string) error
}

// VendorClient is the vendor surface the reconciler needs for the
// initial status push. Satisfied by *vesync.Client.
type VendorClient interface {
	GetAirPurifierDetail(ctx context.Context, creds vesync.Credentials, externalID string) (*vesync.AirPurifierDetail, error)
	GetLightStatus(ctx context.Context, creds vesync.Credentials, externalID string) (*vesync.LightStatus, error)
}

// EventSender delivers the initial event batch for freshly created
// devices. Satisfied by *events.Dispatcher.
type EventSender interface {
	Send(ctx context.Context, token, installedAppID, deviceID string, evts []smartthings.Event) error
}

// Reconciler diffs the vendor's device inventory against the hub's and
// converges the hub to match.
type Reconciler struct {
	hub      HubClient
	vendor   VendorClient
	events   EventSender
	profiles config.DeviceProfiles
	logger   *logging.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(hub HubClient, vendor VendorClient, events EventSender, profiles config.DeviceProfiles, logger *logging.Logger) *Reconciler {
	return &Reconciler{
		hub:      hub,
		vendor:   vendor,
		events:   events,
		profiles: profiles,
		logger:   logger.With("component", "reconcile"),
	}
}

// Input is one reconciliation's working set. VendorDevices is the
// desired inventory (already filtered to the user's selections, with
// labels applied); HubDevices is the hub's current inventory for this
// installation.
type Input struct {
	Token          string
	LocationID     string
	InstalledAppID string
	Credentials    vesync.Credentials
	VendorDevices  []vesync.Device
	HubDevices     []smartthings.Device
}

// ItemResult is the outcome for one device. Err is nil on success;
// a failed item never aborts the others.
type ItemResult struct {
	ExternalID string
	DeviceID   string
	Label      string
	Err        error
}

// Result reports every attempted creation and deletion.
type Result struct {
	Created []ItemResult
	Deleted []ItemResult
}

// Reconcile converges the hub inventory to the vendor inventory.
//
// Devices present at the vendor but not on the hub are created (keyed
// by external ID); hub devices no longer present at the vendor are
// deleted. Matched devices are left untouched, so repeated runs with
// an unchanged inventory are no-ops.
//
// Each device is processed in its own goroutine. Failures are reported
// per item in the Result; Reconcile itself only returns an error when
// the context is cancelled before work starts.
func (r *Reconciler) Reconcile(ctx context.Context, in Input) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hubByExternal := make(map[string]smartthings.Device, len(in.HubDevices))
	for _, d := range in.HubDevices {
		hubByExternal[d.App.ExternalID] = d
	}
	vendorByExternal := make(map[string]vesync.Device, len(in.VendorDevices))
	for _, d := range in.VendorDevices {
		vendorByExternal[d.ExternalID()] = d
	}

	var toCreate []vesync.Device
	for _, d := range in.VendorDevices {
		if _, exists := hubByExternal[d.ExternalID()]; !exists {
			toCreate = append(toCreate, d)
		}
	}
	var toDelete []smartthings.Device
	for _, d := range in.HubDevices {
		if _, wanted := vendorByExternal[d.App.ExternalID]; !wanted {
			toDelete = append(toDelete, d)
		}
	}

	r.logger.Info("reconciling devices",
		"installed_app_id", in.InstalledAppID,
		"vendor_count", len(in.VendorDevices),
		"hub_count", len(in.HubDevices),
		"create_count", len(toCreate),
		"delete_count", len(toDelete))

	result := &Result{
		Created: make([]ItemResult, len(toCreate)),
		Deleted: make([]ItemResult, len(toDelete)),
	}

	var wg sync.WaitGroup
	for i, device := range toCreate {
		wg.Add(1)
		go func(i int, device vesync.Device) {
			defer wg.Done()
			result.Created[i] = r.createDevice(ctx, in, device)
		}(i, device)
	}
	for i, device := range toDelete {
		wg.Add(1)
		go func(i int, device smartthings.Device) {
			defer wg.Done()
			result.Deleted[i] = r.deleteDevice(ctx, in, device)
		}(i, device)
	}
	wg.Wait()

	return result, nil
}

// createDevice registers one vendor device with the hub and pushes its
// current state so the new device does not sit blank until the first
// refresh.
func (r *Reconciler) createDevice(ctx context.Context, in Input, device vesync.Device) ItemResult {
	externalID := device.ExternalID()
	item := ItemResult{ExternalID: externalID, Label: device.DeviceName}

	created, err := r.hub.CreateDevice(ctx, in.Token, smartthings.CreateDeviceRequest{
		Label:      device.DeviceName,
		LocationID: in.LocationID,
		App: smartthings.DeviceApp{
			ExternalID:     externalID,
			ProfileID:      capability.ProfileFor(device, r.profiles),
			InstalledAppID: in.InstalledAppID,
		},
	})
	if err != nil {
		r.logger.Error("device creation failed", "external_id", externalID, "error", err)
		item.Err = err
		return item
	}
	item.DeviceID = created.DeviceID

	// The device exists on the hub now; a failed status push only means
	// stale state until the next sync, so it is not an item failure.
	if err := r.pushInitialState(ctx, in, device, created.DeviceID); err != nil {
		r.logger.Warn("initial state push failed",
			"external_id", externalID,
			"device_id", created.DeviceID,
			"error", err)
	}

	return item
}

// pushInitialState fetches the vendor's current status for a freshly
// created device and sends it to the hub.
func (r *Reconciler) pushInitialState(ctx context.Context, in Input, device vesync.Device, deviceID string) error {
	var evts []smartthings.Event

	if device.IsAirPurifier() {
		detail, err := r.vendor.GetAirPurifierDetail(ctx, in.Credentials, device.ExternalID())
		if err != nil {
			return err
		}
		var warnings []string
		evts, warnings = capability.PurifierToEvents(detail)
		for _, w := range warnings {
			r.logger.Warn("purifier state degraded", "external_id", device.ExternalID(), "detail", w)
		}
	} else {
		status, err := r.vendor.GetLightStatus(ctx, in.Credentials, device.ExternalID())
		if err != nil {
			return err
		}
		evts = capability.LightToEvents(status)
	}

	return r.events.Send(ctx, in.Token, in.InstalledAppID, deviceID, evts)
}

// deleteDevice removes one stale device from the hub.
func (r *Reconciler) deleteDevice(ctx context.Context, in Input, device smartthings.Device) ItemResult {
	item := ItemResult{
		ExternalID: device.App.ExternalID,
		DeviceID:   device.DeviceID,
		Label:      device.Label,
	}

	if err := r.hub.DeleteDevice(ctx, in.Token, device.DeviceID); err != nil {
		r.logger.Error("device deletion failed",
			"device_id", device.DeviceID,
			"external_id", device.App.ExternalID,
			"error", err)
		item.Err = err
	}

	return item
}
