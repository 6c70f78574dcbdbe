package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/vesync-connect/internal/capability"
	"github.com/nerrad567/vesync-connect/internal/credstore"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/logging"
	"github.com/nerrad567/vesync-connect/internal/smartthings"
	"github.com/nerrad567/vesync-connect/internal/vesync"
)

// CredentialSource resolves stored vendor credentials. Satisfied by
// *credstore.Store.
type CredentialSource interface {
	GetAuth(ctx context.Context, scopeID string) (credstore.Credential, error)
}

// VendorController is the vendor surface commands need. Satisfied by
// *vesync.Client.
type VendorController interface {
	SetFanSpeed(ctx context.Context, creds vesync.Credentials, externalID string, level int) error
	TurnOff(ctx context.Context, creds vesync.Credentials, externalID string) error
	GetAirPurifierDetail(ctx context.Context, creds vesync.Credentials, externalID string) (*vesync.AirPurifierDetail, error)
}

// EventSender delivers reflected and refreshed events. Satisfied by
// *events.Dispatcher.
type EventSender interface {
	Send(ctx context.Context, token, installedAppID, deviceID string, evts []smartthings.Event) error
}

// Command is one device command from the hub.
type Command struct {
	Capability string `json:"capability"`
	Command    string `json:"command"`
	Arguments  []any  `json:"arguments"`
}

// Target identifies the device a command addresses.
type Target struct {
	Token          string
	InstalledAppID string
	DeviceID       string
	ExternalID     string
}

// Router executes hub device commands against the vendor cloud.
type Router struct {
	creds  CredentialSource
	vendor VendorController
	events EventSender
	logger *logging.Logger
}

// NewRouter creates a command router.
func NewRouter(creds CredentialSource, vendor VendorController, events EventSender, logger *logging.Logger) *Router {
	return &Router{
		creds:  creds,
		vendor: vendor,
		events: events,
		logger: logger.With("component", "command"),
	}
}

// HandleCommand executes one command for one device.
//
// Only the fan speed capability is routed; anything else returns
// ErrUnsupportedCapability without touching the vendor. The requested
// level is clamped to the device's range, level zero becomes a power
// off, and after the vendor accepts the command a reflected fan speed
// event plus a full state refresh go back to the hub. The first failure
// anywhere in the chain is logged and returned; there are no retries.
func (r *Router) HandleCommand(ctx context.Context, target Target, cmd Command) error {
	if cmd.Capability != capability.CapabilityFanSpeed {
		return fmt.Errorf("%w: %s", ErrUnsupportedCapability, cmd.Capability)
	}

	level, err := levelArgument(cmd)
	if err != nil {
		return err
	}

	stored, err := r.creds.GetAuth(ctx, target.DeviceID)
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrCredentialsMissing, target.DeviceID)
		}
		return err
	}
	creds := vesync.Credentials{AccountID: stored.AccountID, Token: stored.Token}

	clamped := capability.ClampFanLevel(level)
	r.logger.Info("routing fan speed command",
		"device_id", target.DeviceID,
		"external_id", target.ExternalID,
		"requested", level,
		"applied", clamped)

	if clamped == 0 {
		err = r.vendor.TurnOff(ctx, creds, target.ExternalID)
	} else {
		err = r.vendor.SetFanSpeed(ctx, creds, target.ExternalID, clamped)
	}
	if err != nil {
		return err
	}

	// Reflect the accepted level immediately so the hub UI settles, then
	// follow with a full state refresh. The vendor has already applied
	// the command at this point, so these failures are logged and then
	// returned for the hub to re-drive; nothing is retried here.
	reflected := []smartthings.Event{capability.FanSpeedEvent(clamped)}
	if err := r.events.Send(ctx, target.Token, target.InstalledAppID, target.DeviceID, reflected); err != nil {
		r.logger.Error("reflected event failed", "device_id", target.DeviceID, "error", err)
		return err
	}
	if err := r.Refresh(ctx, target, creds); err != nil {
		r.logger.Error("post-command refresh failed", "device_id", target.DeviceID, "error", err)
		return err
	}

	return nil
}

// Refresh fetches the device's full vendor state and sends it to the hub.
func (r *Router) Refresh(ctx context.Context, target Target, creds vesync.Credentials) error {
	detail, err := r.vendor.GetAirPurifierDetail(ctx, creds, target.ExternalID)
	if err != nil {
		return err
	}

	evts, warnings := capability.PurifierToEvents(detail)
	for _, w := range warnings {
		r.logger.Warn("purifier state degraded", "external_id", target.ExternalID, "detail", w)
	}

	return r.events.Send(ctx, target.Token, target.InstalledAppID, target.DeviceID, evts)
}

// levelArgument extracts the fan level from a command's arguments.
// JSON numbers decode as float64; plain ints cover hand-built commands.
func levelArgument(cmd Command) (int, error) {
	if len(cmd.Arguments) == 0 {
		return 0, fmt.Errorf("%w: no arguments for %s", ErrInvalidArguments, cmd.Command)
	}
	switch v := cmd.Arguments[0].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("%w: argument %v is not a number", ErrInvalidArguments, cmd.Arguments[0])
	}
}
