package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nerrad567/vesync-connect/internal/capability"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/logging"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/mqtt"
	"github.com/nerrad567/vesync-connect/internal/smartthings"
)

// HubSender delivers events to the hub. Satisfied by *smartthings.Client.
type HubSender interface {
	SendEvents(ctx context.Context, token, deviceID string, events []smartthings.Event) error
}

// Publisher mirrors events onto a local broker. Satisfied by *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Recorder writes numeric readings to the telemetry store. Satisfied by
// *influxdb.Client.
type Recorder interface {
	WriteAirQuality(installedAppID, deviceID string, index int)
	WriteFanSpeed(installedAppID, deviceID string, level int)
	WriteFilterLife(installedAppID, deviceID string, percent int)
	WriteLightLevel(installedAppID, deviceID string, level int)
}

// Dispatcher is the single exit point for device events.
//
// The hub delivery is the only one that can fail the caller. The MQTT
// mirror and the telemetry recorder are best-effort extras: failures
// there are logged and swallowed so an offline broker can never block
// a sync or a command.
type Dispatcher struct {
	hub      HubSender
	mirror   Publisher
	recorder Recorder
	qos      byte
	logger   *logging.Logger
}

// NewDispatcher creates a dispatcher that delivers to the hub only.
// Wire the optional sinks with SetMirror and SetRecorder.
func NewDispatcher(hub HubSender, logger *logging.Logger) *Dispatcher {
	return &Dispatcher{
		hub:    hub,
		logger: logger.With("component", "events"),
	}
}

// SetMirror enables the local event mirror.
func (d *Dispatcher) SetMirror(mirror Publisher, qos byte) {
	d.mirror = mirror
	d.qos = qos
}

// SetRecorder enables the telemetry recorder.
func (d *Dispatcher) SetRecorder(recorder Recorder) {
	d.recorder = recorder
}

// mirrorPayload is the JSON shape published on the event mirror topic.
type mirrorPayload struct {
	InstalledAppID string              `json:"installedAppId"`
	DeviceID       string              `json:"deviceId"`
	Events         []smartthings.Event `json:"events"`
	Timestamp      string              `json:"timestamp"`
}

// Send delivers one event batch for one hub device.
//
// Returns:
//   - error: the hub delivery error, if any; mirror and recorder
//     failures never propagate
func (d *Dispatcher) Send(ctx context.Context, token, installedAppID, deviceID string, evts []smartthings.Event) error {
	if len(evts) == 0 {
		return nil
	}

	if err := d.hub.SendEvents(ctx, token, deviceID, evts); err != nil {
		return err
	}

	d.publishMirror(installedAppID, deviceID, evts)
	d.record(installedAppID, deviceID, evts)

	return nil
}

// publishMirror publishes the batch to the local broker, best effort.
func (d *Dispatcher) publishMirror(installedAppID, deviceID string, evts []smartthings.Event) {
	if d.mirror == nil {
		return
	}

	payload, err := json.Marshal(mirrorPayload{
		InstalledAppID: installedAppID,
		DeviceID:       deviceID,
		Events:         evts,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		d.logger.Warn("event mirror encoding failed", "device_id", deviceID, "error", err)
		return
	}

	topic := mqtt.Topics{}.DeviceEvents(installedAppID, deviceID)
	if err := d.mirror.Publish(topic, payload, d.qos, false); err != nil {
		d.logger.Warn("event mirror publish failed", "topic", topic, "error", err)
	}
}

// record writes the batch's numeric readings to the telemetry store.
func (d *Dispatcher) record(installedAppID, deviceID string, evts []smartthings.Event) {
	if d.recorder == nil {
		return
	}

	for _, e := range evts {
		value, ok := numericValue(e.Value)
		if !ok {
			continue
		}
		switch {
		case e.Capability == capability.CapabilityAirQuality && e.Attribute == "airQuality":
			d.recorder.WriteAirQuality(installedAppID, deviceID, value)
		case e.Capability == capability.CapabilityFanSpeed && e.Attribute == "fanSpeed":
			d.recorder.WriteFanSpeed(installedAppID, deviceID, value)
		case e.Capability == capability.CapabilityFilterState && e.Attribute == "filterLifeRemaining":
			d.recorder.WriteFilterLife(installedAppID, deviceID, value)
		case e.Capability == capability.CapabilitySwitchLevel && e.Attribute == "level":
			d.recorder.WriteLightLevel(installedAppID, deviceID, value)
		}
	}
}

// numericValue extracts an integer reading from an event value.
func numericValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
