package capability

import (
	"fmt"
	"math"

	"github.com/nerrad567/vesync-connect/internal/infrastructure/config"
	"github.com/nerrad567/vesync-connect/internal/smartthings"
	"github.com/nerrad567/vesync-connect/internal/vesync"
)

// Capability and attribute names used in hub events.
const (
	CapabilitySwitch      = "switch"
	CapabilityFanSpeed    = "fanSpeed"
	CapabilityAirQuality  = "airQualitySensor"
	CapabilityFilterState = "filterState"
	CapabilitySwitchLevel = "switchLevel"
	CapabilityColor       = "colorControl"
	CapabilityColorTemp   = "colorTemperature"
	CapabilityHealthCheck = "healthCheck"

	componentMain = "main"
)

// MaxFanLevel is the highest fan level the supported purifier accepts.
// Commands above it are clamped, never rejected.
const MaxFanLevel = 3

// airQualityFallback is reported when the vendor sends an air quality
// value outside the known enum. Sensor mapping must never fail a sync.
const airQualityFallback = 1

// airQualityIndex maps the vendor's air quality enum to the hub's
// numeric scale (1 best, 4 worst).
var airQualityIndex = map[string]int{
	"excellent": 1,
	"good":      2,
	"moderate":  3,
	"poor":      4,
}

// ClampFanLevel normalizes a requested fan level to the device's valid
// range. Zero stays zero (meaning off); anything above the maximum is
// pulled down to it; negatives are treated as off.
func ClampFanLevel(level int) int {
	if level <= 0 {
		return 0
	}
	if level > MaxFanLevel {
		return MaxFanLevel
	}
	return level
}

// FanSpeedEvent builds the single reflected event for a fan speed
// command, so the hub UI settles immediately after a command round-trip.
func FanSpeedEvent(level int) smartthings.Event {
	return smartthings.Event{
		Component:  componentMain,
		Capability: CapabilityFanSpeed,
		Attribute:  "fanSpeed",
		Value:      ClampFanLevel(level),
	}
}

// PurifierToEvents translates an air purifier status record into the
// full event set for its hub device.
//
// Unknown air quality values degrade to the fallback index and are
// reported as warnings rather than errors; a flaky sensor must not
// block the rest of the sync.
//
// Returns:
//   - []smartthings.Event: switch, fan speed, air quality, filter life,
//     and the connectivity health pair
//   - []string: human-readable warnings for degraded fields
func PurifierToEvents(detail *vesync.AirPurifierDetail) ([]smartthings.Event, []string) {
	var warnings []string

	quality, ok := airQualityIndex[detail.AirQuality]
	if !ok {
		quality = airQualityFallback
		warnings = append(warnings, fmt.Sprintf("unknown air quality %q, reporting %d", detail.AirQuality, airQualityFallback))
	}

	events := []smartthings.Event{
		{
			Component:  componentMain,
			Capability: CapabilitySwitch,
			Attribute:  "switch",
			Value:      detail.DeviceStatus,
		},
		{
			Component:  componentMain,
			Capability: CapabilityFanSpeed,
			Attribute:  "fanSpeed",
			Value:      ClampFanLevel(detail.Level),
		},
		{
			Component:  componentMain,
			Capability: CapabilityAirQuality,
			Attribute:  "airQuality",
			Value:      quality,
		},
		{
			Component:  componentMain,
			Capability: CapabilityFilterState,
			Attribute:  "filterLifeRemaining",
			Value:      int(math.Round(detail.FilterLife.Percent * 100)),
			Unit:       "%",
		},
	}
	events = append(events, healthEvents(detail.IsOnline())...)

	return events, warnings
}

// healthEvents builds the connectivity event pair the hub's device
// health tracking consumes. Both attributes carry the same value; the
// hub reads DeviceWatch-DeviceStatus, the mobile client healthStatus.
func healthEvents(online bool) []smartthings.Event {
	status := "offline"
	if online {
		status = "online"
	}
	return []smartthings.Event{
		{
			Component:  componentMain,
			Capability: CapabilityHealthCheck,
			Attribute:  "DeviceWatch-DeviceStatus",
			Value:      status,
		},
		{
			Component:  componentMain,
			Capability: CapabilityHealthCheck,
			Attribute:  "healthStatus",
			Value:      status,
		},
	}
}

// LightToEvents translates a smart bulb status record into the event
// set for its hub device, connectivity health pair included. Vendor
// fractions are scaled to the hub's 0-100 ranges and hue degrees are
// scaled down by 3.6.
func LightToEvents(status *vesync.LightStatus) []smartthings.Event {
	events := []smartthings.Event{
		{
			Component:  componentMain,
			Capability: CapabilitySwitch,
			Attribute:  "switch",
			Value:      status.DeviceStatus,
		},
		{
			Component:  componentMain,
			Capability: CapabilitySwitchLevel,
			Attribute:  "level",
			Value:      int(math.Round(status.Brightness * 100)),
		},
		{
			Component:  componentMain,
			Capability: CapabilityColor,
			Attribute:  "hue",
			Value:      status.Hue / 3.6,
		},
		{
			Component:  componentMain,
			Capability: CapabilityColor,
			Attribute:  "saturation",
			Value:      int(math.Round(status.Saturation * 100)),
		},
		{
			Component:  componentMain,
			Capability: CapabilityColorTemp,
			Attribute:  "colorTemperature",
			Value:      status.Kelvin,
			Unit:       "K",
		},
	}
	return append(events, healthEvents(status.IsOnline())...)
}

// ProfileFor selects the hub device profile for a vendor device.
//
// Air purifiers use the dedicated purifier profile. Lights branch on
// the product capability flags: full color beats variable color
// temperature beats plain white.
func ProfileFor(device vesync.Device, profiles config.DeviceProfiles) string {
	if device.IsAirPurifier() {
		return profiles.AirPurifier
	}
	switch {
	case device.Product.Capabilities.HasColor:
		return profiles.Color
	case device.Product.Capabilities.HasVariableColorTemp:
		return profiles.ColorTemp
	default:
		return profiles.White
	}
}
