package influxdb

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

// Measurement names for device telemetry.
const (
	measurementAirQuality = "air_quality"
	measurementFanSpeed   = "fan_speed"
	measurementFilterLife = "filter_life"
	measurementLightLevel = "light_level"
)

// WriteAirQuality records an air quality index sample (1 best, 4 worst)
// for one hub device.
//
// Writes are non-blocking and batched; failures surface via the error
// callback, not here.
func (c *Client) WriteAirQuality(installedAppID, deviceID string, index int) {
	c.writePoint(measurementAirQuality, installedAppID, deviceID, "index", index)
}

// WriteFanSpeed records a fan level sample (0 = off).
func (c *Client) WriteFanSpeed(installedAppID, deviceID string, level int) {
	c.writePoint(measurementFanSpeed, installedAppID, deviceID, "level", level)
}

// WriteFilterLife records a filter life sample as a 0-100 percentage.
func (c *Client) WriteFilterLife(installedAppID, deviceID string, percent int) {
	c.writePoint(measurementFilterLife, installedAppID, deviceID, "percent", percent)
}

// WriteLightLevel records a brightness sample as a 0-100 percentage.
func (c *Client) WriteLightLevel(installedAppID, deviceID string, level int) {
	c.writePoint(measurementLightLevel, installedAppID, deviceID, "level", level)
}

// writePoint queues one tagged point on the batching write API.
func (c *Client) writePoint(measurement, installedAppID, deviceID, field string, value int) {
	if !c.IsConnected() {
		return
	}

	point := influxdb2.NewPoint(
		measurement,
		map[string]string{
			"installed_app_id": installedAppID,
			"device_id":        deviceID,
		},
		map[string]any{
			field: value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
