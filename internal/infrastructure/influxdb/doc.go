// Package influxdb provides the connector's optional telemetry recorder.
//
// When enabled, numeric device readings (air quality index, fan level,
// filter life, light level) are written to an InfluxDB v2 bucket as
// they flow through the event dispatcher. Writes are batched and
// non-blocking; the recorder never delays or fails a sync.
package influxdb
