// Package events fans device event batches out to their sinks.
//
// Every batch goes to the hub; when configured, it is also mirrored to
// a local MQTT broker and its numeric readings are recorded to
// InfluxDB. Both reconciliation pushes and command-reflected events
// flow through the same dispatcher.
package events
