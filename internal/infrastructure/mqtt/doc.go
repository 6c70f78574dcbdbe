// Package mqtt provides the connector's optional local event mirror.
//
// When enabled, every event batch sent to the hub is also published to
// a local broker so home-automation consumers (dashboards, recorders)
// can observe device state without polling the vendor cloud. The
// connector is publish-only on the broker; it never subscribes.
//
// The client handles connection lifecycle, auto-reconnect with
// exponential backoff, and a retained online/offline status topic with
// an LWT for crash detection.
package mqtt
