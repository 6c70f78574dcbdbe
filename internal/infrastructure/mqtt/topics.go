package mqtt

import "fmt"

// topicPrefix is the root of the connector's topic namespace.
const topicPrefix = "vesync"

// Topics builds the connector's MQTT topic names.
//
// Topic structure:
//
//	vesync/system/status                          - connector online/offline (retained)
//	vesync/{installedAppId}/{deviceId}/events     - mirrored device events
type Topics struct{}

// SystemStatus returns the connector status topic.
//
// Used for the retained online/offline payload and the LWT.
func (Topics) SystemStatus() string {
	return topicPrefix + "/system/status"
}

// DeviceEvents returns the event mirror topic for one hub device under
// one installation.
func (Topics) DeviceEvents(installedAppID, deviceID string) string {
	return fmt.Sprintf("%s/%s/%s/events", topicPrefix, installedAppID, deviceID)
}
