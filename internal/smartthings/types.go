package smartthings

// Event is one device state event posted to the hub. Value is typed per
// attribute: numbers for levels and measurements, strings for enums.
type Event struct {
	Component  string `json:"component"`
	Capability string `json:"capability"`
	Attribute  string `json:"attribute"`
	Value      any    `json:"value"`
	Unit       string `json:"unit,omitempty"`
}

// DeviceApp is the app-owned section of a hub device record. ExternalID
// carries the vendor device identifier and is the join key during
// reconciliation.
type DeviceApp struct {
	ExternalID     string `json:"externalId"`
	ProfileID      string `json:"profileId"`
	InstalledAppID string `json:"installedAppId"`
}

// Device is a hub device record as returned by the devices API.
type Device struct {
	DeviceID string    `json:"deviceId"`
	Label    string    `json:"label"`
	App      DeviceApp `json:"app"`
}

// CreateDeviceRequest is the payload for device creation. All devices
// created by this connector are app-owned (type DEVICE).
type CreateDeviceRequest struct {
	Label      string    `json:"label"`
	LocationID string    `json:"locationId"`
	App        DeviceApp `json:"app"`
}

// deviceListPage is one page of the device list response.
type deviceListPage struct {
	Items []Device  `json:"items"`
	Links pageLinks `json:"_links"`
}

type pageLinks struct {
	Next *pageHref `json:"next"`
}

type pageHref struct {
	Href string `json:"href"`
}

// eventsRequest wraps events for the device events endpoint.
type eventsRequest struct {
	DeviceEvents []Event `json:"deviceEvents"`
}
