package vesync

// Credentials is the vendor API credential pair returned by Login and
// required by every subsequent call.
type Credentials struct {
	AccountID string
	Token     string
}

// Device is one entry from the managed-device list. It is an immutable
// snapshot fetched per call; only derived fields are ever persisted.
type Device struct {
	CID              string  `json:"cid"`
	UUID             string  `json:"uuid"`
	DeviceName       string  `json:"deviceName"`
	DeviceImg        string  `json:"deviceImg"`
	Type             string  `json:"type"`       // device class, e.g. "wifi-air", "wifi-light"
	DeviceType       string  `json:"deviceType"` // model string, e.g. "LV-PUR131S", "ESL100CW"
	ConnectionStatus string  `json:"connectionStatus"`
	DeviceStatus     string  `json:"deviceStatus"`
	Product          Product `json:"product"`
}

// Product is the product-family record nested in each device entry.
type Product struct {
	Capabilities DeviceCapabilities `json:"capabilities"`
}

// DeviceCapabilities carries the product capability flags used for hub
// profile selection. The vendor reports these per product family.
type DeviceCapabilities struct {
	HasColor             bool `json:"has_color"`
	HasVariableColorTemp bool `json:"has_variable_color_temp"`
}

// ExternalID returns the identifier used as the join key against the hub
// inventory. The vendor reports both cid and uuid; uuid is the stable one
// accepted by the detail and action endpoints.
func (d Device) ExternalID() string {
	if d.UUID != "" {
		return d.UUID
	}
	return d.CID
}

// IsAirPurifier reports whether the device is in the air-purifier class.
func (d Device) IsAirPurifier() bool {
	return d.Type == TypeAirPurifier
}

// Device class constants from the vendor's `type` field.
const (
	TypeAirPurifier = "wifi-air"
	TypeLight       = "wifi-light"
)

// DeviceList is the result of a managed-device list call.
type DeviceList struct {
	Total int      `json:"total"`
	List  []Device `json:"list"`
}

// AirPurifierDetail is the status record for an air purifier, fetched per
// call and fed to the capability mapper. Fields mirror the vendor's
// deviceDetail response.
type AirPurifierDetail struct {
	DeviceName       string     `json:"deviceName"`
	DeviceStatus     string     `json:"deviceStatus"` // "on" / "off"
	ConnectionStatus string     `json:"connectionStatus"`
	Mode             string     `json:"mode"` // "manual", "auto", "sleep"
	Level            int        `json:"level"`
	AirQuality       string     `json:"airQuality"` // "excellent", "good", "moderate", "poor"
	FilterLife       FilterLife `json:"filterLife"`
	ScreenStatus     string     `json:"screenStatus"`
}

// FilterLife reports remaining filter life as a normalized [0,1] fraction.
type FilterLife struct {
	Change  bool    `json:"change"`
	UseHour int     `json:"useHour"`
	Percent float64 `json:"percent"`
}

// IsOnline reports whether the purifier is reachable from the vendor cloud.
func (d AirPurifierDetail) IsOnline() bool {
	return d.ConnectionStatus == "online"
}

// LightStatus is the status record for a smart bulb. Brightness and
// saturation are normalized [0,1] fractions; hue is in degrees [0,360).
type LightStatus struct {
	DeviceName       string  `json:"deviceName"`
	DeviceStatus     string  `json:"deviceStatus"` // "on" / "off"
	ConnectionStatus string  `json:"connectionStatus"`
	Brightness       float64 `json:"brightness"`
	Hue              float64 `json:"hue"`
	Saturation       float64 `json:"saturation"`
	Kelvin           int     `json:"kelvin"`
}

// IsOnline reports whether the bulb is reachable from the vendor cloud.
func (l LightStatus) IsOnline() bool {
	return l.ConnectionStatus == "online"
}
