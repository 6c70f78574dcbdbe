// Package vesync is the REST client for the VeSync vendor cloud.
//
// It covers the calls the connector needs: account login, the managed
// device list, per-device status detail (air purifiers and smart bulbs),
// and the two purifier actions (set fan speed, turn off).
//
// The vendor wraps every response in an envelope with a result code;
// any non-zero code is a hard error here (ErrVendorAPI), matching the
// mobile app's behaviour. The client is transport plumbing only: no
// capability mapping or device bookkeeping happens in this package.
package vesync
