package credstore

import (
	"context"
	"fmt"
	"strings"
)

// Field names within the stored hashes.
const (
	fieldAccountID = "accountId"
	fieldToken     = "token"
	fieldDevices   = "devices"
	fieldLabels    = "labels"
	fieldIDs       = "ids"
)

// Credential is a vendor API credential pair. It is scoped either to an
// installation (during setup) or to an individual hub device (after device
// creation, so commands can be routed without re-deriving the installation).
type Credential struct {
	AccountID string
	Token     string
}

// Selection is one setup-time device choice: the vendor externalId and the
// label the user picked for it. Selections are always handled as pairs;
// the two underlying delimited lists are joined and validated on read so a
// misaligned record fails loudly instead of mislabelling devices.
type Selection struct {
	ExternalID string
	Label      string
}

// PutAuth stores the vendor credential for a scope.
func (s *Store) PutAuth(ctx context.Context, scopeID string, cred Credential) error {
	return s.Put(ctx, scopeID, CategoryAuth, map[string]string{
		fieldAccountID: cred.AccountID,
		fieldToken:     cred.Token,
	})
}

// GetAuth retrieves the vendor credential for a scope.
//
// Returns:
//   - Credential: the stored pair
//   - error: ErrNotFound if never written; ErrMalformedRecord if fields are
//     missing; ErrUnavailable on transport failure
func (s *Store) GetAuth(ctx context.Context, scopeID string) (Credential, error) {
	fields, err := s.Get(ctx, scopeID, CategoryAuth)
	if err != nil {
		return Credential{}, err
	}

	cred := Credential{
		AccountID: fields[fieldAccountID],
		Token:     fields[fieldToken],
	}
	if cred.AccountID == "" || cred.Token == "" {
		return Credential{}, fmt.Errorf("%w: auth record for %s missing fields", ErrMalformedRecord, scopeID)
	}
	return cred, nil
}

// PutSelections stores the setup-time device selections for an installation,
// writing both the deviceInfo and deviceLabels records.
func (s *Store) PutSelections(ctx context.Context, installedAppID string, sels []Selection) error {
	ids := make([]string, 0, len(sels))
	labels := make([]string, 0, len(sels))
	for _, sel := range sels {
		ids = append(ids, sel.ExternalID)
		labels = append(labels, sel.Label)
	}

	if err := s.Put(ctx, installedAppID, CategoryDeviceInfo, map[string]string{
		fieldDevices: strings.Join(ids, ","),
	}); err != nil {
		return err
	}
	return s.Put(ctx, installedAppID, CategoryDeviceLabels, map[string]string{
		fieldLabels: strings.Join(labels, ","),
	})
}

// GetSelections loads and joins the deviceInfo and deviceLabels records.
//
// The two lists are correlated by position, so their lengths must match;
// a mismatch means one record was overwritten without the other and is
// reported as ErrMalformedRecord rather than silently mislabelling devices.
func (s *Store) GetSelections(ctx context.Context, installedAppID string) ([]Selection, error) {
	info, err := s.Get(ctx, installedAppID, CategoryDeviceInfo)
	if err != nil {
		return nil, err
	}
	labelRec, err := s.Get(ctx, installedAppID, CategoryDeviceLabels)
	if err != nil {
		return nil, err
	}

	devices := splitList(info[fieldDevices])
	labels := splitList(labelRec[fieldLabels])

	if len(devices) != len(labels) {
		return nil, fmt.Errorf("%w: %d devices but %d labels for %s",
			ErrMalformedRecord, len(devices), len(labels), installedAppID)
	}

	sels := make([]Selection, 0, len(devices))
	for i, id := range devices {
		if id == "" {
			return nil, fmt.Errorf("%w: empty device id at position %d for %s",
				ErrMalformedRecord, i, installedAppID)
		}
		sels = append(sels, Selection{ExternalID: id, Label: labels[i]})
	}
	return sels, nil
}

// PutDeviceIDs stores the full set of hub device IDs belonging to an
// installation. The set is written wholesale after each reconciliation so
// uninstall can cascade-delete per-device records.
func (s *Store) PutDeviceIDs(ctx context.Context, installedAppID string, deviceIDs []string) error {
	return s.Put(ctx, installedAppID, CategoryDeviceIDs, map[string]string{
		fieldIDs: strings.Join(deviceIDs, ","),
	})
}

// GetDeviceIDs retrieves the hub device IDs belonging to an installation.
func (s *Store) GetDeviceIDs(ctx context.Context, installedAppID string) ([]string, error) {
	fields, err := s.Get(ctx, installedAppID, CategoryDeviceIDs)
	if err != nil {
		return nil, err
	}
	return splitList(fields[fieldIDs]), nil
}

// splitList splits a comma-joined record field, treating the empty string as
// an empty list rather than a single empty element.
func splitList(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}
