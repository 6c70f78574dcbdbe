// Package credstore persists per-installation and per-device connector
// state as Redis hashes.
//
// Each record is one hash keyed vesync:{scopeId}:{category}, where scopeId
// is an installedAppId or a hub deviceId and category partitions purposes:
//
//	auth         {accountId, token}        vendor credential
//	deviceInfo   {devices}                 comma-joined vendor externalIds
//	deviceLabels {labels}                  comma-joined labels (paired)
//	deviceIds    {ids}                     hub deviceIds for the installation
//
// Guarantees:
//   - writes are last-write-wins per (scopeId, category); every Put replaces
//     the record wholesale, so no read-modify-write discipline is needed
//   - Get on a missing key returns ErrNotFound, never a transport error,
//     so callers can branch on absence
//   - connectivity failures surface as ErrUnavailable, unchanged, with no
//     silent masking
//
// Credentials are never cached in memory across requests; every caller
// reads through this package.
package credstore
