// Package lifecycle orchestrates the SmartApp installation lifecycle.
//
// UPDATE is the workhorse: it turns the stored setup-wizard state
// (vendor credentials plus device selections) into a reconciled hub
// inventory, then fans credentials out to the created devices.
// UNINSTALL cascades the other way, deleting every record the
// installation wrote.
package lifecycle
