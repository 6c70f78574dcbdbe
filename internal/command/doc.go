// Package command routes hub device commands to the vendor cloud.
//
// Commands arrive from the webhook's event dispatch, resolve their
// stored per-device credentials, and execute against the vendor. The
// hub is then updated twice: a reflected event for the accepted value,
// followed by a full refresh of the device's real state.
package command
