package command

import "errors"

// Domain errors for the command package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, command.ErrUnsupportedCapability) {
//	    // command for a capability this connector does not control
//	}
var (
	// ErrUnsupportedCapability is returned when a command arrives for a
	// capability the router does not handle. No vendor call is made.
	ErrUnsupportedCapability = errors.New("command: unsupported capability")

	// ErrCredentialsMissing is returned when no vendor credentials are
	// stored for the target device.
	ErrCredentialsMissing = errors.New("command: vendor credentials missing for device")

	// ErrInvalidArguments is returned when a command's argument list does
	// not carry the expected value.
	ErrInvalidArguments = errors.New("command: invalid command arguments")
)
