package lifecycle

import "errors"

// Domain errors for the lifecycle package.
var (
	// ErrConfigurationMissing is returned when an installation update runs
	// before the setup wizard stored its credentials or device selections.
	ErrConfigurationMissing = errors.New("lifecycle: installation configuration missing")
)
