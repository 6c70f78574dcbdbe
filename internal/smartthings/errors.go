package smartthings

import "errors"

// Domain errors for the smartthings package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, smartthings.ErrHubAPI) {
//	    // hub rejected the call or transport failed
//	}
var (
	// ErrHubAPI is returned for any hub API failure: a non-2xx status or a
	// transport-level error. The wrapped message carries the status code
	// and response body when available.
	ErrHubAPI = errors.New("smartthings: hub API error")
)
