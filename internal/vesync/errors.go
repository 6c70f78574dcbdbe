package vesync

import "errors"

// Domain errors for the vesync package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, vesync.ErrVendorAPI) {
//	    // vendor rejected the call or transport failed
//	}
var (
	// ErrVendorAPI is returned for any vendor failure: a non-zero response
	// code in the API envelope or a transport-level error. The wrapped
	// message carries the vendor code when one was returned.
	ErrVendorAPI = errors.New("vesync: vendor API error")
)
