package redisdb

import "errors"

// Sentinel errors for Redis operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, redisdb.ErrConnectionFailed) {
//	    // Handle failed startup connection
//	}
var (
	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("redis: connection failed")
)
