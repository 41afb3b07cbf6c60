// Package errorspkg provides common app errors.
package errorspkg

import "errors"

// ErrInternal indicates internal server error.
//
// Storage faults are logged where they happen and surface to callers only as ErrInternal.
var ErrInternal = errors.New("internal")
