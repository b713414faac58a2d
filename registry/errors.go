package registry

import (
	"errors"
)

// ErrURIBusy is returned by Store.Add when a call point is added to a path
// that already has one. A path may serve any number of subscriptions, but
// only a single procedure.
var ErrURIBusy = errors.New("uri already registered")

// ErrPointNotFound is returned when removing a point that is not present in
// the store, either because the path has no record or because the record does
// not contain the point.
var ErrPointNotFound = errors.New("point not found in registry")
