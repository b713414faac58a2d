// Package registry tracks which local dispatch points serve which WAMP paths.
//
// A Point is a single callable or event handler collected from a resource. A
// Record gathers every point registered at one path, together with the state
// of the path's router-side registration and subscription. The Store indexes
// records by path and enforces the single-call-point rule: a path may carry
// any number of event points but at most one call point.
//
// The store holds no session handles and performs no I/O. Session-side
// registration and replay after a reconnect are driven by the wamp package,
// which consults the per-kind states kept here.
package registry
