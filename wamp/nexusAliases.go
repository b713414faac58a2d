/*
In this file we create type aliases for the nexus types we are NOT
re-implementing, so most callers never need to import nexus directly.
*/
package wamp

import (
	"github.com/gammazero/nexus/v3/wamp"
)

// List is the payload positional-argument list of calls, invocations, and
// events.
type List = wamp.List

// Dict is the payload keyword-argument and options map of calls, invocations,
// and events.
type Dict = wamp.Dict

// URI identifies a procedure, topic, realm, or error on the router.
type URI = wamp.URI
