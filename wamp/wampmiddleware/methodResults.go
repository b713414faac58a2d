package wampmiddleware

import (
	"github.com/gammazero/nexus/v3/wamp"
)

// ResultsCall are the result values from a wamp.Session.Call() for middleware
// to inspect.
type ResultsCall struct {
	Args   wamp.List
	Kwargs wamp.Dict
}

// ResultsInvocation are the result values a dispatch point produced for an
// incoming invocation, for middleware to inspect before they are returned to
// the router.
type ResultsInvocation struct {
	Args   wamp.List
	Kwargs wamp.Dict
}
