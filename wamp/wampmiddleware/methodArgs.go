package wampmiddleware

import (
	"github.com/gammazero/nexus/v3/wamp"
	"github.com/peake100/rockyRaccoon-go/node"
)

// ArgsRegister stores args to wamp.Session.Register() for middleware to
// inspect.
type ArgsRegister struct {
	// Procedure is the absolute uri the handler is registered at.
	Procedure string
	// Options are passed to the router with the registration request.
	Options wamp.Dict
	// Owner is the resource whose point answers the procedure. Inbound
	// invocations are decoded against it.
	Owner node.Resource
	// Path is the local path the procedure was registered from.
	Path node.Path
	// Handler receives invocations of the procedure after the session's
	// inbound invocation middleware has run.
	Handler HandlerInvocationEvents
}

// ArgsUnregister stores args to wamp.Session.Unregister() for middleware to
// inspect.
type ArgsUnregister struct {
	Procedure string
}

// ArgsSubscribe stores args to wamp.Session.Subscribe() for middleware to
// inspect.
type ArgsSubscribe struct {
	// Topic is the absolute uri the subscription is made at.
	Topic string
	// Options are passed to the router with the subscribe request.
	Options wamp.Dict
	// Owner is a resource holding an event point at the topic. Inbound events
	// are decoded against it.
	Owner node.Resource
	// Path is the local path the subscription was made from.
	Path node.Path
	// Handler receives events published at the topic after the session's
	// inbound event middleware has run.
	Handler HandlerPublicationEvents
}

// ArgsUnsubscribe stores args to wamp.Session.Unsubscribe() for middleware to
// inspect.
type ArgsUnsubscribe struct {
	Topic string
}

// ArgsPublish stores args to wamp.Session.Publish() for middleware to
// inspect.
type ArgsPublish struct {
	// Publisher is the local resource the publication originates from.
	Publisher node.Resource
	// Topic is the absolute uri published to.
	Topic string
	// Options are passed to the router with the publish request.
	Options wamp.Dict

	Args   wamp.List
	Kwargs wamp.Dict
}

// ArgsCall stores args to wamp.Session.Call() for middleware to inspect.
type ArgsCall struct {
	// Caller is the local resource making the call. Results are decoded
	// against it.
	Caller node.Resource
	// Procedure is the absolute uri being called.
	Procedure string
	// Options are passed to the router with the call request.
	Options wamp.Dict

	Args   wamp.List
	Kwargs wamp.Dict
}

// EventInvocation passes an incoming router invocation to inbound middleware
// and on to the registered dispatch point.
type EventInvocation struct {
	// Procedure is the absolute uri the invocation arrived at.
	Procedure string
	// Path is the local path the procedure was registered from.
	Path node.Path
	// Owner is the resource whose point answers the procedure. Decoding of
	// payload values resolves node references through it.
	Owner node.Resource

	Args    wamp.List
	Kwargs  wamp.Dict
	Details wamp.Dict
}

// EventPublication passes an incoming router event to inbound middleware and
// on to the subscribed dispatch points.
type EventPublication struct {
	// Topic is the absolute uri the event was published at.
	Topic string
	// Path is the local path the subscription was made from.
	Path node.Path
	// Owner is a resource holding an event point at the topic. Decoding of
	// payload values resolves node references through it.
	Owner node.Resource

	Args    wamp.List
	Kwargs  wamp.Dict
	Details wamp.Dict
}
