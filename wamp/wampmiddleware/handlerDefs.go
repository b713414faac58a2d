package wampmiddleware

import (
	"context"
)

// HANDLER DEFINITIONS

// HandlerRegister: signature for handlers invoked when wamp.Session.Register()
// is called.
type HandlerRegister = func(ctx context.Context, args ArgsRegister) error

// HandlerUnregister: signature for handlers invoked when
// wamp.Session.Unregister() is called.
type HandlerUnregister = func(ctx context.Context, args ArgsUnregister) error

// HandlerSubscribe: signature for handlers invoked when
// wamp.Session.Subscribe() is called.
type HandlerSubscribe = func(ctx context.Context, args ArgsSubscribe) error

// HandlerUnsubscribe: signature for handlers invoked when
// wamp.Session.Unsubscribe() is called.
type HandlerUnsubscribe = func(ctx context.Context, args ArgsUnsubscribe) error

// HandlerPublish: signature for handlers invoked when wamp.Session.Publish()
// is called.
type HandlerPublish = func(ctx context.Context, args ArgsPublish) error

// HandlerCall: signature for handlers invoked when wamp.Session.Call() is
// called.
type HandlerCall = func(ctx context.Context, args ArgsCall) (ResultsCall, error)

// INBOUND HANDLER DEFINITIONS

// HandlerInvocationEvents: signature for handlers invoked when a router
// invocation is delivered to a registered procedure. An error return is
// reported to the caller as a WAMP error.
type HandlerInvocationEvents = func(
	ctx context.Context, event EventInvocation,
) (ResultsInvocation, error)

// HandlerPublicationEvents: signature for handlers invoked when a router
// event is delivered to a subscribed topic. Events carry no reply, so there
// is nothing to return.
type HandlerPublicationEvents = func(ctx context.Context, event EventPublication)
