package wampmiddleware

// Middleware definitions for session methods.

// Register defines signature for middleware invoked on
// wamp.Session.Register() call.
type Register = func(next HandlerRegister) HandlerRegister

// Unregister defines signature for middleware invoked on
// wamp.Session.Unregister() call.
type Unregister = func(next HandlerUnregister) HandlerUnregister

// Subscribe defines signature for middleware invoked on
// wamp.Session.Subscribe() call.
type Subscribe = func(next HandlerSubscribe) HandlerSubscribe

// Unsubscribe defines signature for middleware invoked on
// wamp.Session.Unsubscribe() call.
type Unsubscribe = func(next HandlerUnsubscribe) HandlerUnsubscribe

// Publish defines signature for middleware invoked on wamp.Session.Publish()
// call.
type Publish = func(next HandlerPublish) HandlerPublish

// Call defines signature for middleware invoked on wamp.Session.Call() call.
type Call = func(next HandlerCall) HandlerCall

// INBOUND MIDDLEWARE ###################################
// ######################################################

// InvocationEvents defines signature for middleware invoked on delivery of a
// router invocation to a registered procedure.
type InvocationEvents = func(next HandlerInvocationEvents) HandlerInvocationEvents

// PublicationEvents defines signature for middleware invoked on delivery of a
// router event to a subscribed topic.
type PublicationEvents = func(next HandlerPublicationEvents) HandlerPublicationEvents
