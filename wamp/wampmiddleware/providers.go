package wampmiddleware

// ProviderTypeID identifies a middleware provider type, so running provider
// instances can be fetched during testing.
type ProviderTypeID string

// ProvidesMiddleware is implemented by types that supply middleware as
// methods. Register a provider instead of individual middleware funcs when
// several ops need to share state.
type ProvidesMiddleware interface {
	// TypeID returns a unique id for the provider type.
	TypeID() ProviderTypeID
}

// ProviderFactory creates a fresh middleware provider. Each session built
// from a config gets its own provider instances, so provider state is never
// shared across sessions.
type ProviderFactory = func() ProvidesMiddleware

// PROVIDER INTERFACES ##################################
// ######################################################

// ProvidesRegister provides Register as a method.
type ProvidesRegister interface {
	ProvidesMiddleware
	Register(next HandlerRegister) HandlerRegister
}

// ProvidesUnregister provides Unregister as a method.
type ProvidesUnregister interface {
	ProvidesMiddleware
	Unregister(next HandlerUnregister) HandlerUnregister
}

// ProvidesSubscribe provides Subscribe as a method.
type ProvidesSubscribe interface {
	ProvidesMiddleware
	Subscribe(next HandlerSubscribe) HandlerSubscribe
}

// ProvidesUnsubscribe provides Unsubscribe as a method.
type ProvidesUnsubscribe interface {
	ProvidesMiddleware
	Unsubscribe(next HandlerUnsubscribe) HandlerUnsubscribe
}

// ProvidesPublish provides Publish as a method.
type ProvidesPublish interface {
	ProvidesMiddleware
	Publish(next HandlerPublish) HandlerPublish
}

// ProvidesCall provides Call as a method.
type ProvidesCall interface {
	ProvidesMiddleware
	Call(next HandlerCall) HandlerCall
}

// ProvidesInvocationEvents provides InvocationEvents as a method.
type ProvidesInvocationEvents interface {
	ProvidesMiddleware
	InvocationEvents(next HandlerInvocationEvents) HandlerInvocationEvents
}

// ProvidesPublicationEvents provides PublicationEvents as a method.
type ProvidesPublicationEvents interface {
	ProvidesMiddleware
	PublicationEvents(next HandlerPublicationEvents) HandlerPublicationEvents
}

// ProvidesAll is a convenience interface for middleware providers that
// implement every provider interface.
type ProvidesAll interface {
	ProvidesRegister
	ProvidesUnregister
	ProvidesSubscribe
	ProvidesUnsubscribe
	ProvidesPublish
	ProvidesCall
	ProvidesInvocationEvents
	ProvidesPublicationEvents
}
