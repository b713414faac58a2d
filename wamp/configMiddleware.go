package wamp

import (
	"fmt"

	"github.com/peake100/rockyRaccoon-go/wamp/defaultmiddlewares"
	"github.com/peake100/rockyRaccoon-go/wamp/wampmiddleware"
	"github.com/rs/zerolog"
)

// SessionMiddlewares holds the middleware to add to session method and
// delivery handlers.
type SessionMiddlewares struct {
	// METHOD MIDDLEWARE
	// -----------------

	// register is the middleware for Session.Register.
	register []wampmiddleware.Register
	// unregister is the middleware for Session.Unregister.
	unregister []wampmiddleware.Unregister
	// subscribe is the middleware for Session.Subscribe.
	subscribe []wampmiddleware.Subscribe
	// unsubscribe is the middleware for Session.Unsubscribe.
	unsubscribe []wampmiddleware.Unsubscribe
	// publish is the middleware for Session.Publish.
	publish []wampmiddleware.Publish
	// call is the middleware for Session.Call.
	call []wampmiddleware.Call

	// DELIVERY MIDDLEWARE
	// -------------------

	// invocationEvents is middleware invoked on each router invocation
	// delivered to a registered procedure.
	invocationEvents []wampmiddleware.InvocationEvents
	// publicationEvents is middleware invoked on each router event delivered
	// to a subscribed topic.
	publicationEvents []wampmiddleware.PublicationEvents

	// providerFactories are middleware provider constructors to run for each
	// session built from this config.
	providerFactories []wampmiddleware.ProviderFactory

	// providers tracks the type IDs of providers passed to this config.
	providers map[wampmiddleware.ProviderTypeID]struct{}
}

// AddRegister adds a new middleware to be invoked on Session.Register calls.
func (config *SessionMiddlewares) AddRegister(middleware wampmiddleware.Register) {
	config.register = append(config.register, middleware)
}

// AddUnregister adds a new middleware to be invoked on Session.Unregister
// calls.
func (config *SessionMiddlewares) AddUnregister(middleware wampmiddleware.Unregister) {
	config.unregister = append(config.unregister, middleware)
}

// AddSubscribe adds a new middleware to be invoked on Session.Subscribe calls.
func (config *SessionMiddlewares) AddSubscribe(middleware wampmiddleware.Subscribe) {
	config.subscribe = append(config.subscribe, middleware)
}

// AddUnsubscribe adds a new middleware to be invoked on Session.Unsubscribe
// calls.
func (config *SessionMiddlewares) AddUnsubscribe(middleware wampmiddleware.Unsubscribe) {
	config.unsubscribe = append(config.unsubscribe, middleware)
}

// AddPublish adds a new middleware to be invoked on Session.Publish calls.
func (config *SessionMiddlewares) AddPublish(middleware wampmiddleware.Publish) {
	config.publish = append(config.publish, middleware)
}

// AddCall adds a new middleware to be invoked on Session.Call calls.
func (config *SessionMiddlewares) AddCall(middleware wampmiddleware.Call) {
	config.call = append(config.call, middleware)
}

// AddInvocationEvents adds a new middleware to be invoked on each router
// invocation delivered to a registered procedure.
func (config *SessionMiddlewares) AddInvocationEvents(
	middleware wampmiddleware.InvocationEvents,
) {
	config.invocationEvents = append(config.invocationEvents, middleware)
}

// AddPublicationEvents adds a new middleware to be invoked on each router
// event delivered to a subscribed topic.
func (config *SessionMiddlewares) AddPublicationEvents(
	middleware wampmiddleware.PublicationEvents,
) {
	config.publicationEvents = append(config.publicationEvents, middleware)
}

// AddProviderFactory adds a factory function which creates a new middleware
// provider value implementing one or more of the provider interfaces from the
// wampmiddleware package, like wampmiddleware.ProvidesPublish.
//
// When middleware is built for a new Session, the factory is called and all
// provider methods are registered as middleware.
//
// If the same provider value's methods should back every Session created from
// a Config, use AddProviderMethods instead.
func (config *SessionMiddlewares) AddProviderFactory(
	factory wampmiddleware.ProviderFactory,
) {
	config.providerFactories = append(config.providerFactories, factory)
}

// AddProviderMethods adds a middleware provider's methods as middleware. If
// this method is invoked directly by the user, the same provider value's
// methods are shared by every Session created from the config.
//
// If a fresh provider value should be made per Session, use
// AddProviderFactory instead.
func (config *SessionMiddlewares) AddProviderMethods(
	provider wampmiddleware.ProvidesMiddleware,
) error {
	// Check if this provider has already been registered.
	if _, ok := config.providers[provider.TypeID()]; ok {
		return ErrDuplicateProvider
	}

	// Register it's methods.
	methodsFound := false
	if hasMethods, ok := provider.(wampmiddleware.ProvidesRegister); ok {
		config.AddRegister(hasMethods.Register)
		methodsFound = true
	}

	if hasMethods, ok := provider.(wampmiddleware.ProvidesUnregister); ok {
		config.AddUnregister(hasMethods.Unregister)
		methodsFound = true
	}

	if hasMethods, ok := provider.(wampmiddleware.ProvidesSubscribe); ok {
		config.AddSubscribe(hasMethods.Subscribe)
		methodsFound = true
	}

	if hasMethods, ok := provider.(wampmiddleware.ProvidesUnsubscribe); ok {
		config.AddUnsubscribe(hasMethods.Unsubscribe)
		methodsFound = true
	}

	if hasMethods, ok := provider.(wampmiddleware.ProvidesPublish); ok {
		config.AddPublish(hasMethods.Publish)
		methodsFound = true
	}

	if hasMethods, ok := provider.(wampmiddleware.ProvidesCall); ok {
		config.AddCall(hasMethods.Call)
		methodsFound = true
	}

	if hasMethods, ok := provider.(wampmiddleware.ProvidesInvocationEvents); ok {
		config.AddInvocationEvents(hasMethods.InvocationEvents)
		methodsFound = true
	}

	if hasMethods, ok := provider.(wampmiddleware.ProvidesPublicationEvents); ok {
		config.AddPublicationEvents(hasMethods.PublicationEvents)
		methodsFound = true
	}

	if !methodsFound {
		return ErrNoMiddlewareMethods
	}

	// Add the provider to our cache.
	if config.providers == nil {
		config.providers = make(map[wampmiddleware.ProviderTypeID]struct{})
	}
	config.providers[provider.TypeID()] = struct{}{}

	return nil
}

// buildProviderFactories creates new providers from all registered factories
// and registers their methods. It returns the built providers by type ID so
// the session can expose them to tests.
func (config *SessionMiddlewares) buildProviderFactories() (
	map[wampmiddleware.ProviderTypeID]wampmiddleware.ProvidesMiddleware, error,
) {
	built := make(
		map[wampmiddleware.ProviderTypeID]wampmiddleware.ProvidesMiddleware,
		len(config.providerFactories),
	)

	for _, thisFactory := range config.providerFactories {
		provider := thisFactory()
		err := config.AddProviderMethods(provider)
		if err != nil {
			return nil, fmt.Errorf(
				"could not register middleware provider '%v': %w",
				provider.TypeID(), err,
			)
		}
		built[provider.TypeID()] = provider
	}

	return built, nil
}

// addDefaultMiddleware registers the provider factories every session gets
// unless Config.NoDefaultMiddleware is set: payload serialization and method
// logging.
func addDefaultMiddleware(middlewares *SessionMiddlewares, logger zerolog.Logger) {
	middlewares.AddProviderFactory(defaultmiddlewares.NewSerializationMiddleware)
	middlewares.AddProviderFactory(defaultmiddlewares.NewLoggerFactory(
		logger, zerolog.DebugLevel, zerolog.DebugLevel,
	))
}
