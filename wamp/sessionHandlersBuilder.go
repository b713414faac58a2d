package wamp

import (
	"context"
	"errors"

	"github.com/gammazero/nexus/v3/client"
	"github.com/gammazero/nexus/v3/wamp"
	"github.com/peake100/rockyRaccoon-go/node"
	"github.com/peake100/rockyRaccoon-go/wamp/wampmiddleware"
)

// sessionHandlers holds a Session's method handlers with applied middleware.
type sessionHandlers struct {
	// register is the handler for Session.Register.
	register wampmiddleware.HandlerRegister
	// unregister is the handler for Session.Unregister.
	unregister wampmiddleware.HandlerUnregister
	// subscribe is the handler for Session.Subscribe.
	subscribe wampmiddleware.HandlerSubscribe
	// unsubscribe is the handler for Session.Unsubscribe.
	unsubscribe wampmiddleware.HandlerUnsubscribe
	// publish is the handler for Session.Publish.
	publish wampmiddleware.HandlerPublish
	// call is the handler for Session.Call.
	call wampmiddleware.HandlerCall
}

// sessionHandlersBuilder builds the base method handlers for a robust session.
type sessionHandlersBuilder struct {
	session *Session

	middlewares SessionMiddlewares
}

// invokeErrResult converts a delivery handler error into the invoke result
// reported back to the router.
func invokeErrResult(err error) client.InvokeResult {
	// Handlers can control the error uri and payload with a node.RPCError.
	var rpcErr *node.RPCError
	if errors.As(err, &rpcErr) && rpcErr.URI != "" {
		return client.InvokeResult{
			Args:   rpcErr.Args,
			Kwargs: rpcErr.Kwargs,
			Err:    wamp.URI(rpcErr.URI),
		}
	}

	return client.InvokeResult{
		Args: wamp.List{err.Error()},
		Err:  errRuntimeError,
	}
}

// createInvocationHandler adapts a delivery handler into the invocation
// handler registered with the nexus client.
func (session *Session) createInvocationHandler(
	args wampmiddleware.ArgsRegister, handler wampmiddleware.HandlerInvocationEvents,
) client.InvocationHandler {
	return func(ctx context.Context, invocation *wamp.Invocation) client.InvokeResult {
		event := wampmiddleware.EventInvocation{
			Procedure: args.Procedure,
			Path:      args.Path,
			Owner:     args.Owner,
			Args:      invocation.Arguments,
			Kwargs:    invocation.ArgumentsKw,
			Details:   invocation.Details,
		}

		results, err := handler(ctx, event)
		if err != nil {
			return invokeErrResult(err)
		}

		return client.InvokeResult{Args: results.Args, Kwargs: results.Kwargs}
	}
}

// createEventHandler adapts a delivery handler into the event handler
// registered with the nexus client.
func (session *Session) createEventHandler(
	args wampmiddleware.ArgsSubscribe, handler wampmiddleware.HandlerPublicationEvents,
) client.EventHandler {
	return func(event *wamp.Event) {
		// The nexus client does not thread a context into event handlers, so
		// deliveries run on the session's context.
		handler(session.ctx, wampmiddleware.EventPublication{
			Topic:   args.Topic,
			Path:    args.Path,
			Owner:   args.Owner,
			Args:    event.Arguments,
			Kwargs:  event.ArgumentsKw,
			Details: event.Details,
		})
	}
}

// createRegister returns the base handler for Session.Register that invokes
// the method of the underlying nexus client.
func (builder sessionHandlersBuilder) createRegister() wampmiddleware.HandlerRegister {
	// Capture the session and the delivery middleware in the closure.
	session := builder.session
	eventMiddlewares := builder.middlewares.invocationEvents

	handler := func(ctx context.Context, args wampmiddleware.ArgsRegister) error {
		// Wrap the delivery handler in the invocation delivery middleware.
		deliveryHandler := args.Handler
		for _, middleware := range eventMiddlewares {
			deliveryHandler = middleware(deliveryHandler)
		}
		invocationHandler := session.createInvocationHandler(args, deliveryHandler)

		return session.retryOperationOnClosed(
			ctx,
			func(ctx context.Context, wampClient *client.Client) error {
				return wampClient.Register(
					args.Procedure, invocationHandler, args.Options,
				)
			},
			true,
		)
	}

	for _, middleware := range builder.middlewares.register {
		handler = middleware(handler)
	}

	return handler
}

// createUnregister returns the base handler for Session.Unregister that
// invokes the method of the underlying nexus client.
func (builder sessionHandlersBuilder) createUnregister() wampmiddleware.HandlerUnregister {
	// Capture the session in the closure.
	session := builder.session

	handler := func(ctx context.Context, args wampmiddleware.ArgsUnregister) error {
		return session.retryOperationOnClosed(
			ctx,
			func(ctx context.Context, wampClient *client.Client) error {
				return wampClient.Unregister(args.Procedure)
			},
			true,
		)
	}

	for _, middleware := range builder.middlewares.unregister {
		handler = middleware(handler)
	}

	return handler
}

// createSubscribe returns the base handler for Session.Subscribe that invokes
// the method of the underlying nexus client.
func (builder sessionHandlersBuilder) createSubscribe() wampmiddleware.HandlerSubscribe {
	// Capture the session and the delivery middleware in the closure.
	session := builder.session
	eventMiddlewares := builder.middlewares.publicationEvents

	handler := func(ctx context.Context, args wampmiddleware.ArgsSubscribe) error {
		// Wrap the delivery handler in the publication delivery middleware.
		deliveryHandler := args.Handler
		for _, middleware := range eventMiddlewares {
			deliveryHandler = middleware(deliveryHandler)
		}
		eventHandler := session.createEventHandler(args, deliveryHandler)

		return session.retryOperationOnClosed(
			ctx,
			func(ctx context.Context, wampClient *client.Client) error {
				return wampClient.Subscribe(args.Topic, eventHandler, args.Options)
			},
			true,
		)
	}

	for _, middleware := range builder.middlewares.subscribe {
		handler = middleware(handler)
	}

	return handler
}

// createUnsubscribe returns the base handler for Session.Unsubscribe that
// invokes the method of the underlying nexus client.
func (builder sessionHandlersBuilder) createUnsubscribe() wampmiddleware.HandlerUnsubscribe {
	// Capture the session in the closure.
	session := builder.session

	handler := func(ctx context.Context, args wampmiddleware.ArgsUnsubscribe) error {
		return session.retryOperationOnClosed(
			ctx,
			func(ctx context.Context, wampClient *client.Client) error {
				return wampClient.Unsubscribe(args.Topic)
			},
			true,
		)
	}

	for _, middleware := range builder.middlewares.unsubscribe {
		handler = middleware(handler)
	}

	return handler
}

// createPublish returns the base handler for Session.Publish that invokes the
// method of the underlying nexus client.
func (builder sessionHandlersBuilder) createPublish() wampmiddleware.HandlerPublish {
	// Capture the session in the closure.
	session := builder.session

	handler := func(ctx context.Context, args wampmiddleware.ArgsPublish) error {
		return session.retryOperationOnClosed(
			ctx,
			func(ctx context.Context, wampClient *client.Client) error {
				return wampClient.Publish(
					args.Topic, args.Options, args.Args, args.Kwargs,
				)
			},
			true,
		)
	}

	for _, middleware := range builder.middlewares.publish {
		handler = middleware(handler)
	}

	return handler
}

// createCall returns the base handler for Session.Call that invokes the
// method of the underlying nexus client.
//
// Calls are not re-run when the client drops mid-flight: the callee may have
// received the invocation, so re-running is the caller's decision.
func (builder sessionHandlersBuilder) createCall() wampmiddleware.HandlerCall {
	// Capture the session in the closure.
	session := builder.session

	handler := func(
		ctx context.Context, args wampmiddleware.ArgsCall,
	) (results wampmiddleware.ResultsCall, err error) {
		var result *wamp.Result

		err = session.retryOperationOnClosed(
			ctx,
			func(ctx context.Context, wampClient *client.Client) error {
				var callErr error
				result, callErr = wampClient.Call(
					ctx, args.Procedure, args.Options, args.Args, args.Kwargs, nil,
				)
				return callErr
			},
			false,
		)
		if err != nil {
			return results, err
		}

		results.Args = result.Arguments
		results.Kwargs = result.ArgumentsKw
		return results, nil
	}

	for _, middleware := range builder.middlewares.call {
		handler = middleware(handler)
	}

	return handler
}

// buildHandlers creates the session method handlers with all middleware
// applied.
func (builder sessionHandlersBuilder) buildHandlers() sessionHandlers {
	return sessionHandlers{
		register:    builder.createRegister(),
		unregister:  builder.createUnregister(),
		subscribe:   builder.createSubscribe(),
		unsubscribe: builder.createUnsubscribe(),
		publish:     builder.createPublish(),
		call:        builder.createCall(),
	}
}
