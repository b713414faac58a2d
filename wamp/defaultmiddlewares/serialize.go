package defaultmiddlewares

import (
	"context"
	"fmt"
	"strings"

	"github.com/gammazero/nexus/v3/wamp"
	"github.com/peake100/rockyRaccoon-go/node"
	"github.com/peake100/rockyRaccoon-go/serialize"
	"github.com/peake100/rockyRaccoon-go/wamp/wampmiddleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SerializationMiddlewareID can be used to retrieve the running instance of
// SerializationMiddleware during testing.
const SerializationMiddlewareID wampmiddleware.ProviderTypeID = "DefaultSerialization"

// SerializationMiddleware envelopes registered payload values on their way to
// the router and rebuilds them on the way back in.
//
// Outbound publications additionally drop kwargs carrying the local-only
// prefix: those are meant for handlers in this process and their values may
// not survive the wire.
type SerializationMiddleware struct {
	// Registry resolves payload values to their codecs.
	Registry *serialize.Registry
}

// TypeID implements wampmiddleware.ProvidesMiddleware.
func (middleware *SerializationMiddleware) TypeID() wampmiddleware.ProviderTypeID {
	return SerializationMiddlewareID
}

// stripLocalKwargs returns kwargs without the local-only keys. The input map
// is not modified.
func stripLocalKwargs(kwargs wamp.Dict) wamp.Dict {
	hasLocal := false
	for key := range kwargs {
		if strings.HasPrefix(key, node.LocalKwargPrefix) {
			hasLocal = true
			break
		}
	}
	if !hasLocal {
		return kwargs
	}

	stripped := make(wamp.Dict, len(kwargs))
	for key, value := range kwargs {
		if strings.HasPrefix(key, node.LocalKwargPrefix) {
			continue
		}
		stripped[key] = value
	}
	return stripped
}

// Publish strips local-only kwargs and envelopes the outbound payload.
func (middleware *SerializationMiddleware) Publish(
	next wampmiddleware.HandlerPublish,
) wampmiddleware.HandlerPublish {
	return func(ctx context.Context, args wampmiddleware.ArgsPublish) error {
		encArgs, encKwargs, err := serialize.EncodeArgs(
			middleware.Registry,
			args.Args,
			stripLocalKwargs(args.Kwargs),
			args.Publisher,
		)
		if err != nil {
			return fmt.Errorf("encode publish payload: %w", err)
		}
		args.Args = encArgs
		args.Kwargs = encKwargs

		return next(ctx, args)
	}
}

// Call envelopes the outbound payload and rebuilds the result payload.
func (middleware *SerializationMiddleware) Call(
	next wampmiddleware.HandlerCall,
) wampmiddleware.HandlerCall {
	return func(
		ctx context.Context, args wampmiddleware.ArgsCall,
	) (wampmiddleware.ResultsCall, error) {
		encArgs, encKwargs, err := serialize.EncodeArgs(
			middleware.Registry, args.Args, args.Kwargs, args.Caller,
		)
		if err != nil {
			return wampmiddleware.ResultsCall{}, fmt.Errorf(
				"encode call payload: %w", err,
			)
		}
		args.Args = encArgs
		args.Kwargs = encKwargs

		results, err := next(ctx, args)
		if err != nil {
			return results, err
		}

		decArgs, decKwargs, err := serialize.DecodeArgs(
			middleware.Registry, results.Args, results.Kwargs, args.Caller,
		)
		if err != nil {
			return results, fmt.Errorf("decode call result: %w", err)
		}
		results.Args = decArgs
		results.Kwargs = decKwargs
		return results, nil
	}
}

// InvocationEvents rebuilds the inbound invocation payload and envelopes the
// result payload handed back to the router.
func (middleware *SerializationMiddleware) InvocationEvents(
	next wampmiddleware.HandlerInvocationEvents,
) wampmiddleware.HandlerInvocationEvents {
	return func(
		ctx context.Context, event wampmiddleware.EventInvocation,
	) (wampmiddleware.ResultsInvocation, error) {
		decArgs, decKwargs, err := serialize.DecodeArgs(
			middleware.Registry, event.Args, event.Kwargs, event.Owner,
		)
		if err != nil {
			return wampmiddleware.ResultsInvocation{}, fmt.Errorf(
				"decode invocation payload: %w", err,
			)
		}
		event.Args = decArgs
		event.Kwargs = decKwargs

		results, err := next(ctx, event)
		if err != nil {
			return results, err
		}

		encArgs, encKwargs, err := serialize.EncodeArgs(
			middleware.Registry, results.Args, results.Kwargs, event.Owner,
		)
		if err != nil {
			return results, fmt.Errorf("encode invocation result: %w", err)
		}
		results.Args = encArgs
		results.Kwargs = encKwargs
		return results, nil
	}
}

// PublicationEvents rebuilds the inbound event payload. Events carry no reply
// leg, so payloads that cannot be rebuilt are dropped with a log line rather
// than delivered half-decoded.
func (middleware *SerializationMiddleware) PublicationEvents(
	next wampmiddleware.HandlerPublicationEvents,
) wampmiddleware.HandlerPublicationEvents {
	return func(ctx context.Context, event wampmiddleware.EventPublication) {
		decArgs, decKwargs, err := serialize.DecodeArgs(
			middleware.Registry, event.Args, event.Kwargs, event.Owner,
		)
		if err != nil {
			logger, ok := ctx.Value(MetadataKey).(zerolog.Logger)
			if !ok {
				logger = log.Logger
			}
			logger.Error().
				Err(err).
				Str("TOPIC", event.Topic).
				Msg("dropping event: payload decode failed")
			return
		}
		event.Args = decArgs
		event.Kwargs = decKwargs

		next(ctx, event)
	}
}

// NewSerializationMiddleware creates a new SerializationMiddleware using the
// shared default registry.
func NewSerializationMiddleware() wampmiddleware.ProvidesMiddleware {
	return &SerializationMiddleware{Registry: serialize.DefaultRegistry}
}

// NewSerializationMiddlewareFactory creates a factory for serialization
// middleware over a specific registry.
func NewSerializationMiddlewareFactory(
	registry *serialize.Registry,
) wampmiddleware.ProviderFactory {
	return func() wampmiddleware.ProvidesMiddleware {
		return &SerializationMiddleware{Registry: registry}
	}
}
