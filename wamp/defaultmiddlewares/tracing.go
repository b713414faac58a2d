package defaultmiddlewares

import (
	"context"

	"github.com/peake100/rockyRaccoon-go/wamp/wampmiddleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddlewareID can be used to retrieve the running instance of
// TracingMiddleware during testing.
const TracingMiddlewareID wampmiddleware.ProviderTypeID = "DefaultTracing"

// tracerName is the instrumentation scope reported on spans.
const tracerName = "github.com/peake100/rockyRaccoon-go/wamp"

// TracingMiddleware opens an OpenTelemetry span around every session method
// and router delivery. Spans are recorded against the globally registered
// tracer provider.
//
// It is not part of the default middleware; opt in with:
//
//	config.Middleware.AddProviderFactory(defaultmiddlewares.NewTracingMiddleware)
type TracingMiddleware struct {
	tracer trace.Tracer
}

// TypeID implements wampmiddleware.ProvidesMiddleware.
func (middleware *TracingMiddleware) TypeID() wampmiddleware.ProviderTypeID {
	return TracingMiddlewareID
}

// endSpan records err on span and closes it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Register traces Session.Register calls.
func (middleware *TracingMiddleware) Register(
	next wampmiddleware.HandlerRegister,
) wampmiddleware.HandlerRegister {
	return func(ctx context.Context, args wampmiddleware.ArgsRegister) error {
		ctx, span := middleware.tracer.Start(
			ctx, "wamp.Register",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("wamp.procedure", args.Procedure)),
		)
		err := next(ctx, args)
		endSpan(span, err)
		return err
	}
}

// Unregister traces Session.Unregister calls.
func (middleware *TracingMiddleware) Unregister(
	next wampmiddleware.HandlerUnregister,
) wampmiddleware.HandlerUnregister {
	return func(ctx context.Context, args wampmiddleware.ArgsUnregister) error {
		ctx, span := middleware.tracer.Start(
			ctx, "wamp.Unregister",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("wamp.procedure", args.Procedure)),
		)
		err := next(ctx, args)
		endSpan(span, err)
		return err
	}
}

// Subscribe traces Session.Subscribe calls.
func (middleware *TracingMiddleware) Subscribe(
	next wampmiddleware.HandlerSubscribe,
) wampmiddleware.HandlerSubscribe {
	return func(ctx context.Context, args wampmiddleware.ArgsSubscribe) error {
		ctx, span := middleware.tracer.Start(
			ctx, "wamp.Subscribe",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("wamp.topic", args.Topic)),
		)
		err := next(ctx, args)
		endSpan(span, err)
		return err
	}
}

// Unsubscribe traces Session.Unsubscribe calls.
func (middleware *TracingMiddleware) Unsubscribe(
	next wampmiddleware.HandlerUnsubscribe,
) wampmiddleware.HandlerUnsubscribe {
	return func(ctx context.Context, args wampmiddleware.ArgsUnsubscribe) error {
		ctx, span := middleware.tracer.Start(
			ctx, "wamp.Unsubscribe",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("wamp.topic", args.Topic)),
		)
		err := next(ctx, args)
		endSpan(span, err)
		return err
	}
}

// Publish traces Session.Publish calls.
func (middleware *TracingMiddleware) Publish(
	next wampmiddleware.HandlerPublish,
) wampmiddleware.HandlerPublish {
	return func(ctx context.Context, args wampmiddleware.ArgsPublish) error {
		ctx, span := middleware.tracer.Start(
			ctx, "wamp.Publish",
			trace.WithSpanKind(trace.SpanKindProducer),
			trace.WithAttributes(attribute.String("wamp.topic", args.Topic)),
		)
		err := next(ctx, args)
		endSpan(span, err)
		return err
	}
}

// Call traces Session.Call calls.
func (middleware *TracingMiddleware) Call(
	next wampmiddleware.HandlerCall,
) wampmiddleware.HandlerCall {
	return func(
		ctx context.Context, args wampmiddleware.ArgsCall,
	) (wampmiddleware.ResultsCall, error) {
		ctx, span := middleware.tracer.Start(
			ctx, "wamp.Call",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("wamp.procedure", args.Procedure)),
		)
		results, err := next(ctx, args)
		endSpan(span, err)
		return results, err
	}
}

// InvocationEvents traces invocations delivered by the router.
func (middleware *TracingMiddleware) InvocationEvents(
	next wampmiddleware.HandlerInvocationEvents,
) wampmiddleware.HandlerInvocationEvents {
	return func(
		ctx context.Context, event wampmiddleware.EventInvocation,
	) (wampmiddleware.ResultsInvocation, error) {
		ctx, span := middleware.tracer.Start(
			ctx, "wamp.Invocation",
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("wamp.procedure", event.Procedure)),
		)
		results, err := next(ctx, event)
		endSpan(span, err)
		return results, err
	}
}

// PublicationEvents traces events delivered by the router.
func (middleware *TracingMiddleware) PublicationEvents(
	next wampmiddleware.HandlerPublicationEvents,
) wampmiddleware.HandlerPublicationEvents {
	return func(ctx context.Context, event wampmiddleware.EventPublication) {
		ctx, span := middleware.tracer.Start(
			ctx, "wamp.Publication",
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(attribute.String("wamp.topic", event.Topic)),
		)
		defer span.End()
		next(ctx, event)
	}
}

// NewTracingMiddleware creates a new TracingMiddleware on the global tracer
// provider.
func NewTracingMiddleware() wampmiddleware.ProvidesMiddleware {
	return &TracingMiddleware{tracer: otel.Tracer(tracerName)}
}
