package defaultmiddlewares

import (
	"context"

	"github.com/peake100/rockyRaccoon-go/wamp/wampmiddleware"
	"github.com/rs/zerolog"
)

// MetadataKey is the context key the method logger is stored at, so handlers
// and middleware further down the chain can pull it back out.
const MetadataKey = "DefaultLogger"

// LoggingMiddlewareID can be used to retrieve the running instance of
// LoggingMiddleware during testing.
const LoggingMiddlewareID wampmiddleware.ProviderTypeID = "DefaultLogging"

// loggingMiddlewareCore implements basic logging on every middleware
// available.
type loggingMiddlewareCore struct {
	// Logger is the root zerolog.Logger.
	Logger zerolog.Logger
	// SuccessLogLevel is the log level to log a successful method call at.
	SuccessLogLevel zerolog.Level
	// LogArgsResultsLevel is the log level to log method args, results or
	// deliveries at.
	LogArgsResultsLevel zerolog.Level
}

func (middleware loggingMiddlewareCore) createMethodLogger(
	methodName string,
) zerolog.Logger {
	return middleware.Logger.
		With().
		Str("METHOD_CALL", methodName).
		Timestamp().
		Logger()
}

func (middleware loggingMiddlewareCore) createDeliveryLogger(
	deliveryType string,
) zerolog.Logger {
	return middleware.Logger.
		With().
		Str("DELIVERY", deliveryType).
		Timestamp().
		Logger()
}

func (middleware loggingMiddlewareCore) logMethod(
	ctx context.Context,
	methodLogger zerolog.Logger,
	args interface{},
	results interface{},
	err error,
) {
	var event *zerolog.Event
	var eventLevel zerolog.Level

	if err != nil {
		event = methodLogger.Err(err).Stack()
		eventLevel = zerolog.ErrorLevel
	} else {
		event = methodLogger.WithLevel(middleware.SuccessLogLevel)
		eventLevel = middleware.SuccessLogLevel
	}

	// If this event is disabled, return immediately.
	if !event.Enabled() {
		return
	}

	// Add the op attempt info
	methodInfo := wampmiddleware.GetMethodInfo(ctx)
	if methodInfo.OpAttempt > -1 {
		event.Int("OP_ATTEMPT", methodInfo.OpAttempt)
	}

	if middleware.LogArgsResultsLevel >= eventLevel {
		event.Interface("zARGS", args)
		if err == nil && results != nil {
			event.Interface("zRESULTS", results)
		}
	}

	event.Send()
}

func (middleware loggingMiddlewareCore) logDelivery(
	deliveryLogger zerolog.Logger, deliveryVal interface{},
) {
	event := deliveryLogger.WithLevel(middleware.SuccessLogLevel)
	eventLevel := middleware.SuccessLogLevel

	// If this event is disabled, return immediately.
	if !event.Enabled() {
		return
	}

	if middleware.LogArgsResultsLevel >= eventLevel {
		event.Interface("VALUE", deliveryVal)
	}

	event.Send()
}

func (loggingMiddlewareCore) addCtxLogger(
	ctx context.Context, methodLogger zerolog.Logger,
) context.Context {
	return context.WithValue(ctx, MetadataKey, methodLogger)
}

// LoggingMiddleware logs session method calls and router deliveries, and
// stores a logger in the handler context at MetadataKey.
type LoggingMiddleware struct {
	loggingMiddlewareCore
}

// TypeID implements wampmiddleware.ProvidesMiddleware.
func (middleware LoggingMiddleware) TypeID() wampmiddleware.ProviderTypeID {
	return LoggingMiddlewareID
}

// Register logs Session.Register calls.
func (middleware LoggingMiddleware) Register(
	next wampmiddleware.HandlerRegister,
) wampmiddleware.HandlerRegister {
	logger := middleware.createMethodLogger("Register")
	return func(ctx context.Context, args wampmiddleware.ArgsRegister) error {
		ctx = middleware.addCtxLogger(ctx, logger)
		err := next(ctx, args)
		middleware.logMethod(ctx, logger, args, nil, err)
		return err
	}
}

// Unregister logs Session.Unregister calls.
func (middleware LoggingMiddleware) Unregister(
	next wampmiddleware.HandlerUnregister,
) wampmiddleware.HandlerUnregister {
	logger := middleware.createMethodLogger("Unregister")
	return func(ctx context.Context, args wampmiddleware.ArgsUnregister) error {
		ctx = middleware.addCtxLogger(ctx, logger)
		err := next(ctx, args)
		middleware.logMethod(ctx, logger, args, nil, err)
		return err
	}
}

// Subscribe logs Session.Subscribe calls.
func (middleware LoggingMiddleware) Subscribe(
	next wampmiddleware.HandlerSubscribe,
) wampmiddleware.HandlerSubscribe {
	logger := middleware.createMethodLogger("Subscribe")
	return func(ctx context.Context, args wampmiddleware.ArgsSubscribe) error {
		ctx = middleware.addCtxLogger(ctx, logger)
		err := next(ctx, args)
		middleware.logMethod(ctx, logger, args, nil, err)
		return err
	}
}

// Unsubscribe logs Session.Unsubscribe calls.
func (middleware LoggingMiddleware) Unsubscribe(
	next wampmiddleware.HandlerUnsubscribe,
) wampmiddleware.HandlerUnsubscribe {
	logger := middleware.createMethodLogger("Unsubscribe")
	return func(ctx context.Context, args wampmiddleware.ArgsUnsubscribe) error {
		ctx = middleware.addCtxLogger(ctx, logger)
		err := next(ctx, args)
		middleware.logMethod(ctx, logger, args, nil, err)
		return err
	}
}

// Publish logs Session.Publish calls.
func (middleware LoggingMiddleware) Publish(
	next wampmiddleware.HandlerPublish,
) wampmiddleware.HandlerPublish {
	logger := middleware.createMethodLogger("Publish")
	return func(ctx context.Context, args wampmiddleware.ArgsPublish) error {
		ctx = middleware.addCtxLogger(ctx, logger)
		err := next(ctx, args)
		middleware.logMethod(ctx, logger, args, nil, err)
		return err
	}
}

// Call logs Session.Call calls and their results.
func (middleware LoggingMiddleware) Call(
	next wampmiddleware.HandlerCall,
) wampmiddleware.HandlerCall {
	logger := middleware.createMethodLogger("Call")
	return func(
		ctx context.Context, args wampmiddleware.ArgsCall,
	) (wampmiddleware.ResultsCall, error) {
		ctx = middleware.addCtxLogger(ctx, logger)
		results, err := next(ctx, args)
		middleware.logMethod(ctx, logger, args, results, err)
		return results, err
	}
}

// InvocationEvents logs invocations delivered by the router and the results
// handlers produce for them.
func (middleware LoggingMiddleware) InvocationEvents(
	next wampmiddleware.HandlerInvocationEvents,
) wampmiddleware.HandlerInvocationEvents {
	logger := middleware.createDeliveryLogger("Invocation")
	return func(
		ctx context.Context, event wampmiddleware.EventInvocation,
	) (wampmiddleware.ResultsInvocation, error) {
		ctx = middleware.addCtxLogger(ctx, logger)
		results, err := next(ctx, event)
		middleware.logMethod(ctx, logger, event, results, err)
		return results, err
	}
}

// PublicationEvents logs events delivered by the router.
func (middleware LoggingMiddleware) PublicationEvents(
	next wampmiddleware.HandlerPublicationEvents,
) wampmiddleware.HandlerPublicationEvents {
	logger := middleware.createDeliveryLogger("Publication")
	return func(ctx context.Context, event wampmiddleware.EventPublication) {
		middleware.logDelivery(logger, event)
		ctx = middleware.addCtxLogger(ctx, logger)
		next(ctx, event)
	}
}

// NewLoggerFactory creates a new factory for making session logging
// middleware.
func NewLoggerFactory(
	logger zerolog.Logger,
	successLogLevel zerolog.Level,
	logArgsResultsLevel zerolog.Level,
) wampmiddleware.ProviderFactory {
	return func() wampmiddleware.ProvidesMiddleware {
		return LoggingMiddleware{
			loggingMiddlewareCore{
				Logger:              logger,
				SuccessLogLevel:     successLogLevel,
				LogArgsResultsLevel: logArgsResultsLevel,
			},
		}
	}
}
