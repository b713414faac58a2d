package wamp

import (
	"context"

	"github.com/peake100/rockyRaccoon-go/wamp/wampmiddleware"
)

// Register registers a procedure on the realm. Invocations are delivered to
// args.Handler after passing through the invocation delivery middleware.
//
// If the underlying client drops off the realm mid-call, the operation is
// re-run once the realm is re-joined. Registrations do NOT survive a re-join
// on their own; the session's creator is expected to replay them on connect
// notifications, as Manager does.
func (session *Session) Register(
	ctx context.Context, args wampmiddleware.ArgsRegister,
) error {
	return session.handlers.register(ctx, args)
}

// Unregister removes a procedure registration from the realm.
func (session *Session) Unregister(
	ctx context.Context, args wampmiddleware.ArgsUnregister,
) error {
	return session.handlers.unregister(ctx, args)
}

// Subscribe subscribes to a topic on the realm. Publications are delivered to
// args.Handler after passing through the publication delivery middleware.
//
// As with Register, subscriptions made through a previous client are replayed
// by the session's creator after a re-join.
func (session *Session) Subscribe(
	ctx context.Context, args wampmiddleware.ArgsSubscribe,
) error {
	return session.handlers.subscribe(ctx, args)
}

// Unsubscribe removes a topic subscription from the realm.
func (session *Session) Unsubscribe(
	ctx context.Context, args wampmiddleware.ArgsUnsubscribe,
) error {
	return session.handlers.unsubscribe(ctx, args)
}

// Publish publishes an event to a topic on the realm.
func (session *Session) Publish(
	ctx context.Context, args wampmiddleware.ArgsPublish,
) error {
	return session.handlers.publish(ctx, args)
}

// Call calls a procedure on the realm and returns its result. Unlike the
// other methods, a call interrupted by a dropped client is NOT re-run: the
// callee may have received it, so retrying is left to the caller.
func (session *Session) Call(
	ctx context.Context, args wampmiddleware.ArgsCall,
) (wampmiddleware.ResultsCall, error) {
	return session.handlers.call(ctx, args)
}
