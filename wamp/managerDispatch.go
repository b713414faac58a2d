package wamp

import (
	"context"
	"errors"
	"fmt"

	"github.com/gammazero/nexus/v3/client"
	"github.com/peake100/rockyRaccoon-go/node"
	"github.com/peake100/rockyRaccoon-go/registry"
	"github.com/peake100/rockyRaccoon-go/wamp/wampmiddleware"
)

// Call implements node.Dispatcher. When the store holds a call point at dst
// the handler runs in-process with caller detail "local" and the raw argument
// values, no payload codec in between. Everything else goes out over the
// realm.
func (manager *Manager) Call(
	ctx context.Context, src node.Resource, dst node.Path, args node.List, kwargs node.Dict,
) (*node.Result, error) {
	if record, ok := manager.store.Get(dst); ok {
		if point, ok := record.CallPoint(); ok {
			return point.Call(ctx, node.Invocation{
				Path:   dst,
				Args:   args,
				Kwargs: kwargs,
				Details: node.Dict{
					node.DetailProcedure: dst.String(),
					node.DetailCaller:    node.LocalPeer,
				},
			})
		}
	}

	if !manager.session.Attached() {
		return nil, &node.DispatchError{
			Path:   dst,
			Reason: "no local call point and the session is not attached",
		}
	}

	results, err := manager.session.Call(ctx, wampmiddleware.ArgsCall{
		Caller:    src,
		Procedure: dst.String(),
		Options:   optionsCall(src),
		Args:      args,
		Kwargs:    kwargs,
	})
	if err != nil {
		return nil, remoteCallError(dst, err)
	}

	return &node.Result{Args: results.Args, Kwargs: results.Kwargs}, nil
}

// remoteCallError maps a failed realm call onto the node error types: WAMP
// error replies surface as *node.RPCError with their uri and payload, other
// failures as *node.DispatchError.
func remoteCallError(dst node.Path, err error) error {
	var rpcErr client.RPCError
	if errors.As(err, &rpcErr) && rpcErr.Err != nil {
		return &node.RPCError{
			URI:       string(rpcErr.Err.Error),
			Procedure: dst.String(),
			Args:      rpcErr.Err.Arguments,
			Kwargs:    rpcErr.Err.ArgumentsKw,
			Err:       err,
		}
	}
	return &node.DispatchError{Path: dst, Reason: "realm call failed", Err: err}
}

// Notify implements node.Dispatcher. The event fans out to the local event
// points at dst, each handler in its own routine, skipping the source
// signal's own point the way the router excludes a publisher from its own
// publication. When the session is attached the event additionally goes out
// as a realm publication; while detached, notification stays a local affair
// and is not an error.
func (manager *Manager) Notify(
	ctx context.Context, src node.Source, dst node.Path, args node.List, kwargs node.Dict,
) error {
	evt := node.Event{
		Path:   dst,
		Args:   args,
		Kwargs: kwargs,
		Details: node.Dict{
			node.DetailTopic:     dst.String(),
			node.DetailPublisher: node.LocalPeer,
		},
	}

	for _, point := range manager.store.Lookup(dst, registry.KindEvent) {
		if src.Signal != nil && point.Source == src.Signal {
			continue
		}
		// Capture the handler in the closure.
		handler := point.Event
		go handler(ctx, evt)
	}

	if !manager.session.Attached() {
		return nil
	}

	return manager.session.Publish(ctx, wampmiddleware.ArgsPublish{
		Publisher: src.Resource,
		Topic:     dst.String(),
		Options:   optionsPublish(src.Resource),
		Args:      args,
		Kwargs:    kwargs,
	})
}

// Connect implements node.Dispatcher: handler becomes an extra event point at
// dst. The first point at a path subscribes the path on the realm; points
// added to an already subscribed path share its subscription. Disconnecting
// the returned handle removes the point, and the subscription goes down with
// its last event point.
func (manager *Manager) Connect(
	ctx context.Context, src node.Resource, dst node.Path, handler node.EventHandler,
) (*node.Subscription, error) {
	if manager.session.ctx.Err() != nil {
		return nil, ErrSessionClosed
	}

	point := registry.NewEventPoint(src, handler)
	record, err := manager.store.Add(dst, point)
	if err != nil {
		return nil, err
	}

	manager.wireLock.Lock()
	_, err = manager.wireRecordKind(ctx, record, registry.KindEvent)
	manager.wireLock.Unlock()
	if err != nil {
		_, _ = manager.store.RemovePoint(dst, point)
		return nil, err
	}

	return node.NewSubscription(dst, func(ctx context.Context) error {
		_, err := manager.store.RemovePoint(dst, point)
		if err != nil {
			return err
		}

		manager.wireLock.Lock()
		defer manager.wireLock.Unlock()

		if record.Has(registry.KindEvent) ||
			record.State(registry.KindEvent) == registry.StateNone {
			return nil
		}
		return manager.unwireRecordKind(ctx, record, registry.KindEvent)
	}), nil
}

// makeInvocationTarget adapts a record into the session-facing invocation
// handler for its procedure. The record is captured rather than its point:
// points come and go between registration and delivery, and a record emptied
// by an unbind simply has no handler anymore.
func (manager *Manager) makeInvocationTarget(
	record *registry.Record,
) wampmiddleware.HandlerInvocationEvents {
	return func(
		ctx context.Context, event wampmiddleware.EventInvocation,
	) (wampmiddleware.ResultsInvocation, error) {
		point, ok := record.CallPoint()
		if !ok {
			return wampmiddleware.ResultsInvocation{}, fmt.Errorf(
				"no call point at '%v': %w", event.Path, ErrNoHandler,
			)
		}

		result, err := point.Call(ctx, node.Invocation{
			Path:    event.Path,
			Args:    event.Args,
			Kwargs:  event.Kwargs,
			Details: invocationDetails(event),
		})
		if err != nil {
			return wampmiddleware.ResultsInvocation{}, err
		}

		var results wampmiddleware.ResultsInvocation
		if result != nil {
			results.Args = result.Args
			results.Kwargs = result.Kwargs
		}
		return results, nil
	}
}

// makeEventTarget adapts a record into the session-facing event handler for
// its topic. Deliveries fan to every event point at the path, source points
// included: a realm publication reaching a signal's own point is how the
// signal's connected handlers see remote traffic.
func (manager *Manager) makeEventTarget(
	record *registry.Record,
) wampmiddleware.HandlerPublicationEvents {
	return func(ctx context.Context, event wampmiddleware.EventPublication) {
		evt := node.Event{
			Path:    event.Path,
			Args:    event.Args,
			Kwargs:  event.Kwargs,
			Details: publicationDetails(event),
		}
		for _, point := range record.PointsOf(registry.KindEvent) {
			// Capture the handler in the closure.
			handler := point.Event
			go handler(ctx, evt)
		}
	}
}

// invocationDetails normalizes router invocation details: the procedure
// detail is always present, whether or not the router disclosed it.
func invocationDetails(event wampmiddleware.EventInvocation) node.Dict {
	details := make(node.Dict, len(event.Details)+1)
	for key, value := range event.Details {
		details[key] = value
	}
	if _, ok := details[node.DetailProcedure]; !ok {
		details[node.DetailProcedure] = event.Procedure
	}
	return details
}

// publicationDetails normalizes router event details: the topic detail is
// always present, whether or not the router disclosed it.
func publicationDetails(event wampmiddleware.EventPublication) node.Dict {
	details := make(node.Dict, len(event.Details)+1)
	for key, value := range event.Details {
		details[key] = value
	}
	if _, ok := details[node.DetailTopic]; !ok {
		details[node.DetailTopic] = event.Topic
	}
	return details
}
